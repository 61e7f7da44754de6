package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"chathub/internal/chat/repository"
	"chathub/internal/common"
	"chathub/internal/dbmysql"
	"chathub/internal/preview"
	"chathub/internal/user"
)

const defaultPageSize = 50

type SendMessageInput struct {
	AuthorID    string
	Content     string
	Type        string
	ChannelID   *string
	GroupID     *string
	RecipientID *string
	ImageURL    *string
	ReplyToID   *string
}

// MessageQuery selects one conversation's history. Exactly one of
// ChannelID, GroupID, RecipientID must be set; for a direct conversation
// the pair is (RequesterID, RecipientID).
type MessageQuery struct {
	RequesterID string
	ChannelID   *string
	GroupID     *string
	RecipientID *string
	Limit       int
	Offset      int
}

type SearchInput struct {
	UserID    string
	Query     string
	ChannelID *string
	GroupID   *string
	Limit     int
}

type MessageService interface {
	SendMessage(ctx context.Context, in SendMessageInput) (*MessageView, error)
	GetMessages(ctx context.Context, q MessageQuery) ([]*MessageView, error)
	MarkMessageRead(ctx context.Context, messageID, userID string) (*dbmysql.MessageRead, error)
	SearchMessages(ctx context.Context, in SearchInput) ([]*MessageView, error)
}

type messageService struct {
	messageRepo repository.MessageRepository
	readRepo    repository.ReadRepository
	channelRepo repository.ChannelRepository
	groupRepo   repository.GroupRepository
	userRepo    user.UserRepository
	previews    preview.Fetcher
}

func NewMessageService(
	messageRepo repository.MessageRepository,
	readRepo repository.ReadRepository,
	channelRepo repository.ChannelRepository,
	groupRepo repository.GroupRepository,
	userRepo user.UserRepository,
	previews preview.Fetcher,
) MessageService {
	return &messageService{
		messageRepo: messageRepo,
		readRepo:    readRepo,
		channelRepo: channelRepo,
		groupRepo:   groupRepo,
		userRepo:    userRepo,
		previews:    previews,
	}
}

// SendMessage validates the candidate message and persists it. Checks run
// in a fixed order and the first failure aborts everything; nothing is
// written unless all of them pass.
func (s *messageService) SendMessage(ctx context.Context, in SendMessageInput) (*MessageView, error) {
	author, err := s.userRepo.GetByID(ctx, in.AuthorID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: author %s", common.ErrNotFound, in.AuthorID)
	}
	if err != nil {
		return nil, err
	}

	if countDestinations(in.ChannelID, in.GroupID, in.RecipientID) != 1 {
		return nil, fmt.Errorf("%w: message must have exactly one destination", common.ErrInvalidInput)
	}

	msgType := in.Type
	if msgType == "" {
		msgType = dbmysql.MessageText
	}
	if !dbmysql.ValidMessageType(msgType) {
		return nil, fmt.Errorf("%w: invalid message type %q", common.ErrInvalidInput, in.Type)
	}

	switch {
	case in.ChannelID != nil:
		// Membership absence covers both "channel does not exist" and
		// "not a member"; existence is deliberately not leaked.
		member, err := s.channelRepo.IsMember(ctx, *in.ChannelID, in.AuthorID)
		if err != nil {
			return nil, err
		}
		if !member {
			return nil, fmt.Errorf("%w: user is not a member of this channel", common.ErrAccessDenied)
		}
	case in.GroupID != nil:
		member, err := s.groupRepo.IsMember(ctx, *in.GroupID, in.AuthorID)
		if err != nil {
			return nil, err
		}
		if !member {
			return nil, fmt.Errorf("%w: user is not a member of this group", common.ErrAccessDenied)
		}
	case in.RecipientID != nil:
		exists, err := s.userRepo.Exists(ctx, *in.RecipientID)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, fmt.Errorf("%w: recipient %s", common.ErrNotFound, *in.RecipientID)
		}
	}

	var replyTo *dbmysql.Message
	if in.ReplyToID != nil {
		replyTo, err = s.messageRepo.GetByID(ctx, *in.ReplyToID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: reply target %s", common.ErrNotFound, *in.ReplyToID)
		}
		if err != nil {
			return nil, err
		}
		if !sameDestination(in, replyTo) {
			return nil, fmt.Errorf("%w: reply target belongs to a different conversation", common.ErrInvalidInput)
		}
	}

	msg := &dbmysql.Message{
		ID:          uuid.NewString(),
		Content:     in.Content,
		Type:        msgType,
		UserID:      in.AuthorID,
		ChannelID:   in.ChannelID,
		GroupID:     in.GroupID,
		RecipientID: in.RecipientID,
		ImageURL:    in.ImageURL,
		ReplyToID:   in.ReplyToID,
	}

	if msgType == dbmysql.MessageText {
		if linkURL := preview.FirstURL(in.Content); linkURL != "" {
			// Best effort: a nil preview is fine and never blocks the send.
			if p := s.previews.Fetch(ctx, linkURL); p != nil {
				attachPreview(msg, p)
			}
		}
	}

	if err := s.messageRepo.Create(ctx, msg); err != nil {
		return nil, err
	}

	return &MessageView{
		Message: msg,
		Author:  author,
		ReadBy:  []*dbmysql.User{},
		ReplyTo: replyTo,
	}, nil
}

func (s *messageService) GetMessages(ctx context.Context, q MessageQuery) ([]*MessageView, error) {
	if countDestinations(q.ChannelID, q.GroupID, q.RecipientID) != 1 {
		return nil, fmt.Errorf("%w: query must name exactly one destination", common.ErrInvalidInput)
	}
	limit := q.Limit
	if limit <= 0 {
		limit = defaultPageSize
	}

	var (
		msgs []*dbmysql.Message
		err  error
	)
	switch {
	case q.ChannelID != nil:
		msgs, err = s.messageRepo.ListChannelMessages(ctx, *q.ChannelID, limit, q.Offset)
	case q.GroupID != nil:
		msgs, err = s.messageRepo.ListGroupMessages(ctx, *q.GroupID, limit, q.Offset)
	default:
		msgs, err = s.messageRepo.ListDirectMessages(ctx, q.RequesterID, *q.RecipientID, limit, q.Offset)
	}
	if err != nil {
		return nil, err
	}
	return s.assembleViews(ctx, msgs)
}

func (s *messageService) MarkMessageRead(ctx context.Context, messageID, userID string) (*dbmysql.MessageRead, error) {
	_, err := s.messageRepo.GetByID(ctx, messageID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: message %s", common.ErrNotFound, messageID)
	}
	if err != nil {
		return nil, err
	}
	return s.readRepo.MarkRead(ctx, messageID, userID)
}

// SearchMessages scans conversations the user belongs to. Filtering by a
// channel or group the user is not a member of matches nothing rather than
// revealing whether it exists.
func (s *messageService) SearchMessages(ctx context.Context, in SearchInput) ([]*MessageView, error) {
	if strings.TrimSpace(in.Query) == "" {
		return nil, fmt.Errorf("%w: search query cannot be empty", common.ErrInvalidInput)
	}
	limit := in.Limit
	if limit <= 0 {
		limit = defaultPageSize
	}

	channels, err := s.channelRepo.ListForUser(ctx, in.UserID)
	if err != nil {
		return nil, err
	}
	groups, err := s.groupRepo.ListForUser(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	filter := repository.SearchFilter{
		Query:         in.Query,
		UserID:        in.UserID,
		IncludeDirect: in.ChannelID == nil && in.GroupID == nil,
		Limit:         limit,
	}
	for _, ch := range channels {
		if in.ChannelID != nil && *in.ChannelID != ch.ID {
			continue
		}
		if in.GroupID != nil {
			continue
		}
		filter.ChannelIDs = append(filter.ChannelIDs, ch.ID)
	}
	for _, g := range groups {
		if in.GroupID != nil && *in.GroupID != g.ID {
			continue
		}
		if in.ChannelID != nil {
			continue
		}
		filter.GroupIDs = append(filter.GroupIDs, g.ID)
	}

	msgs, err := s.messageRepo.Search(ctx, filter)
	if err != nil {
		return nil, err
	}
	return s.assembleViews(ctx, msgs)
}

// assembleViews joins messages with author profiles, read-by sets and
// reply targets in a handful of batched queries.
func (s *messageService) assembleViews(ctx context.Context, msgs []*dbmysql.Message) ([]*MessageView, error) {
	views := make([]*MessageView, 0, len(msgs))
	if len(msgs) == 0 {
		return views, nil
	}

	messageIDs := make([]string, 0, len(msgs))
	for _, m := range msgs {
		messageIDs = append(messageIDs, m.ID)
	}
	reads, err := s.readRepo.ListForMessages(ctx, messageIDs)
	if err != nil {
		return nil, err
	}
	readersByMessage := map[string][]string{}
	userIDSet := map[string]bool{}
	for _, r := range reads {
		readersByMessage[r.MessageID] = append(readersByMessage[r.MessageID], r.UserID)
		userIDSet[r.UserID] = true
	}
	for _, m := range msgs {
		userIDSet[m.UserID] = true
	}

	userIDs := make([]string, 0, len(userIDSet))
	for id := range userIDSet {
		userIDs = append(userIDs, id)
	}
	users, err := s.userRepo.GetByIDs(ctx, userIDs)
	if err != nil {
		return nil, err
	}
	usersByID := map[string]*dbmysql.User{}
	for _, u := range users {
		usersByID[u.ID] = u
	}

	replyTargets := map[string]*dbmysql.Message{}
	for _, m := range msgs {
		if m.ReplyToID == nil {
			continue
		}
		if _, done := replyTargets[*m.ReplyToID]; done {
			continue
		}
		target, err := s.messageRepo.GetByID(ctx, *m.ReplyToID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		replyTargets[target.ID] = target
	}

	for _, m := range msgs {
		view := &MessageView{
			Message: m,
			Author:  usersByID[m.UserID],
			ReadBy:  []*dbmysql.User{},
		}
		for _, readerID := range readersByMessage[m.ID] {
			if u := usersByID[readerID]; u != nil {
				view.ReadBy = append(view.ReadBy, u)
			}
		}
		if m.ReplyToID != nil {
			view.ReplyTo = replyTargets[*m.ReplyToID]
		}
		views = append(views, view)
	}
	return views, nil
}

func countDestinations(channelID, groupID, recipientID *string) int {
	count := 0
	if channelID != nil {
		count++
	}
	if groupID != nil {
		count++
	}
	if recipientID != nil {
		count++
	}
	return count
}

// sameDestination reports whether the reply target lives in the same
// conversation as the new message. For direct messages the two parties
// may appear in either direction.
func sameDestination(in SendMessageInput, target *dbmysql.Message) bool {
	switch {
	case in.ChannelID != nil:
		return target.ChannelID != nil && *target.ChannelID == *in.ChannelID
	case in.GroupID != nil:
		return target.GroupID != nil && *target.GroupID == *in.GroupID
	default:
		if target.ChannelID != nil || target.GroupID != nil || target.RecipientID == nil {
			return false
		}
		a, b := in.AuthorID, *in.RecipientID
		return (target.UserID == a && *target.RecipientID == b) ||
			(target.UserID == b && *target.RecipientID == a)
	}
}

func attachPreview(msg *dbmysql.Message, p *preview.Preview) {
	msg.PreviewURL = &p.URL
	if p.Title != "" {
		msg.PreviewTitle = &p.Title
	}
	if p.Description != "" {
		msg.PreviewDescription = &p.Description
	}
	if p.Image != "" {
		msg.PreviewImage = &p.Image
	}
}
