package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"

	"chathub/internal/chat/repository"
	"chathub/internal/dbmysql"
	"chathub/internal/user"
)

// Shown when synthesizing a name for a group whose only participant is the
// requesting user.
const soloGroupName = "Empty Group"

type ConversationService interface {
	GetUserConversations(ctx context.Context, userID string) ([]*Conversation, error)
}

type conversationService struct {
	channelRepo repository.ChannelRepository
	groupRepo   repository.GroupRepository
	messageRepo repository.MessageRepository
	userRepo    user.UserRepository
}

func NewConversationService(
	channelRepo repository.ChannelRepository,
	groupRepo repository.GroupRepository,
	messageRepo repository.MessageRepository,
	userRepo user.UserRepository,
) ConversationService {
	return &conversationService{
		channelRepo: channelRepo,
		groupRepo:   groupRepo,
		messageRepo: messageRepo,
		userRepo:    userRepo,
	}
}

// GetUserConversations merges the user's channels, groups and derived
// direct conversations into one list ordered by most recent message.
// An unknown user simply has no memberships and no history, so the result
// is an empty list, not an error.
func (s *conversationService) GetUserConversations(ctx context.Context, userID string) ([]*Conversation, error) {
	conversations := []*Conversation{}

	channels, err := s.channelRepo.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, channel := range channels {
		conv, err := s.channelConversation(ctx, channel, userID)
		if err != nil {
			return nil, err
		}
		conversations = append(conversations, conv)
	}

	groups, err := s.groupRepo.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, group := range groups {
		conv, err := s.groupConversation(ctx, group, userID)
		if err != nil {
			return nil, err
		}
		conversations = append(conversations, conv)
	}

	directs, err := s.directConversations(ctx, userID)
	if err != nil {
		return nil, err
	}
	conversations = append(conversations, directs...)

	// Conversations without any message sort after every conversation
	// that has one; their relative order is left as produced.
	sort.SliceStable(conversations, func(i, j int) bool {
		return lastMessageTime(conversations[i]).After(lastMessageTime(conversations[j]))
	})

	return conversations, nil
}

func (s *conversationService) channelConversation(ctx context.Context, channel *dbmysql.Channel, userID string) (*Conversation, error) {
	members, err := s.channelRepo.ListMembers(ctx, channel.ID)
	if err != nil {
		return nil, err
	}
	last, err := s.messageRepo.LastChannelMessage(ctx, channel.ID)
	if err != nil {
		return nil, err
	}
	unread, err := s.messageRepo.CountUnreadChannel(ctx, channel.ID, userID)
	if err != nil {
		return nil, err
	}
	return &Conversation{
		ID:           channel.ID,
		Kind:         KindChannel,
		Name:         channel.Name,
		ChannelType:  channel.Type,
		Participants: members,
		LastMessage:  last,
		UnreadCount:  unread,
	}, nil
}

func (s *conversationService) groupConversation(ctx context.Context, group *dbmysql.Group, userID string) (*Conversation, error) {
	members, err := s.groupRepo.ListMembers(ctx, group.ID)
	if err != nil {
		return nil, err
	}
	last, err := s.messageRepo.LastGroupMessage(ctx, group.ID)
	if err != nil {
		return nil, err
	}
	unread, err := s.messageRepo.CountUnreadGroup(ctx, group.ID, userID)
	if err != nil {
		return nil, err
	}

	name := group.Name
	if name == "" {
		name = synthesizeGroupName(members, userID)
	}

	return &Conversation{
		ID:           group.ID,
		Kind:         KindGroup,
		Name:         name,
		Participants: members,
		LastMessage:  last,
		UnreadCount:  unread,
	}, nil
}

func (s *conversationService) directConversations(ctx context.Context, userID string) ([]*Conversation, error) {
	peerIDs, err := s.messageRepo.ListDirectPeers(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(peerIDs) == 0 {
		return nil, nil
	}

	me, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	var conversations []*Conversation
	for _, peerID := range peerIDs {
		peer, err := s.userRepo.GetByID(ctx, peerID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		last, err := s.messageRepo.LastDirectMessage(ctx, userID, peerID)
		if err != nil {
			return nil, err
		}
		unread, err := s.messageRepo.CountUnreadDirect(ctx, peerID, userID)
		if err != nil {
			return nil, err
		}
		conversations = append(conversations, &Conversation{
			ID:           peer.ID,
			Kind:         KindDirect,
			Name:         peer.Username,
			Participants: []*dbmysql.User{me, peer},
			LastMessage:  last,
			UnreadCount:  unread,
		})
	}
	return conversations, nil
}

// synthesizeGroupName joins the display names of everyone except the
// requesting user.
func synthesizeGroupName(members []*dbmysql.User, requesterID string) string {
	var names []string
	for _, m := range members {
		if m.ID == requesterID {
			continue
		}
		names = append(names, m.Username)
	}
	if len(names) == 0 {
		return soloGroupName
	}
	return strings.Join(names, ", ")
}

func lastMessageTime(c *Conversation) time.Time {
	if c.LastMessage == nil {
		return time.Time{}
	}
	return c.LastMessage.CreatedAt
}
