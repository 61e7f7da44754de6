package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"chathub/internal/dbmysql"
)

// SearchFilter restricts a content search to conversations the user was
// already resolved (by the service layer) to have access to.
type SearchFilter struct {
	Query         string
	UserID        string
	ChannelIDs    []string
	GroupIDs      []string
	IncludeDirect bool
	Limit         int
}

type MessageRepository interface {
	Create(ctx context.Context, msg *dbmysql.Message) error
	GetByID(ctx context.Context, messageID string) (*dbmysql.Message, error)

	ListChannelMessages(ctx context.Context, channelID string, limit, offset int) ([]*dbmysql.Message, error)
	ListGroupMessages(ctx context.Context, groupID string, limit, offset int) ([]*dbmysql.Message, error)
	ListDirectMessages(ctx context.Context, userA, userB string, limit, offset int) ([]*dbmysql.Message, error)

	LastChannelMessage(ctx context.Context, channelID string) (*dbmysql.Message, error)
	LastGroupMessage(ctx context.Context, groupID string) (*dbmysql.Message, error)
	LastDirectMessage(ctx context.Context, userA, userB string) (*dbmysql.Message, error)

	CountUnreadChannel(ctx context.Context, channelID, userID string) (int64, error)
	CountUnreadGroup(ctx context.Context, groupID, userID string) (int64, error)
	CountUnreadDirect(ctx context.Context, peerID, userID string) (int64, error)

	ListDirectPeers(ctx context.Context, userID string) ([]string, error)
	Search(ctx context.Context, filter SearchFilter) ([]*dbmysql.Message, error)
}

type messageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) Create(ctx context.Context, msg *dbmysql.Message) error {
	return r.db.WithContext(ctx).Create(msg).Error
}

func (r *messageRepository) GetByID(ctx context.Context, messageID string) (*dbmysql.Message, error) {
	var msg dbmysql.Message
	err := r.db.WithContext(ctx).Where("id = ?", messageID).First(&msg).Error
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

// Newest first; equal timestamps broken by highest id so pagination and
// "last message" agree on one order.
const messageOrder = "created_at DESC, id DESC"

func (r *messageRepository) ListChannelMessages(ctx context.Context, channelID string, limit, offset int) ([]*dbmysql.Message, error) {
	var msgs []*dbmysql.Message
	err := r.db.WithContext(ctx).
		Where("channel_id = ?", channelID).
		Order(messageOrder).Limit(limit).Offset(offset).
		Find(&msgs).Error
	return msgs, err
}

func (r *messageRepository) ListGroupMessages(ctx context.Context, groupID string, limit, offset int) ([]*dbmysql.Message, error) {
	var msgs []*dbmysql.Message
	err := r.db.WithContext(ctx).
		Where("group_id = ?", groupID).
		Order(messageOrder).Limit(limit).Offset(offset).
		Find(&msgs).Error
	return msgs, err
}

func (r *messageRepository) ListDirectMessages(ctx context.Context, userA, userB string, limit, offset int) ([]*dbmysql.Message, error) {
	var msgs []*dbmysql.Message
	err := r.db.WithContext(ctx).
		Where("channel_id IS NULL AND group_id IS NULL").
		Where("(user_id = ? AND recipient_id = ?) OR (user_id = ? AND recipient_id = ?)",
			userA, userB, userB, userA).
		Order(messageOrder).Limit(limit).Offset(offset).
		Find(&msgs).Error
	return msgs, err
}

func (r *messageRepository) LastChannelMessage(ctx context.Context, channelID string) (*dbmysql.Message, error) {
	return r.lastWhere(ctx, r.db.WithContext(ctx).Where("channel_id = ?", channelID))
}

func (r *messageRepository) LastGroupMessage(ctx context.Context, groupID string) (*dbmysql.Message, error) {
	return r.lastWhere(ctx, r.db.WithContext(ctx).Where("group_id = ?", groupID))
}

func (r *messageRepository) LastDirectMessage(ctx context.Context, userA, userB string) (*dbmysql.Message, error) {
	tx := r.db.WithContext(ctx).
		Where("channel_id IS NULL AND group_id IS NULL").
		Where("(user_id = ? AND recipient_id = ?) OR (user_id = ? AND recipient_id = ?)",
			userA, userB, userB, userA)
	return r.lastWhere(ctx, tx)
}

// lastWhere returns (nil, nil) for a conversation with no messages.
func (r *messageRepository) lastWhere(ctx context.Context, tx *gorm.DB) (*dbmysql.Message, error) {
	var msgs []*dbmysql.Message
	err := tx.Order(messageOrder).Limit(1).Find(&msgs).Error
	if err != nil || len(msgs) == 0 {
		return nil, err
	}
	return msgs[0], nil
}

// Unread counts are a left anti-join: messages in the conversation minus
// the ones this user holds a receipt for.

func (r *messageRepository) CountUnreadChannel(ctx context.Context, channelID, userID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&dbmysql.Message{}).
		Joins("LEFT JOIN message_reads ON message_reads.message_id = messages.id AND message_reads.user_id = ?", userID).
		Where("messages.channel_id = ?", channelID).
		Where("message_reads.message_id IS NULL").
		Count(&count).Error
	return count, err
}

func (r *messageRepository) CountUnreadGroup(ctx context.Context, groupID, userID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&dbmysql.Message{}).
		Joins("LEFT JOIN message_reads ON message_reads.message_id = messages.id AND message_reads.user_id = ?", userID).
		Where("messages.group_id = ?", groupID).
		Where("message_reads.message_id IS NULL").
		Count(&count).Error
	return count, err
}

// CountUnreadDirect only counts messages authored by the peer and addressed
// to the user; outgoing messages are never unread to their own author.
func (r *messageRepository) CountUnreadDirect(ctx context.Context, peerID, userID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&dbmysql.Message{}).
		Joins("LEFT JOIN message_reads ON message_reads.message_id = messages.id AND message_reads.user_id = ?", userID).
		Where("messages.channel_id IS NULL AND messages.group_id IS NULL").
		Where("messages.user_id = ? AND messages.recipient_id = ?", peerID, userID).
		Where("message_reads.message_id IS NULL").
		Count(&count).Error
	return count, err
}

// ListDirectPeers derives the set of users this user has exchanged direct
// messages with. No DM-conversation row exists; this scan is the source of
// truth.
func (r *messageRepository) ListDirectPeers(ctx context.Context, userID string) ([]string, error) {
	var peers []string
	err := r.db.WithContext(ctx).Raw(`
		SELECT DISTINCT CASE WHEN user_id = ? THEN recipient_id ELSE user_id END AS peer_id
		FROM messages
		WHERE channel_id IS NULL AND group_id IS NULL
		  AND (user_id = ? OR recipient_id = ?)`,
		userID, userID, userID).
		Scan(&peers).Error
	return peers, err
}

func (r *messageRepository) Search(ctx context.Context, filter SearchFilter) ([]*dbmysql.Message, error) {
	if len(filter.ChannelIDs) == 0 && len(filter.GroupIDs) == 0 && !filter.IncludeDirect {
		return nil, nil
	}

	access := r.db.Where("1 = 0")
	if len(filter.ChannelIDs) > 0 {
		access = access.Or("channel_id IN ?", filter.ChannelIDs)
	}
	if len(filter.GroupIDs) > 0 {
		access = access.Or("group_id IN ?", filter.GroupIDs)
	}
	if filter.IncludeDirect {
		access = access.Or("channel_id IS NULL AND group_id IS NULL AND (user_id = ? OR recipient_id = ?)",
			filter.UserID, filter.UserID)
	}

	var msgs []*dbmysql.Message
	err := r.db.WithContext(ctx).
		Where("LOWER(content) LIKE ?", "%"+strings.ToLower(filter.Query)+"%").
		Where(access).
		Order(messageOrder).Limit(filter.Limit).
		Find(&msgs).Error
	return msgs, err
}
