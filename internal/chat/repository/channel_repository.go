package repository

import (
	"context"

	"gorm.io/gorm"

	"chathub/internal/dbmysql"
)

type ChannelRepository interface {
	CreateWithOwner(ctx context.Context, channel *dbmysql.Channel, ownerID string) error
	GetByID(ctx context.Context, channelID string) (*dbmysql.Channel, error)
	AddMember(ctx context.Context, member *dbmysql.ChannelMember) error
	IsMember(ctx context.Context, channelID, userID string) (bool, error)
	ListForUser(ctx context.Context, userID string) ([]*dbmysql.Channel, error)
	ListMembers(ctx context.Context, channelID string) ([]*dbmysql.User, error)
}

type channelRepository struct {
	db *gorm.DB
}

func NewChannelRepository(db *gorm.DB) ChannelRepository {
	return &channelRepository{db: db}
}

// CreateWithOwner creates the channel and enrolls the creator as owner in
// one transaction.
func (r *channelRepository) CreateWithOwner(ctx context.Context, channel *dbmysql.Channel, ownerID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(channel).Error; err != nil {
			return err
		}
		member := &dbmysql.ChannelMember{
			ChannelID: channel.ID,
			UserID:    ownerID,
			Role:      dbmysql.RoleOwner,
		}
		return tx.Create(member).Error
	})
}

func (r *channelRepository) GetByID(ctx context.Context, channelID string) (*dbmysql.Channel, error) {
	var channel dbmysql.Channel
	err := r.db.WithContext(ctx).Where("id = ?", channelID).First(&channel).Error
	if err != nil {
		return nil, err
	}
	return &channel, nil
}

func (r *channelRepository) AddMember(ctx context.Context, member *dbmysql.ChannelMember) error {
	return r.db.WithContext(ctx).Create(member).Error
}

func (r *channelRepository) IsMember(ctx context.Context, channelID, userID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&dbmysql.ChannelMember{}).
		Where("channel_id = ? AND user_id = ?", channelID, userID).
		Count(&count).Error
	return count > 0, err
}

func (r *channelRepository) ListForUser(ctx context.Context, userID string) ([]*dbmysql.Channel, error) {
	var channels []*dbmysql.Channel
	err := r.db.WithContext(ctx).
		Joins("JOIN channel_members ON channel_members.channel_id = channels.id").
		Where("channel_members.user_id = ?", userID).
		Find(&channels).Error
	return channels, err
}

func (r *channelRepository) ListMembers(ctx context.Context, channelID string) ([]*dbmysql.User, error) {
	var users []*dbmysql.User
	err := r.db.WithContext(ctx).Model(&dbmysql.User{}).
		Joins("JOIN channel_members ON channel_members.user_id = users.id").
		Where("channel_members.channel_id = ?", channelID).
		Find(&users).Error
	return users, err
}
