package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"chathub/internal/chat/repository"
	"chathub/internal/common"
	"chathub/internal/dbmysql"
	"chathub/internal/user"
)

type ChannelService interface {
	CreateChannel(ctx context.Context, creatorID, name, channelType string) (*dbmysql.Channel, error)
	JoinChannel(ctx context.Context, channelID, userID string) (*dbmysql.ChannelMember, error)
	CreateGroup(ctx context.Context, creatorID, name string, memberIDs []string) (*dbmysql.Group, error)
	ListUserChannels(ctx context.Context, userID string) ([]*dbmysql.Channel, error)
}

type channelService struct {
	channelRepo repository.ChannelRepository
	groupRepo   repository.GroupRepository
	userRepo    user.UserRepository
}

func NewChannelService(
	channelRepo repository.ChannelRepository,
	groupRepo repository.GroupRepository,
	userRepo user.UserRepository,
) ChannelService {
	return &channelService{
		channelRepo: channelRepo,
		groupRepo:   groupRepo,
		userRepo:    userRepo,
	}
}

func (s *channelService) CreateChannel(ctx context.Context, creatorID, name, channelType string) (*dbmysql.Channel, error) {
	if err := common.ValidateChannelName(name); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidInput, err)
	}
	if channelType == "" {
		channelType = dbmysql.ChannelPublic
	}
	if channelType != dbmysql.ChannelPublic && channelType != dbmysql.ChannelPrivate {
		return nil, fmt.Errorf("%w: channel type must be public or private", common.ErrInvalidInput)
	}

	exists, err := s.userRepo.Exists(ctx, creatorID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%w: user %s", common.ErrNotFound, creatorID)
	}

	channel := &dbmysql.Channel{
		ID:        uuid.NewString(),
		Name:      name,
		Type:      channelType,
		CreatedBy: creatorID,
	}
	if err := s.channelRepo.CreateWithOwner(ctx, channel, creatorID); err != nil {
		return nil, err
	}
	return channel, nil
}

func (s *channelService) JoinChannel(ctx context.Context, channelID, userID string) (*dbmysql.ChannelMember, error) {
	if _, err := s.channelRepo.GetByID(ctx, channelID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: channel %s", common.ErrNotFound, channelID)
		}
		return nil, err
	}
	exists, err := s.userRepo.Exists(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%w: user %s", common.ErrNotFound, userID)
	}

	member, err := s.channelRepo.IsMember(ctx, channelID, userID)
	if err != nil {
		return nil, err
	}
	if member {
		return nil, fmt.Errorf("%w: already a member of this channel", common.ErrConflict)
	}

	membership := &dbmysql.ChannelMember{
		ChannelID: channelID,
		UserID:    userID,
		Role:      dbmysql.RoleMember,
	}
	if err := s.channelRepo.AddMember(ctx, membership); err != nil {
		return nil, err
	}
	return membership, nil
}

// CreateGroup always includes the creator in the member set, whether or
// not the input listed them, and collapses duplicates.
func (s *channelService) CreateGroup(ctx context.Context, creatorID, name string, memberIDs []string) (*dbmysql.Group, error) {
	members := []string{creatorID}
	seen := map[string]bool{creatorID: true}
	for _, id := range memberIDs {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		members = append(members, id)
	}

	users, err := s.userRepo.GetByIDs(ctx, members)
	if err != nil {
		return nil, err
	}
	if len(users) != len(members) {
		return nil, fmt.Errorf("%w: one or more group members do not exist", common.ErrNotFound)
	}

	group := &dbmysql.Group{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedBy: creatorID,
	}
	if err := s.groupRepo.CreateWithMembers(ctx, group, members); err != nil {
		return nil, err
	}
	return group, nil
}

func (s *channelService) ListUserChannels(ctx context.Context, userID string) ([]*dbmysql.Channel, error) {
	return s.channelRepo.ListForUser(ctx, userID)
}
