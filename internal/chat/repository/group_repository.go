package repository

import (
	"context"

	"gorm.io/gorm"

	"chathub/internal/dbmysql"
)

type GroupRepository interface {
	CreateWithMembers(ctx context.Context, group *dbmysql.Group, memberIDs []string) error
	GetByID(ctx context.Context, groupID string) (*dbmysql.Group, error)
	IsMember(ctx context.Context, groupID, userID string) (bool, error)
	ListForUser(ctx context.Context, userID string) ([]*dbmysql.Group, error)
	ListMembers(ctx context.Context, groupID string) ([]*dbmysql.User, error)
}

type groupRepository struct {
	db *gorm.DB
}

func NewGroupRepository(db *gorm.DB) GroupRepository {
	return &groupRepository{db: db}
}

func (r *groupRepository) CreateWithMembers(ctx context.Context, group *dbmysql.Group, memberIDs []string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(group).Error; err != nil {
			return err
		}
		for _, memberID := range memberIDs {
			member := &dbmysql.GroupMember{
				GroupID: group.ID,
				UserID:  memberID,
			}
			if err := tx.Create(member).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *groupRepository) GetByID(ctx context.Context, groupID string) (*dbmysql.Group, error) {
	var group dbmysql.Group
	err := r.db.WithContext(ctx).Where("id = ?", groupID).First(&group).Error
	if err != nil {
		return nil, err
	}
	return &group, nil
}

func (r *groupRepository) IsMember(ctx context.Context, groupID, userID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&dbmysql.GroupMember{}).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		Count(&count).Error
	return count > 0, err
}

func (r *groupRepository) ListForUser(ctx context.Context, userID string) ([]*dbmysql.Group, error) {
	var groups []*dbmysql.Group
	err := r.db.WithContext(ctx).
		Joins("JOIN group_members ON group_members.group_id = `groups`.id").
		Where("group_members.user_id = ?", userID).
		Find(&groups).Error
	return groups, err
}

func (r *groupRepository) ListMembers(ctx context.Context, groupID string) ([]*dbmysql.User, error) {
	var users []*dbmysql.User
	err := r.db.WithContext(ctx).Model(&dbmysql.User{}).
		Joins("JOIN group_members ON group_members.user_id = users.id").
		Where("group_members.group_id = ?", groupID).
		Find(&users).Error
	return users, err
}
