package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"chathub/internal/dbmysql"
)

type ReadRepository interface {
	MarkRead(ctx context.Context, messageID, userID string) (*dbmysql.MessageRead, error)
	ListForMessages(ctx context.Context, messageIDs []string) ([]*dbmysql.MessageRead, error)
}

type readRepository struct {
	db *gorm.DB
}

func NewReadRepository(db *gorm.DB) ReadRepository {
	return &readRepository{db: db}
}

// MarkRead is idempotent: a second call (or a concurrent duplicate) hits
// the composite primary key, inserts nothing, and returns the receipt that
// already exists with its original read_at.
func (r *readRepository) MarkRead(ctx context.Context, messageID, userID string) (*dbmysql.MessageRead, error) {
	receipt := &dbmysql.MessageRead{
		MessageID: messageID,
		UserID:    userID,
		ReadAt:    time.Now().UTC(),
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(receipt).Error
	if err != nil {
		return nil, err
	}

	var existing dbmysql.MessageRead
	err = r.db.WithContext(ctx).
		Where("message_id = ? AND user_id = ?", messageID, userID).
		First(&existing).Error
	if err != nil {
		return nil, err
	}
	return &existing, nil
}

func (r *readRepository) ListForMessages(ctx context.Context, messageIDs []string) ([]*dbmysql.MessageRead, error) {
	if len(messageIDs) == 0 {
		return nil, nil
	}
	var reads []*dbmysql.MessageRead
	err := r.db.WithContext(ctx).
		Where("message_id IN ?", messageIDs).
		Find(&reads).Error
	return reads, err
}
