package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"chathub/internal/dbmysql"
)

// TypingLocation identifies where a user is typing. At most one of the
// three fields is set; the zero value means "no location", which is itself
// a valid location for upsert and delete matching.
type TypingLocation struct {
	ChannelID   string
	GroupID     string
	RecipientID string
}

type TypingRepository interface {
	Upsert(ctx context.Context, userID string, loc TypingLocation, startedAt time.Time) (*dbmysql.TypingIndicator, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) error
	DeleteAt(ctx context.Context, userID string, loc TypingLocation) error
	DeleteAllForUser(ctx context.Context, userID string) error
	ListActive(ctx context.Context, loc *TypingLocation, since time.Time) ([]*dbmysql.TypingIndicator, error)
}

type typingRepository struct {
	db *gorm.DB
}

func NewTypingRepository(db *gorm.DB) TypingRepository {
	return &typingRepository{db: db}
}

// Upsert inserts an indicator for (user, location) or, when one already
// exists, bumps its started_at. Two concurrent calls land on the unique
// index and collapse onto a single row.
func (r *typingRepository) Upsert(ctx context.Context, userID string, loc TypingLocation, startedAt time.Time) (*dbmysql.TypingIndicator, error) {
	indicator := &dbmysql.TypingIndicator{
		ID:          uuid.NewString(),
		UserID:      userID,
		ChannelID:   loc.ChannelID,
		GroupID:     loc.GroupID,
		RecipientID: loc.RecipientID,
		StartedAt:   startedAt,
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "user_id"}, {Name: "channel_id"}, {Name: "group_id"}, {Name: "recipient_id"},
			},
			DoUpdates: clause.Assignments(map[string]interface{}{"started_at": startedAt}),
		}).
		Create(indicator).Error
	if err != nil {
		return nil, err
	}

	var existing dbmysql.TypingIndicator
	err = r.db.WithContext(ctx).
		Where("user_id = ? AND channel_id = ? AND group_id = ? AND recipient_id = ?",
			userID, loc.ChannelID, loc.GroupID, loc.RecipientID).
		First(&existing).Error
	if err != nil {
		return nil, err
	}
	return &existing, nil
}

func (r *typingRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) error {
	return r.db.WithContext(ctx).
		Where("started_at < ?", cutoff).
		Delete(&dbmysql.TypingIndicator{}).Error
}

func (r *typingRepository) DeleteAt(ctx context.Context, userID string, loc TypingLocation) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND channel_id = ? AND group_id = ? AND recipient_id = ?",
			userID, loc.ChannelID, loc.GroupID, loc.RecipientID).
		Delete(&dbmysql.TypingIndicator{}).Error
}

func (r *typingRepository) DeleteAllForUser(ctx context.Context, userID string) error {
	return r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&dbmysql.TypingIndicator{}).Error
}

// ListActive filters expired rows at read time; rows past the visibility
// window may still exist physically but are never returned.
func (r *typingRepository) ListActive(ctx context.Context, loc *TypingLocation, since time.Time) ([]*dbmysql.TypingIndicator, error) {
	tx := r.db.WithContext(ctx).Where("started_at >= ?", since)
	if loc != nil {
		tx = tx.Where("channel_id = ? AND group_id = ? AND recipient_id = ?",
			loc.ChannelID, loc.GroupID, loc.RecipientID)
	}
	var indicators []*dbmysql.TypingIndicator
	err := tx.Order("started_at DESC").Find(&indicators).Error
	return indicators, err
}
