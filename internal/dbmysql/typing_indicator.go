package dbmysql

import (
	"time"
)

// TypingIndicator is an ephemeral record of a user composing a message at
// a location. Location columns are empty strings rather than NULLs so the
// composite unique index gives the upsert a usable natural key ("no
// location" is a legal location and must conflict with itself).
type TypingIndicator struct {
	ID          string    `gorm:"primaryKey;column:id;size:36" json:"id"`
	UserID      string    `gorm:"column:user_id;size:36;not null;index:idx_typing_location,unique" json:"user_id"`
	ChannelID   string    `gorm:"column:channel_id;size:36;default:'';index:idx_typing_location,unique" json:"channel_id,omitempty"`
	GroupID     string    `gorm:"column:group_id;size:36;default:'';index:idx_typing_location,unique" json:"group_id,omitempty"`
	RecipientID string    `gorm:"column:recipient_id;size:36;default:'';index:idx_typing_location,unique" json:"recipient_id,omitempty"`
	StartedAt   time.Time `gorm:"column:started_at;index" json:"started_at"`
}
