package dbmysql

import (
	"time"
)

// MessageRead is a read receipt. The composite primary key makes
// concurrent duplicate mark-as-read calls collapse onto one row.
type MessageRead struct {
	MessageID string    `gorm:"primaryKey;column:message_id;size:36" json:"message_id"`
	UserID    string    `gorm:"primaryKey;column:user_id;size:36" json:"user_id"`
	ReadAt    time.Time `gorm:"column:read_at" json:"read_at"`
}
