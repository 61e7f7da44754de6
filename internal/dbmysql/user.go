package dbmysql

import (
	"time"
)

// Presence states a user can report.
const (
	StatusOnline  = "online"
	StatusAway    = "away"
	StatusBusy    = "busy"
	StatusOffline = "offline"
)

type User struct {
	ID           string     `gorm:"primaryKey;column:id;size:36" json:"id"`
	Username     string     `gorm:"column:username;uniqueIndex;size:50;not null" json:"username"`
	PasswordHash string     `gorm:"column:password_hash;size:255;not null" json:"-"`
	Status       string     `gorm:"column:status;size:16;default:'offline'" json:"status"`
	LastSeen     *time.Time `gorm:"column:last_seen" json:"last_seen,omitempty"`
	CreatedAt    time.Time  `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func ValidStatus(s string) bool {
	switch s {
	case StatusOnline, StatusAway, StatusBusy, StatusOffline:
		return true
	}
	return false
}
