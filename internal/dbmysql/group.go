package dbmysql

import (
	"time"
)

// Group is a multi-party direct-message conversation. Name may be empty;
// the aggregator synthesizes one from the participant list at read time.
type Group struct {
	ID        string    `gorm:"primaryKey;column:id;size:36" json:"id"`
	Name      string    `gorm:"column:name;size:100" json:"name"`
	CreatedBy string    `gorm:"column:created_by;size:36;index" json:"created_by"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

type GroupMember struct {
	ID       uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	GroupID  string    `gorm:"column:group_id;size:36;not null;index:idx_group_user,unique" json:"group_id"`
	UserID   string    `gorm:"column:user_id;size:36;not null;index:idx_group_user,unique" json:"user_id"`
	JoinedAt time.Time `gorm:"column:joined_at;autoCreateTime" json:"joined_at"`
}
