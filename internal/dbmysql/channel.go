package dbmysql

import (
	"time"
)

const (
	ChannelPublic  = "public"
	ChannelPrivate = "private"
)

// Channel member roles.
const (
	RoleOwner  = "owner"
	RoleAdmin  = "admin"
	RoleMember = "member"
)

type Channel struct {
	ID        string    `gorm:"primaryKey;column:id;size:36" json:"id"`
	Name      string    `gorm:"column:name;size:100;not null" json:"name"`
	Type      string    `gorm:"column:type;size:16;default:'public'" json:"type"`
	CreatedBy string    `gorm:"column:created_by;size:36;index" json:"created_by"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

type ChannelMember struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	ChannelID string    `gorm:"column:channel_id;size:36;not null;index:idx_channel_user,unique" json:"channel_id"`
	UserID    string    `gorm:"column:user_id;size:36;not null;index:idx_channel_user,unique" json:"user_id"`
	Role      string    `gorm:"column:role;size:16;default:'member'" json:"role"`
	JoinedAt  time.Time `gorm:"column:joined_at;autoCreateTime" json:"joined_at"`
}
