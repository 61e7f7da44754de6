package dbmysql

import (
	"time"
)

const (
	MessageText   = "text"
	MessageImage  = "image"
	MessageSystem = "system"
)

// Message belongs to exactly one of channel, group or direct recipient.
// The schema cannot express that; the message router enforces it before
// any row is written.
type Message struct {
	ID          string  `gorm:"primaryKey;column:id;size:36" json:"id"`
	Content     string  `gorm:"column:content;type:text" json:"content"`
	Type        string  `gorm:"column:type;size:16;default:'text'" json:"type"`
	UserID      string  `gorm:"column:user_id;size:36;not null;index" json:"user_id"`
	ChannelID   *string `gorm:"column:channel_id;size:36;index" json:"channel_id,omitempty"`
	GroupID     *string `gorm:"column:group_id;size:36;index" json:"group_id,omitempty"`
	RecipientID *string `gorm:"column:recipient_id;size:36;index" json:"recipient_id,omitempty"`
	ImageURL    *string `gorm:"column:image_url;size:512" json:"image_url,omitempty"`

	// Flattened link-preview columns; all nil when no preview was attached.
	PreviewURL         *string `gorm:"column:preview_url;size:512" json:"preview_url,omitempty"`
	PreviewTitle       *string `gorm:"column:preview_title;size:255" json:"preview_title,omitempty"`
	PreviewDescription *string `gorm:"column:preview_description;size:1024" json:"preview_description,omitempty"`
	PreviewImage       *string `gorm:"column:preview_image;size:512" json:"preview_image,omitempty"`

	ReplyToID *string    `gorm:"column:reply_to_id;size:36;index" json:"reply_to_id,omitempty"`
	EditedAt  *time.Time `gorm:"column:edited_at" json:"edited_at,omitempty"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func ValidMessageType(t string) bool {
	switch t {
	case MessageText, MessageImage, MessageSystem:
		return true
	}
	return false
}
