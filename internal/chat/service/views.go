package service

import (
	"chathub/internal/dbmysql"
)

// Conversation kinds. Channels, groups and derived direct conversations
// all flatten into this one view type for the client.
const (
	KindChannel = "channel"
	KindGroup   = "group"
	KindDirect  = "direct"
)

// Conversation is a read-time view, never persisted. For a direct
// conversation the ID is the peer's user id: there is no stored DM-thread
// entity, so the direct conversation id namespace deliberately overlaps
// the user id namespace.
type Conversation struct {
	ID           string           `json:"id"`
	Kind         string           `json:"kind"`
	Name         string           `json:"name"`
	ChannelType  string           `json:"channel_type,omitempty"`
	Participants []*dbmysql.User  `json:"participants"`
	LastMessage  *dbmysql.Message `json:"last_message,omitempty"`
	UnreadCount  int64            `json:"unread_count"`
}

// MessageView is a message joined with its author profile, the users who
// have read it, and the resolved reply target.
type MessageView struct {
	*dbmysql.Message
	Author  *dbmysql.User    `json:"author,omitempty"`
	ReadBy  []*dbmysql.User  `json:"read_by"`
	ReplyTo *dbmysql.Message `json:"reply_to,omitempty"`
}
