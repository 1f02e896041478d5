package models

import (
	"time"

	id "touch/pkg/domain"
)

// MaxMessageLength bounds message text in runes.
const MaxMessageLength = 4096

// SearchLimit caps user search results.
const SearchLimit = 20

// Chat is one side of a 1:1 conversation. Each participant owns their own
// row; LinkedChatID points at the counterpart's row and may dangle once the
// counterpart deletes it.
type Chat struct {
	ID           id.ChatID
	OwnerID      id.UserID
	ContactName  string
	ContactPhone string
	Muted        bool
	Pinned       bool
	LinkedChatID *id.ChatID
	CreatedAt    time.Time
}

// Message lives in exactly one chat. A send on a linked chat produces two
// independent rows, one per inbox.
type Message struct {
	ID        id.MessageID
	ChatID    id.ChatID
	SenderID  id.UserID
	Text      string
	Read      bool
	CreatedAt time.Time
}

// Activity summarizes a chat's messages from its owner's point of view.
type Activity struct {
	LastMessage     string
	LastMessageDate time.Time
	UnreadCount     int
}

// ChatView is a chat as listed to its owner.
type ChatView struct {
	Chat            *Chat
	LastMessage     *string
	LastMessageDate *time.Time
	UnreadCount     int
}

// LatestActivity is the time a chat list is ordered by: the last message
// date, or the chat's creation when it has none.
func (v ChatView) LatestActivity() time.Time {
	if v.LastMessageDate != nil {
		return *v.LastMessageDate
	}
	return v.Chat.CreatedAt
}

// MessageView tags a message with whether the viewer sent it.
type MessageView struct {
	Message  *Message
	IsFromMe bool
}

// FlagsUpdate carries optional per-inbox flag changes.
type FlagsUpdate struct {
	Muted  *bool
	Pinned *bool
}
