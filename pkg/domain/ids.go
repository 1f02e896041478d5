package domain

import (
	"github.com/google/uuid"

	dErrors "touch/pkg/domain-errors"
)

// Typed identifiers keep user, chat and message ids from being mixed up at
// compile time. All of them are UUIDs on the wire and in storage.
type (
	UserID    uuid.UUID
	ChatID    uuid.UUID
	MessageID uuid.UUID
)

func NewUserID() UserID       { return UserID(uuid.New()) }
func NewChatID() ChatID       { return ChatID(uuid.New()) }
func NewMessageID() MessageID { return MessageID(uuid.New()) }

func (id UserID) String() string    { return uuid.UUID(id).String() }
func (id ChatID) String() string    { return uuid.UUID(id).String() }
func (id MessageID) String() string { return uuid.UUID(id).String() }

func (id UserID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id ChatID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id MessageID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

// MarshalText lets typed ids appear directly in JSON payloads.
func (id UserID) MarshalText() ([]byte, error)    { return uuid.UUID(id).MarshalText() }
func (id ChatID) MarshalText() ([]byte, error)    { return uuid.UUID(id).MarshalText() }
func (id MessageID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }

// ParseUserID parses and validates a user id received at a trust boundary.
func ParseUserID(s string) (UserID, error) {
	u, err := parseUUID(s, "user ID")
	return UserID(u), err
}

// ParseChatID parses and validates a chat id received at a trust boundary.
func ParseChatID(s string) (ChatID, error) {
	u, err := parseUUID(s, "chat ID")
	return ChatID(u), err
}

// ParseMessageID parses and validates a message id.
func ParseMessageID(s string) (MessageID, error) {
	u, err := parseUUID(s, "message ID")
	return MessageID(u), err
}

func parseUUID(s, label string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" required")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+label)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" cannot be nil")
	}
	return u, nil
}
