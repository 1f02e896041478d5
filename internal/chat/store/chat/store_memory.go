package chat

import (
	"context"
	"fmt"
	"sync"

	"touch/internal/chat/models"
	id "touch/pkg/domain"
	"touch/pkg/platform/sentinel"
)

// InMemoryChatStore keeps chats in memory for tests and local runs.
type InMemoryChatStore struct {
	mu    sync.RWMutex
	chats map[id.ChatID]*models.Chat
}

func New() *InMemoryChatStore {
	return &InMemoryChatStore{chats: make(map[id.ChatID]*models.Chat)}
}

func (s *InMemoryChatStore) Create(_ context.Context, chat *models.Chat) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.chats[chat.ID]; ok {
		return fmt.Errorf("chat %s exists: %w", chat.ID, sentinel.ErrConflict)
	}
	s.chats[chat.ID] = clone(chat)
	return nil
}

func (s *InMemoryChatStore) SetLink(_ context.Context, chatID, linkedChatID id.ChatID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	chat, ok := s.chats[chatID]
	if !ok {
		return fmt.Errorf("chat not found: %w", sentinel.ErrNotFound)
	}
	linked := linkedChatID
	chat.LinkedChatID = &linked
	return nil
}

// FindLinked looks a chat up regardless of owner. Units of work already
// serialize on MemoryTx, so no extra locking is needed.
func (s *InMemoryChatStore) FindLinked(_ context.Context, chatID id.ChatID) (*models.Chat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if chat, ok := s.chats[chatID]; ok {
		return clone(chat), nil
	}
	return nil, fmt.Errorf("chat not found: %w", sentinel.ErrNotFound)
}

// FindOwned returns the chat only when ownerID owns it. A chat owned by
// someone else is indistinguishable from a missing one.
func (s *InMemoryChatStore) FindOwned(_ context.Context, chatID id.ChatID, ownerID id.UserID) (*models.Chat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if chat, ok := s.chats[chatID]; ok && chat.OwnerID == ownerID {
		return clone(chat), nil
	}
	return nil, fmt.Errorf("chat not found: %w", sentinel.ErrNotFound)
}

func (s *InMemoryChatStore) ListByOwner(_ context.Context, ownerID id.UserID) ([]*models.Chat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	chats := make([]*models.Chat, 0)
	for _, chat := range s.chats {
		if chat.OwnerID == ownerID {
			chats = append(chats, clone(chat))
		}
	}
	return chats, nil
}

func (s *InMemoryChatStore) UpdateFlags(_ context.Context, chatID id.ChatID, ownerID id.UserID, update models.FlagsUpdate) (*models.Chat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	chat, ok := s.chats[chatID]
	if !ok || chat.OwnerID != ownerID {
		return nil, fmt.Errorf("chat not found: %w", sentinel.ErrNotFound)
	}
	if update.Muted != nil {
		chat.Muted = *update.Muted
	}
	if update.Pinned != nil {
		chat.Pinned = *update.Pinned
	}
	return clone(chat), nil
}

// DeleteOwned removes the caller's chat. The counterpart row is untouched.
func (s *InMemoryChatStore) DeleteOwned(_ context.Context, chatID id.ChatID, ownerID id.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	chat, ok := s.chats[chatID]
	if !ok || chat.OwnerID != ownerID {
		return fmt.Errorf("chat not found: %w", sentinel.ErrNotFound)
	}
	delete(s.chats, chatID)
	return nil
}

func clone(c *models.Chat) *models.Chat {
	out := *c
	if c.LinkedChatID != nil {
		linked := *c.LinkedChatID
		out.LinkedChatID = &linked
	}
	return &out
}
