package message

import (
	"context"
	"sort"
	"sync"

	"touch/internal/chat/models"
	id "touch/pkg/domain"
)

type entry struct {
	seq     int64
	message *models.Message
}

// InMemoryMessageStore keeps messages in memory, grouped by chat. Insertion
// order is tracked so equal timestamps still sort deterministically.
type InMemoryMessageStore struct {
	mu     sync.RWMutex
	seq    int64
	byChat map[id.ChatID][]entry
}

func New() *InMemoryMessageStore {
	return &InMemoryMessageStore{byChat: make(map[id.ChatID][]entry)}
}

func (s *InMemoryMessageStore) Create(_ context.Context, msg *models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	stored := *msg
	s.byChat[msg.ChatID] = append(s.byChat[msg.ChatID], entry{seq: s.seq, message: &stored})
	return nil
}

// ListByChat returns the chat's messages by creation time, then insertion order.
func (s *InMemoryMessageStore) ListByChat(_ context.Context, chatID id.ChatID) ([]*models.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]entry, 0, len(s.byChat[chatID]))
	for _, e := range s.byChat[chatID] {
		msg := *e.message
		entries = append(entries, entry{seq: e.seq, message: &msg})
	}
	sortEntries(entries)

	out := make([]*models.Message, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.message)
	}
	return out, nil
}

// MarkRead flags every unread message in chatID not sent by readerID.
func (s *InMemoryMessageStore) MarkRead(_ context.Context, chatID id.ChatID, readerID id.UserID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	updated := 0
	for _, e := range s.byChat[chatID] {
		if e.message.SenderID != readerID && !e.message.Read {
			e.message.Read = true
			updated++
		}
	}
	return updated, nil
}

// DeleteByChat drops a deleted chat's messages.
func (s *InMemoryMessageStore) DeleteByChat(_ context.Context, chatID id.ChatID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byChat, chatID)
	return nil
}

// ActivityByChats returns, per chat that has messages, the latest message
// and the number of unread messages not sent by viewerID.
func (s *InMemoryMessageStore) ActivityByChats(_ context.Context, chatIDs []id.ChatID, viewerID id.UserID) (map[id.ChatID]models.Activity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[id.ChatID]models.Activity, len(chatIDs))
	for _, chatID := range chatIDs {
		entries := s.byChat[chatID]
		if len(entries) == 0 {
			continue
		}
		var (
			latest   entry
			activity models.Activity
		)
		for i, e := range entries {
			if i == 0 || later(e, latest) {
				latest = e
			}
			if e.message.SenderID != viewerID && !e.message.Read {
				activity.UnreadCount++
			}
		}
		activity.LastMessage = latest.message.Text
		activity.LastMessageDate = latest.message.CreatedAt
		out[chatID] = activity
	}
	return out, nil
}

func later(a, b entry) bool {
	if a.message.CreatedAt.Equal(b.message.CreatedAt) {
		return a.seq > b.seq
	}
	return a.message.CreatedAt.After(b.message.CreatedAt)
}

func sortEntries(entries []entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return later(entries[j], entries[i])
	})
}
