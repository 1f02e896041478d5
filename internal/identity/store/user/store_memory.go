package user

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"touch/internal/identity/models"
	id "touch/pkg/domain"
	"touch/pkg/platform/sentinel"
)

// Error Contract:
// - ErrNotFound when the requested user does not exist
// - ErrInvalidState when ConsumeCode finds no matching unexpired code
// InMemoryUserStore keeps users in memory for tests and local runs.
type InMemoryUserStore struct {
	mu      sync.RWMutex
	users   map[id.UserID]*models.User
	byPhone map[string]id.UserID
}

// New constructs an empty in-memory user store.
func New() *InMemoryUserStore {
	return &InMemoryUserStore{
		users:   make(map[id.UserID]*models.User),
		byPhone: make(map[string]id.UserID),
	}
}

// UpsertPendingCode inserts candidate when its phone is unknown, otherwise it
// overwrites only the pending code and expiry of the existing user.
func (s *InMemoryUserStore) UpsertPendingCode(_ context.Context, candidate *models.User) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if userID, ok := s.byPhone[candidate.PhoneNumber]; ok {
		existing := s.users[userID]
		existing.VerificationCode = copyString(candidate.VerificationCode)
		existing.CodeExpiresAt = copyTime(candidate.CodeExpiresAt)
		return clone(existing), nil
	}

	stored := clone(candidate)
	s.users[stored.ID] = stored
	s.byPhone[stored.PhoneNumber] = stored.ID
	return clone(stored), nil
}

func (s *InMemoryUserStore) FindByID(_ context.Context, userID id.UserID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if user, ok := s.users[userID]; ok {
		return clone(user), nil
	}
	return nil, fmt.Errorf("user not found: %w", sentinel.ErrNotFound)
}

func (s *InMemoryUserStore) FindByPhone(_ context.Context, phone string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if userID, ok := s.byPhone[phone]; ok {
		return clone(s.users[userID]), nil
	}
	return nil, fmt.Errorf("user not found: %w", sentinel.ErrNotFound)
}

// ConsumeCode verifies the user and clears the pending code only if code is
// still the pending one and unexpired at now. Check and clear happen under one
// lock so a code can be consumed at most once.
func (s *InMemoryUserStore) ConsumeCode(_ context.Context, phone, code string, now time.Time) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	userID, ok := s.byPhone[phone]
	if !ok {
		return nil, fmt.Errorf("user not found: %w", sentinel.ErrNotFound)
	}
	user := s.users[userID]
	if !user.HasPendingCode() || *user.VerificationCode != code || user.CodeExpired(now) {
		return nil, fmt.Errorf("code not consumable: %w", sentinel.ErrInvalidState)
	}
	user.ClearCode()
	return clone(user), nil
}

func (s *InMemoryUserStore) UpdateProfile(_ context.Context, userID id.UserID, displayName string, avatarURL *string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[userID]
	if !ok {
		return nil, fmt.Errorf("user not found: %w", sentinel.ErrNotFound)
	}
	user.DisplayName = displayName
	user.AvatarURL = copyString(avatarURL)
	return clone(user), nil
}

// SearchVerified returns verified users whose phone contains query, excluding
// exclude, ordered by phone and capped at limit.
func (s *InMemoryUserStore) SearchVerified(_ context.Context, query string, exclude id.UserID, limit int) ([]*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matches := make([]*models.User, 0)
	for _, user := range s.users {
		if !user.Verified || user.ID == exclude {
			continue
		}
		if strings.Contains(user.PhoneNumber, query) {
			matches = append(matches, clone(user))
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].PhoneNumber < matches[j].PhoneNumber
	})
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

func clone(u *models.User) *models.User {
	c := *u
	c.AvatarURL = copyString(u.AvatarURL)
	c.VerificationCode = copyString(u.VerificationCode)
	c.CodeExpiresAt = copyTime(u.CodeExpiresAt)
	return &c
}

func copyString(v *string) *string {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func copyTime(v *time.Time) *time.Time {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
