package user

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"touch/internal/identity/models"
	id "touch/pkg/domain"
	"touch/pkg/platform/sentinel"
)

type InMemoryUserStoreSuite struct {
	suite.Suite
	store *InMemoryUserStore
	now   time.Time
}

func (s *InMemoryUserStoreSuite) SetupTest() {
	s.store = New()
	s.now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
}

func TestInMemoryUserStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryUserStoreSuite))
}

func (s *InMemoryUserStoreSuite) pending(phone, code string) *models.User {
	return models.NewPendingUser(phone, code, s.now.Add(5*time.Minute), s.now)
}

func (s *InMemoryUserStoreSuite) verified(phone string) *models.User {
	ctx := context.Background()
	_, err := s.store.UpsertPendingCode(ctx, s.pending(phone, "000000"))
	s.Require().NoError(err)
	user, err := s.store.ConsumeCode(ctx, phone, "000000", s.now)
	s.Require().NoError(err)
	return user
}

// TestUpsertPendingCode covers create-or-overwrite semantics.
func (s *InMemoryUserStoreSuite) TestUpsertPendingCode() {
	ctx := context.Background()

	s.Run("creates an unverified user for an unknown phone", func() {
		user, err := s.store.UpsertPendingCode(ctx, s.pending("5550000001", "111111"))
		s.Require().NoError(err)
		s.False(user.Verified)
		s.Equal("5550000001", user.DisplayName)
		s.Equal("111111", *user.VerificationCode)
	})

	s.Run("overwrites only the code for a known phone", func() {
		first, err := s.store.UpsertPendingCode(ctx, s.pending("5550000002", "111111"))
		s.Require().NoError(err)

		again := s.pending("5550000002", "222222")
		second, err := s.store.UpsertPendingCode(ctx, again)
		s.Require().NoError(err)
		s.Equal(first.ID, second.ID)
		s.Equal("222222", *second.VerificationCode)
	})
}

// TestLookupBehavior tests user retrieval by ID and phone.
func (s *InMemoryUserStoreSuite) TestLookupBehavior() {
	ctx := context.Background()
	created, err := s.store.UpsertPendingCode(ctx, s.pending("5551234567", "123456"))
	s.Require().NoError(err)

	s.Run("returns user by ID when exists", func() {
		found, err := s.store.FindByID(ctx, created.ID)
		s.Require().NoError(err)
		s.Equal(created, found)
	})

	s.Run("returns user by phone when exists", func() {
		found, err := s.store.FindByPhone(ctx, "5551234567")
		s.Require().NoError(err)
		s.Equal(created.ID, found.ID)
	})

	s.Run("returns ErrNotFound when user ID does not exist", func() {
		_, err := s.store.FindByID(ctx, id.NewUserID())
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("returns ErrNotFound when phone does not exist", func() {
		_, err := s.store.FindByPhone(ctx, "5559999999")
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("returned users are copies", func() {
		found, err := s.store.FindByID(ctx, created.ID)
		s.Require().NoError(err)
		found.DisplayName = "mutated"

		again, err := s.store.FindByID(ctx, created.ID)
		s.Require().NoError(err)
		s.Equal("5551234567", again.DisplayName)
	})
}

// TestConsumeCode covers the single-use compare-and-clear.
func (s *InMemoryUserStoreSuite) TestConsumeCode() {
	ctx := context.Background()

	s.Run("clears the code and verifies the user", func() {
		_, err := s.store.UpsertPendingCode(ctx, s.pending("5550000010", "123456"))
		s.Require().NoError(err)

		user, err := s.store.ConsumeCode(ctx, "5550000010", "123456", s.now.Add(time.Minute))
		s.Require().NoError(err)
		s.True(user.Verified)
		s.Nil(user.VerificationCode)
		s.Nil(user.CodeExpiresAt)
	})

	s.Run("second consume of the same code fails", func() {
		_, err := s.store.UpsertPendingCode(ctx, s.pending("5550000011", "123456"))
		s.Require().NoError(err)
		_, err = s.store.ConsumeCode(ctx, "5550000011", "123456", s.now)
		s.Require().NoError(err)

		_, err = s.store.ConsumeCode(ctx, "5550000011", "123456", s.now)
		s.Require().ErrorIs(err, sentinel.ErrInvalidState)
	})

	s.Run("wrong code is rejected", func() {
		_, err := s.store.UpsertPendingCode(ctx, s.pending("5550000012", "123456"))
		s.Require().NoError(err)

		_, err = s.store.ConsumeCode(ctx, "5550000012", "654321", s.now)
		s.Require().ErrorIs(err, sentinel.ErrInvalidState)
	})

	s.Run("code at expiry is rejected", func() {
		_, err := s.store.UpsertPendingCode(ctx, s.pending("5550000013", "123456"))
		s.Require().NoError(err)

		_, err = s.store.ConsumeCode(ctx, "5550000013", "123456", s.now.Add(5*time.Minute))
		s.Require().ErrorIs(err, sentinel.ErrInvalidState)
	})

	s.Run("unknown phone is not found", func() {
		_, err := s.store.ConsumeCode(ctx, "5550000099", "123456", s.now)
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("concurrent consumers succeed exactly once", func() {
		_, err := s.store.UpsertPendingCode(ctx, s.pending("5550000014", "777777"))
		s.Require().NoError(err)

		const goroutines = 20
		var wg sync.WaitGroup
		var successes atomic.Int32
		for range goroutines {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := s.store.ConsumeCode(ctx, "5550000014", "777777", s.now); err == nil {
					successes.Add(1)
				}
			}()
		}
		wg.Wait()
		s.Equal(int32(1), successes.Load())
	})
}

func (s *InMemoryUserStoreSuite) TestUpdateProfile() {
	ctx := context.Background()
	user := s.verified("5550000020")
	avatar := "https://cdn.example.com/a.png"

	updated, err := s.store.UpdateProfile(ctx, user.ID, "Alice", &avatar)
	s.Require().NoError(err)
	s.Equal("Alice", updated.DisplayName)
	s.Equal(avatar, *updated.AvatarURL)

	_, err = s.store.UpdateProfile(ctx, id.NewUserID(), "Nobody", nil)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

// TestSearchVerified covers filtering, ordering and the result cap.
func (s *InMemoryUserStoreSuite) TestSearchVerified() {
	ctx := context.Background()
	caller := s.verified("5551110000")
	for i := range 25 {
		s.verified(fmt.Sprintf("55522200%02d", i))
	}
	_, err := s.store.UpsertPendingCode(ctx, s.pending("5552229999", "123456"))
	s.Require().NoError(err)

	s.Run("excludes the caller", func() {
		results, err := s.store.SearchVerified(ctx, "555111", caller.ID, 20)
		s.Require().NoError(err)
		s.Empty(results)
	})

	s.Run("excludes unverified users", func() {
		results, err := s.store.SearchVerified(ctx, "5552229999", caller.ID, 20)
		s.Require().NoError(err)
		s.Empty(results)
	})

	s.Run("caps and orders by phone", func() {
		results, err := s.store.SearchVerified(ctx, "555222", caller.ID, 20)
		s.Require().NoError(err)
		s.Len(results, 20)
		s.Equal("5552220000", results[0].PhoneNumber)
		for i := 1; i < len(results); i++ {
			s.Less(results[i-1].PhoneNumber, results[i].PhoneNumber)
		}
	})
}
