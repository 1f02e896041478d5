//go:build integration

package user_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"touch/internal/identity/models"
	"touch/internal/identity/store/user"
	id "touch/pkg/domain"
	"touch/pkg/platform/sentinel"
	"touch/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *user.PostgresStore
	now      time.Time
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.store = user.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	err := s.postgres.TruncateTables(context.Background(), "users")
	s.Require().NoError(err)
	s.now = time.Now().UTC().Truncate(time.Microsecond)
}

func (s *PostgresStoreSuite) pending(phone, code string) *models.User {
	return models.NewPendingUser(phone, code, s.now.Add(5*time.Minute), s.now)
}

func (s *PostgresStoreSuite) TestUpsertKeepsIdentity() {
	ctx := context.Background()
	first, err := s.store.UpsertPendingCode(ctx, s.pending("5551234567", "111111"))
	s.Require().NoError(err)

	second, err := s.store.UpsertPendingCode(ctx, s.pending("5551234567", "222222"))
	s.Require().NoError(err)
	s.Equal(first.ID, second.ID)
	s.Equal("222222", *second.VerificationCode)

	found, err := s.store.FindByPhone(ctx, "5551234567")
	s.Require().NoError(err)
	s.Equal(first.ID, found.ID)
	s.False(found.Verified)
}

// TestConcurrentConsume verifies the conditional UPDATE lets exactly one
// verifier win.
func (s *PostgresStoreSuite) TestConcurrentConsume() {
	ctx := context.Background()
	_, err := s.store.UpsertPendingCode(ctx, s.pending("5551234567", "424242"))
	s.Require().NoError(err)

	const goroutines = 20
	var wg sync.WaitGroup
	var successes atomic.Int32
	var lost atomic.Int32
	for range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.store.ConsumeCode(ctx, "5551234567", "424242", s.now)
			switch {
			case err == nil:
				successes.Add(1)
			case errors.Is(err, sentinel.ErrInvalidState):
				lost.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), successes.Load())
	s.Equal(int32(goroutines-1), lost.Load())

	found, err := s.store.FindByPhone(ctx, "5551234567")
	s.Require().NoError(err)
	s.True(found.Verified)
	s.Nil(found.VerificationCode)
	s.Nil(found.CodeExpiresAt)
}

func (s *PostgresStoreSuite) TestConsumeRejectsExpired() {
	ctx := context.Background()
	_, err := s.store.UpsertPendingCode(ctx, s.pending("5551234567", "424242"))
	s.Require().NoError(err)

	_, err = s.store.ConsumeCode(ctx, "5551234567", "424242", s.now.Add(5*time.Minute))
	s.Require().ErrorIs(err, sentinel.ErrInvalidState)
}

func (s *PostgresStoreSuite) TestSearchEscapesWildcards() {
	ctx := context.Background()
	caller, err := s.store.UpsertPendingCode(ctx, s.pending("5550000000", "1"))
	s.Require().NoError(err)
	for _, phone := range []string{"5551234567", "5559876543"} {
		_, err := s.store.UpsertPendingCode(ctx, s.pending(phone, "1"))
		s.Require().NoError(err)
		_, err = s.store.ConsumeCode(ctx, phone, "1", s.now)
		s.Require().NoError(err)
	}

	results, err := s.store.SearchVerified(ctx, "%", caller.ID, 20)
	s.Require().NoError(err)
	s.Empty(results)

	results, err = s.store.SearchVerified(ctx, "555", caller.ID, 20)
	s.Require().NoError(err)
	s.Require().Len(results, 2)
	s.Equal("5551234567", results[0].PhoneNumber)
}

func (s *PostgresStoreSuite) TestUpdateProfile() {
	ctx := context.Background()
	created, err := s.store.UpsertPendingCode(ctx, s.pending("5551234567", "1"))
	s.Require().NoError(err)

	updated, err := s.store.UpdateProfile(ctx, created.ID, "Alice", nil)
	s.Require().NoError(err)
	s.Equal("Alice", updated.DisplayName)
	s.Nil(updated.AvatarURL)

	_, err = s.store.UpdateProfile(ctx, id.NewUserID(), "Nobody", nil)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}
