//go:build integration

package main

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"touch/internal/chat/models"
	chatservice "touch/internal/chat/service"
	chatstore "touch/internal/chat/store/chat"
	messagestore "touch/internal/chat/store/message"
	identity "touch/internal/identity/models"
	userstore "touch/internal/identity/store/user"
	id "touch/pkg/domain"
	"touch/pkg/platform/sentinel"
	"touch/pkg/requestcontext"
	"touch/pkg/testutil/containers"
)

type ChatTxSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	tx       *chatPostgresTx
	chats    *chatstore.PostgresStore
	users    *userstore.PostgresStore
}

func TestChatTxSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(ChatTxSuite))
}

func (s *ChatTxSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.tx = newChatPostgresTx(s.postgres.DB)
	s.chats = chatstore.NewPostgres(s.postgres.DB)
	s.users = userstore.NewPostgres(s.postgres.DB)
}

func (s *ChatTxSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "users"))
}

func (s *ChatTxSuite) verifiedUser(phone string) *identity.User {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)
	_, err := s.users.UpsertPendingCode(ctx, identity.NewPendingUser(phone, "123456", now.Add(5*time.Minute), now))
	s.Require().NoError(err)
	u, err := s.users.ConsumeCode(ctx, phone, "123456", now)
	s.Require().NoError(err)
	return u
}

func (s *ChatTxSuite) TestRollbackOnError() {
	owner := s.verifiedUser("5551234567")
	chat := &models.Chat{
		ID:           id.NewChatID(),
		OwnerID:      owner.ID,
		ContactName:  "Bob",
		ContactPhone: "5559876543",
		CreatedAt:    time.Now().UTC(),
	}

	boom := errors.New("boom")
	err := s.tx.RunInTx(context.Background(), func(ctx context.Context) error {
		s.Require().NoError(s.chats.Create(ctx, chat))
		return boom
	})
	s.Require().ErrorIs(err, boom)

	_, err = s.chats.FindLinked(context.Background(), chat.ID)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *ChatTxSuite) TestCreateChatCommitsLinkedPair() {
	alice := s.verifiedUser("5551234567")
	bob := s.verifiedUser("5559876543")

	svc, err := chatservice.New(s.chats, messagestore.NewPostgres(s.postgres.DB), s.users, chatservice.WithTx(s.tx))
	s.Require().NoError(err)

	ctx := requestcontext.WithTime(context.Background(), time.Now().UTC().Truncate(time.Microsecond))
	view, err := svc.CreateChat(ctx, alice.ID, "Bob", bob.PhoneNumber)
	s.Require().NoError(err)

	theirs, err := s.chats.FindLinked(context.Background(), *view.Chat.LinkedChatID)
	s.Require().NoError(err)
	s.Equal(bob.ID, theirs.OwnerID)
	s.Require().NotNil(theirs.LinkedChatID)
	s.Equal(view.Chat.ID, *theirs.LinkedChatID)

	_, err = svc.SendMessage(ctx, alice.ID, view.Chat.ID, "hi")
	s.Require().NoError(err)
	msgs, err := svc.GetMessages(ctx, bob.ID, theirs.ID)
	s.Require().NoError(err)
	s.Require().Len(msgs, 1)
	s.False(msgs[0].IsFromMe)
}

// deletingChatStore deletes the counterpart chat from a second transaction
// right after the mirror lookup, the window where a concurrent delete lands.
type deletingChatStore struct {
	*chatstore.PostgresStore
	once     sync.Once
	onLinked func()
}

func (d *deletingChatStore) FindLinked(ctx context.Context, chatID id.ChatID) (*models.Chat, error) {
	chat, err := d.PostgresStore.FindLinked(ctx, chatID)
	d.once.Do(d.onLinked)
	return chat, err
}

func (s *ChatTxSuite) TestSendMessageWithConcurrentCounterpartDelete() {
	alice := s.verifiedUser("5551234567")
	bob := s.verifiedUser("5559876543")

	chats := &deletingChatStore{PostgresStore: s.chats}
	svc, err := chatservice.New(chats, messagestore.NewPostgres(s.postgres.DB), s.users, chatservice.WithTx(s.tx))
	s.Require().NoError(err)

	ctx := requestcontext.WithTime(context.Background(), time.Now().UTC().Truncate(time.Microsecond))
	mine, err := svc.CreateChat(ctx, alice.ID, "Bob", bob.PhoneNumber)
	s.Require().NoError(err)
	theirs := *mine.Chat.LinkedChatID

	deleted := make(chan error, 1)
	chats.onLinked = func() {
		go func() { deleted <- svc.DeleteChat(ctx, bob.ID, theirs) }()
		select {
		case err := <-deleted:
			deleted <- err
		case <-time.After(300 * time.Millisecond):
		}
	}

	view, err := svc.SendMessage(ctx, alice.ID, mine.Chat.ID, "hi")
	s.Require().NoError(err, "a counterpart deleted mid-send must not fail the sender")
	s.Equal("hi", view.Message.Text)

	select {
	case err := <-deleted:
		s.Require().NoError(err)
	case <-time.After(5 * time.Second):
		s.FailNow("counterpart delete never finished")
	}

	msgs, err := svc.GetMessages(ctx, alice.ID, mine.Chat.ID)
	s.Require().NoError(err)
	s.Require().Len(msgs, 1)
	s.True(msgs[0].IsFromMe)

	_, err = s.chats.FindLinked(context.Background(), theirs)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *ChatTxSuite) TestCancelledContext() {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	called := false
	err := s.tx.RunInTx(ctx, func(context.Context) error {
		called = true
		return nil
	})
	s.Require().Error(err)
	s.False(called)
}
