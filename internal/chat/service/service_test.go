package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"touch/internal/chat/models"
	"touch/internal/chat/service/mocks"
	identity "touch/internal/identity/models"
	id "touch/pkg/domain"
	dErrors "touch/pkg/domain-errors"
	"touch/pkg/platform/sentinel"
	"touch/pkg/requestcontext"
)

type ServiceSuite struct {
	suite.Suite
	ctrl         *gomock.Controller
	mockChats    *mocks.MockChatStore
	mockMessages *mocks.MockMessageStore
	mockUsers    *mocks.MockUserDirectory
	service      *Service
	now          time.Time
	alice        *identity.User
	bob          *identity.User
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.mockChats = mocks.NewMockChatStore(s.ctrl)
	s.mockMessages = mocks.NewMockMessageStore(s.ctrl)
	s.mockUsers = mocks.NewMockUserDirectory(s.ctrl)
	s.now = time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	s.alice = &identity.User{ID: id.NewUserID(), PhoneNumber: "5551234567", DisplayName: "Alice", Verified: true}
	s.bob = &identity.User{ID: id.NewUserID(), PhoneNumber: "5559876543", DisplayName: "Bob", Verified: true}

	var err error
	s.service, err = New(s.mockChats, s.mockMessages, s.mockUsers,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	s.Require().NoError(err)
}

func (s *ServiceSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *ServiceSuite) ctx() context.Context {
	return requestcontext.WithTime(context.Background(), s.now)
}

func (s *ServiceSuite) TestNew_RequiresCollaborators() {
	_, err := New(nil, s.mockMessages, s.mockUsers)
	s.Error(err)
	_, err = New(s.mockChats, nil, s.mockUsers)
	s.Error(err)
	_, err = New(s.mockChats, s.mockMessages, nil)
	s.Error(err)
}

func (s *ServiceSuite) TestCreateChat() {
	s.Run("blank contact phone is rejected", func() {
		_, err := s.service.CreateChat(s.ctx(), s.alice.ID, "Bob", "   ")
		s.Require().ErrorIs(err, dErrors.New(dErrors.CodeBadRequest, "contact phone is required"))
	})

	s.Run("unknown caller", func() {
		s.mockUsers.EXPECT().FindByID(gomock.Any(), s.alice.ID).Return(nil, sentinel.ErrNotFound)
		_, err := s.service.CreateChat(s.ctx(), s.alice.ID, "Bob", s.bob.PhoneNumber)
		s.Require().ErrorIs(err, dErrors.New(dErrors.CodeNotFound, "user not found"))
	})

	s.Run("unknown contact", func() {
		s.mockUsers.EXPECT().FindByID(gomock.Any(), s.alice.ID).Return(s.alice, nil)
		s.mockUsers.EXPECT().FindByPhone(gomock.Any(), "5550000000").Return(nil, sentinel.ErrNotFound)
		_, err := s.service.CreateChat(s.ctx(), s.alice.ID, "Ghost", "5550000000")
		s.Require().ErrorIs(err, dErrors.New(dErrors.CodeNotFound, "contact not found"))
	})

	s.Run("chat with yourself is rejected", func() {
		s.mockUsers.EXPECT().FindByID(gomock.Any(), s.alice.ID).Return(s.alice, nil)
		s.mockUsers.EXPECT().FindByPhone(gomock.Any(), s.alice.PhoneNumber).Return(s.alice, nil)
		_, err := s.service.CreateChat(s.ctx(), s.alice.ID, "Me", s.alice.PhoneNumber)
		s.Require().ErrorIs(err, dErrors.New(dErrors.CodeBadRequest, "cannot start a chat with yourself"))
	})

	s.Run("creates and links both sides", func() {
		var created []*models.Chat
		links := map[id.ChatID]id.ChatID{}
		s.mockUsers.EXPECT().FindByID(gomock.Any(), s.alice.ID).Return(s.alice, nil)
		s.mockUsers.EXPECT().FindByPhone(gomock.Any(), s.bob.PhoneNumber).Return(s.bob, nil)
		s.mockChats.EXPECT().Create(gomock.Any(), gomock.Any()).Times(2).DoAndReturn(
			func(_ context.Context, chat *models.Chat) error {
				created = append(created, chat)
				return nil
			})
		s.mockChats.EXPECT().SetLink(gomock.Any(), gomock.Any(), gomock.Any()).Times(2).DoAndReturn(
			func(_ context.Context, chatID, linked id.ChatID) error {
				links[chatID] = linked
				return nil
			})

		view, err := s.service.CreateChat(s.ctx(), s.alice.ID, "", " "+s.bob.PhoneNumber+" ")
		s.Require().NoError(err)
		s.Require().Len(created, 2)

		mine, theirs := created[0], created[1]
		s.Equal(s.alice.ID, mine.OwnerID)
		s.Equal("Bob", mine.ContactName, "blank contact name falls back to display name")
		s.Equal(s.bob.PhoneNumber, mine.ContactPhone)
		s.Equal(s.bob.ID, theirs.OwnerID)
		s.Equal("Alice", theirs.ContactName)
		s.Equal(s.alice.PhoneNumber, theirs.ContactPhone)
		s.Equal(s.now, mine.CreatedAt)
		s.Equal(theirs.ID, links[mine.ID])
		s.Equal(mine.ID, links[theirs.ID])

		s.Equal(mine.ID, view.Chat.ID)
		s.Require().NotNil(view.Chat.LinkedChatID)
		s.Equal(theirs.ID, *view.Chat.LinkedChatID)
		s.Nil(view.LastMessage)
		s.Zero(view.UnreadCount)
	})

	s.Run("store failure surfaces as internal error", func() {
		s.mockUsers.EXPECT().FindByID(gomock.Any(), s.alice.ID).Return(s.alice, nil)
		s.mockUsers.EXPECT().FindByPhone(gomock.Any(), s.bob.PhoneNumber).Return(s.bob, nil)
		s.mockChats.EXPECT().Create(gomock.Any(), gomock.Any()).Return(errors.New("db down"))

		_, err := s.service.CreateChat(s.ctx(), s.alice.ID, "Bob", s.bob.PhoneNumber)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})
}

func (s *ServiceSuite) TestSendMessage() {
	linked := id.NewChatID()
	chat := &models.Chat{ID: id.NewChatID(), OwnerID: s.alice.ID, LinkedChatID: &linked}

	s.Run("blank text is rejected", func() {
		_, err := s.service.SendMessage(s.ctx(), s.alice.ID, chat.ID, " \n\t ")
		s.Require().ErrorIs(err, dErrors.New(dErrors.CodeBadRequest, "text is required"))
	})

	s.Run("text over the rune limit is rejected", func() {
		long := make([]rune, models.MaxMessageLength+1)
		for i := range long {
			long[i] = 'é'
		}
		_, err := s.service.SendMessage(s.ctx(), s.alice.ID, chat.ID, string(long))
		s.Require().ErrorIs(err, dErrors.New(dErrors.CodeBadRequest, "text is too long"))
	})

	s.Run("chat owned by someone else is not found", func() {
		s.mockChats.EXPECT().FindOwned(gomock.Any(), chat.ID, s.bob.ID).Return(nil, sentinel.ErrNotFound)
		_, err := s.service.SendMessage(s.ctx(), s.bob.ID, chat.ID, "hi")
		s.Require().ErrorIs(err, dErrors.New(dErrors.CodeNotFound, "chat not found"))
	})

	s.Run("mirrors into the linked chat", func() {
		var stored []*models.Message
		s.mockChats.EXPECT().FindOwned(gomock.Any(), chat.ID, s.alice.ID).Return(chat, nil)
		s.mockChats.EXPECT().FindLinked(gomock.Any(), linked).Return(&models.Chat{ID: linked, OwnerID: s.bob.ID}, nil)
		s.mockMessages.EXPECT().Create(gomock.Any(), gomock.Any()).Times(2).DoAndReturn(
			func(_ context.Context, msg *models.Message) error {
				stored = append(stored, msg)
				return nil
			})

		view, err := s.service.SendMessage(s.ctx(), s.alice.ID, chat.ID, "hi")
		s.Require().NoError(err)
		s.True(view.IsFromMe)
		s.Equal(chat.ID, view.Message.ChatID)
		s.Require().Len(stored, 2)
		s.Equal(linked, stored[1].ChatID)
		s.Equal(s.alice.ID, stored[1].SenderID)
		s.Equal("hi", stored[1].Text)
		s.False(stored[1].Read)
		s.NotEqual(stored[0].ID, stored[1].ID)
		s.Equal(stored[0].CreatedAt, stored[1].CreatedAt)
	})

	s.Run("missing counterpart skips the mirror", func() {
		s.mockChats.EXPECT().FindOwned(gomock.Any(), chat.ID, s.alice.ID).Return(chat, nil)
		s.mockChats.EXPECT().FindLinked(gomock.Any(), linked).Return(nil, sentinel.ErrNotFound)
		s.mockMessages.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil).Times(1)

		view, err := s.service.SendMessage(s.ctx(), s.alice.ID, chat.ID, "hi")
		s.Require().NoError(err)
		s.Equal("hi", view.Message.Text)
	})

	s.Run("unlinked chat stores a single row", func() {
		solo := &models.Chat{ID: id.NewChatID(), OwnerID: s.alice.ID}
		s.mockChats.EXPECT().FindOwned(gomock.Any(), solo.ID, s.alice.ID).Return(solo, nil)
		s.mockMessages.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil).Times(1)

		_, err := s.service.SendMessage(s.ctx(), s.alice.ID, solo.ID, "hi")
		s.Require().NoError(err)
	})
}

func (s *ServiceSuite) TestGetMessages() {
	chat := &models.Chat{ID: id.NewChatID(), OwnerID: s.alice.ID}
	s.mockChats.EXPECT().FindOwned(gomock.Any(), chat.ID, s.alice.ID).Return(chat, nil)
	s.mockMessages.EXPECT().ListByChat(gomock.Any(), chat.ID).Return([]*models.Message{
		{ID: id.NewMessageID(), ChatID: chat.ID, SenderID: s.alice.ID, Text: "hi"},
		{ID: id.NewMessageID(), ChatID: chat.ID, SenderID: s.bob.ID, Text: "hey"},
	}, nil)

	views, err := s.service.GetMessages(s.ctx(), s.alice.ID, chat.ID)
	s.Require().NoError(err)
	s.Require().Len(views, 2)
	s.True(views[0].IsFromMe)
	s.False(views[1].IsFromMe)
}

func (s *ServiceSuite) TestMarkRead() {
	chat := &models.Chat{ID: id.NewChatID(), OwnerID: s.alice.ID}

	s.Run("returns updated count", func() {
		s.mockChats.EXPECT().FindOwned(gomock.Any(), chat.ID, s.alice.ID).Return(chat, nil)
		s.mockMessages.EXPECT().MarkRead(gomock.Any(), chat.ID, s.alice.ID).Return(3, nil)

		n, err := s.service.MarkRead(s.ctx(), s.alice.ID, chat.ID)
		s.Require().NoError(err)
		s.Equal(3, n)
	})

	s.Run("foreign chat is not found", func() {
		s.mockChats.EXPECT().FindOwned(gomock.Any(), chat.ID, s.bob.ID).Return(nil, sentinel.ErrNotFound)
		_, err := s.service.MarkRead(s.ctx(), s.bob.ID, chat.ID)
		s.Require().ErrorIs(err, dErrors.New(dErrors.CodeNotFound, "chat not found"))
	})
}

func (s *ServiceSuite) TestDeleteChat() {
	chatID := id.NewChatID()

	s.Run("deletes the chat and its messages", func() {
		s.mockChats.EXPECT().DeleteOwned(gomock.Any(), chatID, s.alice.ID).Return(nil)
		s.mockMessages.EXPECT().DeleteByChat(gomock.Any(), chatID).Return(nil)
		s.Require().NoError(s.service.DeleteChat(s.ctx(), s.alice.ID, chatID))
	})

	s.Run("not owned", func() {
		s.mockChats.EXPECT().DeleteOwned(gomock.Any(), chatID, s.bob.ID).Return(sentinel.ErrNotFound)
		err := s.service.DeleteChat(s.ctx(), s.bob.ID, chatID)
		s.Require().ErrorIs(err, dErrors.New(dErrors.CodeNotFound, "chat not found"))
	})
}

func (s *ServiceSuite) TestListChats_Ordering() {
	base := s.now.Add(-time.Hour)
	quiet := &models.Chat{ID: id.NewChatID(), OwnerID: s.alice.ID, CreatedAt: base.Add(50 * time.Minute)}
	busy := &models.Chat{ID: id.NewChatID(), OwnerID: s.alice.ID, CreatedAt: base}
	pinned := &models.Chat{ID: id.NewChatID(), OwnerID: s.alice.ID, CreatedAt: base, Pinned: true}

	s.mockChats.EXPECT().ListByOwner(gomock.Any(), s.alice.ID).Return([]*models.Chat{quiet, busy, pinned}, nil)
	s.mockMessages.EXPECT().ActivityByChats(gomock.Any(), gomock.Len(3), s.alice.ID).Return(map[id.ChatID]models.Activity{
		busy.ID: {LastMessage: "latest", LastMessageDate: base.Add(55 * time.Minute), UnreadCount: 2},
	}, nil)

	views, err := s.service.ListChats(s.ctx(), s.alice.ID)
	s.Require().NoError(err)
	s.Require().Len(views, 3)
	s.Equal(pinned.ID, views[0].Chat.ID)
	s.Equal(busy.ID, views[1].Chat.ID)
	s.Equal(quiet.ID, views[2].Chat.ID)

	s.Require().NotNil(views[1].LastMessage)
	s.Equal("latest", *views[1].LastMessage)
	s.Equal(2, views[1].UnreadCount)
	s.Nil(views[2].LastMessage)
}

func (s *ServiceSuite) TestUpdateChat() {
	chatID := id.NewChatID()
	muted := true

	s.Run("applies flags", func() {
		updated := &models.Chat{ID: chatID, OwnerID: s.alice.ID, Muted: true}
		s.mockChats.EXPECT().UpdateFlags(gomock.Any(), chatID, s.alice.ID, models.FlagsUpdate{Muted: &muted}).Return(updated, nil)
		s.mockMessages.EXPECT().ActivityByChats(gomock.Any(), []id.ChatID{chatID}, s.alice.ID).Return(map[id.ChatID]models.Activity{}, nil)

		view, err := s.service.UpdateChat(s.ctx(), s.alice.ID, chatID, models.FlagsUpdate{Muted: &muted})
		s.Require().NoError(err)
		s.True(view.Chat.Muted)
	})

	s.Run("not owned", func() {
		s.mockChats.EXPECT().UpdateFlags(gomock.Any(), chatID, s.bob.ID, gomock.Any()).Return(nil, sentinel.ErrNotFound)
		_, err := s.service.UpdateChat(s.ctx(), s.bob.ID, chatID, models.FlagsUpdate{Muted: &muted})
		s.Require().ErrorIs(err, dErrors.New(dErrors.CodeNotFound, "chat not found"))
	})
}

func (s *ServiceSuite) TestSearchUsers() {
	s.Run("blank query returns empty without a store call", func() {
		out, err := s.service.SearchUsers(s.ctx(), s.alice.ID, "   ")
		s.Require().NoError(err)
		s.NotNil(out)
		s.Empty(out)
	})

	s.Run("maps matches to summaries", func() {
		s.mockUsers.EXPECT().SearchVerified(gomock.Any(), "555", s.alice.ID, models.SearchLimit).Return([]*identity.User{s.bob}, nil)
		out, err := s.service.SearchUsers(s.ctx(), s.alice.ID, " 555 ")
		s.Require().NoError(err)
		s.Require().Len(out, 1)
		s.Equal(s.bob.Summary(), out[0])
	})
}
