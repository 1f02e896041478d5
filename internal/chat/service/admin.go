package service

import (
	"context"
	"errors"
	"sort"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"touch/internal/chat/models"
	id "touch/pkg/domain"
	dErrors "touch/pkg/domain-errors"
	"touch/pkg/platform/sentinel"
	"touch/pkg/requestcontext"
)

// CreateChat opens a conversation between the caller and the user holding
// contactPhone. Two chats are created, one per inbox, and linked to each
// other inside a single transaction. Racing calls may produce duplicate
// pairs; that is accepted.
func (s *Service) CreateChat(ctx context.Context, callerID id.UserID, contactName, contactPhone string) (*models.ChatView, error) {
	ctx, span := s.tracer.Start(ctx, "chat.CreateChat")
	defer span.End()

	contactPhone = strings.TrimSpace(contactPhone)
	if contactPhone == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "contact phone is required")
	}

	caller, err := s.users.FindByID(ctx, callerID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to lookup user")
	}
	contact, err := s.users.FindByPhone(ctx, contactPhone)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "contact not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to lookup contact")
	}
	if contact.ID == caller.ID {
		return nil, dErrors.New(dErrors.CodeBadRequest, "cannot start a chat with yourself")
	}

	contactName = strings.TrimSpace(contactName)
	if contactName == "" {
		contactName = contact.DisplayName
	}

	now := requestcontext.Now(ctx)
	mine := &models.Chat{
		ID:           id.NewChatID(),
		OwnerID:      caller.ID,
		ContactName:  contactName,
		ContactPhone: contact.PhoneNumber,
		CreatedAt:    now,
	}
	theirs := &models.Chat{
		ID:           id.NewChatID(),
		OwnerID:      contact.ID,
		ContactName:  caller.DisplayName,
		ContactPhone: caller.PhoneNumber,
		CreatedAt:    now,
	}

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.chats.Create(ctx, mine); err != nil {
			return err
		}
		if err := s.chats.Create(ctx, theirs); err != nil {
			return err
		}
		if err := s.chats.SetLink(ctx, mine.ID, theirs.ID); err != nil {
			return err
		}
		return s.chats.SetLink(ctx, theirs.ID, mine.ID)
	})
	if err != nil {
		span.RecordError(err)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create chat")
	}
	mine.LinkedChatID = &theirs.ID
	span.SetAttributes(attribute.String("chat.id", mine.ID.String()))

	s.metrics.IncrementChatsCreated()
	s.logger.InfoContext(ctx, "chat pair created",
		"chat_id", mine.ID.String(),
		"linked_chat_id", theirs.ID.String(),
		"user_id", caller.ID.String(),
	)
	return &models.ChatView{Chat: mine}, nil
}

// DeleteChat removes the caller's chat and its messages. The counterpart's
// chat is left in place with a dangling link.
func (s *Service) DeleteChat(ctx context.Context, callerID id.UserID, chatID id.ChatID) error {
	ctx, span := s.tracer.Start(ctx, "chat.DeleteChat")
	defer span.End()
	span.SetAttributes(attribute.String("chat.id", chatID.String()))

	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.chats.DeleteOwned(ctx, chatID, callerID); err != nil {
			return err
		}
		return s.messages.DeleteByChat(ctx, chatID)
	})
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "chat not found")
		}
		span.RecordError(err)
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete chat")
	}

	s.metrics.IncrementChatsDeleted()
	s.logger.InfoContext(ctx, "chat deleted", "chat_id", chatID.String(), "user_id", callerID.String())
	return nil
}

// ListChats returns the caller's chats with their latest message and unread
// count. Pinned chats come first, then the most recently active.
func (s *Service) ListChats(ctx context.Context, callerID id.UserID) ([]*models.ChatView, error) {
	ctx, span := s.tracer.Start(ctx, "chat.ListChats")
	defer span.End()

	chats, err := s.chats.ListByOwner(ctx, callerID)
	if err != nil {
		span.RecordError(err)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list chats")
	}
	views, err := s.withActivity(ctx, callerID, chats)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(views, func(i, j int) bool {
		a, b := views[i], views[j]
		if a.Chat.Pinned != b.Chat.Pinned {
			return a.Chat.Pinned
		}
		ai, bi := a.LatestActivity(), b.LatestActivity()
		if !ai.Equal(bi) {
			return ai.After(bi)
		}
		return a.Chat.ID.String() < b.Chat.ID.String()
	})
	return views, nil
}

// UpdateChat changes the caller's mute and pin flags. Only the caller's own
// inbox is affected.
func (s *Service) UpdateChat(ctx context.Context, callerID id.UserID, chatID id.ChatID, update models.FlagsUpdate) (*models.ChatView, error) {
	ctx, span := s.tracer.Start(ctx, "chat.UpdateChat")
	defer span.End()
	span.SetAttributes(attribute.String("chat.id", chatID.String()))

	chat, err := s.chats.UpdateFlags(ctx, chatID, callerID, update)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "chat not found")
		}
		span.RecordError(err)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update chat")
	}
	views, err := s.withActivity(ctx, callerID, []*models.Chat{chat})
	if err != nil {
		return nil, err
	}
	return views[0], nil
}

func (s *Service) withActivity(ctx context.Context, viewerID id.UserID, chats []*models.Chat) ([]*models.ChatView, error) {
	chatIDs := make([]id.ChatID, len(chats))
	for i, chat := range chats {
		chatIDs[i] = chat.ID
	}
	activity, err := s.messages.ActivityByChats(ctx, chatIDs, viewerID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load chat activity")
	}

	views := make([]*models.ChatView, 0, len(chats))
	for _, chat := range chats {
		view := &models.ChatView{Chat: chat}
		if a, ok := activity[chat.ID]; ok {
			text, at := a.LastMessage, a.LastMessageDate
			view.LastMessage = &text
			view.LastMessageDate = &at
			view.UnreadCount = a.UnreadCount
		}
		views = append(views, view)
	}
	return views, nil
}
