package service

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"go.opentelemetry.io/otel/attribute"

	"touch/internal/chat/models"
	id "touch/pkg/domain"
	dErrors "touch/pkg/domain-errors"
	"touch/pkg/platform/sentinel"
	"touch/pkg/requestcontext"
)

// GetMessages returns every message in the caller's chat, oldest first.
func (s *Service) GetMessages(ctx context.Context, callerID id.UserID, chatID id.ChatID) ([]*models.MessageView, error) {
	ctx, span := s.tracer.Start(ctx, "chat.GetMessages")
	defer span.End()
	span.SetAttributes(attribute.String("chat.id", chatID.String()))

	chat, err := s.ownedChat(ctx, callerID, chatID)
	if err != nil {
		return nil, err
	}
	messages, err := s.messages.ListByChat(ctx, chat.ID)
	if err != nil {
		span.RecordError(err)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list messages")
	}

	views := make([]*models.MessageView, 0, len(messages))
	for _, msg := range messages {
		views = append(views, &models.MessageView{Message: msg, IsFromMe: msg.SenderID == callerID})
	}
	return views, nil
}

// SendMessage stores text in the caller's chat and mirrors it into the linked
// chat when that chat still exists. A missing counterpart is not an error:
// the mirror is skipped and the sender still gets their copy.
func (s *Service) SendMessage(ctx context.Context, callerID id.UserID, chatID id.ChatID, text string) (*models.MessageView, error) {
	ctx, span := s.tracer.Start(ctx, "chat.SendMessage")
	defer span.End()

	if strings.TrimSpace(text) == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "text is required")
	}
	if utf8.RuneCountInString(text) > models.MaxMessageLength {
		return nil, dErrors.New(dErrors.CodeBadRequest, "text is too long")
	}

	chat, err := s.ownedChat(ctx, callerID, chatID)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("chat.id", chat.ID.String()))

	now := requestcontext.Now(ctx)
	sent := &models.Message{
		ID:        id.NewMessageID(),
		ChatID:    chat.ID,
		SenderID:  callerID,
		Text:      text,
		CreatedAt: now,
	}

	mirrored := false
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.messages.Create(ctx, sent); err != nil {
			return err
		}
		if chat.LinkedChatID == nil {
			return nil
		}
		linked, err := s.chats.FindLinked(ctx, *chat.LinkedChatID)
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		mirrored = true
		return s.messages.Create(ctx, &models.Message{
			ID:        id.NewMessageID(),
			ChatID:    linked.ID,
			SenderID:  callerID,
			Text:      text,
			CreatedAt: now,
		})
	})
	if err != nil {
		span.RecordError(err)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to send message")
	}

	if !mirrored {
		s.metrics.IncrementMirrorsSkipped()
		s.logger.DebugContext(ctx, "message not mirrored, counterpart chat missing",
			"chat_id", chat.ID.String(),
			"user_id", callerID.String(),
		)
	}
	s.metrics.IncrementMessagesSent()
	return &models.MessageView{Message: sent, IsFromMe: true}, nil
}

// MarkRead marks the incoming messages of the caller's chat as read and
// returns how many changed. The counterpart's copies are untouched.
func (s *Service) MarkRead(ctx context.Context, callerID id.UserID, chatID id.ChatID) (int, error) {
	ctx, span := s.tracer.Start(ctx, "chat.MarkRead")
	defer span.End()
	span.SetAttributes(attribute.String("chat.id", chatID.String()))

	chat, err := s.ownedChat(ctx, callerID, chatID)
	if err != nil {
		return 0, err
	}
	updated, err := s.messages.MarkRead(ctx, chat.ID, callerID)
	if err != nil {
		span.RecordError(err)
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to mark messages read")
	}
	return updated, nil
}

func (s *Service) ownedChat(ctx context.Context, callerID id.UserID, chatID id.ChatID) (*models.Chat, error) {
	chat, err := s.chats.FindOwned(ctx, chatID, callerID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "chat not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to lookup chat")
	}
	return chat, nil
}
