package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"touch/internal/chat/models"
	identity "touch/internal/identity/models"
	"touch/internal/platform/metrics"
	id "touch/pkg/domain"
)

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks ChatStore,MessageStore,UserDirectory

// ChatStore persists chats. Every owner-scoped method reports a chat owned by
// someone else as not found. FindLinked ignores ownership and, inside a
// transaction, keeps the chat from being deleted until the transaction ends.
type ChatStore interface {
	Create(ctx context.Context, chat *models.Chat) error
	SetLink(ctx context.Context, chatID, linkedChatID id.ChatID) error
	FindLinked(ctx context.Context, chatID id.ChatID) (*models.Chat, error)
	FindOwned(ctx context.Context, chatID id.ChatID, ownerID id.UserID) (*models.Chat, error)
	ListByOwner(ctx context.Context, ownerID id.UserID) ([]*models.Chat, error)
	UpdateFlags(ctx context.Context, chatID id.ChatID, ownerID id.UserID, update models.FlagsUpdate) (*models.Chat, error)
	DeleteOwned(ctx context.Context, chatID id.ChatID, ownerID id.UserID) error
}

// MessageStore persists messages.
type MessageStore interface {
	Create(ctx context.Context, msg *models.Message) error
	ListByChat(ctx context.Context, chatID id.ChatID) ([]*models.Message, error)
	MarkRead(ctx context.Context, chatID id.ChatID, readerID id.UserID) (int, error)
	DeleteByChat(ctx context.Context, chatID id.ChatID) error
	ActivityByChats(ctx context.Context, chatIDs []id.ChatID, viewerID id.UserID) (map[id.ChatID]models.Activity, error)
}

// UserDirectory resolves users for chat creation and search.
type UserDirectory interface {
	FindByID(ctx context.Context, userID id.UserID) (*identity.User, error)
	FindByPhone(ctx context.Context, phone string) (*identity.User, error)
	SearchVerified(ctx context.Context, query string, exclude id.UserID, limit int) ([]*identity.User, error)
}

// TxRunner runs fn as one unit of work. Postgres runners carry the open
// transaction in the context handed to fn.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// MemoryTx serializes units of work against the in-memory stores. It offers
// isolation between units but no rollback.
type MemoryTx struct {
	mu sync.Mutex
}

func (t *MemoryTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return fn(ctx)
}

// Service owns the mirrored chat model: chat pairs, message fan-out and
// user search.
type Service struct {
	chats    ChatStore
	messages MessageStore
	users    UserDirectory
	tx       TxRunner
	logger   *slog.Logger
	metrics  *metrics.Metrics
	tracer   trace.Tracer
}

const tracerName = "touch/internal/chat"

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithTx sets the transaction runner. Without it the service uses MemoryTx.
func WithTx(tx TxRunner) Option {
	return func(s *Service) {
		if tx != nil {
			s.tx = tx
		}
	}
}

// WithTracerProvider traces through tp instead of the global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *Service) {
		if tp != nil {
			s.tracer = tp.Tracer(tracerName)
		}
	}
}

func New(chats ChatStore, messages MessageStore, users UserDirectory, opts ...Option) (*Service, error) {
	if chats == nil {
		return nil, fmt.Errorf("chat store is required")
	}
	if messages == nil {
		return nil, fmt.Errorf("message store is required")
	}
	if users == nil {
		return nil, fmt.Errorf("user directory is required")
	}

	svc := &Service{
		chats:    chats,
		messages: messages,
		users:    users,
		tx:       &MemoryTx{},
		tracer:   otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(svc)
	}
	if svc.logger == nil {
		svc.logger = slog.Default()
	}
	return svc, nil
}
