package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"touch/internal/identity/models"
	jwttoken "touch/internal/jwt_token"
	"touch/internal/platform/metrics"
	id "touch/pkg/domain"
)

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks UserStore,Notifier,TokenIssuer,RevocationList

// UserStore is the identity persistence the service needs.
type UserStore interface {
	UpsertPendingCode(ctx context.Context, candidate *models.User) (*models.User, error)
	FindByID(ctx context.Context, userID id.UserID) (*models.User, error)
	FindByPhone(ctx context.Context, phone string) (*models.User, error)
	ConsumeCode(ctx context.Context, phone, code string, now time.Time) (*models.User, error)
	UpdateProfile(ctx context.Context, userID id.UserID, displayName string, avatarURL *string) (*models.User, error)
}

// Notifier delivers a text message to a phone number.
type Notifier interface {
	Send(ctx context.Context, phone, message string) error
}

// TokenIssuer mints session tokens.
type TokenIssuer interface {
	GenerateSessionToken(userID id.UserID, issuedAt time.Time, ttl time.Duration) (*jwttoken.IssuedToken, error)
}

// RevocationList records logged-out token ids until their expiry.
type RevocationList interface {
	RevokeToken(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

const (
	defaultCodeTTL    = 5 * time.Minute
	defaultSessionTTL = 7 * 24 * time.Hour
	codeSpace         = 1_000_000
)

// Service issues one-time codes, verifies them and mints session tokens.
type Service struct {
	users       UserStore
	notifier    Notifier
	tokens      TokenIssuer
	revocations RevocationList
	logger      *slog.Logger
	metrics     *metrics.Metrics
	tracer      trace.Tracer
	newCode     func() (string, error)

	CodeTTL    time.Duration
	SessionTTL time.Duration
}

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

func WithRevocationList(trl RevocationList) Option {
	return func(s *Service) {
		s.revocations = trl
	}
}

func WithCodeTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.CodeTTL = ttl
		}
	}
}

func WithSessionTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.SessionTTL = ttl
		}
	}
}

// WithCodeGenerator replaces the random code source. Tests use it to make
// sent codes predictable.
func WithCodeGenerator(gen func() (string, error)) Option {
	return func(s *Service) {
		if gen != nil {
			s.newCode = gen
		}
	}
}

func New(users UserStore, notifier Notifier, tokens TokenIssuer, opts ...Option) (*Service, error) {
	if users == nil {
		return nil, fmt.Errorf("users store is required")
	}
	if notifier == nil {
		return nil, fmt.Errorf("notifier is required")
	}
	if tokens == nil {
		return nil, fmt.Errorf("token issuer is required")
	}

	svc := &Service{
		users:      users,
		notifier:   notifier,
		tokens:     tokens,
		tracer:     otel.Tracer("touch/internal/identity"),
		newCode:    generateCode,
		CodeTTL:    defaultCodeTTL,
		SessionTTL: defaultSessionTTL,
	}
	for _, opt := range opts {
		opt(svc)
	}
	if svc.logger == nil {
		svc.logger = slog.Default()
	}
	return svc, nil
}

// generateCode returns a uniformly random six digit code, zero padded.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(codeSpace))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
