package service

import (
	"context"
	"time"

	dErrors "touch/pkg/domain-errors"
	"touch/pkg/requestcontext"
)

// Logout revokes the token identified by jti until expiresAt. Tokens that
// have already expired need no entry.
func (s *Service) Logout(ctx context.Context, jti string, expiresAt time.Time) error {
	if jti == "" {
		return dErrors.New(dErrors.CodeUnauthorized, "token ID required")
	}
	if s.revocations == nil {
		s.logger.WarnContext(ctx, "logout without revocation list; token stays valid until expiry")
		return nil
	}

	ttl := expiresAt.Sub(requestcontext.Now(ctx))
	if ttl <= 0 {
		return nil
	}
	if err := s.revocations.RevokeToken(ctx, jti, ttl); err != nil {
		s.logger.ErrorContext(ctx, "failed to add token to revocation list", "error", err, "jti", jti)
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to revoke token")
	}
	s.logger.InfoContext(ctx, "session token revoked", "jti", jti)
	return nil
}

// IsTokenRevoked lets the auth middleware consult the revocation list.
func (s *Service) IsTokenRevoked(ctx context.Context, jti string) (bool, error) {
	if s.revocations == nil {
		return false, nil
	}
	return s.revocations.IsRevoked(ctx, jti)
}
