package service

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"touch/internal/identity/models"
	id "touch/pkg/domain"
	dErrors "touch/pkg/domain-errors"
	"touch/pkg/platform/sentinel"
)

func (s *Service) Profile(ctx context.Context, userID id.UserID) (*models.User, error) {
	if userID.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "user ID required")
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to lookup user")
	}
	return user, nil
}

// UpdateProfile replaces the caller's display name and avatar. A blank
// avatar clears it.
func (s *Service) UpdateProfile(ctx context.Context, userID id.UserID, displayName string, avatarURL *string) (*models.User, error) {
	if userID.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "user ID required")
	}
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "display name is required")
	}
	if utf8.RuneCountInString(displayName) > models.MaxDisplayNameLength {
		return nil, dErrors.New(dErrors.CodeValidation, "display name is too long")
	}
	if avatarURL != nil {
		trimmed := strings.TrimSpace(*avatarURL)
		avatarURL = &trimmed
		if trimmed == "" {
			avatarURL = nil
		}
	}

	user, err := s.users.UpdateProfile(ctx, userID, displayName, avatarURL)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update profile")
	}
	return user, nil
}
