package service

import (
	"context"
	"strings"

	"touch/internal/chat/models"
	identity "touch/internal/identity/models"
	id "touch/pkg/domain"
	dErrors "touch/pkg/domain-errors"
)

// SearchUsers finds verified users whose phone contains query. The caller is
// never included. An empty query yields no results rather than everyone.
func (s *Service) SearchUsers(ctx context.Context, callerID id.UserID, query string) ([]identity.Summary, error) {
	ctx, span := s.tracer.Start(ctx, "chat.SearchUsers")
	defer span.End()

	query = strings.TrimSpace(query)
	if query == "" {
		return []identity.Summary{}, nil
	}

	users, err := s.users.SearchVerified(ctx, query, callerID, models.SearchLimit)
	if err != nil {
		span.RecordError(err)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to search users")
	}
	out := make([]identity.Summary, 0, len(users))
	for _, u := range users {
		out = append(out, u.Summary())
	}
	return out, nil
}
