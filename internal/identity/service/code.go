package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"touch/internal/identity/models"
	dErrors "touch/pkg/domain-errors"
	"touch/pkg/platform/sentinel"
	"touch/pkg/requestcontext"
)

const codeSentMessage = "Code sent"

// SendCode issues a fresh code for phone and delivers it by SMS. The user is
// created unverified when the phone is unknown; otherwise any earlier code is
// replaced.
func (s *Service) SendCode(ctx context.Context, phone string) (*models.SendCodeResult, error) {
	ctx, span := s.tracer.Start(ctx, "identity.SendCode")
	defer span.End()

	phone = strings.TrimSpace(phone)
	if utf8.RuneCountInString(phone) < models.MinPhoneLength {
		return nil, dErrors.New(dErrors.CodeBadRequest, "invalid phone number")
	}

	code, err := s.newCode()
	if err != nil {
		span.RecordError(err)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate code")
	}

	now := requestcontext.Now(ctx)
	candidate := models.NewPendingUser(phone, code, now.Add(s.CodeTTL), now)
	user, err := s.users.UpsertPendingCode(ctx, candidate)
	if err != nil {
		span.RecordError(err)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store code")
	}
	span.SetAttributes(attribute.String("user.id", user.ID.String()))

	if err := s.notifier.Send(ctx, phone, "Your Touch code: "+code); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "sms delivery failed")
		s.logger.ErrorContext(ctx, "failed to deliver verification code",
			"error", err,
			"user_id", user.ID.String(),
		)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to send SMS")
	}

	s.metrics.IncrementCodesSent()
	s.logger.InfoContext(ctx, "verification code sent", "user_id", user.ID.String())
	return &models.SendCodeResult{Message: codeSentMessage}, nil
}

// VerifyCode checks code against the pending code for phone and, on success,
// verifies the user and mints a session token. The code is consumed by a
// single atomic store operation; when that loses a race the failure is
// reported against whatever code is pending now.
func (s *Service) VerifyCode(ctx context.Context, phone, code string) (*models.VerifyCodeResult, error) {
	ctx, span := s.tracer.Start(ctx, "identity.VerifyCode")
	defer span.End()

	phone = strings.TrimSpace(phone)
	now := requestcontext.Now(ctx)

	user, err := s.users.FindByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			s.verificationFailed(ctx, "not_found")
			return nil, dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		span.RecordError(err)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to lookup user")
	}
	span.SetAttributes(attribute.String("user.id", user.ID.String()))

	if outcome, err := checkPendingCode(user, code, now); err != nil {
		s.verificationFailed(ctx, outcome, "user_id", user.ID.String())
		return nil, err
	}

	verified, err := s.users.ConsumeCode(ctx, phone, code, now)
	if err != nil {
		if errors.Is(err, sentinel.ErrInvalidState) || errors.Is(err, sentinel.ErrNotFound) {
			return nil, s.lostConsume(ctx, phone, code, now, user)
		}
		span.RecordError(err)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to consume code")
	}

	issued, err := s.tokens.GenerateSessionToken(verified.ID, now, s.SessionTTL)
	if err != nil {
		span.RecordError(err)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue session token")
	}

	s.metrics.ObserveVerification("success")
	s.logger.InfoContext(ctx, "phone verified", "user_id", verified.ID.String())
	return &models.VerifyCodeResult{
		Token:     issued.Token,
		ExpiresAt: issued.ExpiresAt,
		User:      verified.Summary(),
	}, nil
}

// checkPendingCode reports why code cannot verify user at now, with the
// metrics outcome label, or nil when it can.
func checkPendingCode(user *models.User, code string, now time.Time) (string, error) {
	if !user.HasPendingCode() {
		return "no_code", dErrors.New(dErrors.CodeBadRequest, "no code requested")
	}
	if subtle.ConstantTimeCompare([]byte(*user.VerificationCode), []byte(code)) != 1 {
		return "invalid", dErrors.New(dErrors.CodeBadRequest, "invalid code")
	}
	if user.CodeExpired(now) {
		return "expired", dErrors.New(dErrors.CodeBadRequest, "code expired")
	}
	return "", nil
}

// lostConsume classifies a consume that failed after the checks passed. A
// concurrent verify leaves no pending code; a resend leaves a different one.
func (s *Service) lostConsume(ctx context.Context, phone, code string, now time.Time, user *models.User) error {
	current, err := s.users.FindByPhone(ctx, phone)
	if err == nil {
		if outcome, reason := checkPendingCode(current, code, now); reason != nil {
			s.verificationFailed(ctx, outcome, "user_id", user.ID.String(), "raced", true)
			return reason
		}
	}
	s.verificationFailed(ctx, "raced", "user_id", user.ID.String())
	return dErrors.New(dErrors.CodeBadRequest, "no code requested")
}

func (s *Service) verificationFailed(ctx context.Context, outcome string, attrs ...any) {
	s.metrics.ObserveVerification(outcome)
	s.logger.WarnContext(ctx, "code verification failed", append([]any{"outcome", outcome}, attrs...)...)
}
