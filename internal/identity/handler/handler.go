package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"touch/internal/identity/models"
	id "touch/pkg/domain"
	dErrors "touch/pkg/domain-errors"
	"touch/pkg/platform/httputil"
	request "touch/pkg/platform/middleware/request"
	"touch/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

// Service defines the identity operations exposed over HTTP.
type Service interface {
	SendCode(ctx context.Context, phone string) (*models.SendCodeResult, error)
	VerifyCode(ctx context.Context, phone, code string) (*models.VerifyCodeResult, error)
	Profile(ctx context.Context, userID id.UserID) (*models.User, error)
	UpdateProfile(ctx context.Context, userID id.UserID, displayName string, avatarURL *string) (*models.User, error)
	Logout(ctx context.Context, jti string, expiresAt time.Time) error
}

// Handler serves the phone verification and profile endpoints.
type Handler struct {
	identity Service
	logger   *slog.Logger
}

func New(identity Service, logger *slog.Logger) *Handler {
	return &Handler{identity: identity, logger: logger}
}

// Register mounts the unauthenticated code endpoints.
func (h *Handler) Register(r chi.Router) {
	r.Post("/auth/send-code", h.HandleSendCode)
	r.Post("/auth/verify-code", h.HandleVerifyCode)
}

// RegisterProtected mounts endpoints that need an authenticated caller. The
// router must already carry the auth middleware.
func (h *Handler) RegisterProtected(r chi.Router) {
	r.Post("/auth/logout", h.HandleLogout)
	r.Get("/users/me", h.HandleGetProfile)
	r.Patch("/users/me", h.HandleUpdateProfile)
}

func (h *Handler) HandleSendCode(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)

	var req SendCodeRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.logger.WarnContext(ctx, "invalid send-code request", "request_id", requestID, "error", err)
		httputil.WriteError(w, err)
		return
	}

	res, err := h.identity.SendCode(ctx, req.PhoneNumber)
	if err != nil {
		h.writeServiceError(ctx, w, "send code failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, SendCodeResponse{Message: res.Message})
}

func (h *Handler) HandleVerifyCode(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)

	var req VerifyCodeRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.logger.WarnContext(ctx, "invalid verify-code request", "request_id", requestID, "error", err)
		httputil.WriteError(w, err)
		return
	}

	res, err := h.identity.VerifyCode(ctx, req.PhoneNumber, req.Code)
	if err != nil {
		h.writeServiceError(ctx, w, "verify code failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, VerifyCodeResponse{
		Token: res.Token,
		User:  toSummary(res.User),
	})
}

func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.identity.Logout(ctx, requestcontext.TokenID(ctx), requestcontext.TokenExpiry(ctx)); err != nil {
		h.writeServiceError(ctx, w, "logout failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleGetProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, err := h.identity.Profile(ctx, requestcontext.UserID(ctx))
	if err != nil {
		h.writeServiceError(ctx, w, "get profile failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toProfileResponse(user))
}

func (h *Handler) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req UpdateProfileRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	user, err := h.identity.UpdateProfile(ctx, requestcontext.UserID(ctx), req.DisplayName, req.AvatarURL)
	if err != nil {
		h.writeServiceError(ctx, w, "update profile failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toProfileResponse(user))
}

// writeServiceError logs at a level matching the error class and writes the
// JSON envelope.
func (h *Handler) writeServiceError(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, msg, "request_id", request.GetRequestID(ctx), "error", err)
	} else {
		h.logger.WarnContext(ctx, msg, "request_id", request.GetRequestID(ctx), "error", err)
	}
	httputil.WriteError(w, err)
}
