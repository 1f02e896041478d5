package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"touch/internal/chat/models"
	identity "touch/internal/identity/models"
	id "touch/pkg/domain"
	dErrors "touch/pkg/domain-errors"
	"touch/pkg/platform/httputil"
	request "touch/pkg/platform/middleware/request"
	"touch/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

// Service defines the chat operations exposed over HTTP.
type Service interface {
	CreateChat(ctx context.Context, callerID id.UserID, contactName, contactPhone string) (*models.ChatView, error)
	DeleteChat(ctx context.Context, callerID id.UserID, chatID id.ChatID) error
	ListChats(ctx context.Context, callerID id.UserID) ([]*models.ChatView, error)
	UpdateChat(ctx context.Context, callerID id.UserID, chatID id.ChatID, update models.FlagsUpdate) (*models.ChatView, error)
	GetMessages(ctx context.Context, callerID id.UserID, chatID id.ChatID) ([]*models.MessageView, error)
	SendMessage(ctx context.Context, callerID id.UserID, chatID id.ChatID, text string) (*models.MessageView, error)
	MarkRead(ctx context.Context, callerID id.UserID, chatID id.ChatID) (int, error)
	SearchUsers(ctx context.Context, callerID id.UserID, query string) ([]identity.Summary, error)
}

// Handler serves chat, message and user search endpoints. Every route needs
// an authenticated caller.
type Handler struct {
	chats  Service
	logger *slog.Logger
}

func New(chats Service, logger *slog.Logger) *Handler {
	return &Handler{chats: chats, logger: logger}
}

// Register mounts the chat routes. The router must already carry the auth
// middleware.
func (h *Handler) Register(r chi.Router) {
	r.Get("/users/search", h.HandleSearchUsers)
	r.Route("/chats", func(r chi.Router) {
		r.Get("/", h.HandleListChats)
		r.Post("/", h.HandleCreateChat)
		r.Route("/{chatID}", func(r chi.Router) {
			r.Patch("/", h.HandleUpdateChat)
			r.Delete("/", h.HandleDeleteChat)
			r.Get("/messages", h.HandleGetMessages)
			r.Post("/messages", h.HandleSendMessage)
			r.Post("/read", h.HandleMarkRead)
		})
	})
}

func (h *Handler) HandleListChats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	views, err := h.chats.ListChats(ctx, requestcontext.UserID(ctx))
	if err != nil {
		h.writeServiceError(ctx, w, "list chats failed", err)
		return
	}
	resp := make([]ChatResponse, 0, len(views))
	for _, v := range views {
		resp = append(resp, toChatResponse(v))
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) HandleCreateChat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CreateChatRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.logger.WarnContext(ctx, "invalid create chat request", "request_id", request.GetRequestID(ctx), "error", err)
		httputil.WriteError(w, err)
		return
	}

	view, err := h.chats.CreateChat(ctx, requestcontext.UserID(ctx), req.ContactName, req.ContactPhone)
	if err != nil {
		h.writeServiceError(ctx, w, "create chat failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toChatResponse(view))
}

func (h *Handler) HandleUpdateChat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	chatID, ok := h.chatID(w, r)
	if !ok {
		return
	}

	var req UpdateChatRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	view, err := h.chats.UpdateChat(ctx, requestcontext.UserID(ctx), chatID, models.FlagsUpdate{
		Muted:  req.IsMuted,
		Pinned: req.IsPinned,
	})
	if err != nil {
		h.writeServiceError(ctx, w, "update chat failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toChatResponse(view))
}

func (h *Handler) HandleDeleteChat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	chatID, ok := h.chatID(w, r)
	if !ok {
		return
	}
	if err := h.chats.DeleteChat(ctx, requestcontext.UserID(ctx), chatID); err != nil {
		h.writeServiceError(ctx, w, "delete chat failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleGetMessages(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	chatID, ok := h.chatID(w, r)
	if !ok {
		return
	}

	views, err := h.chats.GetMessages(ctx, requestcontext.UserID(ctx), chatID)
	if err != nil {
		h.writeServiceError(ctx, w, "get messages failed", err)
		return
	}
	resp := make([]MessageResponse, 0, len(views))
	for _, v := range views {
		resp = append(resp, toMessageResponse(v))
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) HandleSendMessage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	chatID, ok := h.chatID(w, r)
	if !ok {
		return
	}

	var req SendMessageRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	view, err := h.chats.SendMessage(ctx, requestcontext.UserID(ctx), chatID, req.Text)
	if err != nil {
		h.writeServiceError(ctx, w, "send message failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toMessageResponse(view))
}

func (h *Handler) HandleMarkRead(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	chatID, ok := h.chatID(w, r)
	if !ok {
		return
	}

	updated, err := h.chats.MarkRead(ctx, requestcontext.UserID(ctx), chatID)
	if err != nil {
		h.writeServiceError(ctx, w, "mark read failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, MarkReadResponse{Updated: updated})
}

func (h *Handler) HandleSearchUsers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	users, err := h.chats.SearchUsers(ctx, requestcontext.UserID(ctx), r.URL.Query().Get("phone"))
	if err != nil {
		h.writeServiceError(ctx, w, "search users failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toUserSummaries(users))
}

// chatID parses the path parameter, writing a 400 when it is malformed.
func (h *Handler) chatID(w http.ResponseWriter, r *http.Request) (id.ChatID, bool) {
	chatID, err := id.ParseChatID(chi.URLParam(r, "chatID"))
	if err != nil {
		h.logger.WarnContext(r.Context(), "invalid chat id", "request_id", request.GetRequestID(r.Context()), "error", err)
		httputil.WriteError(w, err)
		return id.ChatID{}, false
	}
	return chatID, true
}

func (h *Handler) writeServiceError(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, msg, "request_id", request.GetRequestID(ctx), "error", err)
	} else {
		h.logger.WarnContext(ctx, msg, "request_id", request.GetRequestID(ctx), "error", err)
	}
	httputil.WriteError(w, err)
}
