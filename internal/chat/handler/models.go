package handler

import (
	"time"

	"touch/internal/chat/models"
	identity "touch/internal/identity/models"
)

type CreateChatRequest struct {
	ContactName  string `json:"contactName"`
	ContactPhone string `json:"contactPhone"`
}

type UpdateChatRequest struct {
	IsMuted  *bool `json:"isMuted,omitempty"`
	IsPinned *bool `json:"isPinned,omitempty"`
}

type SendMessageRequest struct {
	Text string `json:"text"`
}

type ChatResponse struct {
	ID              string     `json:"id"`
	ContactName     string     `json:"contactName"`
	ContactPhone    string     `json:"contactPhone"`
	IsMuted         bool       `json:"isMuted"`
	IsPinned        bool       `json:"isPinned"`
	LastMessage     *string    `json:"lastMessage"`
	LastMessageDate *time.Time `json:"lastMessageDate"`
	UnreadCount     int        `json:"unreadCount"`
	CreatedAt       time.Time  `json:"createdAt"`
}

type MessageResponse struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	SenderID  string    `json:"senderID"`
	IsFromMe  bool      `json:"isFromMe"`
	IsRead    bool      `json:"isRead"`
	CreatedAt time.Time `json:"createdAt"`
}

type MarkReadResponse struct {
	Updated int `json:"updated"`
}

type UserSummary struct {
	ID          string `json:"id"`
	PhoneNumber string `json:"phoneNumber"`
	DisplayName string `json:"displayName"`
}

func toChatResponse(v *models.ChatView) ChatResponse {
	resp := ChatResponse{
		ID:           v.Chat.ID.String(),
		ContactName:  v.Chat.ContactName,
		ContactPhone: v.Chat.ContactPhone,
		IsMuted:      v.Chat.Muted,
		IsPinned:     v.Chat.Pinned,
		LastMessage:  v.LastMessage,
		UnreadCount:  v.UnreadCount,
		CreatedAt:    v.Chat.CreatedAt.UTC(),
	}
	if v.LastMessageDate != nil {
		at := v.LastMessageDate.UTC()
		resp.LastMessageDate = &at
	}
	return resp
}

func toMessageResponse(v *models.MessageView) MessageResponse {
	return MessageResponse{
		ID:        v.Message.ID.String(),
		Text:      v.Message.Text,
		SenderID:  v.Message.SenderID.String(),
		IsFromMe:  v.IsFromMe,
		IsRead:    v.Message.Read,
		CreatedAt: v.Message.CreatedAt.UTC(),
	}
}

func toUserSummaries(users []identity.Summary) []UserSummary {
	out := make([]UserSummary, 0, len(users))
	for _, u := range users {
		out = append(out, UserSummary{
			ID:          u.ID.String(),
			PhoneNumber: u.PhoneNumber,
			DisplayName: u.DisplayName,
		})
	}
	return out
}
