package handler

import (
	"time"

	"touch/internal/identity/models"
)

type SendCodeRequest struct {
	PhoneNumber string `json:"phoneNumber"`
}

type SendCodeResponse struct {
	Message string `json:"message"`
}

type VerifyCodeRequest struct {
	PhoneNumber string `json:"phoneNumber"`
	Code        string `json:"code"`
}

type UserSummary struct {
	ID          string `json:"id"`
	PhoneNumber string `json:"phoneNumber"`
	DisplayName string `json:"displayName"`
}

type VerifyCodeResponse struct {
	Token string      `json:"token"`
	User  UserSummary `json:"user"`
}

type UpdateProfileRequest struct {
	DisplayName string  `json:"displayName"`
	AvatarURL   *string `json:"avatarURL,omitempty"`
}

type ProfileResponse struct {
	ID          string    `json:"id"`
	PhoneNumber string    `json:"phoneNumber"`
	DisplayName string    `json:"displayName"`
	AvatarURL   *string   `json:"avatarURL"`
	CreatedAt   time.Time `json:"createdAt"`
}

func toSummary(s models.Summary) UserSummary {
	return UserSummary{
		ID:          s.ID.String(),
		PhoneNumber: s.PhoneNumber,
		DisplayName: s.DisplayName,
	}
}

func toProfileResponse(u *models.User) ProfileResponse {
	return ProfileResponse{
		ID:          u.ID.String(),
		PhoneNumber: u.PhoneNumber,
		DisplayName: u.DisplayName,
		AvatarURL:   u.AvatarURL,
		CreatedAt:   u.CreatedAt.UTC(),
	}
}
