package models

import (
	"time"

	id "touch/pkg/domain"
)

// MinPhoneLength is the shortest trimmed phone number accepted by send-code.
const MinPhoneLength = 10

// MaxDisplayNameLength bounds display names in runes.
const MaxDisplayNameLength = 64

// User is a phone-verified identity. VerificationCode and CodeExpiresAt are
// either both set (a code is pending) or both nil.
type User struct {
	ID               id.UserID
	PhoneNumber      string
	DisplayName      string
	AvatarURL        *string
	VerificationCode *string
	CodeExpiresAt    *time.Time
	Verified         bool
	CreatedAt        time.Time
}

// NewPendingUser builds an unverified user holding a fresh code. The display
// name defaults to the phone number.
func NewPendingUser(phone, code string, expiresAt, now time.Time) *User {
	return &User{
		ID:               id.NewUserID(),
		PhoneNumber:      phone,
		DisplayName:      phone,
		VerificationCode: &code,
		CodeExpiresAt:    &expiresAt,
		CreatedAt:        now,
	}
}

func (u *User) HasPendingCode() bool {
	return u.VerificationCode != nil && u.CodeExpiresAt != nil
}

// CodeExpired reports whether the pending code is no longer usable at now.
// A code is valid only while now is strictly before its expiry.
func (u *User) CodeExpired(now time.Time) bool {
	if u.CodeExpiresAt == nil {
		return true
	}
	return !now.Before(*u.CodeExpiresAt)
}

// ClearCode marks the user verified and drops the pending code.
func (u *User) ClearCode() {
	u.Verified = true
	u.VerificationCode = nil
	u.CodeExpiresAt = nil
}

// Summary is the public shape of a user returned by verify-code and search.
type Summary struct {
	ID          id.UserID
	PhoneNumber string
	DisplayName string
}

func (u *User) Summary() Summary {
	return Summary{ID: u.ID, PhoneNumber: u.PhoneNumber, DisplayName: u.DisplayName}
}

// SendCodeResult is returned by send-code. The code itself never leaves the
// server except through the notification gateway.
type SendCodeResult struct {
	Message string
}

// VerifyCodeResult carries the minted session token and the verified user.
type VerifyCodeResult struct {
	Token     string
	ExpiresAt time.Time
	User      Summary
}
