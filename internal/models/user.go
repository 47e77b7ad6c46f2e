package models

import (
	"time"

	"github.com/google/uuid"
)

const DefaultProfileImage = "/uploads/default.png"

type User struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	IsAdmin      bool      `json:"is_admin"`
	IsVerified   bool      `json:"is_verified"`
	ProfileImage string    `json:"profile_image"`

	// One-time codes for account verification and password reset.
	// Cleared once consumed.
	VerificationOTP        string    `json:"-"`
	VerificationOTPExpire  time.Time `json:"-"`
	ResetPasswordOTP       string    `json:"-"`
	ResetPasswordOTPExpire time.Time `json:"-"`

	CreatedAt time.Time `json:"created_at"`
}

// UserSummary is the owner projection attached to orders.
type UserSummary struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
}
