package user

import (
	"time"

	"github.com/google/uuid"
)

// EventVerificationRequested asks the email sender to deliver a verification link.
const EventVerificationRequested = "user.verification_requested"

type User struct {
	ID            uuid.UUID
	Username      string
	Email         string
	PasswordHash  string
	EmailVerified bool
	// zero when no verification is pending
	TokenExpiry time.Time
	CreatedAt   time.Time
}

type CreateUserCmd struct {
	Username string
	Email    string
	Password string
}

type LogInUserCmd struct {
	Email    string
	Password string
}

type LogInUserResult struct {
	UserID      uuid.UUID
	AccessToken string
	ExpiresAt   time.Time
}

// Verification is what gets stored for a pending email verification. Only
// the token's hash is persisted.
type Verification struct {
	TokenHash string
	ExpiresAt time.Time
}

// VerificationOptions configure the links handed to the email sender.
type VerificationOptions struct {
	Expiry time.Duration
	URL    string
}

// VerificationRequestedEvent is the payload of EventVerificationRequested.
type VerificationRequestedEvent struct {
	UserID    uuid.UUID `json:"user_id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Link      string    `json:"link"`
	ExpiresAt time.Time `json:"expires_at"`
}
