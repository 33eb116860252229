// Package api contains the typed HTTP client for the Occasio event/user API.
package api

import (
	"context"

	"github.com/occasio/occasio/internal/client/models"
)

// LoginResult is the payload of a successful /login call.
type LoginResult struct {
	Token string      `json:"token"`
	User  models.User `json:"userData"`
}

// Client defines one operation per server capability. Implementations
// normalize every failure into ErrUnavailable (transport-level) or *APIError
// (HTTP-level); no raw transport errors reach the caller.
//
// Token-guarded calls (GetEvents, UpdateUser) transparently attempt exactly
// one token refresh on a 401 response, retry once, and only then fail.
type Client interface {
	Signup(ctx context.Context, user *models.User) (string, error)
	SendOTP(ctx context.Context, email string) (string, error)
	ResendOTP(ctx context.Context, email string) (string, error)
	VerifyOTP(ctx context.Context, email, otp string) (string, error)
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	ResetPassword(ctx context.Context, email, newPassword string) (string, error)
	RefreshToken(ctx context.Context) (string, error)
	GetEvents(ctx context.Context, email string) ([]models.Event, error)
	UpdateUser(ctx context.Context, user *models.User) error
	GetUsers(ctx context.Context) ([]models.User, error)

	SetToken(token string)
	Token() string
	Close() error
}
