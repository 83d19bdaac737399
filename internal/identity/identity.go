// Package identity abstracts the external authentication provider. The
// provider owns credentials and password-reset email delivery; the rest of
// the application only ever sees opaque user ids and access tokens.
package identity

import (
	"context"
	"errors"
)

type User struct {
	ID          string
	Email       string
	AccessToken string
}

// Metadata is attached to the provider user record at sign-up.
type Metadata struct {
	FullName string
	Role     string
}

type Provider interface {
	SignUp(ctx context.Context, email, password string, meta Metadata) (User, error)
	SignIn(ctx context.Context, email, password string) (User, error)
	SignOut(ctx context.Context, accessToken string) error
	SendPasswordReset(ctx context.Context, email, redirectTo string) error
	UpdatePassword(ctx context.Context, accessToken, newPassword string) error
	// DeleteUser removes a provider account. Used to roll back sign-up when
	// local profile creation fails, so no orphaned identities remain.
	DeleteUser(ctx context.Context, userID string) error
}

var (
	ErrInvalidCredentials = errors.New("invalid login credentials")
	ErrUserExists         = errors.New("user already registered")
)
