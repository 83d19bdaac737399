package store

import (
	"context"
	"time"

	"lexscribe/deposition-service/internal/models"
)

// UpsertProfileInput carries the fields written on sign-up and on the lazy
// profile creation paths. Upsert means insert-or-overwrite by primary key; it
// is a persistence contract, not a cache.
type UpsertProfileInput struct {
	ID           string
	Email        string
	FullName     string
	Role         models.Role
	Organization string
}

type Store interface {
	UpsertProfile(ctx context.Context, input UpsertProfileInput) (models.Profile, error)
	GetProfile(ctx context.Context, userID string) (models.Profile, error)
	GetProfileByEmail(ctx context.Context, email string) (models.Profile, error)
	TouchLastLogin(ctx context.Context, userID string, at time.Time) error

	CreateSecuritySettings(ctx context.Context, userID string, sessionTimeout time.Duration) (models.SecuritySettings, error)
	GetSecuritySettings(ctx context.Context, userID string) (models.SecuritySettings, error)

	CreateSession(ctx context.Context, userID string, expiresAt time.Time) (models.Session, error)
	GetSession(ctx context.Context, token string) (models.Session, models.Profile, error)
	DeleteSessionsForUser(ctx context.Context, userID string) error

	InsertActivity(ctx context.Context, entry models.ActivityLogEntry) error
	CountActivity(ctx context.Context, actionType, identifier string, since time.Time) (int, error)
}
