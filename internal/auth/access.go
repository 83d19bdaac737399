package auth

import (
	"context"
	"errors"

	"lexscribe/deposition-service/internal/models"
	"lexscribe/deposition-service/internal/store"
)

// Grant is the resolved capability set for an authenticated user. Protected
// handlers consult it instead of switching on the raw role string.
type Grant struct {
	Profile models.Profile
}

// Guard resolves identities to profiles, lazily creating a minimal profile
// when none exists yet.
type Guard struct {
	store store.Store
}

func NewGuard(st store.Store) *Guard {
	return &Guard{store: st}
}

func (g *Guard) Access(ctx context.Context, userID, email string) (Grant, error) {
	profile, err := g.store.GetProfile(ctx, userID)
	if err != nil {
		if !errors.Is(err, store.ErrProfileNotFound) {
			return Grant{}, err
		}
		profile, err = g.store.UpsertProfile(ctx, store.UpsertProfileInput{
			ID:    userID,
			Email: email,
			Role:  models.RoleLegalStaff,
		})
		if err != nil {
			return Grant{}, err
		}
	}
	return Grant{Profile: profile}, nil
}

func (g Grant) IsCourtReporter() bool {
	return g.Profile.Role == models.RoleCourtReporter
}

func (g Grant) IsAdministrator() bool {
	return g.Profile.Role == models.RoleAdministrator
}

// CanTranscribe gates the transcription workspace. The switch is exhaustive
// over the closed role set so a new role forces a decision here.
func (g Grant) CanTranscribe() bool {
	switch g.Profile.Role {
	case models.RoleCourtReporter, models.RoleScopist:
		return true
	case models.RoleAttorney, models.RoleLegalStaff, models.RoleAdministrator, models.RoleVideographer:
		return false
	default:
		return false
	}
}

// CanManageUsers gates the administrative views.
func (g Grant) CanManageUsers() bool {
	switch g.Profile.Role {
	case models.RoleAdministrator:
		return true
	case models.RoleAttorney, models.RoleCourtReporter, models.RoleLegalStaff, models.RoleVideographer, models.RoleScopist:
		return false
	default:
		return false
	}
}
