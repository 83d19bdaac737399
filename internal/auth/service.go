// Package auth orchestrates sign-up, sign-in, password reset, and sign-out
// against the external identity provider, keeping the local profile, session,
// and activity records in step.
package auth

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"lexscribe/deposition-service/internal/identity"
	"lexscribe/deposition-service/internal/models"
	"lexscribe/deposition-service/internal/ratelimit"
	"lexscribe/deposition-service/internal/store"
	"lexscribe/deposition-service/internal/validate"
)

type Service struct {
	provider       identity.Provider
	store          store.Store
	limiter        *ratelimit.Limiter
	sessionTimeout time.Duration
	resetRedirect  string
	now            func() time.Time
}

func NewService(provider identity.Provider, st store.Store, limiter *ratelimit.Limiter, sessionTimeout time.Duration, resetRedirect string) *Service {
	return &Service{
		provider:       provider,
		store:          st,
		limiter:        limiter,
		sessionTimeout: sessionTimeout,
		resetRedirect:  resetRedirect,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

type SignUpInput struct {
	Email        string
	Password     string
	FullName     string
	Role         models.Role
	Organization string
	Credentials  validate.RoleCredentials
}

type SignUpResult struct {
	User    identity.User
	Profile models.Profile
}

// SignUp creates the provider identity, then the local profile and security
// settings. If the profile write fails the just-created identity is deleted
// so no orphaned provider accounts remain.
func (s *Service) SignUp(ctx context.Context, input SignUpInput) (SignUpResult, error) {
	input.Email = validate.Sanitize(strings.ToLower(strings.TrimSpace(input.Email)))

	if result := validate.LoginCredentials(input.Email, input.Password); !result.OK {
		return SignUpResult{}, NewValidationError(result.Errors)
	}
	if !input.Role.Valid() {
		return SignUpResult{}, NewValidationError([]string{"Please select a valid role"})
	}
	if !validate.ForRole(input.Role, input.Credentials) {
		return SignUpResult{}, NewValidationError([]string{"Professional credentials are missing or invalid for this role"})
	}
	if !s.limiter.Allow(ctx, ratelimit.ActionSignUp, input.Email) {
		return SignUpResult{}, ErrRateLimited
	}

	user, err := s.provider.SignUp(ctx, input.Email, input.Password, identity.Metadata{
		FullName: input.FullName,
		Role:     string(input.Role),
	})
	if err != nil {
		return SignUpResult{}, err
	}

	profile, err := s.store.UpsertProfile(ctx, store.UpsertProfileInput{
		ID:           user.ID,
		Email:        user.Email,
		FullName:     input.FullName,
		Role:         input.Role,
		Organization: input.Organization,
	})
	if err != nil {
		if deleteErr := s.provider.DeleteUser(ctx, user.ID); deleteErr != nil {
			log.Printf("auth: rollback of identity %s failed: %v", user.ID, deleteErr)
		}
		return SignUpResult{}, err
	}

	if _, err := s.store.CreateSecuritySettings(ctx, user.ID, s.sessionTimeout); err != nil {
		log.Printf("auth: security settings create failed user=%s: %v", user.ID, err)
	}
	s.logActivity(ctx, user.ID, "signup_success", "Account created", map[string]string{"email": input.Email})

	return SignUpResult{User: user, Profile: profile}, nil
}

type SignInResult struct {
	User    identity.User
	Profile models.Profile
	Session models.Session
}

// SignIn authenticates against the provider. Post-authentication side effects
// (profile upsert, session insert, success logging) are best-effort: the user
// is already authenticated upstream, so their failures are logged locally and
// never surfaced.
func (s *Service) SignIn(ctx context.Context, email, password string) (SignInResult, error) {
	email = validate.Sanitize(strings.ToLower(strings.TrimSpace(email)))

	if result := validate.LoginCredentials(email, password); !result.OK {
		return SignInResult{}, NewValidationError(result.Errors)
	}
	if !s.limiter.Allow(ctx, ratelimit.ActionSignIn, email) {
		return SignInResult{}, ErrRateLimited
	}

	user, err := s.provider.SignIn(ctx, email, password)
	if err != nil {
		s.logActivity(ctx, "", "signin_attempt", "Failed sign in attempt", map[string]string{"email": email})
		if errors.Is(err, identity.ErrInvalidCredentials) {
			return SignInResult{}, ErrInvalidCredentials
		}
		return SignInResult{}, err
	}

	result := SignInResult{User: user}

	profile, err := s.ensureProfile(ctx, user)
	if err != nil {
		log.Printf("auth: profile upsert failed user=%s: %v", user.ID, err)
	} else {
		switch profile.AccountStatus {
		case models.StatusSuspended:
			return SignInResult{}, ErrAccountSuspended
		case models.StatusInactive:
			return SignInResult{}, ErrAccountInactive
		}
		result.Profile = profile
		if err := s.store.TouchLastLogin(ctx, user.ID, s.now()); err != nil {
			log.Printf("auth: last login update failed user=%s: %v", user.ID, err)
		}
	}

	session, err := s.store.CreateSession(ctx, user.ID, s.now().Add(s.sessionTimeout))
	if err != nil {
		log.Printf("auth: session create failed user=%s: %v", user.ID, err)
	} else {
		result.Session = session
	}

	s.logActivity(ctx, user.ID, "signin_success", "Successful sign in", map[string]string{"email": email})
	return result, nil
}

// ResetPassword requests a reset email. An unknown email returns silently so
// the endpoint does not reveal whether an account exists.
func (s *Service) ResetPassword(ctx context.Context, email string) error {
	email = validate.Sanitize(strings.ToLower(strings.TrimSpace(email)))
	if email == "" {
		return NewValidationError([]string{validate.MsgEmailRequired})
	}
	if !s.limiter.Allow(ctx, ratelimit.ActionResetPassword, email) {
		return ErrRateLimited
	}

	profile, err := s.store.GetProfileByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrProfileNotFound) {
			return nil
		}
		return err
	}
	if profile.AccountStatus == models.StatusSuspended {
		return ErrAccountSuspended
	}

	if err := s.provider.SendPasswordReset(ctx, email, s.resetRedirect); err != nil {
		return err
	}
	s.logActivity(ctx, profile.ID, "password_reset_request", "Password reset requested", map[string]string{"email": email})
	return nil
}

// SignOut ends the provider session and clears local sessions. Provider
// failure propagates; the local cleanup is best-effort.
func (s *Service) SignOut(ctx context.Context, accessToken, userID string) error {
	if err := s.provider.SignOut(ctx, accessToken); err != nil {
		return err
	}
	if userID != "" {
		if err := s.store.DeleteSessionsForUser(ctx, userID); err != nil {
			log.Printf("auth: session cleanup failed user=%s: %v", userID, err)
		}
	}
	return nil
}

func (s *Service) UpdatePassword(ctx context.Context, accessToken, newPassword string) error {
	if result := validate.Password(newPassword); !result.OK {
		return NewValidationError(result.Errors)
	}
	return s.provider.UpdatePassword(ctx, accessToken, newPassword)
}

// ValidateIPAccess allows any IP when the user has no allow-list configured.
func (s *Service) ValidateIPAccess(ctx context.Context, userID, ip string) (bool, error) {
	settings, err := s.store.GetSecuritySettings(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrProfileNotFound) {
			return true, nil
		}
		return false, err
	}
	if len(settings.IPAllowList) == 0 {
		return true, nil
	}
	for _, allowed := range settings.IPAllowList {
		if allowed == ip {
			return true, nil
		}
	}
	return false, nil
}

func (s *Service) ensureProfile(ctx context.Context, user identity.User) (models.Profile, error) {
	profile, err := s.store.GetProfile(ctx, user.ID)
	if err == nil {
		return profile, nil
	}
	if !errors.Is(err, store.ErrProfileNotFound) {
		return models.Profile{}, err
	}
	return s.store.UpsertProfile(ctx, store.UpsertProfileInput{
		ID:    user.ID,
		Email: user.Email,
		Role:  models.RoleLegalStaff,
	})
}

func (s *Service) logActivity(ctx context.Context, userID, action, description string, metadata map[string]string) {
	entry := models.ActivityLogEntry{
		UserID:      userID,
		ActionType:  action,
		Description: description,
		Metadata:    metadata,
		Created:     s.now(),
	}
	if err := s.store.InsertActivity(ctx, entry); err != nil {
		log.Printf("auth: activity log failed action=%s: %v", action, err)
	}
}
