package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"lexscribe/deposition-service/internal/models"
	"lexscribe/deposition-service/internal/store"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) UpsertProfile(ctx context.Context, input store.UpsertProfileInput) (models.Profile, error) {
	now := time.Now().UTC()
	role := input.Role
	if role == "" {
		role = models.RoleLegalStaff
	}
	var profile models.Profile
	row := s.pool.QueryRow(ctx, `
		INSERT INTO profiles (id, email, full_name, role, organization, account_status, security_level, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, 'active', 'standard', $6, $6)
		ON CONFLICT (id) DO UPDATE SET
			email        = EXCLUDED.email,
			full_name    = EXCLUDED.full_name,
			role         = EXCLUDED.role,
			organization = EXCLUDED.organization,
			updated_at   = EXCLUDED.updated_at
		RETURNING id, email, full_name, role, organization, account_status, security_level, last_login, created_at, updated_at
	`, input.ID, input.Email, input.FullName, role, input.Organization, now)
	if err := scanProfile(row, &profile); err != nil {
		return models.Profile{}, err
	}
	return profile, nil
}

func (s *Store) GetProfile(ctx context.Context, userID string) (models.Profile, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, email, full_name, role, organization, account_status, security_level, last_login, created_at, updated_at
		FROM profiles
		WHERE id = $1
	`, userID)
	var profile models.Profile
	if err := scanProfile(row, &profile); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Profile{}, store.ErrProfileNotFound
		}
		return models.Profile{}, err
	}
	return profile, nil
}

func (s *Store) GetProfileByEmail(ctx context.Context, email string) (models.Profile, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, email, full_name, role, organization, account_status, security_level, last_login, created_at, updated_at
		FROM profiles
		WHERE lower(email) = lower($1)
	`, email)
	var profile models.Profile
	if err := scanProfile(row, &profile); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Profile{}, store.ErrProfileNotFound
		}
		return models.Profile{}, err
	}
	return profile, nil
}

func (s *Store) TouchLastLogin(ctx context.Context, userID string, at time.Time) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE profiles
		SET last_login = $2, updated_at = $2
		WHERE id = $1
	`, userID, at)
	return err
}

func (s *Store) CreateSecuritySettings(ctx context.Context, userID string, sessionTimeout time.Duration) (models.SecuritySettings, error) {
	now := time.Now().UTC()
	_, err := s.pool.Exec(ctx, `
		INSERT INTO user_security_settings (user_id, two_factor_enabled, session_timeout_seconds, created_at, updated_at)
		VALUES ($1, FALSE, $2, $3, $3)
		ON CONFLICT (user_id) DO NOTHING
	`, userID, int(sessionTimeout.Seconds()), now)
	if err != nil {
		return models.SecuritySettings{}, err
	}
	return models.SecuritySettings{
		UserID:         userID,
		SessionTimeout: sessionTimeout,
		Created:        now,
		Updated:        now,
	}, nil
}

func (s *Store) GetSecuritySettings(ctx context.Context, userID string) (models.SecuritySettings, error) {
	var settings models.SecuritySettings
	var timeoutSeconds int
	var method *string
	row := s.pool.QueryRow(ctx, `
		SELECT user_id, two_factor_enabled, two_factor_method, session_timeout_seconds, ip_allowlist, created_at, updated_at
		FROM user_security_settings
		WHERE user_id = $1
	`, userID)
	if err := row.Scan(&settings.UserID, &settings.TwoFactorEnabled, &method, &timeoutSeconds, &settings.IPAllowList, &settings.Created, &settings.Updated); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.SecuritySettings{}, store.ErrProfileNotFound
		}
		return models.SecuritySettings{}, err
	}
	if method != nil {
		settings.TwoFactorMethod = *method
	}
	settings.SessionTimeout = time.Duration(timeoutSeconds) * time.Second
	return settings, nil
}

func (s *Store) CreateSession(ctx context.Context, userID string, expiresAt time.Time) (models.Session, error) {
	token := uuid.NewString()
	now := time.Now().UTC()
	_, err := s.pool.Exec(ctx, `
		INSERT INTO user_sessions (session_token, user_id, expires_at, last_activity, created_at)
		VALUES ($1, $2, $3, $4, $4)
	`, token, userID, expiresAt, now)
	if err != nil {
		return models.Session{}, err
	}
	return models.Session{Token: token, UserID: userID, ExpiresAt: expiresAt, LastActivity: now, Created: now}, nil
}

func (s *Store) GetSession(ctx context.Context, token string) (models.Session, models.Profile, error) {
	var session models.Session
	var profile models.Profile
	row := s.pool.QueryRow(ctx, `
		SELECT s.session_token, s.user_id, s.expires_at, s.last_activity, s.created_at,
		       p.id, p.email, p.full_name, p.role, p.organization, p.account_status, p.security_level, p.last_login, p.created_at, p.updated_at
		FROM user_sessions s
		JOIN profiles p ON p.id = s.user_id
		WHERE s.session_token = $1 AND s.expires_at > NOW()
	`, token)
	var org *string
	var lastLogin *time.Time
	if err := row.Scan(
		&session.Token, &session.UserID, &session.ExpiresAt, &session.LastActivity, &session.Created,
		&profile.ID, &profile.Email, &profile.FullName, &profile.Role, &org, &profile.AccountStatus,
		&profile.SecurityLevel, &lastLogin, &profile.Created, &profile.Updated,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Session{}, models.Profile{}, store.ErrSessionNotFound
		}
		return models.Session{}, models.Profile{}, err
	}
	if org != nil {
		profile.Organization = *org
	}
	profile.LastLogin = lastLogin
	return session, profile, nil
}

func (s *Store) DeleteSessionsForUser(ctx context.Context, userID string) error {
	_, err := s.pool.Exec(ctx, `
		DELETE FROM user_sessions
		WHERE user_id = $1
	`, userID)
	return err
}

func (s *Store) InsertActivity(ctx context.Context, entry models.ActivityLogEntry) error {
	id := entry.ID
	if id == "" {
		id = uuid.NewString()
	}
	created := entry.Created
	if created.IsZero() {
		created = time.Now().UTC()
	}
	metadata, err := json.Marshal(entry.Metadata)
	if err != nil {
		return err
	}
	var userID *string
	if entry.UserID != "" {
		userID = &entry.UserID
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO user_activity_logs (id, user_id, action_type, action_description, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, id, userID, entry.ActionType, entry.Description, metadata, created)
	return err
}

// CountActivity matches the identifier against the metadata the rate limiter
// writes, scoped to the trailing window.
func (s *Store) CountActivity(ctx context.Context, actionType, identifier string, since time.Time) (int, error) {
	var count int
	row := s.pool.QueryRow(ctx, `
		SELECT count(*)
		FROM user_activity_logs
		WHERE action_type = $1 AND metadata->>'identifier' = $2 AND created_at >= $3
	`, actionType, identifier, since)
	if err := row.Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func scanProfile(row pgx.Row, profile *models.Profile) error {
	var org *string
	var lastLogin *time.Time
	if err := row.Scan(
		&profile.ID, &profile.Email, &profile.FullName, &profile.Role, &org,
		&profile.AccountStatus, &profile.SecurityLevel, &lastLogin, &profile.Created, &profile.Updated,
	); err != nil {
		return err
	}
	if org != nil {
		profile.Organization = *org
	}
	profile.LastLogin = lastLogin
	return nil
}
