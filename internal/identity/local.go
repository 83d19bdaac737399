package identity

import (
	"context"
	"errors"
	"log"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
)

// LocalProvider is a self-hosted fallback used when no hosted identity API is
// configured. Credentials live in an identity_users table with bcrypt hashes;
// access tokens are opaque UUIDs the caller exchanges for a session.
type LocalProvider struct {
	pool *pgxpool.Pool
}

func NewLocalProvider(pool *pgxpool.Pool) *LocalProvider {
	return &LocalProvider{pool: pool}
}

func (p *LocalProvider) SignUp(ctx context.Context, email, password string, meta Metadata) (User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}

	userID := uuid.NewString()
	tag, err := p.pool.Exec(ctx, `
		INSERT INTO identity_users (user_id, email, password_hash, full_name, role)
		VALUES ($1, lower($2), $3, $4, $5)
		ON CONFLICT (email) DO NOTHING
	`, userID, email, string(hash), meta.FullName, meta.Role)
	if err != nil {
		return User{}, err
	}
	if tag.RowsAffected() == 0 {
		return User{}, ErrUserExists
	}
	return User{ID: userID, Email: email, AccessToken: uuid.NewString()}, nil
}

func (p *LocalProvider) SignIn(ctx context.Context, email, password string) (User, error) {
	var userID, storedEmail, passwordHash string
	row := p.pool.QueryRow(ctx, `
		SELECT user_id, email, password_hash
		FROM identity_users
		WHERE email = lower($1)
	`, email)
	if err := row.Scan(&userID, &storedEmail, &passwordHash); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrInvalidCredentials
		}
		return User{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(password)); err != nil {
		return User{}, ErrInvalidCredentials
	}
	return User{ID: userID, Email: storedEmail, AccessToken: uuid.NewString()}, nil
}

func (p *LocalProvider) SignOut(ctx context.Context, accessToken string) error {
	// Local tokens are not tracked provider-side; the session store is the
	// source of truth and is cleared by the auth service.
	return nil
}

func (p *LocalProvider) SendPasswordReset(ctx context.Context, email, redirectTo string) error {
	// No mail transport in the local provider. Record the request so the
	// flow stays observable in development.
	log.Printf("identity: password reset requested email=%s redirect=%s", email, redirectTo)
	return nil
}

func (p *LocalProvider) UpdatePassword(ctx context.Context, accessToken, newPassword string) error {
	return errors.New("local provider: password update requires the hosted provider")
}

func (p *LocalProvider) DeleteUser(ctx context.Context, userID string) error {
	_, err := p.pool.Exec(ctx, `
		DELETE FROM identity_users
		WHERE user_id = $1
	`, userID)
	return err
}
