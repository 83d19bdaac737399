package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// HostedProvider talks to a hosted auth API over JSON. Endpoint shape follows
// the common hosted-identity layout: /auth/v1/signup, /auth/v1/token,
// /auth/v1/logout, /auth/v1/recover, /auth/v1/user, /auth/v1/admin/users/{id}.
type HostedProvider struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewHostedProvider(baseURL, apiKey string) *HostedProvider {
	return &HostedProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

type hostedUser struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	AccessToken string `json:"access_token"`
	User        *struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	} `json:"user"`
}

type hostedError struct {
	Message          string `json:"msg"`
	ErrorDescription string `json:"error_description"`
}

func (p *HostedProvider) SignUp(ctx context.Context, email, password string, meta Metadata) (User, error) {
	payload := map[string]interface{}{
		"email":    email,
		"password": password,
		"data": map[string]string{
			"full_name": meta.FullName,
			"role":      meta.Role,
		},
	}
	var out hostedUser
	if err := p.post(ctx, "/auth/v1/signup", "", payload, &out); err != nil {
		return User{}, err
	}
	return out.toUser(), nil
}

func (p *HostedProvider) SignIn(ctx context.Context, email, password string) (User, error) {
	payload := map[string]string{"email": email, "password": password}
	var out hostedUser
	if err := p.post(ctx, "/auth/v1/token?grant_type=password", "", payload, &out); err != nil {
		return User{}, err
	}
	return out.toUser(), nil
}

func (p *HostedProvider) SignOut(ctx context.Context, accessToken string) error {
	return p.post(ctx, "/auth/v1/logout", accessToken, struct{}{}, nil)
}

func (p *HostedProvider) SendPasswordReset(ctx context.Context, email, redirectTo string) error {
	payload := map[string]string{"email": email}
	if redirectTo != "" {
		payload["redirect_to"] = redirectTo
	}
	return p.post(ctx, "/auth/v1/recover", "", payload, nil)
}

func (p *HostedProvider) UpdatePassword(ctx context.Context, accessToken, newPassword string) error {
	return p.do(ctx, http.MethodPut, "/auth/v1/user", accessToken, map[string]string{"password": newPassword}, nil)
}

func (p *HostedProvider) DeleteUser(ctx context.Context, userID string) error {
	return p.do(ctx, http.MethodDelete, "/auth/v1/admin/users/"+userID, "", nil, nil)
}

func (p *HostedProvider) post(ctx context.Context, path, token string, payload, out interface{}) error {
	return p.do(ctx, http.MethodPost, path, token, payload, out)
}

func (p *HostedProvider) do(ctx context.Context, method, path, token string, payload, out interface{}) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, p.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", p.apiKey)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	} else {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode >= 300 {
		return mapHostedError(resp.StatusCode, raw)
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, out)
}

func mapHostedError(status int, raw []byte) error {
	var he hostedError
	_ = json.Unmarshal(raw, &he)
	message := he.Message
	if message == "" {
		message = he.ErrorDescription
	}
	lower := strings.ToLower(message)
	switch {
	case status == http.StatusBadRequest && strings.Contains(lower, "invalid login credentials"):
		return ErrInvalidCredentials
	case status == http.StatusUnauthorized:
		return ErrInvalidCredentials
	case strings.Contains(lower, "already registered"):
		return ErrUserExists
	case status == http.StatusUnprocessableEntity && strings.Contains(lower, "already"):
		return ErrUserExists
	}
	if message == "" {
		message = http.StatusText(status)
	}
	return fmt.Errorf("identity provider: %s (status %d)", message, status)
}

func (u hostedUser) toUser() User {
	user := User{ID: u.ID, Email: u.Email, AccessToken: u.AccessToken}
	if u.User != nil {
		user.ID = u.User.ID
		user.Email = u.User.Email
	}
	return user
}
