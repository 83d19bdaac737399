package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"lexscribe/deposition-service/internal/auth"
	"lexscribe/deposition-service/internal/export"
	"lexscribe/deposition-service/internal/identity"
	"lexscribe/deposition-service/internal/metrics"
	"lexscribe/deposition-service/internal/models"
	"lexscribe/deposition-service/internal/store"
	"lexscribe/deposition-service/internal/transcription"
	"lexscribe/deposition-service/internal/validate"
)

// 50 MB cap on uploaded audio
const maxAudioBytes = 50 << 20

type AuthService interface {
	SignUp(ctx context.Context, input auth.SignUpInput) (auth.SignUpResult, error)
	SignIn(ctx context.Context, email, password string) (auth.SignInResult, error)
	ResetPassword(ctx context.Context, email string) error
	SignOut(ctx context.Context, accessToken, userID string) error
	UpdatePassword(ctx context.Context, accessToken, newPassword string) error
}

type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, mimeType string, opts transcription.Options) (transcription.Result, error)
}

type Handler struct {
	auth        AuthService
	store       store.Store
	guard       *auth.Guard
	transcriber Transcriber
	metrics     *metrics.Metrics
}

func NewHandler(authService AuthService, st store.Store, guard *auth.Guard, transcriber Transcriber) *Handler {
	return &Handler{auth: authService, store: st, guard: guard, transcriber: transcriber}
}

// WithMetrics attaches the collectors the handler increments directly.
func (h *Handler) WithMetrics(m *metrics.Metrics) *Handler {
	h.metrics = m
	return h
}

func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/signup", h.handleSignUp)
	mux.HandleFunc("/api/auth/signin", h.handleSignIn)
	mux.HandleFunc("/api/auth/signout", h.handleSignOut)
	mux.HandleFunc("/api/auth/reset-password", h.handleResetPassword)
	mux.HandleFunc("/api/auth/password", h.handleUpdatePassword)
	mux.HandleFunc("/api/auth/me", h.handleMe)
	mux.HandleFunc("/api/transcriptions", h.handleTranscribe)
	mux.HandleFunc("/api/transcriptions/export", h.handleExport)
	return mux
}

type signUpRequest struct {
	Email               string `json:"email"`
	Password            string `json:"password"`
	FullName            string `json:"full_name"`
	Role                string `json:"role"`
	Organization        string `json:"organization"`
	BarNumber           string `json:"bar_number"`
	CertificationNumber string `json:"certification_number"`
}

type profileInfo struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	FullName      string `json:"full_name"`
	Role          string `json:"role"`
	Organization  string `json:"organization,omitempty"`
	AccountStatus string `json:"account_status"`
}

type sessionInfo struct {
	Token     string `json:"session_token"`
	ExpiresAt string `json:"expires_at"`
}

type errorResponse struct {
	Error responseError `json:"error"`
}

type responseError struct {
	Code     string   `json:"code"`
	Message  string   `json:"message"`
	Messages []string `json:"messages,omitempty"`
}

func (h *Handler) handleSignUp(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req signUpRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid JSON payload")
		return
	}

	role, err := models.ParseRole(strings.TrimSpace(req.Role))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "role must be one of the platform roles")
		return
	}

	result, err := h.auth.SignUp(r.Context(), auth.SignUpInput{
		Email:        req.Email,
		Password:     req.Password,
		FullName:     strings.TrimSpace(req.FullName),
		Role:         role,
		Organization: strings.TrimSpace(req.Organization),
		Credentials: validate.RoleCredentials{
			BarNumber:           strings.TrimSpace(req.BarNumber),
			CertificationNumber: strings.TrimSpace(req.CertificationNumber),
		},
	})
	if err != nil {
		writeAuthError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"user_id": result.User.ID,
		"profile": toProfileInfo(result.Profile),
	})
}

func (h *Handler) handleSignIn(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid JSON payload")
		return
	}

	result, err := h.auth.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		writeAuthError(w, err)
		return
	}

	resp := map[string]interface{}{
		"access_token": result.User.AccessToken,
		"user_id":      result.User.ID,
		"profile":      toProfileInfo(result.Profile),
	}
	if result.Session.Token != "" {
		resp["session"] = sessionInfo{
			Token:     result.Session.Token,
			ExpiresAt: result.Session.ExpiresAt.Format(time.RFC3339),
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleSignOut(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	token := strings.TrimSpace(bearerToken(r.Header.Get("Authorization")))
	if token == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing session token")
		return
	}

	// Best-effort session lookup so local sessions get cleared too.
	var userID string
	if session, _, err := h.store.GetSession(r.Context(), token); err == nil {
		userID = session.UserID
	}

	if err := h.auth.SignOut(r.Context(), token, userID); err != nil {
		writeAuthError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "signed_out"})
}

func (h *Handler) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Email string `json:"email"`
	}
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid JSON payload")
		return
	}

	if err := h.auth.ResetPassword(r.Context(), req.Email); err != nil {
		writeAuthError(w, err)
		return
	}
	// Identical response whether or not the account exists.
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleUpdatePassword(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	token := strings.TrimSpace(bearerToken(r.Header.Get("Authorization")))
	if token == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing access token")
		return
	}

	var req struct {
		Password string `json:"password"`
	}
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid JSON payload")
		return
	}

	if err := h.auth.UpdatePassword(r.Context(), token, req.Password); err != nil {
		writeAuthError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	session, profile, ok := h.requireSession(w, r)
	if !ok {
		return
	}

	grant, err := h.guard.Access(r.Context(), profile.ID, profile.Email)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"session": sessionInfo{Token: session.Token, ExpiresAt: session.ExpiresAt.Format(time.RFC3339)},
		"profile": toProfileInfo(grant.Profile),
		"capabilities": map[string]bool{
			"can_transcribe":   grant.CanTranscribe(),
			"can_manage_users": grant.CanManageUsers(),
		},
	})
}

func (h *Handler) handleTranscribe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	_, profile, ok := h.requireSession(w, r)
	if !ok {
		return
	}
	grant, err := h.guard.Access(r.Context(), profile.ID, profile.Email)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}
	if !grant.CanTranscribe() {
		writeError(w, http.StatusForbidden, "forbidden", "transcription tooling is limited to court reporters and scopists")
		return
	}

	if err := r.ParseMultipartForm(maxAudioBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "expected multipart form with an audio part")
		return
	}
	file, header, err := r.FormFile("audio")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "audio part is required")
		return
	}
	defer file.Close()

	audio, err := io.ReadAll(io.LimitReader(file, maxAudioBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "could not read audio part")
		return
	}
	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	opts := transcription.Options{
		Diarize:     r.FormValue("diarize") == "true",
		SmartFormat: r.FormValue("smart_format") == "true",
		Utterances:  r.FormValue("utterances") == "true",
		Punctuate:   r.FormValue("punctuate") == "true",
	}
	if keywords := strings.TrimSpace(r.FormValue("keywords")); keywords != "" {
		for _, keyword := range strings.Split(keywords, ",") {
			if keyword = strings.TrimSpace(keyword); keyword != "" {
				opts.Keywords = append(opts.Keywords, keyword)
			}
		}
	}

	result, err := h.transcriber.Transcribe(r.Context(), audio, mimeType, opts)
	if err != nil {
		writeError(w, http.StatusBadGateway, "transcription_failed", "failed to transcribe audio")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type exportRequest struct {
	Words       []transcription.Word    `json:"words"`
	Speakers    []transcription.Speaker `json:"speakers"`
	CaseDetails export.CaseDetails      `json:"caseDetails"`
	Options     export.Options          `json:"options"`
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	if _, _, ok := h.requireSession(w, r); !ok {
		return
	}

	var req exportRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxAudioBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid JSON payload")
		return
	}

	file, err := export.Export(req.Words, req.Speakers, req.CaseDetails, req.Options)
	if err != nil {
		switch {
		case errors.Is(err, export.ErrMissingStyling), errors.Is(err, export.ErrUnsupportedFormat):
			writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		}
		return
	}

	if h.metrics != nil {
		h.metrics.ExportsTotal.WithLabelValues(string(req.Options.Format)).Inc()
	}
	w.Header().Set("Content-Type", file.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": file.Name}))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(file.Data)
}

func (h *Handler) requireSession(w http.ResponseWriter, r *http.Request) (models.Session, models.Profile, bool) {
	token := strings.TrimSpace(bearerToken(r.Header.Get("Authorization")))
	if token == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing session token")
		return models.Session{}, models.Profile{}, false
	}
	session, profile, err := h.store.GetSession(r.Context(), token)
	if err != nil {
		if errors.Is(err, store.ErrSessionNotFound) {
			writeError(w, http.StatusUnauthorized, "unauthorized", "invalid session")
			return models.Session{}, models.Profile{}, false
		}
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return models.Session{}, models.Profile{}, false
	}
	return session, profile, true
}

func writeAuthError(w http.ResponseWriter, err error) {
	var validationErr *auth.ValidationError
	switch {
	case errors.As(err, &validationErr):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: responseError{
			Code:     "validation_failed",
			Message:  "input validation failed",
			Messages: validationErr.Messages,
		}})
	case errors.Is(err, auth.ErrRateLimited):
		writeError(w, http.StatusTooManyRequests, "rate_limited", "Too many attempts. Please try again later.")
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "invalid_credentials", auth.ErrInvalidCredentials.Error())
	case errors.Is(err, auth.ErrAccountSuspended):
		writeError(w, http.StatusForbidden, "account_suspended", auth.ErrAccountSuspended.Error())
	case errors.Is(err, auth.ErrAccountInactive):
		writeError(w, http.StatusForbidden, "account_inactive", auth.ErrAccountInactive.Error())
	case errors.Is(err, identity.ErrUserExists):
		writeError(w, http.StatusConflict, "user_exists", "an account with this email already exists")
	default:
		writeError(w, http.StatusBadGateway, "provider_error", "authentication provider error")
	}
}

func toProfileInfo(profile models.Profile) profileInfo {
	return profileInfo{
		ID:            profile.ID,
		Email:         profile.Email,
		FullName:      profile.FullName,
		Role:          string(profile.Role),
		Organization:  profile.Organization,
		AccountStatus: string(profile.AccountStatus),
	}
}

func bearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.Fields(header)
	if len(parts) != 2 {
		return ""
	}
	if strings.ToLower(parts[0]) != "bearer" {
		return ""
	}
	return parts[1]
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: responseError{Code: code, Message: message}})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}
