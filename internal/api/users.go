package api

import (
	"context"
	"errors"
	"net/http"
	"net/mail"
	"strings"

	"github.com/zombar/wordwise/internal/auth"
	"github.com/zombar/wordwise/internal/database"
	"github.com/zombar/wordwise/internal/models"
)

const minPasswordLength = 8

type userKey struct{}

// userFrom returns the authenticated user stored by requireUser
func userFrom(ctx context.Context) *models.User {
	u, _ := ctx.Value(userKey{}).(*models.User)
	return u
}

// requireUser rejects requests without a valid bearer token for an active user
func (h *Handler) requireUser(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
			unauthorized(w, "Not authenticated")
			return
		}

		user, err := h.authenticate(r.Context(), token)
		if err != nil {
			unauthorized(w, "Could not validate credentials")
			return
		}
		if !user.IsActive {
			respondError(w, "Inactive user", http.StatusBadRequest)
			return
		}

		next(w, r.WithContext(context.WithValue(r.Context(), userKey{}, user)))
	})
}

// authenticate resolves a token to its user
func (h *Handler) authenticate(ctx context.Context, token string) (*models.User, error) {
	claims, err := h.issuer.Parse(token)
	if err != nil {
		return nil, err
	}
	user, err := h.db.GetUserByEmail(ctx, claims.Subject)
	if err != nil {
		return nil, err
	}
	return user, nil
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	respondError(w, message, http.StatusUnauthorized)
}

// handleSignup registers a new user
func (h *Handler) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	addr, err := mail.ParseAddress(strings.TrimSpace(req.Email))
	if err != nil || addr.Name != "" {
		respondError(w, "A valid email address is required.", http.StatusBadRequest)
		return
	}
	if len(req.Password) < minPasswordLength {
		respondError(w, "Password must be at least 8 characters.", http.StatusBadRequest)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to hash password", "error", err)
		respondError(w, "Failed to create user", http.StatusInternalServerError)
		return
	}

	user := &models.User{
		Email:          strings.ToLower(addr.Address),
		HashedPassword: hash,
		IsActive:       true,
	}
	if err := h.db.CreateUser(r.Context(), user); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			respondError(w, "Email already registered", http.StatusBadRequest)
			return
		}
		h.logger.ErrorContext(r.Context(), "failed to create user", "error", err)
		respondError(w, "Failed to create user", http.StatusInternalServerError)
		return
	}

	h.logger.InfoContext(r.Context(), "user registered", "user_id", user.ID)
	respondJSON(w, user, http.StatusOK)
}

// handleToken exchanges form credentials for a bearer token
func (h *Handler) handleToken(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := r.ParseForm(); err != nil {
		respondError(w, "Invalid form body", http.StatusBadRequest)
		return
	}
	email := strings.ToLower(strings.TrimSpace(r.PostForm.Get("username")))
	password := r.PostForm.Get("password")

	user, err := h.db.GetUserByEmail(r.Context(), email)
	if err != nil && !errors.Is(err, database.ErrNotFound) {
		h.logger.ErrorContext(r.Context(), "failed to load user", "error", err)
		respondError(w, "Failed to authenticate", http.StatusInternalServerError)
		return
	}
	if user == nil || auth.CheckPassword(user.HashedPassword, password) != nil {
		unauthorized(w, "Incorrect username or password")
		return
	}

	token, err := h.issuer.Issue(user.Email)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to issue token", "error", err)
		respondError(w, "Failed to authenticate", http.StatusInternalServerError)
		return
	}

	respondJSON(w, map[string]any{
		"access_token": token,
		"token_type":   "bearer",
		"expires_in":   int(h.issuer.TTL().Seconds()),
	}, http.StatusOK)
}

// handleMe returns the authenticated user
func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, userFrom(r.Context()), http.StatusOK)
}
