package handlers

import (
	"errors"
	"net/http"
	"time"

	"authgate/internal/logger"
	"authgate/internal/models"
	"authgate/internal/security"
	"authgate/internal/service"
	"authgate/internal/validation"
)

// AuthHandler serves the user service: registration, login sessions stored
// on the user row, profile and password reset
type AuthHandler struct {
	authService *service.AuthService
	log         *logger.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *service.AuthService, log *logger.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		log:         log,
	}
}

// Home greets the client
func (h *AuthHandler) Home(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, messageResponse{Message: "Bienvenue"})
}

// Register handles registration form submission
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	email := r.FormValue("email")
	password := r.FormValue("password")

	user, err := h.authService.RegisterUser(r.Context(), email, password)
	var vErr validation.ValidationError
	switch {
	case errors.Is(err, service.ErrEmailTaken):
		respondJSON(w, http.StatusBadRequest, messageResponse{Message: "email already registered"})
		return
	case errors.As(err, &vErr):
		respondJSON(w, http.StatusBadRequest, messageResponse{Message: vErr.Error()})
		return
	case err != nil:
		respondWithError(w, h.log, http.StatusInternalServerError, ErrInternalServerError, "failed to register user", err)
		return
	}

	respondJSON(w, http.StatusOK, messageResponse{Email: user.Email, Message: "user created"})
}

// Login handles login form submission
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	email := r.FormValue("email")
	password := r.FormValue("password")

	if !h.authService.ValidLogin(r.Context(), email, password) {
		respondWithError(w, h.log, http.StatusUnauthorized, ErrUnauthorized, "", nil)
		return
	}

	sessionID, err := h.authService.CreateSession(r.Context(), email)
	if err != nil {
		respondWithError(w, h.log, http.StatusInternalServerError, ErrInternalServerError, "failed to create session", err)
		return
	}

	http.SetCookie(w, security.CreateSessionCookie(r, UserSessionCookieName, sessionID, time.Time{}))
	respondJSON(w, http.StatusOK, messageResponse{Email: email, Message: "logged in"})
}

// Logout clears the caller's session and redirects home
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	user, ok := h.sessionUser(w, r)
	if !ok {
		return
	}

	if err := h.authService.DestroySession(r.Context(), user.ID); err != nil {
		respondWithError(w, h.log, http.StatusForbidden, ErrForbidden, "failed to destroy session", err)
		return
	}

	http.SetCookie(w, security.CreateDeleteCookie(r, UserSessionCookieName))
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Profile returns the caller's email
func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	user, ok := h.sessionUser(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, emailResponse{Email: user.Email})
}

// GetResetPasswordToken issues a reset token for the form email
func (h *AuthHandler) GetResetPasswordToken(w http.ResponseWriter, r *http.Request) {
	email := r.FormValue("email")

	token, err := h.authService.GetResetPasswordToken(r.Context(), email)
	if errors.Is(err, service.ErrUserNotFound) {
		respondWithError(w, h.log, http.StatusForbidden, ErrForbidden, "", nil)
		return
	}
	if err != nil {
		respondWithError(w, h.log, http.StatusInternalServerError, ErrInternalServerError, "failed to issue reset token", err)
		return
	}

	respondJSON(w, http.StatusOK, resetTokenResponse{Email: email, ResetToken: token})
}

// UpdatePassword consumes a reset token
func (h *AuthHandler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	email := r.FormValue("email")
	token := r.FormValue("reset_token")
	password := r.FormValue("new_password")

	err := h.authService.UpdatePassword(r.Context(), token, password)
	var vErr validation.ValidationError
	if errors.Is(err, service.ErrInvalidResetToken) || errors.As(err, &vErr) {
		respondWithError(w, h.log, http.StatusForbidden, ErrForbidden, "", nil)
		return
	}
	if err != nil {
		respondWithError(w, h.log, http.StatusInternalServerError, ErrInternalServerError, "failed to update password", err)
		return
	}

	respondJSON(w, http.StatusOK, messageResponse{Email: email, Message: "Password updated"})
}

// sessionUser resolves the session cookie or answers 403
func (h *AuthHandler) sessionUser(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	var sessionID string
	if cookie, err := r.Cookie(UserSessionCookieName); err == nil {
		sessionID = cookie.Value
	}

	user, err := h.authService.GetUserFromSessionID(r.Context(), sessionID)
	if errors.Is(err, service.ErrSessionNotFound) {
		respondWithError(w, h.log, http.StatusForbidden, ErrForbidden, "", nil)
		return nil, false
	}
	if err != nil {
		respondWithError(w, h.log, http.StatusInternalServerError, ErrInternalServerError, "failed to resolve session", err)
		return nil, false
	}
	return user, true
}
