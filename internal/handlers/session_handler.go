package handlers

import (
	"net/http"
	"time"

	"authgate/internal/auth"
	"authgate/internal/logger"
	"authgate/internal/security"
)

// SessionHandler issues and revokes API session cookies
type SessionHandler struct {
	scheme auth.SessionScheme
	users  auth.UserDirectory
	log    *logger.Logger
}

func NewSessionHandler(scheme auth.SessionScheme, users auth.UserDirectory, log *logger.Logger) *SessionHandler {
	return &SessionHandler{scheme: scheme, users: users, log: log}
}

// Login checks form credentials and sets the session cookie
func (h *SessionHandler) Login(w http.ResponseWriter, r *http.Request) {
	email := r.FormValue("email")
	if email == "" {
		respondWithError(w, h.log, http.StatusBadRequest, "email missing", "", nil)
		return
	}
	password := r.FormValue("password")
	if password == "" {
		respondWithError(w, h.log, http.StatusBadRequest, "password missing", "", nil)
		return
	}

	users, err := h.users.SearchUsers(r.Context(), map[string]any{"email": email})
	if err != nil {
		respondWithError(w, h.log, http.StatusInternalServerError, ErrInternalServerError, "failed to search users", err)
		return
	}
	if len(users) == 0 {
		respondWithError(w, h.log, http.StatusNotFound, "no user found for this email", "", nil)
		return
	}

	user := users[0]
	if !security.CheckPassword(password, user.HashedPassword) {
		respondWithError(w, h.log, http.StatusUnauthorized, "wrong password", "", nil)
		return
	}

	sessionID, err := h.scheme.CreateSession(r.Context(), user.ID)
	if err != nil {
		respondWithError(w, h.log, http.StatusInternalServerError, ErrInternalServerError, "failed to create session", err)
		return
	}

	http.SetCookie(w, security.CreateSessionCookie(r, h.scheme.CookieName(), sessionID, time.Time{}))
	respondJSON(w, http.StatusOK, newUserView(&user))
}

// Logout destroys the session named by the cookie
func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if !h.scheme.DestroySession(r) {
		NotFound(w, r)
		return
	}

	http.SetCookie(w, security.CreateDeleteCookie(r, h.scheme.CookieName()))
	respondJSON(w, http.StatusOK, struct{}{})
}
