package handlers

import (
	"net/http"

	"authgate/internal/logger"
	"authgate/internal/service"
)

// IndexHandler serves the API status endpoints
type IndexHandler struct {
	users *service.UserService
	log   *logger.Logger
}

func NewIndexHandler(users *service.UserService, log *logger.Logger) *IndexHandler {
	return &IndexHandler{users: users, log: log}
}

// Status reports that the API is up
func (h *IndexHandler) Status(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "OK"})
}

// Stats returns object counts
func (h *IndexHandler) Stats(w http.ResponseWriter, r *http.Request) {
	count, err := h.users.CountUsers(r.Context())
	if err != nil {
		respondWithError(w, h.log, http.StatusInternalServerError, ErrInternalServerError, "failed to count users", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]int{"users": count})
}

// Unauthorized always answers 401
func (h *IndexHandler) Unauthorized(w http.ResponseWriter, _ *http.Request) {
	respondWithError(w, h.log, http.StatusUnauthorized, ErrUnauthorized, "", nil)
}

// Forbidden always answers 403
func (h *IndexHandler) Forbidden(w http.ResponseWriter, _ *http.Request) {
	respondWithError(w, h.log, http.StatusForbidden, ErrForbidden, "", nil)
}
