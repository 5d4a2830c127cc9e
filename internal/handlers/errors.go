package handlers

import (
	"encoding/json"
	"net/http"

	"authgate/internal/logger"
)

type errorResponse struct {
	Error string `json:"error"`
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func respondWithError(w http.ResponseWriter, log *logger.Logger, status int, userMsg, logMsg string, err error) {
	if err != nil {
		if logMsg == "" {
			logMsg = userMsg
		}
		log.Error(logMsg, "status", status, "error", err)
	}

	respondJSON(w, status, errorResponse{Error: userMsg})
}

// NotFound answers any unmatched route
func NotFound(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusNotFound, errorResponse{Error: ErrNotFound})
}
