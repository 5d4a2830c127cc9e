package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"authgate/internal/logger"
	"authgate/internal/service"
)

// UsersHandler serves the /api/v1/users resource
type UsersHandler struct {
	users *service.UserService
	log   *logger.Logger
}

func NewUsersHandler(users *service.UserService, log *logger.Logger) *UsersHandler {
	return &UsersHandler{users: users, log: log}
}

// List returns every user
func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.ListUsers(r.Context())
	if err != nil {
		respondWithError(w, h.log, http.StatusInternalServerError, ErrInternalServerError, "failed to list users", err)
		return
	}
	respondJSON(w, http.StatusOK, newUserViews(users))
}

// Get returns one user. The id "me" names the authenticated caller.
func (h *UsersHandler) Get(w http.ResponseWriter, r *http.Request) {
	if r.PathValue("id") == "me" {
		user := GetUserFromContext(r.Context())
		if user == nil {
			NotFound(w, r)
			return
		}
		respondJSON(w, http.StatusOK, newUserView(user))
		return
	}

	id, ok := parseUserID(r)
	if !ok {
		NotFound(w, r)
		return
	}

	user, err := h.users.GetUser(r.Context(), id)
	if errors.Is(err, service.ErrUserNotFound) {
		NotFound(w, r)
		return
	}
	if err != nil {
		respondWithError(w, h.log, http.StatusInternalServerError, ErrInternalServerError, "failed to get user", err)
		return
	}
	respondJSON(w, http.StatusOK, newUserView(user))
}

type createUserRequest struct {
	Email     *string `json:"email"`
	Password  *string `json:"password"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
}

// Create registers a user from a JSON body
func (h *UsersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, h.log, http.StatusBadRequest, "Not a JSON", "", nil)
		return
	}
	if req.Email == nil {
		respondWithError(w, h.log, http.StatusBadRequest, "Missing email", "", nil)
		return
	}
	if req.Password == nil {
		respondWithError(w, h.log, http.StatusBadRequest, "Missing password", "", nil)
		return
	}

	user, err := h.users.CreateUser(r.Context(), service.CreateUserInput{
		Email:     *req.Email,
		Password:  *req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		respondWithError(w, h.log, http.StatusBadRequest, "Can't create User: "+err.Error(), "", nil)
		return
	}
	respondJSON(w, http.StatusCreated, newUserView(user))
}

// Update changes first and last names from a JSON body. Other keys are
// ignored.
func (h *UsersHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUserID(r)
	if !ok {
		NotFound(w, r)
		return
	}
	if _, err := h.users.GetUser(r.Context(), id); err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			NotFound(w, r)
			return
		}
		respondWithError(w, h.log, http.StatusInternalServerError, ErrInternalServerError, "failed to get user", err)
		return
	}

	var body map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body == nil {
		respondWithError(w, h.log, http.StatusBadRequest, "Not a JSON", "", nil)
		return
	}

	var input service.UpdateUserInput
	if raw, ok := body["first_name"]; ok {
		if err := json.Unmarshal(raw, &input.FirstName); err != nil {
			respondWithError(w, h.log, http.StatusBadRequest, "Can't update User: first_name must be a string", "", nil)
			return
		}
		input.SetFirstName = true
	}
	if raw, ok := body["last_name"]; ok {
		if err := json.Unmarshal(raw, &input.LastName); err != nil {
			respondWithError(w, h.log, http.StatusBadRequest, "Can't update User: last_name must be a string", "", nil)
			return
		}
		input.SetLastName = true
	}

	user, err := h.users.UpdateUser(r.Context(), id, input)
	if errors.Is(err, service.ErrUserNotFound) {
		NotFound(w, r)
		return
	}
	if err != nil {
		respondWithError(w, h.log, http.StatusBadRequest, "Can't update User: "+err.Error(), "", nil)
		return
	}
	respondJSON(w, http.StatusOK, newUserView(user))
}

// Delete removes a user
func (h *UsersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUserID(r)
	if !ok {
		NotFound(w, r)
		return
	}

	err := h.users.DeleteUser(r.Context(), id)
	if errors.Is(err, service.ErrUserNotFound) {
		NotFound(w, r)
		return
	}
	if err != nil {
		respondWithError(w, h.log, http.StatusInternalServerError, ErrInternalServerError, "failed to delete user", err)
		return
	}
	respondJSON(w, http.StatusOK, struct{}{})
}

func parseUserID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
