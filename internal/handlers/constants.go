package handlers

const (
	// UserSessionCookieName is the cookie set by the user service login
	UserSessionCookieName = "session_id"

	ErrNotFound            = "Not found"
	ErrUnauthorized        = "Unauthorized"
	ErrForbidden           = "Forbidden"
	ErrTooManyRequests     = "Too many requests"
	ErrInternalServerError = "Internal server error"
	ErrInvalidFormData     = "Invalid form data"
)

// ExcludedPaths are reachable under /api/v1 without credentials
var ExcludedPaths = []string{
	"/api/v1/status/",
	"/api/v1/unauthorized/",
	"/api/v1/forbidden/",
	"/api/v1/auth_session/login/",
}
