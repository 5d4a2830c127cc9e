package handlers

import (
	"net/http"

	"authgate/internal/auth"
	"authgate/internal/logger"
	"authgate/internal/security"
	"authgate/internal/service"
)

// RouterConfig holds what NewRouter wires together
type RouterConfig struct {
	// Scheme gates /api/v1; nil disables the gate
	Scheme      auth.Scheme
	Users       auth.UserDirectory
	UserService *service.UserService
	AuthService *service.AuthService
	Limiter     *security.RateLimiter
	Logger      *logger.Logger
}

// NewRouter builds the HTTP handler for the API under /api/v1 and the user
// service at the root
func NewRouter(cfg RouterConfig) http.Handler {
	middleware := NewMiddleware(cfg.Scheme, cfg.Limiter, cfg.Logger)
	indexHandler := NewIndexHandler(cfg.UserService, cfg.Logger)
	usersHandler := NewUsersHandler(cfg.UserService, cfg.Logger)
	authHandler := NewAuthHandler(cfg.AuthService, cfg.Logger)

	api := http.NewServeMux()
	api.HandleFunc("GET /api/v1/status", indexHandler.Status)
	api.HandleFunc("GET /api/v1/stats", indexHandler.Stats)
	api.HandleFunc("GET /api/v1/unauthorized", indexHandler.Unauthorized)
	api.HandleFunc("GET /api/v1/forbidden", indexHandler.Forbidden)
	api.HandleFunc("GET /api/v1/users", usersHandler.List)
	api.HandleFunc("POST /api/v1/users", usersHandler.Create)
	api.HandleFunc("GET /api/v1/users/{id}", usersHandler.Get)
	api.HandleFunc("PUT /api/v1/users/{id}", usersHandler.Update)
	api.HandleFunc("DELETE /api/v1/users/{id}", usersHandler.Delete)
	if sessions, ok := cfg.Scheme.(auth.SessionScheme); ok {
		sessionHandler := NewSessionHandler(sessions, cfg.Users, cfg.Logger)
		api.HandleFunc("POST /api/v1/auth_session/login", middleware.RateLimit(sessionHandler.Login))
		api.HandleFunc("DELETE /api/v1/auth_session/logout", sessionHandler.Logout)
	}
	api.HandleFunc("/api/v1", NotFound)
	api.HandleFunc("/api/v1/", NotFound)

	mux := http.NewServeMux()
	gated := middleware.Gate(api)
	mux.Handle("/api/v1", gated)
	mux.Handle("/api/v1/", gated)

	// User service
	mux.HandleFunc("GET /{$}", authHandler.Home)
	mux.HandleFunc("POST /users", middleware.RateLimit(authHandler.Register))
	mux.HandleFunc("POST /sessions", middleware.RateLimit(authHandler.Login))
	mux.HandleFunc("DELETE /sessions", authHandler.Logout)
	mux.HandleFunc("GET /profile", authHandler.Profile)
	mux.HandleFunc("POST /reset_password", middleware.RateLimit(authHandler.GetResetPasswordToken))
	mux.HandleFunc("PUT /reset_password", middleware.RateLimit(authHandler.UpdatePassword))
	mux.HandleFunc("/", NotFound)

	return Logging(cfg.Logger, TrimTrailingSlash(mux))
}
