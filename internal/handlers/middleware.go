package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"authgate/internal/auth"
	"authgate/internal/logger"
	"authgate/internal/models"
	"authgate/internal/security"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const UserContextKey ContextKey = "user"

// Middleware holds dependencies for middleware functions
type Middleware struct {
	scheme  auth.Scheme
	limiter *security.RateLimiter
	log     *logger.Logger
}

// NewMiddleware creates a new middleware instance. A nil scheme lets every
// request through; a nil limiter disables rate limiting.
func NewMiddleware(scheme auth.Scheme, limiter *security.RateLimiter, log *logger.Logger) *Middleware {
	return &Middleware{
		scheme:  scheme,
		limiter: limiter,
		log:     log,
	}
}

// Gate enforces the auth scheme. Requests with neither an Authorization
// header nor a session cookie get 401; credentials that resolve to no user
// get 403.
func (m *Middleware) Gate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.scheme == nil || !m.scheme.RequireAuth(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		// An Authorization header counts as presented even when empty.
		if len(r.Header.Values("Authorization")) == 0 && m.scheme.SessionCookie(r) == "" {
			respondWithError(w, m.log, http.StatusUnauthorized, ErrUnauthorized, "", nil)
			return
		}

		user := m.scheme.CurrentUser(r)
		if user == nil {
			respondWithError(w, m.log, http.StatusForbidden, ErrForbidden, "", nil)
			return
		}

		ctx := context.WithValue(r.Context(), UserContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RateLimit limits credential submissions per client IP
func (m *Middleware) RateLimit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if m.limiter == nil {
			next(w, r)
			return
		}
		if key := m.limiter.ClientKey(r); !m.limiter.Allow(key) {
			m.log.Warn("rate limit exceeded", "path", r.URL.Path, "ip", key)
			respondWithError(w, m.log, http.StatusTooManyRequests, ErrTooManyRequests, "", nil)
			return
		}
		next(w, r)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Logging middleware logs HTTP requests
func Logging(log *logger.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		// Call next handler
		next.ServeHTTP(rec, r)

		log.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}

// TrimTrailingSlash routes "/users/" like "/users"
func TrimTrailingSlash(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		trimmed := strings.TrimRight(r.URL.Path, "/")
		if trimmed == r.URL.Path || trimmed == "" {
			next.ServeHTTP(w, r)
			return
		}

		r2 := r.Clone(r.Context())
		r2.URL.Path = trimmed
		r2.URL.RawPath = ""
		next.ServeHTTP(w, r2)
	})
}

// GetUserFromContext retrieves the user from the request context
func GetUserFromContext(ctx context.Context) *models.User {
	user, ok := ctx.Value(UserContextKey).(*models.User)
	if !ok {
		return nil
	}
	return user
}
