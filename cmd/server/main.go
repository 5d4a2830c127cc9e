package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"authgate/internal/auth"
	"authgate/internal/config"
	"authgate/internal/database"
	"authgate/internal/handlers"
	"authgate/internal/logger"
	"authgate/internal/repository"
	"authgate/internal/security"
	"authgate/internal/service"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.New(0).Fatal("failed to load config", "error", err)
	}
	log := logger.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize database (supports sqlite, postgres, mysql)
	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		log.Fatal("failed to open database", "error", err)
	}
	defer db.Close()
	log.Info("database connection established", "type", cfg.Database.Type)

	if err := db.Migrate(ctx, log); err != nil {
		log.Fatal("failed to run migrations", "error", err)
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	sessionRepo := repository.NewSessionRepository(db)

	scheme, err := auth.New(auth.Options{
		Type:            auth.Type(cfg.AuthType),
		Excluded:        handlers.ExcludedPaths,
		CookieName:      cfg.SessionName,
		SessionDuration: cfg.SessionDuration(),
		Users:           userRepo,
		Sessions:        sessionRepo,
		Logger:          log,
	})
	if err != nil {
		log.Fatal("failed to configure authentication", "auth_type", cfg.AuthType, "error", err)
	}
	if scheme == nil {
		log.Warn("AUTH_TYPE not set, /api/v1 is not protected")
	}

	// Initialize services
	emailService, err := service.NewEmailService(ctx, cfg.Email, log)
	if err != nil {
		log.Fatal("failed to configure email", "error", err)
	}
	authService := service.NewAuthService(userRepo, emailService, log)
	userService := service.NewUserService(userRepo, log)

	// 10 attempts per minute per client on credential endpoints
	limiter := security.NewRateLimiter(10, time.Minute, cfg.TrustProxy)
	go limiter.Run(ctx, 5*time.Minute)

	handler := handlers.NewRouter(handlers.RouterConfig{
		Scheme:      scheme,
		Users:       userRepo,
		UserService: userService,
		AuthService: authService,
		Limiter:     limiter,
		Logger:      log,
	})

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("server starting", "addr", cfg.Addr(), "auth_type", cfg.AuthType)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("server shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
}
