package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"club-auth-service/internal/config"
	"club-auth-service/internal/database"
	"club-auth-service/internal/handler"
	"club-auth-service/internal/middleware"
	"club-auth-service/internal/repository"
	"club-auth-service/internal/router"
	"club-auth-service/internal/service"
)

const (
	purgeInterval = time.Hour
	// Revoked and expired rows are kept around this long before the
	// periodic purge drops them.
	purgeRetention = 30 * 24 * time.Hour
)

type App struct {
	server       *http.Server
	db           *database.DB
	cleanupFuncs []func()
}

func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	slog.Info("connecting to PostgreSQL")
	db, err := database.New(context.Background(), cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.EnsureSchema(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ensure database schema: %w", err)
	}

	pool := db.Pool
	userRepo := repository.NewUserRepository(pool)
	tokenRepo := repository.NewTokenRepository(pool)
	slog.Info("database ready")

	issuer := service.NewTokenIssuer(cfg.JWTSecret, cfg.JWTAccessTTL, cfg.RefreshTTL, tokenRepo)
	googleVerifier := service.NewTokenInfoVerifier(cfg.GoogleClientID, cfg.GoogleTimeout)
	authService := service.NewAuthService(userRepo, issuer, googleVerifier, cfg.BcryptCost)
	sessionService := service.NewSessionService(tokenRepo, userRepo, issuer)

	authMiddleware := middleware.NewAuthMiddleware(issuer)

	appRouter := router.New(cfg, authMiddleware, router.Handlers{
		Auth:   handler.NewAuthHandler(authService, sessionService),
		User:   handler.NewUserHandler(authService),
		Health: handler.NewHealthHandler(db),
	})

	purgeCtx, purgeCancel := context.WithCancel(context.Background())
	go sessionService.StartPurgeTicker(purgeCtx, purgeInterval, purgeRetention)

	server := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           appRouter,
		ReadHeaderTimeout: cfg.ServerReadHeaderTimeout,
		WriteTimeout:      cfg.ServerWriteTimeout,
		IdleTimeout:       cfg.ServerIdleTimeout,
	}

	return &App{
		server: server,
		db:     db,
		cleanupFuncs: []func(){
			purgeCancel,
			db.Close,
		},
	}, nil
}

func (a *App) Run() error {
	go func() {
		slog.Info("server starting", "addr", a.server.Addr)
		if serveErr := a.server.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			slog.Error("server failed", "error", serveErr)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	for _, cleanup := range a.cleanupFuncs {
		cleanup()
	}

	slog.Info("server stopped")
	return nil
}
