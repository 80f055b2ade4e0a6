// Package entrypoint wires the application together and runs the server.
package entrypoint

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/avykov/authcore/internal/auth"
	"github.com/avykov/authcore/internal/config"
	"github.com/avykov/authcore/internal/database"
	"github.com/avykov/authcore/internal/database/users"
	http_controllers "github.com/avykov/authcore/internal/http"
	"github.com/avykov/authcore/internal/notify"
	"github.com/avykov/authcore/internal/scheduler"
	"github.com/avykov/authcore/internal/tasks"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

// Serve runs the HTTP server until an interrupt or termination signal,
// then shuts down gracefully within the configured timeout.
func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler: router,
	}

	go func() {
		log.Info().Str("host", cfg.HTTP.Host).Int32("port", cfg.HTTP.Port).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("listen failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Dur("timeout", timeout).Msg("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Call shutdown callback first (e.g., to stop the task queue)
	if onShutdown != nil {
		onShutdown(ctx)
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server shutdown failed")
	}

	log.Info().Msg("server exiting")
}

// Run builds the full dependency graph from configuration and serves.
func Run(cfg *config.Config, version string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Info().Str("version", version).Msg("starting authcore")

	if cfg.Auth.AccessSecret == "" || cfg.Auth.RefreshSecret == "" {
		log.Fatal().Msg("AUTH_ACCESS_SECRET and AUTH_REFRESH_SECRET must be set")
	}
	if cfg.Auth.Strategy == config.StrategySession && cfg.Auth.CsrfSecret == "" {
		log.Fatal().Msg("AUTH_CSRF_SECRET must be set for the session strategy")
	}

	// Initialize database
	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error().Err(err).Msg("error closing database")
		}
	}()

	userRepo := users.NewRepository(db.DB)
	hasher := auth.NewPasswordHasher(cfg.Auth.BcryptCost)
	issuer := auth.NewTokenIssuer(cfg.Auth)

	// Mail delivery, either queued or inline
	mailer := notify.NewMailer(cfg.SMTP)

	var notifier auth.Notifier
	var taskClient *tasks.Client
	var taskCtxCancel context.CancelFunc
	if cfg.Tasks.Enabled {
		taskClient, err = tasks.NewClient(cfg.Database.Path, tasks.FromAppConfig(cfg.Tasks))
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize task queue")
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				log.Error().Err(err).Msg("error closing task client")
			}
		}()

		taskClient.Register(
			tasks.NewSendVerificationEmailQueue(mailer, cfg.Auth.ClientURL),
		)

		var taskCtx context.Context
		taskCtx, taskCtxCancel = context.WithCancel(context.Background())
		go taskClient.Start(taskCtx)

		notifier = tasks.NewQueueNotifier(taskClient)
	} else {
		notifier = notify.NewDirectNotifier(mailer, cfg.Auth.ClientURL)
	}

	service := auth.NewService(userRepo, hasher, issuer, notifier, cfg.Auth)

	// Pick the active strategy
	var strategy auth.Strategy
	var sessionManager *auth.SessionManager
	var redisClient *redis.Client

	switch cfg.Auth.Strategy {
	case config.StrategySession:
		log.Info().Str("backend", string(cfg.Auth.SessionBackend)).Msg("authentication strategy: session")

		if cfg.Auth.SessionBackend == config.SessionBackendRedis {
			redisClient = redis.NewClient(&redis.Options{
				Addr:     cfg.Redis.Addr,
				Password: cfg.Redis.Password,
				DB:       cfg.Redis.DB,
			})
			pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := redisClient.Ping(pingCtx).Err(); err != nil {
				cancel()
				log.Fatal().Err(err).Msg("failed to connect to redis")
			}
			cancel()
			defer redisClient.Close()
		}

		sqlDB, err := db.SQLDB()
		if err != nil {
			log.Fatal().Err(err).Msg("failed to get SQL DB for sessions")
		}

		sessionManager, err = auth.NewSessionManager(cfg.Auth, sqlDB, redisClient)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize session manager")
		}

		csrfGuard := auth.NewCsrfGuard([]byte(cfg.Auth.CsrfSecret))
		strategy = auth.NewSessionCsrfStrategy(sessionManager, csrfGuard)

	case config.StrategyBearer, "":
		log.Info().Msg("authentication strategy: bearer")
		strategy = auth.NewBearerTokenStrategy(issuer, cfg.Auth)

	default:
		log.Fatal().Str("strategy", string(cfg.Auth.Strategy)).Msg("unknown auth strategy")
	}

	// Periodic cleanup of expired verification tokens
	cleanupScheduler := scheduler.NewTokenCleanupScheduler(userRepo, cfg.Cleanup)
	if err := cleanupScheduler.Start(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("failed to start token cleanup scheduler")
	}

	router, authController := http_controllers.NewRouter(http_controllers.RouterConfig{
		Database:       db,
		AuthService:    service,
		Strategy:       strategy,
		SessionManager: sessionManager,
		AuthConfig:     cfg.Auth,
		Version:        version,
	})

	onShutdown := func(ctx context.Context) {
		cleanupScheduler.Stop()
		authController.Stop()
		if taskClient != nil && taskCtxCancel != nil {
			taskClient.Stop(ctx)
			taskCtxCancel()
		}
	}

	Serve(router, cfg, onShutdown)
}
