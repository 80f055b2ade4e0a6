package config

import (
	"time"

	"github.com/spf13/viper"
)

// Strategy selects how authenticated state is carried between requests.
// Exactly one strategy is active per deployment.
type Strategy string

const (
	StrategyBearer  Strategy = "bearer"  // stateless JWT access token + refresh cookie
	StrategySession Strategy = "session" // server-side session cookie + CSRF token
)

// SessionBackend selects where server-side session records live.
type SessionBackend string

const (
	SessionBackendMemory SessionBackend = "memory" // in-process, for dev and tests
	SessionBackendSQLite SessionBackend = "sqlite" // shared application database
	SessionBackendRedis  SessionBackend = "redis"  // shared cache, for multi-instance deployments
)

type (
	Config struct {
		HTTP
		Global
		Database
		Auth
		Redis
		SMTP
		Tasks
		Cleanup
	}

	HTTP struct {
		Port int32
		Host string
	}
	Global struct {
		ShutdownTimeoutInSeconds int
	}
	Database struct {
		Path string
	}
	Auth struct {
		Strategy       Strategy
		SessionBackend SessionBackend

		// Signing secrets. Loaded once at process start; rotation is out of scope.
		AccessSecret  string
		RefreshSecret string
		CsrfSecret    string

		AccessTTL       time.Duration // access token lifetime (default 1h)
		RefreshTTL      time.Duration // refresh token lifetime (default 168h)
		VerificationTTL time.Duration // email verification token lifetime (default 1h)
		SessionLifetime time.Duration // server-side session TTL (default 24h)

		BcryptCost    int
		SecureCookies bool // set to false for local dev without HTTPS

		// Rate limiting for login attempts.
		MaxLoginAttempts int
		RateLimitWindow  time.Duration
		LockoutDuration  time.Duration

		// Base URL of the frontend, used for verification links.
		ClientURL string
	}
	Redis struct {
		Addr     string
		Password string
		DB       int
	}
	SMTP struct {
		Host     string
		Port     int
		Username string
		Password string
		From     string
	}
	Tasks struct {
		Enabled           bool
		Workers           int
		MaxRetries        int
		RetryDelay        time.Duration
		TaskTimeout       time.Duration
		ReleaseAfter      time.Duration
		CleanupInterval   time.Duration
		RetentionDuration time.Duration
	}
	Cleanup struct {
		Enabled  bool
		Schedule string // cron format: "0 * * * *" = hourly
	}
)

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8080)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("shutdown_timeout_in_seconds", 2)
	v.SetDefault("database_path", DefaultDatabasePath)

	// Auth defaults
	v.SetDefault("auth_strategy", "bearer")
	v.SetDefault("auth_session_backend", "memory")
	v.SetDefault("auth_access_secret", "")
	v.SetDefault("auth_refresh_secret", "")
	v.SetDefault("auth_csrf_secret", "")
	v.SetDefault("auth_access_ttl", "1h")
	v.SetDefault("auth_refresh_ttl", "168h") // 7 days
	v.SetDefault("auth_verification_ttl", "1h")
	v.SetDefault("auth_session_lifetime", "24h")
	v.SetDefault("auth_bcrypt_cost", 12)
	v.SetDefault("auth_secure_cookies", true)
	v.SetDefault("auth_max_login_attempts", 5)
	v.SetDefault("auth_rate_limit_window", "15m")
	v.SetDefault("auth_lockout_duration", "30m")
	v.SetDefault("auth_client_url", "http://localhost:3000")

	// Redis defaults (only used with the redis session backend)
	v.SetDefault("redis_addr", "127.0.0.1:6379")
	v.SetDefault("redis_password", "")
	v.SetDefault("redis_db", 0)

	// SMTP defaults (empty host disables real delivery)
	v.SetDefault("smtp_host", "")
	v.SetDefault("smtp_port", 587)
	v.SetDefault("smtp_from", "no-reply@localhost")

	// Task queue defaults
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("task_workers", 2)
	v.SetDefault("task_max_retries", 3)
	v.SetDefault("task_retry_delay", "1m")
	v.SetDefault("task_timeout", "1m")
	v.SetDefault("task_release_after", "15m")
	v.SetDefault("task_cleanup_interval", "1h")
	v.SetDefault("task_retention_duration", "24h")

	// Verification token cleanup defaults
	v.SetDefault("cleanup_enabled", true)
	v.SetDefault("cleanup_schedule", "0 * * * *")

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		Database: Database{
			Path: v.GetString("DATABASE_PATH"),
		},
		Auth: Auth{
			Strategy:         Strategy(v.GetString("AUTH_STRATEGY")),
			SessionBackend:   SessionBackend(v.GetString("AUTH_SESSION_BACKEND")),
			AccessSecret:     v.GetString("AUTH_ACCESS_SECRET"),
			RefreshSecret:    v.GetString("AUTH_REFRESH_SECRET"),
			CsrfSecret:       v.GetString("AUTH_CSRF_SECRET"),
			AccessTTL:        v.GetDuration("AUTH_ACCESS_TTL"),
			RefreshTTL:       v.GetDuration("AUTH_REFRESH_TTL"),
			VerificationTTL:  v.GetDuration("AUTH_VERIFICATION_TTL"),
			SessionLifetime:  v.GetDuration("AUTH_SESSION_LIFETIME"),
			BcryptCost:       v.GetInt("AUTH_BCRYPT_COST"),
			SecureCookies:    v.GetBool("AUTH_SECURE_COOKIES"),
			MaxLoginAttempts: v.GetInt("AUTH_MAX_LOGIN_ATTEMPTS"),
			RateLimitWindow:  v.GetDuration("AUTH_RATE_LIMIT_WINDOW"),
			LockoutDuration:  v.GetDuration("AUTH_LOCKOUT_DURATION"),
			ClientURL:        v.GetString("AUTH_CLIENT_URL"),
		},
		Redis: Redis{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		SMTP: SMTP{
			Host:     v.GetString("SMTP_HOST"),
			Port:     v.GetInt("SMTP_PORT"),
			Username: v.GetString("SMTP_USERNAME"),
			Password: v.GetString("SMTP_PASSWORD"),
			From:     v.GetString("SMTP_FROM"),
		},
		Tasks: Tasks{
			Enabled:           v.GetBool("TASKS_ENABLED"),
			Workers:           v.GetInt("TASK_WORKERS"),
			MaxRetries:        v.GetInt("TASK_MAX_RETRIES"),
			RetryDelay:        v.GetDuration("TASK_RETRY_DELAY"),
			TaskTimeout:       v.GetDuration("TASK_TIMEOUT"),
			ReleaseAfter:      v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval:   v.GetDuration("TASK_CLEANUP_INTERVAL"),
			RetentionDuration: v.GetDuration("TASK_RETENTION_DURATION"),
		},
		Cleanup: Cleanup{
			Enabled:  v.GetBool("CLEANUP_ENABLED"),
			Schedule: v.GetString("CLEANUP_SCHEDULE"),
		},
	}
}
