package auth

import (
	"database/sql"
	"encoding/gob"
	"errors"
	"net/http"
	"time"

	"github.com/alexedwards/scs/goredisstore"
	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
	"github.com/redis/go-redis/v9"

	"github.com/avykov/authcore/internal/config"
	"github.com/avykov/authcore/internal/entities"
)

// Session data keys
const (
	SessionKeyUserID  = "user_id"
	SessionKeyEmail   = "email"
	SessionKeyLoginAt = "login_at"
)

func init() {
	// Register types that will be stored in sessions
	gob.Register(time.Time{})
}

// SessionManager wraps scs.SessionManager with application-specific methods.
// Session identifiers are opaque random tokens generated by scs; a fresh one
// is issued on every login so an id never survives a destroy/recreate cycle.
type SessionManager struct {
	*scs.SessionManager
}

// NewSessionManager creates a configured session manager. The store backend
// comes from config: memory for dev/tests, sqlite for single-instance
// deployments sharing the app database, redis for a shared cache across
// instances. sqlDB and redisClient may be nil when the matching backend is
// not selected.
func NewSessionManager(cfg config.Auth, sqlDB *sql.DB, redisClient *redis.Client) (*SessionManager, error) {
	sm := scs.New()

	switch cfg.SessionBackend {
	case config.SessionBackendSQLite:
		if sqlDB == nil {
			return nil, errors.New("sqlite session backend requires a database handle")
		}
		_, err := sqlDB.Exec(`CREATE TABLE IF NOT EXISTS sessions (
			token TEXT PRIMARY KEY,
			data BLOB NOT NULL,
			expiry REAL NOT NULL
		);
		CREATE INDEX IF NOT EXISTS sessions_expiry_idx ON sessions(expiry);`)
		if err != nil {
			return nil, err
		}
		sm.Store = sqlite3store.New(sqlDB)
	case config.SessionBackendRedis:
		if redisClient == nil {
			return nil, errors.New("redis session backend requires a redis client")
		}
		sm.Store = goredisstore.New(redisClient)
	case config.SessionBackendMemory, "":
		// scs defaults to an in-memory store
	default:
		return nil, errors.New("unknown session backend: " + string(cfg.SessionBackend))
	}

	// Lifetime is the hard cap; IdleTimeout gives sliding expiration, so a
	// session in active use stays alive up to Lifetime.
	sm.Lifetime = cfg.SessionLifetime
	sm.IdleTimeout = cfg.SessionLifetime / 2

	// Cookie security
	sm.Cookie.Name = "session"
	sm.Cookie.HttpOnly = true
	sm.Cookie.Secure = cfg.SecureCookies
	sm.Cookie.SameSite = http.SameSiteStrictMode
	sm.Cookie.Path = "/"

	return &SessionManager{SessionManager: sm}, nil
}

// CreateSession establishes a session for a user after password verification.
// The token is renewed first to prevent session fixation.
func (sm *SessionManager) CreateSession(r *http.Request, user *entities.User) error {
	if err := sm.RenewToken(r.Context()); err != nil {
		return err
	}

	summary := user.Summary()
	sm.Put(r.Context(), SessionKeyUserID, int(summary.ID))
	sm.Put(r.Context(), SessionKeyEmail, summary.Email)
	sm.Put(r.Context(), SessionKeyLoginAt, time.Now())

	return nil
}

// DestroySession removes all session data and invalidates the session.
// A subsequent load of the same identifier resolves to nothing, and any CSRF
// token bound to it stops validating.
func (sm *SessionManager) DestroySession(r *http.Request) error {
	return sm.Destroy(r.Context())
}

// SessionID returns the opaque identifier of the current session, or ""
// when the request carries no live session.
func (sm *SessionManager) SessionID(r *http.Request) string {
	if !sm.IsAuthenticated(r) {
		return ""
	}
	return sm.Token(r.Context())
}

// GetUserID retrieves the user ID from the session. Returns 0 if not
// authenticated.
func (sm *SessionManager) GetUserID(r *http.Request) uint {
	return uint(sm.GetInt(r.Context(), SessionKeyUserID))
}

// GetEmail retrieves the email from the session.
func (sm *SessionManager) GetEmail(r *http.Request) string {
	return sm.GetString(r.Context(), SessionKeyEmail)
}

// IsAuthenticated returns true if the request has a valid session.
func (sm *SessionManager) IsAuthenticated(r *http.Request) bool {
	return sm.GetUserID(r) != 0
}

// SessionData holds the session information for a request.
type SessionData struct {
	UserID  uint
	Email   string
	LoginAt time.Time
}

// GetSessionData retrieves all session data at once.
func (sm *SessionManager) GetSessionData(r *http.Request) *SessionData {
	userID := sm.GetUserID(r)
	if userID == 0 {
		return nil
	}

	loginAt, _ := sm.Get(r.Context(), SessionKeyLoginAt).(time.Time)

	return &SessionData{
		UserID:  userID,
		Email:   sm.GetEmail(r),
		LoginAt: loginAt,
	}
}
