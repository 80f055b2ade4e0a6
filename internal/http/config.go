package http

import (
	"github.com/avykov/authcore/internal/auth"
	"github.com/avykov/authcore/internal/config"
	"github.com/avykov/authcore/internal/database"
)

// RouterConfig contains all dependencies and configuration needed to create
// the HTTP router. This replaces a long parameter list in NewRouter.
type RouterConfig struct {
	// Database is used by the health endpoint's connectivity check.
	Database *database.Database

	// AuthService handles register, login, refresh and verification flows.
	AuthService *auth.Service

	// Strategy is the active authentication strategy.
	Strategy auth.Strategy

	// SessionManager is set only under the session strategy; it wires the
	// session load/save middleware into the request cycle.
	SessionManager *auth.SessionManager

	// AuthConfig carries strategy selection and cookie settings.
	AuthConfig config.Auth

	// Version is reported by the health endpoint.
	Version string
}
