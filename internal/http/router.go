// Package http assembles the Gin router and its endpoint controllers.
package http

import (
	"github.com/gin-gonic/gin"

	"github.com/avykov/authcore/internal/auth"
)

// NewRouter creates and configures the HTTP router with all endpoints.
// Middleware order matters: sessions must be loaded before the guard can
// resolve identity from them.
func NewRouter(cfg RouterConfig) (*gin.Engine, *auth.AuthController) {
	router := gin.New()
	router.Use(RequestLogger())
	router.Use(gin.Recovery())

	// Apply security headers to all responses
	router.Use(auth.SecurityHeadersMiddleware())

	// Session load/save wraps the whole request cycle under the session
	// strategy so handlers can read and mutate session state.
	if cfg.SessionManager != nil {
		router.Use(cfg.SessionManager.SessionLoadSave())
	}

	// The guard resolves identity for every non-public route and enforces
	// the anti-forgery check on mutating requests.
	guard := auth.NewMiddleware(cfg.Strategy)
	router.Use(guard.Handler())

	health := NewHealthController(cfg.Database, cfg.Version)
	router.GET("/health", health.Status)

	authController := auth.NewAuthController(cfg.AuthService, cfg.Strategy, cfg.AuthConfig)
	authController.RegisterRoutes(router)

	return router, authController
}
