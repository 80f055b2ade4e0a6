package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ContextKeyIdentity is the gin context key holding the resolved *Identity.
const ContextKeyIdentity = "auth_identity"

// mutating methods require the strategy's anti-forgery check
var mutatingMethods = map[string]bool{
	http.MethodPost:   true,
	http.MethodPut:    true,
	http.MethodPatch:  true,
	http.MethodDelete: true,
}

// Middleware is the per-request gate. It resolves the request's identity via
// the active strategy before handler execution and short-circuits with 401
// on failure (403 for anti-forgery failures). It never mutates auth state.
type Middleware struct {
	strategy    Strategy
	publicPaths map[string]bool
}

// NewMiddleware creates the guard for the active strategy.
func NewMiddleware(strategy Strategy) *Middleware {
	// Paths reachable without a resolved identity. The refresh endpoint
	// authenticates with its own cookie, verify-email with its token.
	publicPaths := map[string]bool{
		"/health":            true,
		"/auth/login":        true,
		"/auth/register":     true,
		"/auth/refresh":      true,
		"/auth/verify-email": true,
	}

	return &Middleware{
		strategy:    strategy,
		publicPaths: publicPaths,
	}
}

// Handler returns a Gin middleware that authenticates requests.
func (m *Middleware) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m.publicPaths[c.Request.URL.Path] {
			c.Next()
			return
		}

		identity, err := m.strategy.Identify(c)
		if err != nil {
			// All identity failures collapse to one answer; the cause
			// stays server-side.
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"message": "Unauthorized",
			})
			return
		}

		if mutatingMethods[c.Request.Method] {
			if err := m.strategy.Authorize(c); err != nil {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
					"message": "CSRF token invalid or missing",
				})
				return
			}
		}

		c.Set(ContextKeyIdentity, identity)
		c.Next()
	}
}

// IdentityFrom retrieves the resolved identity from the Gin context, or nil
// for unauthenticated requests.
func IdentityFrom(c *gin.Context) *Identity {
	if v, exists := c.Get(ContextKeyIdentity); exists {
		if identity, ok := v.(*Identity); ok {
			return identity
		}
	}
	return nil
}
