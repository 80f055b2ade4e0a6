package auth

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/avykov/authcore/internal/config"
	"github.com/avykov/authcore/internal/entities"
)

var ErrAuthRequired = errors.New("authentication required")

// Refresh cookie settings. The cookie is HTTP-only and scoped to the refresh
// endpoint path, so it never rides along on other requests and is invisible
// to script.
const (
	RefreshCookieName = "refresh_token"
	RefreshCookiePath = "/auth/refresh"
)

// Identity is the resolved principal attached to the request context by the
// guard middleware.
type Identity struct {
	UserID uint
	Email  string
}

// LoginResult carries the artifacts handed to the client after login or
// registration. Which fields are set depends on the active strategy.
type LoginResult struct {
	AccessToken string
	CsrfToken   string
}

// Strategy establishes, resolves and tears down authenticated state for one
// deployment mode. Exactly one strategy is active per deployment and applies
// uniformly to all protected routes.
type Strategy interface {
	Name() config.Strategy

	// Establish sets up post-auth state after credential verification.
	Establish(c *gin.Context, user *entities.User) (*LoginResult, error)

	// Identify resolves the request's identity without mutating anything.
	Identify(c *gin.Context) (*Identity, error)

	// Authorize runs the strategy's anti-forgery check for state-mutating
	// requests. Identify must have succeeded first.
	Authorize(c *gin.Context) error

	// Logout tears down whatever state Establish created.
	Logout(c *gin.Context) error
}

// BearerTokenStrategy carries identity in a stateless signed access token and
// a path-scoped refresh cookie.
type BearerTokenStrategy struct {
	issuer        *TokenIssuer
	refreshTTL    time.Duration
	secureCookies bool
}

// NewBearerTokenStrategy creates the bearer-token strategy.
func NewBearerTokenStrategy(issuer *TokenIssuer, cfg config.Auth) *BearerTokenStrategy {
	return &BearerTokenStrategy{
		issuer:        issuer,
		refreshTTL:    cfg.RefreshTTL,
		secureCookies: cfg.SecureCookies,
	}
}

func (s *BearerTokenStrategy) Name() config.Strategy { return config.StrategyBearer }

func (s *BearerTokenStrategy) Establish(c *gin.Context, user *entities.User) (*LoginResult, error) {
	access, err := s.issuer.IssueAccess(user.ID, user.Email)
	if err != nil {
		return nil, err
	}
	refresh, err := s.issuer.IssueRefresh(user.ID, user.Email)
	if err != nil {
		return nil, err
	}

	http.SetCookie(c.Writer, &http.Cookie{
		Name:     RefreshCookieName,
		Value:    refresh,
		Path:     RefreshCookiePath,
		MaxAge:   int(s.refreshTTL.Seconds()),
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteStrictMode,
	})

	return &LoginResult{AccessToken: access}, nil
}

func (s *BearerTokenStrategy) Identify(c *gin.Context) (*Identity, error) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return nil, ErrAuthRequired
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return nil, ErrAuthRequired
	}

	claims, err := s.issuer.Verify(parts[1], PurposeAccess)
	if err != nil {
		return nil, err
	}

	return &Identity{UserID: claims.UserID, Email: claims.Email}, nil
}

// Authorize is a no-op: bearer tokens are not sent automatically by
// browsers, so cross-site forgery does not apply.
func (s *BearerTokenStrategy) Authorize(*gin.Context) error { return nil }

// Logout clears the refresh cookie. Already-issued access tokens stay valid
// until expiry; the short ttl bounds the blast radius.
func (s *BearerTokenStrategy) Logout(c *gin.Context) error {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     RefreshCookieName,
		Value:    "",
		Path:     RefreshCookiePath,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteStrictMode,
	})
	return nil
}

// SessionCsrfStrategy carries identity in a server-side session referenced by
// an opaque cookie, with an HMAC anti-forgery token for mutating requests.
type SessionCsrfStrategy struct {
	sessions *SessionManager
	csrf     *CsrfGuard
}

// NewSessionCsrfStrategy creates the session strategy.
func NewSessionCsrfStrategy(sessions *SessionManager, csrf *CsrfGuard) *SessionCsrfStrategy {
	return &SessionCsrfStrategy{sessions: sessions, csrf: csrf}
}

func (s *SessionCsrfStrategy) Name() config.Strategy { return config.StrategySession }

func (s *SessionCsrfStrategy) Establish(c *gin.Context, user *entities.User) (*LoginResult, error) {
	if err := s.sessions.CreateSession(c.Request, user); err != nil {
		return nil, err
	}

	csrfToken, err := s.csrf.Generate(s.sessions.SessionID(c.Request))
	if err != nil {
		return nil, err
	}

	return &LoginResult{CsrfToken: csrfToken}, nil
}

func (s *SessionCsrfStrategy) Identify(c *gin.Context) (*Identity, error) {
	data := s.sessions.GetSessionData(c.Request)
	if data == nil {
		return nil, ErrAuthRequired
	}
	return &Identity{UserID: data.UserID, Email: data.Email}, nil
}

// Authorize validates the CSRF header against the current session. Failure
// is a distinct 403 at the edge, never a 401.
func (s *SessionCsrfStrategy) Authorize(c *gin.Context) error {
	sessionID := s.sessions.SessionID(c.Request)
	if !s.csrf.Validate(sessionID, c.GetHeader(CSRFTokenHeader)) {
		return ErrCsrfMismatch
	}
	return nil
}

// IssueCsrfToken derives a fresh anti-forgery token for the request's
// session. Used by the csrf-token endpoint.
func (s *SessionCsrfStrategy) IssueCsrfToken(c *gin.Context) (string, error) {
	return s.csrf.Generate(s.sessions.SessionID(c.Request))
}

// Logout destroys the server-side session; the bound CSRF token dies with it.
func (s *SessionCsrfStrategy) Logout(c *gin.Context) error {
	return s.sessions.DestroySession(c.Request)
}
