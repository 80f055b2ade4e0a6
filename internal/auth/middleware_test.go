package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/avykov/authcore/internal/config"
	"github.com/avykov/authcore/internal/entities"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// stubStrategy lets tests drive the guard's branches directly.
type stubStrategy struct {
	identity     *Identity
	identifyErr  error
	authorizeErr error
}

func (s *stubStrategy) Name() config.Strategy { return "stub" }

func (s *stubStrategy) Establish(*gin.Context, *entities.User) (*LoginResult, error) {
	return nil, nil
}

func (s *stubStrategy) Identify(*gin.Context) (*Identity, error) {
	return s.identity, s.identifyErr
}

func (s *stubStrategy) Authorize(*gin.Context) error { return s.authorizeErr }

func (s *stubStrategy) Logout(*gin.Context) error { return nil }

func guardRouter(strategy Strategy) *gin.Engine {
	router := gin.New()
	router.Use(NewMiddleware(strategy).Handler())
	router.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/protected", func(c *gin.Context) {
		identity := IdentityFrom(c)
		if identity == nil {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": identity.UserID})
	})
	router.POST("/protected", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.POST("/auth/login", func(c *gin.Context) { c.Status(http.StatusOK) })
	return router
}

func TestMiddleware_PublicPaths(t *testing.T) {
	// Identify always fails, yet public paths must pass
	router := guardRouter(&stubStrategy{identifyErr: ErrAuthRequired})

	for _, path := range []string{"/health", "/auth/login"} {
		method := http.MethodGet
		if path == "/auth/login" {
			method = http.MethodPost
		}
		req := httptest.NewRequest(method, path, nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Errorf("%s %s: status = %d, want 200", method, path, rr.Code)
		}
	}
}

func TestMiddleware_UnauthenticatedGets401(t *testing.T) {
	router := guardRouter(&stubStrategy{identifyErr: ErrAuthRequired})

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rr.Code)
	}
}

func TestMiddleware_AuthenticatedPasses(t *testing.T) {
	router := guardRouter(&stubStrategy{identity: &Identity{UserID: 7, Email: "a@b.com"}})

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rr.Code)
	}
}

func TestMiddleware_MutatingRequestRunsAuthorize(t *testing.T) {
	// Identity resolves but the anti-forgery check fails: 403, not 401
	router := guardRouter(&stubStrategy{
		identity:     &Identity{UserID: 7},
		authorizeErr: ErrCsrfMismatch,
	})

	req := httptest.NewRequest(http.MethodPost, "/protected", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rr.Code)
	}
}

func TestMiddleware_ReadRequestSkipsAuthorize(t *testing.T) {
	// Authorize would fail, but GET never invokes it
	router := guardRouter(&stubStrategy{
		identity:     &Identity{UserID: 7},
		authorizeErr: ErrCsrfMismatch,
	})

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rr.Code)
	}
}

func TestMiddleware_BearerStrategy(t *testing.T) {
	issuer := testIssuer()
	strategy := NewBearerTokenStrategy(issuer, config.Auth{RefreshTTL: time.Hour})
	router := guardRouter(strategy)

	token, err := issuer.IssueAccess(42, "user@example.com")
	if err != nil {
		t.Fatalf("IssueAccess() error = %v", err)
	}
	refresh, err := issuer.IssueRefresh(42, "user@example.com")
	if err != nil {
		t.Fatalf("IssueRefresh() error = %v", err)
	}
	expired, err := issuer.Issue(42, "user@example.com", PurposeAccess, -time.Minute)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	tests := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{
			name:       "valid token",
			header:     "Bearer " + token,
			wantStatus: http.StatusOK,
		},
		{
			name:       "case-insensitive scheme",
			header:     "bearer " + token,
			wantStatus: http.StatusOK,
		},
		{
			name:       "missing header",
			header:     "",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "wrong scheme",
			header:     "Basic " + token,
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "garbage token",
			header:     "Bearer garbage",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "expired token",
			header:     "Bearer " + expired,
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "refresh token in auth header",
			header:     "Bearer " + refresh,
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)

			if rr.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rr.Code, tt.wantStatus)
			}
		})
	}
}

func TestIdentityFrom_Unset(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	if IdentityFrom(c) != nil {
		t.Error("IdentityFrom() on fresh context should be nil")
	}
}
