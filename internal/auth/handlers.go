package auth

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/avykov/authcore/internal/config"
)

type registerRequest struct {
	FirstName string `json:"first_name" binding:"required"`
	LastName  string `json:"last_name"`
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=6"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// AuthController handles the authentication HTTP endpoints.
type AuthController struct {
	service     *Service
	strategy    Strategy
	rateLimiter *RateLimiter
}

// NewAuthController creates a new authentication controller.
func NewAuthController(service *Service, strategy Strategy, cfg config.Auth) *AuthController {
	rateLimiter := NewRateLimiter(RateLimitConfig{
		MaxAttempts:     cfg.MaxLoginAttempts,
		WindowDuration:  cfg.RateLimitWindow,
		LockoutDuration: cfg.LockoutDuration,
	})

	return &AuthController{
		service:     service,
		strategy:    strategy,
		rateLimiter: rateLimiter,
	}
}

// RegisterRoutes registers authentication routes on the router. The refresh
// endpoint exists only under the bearer strategy, the csrf-token endpoint
// only under the session strategy.
func (ac *AuthController) RegisterRoutes(router *gin.Engine) {
	grp := router.Group("/auth")
	grp.POST("/register", ac.Register)
	grp.POST("/login", ac.Login)
	grp.POST("/logout", ac.Logout)
	grp.GET("/verify-email", ac.VerifyEmail)
	grp.GET("/me", ac.Me)

	switch ac.strategy.Name() {
	case config.StrategyBearer:
		grp.POST("/refresh", ac.Refresh)
	case config.StrategySession:
		grp.GET("/csrf-token", ac.CsrfToken)
	}
}

// Stop cleans up resources (rate limiter background goroutine).
func (ac *AuthController) Stop() {
	if ac.rateLimiter != nil {
		ac.rateLimiter.Stop()
	}
}

// Register handles POST /auth/register.
func (ac *AuthController) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": bindingErrorMessage(err)})
		return
	}

	user, err := ac.service.Register(c.Request.Context(), RegisterInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrUserExists):
			c.JSON(http.StatusBadRequest, gin.H{"message": "User already exists"})
		case IsValidationError(err):
			c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		default:
			ac.internalError(c, "register", err)
		}
		return
	}

	result, err := ac.strategy.Establish(c, user)
	if err != nil {
		ac.internalError(c, "register", err)
		return
	}

	c.JSON(http.StatusCreated, loginResponse("User created successfully. Please verify your email.", result))
}

// Login handles POST /auth/login.
func (ac *AuthController) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": bindingErrorMessage(err)})
		return
	}

	clientIP := c.ClientIP()
	if allowed, retryAfter := ac.rateLimiter.Allow(clientIP, req.Email); !allowed {
		c.Header("Retry-After", retryAfter.String())
		c.JSON(http.StatusTooManyRequests, gin.H{"message": "Too many login attempts. Please try again later."})
		return
	}

	user, err := ac.service.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			ac.rateLimiter.RecordFailure(clientIP, req.Email)
			// Same answer whether the email or the password was wrong
			c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid email or password"})
			return
		}
		ac.internalError(c, "login", err)
		return
	}

	ac.rateLimiter.RecordSuccess(clientIP, req.Email)

	result, err := ac.strategy.Establish(c, user)
	if err != nil {
		ac.internalError(c, "login", err)
		return
	}

	c.JSON(http.StatusOK, loginResponse("Login successful", result))
}

// Logout handles POST /auth/logout. The guard has already resolved identity
// and, under the session strategy, validated the CSRF token.
func (ac *AuthController) Logout(c *gin.Context) {
	if err := ac.strategy.Logout(c); err != nil {
		ac.internalError(c, "logout", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

// Refresh handles POST /auth/refresh (bearer strategy only). It
// authenticates via the path-scoped refresh cookie and returns a new access
// token; the refresh token is not rotated.
func (ac *AuthController) Refresh(c *gin.Context) {
	refreshToken, err := c.Cookie(RefreshCookieName)
	if err != nil || refreshToken == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid refresh token"})
		return
	}

	access, err := ac.service.Refresh(c.Request.Context(), refreshToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid refresh token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Token refreshed successfully",
		"token":   access,
	})
}

// CsrfToken handles GET /auth/csrf-token (session strategy only). The guard
// guarantees a live session; GET is exempt from the CSRF check itself.
func (ac *AuthController) CsrfToken(c *gin.Context) {
	sessionStrategy, ok := ac.strategy.(*SessionCsrfStrategy)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"message": "Not found"})
		return
	}

	token, err := sessionStrategy.IssueCsrfToken(c)
	if err != nil {
		ac.internalError(c, "csrf-token", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"csrf_token": token})
}

// VerifyEmail handles GET /auth/verify-email?token=...
func (ac *AuthController) VerifyEmail(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Verification token is required"})
		return
	}

	if _, err := ac.service.VerifyEmail(c.Request.Context(), token); err != nil {
		if errors.Is(err, ErrTokenInvalid) || errors.Is(err, ErrTokenExpired) {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid or expired verification token"})
			return
		}
		ac.internalError(c, "verify-email", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Email verified successfully"})
}

// Me handles GET /auth/me, the protected identity probe.
func (ac *AuthController) Me(c *gin.Context) {
	identity := IdentityFrom(c)
	if identity == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":    identity.UserID,
		"email": identity.Email,
	})
}

// internalError logs full detail server-side and answers with a generic
// message. No internal error detail reaches the client.
func (ac *AuthController) internalError(c *gin.Context, op string, err error) {
	log.Error().Err(err).Str("op", op).Msg("auth operation failed")
	c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
}

// loginResponse shapes the post-auth response for either strategy.
func loginResponse(message string, result *LoginResult) gin.H {
	resp := gin.H{"message": message}
	if result.AccessToken != "" {
		resp["token"] = result.AccessToken
	}
	if result.CsrfToken != "" {
		resp["csrf_token"] = result.CsrfToken
	}
	return resp
}

// bindingErrorMessage maps gin binding failures to a client-safe message.
func bindingErrorMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		switch fe.Tag() {
		case "required":
			return fe.Field() + " is required"
		case "email":
			return "invalid email format"
		case "min":
			return fe.Field() + " must be at least " + fe.Param() + " characters"
		}
		return fe.Field() + " is invalid"
	}
	return "invalid request body"
}
