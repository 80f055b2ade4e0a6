// Package auth implements credential verification and the two request
// authentication strategies.
//
// It supports two strategies, selected at startup:
//   - "bearer": stateless signed access tokens in the Authorization header,
//     plus a path-scoped refresh cookie
//   - "session": server-side sessions referenced by an opaque cookie, with
//     an HMAC anti-forgery token on mutating requests
//
// # Configuration
//
// Set AUTH_STRATEGY environment variable to select the strategy:
//
//	AUTH_STRATEGY=bearer   # Default
//	AUTH_STRATEGY=session
//
// Common configuration:
//
//	AUTH_ACCESS_SECRET=<secret>       # Access/verification token signing key
//	AUTH_REFRESH_SECRET=<secret>      # Refresh token signing key
//	AUTH_ACCESS_TTL=1h
//	AUTH_REFRESH_TTL=168h
//	AUTH_BCRYPT_COST=12
//	AUTH_SECURE_COOKIES=true          # HTTPS-only cookies
//
// Session strategy only:
//
//	AUTH_SESSION_BACKEND=memory       # memory, sqlite or redis
//	AUTH_SESSION_LIFETIME=24h
//	AUTH_CSRF_SECRET=<secret>
//
// # Usage
//
// Initialize in entrypoint:
//
//	service := auth.NewService(userRepo, hasher, issuer, notifier, cfg.Auth)
//	strategy := auth.NewBearerTokenStrategy(issuer, cfg.Auth)
//	guard := auth.NewMiddleware(strategy)
//	router.Use(guard.Handler())
//
// Extract the caller in handlers:
//
//	identity := auth.IdentityFrom(c)  // nil for unauthenticated requests
package auth
