package auth

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/avykov/authcore/internal/config"
)

var (
	ErrTokenInvalid = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// TokenPurpose scopes a signed token to a single use. A verification token
// presented as an access token fails verification even though the claim
// shapes match.
type TokenPurpose string

const (
	PurposeAccess      TokenPurpose = "access"
	PurposeRefresh     TokenPurpose = "refresh"
	PurposeVerifyEmail TokenPurpose = "verify_email"
)

// Claims is the minimal claim set carried by every token.
type Claims struct {
	UserID  uint         `json:"uid"`
	Email   string       `json:"email"`
	Purpose TokenPurpose `json:"purpose"`
	jwt.RegisteredClaims
}

// TokenIssuer creates and verifies signed, time-bounded tokens.
// Access and verification tokens share the access secret; refresh tokens are
// signed with a separate secret so a leaked access key cannot mint refreshes.
type TokenIssuer struct {
	accessSecret  []byte
	refreshSecret []byte

	accessTTL       time.Duration
	refreshTTL      time.Duration
	verificationTTL time.Duration
}

// NewTokenIssuer creates an issuer from the auth configuration.
func NewTokenIssuer(cfg config.Auth) *TokenIssuer {
	return &TokenIssuer{
		accessSecret:    []byte(cfg.AccessSecret),
		refreshSecret:   []byte(cfg.RefreshSecret),
		accessTTL:       cfg.AccessTTL,
		refreshTTL:      cfg.RefreshTTL,
		verificationTTL: cfg.VerificationTTL,
	}
}

// Issue signs a token for the given subject with an explicit ttl.
// expiresAt = now + ttl; a ttl of zero produces an already-expired token.
func (i *TokenIssuer) Issue(userID uint, email string, purpose TokenPurpose, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:  userID,
		Email:   email,
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(userID), 10),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(i.secretFor(purpose))
}

// IssueAccess signs a short-lived access token.
func (i *TokenIssuer) IssueAccess(userID uint, email string) (string, error) {
	return i.Issue(userID, email, PurposeAccess, i.accessTTL)
}

// IssueRefresh signs a longer-lived refresh token. Issuing one never
// invalidates outstanding access tokens.
func (i *TokenIssuer) IssueRefresh(userID uint, email string) (string, error) {
	return i.Issue(userID, email, PurposeRefresh, i.refreshTTL)
}

// IssueVerification signs a one-hour email verification token.
func (i *TokenIssuer) IssueVerification(userID uint, email string) (string, error) {
	return i.Issue(userID, email, PurposeVerifyEmail, i.verificationTTL)
}

// Verify checks signature and expiry and returns the claims.
// Returns ErrTokenExpired for elapsed ttl, ErrTokenInvalid for everything
// else (bad signature, wrong purpose, malformed input). Callers surface both
// identically as unauthorized.
func (i *TokenIssuer) Verify(tokenString string, purpose TokenPurpose) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, ErrTokenInvalid
			}
			return i.secretFor(purpose), nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	if !token.Valid || claims.Purpose != purpose {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

func (i *TokenIssuer) secretFor(purpose TokenPurpose) []byte {
	if purpose == PurposeRefresh {
		return i.refreshSecret
	}
	return i.accessSecret
}
