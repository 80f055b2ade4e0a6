package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
)

// CSRFTokenHeader is the header carrying the anti-forgery token on
// state-mutating requests.
const CSRFTokenHeader = "X-CSRF-Token"

const csrfNonceLength = 16

var ErrCsrfMismatch = errors.New("csrf token invalid or missing")

// CsrfGuard derives and validates anti-forgery tokens bound to a session
// identifier. Tokens are stateless-derivable: nonce || HMAC-SHA256(secret,
// nonce || sessionID), so validation needs no lookup table and a token dies
// with its session.
type CsrfGuard struct {
	secret []byte
}

// NewCsrfGuard creates a guard using the given server secret.
func NewCsrfGuard(secret []byte) *CsrfGuard {
	return &CsrfGuard{secret: secret}
}

// Generate derives a token bound to sessionID. Each call produces a
// different token because of the embedded nonce; all of them validate
// against the same session.
func (g *CsrfGuard) Generate(sessionID string) (string, error) {
	if sessionID == "" {
		return "", ErrCsrfMismatch
	}

	nonce := make([]byte, csrfNonceLength)
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}

	return base64.RawURLEncoding.EncodeToString(append(nonce, g.sign(nonce, sessionID)...)), nil
}

// Validate recomputes the MAC and compares in constant time. Absent,
// malformed or session-mismatched tokens all report false.
func (g *CsrfGuard) Validate(sessionID, token string) bool {
	if sessionID == "" || token == "" {
		return false
	}

	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil || len(raw) != csrfNonceLength+sha256.Size {
		return false
	}

	nonce, mac := raw[:csrfNonceLength], raw[csrfNonceLength:]
	return hmac.Equal(mac, g.sign(nonce, sessionID))
}

func (g *CsrfGuard) sign(nonce []byte, sessionID string) []byte {
	mac := hmac.New(sha256.New, g.secret)
	mac.Write(nonce)
	mac.Write([]byte(sessionID))
	return mac.Sum(nil)
}
