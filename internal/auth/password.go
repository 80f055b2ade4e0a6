package auth

import (
	"context"
	"errors"
	"runtime"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"
)

// MinPasswordLength is the minimum accepted password length.
const MinPasswordLength = 6

// bcrypt rejects inputs longer than 72 bytes.
const maxPasswordLength = 72

var (
	ErrPasswordTooShort = errors.New("password must be at least 6 characters")
	ErrPasswordTooLong  = errors.New("password exceeds maximum length of 72 bytes")
	ErrHasherBusy       = errors.New("too many concurrent hashing operations")
)

// timingDummyHash is a valid bcrypt hash of a throwaway value. Login runs a
// comparison against it when the email is unknown, so the missing-user and
// wrong-password paths take the same time.
const timingDummyHash = "$2a$12$R9h/cIPz0gi.URNNX3kh2OPST9/PgBkqquzi.Ss7KIUgO2t0jWMUW"

// PasswordHasher produces and verifies bcrypt hashes. Hashing is CPU-bound,
// so concurrent operations are bounded by a semaphore: under credential-
// stuffing load the hasher rejects rather than piling up goroutines.
type PasswordHasher struct {
	cost int
	sem  *semaphore.Weighted
}

// NewPasswordHasher creates a hasher with the given bcrypt cost.
// Out-of-range costs fall back to 12.
func NewPasswordHasher(cost int) *PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = 12
	}
	return &PasswordHasher{
		cost: cost,
		sem:  semaphore.NewWeighted(int64(2 * runtime.GOMAXPROCS(0))),
	}
}

// Hash creates a bcrypt hash of the password. The output embeds algorithm,
// cost and salt, so no parameters need to be stored alongside it.
func (h *PasswordHasher) Hash(ctx context.Context, password string) (string, error) {
	if len(password) < MinPasswordLength {
		return "", ErrPasswordTooShort
	}
	if len(password) > maxPasswordLength {
		return "", ErrPasswordTooLong
	}

	if err := h.sem.Acquire(ctx, 1); err != nil {
		return "", ErrHasherBusy
	}
	defer h.sem.Release(1)

	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Verify recomputes the hash using the parameters embedded in it and compares
// in constant time. Malformed hashes and mismatches both report false; a
// request cancelled while waiting for a hashing slot also reports false
// (fail closed).
func (h *PasswordHasher) Verify(ctx context.Context, hash, password string) bool {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return false
	}
	defer h.sem.Release(1)

	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// CompareDummy burns the same work as a real verification without revealing
// anything. Used to keep login timing uniform when the user does not exist.
func (h *PasswordHasher) CompareDummy(ctx context.Context, password string) {
	h.Verify(ctx, timingDummyHash, password)
}
