// Package users is the credential store gateway: user lookup and persistence
// for the authentication core.
//
// # Usage
//
//	repo := users.NewRepository(db)
//	user, err := repo.FindByEmail("a@b.com")
package users

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"
	"gorm.io/gorm"

	"github.com/avykov/authcore/internal/entities"
)

// ErrDuplicateEmail is returned by Create when the email unique index is violated.
var ErrDuplicateEmail = errors.New("email already registered")

// Repository handles all user database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new users repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindByEmail retrieves a user by email, case-insensitively.
// Returns (nil, nil) when no user exists; an error only on store failure.
func (r *Repository) FindByEmail(email string) (*entities.User, error) {
	var user entities.User
	err := r.db.Where("email = ?", strings.ToLower(email)).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}
	return &user, nil
}

// GetByID retrieves a user by ID. Returns (nil, nil) when no user exists.
func (r *Repository) GetByID(id uint) (*entities.User, error) {
	var user entities.User
	err := r.db.First(&user, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find user by id: %w", err)
	}
	return &user, nil
}

// Create persists a new user. The email must already be normalized to
// lowercase by the caller. Returns ErrDuplicateEmail when the unique index
// rejects the insert, so concurrent registrations of the same address
// resolve to exactly one winner.
func (r *Repository) Create(user *entities.User) error {
	if err := r.db.Create(user).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// MarkEmailVerified flips the verification flag and clears the one-time token.
func (r *Repository) MarkEmailVerified(userID uint) error {
	result := r.db.Model(&entities.User{}).Where("id = ?", userID).Updates(map[string]any{
		"email_verified":      true,
		"verification_token":  "",
		"verification_expiry": nil,
	})
	if result.Error != nil {
		return fmt.Errorf("failed to mark email verified: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteExpiredVerificationTokens clears verification tokens whose expiry has
// passed for users that never confirmed their address. Returns the number of
// affected rows.
func (r *Repository) DeleteExpiredVerificationTokens(now time.Time) (int64, error) {
	result := r.db.Model(&entities.User{}).
		Where("email_verified = ? AND verification_expiry IS NOT NULL AND verification_expiry < ?", false, now).
		Updates(map[string]any{
			"verification_token":  "",
			"verification_expiry": nil,
		})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to clear expired verification tokens: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// isUniqueViolation reports whether err is a SQLite unique-constraint failure.
func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	// gorm wraps driver errors; fall back to a string check for the
	// pure-Go test path.
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
