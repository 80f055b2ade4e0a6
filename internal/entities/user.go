package entities

import (
	"time"

	"gorm.io/gorm"
)

// User is the identity record owned by the credential store.
// The email is unique and stored lowercased; the password hash is opaque
// to everything except the auth package.
type User struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	Email        string `gorm:"uniqueIndex;size:255" json:"email"`
	PasswordHash string `gorm:"size:255" json:"-"`
	FirstName    string `gorm:"size:100" json:"first_name"`
	LastName     string `gorm:"size:100" json:"last_name,omitempty"`

	// Email verification state. The token is a signed one-time artifact;
	// it is cleared once the address is confirmed.
	EmailVerified      bool       `json:"email_verified"`
	VerificationToken  string     `gorm:"size:512" json:"-"`
	VerificationExpiry *time.Time `json:"-"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string {
	return "users"
}

// UserSummary is the minimal projection of a user that is safe to keep in
// server-side session state and token claims.
type UserSummary struct {
	ID    uint   `json:"id"`
	Email string `json:"email"`
}

// Summary returns the session-safe projection of the user.
func (u *User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Email: u.Email}
}
