package auth

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/avykov/authcore/internal/config"
	"github.com/avykov/authcore/internal/database/users"
	"github.com/avykov/authcore/internal/entities"
)

// emailPattern is deliberately loose; the unique index is the real arbiter.
var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

var (
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrFirstNameRequired  = errors.New("first name is required")
	ErrEmailRequired      = errors.New("email is required")
	ErrEmailInvalid       = errors.New("invalid email format")
	ErrPasswordRequired   = errors.New("password is required")
)

// IsValidationError reports whether err stems from malformed registration
// input, as opposed to a store or crypto failure.
func IsValidationError(err error) bool {
	for _, target := range []error{
		ErrFirstNameRequired, ErrEmailRequired, ErrEmailInvalid,
		ErrPasswordRequired, ErrPasswordTooShort, ErrPasswordTooLong,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// Notifier is the fire-and-forget notification collaborator. A delivery
// failure is logged and never blocks or fails the registration response.
type Notifier interface {
	SendVerificationEmail(ctx context.Context, to, firstName, token string) error
}

// RegisterInput is the validated shape of a registration request.
type RegisterInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
}

// Service is the authentication orchestrator: it coordinates the credential
// store, password hasher and token issuer through the register, login,
// refresh and verification flows. Post-auth state (tokens or sessions) is the
// strategy's concern, not the service's.
type Service struct {
	users    *users.Repository
	hasher   *PasswordHasher
	issuer   *TokenIssuer
	notifier Notifier // may be nil
	config   config.Auth
}

// NewService creates a new authentication service. notifier may be nil, in
// which case no verification email is sent.
func NewService(repo *users.Repository, hasher *PasswordHasher, issuer *TokenIssuer, notifier Notifier, cfg config.Auth) *Service {
	return &Service{
		users:    repo,
		hasher:   hasher,
		issuer:   issuer,
		notifier: notifier,
		config:   cfg,
	}
}

// Register validates input, persists a new user with a hashed password and
// hands a verification token to the notifier. The duplicate-email case
// reports distinctly as ErrUserExists; this is an intentional exception to
// the generic-failure stance.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*entities.User, error) {
	if strings.TrimSpace(in.FirstName) == "" {
		return nil, ErrFirstNameRequired
	}
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" {
		return nil, ErrEmailRequired
	}
	// RFC 5321 limits addresses to 254 octets
	if len(email) > 254 || !emailPattern.MatchString(email) {
		return nil, ErrEmailInvalid
	}
	if in.Password == "" {
		return nil, ErrPasswordRequired
	}

	existing, err := s.users.FindByEmail(email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if existing != nil {
		return nil, ErrUserExists
	}

	passwordHash, err := s.hasher.Hash(ctx, in.Password)
	if err != nil {
		return nil, err
	}

	user := &entities.User{
		Email:        email,
		PasswordHash: passwordHash,
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
	}

	verification, err := s.issuer.IssueVerification(0, email)
	if err == nil {
		expiry := time.Now().Add(s.config.VerificationTTL)
		user.VerificationToken = verification
		user.VerificationExpiry = &expiry
	} else {
		log.Error().Err(err).Msg("failed to issue verification token")
	}

	if err := s.users.Create(user); err != nil {
		if errors.Is(err, users.ErrDuplicateEmail) {
			// Another request won the race on the unique index
			return nil, ErrUserExists
		}
		return nil, err
	}

	if s.notifier != nil && user.VerificationToken != "" {
		if err := s.notifier.SendVerificationEmail(ctx, user.Email, user.FirstName, user.VerificationToken); err != nil {
			log.Error().Err(err).Uint("user_id", user.ID).Msg("failed to hand off verification email")
		}
	}

	return user, nil
}

// Login verifies credentials and returns the user. An unknown email and a
// wrong password both yield ErrInvalidCredentials, and the unknown-email
// path still burns a hash comparison so the two are indistinguishable by
// timing.
func (s *Service) Login(ctx context.Context, email, password string) (*entities.User, error) {
	user, err := s.users.FindByEmail(strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		s.hasher.CompareDummy(ctx, password)
		return nil, ErrInvalidCredentials
	}

	if !s.hasher.Verify(ctx, user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

// Refresh verifies a refresh token and issues a fresh access token for the
// same subject. The refresh token itself is deliberately not rotated; its
// replay window is bounded by the refresh ttl.
func (s *Service) Refresh(_ context.Context, refreshToken string) (string, error) {
	claims, err := s.issuer.Verify(refreshToken, PurposeRefresh)
	if err != nil {
		return "", err
	}
	return s.issuer.IssueAccess(claims.UserID, claims.Email)
}

// VerifyEmail validates a verification token and marks the matching user as
// verified. The token is single-use: it must still match the stored copy.
func (s *Service) VerifyEmail(_ context.Context, token string) (*entities.User, error) {
	claims, err := s.issuer.Verify(token, PurposeVerifyEmail)
	if err != nil {
		return nil, err
	}

	user, err := s.users.FindByEmail(claims.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil || user.VerificationToken != token {
		return nil, ErrTokenInvalid
	}

	if err := s.users.MarkEmailVerified(user.ID); err != nil {
		return nil, err
	}
	user.EmailVerified = true
	user.VerificationToken = ""
	user.VerificationExpiry = nil

	return user, nil
}

// GetUserByID retrieves a user by ID, or nil when none exists.
func (s *Service) GetUserByID(id uint) (*entities.User, error) {
	return s.users.GetByID(id)
}
