package users

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/avykov/authcore/internal/entities"
)

func setupTestDB(t *testing.T) *Repository {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(&entities.User{})
	require.NoError(t, err)

	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})

	return NewRepository(db)
}

func newUser(email string) *entities.User {
	return &entities.User{
		Email:        email,
		PasswordHash: "$2a$04$fakehashforrepositorytestsonly",
		FirstName:    "Test",
	}
}

func TestRepository_Create(t *testing.T) {
	repo := setupTestDB(t)

	user := newUser("test@example.com")
	err := repo.Create(user)

	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.False(t, user.EmailVerified)
}

func TestRepository_Create_DuplicateEmail(t *testing.T) {
	repo := setupTestDB(t)

	require.NoError(t, repo.Create(newUser("dup@example.com")))

	err := repo.Create(newUser("dup@example.com"))
	assert.ErrorIs(t, err, ErrDuplicateEmail)
}

func TestRepository_FindByEmail(t *testing.T) {
	repo := setupTestDB(t)

	created := newUser("find@example.com")
	require.NoError(t, repo.Create(created))

	user, err := repo.FindByEmail("find@example.com")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, created.ID, user.ID)

	// Lookup is case-insensitive
	user, err = repo.FindByEmail("FIND@EXAMPLE.COM")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, created.ID, user.ID)
}

func TestRepository_FindByEmail_NotFound(t *testing.T) {
	repo := setupTestDB(t)

	// Missing user is (nil, nil), not an error
	user, err := repo.FindByEmail("nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestRepository_GetByID(t *testing.T) {
	repo := setupTestDB(t)

	created := newUser("byid@example.com")
	require.NoError(t, repo.Create(created))

	user, err := repo.GetByID(created.ID)
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "byid@example.com", user.Email)

	user, err = repo.GetByID(999)
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestRepository_MarkEmailVerified(t *testing.T) {
	repo := setupTestDB(t)

	expiry := time.Now().Add(time.Hour)
	created := newUser("verify@example.com")
	created.VerificationToken = "some-token"
	created.VerificationExpiry = &expiry
	require.NoError(t, repo.Create(created))

	require.NoError(t, repo.MarkEmailVerified(created.ID))

	user, err := repo.GetByID(created.ID)
	require.NoError(t, err)
	assert.True(t, user.EmailVerified)
	assert.Empty(t, user.VerificationToken)
	assert.Nil(t, user.VerificationExpiry)
}

func TestRepository_MarkEmailVerified_NotFound(t *testing.T) {
	repo := setupTestDB(t)

	err := repo.MarkEmailVerified(999)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepository_DeleteExpiredVerificationTokens(t *testing.T) {
	repo := setupTestDB(t)

	now := time.Now()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	expired := newUser("expired@example.com")
	expired.VerificationToken = "expired-token"
	expired.VerificationExpiry = &past
	require.NoError(t, repo.Create(expired))

	fresh := newUser("fresh@example.com")
	fresh.VerificationToken = "fresh-token"
	fresh.VerificationExpiry = &future
	require.NoError(t, repo.Create(fresh))

	verified := newUser("verified@example.com")
	verified.VerificationToken = "verified-token"
	verified.VerificationExpiry = &past
	require.NoError(t, repo.Create(verified))
	require.NoError(t, repo.MarkEmailVerified(verified.ID))

	cleared, err := repo.DeleteExpiredVerificationTokens(now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), cleared)

	// Only the expired unverified token is gone
	user, err := repo.GetByID(expired.ID)
	require.NoError(t, err)
	assert.Empty(t, user.VerificationToken)

	user, err = repo.GetByID(fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, "fresh-token", user.VerificationToken)
}
