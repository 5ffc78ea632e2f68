package services

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/makingtheimpact/blnk-icu/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testSecret = "test-secret-that-is-at-least-32-bytes!"

// setupTestDB opens a private in-memory database. A single connection keeps
// every query on the same memory instance.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newAccountService(t *testing.T, db *gorm.DB) *AccountService {
	t.Helper()
	return NewAccountService(db, NewCredentialStore(testSecret, 30*time.Minute), nil, testLogger())
}

func createUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	user, err := newAccountService(t, db).Register(t.Context(), username+"@example.com", username, "password123", "127.0.0.1")
	require.NoError(t, err)
	return user
}
