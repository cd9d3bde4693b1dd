// Package testutil provides testing utilities for integration tests.
package testutil

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"github.com/baing/baing/internal/database"
	"github.com/baing/baing/internal/database/sqlc"
)

// TestDB wraps a migrated test database.
type TestDB struct {
	DB      *database.DB
	Conn    *sql.DB
	Queries *sqlc.Queries
	Logger  zerolog.Logger
}

// NewTestDB creates a migrated SQLite database in a per-test temp directory.
// It is closed automatically when the test finishes.
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()

	ctx := context.Background()
	db, err := database.New(ctx, filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	return &TestDB{
		DB:      db,
		Conn:    db.Conn(),
		Queries: sqlc.New(db.Conn()),
		Logger:  NewTestLogger(t),
	}
}

// CreateUser inserts a user row directly and returns its id.
func (tdb *TestDB) CreateUser(t *testing.T, name, email string) int64 {
	t.Helper()
	u, err := tdb.Queries.CreateUser(context.Background(), sqlc.CreateUserParams{
		Name:         name,
		Email:        email,
		PasswordHash: "x",
	})
	if err != nil {
		t.Fatalf("Failed to create user %s: %v", email, err)
	}
	return u.ID
}

// NewTestLogger creates a test logger that outputs to t.Log.
func NewTestLogger(t *testing.T) zerolog.Logger {
	t.Helper()
	return zerolog.New(zerolog.NewTestWriter(t)).Level(zerolog.DebugLevel)
}

// NopLogger returns a no-op logger for tests that don't need output.
func NopLogger() zerolog.Logger {
	return zerolog.Nop()
}

// StringPtr returns a pointer to a string.
func StringPtr(s string) *string {
	return &s
}

// IntPtr returns a pointer to an int.
func IntPtr(i int) *int {
	return &i
}
