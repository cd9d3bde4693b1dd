package database

import (
	"context"
	"path/filepath"
	"testing"
)

func TestMigrateUpAndDown(t *testing.T) {
	ctx := context.Background()
	db, err := New(ctx, filepath.Join(t.TempDir(), "nested", "baing.db"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	if v, err := db.Version(ctx); err != nil || v != 1 {
		t.Fatalf("Version() after up = %d, %v; want 1", v, err)
	}
	if _, err := db.Conn().ExecContext(ctx, `SELECT count(*) FROM collections`); err != nil {
		t.Fatalf("collections table missing after up: %v", err)
	}

	if err := db.MigrateDown(ctx); err != nil {
		t.Fatalf("MigrateDown() error = %v", err)
	}
	if v, err := db.Version(ctx); err != nil || v != 0 {
		t.Errorf("Version() after down = %d, %v; want 0", v, err)
	}
	if _, err := db.Conn().ExecContext(ctx, `SELECT count(*) FROM collections`); err == nil {
		t.Error("collections table still present after down")
	}

	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() after down error = %v", err)
	}
}
