package migrate

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"go.uber.org/multierr"
)

func TestEmbeddedMigrationsAreValid(t *testing.T) {
	sub, err := fs.Sub(Migrations(), embeddedDir)
	if err != nil {
		t.Fatalf("sub fs: %v", err)
	}
	if err := ValidateFS(sub); err != nil {
		t.Fatalf("embedded migrations invalid: %v", err)
	}

	entries, err := fs.ReadDir(sub, ".")
	if err != nil {
		t.Fatalf("read embedded: %v", err)
	}
	if len(entries) < 4 {
		t.Fatalf("expected at least 4 migrations, got %d", len(entries))
	}
}

func TestBookingsMigrationCarriesPricingColumns(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_bookings.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("expected one bookings migration, got %v", matches)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration: %v", err)
	}
	content := string(data)

	for _, sub := range []string{
		"CREATE TABLE IF NOT EXISTS bookings",
		"base_amount numeric(12,2) NOT NULL",
		"discount_type text NOT NULL DEFAULT 'none'",
		"voucher_code text",
		"total_price numeric(12,2) NOT NULL CHECK (total_price >= 0)",
		"CONSTRAINT bookings_reference_key UNIQUE (reference)",
		"CREATE TABLE IF NOT EXISTS booking_payments",
	} {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestValidateFSRejectsBadMigrations(t *testing.T) {
	cases := map[string]fstest.MapFS{
		"bad name": {
			"create_things.sql": {Data: []byte("-- +goose Up\n-- +goose Down\n")},
		},
		"missing down": {
			"20260101000000_things.sql": {Data: []byte("-- +goose Up\nSELECT 1;\n")},
		},
		"duplicate version": {
			"20260101000000_a.sql": {Data: []byte("-- +goose Up\n-- +goose Down\n")},
			"20260101000000_b.sql": {Data: []byte("-- +goose Up\n-- +goose Down\n")},
		},
	}
	for name, fsys := range cases {
		if err := ValidateFS(fsys); err == nil {
			t.Errorf("%s: expected validation error", name)
		}
	}
}

func TestValidateFSReportsEveryProblem(t *testing.T) {
	fsys := fstest.MapFS{
		"things.sql":            {Data: []byte("-- +goose Up\n-- +goose Down\n")},
		"20260101000000_a.sql":  {Data: []byte("SELECT 1;\n")},
		"20260101000001_ok.sql": {Data: []byte("-- +goose Up\n-- +goose Down\n")},
		"notes.txt":             {Data: []byte("ignored")},
	}
	err := ValidateFS(fsys)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if got := len(multierr.Errors(err)); got != 3 {
		t.Fatalf("expected 3 problems (bad name, missing up, missing down), got %d: %v", got, err)
	}
}

func TestCreateSQLMigration(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	path, err := createSQLMigration(dir, "Add Wetsuit Sizes!", now)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if filepath.Base(path) != "20260302100000_add_wetsuit_sizes.sql" {
		t.Fatalf("unexpected filename %q", filepath.Base(path))
	}
	if err := ValidateDir(dir); err != nil {
		t.Fatalf("generated migration should validate: %v", err)
	}
	if _, err := createSQLMigration(dir, "add wetsuit sizes", now); err == nil {
		t.Fatal("expected duplicate file error")
	}
	if _, err := createSQLMigration(dir, "!!!", now); err == nil {
		t.Fatal("expected empty name error")
	}
}
