package cratesdb

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
)

// testDB builds a small snapshot with a few crates:
//   - bevy_rapier (stored hyphenated as bevy-rapier) depends on bevy ^0.14
//   - plain_crate has no bevy dependency and no license
func testDB(t *testing.T) *DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "crates.db")
	raw, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := raw.Exec(schema); err != nil {
		t.Fatalf("schema: %v", err)
	}

	stmts := []string{
		`INSERT INTO crates (id, name) VALUES (1, 'bevy'), (2, 'bevy-rapier'), (3, 'plain_crate')`,
		`INSERT INTO versions (id, crate_id, num, license) VALUES
			(10, 2, '0.26.0', 'MIT OR Apache-2.0'),
			(11, 2, '0.27.0', 'Apache-2.0'),
			(12, 3, '1.0.0', NULL)`,
		`INSERT INTO dependencies (version_id, crate_id, req) VALUES
			(10, 1, '^0.13'),
			(11, 1, '^0.14')`,
	}
	for _, s := range stmts {
		if _, err := raw.Exec(s); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}
	if err := raw.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	db, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestLookup(t *testing.T) {
	db := testDB(t)

	m, err := db.Lookup(context.Background(), "bevy-rapier")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	// Newest version wins: license and bevy requirement come from 0.27.0.
	if m.License != "Apache-2.0" {
		t.Errorf("License = %q, want %q", m.License, "Apache-2.0")
	}
	if m.BevyReq != "^0.14" {
		t.Errorf("BevyReq = %q, want %q", m.BevyReq, "^0.14")
	}
}

func TestLookupHyphenFallback(t *testing.T) {
	db := testDB(t)

	// The link says bevy_rapier but the registry row is bevy-rapier.
	m, err := db.Lookup(context.Background(), "bevy_rapier")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if m.BevyReq != "^0.14" {
		t.Errorf("BevyReq = %q, want %q", m.BevyReq, "^0.14")
	}
}

func TestLookupNoBevyDependency(t *testing.T) {
	db := testDB(t)

	m, err := db.Lookup(context.Background(), "plain_crate")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if m.License != "" {
		t.Errorf("License = %q, want empty", m.License)
	}
	if m.BevyReq != "" {
		t.Errorf("BevyReq = %q, want empty", m.BevyReq)
	}
}

func TestLookupNotFound(t *testing.T) {
	db := testDB(t)

	_, err := db.Lookup(context.Background(), "no_such_crate")
	if !errors.Is(err, ErrCrateNotFound) {
		t.Errorf("error = %v, want ErrCrateNotFound", err)
	}
}

func TestLookupDatabaseError(t *testing.T) {
	// A real database failure must surface as-is; it is not a missing
	// row and must not be retried under the hyphenated name.
	path := filepath.Join(t.TempDir(), "crates.db")
	raw, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := raw.Exec(schema); err != nil {
		t.Fatalf("schema: %v", err)
	}
	stmts := []string{
		`INSERT INTO crates (id, name) VALUES (1, 'tool_kit')`,
		`INSERT INTO versions (id, crate_id, num, license) VALUES (10, 1, '1.0.0', 'MIT')`,
		`DROP TABLE dependencies`,
	}
	for _, s := range stmts {
		if _, err := raw.Exec(s); err != nil {
			t.Fatalf("exec: %v", err)
		}
	}
	if err := raw.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	db, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	_, err = db.Lookup(context.Background(), "tool_kit")
	if err == nil {
		t.Fatal("expected error for broken snapshot")
	}
	if errors.Is(err, ErrCrateNotFound) {
		t.Errorf("error = %v, database failure must not look like a missing crate", err)
	}
}
