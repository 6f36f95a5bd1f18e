// Package cratesdb answers license and bevy version-requirement queries
// from a local SQLite snapshot of the crates.io database dump.
//
// The snapshot is built once per run (or reused from the data directory)
// by [Prepare], which downloads the public dump, extracts the crates,
// versions and dependencies tables and loads them into SQLite. Lookups
// then never touch the network.
package cratesdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

// Host is the link host this backend answers for.
const Host = "crates.io"

// bevyCrate is the dependency whose version requirement we report.
const bevyCrate = "bevy"

// ErrCrateNotFound is returned when a crate is absent from the snapshot,
// even after name canonicalization.
var ErrCrateNotFound = errors.New("not found in crates.io dump")

// DB is a read-only handle to the loaded snapshot. It is safe to share
// across lookups; it carries no per-call state.
type DB struct {
	sql *sql.DB
}

// Open opens an existing snapshot database file.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open crates.io snapshot: %w", err)
	}
	return &DB{sql: db}, nil
}

// Close releases the database handle.
func (d *DB) Close() error {
	return d.sql.Close()
}

// CrateMetadata holds the result of a snapshot lookup.
type CrateMetadata struct {
	License string // license of the crate's newest version (may be empty)
	BevyReq string // version requirement the crate declares on bevy (may be empty)
}

// Lookup finds the license and bevy requirement for a crate. When the
// literal name has no row, it retries once with underscores replaced by
// hyphens, since crates.io canonicalizes names that way. Database errors
// are returned directly; only a missing row triggers the retry.
func (d *DB) Lookup(ctx context.Context, name string) (*CrateMetadata, error) {
	m, err := d.lookup(ctx, name)
	if err == nil {
		return m, nil
	}
	if errors.Is(err, ErrCrateNotFound) {
		if hyphenated := strings.ReplaceAll(name, "_", "-"); hyphenated != name {
			if m, retryErr := d.lookup(ctx, hyphenated); retryErr == nil {
				return m, nil
			}
		}
	}
	return nil, fmt.Errorf("failed to get data from crates.io dump for %s: %w", name, err)
}

func (d *DB) lookup(ctx context.Context, name string) (*CrateMetadata, error) {
	// Newest version of the crate; dump version ids are monotonically
	// increasing, so the highest id wins.
	var versionID int64
	var license sql.NullString
	err := d.sql.QueryRowContext(ctx, `
		SELECT v.id, v.license
		FROM crates c
		JOIN versions v ON v.crate_id = c.id
		WHERE c.name = ?
		ORDER BY v.id DESC
		LIMIT 1`, name).Scan(&versionID, &license)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", name, ErrCrateNotFound)
	}
	if err != nil {
		return nil, err
	}

	var req sql.NullString
	err = d.sql.QueryRowContext(ctx, `
		SELECT d.req
		FROM dependencies d
		JOIN crates dep ON dep.id = d.crate_id
		WHERE d.version_id = ? AND dep.name = ?
		LIMIT 1`, versionID, bevyCrate).Scan(&req)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	return &CrateMetadata{License: license.String, BevyReq: req.String}, nil
}
