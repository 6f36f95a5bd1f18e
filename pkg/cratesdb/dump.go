package cratesdb

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/TimJentzsch/bevy-website/pkg/httputil"
)

// DefaultDumpURL is the daily database dump published by crates.io.
const DefaultDumpURL = "https://static.crates.io/db-dump.tar.gz"

const snapshotFile = "crates.db"

// PrepareOptions configures [Prepare].
type PrepareOptions struct {
	DataDir string      // where the snapshot lives (default "data")
	URL     string      // dump archive URL (default DefaultDumpURL)
	Logger  *log.Logger // defaults to log.Default()
}

// Prepare returns a queryable snapshot of the crates.io dump, building it
// from a fresh download unless the data directory already holds one.
func Prepare(ctx context.Context, opts PrepareOptions) (*DB, error) {
	if opts.DataDir == "" {
		opts.DataDir = "data"
	}
	if opts.URL == "" {
		opts.URL = DefaultDumpURL
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}

	path := filepath.Join(opts.DataDir, snapshotFile)
	if _, err := os.Stat(path); err == nil {
		opts.Logger.Info("using cached crates.io snapshot", "path", path)
		return Open(path)
	}

	opts.Logger.Info("downloading crates.io database dump", "url", opts.URL)
	archive, err := download(ctx, opts.URL)
	if err != nil {
		return nil, err
	}
	defer os.Remove(archive)

	if err := os.MkdirAll(opts.DataDir, 0o755); err != nil {
		return nil, err
	}

	// Build into a temp file and rename so an interrupted load never
	// leaves a half-written snapshot behind.
	tmp := path + ".tmp"
	defer os.Remove(tmp)
	if err := loadArchive(ctx, archive, tmp, opts.Logger); err != nil {
		return nil, fmt.Errorf("load crates.io dump: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return nil, err
	}

	return Open(path)
}

// download fetches the dump archive to a temp file. The dump is a bulk
// fetch, so unlike metadata resolution it re-attempts transient failures
// before giving up.
func download(ctx context.Context, url string) (string, error) {
	var path string
	err := httputil.RetryWithBackoff(ctx, func() error {
		p, err := downloadOnce(ctx, url)
		if err != nil {
			return err
		}
		path = p
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("download crates.io dump: %w", err)
	}
	return path, nil
}

func downloadOnce(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", &httputil.RetryableError{Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", &httputil.RetryableError{Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}

	f, err := os.CreateTemp("", "crates-db-dump-*.tar.gz")
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}

// loadArchive extracts the crates, versions and dependencies tables from
// the tar.gz archive into a new SQLite database at dbPath.
func loadArchive(ctx context.Context, archive, dbPath string, logger *log.Logger) error {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return err
	}

	f, err := os.Open(archive)
	if err != nil {
		return err
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return err
	}
	defer gz.Close()

	// Archive entries are <timestamp>/data/<table>.csv.
	loaders := map[string]func(context.Context, *sql.DB, *csv.Reader) (int, error){
		"crates.csv":       loadCrates,
		"versions.csv":     loadVersions,
		"dependencies.csv": loadDependencies,
	}

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		name := filepath.Base(hdr.Name)
		loader, ok := loaders[name]
		if !ok || !strings.Contains(hdr.Name, "data/") {
			continue
		}
		n, err := loader(ctx, db, csv.NewReader(tr))
		if err != nil {
			return fmt.Errorf("load %s: %w", name, err)
		}
		logger.Debug("loaded dump table", "table", name, "rows", n)
		delete(loaders, name)
	}
	if len(loaders) > 0 {
		return fmt.Errorf("dump archive is missing tables: %v", keys(loaders))
	}

	return nil
}

const schema = `
CREATE TABLE crates (
	id INTEGER PRIMARY KEY,
	name TEXT NOT NULL
);
CREATE INDEX crates_name ON crates(name);

CREATE TABLE versions (
	id INTEGER PRIMARY KEY,
	crate_id INTEGER NOT NULL,
	num TEXT NOT NULL,
	license TEXT
);
CREATE INDEX versions_crate ON versions(crate_id);

CREATE TABLE dependencies (
	version_id INTEGER NOT NULL,
	crate_id INTEGER NOT NULL,
	req TEXT NOT NULL
);
CREATE INDEX dependencies_version ON dependencies(version_id);
`

func loadCrates(ctx context.Context, db *sql.DB, r *csv.Reader) (int, error) {
	return loadTable(ctx, db, r,
		[]string{"id", "name"},
		`INSERT INTO crates (id, name) VALUES (?, ?)`)
}

func loadVersions(ctx context.Context, db *sql.DB, r *csv.Reader) (int, error) {
	return loadTable(ctx, db, r,
		[]string{"id", "crate_id", "num", "license"},
		`INSERT INTO versions (id, crate_id, num, license) VALUES (?, ?, ?, ?)`)
}

func loadDependencies(ctx context.Context, db *sql.DB, r *csv.Reader) (int, error) {
	return loadTable(ctx, db, r,
		[]string{"version_id", "crate_id", "req"},
		`INSERT INTO dependencies (version_id, crate_id, req) VALUES (?, ?, ?)`)
}

// loadTable streams CSV rows into an insert statement. The dump's column
// order varies between exports, so columns are located by header name.
func loadTable(ctx context.Context, db *sql.DB, r *csv.Reader, columns []string, insert string) (int, error) {
	header, err := r.Read()
	if err != nil {
		return 0, err
	}
	index := make([]int, len(columns))
	for i, col := range columns {
		index[i] = -1
		for j, h := range header {
			if h == col {
				index[i] = j
				break
			}
		}
		if index[i] < 0 {
			return 0, fmt.Errorf("missing column %q", col)
		}
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, insert)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	count := 0
	args := make([]any, len(columns))
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, err
		}
		for i, j := range index {
			args[i] = record[j]
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return 0, err
		}
		count++
	}

	return count, tx.Commit()
}

func keys[V any](m map[string]V) []string {
	var out []string
	for k := range m {
		out = append(out, k)
	}
	return out
}
