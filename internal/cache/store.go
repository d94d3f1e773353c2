// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package cache projects an extracted corpus into a normalized SQLite
// store and answers filter and download-link queries against it.
package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/gutenberg-cache/pkg/types"
)

// memoryDSN opens a private in-memory database. It lives as long as its
// single connection.
const memoryDSN = ":memory:"

// ErrCacheNotEmpty is returned by Build when the store already holds works.
var ErrCacheNotEmpty = fmt.Errorf("%w: cache already populated", types.ErrStorage)

// Options configures Open.
type Options struct {
	// Recreate removes an existing database file before opening.
	Recreate bool

	// Logger receives store events. Defaults to slog.Default().
	Logger *slog.Logger
}

// Store is the relational catalog cache.
type Store struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

// Open opens or creates the cache described by cfg and ensures the schema
// exists. An in-memory cache is private to the returned Store.
func Open(ctx context.Context, cfg types.CacheConfig, opts Options) (*Store, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	dsn := memoryDSN
	path := ""
	if !cfg.InMemory {
		path = cfg.DBPath
		if path == "" {
			return nil, fmt.Errorf("%w: no database path configured", types.ErrStorage)
		}
		if opts.Recreate {
			if err := removeDatabase(path); err != nil {
				return nil, err
			}
		}
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("%w: creating cache directory: %w", types.ErrIO, err)
			}
		}
		dsn = path + "?_journal_mode=WAL&_busy_timeout=5000"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: opening database: %w", types.ErrStorage, err)
	}
	if cfg.InMemory {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}

	s := &Store{db: db, path: path, logger: logger}
	if err := s.createSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: creating schema: %w", types.ErrStorage, err)
	}

	if cfg.InMemory {
		logger.Debug("opened in-memory cache")
	} else {
		logger.Debug("opened cache", "path", path, "recreate", opts.Recreate)
	}
	return s, nil
}

func removeDatabase(path string) error {
	for _, p := range []string{path, path + "-wal", path + "-shm"} {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: removing %s: %w", types.ErrIO, p, err)
		}
	}
	return nil
}

// Path returns the database file, or "" for an in-memory cache.
func (s *Store) Path() string {
	return s.path
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// lookupTables are the (id, name) tables in creation order.
var lookupTables = []string{
	"authors", "subjects", "languages", "bookshelves", "publishers", "rights", "downloadlinkstype",
}

// joinTables maps each many-to-many table to its lookup id column.
var joinTables = []struct {
	table, column string
}{
	{"book_authors", "authorid"},
	{"book_subjects", "subjectid"},
	{"book_languages", "languageid"},
	{"book_bookshelves", "bookshelfid"},
}

func (s *Store) createSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS books (
			id INTEGER PRIMARY KEY,
			gutenbergbookid INTEGER NOT NULL UNIQUE,
			publisherid INTEGER NULL,
			rightsid INTEGER NULL,
			dateissued TEXT,
			numdownloads INTEGER
		)`,
		`CREATE TABLE IF NOT EXISTS titles (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			bookid INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_titles_bookid ON titles(bookid)`,
		`CREATE TABLE IF NOT EXISTS downloadlinks (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			bookid INTEGER NOT NULL,
			downloadtypeid INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_downloadlinks_bookid ON downloadlinks(bookid)`,
	}
	for _, t := range lookupTables {
		statements = append(statements, fmt.Sprintf(
			`CREATE TABLE IF NOT EXISTS %s (
			id INTEGER PRIMARY KEY,
			name TEXT NOT NULL UNIQUE
		)`, t))
	}
	for _, j := range joinTables {
		statements = append(statements,
			fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			%s INTEGER NOT NULL,
			bookid INTEGER NOT NULL,
			UNIQUE(%s, bookid)
		)`, j.table, j.column, j.column),
			fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_bookid ON %s(bookid)`, j.table, j.table),
		)
	}

	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// IsEmpty reports whether the store holds no works.
func (s *Store) IsEmpty(ctx context.Context) (bool, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM books`).Scan(&n); err != nil {
		return false, fmt.Errorf("%w: counting books: %w", types.ErrStorage, err)
	}
	return n == 0, nil
}
