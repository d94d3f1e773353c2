// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/pdiddy/gutenberg-cache/internal/query"
	"github.com/pdiddy/gutenberg-cache/pkg/types"
)

// DefaultTextTypes are the file types tried when fetching a book's plain
// text, most preferred first.
var DefaultTextTypes = []string{
	"text/plain; charset=utf-8",
	"text/plain; charset=us-ascii",
	"text/plain; charset=iso-8859-1",
	"text/plain",
}

// Query returns the catalog ids of the works matching every predicate in f,
// each once, in ascending order. An empty filter returns every work.
func (s *Store) Query(ctx context.Context, f query.Filter) ([]uint64, error) {
	stmt, args := query.Build(f)
	s.logger.Debug("running filter query", "filter", f.String())

	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: querying books: %w", types.ErrStorage, err)
	}
	defer rows.Close()

	var ids []uint64
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("%w: scanning book id: %w", types.ErrStorage, err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: reading books: %w", types.ErrStorage, err)
	}
	return ids, nil
}

// Link is one downloadable file of a work.
type Link struct {
	CatalogID uint64 `json:"id" yaml:"id"`
	URL       string `json:"url" yaml:"url"`
	// Type is empty when the file's type was not declared.
	Type string `json:"type" yaml:"type"`
}

// DownloadLinks returns the download links of the given works whose type id
// is in typeIDs. An empty typeIDs applies no type filter. Links are
// ordered by catalog id, then in document order.
func (s *Store) DownloadLinks(ctx context.Context, ids []uint64, typeIDs []int64) ([]Link, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var (
		qb   strings.Builder
		args []any
	)
	qb.WriteString(
		`SELECT books.gutenbergbookid, downloadlinks.name, COALESCE(downloadlinkstype.name, '')
		FROM downloadlinks
		JOIN books ON books.id = downloadlinks.bookid
		LEFT JOIN downloadlinkstype ON downloadlinkstype.id = downloadlinks.downloadtypeid
		WHERE books.gutenbergbookid IN (`)
	qb.WriteString(placeholders(len(ids)))
	qb.WriteString(`)`)
	for _, id := range ids {
		args = append(args, id)
	}

	if len(typeIDs) > 0 {
		qb.WriteString(` AND downloadlinks.downloadtypeid IN (`)
		qb.WriteString(placeholders(len(typeIDs)))
		qb.WriteString(`)`)
		for _, id := range typeIDs {
			args = append(args, id)
		}
	}
	qb.WriteString(` ORDER BY books.gutenbergbookid, downloadlinks.id`)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("%w: querying download links: %w", types.ErrStorage, err)
	}
	defer rows.Close()

	var links []Link
	for rows.Next() {
		var l Link
		if err := rows.Scan(&l.CatalogID, &l.URL, &l.Type); err != nil {
			return nil, fmt.Errorf("%w: scanning download link: %w", types.ErrStorage, err)
		}
		links = append(links, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: reading download links: %w", types.ErrStorage, err)
	}
	return links, nil
}

// FileTypeIDs resolves file type names to their row ids, in the order
// given. Names not present in the cache are skipped; if none resolve the
// result is empty and an ErrInvalidQuery is returned, since an empty
// allow-list would disable filtering.
func (s *Store) FileTypeIDs(ctx context.Context, names []string) ([]int64, error) {
	var ids []int64
	for _, name := range names {
		var id int64
		err := s.db.QueryRowContext(ctx, `SELECT id FROM downloadlinkstype WHERE name = ?`, name).Scan(&id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				s.logger.Debug("file type not in cache", "type", name)
				continue
			}
			return nil, fmt.Errorf("%w: looking up file type %q: %w", types.ErrStorage, name, err)
		}
		ids = append(ids, id)
	}
	if len(names) > 0 && len(ids) == 0 {
		return nil, fmt.Errorf("%w: none of the file types %q is in the cache", types.ErrInvalidQuery, names)
	}
	return ids, nil
}

// Stats holds the row count of every cache table.
type Stats struct {
	Tables []TableCount `json:"tables" yaml:"tables"`
}

// TableCount is the row count of one table.
type TableCount struct {
	Table string `json:"table" yaml:"table"`
	Rows  int64  `json:"rows" yaml:"rows"`
}

// Count returns the row count of table, or -1 if it is not in s.
func (s Stats) Count(table string) int64 {
	for _, t := range s.Tables {
		if t.Table == table {
			return t.Rows
		}
	}
	return -1
}

// Stats counts the rows of every table.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	tables := []string{"books", "titles", "downloadlinks"}
	tables = append(tables, lookupTables...)
	for _, j := range joinTables {
		tables = append(tables, j.table)
	}

	var st Stats
	for _, t := range tables {
		var n int64
		if err := s.db.QueryRowContext(ctx, fmt.Sprintf(`SELECT count(*) FROM %s`, t)).Scan(&n); err != nil {
			return Stats{}, fmt.Errorf("%w: counting %s: %w", types.ErrStorage, t, err)
		}
		st.Tables = append(st.Tables, TableCount{Table: t, Rows: n})
	}
	return st, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
