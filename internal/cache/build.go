// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cache

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"time"

	"github.com/pdiddy/gutenberg-cache/internal/dictionary"
	"github.com/pdiddy/gutenberg-cache/internal/extract"
	"github.com/pdiddy/gutenberg-cache/pkg/types"
)

// BuildSummary holds row counts from one Build.
type BuildSummary struct {
	Books         int
	Titles        int
	LookupRows    int
	JoinRows      int
	DownloadLinks int
}

// rowID converts a dictionary identifier to a lookup-table row id. Row ids
// start at 1.
func rowID(id int) int64 {
	return int64(id) + 1
}

// nullableRowID maps the unresolved sentinel to NULL.
func nullableRowID(id int) any {
	if id == types.Unresolved {
		return nil
	}
	return rowID(id)
}

// Build writes the corpus into an empty store in one transaction. Lookup
// tables are filled before the tables that reference them. Build fails
// with ErrCacheNotEmpty if the store already holds works.
func (s *Store) Build(ctx context.Context, c *extract.Corpus) (BuildSummary, error) {
	empty, err := s.IsEmpty(ctx)
	if err != nil {
		return BuildSummary{}, err
	}
	if !empty {
		return BuildSummary{}, ErrCacheNotEmpty
	}

	start := time.Now()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return BuildSummary{}, fmt.Errorf("%w: beginning transaction: %w", types.ErrStorage, err)
	}
	defer tx.Rollback()

	b := builder{ctx: ctx, tx: tx}
	b.lookups(c)
	b.books(c)
	b.titles(c)
	b.joins(c)
	b.downloadLinks(c)
	if b.err != nil {
		return BuildSummary{}, fmt.Errorf("%w: %w", types.ErrStorage, b.err)
	}

	if err := tx.Commit(); err != nil {
		return BuildSummary{}, fmt.Errorf("%w: committing cache: %w", types.ErrStorage, err)
	}

	s.logger.Info("cache built",
		"books", b.sum.Books,
		"titles", b.sum.Titles,
		"links", b.sum.DownloadLinks,
		"elapsed", time.Since(start).Round(time.Millisecond),
	)
	return b.sum, nil
}

// builder carries the first insert error through the build steps.
type builder struct {
	ctx context.Context
	tx  *sql.Tx
	sum BuildSummary
	err error
}

func (b *builder) insertAll(query string, rows func(exec func(args ...any))) int {
	if b.err != nil {
		return 0
	}
	stmt, err := b.tx.PrepareContext(b.ctx, query)
	if err != nil {
		b.err = fmt.Errorf("preparing %q: %w", query, err)
		return 0
	}
	defer stmt.Close()

	n := 0
	rows(func(args ...any) {
		if b.err != nil {
			return
		}
		res, err := stmt.ExecContext(b.ctx, args...)
		if err != nil {
			b.err = fmt.Errorf("executing %q: %w", query, err)
			return
		}
		// Ignored duplicates affect no rows.
		if affected, err := res.RowsAffected(); err == nil {
			n += int(affected)
		}
	})
	return n
}

// lookupSources pairs each lookup table with its dictionary.
func lookupSources(c *extract.Corpus) []struct {
	table string
	dict  *dictionary.Dictionary
} {
	return []struct {
		table string
		dict  *dictionary.Dictionary
	}{
		{"authors", c.Dictionary(types.FieldAuthor)},
		{"subjects", c.Dictionary(types.FieldSubject)},
		{"languages", c.Dictionary(types.FieldLanguage)},
		{"bookshelves", c.Dictionary(types.FieldBookshelf)},
		{"publishers", c.Dictionary(types.FieldPublisher)},
		{"rights", c.Dictionary(types.FieldRights)},
		{"downloadlinkstype", c.Types},
	}
}

func (b *builder) lookups(c *extract.Corpus) {
	for _, src := range lookupSources(c) {
		b.sum.LookupRows += b.insertAll(
			fmt.Sprintf(`INSERT OR IGNORE INTO %s (id, name) VALUES (?, ?)`, src.table),
			func(exec func(args ...any)) {
				for id, e := range src.dict.All() {
					exec(rowID(id), e.Value)
				}
			})
	}
}

func (b *builder) books(c *extract.Corpus) {
	b.sum.Books = b.insertAll(
		`INSERT INTO books (id, gutenbergbookid, publisherid, rightsid, dateissued, numdownloads)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		func(exec func(args ...any)) {
			for _, w := range c.Works {
				var issued, downloads any
				if w.DateIssuedID != types.Unresolved {
					issued = w.DateIssued
				}
				if w.DownloadsID != types.Unresolved {
					downloads = w.Downloads
				}
				exec(w.Ordinal, w.CatalogID, nullableRowID(w.PublisherID), nullableRowID(w.RightsID), issued, downloads)
			}
		})
}

// titles writes one row per title observation, so alternative titles are
// searchable too. Each work's primary title is written first, so ordering a
// work's rows by id puts it ahead of the alternatives.
func (b *builder) titles(c *extract.Corpus) {
	d := c.Dictionary(types.FieldTitle)
	perWork := make(map[int][]int)
	for id, e := range d.All() {
		for _, work := range e.BackLinks {
			perWork[work] = append(perWork[work], id)
		}
	}

	b.sum.Titles = b.insertAll(
		`INSERT INTO titles (name, bookid) VALUES (?, ?)`,
		func(exec func(args ...any)) {
			for _, w := range c.Works {
				ids := perWork[w.Ordinal]
				if i := slices.Index(ids, w.TitleID); i >= 0 {
					ids = append(append([]int{w.TitleID}, ids[:i]...), ids[i+1:]...)
				}
				for _, id := range ids {
					name, _ := d.Value(id)
					exec(name, w.Ordinal)
				}
			}
		})
}

func (b *builder) joins(c *extract.Corpus) {
	sources := map[string]*dictionary.Dictionary{
		"book_authors":     c.Dictionary(types.FieldAuthor),
		"book_subjects":    c.Dictionary(types.FieldSubject),
		"book_languages":   c.Dictionary(types.FieldLanguage),
		"book_bookshelves": c.Dictionary(types.FieldBookshelf),
	}
	for _, j := range joinTables {
		d := sources[j.table]
		b.sum.JoinRows += b.insertAll(
			fmt.Sprintf(`INSERT OR IGNORE INTO %s (%s, bookid) VALUES (?, ?)`, j.table, j.column),
			func(exec func(args ...any)) {
				for id, e := range d.All() {
					for _, work := range e.BackLinks {
						exec(rowID(id), work)
					}
				}
			})
	}
}

func (b *builder) downloadLinks(c *extract.Corpus) {
	links := c.Links()
	b.sum.DownloadLinks = b.insertAll(
		`INSERT INTO downloadlinks (name, bookid, downloadtypeid) VALUES (?, ?, ?)`,
		func(exec func(args ...any)) {
			for _, w := range c.Works {
				for _, f := range w.Files {
					name, _ := links.Value(f.LinkID)
					typeID := int64(types.Unresolved)
					if f.TypeID != types.Unresolved {
						typeID = rowID(f.TypeID)
					}
					exec(name, w.Ordinal, typeID)
				}
			}
		})
}
