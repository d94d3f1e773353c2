// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/gutenberg-cache/pkg/types"
)

// Book is the cached record of one work, for display and export.
type Book struct {
	ID          uint64   `json:"id" yaml:"id"`
	Titles      []string `json:"titles" yaml:"titles"`
	Authors     []string `json:"authors,omitempty" yaml:"authors,omitempty"`
	Languages   []string `json:"languages,omitempty" yaml:"languages,omitempty"`
	Subjects    []string `json:"subjects,omitempty" yaml:"subjects,omitempty"`
	Bookshelves []string `json:"bookshelves,omitempty" yaml:"bookshelves,omitempty"`
	Publisher   string   `json:"publisher,omitempty" yaml:"publisher,omitempty"`
	Rights      string   `json:"rights,omitempty" yaml:"rights,omitempty"`
	Issued      string   `json:"issued,omitempty" yaml:"issued,omitempty"`
	Downloads   int      `json:"downloads" yaml:"downloads"`
}

// ErrBookNotFound is returned by Describe for a catalog id not in the cache.
var ErrBookNotFound = fmt.Errorf("%w: book not in cache", types.ErrInvalidQuery)

// Describe loads the cached records of the given works, in the order given.
func (s *Store) Describe(ctx context.Context, ids []uint64) ([]Book, error) {
	books := make([]Book, 0, len(ids))
	for _, id := range ids {
		b, err := s.describe(ctx, id)
		if err != nil {
			return nil, err
		}
		books = append(books, b)
	}
	return books, nil
}

func (s *Store) describe(ctx context.Context, id uint64) (Book, error) {
	var (
		rowID             int64
		publisher, rights sql.NullString
		issued            sql.NullString
		downloads         sql.NullInt64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT books.id, publishers.name, rights.name, books.dateissued, books.numdownloads
		FROM books
		LEFT JOIN publishers ON publishers.id = books.publisherid
		LEFT JOIN rights ON rights.id = books.rightsid
		WHERE books.gutenbergbookid = ?`, id,
	).Scan(&rowID, &publisher, &rights, &issued, &downloads)
	if errors.Is(err, sql.ErrNoRows) {
		return Book{}, fmt.Errorf("%w: %d", ErrBookNotFound, id)
	}
	if err != nil {
		return Book{}, fmt.Errorf("%w: loading book %d: %w", types.ErrStorage, id, err)
	}

	b := Book{
		ID:        id,
		Publisher: publisher.String,
		Rights:    rights.String,
		Issued:    issued.String,
		Downloads: int(downloads.Int64),
	}

	lists := []struct {
		dst   *[]string
		query string
	}{
		{&b.Titles, `SELECT name FROM titles WHERE bookid = ? ORDER BY id`},
		{&b.Authors, `SELECT authors.name FROM book_authors JOIN authors ON authors.id = book_authors.authorid WHERE book_authors.bookid = ? ORDER BY authors.id`},
		{&b.Languages, `SELECT languages.name FROM book_languages JOIN languages ON languages.id = book_languages.languageid WHERE book_languages.bookid = ? ORDER BY languages.id`},
		{&b.Subjects, `SELECT subjects.name FROM book_subjects JOIN subjects ON subjects.id = book_subjects.subjectid WHERE book_subjects.bookid = ? ORDER BY subjects.id`},
		{&b.Bookshelves, `SELECT bookshelves.name FROM book_bookshelves JOIN bookshelves ON bookshelves.id = book_bookshelves.bookshelfid WHERE book_bookshelves.bookid = ? ORDER BY bookshelves.id`},
	}
	for _, l := range lists {
		names, err := s.names(ctx, l.query, rowID)
		if err != nil {
			return Book{}, fmt.Errorf("%w: loading book %d: %w", types.ErrStorage, id, err)
		}
		*l.dst = names
	}
	return b, nil
}

func (s *Store) names(ctx context.Context, query string, bookID int64) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query, bookID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		out = append(out, name)
	}
	return out, rows.Err()
}

// WriteYAML writes v as a YAML document.
func WriteYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return enc.Close()
}

// WriteJSON writes v as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	return nil
}
