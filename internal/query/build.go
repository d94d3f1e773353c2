// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package query

import "strings"

// join describes how one predicate reaches its name column from books.
type join struct {
	clauses []string
	column  string
}

var joins = map[Predicate]join{
	Language: {
		clauses: []string{
			"JOIN book_languages ON book_languages.bookid = books.id",
			"JOIN languages ON languages.id = book_languages.languageid",
		},
		column: "languages.name",
	},
	Author: {
		clauses: []string{
			"JOIN book_authors ON book_authors.bookid = books.id",
			"JOIN authors ON authors.id = book_authors.authorid",
		},
		column: "authors.name",
	},
	Title: {
		clauses: []string{"JOIN titles ON titles.bookid = books.id"},
		column:  "titles.name",
	},
	Subject: {
		clauses: []string{
			"JOIN book_subjects ON book_subjects.bookid = books.id",
			"JOIN subjects ON subjects.id = book_subjects.subjectid",
		},
		column: "subjects.name",
	},
	Publisher: {
		clauses: []string{"JOIN publishers ON publishers.id = books.publisherid"},
		column:  "publishers.name",
	},
	Bookshelf: {
		clauses: []string{
			"JOIN book_bookshelves ON book_bookshelves.bookid = books.id",
			"JOIN bookshelves ON bookshelves.id = book_bookshelves.bookshelfid",
		},
		column: "bookshelves.name",
	},
	Rights: {
		clauses: []string{"JOIN rights ON rights.id = books.rightsid"},
		column:  "rights.name",
	},
	DownloadLinksType: {
		clauses: []string{
			"JOIN downloadlinks ON downloadlinks.bookid = books.id",
			"JOIN downloadlinkstype ON downloadlinkstype.id = downloadlinks.downloadtypeid",
		},
		column: "downloadlinkstype.name",
	},
}

// Build returns a query selecting the distinct catalog ids of the works
// that satisfy every predicate in f, with one bind argument per
// predicate. Only the tables of present predicates are joined.
func Build(f Filter) (string, []any) {
	var b strings.Builder
	b.WriteString("SELECT DISTINCT books.gutenbergbookid FROM books")

	keys := f.Keys()
	args := make([]any, 0, len(keys))
	var where []string
	for _, p := range keys {
		j := joins[p]
		for _, c := range j.clauses {
			b.WriteString(" ")
			b.WriteString(c)
		}
		where = append(where, j.column+" = ?")
		args = append(args, f[p])
	}

	if len(where) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(where, " AND "))
	}
	b.WriteString(" ORDER BY books.gutenbergbookid")
	return b.String(), args
}
