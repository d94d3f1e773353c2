// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cache

import (
	"context"
	"path/filepath"
	"sort"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/gutenberg-cache/internal/extract"
	"github.com/pdiddy/gutenberg-cache/internal/query"
	"github.com/pdiddy/gutenberg-cache/pkg/types"
)

// --- test helpers ---

var sampleDir = filepath.Join("..", "extract", "testdata", "cache")

func memoryStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), types.CacheConfig{InMemory: true}, Options{})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleCorpus(t *testing.T) *extract.Corpus {
	t.Helper()
	c, err := extract.ExtractDir(context.Background(), sampleDir, extract.Options{})
	require.NoError(t, err)
	return c
}

func sampleStore(t *testing.T) *Store {
	t.Helper()
	s := memoryStore(t)
	_, err := s.Build(context.Background(), sampleCorpus(t))
	require.NoError(t, err)
	return s
}

func textCorpus(t *testing.T, docs ...string) *extract.Corpus {
	t.Helper()
	c, err := extract.ExtractAll(context.Background(), extract.TextSources(docs), extract.Options{})
	require.NoError(t, err)
	return c
}

const minimalDoc = `<?xml version="1.0" encoding="utf-8"?>
<rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#"
  xmlns:dcterms="http://purl.org/dc/terms/"
  xmlns:pgterms="http://www.gutenberg.org/2009/pgterms/">
<pgterms:ebook rdf:about="ebooks/77">
  <dcterms:title>Untyped</dcterms:title>
  <dcterms:hasFormat><pgterms:file rdf:about="https://example.org/77.bin"></pgterms:file></dcterms:hasFormat>
</pgterms:ebook>
</rdf:RDF>`

func count(t *testing.T, s *Store, table string) int64 {
	t.Helper()
	st, err := s.Stats(context.Background())
	require.NoError(t, err)
	return st.Count(table)
}

// --- schema tests ---

func TestOpenCreatesSchema(t *testing.T) {
	s := memoryStore(t)

	tables := []string{
		"books", "titles", "downloadlinks",
		"authors", "subjects", "languages", "bookshelves", "publishers", "rights", "downloadlinkstype",
		"book_authors", "book_subjects", "book_languages", "book_bookshelves",
	}
	for _, table := range tables {
		var n int
		err := s.db.QueryRow(`SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&n)
		require.NoError(t, err)
		assert.Equal(t, 1, n, "table %s", table)
	}

	empty, err := s.IsEmpty(context.Background())
	require.NoError(t, err)
	assert.True(t, empty)
	assert.Empty(t, s.Path())
}

func TestOpenWithoutPath(t *testing.T) {
	_, err := Open(context.Background(), types.CacheConfig{}, Options{})
	assert.ErrorIs(t, err, types.ErrStorage)
}

func TestOpenFileReuseAndRecreate(t *testing.T) {
	ctx := context.Background()
	cfg := types.CacheConfig{DBPath: filepath.Join(t.TempDir(), "db", "index.db")}

	s, err := Open(ctx, cfg, Options{})
	require.NoError(t, err)
	_, err = s.Build(ctx, sampleCorpus(t))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(ctx, cfg, Options{})
	require.NoError(t, err)
	ids, err := s.Query(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, ids, 6)
	require.NoError(t, s.Close())

	s, err = Open(ctx, cfg, Options{Recreate: true})
	require.NoError(t, err)
	defer s.Close()
	empty, err := s.IsEmpty(ctx)
	require.NoError(t, err)
	assert.True(t, empty)
	assert.Equal(t, cfg.DBPath, s.Path())
}

// --- build tests ---

func TestBuildSummary(t *testing.T) {
	s := memoryStore(t)
	sum, err := s.Build(context.Background(), sampleCorpus(t))
	require.NoError(t, err)

	assert.Equal(t, 6, sum.Books)
	assert.Equal(t, 75, sum.DownloadLinks)
	// Six primary titles plus the alternative title of ebook 1000.
	assert.Equal(t, 7, sum.Titles)
}

func TestBuildTwiceFails(t *testing.T) {
	s := sampleStore(t)

	_, err := s.Build(context.Background(), sampleCorpus(t))
	assert.ErrorIs(t, err, ErrCacheNotEmpty)
	assert.ErrorIs(t, err, types.ErrStorage)
	assert.Equal(t, int64(6), count(t, s, "books"))
}

func TestBuildStats(t *testing.T) {
	s := sampleStore(t)

	assert.Equal(t, int64(6), count(t, s, "books"))
	assert.Equal(t, int64(75), count(t, s, "downloadlinks"))
	assert.Equal(t, int64(12), count(t, s, "downloadlinkstype"))
	assert.Equal(t, int64(2), count(t, s, "languages"))
	assert.Equal(t, int64(6), count(t, s, "book_languages"))
	assert.Equal(t, int64(5), count(t, s, "book_authors"))
	assert.Equal(t, int64(1), count(t, s, "publishers"))
	assert.Equal(t, int64(-1), count(t, s, "nonexistent"))
}

func TestBuildLookupIDsOffsetDictionary(t *testing.T) {
	c := sampleCorpus(t)
	s := memoryStore(t)
	_, err := s.Build(context.Background(), c)
	require.NoError(t, err)

	langs := c.Dictionary(types.FieldLanguage)
	for id, e := range langs.All() {
		var rowID int64
		require.NoError(t, s.db.QueryRow(`SELECT id FROM languages WHERE name = ?`, e.Value).Scan(&rowID))
		assert.Equal(t, int64(id)+1, rowID, e.Value)
	}

	for _, w := range c.Works {
		var catalogID uint64
		require.NoError(t, s.db.QueryRow(`SELECT gutenbergbookid FROM books WHERE id = ?`, w.Ordinal).Scan(&catalogID))
		assert.Equal(t, w.CatalogID, catalogID)
	}
}

func TestBuildUnresolvedValues(t *testing.T) {
	s := memoryStore(t)
	_, err := s.Build(context.Background(), textCorpus(t, minimalDoc))
	require.NoError(t, err)

	var publisher, rights, downloads any
	require.NoError(t, s.db.QueryRow(
		`SELECT publisherid, rightsid, numdownloads FROM books WHERE gutenbergbookid = 77`,
	).Scan(&publisher, &rights, &downloads))
	assert.Nil(t, publisher)
	assert.Nil(t, rights)
	assert.Nil(t, downloads)

	var typeID int64
	require.NoError(t, s.db.QueryRow(`SELECT downloadtypeid FROM downloadlinks`).Scan(&typeID))
	assert.Equal(t, int64(types.Unresolved), typeID)

	links, err := s.DownloadLinks(context.Background(), []uint64{77}, nil)
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.Equal(t, Link{CatalogID: 77, URL: "https://example.org/77.bin"}, links[0])
}

// --- query tests ---

func TestQueryEmptyFilterRoundTrip(t *testing.T) {
	s := sampleStore(t)

	ids, err := s.Query(context.Background(), query.Filter{})
	require.NoError(t, err)
	assert.Equal(t, []uint64{1, 25, 732, 1000, 41418, 90907}, ids)
}

func TestQueryFilters(t *testing.T) {
	s := sampleStore(t)

	tests := []struct {
		name   string
		filter query.Filter
		want   []uint64
	}{
		{"language", query.Filter{query.Language: "en"}, []uint64{1, 25, 732, 41418, 90907}},
		{"language and author", query.Filter{query.Language: "en", query.Author: "Jefferson, Thomas"}, []uint64{1}},
		{"language and rights", query.Filter{query.Language: "en", query.Rights: "Public domain in the USA."}, []uint64{1, 25, 732, 41418, 90907}},
		{"language and link type", query.Filter{query.Language: "en", query.DownloadLinksType: "image/jpeg"}, []uint64{1, 25, 732, 41418}},
		{"bookshelf in other language", query.Filter{query.Language: "en", query.Bookshelf: "IT Poesia"}, nil},
		{"bookshelf", query.Filter{query.Language: "it", query.Bookshelf: "IT Poesia"}, []uint64{1000}},
		{"alternative title", query.Filter{query.Title: "The Divine Comedy"}, []uint64{1000}},
		{"subject", query.Filter{query.Subject: "Smuggling -- Fiction"}, []uint64{41418}},
		{"publisher", query.Filter{query.Publisher: "Project Gutenberg"}, []uint64{1, 25, 732, 1000, 41418, 90907}},
		{"unknown value", query.Filter{query.Author: "Nobody"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ids, err := s.Query(context.Background(), tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestQueryConjunctionIsIntersection(t *testing.T) {
	s := sampleStore(t)
	ctx := context.Background()

	run := func(f query.Filter) []uint64 {
		ids, err := s.Query(ctx, f)
		require.NoError(t, err)
		return ids
	}

	pairs := []query.Filter{
		{query.Language: "en", query.Author: "Jefferson, Thomas"},
		{query.Language: "it", query.Bookshelf: "IT Poesia"},
		{query.Language: "en", query.DownloadLinksType: "text/plain; charset=iso-8859-1"},
	}
	for _, f := range pairs {
		t.Run(f.String(), func(t *testing.T) {
			var want []uint64
			left := map[uint64]bool{}
			keys := f.Keys()
			for _, id := range run(query.Filter{keys[0]: f[keys[0]]}) {
				left[id] = true
			}
			for _, id := range run(query.Filter{keys[1]: f[keys[1]]}) {
				if left[id] {
					want = append(want, id)
				}
			}
			sort.Slice(want, func(i, j int) bool { return want[i] < want[j] })
			assert.Equal(t, want, run(f))
		})
	}
}

// --- download link tests ---

func TestDownloadLinks(t *testing.T) {
	s := sampleStore(t)
	ctx := context.Background()

	all, err := s.DownloadLinks(ctx, []uint64{1, 25}, nil)
	require.NoError(t, err)
	assert.Len(t, all, 27)
	assert.Equal(t, uint64(1), all[0].CatalogID)
	assert.Equal(t, "https://www.gutenberg.org/ebooks/1.html.images", all[0].URL)
	assert.Equal(t, "text/html", all[0].Type)

	jpeg, err := s.FileTypeIDs(ctx, []string{"image/jpeg"})
	require.NoError(t, err)
	covers, err := s.DownloadLinks(ctx, []uint64{1, 25, 90907}, jpeg)
	require.NoError(t, err)
	require.Len(t, covers, 2)
	for _, l := range covers {
		assert.Equal(t, "image/jpeg", l.Type)
	}

	none, err := s.DownloadLinks(ctx, nil, jpeg)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestFileTypeIDs(t *testing.T) {
	s := sampleStore(t)
	ctx := context.Background()

	ids, err := s.FileTypeIDs(ctx, DefaultTextTypes)
	require.NoError(t, err)
	assert.Len(t, ids, 4)

	ids, err = s.FileTypeIDs(ctx, []string{"application/pdf", "image/jpeg"})
	require.NoError(t, err)
	assert.Len(t, ids, 1)

	_, err = s.FileTypeIDs(ctx, []string{"application/pdf"})
	assert.ErrorIs(t, err, types.ErrInvalidQuery)

	ids, err = s.FileTypeIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

// --- describe tests ---

func TestDescribe(t *testing.T) {
	s := sampleStore(t)

	books, err := s.Describe(context.Background(), []uint64{1000, 90907})
	require.NoError(t, err)
	require.Len(t, books, 2)

	dante := books[0]
	assert.Equal(t, uint64(1000), dante.ID)
	assert.Equal(t, []string{"La Divina Commedia di Dante: Complete", "The Divine Comedy"}, dante.Titles)
	assert.Equal(t, []string{"Dante Alighieri"}, dante.Authors)
	assert.Equal(t, []string{"it"}, dante.Languages)
	assert.Contains(t, dante.Bookshelves, "IT Poesia")
	assert.Equal(t, "Project Gutenberg", dante.Publisher)
	assert.Equal(t, "Public domain in the USA.", dante.Rights)
	assert.Equal(t, "1997-08-01", dante.Issued)
	assert.Equal(t, 517, dante.Downloads)

	assert.Empty(t, books[1].Authors)

	_, err = s.Describe(context.Background(), []uint64{4242})
	assert.ErrorIs(t, err, ErrBookNotFound)
}

func titledDoc(id int, elems string) string {
	return `<?xml version="1.0" encoding="utf-8"?>
<rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#"
  xmlns:dcterms="http://purl.org/dc/terms/"
  xmlns:pgterms="http://www.gutenberg.org/2009/pgterms/">
<pgterms:ebook rdf:about="ebooks/` + strconv.Itoa(id) + `">
` + elems + `
</pgterms:ebook>
</rdf:RDF>`
}

func TestDescribeListsPrimaryTitleFirst(t *testing.T) {
	c := textCorpus(t,
		titledDoc(1, `<dcterms:title>Shared</dcterms:title>`),
		titledDoc(2, `<dcterms:title>Primary Two</dcterms:title><dcterms:alternative>Shared</dcterms:alternative>`),
		titledDoc(3, `<dcterms:alternative>Alt Three</dcterms:alternative><dcterms:title>Primary Three</dcterms:title>`),
	)
	s := memoryStore(t)
	sum, err := s.Build(context.Background(), c)
	require.NoError(t, err)
	assert.Equal(t, 5, sum.Titles)

	books, err := s.Describe(context.Background(), []uint64{1, 2, 3})
	require.NoError(t, err)
	require.Len(t, books, 3)
	assert.Equal(t, []string{"Shared"}, books[0].Titles)
	assert.Equal(t, []string{"Primary Two", "Shared"}, books[1].Titles, "alternative seen in an earlier book")
	assert.Equal(t, []string{"Primary Three", "Alt Three"}, books[2].Titles, "alternative ahead of the title")

	// Alternatives stay searchable.
	ids, err := s.Query(context.Background(), query.Filter{query.Title: "Shared"})
	require.NoError(t, err)
	assert.Equal(t, []uint64{1, 2}, ids)
}
