// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/gutenberg-cache/internal/dictionary"
	"github.com/pdiddy/gutenberg-cache/pkg/types"
)

// --- test helpers ---

// feed drives matchers with the events of a streamed document.
type feed struct {
	t    *testing.T
	ms   []Matcher
	work int
}

func newFeed(t *testing.T, work int, ms ...Matcher) *feed {
	return &feed{t: t, ms: ms, work: work}
}

func (f *feed) open(name string, attrs ...string) *feed {
	f.t.Helper()
	for _, m := range f.ms {
		m.Enter(name)
		for i := 0; i+1 < len(attrs); i += 2 {
			require.NoError(f.t, m.Attr(attrs[i], attrs[i+1], f.work))
		}
	}
	return f
}

func (f *feed) text(value string) *feed {
	f.t.Helper()
	for _, m := range f.ms {
		require.NoError(f.t, m.Text(value, f.work))
	}
	return f
}

func (f *feed) close(name string) *feed {
	for _, m := range f.ms {
		m.Leave(name)
	}
	return f
}

// leaf opens name, emits text and closes it again.
func (f *feed) leaf(name, text string) *feed {
	f.t.Helper()
	return f.open(name).text(text).close(name)
}

const subjectPath = "dcterms:subject/rdf:Description/rdf:value"

// --- PathMatcher ---

func TestPathMatcherCapturesAtEndOfPath(t *testing.T) {
	dict := dictionary.New()
	m := NewPath(subjectPath, dict)

	f := newFeed(t, 1, m)
	f.open("dcterms:subject")
	assert.False(t, m.Found())
	f.open("rdf:Description", "rdf:nodeID", "N1")
	f.open("dcam:memberOf", "rdf:resource", "http://purl.org/dc/terms/LCSH").close("dcam:memberOf")
	assert.False(t, m.Found(), "sibling not on the path must not advance")
	f.open("rdf:value")
	assert.True(t, m.Found())
	f.text("Fiction").close("rdf:value")
	assert.False(t, m.Found())
	f.close("rdf:Description").close("dcterms:subject")

	require.True(t, m.HasResults())
	assert.Equal(t, []int{0}, m.Result())
	v, _ := dict.Value(0)
	assert.Equal(t, "Fiction", v)
}

func TestPathMatcherIgnoresTextOffPath(t *testing.T) {
	dict := dictionary.New()
	m := NewPath(subjectPath, dict)

	newFeed(t, 1, m).
		leaf("dcterms:title", "A Title").
		open("dcterms:type").open("rdf:Description").leaf("rdf:value", "Text").close("rdf:Description").close("dcterms:type").
		open("dcterms:subject").text("stray").close("dcterms:subject")

	assert.False(t, m.HasResults())
	assert.Nil(t, m.Result())
	assert.Equal(t, 0, dict.Len())
}

func TestPathMatcherCollectsRepeatedBlocks(t *testing.T) {
	dict := dictionary.New()
	m := NewPath(subjectPath, dict)

	f := newFeed(t, 7, m)
	for _, s := range []string{"Poetry", "Italy", "Poetry"} {
		f.open("dcterms:subject").open("rdf:Description").leaf("rdf:value", s).close("rdf:Description").close("dcterms:subject")
	}

	assert.Equal(t, []int{0, 1, 0}, m.Result())
	e, _ := dict.Entry(0)
	assert.Equal(t, []int{7, 7}, e.BackLinks)
}

func TestPathMatcherSingleSegment(t *testing.T) {
	dict := dictionary.New()
	m := NewPath("dcterms:publisher", dict)

	newFeed(t, 1, m).leaf("dcterms:publisher", "Project Gutenberg")

	assert.Equal(t, []int{0}, m.Result())
	assert.False(t, m.Found())
}

func TestAttrPathMatcher(t *testing.T) {
	dict := dictionary.New()
	m := NewAttrPath("dcterms:creator/pgterms:agent", "rdf:about", dict)

	newFeed(t, 2, m).
		open("dcterms:creator").
		open("pgterms:agent", "rdf:about", "2009/agents/1638", "other", "ignored").
		leaf("pgterms:name", "Jefferson, Thomas").
		close("pgterms:agent").
		close("dcterms:creator")

	require.Equal(t, []int{0}, m.Result())
	v, _ := dict.Value(0)
	assert.Equal(t, "2009/agents/1638", v)
	assert.Equal(t, 1, dict.Len(), "text must not be captured by an attribute matcher")
}

func TestTextMatcherIgnoresAttributes(t *testing.T) {
	dict := dictionary.New()
	m := NewPath("dcterms:title", dict)

	newFeed(t, 1, m).open("dcterms:title", "rdf:about", "x").close("dcterms:title")

	assert.False(t, m.HasResults())
}

func TestNewPathRejectsEmptySegment(t *testing.T) {
	assert.Panics(t, func() { NewPath("a//b", dictionary.New()) })
	assert.Panics(t, func() { NewPath("", dictionary.New()) })
}

// --- AlternationMatcher ---

func TestAlternationPrefersEarlierChild(t *testing.T) {
	dict := dictionary.New()
	m := NewAlternationPaths(dict, "dcterms:title", "dcterms:alternative")

	// The alternative path is satisfied first in document order.
	newFeed(t, 1, m).
		leaf("dcterms:alternative", "Inferno").
		leaf("dcterms:title", "La Divina Commedia")

	require.True(t, m.HasResults())
	got := m.Result()
	require.Len(t, got, 1)
	v, _ := dict.Value(got[0])
	assert.Equal(t, "La Divina Commedia", v)
	assert.Equal(t, 2, dict.Len(), "later alternatives are still interned")
}

func TestAlternationFallsBackToLaterChild(t *testing.T) {
	dict := dictionary.New()
	m := NewAlternationPaths(dict,
		"dcterms:creator/pgterms:agent/pgterms:name",
		"dcterms:creator/pgterms:agent/pgterms:agent",
	)

	newFeed(t, 1, m).
		open("dcterms:creator").open("pgterms:agent").
		leaf("pgterms:agent", "Anonymous").
		close("pgterms:agent").close("dcterms:creator")

	got := m.Result()
	require.Len(t, got, 1)
	v, _ := dict.Value(got[0])
	assert.Equal(t, "Anonymous", v)
}

func TestAlternationFoundIfAnyChildFound(t *testing.T) {
	m := NewAlternationPaths(dictionary.New(), "a", "b")
	m.Enter("b")
	assert.True(t, m.Found())
	m.Leave("b")
	assert.False(t, m.Found())
	assert.Nil(t, m.Result())
}

// --- FileLinkMatcher ---

const (
	fileLinkPath = "dcterms:hasFormat/pgterms:file"
	fileTypePath = "dcterms:format/rdf:Description/rdf:value"
)

// fileBlock feeds one file block. An empty link omits the link attribute.
func fileBlock(f *feed, link string, formats ...string) {
	f.t.Helper()
	var attrs []string
	if link != "" {
		attrs = []string{"rdf:about", link}
	}
	f.open("dcterms:hasFormat").open("pgterms:file", attrs...)
	f.leaf("dcterms:extent", "12345")
	for _, ft := range formats {
		f.open("dcterms:format").open("rdf:Description", "rdf:nodeID", "N")
		f.open("dcam:memberOf", "rdf:resource", "http://purl.org/dc/terms/IMT").close("dcam:memberOf")
		f.leaf("rdf:value", ft)
		f.close("rdf:Description").close("dcterms:format")
	}
	f.close("pgterms:file").close("dcterms:hasFormat")
}

func TestFileLinkPairsLinksWithTypes(t *testing.T) {
	links, fileTypes := dictionary.New(), dictionary.New()
	m := NewFileLink(fileLinkPath, fileTypePath, "rdf:about", links, fileTypes)

	f := newFeed(t, 3, m)
	fileBlock(f, "https://www.gutenberg.org/ebooks/1.html.images", "text/html")
	fileBlock(f, "https://www.gutenberg.org/ebooks/1.epub3.images", "application/epub+zip")
	fileBlock(f, "https://www.gutenberg.org/cache/epub/1/pg1.cover.medium.jpg", "image/jpeg")
	fileBlock(f, "https://www.gutenberg.org/files/1/1.html", "text/html")

	files := m.Files()
	require.Len(t, files, 4)
	wantTypes := []string{"text/html", "application/epub+zip", "image/jpeg", "text/html"}
	for i, fe := range files {
		assert.Equal(t, i, fe.LinkID)
		got, ok := fileTypes.Value(fe.TypeID)
		require.True(t, ok)
		assert.Equal(t, wantTypes[i], got, "entry %d", i)
	}
	assert.Equal(t, 4, links.Len())
	assert.Equal(t, 3, fileTypes.Len())
}

func TestFileLinkWithoutTypeStaysUnresolved(t *testing.T) {
	m := NewFileLink(fileLinkPath, fileTypePath, "rdf:about", dictionary.New(), dictionary.New())

	fileBlock(newFeed(t, 1, m), "https://example.org/a.txt")

	files := m.Files()
	require.Len(t, files, 1)
	assert.Equal(t, types.Unresolved, files[0].TypeID)
}

func TestFileLinkLastTypeWins(t *testing.T) {
	fileTypes := dictionary.New()
	m := NewFileLink(fileLinkPath, fileTypePath, "rdf:about", dictionary.New(), fileTypes)

	fileBlock(newFeed(t, 1, m), "https://example.org/1-0.zip", "text/plain; charset=utf-8", "application/zip")

	files := m.Files()
	require.Len(t, files, 1)
	v, _ := fileTypes.Value(files[0].TypeID)
	assert.Equal(t, "application/zip", v)
	assert.Equal(t, 2, fileTypes.Len())
}

func TestFileLinkBlockWithoutLinkRetypesPreviousEntry(t *testing.T) {
	links, fileTypes := dictionary.New(), dictionary.New()
	m := NewFileLink(fileLinkPath, fileTypePath, "rdf:about", links, fileTypes)
	f := newFeed(t, 1, m)
	fileBlock(f, "https://example.org/1.txt", "text/plain")
	fileBlock(f, "", "text/html")

	files := m.Files()
	require.Len(t, files, 1)
	assert.Equal(t, 1, links.Len())
	typ, _ := fileTypes.Value(files[0].TypeID)
	assert.Equal(t, "text/html", typ)
}

func TestFileLinkTypeBeforeLinkIsError(t *testing.T) {
	fileTypes := dictionary.New()
	m := NewFileLink(fileLinkPath, fileTypePath, "rdf:about", dictionary.New(), fileTypes)

	for _, name := range []string{"dcterms:hasFormat", "pgterms:file", "dcterms:format", "rdf:Description", "rdf:value"} {
		m.Enter(name)
	}
	require.True(t, m.Found())

	err := m.Text("text/plain", 1)
	require.ErrorIs(t, err, ErrTypeBeforeLink)
	assert.ErrorIs(t, err, types.ErrMalformedSource)
	assert.Equal(t, 0, fileTypes.Len())
}

func TestFileLinkIgnoresAttributeOffLinkElement(t *testing.T) {
	m := NewFileLink(fileLinkPath, fileTypePath, "rdf:about", dictionary.New(), dictionary.New())

	newFeed(t, 1, m).
		open("pgterms:ebook", "rdf:about", "ebooks/1").
		open("dcterms:hasFormat", "rdf:about", "nope").
		close("dcterms:hasFormat").
		close("pgterms:ebook")

	assert.False(t, m.HasResults())
}

// --- Reset ---

func TestResetRestoresFreshState(t *testing.T) {
	type observable struct {
		found, hasResults bool
		result            any
	}
	observe := func(m Matcher) observable {
		o := observable{found: m.Found(), hasResults: m.HasResults()}
		switch v := m.(type) {
		case Capturer:
			o.result = v.Result()
		case *FileLinkMatcher:
			o.result = v.Files()
		}
		return o
	}

	// Each constructor interns into the given dictionaries, so two matchers
	// built over the same pair report identical identifiers.
	build := map[string]func(values, fileTypes *dictionary.Dictionary) Matcher{
		"path": func(values, _ *dictionary.Dictionary) Matcher { return NewPath(subjectPath, values) },
		"attr": func(values, _ *dictionary.Dictionary) Matcher {
			return NewAttrPath("dcterms:hasFormat/pgterms:file", "rdf:about", values)
		},
		"alternation": func(values, _ *dictionary.Dictionary) Matcher {
			return NewAlternationPaths(values, "dcterms:title", "dcterms:alternative")
		},
		"filelink": func(values, fileTypes *dictionary.Dictionary) Matcher {
			return NewFileLink(fileLinkPath, fileTypePath, "rdf:about", values, fileTypes)
		},
	}

	for name, mk := range build {
		t.Run(name, func(t *testing.T) {
			fresh := observe(mk(dictionary.New(), dictionary.New()))

			values, fileTypes := dictionary.New(), dictionary.New()
			m := mk(values, fileTypes)
			f := newFeed(t, 1, m)
			f.leaf("dcterms:title", "T").leaf("dcterms:alternative", "A")
			f.open("dcterms:subject").open("rdf:Description").leaf("rdf:value", "S").close("rdf:Description").close("dcterms:subject")
			fileBlock(f, "https://example.org/x", "text/plain")
			// Leave the cursor mid-path.
			f.open("dcterms:subject").open("rdf:Description").open("rdf:value")
			f.open("dcterms:hasFormat").open("pgterms:file", "rdf:about", "https://example.org/y").
				open("dcterms:format").open("rdf:Description").open("rdf:value")

			m.Reset()
			assert.Equal(t, fresh, observe(m))

			// A reset matcher walks a new document like a fresh one.
			again, ref := m, mk(values, fileTypes)
			for _, mm := range []Matcher{again, ref} {
				g := newFeed(t, 2, mm)
				g.leaf("dcterms:title", "T2")
				g.open("dcterms:subject").open("rdf:Description").leaf("rdf:value", "S2").close("rdf:Description").close("dcterms:subject")
				fileBlock(g, "https://example.org/z", "text/html")
			}
			assert.Equal(t, observe(ref), observe(again))
			assert.True(t, observe(again).hasResults)
		})
	}
}

func TestResultIsDetachedFromReset(t *testing.T) {
	m := NewPath("dcterms:title", dictionary.New())
	newFeed(t, 1, m).leaf("dcterms:title", "Kept")

	got := m.Result()
	m.Reset()
	newFeed(t, 2, m).leaf("dcterms:title", "Other")

	assert.Equal(t, []int{0}, got)
	assert.Equal(t, []int{1}, m.Result())
}
