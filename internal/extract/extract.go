// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extract streams catalog documents through the field matchers
// and reduces each one to a work record, interning field values into
// corpus-wide dictionaries.
package extract

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/net/html/charset"

	"github.com/pdiddy/gutenberg-cache/internal/dictionary"
	"github.com/pdiddy/gutenberg-cache/internal/matcher"
	"github.com/pdiddy/gutenberg-cache/pkg/types"
)

// Element paths of the catalog fields, relative to the ebook element.
const (
	titlePath            = "dcterms:title"
	titleAlternativePath = "dcterms:alternative"
	subjectPath          = "dcterms:subject/rdf:Description/rdf:value"
	languagePath         = "dcterms:language/rdf:Description/rdf:value"
	authorPath           = "dcterms:creator/pgterms:agent/pgterms:name"
	authorAlternatePath  = "dcterms:creator/pgterms:agent/pgterms:agent"
	bookshelfPath        = "pgterms:bookshelf/rdf:Description/rdf:value"
	fileLinkPath         = "dcterms:hasFormat/pgterms:file"
	fileTypePath         = "dcterms:format/rdf:Description/rdf:value"
	fileLinkAttr         = "rdf:about"
	publisherPath        = "dcterms:publisher"
	rightsPath           = "dcterms:rights"
	issuedPath           = "dcterms:issued"
	downloadsPath        = "pgterms:downloads"

	ebookElement = "pgterms:ebook"
	ebookIDAttr  = "rdf:about"
)

// namespacePrefixes maps the catalog's namespace URIs to the prefixes the
// element paths are written with.
var namespacePrefixes = map[string]string{
	"http://www.w3.org/1999/02/22-rdf-syntax-ns#": "rdf",
	"http://www.w3.org/2000/01/rdf-schema#":       "rdfs",
	"http://purl.org/dc/terms/":                   "dcterms",
	"http://purl.org/dc/dcam/":                    "dcam",
	"http://www.gutenberg.org/2009/pgterms/":      "pgterms",
	"http://web.resource.org/cc/":                 "cc",
	"http://id.loc.gov/vocabulary/relators/":      "marcrel",
	"http://www.w3.org/XML/1998/namespace":        "xml",
}

// qualify renders name as prefix:local.
func qualify(name xml.Name) string {
	if name.Space == "" {
		return name.Local
	}
	if p, ok := namespacePrefixes[name.Space]; ok {
		return p + ":" + name.Local
	}
	return name.Space + ":" + name.Local
}

// Extractor holds one matcher per field and reduces documents to works.
// It is reused across documents and reset between them.
type Extractor struct {
	corpus *Corpus

	// all receives every traversal event, in this order.
	all []matcher.Matcher

	title     *matcher.AlternationMatcher
	subject   *matcher.PathMatcher
	language  *matcher.PathMatcher
	author    *matcher.AlternationMatcher
	bookshelf *matcher.PathMatcher
	files     *matcher.FileLinkMatcher
	publisher *matcher.PathMatcher
	rights    *matcher.PathMatcher
	issued    *matcher.PathMatcher
	downloads *matcher.PathMatcher
}

// NewExtractor returns an extractor interning into c's dictionaries.
func NewExtractor(c *Corpus) *Extractor {
	e := &Extractor{
		corpus:    c,
		title:     matcher.NewAlternationPaths(c.Fields[types.FieldTitle], titlePath, titleAlternativePath),
		subject:   matcher.NewPath(subjectPath, c.Fields[types.FieldSubject]),
		language:  matcher.NewPath(languagePath, c.Fields[types.FieldLanguage]),
		author:    matcher.NewAlternationPaths(c.Fields[types.FieldAuthor], authorPath, authorAlternatePath),
		bookshelf: matcher.NewPath(bookshelfPath, c.Fields[types.FieldBookshelf]),
		files:     matcher.NewFileLink(fileLinkPath, fileTypePath, fileLinkAttr, c.Links(), c.Types),
		publisher: matcher.NewPath(publisherPath, c.Fields[types.FieldPublisher]),
		rights:    matcher.NewPath(rightsPath, c.Fields[types.FieldRights]),
		issued:    matcher.NewPath(issuedPath, c.Fields[types.FieldDateIssued]),
		downloads: matcher.NewPath(downloadsPath, c.Fields[types.FieldDownloads]),
	}
	e.all = []matcher.Matcher{
		e.title, e.subject, e.language, e.author, e.bookshelf,
		e.files, e.publisher, e.rights, e.issued, e.downloads,
	}
	return e
}

// Extract traverses one document and returns its work. ordinal is the
// document's 1-based position in the corpus. Matchers are reset before
// Extract returns, whether or not it succeeds.
func (e *Extractor) Extract(r io.Reader, ordinal int) (types.Work, error) {
	defer e.reset()

	catalogID, found, err := e.traverse(r, ordinal)
	if err != nil {
		return types.Work{}, err
	}
	if !found {
		return types.Work{}, fmt.Errorf("%w: no %s@%s element", types.ErrInvalidIdentifier, ebookElement, ebookIDAttr)
	}
	return e.assemble(catalogID, ordinal)
}

func (e *Extractor) traverse(r io.Reader, ordinal int) (catalogID uint64, found bool, err error) {
	dec := xml.NewDecoder(r)
	dec.CharsetReader = charset.NewReaderLabel

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return catalogID, found, nil
		}
		if err != nil {
			return 0, false, fmt.Errorf("%w: %w", types.ErrMalformedSource, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			name := qualify(t.Name)
			if name == ebookElement {
				// The ebook element sets the work context and is not routed
				// to the matchers.
				for _, a := range t.Attr {
					if qualify(a.Name) != ebookIDAttr {
						continue
					}
					if found {
						return 0, false, fmt.Errorf("%w: more than one %s element", types.ErrInvalidIdentifier, ebookElement)
					}
					id, err := parseCatalogID(a.Value)
					if err != nil {
						return 0, false, err
					}
					catalogID, found = id, true
				}
				continue
			}
			for _, m := range e.all {
				m.Enter(name)
				for _, a := range t.Attr {
					if err := m.Attr(qualify(a.Name), a.Value, ordinal); err != nil {
						return 0, false, err
					}
				}
			}

		case xml.EndElement:
			name := qualify(t.Name)
			for _, m := range e.all {
				m.Leave(name)
			}

		case xml.CharData:
			text := strings.TrimSpace(string(t))
			if text == "" {
				continue
			}
			for _, m := range e.all {
				if err := m.Text(text, ordinal); err != nil {
					return 0, false, err
				}
			}
		}
	}
}

// parseCatalogID parses an ebook reference of the form "ebooks/<n>". The
// number must fit a signed 64-bit SQLite integer.
func parseCatalogID(about string) (uint64, error) {
	parts := strings.Split(about, "/")
	if len(parts) != 2 {
		return 0, fmt.Errorf("%w: catalog reference %q is not <segment>/<number>", types.ErrInvalidIdentifier, about)
	}
	id, err := strconv.ParseUint(parts[1], 10, 63)
	if err != nil {
		return 0, fmt.Errorf("%w: catalog reference %q: %w", types.ErrInvalidIdentifier, about, err)
	}
	return id, nil
}

func (e *Extractor) assemble(catalogID uint64, ordinal int) (types.Work, error) {
	w := types.Work{
		CatalogID:    catalogID,
		Ordinal:      ordinal,
		TitleID:      first(e.title.Result()),
		PublisherID:  first(e.publisher.Result()),
		RightsID:     first(e.rights.Result()),
		DateIssuedID: first(e.issued.Result()),
		DownloadsID:  first(e.downloads.Result()),
		LanguageIDs:  e.language.Result(),
		SubjectIDs:   e.subject.Result(),
		AuthorIDs:    e.author.Result(),
		BookshelfIDs: e.bookshelf.Result(),
		Files:        e.files.Files(),
	}

	if v, ok := e.corpus.Fields[types.FieldDateIssued].Value(w.DateIssuedID); ok {
		w.DateIssued = v
	}
	if v, ok := e.corpus.Fields[types.FieldDownloads].Value(w.DownloadsID); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return types.Work{}, fmt.Errorf("%w: download count %q of ebook %d: %w", types.ErrInvalidIdentifier, v, catalogID, err)
		}
		w.Downloads = n
	}
	return w, nil
}

func (e *Extractor) reset() {
	for _, m := range e.all {
		m.Reset()
	}
}

func first(ids []int) int {
	if len(ids) == 0 {
		return types.Unresolved
	}
	return ids[0]
}

// newCorpusDictionaries allocates one dictionary per field kind.
func newCorpusDictionaries() [types.FieldKindCount]*dictionary.Dictionary {
	var d [types.FieldKindCount]*dictionary.Dictionary
	for i := range d {
		d[i] = dictionary.New()
	}
	return d
}
