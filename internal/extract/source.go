// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pdiddy/gutenberg-cache/pkg/types"
)

// documentExt is the extension of catalog documents in an unpacked archive.
const documentExt = ".rdf"

// Source is one catalog document, read either from a file or from memory.
type Source struct {
	path    string
	content string
}

// FileSource returns a Source that reads the document at path.
func FileSource(path string) Source {
	return Source{path: path}
}

// TextSource returns a Source over an in-memory document.
func TextSource(content string) Source {
	return Source{content: content}
}

// String names the source for error messages.
func (s Source) String() string {
	if s.path != "" {
		return s.path
	}
	return "<inline document>"
}

func (s Source) open() (io.ReadCloser, error) {
	if s.path == "" {
		return io.NopCloser(strings.NewReader(s.content)), nil
	}
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %w", types.ErrIO, s.path, err)
	}
	return f, nil
}

// FileSources wraps each path in a FileSource.
func FileSources(paths []string) []Source {
	out := make([]Source, len(paths))
	for i, p := range paths {
		out[i] = FileSource(p)
	}
	return out
}

// TextSources wraps each document in a TextSource.
func TextSources(docs []string) []Source {
	out := make([]Source, len(docs))
	for i, d := range docs {
		out[i] = TextSource(d)
	}
	return out
}

// ListDocuments returns the catalog documents below dir in lexical order.
func ListDocuments(dir string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), documentExt) {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: listing documents in %s: %w", types.ErrIO, dir, err)
	}
	sort.Strings(paths)
	return paths, nil
}
