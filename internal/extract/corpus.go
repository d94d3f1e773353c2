// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pdiddy/gutenberg-cache/internal/dictionary"
	"github.com/pdiddy/gutenberg-cache/internal/progress"
	"github.com/pdiddy/gutenberg-cache/pkg/types"
)

// Corpus is the result of extracting a set of documents: one work per
// document in input order, one dictionary per field kind, and the file
// type dictionary.
type Corpus struct {
	Works []types.Work

	// Fields is indexed by types.FieldKind. The FieldFiles slot holds
	// the file link dictionary.
	Fields [types.FieldKindCount]*dictionary.Dictionary

	// Types holds the file media types.
	Types *dictionary.Dictionary
}

// NewCorpus returns an empty corpus.
func NewCorpus() *Corpus {
	return &Corpus{
		Fields: newCorpusDictionaries(),
		Types:  dictionary.New(),
	}
}

// Dictionary returns the dictionary of the given field kind.
func (c *Corpus) Dictionary(kind types.FieldKind) *dictionary.Dictionary {
	return c.Fields[kind]
}

// Links returns the file link dictionary.
func (c *Corpus) Links() *dictionary.Dictionary {
	return c.Fields[types.FieldFiles]
}

// Options configures ExtractAll.
type Options struct {
	// Progress receives the number of processed documents. Nil
	// disables reporting.
	Progress progress.Reporter

	// Logger receives extraction events. Defaults to slog.Default().
	Logger *slog.Logger
}

// ExtractAll reduces every source to a work, in order. The first failing
// document aborts the run; the error names the document. Cancellation is
// observed between documents.
func ExtractAll(ctx context.Context, sources []Source, opts Options) (*Corpus, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	rep := progress.Or(opts.Progress)
	total := int64(len(sources))

	corpus := NewCorpus()
	corpus.Works = make([]types.Work, 0, len(sources))
	ex := NewExtractor(corpus)
	seen := make(map[uint64]int, len(sources))

	start := time.Now()
	logger.Info("extracting catalog", "documents", len(sources))

	for i, src := range sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		w, err := extractOne(ex, src, i+1)
		if err != nil {
			logger.Error("extraction failed", "source", src.String(), "document", i+1, "error", err)
			return nil, fmt.Errorf("extracting %s: %w", src, err)
		}
		if prev, dup := seen[w.CatalogID]; dup {
			return nil, fmt.Errorf("extracting %s: %w: ebook %d already read from document %d", src, types.ErrInvalidIdentifier, w.CatalogID, prev)
		}
		seen[w.CatalogID] = i + 1
		corpus.Works = append(corpus.Works, w)
		rep.Report(int64(i+1), total)
	}

	logger.Info("extraction complete",
		"works", len(corpus.Works),
		"links", corpus.Links().Len(),
		"types", corpus.Types.Len(),
		"elapsed", time.Since(start).Round(time.Millisecond),
	)
	return corpus, nil
}

// ExtractDir extracts every catalog document found below dir.
func ExtractDir(ctx context.Context, dir string, opts Options) (*Corpus, error) {
	paths, err := ListDocuments(dir)
	if err != nil {
		return nil, err
	}
	return ExtractAll(ctx, FileSources(paths), opts)
}

func extractOne(ex *Extractor, src Source, ordinal int) (types.Work, error) {
	rc, err := src.open()
	if err != nil {
		return types.Work{}, err
	}
	defer rc.Close()
	return ex.Extract(rc, ordinal)
}
