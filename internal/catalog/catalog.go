// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package catalog prepares a queryable catalog cache: it reuses a
// populated cache, or fetches, unpacks and extracts the catalog archive
// and builds a new one.
package catalog

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/pdiddy/gutenberg-cache/internal/acquire"
	"github.com/pdiddy/gutenberg-cache/internal/cache"
	"github.com/pdiddy/gutenberg-cache/internal/extract"
	"github.com/pdiddy/gutenberg-cache/internal/httputil"
	"github.com/pdiddy/gutenberg-cache/internal/progress"
	"github.com/pdiddy/gutenberg-cache/pkg/types"
)

// progressInterval throttles progress lines.
const progressInterval = 2 * time.Second

// Options configures Setup.
type Options struct {
	// Rebuild discards an existing cache and builds it again.
	Rebuild bool

	// Refresh downloads and unpacks the archive even if present.
	Refresh bool

	// Progress receives human-readable progress lines. Nil disables them.
	Progress io.Writer

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Result is a ready cache and how it was obtained.
type Result struct {
	Store *cache.Store

	// Reused is set when an existing populated cache was opened as is.
	Reused bool

	Archive acquire.FetchResult
	Unpack  acquire.UnpackResult
	Build   cache.BuildSummary
}

// Setup returns a populated cache for cfg. The caller closes
// Result.Store.
func Setup(ctx context.Context, cfg types.Config, opts Options) (*Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	store, err := cache.Open(ctx, cfg.Cache, cache.Options{Recreate: opts.Rebuild, Logger: logger})
	if err != nil {
		return nil, err
	}

	res, err := populate(ctx, store, cfg, opts, logger)
	if err != nil {
		store.Close()
		return nil, err
	}
	return res, nil
}

func populate(ctx context.Context, store *cache.Store, cfg types.Config, opts Options, logger *slog.Logger) (*Result, error) {
	res := &Result{Store: store}

	empty, err := store.IsEmpty(ctx)
	if err != nil {
		return nil, err
	}
	if !empty {
		logger.Info("using existing cache", "path", store.Path())
		res.Reused = true
		return res, nil
	}

	client := httputil.NewClient(cfg.HTTP, logger)
	fetchOpts := acquire.Options{Force: opts.Refresh, Logger: logger}
	if opts.Progress != nil {
		fetchOpts.Progress = progress.NewWriter(opts.Progress, "download", progress.Bytes, progressInterval)
	}
	res.Archive, err = acquire.FetchArchive(ctx, client, cfg.Catalog.ArchiveURL, cfg.Catalog.ArchivePath, fetchOpts)
	if err != nil {
		return nil, fmt.Errorf("fetching catalog archive: %w", err)
	}

	unpackOpts := acquire.Options{Force: opts.Refresh || !res.Archive.Skipped, Logger: logger}
	if opts.Progress != nil {
		unpackOpts.Progress = progress.NewWriter(opts.Progress, "unpack", progress.Items, progressInterval)
	}
	res.Unpack, err = acquire.Unpack(ctx, cfg.Catalog.ArchivePath, cfg.Catalog.UnpackDir, unpackOpts)
	if err != nil {
		return nil, fmt.Errorf("unpacking catalog archive: %w", err)
	}

	extractOpts := extract.Options{Logger: logger}
	if opts.Progress != nil {
		extractOpts.Progress = progress.NewWriter(opts.Progress, "extract", progress.Items, progressInterval)
	}
	corpus, err := extract.ExtractDir(ctx, cfg.Catalog.UnpackDir, extractOpts)
	if err != nil {
		return nil, err
	}

	res.Build, err = store.Build(ctx, corpus)
	if err != nil {
		return nil, err
	}
	return res, nil
}
