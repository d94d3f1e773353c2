// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package acquire downloads the catalog archive and unpacks its
// documents.
package acquire

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/pdiddy/gutenberg-cache/internal/httputil"
	"github.com/pdiddy/gutenberg-cache/internal/progress"
	"github.com/pdiddy/gutenberg-cache/pkg/types"
)

// Options configures FetchArchive and Unpack.
type Options struct {
	// Force re-downloads or re-unpacks even when the output exists.
	Force bool

	// Progress receives bytes downloaded, or entries unpacked.
	Progress progress.Reporter

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

func (o Options) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.Default()
	}
	return o.Logger
}

// FetchResult describes one archive fetch.
type FetchResult struct {
	Path    string
	Bytes   int64
	Skipped bool
}

// FetchArchive downloads url to destPath. An existing file is kept unless
// opts.Force is set. The body is written to a temporary file in the
// destination directory and renamed on success, so an interrupted fetch
// never leaves a partial archive behind.
func FetchArchive(ctx context.Context, client *httputil.Client, url, destPath string, opts Options) (FetchResult, error) {
	logger := opts.logger()

	if !opts.Force {
		if info, err := os.Stat(destPath); err == nil {
			logger.Info("archive present, skipping download", "path", destPath, "bytes", info.Size())
			return FetchResult{Path: destPath, Bytes: info.Size(), Skipped: true}, nil
		}
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return FetchResult{}, fmt.Errorf("%w: creating directory for %s: %w", types.ErrIO, destPath, err)
	}

	logger.Info("downloading archive", "url", url, "path", destPath)
	resp, err := client.Get(ctx, url)
	if err != nil {
		return FetchResult{}, err
	}
	defer resp.Body.Close()

	n, err := writeAtomic(destPath, &countingReader{
		r:     resp.Body,
		total: max(resp.ContentLength, 0),
		rep:   progress.Or(opts.Progress),
	})
	if err != nil {
		return FetchResult{}, err
	}

	logger.Info("archive downloaded", "path", destPath, "bytes", n)
	return FetchResult{Path: destPath, Bytes: n}, nil
}

// writeAtomic copies r into a temporary file next to destPath and renames
// it into place.
func writeAtomic(destPath string, r io.Reader) (int64, error) {
	tmpFile, err := os.CreateTemp(filepath.Dir(destPath), ".acquire-*.tmp")
	if err != nil {
		return 0, fmt.Errorf("%w: creating temp file: %w", types.ErrIO, err)
	}
	tmpPath := tmpFile.Name()

	n, copyErr := io.Copy(tmpFile, r)
	closeErr := tmpFile.Close()
	if err := errors.Join(copyErr, closeErr); err != nil {
		os.Remove(tmpPath)
		return 0, fmt.Errorf("%w: writing %s: %w", types.ErrIO, destPath, err)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return 0, fmt.Errorf("%w: renaming temp file: %w", types.ErrIO, err)
	}
	return n, nil
}

// countingReader reports the running byte count of r.
type countingReader struct {
	r     io.Reader
	n     int64
	total int64
	rep   progress.Reporter
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	if n > 0 {
		c.n += int64(n)
		c.rep.Report(c.n, c.total)
	}
	return n, err
}
