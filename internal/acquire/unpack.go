// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package acquire

import (
	"archive/tar"
	"bufio"
	"compress/bzip2"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/gutenberg-cache/internal/progress"
	"github.com/pdiddy/gutenberg-cache/pkg/types"
)

// unpackedMarker is written into the destination once an archive has
// been fully unpacked.
const unpackedMarker = ".unpacked"

// UnpackResult describes one unpack run.
type UnpackResult struct {
	Dir     string
	Files   int
	Skipped bool
}

// Unpack extracts the regular files of a tar.bz2 archive below destDir. A
// destination already marked as unpacked is left alone unless opts.Force
// is set. Entries that would escape destDir are rejected.
func Unpack(ctx context.Context, archivePath, destDir string, opts Options) (UnpackResult, error) {
	logger := opts.logger()
	marker := filepath.Join(destDir, unpackedMarker)

	if !opts.Force {
		if _, err := os.Stat(marker); err == nil {
			logger.Info("archive already unpacked", "dir", destDir)
			return UnpackResult{Dir: destDir, Skipped: true}, nil
		}
	}

	f, err := os.Open(archivePath)
	if err != nil {
		return UnpackResult{}, fmt.Errorf("%w: opening archive: %w", types.ErrIO, err)
	}
	defer f.Close()

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return UnpackResult{}, fmt.Errorf("%w: creating %s: %w", types.ErrIO, destDir, err)
	}

	logger.Info("unpacking archive", "archive", archivePath, "dir", destDir)
	rep := progress.Or(opts.Progress)
	tr := tar.NewReader(bzip2.NewReader(bufio.NewReader(f)))

	files := 0
	for {
		if err := ctx.Err(); err != nil {
			return UnpackResult{}, err
		}

		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return UnpackResult{}, fmt.Errorf("%w: reading archive %s: %w", types.ErrMalformedSource, archivePath, err)
		}

		target, err := entryPath(destDir, hdr.Name)
		if err != nil {
			return UnpackResult{}, err
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return UnpackResult{}, fmt.Errorf("%w: creating %s: %w", types.ErrIO, target, err)
			}
		case tar.TypeReg:
			if err := writeEntry(target, tr); err != nil {
				return UnpackResult{}, err
			}
			files++
			rep.Report(int64(files), 0)
		default:
			logger.Debug("skipping archive entry", "name", hdr.Name, "type", string(hdr.Typeflag))
		}
	}

	if err := os.WriteFile(marker, nil, 0o644); err != nil {
		return UnpackResult{}, fmt.Errorf("%w: writing unpack marker: %w", types.ErrIO, err)
	}
	logger.Info("archive unpacked", "dir", destDir, "files", files)
	return UnpackResult{Dir: destDir, Files: files}, nil
}

// entryPath joins name onto destDir, refusing absolute names and names
// that climb out of destDir.
func entryPath(destDir, name string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(name))
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: archive entry %q escapes destination", types.ErrMalformedSource, name)
	}
	return filepath.Join(destDir, clean), nil
}

func writeEntry(target string, r io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("%w: creating %s: %w", types.ErrIO, filepath.Dir(target), err)
	}
	out, err := os.Create(target)
	if err != nil {
		return fmt.Errorf("%w: creating %s: %w", types.ErrIO, target, err)
	}
	_, copyErr := io.Copy(out, r)
	closeErr := out.Close()
	if err := errors.Join(copyErr, closeErr); err != nil {
		return fmt.Errorf("%w: writing %s: %w", types.ErrIO, target, err)
	}
	return nil
}
