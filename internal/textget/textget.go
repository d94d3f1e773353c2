// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package textget retrieves book texts through an on-disk cache and strips
// their distribution boilerplate.
package textget

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"golang.org/x/net/html/charset"

	"github.com/pdiddy/gutenberg-cache/internal/cache"
	"github.com/pdiddy/gutenberg-cache/internal/httputil"
	"github.com/pdiddy/gutenberg-cache/pkg/types"
)

var (
	// ErrInvalidLink is returned for links that do not name a file.
	ErrInvalidLink = fmt.Errorf("%w: invalid download link", types.ErrInvalidQuery)

	// ErrNoTextLink is returned when a work has no link of an accepted
	// text type.
	ErrNoTextLink = fmt.Errorf("%w: no text link", types.ErrInvalidQuery)

	// ErrUnreadableHTML is returned when an HTML edition cannot be
	// converted to text.
	ErrUnreadableHTML = fmt.Errorf("%w: unreadable html", types.ErrMalformedSource)
)

// Client fetches book texts, keeping every downloaded body in CacheDir
// under the last segment of its link path.
type Client struct {
	http     *httputil.Client
	cacheDir string
	mirror   *url.URL
	logger   *slog.Logger
}

// New returns a Client. An invalid mirror is an error.
func New(hc *httputil.Client, cfg types.TextConfig, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Client{http: hc, cacheDir: cfg.CacheDir, logger: logger}
	if cfg.Mirror != "" {
		m, err := url.Parse(cfg.Mirror)
		if err != nil || m.Scheme == "" || m.Host == "" {
			return nil, fmt.Errorf("%w: mirror %q is not an absolute URL", types.ErrInvalidQuery, cfg.Mirror)
		}
		c.mirror = m
	}
	return c, nil
}

// CachePath returns where the text behind link is cached.
func (c *Client) CachePath(link string) (string, error) {
	u, err := url.Parse(link)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %w", ErrInvalidLink, link, err)
	}
	name := path.Base(u.Path)
	if name == "." || name == "/" || name == ".." {
		return "", fmt.Errorf("%w: %q names no file", ErrInvalidLink, link)
	}
	return filepath.Join(c.cacheDir, name), nil
}

// Fetch returns the text behind link, from the cache when present. Bodies
// are decoded to UTF-8 using the charset of the response.
func (c *Client) Fetch(ctx context.Context, link string) (string, error) {
	cachePath, err := c.CachePath(link)
	if err != nil {
		return "", err
	}

	data, err := os.ReadFile(cachePath)
	if err == nil {
		c.logger.Debug("text cache hit", "link", link, "path", cachePath)
		return string(data), nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("%w: reading cached text %s: %w", types.ErrIO, cachePath, err)
	}

	source := c.resolve(link)
	c.logger.Info("downloading text", "url", source)
	resp, err := c.http.Get(ctx, source)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := charset.NewReader(resp.Body, resp.Header.Get("Content-Type"))
	if err != nil {
		return "", fmt.Errorf("%w: decoding %s: %w", types.ErrMalformedSource, source, err)
	}
	data, err = io.ReadAll(body)
	if err != nil {
		return "", fmt.Errorf("%w: reading %s: %w", types.ErrIO, source, err)
	}

	if err := c.store(cachePath, data); err != nil {
		return "", err
	}
	return string(data), nil
}

// resolve points link at the mirror, if one is configured.
func (c *Client) resolve(link string) string {
	if c.mirror == nil {
		return link
	}
	u, err := url.Parse(link)
	if err != nil {
		return link
	}
	u.Scheme = c.mirror.Scheme
	u.Host = c.mirror.Host
	u.Path = strings.TrimSuffix(c.mirror.Path, "/") + u.Path
	return u.String()
}

func (c *Client) store(cachePath string, data []byte) error {
	if err := os.MkdirAll(c.cacheDir, 0o755); err != nil {
		return fmt.Errorf("%w: creating text cache: %w", types.ErrIO, err)
	}
	tmp, err := os.CreateTemp(c.cacheDir, ".text-*.tmp")
	if err != nil {
		return fmt.Errorf("%w: creating temp file: %w", types.ErrIO, err)
	}
	_, writeErr := tmp.Write(data)
	closeErr := tmp.Close()
	if err := errors.Join(writeErr, closeErr); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("%w: writing %s: %w", types.ErrIO, cachePath, err)
	}
	if err := os.Rename(tmp.Name(), cachePath); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("%w: renaming temp file: %w", types.ErrIO, err)
	}
	return nil
}

// LinkSource looks up download links of cached works.
type LinkSource interface {
	FileTypeIDs(ctx context.Context, names []string) ([]int64, error)
	DownloadLinks(ctx context.Context, ids []uint64, typeIDs []int64) ([]cache.Link, error)
}

// TextLink picks the link of work id whose type comes first in textTypes.
func TextLink(ctx context.Context, src LinkSource, id uint64, textTypes []string) (cache.Link, error) {
	typeIDs, err := src.FileTypeIDs(ctx, textTypes)
	if err != nil {
		if errors.Is(err, types.ErrInvalidQuery) {
			return cache.Link{}, fmt.Errorf("%w for ebook %d", ErrNoTextLink, id)
		}
		return cache.Link{}, err
	}
	links, err := src.DownloadLinks(ctx, []uint64{id}, typeIDs)
	if err != nil {
		return cache.Link{}, err
	}
	if len(links) == 0 {
		return cache.Link{}, fmt.Errorf("%w for ebook %d", ErrNoTextLink, id)
	}

	best := links[0]
	for _, l := range links[1:] {
		if rank(l.Type, textTypes) < rank(best.Type, textTypes) {
			best = l
		}
	}
	return best, nil
}

func rank(typ string, textTypes []string) int {
	if i := slices.Index(textTypes, typ); i >= 0 {
		return i
	}
	return len(textTypes)
}

// Text fetches the plain text of work id, optionally stripped of its
// boilerplate. Works without a plain text link fall back to their HTML
// edition rendered as Markdown.
func (c *Client) Text(ctx context.Context, src LinkSource, id uint64, strip bool) (string, error) {
	isHTML := false
	link, err := TextLink(ctx, src, id, cache.DefaultTextTypes)
	if errors.Is(err, ErrNoTextLink) {
		link, err = TextLink(ctx, src, id, HTMLTypes)
		isHTML = err == nil
	}
	if err != nil {
		return "", err
	}
	text, err := c.Fetch(ctx, link.URL)
	if err != nil {
		return "", err
	}
	if isHTML {
		c.logger.Debug("converting html edition", "ebook", id, "url", link.URL)
		if text, err = htmlToText(text, link.URL); err != nil {
			return "", err
		}
	}
	if strip {
		text = StripHeaders(text)
	}
	return text, nil
}
