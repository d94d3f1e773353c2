// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package matcher tracks progress along fixed element paths while a
// hierarchical document is streamed depth first, and captures the text or
// attribute values found at the end of those paths.
//
// Each matcher is driven by the same four events (Enter, Attr, Text,
// Leave) and is cleared with Reset at every document boundary.
package matcher

import (
	"fmt"
	"strings"

	"github.com/pdiddy/gutenberg-cache/pkg/types"
)

// ErrTypeBeforeLink reports type text inside a file block that has no
// preceding link attribute.
var ErrTypeBeforeLink = fmt.Errorf("%w: file type text before any file link", types.ErrMalformedSource)

// notStarted is the cursor value before the first path segment is entered.
const notStarted = -1

// Matcher is the event interface shared by all matchers.
type Matcher interface {
	// Enter is called when an element starts.
	Enter(name string)

	// Leave is called when an element ends.
	Leave(name string)

	// Attr is called for each attribute of the element just entered.
	Attr(name, value string, work int) error

	// Text is called with the trimmed, non-empty text of an element.
	Text(value string, work int) error

	// Found reports whether the cursor is at the end of the path.
	Found() bool

	// HasResults reports whether anything was captured since the last Reset.
	HasResults() bool

	// Reset returns the matcher to its freshly constructed state.
	Reset()
}

// Capturer is a Matcher whose captures are dictionary identifiers.
type Capturer interface {
	Matcher

	// Result returns the captured identifiers in capture order, or nil.
	Result() []int
}

// splitPath turns "a/b/c" into its segments. It panics on an empty
// segment since paths are fixed at construction.
func splitPath(path string) []string {
	segs := strings.Split(path, "/")
	for _, s := range segs {
		if s == "" {
			panic(fmt.Sprintf("matcher: empty segment in path %q", path))
		}
	}
	return segs
}

// cursor is the path-walking state shared by PathMatcher and FileLinkMatcher.
type cursor struct {
	path []string
	pos  int
}

func newCursor(path []string) cursor {
	return cursor{path: path, pos: notStarted}
}

func (c *cursor) enter(name string) {
	if c.pos == notStarted {
		if name == c.path[0] {
			c.pos = 0
		}
		return
	}
	next := c.pos + 1
	if next < len(c.path) && name == c.path[next] {
		c.pos = next
	}
}

func (c *cursor) leave(name string) {
	if c.pos > notStarted && c.path[c.pos] == name {
		c.pos--
	}
}

func (c *cursor) found() bool {
	return c.pos == len(c.path)-1
}

func (c *cursor) reset() {
	c.pos = notStarted
}
