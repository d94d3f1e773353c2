// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package matcher

import (
	"slices"

	"github.com/pdiddy/gutenberg-cache/internal/dictionary"
	"github.com/pdiddy/gutenberg-cache/pkg/types"
)

// FileLinkMatcher captures the repeated file blocks of a work. The path is
// the concatenation of a link path, whose last element carries the link
// attribute, and a type path, whose last element holds the type text.
//
// Each link attribute starts a new entry; type text fills the type of the
// most recent entry.
type FileLinkMatcher struct {
	cur       cursor
	linkDepth int
	attr      string
	links     *dictionary.Dictionary
	types     *dictionary.Dictionary
	files     []types.FileEntry
}

// NewFileLink builds a matcher for linkPath + "/" + typePath, capturing
// attribute attr at the end of linkPath.
func NewFileLink(linkPath, typePath, attr string, links, fileTypes *dictionary.Dictionary) *FileLinkMatcher {
	linkSegs := splitPath(linkPath)
	path := append(slices.Clone(linkSegs), splitPath(typePath)...)
	return &FileLinkMatcher{
		cur:       newCursor(path),
		linkDepth: len(linkSegs) - 1,
		attr:      attr,
		links:     links,
		types:     fileTypes,
	}
}

func (m *FileLinkMatcher) Enter(name string) { m.cur.enter(name) }
func (m *FileLinkMatcher) Leave(name string) { m.cur.leave(name) }
func (m *FileLinkMatcher) Found() bool       { return m.cur.found() }
func (m *FileLinkMatcher) HasResults() bool  { return len(m.files) > 0 }

// Attr appends a new entry when the cursor sits on the link element and
// name is the link attribute.
func (m *FileLinkMatcher) Attr(name, value string, work int) error {
	if m.cur.pos != m.linkDepth || name != m.attr {
		return nil
	}
	m.files = append(m.files, types.FileEntry{
		LinkID: m.links.Add(value, work),
		TypeID: types.Unresolved,
	})
	return nil
}

// Text resolves the type of the most recent entry. Text at the type
// position with no entry yet is ErrTypeBeforeLink. A file block that lacks
// the link attribute adds no entry, so its type retypes the previous one.
func (m *FileLinkMatcher) Text(value string, work int) error {
	if !m.Found() {
		return nil
	}
	if len(m.files) == 0 {
		return ErrTypeBeforeLink
	}
	m.files[len(m.files)-1].TypeID = m.types.Add(value, work)
	return nil
}

// Files returns a copy of the captured entries in document order.
func (m *FileLinkMatcher) Files() []types.FileEntry {
	return slices.Clone(m.files)
}

func (m *FileLinkMatcher) Reset() {
	m.cur.reset()
	m.files = nil
}
