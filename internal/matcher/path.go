// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package matcher

import (
	"slices"

	"github.com/pdiddy/gutenberg-cache/internal/dictionary"
)

// PathMatcher captures values found at the end of one element path and
// interns them into a field dictionary. By default it captures element
// text; built with NewAttrPath it captures one attribute of the final
// element instead.
type PathMatcher struct {
	cur  cursor
	attr string
	dict *dictionary.Dictionary
	ids  []int
}

// NewPath returns a text-capturing matcher for a slash-separated path such
// as "dcterms:subject/rdf:Description/rdf:value".
func NewPath(path string, dict *dictionary.Dictionary) *PathMatcher {
	return &PathMatcher{cur: newCursor(splitPath(path)), dict: dict}
}

// NewAttrPath returns a matcher that captures attribute attr of the element
// at the end of path.
func NewAttrPath(path, attr string, dict *dictionary.Dictionary) *PathMatcher {
	m := NewPath(path, dict)
	m.attr = attr
	return m
}

func (m *PathMatcher) Enter(name string) { m.cur.enter(name) }
func (m *PathMatcher) Leave(name string) { m.cur.leave(name) }
func (m *PathMatcher) Found() bool       { return m.cur.found() }
func (m *PathMatcher) HasResults() bool  { return len(m.ids) > 0 }

// Attr captures value when the matcher is attribute-capturing, found, and
// name is the configured attribute.
func (m *PathMatcher) Attr(name, value string, work int) error {
	if m.attr == "" || name != m.attr || !m.Found() {
		return nil
	}
	m.ids = append(m.ids, m.dict.Add(value, work))
	return nil
}

// Text captures value when the matcher is text-capturing and found.
func (m *PathMatcher) Text(value string, work int) error {
	if m.attr != "" || !m.Found() {
		return nil
	}
	m.ids = append(m.ids, m.dict.Add(value, work))
	return nil
}

// Result returns a copy of the captured identifiers.
func (m *PathMatcher) Result() []int {
	return slices.Clone(m.ids)
}

func (m *PathMatcher) Reset() {
	m.cur.reset()
	m.ids = nil
}
