// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package matcher

import "github.com/pdiddy/gutenberg-cache/internal/dictionary"

// AlternationMatcher combines several paths for one field. Every event
// reaches every child; the result is taken from the earliest-built child
// that captured anything.
type AlternationMatcher struct {
	children []*PathMatcher
}

// NewAlternation returns an alternation over children in priority order.
func NewAlternation(children ...*PathMatcher) *AlternationMatcher {
	return &AlternationMatcher{children: children}
}

// NewAlternationPaths builds text-capturing children for paths, all
// interning into dict.
func NewAlternationPaths(dict *dictionary.Dictionary, paths ...string) *AlternationMatcher {
	children := make([]*PathMatcher, len(paths))
	for i, p := range paths {
		children[i] = NewPath(p, dict)
	}
	return NewAlternation(children...)
}

func (m *AlternationMatcher) Enter(name string) {
	for _, c := range m.children {
		c.Enter(name)
	}
}

func (m *AlternationMatcher) Leave(name string) {
	for _, c := range m.children {
		c.Leave(name)
	}
}

func (m *AlternationMatcher) Attr(name, value string, work int) error {
	for _, c := range m.children {
		if err := c.Attr(name, value, work); err != nil {
			return err
		}
	}
	return nil
}

func (m *AlternationMatcher) Text(value string, work int) error {
	for _, c := range m.children {
		if err := c.Text(value, work); err != nil {
			return err
		}
	}
	return nil
}

func (m *AlternationMatcher) Found() bool {
	for _, c := range m.children {
		if c.Found() {
			return true
		}
	}
	return false
}

func (m *AlternationMatcher) HasResults() bool {
	for _, c := range m.children {
		if c.HasResults() {
			return true
		}
	}
	return false
}

// Result returns the first child result in construction order, or nil when
// no child captured anything.
func (m *AlternationMatcher) Result() []int {
	for _, c := range m.children {
		if c.HasResults() {
			return c.Result()
		}
	}
	return nil
}

func (m *AlternationMatcher) Reset() {
	for _, c := range m.children {
		c.Reset()
	}
}
