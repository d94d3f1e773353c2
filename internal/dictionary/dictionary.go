// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package dictionary interns field values. A value's identifier is its
// insertion index, so identifiers are stable for the life of the
// dictionary and enumerate in first-seen order.
package dictionary

import "iter"

// Entry is one interned value and the ordinals of the works that
// referenced it, one back-link per observation.
type Entry struct {
	Value     string
	BackLinks []int
}

// Dictionary is an order-preserving value → identifier map. It is not
// safe for concurrent use.
type Dictionary struct {
	index   map[string]int
	entries []Entry
}

// New returns an empty dictionary.
func New() *Dictionary {
	return &Dictionary{index: make(map[string]int)}
}

// Add interns value on behalf of work and returns its identifier. A value
// already present keeps its identifier and gains another back-link.
func (d *Dictionary) Add(value string, work int) int {
	if id, ok := d.index[value]; ok {
		d.entries[id].BackLinks = append(d.entries[id].BackLinks, work)
		return id
	}
	id := len(d.entries)
	d.index[value] = id
	d.entries = append(d.entries, Entry{Value: value, BackLinks: []int{work}})
	return id
}

// Lookup returns the identifier of value without interning it.
func (d *Dictionary) Lookup(value string) (int, bool) {
	id, ok := d.index[value]
	return id, ok
}

// Value returns the value interned under id.
func (d *Dictionary) Value(id int) (string, bool) {
	if id < 0 || id >= len(d.entries) {
		return "", false
	}
	return d.entries[id].Value, true
}

// Entry returns the entry interned under id. The back-link slice is shared
// with the dictionary and must not be modified.
func (d *Dictionary) Entry(id int) (Entry, bool) {
	if id < 0 || id >= len(d.entries) {
		return Entry{}, false
	}
	return d.entries[id], true
}

// Len returns the number of distinct values.
func (d *Dictionary) Len() int {
	return len(d.entries)
}

// All yields identifiers and entries in insertion order.
func (d *Dictionary) All() iter.Seq2[int, Entry] {
	return func(yield func(int, Entry) bool) {
		for id, e := range d.entries {
			if !yield(id, e) {
				return
			}
		}
	}
}

// Values returns all values in insertion order.
func (d *Dictionary) Values() []string {
	out := make([]string, len(d.entries))
	for i, e := range d.entries {
		out[i] = e.Value
	}
	return out
}
