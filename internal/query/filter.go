// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package query turns named filter predicates into a parameterized SQL
// query over the catalog cache.
package query

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/agext/levenshtein"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/gutenberg-cache/pkg/types"
)

// Predicate names one filterable field.
type Predicate string

const (
	Language          Predicate = "language"
	Author            Predicate = "author"
	Title             Predicate = "title"
	Subject           Predicate = "subject"
	Publisher         Predicate = "publisher"
	Bookshelf         Predicate = "bookshelf"
	Rights            Predicate = "rights"
	DownloadLinksType Predicate = "downloadlinkstype"
)

// Predicates lists every predicate in the order their joins are emitted.
var Predicates = []Predicate{
	Language, Author, Title, Subject, Publisher, Bookshelf, Rights, DownloadLinksType,
}

// aliases maps alternate spellings accepted in filter input.
var aliases = map[string]Predicate{
	"bookshelve":  Bookshelf,
	"bookshelves": Bookshelf,
}

// ParsePredicate resolves a filter key, case-insensitively.
func ParsePredicate(key string) (Predicate, error) {
	k := strings.ToLower(strings.TrimSpace(key))
	if p, ok := aliases[k]; ok {
		return p, nil
	}
	for _, p := range Predicates {
		if string(p) == k {
			return p, nil
		}
	}
	if near := suggest(k); near != "" {
		return "", fmt.Errorf("%w: unknown filter %q (did you mean %q?)", types.ErrInvalidQuery, key, near)
	}
	return "", fmt.Errorf("%w: unknown filter %q", types.ErrInvalidQuery, key)
}

// maxSuggestDistance bounds the edit distance of a suggested predicate.
const maxSuggestDistance = 2

// suggest returns the predicate closest to key within maxSuggestDistance
// edits, or "" when none is that close.
func suggest(key string) Predicate {
	var best Predicate
	bestDist := maxSuggestDistance + 1
	for _, p := range Predicates {
		if d := levenshtein.Distance(key, string(p), nil); d < bestDist {
			best, bestDist = p, d
		}
	}
	return best
}

// Filter maps predicates to the literal value each must equal. Absent
// predicates do not constrain the result.
type Filter map[Predicate]string

// Keys returns the predicates present in f, in emission order.
func (f Filter) Keys() []Predicate {
	var out []Predicate
	for _, p := range Predicates {
		if _, ok := f[p]; ok {
			out = append(out, p)
		}
	}
	return out
}

// String renders f as "key=value" pairs for logs.
func (f Filter) String() string {
	parts := make([]string, 0, len(f))
	for _, p := range f.Keys() {
		parts = append(parts, fmt.Sprintf("%s=%q", p, f[p]))
	}
	return strings.Join(parts, " ")
}

// ParseFilter converts a decoded JSON or YAML object into a Filter. Every
// value must be a string.
func ParseFilter(m map[string]any) (Filter, error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	f := make(Filter, len(m))
	for _, k := range keys {
		p, err := ParsePredicate(k)
		if err != nil {
			return nil, err
		}
		s, ok := m[k].(string)
		if !ok {
			return nil, fmt.Errorf("%w: filter %q must be a string, got %T", types.ErrInvalidQuery, k, m[k])
		}
		if _, dup := f[p]; dup {
			return nil, fmt.Errorf("%w: filter %q given more than once", types.ErrInvalidQuery, p)
		}
		f[p] = s
	}
	return f, nil
}

// ParseJSON parses a JSON object such as {"language": "en"}.
func ParseJSON(data []byte) (Filter, error) {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: decoding JSON filter: %w", types.ErrInvalidQuery, err)
	}
	return ParseFilter(m)
}

// ParseYAML parses a YAML mapping of predicate names to values.
func ParseYAML(data []byte) (Filter, error) {
	var m map[string]any
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: decoding YAML filter: %w", types.ErrInvalidQuery, err)
	}
	return ParseFilter(m)
}

// LoadFile reads a filter from a YAML file. JSON files parse too, since
// JSON is a subset of YAML.
func LoadFile(path string) (Filter, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading filter file: %w", types.ErrIO, err)
	}
	f, err := ParseYAML(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// WriteFile saves f as a YAML mapping.
func WriteFile(path string, f Filter) error {
	m := make(map[string]string, len(f))
	for p, v := range f {
		m[string(p)] = v
	}
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshaling filter: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("%w: writing filter file: %w", types.ErrIO, err)
	}
	return nil
}
