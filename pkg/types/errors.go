// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "errors"

// Error kinds surfaced by extraction, cache building and querying. Every
// returned error wraps exactly one of these; classify with errors.Is.
var (
	ErrMalformedSource   = errors.New("malformed source")
	ErrInvalidIdentifier = errors.New("invalid identifier")
	ErrInvalidQuery      = errors.New("invalid query")
	ErrStorage           = errors.New("storage failure")
	ErrIO                = errors.New("io failure")
)
