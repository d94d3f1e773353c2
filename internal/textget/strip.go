// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package textget

import "strings"

const (
	// headerWindow is the number of kept lines within which a start
	// marker may still discard everything before it.
	headerWindow = 600
	// footerWindow is the number of kept lines before which end markers
	// are ignored.
	footerWindow = 100
)

// StripHeaders removes the distribution header, footer and legalese
// blocks from a book text. Line endings are normalized to "\n".
func StripHeaders(text string) string {
	var (
		out      []string
		kept     int
		legalese bool
	)
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSuffix(line, "\r")

		if kept <= headerWindow && hasAnyPrefix(line, textStartMarkers) {
			// Everything so far was header. Several marker lines may
			// follow each other.
			out = out[:0]
			continue
		}
		if kept >= footerWindow && hasAnyPrefix(line, textEndMarkers) {
			break
		}

		switch {
		case hasAnyPrefix(line, legaleseStartMarkers):
			legalese = true
			continue
		case hasAnyPrefix(line, legaleseEndMarkers):
			legalese = false
			continue
		}
		if !legalese {
			out = append(out, line)
			kept++
		}
	}
	return strings.Join(out, "\n")
}

func hasAnyPrefix(line string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(line, p) {
			return true
		}
	}
	return false
}
