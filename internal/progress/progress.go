// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package progress reports position-out-of-total updates from long
// running stages. Reports are observational; a Reporter never fails the
// stage it observes.
package progress

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
)

// Reporter receives progress updates.
type Reporter interface {
	// Report is called with the current position and the total. A total
	// of zero means the total is unknown.
	Report(pos, total int64)
}

// Nop discards all reports.
type Nop struct{}

func (Nop) Report(int64, int64) {}

// Or returns r, or Nop when r is nil.
func Or(r Reporter) Reporter {
	if r == nil {
		return Nop{}
	}
	return r
}

// Unit selects how a Writer formats positions.
type Unit int

const (
	// Items formats positions as counts ("1,204 / 70,311").
	Items Unit = iota
	// Bytes formats positions as sizes ("12 MB / 84 MB").
	Bytes
)

// Writer prints throttled progress lines to an io.Writer.
type Writer struct {
	w        io.Writer
	label    string
	unit     Unit
	interval time.Duration

	mu   sync.Mutex
	last time.Time
	now  func() time.Time
}

// NewWriter returns a Writer that prints at most one line per interval,
// plus a final line when pos reaches total.
func NewWriter(w io.Writer, label string, unit Unit, interval time.Duration) *Writer {
	return &Writer{w: w, label: label, unit: unit, interval: interval, now: time.Now}
}

func (p *Writer) Report(pos, total int64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	done := total > 0 && pos >= total
	t := p.now()
	if !done && !p.last.IsZero() && t.Sub(p.last) < p.interval {
		return
	}
	p.last = t

	if total > 0 {
		pct := float64(pos) / float64(total) * 100
		fmt.Fprintf(p.w, "%s: %s / %s (%.0f%%)\n", p.label, p.format(pos), p.format(total), pct)
		return
	}
	fmt.Fprintf(p.w, "%s: %s\n", p.label, p.format(pos))
}

func (p *Writer) format(n int64) string {
	if p.unit == Bytes {
		if n < 0 {
			n = 0
		}
		return humanize.Bytes(uint64(n))
	}
	return humanize.Comma(n)
}
