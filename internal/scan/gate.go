// Package scan implements the barcode intake pipeline: a debounce gate per
// session, a busy flag serializing mutations, and the controller gluing the
// gate, resolver and cart together.
package scan

import (
	"strings"
	"sync"
	"time"
)

// Gate suppresses accidental double-reads: the same barcode seen again within
// the configured window is rejected. A different barcode always passes and
// restarts the window.
type Gate struct {
	minInterval time.Duration

	mu          sync.Mutex
	lastBarcode string
	lastSeenAt  time.Time
}

// NewGate builds a gate with the provided debounce window.
func NewGate(minInterval time.Duration) *Gate {
	return &Gate{minInterval: minInterval}
}

// Accept reports whether the candidate scan should proceed, recording it as
// the latest accepted scan when it does.
func (g *Gate) Accept(barcode string, now time.Time) bool {
	barcode = strings.TrimSpace(barcode)

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.minInterval > 0 &&
		barcode == g.lastBarcode &&
		!g.lastSeenAt.IsZero() &&
		now.Sub(g.lastSeenAt) < g.minInterval {
		return false
	}

	g.lastBarcode = barcode
	g.lastSeenAt = now
	return true
}

// LastSeen returns the most recently accepted barcode and when it passed.
func (g *Gate) LastSeen() (string, time.Time) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.lastBarcode, g.lastSeenAt
}
