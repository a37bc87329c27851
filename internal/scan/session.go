package scan

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Session tracks one cart's scanning state. The busy flag serializes the
// resolve-and-mutate pipeline: while a scan is in flight, further scans for
// the same cart are dropped rather than queued.
type Session struct {
	cartID uuid.UUID
	gate   *Gate

	busy   atomic.Bool
	ctx    context.Context
	cancel context.CancelFunc

	mu         sync.Mutex
	lastActive time.Time
	lastResult *Result
}

func newSession(cartID uuid.UUID, minInterval time.Duration, now time.Time) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		cartID:     cartID,
		gate:       NewGate(minInterval),
		ctx:        ctx,
		cancel:     cancel,
		lastActive: now,
	}
}

// TryAcquire claims the busy flag, returning false when a scan is in flight.
func (s *Session) TryAcquire() bool {
	return s.busy.CompareAndSwap(false, true)
}

// Release frees the busy flag.
func (s *Session) Release() {
	s.busy.Store(false)
}

// Busy reports whether a scan is currently in flight.
func (s *Session) Busy() bool {
	return s.busy.Load()
}

// Context is canceled when the session closes, aborting in-flight work.
func (s *Session) Context() context.Context {
	return s.ctx
}

// Close cancels the session's context. A closed session stays closed.
func (s *Session) Close() {
	s.cancel()
}

func (s *Session) closed() bool {
	select {
	case <-s.ctx.Done():
		return true
	default:
		return false
	}
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastActive = now
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

func (s *Session) recordResult(result *Result) {
	s.mu.Lock()
	s.lastResult = result
	s.mu.Unlock()
}

// LastResult returns the most recent scan result for the session, or nil.
func (s *Session) LastResult() *Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastResult
}
