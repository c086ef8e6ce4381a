package service

import (
	"sync"
	"time"
)

// writeHorizon tracks writes that have started but not returned. A list
// cursor never passes the start of an open write, so the write's updated_at
// is still newer than the cursor once it commits.
type writeHorizon struct {
	mu   sync.Mutex
	next uint64
	open map[uint64]time.Time
}

func newWriteHorizon() *writeHorizon {
	return &writeHorizon{open: make(map[uint64]time.Time)}
}

// begin records a write starting at now. The returned func closes it.
func (h *writeHorizon) begin(now func() time.Time) func() {
	h.mu.Lock()
	id := h.next
	h.next++
	h.open[id] = now()
	h.mu.Unlock()

	return func() {
		h.mu.Lock()
		delete(h.open, id)
		h.mu.Unlock()
	}
}

// cursor returns the delta cursor for a list starting at now: one
// microsecond before the earlier of now and the oldest open write.
func (h *writeHorizon) cursor(now func() time.Time) time.Time {
	h.mu.Lock()
	defer h.mu.Unlock()

	at := now()
	for _, started := range h.open {
		if started.Before(at) {
			at = started
		}
	}
	return at.Add(-time.Microsecond)
}

func (h *writeHorizon) pending() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.open)
}
