package executor

import (
	"sync"
	"sync/atomic"
)

// Tally accumulates accepted/rejected counts and error lines for a run.
// It is shared by every worker; counters only grow.
type Tally struct {
	accepted atomic.Int64
	rejected atomic.Int64

	// mu protects errors
	mu     sync.Mutex
	errors []string
}

// Apply adds a classified batch to the tally
func (t *Tally) Apply(d Delta) {
	if d.Accepted > 0 {
		t.accepted.Add(int64(d.Accepted))
	}
	if d.Rejected > 0 {
		t.rejected.Add(int64(d.Rejected))
	}
	if len(d.Errors) == 0 {
		return
	}

	t.mu.Lock()
	t.errors = append(t.errors, d.Errors...)
	t.mu.Unlock()
}

// Accepted returns the current accepted count
func (t *Tally) Accepted() int64 {
	return t.accepted.Load()
}

// Rejected returns the current rejected count
func (t *Tally) Rejected() int64 {
	return t.rejected.Load()
}

// Snapshot returns the counters and a copy of the error lines
func (t *Tally) Snapshot() (accepted, rejected int64, lines []string) {
	t.mu.Lock()
	lines = make([]string, len(t.errors))
	copy(lines, t.errors)
	t.mu.Unlock()

	return t.accepted.Load(), t.rejected.Load(), lines
}
