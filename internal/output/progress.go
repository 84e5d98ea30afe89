package output

import (
	"io"
	"sync"
	"sync/atomic"

	"github.com/pterm/pterm"
)

// ProgressBar reports run progress on a terminal.
// It starts lazily once the expected total is known; a disabled bar only counts.
type ProgressBar struct {
	title   string
	writer  io.Writer
	enabled bool

	mu    sync.Mutex
	bar   *pterm.ProgressbarPrinter
	total int64

	done atomic.Int64
}

// NewProgressBar creates a progress bar writing to w. When enabled is false
// nothing is drawn, which is what callers want for non-TTY output.
func NewProgressBar(w io.Writer, title string, enabled bool) *ProgressBar {
	return &ProgressBar{
		title:   title,
		writer:  w,
		enabled: enabled,
	}
}

// MaxHint sizes the bar and starts drawing it
func (p *ProgressBar) MaxHint(total int64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.total = total
	if !p.enabled || p.bar != nil || total <= 0 {
		return
	}

	bar, err := pterm.DefaultProgressbar.
		WithTotal(int(total)).
		WithTitle(p.title).
		WithWriter(p.writer).
		WithRemoveWhenDone(false).
		Start()
	if err != nil {
		// Progress is cosmetic; keep counting without a bar
		p.enabled = false
		return
	}
	p.bar = bar
}

// Advance records n more completed items. The drawn bar never goes past the
// estimated total, which may be lower than the real count.
func (p *ProgressBar) Advance(n int) {
	if n <= 0 {
		return
	}
	done := p.done.Add(int64(n))

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.bar == nil {
		return
	}
	step := n
	if over := done - p.total; over > 0 {
		step -= int(over)
	}
	if step > 0 && p.bar.Current < p.bar.Total {
		p.bar.Add(step)
	}
}

// Completed returns the number of items advanced so far
func (p *ProgressBar) Completed() int64 {
	return p.done.Load()
}

// Close stops drawing the bar
func (p *ProgressBar) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.bar == nil {
		return nil
	}
	_, err := p.bar.Stop()
	p.bar = nil
	return err
}
