package output

import (
	"bytes"
	"sync"
	"testing"

	"github.com/medallia/speech-api-reference-implementation/internal/executor"
)

var (
	_ executor.ProgressSink = (*ProgressBar)(nil)
	_ executor.MaxHinter    = (*ProgressBar)(nil)
)

func TestProgressBar_Disabled(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgressBar(&buf, "Publishing", false)

	p.MaxHint(10)
	p.Advance(4)
	p.Advance(0)
	p.Advance(-1)

	if p.Completed() != 4 {
		t.Errorf("Completed() = %d, want 4", p.Completed())
	}
	if err := p.Close(); err != nil {
		t.Errorf("Close() error: %v", err)
	}
	if buf.Len() != 0 {
		t.Errorf("disabled bar should not draw, got %q", buf.String())
	}
}

func TestProgressBar_Enabled(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgressBar(&buf, "Transferring", true)

	p.MaxHint(5)

	var wg sync.WaitGroup
	for i := 0; i < 7; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.Advance(1)
		}()
	}
	wg.Wait()

	// More items than estimated must not break the bar
	if p.Completed() != 7 {
		t.Errorf("Completed() = %d, want 7", p.Completed())
	}
	if err := p.Close(); err != nil {
		t.Errorf("Close() error: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Errorf("second Close() error: %v", err)
	}
}

func TestProgressBar_NoHint(t *testing.T) {
	p := NewProgressBar(&bytes.Buffer{}, "Publishing", true)
	p.Advance(3)

	if p.Completed() != 3 {
		t.Errorf("Completed() = %d, want 3", p.Completed())
	}
	if err := p.Close(); err != nil {
		t.Errorf("Close() error: %v", err)
	}
}
