package output

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// FilenameLog records the names of transferred files, one per line.
// It is safe for concurrent use by the workers of a run.
type FilenameLog struct {
	mu     sync.Mutex
	w      io.Writer
	closer io.Closer
	count  int
}

// NewFilenameLog writes names to w
func NewFilenameLog(w io.Writer) *FilenameLog {
	if w == nil {
		w = io.Discard
	}
	return &FilenameLog{w: w}
}

// OpenFilenameLog creates (or truncates) the file at path.
// An empty path or /dev/null discards the names.
func OpenFilenameLog(path string) (*FilenameLog, error) {
	if path == "" || path == os.DevNull {
		return NewFilenameLog(io.Discard), nil
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open filename log: %w", err)
	}

	return &FilenameLog{w: f, closer: f}, nil
}

// Record appends one file name
func (l *FilenameLog) Record(name string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, err := fmt.Fprintln(l.w, name); err != nil {
		return fmt.Errorf("failed to record filename %q: %w", name, err)
	}
	l.count++
	return nil
}

// Count returns the number of recorded names
func (l *FilenameLog) Count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.count
}

// Close closes the underlying file, if any
func (l *FilenameLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closer == nil {
		return nil
	}
	err := l.closer.Close()
	l.closer = nil
	return err
}
