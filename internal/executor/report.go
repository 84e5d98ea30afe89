package executor

import (
	"fmt"
	"strings"
	"time"
)

// Report is the final result of a run
type Report struct {
	// Accepted is the number of items the remote side accepted
	Accepted int64

	// Rejected is the number of items the remote side rejected
	Rejected int64

	// Errors holds one line per rejected item, in completion order
	Errors []string

	// Failure is the run-level failure, or the first task failure; nil on success
	Failure error

	// TaskErrors holds every task failure in submission order
	TaskErrors []error

	// Batches is the number of batches submitted
	Batches int

	// Items is the number of items submitted
	Items int

	// Duration is the wall time of the run
	Duration time.Duration
}

// Succeeded returns true if the run finished without a failure.
// Rejected items alone do not make a run unsuccessful.
func (r Report) Succeeded() bool {
	return r.Failure == nil
}

// Processed returns the number of items that reached a final status
func (r Report) Processed() int64 {
	return r.Accepted + r.Rejected
}

// Unprocessed returns the number of submitted items without a final status
func (r Report) Unprocessed() int64 {
	n := int64(r.Items) - r.Processed()
	if n < 0 {
		return 0
	}
	return n
}

// AcceptanceRate returns the accepted share of processed items (0.0 to 100.0)
func (r Report) AcceptanceRate() float64 {
	processed := r.Processed()
	if processed == 0 {
		return 0.0
	}
	return float64(r.Accepted) / float64(processed) * 100.0
}

// Summary provides a compact view of a report
type Summary struct {
	Batches  int
	Items    int
	Accepted int64
	Rejected int64
	Failed   int
	Duration time.Duration
}

// Summarize creates a summary of the report
func Summarize(r Report) Summary {
	return Summary{
		Batches:  r.Batches,
		Items:    r.Items,
		Accepted: r.Accepted,
		Rejected: r.Rejected,
		Failed:   len(r.TaskErrors),
		Duration: r.Duration,
	}
}

// String returns a human-readable string representation of the summary
func (s Summary) String() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Batches: %d, ", s.Batches))
	sb.WriteString(fmt.Sprintf("Items: %d, ", s.Items))
	sb.WriteString(fmt.Sprintf("Accepted: %d, ", s.Accepted))
	sb.WriteString(fmt.Sprintf("Rejected: %d", s.Rejected))

	if s.Failed > 0 {
		sb.WriteString(fmt.Sprintf(", Failed batches: %d", s.Failed))
	}
	if s.Duration > 0 {
		sb.WriteString(fmt.Sprintf(", Duration: %s", s.Duration.Round(time.Millisecond)))
	}

	return sb.String()
}
