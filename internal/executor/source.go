package executor

import "context"

// Item is a unit of work. The executor only needs an identity for error lines.
type Item interface {
	ItemID() string
}

// WorkerID identifies a worker slot in the pool. IDs run from 0 to workers-1
// and stay fixed for the lifetime of the pool.
type WorkerID int

// WorkSource produces the work items of a run, one batch at a time.
// NextBatch is only ever called from a single goroutine. Once the source is
// exhausted it keeps returning an empty batch.
type WorkSource[T Item] interface {
	// EstimatedTotal returns the expected number of items; it may be approximate
	EstimatedTotal() int64

	// NextBatch returns up to max items in source order
	NextBatch(ctx context.Context, max int) ([]T, error)

	// Close releases the cursor/session behind the source
	Close() error
}

// Operation performs the remote effect for one batch. Returning an error is
// equivalent to returning Failed(err).
type Operation[T Item] interface {
	Execute(ctx context.Context, worker WorkerID, batch []T) (Outcome, error)
}

// OperationFunc adapts a function to the Operation interface
type OperationFunc[T Item] func(ctx context.Context, worker WorkerID, batch []T) (Outcome, error)

// Execute calls f
func (f OperationFunc[T]) Execute(ctx context.Context, worker WorkerID, batch []T) (Outcome, error) {
	return f(ctx, worker, batch)
}

// ProgressSink observes completed items
type ProgressSink interface {
	Advance(n int)
	Close() error
}

// MaxHinter is implemented by progress sinks that can be sized up front
type MaxHinter interface {
	MaxHint(total int64)
}

// NopProgress discards progress updates
type NopProgress struct{}

// Advance does nothing
func (NopProgress) Advance(int) {}

// Close does nothing
func (NopProgress) Close() error { return nil }

// SliceSource serves a fixed slice of items. It is handy for callers that
// enumerate everything up front, such as directory listings.
type SliceSource[T Item] struct {
	items []T
	next  int
}

// NewSliceSource creates a source over items; the slice is not copied
func NewSliceSource[T Item](items []T) *SliceSource[T] {
	return &SliceSource[T]{items: items}
}

// EstimatedTotal returns the exact number of items
func (s *SliceSource[T]) EstimatedTotal() int64 {
	return int64(len(s.items))
}

// NextBatch returns the next max items
func (s *SliceSource[T]) NextBatch(_ context.Context, max int) ([]T, error) {
	if s.next >= len(s.items) || max <= 0 {
		return nil, nil
	}

	end := s.next + max
	if end > len(s.items) {
		end = len(s.items)
	}

	batch := s.items[s.next:end]
	s.next = end
	return batch, nil
}

// Close does nothing
func (s *SliceSource[T]) Close() error {
	return nil
}
