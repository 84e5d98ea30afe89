package executor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
)

// DialFunc opens a new connection for key
type DialFunc[K comparable, C any] func(ctx context.Context, key K) (C, error)

// AffinityCache keeps one lazily opened connection per (worker, key).
// Each worker owns its own slot, so connections are never shared between
// workers and lookups from different workers do not contend.
type AffinityCache[K comparable, C any] struct {
	dial  DialFunc[K, C]
	slots []affinitySlot[K, C]
}

type affinitySlot[K comparable, C any] struct {
	mu    sync.Mutex
	conns map[K]C
}

// NewAffinityCache creates a cache sized for a pool of workers
func NewAffinityCache[K comparable, C any](workers int, dial DialFunc[K, C]) *AffinityCache[K, C] {
	if workers <= 0 {
		workers = 1
	}

	c := &AffinityCache[K, C]{
		dial:  dial,
		slots: make([]affinitySlot[K, C], workers),
	}
	for i := range c.slots {
		c.slots[i].conns = make(map[K]C)
	}
	return c
}

// Get returns the connection for key owned by worker, dialing it on first use.
// A failed dial is not cached; the next call dials again.
func (c *AffinityCache[K, C]) Get(ctx context.Context, worker WorkerID, key K) (C, error) {
	var zero C
	if int(worker) < 0 || int(worker) >= len(c.slots) {
		return zero, fmt.Errorf("worker %d out of range [0, %d)", worker, len(c.slots))
	}

	slot := &c.slots[worker]
	slot.mu.Lock()
	defer slot.mu.Unlock()

	if conn, ok := slot.conns[key]; ok {
		return conn, nil
	}

	conn, err := c.dial(ctx, key)
	if err != nil {
		return zero, err
	}
	slot.conns[key] = conn
	return conn, nil
}

// Evict drops and closes the connection for key owned by worker, so the next
// Get dials again. It is a no-op when nothing is cached.
func (c *AffinityCache[K, C]) Evict(worker WorkerID, key K) error {
	if int(worker) < 0 || int(worker) >= len(c.slots) {
		return fmt.Errorf("worker %d out of range [0, %d)", worker, len(c.slots))
	}

	slot := &c.slots[worker]
	slot.mu.Lock()
	conn, ok := slot.conns[key]
	delete(slot.conns, key)
	slot.mu.Unlock()

	if !ok {
		return nil
	}
	if closer, ok := any(conn).(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// Len returns the number of cached connections across all workers
func (c *AffinityCache[K, C]) Len() int {
	n := 0
	for i := range c.slots {
		c.slots[i].mu.Lock()
		n += len(c.slots[i].conns)
		c.slots[i].mu.Unlock()
	}
	return n
}

// Close closes every cached connection that implements io.Closer and empties
// the cache. Call it once the run has finished.
func (c *AffinityCache[K, C]) Close() error {
	var errs []error
	for i := range c.slots {
		slot := &c.slots[i]
		slot.mu.Lock()
		for key, conn := range slot.conns {
			if closer, ok := any(conn).(io.Closer); ok {
				if err := closer.Close(); err != nil {
					errs = append(errs, err)
				}
			}
			delete(slot.conns, key)
		}
		slot.mu.Unlock()
	}
	return errors.Join(errs...)
}
