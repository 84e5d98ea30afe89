package executor

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
)

type fakeConn struct {
	id     int64
	closed atomic.Bool
}

func (c *fakeConn) Close() error {
	c.closed.Store(true)
	return nil
}

func newDialer() (DialFunc[string, *fakeConn], *atomic.Int64) {
	var dials atomic.Int64
	return func(ctx context.Context, key string) (*fakeConn, error) {
		return &fakeConn{id: dials.Add(1)}, nil
	}, &dials
}

func TestAffinityCache_ReusesPerWorker(t *testing.T) {
	dial, dials := newDialer()
	cache := NewAffinityCache(2, dial)
	ctx := context.Background()

	a1, err := cache.Get(ctx, 0, "sftp.example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	a2, _ := cache.Get(ctx, 0, "sftp.example.com")
	if a1 != a2 {
		t.Error("same worker and key should return the same connection")
	}

	b, _ := cache.Get(ctx, 1, "sftp.example.com")
	if a1 == b {
		t.Error("different workers must not share a connection")
	}

	other, _ := cache.Get(ctx, 0, "other.example.com")
	if other == a1 {
		t.Error("different keys should get different connections")
	}

	if dials.Load() != 3 {
		t.Errorf("expected 3 dials, got %d", dials.Load())
	}
	if cache.Len() != 3 {
		t.Errorf("expected 3 cached connections, got %d", cache.Len())
	}
}

func TestAffinityCache_DialErrorNotCached(t *testing.T) {
	var calls atomic.Int32
	cache := NewAffinityCache(1, func(ctx context.Context, key string) (*fakeConn, error) {
		if calls.Add(1) == 1 {
			return nil, errors.New("auth failed")
		}
		return &fakeConn{}, nil
	})

	if _, err := cache.Get(context.Background(), 0, "host"); err == nil {
		t.Fatal("expected dial error")
	}
	if _, err := cache.Get(context.Background(), 0, "host"); err != nil {
		t.Fatalf("expected second dial to succeed, got %v", err)
	}
	if calls.Load() != 2 {
		t.Errorf("expected 2 dial attempts, got %d", calls.Load())
	}
}

func TestAffinityCache_WorkerOutOfRange(t *testing.T) {
	dial, _ := newDialer()
	cache := NewAffinityCache(2, dial)

	for _, w := range []WorkerID{-1, 2} {
		if _, err := cache.Get(context.Background(), w, "host"); err == nil {
			t.Errorf("expected error for worker %d", w)
		}
	}
}

func TestAffinityCache_Close(t *testing.T) {
	dial, _ := newDialer()
	cache := NewAffinityCache(3, dial)

	var conns []*fakeConn
	for w := 0; w < 3; w++ {
		c, _ := cache.Get(context.Background(), WorkerID(w), "host")
		conns = append(conns, c)
	}

	if err := cache.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, c := range conns {
		if !c.closed.Load() {
			t.Errorf("connection %d was not closed", i)
		}
	}
	if cache.Len() != 0 {
		t.Errorf("expected empty cache after close, got %d", cache.Len())
	}
}

func TestAffinityCache_ConcurrentWorkers(t *testing.T) {
	dial, dials := newDialer()
	const workers = 8
	cache := NewAffinityCache(workers, dial)

	var wg sync.WaitGroup
	got := make([]*fakeConn, workers)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				c, err := cache.Get(context.Background(), WorkerID(w), "host")
				if err != nil {
					t.Errorf("unexpected error: %v", err)
					return
				}
				if got[w] == nil {
					got[w] = c
				} else if got[w] != c {
					t.Errorf("worker %d saw two connections", w)
					return
				}
			}
		}(w)
	}
	wg.Wait()

	if dials.Load() != workers {
		t.Errorf("expected %d dials, got %d", workers, dials.Load())
	}
}

func TestAffinityCache_Evict(t *testing.T) {
	dial, dials := newDialer()
	cache := NewAffinityCache(2, dial)
	ctx := context.Background()

	first, _ := cache.Get(ctx, 1, "sftp.example.com")
	if err := cache.Evict(1, "sftp.example.com"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !first.closed.Load() {
		t.Error("evicted connection should be closed")
	}

	second, _ := cache.Get(ctx, 1, "sftp.example.com")
	if second == first {
		t.Error("expected a fresh connection after eviction")
	}
	if dials.Load() != 2 {
		t.Errorf("expected 2 dials, got %d", dials.Load())
	}

	if err := cache.Evict(0, "never-dialed"); err != nil {
		t.Errorf("evicting a missing key should be a no-op, got %v", err)
	}
	if err := cache.Evict(5, "sftp.example.com"); err == nil {
		t.Error("expected an error for an out of range worker")
	}
}
