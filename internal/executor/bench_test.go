package executor

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"
)

func benchLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

// BenchmarkPool_Submit benchmarks task submission and execution
func BenchmarkPool_Submit(b *testing.B) {
	pool := NewPool(context.Background(), 10, benchLogger())
	defer pool.Close()

	task := Task{
		Name:    "benchmark",
		Execute: func(ctx context.Context, _ WorkerID) error { return nil },
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := pool.Submit(context.Background(), task); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkRun benchmarks a run with different worker counts
func BenchmarkRun(b *testing.B) {
	workerCounts := []int{1, 2, 4, 8, 16}
	all := items(make([]string, 1000)...)

	op := OperationFunc[testItem](func(ctx context.Context, _ WorkerID, batch []testItem) (Outcome, error) {
		time.Sleep(100 * time.Microsecond)
		return Accepted(len(batch)), nil
	})

	for _, workers := range workerCounts {
		b.Run(fmt.Sprintf("workers_%d", workers), func(b *testing.B) {
			exec := New[testItem](Config{Workers: workers, Deadline: time.Minute, BatchSize: 10}, benchLogger())
			for i := 0; i < b.N; i++ {
				exec.Run(context.Background(), NewSliceSource(all), op, nil)
			}
		})
	}
}

// BenchmarkClassify_Partial benchmarks partial outcome validation
func BenchmarkClassify_Partial(b *testing.B) {
	batch := make([]testItem, 1000)
	statuses := make([]ItemStatus, len(batch))
	for i := range batch {
		batch[i] = testItem(fmt.Sprintf("item-%d", i))
		statuses[i] = ItemStatus{ItemID: string(batch[i]), Status: StatusAccepted}
		if i%10 == 0 {
			statuses[i].Status = StatusRejected
		}
	}
	outcome := Partial(statuses...)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Classify(outcome, batch); err != nil {
			b.Fatal(err)
		}
	}
}
