package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/medallia/speech-api-reference-implementation/internal/util"
)

// MaxWorkers is the upper bound on the pool size
const MaxWorkers = 50

// Config holds the run parameters
type Config struct {
	// Workers is the number of concurrent workers (1..MaxWorkers)
	Workers int

	// Deadline bounds the whole run, measured from the start of Run
	Deadline time.Duration

	// BatchSize is the maximum number of items submitted as one task
	BatchSize int
}

// Validate checks the configuration bounds
func (c Config) Validate() error {
	if c.Workers <= 0 || c.Workers > MaxWorkers {
		return fmt.Errorf("%w: %w", util.ErrInvalidConfig,
			util.NewValidationError("workers", c.Workers, fmt.Sprintf("must be between 1 and %d (inclusive)", MaxWorkers)))
	}
	if c.Deadline <= 0 {
		return fmt.Errorf("%w: %w", util.ErrInvalidConfig,
			util.NewValidationError("deadline", c.Deadline, "must be positive"))
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("%w: %w", util.ErrInvalidConfig,
			util.NewValidationError("batchSize", c.BatchSize, "must be positive"))
	}
	return nil
}

// Executor drives a WorkSource through an Operation on a bounded worker pool
type Executor[T Item] struct {
	cfg    Config
	logger *slog.Logger
}

// New creates an executor. The config is validated when Run is called.
func New[T Item](cfg Config, logger *slog.Logger) *Executor[T] {
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor[T]{cfg: cfg, logger: logger}
}

// submitted pairs a future with the batch it carries
type submitted struct {
	future *Future
	size   int
	first  string
	last   string
}

// Run executes every batch produced by src and reports the tally.
// Rejected items do not fail the run; only a deadline, a cancellation, a
// source error, or a task failure sets Report.Failure. Counts gathered before
// a failure are always part of the report. src and progress are closed before
// Run returns.
func (e *Executor[T]) Run(ctx context.Context, src WorkSource[T], op Operation[T], progress ProgressSink) (report Report) {
	start := time.Now()
	if progress == nil {
		progress = NopProgress{}
	}

	var tally Tally
	var tasks []submitted

	defer func() {
		// Teardown runs on every path
		if err := progress.Close(); err != nil {
			e.logger.Warn("failed to close progress sink", "error", err)
		}
		if err := src.Close(); err != nil {
			e.logger.Warn("failed to close work source", "error", err)
			if report.Failure == nil {
				report.Failure = fmt.Errorf("%w: closing source: %w", util.ErrSourceFailed, err)
			}
		}

		report.Accepted, report.Rejected, report.Errors = tally.Snapshot()
		report.Duration = time.Since(start)

		if report.Failure != nil {
			e.logger.Error("run failed",
				"accepted", report.Accepted,
				"rejected", report.Rejected,
				"error", report.Failure,
				"duration", report.Duration)
		} else {
			e.logger.Info("run completed",
				"batches", report.Batches,
				"accepted", report.Accepted,
				"rejected", report.Rejected,
				"duration", report.Duration)
		}
	}()

	if err := e.cfg.Validate(); err != nil {
		report.Failure = err
		return report
	}

	total := src.EstimatedTotal()
	expected := expectedBatches(total, e.cfg.BatchSize)
	if h, ok := progress.(MaxHinter); ok {
		h.MaxHint(total)
	}

	e.logger.Info("starting run",
		"workers", e.cfg.Workers,
		"batch_size", e.cfg.BatchSize,
		"estimated_items", total,
		"estimated_batches", expected,
		"deadline", e.cfg.Deadline)

	runCtx, cancel := context.WithDeadline(ctx, start.Add(e.cfg.Deadline))
	defer cancel()

	pool := NewPool(runCtx, e.cfg.Workers, e.logger)

	var runErr error
	for runCtx.Err() == nil {
		batch, err := src.NextBatch(runCtx, e.cfg.BatchSize)
		if err != nil {
			runErr = fmt.Errorf("%w: reading batch %d: %w", util.ErrSourceFailed, len(tasks)+1, err)
			break
		}
		if len(batch) == 0 {
			break
		}

		s, err := e.submit(runCtx, pool, &tally, op, progress, len(tasks)+1, batch)
		if err != nil {
			// Only fails when the run context ends; handled below
			break
		}
		tasks = append(tasks, s)
		report.Items += len(batch)
	}
	report.Batches = len(tasks)

	pool.Close()

	// In-flight batches still finish after a source error
	if err := e.awaitTermination(ctx, runCtx, pool); runErr == nil {
		runErr = err
	}
	if runErr != nil {
		cancel()
	}

	report.Failure = runErr
	report.TaskErrors = e.collect(tasks, runErr != nil)
	if report.Failure == nil && len(report.TaskErrors) > 0 {
		report.Failure = report.TaskErrors[0]
	}

	return report
}

// submit wraps one batch into a pool task
func (e *Executor[T]) submit(
	ctx context.Context,
	pool *Pool,
	tally *Tally,
	op Operation[T],
	progress ProgressSink,
	seq int,
	batch []T,
) (submitted, error) {
	s := submitted{
		size:  len(batch),
		first: batch[0].ItemID(),
		last:  batch[len(batch)-1].ItemID(),
	}

	e.logger.Debug("submitting batch", "batch", seq, "items", len(batch))

	future, err := pool.Submit(ctx, Task{
		Name: fmt.Sprintf("batch-%d", seq),
		Execute: func(ctx context.Context, worker WorkerID) error {
			outcome, err := op.Execute(ctx, worker, batch)
			if err != nil {
				outcome = Failed(err)
			}

			delta, err := Classify(outcome, batch)
			if err != nil {
				return util.WrapBatchError(seq, s.first, s.last, len(batch), err)
			}
			if len(delta.Unmatched) > 0 {
				e.logger.Warn("rejection detail names items outside the batch",
					"batch", seq, "items", delta.Unmatched)
			}

			tally.Apply(delta)
			progress.Advance(len(batch))
			return nil
		},
	})
	if err != nil {
		return s, err
	}

	s.future = future
	return s, nil
}

// awaitTermination waits for the pool to drain, bounded by the run deadline.
// A cancelled parent context is reported as an interruption.
func (e *Executor[T]) awaitTermination(parent, runCtx context.Context, pool *Pool) error {
	select {
	case <-pool.Done():
		// The deadline may have passed while tasks were being dropped
		if runCtx.Err() == nil {
			return nil
		}
	case <-runCtx.Done():
	}

	if parent.Err() != nil {
		e.logger.Warn("run interrupted, cancelling remaining tasks", "cause", parent.Err())
		return fmt.Errorf("%w: the process was interrupted: %w", util.ErrInterrupted, parent.Err())
	}

	e.logger.Warn("run deadline exceeded, cancelling remaining tasks", "deadline", e.cfg.Deadline)
	return fmt.Errorf("%w: process exceeded max allowed time of %s", util.ErrDeadlineExceeded, e.cfg.Deadline)
}

// collect gathers task failures in submission order without waiting on
// tasks that are still running after a cancellation. When the run itself
// failed, tasks that only ended because of the cancellation are skipped.
func (e *Executor[T]) collect(tasks []submitted, cancelled bool) []error {
	var errs []error
	abandoned := 0

	for _, s := range tasks {
		err, finished := s.future.Result()
		if !finished {
			abandoned++
			continue
		}
		if err == nil {
			continue
		}
		if cancelled && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
			abandoned++
			continue
		}
		errs = append(errs, err)
	}

	for i, err := range errs {
		e.logger.Warn("task failure", "index", i+1, "of", len(errs), "error", err)
	}
	if abandoned > 0 {
		e.logger.Warn("tasks abandoned before completion", "count", abandoned)
	}

	return errs
}

// expectedBatches is ceil(total / batchSize), used for progress sizing only
func expectedBatches(total int64, batchSize int) int64 {
	if total <= 0 || batchSize <= 0 {
		return 0
	}
	return (total + int64(batchSize) - 1) / int64(batchSize)
}
