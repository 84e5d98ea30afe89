// Package executor runs a stream of work items through a remote operation on
// a bounded pool of workers and tallies the outcome.
//
// A WorkSource is drained sequentially, one batch at a time, on the calling
// goroutine. Each batch becomes one task on the Pool. The task calls the
// Operation, classifies the returned Outcome against the batch and adds the
// result to a shared Tally. The run finishes when every task is done, when
// its deadline passes, or when the caller cancels it.
//
// # Basic Usage
//
//	exec := executor.New[publish.Record](executor.Config{
//	    Workers:   4,
//	    Deadline:  time.Hour,
//	    BatchSize: 1000,
//	}, logger)
//
//	report := exec.Run(ctx, source, operation, progress)
//	if !report.Succeeded() {
//	    return report.Failure
//	}
//
// # Outcomes
//
// An Operation reports one of four outcomes for a batch:
//
//   - Accepted: every item was accepted
//   - Rejected: every item was rejected, optionally with per-item detail
//   - Partial: each item carries its own status
//   - Failed: the remote call produced no usable result
//
// Rejected items are counted and reported as error lines but do not fail the
// run. A failed or malformed outcome fails its task; the batch contributes
// nothing to the tally.
//
// # Deadline and Cancellation
//
// The deadline is measured from the start of Run. When it passes, or when the
// caller's context is cancelled, the remaining tasks are cancelled, queued
// batches are dropped, and Report.Failure is set. Counts gathered up to that
// point are still reported.
//
// # Worker Affinity
//
// Tasks receive the WorkerID of the slot running them. AffinityCache uses it
// to keep one connection per worker and key, so sessions are reused across
// batches but never shared between workers.
package executor
