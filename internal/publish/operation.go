package publish

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/medallia/speech-api-reference-implementation/internal/executor"
	"github.com/medallia/speech-api-reference-implementation/internal/util"
)

// Publisher sends one batch of records to the Speech API
type Publisher interface {
	Publish(ctx context.Context, records []Record) (*Response, error)
}

// Operation publishes batches and maps each job result onto an outcome
type Operation struct {
	publisher Publisher
	logger    *slog.Logger
}

// NewOperation creates the publish operation
func NewOperation(p Publisher, logger *slog.Logger) *Operation {
	if logger == nil {
		logger = slog.Default()
	}
	return &Operation{publisher: p, logger: logger}
}

// Execute implements executor.Operation
func (o *Operation) Execute(ctx context.Context, worker executor.WorkerID, batch []Record) (executor.Outcome, error) {
	resp, err := o.publisher.Publish(ctx, batch)
	if err != nil {
		return executor.Outcome{}, err
	}

	o.logger.Debug("batch published", "worker", worker, "records", len(batch))
	return ToOutcome(resp)
}

// ToOutcome classifies a job result.
// A rejected job keeps only the details that are themselves rejected.
func ToOutcome(resp *Response) (executor.Outcome, error) {
	if resp == nil {
		return executor.Failed(fmt.Errorf("received no response from the speech API")), nil
	}

	switch resp.Status {
	case JobAccepted:
		return executor.Accepted(0), nil

	case JobRejected:
		var errs []executor.ItemError
		for _, d := range resp.Details {
			if d.Status != TaskRejected {
				continue
			}
			errs = append(errs, executor.ItemError{ItemID: d.SpeechFileName, Message: d.ErrorMessage})
		}
		return executor.Rejected(0, errs...), nil

	case JobPartiallyAccepted:
		items := make([]executor.ItemStatus, 0, len(resp.Details))
		for _, d := range resp.Details {
			items = append(items, executor.ItemStatus{
				ItemID:  d.SpeechFileName,
				Status:  executor.Status(d.Status),
				Message: d.ErrorMessage,
			})
		}
		return executor.Partial(items...), nil

	default:
		return executor.Outcome{}, fmt.Errorf("%w: unknown job status %q (job %s)",
			util.ErrMalformedOutcome, resp.Status, resp.JobID)
	}
}
