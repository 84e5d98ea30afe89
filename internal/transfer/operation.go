package transfer

import (
	"context"
	"log/slog"

	"github.com/medallia/speech-api-reference-implementation/internal/executor"
)

// Fetcher lists and reads files on the source side
type Fetcher interface {
	List(ctx context.Context) ([]File, error)
	Fetch(ctx context.Context, worker executor.WorkerID, f File) ([]byte, error)
	Close() error
}

// ObjectUploader stores one file on the destination side
type ObjectUploader interface {
	Upload(ctx context.Context, name string, data []byte) error
}

// Recorder keeps the names of transferred files
type Recorder interface {
	Record(name string) error
}

// Operation copies each file of a batch from the fetcher to the uploader.
// Any fetch or upload error fails the batch; there is no per-file rejection.
type Operation struct {
	fetcher  Fetcher
	uploader ObjectUploader
	recorder Recorder
	logger   *slog.Logger
}

// NewOperation creates the transfer operation. recorder may be nil.
func NewOperation(fetcher Fetcher, uploader ObjectUploader, recorder Recorder, logger *slog.Logger) *Operation {
	if logger == nil {
		logger = slog.Default()
	}
	return &Operation{
		fetcher:  fetcher,
		uploader: uploader,
		recorder: recorder,
		logger:   logger,
	}
}

// Execute implements executor.Operation
func (o *Operation) Execute(ctx context.Context, worker executor.WorkerID, batch []File) (executor.Outcome, error) {
	for _, f := range batch {
		data, err := o.fetcher.Fetch(ctx, worker, f)
		if err != nil {
			return executor.Outcome{}, err
		}

		if err := o.uploader.Upload(ctx, f.Name, data); err != nil {
			return executor.Outcome{}, err
		}

		if o.recorder != nil {
			if err := o.recorder.Record(f.Name); err != nil {
				o.logger.Warn("failed to record transferred file", "file", f.Name, "error", err)
			}
		}
		o.logger.Debug("file transferred", "worker", worker, "file", f.Name, "bytes", len(data))
	}

	return executor.Accepted(len(batch)), nil
}
