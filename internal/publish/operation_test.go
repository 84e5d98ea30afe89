package publish

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medallia/speech-api-reference-implementation/internal/executor"
	"github.com/medallia/speech-api-reference-implementation/internal/util"
)

type fakePublisher struct {
	resp  *Response
	err   error
	calls int
}

func (f *fakePublisher) Publish(ctx context.Context, records []Record) (*Response, error) {
	f.calls++
	return f.resp, f.err
}

func TestToOutcome(t *testing.T) {
	batch := sampleRecords()

	tests := []struct {
		name      string
		resp      *Response
		accepted  int
		rejected  int
		errors    []string
		wantErrIs error
	}{
		{
			name:     "accepted",
			resp:     &Response{Status: JobAccepted},
			accepted: 2,
		},
		{
			name:     "rejected without details",
			resp:     &Response{Status: JobRejected},
			rejected: 2,
			errors:   []string{"a.wav: unspecified rejection", "b.wav: unspecified rejection"},
		},
		{
			name: "rejected keeps only rejected details",
			resp: &Response{Status: JobRejected, Details: []TaskDetails{
				{SpeechFileName: "a.wav", Status: TaskRejected, ErrorMessage: "bad date"},
				{SpeechFileName: "b.wav", Status: TaskAccepted},
			}},
			rejected: 2,
			errors:   []string{"a.wav: bad date"},
		},
		{
			name: "partially accepted",
			resp: &Response{Status: JobPartiallyAccepted, Details: []TaskDetails{
				{SpeechFileName: "a.wav", Status: TaskAccepted},
				{SpeechFileName: "b.wav", Status: TaskRejected},
			}},
			accepted: 1,
			rejected: 1,
			errors:   []string{"b.wav: unspecified rejection"},
		},
		{
			name:      "partially accepted without details",
			resp:      &Response{Status: JobPartiallyAccepted},
			wantErrIs: util.ErrMalformedOutcome,
		},
		{
			name:      "no response",
			resp:      nil,
			wantErrIs: util.ErrOperationFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outcome, err := ToOutcome(tt.resp)
			require.NoError(t, err)

			delta, err := executor.Classify(outcome, batch)
			if tt.wantErrIs != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErrIs)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.accepted, delta.Accepted)
			assert.Equal(t, tt.rejected, delta.Rejected)
			assert.Equal(t, tt.errors, delta.Errors)
		})
	}
}

func TestToOutcome_UnknownStatus(t *testing.T) {
	_, err := ToOutcome(&Response{JobID: "j9", Status: "QUEUED"})
	require.Error(t, err)
	assert.ErrorIs(t, err, util.ErrMalformedOutcome)
	assert.Contains(t, err.Error(), "QUEUED")
}

func TestOperation_Execute(t *testing.T) {
	pub := &fakePublisher{resp: &Response{Status: JobAccepted}}
	op := NewOperation(pub, nil)

	outcome, err := op.Execute(context.Background(), 0, sampleRecords())
	require.NoError(t, err)
	assert.Equal(t, executor.KindAllAccepted, outcome.Kind)
	assert.Equal(t, 1, pub.calls)

	pub.err = errors.New("connection reset")
	_, err = op.Execute(context.Background(), 0, sampleRecords())
	assert.EqualError(t, err, "connection reset")
}
