package executor

import (
	"fmt"

	"github.com/medallia/speech-api-reference-implementation/internal/util"
)

// unspecifiedRejection is used when the remote side rejects an item without a message
const unspecifiedRejection = "unspecified rejection"

// Kind tags the variant carried by an Outcome
type Kind int

const (
	// KindAllAccepted means every item in the batch was accepted
	KindAllAccepted Kind = iota
	// KindAllRejected means every item in the batch was rejected
	KindAllRejected
	// KindPartiallyAccepted means each item carries its own status
	KindPartiallyAccepted
	// KindOperationFailed means the remote call produced no usable result
	KindOperationFailed
)

// String returns the wire-style name of the kind
func (k Kind) String() string {
	switch k {
	case KindAllAccepted:
		return "ACCEPTED"
	case KindAllRejected:
		return "REJECTED"
	case KindPartiallyAccepted:
		return "PARTIALLY_ACCEPTED"
	case KindOperationFailed:
		return "OPERATION_FAILED"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Status is the per-item status reported inside a partially accepted outcome
type Status string

const (
	StatusAccepted Status = "ACCEPTED"
	StatusRejected Status = "REJECTED"
)

// ItemError is an explicit rejection reason for one item
type ItemError struct {
	ItemID  string
	Message string
}

// ItemStatus is one record of a partially accepted outcome
type ItemStatus struct {
	ItemID  string
	Status  Status
	Message string
}

// Outcome is the classified result of executing one batch.
// Only the fields relevant to Kind are populated.
type Outcome struct {
	Kind Kind

	// Count is the number of items the remote side reports for AllAccepted
	// and AllRejected; zero means the remote side did not say.
	Count int

	// Errors holds explicit per-item detail for AllRejected
	Errors []ItemError

	// Items holds one record per batch item for PartiallyAccepted
	Items []ItemStatus

	// Cause is set for OperationFailed
	Cause error
}

// Accepted builds an AllAccepted outcome
func Accepted(count int) Outcome {
	return Outcome{Kind: KindAllAccepted, Count: count}
}

// Rejected builds an AllRejected outcome with optional per-item detail
func Rejected(count int, errs ...ItemError) Outcome {
	return Outcome{Kind: KindAllRejected, Count: count, Errors: errs}
}

// Partial builds a PartiallyAccepted outcome
func Partial(items ...ItemStatus) Outcome {
	return Outcome{Kind: KindPartiallyAccepted, Items: items}
}

// Failed builds an OperationFailed outcome
func Failed(cause error) Outcome {
	return Outcome{Kind: KindOperationFailed, Cause: cause}
}

// Delta is the contribution of one batch to the run tally
type Delta struct {
	Accepted int
	Rejected int
	Errors   []string

	// Unmatched lists ids named by explicit rejection detail that are not
	// part of the batch. Their lines are still recorded.
	Unmatched []string
}

// Classify turns an outcome for the given batch into a tally delta.
// A malformed outcome returns an error and a zero delta so that nothing
// from that batch is counted.
func Classify[T Item](outcome Outcome, batch []T) (Delta, error) {
	switch outcome.Kind {
	case KindAllAccepted:
		if err := checkCount(outcome, len(batch)); err != nil {
			return Delta{}, err
		}
		return Delta{Accepted: len(batch)}, nil

	case KindAllRejected:
		if err := checkCount(outcome, len(batch)); err != nil {
			return Delta{}, err
		}
		delta := Delta{Rejected: len(batch)}
		if len(outcome.Errors) == 0 {
			delta.Errors = make([]string, 0, len(batch))
			for _, item := range batch {
				delta.Errors = append(delta.Errors, errorLine(item.ItemID(), ""))
			}
			return delta, nil
		}
		members := make(map[string]bool, len(batch))
		for _, item := range batch {
			members[item.ItemID()] = true
		}
		delta.Errors = make([]string, 0, len(outcome.Errors))
		for _, e := range outcome.Errors {
			if !members[e.ItemID] {
				delta.Unmatched = append(delta.Unmatched, e.ItemID)
			}
			delta.Errors = append(delta.Errors, errorLine(e.ItemID, e.Message))
		}
		return delta, nil

	case KindPartiallyAccepted:
		return classifyPartial(outcome.Items, batch)

	case KindOperationFailed:
		cause := outcome.Cause
		if cause == nil {
			cause = fmt.Errorf("no cause reported")
		}
		return Delta{}, fmt.Errorf("%w: %w", util.ErrOperationFailed, cause)

	default:
		return Delta{}, fmt.Errorf("%w: unknown outcome kind %s", util.ErrMalformedOutcome, outcome.Kind)
	}
}

// classifyPartial validates that every batch item appears exactly once before counting
func classifyPartial[T Item](items []ItemStatus, batch []T) (Delta, error) {
	if len(items) == 0 {
		return Delta{}, fmt.Errorf("%w: partially accepted outcome without item details", util.ErrMalformedOutcome)
	}

	// ids may repeat inside a batch, so match as a multiset
	pending := make(map[string]int, len(batch))
	for _, item := range batch {
		pending[item.ItemID()]++
	}

	for _, rec := range items {
		if rec.Status != StatusAccepted && rec.Status != StatusRejected {
			return Delta{}, fmt.Errorf("%w: item %q has unknown status %q", util.ErrMalformedOutcome, rec.ItemID, rec.Status)
		}
		if pending[rec.ItemID] == 0 {
			return Delta{}, fmt.Errorf("%w: item %q is not part of the batch or is reported twice", util.ErrMalformedOutcome, rec.ItemID)
		}
		pending[rec.ItemID]--
	}

	for id, left := range pending {
		if left > 0 {
			return Delta{}, fmt.Errorf("%w: item %q missing from partially accepted details", util.ErrMalformedOutcome, id)
		}
	}

	var delta Delta
	for _, rec := range items {
		if rec.Status == StatusAccepted {
			delta.Accepted++
			continue
		}
		delta.Rejected++
		delta.Errors = append(delta.Errors, errorLine(rec.ItemID, rec.Message))
	}
	return delta, nil
}

func checkCount(outcome Outcome, size int) error {
	if outcome.Count != 0 && outcome.Count != size {
		return fmt.Errorf("%w: %s outcome reports %d item(s) for a batch of %d",
			util.ErrMalformedOutcome, outcome.Kind, outcome.Count, size)
	}
	return nil
}

func errorLine(id, message string) string {
	if message == "" {
		message = unspecifiedRejection
	}
	return fmt.Sprintf("%s: %s", id, message)
}
