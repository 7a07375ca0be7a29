package checkin

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/multierr"
)

// ErrNothingSent is reported when every edited row lacked a set id, so no set reached the backend.
var ErrNothingSent = errors.New("no set could be sent")

type SetResult struct {
	// Index is the 0-based row index of the set inside the exercise.
	Index int
	SetID string
	// Skipped is set for edits that were never sent because they have no set id.
	Skipped bool
	Err     error
}

func (r SetResult) Succeeded() bool {
	return !r.Skipped && r.Err == nil
}

// BatchResult is the outcome of one exercise save, one SetResult per edit, in edit order.
type BatchResult struct {
	PlanID     string
	SessionID  string
	ResolvedBy string
	Results    []SetResult
}

func (b *BatchResult) Failed() []SetResult {
	var failed []SetResult
	for _, r := range b.Results {
		if r.Err != nil {
			failed = append(failed, r)
		}
	}
	return failed
}

// FailedIndices returns the 1-based indices of the failed sets, as shown to the user.
func (b *BatchResult) FailedIndices() []int {
	var indices []int
	for _, r := range b.Failed() {
		indices = append(indices, r.Index+1)
	}
	return indices
}

func (b *BatchResult) Skipped() []SetResult {
	var skipped []SetResult
	for _, r := range b.Results {
		if r.Skipped {
			skipped = append(skipped, r)
		}
	}
	return skipped
}

// SkippedIndices returns the 1-based indices of the rows that were not sent for lack of a set id.
func (b *BatchResult) SkippedIndices() []int {
	var indices []int
	for _, r := range b.Skipped() {
		indices = append(indices, r.Index+1)
	}
	return indices
}

func (b *BatchResult) sent() int {
	return len(b.Results) - len(b.Skipped())
}

// nothingSent is true when there were rows to save but none of them had a set id.
func (b *BatchResult) nothingSent() bool {
	return len(b.Results) > 0 && b.sent() == 0
}

// AllSucceeded is true when no sent set failed. Rows skipped next to saved ones do not count
// against it, but a save where every row was skipped did not succeed.
func (b *BatchResult) AllSucceeded() bool {
	if b.nothingSent() {
		return false
	}
	for _, r := range b.Results {
		if r.Err != nil {
			return false
		}
	}
	return true
}

// Err combines the per-set errors. It wraps ErrNothingSent when every row was skipped,
// and is nil when all sent sets succeeded.
func (b *BatchResult) Err() error {
	var err error
	if b.nothingSent() {
		err = fmt.Errorf("%w: set %s without set id", ErrNothingSent, joinIndices(b.SkippedIndices()))
	}
	for _, r := range b.Failed() {
		err = multierr.Append(err, fmt.Errorf("set %d [%s]: %w", r.Index+1, r.SetID, r.Err))
	}
	return err
}

func (b *BatchResult) Summary() string {
	sent := b.sent()

	var summary string
	if failed := b.FailedIndices(); len(failed) == 0 {
		summary = fmt.Sprintf("%d set(s) saved", sent)
	} else {
		summary = fmt.Sprintf("%d of %d set(s) could not be saved: set %s", len(failed), sent, joinIndices(failed))
	}

	if skipped := b.SkippedIndices(); len(skipped) > 0 {
		summary += fmt.Sprintf("; %d set(s) not sent, no set id: set %s", len(skipped), joinIndices(skipped))
	}
	return summary
}

func joinIndices(indices []int) string {
	parts := make([]string, 0, len(indices))
	for _, i := range indices {
		parts = append(parts, strconv.Itoa(i))
	}
	return strings.Join(parts, ", ")
}
