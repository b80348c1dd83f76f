package service

import (
	"errors"
	"fmt"

	"grouporder/internal/models"
	"grouporder/internal/storage"
)

var (
	// ErrNotFound maps missing group or participant orders.
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized rejects a caller acting outside their role (wrong
	// leader, wrong owner).
	ErrUnauthorized = errors.New("caller is not authorized for this operation")

	// ErrEmptyOrder rejects submitting a participant order with no line items.
	// Empty drafts are fine; empty submissions are not.
	ErrEmptyOrder = errors.New("order has no line items")

	// ErrNothingToSubmit rejects backend delivery when no participant order is
	// in the submitted state.
	ErrNothingToSubmit = errors.New("no submitted participant orders")

	// ErrConflict surfaces a lost compare-and-set race; the caller retries the
	// whole operation from a fresh read.
	ErrConflict = errors.New("concurrent modification, retry from a fresh read")

	// ErrInvalidWindow rejects group orders whose window is not startTime < endTime.
	ErrInvalidWindow = errors.New("start time must be before end time")
)

// InvalidStatusError rejects an operation attempted outside the allowed
// lifecycle state. Effective carries the status computed for "now" so the
// caller can explain why.
type InvalidStatusError struct {
	Effective models.GroupOrderStatus
}

func (e *InvalidStatusError) Error() string {
	return fmt.Sprintf("operation not allowed in status %s", e.Effective)
}

// mapStoreErr translates storage sentinels into the service taxonomy.
func mapStoreErr(err error) error {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, storage.ErrConflict):
		return ErrConflict
	default:
		return err
	}
}
