package orders

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks bad input shape (empty item list, quantity < 1, unknown status token).
	ErrValidation = errors.New("validation failed")

	// ErrNotFound covers both unknown orders and orders the requester may not see.
	ErrNotFound = errors.New("order not found")
)

// InvalidTransitionError reports an illegal status change, carrying both states.
type InvalidTransitionError struct {
	From OrderStatus
	To   OrderStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid status transition from %q to %q", e.From, e.To)
}
