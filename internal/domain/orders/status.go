package orders

import "fmt"

// OrderStatus is a custom type that represents the current status of an order in its lifecycle.
type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusConfirmed OrderStatus = "confirmed"
	StatusPreparing OrderStatus = "preparing"
	StatusReady     OrderStatus = "ready"
	StatusCompleted OrderStatus = "completed"
	StatusCancelled OrderStatus = "cancelled"
)

// Allowed state transitions. Completed and cancelled are terminal.
var allowed = map[OrderStatus]map[OrderStatus]bool{
	StatusPending:   {StatusConfirmed: true, StatusCancelled: true},
	StatusConfirmed: {StatusPreparing: true, StatusCancelled: true},
	StatusPreparing: {StatusReady: true},
	StatusReady:     {StatusCompleted: true},
	StatusCompleted: {},
	StatusCancelled: {},
}

// ParseStatus validates a raw status token.
func ParseStatus(raw string) (OrderStatus, error) {
	s := OrderStatus(raw)
	if _, ok := allowed[s]; !ok {
		return "", fmt.Errorf("%w: unknown status %q", ErrValidation, raw)
	}
	return s, nil
}

// Transition validates current -> requested. A request equal to the current
// status is idempotent: it succeeds with changed=false and must not emit an
// event. Any pair outside the graph fails with *InvalidTransitionError.
func Transition(current, requested OrderStatus) (next OrderStatus, changed bool, err error) {
	if current == requested {
		return current, false, nil
	}
	if nexts := allowed[current]; nexts != nil && nexts[requested] {
		return requested, true, nil
	}
	return "", false, &InvalidTransitionError{From: current, To: requested}
}

// CanTransition checks if from->to is allowed.
func CanTransition(from, to OrderStatus) bool {
	nexts := allowed[from]
	return nexts != nil && nexts[to]
}
