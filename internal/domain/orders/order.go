package orders

import (
	"fmt"
	"time"
)

// OrderItem represents a single line item in an order.
type OrderItem struct {
	MenuID    int
	Name      string
	UnitPrice Money // per-unit in minor units
	Quantity  int
}

// Order represents a customer's order. OwnerID and Items are immutable after
// creation; Status only changes through Transition.
type Order struct {
	ID          string
	OwnerID     string
	Items       []OrderItem
	TotalAmount Money
	Status      OrderStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// SetTotalAmount recomputes the total from items, never trusting input totals.
func (order *Order) SetTotalAmount() {
	var sum Money
	for _, it := range order.Items {
		sum += Money(it.Quantity) * it.UnitPrice
	}
	order.TotalAmount = sum
}

// ValidateItems enforces the order shape: a non-empty item list with every
// quantity >= 1.
func ValidateItems(items []OrderItem) error {
	if len(items) == 0 {
		return fmt.Errorf("%w: order must contain at least one item", ErrValidation)
	}
	for i, it := range items {
		if it.Quantity < 1 {
			return fmt.Errorf("%w: item %d quantity must be >= 1", ErrValidation, i+1)
		}
		if it.UnitPrice < 0 {
			return fmt.Errorf("%w: item %d unit price must not be negative", ErrValidation, i+1)
		}
	}
	return nil
}

// Clone returns a deep copy so readers never observe a partially updated order.
func (order *Order) Clone() *Order {
	cp := *order
	cp.Items = make([]OrderItem, len(order.Items))
	copy(cp.Items, order.Items)
	return &cp
}
