package model

import "time"

// OrderStatus is the fixed wire status alphabet for Order.
type OrderStatus string

const (
	OrderPending   OrderStatus = "PENDING"
	OrderCompleted OrderStatus = "COMPLETED"
	OrderCanceled  OrderStatus = "CANCELED"
)

// IsTerminal reports whether status can no longer transition.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderCompleted || s == OrderCanceled
}

// OrderItem is a value object owned by Order; it is a frozen snapshot of a
// Product's name and price at order time, not a live reference.
type OrderItem struct {
	ProductID int64
	Name      string
	Price     int64
	Quantity  int64
}

// Subtotal returns Price*Quantity for this line.
func (i OrderItem) Subtotal() int64 {
	return i.Price * i.Quantity
}

// Order is the aggregate root for a single purchase.
type Order struct {
	ID              int64
	UserID          int64
	Status          OrderStatus
	TotalAmount     int64
	Items           []OrderItem
	CouponCode      string
	DiscountAmount  int64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Subtotal sums every item's line total before discount.
func (o *Order) Subtotal() int64 {
	var sum int64
	for _, it := range o.Items {
		sum += it.Subtotal()
	}
	return sum
}

// Complete moves a PENDING order to COMPLETED. Terminal states are absorbing;
// calling this on an already-terminal order is rejected by the caller's
// state-machine wrapper, not here — Order itself carries no transition logic
// beyond the field mutation used by that wrapper.
func (o *Order) Complete() {
	o.Status = OrderCompleted
}

// Cancel moves a PENDING order to CANCELED.
func (o *Order) Cancel() {
	o.Status = OrderCanceled
}
