package model

import "time"

// PaymentStatus is the fixed wire status alphabet for Payment.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "PENDING"
	PaymentSuccess PaymentStatus = "SUCCESS"
	PaymentFailed  PaymentStatus = "FAILED"
)

// Payment references its Order by ID only; exactly one Payment exists per
// Order.
type Payment struct {
	ID             int64
	OrderID        int64
	UserID         int64
	TotalAmount    int64
	UsedPoint      int64
	PaidAmount     int64
	Status         PaymentStatus
	CardType       string
	CardNo         string
	FailureReason  string
	PGRequestedAt  time.Time
	PGCompletedAt  *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// RequiresCard reports whether cardType/cardNo must be present: any
// positive paidAmount implies a card was charged.
func (p *Payment) RequiresCard() bool {
	return p.PaidAmount > 0
}
