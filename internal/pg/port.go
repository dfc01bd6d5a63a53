// Package pg implements the outbound payment-gateway port and its HTTP
// adapter: timeout, circuit breaker, and (for the scheduler client only)
// bounded retry, plus the card-validation and order-ID-padding helpers the
// wire format requires.
package pg

import "context"

// RequestCommand is the outbound payment request.
type RequestCommand struct {
	ExternalUserID string
	OrderID        int64
	CardType       string
	CardNo         string
	Amount         int64
}

// RequestResult is the outcome of RequestPayment: exactly one of Success or
// Failure is populated.
type RequestResult struct {
	Success *RequestSuccess
	Failure *RequestFailure
}

// RequestSuccess carries the PG's transaction key for later ledger lookups.
type RequestSuccess struct {
	TransactionKey string
}

// RequestFailure carries the PG's error classification inputs.
type RequestFailure struct {
	ErrorCode   string
	Message     string
	IsTimeout   bool
	IsRetryable bool
}

// LedgerStatus is the PG's coarse status for an order or transaction.
type LedgerStatus string

const (
	LedgerPending LedgerStatus = "PENDING"
	LedgerSuccess LedgerStatus = "SUCCESS"
	LedgerFailed  LedgerStatus = "FAILED"
)

// LedgerRecord is the detailed record returned by GetStatusByTransaction.
type LedgerRecord struct {
	TransactionKey string
	Status         LedgerStatus
	ErrorCode      string
}

// Port is the narrow boundary the purchasing core integrates the payment
// gateway through. Implementations may fail any call; callers must never
// assume a PENDING result is transient without re-querying.
type Port interface {
	RequestPayment(ctx context.Context, cmd RequestCommand) (RequestResult, error)
	GetStatusByOrder(ctx context.Context, externalUserID string, paddedOrderID string) (LedgerStatus, error)
	GetStatusByTransaction(ctx context.Context, externalUserID string, transactionKey string) (LedgerRecord, error)
}
