package pg

import "strings"

// FailureKind buckets a payment gateway error code into one of two reaction
// paths: cancel the order outright, or leave it for reconciliation.
type FailureKind string

const (
	BusinessFailure       FailureKind = "BUSINESS_FAILURE"
	ExternalSystemFailure FailureKind = "EXTERNAL_SYSTEM_FAILURE"
)

// CircuitBreakerOpenCode is returned by the adapter (not the PG itself) when
// the breaker short-circuits a call. It is always classified as an
// external-system failure, never a business failure, so it never cancels
// the order.
const CircuitBreakerOpenCode = "CIRCUIT_BREAKER_OPEN"

// businessFailureSubstrings matches by substring, case-sensitively, per the
// PG's own error-code convention.
var businessFailureSubstrings = []string{
	"LIMIT_EXCEEDED",
	"INVALID_CARD",
	"CARD_ERROR",
	"INSUFFICIENT_FUNDS",
	"PAYMENT_FAILED",
}

// Classify buckets an error code into BUSINESS_FAILURE or
// EXTERNAL_SYSTEM_FAILURE. Everything not matched as a business failure
// falls into external-system, including CIRCUIT_BREAKER_OPEN, 5xx, and
// unknown codes — the system never guesses at a business outcome.
func Classify(errorCode string) FailureKind {
	for _, s := range businessFailureSubstrings {
		if strings.Contains(errorCode, s) {
			return BusinessFailure
		}
	}
	return ExternalSystemFailure
}
