package pg

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"github.com/ecomcore/purchasing-core/internal/config"
)

// HTTPAdapter implements Port over the PG's HTTP contract: POST
// /payments and GET /payments?orderId=. The online RequestPayment call is
// wrapped in a fixed timeout and a circuit breaker; it is never retried, to
// keep user-facing latency bounded. GetStatusByOrder/GetStatusByTransaction
// are timeout-wrapped but breaker-free, since the reconciliation loop and
// SchedulerAdapter are the ones that add retry around them.
type HTTPAdapter struct {
	client      *http.Client
	baseURL     string
	timeout     time.Duration
	callbackURL string
	cb          *gobreaker.CircuitBreaker
}

// NewHTTPAdapter builds an adapter from pgCfg/cbCfg.
func NewHTTPAdapter(pgCfg config.PGConfig, cbCfg config.BreakerConfig) *HTTPAdapter {
	settings := gobreaker.Settings{
		Name:        "pg-request-payment",
		MaxRequests: cbCfg.MaxRequests,
		Interval:    cbCfg.Interval,
		Timeout:     cbCfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.Requests >= cbCfg.MinRequests &&
				float64(counts.TotalFailures)/float64(counts.Requests) >= cbCfg.FailureRate
		},
	}
	return &HTTPAdapter{
		client:      &http.Client{},
		baseURL:     pgCfg.BaseURL,
		timeout:     pgCfg.RequestTimeout,
		callbackURL: pgCfg.CallbackURL,
		cb:          gobreaker.NewCircuitBreaker(settings),
	}
}

type requestPaymentWireBody struct {
	OrderID     string `json:"orderId"`
	CardType    string `json:"cardType"`
	CardNo      string `json:"cardNo"`
	Amount      int64  `json:"amount"`
	CallbackURL string `json:"callbackUrl"`
}

type requestPaymentWireResponse struct {
	TransactionKey string `json:"transactionKey"`
	ErrorCode      string `json:"errorCode"`
	Message        string `json:"message"`
}

// RequestPayment issues POST /payments through the circuit breaker. When the
// breaker is OPEN, it returns a Failure with errorCode CIRCUIT_BREAKER_OPEN
// without attempting the call.
func (a *HTTPAdapter) RequestPayment(ctx context.Context, cmd RequestCommand) (RequestResult, error) {
	out, err := a.cb.Execute(func() (any, error) {
		return a.doRequestPayment(ctx, cmd)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return RequestResult{Failure: &RequestFailure{
				ErrorCode:   CircuitBreakerOpenCode,
				Message:     "circuit breaker open",
				IsRetryable: false,
			}}, nil
		}
		return RequestResult{}, err
	}
	return out.(RequestResult), nil
}

func (a *HTTPAdapter) doRequestPayment(ctx context.Context, cmd RequestCommand) (RequestResult, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	body := requestPaymentWireBody{
		OrderID:     PadOrderID(cmd.OrderID),
		CardType:    cmd.CardType,
		CardNo:      cmd.CardNo,
		Amount:      cmd.Amount,
		CallbackURL: a.callbackURL,
	}
	buf, err := json.Marshal(body)
	if err != nil {
		return RequestResult{}, fmt.Errorf("marshal request payment body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/payments", bytes.NewReader(buf))
	if err != nil {
		return RequestResult{}, fmt.Errorf("build request payment request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return RequestResult{Failure: &RequestFailure{ErrorCode: "TIMEOUT", Message: err.Error(), IsTimeout: true}}, nil
		}
		return RequestResult{Failure: &RequestFailure{ErrorCode: "CONNECTION_ERROR", Message: err.Error(), IsRetryable: true}}, nil
	}
	defer resp.Body.Close()

	var wire requestPaymentWireResponse
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return RequestResult{}, fmt.Errorf("decode request payment response: %w", err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 && wire.ErrorCode == "" {
		return RequestResult{Success: &RequestSuccess{TransactionKey: wire.TransactionKey}}, nil
	}

	return RequestResult{Failure: &RequestFailure{
		ErrorCode:   wire.ErrorCode,
		Message:     wire.Message,
		IsRetryable: resp.StatusCode >= 500,
	}}, nil
}

type ledgerWireResponse struct {
	TransactionKey string `json:"transactionKey"`
	Status         string `json:"status"`
	ErrorCode      string `json:"errorCode"`
}

// GetStatusByOrder issues GET /payments?orderId= with a fixed timeout.
func (a *HTTPAdapter) GetStatusByOrder(ctx context.Context, externalUserID, paddedOrderID string) (LedgerStatus, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	url := fmt.Sprintf("%s/payments?orderId=%s", a.baseURL, paddedOrderID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("build get status request: %w", err)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("get status by order %s: %w", paddedOrderID, err)
	}
	defer resp.Body.Close()

	var wire ledgerWireResponse
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return "", fmt.Errorf("decode ledger response: %w", err)
	}
	return LedgerStatus(wire.Status), nil
}

// GetStatusByTransaction issues the detailed ledger lookup.
func (a *HTTPAdapter) GetStatusByTransaction(ctx context.Context, externalUserID, transactionKey string) (LedgerRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	url := fmt.Sprintf("%s/payments?transactionKey=%s", a.baseURL, transactionKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return LedgerRecord{}, fmt.Errorf("build get status by transaction request: %w", err)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return LedgerRecord{}, fmt.Errorf("get status by transaction %s: %w", transactionKey, err)
	}
	defer resp.Body.Close()

	var wire ledgerWireResponse
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return LedgerRecord{}, fmt.Errorf("decode ledger response: %w", err)
	}
	return LedgerRecord{TransactionKey: wire.TransactionKey, Status: LedgerStatus(wire.Status), ErrorCode: wire.ErrorCode}, nil
}
