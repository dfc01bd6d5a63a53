// Command pgsim is a throwaway in-memory payment gateway for exercising the
// purchasing core against something that speaks its PG HTTP contract
// without a real payment network behind it: POST /payments to request a
// charge, GET /payments?orderId=|transactionKey= to poll the ledger.
//
// Outcomes are driven entirely by the card number so integration tests can
// pick a scenario without any extra configuration:
//
//	ends in 0000  -> business failure (INSUFFICIENT_FUNDS)
//	ends in 1111  -> business failure (INVALID_CARD)
//	ends in 9999  -> external-system failure (GATEWAY_TIMEOUT, HTTP 503)
//	anything else -> success
//
// On success or business failure it also fires the order's callback URL a
// short delay later, the same way a real gateway would notify the merchant
// asynchronously instead of trusting its own synchronous response.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type ledgerEntry struct {
	transactionKey string
	orderID        string
	status         string
	errorCode      string
}

type store struct {
	mu           sync.Mutex
	byOrderID    map[string]*ledgerEntry
	byTxnKey     map[string]*ledgerEntry
	callbackHTTP *http.Client
}

func newStore() *store {
	return &store{
		byOrderID:    make(map[string]*ledgerEntry),
		byTxnKey:     make(map[string]*ledgerEntry),
		callbackHTTP: &http.Client{Timeout: 5 * time.Second},
	}
}

type requestPaymentBody struct {
	OrderID     string `json:"orderId"`
	CardType    string `json:"cardType"`
	CardNo      string `json:"cardNo"`
	Amount      int64  `json:"amount"`
	CallbackURL string `json:"callbackUrl"`
}

type requestPaymentResponse struct {
	TransactionKey string `json:"transactionKey"`
	ErrorCode      string `json:"errorCode,omitempty"`
	Message        string `json:"message,omitempty"`
}

type ledgerResponse struct {
	TransactionKey string `json:"transactionKey"`
	Status         string `json:"status"`
	ErrorCode      string `json:"errorCode,omitempty"`
}

type callbackBody struct {
	TransactionKey string `json:"transactionKey"`
	OrderID        string `json:"orderId"`
	Status         string `json:"status"`
}

// classifyCard returns (status, errorCode, httpStatus) for a card number,
// per the scenarios documented on the package.
func classifyCard(cardNo string) (status, errorCode string, httpStatus int) {
	switch {
	case strings.HasSuffix(cardNo, "0000"):
		return "FAILED", "INSUFFICIENT_FUNDS", http.StatusOK
	case strings.HasSuffix(cardNo, "1111"):
		return "FAILED", "INVALID_CARD", http.StatusOK
	case strings.HasSuffix(cardNo, "9999"):
		return "FAILED", "GATEWAY_TIMEOUT", http.StatusServiceUnavailable
	default:
		return "SUCCESS", "", http.StatusOK
	}
}

func (s *store) handleRequestPayment(c *fiber.Ctx) error {
	var body requestPaymentBody
	if err := c.BodyParser(&body); err != nil {
		return c.Status(http.StatusBadRequest).SendString("invalid request body")
	}
	if body.Amount < 0 {
		return c.Status(http.StatusBadRequest).SendString("amount must not be negative")
	}

	status, errorCode, httpStatus := classifyCard(body.CardNo)
	txnKey := uuid.NewString()

	entry := &ledgerEntry{
		transactionKey: txnKey,
		orderID:        body.OrderID,
		status:         status,
		errorCode:      errorCode,
	}
	s.mu.Lock()
	s.byOrderID[body.OrderID] = entry
	s.byTxnKey[txnKey] = entry
	s.mu.Unlock()

	resp := requestPaymentResponse{TransactionKey: txnKey}
	if status == "FAILED" {
		resp.ErrorCode = errorCode
		resp.Message = fmt.Sprintf("payment declined: %s", errorCode)
	}

	if body.CallbackURL != "" && httpStatus != http.StatusServiceUnavailable {
		go s.fireCallback(body.CallbackURL, body.OrderID, txnKey, status)
	}

	return c.Status(httpStatus).JSON(resp)
}

// fireCallback notifies the merchant's callback URL after a short delay,
// mirroring a real gateway's asynchronous webhook rather than trusting the
// synchronous POST /payments response as the final word.
func (s *store) fireCallback(callbackURL, orderID, txnKey, status string) {
	time.Sleep(200 * time.Millisecond)

	buf, err := json.Marshal(callbackBody{TransactionKey: txnKey, OrderID: orderID, Status: status})
	if err != nil {
		log.Error().Err(err).Msg("marshal callback body")
		return
	}

	url := strings.TrimSuffix(callbackURL, "/") + "/" + orderID + "/callback"
	resp, err := s.callbackHTTP.Post(url, "application/json", bytes.NewReader(buf))
	if err != nil {
		log.Warn().Err(err).Str("url", url).Msg("callback delivery failed")
		return
	}
	defer resp.Body.Close()
	log.Info().Str("url", url).Int("status", resp.StatusCode).Msg("callback delivered")
}

func (s *store) handleGetStatus(c *fiber.Ctx) error {
	orderID := c.Query("orderId")
	txnKey := c.Query("transactionKey")

	s.mu.Lock()
	var entry *ledgerEntry
	if orderID != "" {
		entry = s.byOrderID[orderID]
	} else if txnKey != "" {
		entry = s.byTxnKey[txnKey]
	}
	s.mu.Unlock()

	if entry == nil {
		return c.Status(http.StatusNotFound).SendString("not found")
	}

	return c.JSON(ledgerResponse{
		TransactionKey: entry.transactionKey,
		Status:         entry.status,
		ErrorCode:      entry.errorCode,
	})
}

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

	port := os.Getenv("PGSIM_PORT")
	if port == "" {
		port = "4000"
	}

	s := newStore()

	app := fiber.New(fiber.Config{AppName: "PG Simulator"})
	app.Use(recover.New())
	app.Use(logger.New())

	app.Post("/payments", s.handleRequestPayment)
	app.Get("/payments", s.handleGetStatus)

	log.Info().Str("port", port).Msg("starting payment gateway simulator")
	if err := app.Listen(":" + port); err != nil {
		log.Fatal().Err(err).Msg("pgsim server failed")
	}
}
