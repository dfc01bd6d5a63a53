package handler

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	intvalidator "github.com/ecomcore/purchasing-core/internal/validator"
)

type mockCallbackUseCase struct {
	handleCallbackFn func(ctx context.Context, orderID int64) error
}

func (m *mockCallbackUseCase) HandleCallback(ctx context.Context, orderID int64) error {
	return m.handleCallbackFn(ctx, orderID)
}

func setupCallbackTestApp(useCase CallbackUseCase) *fiber.App {
	app := fiber.New()
	h := NewCallbackHandler(useCase, intvalidator.New())
	app.Post("/api/v1/orders/:id/callback", h.Handle)
	return app
}

func TestCallback_Success_Returns200(t *testing.T) {
	useCase := &mockCallbackUseCase{handleCallbackFn: func(ctx context.Context, orderID int64) error {
		return nil
	}}
	app := setupCallbackTestApp(useCase)

	body := `{"transactionKey":"tx-1","orderId":"000000000001","status":"SUCCESS"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/1/callback", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestCallback_UseCaseError_StillReturns200(t *testing.T) {
	useCase := &mockCallbackUseCase{handleCallbackFn: func(ctx context.Context, orderID int64) error {
		return errors.New("ledger lookup failed")
	}}
	app := setupCallbackTestApp(useCase)

	body := `{"transactionKey":"tx-1","orderId":"000000000001","status":"SUCCESS"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/1/callback", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode, "the PG's retry logic must never see a failure signal from this route")
}

func TestCallback_InvalidOrderID_Returns400(t *testing.T) {
	app := setupCallbackTestApp(&mockCallbackUseCase{})

	body := `{"transactionKey":"tx-1","orderId":"abc","status":"SUCCESS"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/not-a-number/callback", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestCallback_MissingTransactionKey_Returns400(t *testing.T) {
	app := setupCallbackTestApp(&mockCallbackUseCase{})

	body := `{"orderId":"000000000001","status":"SUCCESS"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/1/callback", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestCallback_MalformedJSON_Returns400(t *testing.T) {
	app := setupCallbackTestApp(&mockCallbackUseCase{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/1/callback", bytes.NewBufferString("{not json"))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestCallback_BlankTransactionKey_Returns400(t *testing.T) {
	app := setupCallbackTestApp(&mockCallbackUseCase{})

	body := `{"transactionKey":"   ","orderId":"000000000001","status":"SUCCESS"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/1/callback", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode, "notblank must reject a whitespace-only key")
}
