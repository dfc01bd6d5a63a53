package handler

import (
	"context"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// CallbackUseCase is the orchestrator surface the callback handler drives.
type CallbackUseCase interface {
	HandleCallback(ctx context.Context, orderID int64) error
}

// CallbackHandler implements POST /api/v1/orders/{id}/callback.
type CallbackHandler struct {
	orders   CallbackUseCase
	validate *validator.Validate
}

// NewCallbackHandler builds a CallbackHandler.
func NewCallbackHandler(orders CallbackUseCase, validate *validator.Validate) *CallbackHandler {
	return &CallbackHandler{orders: orders, validate: validate}
}

// Handle always responds 200, even for an already-terminal order: the
// callback is a trigger to re-check the ledger, never the source of truth
// itself, so there is no failure mode visible to the PG's retry logic.
func (h *CallbackHandler) Handle(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid order id"})
	}

	var req CallbackRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	if err := h.orders.HandleCallback(c.Context(), id); err != nil {
		log.Warn().Err(err).Int64("order_id", id).Str("claimed_status", req.Status).Msg("callback processing failed, PG may retry")
	}
	return c.SendStatus(fiber.StatusOK)
}
