package handler

import (
	"context"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/ecomcore/purchasing-core/internal/apperr"
	"github.com/ecomcore/purchasing-core/internal/model"
	"github.com/ecomcore/purchasing-core/internal/orchestrator"
)

// externalUserIDHeader carries the caller's identity on the create/list
// order routes.
const externalUserIDHeader = "X-External-User-Id"

// UserResolver resolves an externalUserId to its internal user record, used
// here only to scope list/get reads to the caller's own orders.
type UserResolver interface {
	GetByExternalID(ctx context.Context, externalUserID string) (*model.User, error)
}

// OrderUseCase is the orchestrator surface this handler drives.
type OrderUseCase interface {
	CreateOrder(ctx context.Context, cmd orchestrator.CreateOrderCommand) (*model.Order, error)
	CancelOrder(ctx context.Context, externalUserID string, orderID int64, reason string) (*model.Order, error)
	GetOrder(ctx context.Context, orderID int64) (*model.Order, error)
	GetOrders(ctx context.Context, userID int64) ([]*model.Order, error)
}

// OrderHandler exposes the order use case over HTTP.
type OrderHandler struct {
	orders   OrderUseCase
	users    UserResolver
	validate *validator.Validate
}

// NewOrderHandler builds an OrderHandler.
func NewOrderHandler(orders OrderUseCase, users UserResolver, validate *validator.Validate) *OrderHandler {
	return &OrderHandler{orders: orders, users: users, validate: validate}
}

// CreateOrder handles POST /api/v1/orders.
func (h *OrderHandler) CreateOrder(c *fiber.Ctx) error {
	externalUserID := c.Get(externalUserIDHeader)
	if externalUserID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": externalUserIDHeader + " header is required"})
	}

	var req CreateOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	order, err := h.orders.CreateOrder(c.Context(), req.toCommand(externalUserID))
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(toOrderInfo(order))
}

// ListOrders handles GET /api/v1/orders.
func (h *OrderHandler) ListOrders(c *fiber.Ctx) error {
	externalUserID := c.Get(externalUserIDHeader)
	if externalUserID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": externalUserIDHeader + " header is required"})
	}

	user, err := h.users.GetByExternalID(c.Context(), externalUserID)
	if err != nil {
		return writeError(c, err)
	}

	orders, err := h.orders.GetOrders(c.Context(), user.ID)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(toOrderInfoList(orders))
}

// GetOrder handles GET /api/v1/orders/{id}.
func (h *OrderHandler) GetOrder(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid order id"})
	}

	externalUserID := c.Get(externalUserIDHeader)
	order, err := h.orders.GetOrder(c.Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	if externalUserID != "" {
		user, err := h.users.GetByExternalID(c.Context(), externalUserID)
		if err != nil {
			return writeError(c, err)
		}
		if user.ID != order.UserID {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "order not found"})
		}
	}
	return c.Status(fiber.StatusOK).JSON(toOrderInfo(order))
}

// CancelOrder handles a user-initiated cancellation via
// Orchestrator.CancelOrder, which shares its stock/point restore step with
// the PG business-failure path, so refunds behave identically either way.
func (h *OrderHandler) CancelOrder(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid order id"})
	}
	externalUserID := c.Get(externalUserIDHeader)
	if externalUserID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": externalUserIDHeader + " header is required"})
	}

	order, err := h.orders.CancelOrder(c.Context(), externalUserID, id, "requested by customer")
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(toOrderInfo(order))
}

func writeError(c *fiber.Ctx, err error) error {
	return c.Status(apperr.HTTPStatus(err)).JSON(fiber.Map{"error": err.Error()})
}
