package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ecomcore/purchasing-core/internal/reconcile"
)

// ReportProvider is the reconciliation loop surface this handler exposes.
type ReportProvider interface {
	Report(dateKey string) (reconcile.Page, bool)
}

// ReconciliationHandler serves the cached daily reconciliation tally.
type ReconciliationHandler struct {
	reports ReportProvider
}

// NewReconciliationHandler builds a ReconciliationHandler.
func NewReconciliationHandler(reports ReportProvider) *ReconciliationHandler {
	return &ReconciliationHandler{reports: reports}
}

// Report handles GET /api/v1/reconciliation/report?date=YYYY-MM-DD.
func (h *ReconciliationHandler) Report(c *fiber.Ctx) error {
	dateKey := c.Query("date")
	if dateKey == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "date query parameter is required"})
	}

	page, ok := h.reports.Report(dateKey)
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "no reconciliation tally cached for that date"})
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(page.Items)
}
