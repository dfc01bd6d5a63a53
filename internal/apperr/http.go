package apperr

import "github.com/gofiber/fiber/v2"

// HTTPStatus maps a Kind to its fiber status code (400/404/409/500).
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case BadRequest:
		return fiber.StatusBadRequest
	case NotFound:
		return fiber.StatusNotFound
	case Conflict:
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}
