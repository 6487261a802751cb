package httpapi

import (
	"errors"
	"time"

	"github.com/dmitrijs2005/weekplanner/internal/common"
	"github.com/dmitrijs2005/weekplanner/internal/logging"
	"github.com/gofiber/fiber/v2"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Status    int    `json:"status"`
	Message   string `json:"message"`
	Ok        bool   `json:"ok"`
	Type      string `json:"type"`
	Timestamp string `json:"timestamp"`
	URL       string `json:"url"`
}

func writeError(c *fiber.Ctx, status int, message, errorType string) error {
	return c.Status(status).JSON(ErrorBody{
		Status:    status,
		Message:   message,
		Ok:        false,
		Type:      errorType,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		URL:       c.OriginalURL(),
	})
}

// classify maps a service error onto a status code and error type.
func classify(err error) (int, string) {
	var fe *fiber.Error
	switch {
	case errors.Is(err, common.ErrorValidation):
		return fiber.StatusBadRequest, "validation"
	case errors.Is(err, common.ErrorUnauthorized),
		errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrTokenExpired):
		return fiber.StatusUnauthorized, "unauthorized"
	case errors.Is(err, common.ErrorNotFound):
		return fiber.StatusNotFound, "not_found"
	case errors.Is(err, common.ErrorConflict):
		return fiber.StatusConflict, "conflict"
	case errors.As(err, &fe):
		return fe.Code, "http"
	}
	return fiber.StatusInternalServerError, "internal"
}

func errorHandler(log logging.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status, errorType := classify(err)
		message := err.Error()

		var fe *fiber.Error
		if errors.As(err, &fe) {
			message = fe.Message
		}
		if status == fiber.StatusInternalServerError {
			if log != nil {
				log.Error(c.UserContext(), "request failed",
					"method", c.Method(), "path", c.Path(), "error", err)
			}
			message = "internal server error"
		}
		return writeError(c, status, message, errorType)
	}
}
