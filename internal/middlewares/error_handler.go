package middlewares

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"

	"github.com/papersync/papersync/internal/domain"
)

// ErrorHandler maps errors escaping a handler to the structured
// {error: {code, message}} body. Internal detail is logged, never
// returned to the caller.
func ErrorHandler(c fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	code := string(domain.ErrorKindInternal)
	message := "An unexpected error occurred"

	if appErr, ok := domain.AsAppError(err); ok {
		status = appErr.Status
		code = string(appErr.Kind)
		message = appErr.Message
	} else {
		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			status = fiberErr.Code
			message = fiberErr.Message
		}
	}

	requestID, _ := c.Locals("request_id").(string)

	log.Error().
		Err(err).
		Str("request_id", requestID).
		Str("method", c.Method()).
		Str("path", c.Path()).
		Int("status", status).
		Msg("Request failed")

	return c.Status(status).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    code,
			"message": message,
		},
	})
}
