package middlewares

import (
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/xid"
	"github.com/rs/zerolog/log"

	"github.com/papersync/papersync/internal/domain"
)

// RequestLoggerMiddleware tags every request with a correlation id and
// logs completion with the elapsed time.
func RequestLoggerMiddleware() fiber.Handler {
	return func(c fiber.Ctx) error {
		requestID := xid.New().String()
		start := time.Now()

		c.Locals("request_id", requestID)

		log.Info().
			Str("request_id", requestID).
			Str("method", c.Method()).
			Str("path", c.Path()).
			Msg("Request received")

		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			status = domain.StatusOf(err)
		}

		log.Info().
			Str("request_id", requestID).
			Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Dur("duration", time.Since(start)).
			Msg("Request completed")

		return err
	}
}
