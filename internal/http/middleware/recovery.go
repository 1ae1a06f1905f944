package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
)

// Recovery turns a panic in a downstream handler into a 500 handled by the
// app's ErrorHandler and logs it with the request ID.
func Recovery(log zerolog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				rid := GetRequestID(c)
				log.Error().
					Interface("error", r).
					Str("request_id", rid).
					Str("path", c.Path()).
					Msg("panic recovered")
				err = fiber.ErrInternalServerError
			}
		}()
		return c.Next()
	}
}
