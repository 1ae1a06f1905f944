package middleware

import (
	"io"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
)

// Logger emits one structured line per request with request_id, method,
// path, status and latency (milliseconds, as float).
//
// Errors returned by downstream handlers are passed to the app's
// ErrorHandler here so the logged status is the one the client sees.
func Logger(log zerolog.Logger) fiber.Handler {
	return requestLogger(log, nil)
}

// LoggerWithWriter logs JSON lines to w, stamping "ts" in loc.
func LoggerWithWriter(w io.Writer, loc *time.Location) fiber.Handler {
	if loc == nil {
		loc = time.UTC
	}
	return requestLogger(zerolog.New(w), loc)
}

func requestLogger(log zerolog.Logger, loc *time.Location) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		if err := c.Next(); err != nil {
			if herr := c.App().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		status := c.Response().StatusCode()
		event := log.Info()
		switch {
		case status >= fiber.StatusInternalServerError:
			event = log.Error()
		case status >= fiber.StatusBadRequest:
			event = log.Warn()
		}
		if loc != nil {
			event = event.Str("ts", time.Now().In(loc).Format(time.RFC3339Nano))
		}

		rid := GetRequestID(c)
		event.
			Str("request_id", rid).
			Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Float64("latency", float64(time.Since(start).Microseconds())/1000).
			Msg("http request")
		return nil
	}
}
