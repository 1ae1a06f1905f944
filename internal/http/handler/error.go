package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"svgupload/internal/http/middleware"
)

// Error codes returned in the envelope.
const (
	codeBadRequest       = "BAD_REQUEST"
	codeNotFound         = "NOT_FOUND"
	codeMethodNotAllowed = "METHOD_NOT_ALLOWED"
	codeTooLarge         = "PAYLOAD_TOO_LARGE"
	codeUnsupportedMedia = "UNSUPPORTED_MEDIA_TYPE"
	codeSVGRejected      = "SVG_REJECTED"
	codeInternal         = "INTERNAL_ERROR"
)

type errorPayload struct {
	RequestID string        `json:"request_id"`
	Error     errorEnvelope `json:"error"`
}

type errorEnvelope struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeError writes the JSON error envelope. message must be safe to show
// to clients; internal errors are never passed through.
func writeError(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(errorPayload{
		RequestID: middleware.GetRequestID(c),
		Error:     errorEnvelope{Code: code, Message: message},
	})
}

// ErrorHandler maps errors that escape handlers (routing misses, body limit,
// recovered panics) onto the same envelope the handlers use.
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		var fe *fiber.Error
		if errors.As(err, &fe) {
			status = fe.Code
		}

		switch status {
		case fiber.StatusBadRequest:
			return writeError(c, status, codeBadRequest, "bad request")
		case fiber.StatusNotFound:
			return writeError(c, status, codeNotFound, "resource not found")
		case fiber.StatusMethodNotAllowed:
			return writeError(c, status, codeMethodNotAllowed, "method not allowed")
		case fiber.StatusRequestEntityTooLarge:
			return writeError(c, status, codeTooLarge, "upload exceeds the size limit")
		case fiber.StatusUnsupportedMediaType:
			return writeError(c, status, codeUnsupportedMedia, "unsupported media type")
		default:
			return writeError(c, status, codeInternal, "internal server error")
		}
	}
}
