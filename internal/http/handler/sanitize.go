package handler

import (
	"os"

	"github.com/gofiber/fiber/v2"

	"svgupload/internal/svg"
	"svgupload/internal/upload"
)

// SanitizeOutcomeHeader carries the gate decision label on /svg/sanitize responses.
const SanitizeOutcomeHeader = "X-Sanitize-Outcome"

// SanitizeSVG godoc
// @Summary Sanitize an SVG without storing it
// @Description Runs the upload through the same pre-store hook as POST /documents and returns the result.
// @Tags svg
// @Accept multipart/form-data
// @Produce image/svg+xml
// @Param file formData file true "SVG or SVGZ file"
// @Success 200 {file} file
// @Failure 415 {object} errorPayload
// @Failure 422 {object} errorPayload
// @Router /svg/sanitize [post]
func SanitizeSVG(gate SVGGate, tmpDir string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fh, err := c.FormFile("file")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required")
		}
		declared := fh.Header.Get("Content-Type")
		if !gate.Applies(declared, fh.Filename) {
			return writeError(c, fiber.StatusUnsupportedMediaType, codeUnsupportedMedia, "only SVG uploads can be sanitized")
		}

		tmp, err := os.CreateTemp(tmpDir, "svg-sanitize-*")
		if err != nil {
			return writeError(c, fiber.StatusInternalServerError, codeInternal, "internal server error")
		}
		tmpName := tmp.Name()
		tmp.Close()
		defer os.Remove(tmpName)

		if err := c.SaveFile(fh, tmpName); err != nil {
			return writeError(c, fiber.StatusInternalServerError, codeInternal, "internal server error")
		}

		ev := &upload.Event{Type: declared, TmpName: tmpName, Name: fh.Filename}
		d := gate.Prefilter(c.UserContext(), ev)
		if ev.Error != "" {
			return writeError(c, fiber.StatusUnprocessableEntity, codeSVGRejected, ev.Error)
		}

		body, err := os.ReadFile(tmpName)
		if err != nil {
			return writeError(c, fiber.StatusInternalServerError, codeInternal, "internal server error")
		}

		c.Set(SanitizeOutcomeHeader, d.Label())
		c.Set(fiber.HeaderContentType, svg.MediaType)
		setSandboxHeaders(c)
		if d.Compressed {
			c.Set(fiber.HeaderContentEncoding, "gzip")
		}
		return c.Status(fiber.StatusOK).Send(body)
	}
}
