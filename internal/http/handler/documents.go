package handler

import (
	"database/sql"
	"errors"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"svgupload/internal/service"
	"svgupload/internal/svg"
	"svgupload/internal/upload"
)

const genericContentType = "application/octet-stream"

func isNotFound(err error) bool {
	return errors.Is(err, service.ErrNotFound) || errors.Is(err, sql.ErrNoRows)
}

// ListDocuments godoc
// @Summary List documents
// @Tags documents
// @Produce json
// @Param limit query int false "page size" default(10)
// @Param offset query int false "rows to skip" default(0)
// @Success 200 {object} service.DocumentListResult
// @Failure 400 {object} errorPayload
// @Router /documents [get]
func ListDocuments(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit, err := strconv.Atoi(c.Query("limit", "10"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_LIMIT", "invalid limit")
		}
		offset, err := strconv.Atoi(c.Query("offset", "0"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_OFFSET", "invalid offset")
		}

		res, err := svc.List(c.UserContext(), limit, offset)
		if err != nil {
			return writeError(c, fiber.StatusInternalServerError, codeInternal, "internal server error")
		}
		return c.JSON(res)
	}
}

// UploadDocument godoc
// @Summary Upload a document
// @Description SVG uploads are sanitized before storage; unsafe or invalid SVG is rejected.
// @Tags documents
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "file to upload"
// @Success 201 {object} model.Document
// @Failure 400 {object} errorPayload
// @Failure 422 {object} errorPayload
// @Router /documents [post]
func UploadDocument(svc service.DocumentService, mimeTypes map[string]string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fh, err := c.FormFile("file")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required")
		}

		f, err := fh.Open()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
		}
		defer f.Close()

		ct := contentTypeFor(fh.Header.Get("Content-Type"), fh.Filename, mimeTypes)

		doc, err := svc.Upload(c.UserContext(), f, fh.Filename, ct, fh.Size)
		if err != nil {
			var rej *upload.RejectionError
			if errors.As(err, &rej) {
				return writeError(c, fiber.StatusUnprocessableEntity, codeSVGRejected, rej.Message)
			}
			return writeError(c, fiber.StatusInternalServerError, codeInternal, "internal server error")
		}
		return c.Status(fiber.StatusCreated).JSON(doc)
	}
}

// contentTypeFor keeps a specific declared type and otherwise looks the
// extension up in mimeTypes.
func contentTypeFor(declared, fileName string, mimeTypes map[string]string) string {
	if base := svg.BaseMediaType(declared); base != "" && base != genericContentType {
		return declared
	}
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(fileName), "."))
	if ct, ok := mimeTypes[ext]; ok {
		return ct
	}
	return genericContentType
}

// GetDocument godoc
// @Summary Get document metadata
// @Tags documents
// @Produce json
// @Param id path string true "document ID (UUID)"
// @Success 200 {object} model.Document
// @Failure 404 {object} errorPayload
// @Router /documents/{id} [get]
func GetDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		doc, err := svc.Get(c.UserContext(), id)
		if err != nil {
			if isNotFound(err) {
				return writeError(c, fiber.StatusNotFound, codeNotFound, "document not found")
			}
			return writeError(c, fiber.StatusInternalServerError, codeInternal, "internal server error")
		}
		return c.JSON(doc)
	}
}

// DownloadDocument godoc
// @Summary Download stored content
// @Description Content is served with a sandboxing Content-Security-Policy; types not rendered inline are sent as attachments.
// @Tags documents
// @Param id path string true "document ID (UUID)"
// @Success 200
// @Failure 404 {object} errorPayload
// @Router /documents/{id}/content [get]
func DownloadDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		rc, doc, err := svc.Open(c.UserContext(), id)
		if err != nil {
			if isNotFound(err) {
				return writeError(c, fiber.StatusNotFound, codeNotFound, "document not found")
			}
			return writeError(c, fiber.StatusInternalServerError, codeInternal, "internal server error")
		}

		c.Set(fiber.HeaderContentType, doc.ContentType)
		setSandboxHeaders(c)
		if !inlineType(doc.ContentType) {
			c.Set(fiber.HeaderContentDisposition, "attachment")
		}
		if doc.ContentEncoding != "" {
			c.Set(fiber.HeaderContentEncoding, doc.ContentEncoding)
		}
		// SendStream closes rc once the body is written.
		return c.SendStream(rc, int(doc.Size))
	}
}

// sandboxCSP is sent with every served upload. Only uploads that claim SVG
// pass through the gate, so other markup (text/html, text/xml) must not run
// scripts on this origin either.
const sandboxCSP = "default-src 'none'; style-src 'unsafe-inline'; sandbox"

// Types a browser may render inline. Anything else is sent as an attachment.
var inlineTypes = map[string]bool{
	svg.MediaType:     true,
	"image/png":       true,
	"image/jpeg":      true,
	"image/gif":       true,
	"image/webp":      true,
	"text/plain":      true,
	"application/pdf": true,
}

func inlineType(contentType string) bool {
	return inlineTypes[svg.BaseMediaType(contentType)]
}

func setSandboxHeaders(c *fiber.Ctx) {
	c.Set(fiber.HeaderXContentTypeOptions, "nosniff")
	c.Set(fiber.HeaderContentSecurityPolicy, sandboxCSP)
}

// DeleteDocument godoc
// @Summary Delete a document
// @Tags documents
// @Param id path string true "document ID (UUID)"
// @Success 204
// @Failure 404 {object} errorPayload
// @Router /documents/{id} [delete]
func DeleteDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		if err := svc.Delete(c.UserContext(), id); err != nil {
			if isNotFound(err) {
				return writeError(c, fiber.StatusNotFound, codeNotFound, "document not found")
			}
			return writeError(c, fiber.StatusInternalServerError, codeInternal, "internal server error")
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
