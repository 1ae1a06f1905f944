package handler

import (
	"context"
	"database/sql"
	"os"

	"github.com/gofiber/fiber/v2"

	"svgupload/internal/service"
	"svgupload/internal/upload"
)

// SVGGate is the part of the upload gate the sanitize endpoint drives.
type SVGGate interface {
	Applies(declaredType, fileName string) bool
	Prefilter(ctx context.Context, ev *upload.Event) upload.Decision
}

// Dependencies are the collaborators the HTTP layer is built from.
type Dependencies struct {
	DB        *sql.DB
	Documents service.DocumentService
	Gate      SVGGate
	// MIMETypes maps lowercase extensions to content types for uploads that
	// arrive without a usable Content-Type.
	MIMETypes map[string]string
	// TempDir holds per-request files for /svg/sanitize; empty means os.TempDir().
	TempDir string
}

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
func RegisterRoutes(app *fiber.App, deps Dependencies) {
	if deps.TempDir == "" {
		deps.TempDir = os.TempDir()
	}

	app.Get("/health", HealthCheck(deps.DB))
	app.Get("/healthz", LivenessProbe())

	app.Get("/documents", ListDocuments(deps.Documents))
	app.Post("/documents", UploadDocument(deps.Documents, deps.MIMETypes))
	app.Get("/documents/:id", GetDocument(deps.Documents))
	app.Get("/documents/:id/content", DownloadDocument(deps.Documents))
	app.Delete("/documents/:id", DeleteDocument(deps.Documents))

	app.Post("/svg/sanitize", SanitizeSVG(deps.Gate, deps.TempDir))
}
