package model

import "time"

// Document represents a stored file in the system.
// This is a pure domain model with no database-specific dependencies or tags.
// It can be used across layers (HTTP, service, storage) without coupling to persistence.
//
// SanitizeOutcome records what the SVG gate did with the upload:
// not_applicable, accepted or accepted_modified.
// ContentEncoding is "gzip" for compressed SVG. It is read from the stored
// object, so only documents returned by Open carry it.
type Document struct {
	ID              string    `json:"id"`
	Filename        string    `json:"filename"`
	StoragePath     string    `json:"storage_path"`
	Size            int64     `json:"size"`
	ContentType     string    `json:"content_type"`
	SanitizeOutcome string    `json:"sanitize_outcome"`
	ContentEncoding string    `json:"content_encoding,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}
