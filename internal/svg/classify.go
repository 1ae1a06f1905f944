// Package svg decides whether uploaded bytes are SVG and strips the
// constructs that would let stored SVG run script in a browser.
package svg

import (
	"bytes"
	"strings"
)

// MediaType is the canonical SVG media type.
const MediaType = "image/svg+xml"

var marker = []byte("<svg")

// ClaimsSVG reports whether a declared content type names SVG. Media type
// parameters and letter case are ignored.
func ClaimsSVG(declaredType string) bool {
	return BaseMediaType(declaredType) == MediaType
}

// BaseMediaType strips parameters from a Content-Type value and lowercases it.
func BaseMediaType(contentType string) string {
	if idx := strings.Index(contentType, ";"); idx >= 0 {
		contentType = contentType[:idx]
	}
	return strings.ToLower(strings.TrimSpace(contentType))
}

// Classify reports whether the candidate should take the SVG path: it must
// declare the SVG media type and carry an <svg opening-tag marker.
func Classify(c Candidate) bool {
	if len(c.Bytes) == 0 {
		return false
	}
	return ClaimsSVG(c.DeclaredType) && bytes.Contains(c.Bytes, marker)
}
