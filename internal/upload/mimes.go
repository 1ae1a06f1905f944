package upload

import (
	"path/filepath"
	"strings"

	"svgupload/internal/svg"
)

var svgExtensions = map[string]string{
	"svg":  svg.MediaType,
	"svgz": svg.MediaType,
}

// MIMETypes returns a copy of an extension -> content type mapping with the
// SVG extensions added. Existing entries for those extensions are replaced.
func MIMETypes(existing map[string]string) map[string]string {
	out := make(map[string]string, len(existing)+len(svgExtensions))
	for ext, ct := range existing {
		out[ext] = ct
	}
	for ext, ct := range svgExtensions {
		out[ext] = ct
	}
	return out
}

// TypeForFilename returns the SVG media type when the file extension is an
// SVG extension, otherwise "".
func TypeForFilename(name string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	return svgExtensions[ext]
}

// EffectiveType is the declared type, or the type implied by the file name
// when the client sent no useful type.
func EffectiveType(declaredType, fileName string) string {
	switch svg.BaseMediaType(declaredType) {
	case "", "application/octet-stream":
		if t := TypeForFilename(fileName); t != "" {
			return t
		}
	}
	return declaredType
}
