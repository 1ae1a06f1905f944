package svg

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Applied in this order, case-insensitive, '.' matching newlines.
var legacyPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?is)<script(.*?)>(.*?)</script>`),
	regexp.MustCompile(`(?is)<onclick(.*?)>(.*?)</onclick>`),
	regexp.MustCompile(`(?is)<onload(.*?)>(.*?)</onload>`),
}

// SanitizeLegacy strips <script>, <onclick> and <onload> blocks with text
// patterns instead of parsing. Attribute handlers such as <rect onclick=...>
// survive it. Successful runs always report AcceptedModified.
func SanitizeLegacy(input []byte) Result {
	if !bytes.Contains(input, marker) || !utf8.Valid(input) {
		return reject()
	}

	out := input
	var removed []string
	for _, p := range legacyPatterns {
		if n := len(p.FindAllIndex(out, -1)); n > 0 {
			removed = append(removed, fmt.Sprintf("%d match(es) of %s", n, p.String()))
			out = p.ReplaceAll(out, nil)
		}
	}
	if len(bytes.TrimSpace(out)) == 0 {
		return reject()
	}
	return Result{Outcome: AcceptedModified, Bytes: out, Removed: removed}
}

// Mode selects the sanitizer implementation.
type Mode string

const (
	ModeStrict Mode = "strict"
	ModeLegacy Mode = "legacy"
)

// ParseMode maps a configuration value to a Mode. Empty means ModeStrict.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeStrict:
		return ModeStrict, nil
	case ModeLegacy:
		return ModeLegacy, nil
	default:
		return "", fmt.Errorf("unknown svg sanitize mode %q", s)
	}
}

// Func returns the sanitize function for the mode.
func (m Mode) Func() func([]byte) Result {
	if m == ModeLegacy {
		return SanitizeLegacy
	}
	return Sanitize
}
