package svg

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Elements dropped together with everything inside them. Keys are lowercase
// local names. Any element whose local name starts with "on" is dropped too.
var blockedElements = map[string]bool{
	"script":        true,
	"foreignobject": true,
	"handler":       true,
	"listener":      true,
	"iframe":        true,
	"embed":         true,
	"object":        true,
}

var animationElements = map[string]bool{
	"animate":          true,
	"animatemotion":    true,
	"animatetransform": true,
	"animatecolor":     true,
	"set":              true,
}

var uriAttributes = map[string]bool{
	"href":       true,
	"src":        true,
	"action":     true,
	"formaction": true,
}

var dangerousSchemes = []string{"javascript:", "vbscript:", "data:text/html"}

var (
	errNoRoot     = errors.New("no root element")
	errNotSVGRoot = errors.New("root element is not svg")
	errTrailing   = errors.New("element after root")
	errStrayText  = errors.New("text outside root element")
	errUnclosed   = errors.New("unclosed element")
	errUnbalanced = errors.New("end tag without start tag")
)

// Sanitize removes script-capable constructs from an SVG document.
//
// The document is parsed as XML and walked token by token. Dropped elements
// and directives are cut out of the original bytes; start tags that lose an
// attribute are re-serialized. Everything else is copied through unchanged.
// Content that is not UTF-8, not well-formed, or whose root is not <svg> is
// rejected.
func Sanitize(input []byte) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			res = reject()
		}
	}()

	if !bytes.Contains(input, marker) {
		return reject()
	}
	body := bytes.TrimPrefix(input, utf8BOM)
	if !utf8.Valid(body) {
		return reject()
	}

	s := newScanner(body)
	if err := s.run(); err != nil {
		return reject()
	}
	if len(s.edits) == 0 {
		return Result{Outcome: Accepted, Bytes: input}
	}

	out := make([]byte, 0, len(input))
	out = append(out, input[:len(input)-len(body)]...)
	out = append(out, s.apply()...)
	return Result{Outcome: AcceptedModified, Bytes: out, Removed: s.removed}
}

type edit struct {
	start, end int
	repl       []byte
}

type scanner struct {
	body    []byte
	edits   []edit
	removed []string

	stack    []string
	rootSeen bool
	rootDone bool

	// stack depth of an element being dropped with its content, or -1
	skip      int
	skipStart int

	// open <style> element whose text is checked when it closes
	styleDepth int
	styleStart int
	styleText  strings.Builder
}

func newScanner(body []byte) *scanner {
	return &scanner{body: body, skip: -1, styleDepth: -1}
}

func (s *scanner) run() error {
	d := xml.NewDecoder(bytes.NewReader(s.body))
	d.Strict = true
	d.Entity = xml.HTMLEntity
	d.CharsetReader = utf8Only

	for {
		start := int(d.InputOffset())
		tok, err := d.RawToken()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		end := int(d.InputOffset())

		switch t := tok.(type) {
		case xml.StartElement:
			err = s.startElement(t, start, end)
		case xml.EndElement:
			err = s.endElement(t, end)
		case xml.CharData:
			err = s.charData(t)
		case xml.ProcInst:
			if t.Target != "xml" && s.skip < 0 {
				s.drop(start, end, "processing instruction "+t.Target)
			}
		case xml.Directive:
			if s.skip < 0 {
				if reason := unsafeDirective(t); reason != "" {
					s.drop(start, end, reason)
				}
			}
		}
		if err != nil {
			return err
		}
	}

	if !s.rootSeen {
		return errNoRoot
	}
	if len(s.stack) > 0 {
		return errUnclosed
	}
	return nil
}

func (s *scanner) startElement(t xml.StartElement, start, end int) error {
	if s.rootDone {
		return errTrailing
	}
	if !s.rootSeen {
		if t.Name.Local != "svg" {
			return errNotSVGRoot
		}
		s.rootSeen = true
	}

	name := qualify(t.Name)
	depth := len(s.stack)
	s.stack = append(s.stack, name)
	if s.skip >= 0 {
		return nil
	}

	local := strings.ToLower(t.Name.Local)
	if reason := blockedElement(name, local, t.Attr); reason != "" {
		s.skip, s.skipStart = depth, start
		s.removed = append(s.removed, reason)
		return nil
	}

	kept := make([]xml.Attr, 0, len(t.Attr))
	var dropped []string
	for _, a := range t.Attr {
		if dangerousAttr(a) {
			dropped = append(dropped, qualify(a.Name))
			continue
		}
		kept = append(kept, a)
	}
	if len(dropped) > 0 {
		t.Attr = kept
		raw := s.body[start:end]
		s.edits = append(s.edits, edit{start: start, end: end, repl: startTag(t, bytes.HasSuffix(raw, []byte("/>")))})
		for _, a := range dropped {
			s.removed = append(s.removed, fmt.Sprintf("attribute %s on <%s>", a, name))
		}
	}

	if local == "style" && s.styleDepth < 0 {
		s.styleDepth, s.styleStart = depth, start
		s.styleText.Reset()
	}
	return nil
}

func (s *scanner) endElement(t xml.EndElement, end int) error {
	if len(s.stack) == 0 {
		return errUnbalanced
	}
	depth := len(s.stack) - 1
	if name := qualify(t.Name); s.stack[depth] != name {
		return fmt.Errorf("mismatched end tag </%s>, want </%s>", name, s.stack[depth])
	}
	s.stack = s.stack[:depth]
	if depth == 0 {
		s.rootDone = true
	}

	switch depth {
	case s.skip:
		s.cut(s.skipStart, end)
		s.skip = -1
	case s.styleDepth:
		if dangerousCSS(s.styleText.String()) {
			s.drop(s.styleStart, end, "element <style> with script URL")
		}
		s.styleDepth = -1
	}
	return nil
}

func (s *scanner) charData(t xml.CharData) error {
	if len(s.stack) == 0 {
		if len(bytes.TrimSpace(t)) > 0 {
			return errStrayText
		}
		return nil
	}
	if s.skip < 0 && s.styleDepth >= 0 {
		s.styleText.Write(t)
	}
	return nil
}

func (s *scanner) drop(start, end int, reason string) {
	s.removed = append(s.removed, reason)
	s.cut(start, end)
}

// cut removes body[start:end], discarding edits already recorded inside it.
func (s *scanner) cut(start, end int) {
	i := len(s.edits)
	for i > 0 && s.edits[i-1].start >= start {
		i--
	}
	s.edits = append(s.edits[:i], edit{start: start, end: end})
}

func (s *scanner) apply() []byte {
	var buf bytes.Buffer
	buf.Grow(len(s.body))
	prev := 0
	for _, e := range s.edits {
		buf.Write(s.body[prev:e.start])
		buf.Write(e.repl)
		prev = e.end
	}
	buf.Write(s.body[prev:])
	return buf.Bytes()
}

// unsafeDirective keeps only a bare <!DOCTYPE name "public" "system">. An
// internal subset can declare entities or default attributes (an ATTLIST
// giving <svg> an onload), so any DOCTYPE with one is dropped, as is every
// other kind of directive.
func unsafeDirective(d xml.Directive) string {
	upper := bytes.ToUpper(bytes.TrimSpace(d))
	if !bytes.HasPrefix(upper, []byte("DOCTYPE")) {
		return "directive"
	}
	if bytes.ContainsRune(d, '[') {
		return "doctype internal subset"
	}
	return ""
}

func blockedElement(name, local string, attrs []xml.Attr) string {
	switch {
	case blockedElements[local], strings.HasPrefix(local, "on"):
		return "element <" + name + ">"
	case animationElements[local] && unsafeAnimation(attrs):
		return "animation <" + name + ">"
	}
	return ""
}

// unsafeAnimation reports whether an animation element can rewrite a link or
// event handler, or pulls in an external document.
func unsafeAnimation(attrs []xml.Attr) bool {
	for _, a := range attrs {
		switch strings.ToLower(a.Name.Local) {
		case "attributename":
			target := strings.ToLower(strings.TrimSpace(a.Value))
			if i := strings.LastIndexByte(target, ':'); i >= 0 {
				target = target[i+1:]
			}
			if target == "href" || strings.HasPrefix(target, "on") {
				return true
			}
		case "href":
			if v := strings.TrimSpace(a.Value); v != "" && !strings.HasPrefix(v, "#") {
				return true
			}
		case "values", "to", "from", "by":
			if containsDangerousScheme(a.Value) {
				return true
			}
		}
	}
	return false
}

func dangerousAttr(a xml.Attr) bool {
	if a.Name.Space == "xmlns" || (a.Name.Space == "" && a.Name.Local == "xmlns") {
		return false
	}
	local := strings.ToLower(a.Name.Local)
	switch {
	case strings.HasPrefix(local, "on"):
		return true
	case uriAttributes[local]:
		return hasDangerousScheme(a.Value)
	case local == "style":
		return dangerousCSS(a.Value)
	}
	return false
}

// normalizeURI drops whitespace and control characters browsers ignore
// inside a scheme, then lowercases.
func normalizeURI(v string) string {
	return strings.ToLower(strings.Map(func(r rune) rune {
		if r <= ' ' || r == 0x7f {
			return -1
		}
		return r
	}, v))
}

func hasDangerousScheme(v string) bool {
	n := normalizeURI(v)
	for _, scheme := range dangerousSchemes {
		if strings.HasPrefix(n, scheme) {
			return true
		}
	}
	return false
}

func containsDangerousScheme(v string) bool {
	n := normalizeURI(v)
	for _, scheme := range dangerousSchemes {
		if strings.Contains(n, scheme) {
			return true
		}
	}
	return false
}

func dangerousCSS(v string) bool {
	n := normalizeURI(v)
	return containsDangerousScheme(n) ||
		strings.Contains(n, "expression(") ||
		strings.Contains(n, "-moz-binding")
}

func startTag(t xml.StartElement, selfClosing bool) []byte {
	var buf bytes.Buffer
	buf.WriteByte('<')
	buf.WriteString(qualify(t.Name))
	for _, a := range t.Attr {
		buf.WriteByte(' ')
		buf.WriteString(qualify(a.Name))
		buf.WriteString(`="`)
		_ = xml.EscapeText(&buf, []byte(a.Value))
		buf.WriteByte('"')
	}
	if selfClosing {
		buf.WriteString("/>")
	} else {
		buf.WriteByte('>')
	}
	return buf.Bytes()
}

func qualify(n xml.Name) string {
	if n.Space == "" {
		return n.Local
	}
	return n.Space + ":" + n.Local
}

func utf8Only(label string, in io.Reader) (io.Reader, error) {
	switch strings.ToLower(label) {
	case "utf-8", "utf8", "us-ascii", "ascii":
		return in, nil
	}
	return nil, fmt.Errorf("unsupported encoding %q", label)
}
