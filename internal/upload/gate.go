// Package upload wraps the SVG classifier and sanitizer around an upload
// pipeline. A Gate takes each upload from Received through Classified to
// Resolved in a single synchronous call and keeps no state between calls.
package upload

import (
	"context"
	"fmt"
	"io"

	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"svgupload/internal/svg"
)

// DefaultMaxBytes caps SVG content (after decompression) at 5 MiB.
const DefaultMaxBytes int64 = 5 << 20

// Config controls gate behavior.
type Config struct {
	// MaxBytes caps SVG content size; <= 0 means DefaultMaxBytes.
	MaxBytes int64
	Mode     svg.Mode
	// AllowSVGZ enables gzip-compressed SVG. When false such uploads are rejected.
	AllowSVGZ bool
}

// Decision is the resolved state of one upload.
type Decision struct {
	Outcome svg.Outcome
	// Reason is NotApplicable for pass-through, set for rejections, empty otherwise.
	Reason Reason
	// Bytes is what the host must store. Nil on rejection.
	Bytes []byte
	// Message is the user-facing rejection message.
	Message    string
	Removed    []string
	Compressed bool
}

// Rejected reports whether the host must refuse to store the upload.
func (d Decision) Rejected() bool {
	return d.Outcome == svg.Rejected
}

// Err returns a *RejectionError for rejected decisions and nil otherwise.
func (d Decision) Err() error {
	if !d.Rejected() {
		return nil
	}
	return &RejectionError{Reason: d.Reason, Message: d.Message}
}

// Label is a short name for logs, metrics and response headers.
func (d Decision) Label() string {
	if d.Reason == NotApplicable {
		return string(NotApplicable)
	}
	return d.Outcome.String()
}

// Gate classifies and sanitizes uploads. It is safe for concurrent use.
type Gate struct {
	maxBytes  int64
	allowSVGZ bool
	sanitize  func([]byte) svg.Result

	log     zerolog.Logger
	metrics *Metrics
	tracer  trace.Tracer
	names   *bluemonday.Policy
}

// NewGate builds a Gate. metrics may be nil.
func NewGate(cfg Config, log zerolog.Logger, metrics *Metrics) *Gate {
	limit := cfg.MaxBytes
	if limit <= 0 {
		limit = DefaultMaxBytes
	}
	return &Gate{
		maxBytes:  limit,
		allowSVGZ: cfg.AllowSVGZ,
		sanitize:  cfg.Mode.Func(),
		log:       log.With().Str("component", "svg_gate").Logger(),
		metrics:   metrics,
		tracer:    otel.Tracer("svgupload/internal/upload"),
		names:     bluemonday.StrictPolicy(),
	}
}

// Applies reports whether an upload with this declared type and file name
// takes the SVG path. Everything else passes through untouched.
func (g *Gate) Applies(declaredType, fileName string) bool {
	return svg.ClaimsSVG(EffectiveType(declaredType, fileName))
}

// Inspect resolves an in-memory candidate.
func (g *Gate) Inspect(ctx context.Context, c svg.Candidate) Decision {
	_, span := g.tracer.Start(ctx, "upload.Gate.Inspect")
	defer span.End()

	d := g.resolve(c)
	g.finish(span, c.FileName, len(c.Bytes), d)
	return d
}

// InspectReader reads at most the configured limit from r and resolves it.
// Read failures and oversized content become DecodeFailure rejections. For
// uploads that do not take the SVG path r is left unread and the decision
// carries no bytes.
func (g *Gate) InspectReader(ctx context.Context, r io.Reader, declaredType, fileName string) Decision {
	if !g.Applies(declaredType, fileName) {
		return Decision{Outcome: svg.Accepted, Reason: NotApplicable}
	}
	data, err := io.ReadAll(io.LimitReader(r, g.maxBytes+1))
	if err != nil {
		g.log.Warn().Err(err).Str("file", fileName).Msg("read upload failed")
		return g.fail(ctx, fileName, DecodeFailure)
	}
	return g.Inspect(ctx, svg.Candidate{DeclaredType: declaredType, Bytes: data, FileName: fileName})
}

func (g *Gate) resolve(c svg.Candidate) Decision {
	declared := EffectiveType(c.DeclaredType, c.FileName)
	if !svg.ClaimsSVG(declared) {
		return Decision{Outcome: svg.Accepted, Reason: NotApplicable, Bytes: c.Bytes}
	}
	if int64(len(c.Bytes)) > g.maxBytes {
		return g.rejection(c.FileName, DecodeFailure)
	}

	content := c.Bytes
	compressed := isGzip(content)
	if compressed {
		if !g.allowSVGZ {
			return g.rejection(c.FileName, InvalidContent)
		}
		var err error
		if content, err = inflate(content, g.maxBytes); err != nil {
			return g.rejection(c.FileName, DecodeFailure)
		}
	}

	if !svg.Classify(svg.Candidate{DeclaredType: declared, Bytes: content, FileName: c.FileName}) {
		return g.rejection(c.FileName, InvalidContent)
	}

	res := g.sanitize(content)
	if res.Outcome == svg.Rejected {
		return g.rejection(c.FileName, InvalidContent)
	}

	out := res.Bytes
	switch {
	case compressed && res.Outcome == svg.Accepted:
		out = c.Bytes
	case compressed:
		var err error
		if out, err = deflate(res.Bytes); err != nil {
			return g.rejection(c.FileName, DecodeFailure)
		}
	}
	return Decision{Outcome: res.Outcome, Bytes: out, Removed: res.Removed, Compressed: compressed}
}

func (g *Gate) rejection(fileName string, reason Reason) Decision {
	msg := svg.ReasonInvalid
	if name := g.names.Sanitize(fileName); name != "" {
		msg = fmt.Sprintf("%s: %s", name, svg.ReasonInvalid)
	}
	return Decision{Outcome: svg.Rejected, Reason: reason, Message: msg}
}

// fail records a rejection that happened before Inspect could run.
func (g *Gate) fail(ctx context.Context, fileName string, reason Reason) Decision {
	_, span := g.tracer.Start(ctx, "upload.Gate.Inspect")
	defer span.End()

	d := g.rejection(fileName, reason)
	g.finish(span, fileName, 0, d)
	return d
}

func (g *Gate) finish(span trace.Span, fileName string, size int, d Decision) {
	span.SetAttributes(
		attribute.String("svg.outcome", d.Label()),
		attribute.String("svg.reason", string(d.Reason)),
		attribute.Int("svg.removed", len(d.Removed)),
	)
	if d.Rejected() {
		span.SetStatus(codes.Error, d.Message)
	}
	g.metrics.observe(d)

	if d.Reason == NotApplicable {
		return
	}
	event := g.log.Info()
	if d.Rejected() {
		event = g.log.Warn().Str("reason", string(d.Reason))
	}
	event.
		Str("file", fileName).
		Str("outcome", d.Label()).
		Int("bytes_in", size).
		Int("bytes_out", len(d.Bytes)).
		Bool("compressed", d.Compressed).
		Strs("removed", d.Removed).
		Msg("svg upload resolved")
}
