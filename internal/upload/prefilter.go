package upload

import (
	"context"
	"os"

	"github.com/google/renameio/v2"

	"svgupload/internal/svg"
)

// Event is an upload the host has written to a temporary file and is about
// to store. The host must refuse to store the file when Error is set.
type Event struct {
	Type    string
	TmpName string
	Name    string
	Error   string
}

// Prefilter runs the gate over the temporary file of ev. Sanitized content
// replaces the file atomically; on rejection ev.Error is set and the file is
// left as it was. Nothing here returns an error or panics: I/O faults are
// reported as DecodeFailure rejections.
func (g *Gate) Prefilter(ctx context.Context, ev *Event) Decision {
	if ev == nil || !g.Applies(ev.Type, ev.Name) {
		return Decision{Outcome: svg.Accepted, Reason: NotApplicable}
	}

	f, err := os.Open(ev.TmpName)
	if err != nil {
		g.log.Warn().Err(err).Str("file", ev.Name).Msg("open upload temp file failed")
		return g.rejectEvent(ctx, ev, DecodeFailure)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		g.log.Warn().Err(err).Str("file", ev.Name).Msg("stat upload temp file failed")
		return g.rejectEvent(ctx, ev, DecodeFailure)
	}
	d := g.InspectReader(ctx, f, ev.Type, ev.Name)
	f.Close()

	if d.Rejected() {
		ev.Error = d.Message
		return d
	}
	if d.Outcome != svg.AcceptedModified {
		return d
	}

	if err := renameio.WriteFile(ev.TmpName, d.Bytes, info.Mode().Perm()); err != nil {
		g.log.Error().Err(err).Str("file", ev.Name).Msg("replace upload temp file failed")
		return g.rejectEvent(ctx, ev, DecodeFailure)
	}
	return d
}

func (g *Gate) rejectEvent(ctx context.Context, ev *Event, reason Reason) Decision {
	d := g.fail(ctx, ev.Name, reason)
	ev.Error = d.Message
	return d
}
