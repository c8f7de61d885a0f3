package rollout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/theirongolddev/rollview/internal/model"
	"github.com/theirongolddev/rollview/internal/source"
)

// ErrNoSource is returned when Parse is called without a line source.
var ErrNoSource = errors.New("no line source")

// ReadError reports a failing line source. Whatever was decoded before the
// failure is discarded.
type ReadError struct {
	SessionID string
	Err       error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("read session %s: %v", e.SessionID, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }

type options struct {
	logger *slog.Logger
}

// Option configures Parse.
type Option func(*options)

// WithLogger routes per-line diagnostics to l instead of slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// Parse reads every line of src, in order, and reconstructs the session's
// transcript. Malformed lines and unknown record kinds are skipped and
// counted in Stats. A source failure returns a *ReadError and an empty
// transcript; ctx cancellation returns ctx.Err().
//
// Parse does not close src.
func Parse(ctx context.Context, sessionID string, src source.LineSource, opts ...Option) (model.Transcript, Stats, error) {
	if src == nil {
		return model.Transcript{}, Stats{}, ErrNoSource
	}
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	acc := newAccumulator(sessionID)
	lineNo := 0

	for {
		if err := ctx.Err(); err != nil {
			return model.Transcript{}, acc.stats, err
		}
		raw, ok := src.Next()
		if !ok {
			break
		}
		lineNo++

		line := cleanLine(raw)
		if line == nil {
			continue
		}
		acc.stats.Lines++

		env, err := decodeLine(line)
		if err != nil {
			acc.stats.MalformedLines++
			o.logger.Debug("skipping session line",
				"session", sessionID, "line", lineNo, "error", err)
			continue
		}

		switch env.kind {
		case KindSessionMeta:
			acc.applySessionMeta(env.payload)
		case KindEventMsg:
			acc.applyEvent(env.payload)
		case KindResponseItem:
			acc.applyResponseItem(env.payload)
		case KindTurnContext:
			// Carries per-turn model settings; nothing to display.
		default:
			acc.stats.UnknownKinds++
		}
	}

	if err := src.Err(); err != nil {
		return model.Transcript{}, acc.stats, &ReadError{SessionID: sessionID, Err: err}
	}

	if oc, ok := src.(source.OversizeCounter); ok {
		if n := oc.Oversized(); n > 0 {
			acc.stats.Lines += n
			acc.stats.MalformedLines += n
			o.logger.Debug("skipped oversized session lines",
				"session", sessionID, "count", n)
		}
	}

	t := acc.finalize()
	return t, acc.stats, nil
}

// ParseFile opens path and parses it. The session id is derived from the
// file name.
func ParseFile(ctx context.Context, path string, opts ...Option) (model.Transcript, Stats, error) {
	id := source.SessionIDFromPath(path)
	lines, err := source.OpenFile(path)
	if err != nil {
		return model.Transcript{}, Stats{}, &ReadError{SessionID: id, Err: err}
	}
	defer func() { _ = lines.Close() }()
	return Parse(ctx, id, lines, opts...)
}
