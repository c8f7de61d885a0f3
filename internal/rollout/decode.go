// Package rollout reconstructs displayable transcripts from agent rollout logs.
//
// A rollout is a JSONL file where every line is an envelope
//
//	{"type": "<kind>", "payload": {...}}
//
// Parse folds the envelopes, in file order, into a model.Transcript. Lines
// that fail to decode are skipped and counted; only a failing line source
// aborts a parse.
package rollout

import (
	"bytes"
	"errors"

	"github.com/tidwall/gjson"
)

// Envelope kinds understood by the decoder.
const (
	KindSessionMeta  = "session_meta"
	KindEventMsg     = "event_msg"
	KindResponseItem = "response_item"
	KindTurnContext  = "turn_context"
)

var (
	errInvalidJSON = errors.New("invalid JSON")
	errMissingKind = errors.New("record has no string type")
)

// envelope is one decoded log record.
type envelope struct {
	kind    string
	payload gjson.Result
}

// cleanLine strips NUL bytes and surrounding whitespace. A nil result means
// the line carries nothing to decode.
func cleanLine(line []byte) []byte {
	if bytes.IndexByte(line, 0) >= 0 {
		line = bytes.ReplaceAll(line, []byte{0}, nil)
	}
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return nil
	}
	return line
}

// decodeLine parses one cleaned, non-blank line into an envelope.
func decodeLine(line []byte) (envelope, error) {
	if !gjson.ValidBytes(line) {
		return envelope{}, errInvalidJSON
	}
	rec := gjson.ParseBytes(line)
	kind := rec.Get("type")
	if kind.Type != gjson.String {
		return envelope{}, errMissingKind
	}
	return envelope{kind: kind.Str, payload: rec.Get("payload")}, nil
}
