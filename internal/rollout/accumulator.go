package rollout

import (
	"strconv"
	"strings"

	"github.com/theirongolddev/rollview/internal/model"
)

// Message id prefixes, one per originating record shape.
const (
	srcAgentReasoning = "agent_reasoning"
	srcAgentMessage   = "agent_message"
	srcUserMessage    = "user_message"
	srcCommand        = "function_call_command"
	srcPlan           = "function_call_plan"
	srcCommandOutput  = "function_call_output"
)

// Stats counts what a parse pass saw and skipped.
type Stats struct {
	Lines          int // non-blank lines offered to the decoder
	MalformedLines int // invalid JSON or no string type
	UnknownKinds   int // well-formed envelopes of an unrecognized kind
	DroppedCalls   int // function calls with neither command nor plan data
	Messages       int
}

// accumulator holds the evolving state of one parse pass.
type accumulator struct {
	sessionID    string
	instructions string
	cwd          string
	totalTokens  int64
	messages     []model.Message
	ordinal      int
	stats        Stats
}

func newAccumulator(sessionID string) *accumulator {
	return &accumulator{sessionID: sessionID}
}

// emit appends m with the next id for src.
func (a *accumulator) emit(src string, m model.Message) {
	m.ID = src + "-" + strconv.Itoa(a.ordinal)
	a.ordinal++
	a.messages = append(a.messages, m)
}

// emitText appends a text message unless content is blank. Content is
// stored trimmed.
func (a *accumulator) emitText(src string, kind model.Kind, tone model.Tone, content string) {
	content = strings.TrimSpace(content)
	if content == "" {
		return
	}
	a.emit(src, model.Message{Kind: kind, Tone: tone, Content: content})
}

func (a *accumulator) setTotalTokens(n int64) { a.totalTokens = n }

// finalize produces the immutable transcript. The message slice is clipped
// so appends by any holder can never write into shared backing storage.
func (a *accumulator) finalize() model.Transcript {
	msgs := make([]model.Message, len(a.messages))
	copy(msgs, a.messages)
	a.stats.Messages = len(msgs)
	return model.Transcript{
		SessionID:        a.sessionID,
		Instructions:     a.instructions,
		WorkingDirectory: a.cwd,
		TotalTokens:      a.totalTokens,
		Messages:         msgs,
	}
}
