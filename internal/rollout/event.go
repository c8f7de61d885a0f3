package rollout

import (
	"github.com/theirongolddev/rollview/internal/model"

	"github.com/tidwall/gjson"
)

// event_msg sub-types.
const (
	eventTokenCount     = "token_count"
	eventAgentReasoning = "agent_reasoning"
	eventAgentMessage   = "agent_message"
	eventUserMessage    = "user_message"
)

// applyEvent interprets an event_msg payload. Unknown sub-types are ignored.
func (a *accumulator) applyEvent(payload gjson.Result) {
	switch payload.Get("type").String() {
	case eventTokenCount:
		total := payload.Get("info.total_token_usage.total_tokens")
		if total.Type == gjson.Number {
			a.setTotalTokens(total.Int())
		}
	case eventAgentReasoning:
		a.emitText(srcAgentReasoning, model.KindAgentText, model.ToneReasoning,
			stringField(payload.Get("text")))
	case eventAgentMessage:
		a.emitText(srcAgentMessage, model.KindAgentText, model.ToneResponse,
			stringField(firstNonNull(payload, "message", "text")))
	case eventUserMessage:
		a.emitText(srcUserMessage, model.KindUserText, "",
			stringField(firstNonNull(payload, "message", "text")))
	}
}

// applySessionMeta records instructions and cwd. A later session_meta
// overwrites an earlier one field by field.
func (a *accumulator) applySessionMeta(payload gjson.Result) {
	if v := payload.Get("instructions"); v.Type == gjson.String {
		a.instructions = v.Str
	}
	if v := payload.Get("cwd"); v.Type == gjson.String {
		a.cwd = v.Str
	}
}

// firstNonNull returns the first of keys present with a non-null value.
func firstNonNull(obj gjson.Result, keys ...string) gjson.Result {
	for _, k := range keys {
		if v := obj.Get(k); v.Exists() && v.Type != gjson.Null {
			return v
		}
	}
	return gjson.Result{}
}

// stringField returns v's text when v is a JSON string, else "".
func stringField(v gjson.Result) string {
	if v.Type != gjson.String {
		return ""
	}
	return v.Str
}
