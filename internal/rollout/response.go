package rollout

import (
	"strings"

	"github.com/theirongolddev/rollview/internal/model"

	"github.com/tidwall/gjson"
)

// response_item sub-types.
const (
	itemFunctionCall       = "function_call"
	itemFunctionCallOutput = "function_call_output"
)

// applyResponseItem interprets a response_item payload. Unknown sub-types
// are ignored.
func (a *accumulator) applyResponseItem(payload gjson.Result) {
	switch payload.Get("type").String() {
	case itemFunctionCall:
		a.applyFunctionCall(payload)
	case itemFunctionCallOutput:
		a.emitText(srcCommandOutput, model.KindCommand, model.ToneReasoning,
			stringField(callOutput(payload.Get("output"))))
	}
}

// applyFunctionCall classifies a call by the shape of its arguments: a
// command list wins, then plan data, else the call is not renderable.
func (a *accumulator) applyFunctionCall(payload gjson.Result) {
	args := callArguments(payload.Get("arguments"))

	if cmd := args.Get("command"); cmd.IsArray() && len(cmd.Array()) > 0 {
		parts := cmd.Array()
		words := make([]string, len(parts))
		for i, p := range parts {
			words[i] = p.String()
		}
		content := strings.TrimSpace(strings.Join(words, " "))
		if content == "" {
			return
		}
		a.emit(srcCommand, model.Message{
			Kind:     model.KindCommand,
			Tone:     model.ToneReasoning,
			Content:  content,
			Collapse: collapseFor(content),
		})
		return
	}

	if items := findPlan(args); len(items) > 0 {
		a.emit(srcPlan, model.Message{
			Kind:  model.KindPlan,
			Steps: NormalizePlan(items),
		})
		return
	}

	a.stats.DroppedCalls++
}

// callArguments decodes the arguments field, which the agent writes as a
// JSON-encoded string. An inline object is accepted as well.
func callArguments(raw gjson.Result) gjson.Result {
	switch {
	case raw.Type == gjson.String:
		if gjson.Valid(raw.Str) {
			return gjson.Parse(raw.Str)
		}
	case raw.IsObject():
		return raw
	}
	return gjson.Result{}
}

// callOutput returns output.output. Newer agents encode output itself as a
// JSON string; such strings are decoded before probing.
func callOutput(output gjson.Result) gjson.Result {
	if output.Type == gjson.String && gjson.Valid(output.Str) {
		output = gjson.Parse(output.Str)
	}
	if !output.IsObject() {
		return gjson.Result{}
	}
	return output.Get("output")
}
