package rollout

import (
	"github.com/theirongolddev/rollview/internal/model"

	"github.com/tidwall/gjson"
)

// NormalizePlan maps the heterogeneous step list of a plan update onto
// canonical steps. The result has the same length and order as items; steps
// with empty text are kept.
func NormalizePlan(items []gjson.Result) []model.PlanStep {
	steps := make([]model.PlanStep, 0, len(items))
	for _, item := range items {
		switch {
		case item.Type == gjson.String:
			steps = append(steps, model.PlanStep{Text: item.Str, Status: model.StepPending})
		case item.IsObject():
			steps = append(steps, model.PlanStep{
				Text:   stepText(item),
				Status: stepStatus(item.Get("status")),
			})
		default:
			steps = append(steps, model.PlanStep{Status: model.StepPending})
		}
	}
	return steps
}

func stepText(obj gjson.Result) string {
	v := firstNonNull(obj, "step", "text", "description")
	if !v.Exists() {
		return ""
	}
	return v.String()
}

func stepStatus(v gjson.Result) model.StepStatus {
	switch v.String() {
	case string(model.StepCompleted):
		return model.StepCompleted
	case string(model.StepInProgress):
		return model.StepInProgress
	default:
		return model.StepPending
	}
}

// findPlan locates plan data in decoded function-call arguments. Three
// encodings are accepted, in order:
//
//	{"plan": [...]}                 the field is already a list
//	{"plan": "[...]"}               a JSON string holding a list,
//	{"plan": "{\"plan\": [...]}"}   or an object wrapping one
//	{"plan": {"plan": [...]}}       an object wrapping a list
func findPlan(args gjson.Result) []gjson.Result {
	raw := args.Get("plan")
	switch {
	case raw.IsArray():
		return raw.Array()
	case raw.Type == gjson.String:
		if !gjson.Valid(raw.Str) {
			return nil
		}
		return planList(gjson.Parse(raw.Str))
	case raw.IsObject():
		if inner := raw.Get("plan"); inner.IsArray() {
			return inner.Array()
		}
	}
	return nil
}

// planList accepts a bare list or an object with a plan list.
func planList(v gjson.Result) []gjson.Result {
	if v.IsArray() {
		return v.Array()
	}
	if v.IsObject() {
		if inner := v.Get("plan"); inner.IsArray() {
			return inner.Array()
		}
	}
	return nil
}
