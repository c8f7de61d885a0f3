package rollout

import (
	"reflect"
	"testing"

	"github.com/theirongolddev/rollview/internal/model"

	"github.com/tidwall/gjson"
)

func TestPlanEncodingEquivalence(t *testing.T) {
	want := []model.PlanStep{
		{Text: "a", Status: model.StepPending},
		{Text: "b", Status: model.StepPending},
	}

	tests := []struct {
		name string
		args string
	}{
		{"list", `{"plan":["a","b"]}`},
		{"encoded list of objects", `{"plan":"[{\"step\":\"a\"},{\"step\":\"b\"}]"}`},
		{"encoded wrapper", `{"plan":"{\"plan\":[\"a\",\"b\"]}"}`},
		{"object wrapper", `{"plan":{"plan":["a","b"]}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizePlan(findPlan(gjson.Parse(tt.args)))
			if !reflect.DeepEqual(got, want) {
				t.Errorf("steps = %+v, want %+v", got, want)
			}
		})
	}
}

func TestFindPlan_Rejects(t *testing.T) {
	tests := []struct {
		name string
		args string
	}{
		{"missing", `{"explanation":"x"}`},
		{"string not json", `{"plan":"first do a, then b"}`},
		{"encoded scalar", `{"plan":"42"}`},
		{"object without list", `{"plan":{"steps":["a"]}}`},
		{"number", `{"plan":3}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := findPlan(gjson.Parse(tt.args)); len(got) != 0 {
				t.Errorf("findPlan(%s) = %v, want none", tt.args, got)
			}
		})
	}
}

func TestNormalizePlan(t *testing.T) {
	items := gjson.Parse(`[
		"bare",
		{"step":"s","status":"completed"},
		{"text":"t","status":"in_progress"},
		{"description":"d","status":"blocked"},
		{"step":null,"text":"fallback"},
		{"status":"completed"},
		{"step":7},
		12,
		null
	]`).Array()

	want := []model.PlanStep{
		{Text: "bare", Status: model.StepPending},
		{Text: "s", Status: model.StepCompleted},
		{Text: "t", Status: model.StepInProgress},
		{Text: "d", Status: model.StepPending},
		{Text: "fallback", Status: model.StepPending},
		{Text: "", Status: model.StepCompleted},
		{Text: "7", Status: model.StepPending},
		{Text: "", Status: model.StepPending},
		{Text: "", Status: model.StepPending},
	}

	got := NormalizePlan(items)
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("step[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
}
