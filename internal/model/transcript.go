package model

// Kind identifies which variant a Message holds.
type Kind string

const (
	KindAgentText    Kind = "agent_text"
	KindUserText     Kind = "user_text"
	KindCommand      Kind = "command"
	KindPlan         Kind = "plan"
	KindUnclassified Kind = "unclassified"
)

// Tone is the presentation category of a text message, independent of its role.
type Tone string

const (
	ToneReasoning Tone = "reasoning"
	ToneResponse  Tone = "response"
)

// StepStatus is the progress state of one plan step.
type StepStatus string

const (
	StepPending    StepStatus = "pending"
	StepInProgress StepStatus = "in_progress"
	StepCompleted  StepStatus = "completed"
)

// PlanStep is one normalized entry of a plan update.
type PlanStep struct {
	Text   string     `json:"text"`
	Status StepStatus `json:"status"`
}

// Collapse marks a command whose body should be shown folded under Label.
// Content is never rewritten; consumers that ignore the directive still see
// the full command text.
type Collapse struct {
	Label string `json:"label"`
}

// Message is one entry of the rendered timeline.
//
// Only the fields relevant to Kind are populated: Tone for agent text and
// commands, Collapse for commands, Steps for plans.
type Message struct {
	ID       string     `json:"id"`
	Kind     Kind       `json:"kind"`
	Content  string     `json:"content,omitempty"`
	Tone     Tone       `json:"tone,omitempty"`
	Collapse *Collapse  `json:"collapse,omitempty"`
	Steps    []PlanStep `json:"steps,omitempty"`
}

// Transcript is the finalized reconstruction of one session log.
// Values are never mutated after construction; share them freely.
type Transcript struct {
	SessionID        string    `json:"session_id"`
	Instructions     string    `json:"instructions"`
	WorkingDirectory string    `json:"cwd"`
	TotalTokens      int64     `json:"total_tokens"`
	Messages         []Message `json:"messages"`
}

// IsEmpty reports whether the transcript carries no content at all.
func (t Transcript) IsEmpty() bool {
	return t.Instructions == "" && t.WorkingDirectory == "" &&
		t.TotalTokens == 0 && len(t.Messages) == 0
}
