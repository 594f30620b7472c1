package models

import "time"

// PitchEvaluation is one graded pitch submission. Score is nil when the
// evaluator's feedback did not contain a parseable score; nil and zero are
// distinct outcomes. Records are append-only.
type PitchEvaluation struct {
	StudentID string    `json:"student_id"`
	StepName  string    `json:"step_name"`
	Score     *int      `json:"score"`
	Feedback  string    `json:"feedback"`
	CreatedAt time.Time `json:"created_at"`
}
