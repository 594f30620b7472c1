package tutor

import (
	"fmt"
	"log"
	"strings"

	"pitchtutor/models"

	"github.com/samber/lo"
)

const (
	// StepCompletedMarker is the sentinel the mentor persona is instructed
	// to embed when it judges the current step answered.
	StepCompletedMarker = "[STEP_COMPLETED]"

	advanceCommand      = "/next"
	minStepInteractions = 2
	minMessageLength    = 10
)

// greetingTokens are filler messages that never justify advancing a step,
// even when every other guard passed.
var greetingTokens = []string{"hi", "hello", "hey", "start", "begin"}

type advanceDecision struct {
	Blocked bool
	Reason  string
}

// evaluateAdvance applies the guard conditions, in order, to a message whose
// mentor reply carried the completion marker:
//
//  1. An explicit advance request ("/next" or a message containing
//     "next step") passes regardless of the other guards.
//  2. Fewer than minStepInteractions exchanges on the current step block.
//  3. A message under minMessageLength characters blocks unless it is the
//     advance command.
//  4. A message that is exactly a greeting token blocks. This check runs
//     unconditionally last and can override an otherwise passing state.
func evaluateAdvance(userMessage string, interactionCount int) advanceDecision {
	msg := strings.ToLower(strings.TrimSpace(userMessage))

	var decision advanceDecision
	switch {
	case msg == advanceCommand || strings.Contains(msg, "next step"):
		decision = advanceDecision{Blocked: false, Reason: "user requested next step"}
	case interactionCount < minStepInteractions:
		decision = advanceDecision{Blocked: true, Reason: fmt.Sprintf("insufficient interactions (only %d)", interactionCount)}
	case len(msg) < minMessageLength && msg != advanceCommand:
		decision = advanceDecision{Blocked: true, Reason: "message too short"}
	}

	if lo.Contains(greetingTokens, msg) {
		decision = advanceDecision{Blocked: true, Reason: "message contains only greeting"}
	}

	return decision
}

// commitAdvance performs the approved transition. Below the last step the
// index moves forward by exactly one; at the last step the index stays put
// and the all-steps-complete notification is emitted instead. Either way the
// new state is flushed to the store best-effort with the completed step's
// interaction count.
func (s *Service) commitAdvance(session *models.StudentSession) string {
	completedKey := session.StepKey()
	count := session.StepInteractions[completedKey]

	if session.StepIndex < len(models.PitchSteps)-1 {
		session.StepIndex++
		session.CurrentStep = models.PitchSteps[session.StepIndex]

		if err := s.repo.UpsertSession(session.StudentID, session.StepIndex, &count, nil); err != nil {
			log.Printf("[ERROR] Failed to save session after step completion for student %s: %v", session.StudentID, err)
		}

		return fmt.Sprintf("Great job! Moving to the next step: %s", session.CurrentStep)
	}

	if err := s.repo.UpsertSession(session.StudentID, session.StepIndex, &count, nil); err != nil {
		log.Printf("[ERROR] Failed to save session after completion for student %s: %v", session.StudentID, err)
	}

	return "Congratulations! You've completed all steps of your elevator pitch. " +
		"You can now upload your final pitch with /upload or continue refining it."
}
