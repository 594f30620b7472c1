package tutor

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strconv"
	"time"

	"pitchtutor/models"
)

var scorePattern = regexp.MustCompile(`(?i)score[:\s]+(\d{1,2})\s*/\s*10`)

// parseScore pulls the first 1-2 digit integer preceding "/10" out of the
// evaluator's feedback. No match means no score; absence is never collapsed
// to zero.
func parseScore(feedback string) *int {
	match := scorePattern.FindStringSubmatch(feedback)
	if match == nil {
		return nil
	}

	score, err := strconv.Atoi(match[1])
	if err != nil {
		return nil
	}
	return &score
}

// EvaluatePitch runs the evaluator persona once over the extracted pitch
// text and appends one evaluation record. The evaluation insert and the
// completed-steps bump it carries are best-effort; a saved evaluation with a
// failed counter update is acceptable and not rolled back.
func (s *Service) EvaluatePitch(ctx context.Context, studentID, pitchText string) (*models.PitchEvaluation, error) {
	session, err := s.GetSession(studentID)
	if err != nil {
		return nil, err
	}

	session.Lock()
	defer session.Unlock()

	log.Printf("[INFO] Starting pitch evaluation for student %s", studentID)

	prompt := renderPrompt(models.PersonaEval, session, pitchText)

	feedback, err := s.llm.Generate(ctx, prompt, nil)
	if err != nil {
		log.Printf("[ERROR] Evaluation failed for student %s: %v", studentID, err)
		return nil, fmt.Errorf("failed to evaluate pitch: %w", err)
	}

	evaluation := &models.PitchEvaluation{
		StudentID: studentID,
		StepName:  session.CurrentStep,
		Score:     parseScore(feedback),
		Feedback:  feedback,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.repo.InsertEvaluation(studentID, evaluation.StepName, evaluation.Score, feedback); err != nil {
		log.Printf("[WARN] Failed to save pitch evaluation for student %s: %v", studentID, err)
	}

	log.Printf("[INFO] Pitch evaluation completed for student %s, step %s", studentID, evaluation.StepName)
	return evaluation, nil
}
