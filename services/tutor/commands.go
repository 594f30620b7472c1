package tutor

import (
	"fmt"
	"sort"
	"strings"

	"pitchtutor/models"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

var knownCommands = []string{"/next", "/progress", "/upload", "/mentor", "/peer", "/eval"}

// handleCommand answers command messages locally. "/next" is deliberately
// not handled here: it flows to the mentor as free text so the completion
// marker and guard bypass do their work. "/progress" is the progress check
// and therefore shadows switching to the progress persona, matching the
// original command precedence.
func (s *Service) handleCommand(session *models.StudentSession, raw string) (*MessageResult, bool) {
	cmd := strings.ToLower(strings.TrimSpace(raw))

	switch cmd {
	case "/progress":
		return &MessageResult{Reply: s.progressReport(session)}, true
	case "/upload":
		reply := fmt.Sprintf("Please upload your pitch document (PDF or DOCX) to the pitch endpoint for your session.\n\n"+
			"Remember your Student ID: #%s - you'll need it to identify your data.", session.StudentID)
		return &MessageResult{Reply: reply}, true
	case "/mentor", "/peer", "/eval":
		persona, err := models.ParsePersona(strings.TrimPrefix(cmd, "/"))
		if err != nil {
			return &MessageResult{Reply: unknownCommand(cmd)}, true
		}
		session.ActivePersona = persona
		reply := fmt.Sprintf("Switched to %s\n\nRemember your Student ID: #%s", persona.DisplayName(), session.StudentID)
		return &MessageResult{Reply: reply}, true
	}

	if strings.HasPrefix(cmd, "/") && cmd != advanceCommand {
		return &MessageResult{Reply: unknownCommand(cmd)}, true
	}

	return nil, false
}

// progressReport has no side effects: asking twice in a row yields the same
// percentage and interaction counts.
func (s *Service) progressReport(session *models.StudentSession) string {
	total := len(models.PitchSteps)
	percentage := 0
	if total > 0 {
		percentage = int(float64(session.StepIndex) / float64(total) * 100)
	}

	count := session.InteractionCount()
	remaining := minStepInteractions - count
	if remaining < 0 {
		remaining = 0
	}

	return fmt.Sprintf("Time elapsed: %.1f minutes\n"+
		"Progress: %d%% complete\n"+
		"Current step: %s (%d/%d)\n"+
		"Step interactions: %d (you need at least %d interactions per step, need %d more, or type /next to proceed)\n"+
		"Student ID: %s (IMPORTANT: Write down this ID for your records!)",
		session.ElapsedMinutes(),
		percentage,
		session.CurrentStep, session.StepIndex+1, total,
		count, minStepInteractions, remaining,
		session.StudentID,
	)
}

func unknownCommand(cmd string) string {
	matches := fuzzy.RankFindFold(strings.TrimPrefix(cmd, "/"), knownCommands)
	if len(matches) > 0 {
		sort.Sort(matches)
		return fmt.Sprintf("Unknown command %q. Did you mean %s?", cmd, matches[0].Target)
	}
	return fmt.Sprintf("Unknown command %q. Available commands: %s", cmd, strings.Join(knownCommands, ", "))
}
