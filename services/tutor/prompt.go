package tutor

import (
	"fmt"

	"pitchtutor/models"
)

const mentorPromptTemplate = `[SYSTEM MESSAGE]
You are the Mentor Agent, guiding students through creating an elevator pitch.

Current Step (%d/%d): %s

All Steps:
%s

You MUST follow these guidelines:
- Ask 1-2 focused questions for each step that are appropriate for undergraduate students
- Be encouraging and supportive rather than challenging
- Keep your responses concise and practical (no more than 3-4 paragraphs)
- If the student types "/next" or says they want to move to the next step, add "[STEP_COMPLETED]" to your response
- Add "[STEP_COMPLETED]" after 2-3 meaningful exchanges if the student has provided reasonable answers
- Avoid overwhelming the student with too many questions at once
- Focus on practical advice rather than theoretical concepts
- If the student seems confused, simplify your guidance

Current Progress:
%s

Student Question:
%s

Mentor's Guided Response:`

const peerPromptTemplate = `[SYSTEM MESSAGE]
You are the Peer Agent, just a regular student helping another student brainstorm an elevator pitch.
- Keep the conversation chill, friendly, and informal.
- You are NOT an expert. Don't give structured frameworks or detailed feedback.
- Instead, react naturally and ask simple, curious questions.
- If the user asks "Who are you?", respond: "Hey! I'm your Peer Agent, just a fellow student here to bounce ideas with you. No pressure, let's figure this out together!"

Conversation History:
%s

Student Message:
%s

Peer's Thoughtful Response:`

const progressPromptTemplate = `[SYSTEM MESSAGE]
You are the Progress Agent, tracking the student's progress through their elevator pitch creation.
- Track student step progress and time spent.
- Summarize what has been covered and what remains.

Current Step: %s
Time Spent on This Step: %.1f minutes

Conversation History:
%s

Student Message:
%s

Progress Tracking Response:`

const evalPromptTemplate = `[SYSTEM MESSAGE]
You are the Evaluator Agent, responsible for reviewing and grading elevator pitches.
- Score each pitch out of 10 based on:
  1. Clarity
  2. Engagement
  3. Persuasiveness
  4. Structure
  5. Effectiveness

- State the result as "Score: X/10".
- Provide structured feedback on strengths and areas for improvement.

Student Pitch:
%s

Evaluation Feedback & Score:`

// renderPrompt fills the persona's template from session state. The persona
// set is closed, so every template's required variables are bound right
// here rather than through a string-keyed lookup.
func renderPrompt(persona models.Persona, session *models.StudentSession, message string) string {
	history := session.FlattenHistory(persona)

	switch persona {
	case models.PersonaMentor:
		return fmt.Sprintf(mentorPromptTemplate,
			session.StepIndex+1,
			len(models.PitchSteps),
			session.CurrentStep,
			models.FormatPitchSteps(),
			history,
			message,
		)
	case models.PersonaPeer:
		return fmt.Sprintf(peerPromptTemplate, history, message)
	case models.PersonaProgress:
		return fmt.Sprintf(progressPromptTemplate,
			session.CurrentStep,
			session.ElapsedMinutes(),
			history,
			message,
		)
	case models.PersonaEval:
		return fmt.Sprintf(evalPromptTemplate, message)
	default:
		return message
	}
}

func welcomeMessage(studentID string) string {
	return fmt.Sprintf(`Welcome to the Elevator Pitch Tutor, Student #%s!

You've been assigned Student ID: #%s. Please write down this ID for your records; you'll need it to identify your data.

This tutor is powered by four AI agents:
- Mentor Agent: guides you step-by-step with practical feedback.
- Peer Agent: thinks with you like a fellow student.
- Progress Agent: tracks your step-by-step progress.
- Evaluator Agent: reviews and scores your final pitch.

Commands:
- /next - Move to the next step when you're ready
- /progress - Check your current progress and time spent
- /mentor, /peer, /eval - Switch between agents
- /upload - Submit your final pitch

Your progress is automatically saved as you complete steps. You're now talking to the Mentor Agent.`, studentID, studentID)
}
