package models

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

type ChatMessage struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// StudentSession holds one conversation's state: the student's position in
// the step sequence, the active persona, per-step interaction counters and
// a per-persona history. All mutation goes through the tutor service while
// the session lock is held, so each conversation processes one message at a
// time.
type StudentSession struct {
	mu sync.Mutex

	StudentID        string                    `json:"student_id"`
	StepIndex        int                       `json:"current_step_index"`
	CurrentStep      string                    `json:"current_step"`
	ActivePersona    Persona                   `json:"active_persona"`
	StartTime        time.Time                 `json:"start_time"`
	StepInteractions map[string]int            `json:"step_interactions"`
	Histories        map[Persona][]ChatMessage `json:"-"`
}

func NewStudentSession(studentID string) *StudentSession {
	return &StudentSession{
		StudentID:        studentID,
		StepIndex:        0,
		CurrentStep:      PitchSteps[0],
		ActivePersona:    PersonaMentor,
		StartTime:        time.Now().UTC(),
		StepInteractions: make(map[string]int),
		Histories:        make(map[Persona][]ChatMessage),
	}
}

func (s *StudentSession) Lock()   { s.mu.Lock() }
func (s *StudentSession) Unlock() { s.mu.Unlock() }

// StepKey is the interaction-counter key for the current step index.
func (s *StudentSession) StepKey() string {
	return fmt.Sprintf("step_%d", s.StepIndex)
}

// InteractionCount returns the counter for the current step; a step never
// visited counts as zero.
func (s *StudentSession) InteractionCount() int {
	return s.StepInteractions[s.StepKey()]
}

func (s *StudentSession) ElapsedMinutes() float64 {
	return time.Since(s.StartTime).Minutes()
}

func (s *StudentSession) AppendHistory(persona Persona, role, content string) {
	s.Histories[persona] = append(s.Histories[persona], ChatMessage{
		ID:        uuid.New().String(),
		Role:      role,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	})
}

// FlattenHistory converts a persona's history to the plain-text block the
// prompt templates expect.
func (s *StudentSession) FlattenHistory(persona Persona) string {
	messages := s.Histories[persona]
	lines := make([]string, 0, len(messages))
	for _, m := range messages {
		lines = append(lines, m.Content)
	}
	return strings.Join(lines, "\n")
}
