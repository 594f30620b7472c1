package tutor

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"strings"
	"sync"

	"pitchtutor/db"
	"pitchtutor/models"
	"pitchtutor/services/completion"
)

var ErrSessionNotFound = errors.New("session not found")

// Service owns the in-memory session registry, the persona router and the
// step-progression state machine. The store and the completion backend are
// reached only through their ports; their failures never abort a
// conversation.
type Service struct {
	repo db.SessionRepository
	llm  completion.Service

	mu       sync.Mutex
	sessions map[string]*models.StudentSession
}

// MessageResult is what one handled message produces: the displayed reply
// (completion marker already stripped) and any step notifications emitted
// alongside it.
type MessageResult struct {
	Reply         string   `json:"reply"`
	Notifications []string `json:"notifications,omitempty"`
}

func NewService(repo db.SessionRepository, llm completion.Service) *Service {
	return &Service{
		repo:     repo,
		llm:      llm,
		sessions: make(map[string]*models.StudentSession),
	}
}

// StartSession creates a new anonymous session. The 8-digit identifier is
// drawn at random with no uniqueness check against live sessions or the
// store; a collision is accepted risk and resolves through upsert semantics.
func (s *Service) StartSession() (*models.StudentSession, string) {
	studentID := fmt.Sprintf("%d", rand.Intn(90000000)+10000000)

	session := models.NewStudentSession(studentID)

	s.mu.Lock()
	s.sessions[studentID] = session
	s.mu.Unlock()

	log.Printf("[INFO] New student assigned ID: %s", studentID)

	// Best effort; the in-memory session stays authoritative either way.
	if err := s.repo.UpsertSession(studentID, 0, nil, nil); err != nil {
		log.Printf("[ERROR] Initial session not saved for student %s: %v", studentID, err)
	}

	return session, welcomeMessage(studentID)
}

// EndSession clears all in-memory state for the student. The last durable
// write is whatever the state machine last flushed; nothing is persisted on
// this path.
func (s *Service) EndSession(studentID string) (string, error) {
	s.mu.Lock()
	_, ok := s.sessions[studentID]
	delete(s.sessions, studentID)
	s.mu.Unlock()

	if !ok {
		return "", ErrSessionNotFound
	}

	log.Printf("[INFO] Session stopped for student %s", studentID)
	return fmt.Sprintf("Session stopped. Your progress is saved! Remember your Student ID: #%s", studentID), nil
}

func (s *Service) GetSession(studentID string) (*models.StudentSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[studentID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// HandleMessage processes one inbound message for a session: commands are
// answered locally, free text is dispatched to the active persona and the
// reply is scanned for the step-completion marker. Messages for one session
// are handled strictly one at a time.
func (s *Service) HandleMessage(ctx context.Context, studentID, content string, onFragment func(string) error) (*MessageResult, error) {
	session, err := s.GetSession(studentID)
	if err != nil {
		return nil, err
	}

	session.Lock()
	defer session.Unlock()

	if result, handled := s.handleCommand(session, content); handled {
		return result, nil
	}

	return s.dispatch(ctx, session, content, onFragment)
}

// dispatch renders the active persona's template, calls the completion
// backend and runs the step-progression checks on the mentor's reply.
// Session state is only mutated after the full response is available.
func (s *Service) dispatch(ctx context.Context, session *models.StudentSession, content string, onFragment func(string) error) (*MessageResult, error) {
	persona := session.ActivePersona
	prompt := renderPrompt(persona, session, content)

	log.Printf("[INFO] Sending to %s agent for student %s", persona, session.StudentID)

	reply, err := s.llm.Generate(ctx, prompt, onFragment)
	if err != nil {
		log.Printf("[ERROR] Failed to generate %s reply for student %s: %v", persona, session.StudentID, err)
		return nil, fmt.Errorf("failed to generate reply: %w", err)
	}

	var notifications []string

	if persona == models.PersonaMentor {
		key := session.StepKey()
		session.StepInteractions[key]++
		log.Printf("[INFO] Step %d (%s) interaction count: %d",
			session.StepIndex, session.CurrentStep, session.StepInteractions[key])

		if strings.Contains(reply, StepCompletedMarker) {
			log.Printf("[INFO] %s marker detected for student %s", StepCompletedMarker, session.StudentID)

			decision := evaluateAdvance(content, session.StepInteractions[key])

			// The marker never reaches the student, advanced or not.
			reply = strings.ReplaceAll(reply, StepCompletedMarker, "")

			if decision.Blocked {
				log.Printf("[INFO] Skipping step advancement for student %s: %s", session.StudentID, decision.Reason)
			} else {
				log.Printf("[INFO] Step advancement approved for student %s with %d interactions",
					session.StudentID, session.StepInteractions[key])
				notifications = append(notifications, s.commitAdvance(session))
			}
		}
	}

	session.AppendHistory(persona, "user", content)
	session.AppendHistory(persona, "assistant", reply)

	if err := s.repo.IncrementInteractions(session.StudentID); err != nil {
		log.Printf("[ERROR] Failed to increment interactions for student %s: %v", session.StudentID, err)
	}

	return &MessageResult{Reply: reply, Notifications: notifications}, nil
}
