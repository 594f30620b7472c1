package db

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/lib/pq"
)

// SessionRepository is the narrow persistence port for the tutoring bot.
// Exactly three operations exist; callers treat every failure as non-fatal
// and keep working from in-memory state.
type SessionRepository interface {
	// UpsertSession inserts or updates the session row keyed on student ID.
	// The last_updated timestamp is always refreshed server-side. Optional
	// fields are only written when non-nil.
	UpsertSession(studentID string, stepIndex int, totalInteractions *int, lastMessage *string) error

	// InsertEvaluation appends one pitch evaluation and bumps the session's
	// completed_steps counter. A nil score is stored as NULL.
	InsertEvaluation(studentID, stepName string, score *int, feedback string) error

	// IncrementInteractions bumps the session's cumulative interaction count.
	IncrementInteractions(studentID string) error
}

// PostgresSessionRepository opens one connection per operation and closes it
// afterwards; there is no pooling and no transaction spanning operations.
// Each write is atomic at the statement level only.
type PostgresSessionRepository struct {
	databaseURL string
}

func NewPostgresSessionRepository(databaseURL string) (*PostgresSessionRepository, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("database URL is required")
	}
	return &PostgresSessionRepository{databaseURL: databaseURL}, nil
}

func (r *PostgresSessionRepository) connect() (*sql.DB, error) {
	db, err := sql.Open("postgres", r.databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

func (r *PostgresSessionRepository) UpsertSession(studentID string, stepIndex int, totalInteractions *int, lastMessage *string) error {
	db, err := r.connect()
	if err != nil {
		return err
	}
	defer db.Close()

	updates := []string{"current_step_index = $2", "last_updated = NOW()"}
	args := []any{studentID, stepIndex}

	if totalInteractions != nil {
		args = append(args, *totalInteractions)
		updates = append(updates, fmt.Sprintf("total_interactions = $%d", len(args)))
	}

	if lastMessage != nil {
		args = append(args, *lastMessage)
		updates = append(updates, fmt.Sprintf("last_message_content = $%d", len(args)))
	}

	query := fmt.Sprintf(`
		INSERT INTO student_sessions (student_id, current_step_index, last_updated)
		VALUES ($1, $2, NOW())
		ON CONFLICT (student_id)
		DO UPDATE SET %s`, strings.Join(updates, ", "))

	if _, err := db.Exec(query, args...); err != nil {
		return fmt.Errorf("failed to upsert session: %w", err)
	}

	return nil
}

func (r *PostgresSessionRepository) InsertEvaluation(studentID, stepName string, score *int, feedback string) error {
	db, err := r.connect()
	if err != nil {
		return err
	}
	defer db.Close()

	query := `
		INSERT INTO pitch_evaluations (student_id, step_name, score, feedback, evaluation_date)
		VALUES ($1, $2, $3, $4, NOW())`

	if _, err := db.Exec(query, studentID, stepName, score, feedback); err != nil {
		return fmt.Errorf("failed to insert evaluation: %w", err)
	}

	update := `
		UPDATE student_sessions
		SET completed_steps = COALESCE(completed_steps, 0) + 1
		WHERE student_id = $1`

	if _, err := db.Exec(update, studentID); err != nil {
		return fmt.Errorf("failed to increment completed steps: %w", err)
	}

	return nil
}

func (r *PostgresSessionRepository) IncrementInteractions(studentID string) error {
	db, err := r.connect()
	if err != nil {
		return err
	}
	defer db.Close()

	query := `
		UPDATE student_sessions
		SET total_interactions = COALESCE(total_interactions, 0) + 1
		WHERE student_id = $1`

	if _, err := db.Exec(query, studentID); err != nil {
		return fmt.Errorf("failed to increment interactions: %w", err)
	}

	return nil
}
