package store

import (
	"database/sql"
	"fmt"

	"helix/internal/logging"
	"helix/internal/types"
)

// ListSteps returns a session's sequence steps ordered by step number
// ascending. An empty sequence returns a nil slice, not an error.
func (s *Store) ListSteps(sessionID string) ([]types.SequenceStep, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listStepsLocked(sessionID)
}

func (s *Store) listStepsLocked(sessionID string) ([]types.SequenceStep, error) {
	rows, err := s.db.Query(
		`SELECT step_number, content FROM sequence_steps
		 WHERE session_id = ? ORDER BY step_number ASC`,
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var steps []types.SequenceStep
	for rows.Next() {
		var st types.SequenceStep
		if err := rows.Scan(&st.StepNumber, &st.Content); err != nil {
			return nil, err
		}
		steps = append(steps, st)
	}
	return steps, rows.Err()
}

// GetStep returns one step by number, or ErrStepNotFound.
func (s *Store) GetStep(sessionID string, stepNumber int) (*types.SequenceStep, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var st types.SequenceStep
	err := s.db.QueryRow(
		"SELECT step_number, content FROM sequence_steps WHERE session_id = ? AND step_number = ?",
		sessionID, stepNumber,
	).Scan(&st.StepNumber, &st.Content)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrStepNotFound
		}
		return nil, err
	}
	return &st, nil
}

// ReplaceAllSteps atomically discards all existing steps for a session and
// inserts the given contents renumbered 1..N in order. Readers observe
// either the old complete list or the new complete list, never a partial
// one: the write lock excludes readers and the transaction rolls back as a
// unit on any insert failure.
func (s *Store) ReplaceAllSteps(sessionID string, contents []string) error {
	timer := logging.StartTimer(logging.CategoryStore, "ReplaceAllSteps")
	defer timer.Stop()

	s.mu.Lock()
	defer s.mu.Unlock()

	logging.StoreDebug("Replacing steps: session=%s count=%d", sessionID, len(contents))

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if _, err := tx.Exec("DELETE FROM sequence_steps WHERE session_id = ?", sessionID); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to clear steps: %w", err)
	}

	for i, content := range contents {
		if _, err := tx.Exec(
			"INSERT INTO sequence_steps (session_id, step_number, content) VALUES (?, ?, ?)",
			sessionID, i+1, content,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to insert step %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit steps: %w", err)
	}

	logging.Store("Replaced sequence: session=%s steps=%d", sessionID, len(contents))
	return nil
}

// UpdateStepContent replaces one step's content in place, leaving the
// numbering untouched. Returns ErrStepNotFound when no such step exists.
func (s *Store) UpdateStepContent(sessionID string, stepNumber int, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(
		"UPDATE sequence_steps SET content = ? WHERE session_id = ? AND step_number = ?",
		content, sessionID, stepNumber,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrStepNotFound
	}
	logging.StoreDebug("Updated step: session=%s step=%d len=%d", sessionID, stepNumber, len(content))
	return nil
}

// CountSteps returns the number of steps in a session's sequence.
func (s *Store) CountSteps(sessionID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int
	err := s.db.QueryRow(
		"SELECT COUNT(*) FROM sequence_steps WHERE session_id = ?", sessionID,
	).Scan(&n)
	return n, err
}
