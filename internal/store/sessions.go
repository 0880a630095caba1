package store

import (
	"database/sql"
	"time"

	"github.com/google/uuid"

	"helix/internal/logging"
	"helix/internal/types"
)

// CreateSession creates a new session for the given user and returns it.
// A zero userID creates an anonymous session with no profile attached.
func (s *Store) CreateSession(userID int64) (*types.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.NewString()
	logging.SessionDebug("Creating session: id=%s user_id=%d", id, userID)

	var user interface{}
	if userID > 0 {
		user = userID
	}
	_, err := s.db.Exec(
		"INSERT INTO sessions (id, user_id) VALUES (?, ?)",
		id, user,
	)
	if err != nil {
		logging.Get(logging.CategorySession).Error("Failed to create session %s: %v", id, err)
		return nil, err
	}

	return &types.Session{ID: id, UserID: userID, CreatedAt: time.Now()}, nil
}

// GetSession retrieves a session by id.
func (s *Store) GetSession(id string) (*types.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var sess types.Session
	var userID sql.NullInt64
	err := s.db.QueryRow(
		"SELECT id, user_id, created_at FROM sessions WHERE id = ?", id,
	).Scan(&sess.ID, &userID, &sess.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	sess.UserID = userID.Int64
	return &sess, nil
}

// DeleteSession removes a session; messages and steps cascade with it.
func (s *Store) DeleteSession(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	logging.Session("Deleting session %s", id)
	res, err := s.db.Exec("DELETE FROM sessions WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// SetSearchResults caches the last professional-search result JSON on the
// session, for the personalized-outreach operation to pick up later.
func (s *Store) SetSearchResults(sessionID, resultsJSON string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(
		"UPDATE sessions SET search_results = ? WHERE id = ?",
		resultsJSON, sessionID,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// GetSearchResults returns the cached search result JSON, or empty string.
func (s *Store) GetSearchResults(sessionID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var results sql.NullString
	err := s.db.QueryRow(
		"SELECT search_results FROM sessions WHERE id = ?", sessionID,
	).Scan(&results)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", ErrSessionNotFound
		}
		return "", err
	}
	return results.String, nil
}
