package store

import (
	"database/sql"
	"encoding/json"

	"helix/internal/logging"
	"helix/internal/types"
)

// CreateUser inserts a user profile and returns its id.
func (s *Store) CreateUser(p *types.UserProfile) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var prefs []byte
	if len(p.Preferences) > 0 {
		var err error
		prefs, err = json.Marshal(p.Preferences)
		if err != nil {
			return 0, err
		}
	}

	res, err := s.db.Exec(
		"INSERT INTO users (name, company, title, industry, preferences) VALUES (?, ?, ?, ?, ?)",
		p.Name, p.Company, p.Title, p.Industry, string(prefs),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// GetUser retrieves a user profile by id.
func (s *Store) GetUser(id int64) (*types.UserProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getUserLocked(id)
}

func (s *Store) getUserLocked(id int64) (*types.UserProfile, error) {
	var p types.UserProfile
	var company, title, industry, prefs sql.NullString
	err := s.db.QueryRow(
		"SELECT id, name, company, title, industry, preferences FROM users WHERE id = ?", id,
	).Scan(&p.ID, &p.Name, &company, &title, &industry, &prefs)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	p.Company = company.String
	p.Title = title.String
	p.Industry = industry.String
	if prefs.String != "" {
		if err := json.Unmarshal([]byte(prefs.String), &p.Preferences); err != nil {
			logging.StoreDebug("Ignoring malformed preferences for user %d: %v", id, err)
		}
	}
	return &p, nil
}

// GetSessionProfile returns the profile attached to a session, or nil when
// the session is anonymous. A nil profile is a valid answer and renders as
// an empty context block.
func (s *Store) GetSessionProfile(sessionID string) (*types.UserProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var userID sql.NullInt64
	err := s.db.QueryRow(
		"SELECT user_id FROM sessions WHERE id = ?", sessionID,
	).Scan(&userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	if !userID.Valid {
		return nil, nil
	}
	p, err := s.getUserLocked(userID.Int64)
	if err == ErrUserNotFound {
		return nil, nil
	}
	return p, err
}

// GetUserContext renders the profile attached to a session as a free-text
// prompt block. Empty string means "no profile available".
func (s *Store) GetUserContext(sessionID string) (string, error) {
	p, err := s.GetSessionProfile(sessionID)
	if err != nil {
		return "", err
	}
	return p.ContextBlock(), nil
}
