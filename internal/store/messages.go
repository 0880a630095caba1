package store

import (
	"helix/internal/logging"
	"helix/internal/types"
)

// AppendMessage adds one transcript entry. Messages are append-only;
// insertion order (the autoincrement id) is the sole sequencing key.
func (s *Store) AppendMessage(sessionID string, sender types.Sender, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	logging.SessionDebug("Appending message: session=%s sender=%s len=%d",
		sessionID, sender, len(content))

	_, err := s.db.Exec(
		"INSERT INTO messages (session_id, sender, content) VALUES (?, ?, ?)",
		sessionID, string(sender), content,
	)
	if err != nil {
		logging.Get(logging.CategorySession).Error("Failed to append message: session=%s: %v", sessionID, err)
	}
	return err
}

// ListMessages returns a session's transcript in chronological order.
func (s *Store) ListMessages(sessionID string) ([]types.Message, error) {
	timer := logging.StartTimer(logging.CategoryStore, "ListMessages")
	defer timer.Stop()

	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(
		`SELECT id, session_id, sender, content, created_at
		 FROM messages WHERE session_id = ? ORDER BY id ASC`,
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []types.Message
	for rows.Next() {
		var m types.Message
		var sender string
		if err := rows.Scan(&m.ID, &m.SessionID, &sender, &m.Content, &m.CreatedAt); err != nil {
			return nil, err
		}
		m.Sender = types.Sender(sender)
		messages = append(messages, m)
	}
	return messages, rows.Err()
}
