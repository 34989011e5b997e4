package store

import "errors"

// ErrConversationExists is returned by CreateConversation when the session
// id is already taken.
var ErrConversationExists = errors.New("conversation already exists")

// Conversation is one chat session; session_id doubles as the agent's
// memory-thread key.
type Conversation struct {
	SessionID    string `json:"session_id"`
	Title        string `json:"title"`
	MessageCount int    `json:"message_count"`
	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at"`
}

// EnsureConversation inserts the conversation if the session id is absent
// and reports whether a row was created. The conflict-ignore insert makes
// concurrent first messages on the same fresh session id safe.
func (s *Store) EnsureConversation(sessionID, title string) (bool, error) {
	ts := now()
	res, err := s.exec(`INSERT INTO conversations (session_id, title, created_at, updated_at)
		VALUES (?, ?, ?, ?) ON CONFLICT(session_id) DO NOTHING`, sessionID, title, ts, ts)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// CreateConversation inserts a new conversation, failing with
// ErrConversationExists when the session id is already present.
func (s *Store) CreateConversation(sessionID, title string) error {
	created, err := s.EnsureConversation(sessionID, title)
	if err != nil {
		return err
	}
	if !created {
		return ErrConversationExists
	}
	return nil
}

// HasConversation reports whether a conversation exists for the session id.
func (s *Store) HasConversation(sessionID string) (bool, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM conversations WHERE session_id = ?`, sessionID).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

// IncrementMessageCount bumps the per-conversation message counter and the
// updated_at timestamp. Unknown session ids are a silent no-op.
func (s *Store) IncrementMessageCount(sessionID string) error {
	_, err := s.exec(`UPDATE conversations SET message_count = message_count + 1, updated_at = ? WHERE session_id = ?`,
		now(), sessionID)
	return err
}

// Conversations returns every conversation, most recently updated first.
func (s *Store) Conversations() ([]Conversation, error) {
	rows, err := s.query(`SELECT session_id, title, message_count, created_at, updated_at
		FROM conversations ORDER BY updated_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Conversation{}
	for rows.Next() {
		var c Conversation
		if err := rows.Scan(&c.SessionID, &c.Title, &c.MessageCount, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// DeleteConversation removes the conversation row only; the caller is
// responsible for deleting its messages as well.
func (s *Store) DeleteConversation(sessionID string) error {
	_, err := s.exec(`DELETE FROM conversations WHERE session_id = ?`, sessionID)
	return err
}
