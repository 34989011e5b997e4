package store

import (
	"database/sql"
	"strings"
)

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one stored chat turn half. ToolsUsed preserves invocation
// order and duplicates; it is empty for user messages.
type Message struct {
	ID        int64    `json:"id"`
	SessionID string   `json:"session_id"`
	Role      string   `json:"role"`
	Content   string   `json:"content"`
	Timestamp string   `json:"timestamp"`
	ToolsUsed []string `json:"tool_used"`
}

// AddMessage appends a message to a session. The timestamp is stored as
// given (ISO-8601); messages are immutable once written.
func (s *Store) AddMessage(sessionID, role, content, timestamp string, toolsUsed []string) error {
	_, err := s.exec(`INSERT INTO messages (session_id, role, content, timestamp, tool_used)
		VALUES (?, ?, ?, ?, ?)`, sessionID, role, content, timestamp, strings.Join(toolsUsed, ","))
	return err
}

// MessagesBySession returns one page of a session's messages in insertion
// order, plus the full message count regardless of limit and offset. The
// caller derives has_more from offset+limit < total.
func (s *Store) MessagesBySession(sessionID string, limit, offset int) ([]Message, int, error) {
	var total int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM messages WHERE session_id = ?`, sessionID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := s.query(`SELECT id, session_id, role, content, timestamp, tool_used
		FROM messages WHERE session_id = ? ORDER BY id ASC LIMIT ? OFFSET ?`, sessionID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	msgs, err := scanMessages(rows)
	if err != nil {
		return nil, 0, err
	}
	return msgs, total, nil
}

// SearchMessages finds messages whose content contains q (case-sensitive),
// optionally scoped to one session. instr is used instead of LIKE because
// LIKE case-folds ASCII in sqlite.
func (s *Store) SearchMessages(q, sessionID string) ([]Message, error) {
	query := `SELECT id, session_id, role, content, timestamp, tool_used
		FROM messages WHERE instr(content, ?) > 0`
	args := []any{q}
	if sessionID != "" {
		query += ` AND session_id = ?`
		args = append(args, sessionID)
	}
	query += ` ORDER BY id ASC`

	rows, err := s.query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanMessages(rows)
}

// DeleteMessagesBySession removes every message of a session.
func (s *Store) DeleteMessagesBySession(sessionID string) error {
	_, err := s.exec(`DELETE FROM messages WHERE session_id = ?`, sessionID)
	return err
}

func scanMessages(rows *sql.Rows) ([]Message, error) {
	out := []Message{}
	for rows.Next() {
		var m Message
		var joined string
		if err := rows.Scan(&m.ID, &m.SessionID, &m.Role, &m.Content, &m.Timestamp, &joined); err != nil {
			return nil, err
		}
		if joined != "" {
			m.ToolsUsed = strings.Split(joined, ",")
		} else {
			m.ToolsUsed = []string{}
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
