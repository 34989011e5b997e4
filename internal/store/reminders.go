package store

import (
	"database/sql"
	"errors"
	"strings"
	"time"
)

// Reminder status values.
const (
	StatusPending  = "pending"
	StatusComplete = "complete"
)

// Reminder priority values.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// Reminder is a due-dated task independent of any conversation.
// CompletedAt is nil until the reminder is completed.
type Reminder struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	DueDate     string  `json:"due_date"`
	Priority    string  `json:"priority"`
	Status      string  `json:"status"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
	CompletedAt *string `json:"completed_at"`
}

const reminderColumns = `id, title, description, due_date, priority, status, created_at, updated_at, completed_at`

// CreateReminder inserts a new reminder; status always starts pending and
// priority defaults to low.
func (s *Store) CreateReminder(title, description, dueDate, priority string) (int64, error) {
	if priority == "" {
		priority = PriorityLow
	}
	ts := now()
	res, err := s.exec(`INSERT INTO reminders (title, description, due_date, priority, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`, title, description, dueDate, priority, StatusPending, ts, ts)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// ReminderFilter narrows QueryReminders; zero-valued fields are omitted
// from the WHERE clause entirely.
type ReminderFilter struct {
	Status        string
	Priority      string
	TitleContains string
	DueAfter      string
	DueBefore     string
}

// QueryReminders returns reminders matching every supplied filter,
// soonest due first. All filter values are bound parameters.
func (s *Store) QueryReminders(f ReminderFilter) ([]Reminder, error) {
	query := `SELECT ` + reminderColumns + ` FROM reminders WHERE 1=1`
	var args []any
	if f.Status != "" {
		query += ` AND status = ?`
		args = append(args, f.Status)
	}
	if f.DueAfter != "" {
		query += ` AND due_date >= ?`
		args = append(args, f.DueAfter)
	}
	if f.DueBefore != "" {
		query += ` AND due_date <= ?`
		args = append(args, f.DueBefore)
	}
	if f.TitleContains != "" {
		query += ` AND title LIKE '%' || ? || '%'`
		args = append(args, f.TitleContains)
	}
	if f.Priority != "" {
		query += ` AND priority = ?`
		args = append(args, f.Priority)
	}
	query += ` ORDER BY due_date ASC`

	rows, err := s.query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanReminders(rows)
}

// ReminderPatch carries a partial update; nil fields are left unchanged.
type ReminderPatch struct {
	Title       *string
	Description *string
	DueDate     *string
	Priority    *string
	Status      *string
}

// UpdateReminder applies the patch to one reminder and refreshes
// updated_at. Setting status also maintains the completed_at invariant:
// non-null exactly when status is complete. Reports whether a row matched.
// An all-nil patch still produces valid SQL (updated_at alone).
func (s *Store) UpdateReminder(id int64, p ReminderPatch) (bool, error) {
	sets := []string{"updated_at = ?"}
	args := []any{now()}
	if p.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *p.Title)
	}
	if p.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *p.Description)
	}
	if p.DueDate != nil {
		sets = append(sets, "due_date = ?")
		args = append(args, *p.DueDate)
	}
	if p.Priority != nil {
		sets = append(sets, "priority = ?")
		args = append(args, *p.Priority)
	}
	if p.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, *p.Status)
		if *p.Status == StatusComplete {
			sets = append(sets, "completed_at = ?")
			args = append(args, now())
		} else {
			sets = append(sets, "completed_at = NULL")
		}
	}
	args = append(args, id)

	res, err := s.exec(`UPDATE reminders SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// GetReminder fetches one reminder; the bool reports whether it exists.
func (s *Store) GetReminder(id int64) (Reminder, bool, error) {
	row := s.db.QueryRow(`SELECT `+reminderColumns+` FROM reminders WHERE id = ?`, id)
	r, err := scanReminder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Reminder{}, false, nil
	}
	if err != nil {
		return Reminder{}, false, err
	}
	return r, true, nil
}

// UpcomingReminders returns pending reminders due within minutesAhead
// minutes from now, soonest first.
func (s *Store) UpcomingReminders(minutesAhead int) ([]Reminder, error) {
	dueBefore := time.Now().UTC().Add(time.Duration(minutesAhead) * time.Minute).Format(TimeFormat)
	rows, err := s.query(`SELECT `+reminderColumns+` FROM reminders
		WHERE due_date <= ? AND status = ? ORDER BY due_date ASC`, dueBefore, StatusPending)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanReminders(rows)
}

// CompleteReminder marks a reminder complete and stamps completed_at in a
// single statement. Reports false without mutating anything when the id
// does not exist.
func (s *Store) CompleteReminder(id int64) (Reminder, bool, error) {
	ts := now()
	res, err := s.exec(`UPDATE reminders SET status = ?, completed_at = ?, updated_at = ? WHERE id = ?`,
		StatusComplete, ts, ts, id)
	if err != nil {
		return Reminder{}, false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return Reminder{}, false, err
	}
	if n == 0 {
		return Reminder{}, false, nil
	}
	return s.GetReminder(id)
}

// SnoozeReminder pushes due_date forward by the given minutes as a single
// atomic arithmetic update, so concurrent snoozes never lose increments.
// Only due_date changes.
func (s *Store) SnoozeReminder(id int64, minutes int) (Reminder, bool, error) {
	res, err := s.exec(`UPDATE reminders
		SET due_date = strftime('%Y-%m-%dT%H:%M:%SZ', due_date, '+' || ? || ' minutes')
		WHERE id = ?`, minutes, id)
	if err != nil {
		return Reminder{}, false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return Reminder{}, false, err
	}
	if n == 0 {
		return Reminder{}, false, nil
	}
	return s.GetReminder(id)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReminder(row rowScanner) (Reminder, error) {
	var r Reminder
	var completedAt sql.NullString
	err := row.Scan(&r.ID, &r.Title, &r.Description, &r.DueDate, &r.Priority, &r.Status,
		&r.CreatedAt, &r.UpdatedAt, &completedAt)
	if err != nil {
		return Reminder{}, err
	}
	if completedAt.Valid {
		r.CompletedAt = &completedAt.String
	}
	return r, nil
}

func scanReminders(rows *sql.Rows) ([]Reminder, error) {
	out := []Reminder{}
	for rows.Next() {
		r, err := scanReminder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
