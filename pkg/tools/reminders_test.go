package tools

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/steward-ai/steward/internal/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestAddReminderTool(t *testing.T) {
	s := newTestStore(t)
	tool := NewAddReminderTool(s)

	out, err := tool.Run(context.Background(),
		`{"title": "dentist", "description": "checkup", "due_date": "2026-03-01T09:00:00Z", "priority": "high"}`)
	require.NoError(t, err)
	require.Contains(t, out, "dentist")
	require.Contains(t, out, "id 1")

	r, ok, err := s.GetReminder(1)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, store.StatusPending, r.Status)
	require.Equal(t, store.PriorityHigh, r.Priority)
	require.Equal(t, "2026-03-01T09:00:00Z", r.DueDate)
}

func TestAddReminderToolValidation(t *testing.T) {
	s := newTestStore(t)
	tool := NewAddReminderTool(s)

	out, err := tool.Run(context.Background(), `{"title": "x", "priority": "urgent"}`)
	require.NoError(t, err)
	require.Contains(t, out, "Invalid priority")

	out, err = tool.Run(context.Background(), `{"title": "x", "due_date": "next tuesday"}`)
	require.NoError(t, err)
	require.Contains(t, out, "Invalid due date")

	// Quoting attempts are stored literally, not interpreted as SQL.
	out, err = tool.Run(context.Background(), `{"title": "x'); DROP TABLE reminders; --", "due_date": "2026-03-01"}`)
	require.NoError(t, err)
	require.Contains(t, out, "added")
	rs, err := s.QueryReminders(store.ReminderFilter{})
	require.NoError(t, err)
	require.Len(t, rs, 1)
	require.Equal(t, "x'); DROP TABLE reminders; --", rs[0].Title)
}

func TestQueryReminderTool(t *testing.T) {
	s := newTestStore(t)
	_, err := s.CreateReminder("dentist", "", "2026-03-01T09:00:00Z", store.PriorityHigh)
	require.NoError(t, err)
	_, err = s.CreateReminder("groceries", "", "2026-03-02T18:00:00Z", store.PriorityLow)
	require.NoError(t, err)

	tool := NewQueryReminderTool(s)

	out, err := tool.Run(context.Background(), `{"priority": "high"}`)
	require.NoError(t, err)
	var rs []store.Reminder
	require.NoError(t, json.Unmarshal([]byte(out), &rs))
	require.Len(t, rs, 1)
	require.Equal(t, "dentist", rs[0].Title)

	out, err = tool.Run(context.Background(),
		`{"start_time": "2026-03-02T00:00:00Z", "end_time": "2026-03-03T00:00:00Z"}`)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &rs))
	require.Len(t, rs, 1)
	require.Equal(t, "groceries", rs[0].Title)

	out, err = tool.Run(context.Background(), `{"title": "nothing-like-this"}`)
	require.NoError(t, err)
	require.Equal(t, "No reminders matched.", out)

	out, err = tool.Run(context.Background(), `{"status": "done"}`)
	require.NoError(t, err)
	require.Contains(t, out, "Invalid status")
}

func TestUpdateReminderTool(t *testing.T) {
	s := newTestStore(t)
	id, err := s.CreateReminder("dentist", "checkup", "2026-03-01T09:00:00Z", store.PriorityLow)
	require.NoError(t, err)

	tool := NewUpdateReminderTool(s)

	out, err := tool.Run(context.Background(), `{"id": 1, "priority": "high"}`)
	require.NoError(t, err)
	require.Contains(t, out, "updated")

	r, _, err := s.GetReminder(id)
	require.NoError(t, err)
	require.Equal(t, store.PriorityHigh, r.Priority)
	require.Equal(t, "dentist", r.Title)
	require.Equal(t, "checkup", r.Description)

	// Status-only update must still be valid SQL and set completed_at.
	out, err = tool.Run(context.Background(), `{"id": 1, "status": "complete"}`)
	require.NoError(t, err)
	require.Contains(t, out, "updated")
	r, _, err = s.GetReminder(id)
	require.NoError(t, err)
	require.Equal(t, store.StatusComplete, r.Status)
	require.NotNil(t, r.CompletedAt)

	out, err = tool.Run(context.Background(), `{"id": 42}`)
	require.NoError(t, err)
	require.Contains(t, out, "not found")

	out, err = tool.Run(context.Background(), `{"title": "no id"}`)
	require.NoError(t, err)
	require.Contains(t, out, "id is required")
}
