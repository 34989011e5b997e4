package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/steward-ai/steward/internal/store"
)

// acceptedTimeLayouts are the due-date spellings tolerated from the model,
// most specific first.
var acceptedTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// normalizeTimestamp parses a model-supplied time string and renders it in
// the canonical storage format.
func normalizeTimestamp(s string) (string, bool) {
	for _, layout := range acceptedTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC().Format(store.TimeFormat), true
		}
	}
	return "", false
}

func validPriority(p string) bool {
	return p == store.PriorityLow || p == store.PriorityMedium || p == store.PriorityHigh
}

func validStatus(s string) bool {
	return s == store.StatusPending || s == store.StatusComplete
}

// AddReminderTool creates a reminder through the persistence layer. The
// status always starts pending; the id is assigned by the database.
type AddReminderTool struct {
	store *store.Store
}

// NewAddReminderTool creates a new AddReminderTool
func NewAddReminderTool(s *store.Store) *AddReminderTool {
	return &AddReminderTool{store: s}
}

// Name returns the name of the tool
func (t *AddReminderTool) Name() string { return "add_reminder" }

// Description returns the description of the tool
func (t *AddReminderTool) Description() string {
	return "Adds a new reminder or scheduled task for the user. Call get_current_time first to resolve relative dates. Provide a title and a due date; the id is assigned automatically."
}

// Parameters returns the argument schema
func (t *AddReminderTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"title": {"type": "string", "description": "Short reminder title"},
			"description": {"type": "string", "description": "Optional details"},
			"due_date": {"type": "string", "description": "Due date, RFC3339 (e.g. 2026-03-01T09:00:00Z)"},
			"priority": {"type": "string", "enum": ["low", "medium", "high"], "description": "Defaults to low"}
		},
		"required": ["title", "due_date"]
	}`)
}

// Run runs the tool
func (t *AddReminderTool) Run(_ context.Context, args string) (string, error) {
	var toolArgs struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		DueDate     string `json:"due_date"`
		Priority    string `json:"priority"`
	}
	if err := json.Unmarshal([]byte(args), &toolArgs); err != nil {
		return "", err
	}

	if toolArgs.Priority != "" && !validPriority(toolArgs.Priority) {
		return fmt.Sprintf("Invalid priority %q: must be low, medium or high.", toolArgs.Priority), nil
	}
	dueDate := toolArgs.DueDate
	if dueDate != "" {
		normalized, ok := normalizeTimestamp(dueDate)
		if !ok {
			return fmt.Sprintf("Invalid due date %q: use RFC3339, e.g. 2026-03-01T09:00:00Z.", dueDate), nil
		}
		dueDate = normalized
	}

	id, err := t.store.CreateReminder(toolArgs.Title, toolArgs.Description, dueDate, toolArgs.Priority)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Reminder %q added with id %d.", toolArgs.Title, id), nil
}

// QueryReminderTool looks up reminders by any combination of status,
// time range, title substring and priority.
type QueryReminderTool struct {
	store *store.Store
}

// NewQueryReminderTool creates a new QueryReminderTool
func NewQueryReminderTool(s *store.Store) *QueryReminderTool {
	return &QueryReminderTool{store: s}
}

// Name returns the name of the tool
func (t *QueryReminderTool) Name() string { return "query_reminder" }

// Description returns the description of the tool
func (t *QueryReminderTool) Description() string {
	return "Queries the user's reminders. All filters are optional and combine; supply start_time and end_time for a due-date range."
}

// Parameters returns the argument schema
func (t *QueryReminderTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"status": {"type": "string", "enum": ["pending", "complete"]},
			"start_time": {"type": "string", "description": "Earliest due date, RFC3339"},
			"end_time": {"type": "string", "description": "Latest due date, RFC3339"},
			"title": {"type": "string", "description": "Substring of the title"},
			"priority": {"type": "string", "enum": ["low", "medium", "high"]}
		}
	}`)
}

// Run runs the tool
func (t *QueryReminderTool) Run(_ context.Context, args string) (string, error) {
	var toolArgs struct {
		Status    string `json:"status"`
		StartTime string `json:"start_time"`
		EndTime   string `json:"end_time"`
		Title     string `json:"title"`
		Priority  string `json:"priority"`
	}
	if err := json.Unmarshal([]byte(args), &toolArgs); err != nil {
		return "", err
	}

	if toolArgs.Status != "" && !validStatus(toolArgs.Status) {
		return fmt.Sprintf("Invalid status %q: must be pending or complete.", toolArgs.Status), nil
	}
	if toolArgs.Priority != "" && !validPriority(toolArgs.Priority) {
		return fmt.Sprintf("Invalid priority %q: must be low, medium or high.", toolArgs.Priority), nil
	}

	filter := store.ReminderFilter{
		Status:        toolArgs.Status,
		Priority:      toolArgs.Priority,
		TitleContains: toolArgs.Title,
	}
	if toolArgs.StartTime != "" {
		normalized, ok := normalizeTimestamp(toolArgs.StartTime)
		if !ok {
			return fmt.Sprintf("Invalid start time %q.", toolArgs.StartTime), nil
		}
		filter.DueAfter = normalized
	}
	if toolArgs.EndTime != "" {
		normalized, ok := normalizeTimestamp(toolArgs.EndTime)
		if !ok {
			return fmt.Sprintf("Invalid end time %q.", toolArgs.EndTime), nil
		}
		filter.DueBefore = normalized
	}

	reminders, err := t.store.QueryReminders(filter)
	if err != nil {
		return "", err
	}
	if len(reminders) == 0 {
		return "No reminders matched.", nil
	}
	b, err := json.Marshal(reminders)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// UpdateReminderTool applies a partial update to one reminder; omitted
// fields are left unchanged.
type UpdateReminderTool struct {
	store *store.Store
}

// NewUpdateReminderTool creates a new UpdateReminderTool
func NewUpdateReminderTool(s *store.Store) *UpdateReminderTool {
	return &UpdateReminderTool{store: s}
}

// Name returns the name of the tool
func (t *UpdateReminderTool) Name() string { return "update_reminder" }

// Description returns the description of the tool
func (t *UpdateReminderTool) Description() string {
	return "Updates an existing reminder. Use query_reminder first to find the id; only the supplied fields are changed."
}

// Parameters returns the argument schema
func (t *UpdateReminderTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"id": {"type": "integer", "description": "The reminder id"},
			"title": {"type": "string"},
			"description": {"type": "string"},
			"due_date": {"type": "string", "description": "New due date, RFC3339"},
			"priority": {"type": "string", "enum": ["low", "medium", "high"]},
			"status": {"type": "string", "enum": ["pending", "complete"]}
		},
		"required": ["id"]
	}`)
}

// Run runs the tool
func (t *UpdateReminderTool) Run(_ context.Context, args string) (string, error) {
	var toolArgs struct {
		ID          int64   `json:"id"`
		Title       *string `json:"title"`
		Description *string `json:"description"`
		DueDate     *string `json:"due_date"`
		Priority    *string `json:"priority"`
		Status      *string `json:"status"`
	}
	if err := json.Unmarshal([]byte(args), &toolArgs); err != nil {
		return "", err
	}

	if toolArgs.ID <= 0 {
		return "A reminder id is required.", nil
	}
	if toolArgs.Priority != nil && !validPriority(*toolArgs.Priority) {
		return fmt.Sprintf("Invalid priority %q: must be low, medium or high.", *toolArgs.Priority), nil
	}
	if toolArgs.Status != nil && !validStatus(*toolArgs.Status) {
		return fmt.Sprintf("Invalid status %q: must be pending or complete.", *toolArgs.Status), nil
	}
	if toolArgs.DueDate != nil {
		normalized, ok := normalizeTimestamp(*toolArgs.DueDate)
		if !ok {
			return fmt.Sprintf("Invalid due date %q.", *toolArgs.DueDate), nil
		}
		toolArgs.DueDate = &normalized
	}

	ok, err := t.store.UpdateReminder(toolArgs.ID, store.ReminderPatch{
		Title:       toolArgs.Title,
		Description: toolArgs.Description,
		DueDate:     toolArgs.DueDate,
		Priority:    toolArgs.Priority,
		Status:      toolArgs.Status,
	})
	if err != nil {
		return "", err
	}
	if !ok {
		return fmt.Sprintf("Reminder %d not found.", toolArgs.ID), nil
	}
	return fmt.Sprintf("Reminder %d updated.", toolArgs.ID), nil
}
