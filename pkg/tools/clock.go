package tools

import (
	"context"
	"encoding/json"
	"time"
)

// CurrentTimeTool reports the current local date and time. It takes no
// arguments.
type CurrentTimeTool struct{}

// Name returns the name of the tool
func (t *CurrentTimeTool) Name() string { return "get_current_time" }

// Description returns the description of the tool
func (t *CurrentTimeTool) Description() string {
	return "Returns the current local date and time. Use this instead of web search for questions about the current date or time, and before creating reminders with relative due dates."
}

// Parameters returns the argument schema
func (t *CurrentTimeTool) Parameters() json.RawMessage { return emptyObjectSchema }

// Run runs the tool
func (t *CurrentTimeTool) Run(_ context.Context, _ string) (string, error) {
	return time.Now().Format("2006-01-02 15:04:05 Monday"), nil
}
