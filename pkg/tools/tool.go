// Package tools defines the callable tools the agent may invoke mid-turn,
// and the manager that registers them and exposes their definitions to the
// model.
package tools

import (
	"context"
	"encoding/json"
)

// Tool is the interface for all tools. Parameters returns the JSON schema
// of the arguments object. Run receives the raw JSON arguments emitted by
// the model and returns a string result for the model to read.
//
// Input validation failures are reported in the result string with a nil
// error so the model can relay them; a non-nil error means the tool itself
// failed (provider unreachable, database error).
type Tool interface {
	Name() string
	Description() string
	Parameters() json.RawMessage
	Run(ctx context.Context, args string) (string, error)
}

var emptyObjectSchema = json.RawMessage(`{"type":"object","properties":{}}`)
