package tools

import (
	"fmt"
	"sort"

	"github.com/sashabaranov/go-openai"
)

// ToolManager manages the available tools
type ToolManager struct {
	tools map[string]Tool
}

// NewToolManager creates a new ToolManager
func NewToolManager() *ToolManager {
	return &ToolManager{
		tools: make(map[string]Tool),
	}
}

// RegisterTool registers a new tool, replacing any previous tool of the
// same name.
func (m *ToolManager) RegisterTool(tool Tool) {
	m.tools[tool.Name()] = tool
}

// GetTool retrieves a tool by name
func (m *ToolManager) GetTool(name string) (Tool, error) {
	tool, ok := m.tools[name]
	if !ok {
		return nil, fmt.Errorf("tool not found: %s", name)
	}
	return tool, nil
}

// List returns all registered tools sorted by name.
func (m *ToolManager) List() []Tool {
	names := make([]string, 0, len(m.tools))
	for name := range m.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	ts := make([]Tool, 0, len(names))
	for _, name := range names {
		ts = append(ts, m.tools[name])
	}
	return ts
}

// Definitions returns the function definitions advertised to the model.
func (m *ToolManager) Definitions() []openai.Tool {
	list := m.List()
	defs := make([]openai.Tool, 0, len(list))
	for _, t := range list {
		params := t.Parameters()
		if len(params) == 0 {
			params = emptyObjectSchema
		}
		defs = append(defs, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name(),
				Description: t.Description(),
				Parameters:  params,
			},
		})
	}
	return defs
}
