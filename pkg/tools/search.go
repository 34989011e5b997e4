package tools

import (
	"context"
	"encoding/json"

	"github.com/steward-ai/steward/internal/config"
)

// SearchOnlineTool delegates a query verbatim to the search provider. A
// provider failure propagates as a tool error visible to the agent loop.
type SearchOnlineTool struct {
	client     *SearchClient
	maxResults int
}

// NewSearchOnlineTool creates a new SearchOnlineTool
func NewSearchOnlineTool(cfg config.SearchConfig) *SearchOnlineTool {
	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 5
	}
	return &SearchOnlineTool{client: NewSearchClient(cfg), maxResults: maxResults}
}

// Name returns the name of the tool
func (t *SearchOnlineTool) Name() string { return "search_online" }

// Description returns the description of the tool
func (t *SearchOnlineTool) Description() string {
	return "Searches the web for real-time information such as weather, news and live data. Results are returned verbatim."
}

// Parameters returns the argument schema
func (t *SearchOnlineTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"query": {
				"type": "string",
				"description": "The search query"
			}
		},
		"required": ["query"]
	}`)
}

// Run runs the tool
func (t *SearchOnlineTool) Run(ctx context.Context, args string) (string, error) {
	var toolArgs struct {
		Query string `json:"query"`
	}
	if err := json.Unmarshal([]byte(args), &toolArgs); err != nil {
		return "", err
	}
	if toolArgs.Query == "" {
		return "A search query is required.", nil
	}

	results, err := t.client.Search(ctx, toolArgs.Query, t.maxResults)
	if err != nil {
		return "", err
	}
	if len(results) == 0 {
		return "No results found.", nil
	}

	b, err := json.Marshal(results)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
