package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/steward-ai/steward/internal/config"
)

// SearchClient is a client for a Tavily-compatible search API.
type SearchClient struct {
	cfg    config.SearchConfig
	client *http.Client
}

// NewSearchClient creates a new SearchClient
func NewSearchClient(cfg config.SearchConfig) *SearchClient {
	return &SearchClient{
		cfg:    cfg,
		client: &http.Client{},
	}
}

// SearchResult is one provider result, passed through verbatim.
type SearchResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content"`
}

// Search submits the query to the provider and returns up to maxResults
// results. Provider failures are returned as-is; there are no retries.
func (c *SearchClient) Search(ctx context.Context, query string, maxResults int) ([]SearchResult, error) {
	payload := map[string]any{
		"api_key":     c.cfg.APIKey,
		"query":       query,
		"max_results": maxResults,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/search", bytes.NewBuffer(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var out struct {
		Results []SearchResult `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	return out.Results, nil
}
