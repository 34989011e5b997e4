// Package llm constructs the chat-completion client for the configured
// OpenAI-compatible endpoint.
package llm

import (
	"github.com/sashabaranov/go-openai"

	"github.com/steward-ai/steward/internal/config"
)

// NewClient creates a chat-completion client for the configured endpoint.
func NewClient(cfg config.LLMConfig) *openai.Client {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return openai.NewClientWithConfig(clientCfg)
}
