package config

import (
	"os"

	"github.com/spf13/viper"
)

// Config holds the application configuration.
type Config struct {
	LLM        LLMConfig         `mapstructure:"llm"`
	Server     ServerConfig      `mapstructure:"server"`
	Database   DatabaseConfig    `mapstructure:"database"`
	Search     SearchConfig      `mapstructure:"search"`
	MCPServers []MCPServerConfig `mapstructure:"mcp_servers"`
	LogLevel   string            `mapstructure:"log_level"`
}

// LLMConfig holds the model endpoint configuration.
type LLMConfig struct {
	Provider     string `mapstructure:"provider"`
	BaseURL      string `mapstructure:"base_url"`
	APIKey       string `mapstructure:"api_key"`
	Model        string `mapstructure:"model"`
	SystemPrompt string `mapstructure:"system_prompt"`
	MaxTurns     int    `mapstructure:"max_turns"`
}

// ServerConfig holds the HTTP server configuration.
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port string `mapstructure:"port"`
}

// DatabaseConfig holds the sqlite configuration.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// SearchConfig holds the web-search provider configuration.
type SearchConfig struct {
	BaseURL    string `mapstructure:"base_url"`
	APIKey     string `mapstructure:"api_key"`
	MaxResults int    `mapstructure:"max_results"`
}

// MCPClientType selects the transport used to reach an MCP server.
type MCPClientType string

const (
	ClientTypeSSE            MCPClientType = "sse"
	ClientTypeStreamableHTTP MCPClientType = "streamable_http"
	ClientTypeStdio          MCPClientType = "stdio"
)

// MCPServerConfig describes one external MCP tool server.
type MCPServerConfig struct {
	Name    string            `mapstructure:"name"`
	Type    MCPClientType     `mapstructure:"type"`
	URL     string            `mapstructure:"url"`
	Headers map[string]string `mapstructure:"headers"`
	Command string            `mapstructure:"command"`
	Args    []string          `mapstructure:"args"`
	Env     map[string]string `mapstructure:"env"`
}

// Load reads configuration from config.yaml in the working directory, or
// from the file named by the CONFIG_PATH environment variable when set.
func Load() (*Config, error) {
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		viper.SetConfigFile(path)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
	}

	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", "8000")
	viper.SetDefault("database.path", "data.db")
	viper.SetDefault("search.base_url", "https://api.tavily.com")
	viper.SetDefault("search.max_results", 5)
	viper.SetDefault("llm.max_turns", 8)
	viper.SetDefault("log_level", "info")

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}
