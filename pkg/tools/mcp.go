package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/client/transport"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/steward-ai/steward/internal/config"
	"github.com/steward-ai/steward/internal/logger"
)

// MCPClient is the subset of the mcp-go client used by remote tools; it is
// easy to mock in tests.
type MCPClient interface {
	Initialize(ctx context.Context, req mcp.InitializeRequest) (*mcp.InitializeResult, error)
	ListTools(ctx context.Context, req mcp.ListToolsRequest) (*mcp.ListToolsResult, error)
	CallTool(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error)
	Close() error
}

// RemoteTool adapts one tool hosted on an MCP server to the local Tool
// interface.
type RemoteTool struct {
	client      MCPClient
	name        string
	description string
	parameters  json.RawMessage
}

// Name returns the name of the tool
func (t *RemoteTool) Name() string { return t.name }

// Description returns the description of the tool
func (t *RemoteTool) Description() string { return t.description }

// Parameters returns the argument schema
func (t *RemoteTool) Parameters() json.RawMessage { return t.parameters }

// Run forwards the call to the MCP server and extracts the first text
// content of the result.
func (t *RemoteTool) Run(ctx context.Context, args string) (string, error) {
	var toolArgs map[string]any
	if args != "" {
		if err := json.Unmarshal([]byte(args), &toolArgs); err != nil {
			return "", fmt.Errorf("parse arguments for %s: %w", t.name, err)
		}
	}

	result, err := t.client.CallTool(ctx, mcp.CallToolRequest{
		Params: mcp.CallToolParams{Name: t.name, Arguments: toolArgs},
	})
	if err != nil {
		return "", err
	}

	var text string
	for _, item := range result.Content {
		if textContent, ok := item.(mcp.TextContent); ok {
			text = textContent.Text
			break
		}
	}
	if result.IsError {
		if text == "" {
			text = "tool execution failed without specific text"
		}
		return "", errors.New(text)
	}
	if text == "" {
		b, err := json.Marshal(result)
		if err != nil {
			return "", err
		}
		text = string(b)
	}
	return text, nil
}

// ConnectMCP dials the configured MCP server, initializes it, and returns
// its tools wrapped for local registration.
func ConnectMCP(ctx context.Context, serverCfg config.MCPServerConfig) ([]Tool, error) {
	var mcpC *client.Client
	var err error

	switch serverCfg.Type {
	case config.ClientTypeSSE:
		var sseOpts []transport.ClientOption
		if len(serverCfg.Headers) > 0 {
			sseOpts = append(sseOpts, transport.WithHeaders(serverCfg.Headers))
		}
		mcpC, err = client.NewSSEMCPClient(serverCfg.URL, sseOpts...)
	case config.ClientTypeStreamableHTTP:
		var httpOpts []transport.StreamableHTTPCOption
		if len(serverCfg.Headers) > 0 {
			httpOpts = append(httpOpts, transport.WithHTTPHeaders(serverCfg.Headers))
		}
		mcpC, err = client.NewStreamableHttpClient(serverCfg.URL, httpOpts...)
	case config.ClientTypeStdio:
		var env []string
		for k, v := range serverCfg.Env {
			env = append(env, fmt.Sprintf("%s=%s", k, v))
		}
		mcpC, err = client.NewStdioMCPClient(serverCfg.Command, env, serverCfg.Args...)
	default:
		return nil, fmt.Errorf("unsupported MCP server type %q for %s (use sse, streamable_http or stdio)", serverCfg.Type, serverCfg.Name)
	}
	if err != nil {
		return nil, fmt.Errorf("create MCP client %s: %w", serverCfg.Name, err)
	}

	// Stdio transports are started by the constructor.
	if serverCfg.Type != config.ClientTypeStdio {
		if err := mcpC.Start(ctx); err != nil {
			closeQuietly(mcpC, serverCfg.Name)
			return nil, fmt.Errorf("start MCP transport %s: %w", serverCfg.Name, err)
		}
	}

	remote, err := discoverTools(ctx, mcpC)
	if err != nil {
		closeQuietly(mcpC, serverCfg.Name)
		return nil, fmt.Errorf("discover tools on %s: %w", serverCfg.Name, err)
	}
	return remote, nil
}

func closeQuietly(c MCPClient, name string) {
	if err := c.Close(); err != nil {
		logger.L.Warn("MCP client close error", "name", name, "error", err)
	}
}

// discoverTools initializes the client and wraps every advertised tool.
func discoverTools(ctx context.Context, mcpC MCPClient) ([]Tool, error) {
	initReq := mcp.InitializeRequest{
		Params: mcp.InitializeParams{Capabilities: mcp.ClientCapabilities{}},
	}
	if _, err := mcpC.Initialize(ctx, initReq); err != nil {
		return nil, fmt.Errorf("initialize: %w", err)
	}

	listed, err := mcpC.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		return nil, fmt.Errorf("list tools: %w", err)
	}

	out := make([]Tool, 0, len(listed.Tools))
	for _, mcpTool := range listed.Tools {
		out = append(out, &RemoteTool{
			client:      mcpC,
			name:        mcpTool.Name,
			description: mcpTool.Description,
			parameters:  toolSchema(mcpTool),
		})
	}
	return out, nil
}

// toolSchema extracts the tool's input schema, falling back to an empty
// object schema when the server advertises none.
func toolSchema(mcpTool mcp.Tool) json.RawMessage {
	if len(mcpTool.RawInputSchema) > 0 && string(mcpTool.RawInputSchema) != "null" {
		return mcpTool.RawInputSchema
	}
	schemaBytes, err := json.Marshal(mcpTool.InputSchema)
	if err != nil || string(schemaBytes) == "{}" || string(schemaBytes) == "null" {
		return emptyObjectSchema
	}
	return json.RawMessage(schemaBytes)
}
