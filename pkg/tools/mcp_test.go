package tools

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mark3labs/mcp-go/mcp"
)

type mockMCPClient struct {
	InitializeFunc func(ctx context.Context, req mcp.InitializeRequest) (*mcp.InitializeResult, error)
	ListToolsFunc  func(ctx context.Context, req mcp.ListToolsRequest) (*mcp.ListToolsResult, error)
	CallToolFunc   func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error)
}

func (m *mockMCPClient) Initialize(ctx context.Context, req mcp.InitializeRequest) (*mcp.InitializeResult, error) {
	if m.InitializeFunc != nil {
		return m.InitializeFunc(ctx, req)
	}
	return &mcp.InitializeResult{}, nil
}

func (m *mockMCPClient) ListTools(ctx context.Context, req mcp.ListToolsRequest) (*mcp.ListToolsResult, error) {
	if m.ListToolsFunc != nil {
		return m.ListToolsFunc(ctx, req)
	}
	return &mcp.ListToolsResult{}, nil
}

func (m *mockMCPClient) CallTool(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if m.CallToolFunc != nil {
		return m.CallToolFunc(ctx, req)
	}
	return &mcp.CallToolResult{}, nil
}

func (m *mockMCPClient) Close() error { return nil }

func TestDiscoverTools(t *testing.T) {
	mockClient := &mockMCPClient{
		ListToolsFunc: func(ctx context.Context, req mcp.ListToolsRequest) (*mcp.ListToolsResult, error) {
			return &mcp.ListToolsResult{Tools: []mcp.Tool{
				{Name: "get_weather", Description: "Gets weather", RawInputSchema: json.RawMessage(`{"type":"object","properties":{"location":{"type":"string"}}}`)},
				{Name: "no_schema", Description: "Schema-less"},
			}}, nil
		},
	}

	discovered, err := discoverTools(context.Background(), mockClient)
	require.NoError(t, err)
	require.Len(t, discovered, 2)
	require.Equal(t, "get_weather", discovered[0].Name())
	require.JSONEq(t, string(emptyObjectSchema), string(discovered[1].Parameters()))
}

func TestRemoteToolRun(t *testing.T) {
	mockClient := &mockMCPClient{
		CallToolFunc: func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			require.Equal(t, "get_weather", req.Params.Name)
			require.Equal(t, map[string]any{"location": "London"}, req.Params.Arguments)
			return &mcp.CallToolResult{
				Content: []mcp.Content{mcp.TextContent{Type: "text", Text: "Sunny"}},
			}, nil
		},
	}
	tool := &RemoteTool{client: mockClient, name: "get_weather", parameters: emptyObjectSchema}

	out, err := tool.Run(context.Background(), `{"location": "London"}`)
	require.NoError(t, err)
	require.Equal(t, "Sunny", out)
}

func TestRemoteToolRunErrors(t *testing.T) {
	mockClient := &mockMCPClient{
		CallToolFunc: func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return &mcp.CallToolResult{
				IsError: true,
				Content: []mcp.Content{mcp.TextContent{Type: "text", Text: "boom"}},
			}, nil
		},
	}
	tool := &RemoteTool{client: mockClient, name: "broken", parameters: emptyObjectSchema}

	_, err := tool.Run(context.Background(), `{}`)
	require.ErrorContains(t, err, "boom")

	mockClient.CallToolFunc = func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return nil, errors.New("transport down")
	}
	_, err = tool.Run(context.Background(), `{}`)
	require.ErrorContains(t, err, "transport down")
}
