package agent

import (
	"context"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/require"

	"github.com/steward-ai/steward/internal/config"
	"github.com/steward-ai/steward/pkg/tools"
)

type mockLLM struct {
	calls    []openai.ChatCompletionResponse
	requests []openai.ChatCompletionRequest
	err      error
}

func (m *mockLLM) CreateChatCompletion(_ context.Context, r openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	m.requests = append(m.requests, r)
	if m.err != nil {
		return openai.ChatCompletionResponse{}, m.err
	}
	if len(m.calls) == 0 {
		panic("mockLLM: no more responses configured")
	}
	resp := m.calls[0]
	m.calls = m.calls[1:]
	return resp, nil
}

func contentResponse(content string, tokens int) openai.ChatCompletionResponse {
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{
			Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: content},
		}},
		Usage: openai.Usage{TotalTokens: tokens},
	}
}

func toolCallResponse(tokens int, calls ...openai.ToolCall) openai.ChatCompletionResponse {
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{
			Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, ToolCalls: calls},
		}},
		Usage: openai.Usage{TotalTokens: tokens},
	}
}

func calculatorCall(id, expression string) openai.ToolCall {
	return openai.ToolCall{
		ID:   id,
		Type: openai.ToolTypeFunction,
		Function: openai.FunctionCall{
			Name:      "calculator",
			Arguments: `{"expression": "` + expression + `"}`,
		},
	}
}

func newTestAgent(mock *mockLLM, cfg config.LLMConfig) *Agent {
	manager := tools.NewToolManager()
	manager.RegisterTool(&tools.CalculatorTool{})
	manager.RegisterTool(&tools.CurrentTimeTool{})
	return New(mock, cfg, manager)
}

func TestProcessMessage_DirectResponse(t *testing.T) {
	mock := &mockLLM{calls: []openai.ChatCompletionResponse{
		contentResponse("Hello, I am a helpful assistant.", 42),
	}}
	a := newTestAgent(mock, config.LLMConfig{Model: "gpt"})

	res, err := a.ProcessMessage(context.Background(), "s1", "hi")
	require.NoError(t, err)
	require.Equal(t, "Hello, I am a helpful assistant.", res.Reply)
	require.Equal(t, 42, res.TotalTokens)
	require.Empty(t, res.ToolsUsed)

	// The system prompt leads every request.
	require.Len(t, mock.requests, 1)
	require.Equal(t, openai.ChatMessageRoleSystem, mock.requests[0].Messages[0].Role)
	require.NotEmpty(t, mock.requests[0].Tools)
}

func TestProcessMessage_ToolCallFlow(t *testing.T) {
	mock := &mockLLM{calls: []openai.ChatCompletionResponse{
		toolCallResponse(30, calculatorCall("call_1", "15 + 23")),
		contentResponse("The answer is 38.", 25),
	}}
	a := newTestAgent(mock, config.LLMConfig{Model: "gpt"})

	res, err := a.ProcessMessage(context.Background(), "s1", "what is 15 + 23?")
	require.NoError(t, err)
	require.Equal(t, "The answer is 38.", res.Reply)
	require.Equal(t, 55, res.TotalTokens)
	require.Equal(t, []string{"calculator"}, res.ToolsUsed)

	// The second request carries the tool result back to the model.
	require.Len(t, mock.requests, 2)
	second := mock.requests[1].Messages
	last := second[len(second)-1]
	require.Equal(t, openai.ChatMessageRoleTool, last.Role)
	require.Equal(t, "call_1", last.ToolCallID)
	require.Contains(t, last.Content, "38")
}

func TestProcessMessage_ToolOrderAndDuplicates(t *testing.T) {
	mock := &mockLLM{calls: []openai.ChatCompletionResponse{
		toolCallResponse(10, calculatorCall("call_1", "1 + 1"), calculatorCall("call_2", "2 + 2")),
		toolCallResponse(10, calculatorCall("call_3", "3 + 3")),
		contentResponse("2, 4 and 6.", 10),
	}}
	a := newTestAgent(mock, config.LLMConfig{Model: "gpt"})

	res, err := a.ProcessMessage(context.Background(), "s1", "add things")
	require.NoError(t, err)
	require.Equal(t, []string{"calculator", "calculator", "calculator"}, res.ToolsUsed)
	require.Equal(t, 30, res.TotalTokens)
}

func TestProcessMessage_UnknownToolReportedToModel(t *testing.T) {
	mock := &mockLLM{calls: []openai.ChatCompletionResponse{
		toolCallResponse(5, openai.ToolCall{
			ID:       "call_1",
			Type:     openai.ToolTypeFunction,
			Function: openai.FunctionCall{Name: "teleport", Arguments: `{}`},
		}),
		contentResponse("I cannot do that.", 5),
	}}
	a := newTestAgent(mock, config.LLMConfig{Model: "gpt"})

	res, err := a.ProcessMessage(context.Background(), "s1", "teleport me")
	require.NoError(t, err)
	require.Equal(t, "I cannot do that.", res.Reply)
	require.Equal(t, []string{"teleport"}, res.ToolsUsed)

	second := mock.requests[1].Messages
	require.Contains(t, second[len(second)-1].Content, "unknown tool")
}

func TestProcessMessage_SessionMemory(t *testing.T) {
	mock := &mockLLM{calls: []openai.ChatCompletionResponse{
		contentResponse("Nice to meet you, Ada.", 10),
		contentResponse("Your name is Ada.", 10),
	}}
	a := newTestAgent(mock, config.LLMConfig{Model: "gpt"})

	_, err := a.ProcessMessage(context.Background(), "s1", "my name is Ada")
	require.NoError(t, err)
	_, err = a.ProcessMessage(context.Background(), "s1", "what is my name?")
	require.NoError(t, err)

	// system + turn 1 (user, assistant) + new user message
	second := mock.requests[1].Messages
	require.Len(t, second, 4)
	require.Equal(t, "my name is Ada", second[1].Content)
	require.Equal(t, "Nice to meet you, Ada.", second[2].Content)
	require.Equal(t, "what is my name?", second[3].Content)
}

func TestProcessMessage_SessionsIsolated(t *testing.T) {
	mock := &mockLLM{calls: []openai.ChatCompletionResponse{
		contentResponse("reply one", 10),
		contentResponse("reply two", 10),
	}}
	a := newTestAgent(mock, config.LLMConfig{Model: "gpt"})

	_, err := a.ProcessMessage(context.Background(), "s1", "hello from s1")
	require.NoError(t, err)
	_, err = a.ProcessMessage(context.Background(), "s2", "hello from s2")
	require.NoError(t, err)

	// The second session starts fresh: system + its own user message only.
	second := mock.requests[1].Messages
	require.Len(t, second, 2)
	require.Equal(t, "hello from s2", second[1].Content)
}

func TestProcessMessage_LLMError(t *testing.T) {
	a := newTestAgent(&mockLLM{err: context.DeadlineExceeded}, config.LLMConfig{Model: "gpt"})
	_, err := a.ProcessMessage(context.Background(), "s1", "hi")
	require.Error(t, err)
}

func TestProcessMessage_ErrorLeavesMemoryUntouched(t *testing.T) {
	mock := &mockLLM{err: context.DeadlineExceeded}
	a := newTestAgent(mock, config.LLMConfig{Model: "gpt"})
	_, err := a.ProcessMessage(context.Background(), "s1", "hi")
	require.Error(t, err)

	mock.err = nil
	mock.calls = []openai.ChatCompletionResponse{contentResponse("ok", 1)}
	_, err = a.ProcessMessage(context.Background(), "s1", "again")
	require.NoError(t, err)

	// The failed turn must not have been remembered.
	second := mock.requests[1].Messages
	require.Len(t, second, 2)
	require.Equal(t, "again", second[1].Content)
}

func TestProcessMessage_MaxTurnsExceeded(t *testing.T) {
	mock := &mockLLM{calls: []openai.ChatCompletionResponse{
		toolCallResponse(1, calculatorCall("call_1", "1 + 1")),
		toolCallResponse(1, calculatorCall("call_2", "1 + 1")),
		toolCallResponse(1, calculatorCall("call_3", "1 + 1")),
	}}
	a := newTestAgent(mock, config.LLMConfig{Model: "gpt", MaxTurns: 2})

	_, err := a.ProcessMessage(context.Background(), "s1", "loop forever")
	require.ErrorContains(t, err, "maximum interaction turns")
}

func TestGenerateTitle(t *testing.T) {
	mock := &mockLLM{calls: []openai.ChatCompletionResponse{
		contentResponse("Planning a dentist visit", 5),
	}}
	a := newTestAgent(mock, config.LLMConfig{Model: "gpt"})
	require.Equal(t, "Planning a dentist visit", a.GenerateTitle(context.Background(), "remind me about the dentist"))
}

func TestGenerateTitleFallback(t *testing.T) {
	a := newTestAgent(&mockLLM{err: context.DeadlineExceeded}, config.LLMConfig{Model: "gpt"})
	require.Equal(t, "short message", a.GenerateTitle(context.Background(), "short message"))

	long := "this message is quite a bit longer than thirty characters"
	title := a.GenerateTitle(context.Background(), long)
	require.Len(t, []rune(title), 33)
}
