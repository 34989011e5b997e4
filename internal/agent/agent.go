// Package agent drives the tool-calling conversation loop. Each turn is a
// small state machine: call the model, execute any requested tools, feed
// the results back, and stop when the model answers with plain content.
// Tool selection and termination are the model's decision; the agent only
// bounds the number of turns.
package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/qmuntal/stateless"
	"github.com/sashabaranov/go-openai"

	"github.com/steward-ai/steward/internal/config"
	"github.com/steward-ai/steward/internal/llm"
	"github.com/steward-ai/steward/internal/logger"
	"github.com/steward-ai/steward/pkg/tools"
)

// FSM states
type FSMState stateless.State

var (
	StateReadyToCallLLM      FSMState = "ReadyToCallLLM"
	StateAwaitingLLMResponse FSMState = "AwaitingLLMResponse"
	StateExecutingTools      FSMState = "ExecutingTools"
	StateDone                FSMState = "Done"
	StateError               FSMState = "Error"
)

// FSM triggers
type FSMTrigger stateless.Trigger

var (
	TriggerProcessInput            FSMTrigger = "ProcessInput"
	TriggerLLMRespondedWithContent FSMTrigger = "LLMRespondedWithContent"
	TriggerLLMRequestedTools       FSMTrigger = "LLMRequestedTools"
	TriggerToolsExecutionCompleted FSMTrigger = "ToolsExecutionCompleted"
	TriggerErrorOccurred           FSMTrigger = "ErrorOccurred"
)

const defaultSystemPrompt = "You are Steward, a friendly personal assistant. " +
	"Answer in a structured, easy-to-read format: short paragraphs, and bullet lists for enumerations. " +
	"Use the get_current_time tool rather than web search for questions about the current date or time, " +
	"and call it before creating reminders with relative due dates."

const defaultMaxTurns = 8

// Result is the outcome of one processed message.
type Result struct {
	// Reply is the model's final answer for the user.
	Reply string
	// TotalTokens sums total_tokens over every model response in the turn.
	TotalTokens int
	// ToolsUsed lists tool names in invocation order, duplicates included.
	ToolsUsed []string
}

// Agent is the main agent struct. Conversation memory is scoped per
// session id: turns within a session see prior turns, sessions are fully
// isolated from each other.
type Agent struct {
	llmClient    llm.Client
	cfg          config.LLMConfig
	toolManager  *tools.ToolManager
	systemPrompt string
	maxTurns     int

	mu       sync.Mutex
	sessions map[string][]openai.ChatCompletionMessage
}

// New creates a new agent. The system prompt and turn bound are fixed at
// construction time.
func New(llmClient llm.Client, cfg config.LLMConfig, toolManager *tools.ToolManager) *Agent {
	systemPrompt := defaultSystemPrompt
	if cfg.SystemPrompt != "" {
		systemPrompt = cfg.SystemPrompt
	}
	maxTurns := cfg.MaxTurns
	if maxTurns <= 0 {
		maxTurns = defaultMaxTurns
	}
	return &Agent{
		llmClient:    llmClient,
		cfg:          cfg,
		toolManager:  toolManager,
		systemPrompt: systemPrompt,
		maxTurns:     maxTurns,
		sessions:     make(map[string][]openai.ChatCompletionMessage),
	}
}

// ProcessMessage runs one full turn for the session and returns the final
// reply together with token and tool usage.
func (a *Agent) ProcessMessage(ctx context.Context, sessionID, text string) (Result, error) {
	history := a.snapshot(sessionID)

	messages := make([]openai.ChatCompletionMessage, 0, len(history)+2)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: a.systemPrompt,
	})
	messages = append(messages, history...)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: text,
	})
	// Everything from the user message on becomes this turn's transcript.
	turnStart := len(messages) - 1

	fsmCtx := &fsmContext{messages: messages}
	fsm := a.buildTurnFSM(fsmCtx)

	if err := fsm.FireCtx(ctx, TriggerProcessInput); err != nil {
		logger.L.Warn("FSM initial fire error", "error", err)
	}

	currentState, err := fsm.State(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("FSM internal error: %w", err)
	}

	switch currentState {
	case StateDone:
		if fsmCtx.lastError != nil && fsmCtx.finalContent == "" {
			return Result{}, fsmCtx.lastError
		}
		a.remember(sessionID, fsmCtx.messages[turnStart:])
		return Result{
			Reply:       fsmCtx.finalContent,
			TotalTokens: fsmCtx.totalTokens,
			ToolsUsed:   fsmCtx.toolsUsed,
		}, nil
	case StateError:
		if fsmCtx.lastError != nil {
			return Result{}, fsmCtx.lastError
		}
		return Result{}, errors.New("turn ended in error state without a specific error")
	default:
		if fsmCtx.lastError != nil {
			return Result{}, fsmCtx.lastError
		}
		return Result{}, fmt.Errorf("turn ended in unexpected state: %v", currentState)
	}
}

// fsmContext carries the per-turn working set across FSM states.
type fsmContext struct {
	messages     []openai.ChatCompletionMessage
	llmResponse  *openai.ChatCompletionResponse
	finalContent string
	totalTokens  int
	toolsUsed    []string
	lastError    error
	currentTurn  int
}

func (a *Agent) buildTurnFSM(fsmCtx *fsmContext) *stateless.StateMachine {
	fsm := stateless.NewStateMachine(StateReadyToCallLLM)

	// ReadyToCallLLM: send the transcript to the model. Content without
	// tool calls finishes the turn; tool calls move to ExecutingTools.
	fsm.Configure(StateReadyToCallLLM).
		PermitReentry(TriggerProcessInput).
		OnEntry(func(ctx context.Context, _ ...any) error {
			if fsmCtx.currentTurn >= a.maxTurns {
				logger.L.Warn("max interaction turns reached", "maxTurns", a.maxTurns)
				fsmCtx.lastError = errors.New("exceeded maximum interaction turns")
				return fsm.FireCtx(ctx, TriggerErrorOccurred)
			}
			fsmCtx.currentTurn++

			req := openai.ChatCompletionRequest{
				Model:    a.cfg.Model,
				Messages: fsmCtx.messages,
			}
			if defs := a.toolManager.Definitions(); len(defs) > 0 {
				req.Tools = defs
			}

			llmResp, err := a.llmClient.CreateChatCompletion(ctx, req)
			if err != nil {
				logger.L.Error("LLM call failed", "error", err)
				fsmCtx.lastError = err
				return fsm.FireCtx(ctx, TriggerErrorOccurred)
			}
			fsmCtx.llmResponse = &llmResp
			fsmCtx.totalTokens += llmResp.Usage.TotalTokens

			if len(llmResp.Choices) > 0 && len(llmResp.Choices[0].Message.ToolCalls) > 0 {
				return fsm.FireCtx(ctx, TriggerLLMRequestedTools)
			}
			return fsm.FireCtx(ctx, TriggerLLMRespondedWithContent)
		}).
		Permit(TriggerLLMRequestedTools, StateExecutingTools).
		Permit(TriggerLLMRespondedWithContent, StateDone).
		Permit(TriggerErrorOccurred, StateError)

	// ExecutingTools: run every requested tool and append the results to
	// the transcript, then go back for another model call.
	fsm.Configure(StateExecutingTools).
		OnEntry(func(ctx context.Context, _ ...any) error {
			if fsmCtx.llmResponse == nil || len(fsmCtx.llmResponse.Choices) == 0 {
				fsmCtx.lastError = errors.New("cannot execute tools, no LLM response available")
				return fsm.FireCtx(ctx, TriggerErrorOccurred)
			}

			llmMessage := fsmCtx.llmResponse.Choices[0].Message
			fsmCtx.messages = append(fsmCtx.messages, llmMessage)

			for _, toolCall := range llmMessage.ToolCalls {
				name := toolCall.Function.Name
				fsmCtx.toolsUsed = append(fsmCtx.toolsUsed, name)
				fsmCtx.messages = append(fsmCtx.messages, openai.ChatCompletionMessage{
					Role:       openai.ChatMessageRoleTool,
					Content:    a.executeTool(ctx, name, toolCall.Function.Arguments),
					ToolCallID: toolCall.ID,
					Name:       name,
				})
			}
			return fsm.FireCtx(ctx, TriggerToolsExecutionCompleted)
		}).
		Permit(TriggerToolsExecutionCompleted, StateReadyToCallLLM).
		Permit(TriggerErrorOccurred, StateError)

	// Done: record the final content. Terminal.
	fsm.Configure(StateDone).
		OnEntry(func(_ context.Context, _ ...any) error {
			if fsmCtx.llmResponse != nil && len(fsmCtx.llmResponse.Choices) > 0 {
				llmMessage := fsmCtx.llmResponse.Choices[0].Message
				fsmCtx.finalContent = llmMessage.Content
				fsmCtx.messages = append(fsmCtx.messages, llmMessage)
			} else if fsmCtx.lastError == nil {
				fsmCtx.lastError = errors.New("turn finished without a final model response")
			}
			return nil
		})

	// Error: terminal; lastError already holds the cause.
	fsm.Configure(StateError).
		OnEntry(func(_ context.Context, _ ...any) error {
			if fsmCtx.lastError == nil {
				fsmCtx.lastError = errors.New("reached error state without a specific error")
			}
			return nil
		})

	return fsm
}

// executeTool resolves and runs one tool. Failures come back as an error
// string in the tool message so the model can react to them.
func (a *Agent) executeTool(ctx context.Context, name, rawArgs string) string {
	tool, err := a.toolManager.GetTool(name)
	if err != nil {
		logger.L.Warn("model requested unknown tool", "tool", name)
		return "Error: unknown tool " + name
	}

	logger.L.Debug("invoking tool", "tool", name, "arguments", rawArgs)
	out, err := tool.Run(ctx, rawArgs)
	if err != nil {
		logger.L.Warn("tool execution failed", "tool", name, "error", err)
		return fmt.Sprintf("Error: tool %s failed: %v", name, err)
	}
	return out
}

// GenerateTitle asks the model for a short conversation title for the
// first user message, falling back to a truncation on any failure.
func (a *Agent) GenerateTitle(ctx context.Context, text string) string {
	resp, err := a.llmClient.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: a.cfg.Model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "Summarize the user's message as a conversation title of at most six words. Reply with the title only, without quotes.",
			},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
	})
	if err != nil || len(resp.Choices) == 0 {
		logger.L.Warn("title generation failed, using fallback", "error", err)
		return fallbackTitle(text)
	}
	title := strings.TrimSpace(resp.Choices[0].Message.Content)
	if title == "" {
		return fallbackTitle(text)
	}
	return title
}

func fallbackTitle(text string) string {
	runes := []rune(strings.TrimSpace(text))
	if len(runes) > 30 {
		return string(runes[:30]) + "..."
	}
	return string(runes)
}

// snapshot copies the session's stored transcript.
func (a *Agent) snapshot(sessionID string) []openai.ChatCompletionMessage {
	a.mu.Lock()
	defer a.mu.Unlock()
	history := a.sessions[sessionID]
	out := make([]openai.ChatCompletionMessage, len(history))
	copy(out, history)
	return out
}

// remember appends a completed turn's transcript to the session memory.
func (a *Agent) remember(sessionID string, turn []openai.ChatCompletionMessage) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.sessions[sessionID] = append(a.sessions[sessionID], turn...)
}
