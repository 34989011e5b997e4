// Package server exposes the assistant over a JSON HTTP API: chat turns,
// conversation history, message search, and the reminder lifecycle.
package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/steward-ai/steward/internal/agent"
	"github.com/steward-ai/steward/internal/logger"
	"github.com/steward-ai/steward/internal/store"
)

// processingErrorMessage is returned verbatim when the agent fails; the
// client always receives a well-formed response instead of a raw error.
const processingErrorMessage = "处理消息时出错"

const (
	defaultPageLimit     = 50
	defaultMinutesAhead  = 5
	defaultSnoozeMinutes = 10
)

// Server wires the HTTP routes to the store and the agent.
type Server struct {
	store *store.Store
	agent *agent.Agent
}

func New(st *store.Store, ag *agent.Agent) *Server {
	return &Server{store: st, agent: ag}
}

// Handler returns the route table. Method and path-parameter matching is
// done by the standard mux patterns.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /message", s.handleMessage)

	mux.HandleFunc("GET /conversations", s.handleConversationList)
	mux.HandleFunc("GET /conversations/{$}", s.handleConversationList)
	mux.HandleFunc("GET /conversations/{sessionID}/messages", s.handleConversationMessages)
	mux.HandleFunc("DELETE /conversations/{sessionID}", s.handleConversationDelete)
	mux.HandleFunc("GET /conversations/{sessionID}/search", s.handleConversationSearch)

	mux.HandleFunc("GET /messages/search", s.handleMessageSearch)

	mux.HandleFunc("GET /reminders/upcoming", s.handleRemindersUpcoming)
	mux.HandleFunc("POST /reminders/{id}/complete", s.handleReminderComplete)
	mux.HandleFunc("POST /reminders/{id}/snooze", s.handleReminderSnooze)

	mux.HandleFunc("GET /health", s.handleHealth)

	return mux
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.L.Debug("failed to write JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"success": false, "error": msg})
}

func writeStoreError(w http.ResponseWriter, op string, err error) {
	logger.L.Error("store operation failed", "op", op, "error", err)
	writeError(w, http.StatusInternalServerError, "internal error")
}

type messageRequest struct {
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
	SessionID string `json:"session_id"`
}

type responseMetadata struct {
	TokensUsed   int     `json:"tokens_used"`
	ResponseTime float64 `json:"response_time"`
}

type messageResponse struct {
	Message   string           `json:"message"`
	Success   bool             `json:"success"`
	SessionID string           `json:"session_id"`
	ToolUsed  []string         `json:"tool_used"`
	Metadata  responseMetadata `json:"metadata"`
}

// handleMessage runs one chat turn: ensure the conversation exists, persist
// the user message, run the agent, persist the reply, and report usage.
// Agent failures still return 200 with success=false and measured latency.
func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}
	if req.SessionID == "" {
		req.SessionID = uuid.NewString()
	}
	if req.Timestamp == "" {
		req.Timestamp = time.Now().UTC().Format(store.TimeFormat)
	}

	ctx := r.Context()
	start := time.Now()

	exists, err := s.store.HasConversation(req.SessionID)
	if err != nil {
		writeStoreError(w, "has conversation", err)
		return
	}
	if !exists {
		title := s.agent.GenerateTitle(ctx, req.Message)
		if _, err := s.store.EnsureConversation(req.SessionID, title); err != nil {
			writeStoreError(w, "create conversation", err)
			return
		}
	}

	if err := s.store.AddMessage(req.SessionID, store.RoleUser, req.Message, req.Timestamp, nil); err != nil {
		writeStoreError(w, "store user message", err)
		return
	}
	if err := s.store.IncrementMessageCount(req.SessionID); err != nil {
		writeStoreError(w, "increment message count", err)
		return
	}

	logger.L.Info("processing message", "sessionID", req.SessionID, "timestamp", req.Timestamp)

	result, err := s.agent.ProcessMessage(ctx, req.SessionID, req.Message)
	elapsed := time.Since(start).Seconds()
	if err != nil {
		logger.L.Error("agent turn failed", "sessionID", req.SessionID, "error", err)
		writeJSON(w, http.StatusOK, messageResponse{
			Message:   processingErrorMessage,
			Success:   false,
			SessionID: req.SessionID,
			ToolUsed:  []string{},
			Metadata:  responseMetadata{TokensUsed: 0, ResponseTime: elapsed},
		})
		return
	}

	toolUsed := result.ToolsUsed
	if toolUsed == nil {
		toolUsed = []string{}
	}

	replyTimestamp := time.Now().UTC().Format(store.TimeFormat)
	if err := s.store.AddMessage(req.SessionID, store.RoleAssistant, result.Reply, replyTimestamp, toolUsed); err != nil {
		writeStoreError(w, "store assistant message", err)
		return
	}
	if err := s.store.IncrementMessageCount(req.SessionID); err != nil {
		writeStoreError(w, "increment message count", err)
		return
	}

	logger.L.Info("message processed", "sessionID", req.SessionID,
		"tokensUsed", result.TotalTokens, "responseTime", elapsed, "tools", toolUsed)

	writeJSON(w, http.StatusOK, messageResponse{
		Message:   result.Reply,
		Success:   true,
		SessionID: req.SessionID,
		ToolUsed:  toolUsed,
		Metadata:  responseMetadata{TokensUsed: result.TotalTokens, ResponseTime: elapsed},
	})
}

func (s *Server) handleConversationList(w http.ResponseWriter, r *http.Request) {
	conversations, err := s.store.Conversations()
	if err != nil {
		writeStoreError(w, "list conversations", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"conversations": conversations,
		"total":         len(conversations),
	})
}

func (s *Server) handleConversationMessages(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("sessionID")
	limit := queryInt(r, "limit", defaultPageLimit)
	offset := queryInt(r, "offset", 0)

	messages, total, err := s.store.MessagesBySession(sessionID, limit, offset)
	if err != nil {
		writeStoreError(w, "list messages", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"messages": messages,
		"total":    total,
		"has_more": offset+limit < total,
	})
}

func (s *Server) handleConversationDelete(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("sessionID")
	if err := s.store.DeleteConversation(sessionID); err != nil {
		writeStoreError(w, "delete conversation", err)
		return
	}
	if err := s.store.DeleteMessagesBySession(sessionID); err != nil {
		writeStoreError(w, "delete messages", err)
		return
	}
	logger.L.Info("conversation deleted", "sessionID", sessionID)
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "conversation deleted",
	})
}

func (s *Server) handleConversationSearch(w http.ResponseWriter, r *http.Request) {
	s.searchMessages(w, r, r.PathValue("sessionID"))
}

func (s *Server) handleMessageSearch(w http.ResponseWriter, r *http.Request) {
	s.searchMessages(w, r, r.URL.Query().Get("session_id"))
}

func (s *Server) searchMessages(w http.ResponseWriter, r *http.Request, sessionID string) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeError(w, http.StatusBadRequest, "query parameter q is required")
		return
	}
	messages, err := s.store.SearchMessages(q, sessionID)
	if err != nil {
		writeStoreError(w, "search messages", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"messages": messages,
		"total":    len(messages),
	})
}

func (s *Server) handleRemindersUpcoming(w http.ResponseWriter, r *http.Request) {
	minutesAhead := queryInt(r, "minutes_ahead", defaultMinutesAhead)
	upcoming, err := s.store.UpcomingReminders(minutesAhead)
	if err != nil {
		writeStoreError(w, "upcoming reminders", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"upcoming":       upcoming,
		"count":          len(upcoming),
		"total_upcoming": len(upcoming),
	})
}

func (s *Server) handleReminderComplete(w http.ResponseWriter, r *http.Request) {
	id, ok := reminderID(w, r)
	if !ok {
		return
	}
	reminder, found, err := s.store.CompleteReminder(id)
	if err != nil {
		writeStoreError(w, "complete reminder", err)
		return
	}
	if !found {
		writeReminderNotFound(w)
		return
	}
	logger.L.Info("reminder completed", "id", id)
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "reminder marked complete",
		"reminder": map[string]any{
			"id":           reminder.ID,
			"title":        reminder.Title,
			"status":       reminder.Status,
			"completed_at": reminder.CompletedAt,
		},
	})
}

func (s *Server) handleReminderSnooze(w http.ResponseWriter, r *http.Request) {
	id, ok := reminderID(w, r)
	if !ok {
		return
	}
	minutes := snoozeMinutes(r)
	reminder, found, err := s.store.SnoozeReminder(id, minutes)
	if err != nil {
		writeStoreError(w, "snooze reminder", err)
		return
	}
	if !found {
		writeReminderNotFound(w)
		return
	}
	logger.L.Info("reminder snoozed", "id", id, "minutes", minutes)
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": fmt.Sprintf("reminder snoozed by %d minutes", minutes),
		"reminder": map[string]any{
			"id":       reminder.ID,
			"title":    reminder.Title,
			"status":   reminder.Status,
			"due_date": reminder.DueDate,
		},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeReminderNotFound(w http.ResponseWriter) {
	writeJSON(w, http.StatusNotFound, map[string]any{
		"success":    false,
		"error":      "reminder not found",
		"error_code": "REMINDER_NOT_FOUND",
	})
}

func reminderID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid reminder id")
		return 0, false
	}
	return id, true
}

// snoozeMinutes reads the snooze duration from the minutes query parameter
// or a {"minutes": n} JSON body, in that order.
func snoozeMinutes(r *http.Request) int {
	if v := r.URL.Query().Get("minutes"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	var body struct {
		Minutes int `json:"minutes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err == nil && body.Minutes > 0 {
		return body.Minutes
	}
	return defaultSnoozeMinutes
}

func queryInt(r *http.Request, name string, fallback int) int {
	v := r.URL.Query().Get(name)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}
