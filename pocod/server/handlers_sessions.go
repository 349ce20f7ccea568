package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	z "github.com/Oudwins/zog"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/poco-ai/poco-console/internals/reqlog"
	"github.com/poco-ai/poco-console/internals/schemas"
	"github.com/poco-ai/poco-console/internals/simulator"
)

const replyContent = "I have received your instructions and am analyzing the current workspace context. " +
	"Based on your request I will start the matching automation flow. " +
	"You can follow the task list on the left to see the progress."

const replyTokens = 156

func (s *Server) HandlerCreateSession(w http.ResponseWriter, r *http.Request) {
	logger := reqlog.FromContext(r.Context())
	var request schemas.SessionCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		renderError(w, r, schemas.CodeInvalidJSON, "Invalid JSON", nil)
		return
	}
	if issues := schemas.SessionCreateSchema.Validate(&request); len(issues) > 0 {
		renderValidation(w, r, z.Issues.Flatten(issues))
		return
	}

	record := sessionRecord{
		ID:        s.nextSessionID(),
		Prompt:    request.Prompt,
		CreatedAt: s.now().UTC(),
	}
	if err := s.store.createSession(r.Context(), record); err != nil {
		logger.Error("create session", slog.Any("error", err))
		renderError(w, r, schemas.CodeDatabase, "Failed to create session", nil)
		return
	}
	logger.Info("session created", slog.String("session_id", record.ID))
	renderData(w, r, s.sim.Snapshot(seedOf(record), record.Progress))
}

// HandlerGetSession advances the session one step from the higher of the
// stored progress and the client's hint, then returns the snapshot.
func (s *Server) HandlerGetSession(w http.ResponseWriter, r *http.Request) {
	logger := reqlog.FromContext(r.Context())
	hint := 0
	if raw := r.URL.Query().Get("progress"); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil || value < 0 || value > 100 {
			renderValidation(w, r, map[string][]string{"progress": {"progress must be an integer between 0 and 100"}})
			return
		}
		hint = value
	}

	record, ok := s.loadSession(w, r)
	if !ok {
		return
	}
	snapshot := s.sim.Advance(seedOf(*record), max(record.Progress, hint))
	stored, err := s.store.advanceProgress(r.Context(), record.ID, snapshot.Progress)
	if err != nil {
		logger.Error("advance progress", slog.Any("error", err))
		renderError(w, r, schemas.CodeDatabase, "Failed to update session", nil)
		return
	}
	if stored != snapshot.Progress {
		// A concurrent request already went further.
		snapshot = s.sim.Snapshot(seedOf(*record), stored)
	}
	logger.Debug("session advanced", slog.Int("from", record.Progress), slog.Int("to", stored))
	renderData(w, r, snapshot)
}

func (s *Server) HandlerSendMessage(w http.ResponseWriter, r *http.Request) {
	logger := reqlog.FromContext(r.Context())
	record, ok := s.loadSession(w, r)
	if !ok {
		return
	}

	var request schemas.SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		renderError(w, r, schemas.CodeInvalidJSON, "Invalid JSON", nil)
		return
	}
	if issues := schemas.SendMessageSchema.Validate(&request); len(issues) > 0 {
		renderValidation(w, r, z.Issues.Flatten(issues))
		return
	}
	if request.MessageID == "" {
		request.MessageID = "msg-" + uuid.NewString()
	}

	now := s.now().UTC()
	userMessage := schemas.ChatMessage{
		ID:        request.MessageID,
		Role:      schemas.MessageRoleUser,
		Content:   request.Content,
		Status:    schemas.MessageStatusSent,
		Timestamp: now.Format(time.RFC3339),
	}
	if err := s.store.appendMessage(r.Context(), record.ID, userMessage); err != nil {
		if errors.Is(err, errMessageExists) {
			renderError(w, r, schemas.CodeBadRequest, "Message id already exists", nil)
			return
		}
		logger.Error("store message", slog.Any("error", err))
		renderError(w, r, schemas.CodeDatabase, "Failed to store message", nil)
		return
	}

	delay := s.Config.Server.ReplyDelayDuration()
	reply := schemas.ChatMessage{
		ID:        "msg-reply-" + uuid.NewString(),
		Role:      schemas.MessageRoleAssistant,
		Content:   replyContent,
		Status:    schemas.MessageStatusStreaming,
		Timestamp: now.Format(time.RFC3339),
		Metadata: &schemas.MessageMetadata{
			Model:      s.Config.Server.ReplyModel,
			TokensUsed: replyTokens,
			Duration:   delay.Milliseconds(),
		},
	}
	if err := s.store.appendMessage(r.Context(), record.ID, reply); err != nil {
		logger.Error("store reply", slog.Any("error", err))
		renderError(w, r, schemas.CodeDatabase, "Failed to store reply", nil)
		return
	}
	s.replies.Enqueue(record.ID, reply.ID)

	logger.Info("message stored", slog.String("message_id", userMessage.ID), slog.String("reply_id", reply.ID))
	renderData[any](w, r, nil)
}

func (s *Server) HandlerListMessages(w http.ResponseWriter, r *http.Request) {
	record, ok := s.loadSession(w, r)
	if !ok {
		return
	}
	messages, err := s.store.listMessages(r.Context(), record.ID, r.URL.Query().Get("after"))
	if err != nil {
		reqlog.FromContext(r.Context()).Error("list messages", slog.Any("error", err))
		renderError(w, r, schemas.CodeDatabase, "Failed to list messages", nil)
		return
	}
	renderData(w, r, messages)
}

// loadSession resolves {id} and renders the error response itself when the
// session cannot be loaded.
func (s *Server) loadSession(w http.ResponseWriter, r *http.Request) (*sessionRecord, bool) {
	id := chi.URLParam(r, "id")
	record, err := s.store.getSession(r.Context(), id)
	if errors.Is(err, errSessionNotFound) {
		renderError(w, r, schemas.CodeNotFound, "Session not found", nil)
		return nil, false
	}
	if err != nil {
		reqlog.FromContext(r.Context()).Error("load session", slog.String("session_id", id), slog.Any("error", err))
		renderError(w, r, schemas.CodeDatabase, "Failed to load session", nil)
		return nil, false
	}
	return record, true
}

func seedOf(record sessionRecord) simulator.Seed {
	return simulator.Seed{SessionID: record.ID, Prompt: record.Prompt, CreatedAt: record.CreatedAt}
}
