// Package workbench drives the session model, chat log and artifacts panel
// of one console from user actions and server responses.
//
// Every action is split in two. A synchronous begin method updates local
// state right away and returns an Op (or nil when there is nothing to do).
// The Op does the network call off the owning goroutine and returns a
// Result, which Apply reconciles back on the owning goroutine. Results whose
// Token no longer matches the active session are dropped.
package workbench

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/poco-ai/poco-console/internals/chatlog"
	"github.com/poco-ai/poco-console/internals/projection"
	"github.com/poco-ai/poco-console/internals/schemas"
	"github.com/poco-ai/poco-console/internals/sessionmodel"
)

// API is the backend surface the workbench needs. sdk.Client implements it.
type API interface {
	GetSession(ctx context.Context, sessionID string, progressHint int) (*schemas.ExecutionSession, error)
	CreateSession(ctx context.Context, prompt string) (*schemas.ExecutionSession, error)
	SendMessage(ctx context.Context, sessionID, messageID, content string) error
	GetMessages(ctx context.Context, sessionID, afterID string) ([]schemas.ChatMessage, error)
	GetFiles(ctx context.Context, sessionID string) ([]schemas.FileNode, error)
	GetWorkspaceArchive(ctx context.Context, sessionID string) (*schemas.WorkspaceArchive, error)
}

type Workbench struct {
	api    API
	logger *slog.Logger
	newID  func() string
	now    func() time.Time

	generation uint64
	seq        uint64
	sessionID  string

	session *sessionmodel.Store
	log     *chatlog.Log
	panel   *projection.Panel
	notes   []Notification
}

type Option func(*Workbench)

func WithLogger(logger *slog.Logger) Option {
	return func(w *Workbench) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithIDGenerator replaces the message id source.
func WithIDGenerator(fn func() string) Option {
	return func(w *Workbench) {
		if fn != nil {
			w.newID = fn
		}
	}
}

func WithClock(fn func() time.Time) Option {
	return func(w *Workbench) {
		if fn != nil {
			w.now = fn
		}
	}
}

func New(api API, opts ...Option) *Workbench {
	w := &Workbench{
		api:     api,
		logger:  slog.Default(),
		newID:   func() string { return "msg-" + uuid.NewString() },
		now:     time.Now,
		session: sessionmodel.New(),
		log:     chatlog.New(""),
		panel:   projection.New(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func (w *Workbench) Session() *sessionmodel.Store { return w.session }
func (w *Workbench) Log() *chatlog.Log            { return w.log }
func (w *Workbench) Panel() *projection.Panel     { return w.panel }
func (w *Workbench) SessionID() string            { return w.sessionID }

func (w *Workbench) token() Token {
	return Token{Generation: w.generation, SessionID: w.sessionID}
}

// switchTo starts a new generation. State of the previous session is
// discarded and its in-flight results become stale.
func (w *Workbench) switchTo(sessionID string) Token {
	w.generation++
	w.seq = 0
	w.sessionID = sessionID
	w.session.Clear()
	w.log = chatlog.New(sessionID)
	w.panel.Reset()
	return w.token()
}

// Open makes sessionID the active session and loads it.
func (w *Workbench) Open(sessionID string) Op {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil
	}
	w.switchTo(sessionID)
	return w.loadSession(0)
}

// Refresh reloads the active session, passing the current progress as hint.
func (w *Workbench) Refresh() Op {
	if w.sessionID == "" {
		return nil
	}
	return w.loadSession(w.session.Progress())
}

func (w *Workbench) loadSession(hint int) Op {
	w.seq++
	tok, seq, api := w.token(), w.seq, w.api
	return func(ctx context.Context) Result {
		session, err := api.GetSession(ctx, tok.SessionID, hint)
		return SessionLoaded{Token: tok, Seq: seq, Session: session, Err: err}
	}
}

// Create submits a new task. The workbench has no active session until the
// server answers.
func (w *Workbench) Create(prompt string) Op {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil
	}
	tok, api := w.switchTo(""), w.api
	return func(ctx context.Context) Result {
		session, err := api.CreateSession(ctx, prompt)
		return SessionCreated{Token: tok, Session: session, Err: err}
	}
}

// Send appends the user message optimistically, then posts it and fetches
// the replies it caused. Blank content is a no-op.
func (w *Workbench) Send(content string) Op {
	content = strings.TrimSpace(content)
	if content == "" || w.sessionID == "" {
		return nil
	}
	msg := schemas.ChatMessage{
		ID:        w.newID(),
		Role:      schemas.MessageRoleUser,
		Content:   content,
		Status:    schemas.MessageStatusSent,
		Timestamp: w.now().UTC().Format(time.RFC3339),
	}
	if err := w.log.AppendLocal(msg); err != nil {
		w.logger.Error("Failed to append message", slog.String("session_id", w.sessionID), slog.Any("error", err))
		return nil
	}
	tok, api := w.token(), w.api
	return func(ctx context.Context) Result {
		if err := api.SendMessage(ctx, tok.SessionID, msg.ID, content); err != nil {
			return MessagesLoaded{Token: tok, CauseID: msg.ID, Err: fmt.Errorf("send message: %w", err)}
		}
		messages, err := api.GetMessages(ctx, tok.SessionID, msg.ID)
		if err != nil {
			err = fmt.Errorf("get messages: %w", err)
		}
		return MessagesLoaded{Token: tok, CauseID: msg.ID, Messages: messages, Err: err}
	}
}

// PollMessages refetches the log while assistant replies are streaming.
func (w *Workbench) PollMessages() Op {
	if len(w.log.Pending()) == 0 {
		return nil
	}
	return w.History()
}

// History fetches the whole server-side log of the active session. Messages
// already known only take their status transitions.
func (w *Workbench) History() Op {
	if w.sessionID == "" {
		return nil
	}
	tok, api := w.token(), w.api
	return func(ctx context.Context) Result {
		messages, err := api.GetMessages(ctx, tok.SessionID, "")
		return MessagesLoaded{Token: tok, Messages: messages, Err: err}
	}
}

// FetchFiles loads the workspace tree once per session.
func (w *Workbench) FetchFiles() Op {
	if w.sessionID == "" || !w.panel.NeedsFiles(w.sessionID) {
		return nil
	}
	w.panel.BeginFiles(w.sessionID)
	tok, api := w.token(), w.api
	return func(ctx context.Context) Result {
		files, err := api.GetFiles(ctx, tok.SessionID)
		return FilesLoaded{Token: tok, Files: files, Err: err}
	}
}

func (w *Workbench) DownloadArchive() Op {
	if w.sessionID == "" {
		return nil
	}
	tok, api := w.token(), w.api
	return func(ctx context.Context) Result {
		archive, err := api.GetWorkspaceArchive(ctx, tok.SessionID)
		return ArchiveLoaded{Token: tok, Archive: archive, Err: err}
	}
}

func (w *Workbench) SelectFile(file schemas.FileNode) { w.panel.SelectFile(file) }
func (w *Workbench) ToggleSidebar()                   { w.panel.ToggleSidebar() }
func (w *Workbench) CloseSidebar()                    { w.panel.CloseSidebar() }

// SelectFileID selects a node of the loaded tree by id. Unknown ids and
// folders are ignored.
func (w *Workbench) SelectFileID(id string) bool {
	node, ok := projection.FindByID(w.panel.Files(), id)
	if !ok || node.IsFolder() {
		return false
	}
	w.panel.SelectFile(node)
	return true
}

// Notifications returns queued notifications and clears the queue.
func (w *Workbench) Notifications() []Notification {
	notes := w.notes
	w.notes = nil
	return notes
}

// Run executes op inline and applies its result. Used where there is no
// event loop, like the CLI.
func (w *Workbench) Run(ctx context.Context, op Op) bool {
	if op == nil {
		return false
	}
	return w.Apply(op(ctx))
}
