package workbench

import (
	"fmt"
	"log/slog"

	z "github.com/Oudwins/zog"

	"github.com/poco-ai/poco-console/internals/schemas"
)

// Apply reconciles a finished Op. It reports whether local state changed
// or a notification was queued. Failures are logged and never returned.
func (w *Workbench) Apply(res Result) bool {
	if res == nil {
		return false
	}
	if res.Origin() != w.token() {
		w.logger.Debug("Dropping stale result",
			slog.String("result", fmt.Sprintf("%T", res)),
			slog.String("session_id", res.Origin().SessionID),
			slog.String("active_session_id", w.sessionID),
		)
		return false
	}

	switch r := res.(type) {
	case SessionLoaded:
		return w.applySession(r)
	case SessionCreated:
		return w.applyCreated(r)
	case MessagesLoaded:
		return w.applyMessages(r)
	case FilesLoaded:
		return w.applyFiles(r)
	case ArchiveLoaded:
		return w.applyArchive(r)
	}
	w.logger.Warn("Unknown result", slog.String("result", fmt.Sprintf("%T", res)))
	return false
}

func (w *Workbench) applySession(r SessionLoaded) bool {
	if r.Err != nil {
		w.logger.Error("Failed to load session", slog.String("session_id", r.Token.SessionID), slog.Any("error", r.Err))
		return false
	}
	if r.Session == nil || r.Session.SessionID != w.sessionID {
		w.logger.Warn("Session response for another id", slog.String("session_id", w.sessionID))
		return false
	}
	if !w.session.Apply(r.Session, r.Seq) {
		return false
	}
	w.log.Seed(r.Session)
	return true
}

func (w *Workbench) applyCreated(r SessionCreated) bool {
	if r.Err != nil {
		w.logger.Error("Failed to create session", slog.Any("error", r.Err))
		return false
	}
	if r.Session == nil || r.Session.SessionID == "" {
		w.logger.Error("Create returned no session id")
		return false
	}
	w.switchTo(r.Session.SessionID)
	w.seq++
	w.session.Apply(r.Session, w.seq)
	w.log.Seed(r.Session)
	return true
}

func (w *Workbench) applyMessages(r MessagesLoaded) bool {
	if r.Err != nil {
		// The optimistic message stays in the log.
		w.logger.Error("Failed to sync messages",
			slog.String("session_id", r.Token.SessionID),
			slog.String("cause_id", r.CauseID),
			slog.Any("error", r.Err),
		)
		return false
	}
	appended, err := w.log.Reconcile(r.CauseID, w.validMessages(r.Token.SessionID, r.Messages))
	if err != nil {
		w.logger.Error("Failed to reconcile messages", slog.String("session_id", r.Token.SessionID), slog.Any("error", err))
		return false
	}
	return appended > 0 || len(r.Messages) > 0
}

// validMessages drops server messages that fail ChatMessageSchema.
func (w *Workbench) validMessages(sessionID string, messages []schemas.ChatMessage) []schemas.ChatMessage {
	valid := make([]schemas.ChatMessage, 0, len(messages))
	for _, msg := range messages {
		if issues := schemas.ChatMessageSchema.Validate(&msg); len(issues) > 0 {
			w.logger.Warn("Rejected server message",
				slog.String("session_id", sessionID),
				slog.String("message_id", msg.ID),
				slog.Any("issues", z.Issues.Flatten(issues)),
			)
			continue
		}
		valid = append(valid, msg)
	}
	return valid
}

func (w *Workbench) applyFiles(r FilesLoaded) bool {
	if r.Err != nil {
		w.logger.Error("Failed to fetch workspace files", slog.String("session_id", r.Token.SessionID), slog.Any("error", r.Err))
		return false
	}
	if err := w.panel.SetFiles(r.Token.SessionID, r.Files); err != nil {
		w.logger.Error("Rejected workspace files", slog.String("session_id", r.Token.SessionID), slog.Any("error", err))
		return false
	}
	return true
}

func (w *Workbench) applyArchive(r ArchiveLoaded) bool {
	if r.Err != nil {
		w.logger.Error("Failed to get workspace archive", slog.String("session_id", r.Token.SessionID), slog.Any("error", r.Err))
		w.notify(Notification{Level: LevelError, Title: "Download failed", Detail: r.Err.Error()})
		return true
	}
	if !r.Archive.Available() {
		w.notify(Notification{Level: LevelError, Title: "Archive unavailable", Detail: "The workspace archive is not ready yet."})
		return true
	}
	filename := fmt.Sprintf("workspace-%s.zip", r.Token.SessionID)
	if r.Archive.Filename != nil && *r.Archive.Filename != "" {
		filename = *r.Archive.Filename
	}
	w.notify(Notification{Level: LevelSuccess, Title: "Download started", URL: *r.Archive.URL, Filename: filename})
	return true
}

func (w *Workbench) notify(n Notification) {
	w.notes = append(w.notes, n)
}
