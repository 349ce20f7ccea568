package cliutil

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/poco-ai/poco-console/internals/projection"
	"github.com/poco-ai/poco-console/internals/schemas"
	"github.com/poco-ai/poco-console/internals/sessionmodel"
	"github.com/poco-ai/poco-console/internals/term"
	"github.com/poco-ai/poco-console/internals/workbench"
)

func PrintSession(w io.Writer, store *sessionmodel.Store) {
	if store.Session() == nil {
		fmt.Fprintln(w, "no session")
		return
	}
	fmt.Fprintf(w, "session: %s\n", store.SessionID())
	fmt.Fprintf(w, "title: %s\n", store.Title())
	fmt.Fprintf(w, "progress: %d%%\n", store.Progress())
	if step := store.CurrentStep(); step != "" {
		fmt.Fprintf(w, "step: %s\n", step)
	}
	if store.HasTodos() {
		fmt.Fprintf(w, "todos (%d/%d):\n", store.CompletedTodos(), len(store.Todos()))
		for _, todo := range store.Todos() {
			fmt.Fprintf(w, "  %s %s\n", todoMarker(todo.Status), todo.Title)
		}
	}
	if store.HasSkills() {
		fmt.Fprintln(w, "skills:")
		for _, skill := range store.Skills() {
			fmt.Fprintf(w, "  %s (%s)\n", skill.Name, skill.Status)
		}
	}
	if store.HasMCP() {
		fmt.Fprintln(w, "mcp:")
		for _, server := range store.MCP() {
			line := fmt.Sprintf("  %s: %s", server.ServerName, server.Status)
			if server.Message != "" {
				line += " - " + server.Message
			}
			fmt.Fprintln(w, line)
		}
	}
	if store.HasArtifacts() {
		PrintArtifacts(w, store.Artifacts())
	}
}

func todoMarker(status schemas.TodoStatus) string {
	switch status {
	case schemas.TodoStatusCompleted:
		return "[x]"
	case schemas.TodoStatusInProgress:
		return "[~]"
	default:
		return "[ ]"
	}
}

func PrintArtifacts(w io.Writer, artifacts []schemas.Artifact) {
	fmt.Fprintln(w, "artifacts:")
	for _, card := range projection.Cards(artifacts) {
		line := fmt.Sprintf("  [%s] %s", card.Label, card.Title)
		if card.Size != "" {
			line += " (" + card.Size + ")"
		}
		fmt.Fprintln(w, line)
	}
}

// PrintMessages writes one block per message. Timestamps are shown relative
// to now.
func PrintMessages(w io.Writer, messages []schemas.ChatMessage, now time.Time) {
	if len(messages) == 0 {
		fmt.Fprintln(w, "no messages")
		return
	}
	for _, msg := range messages {
		header := string(msg.Role)
		if ts, err := time.Parse(time.RFC3339, msg.Timestamp); err == nil {
			header += " · " + humanize.RelTime(ts, now, "ago", "from now")
		}
		if msg.Status == schemas.MessageStatusStreaming {
			header += " (typing)"
		}
		fmt.Fprintln(w, header)
		fmt.Fprintf(w, "  %s\n", strings.ReplaceAll(strings.TrimSpace(msg.Content), "\n", "\n  "))
		if meta := msg.Metadata; meta != nil && meta.Model != "" {
			fmt.Fprintf(w, "  %s, %s tokens\n", meta.Model, humanize.Comma(int64(meta.TokensUsed)))
		}
	}
}

func PrintFiles(w io.Writer, nodes []schemas.FileNode) {
	rows := projection.Flatten(nodes)
	if len(rows) == 0 {
		fmt.Fprintln(w, "no files")
		return
	}
	for _, row := range rows {
		name := row.Node.Name
		if row.Node.IsFolder() {
			name += "/"
		} else if row.Node.URL != "" {
			name = term.ClickableLink(name, row.Node.URL)
		}
		fmt.Fprintf(w, "%s%s\n", strings.Repeat("  ", row.Depth), name)
	}
}

func PrintNotification(w io.Writer, note workbench.Notification) {
	fmt.Fprintf(w, "%s: %s\n", note.Level, note.Title)
	if note.Detail != "" {
		fmt.Fprintf(w, "  %s\n", note.Detail)
	}
	if note.URL != "" {
		label := note.Filename
		if label == "" {
			label = note.URL
		}
		fmt.Fprintf(w, "  %s\n", term.ClickableLink(label, note.URL))
	}
}
