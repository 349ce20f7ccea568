package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/poco-ai/poco-console/internals/projection"
	"github.com/poco-ai/poco-console/internals/schemas"
	"github.com/poco-ai/poco-console/internals/sessionmodel"
	"github.com/poco-ai/poco-console/internals/term"
	"github.com/poco-ai/poco-console/internals/workbench"
)

func (m Model) View() string {
	store := m.wb.Session()
	header := titleStyle.Render(store.Title())
	if m.inFlight > 0 {
		header = m.spinner.View() + " " + header
	}
	if store.Session() != nil {
		header = lipgloss.JoinHorizontal(lipgloss.Center, header, "  ", m.bar.ViewAs(float64(store.Progress())/100), fmt.Sprintf(" %d%%", store.Progress()))
	}
	step := stepStyle.Render(store.CurrentStep())

	chatPanel, sidePanel := panelStyle, panelStyle
	if m.focus == focusFiles {
		sidePanel = focusedPanel
	} else {
		chatPanel = focusedPanel
	}
	left := chatPanel.Width(m.chat.Width + 2).Render(m.chat.View())
	right := sidePanel.Width(m.side.Width + 2).Render(m.side.View())
	body := lipgloss.JoinHorizontal(lipgloss.Top, left, right)

	lines := []string{header, step, body, m.input.View()}
	for _, note := range m.notes {
		lines = append(lines, renderNote(note.Notification))
	}
	lines = append(lines, helpStyle.Render("Enter: send  Ctrl+B: files  Tab: focus  Ctrl+O: download  Esc: close  Ctrl+C: quit"))
	return strings.Join(lines, "\n")
}

func renderNote(note workbench.Notification) string {
	style := successStyle
	if note.Level == workbench.LevelError {
		style = errorStyle
	}
	text := note.Title
	if note.Detail != "" {
		text += ": " + note.Detail
	}
	if note.URL != "" {
		text += " " + term.ClickableLink(note.Filename, note.URL)
	}
	return style.Render(text)
}

func renderMessages(messages []schemas.ChatMessage, width int, now time.Time) string {
	if len(messages) == 0 {
		return mutedStyle.Render("No messages yet.")
	}
	wrap := lipgloss.NewStyle().Width(width)
	blocks := make([]string, 0, len(messages))
	for _, msg := range messages {
		role := userStyle.Render("You")
		if msg.Role == schemas.MessageRoleAssistant {
			role = assistantStyle.Render("Assistant")
		}
		meta := []string{}
		if ts, err := time.Parse(time.RFC3339, msg.Timestamp); err == nil {
			meta = append(meta, humanize.RelTime(ts, now, "ago", "from now"))
		}
		if msg.Status == schemas.MessageStatusStreaming {
			meta = append(meta, "typing…")
		}
		header := role
		if len(meta) > 0 {
			header += " " + mutedStyle.Render(strings.Join(meta, " · "))
		}
		blocks = append(blocks, header+"\n"+wrap.Render(msg.Content))
	}
	return strings.Join(blocks, "\n\n")
}

func renderArtifacts(store *sessionmodel.Store, renderer *glamour.TermRenderer, width int, now time.Time) string {
	var sections []string
	if store.HasTodos() {
		lines := []string{sectionStyle.Render(fmt.Sprintf("Tasks %d/%d", store.CompletedTodos(), len(store.Todos())))}
		for _, todo := range store.Todos() {
			lines = append(lines, todoLine(todo))
		}
		sections = append(sections, strings.Join(lines, "\n"))
	}
	if store.HasArtifacts() {
		lines := []string{sectionStyle.Render("Artifacts")}
		for i, card := range projection.Cards(store.Artifacts()) {
			lines = append(lines, renderCard(card, store.Artifacts()[i].Type, renderer, width, now))
		}
		sections = append(sections, strings.Join(lines, "\n\n"))
	}
	if store.HasSkills() {
		lines := []string{sectionStyle.Render("Skills")}
		for _, skill := range store.Skills() {
			lines = append(lines, fmt.Sprintf("• %s %s", skill.Name, mutedStyle.Render(string(skill.Status))))
		}
		sections = append(sections, strings.Join(lines, "\n"))
	}
	if store.HasMCP() {
		lines := []string{sectionStyle.Render("MCP")}
		for _, server := range store.MCP() {
			status := string(server.Status)
			if server.Status == schemas.McpStateError {
				status = errorStyle.Render(status)
			}
			line := fmt.Sprintf("• %s %s", server.ServerName, status)
			if server.Message != "" {
				line += " " + mutedStyle.Render(server.Message)
			}
			lines = append(lines, line)
		}
		sections = append(sections, strings.Join(lines, "\n"))
	}
	if len(sections) == 0 {
		return mutedStyle.Render("No artifacts yet.")
	}
	return strings.Join(sections, "\n\n")
}

func todoLine(todo schemas.Todo) string {
	switch todo.Status {
	case schemas.TodoStatusCompleted:
		return successStyle.Render("✓ ") + mutedStyle.Render(todo.Title)
	case schemas.TodoStatusInProgress:
		return cursorStyle.Render("▸ ") + todo.Title
	default:
		return "○ " + todo.Title
	}
}

func renderCard(card projection.Card, kind schemas.ArtifactType, renderer *glamour.TermRenderer, width int, now time.Time) string {
	header := labelStyle.Render(card.Label) + " " + card.Title
	if ts, err := time.Parse(time.RFC3339, card.CreatedAt); err == nil {
		header += " " + mutedStyle.Render(humanize.RelTime(ts, now, "ago", "from now"))
	}

	var body string
	switch card.Kind {
	case projection.BodyImage:
		body = term.ClickableLink(card.Body, card.Body)
	case projection.BodyCode:
		body = codeStyle.Width(width - 2).Render(colorDiff(card.Body))
	case projection.BodyText:
		body = card.Body
		if kind == schemas.ArtifactTypeMarkdown && renderer != nil {
			if out, err := renderer.Render(card.Body); err == nil {
				body = strings.Trim(out, "\n")
			}
		}
	case projection.BodyPreview:
		body = mutedStyle.Render(card.Body)
		if card.Size != "" {
			body += " " + mutedStyle.Render("("+card.Size+")")
		}
	}
	if body == "" {
		return header
	}
	return header + "\n" + body
}

func colorDiff(diff string) string {
	lines := strings.Split(strings.TrimRight(diff, "\n"), "\n")
	for i, line := range lines {
		switch {
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
			lines[i] = mutedStyle.Render(line)
		case strings.HasPrefix(line, "+"):
			lines[i] = addedStyle.Render(line)
		case strings.HasPrefix(line, "-"):
			lines[i] = removedStyle.Render(line)
		}
	}
	return strings.Join(lines, "\n")
}

// renderDocument draws the workspace tree with the file cursor and the
// selected file's details.
func renderDocument(panel *projection.Panel, cursor int, focused bool) string {
	rows := projection.Flatten(panel.Files())
	if len(rows) == 0 {
		return mutedStyle.Render("No files.")
	}
	selected := panel.SelectedFile()
	fileIndex := 0
	lines := []string{sectionStyle.Render("Workspace")}
	for _, row := range rows {
		indent := strings.Repeat("  ", row.Depth)
		if row.Node.IsFolder() {
			lines = append(lines, indent+row.Node.Name+"/")
			continue
		}
		marker := "  "
		if focused && fileIndex == cursor {
			marker = cursorStyle.Render("> ")
		}
		name := row.Node.Name
		if selected != nil && selected.ID == row.Node.ID {
			name = selectedStyle.Render(name)
		}
		lines = append(lines, indent+marker+name)
		fileIndex++
	}
	if selected != nil {
		lines = append(lines, "", sectionStyle.Render(selected.Name), mutedStyle.Render(selected.Path))
		if selected.MimeType != "" {
			lines = append(lines, mutedStyle.Render(selected.MimeType))
		}
		if selected.URL != "" {
			lines = append(lines, term.ClickableLink("Open file", selected.URL))
		}
	}
	return strings.Join(lines, "\n")
}
