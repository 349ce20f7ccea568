package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/poco-ai/poco-console/internals/conf"
	"github.com/poco-ai/poco-console/internals/logging"
	"github.com/poco-ai/poco-console/internals/workbench"
)

// Run opens sessionID in the workbench UI. Without an id it first asks for a
// prompt and creates a session. Workbench failures go to logger, which must
// not write to the terminal.
func Run(ctx context.Context, api workbench.API, cfg conf.TUIConfig, sessionID string, logger *slog.Logger) error {
	wb := newWorkbench(api, logger)

	var start workbench.Op
	if strings.TrimSpace(sessionID) != "" {
		start = wb.Open(sessionID)
	} else {
		form, err := runNewSessionForm()
		if err != nil {
			return err
		}
		if !form.submitted {
			return nil
		}
		if form.sessionID != "" {
			start = wb.Open(form.sessionID)
		} else {
			start = wb.Create(form.prompt)
		}
		if start == nil {
			return nil
		}
	}

	program := tea.NewProgram(NewModel(ctx, wb, cfg, start), tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))
	_, err := program.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

func newWorkbench(api workbench.API, logger *slog.Logger, opts ...workbench.Option) *workbench.Workbench {
	if logger == nil {
		logger = logging.Discard()
	}
	return workbench.New(api, append([]workbench.Option{workbench.WithLogger(logger)}, opts...)...)
}

type newSessionForm struct {
	prompt    string
	sessionID string
	submitted bool
}

type newSessionModel struct {
	inputs    []textinput.Model
	focus     int
	submitted bool
	cancelled bool
}

func runNewSessionForm() (newSessionForm, error) {
	program := tea.NewProgram(newNewSessionModel())
	result, err := program.Run()
	if err != nil {
		return newSessionForm{}, err
	}
	final, ok := result.(newSessionModel)
	if !ok || final.cancelled || !final.submitted {
		return newSessionForm{}, nil
	}
	return final.form(), nil
}

func newNewSessionModel() newSessionModel {
	prompt := textinput.New()
	prompt.Prompt = "Task: "
	prompt.Placeholder = "What should the assistant do?"
	prompt.CharLimit = 4000

	id := textinput.New()
	id.Prompt = "Or open session ID: "

	inputs := []textinput.Model{prompt, id}
	inputs[0].Focus()
	return newSessionModel{inputs: inputs}
}

func (m newSessionModel) form() newSessionForm {
	return newSessionForm{
		prompt:    strings.TrimSpace(m.inputs[0].Value()),
		sessionID: strings.TrimSpace(m.inputs[1].Value()),
		submitted: m.submitted,
	}
}

func (m newSessionModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m newSessionModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.cancelled = true
			return m, tea.Quit
		case "tab", "down":
			return m.moveFocus(1)
		case "shift+tab", "up":
			return m.moveFocus(-1)
		case "enter":
			form := m.form()
			if form.prompt == "" && form.sessionID == "" {
				return m, nil
			}
			m.submitted = true
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m newSessionModel) View() string {
	lines := []string{titleStyle.Render("New session"), ""}
	for i, input := range m.inputs {
		marker := " "
		if i == m.focus {
			marker = ">"
		}
		lines = append(lines, fmt.Sprintf("%s %s", marker, input.View()))
	}
	lines = append(lines, "", helpStyle.Render("Tab: next field  Enter: start  Esc: cancel"))
	return strings.Join(lines, "\n")
}

func (m newSessionModel) moveFocus(delta int) (tea.Model, tea.Cmd) {
	m.inputs[m.focus].Blur()
	count := len(m.inputs)
	m.focus = (m.focus + delta + count) % count
	return m, m.inputs[m.focus].Focus()
}
