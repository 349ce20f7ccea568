package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/poco-ai/poco-console/internals/conf"
	"github.com/poco-ai/poco-console/internals/projection"
	"github.com/poco-ai/poco-console/internals/workbench"
)

const noteTTL = 4 * time.Second

type focusArea int

const (
	focusInput focusArea = iota
	focusFiles
)

// resultMsg carries a finished workbench op back to the update loop.
type resultMsg struct {
	result workbench.Result
}

type tickMsg time.Time

type shownNote struct {
	workbench.Notification
	expires time.Time
}

// Model is the chat panel plus the artifacts panel. All workbench state is
// touched from Update only; ops run as tea.Cmds.
type Model struct {
	ctx   context.Context
	wb    *workbench.Workbench
	cfg   conf.TUIConfig
	start workbench.Op
	now   func() time.Time
	tick  func(time.Duration) tea.Cmd

	input   textinput.Model
	chat    viewport.Model
	side    viewport.Model
	bar     progress.Model
	spinner spinner.Model

	renderer      *glamour.TermRenderer
	rendererWidth int

	focus         focusArea
	cursor        int
	inFlight      int
	historyLoaded bool
	lastLen       int
	notes         []shownNote
	width         int
	height        int
}

// NewModel wraps wb. start is the op that opens or creates the session.
func NewModel(ctx context.Context, wb *workbench.Workbench, cfg conf.TUIConfig, start workbench.Op) Model {
	input := textinput.New()
	input.Placeholder = "Send a follow-up message"
	input.Prompt = "> "
	input.CharLimit = 4000
	input.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := Model{
		ctx:     ctx,
		wb:      wb,
		cfg:     cfg,
		start:   start,
		now:     time.Now,
		tick:    tickEvery,
		input:   input,
		chat:    viewport.New(80, 20),
		side:    viewport.New(40, 20),
		bar:     progress.New(progress.WithDefaultGradient(), progress.WithWidth(30)),
		spinner: sp,
		width:   120,
		height:  30,
	}
	if start != nil {
		m.inFlight = 1
	}
	m.layout()
	return m
}

func tickEvery(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m Model) pollInterval() time.Duration {
	if d := m.cfg.PollIntervalDuration(); d > 0 {
		return d
	}
	return 2 * time.Second
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick, opCmd(m.ctx, m.start), m.tick(m.pollInterval()))
}

// run turns an op into a command and counts it as in flight. A nil op is a
// no-op.
func (m *Model) run(op workbench.Op) tea.Cmd {
	if op == nil {
		return nil
	}
	m.inFlight++
	return opCmd(m.ctx, op)
}

func opCmd(ctx context.Context, op workbench.Op) tea.Cmd {
	if op == nil {
		return nil
	}
	return func() tea.Msg {
		return resultMsg{result: op(ctx)}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.layout()

	case resultMsg:
		cmds = append(cmds, m.applyResult(msg.result))

	case tickMsg:
		m.expireNotes()
		if !m.wb.Session().Done() && m.wb.Session().Session() != nil {
			cmds = append(cmds, m.run(m.wb.Refresh()))
		}
		cmds = append(cmds, m.run(m.wb.PollMessages()), m.tick(m.pollInterval()))

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case progress.FrameMsg:
		model, cmd := m.bar.Update(msg)
		if bar, ok := model.(progress.Model); ok {
			m.bar = bar
		}
		cmds = append(cmds, cmd)

	case tea.KeyMsg:
		cmd, quit := m.handleKey(msg)
		if quit {
			return m, tea.Quit
		}
		cmds = append(cmds, cmd)

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.chat, cmd = m.chat.Update(msg)
		cmds = append(cmds, cmd)
	}

	m.syncViews()
	return m, tea.Batch(cmds...)
}

func (m *Model) applyResult(res workbench.Result) tea.Cmd {
	if m.inFlight > 0 {
		m.inFlight--
	}
	changed := m.wb.Apply(res)
	for _, note := range m.wb.Notifications() {
		m.notes = append(m.notes, shownNote{Notification: note, expires: m.now().Add(noteTTL)})
	}

	var cmds []tea.Cmd
	switch res.(type) {
	case workbench.SessionLoaded:
		if changed && !m.historyLoaded {
			m.historyLoaded = true
			cmds = append(cmds, m.run(m.wb.History()))
		}
	case workbench.SessionCreated:
		m.historyLoaded = changed
	}
	if m.wb.Panel().ViewMode() == projection.ViewDocument {
		cmds = append(cmds, m.run(m.wb.FetchFiles()))
	}
	return tea.Batch(cmds...)
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch msg.String() {
	case "ctrl+c":
		return nil, true
	case "ctrl+b":
		m.wb.ToggleSidebar()
		if m.wb.Panel().SidebarOpen() {
			m.setFocus(focusFiles)
			return m.run(m.wb.FetchFiles()), false
		}
		m.setFocus(focusInput)
		return nil, false
	case "esc":
		if m.wb.Panel().SidebarOpen() {
			m.wb.CloseSidebar()
			m.setFocus(focusInput)
		}
		return nil, false
	case "ctrl+o":
		return m.run(m.wb.DownloadArchive()), false
	case "tab":
		if m.wb.Panel().SidebarOpen() {
			if m.focus == focusInput {
				m.setFocus(focusFiles)
			} else {
				m.setFocus(focusInput)
			}
		}
		return nil, false
	case "pgup", "pgdown":
		var cmd tea.Cmd
		m.chat, cmd = m.chat.Update(msg)
		return cmd, false
	}

	if m.focus == focusFiles {
		m.handleFileKey(msg.String())
		return nil, false
	}

	if msg.String() == "enter" {
		op := m.wb.Send(m.input.Value())
		if op == nil {
			return nil, false
		}
		m.input.Reset()
		return m.run(op), false
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return cmd, false
}

func (m *Model) handleFileKey(key string) {
	files := projection.Selectable(m.wb.Panel().Files())
	if len(files) == 0 {
		return
	}
	switch key {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(files)-1 {
			m.cursor++
		}
	case "enter":
		if m.cursor < len(files) {
			m.wb.SelectFileID(files[m.cursor].ID)
		}
	}
}

func (m *Model) setFocus(f focusArea) {
	m.focus = f
	if f == focusInput {
		m.input.Focus()
		return
	}
	m.input.Blur()
}

func (m *Model) expireNotes() {
	now := m.now()
	kept := m.notes[:0]
	for _, note := range m.notes {
		if now.Before(note.expires) {
			kept = append(kept, note)
		}
	}
	m.notes = kept
}

// layout sizes the panels: chat takes three fifths of the width.
func (m *Model) layout() {
	chatWidth := m.width * 3 / 5
	sideWidth := m.width - chatWidth
	bodyHeight := m.height - 7
	if bodyHeight < 3 {
		bodyHeight = 3
	}
	m.chat.Width, m.chat.Height = max(chatWidth-4, 10), bodyHeight
	m.side.Width, m.side.Height = max(sideWidth-4, 10), bodyHeight
	m.input.Width = max(chatWidth-6, 10)
	m.bar.Width = max(m.width/4, 10)
	m.ensureRenderer(m.side.Width)
}

func (m *Model) ensureRenderer(width int) {
	if m.renderer != nil && m.rendererWidth == width {
		return
	}
	style := m.cfg.GlamourStyle
	if style == "" {
		style = "dark"
	}
	renderer, err := glamour.NewTermRenderer(glamour.WithStandardStyle(style), glamour.WithWordWrap(width))
	if err != nil {
		m.renderer = nil
		return
	}
	m.renderer, m.rendererWidth = renderer, width
}

func (m *Model) syncViews() {
	messages := m.wb.Log().Messages()
	m.chat.SetContent(renderMessages(messages, m.chat.Width, m.now()))
	if len(messages) != m.lastLen {
		m.chat.GotoBottom()
		m.lastLen = len(messages)
	}
	if m.wb.Panel().ViewMode() == projection.ViewDocument {
		m.side.SetContent(renderDocument(m.wb.Panel(), m.cursor, m.focus == focusFiles))
	} else {
		m.side.SetContent(renderArtifacts(m.wb.Session(), m.renderer, m.side.Width, m.now()))
	}
}
