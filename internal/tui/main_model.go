package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"atlas-chat/internal/app"
)

type focusArea int

const (
	focusInput focusArea = iota
	focusChat
	focusSessions
	focusGraph
)

type turnDoneMsg struct {
	sessionID string
}

type spinMsg struct{}

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

const (
	sessionsPaneWidth = 26
	graphPaneWidth    = 40
)

type MainModel struct {
	store      *app.SessionStore
	dispatcher *app.Dispatcher

	theme Theme
	help  helpModel

	width  int
	height int
	ready  bool

	focus focusArea

	input  textarea.Model
	chatVP viewport.Model
	graph  graphPane

	sessionCursor int
	withGraph     bool

	statusText string
	spinnerPos int
	showHelp   bool
}

func NewMainModel(store *app.SessionStore, dispatcher *app.Dispatcher, opener urlOpener, withGraph bool) *MainModel {
	ta := textarea.New()
	ta.Placeholder = "Ask about your documents… (/help for commands)"
	ta.Focus()
	ta.CharLimit = 4000
	ta.SetHeight(1)
	ta.Prompt = " "
	ta.ShowLineNumbers = false
	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.BlurredStyle.CursorLine = lipgloss.NewStyle()

	t := NewTheme()
	m := &MainModel{
		store:      store,
		dispatcher: dispatcher,
		theme:      t,
		help:       newHelpModel(t),
		width:      100,
		height:     30,
		focus:      focusInput,
		input:      ta,
		graph:      newGraphPane(t, opener),
		withGraph:  withGraph,
		statusText: "Ready",
	}
	m.sessionCursor = store.ActiveIndex()
	return m
}

func (m *MainModel) Init() tea.Cmd {
	return textarea.Blink
}

func (m *MainModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		chatW, chatH := m.chatSize()
		if !m.ready {
			m.chatVP = viewport.New(chatW, chatH)
			m.ready = true
		} else {
			m.chatVP.Width = chatW
			m.chatVP.Height = chatH
		}
		m.input.SetWidth(max(10, m.width-6))
		m.refreshChat()
		return m, nil

	case tea.KeyMsg:
		if m.showHelp {
			m.showHelp = false
			return m, nil
		}
		keys := m.help.keys
		switch {
		case key.Matches(msg, keys.Quit):
			return m, tea.Quit

		case key.Matches(msg, keys.Help):
			m.showHelp = true
			return m, nil

		case key.Matches(msg, keys.FocusNext):
			m.cycleFocus()
			return m, nil

		case key.Matches(msg, keys.NewChat):
			m.store.CreateSession()
			m.sessionCursor = m.store.ActiveIndex()
			m.graph.Dismiss()
			m.refreshChat()
			m.statusText = "Started a new chat"
			return m, nil

		case key.Matches(msg, keys.Dismiss):
			if m.focus == focusGraph {
				m.graph.Dismiss()
				return m, nil
			}

		case key.Matches(msg, keys.OpenNode):
			if m.focus == focusGraph {
				m.graph.OpenSelected(m.activeGraph())
				return m, nil
			}

		case key.Matches(msg, keys.ClearGraph):
			if m.focus == focusGraph {
				if sess, ok := m.store.ActiveSession(); ok {
					m.store.ClearGraph(sess.ID)
					m.graph.Dismiss()
					m.focus = focusInput
					m.statusText = "Graph cleared"
				}
				return m, nil
			}

		case key.Matches(msg, keys.Enter):
			switch m.focus {
			case focusSessions:
				if err := m.store.SelectSession(m.sessionCursor); err == nil {
					m.graph.Dismiss()
					m.refreshChat()
					m.chatVP.GotoBottom()
				}
				return m, nil
			case focusGraph:
				m.graph.ActivateCursor(m.activeGraph())
				return m, nil
			case focusInput:
				return m, m.onSubmit()
			}

		case msg.Type == tea.KeyUp:
			switch m.focus {
			case focusChat:
				m.chatVP.LineUp(1)
			case focusSessions:
				if m.sessionCursor > 0 {
					m.sessionCursor--
				}
			case focusGraph:
				m.graph.MoveCursor(-1, m.activeGraph())
			}
			if m.focus != focusInput {
				return m, nil
			}

		case msg.Type == tea.KeyDown:
			switch m.focus {
			case focusChat:
				m.chatVP.LineDown(1)
			case focusSessions:
				if m.sessionCursor < len(m.store.Summaries())-1 {
					m.sessionCursor++
				}
			case focusGraph:
				m.graph.MoveCursor(1, m.activeGraph())
			}
			if m.focus != focusInput {
				return m, nil
			}
		}

	case turnDoneMsg:
		m.refreshChat()
		if sess, ok := m.store.ActiveSession(); ok && sess.ID == msg.sessionID {
			m.chatVP.GotoBottom()
		}
		if !m.anyPending() {
			m.statusText = "Ready"
		}
		return m, nil

	case spinMsg:
		m.spinnerPos = (m.spinnerPos + 1) % len(spinnerFrames)
		if m.anyPending() {
			return m, m.spinTick()
		}
		return m, nil
	}

	var cmd tea.Cmd
	if m.focus == focusInput {
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
	}
	m.chatVP, cmd = m.chatVP.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// onSubmit handles Enter on the input: slash commands first, otherwise a
// search turn against the active session.
func (m *MainModel) onSubmit() tea.Cmd {
	val := strings.TrimSpace(m.input.Value())
	if val == "" {
		return nil
	}

	if strings.HasPrefix(val, "/") {
		return m.runCommand(val)
	}

	sess := m.store.EnsureActiveSession()
	turn, ok := m.dispatcher.BeginTurn(sess.ID, val, m.withGraph)
	if !ok {
		if m.dispatcher.Pending(sess.ID) {
			m.statusText = "A query is already running in this chat"
		}
		return nil
	}
	return m.launch(turn)
}

func (m *MainModel) runCommand(val string) tea.Cmd {
	cmd, arg, _ := strings.Cut(val, " ")
	arg = strings.TrimSpace(arg)

	switch cmd {
	case "/new":
		m.input.Reset()
		m.store.CreateSession()
		m.sessionCursor = m.store.ActiveIndex()
		m.graph.Dismiss()
		m.refreshChat()
		m.statusText = "Started a new chat"
		return nil

	case "/help":
		m.input.Reset()
		m.showHelp = true
		return nil

	case "/clear-graph":
		m.input.Reset()
		if sess, ok := m.store.ActiveSession(); ok {
			m.store.ClearGraph(sess.ID)
			m.graph.Dismiss()
			m.statusText = "Graph cleared"
		}
		return nil

	case "/entities":
		sess := m.store.EnsureActiveSession()
		turn, ok := m.dispatcher.BeginEntityTurn(sess.ID, arg)
		if !ok {
			if arg == "" {
				m.statusText = "usage: /entities <query>"
			}
			return nil
		}
		return m.launch(turn)

	case "/graph":
		sess := m.store.EnsureActiveSession()
		turn, ok := m.dispatcher.BeginSubgraphTurn(sess.ID, arg)
		if !ok {
			if arg == "" {
				m.statusText = "usage: /graph <entity name>"
			}
			return nil
		}
		return m.launch(turn)

	default:
		m.statusText = fmt.Sprintf("unknown command %s", cmd)
		return nil
	}
}

// launch resolves a begun turn off the Update loop. The done message
// carries the captured session id so completion handling never consults
// the active index.
func (m *MainModel) launch(turn *app.Turn) tea.Cmd {
	m.input.Reset()
	m.refreshChat()
	m.chatVP.GotoBottom()
	m.statusText = "Searching…"

	resolve := func() tea.Msg {
		m.dispatcher.ResolveTurn(context.Background(), turn)
		return turnDoneMsg{sessionID: turn.SessionID}
	}
	return tea.Batch(m.spinTick(), resolve)
}

func (m *MainModel) spinTick() tea.Cmd {
	return tea.Tick(120*time.Millisecond, func(time.Time) tea.Msg {
		return spinMsg{}
	})
}

func (m *MainModel) anyPending() bool {
	for _, s := range m.store.Summaries() {
		if s.Pending {
			return true
		}
	}
	return false
}

func (m *MainModel) activeGraph() *app.Snapshot {
	sess, ok := m.store.ActiveSession()
	if !ok {
		return nil
	}
	return sess.Graph
}

func (m *MainModel) cycleFocus() {
	order := []focusArea{focusInput, focusChat, focusSessions}
	if m.activeGraph() != nil {
		order = append(order, focusGraph)
	}
	for i, f := range order {
		if f == m.focus {
			m.focus = order[(i+1)%len(order)]
			if m.focus == focusInput {
				m.input.Focus()
			} else {
				m.input.Blur()
			}
			return
		}
	}
	m.focus = focusInput
	m.input.Focus()
}

func (m *MainModel) chatSize() (int, int) {
	w := m.width - sessionsPaneWidth - 4
	if m.activeGraph() != nil {
		w -= graphPaneWidth
	}
	h := m.height - 8
	return max(20, w), max(5, h)
}

// refreshChat re-renders the active session's messages into the viewport.
func (m *MainModel) refreshChat() {
	sess, ok := m.store.ActiveSession()
	if !ok {
		m.chatVP.SetContent("")
		return
	}
	var b strings.Builder
	for _, msg := range sess.Messages {
		switch msg.Role {
		case app.RoleUser:
			b.WriteString(m.theme.RoleYou.Render("you"))
		default:
			b.WriteString(m.theme.RoleAI.Render("atlas"))
		}
		b.WriteString("\n")
		b.WriteString(msg.Text)
		b.WriteString("\n\n")
	}
	m.chatVP.SetContent(b.String())
}

func (m *MainModel) View() string {
	if !m.ready {
		return "…"
	}
	if m.showHelp {
		return m.help.View()
	}

	top := m.renderTopBar()
	main := lipgloss.JoinHorizontal(lipgloss.Top, m.renderSessions(), m.renderChat(), m.renderGraph())
	input := m.renderInput()
	footer := m.renderFooter()
	return lipgloss.JoinVertical(lipgloss.Left, top, main, input, footer)
}

func (m *MainModel) renderTopBar() string {
	title := m.theme.TopBarTitle.Render("atlas")
	sess, _ := m.store.ActiveSession()
	return m.theme.TopBar.Render(title + "  " + sess.Title)
}

func (m *MainModel) renderSessions() string {
	sums := m.store.Summaries()
	active := m.store.ActiveIndex()

	var b strings.Builder
	b.WriteString(m.theme.PaneTitle.Render("Chats"))
	b.WriteString("\n")
	for i, s := range sums {
		marker := "  "
		if m.focus == focusSessions && i == m.sessionCursor {
			marker = m.theme.NodeCursor.Render("> ")
		}
		style := m.theme.SessionIdle
		if i == active {
			style = m.theme.SessionActive
		}
		line := s.Title
		if s.Pending {
			line += " " + m.theme.Spinner.Render(spinnerFrames[m.spinnerPos])
		}
		b.WriteString(marker + style.Render(truncateLine(line, sessionsPaneWidth-4)) + "\n")
	}

	pane := m.theme.Pane
	if m.focus == focusSessions {
		pane = m.theme.PaneFocused
	}
	_, h := m.chatSize()
	return pane.Width(sessionsPaneWidth - 2).Height(h).Render(clipLines(b.String(), h))
}

func (m *MainModel) renderChat() string {
	pane := m.theme.Pane
	if m.focus == focusChat {
		pane = m.theme.PaneFocused
	}
	return pane.Render(m.chatVP.View())
}

// renderGraph hides the panel entirely when the snapshot is absent; an
// empty-but-present snapshot still shows the panel chrome.
func (m *MainModel) renderGraph() string {
	snap := m.activeGraph()
	if snap == nil {
		return ""
	}
	_, h := m.chatSize()
	return m.graph.View(snap, graphPaneWidth-2, h, m.focus == focusGraph)
}

func (m *MainModel) renderInput() string {
	box := m.theme.InputBox
	if m.focus == focusInput {
		box = m.theme.InputBoxF
	}
	return box.Width(m.width - 2).Render(m.input.View())
}

func (m *MainModel) renderFooter() string {
	status := m.theme.Status.Render(m.statusText)
	if m.anyPending() {
		status = m.theme.Spinner.Render(spinnerFrames[m.spinnerPos]) + " " + status
	}
	return status + "  " + m.help.FooterLine()
}

func truncateLine(s string, limit int) string {
	if limit <= 0 || len([]rune(s)) <= limit {
		return s
	}
	return string([]rune(s)[:limit-1]) + "…"
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
