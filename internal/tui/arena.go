package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/codeduel/internal/arena"
	"github.com/verte-zerg/codeduel/internal/editor"
	"github.com/verte-zerg/codeduel/internal/matchmaking"
	"github.com/verte-zerg/codeduel/internal/model"
	"github.com/verte-zerg/codeduel/internal/session"
)

const (
	consoleHeight = 6
	chatHeight    = 3
	chatHistory   = 50
)

// Duel is the realtime client as seen by the arena screen.
type Duel interface {
	arena.Match
	Events() <-chan matchmaking.Event
	SendMessage(text string) (matchmaking.ChatMessage, error)
}

type outcomeMsg struct {
	action string
	out    arena.Outcome
	err    error
}

type tickMsg struct {
	left int
	ok   bool
}

type eventMsg struct {
	ev matchmaking.Event
	ok bool
}

func waitTick(ch <-chan int) tea.Cmd {
	return func() tea.Msg {
		left, ok := <-ch
		return tickMsg{left: left, ok: ok}
	}
}

func waitEvent(ch <-chan matchmaking.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		return eventMsg{ev: ev, ok: ok}
	}
}

// ArenaModel is the problem screen for practice and duels.
type ArenaModel struct {
	ctx     context.Context
	arena   *arena.Arena
	duel    Duel
	editor  *editor.Editor
	problem model.Problem

	statement viewport.Model
	chatInput textinput.Model
	spin      spinner.Model

	width  int
	height int

	console      arena.Output
	busy         string
	notice       string
	chat         []matchmaking.ChatMessage
	chatFocus    bool
	confirmLeave bool
	remaining    int
	result       *arena.Result
	forfeited    bool
}

// NewArenaModel builds the screen for the problem open in a. duel is nil in practice.
func NewArenaModel(ctx context.Context, a *arena.Arena, duel Duel) *ArenaModel {
	p, _ := a.Problem()
	input := textinput.New()
	input.Placeholder = "Say something..."
	input.CharLimit = 200
	input.Prompt = "> "

	m := &ArenaModel{
		ctx:       ctx,
		arena:     a,
		duel:      duel,
		editor:    editor.New(a.Code()),
		problem:   p,
		statement: viewport.New(0, 0),
		chatInput: input,
		spin:      spinner.New(spinner.WithSpinner(spinner.Dot)),
	}
	if clock := a.Clock(); clock != nil {
		m.remaining = clock.Remaining()
	}
	return m
}

// Init implements tea.Model.
func (m *ArenaModel) Init() tea.Cmd {
	cmds := []tea.Cmd{m.spin.Tick}
	if clock := m.arena.Clock(); clock != nil {
		cmds = append(cmds, waitTick(clock.Ticks()))
	}
	if m.duel != nil {
		cmds = append(cmds, waitEvent(m.duel.Events()))
	}
	return tea.Batch(cmds...)
}

// Result returns the duel result, if the duel ended on screen.
func (m *ArenaModel) Result() (arena.Result, bool) {
	if m.result == nil {
		return arena.Result{}, false
	}
	return *m.result, true
}

// Forfeited reports whether the user left an unfinished duel.
func (m *ArenaModel) Forfeited() bool {
	return m.forfeited
}

// Update implements tea.Model.
func (m *ArenaModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	case tickMsg:
		if !msg.ok {
			// The final value can be coalesced away; the clock still knows.
			if clock := m.arena.Clock(); clock != nil && clock.Expired() {
				m.timeUp()
			}
			return m, nil
		}
		m.remaining = msg.left
		if msg.left == 0 {
			m.timeUp()
		}
		return m, waitTick(m.arena.Clock().Ticks())
	case eventMsg:
		if !msg.ok {
			return m, nil
		}
		m.handleEvent(msg.ev)
		return m, waitEvent(m.duel.Events())
	case outcomeMsg:
		m.handleOutcome(msg)
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *ArenaModel) handleEvent(ev matchmaking.Event) {
	switch e := ev.(type) {
	case matchmaking.ChatMessage:
		m.chat = append(m.chat, e)
		if len(m.chat) > chatHistory {
			m.chat = m.chat[len(m.chat)-chatHistory:]
		}
	case matchmaking.MatchOver, matchmaking.UserDisconnected:
		res, ok := m.arena.HandleEvent(ev)
		if !ok {
			return
		}
		m.result = &res
		m.confirmLeave = false
		if res.Default && res.Message != "" {
			m.notice = res.Message
		}
	case matchmaking.ServerError:
		m.notice = "Server: " + e.Message
	case matchmaking.ConnectionLost:
		if m.result == nil && !m.forfeited {
			m.notice = fmt.Sprintf("Connection lost: %v", e.Err)
		}
	}
}

func (m *ArenaModel) handleOutcome(msg outcomeMsg) {
	m.busy = ""
	if msg.err != nil {
		prefix := "Error: "
		if msg.action == "run" && !msg.out.Judged {
			prefix = "Execution Error: "
		}
		text := prefix + msg.err.Error()
		if errors.Is(msg.err, session.ErrNotAuthenticated) || errors.Is(msg.err, session.ErrSessionExpired) {
			text = "Please login: " + msg.err.Error()
		}
		m.console = arena.Output{Text: text, Error: true}
		return
	}
	m.console = msg.out.Output
	if !msg.out.Judged || !msg.out.Verdict.Accepted() || m.arena.Mode() != arena.Solo {
		return
	}
	if msg.out.Scored {
		m.notice = fmt.Sprintf("Problem Solved! +%d Points", msg.out.Verdict.PointsAwarded)
	} else {
		m.notice = "Solution Accepted! (No points awarded - You solved this before)"
	}
}

func (m *ArenaModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key == "ctrl+c" {
		m.leave()
		return m, tea.Quit
	}
	if m.confirmLeave {
		m.confirmLeave = false
		if key == "y" || key == "Y" {
			m.leave()
			return m, tea.Quit
		}
		return m, nil
	}
	if m.chatFocus {
		return m.handleChatKey(msg)
	}

	switch key {
	case "esc":
		if m.duel != nil && !m.arena.Finished() {
			m.confirmLeave = true
			return m, nil
		}
		m.leave()
		return m, tea.Quit
	case "ctrl+r":
		return m, m.start("run", "Compiling...", m.arena.Run)
	case "ctrl+s":
		if m.result != nil {
			return m, nil
		}
		return m, m.start("submit", "Submitting to Judge...", m.arena.Submit)
	case "ctrl+l":
		if m.busy != "" {
			return m, nil
		}
		m.arena.CycleLanguage()
		m.editor.SetText(m.arena.Code())
		return m, nil
	case "ctrl+t":
		if m.duel == nil || m.result != nil {
			return m, nil
		}
		m.chatFocus = true
		return m, m.chatInput.Focus()
	case "pgup", "pgdown":
		var cmd tea.Cmd
		m.statement, cmd = m.statement.Update(msg)
		return m, cmd
	}

	if m.editKey(msg) {
		m.arena.SetCode(m.editor.Text())
	}
	return m, nil
}

// editKey applies msg to the editor and reports whether the text changed.
func (m *ArenaModel) editKey(msg tea.KeyMsg) bool {
	switch msg.Type {
	case tea.KeyRunes:
		m.editor.Insert(msg.Runes...)
		return true
	case tea.KeySpace:
		m.editor.Insert(' ')
		return true
	case tea.KeyEnter:
		m.editor.Newline()
		return true
	case tea.KeyTab:
		m.editor.Tab()
		return true
	case tea.KeyBackspace:
		m.editor.Backspace()
		return true
	case tea.KeyDelete:
		m.editor.Delete()
		return true
	case tea.KeyLeft:
		m.editor.Left()
	case tea.KeyRight:
		m.editor.Right()
	case tea.KeyUp:
		m.editor.Up()
	case tea.KeyDown:
		m.editor.Down()
	case tea.KeyHome:
		m.editor.Home()
	case tea.KeyEnd:
		m.editor.End()
	}
	return false
}

func (m *ArenaModel) handleChatKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "ctrl+t":
		m.chatFocus = false
		m.chatInput.Blur()
		return m, nil
	case "enter":
		text := m.chatInput.Value()
		if strings.TrimSpace(text) == "" {
			return m, nil
		}
		if _, err := m.duel.SendMessage(text); err != nil {
			m.notice = "Chat: " + err.Error()
			return m, nil
		}
		m.chatInput.Reset()
		return m, nil
	}
	var cmd tea.Cmd
	m.chatInput, cmd = m.chatInput.Update(msg)
	return m, cmd
}

func (m *ArenaModel) start(action, label string, call func(context.Context) (arena.Outcome, error)) tea.Cmd {
	if m.busy != "" {
		return nil
	}
	m.busy = label
	m.notice = ""
	m.arena.SetCode(m.editor.Text())
	ctx := m.ctx
	return func() tea.Msg {
		out, err := call(ctx)
		return outcomeMsg{action: action, out: out, err: err}
	}
}

func (m *ArenaModel) leave() {
	forfeited, err := m.arena.Leave()
	if err != nil {
		logErrf("failed to leave match: %v\n", err)
	}
	m.forfeited = forfeited
}

func (m *ArenaModel) resize(width, height int) {
	m.width = width
	m.height = height
	leftWidth, _, bodyHeight := m.layout()
	m.statement = viewport.New(leftWidth, bodyHeight)
	m.statement.SetContent(renderProblem(m.problem, leftWidth))
	m.chatInput.Width = width - 4
}

func (m *ArenaModel) layout() (leftWidth, rightWidth, bodyHeight int) {
	leftWidth = m.width * 2 / 5
	rightWidth = m.width - leftWidth - 1
	bodyHeight = m.height - 3 - consoleHeight
	if m.duel != nil {
		bodyHeight -= chatHeight + 1
	}
	if bodyHeight < 3 {
		bodyHeight = 3
	}
	if rightWidth < 1 {
		rightWidth = 1
	}
	return leftWidth, rightWidth, bodyHeight
}

func (m *ArenaModel) timeUp() {
	m.remaining = 0
	if m.result == nil {
		m.notice = "Time's up!"
	}
}

// View implements tea.Model.
func (m *ArenaModel) View() string {
	if m.width == 0 || m.height == 0 {
		return m.editor.View(m.arena.Language(), 0, 0)
	}
	leftWidth, rightWidth, bodyHeight := m.layout()

	left := lipgloss.NewStyle().Width(leftWidth).Height(bodyHeight).Render(m.statement.View())
	right := lipgloss.NewStyle().Width(rightWidth).Height(bodyHeight).
		Render(m.editor.View(m.arena.Language(), rightWidth, bodyHeight))
	sep := mutedStyle.Render(strings.TrimRight(strings.Repeat("│\n", bodyHeight), "\n"))
	body := lipgloss.JoinHorizontal(lipgloss.Top, left, sep, right)

	parts := []string{m.renderHeader(), body, m.renderConsole()}
	if m.duel != nil {
		parts = append(parts, m.renderChat())
	}
	parts = append(parts, m.renderFooter())
	return strings.Join(parts, "\n")
}

func (m *ArenaModel) renderHeader() string {
	segments := []string{
		titleStyle.Render(m.problem.Title),
		difficultyLabel(m.problem.Difficulty),
		mutedStyle.Render(m.arena.Language()),
	}
	if m.duel != nil {
		opp := m.arena.Opponent().Username
		if opp == "" {
			opp = "opponent"
		}
		segments = append(segments, textStyle.Render("vs "+opp))
		if m.arena.Match().IsRanked {
			segments = append(segments, mutedStyle.Render("ranked"))
		}
		segments = append(segments, titleStyle.Render(arena.FormatClock(m.remaining)))
	}
	return strings.Join(segments, "  ")
}

func (m *ArenaModel) renderConsole() string {
	title := headingStyle.Render("Console")
	if m.busy != "" {
		title += " " + m.spin.View() + mutedStyle.Render(m.busy)
	}
	style := textStyle
	if m.console.Error {
		style = errorStyle
	} else if strings.HasPrefix(m.console.Text, "Status: "+model.StatusAccepted) {
		style = successStyle
	}
	lines := strings.Split(wrapText(m.console.Text, style, m.width), "\n")
	if len(lines) > consoleHeight {
		lines = lines[len(lines)-consoleHeight:]
	}
	for len(lines) < consoleHeight {
		lines = append(lines, "")
	}
	return title + "\n" + strings.Join(lines, "\n")
}

func (m *ArenaModel) renderChat() string {
	start := len(m.chat) - chatHeight
	if start < 0 {
		start = 0
	}
	lines := make([]string, 0, chatHeight+1)
	for _, line := range m.chat[start:] {
		who := line.Username
		if line.Mine {
			who = "you"
		}
		lines = append(lines, mutedStyle.Render(who+": ")+textStyle.Render(line.Message))
	}
	for len(lines) < chatHeight {
		lines = append(lines, "")
	}
	if m.chatFocus {
		lines = append(lines, m.chatInput.View())
	} else {
		lines = append(lines, footerStyle.Render("ctrl+t chat"))
	}
	return strings.Join(lines, "\n")
}

func (m *ArenaModel) renderFooter() string {
	switch {
	case m.confirmLeave:
		return errorStyle.Render("Leave match? You will lose points (Forfeit). y/N")
	case m.result != nil:
		return renderResult(*m.result) + footerStyle.Render("  esc to exit")
	case m.notice != "":
		return titleStyle.Render(m.notice) + footerStyle.Render("  "+keyHelp)
	}
	return footerStyle.Render(keyHelp)
}

const keyHelp = "ctrl+r run · ctrl+s submit · ctrl+l language · pgup/pgdn scroll · esc leave"

func renderResult(res arena.Result) string {
	if res.Won {
		points := "0"
		if res.Details.PointsChange > 0 {
			points = fmt.Sprintf("+%d", res.Details.PointsChange)
		}
		line := successStyle.Render(fmt.Sprintf("VICTORY %s Points", points))
		if res.Details.NewRank != "" {
			line += mutedStyle.Render(" · " + res.Details.NewRank)
		}
		return line
	}
	line := errorStyle.Render(fmt.Sprintf("DEFEAT %d Points", res.Details.PointsChange))
	if res.Details.NewRank != "" {
		line += mutedStyle.Render(" · " + res.Details.NewRank)
	}
	return line
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
