package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/codeduel/internal/arena"
	"github.com/verte-zerg/codeduel/internal/matchmaking"
	"github.com/verte-zerg/codeduel/internal/model"
)

// SearchKind selects what the waiting screen is waiting for.
type SearchKind int

const (
	// SearchQueue waits in the public matchmaking queue.
	SearchQueue SearchKind = iota
	// SearchHost creates a private lobby and waits for a guest.
	SearchHost
	// SearchGuest joins a private lobby by room id.
	SearchGuest
)

// Matchmaker is the realtime client as seen by the waiting screen.
type Matchmaker interface {
	Duel
	CancelSearch() error
}

type startedMsg struct{ err error }

type duelOpenedMsg struct{ err error }

// SearchModel waits for a match and then hands over to the arena.
type SearchModel struct {
	ctx    context.Context
	client Matchmaker
	arena  *arena.Arena
	kind   SearchKind
	label  string
	begin  func() error
	spin   spinner.Model

	width   int
	height  int
	lobbyID string
	status  string
	opening bool

	err       error
	cancelled bool
}

// NewSearchModel builds the waiting screen. begin sends the request that
// starts the wait; label describes it (mode and language, or a room id).
func NewSearchModel(ctx context.Context, client Matchmaker, a *arena.Arena, kind SearchKind, label string, begin func() error) *SearchModel {
	return &SearchModel{
		ctx:    ctx,
		client: client,
		arena:  a,
		kind:   kind,
		label:  label,
		begin:  begin,
		spin:   spinner.New(spinner.WithSpinner(spinner.Dot)),
	}
}

// Err returns why the wait ended without a match.
func (m *SearchModel) Err() error {
	return m.err
}

// Cancelled reports whether the user cancelled the search.
func (m *SearchModel) Cancelled() bool {
	return m.cancelled
}

// LobbyID returns the room id announced for a hosted lobby.
func (m *SearchModel) LobbyID() string {
	return m.lobbyID
}

// Init implements tea.Model.
func (m *SearchModel) Init() tea.Cmd {
	begin := m.begin
	return tea.Batch(
		m.spin.Tick,
		func() tea.Msg { return startedMsg{err: begin()} },
		waitEvent(m.client.Events()),
	)
}

// Update implements tea.Model.
func (m *SearchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	case startedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, tea.Quit
		}
		return m, nil
	case eventMsg:
		if !msg.ok {
			m.err = matchmaking.ErrClosed
			return m, tea.Quit
		}
		return m.handleEvent(msg.ev)
	case duelOpenedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, tea.Quit
		}
		next := NewArenaModel(m.ctx, m.arena, m.client)
		if m.width > 0 && m.height > 0 {
			next.resize(m.width, m.height)
		}
		return next, next.Init()
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *SearchModel) handleEvent(ev matchmaking.Event) (tea.Model, tea.Cmd) {
	switch e := ev.(type) {
	case matchmaking.LobbyCreated:
		m.lobbyID = e.RoomID
	case matchmaking.MatchFound:
		m.opening = true
		m.status = "Match found! Loading problem..."
		return m, m.openDuel(e.MatchFound)
	case matchmaking.ServerError:
		m.err = fmt.Errorf("server: %s", e.Message)
		return m, tea.Quit
	case matchmaking.UserDisconnected:
		msg := e.Message
		if msg == "" {
			msg = "opponent disconnected"
		}
		m.err = errors.New(msg)
		return m, tea.Quit
	case matchmaking.ConnectionLost:
		m.err = fmt.Errorf("connection lost: %w", e.Err)
		return m, tea.Quit
	case matchmaking.ProtocolError:
		m.status = e.Err.Error()
	}
	return m, waitEvent(m.client.Events())
}

func (m *SearchModel) openDuel(found model.MatchFound) tea.Cmd {
	ctx, a, client := m.ctx, m.arena, m.client
	return func() tea.Msg {
		_, err := a.OpenDuel(ctx, found, client)
		return duelOpenedMsg{err: err}
	}
}

func (m *SearchModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		if m.opening {
			return m, nil
		}
		if err := m.client.CancelSearch(); err != nil {
			if errors.Is(err, matchmaking.ErrCannotCancel) {
				m.status = "Match already found"
				return m, nil
			}
			m.err = err
			return m, tea.Quit
		}
		m.cancelled = true
		return m, tea.Quit
	}
	return m, nil
}

// View implements tea.Model.
func (m *SearchModel) View() string {
	var body string
	switch m.kind {
	case SearchHost:
		body = lobbyView(m.lobbyID, m.spin.View())
	case SearchGuest:
		body = m.spin.View() + textStyle.Render("Joining room "+m.label+"...")
	default:
		body = m.spin.View() + textStyle.Render("Searching for a "+m.label+" match...")
	}
	lines := []string{body}
	if m.status != "" {
		lines = append(lines, "", mutedStyle.Render(m.status))
	}
	if !m.opening {
		lines = append(lines, "", footerStyle.Render("esc cancel"))
	}
	content := strings.Join(lines, "\n")
	if m.width == 0 || m.height == 0 {
		return content
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
}
