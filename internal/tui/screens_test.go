package tui

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/codeduel/internal/api"
	"github.com/verte-zerg/codeduel/internal/arena"
	"github.com/verte-zerg/codeduel/internal/executor"
	"github.com/verte-zerg/codeduel/internal/matchmaking"
	"github.com/verte-zerg/codeduel/internal/model"
)

type stubCatalog struct{ p model.Problem }

func (c stubCatalog) FetchAll(context.Context) error { return nil }
func (c stubCatalog) Lookup(ref string) (model.Problem, bool) {
	return c.p, ref == string(c.p.ID)
}

type stubJudge struct{ result model.SubmitResult }

func (j stubJudge) Submit(context.Context, api.SubmitRequest) (model.SubmitResult, error) {
	return j.result, nil
}

type stubRunner struct{ output string }

func (r stubRunner) Execute(context.Context, string, string) (executor.Result, error) {
	return executor.Result{Output: r.output}, nil
}

type stubSolved struct{}

func (stubSolved) Lookup(model.ID, string) (model.SolvedProblem, bool) {
	return model.SolvedProblem{}, false
}
func (stubSolved) IsSolved(model.ID) bool                            { return false }
func (stubSolved) Record(context.Context, model.SolvedProblem) error { return nil }

type stubSession struct{}

func (stubSession) Guard() error   { return nil }
func (stubSession) UserID() string { return "u1" }

type stubProfile struct{}

func (stubProfile) Current() *model.Profile          { return &model.Profile{} }
func (stubProfile) ApplyLocalPatch(model.StatsPatch) {}

type fakeDuel struct {
	events    chan matchmaking.Event
	state     matchmaking.State
	sent      []string
	forfeits  int
	cancels   int
	cancelErr error
}

func newFakeDuel() *fakeDuel {
	return &fakeDuel{events: make(chan matchmaking.Event, 8), state: matchmaking.StateMatched}
}

func (d *fakeDuel) Events() <-chan matchmaking.Event { return d.events }
func (d *fakeDuel) State() matchmaking.State         { return d.state }
func (d *fakeDuel) BeginSession() error {
	d.state = matchmaking.StateInSession
	return nil
}
func (d *fakeDuel) ReportWin(model.ID) error { return nil }
func (d *fakeDuel) Forfeit() error {
	d.forfeits++
	d.state = matchmaking.StateForfeited
	return nil
}
func (d *fakeDuel) SendMessage(text string) (matchmaking.ChatMessage, error) {
	d.sent = append(d.sent, text)
	return matchmaking.ChatMessage{Message: text, Mine: true}, nil
}
func (d *fakeDuel) CancelSearch() error {
	d.cancels++
	return d.cancelErr
}

var problem = model.Problem{
	ID:          "p1",
	Title:       "Echo",
	Difficulty:  model.DifficultyEasy,
	Description: "Print the input.",
	StarterCode: map[string]string{"Python": "x = 1", "JavaScript": "let x = 1"},
	DriverCode:  map[string]string{"Python": "{{USER_CODE}}"},
}

func newTestArena(judge stubJudge) *arena.Arena {
	return arena.New(stubCatalog{p: problem}, judge, stubRunner{output: "hi\n"}, stubSolved{}, stubSession{}, stubProfile{},
		arena.Config{Language: "Python", MatchSeconds: 90, Tick: time.Hour}, nil)
}

func key(s string) tea.KeyMsg {
	switch s {
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "ctrl+r":
		return tea.KeyMsg{Type: tea.KeyCtrlR}
	case "ctrl+s":
		return tea.KeyMsg{Type: tea.KeyCtrlS}
	case "ctrl+l":
		return tea.KeyMsg{Type: tea.KeyCtrlL}
	case "ctrl+t":
		return tea.KeyMsg{Type: tea.KeyCtrlT}
	case "backspace":
		return tea.KeyMsg{Type: tea.KeyBackspace}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func isQuit(cmd tea.Cmd) bool {
	if cmd == nil {
		return false
	}
	_, ok := cmd().(tea.QuitMsg)
	return ok
}

func TestArenaEditingUpdatesCode(t *testing.T) {
	a := newTestArena(stubJudge{})
	_, err := a.OpenSolo(context.Background(), "p1")
	require.NoError(t, err)
	m := NewArenaModel(context.Background(), a, nil)

	m.Update(key("ab"))
	m.Update(key("backspace"))
	assert.Equal(t, "ax = 1", a.Code())

	m.Update(key("ctrl+l"))
	assert.Equal(t, "JavaScript", a.Language())
	assert.Equal(t, "let x = 1", m.editor.Text())
}

func TestArenaRunShowsOutput(t *testing.T) {
	a := newTestArena(stubJudge{})
	_, err := a.OpenSolo(context.Background(), "p1")
	require.NoError(t, err)
	m := NewArenaModel(context.Background(), a, nil)

	_, cmd := m.Update(key("ctrl+r"))
	require.NotNil(t, cmd)
	assert.Equal(t, "Compiling...", m.busy)

	_, again := m.Update(key("ctrl+r"))
	assert.Nil(t, again, "a second run waits for the first")

	m.Update(cmd())
	assert.Empty(t, m.busy)
	assert.Equal(t, arena.Output{Text: "hi\n"}, m.console)
}

func TestArenaSubmitSoloNotice(t *testing.T) {
	a := newTestArena(stubJudge{result: model.SubmitResult{Success: true, Status: model.StatusAccepted, PointsAwarded: 5}})
	_, err := a.OpenSolo(context.Background(), "p1")
	require.NoError(t, err)
	m := NewArenaModel(context.Background(), a, nil)

	_, cmd := m.Update(key("ctrl+s"))
	require.NotNil(t, cmd)
	m.Update(cmd())
	assert.Equal(t, "Problem Solved! +5 Points", m.notice)
	assert.False(t, m.console.Error)
}

func TestArenaEscInPracticeQuits(t *testing.T) {
	a := newTestArena(stubJudge{})
	_, err := a.OpenSolo(context.Background(), "p1")
	require.NoError(t, err)
	m := NewArenaModel(context.Background(), a, nil)

	_, cmd := m.Update(key("esc"))
	assert.True(t, isQuit(cmd))
	assert.False(t, m.Forfeited())
}

func openTestDuel(t *testing.T) (*ArenaModel, *fakeDuel) {
	t.Helper()
	a := newTestArena(stubJudge{})
	d := newFakeDuel()
	_, err := a.OpenDuel(context.Background(), model.MatchFound{
		RoomID:    "r1",
		ProblemID: "p1",
		Players:   []model.Player{{ID: "u1", Username: "me"}, {ID: "u2", Username: "rival"}},
	}, d)
	require.NoError(t, err)
	t.Cleanup(a.Close)
	m := NewArenaModel(context.Background(), a, d)
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return m, d
}

func TestDuelLeaveAsksForConfirmation(t *testing.T) {
	m, d := openTestDuel(t)

	_, cmd := m.Update(key("esc"))
	assert.False(t, isQuit(cmd))
	assert.True(t, m.confirmLeave)
	assert.Contains(t, ansi.Strip(m.View()), "Forfeit")

	m.Update(key("n"))
	assert.False(t, m.confirmLeave)
	assert.Zero(t, d.forfeits)

	m.Update(key("esc"))
	_, cmd = m.Update(key("y"))
	assert.True(t, isQuit(cmd))
	assert.Equal(t, 1, d.forfeits)
	assert.True(t, m.Forfeited())
}

func TestDuelMatchOverShowsResult(t *testing.T) {
	m, d := openTestDuel(t)

	m.Update(eventMsg{ev: matchmaking.MatchOver{
		WinnerID:   "u1",
		WinDetails: model.OutcomeDetails{PointsChange: 25, NewRank: "Gold I"},
	}, ok: true})
	res, ok := m.Result()
	require.True(t, ok)
	assert.True(t, res.Won)
	view := ansi.Strip(m.View())
	assert.Contains(t, view, "VICTORY +25 Points")
	assert.Contains(t, view, "vs rival")

	_, cmd := m.Update(key("esc"))
	assert.True(t, isQuit(cmd))
	assert.Zero(t, d.forfeits)
}

func TestDuelChat(t *testing.T) {
	m, d := openTestDuel(t)

	m.Update(key("ctrl+t"))
	require.True(t, m.chatFocus)
	m.Update(key("gg"))
	m.Update(key("enter"))
	assert.Equal(t, []string{"gg"}, d.sent)
	assert.Empty(t, m.chatInput.Value())

	m.Update(eventMsg{ev: matchmaking.ChatMessage{Message: "gg", Username: "me", Mine: true}, ok: true})
	m.Update(eventMsg{ev: matchmaking.ChatMessage{Message: "glhf", Username: "rival"}, ok: true})
	view := ansi.Strip(m.View())
	assert.Contains(t, view, "you: gg")
	assert.Contains(t, view, "rival: glhf")

	m.Update(key("esc"))
	assert.False(t, m.chatFocus)
	assert.False(t, m.confirmLeave)
}

func TestDuelClockTicks(t *testing.T) {
	m, _ := openTestDuel(t)
	assert.Contains(t, ansi.Strip(m.View()), "1:30")

	m.Update(tickMsg{left: 0, ok: true})
	assert.Equal(t, "Time's up!", m.notice)
	assert.Contains(t, ansi.Strip(m.View()), "0:00")
}

func TestDuelClockExpiredWhenTicksClose(t *testing.T) {
	a := arena.New(stubCatalog{p: problem}, stubJudge{}, stubRunner{}, stubSolved{}, stubSession{}, stubProfile{},
		arena.Config{Language: "Python", MatchSeconds: 1, Tick: time.Millisecond}, nil)
	d := newFakeDuel()
	_, err := a.OpenDuel(context.Background(), model.MatchFound{
		RoomID:    "r1",
		ProblemID: "p1",
		Players:   []model.Player{{ID: "u1", Username: "me"}, {ID: "u2", Username: "rival"}},
	}, d)
	require.NoError(t, err)
	t.Cleanup(a.Close)
	m := NewArenaModel(context.Background(), a, d)
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})

	for range a.Clock().Ticks() {
	}
	m.Update(tickMsg{ok: false})
	assert.Equal(t, "Time's up!", m.notice)
	assert.Contains(t, ansi.Strip(m.View()), "0:00")
}

func TestDuelClockStoppedEarlyKeepsNotice(t *testing.T) {
	m, _ := openTestDuel(t)
	m.arena.Clock().Stop()
	m.Update(tickMsg{ok: false})
	assert.Empty(t, m.notice)
	assert.Contains(t, ansi.Strip(m.View()), "1:30")
}

func TestSearchLobbyShowsRoomID(t *testing.T) {
	d := newFakeDuel()
	d.state = matchmaking.StateSearching
	m := NewSearchModel(context.Background(), d, newTestArena(stubJudge{}), SearchHost, "", func() error { return nil })

	m.Update(eventMsg{ev: matchmaking.LobbyCreated{RoomID: "ROOM42"}, ok: true})
	assert.Equal(t, "ROOM42", m.LobbyID())
	assert.Contains(t, ansi.Strip(m.View()), "ROOM42")

	_, cmd := m.Update(key("esc"))
	assert.True(t, isQuit(cmd))
	assert.True(t, m.Cancelled())
	assert.Equal(t, 1, d.cancels)
}

func TestSearchCannotCancelAfterMatch(t *testing.T) {
	d := newFakeDuel()
	d.cancelErr = matchmaking.ErrCannotCancel
	m := NewSearchModel(context.Background(), d, newTestArena(stubJudge{}), SearchQueue, "ranked Python", func() error { return nil })

	_, cmd := m.Update(key("esc"))
	assert.Nil(t, cmd)
	assert.False(t, m.Cancelled())
	assert.Equal(t, "Match already found", m.status)
}

func TestSearchHandsOverToArena(t *testing.T) {
	d := newFakeDuel()
	a := newTestArena(stubJudge{})
	t.Cleanup(a.Close)
	m := NewSearchModel(context.Background(), d, a, SearchQueue, "casual Python", func() error { return nil })
	m.Update(tea.WindowSizeMsg{Width: 80, Height: 30})

	_, cmd := m.Update(eventMsg{ev: matchmaking.MatchFound{MatchFound: model.MatchFound{RoomID: "r1", ProblemID: "p1"}}, ok: true})
	require.NotNil(t, cmd)
	next, _ := m.Update(cmd())
	arenaModel, ok := next.(*ArenaModel)
	require.True(t, ok)
	assert.Equal(t, matchmaking.StateInSession, d.state)
	assert.Equal(t, 80, arenaModel.width)
}

func TestSearchServerErrorQuits(t *testing.T) {
	d := newFakeDuel()
	m := NewSearchModel(context.Background(), d, newTestArena(stubJudge{}), SearchGuest, "ROOM1", func() error { return nil })

	_, cmd := m.Update(eventMsg{ev: matchmaking.ServerError{Message: "Room not found"}, ok: true})
	assert.True(t, isQuit(cmd))
	require.Error(t, m.Err())
	assert.Contains(t, m.Err().Error(), "Room not found")
}
