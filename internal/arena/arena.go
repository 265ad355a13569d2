// Package arena runs one problem session: solo practice or a duel round.
// It owns the selected language, the code, the console and the duel clock.
package arena

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/verte-zerg/codeduel/internal/api"
	"github.com/verte-zerg/codeduel/internal/executor"
	"github.com/verte-zerg/codeduel/internal/matchmaking"
	"github.com/verte-zerg/codeduel/internal/model"
)

var (
	ErrProblemNotFound = errors.New("problem not found")
	ErrNotOpen         = errors.New("no problem is open")
)

const emptyCodeMessage = "Error: Empty code."

// Default duel settings.
const (
	DefaultMatchSeconds = 1800
	DefaultTick         = time.Second
	DefaultWinPoints    = 20
	DefaultWinRank      = "Unchanged (Default)"
)

// Mode tells solo practice from a duel.
type Mode int

const (
	Solo Mode = iota
	Duel
)

func (m Mode) String() string {
	if m == Duel {
		return "duel"
	}
	return "solo"
}

// Catalog resolves problems, fetching the catalog when needed.
type Catalog interface {
	FetchAll(ctx context.Context) error
	Lookup(ref string) (model.Problem, bool)
}

// Judge is the authoritative submission endpoint.
type Judge interface {
	Submit(ctx context.Context, req api.SubmitRequest) (model.SubmitResult, error)
}

// Runner executes code outside the judge.
type Runner interface {
	Execute(ctx context.Context, language, source string) (executor.Result, error)
}

// Solved is the local store of accepted solutions.
type Solved interface {
	Lookup(id model.ID, language string) (model.SolvedProblem, bool)
	IsSolved(id model.ID) bool
	Record(ctx context.Context, sp model.SolvedProblem) error
}

// Session identifies the signed-in user.
type Session interface {
	Guard() error
	UserID() string
}

// Profile receives optimistic stats updates.
type Profile interface {
	Current() *model.Profile
	ApplyLocalPatch(patch model.StatsPatch)
}

// Match is the realtime side of a duel.
type Match interface {
	State() matchmaking.State
	BeginSession() error
	ReportWin(problemID model.ID) error
	Forfeit() error
}

// Output is one console message.
type Output struct {
	Text  string
	Error bool
}

// Outcome is what Run or Submit produced.
type Outcome struct {
	Output Output
	// Judged is set when the code went through the backend judge.
	Judged  bool
	Verdict model.SubmitResult
	// Scored is set when a solo solve patched the local stats.
	Scored bool
	// Reported is set when a duel win was sent to the server.
	Reported bool
}

// Result is the end of a duel.
type Result struct {
	Won     bool
	Default bool
	Details model.OutcomeDetails
	Message string
	Patch   model.StatsPatch
}

// Config holds arena settings.
type Config struct {
	Language     string
	MatchSeconds int
	Tick         time.Duration
}

// Arena is a single problem session.
type Arena struct {
	catalog Catalog
	judge   Judge
	runner  Runner
	solved  Solved
	session Session
	profile Profile
	cfg     Config
	log     *zap.Logger
	now     func() time.Time

	mu       sync.Mutex
	mode     Mode
	problem  *model.Problem
	match    model.MatchFound
	opponent model.Player
	duel     Match
	language string
	code     string
	result   *Result
	left     bool
	clock    *Countdown
}

// New builds an arena with nothing open.
func New(catalog Catalog, judge Judge, runner Runner, solvedStore Solved, sess Session, prof Profile, cfg Config, log *zap.Logger) *Arena {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.Language == "" {
		cfg.Language = "Python"
	}
	if cfg.MatchSeconds <= 0 {
		cfg.MatchSeconds = DefaultMatchSeconds
	}
	if cfg.Tick <= 0 {
		cfg.Tick = DefaultTick
	}
	return &Arena{
		catalog: catalog,
		judge:   judge,
		runner:  runner,
		solved:  solvedStore,
		session: sess,
		profile: prof,
		cfg:     cfg,
		log:     log,
		now:     time.Now,
	}
}

// OpenSolo loads a practice problem by id or slug.
func (a *Arena) OpenSolo(ctx context.Context, ref string) (model.Problem, error) {
	p, err := a.resolve(ctx, ref)
	if err != nil {
		return model.Problem{}, err
	}
	a.mu.Lock()
	a.reset(Solo, p)
	a.mu.Unlock()
	a.log.Info("solo opened", zap.String("problem", string(p.ID)))
	return p, nil
}

// OpenDuel loads the problem of a found match and starts the match clock.
func (a *Arena) OpenDuel(ctx context.Context, m model.MatchFound, duel Match) (model.Problem, error) {
	if m.RoomID == "" || m.ProblemID == "" {
		return model.Problem{}, matchmaking.ErrIncompleteMatch
	}
	p, err := a.resolve(ctx, string(m.ProblemID))
	if err != nil {
		return model.Problem{}, err
	}
	if duel != nil && duel.State() == matchmaking.StateMatched {
		if err := duel.BeginSession(); err != nil {
			return model.Problem{}, err
		}
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.reset(Duel, p)
	a.match = m
	a.duel = duel
	if opp, ok := m.Opponent(a.session.UserID()); ok {
		a.opponent = opp
	}
	a.clock = StartCountdown(a.cfg.MatchSeconds, a.cfg.Tick)
	a.log.Info("duel opened",
		zap.String("room", m.RoomID),
		zap.String("problem", string(p.ID)),
		zap.Bool("ranked", m.IsRanked),
		zap.String("opponent", a.opponent.Username))
	return p, nil
}

func (a *Arena) resolve(ctx context.Context, ref string) (model.Problem, error) {
	if err := a.catalog.FetchAll(ctx); err != nil {
		return model.Problem{}, err
	}
	p, ok := a.catalog.Lookup(ref)
	if !ok {
		return model.Problem{}, fmt.Errorf("%w: %s", ErrProblemNotFound, ref)
	}
	return p, nil
}

// reset replaces the open problem. Callers hold a.mu.
func (a *Arena) reset(mode Mode, p model.Problem) {
	if a.clock != nil {
		a.clock.Stop()
		a.clock = nil
	}
	a.mode = mode
	a.problem = &p
	a.match = model.MatchFound{}
	a.opponent = model.Player{}
	a.duel = nil
	a.result = nil
	a.left = false
	a.selectLanguage(a.cfg.Language)
}

// SetLanguage switches language and loads that language's code.
func (a *Arena) SetLanguage(language string) string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.problem == nil {
		a.language = language
		return ""
	}
	a.selectLanguage(language)
	return a.code
}

// CycleLanguage moves to the next supported language.
func (a *Arena) CycleLanguage() string {
	langs := executor.Languages()
	a.mu.Lock()
	next := langs[0]
	for i, l := range langs {
		if strings.EqualFold(l, a.language) {
			next = langs[(i+1)%len(langs)]
			break
		}
	}
	a.mu.Unlock()
	a.SetLanguage(next)
	return next
}

// selectLanguage prefers a stored solution over starter code. Callers hold a.mu.
func (a *Arena) selectLanguage(language string) {
	a.language = language
	if sp, ok := a.solved.Lookup(a.problem.ID, language); ok && sp.Code != "" {
		a.code = sp.Code
		return
	}
	a.code = StarterCode(*a.problem, language)
}

// SetCode replaces the code under edit.
func (a *Arena) SetCode(code string) {
	a.mu.Lock()
	a.code = code
	a.mu.Unlock()
}

// Code returns the code under edit.
func (a *Arena) Code() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.code
}

// Language returns the selected language.
func (a *Arena) Language() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.language
}

// Problem returns the open problem.
func (a *Arena) Problem() (model.Problem, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.problem == nil {
		return model.Problem{}, false
	}
	return *a.problem, true
}

// Mode returns whether the arena hosts practice or a duel.
func (a *Arena) Mode() Mode {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.mode
}

// Opponent returns the other duel player.
func (a *Arena) Opponent() model.Player {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.opponent
}

// Match returns the duel room.
func (a *Arena) Match() model.MatchFound {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.match
}

// Clock returns the duel countdown, or nil in practice.
func (a *Arena) Clock() *Countdown {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.clock
}

// Result returns the duel result once the match is over.
func (a *Arena) Result() (Result, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.result == nil {
		return Result{}, false
	}
	return *a.result, true
}

// Run executes the code through its driver template. Languages without a
// driver go to the judge instead.
func (a *Arena) Run(ctx context.Context) (Outcome, error) {
	a.mu.Lock()
	if a.problem == nil {
		a.mu.Unlock()
		return Outcome{}, ErrNotOpen
	}
	p, lang, code := *a.problem, a.language, a.code
	a.mu.Unlock()

	if strings.TrimSpace(code) == "" {
		return Outcome{Output: Output{Text: emptyCodeMessage, Error: true}}, nil
	}
	tpl, ok := DriverTemplate(p, lang)
	if !ok {
		a.log.Debug("no driver template, submitting", zap.String("language", lang))
		return a.Submit(ctx)
	}

	res, err := a.runner.Execute(ctx, lang, WrapDriver(tpl, code))
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{Output: Output{Text: res.Display(), Error: res.Failed()}}, nil
}

// Submit sends the code to the judge and applies the consequences of an
// accepted verdict.
func (a *Arena) Submit(ctx context.Context) (Outcome, error) {
	if err := a.session.Guard(); err != nil {
		return Outcome{}, err
	}
	a.mu.Lock()
	if a.problem == nil {
		a.mu.Unlock()
		return Outcome{}, ErrNotOpen
	}
	p, lang, code, mode := *a.problem, a.language, a.code, a.mode
	a.mu.Unlock()

	if strings.TrimSpace(code) == "" {
		return Outcome{Output: Output{Text: emptyCodeMessage, Error: true}}, nil
	}

	verdict, err := a.judge.Submit(ctx, api.SubmitRequest{ProblemID: p.ID, UserCode: code, Language: lang})
	if err != nil {
		return Outcome{}, err
	}
	out := Outcome{Judged: true, Verdict: verdict}
	if !verdict.Accepted() {
		status := verdict.Status
		if status == "" {
			status = verdict.Message
		}
		out.Output = Output{Text: fmt.Sprintf("Status: %s\n\n%s", status, verdict.Output), Error: true}
		a.log.Info("submission rejected", zap.String("problem", string(p.ID)), zap.String("status", status))
		return out, nil
	}
	out.Output = Output{Text: fmt.Sprintf("Status: %s\n\n%s", model.StatusAccepted, verdict.Output)}

	alreadySolved := a.solved.IsSolved(p.ID)
	if err := a.solved.Record(ctx, model.SolvedProblem{ProblemID: p.ID, Code: code, Language: lang, SolvedAt: a.now()}); err != nil {
		a.log.Warn("record solution", zap.Error(err))
	}

	switch mode {
	case Duel:
		a.mu.Lock()
		duel, finished := a.duel, a.result != nil || a.left
		a.mu.Unlock()
		if duel != nil && !finished {
			if err := duel.ReportWin(p.ID); err != nil {
				a.log.Warn("report win", zap.Error(err))
			} else {
				out.Reported = true
			}
		}
	case Solo:
		if verdict.PointsAwarded > 0 && !alreadySolved {
			a.profile.ApplyLocalPatch(a.solvePatch(verdict.PointsAwarded))
			out.Scored = true
		}
	}
	a.log.Info("submission accepted",
		zap.String("problem", string(p.ID)),
		zap.Int("points", verdict.PointsAwarded),
		zap.Bool("scored", out.Scored))
	return out, nil
}

func (a *Arena) currentStats() model.Stats {
	if cur := a.profile.Current(); cur != nil {
		return cur.Stats
	}
	return model.Stats{}
}

func (a *Arena) solvePatch(points int) model.StatsPatch {
	st := a.currentStats()
	total := st.Points + points
	solvedCount := st.QuestionsSolved + 1
	return model.StatsPatch{Points: &total, QuestionsSolved: &solvedCount}
}

// HandleEvent applies a realtime event to the duel. It reports the result
// when the event ended the match.
func (a *Arena) HandleEvent(ev matchmaking.Event) (Result, bool) {
	a.mu.Lock()
	if a.mode != Duel || a.result != nil || a.left {
		a.mu.Unlock()
		return Result{}, false
	}
	ranked := a.match.IsRanked
	a.mu.Unlock()

	var res Result
	switch e := ev.(type) {
	case matchmaking.MatchOver:
		res.Won = string(e.WinnerID) == a.session.UserID()
		if res.Won {
			res.Details = e.WinDetails
		} else {
			res.Details = e.LoseDetails
		}
		res.Patch = a.matchPatch(res.Won, ranked, res.Details)
	case matchmaking.UserDisconnected:
		res = Result{
			Won:     true,
			Default: true,
			Details: model.OutcomeDetails{PointsChange: DefaultWinPoints, NewRank: DefaultWinRank},
			Message: e.Message,
		}
	default:
		return Result{}, false
	}

	if !res.Patch.Empty() {
		a.profile.ApplyLocalPatch(res.Patch)
	}
	a.finish(&res)
	a.log.Info("duel over",
		zap.Bool("won", res.Won),
		zap.Bool("default", res.Default),
		zap.Int("points_change", res.Details.PointsChange))
	return res, true
}

func (a *Arena) matchPatch(won, ranked bool, d model.OutcomeDetails) model.StatsPatch {
	var patch model.StatsPatch
	if won {
		solvedCount := a.currentStats().QuestionsSolved + 1
		patch.QuestionsSolved = &solvedCount
	}
	if ranked {
		points, rank := d.NewPoints, d.NewRank
		patch.RankedPoints = &points
		patch.Rank = &rank
	}
	return patch
}

func (a *Arena) finish(res *Result) {
	a.mu.Lock()
	a.result = res
	clock := a.clock
	a.mu.Unlock()
	if clock != nil {
		clock.Stop()
	}
}

// Finished reports whether the duel has a result or was left.
func (a *Arena) Finished() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.result != nil || a.left
}

// Leave exits the arena. Leaving an unfinished duel forfeits it.
func (a *Arena) Leave() (forfeited bool, err error) {
	a.mu.Lock()
	unfinished := a.mode == Duel && a.result == nil && !a.left
	duel, clock := a.duel, a.clock
	a.left = true
	a.mu.Unlock()

	if clock != nil {
		clock.Stop()
	}
	if !unfinished || duel == nil {
		return false, nil
	}
	if err := duel.Forfeit(); err != nil {
		return false, fmt.Errorf("forfeit: %w", err)
	}
	a.log.Info("duel forfeited")
	return true, nil
}

// Close stops the match clock.
func (a *Arena) Close() {
	a.mu.Lock()
	clock := a.clock
	a.mu.Unlock()
	if clock != nil {
		clock.Stop()
	}
}
