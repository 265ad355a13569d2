package main

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/verte-zerg/codeduel/internal/arena"
	"github.com/verte-zerg/codeduel/internal/executor"
	"github.com/verte-zerg/codeduel/internal/matchmaking"
	"github.com/verte-zerg/codeduel/internal/model"
	"github.com/verte-zerg/codeduel/internal/tui"
)

var duelMode string

func newSolveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "solve <id|slug>",
		Short: "Open a practice problem in the arena",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
			return runSolo(cmd, a, args[0])
		}),
	}
}

func runSolo(cmd *cobra.Command, a *app, ref string) error {
	if err := a.session.Guard(); err != nil {
		return err
	}
	ctx := cmd.Context()
	language, err := canonicalLanguage(a.settings.Language)
	if err != nil {
		return err
	}
	a.settings.Language = language
	a.prepareArena(ctx)

	ar := a.newArena()
	defer ar.Close()
	if _, err := ar.OpenSolo(ctx, ref); err != nil {
		return err
	}

	program := tea.NewProgram(tui.NewArenaModel(ctx, ar, nil), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return err
	}
	return nil
}

func newDuelCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "duel",
		Short: "Find an opponent and duel",
		Args:  cobra.NoArgs,
		RunE:  withApp(runDuelCmd),
	}
	cmd.Flags().StringVar(&duelMode, "mode", model.ModeRanked, "ranked or casual")
	return cmd
}

func runDuelCmd(cmd *cobra.Command, _ []string, a *app) error {
	mode := strings.ToLower(strings.TrimSpace(duelMode))
	if mode != model.ModeRanked && mode != model.ModeCasual {
		return matchmaking.ErrInvalidMode
	}
	language, err := canonicalLanguage(a.settings.Language)
	if err != nil {
		return err
	}
	label := mode + " " + language
	return runMatch(cmd, a, tui.SearchQueue, label, func(c *matchmaking.Client) error {
		return c.FindMatch(mode, language)
	})
}

func newLobbyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lobby",
		Short: "Play a friend in a private lobby",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "create",
		Short: "Create a private lobby and wait for a guest",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, _ []string, a *app) error {
			return runMatch(cmd, a, tui.SearchHost, "", func(c *matchmaking.Client) error {
				return c.CreatePrivateLobby()
			})
		}),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "join <room>",
		Short: "Join a private lobby by room id",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
			room := strings.TrimSpace(args[0])
			return runMatch(cmd, a, tui.SearchGuest, room, func(c *matchmaking.Client) error {
				return c.JoinPrivateLobby(room)
			})
		}),
	})
	return cmd
}

// runMatch connects, waits for a match on the search screen and reports how it ended.
func runMatch(cmd *cobra.Command, a *app, kind tui.SearchKind, label string, begin func(*matchmaking.Client) error) error {
	if err := a.session.Guard(); err != nil {
		return err
	}
	ctx := cmd.Context()
	language, err := canonicalLanguage(a.settings.Language)
	if err != nil {
		return err
	}
	a.settings.Language = language
	a.prepareArena(ctx)

	client := matchmaking.New(a.settings.SocketURL, matchmaking.WebSocketDialer{}, a.session, a.log.Named("matchmaking"))
	defer func() {
		if err := client.Close(); err != nil {
			logErrf("failed to close connection: %v\n", err)
		}
	}()
	if err := client.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to %s: %w", a.settings.SocketURL, err)
	}

	ar := a.newArena()
	defer ar.Close()

	search := tui.NewSearchModel(ctx, client, ar, kind, label, func() error { return begin(client) })
	program := tea.NewProgram(search, tea.WithAltScreen())
	final, err := program.Run()
	if err != nil {
		return err
	}
	return a.reportMatch(ctx, final, client)
}

func (a *app) reportMatch(ctx context.Context, final tea.Model, client *matchmaking.Client) error {
	switch m := final.(type) {
	case *tui.SearchModel:
		if err := m.Err(); err != nil {
			return err
		}
		if m.Cancelled() {
			if id := m.LobbyID(); id != "" {
				logErrf("Lobby %s closed\n", id)
			} else {
				logErrln("Search cancelled")
			}
		}
		return nil
	case *tui.ArenaModel:
		if m.Forfeited() {
			logErrln("You left the match. The server scores it as a loss.")
			return nil
		}
		res, ok := m.Result()
		if !ok {
			return nil
		}
		fmt.Println(describeResult(res))
		if client.State().Terminal() {
			if err := client.Acknowledge(); err != nil {
				a.log.Warn("acknowledge failed", zap.Error(err))
			}
		}
		// The server copy replaces the optimistic patch.
		if _, err := a.profile.Fetch(ctx); err != nil {
			a.log.Warn("profile refresh failed", zap.Error(err))
		}
		return nil
	}
	return nil
}

func describeResult(res arena.Result) string {
	var b strings.Builder
	switch {
	case res.Won && res.Default:
		b.WriteString("Victory by default")
	case res.Won:
		b.WriteString("Victory")
	default:
		b.WriteString("Defeat")
	}
	if res.Details.PointsChange != 0 {
		fmt.Fprintf(&b, " (%+d points", res.Details.PointsChange)
		if res.Details.NewRank != "" {
			fmt.Fprintf(&b, ", rank %s", res.Details.NewRank)
		}
		b.WriteString(")")
	}
	if res.Message != "" {
		b.WriteString(": " + res.Message)
	}
	return b.String()
}

// prepareArena warms the caches the arena reads. Failures only cost
// restored solutions or the optimistic stats patch.
func (a *app) prepareArena(ctx context.Context) {
	if err := a.loadSolved(ctx); err != nil {
		a.log.Warn("solved records unavailable", zap.Error(err))
	}
	if _, err := a.profile.Fetch(ctx); err != nil {
		a.log.Warn("profile unavailable", zap.Error(err))
	}
}

// canonicalLanguage maps a user-supplied language to its display label.
func canonicalLanguage(language string) (string, error) {
	lang := strings.TrimSpace(language)
	if strings.EqualFold(lang, "cpp") {
		lang = "C++"
	}
	for _, name := range executor.Languages() {
		if strings.EqualFold(name, lang) {
			return name, nil
		}
	}
	return "", fmt.Errorf("unsupported language %q (choose from %s)", language, strings.Join(executor.Languages(), ", "))
}
