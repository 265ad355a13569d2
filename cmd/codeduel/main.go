// Package main provides the CLI entrypoint for codeduel.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/verte-zerg/codeduel/internal/api"
	"github.com/verte-zerg/codeduel/internal/arena"
	"github.com/verte-zerg/codeduel/internal/config"
	"github.com/verte-zerg/codeduel/internal/executor"
	"github.com/verte-zerg/codeduel/internal/logging"
	"github.com/verte-zerg/codeduel/internal/problems"
	"github.com/verte-zerg/codeduel/internal/profile"
	"github.com/verte-zerg/codeduel/internal/session"
	"github.com/verte-zerg/codeduel/internal/solved"
	"github.com/verte-zerg/codeduel/internal/store"
)

const (
	defaultEnvFile  = ".env"
	defaultLogLevel = "info"
)

var (
	flagBackendURL  string
	flagAuthURL     string
	flagSocketURL   string
	flagExecutorURL string
	flagLanguage    string
	flagLogLevel    string
	flagEnvFile     string
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "codeduel",
		Short:         "Terminal client for CodeDuel practice and duels",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&flagBackendURL, "backend-url", config.DefaultBackendURL, "REST backend base URL")
	flags.StringVar(&flagAuthURL, "auth-url", config.DefaultAuthURL, "auth server base URL")
	flags.StringVar(&flagSocketURL, "socket-url", config.DefaultSocketURL, "realtime WebSocket URL")
	flags.StringVar(&flagExecutorURL, "executor-url", config.DefaultExecutorURL, "code execution service URL")
	flags.StringVar(&flagLanguage, "language", config.DefaultLanguage, "default editor language")
	flags.StringVar(&flagLogLevel, "log-level", defaultLogLevel, "log level (debug, info, warn, error)")
	flags.StringVar(&flagEnvFile, "env-file", defaultEnvFile, "dotenv file with CODEDUEL_* overrides")

	rootCmd.AddCommand(newLoginCmd())
	rootCmd.AddCommand(newSignupCmd())
	rootCmd.AddCommand(newLogoutCmd())
	rootCmd.AddCommand(newWhoamiCmd())
	rootCmd.AddCommand(newProfileCmd())
	rootCmd.AddCommand(newPracticeCmd())
	rootCmd.AddCommand(newSolveCmd())
	rootCmd.AddCommand(newDuelCmd())
	rootCmd.AddCommand(newLobbyCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

// app is the wired client shared by every command.
type app struct {
	settings config.Settings
	log      *zap.Logger
	store    *store.Store
	session  *session.Manager
	backend  *api.Client
	profile  *profile.Store
	catalog  *problems.Catalog
	solved   *solved.Records
	runner   *executor.Client
}

func loadSettings(cmd *cobra.Command) (config.Settings, error) {
	if err := config.LoadEnv(flagEnvFile); err != nil {
		return config.Settings{}, err
	}
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return config.Settings{}, fmt.Errorf("failed to load config: %w", err)
	}
	s, err := config.Resolve(fileCfg)
	if err != nil {
		return config.Settings{}, err
	}
	applyStringFlag(cmd, "backend-url", &s.BackendURL, flagBackendURL)
	applyStringFlag(cmd, "auth-url", &s.AuthURL, flagAuthURL)
	applyStringFlag(cmd, "socket-url", &s.SocketURL, flagSocketURL)
	applyStringFlag(cmd, "executor-url", &s.ExecutorURL, flagExecutorURL)
	applyStringFlag(cmd, "language", &s.Language, flagLanguage)
	if err := s.Validate(); err != nil {
		return config.Settings{}, err
	}
	return s, nil
}

func openApp(cmd *cobra.Command) (*app, error) {
	s, err := loadSettings(cmd)
	if err != nil {
		return nil, err
	}
	log, err := logging.New(config.DefaultLogPath(), flagLogLevel)
	if err != nil {
		return nil, err
	}
	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		_ = log.Sync()
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	httpClient := &http.Client{Timeout: s.Timeout}
	auth := api.NewAuthClient(s.AuthURL, httpClient, log.Named("auth"))
	sess := session.New(st, auth, log.Named("session"))
	if err := sess.Load(cmd.Context()); err != nil {
		closeStore(st)
		_ = log.Sync()
		return nil, err
	}
	backend := api.New(s.BackendURL, httpClient, sess, log.Named("api"))

	a := &app{
		settings: s,
		log:      log,
		store:    st,
		session:  sess,
		backend:  backend,
		profile:  profile.New(backend, sess, log.Named("profile")),
		catalog:  problems.NewCatalog(backend, sess, log.Named("problems")),
		solved:   solved.New(backend, st, log.Named("solved")),
		runner:   executor.New(s.ExecutorURL, httpClient, log.Named("executor")),
	}
	sess.OnLogout(a.profile.Clear)
	sess.OnLogout(a.catalog.Invalidate)
	sess.OnLogout(func() {
		if err := a.solved.Clear(context.Background()); err != nil {
			a.log.Warn("failed to clear solved records", zap.Error(err))
		}
	})
	return a, nil
}

func (a *app) Close() {
	closeStore(a.store)
	if err := a.log.Sync(); err != nil {
		// Syncing a file logger can fail on some platforms; nothing to do.
		_ = err
	}
}

func closeStore(st *store.Store) {
	if err := st.Close(); err != nil {
		logErrf("failed to close store: %v\n", err)
	}
}

// newArena builds an arena over the app's services.
func (a *app) newArena() *arena.Arena {
	return arena.New(a.catalog, a.backend, a.runner, a.solved, a.session, a.profile, arena.Config{
		Language:     a.settings.Language,
		MatchSeconds: a.settings.MatchSeconds,
	}, a.log.Named("arena"))
}

// loadSolved restores the local mirror and refreshes it from the server.
// A failed refresh leaves the local copy in place.
func (a *app) loadSolved(ctx context.Context) error {
	if err := a.solved.Load(ctx); err != nil {
		return err
	}
	if err := a.solved.Sync(ctx); err != nil {
		if errors.Is(err, api.ErrUnauthorized) {
			return err
		}
		a.log.Warn("solved sync failed", zap.Error(err))
	}
	return nil
}

// withApp runs fn with a wired app and maps auth failures to a login hint.
func withApp(fn func(cmd *cobra.Command, args []string, a *app) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		err = fn(cmd, args, a)
		if errors.Is(err, api.ErrUnauthorized) {
			if ierr := a.session.Invalidate(cmd.Context()); ierr != nil {
				a.log.Warn("failed to invalidate session", zap.Error(ierr))
			}
		}
		return friendlyError(err)
	}
}

func friendlyError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, session.ErrNotAuthenticated):
		return fmt.Errorf("%w: please run `codeduel login`", err)
	case errors.Is(err, session.ErrSessionExpired), errors.Is(err, api.ErrUnauthorized):
		return fmt.Errorf("%w: please run `codeduel login` again", err)
	default:
		return err
	}
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create or open the config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = "vi"
	}
	cmd := exec.Command(editor, path)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func applyStringFlag(cmd *cobra.Command, name string, target *string, value string) {
	if !cmd.Flags().Changed(name) {
		return
	}
	*target = value
}

func optionalStringFlag(cmd *cobra.Command, name, value string) *string {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v := value
	return &v
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# codeduel configuration
# Uncomment a value to enable it. Environment variables and CLI flags override config values.

[server]
# backend-url = %q
# auth-url = %q
# socket-url = %q
# executor-url = %q
# timeout = %d              # HTTP timeout in seconds

[arena]
# language = %q          # Python, JavaScript, C++ or Java
# match-seconds = %d       # Duel length
`,
		config.DefaultBackendURL,
		config.DefaultAuthURL,
		config.DefaultSocketURL,
		config.DefaultExecutorURL,
		config.DefaultTimeoutSec,
		config.DefaultLanguage,
		config.DefaultMatchSeconds,
	)
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}

func logErrln(args ...any) {
	if _, err := fmt.Fprintln(os.Stderr, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
