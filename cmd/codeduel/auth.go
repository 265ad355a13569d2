package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	loginEmail       string
	loginPassword    string
	loginProvider    string
	loginGoogleToken string

	signupUsername string
	signupEmail    string
	signupPassword string
)

func newLoginCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to CodeDuel",
		Args:  cobra.NoArgs,
		RunE:  withApp(runLoginCmd),
	}
	cmd.Flags().StringVar(&loginEmail, "email", "", "email or username")
	cmd.Flags().StringVar(&loginPassword, "password", "", "password (prompted when omitted)")
	cmd.Flags().StringVar(&loginProvider, "provider", "", "social login provider (github, google)")
	cmd.Flags().StringVar(&loginGoogleToken, "google-token", "", "Google id token")
	cmd.MarkFlagsMutuallyExclusive("email", "provider", "google-token")
	return cmd
}

func runLoginCmd(cmd *cobra.Command, _ []string, a *app) error {
	ctx := cmd.Context()
	var err error
	switch {
	case loginGoogleToken != "":
		err = a.session.GoogleLogin(ctx, loginGoogleToken)
	case loginProvider != "":
		err = a.session.SocialLogin(ctx, loginProvider)
	default:
		in := bufio.NewReader(os.Stdin)
		email := loginEmail
		if email == "" {
			if email, err = prompt(in, "Email: "); err != nil {
				return err
			}
		}
		password := loginPassword
		if password == "" {
			if password, err = promptSecret(in, "Password: "); err != nil {
				return err
			}
		}
		err = a.session.Login(ctx, email, password)
	}
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	fmt.Printf("Logged in as %s\n", a.session.Username())
	return nil
}

func newSignupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create a CodeDuel account",
		Args:  cobra.NoArgs,
		RunE:  withApp(runSignupCmd),
	}
	cmd.Flags().StringVar(&signupUsername, "username", "", "username")
	cmd.Flags().StringVar(&signupEmail, "email", "", "email")
	cmd.Flags().StringVar(&signupPassword, "password", "", "password (prompted when omitted)")
	return cmd
}

func runSignupCmd(cmd *cobra.Command, _ []string, a *app) error {
	in := bufio.NewReader(os.Stdin)
	var err error
	username := signupUsername
	if username == "" {
		if username, err = prompt(in, "Username: "); err != nil {
			return err
		}
	}
	email := signupEmail
	if email == "" {
		if email, err = prompt(in, "Email: "); err != nil {
			return err
		}
	}
	password := signupPassword
	if password == "" {
		if password, err = promptSecret(in, "Password: "); err != nil {
			return err
		}
	}
	if err := a.session.Signup(cmd.Context(), username, email, password); err != nil {
		return fmt.Errorf("signup failed: %w", err)
	}
	fmt.Printf("Welcome, %s!\n", a.session.Username())
	return nil
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget cached data",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, _ []string, a *app) error {
			if err := a.session.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Println("Logged out")
			return nil
		}),
	}
}

func newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: withApp(func(_ *cobra.Command, _ []string, a *app) error {
			if err := a.session.Guard(); err != nil {
				return err
			}
			name := a.session.Username()
			if name == "" {
				name = "(unknown)"
			}
			fmt.Printf("%s (%s)\n", name, a.session.UserID())
			return nil
		}),
	}
}

func prompt(in *bufio.Reader, label string) (string, error) {
	logErrf("%s", label)
	line, err := in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	value := strings.TrimSpace(line)
	if value == "" {
		return "", fmt.Errorf("%s must not be empty", strings.TrimSuffix(label, ": "))
	}
	return value, nil
}

// promptSecret reads without echo on a terminal and falls back to a plain line otherwise.
func promptSecret(in *bufio.Reader, label string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return prompt(in, label)
	}
	logErrf("%s", label)
	raw, err := term.ReadPassword(fd)
	logErrln()
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	if len(raw) == 0 {
		return "", fmt.Errorf("%s must not be empty", strings.TrimSuffix(label, ": "))
	}
	return string(raw), nil
}
