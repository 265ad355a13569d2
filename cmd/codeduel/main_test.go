package main

import (
	"errors"
	"strings"
	"testing"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/codeduel/internal/api"
	"github.com/verte-zerg/codeduel/internal/arena"
	"github.com/verte-zerg/codeduel/internal/config"
	"github.com/verte-zerg/codeduel/internal/model"
	"github.com/verte-zerg/codeduel/internal/session"
)

func TestApplyStringFlagOnlyWhenChanged(t *testing.T) {
	var value string
	cmd := &cobra.Command{Use: "x"}
	cmd.Flags().StringVar(&value, "backend-url", "default", "")
	require.NoError(t, cmd.Flags().Parse([]string{"--backend-url", "http://flag"}))

	target := "http://env"
	applyStringFlag(cmd, "backend-url", &target, value)
	assert.Equal(t, "http://flag", target)

	other := "kept"
	cmd.Flags().String("language", "", "")
	applyStringFlag(cmd, "language", &other, "ignored")
	assert.Equal(t, "kept", other)
}

func TestOptionalStringFlag(t *testing.T) {
	var bio string
	cmd := &cobra.Command{Use: "x"}
	cmd.Flags().StringVar(&bio, "bio", "", "")
	cmd.Flags().String("github", "", "")
	require.NoError(t, cmd.Flags().Parse([]string{"--bio", ""}))

	got := optionalStringFlag(cmd, "bio", bio)
	require.NotNil(t, got)
	assert.Equal(t, "", *got)
	assert.Nil(t, optionalStringFlag(cmd, "github", ""))
}

func TestFriendlyError(t *testing.T) {
	assert.NoError(t, friendlyError(nil))

	err := friendlyError(session.ErrNotAuthenticated)
	assert.ErrorIs(t, err, session.ErrNotAuthenticated)
	assert.Contains(t, err.Error(), "codeduel login")

	err = friendlyError(&api.Error{Status: 401})
	assert.ErrorIs(t, err, api.ErrUnauthorized)
	assert.Contains(t, err.Error(), "again")

	plain := errors.New("boom")
	assert.Equal(t, plain, friendlyError(plain))
}

func TestCanonicalLanguage(t *testing.T) {
	for in, want := range map[string]string{
		"python":     "Python",
		" Java ":     "Java",
		"cpp":        "C++",
		"javascript": "JavaScript",
	} {
		got, err := canonicalLanguage(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
	_, err := canonicalLanguage("rust")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Python, JavaScript, C++, Java")
}

func TestDescribeResult(t *testing.T) {
	won := arena.Result{Won: true, Details: model.OutcomeDetails{PointsChange: 20, NewRank: "Bronze II"}}
	assert.Equal(t, "Victory (+20 points, rank Bronze II)", describeResult(won))

	lost := arena.Result{Details: model.OutcomeDetails{PointsChange: -15}}
	assert.Equal(t, "Defeat (-15 points)", describeResult(lost))

	def := arena.Result{Won: true, Default: true, Message: "opponent left"}
	assert.Equal(t, "Victory by default: opponent left", describeResult(def))
}

func TestDefaultConfigTemplateDecodes(t *testing.T) {
	tpl := defaultConfigTemplate()

	var empty config.FileConfig
	_, err := toml.Decode(tpl, &empty)
	require.NoError(t, err)
	assert.Nil(t, empty.Server.BackendURL)

	var lines []string
	for _, line := range strings.Split(tpl, "\n") {
		if strings.HasPrefix(line, "# ") && strings.Contains(line, " = ") {
			line = strings.TrimPrefix(line, "# ")
		}
		lines = append(lines, line)
	}
	var full config.FileConfig
	_, err = toml.Decode(strings.Join(lines, "\n"), &full)
	require.NoError(t, err)
	require.NotNil(t, full.Server.BackendURL)
	assert.Equal(t, config.DefaultBackendURL, *full.Server.BackendURL)
	require.NotNil(t, full.Arena.MatchSeconds)
	assert.Equal(t, config.DefaultMatchSeconds, *full.Arena.MatchSeconds)
	require.NotNil(t, full.Server.TimeoutSec)
	assert.Equal(t, config.DefaultTimeoutSec, *full.Server.TimeoutSec)
}

func TestRootCommandTree(t *testing.T) {
	root := newRootCmd()
	for _, path := range [][]string{
		{"login"}, {"signup"}, {"logout"}, {"whoami"},
		{"profile"}, {"profile", "update"},
		{"practice"}, {"practice", "random"},
		{"solve"}, {"duel"}, {"lobby", "create"}, {"lobby", "join"}, {"config"},
	} {
		cmd, _, err := root.Find(path)
		require.NoError(t, err, path)
		assert.Equal(t, path[len(path)-1], cmd.Name())
	}
}
