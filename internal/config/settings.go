package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Built-in defaults.
const (
	DefaultBackendURL   = "http://localhost:5000"
	DefaultAuthURL      = "http://localhost:3000"
	DefaultSocketURL    = "ws://localhost:3000/ws"
	DefaultExecutorURL  = "https://emkc.org/api/v2/piston/execute"
	DefaultLanguage     = "Python"
	DefaultMatchSeconds = 1800
	DefaultTimeoutSec   = 15
)

// Environment variables that override the config file.
const (
	EnvBackendURL  = "CODEDUEL_BACKEND_URL"
	EnvAuthURL     = "CODEDUEL_AUTH_URL"
	EnvSocketURL   = "CODEDUEL_SOCKET_URL"
	EnvExecutorURL = "CODEDUEL_EXECUTOR_URL"
	EnvLanguage    = "CODEDUEL_LANGUAGE"
	EnvMatchSecs   = "CODEDUEL_MATCH_SECONDS"
)

// Settings are the resolved client settings.
type Settings struct {
	BackendURL   string
	AuthURL      string
	SocketURL    string
	ExecutorURL  string
	Language     string
	MatchSeconds int
	Timeout      time.Duration
}

// LoadEnv loads a dotenv file into the process environment.
// A missing file is not an error; variables already set are kept.
func LoadEnv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// Resolve merges defaults, the file config and the environment, in that order.
func Resolve(file FileConfig) (Settings, error) {
	s := Settings{
		BackendURL:   DefaultBackendURL,
		AuthURL:      DefaultAuthURL,
		SocketURL:    DefaultSocketURL,
		ExecutorURL:  DefaultExecutorURL,
		Language:     DefaultLanguage,
		MatchSeconds: DefaultMatchSeconds,
		Timeout:      DefaultTimeoutSec * time.Second,
	}

	applyString(&s.BackendURL, file.Server.BackendURL)
	applyString(&s.AuthURL, file.Server.AuthURL)
	applyString(&s.SocketURL, file.Server.SocketURL)
	applyString(&s.ExecutorURL, file.Server.ExecutorURL)
	applyString(&s.Language, file.Arena.Language)
	if file.Arena.MatchSeconds != nil {
		s.MatchSeconds = *file.Arena.MatchSeconds
	}
	if file.Server.TimeoutSec != nil {
		s.Timeout = time.Duration(*file.Server.TimeoutSec) * time.Second
	}

	applyEnv(&s.BackendURL, EnvBackendURL)
	applyEnv(&s.AuthURL, EnvAuthURL)
	applyEnv(&s.SocketURL, EnvSocketURL)
	applyEnv(&s.ExecutorURL, EnvExecutorURL)
	applyEnv(&s.Language, EnvLanguage)
	s.MatchSeconds = EnvInt(EnvMatchSecs, s.MatchSeconds)

	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Validate checks that URLs parse and numeric settings are positive.
func (s Settings) Validate() error {
	for name, raw := range map[string]string{
		"backend-url":  s.BackendURL,
		"auth-url":     s.AuthURL,
		"socket-url":   s.SocketURL,
		"executor-url": s.ExecutorURL,
	} {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("invalid %s %q", name, raw)
		}
	}
	if s.MatchSeconds <= 0 {
		return fmt.Errorf("match-seconds must be > 0")
	}
	if s.Timeout <= 0 {
		return fmt.Errorf("timeout must be > 0")
	}
	if strings.TrimSpace(s.Language) == "" {
		return fmt.Errorf("language must not be empty")
	}
	return nil
}

func applyString(target, value *string) {
	if value == nil {
		return
	}
	*target = strings.TrimSpace(*value)
}

func applyEnv(target *string, key string) {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		*target = strings.TrimSpace(v)
	}
}

// EnvInt reads an integer environment variable with a fallback.
func EnvInt(key string, fallback int) int {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return fallback
	}
	return n
}
