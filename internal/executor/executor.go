// Package executor runs code through a Piston-compatible execution service.
package executor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

var (
	// ErrUnsupportedLanguage means the language has no runtime entry.
	ErrUnsupportedLanguage = errors.New("unsupported language")
	// ErrAPI means the service answered without a run result.
	ErrAPI = errors.New("API Error")
)

// Runtime is the execution-service identity of a language.
type Runtime struct {
	Language string
	Version  string
	File     string
}

var runtimes = map[string]Runtime{
	"Python":     {Language: "python", Version: "3.10.0", File: "solution.py"},
	"JavaScript": {Language: "javascript", Version: "18.15.0", File: "solution.js"},
	"C++":        {Language: "cpp", Version: "10.2.0", File: "solution.cpp"},
	"Java":       {Language: "java", Version: "15.0.2", File: "Main.java"},
}

// Languages lists the supported language labels in display order.
func Languages() []string {
	return []string{"Python", "JavaScript", "C++", "Java"}
}

// Lookup returns the runtime for a language label. "cpp" resolves to C++.
func Lookup(language string) (Runtime, bool) {
	lang := strings.TrimSpace(language)
	if strings.EqualFold(lang, "cpp") {
		lang = "C++"
	}
	for name, rt := range runtimes {
		if strings.EqualFold(name, lang) {
			return rt, true
		}
	}
	return Runtime{}, false
}

// Result is the outcome of one run.
type Result struct {
	Output string
	Code   int
	// HasCode is false when the service reported no exit code.
	HasCode bool
}

// Failed reports a non-zero exit code. Without a code the output decides.
func (r Result) Failed() bool {
	if !r.HasCode {
		return LooksLikeError(r.Output)
	}
	return r.Code != 0
}

// Display returns the console text for the result.
func (r Result) Display() string {
	if r.Output != "" {
		return r.Output
	}
	if !r.Failed() {
		return "Success (No Output)"
	}
	return "Runtime Error"
}

// Client calls the execution service.
type Client struct {
	url  string
	http *http.Client
	log  *zap.Logger
}

// New builds a Client for the given execute endpoint.
func New(url string, httpClient *http.Client, log *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{url: url, http: httpClient, log: log}
}

type file struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

type request struct {
	Language string `json:"language"`
	Version  string `json:"version"`
	Files    []file `json:"files"`
}

type response struct {
	Run *struct {
		Output string `json:"output"`
		Code   *int   `json:"code"`
	} `json:"run"`
	Message string `json:"message,omitempty"`
}

// Execute runs source in language and returns its combined output.
func (c *Client) Execute(ctx context.Context, language, source string) (Result, error) {
	rt, ok := Lookup(language)
	if !ok {
		return Result{}, fmt.Errorf("%w: %s", ErrUnsupportedLanguage, language)
	}
	payload, err := json.Marshal(request{
		Language: rt.Language,
		Version:  rt.Version,
		Files:    []file{{Name: rt.File, Content: source}},
	})
	if err != nil {
		return Result{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return Result{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("execute: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			// Best-effort body close.
			_ = cerr
		}
	}()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, fmt.Errorf("execute: %w", err)
	}

	var body response
	if err := json.Unmarshal(data, &body); err != nil || body.Run == nil {
		c.log.Warn("execution service without run result",
			zap.Int("status", resp.StatusCode),
			zap.String("message", body.Message))
		return Result{}, ErrAPI
	}
	res := Result{Output: body.Run.Output}
	if body.Run.Code != nil {
		res.Code = *body.Run.Code
		res.HasCode = true
	}
	c.log.Debug("executed",
		zap.String("language", rt.Language),
		zap.Int("code", res.Code),
		zap.Bool("has_code", res.HasCode),
		zap.Duration("elapsed", time.Since(start)))
	return res, nil
}

// LooksLikeError is the fallback classifier for output without an exit code.
func LooksLikeError(output string) bool {
	lower := strings.ToLower(output)
	for _, marker := range []string{"error", "exception", "traceback"} {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
