package api

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/verte-zerg/codeduel/internal/model"
)

// Client calls the authenticated backend endpoints.
type Client struct {
	t      transport
	tokens TokenSource
}

// New builds a backend client. tokens is consulted on every request.
func New(baseURL string, httpClient *http.Client, tokens TokenSource, log *zap.Logger) *Client {
	return &Client{t: newTransport(baseURL, httpClient, log), tokens: tokens}
}

func (c *Client) token() (string, error) {
	if c.tokens == nil {
		return "", ErrMissingToken
	}
	tok := c.tokens.Token()
	if tok == "" {
		return "", ErrMissingToken
	}
	return tok, nil
}

type dataEnvelope[T any] struct {
	Success *bool  `json:"success,omitempty"`
	Data    T      `json:"data"`
	Message string `json:"message,omitempty"`
}

// FetchProfile returns the current user's profile.
func (c *Client) FetchProfile(ctx context.Context) (model.Profile, error) {
	tok, err := c.token()
	if err != nil {
		return model.Profile{}, err
	}
	var env dataEnvelope[model.Profile]
	if err := c.t.do(ctx, http.MethodGet, "/api/profile/me", tok, nil, &env); err != nil {
		return model.Profile{}, err
	}
	return env.Data, nil
}

// UpdateProfile sends the set fields of update and returns the server copy.
func (c *Client) UpdateProfile(ctx context.Context, update model.ProfileUpdate) (model.Profile, error) {
	tok, err := c.token()
	if err != nil {
		return model.Profile{}, err
	}
	var env dataEnvelope[model.Profile]
	if err := c.t.do(ctx, http.MethodPut, "/api/profile/me", tok, update, &env); err != nil {
		return model.Profile{}, err
	}
	return env.Data, nil
}

// FetchProblems returns the full problem catalog.
func (c *Client) FetchProblems(ctx context.Context) ([]model.Problem, error) {
	tok, err := c.token()
	if err != nil {
		return nil, err
	}
	var env dataEnvelope[[]model.Problem]
	if err := c.t.do(ctx, http.MethodGet, "/api/all-problems", tok, nil, &env); err != nil {
		return nil, err
	}
	if env.Success != nil && !*env.Success {
		msg := env.Message
		if msg == "" {
			msg = "failed to fetch problems"
		}
		return nil, errors.New(msg)
	}
	return env.Data, nil
}

// FetchSolved returns the solutions the server has on record for the user.
func (c *Client) FetchSolved(ctx context.Context) ([]model.SolvedProblem, error) {
	tok, err := c.token()
	if err != nil {
		return nil, err
	}
	var env dataEnvelope[[]model.SolvedProblem]
	if err := c.t.do(ctx, http.MethodGet, "/api/solved-problems/me", tok, nil, &env); err != nil {
		return nil, err
	}
	return env.Data, nil
}

// SubmitRequest is the judge submission payload.
type SubmitRequest struct {
	ProblemID model.ID `json:"problemId"`
	UserCode  string   `json:"userCode"`
	Language  string   `json:"language"`
}

// Submit sends code to the judge. A rejected verdict is a result, not an error.
func (c *Client) Submit(ctx context.Context, req SubmitRequest) (model.SubmitResult, error) {
	tok, err := c.token()
	if err != nil {
		return model.SubmitResult{}, err
	}
	var res model.SubmitResult
	if err := c.t.do(ctx, http.MethodPost, "/api/submit", tok, req, &res); err != nil {
		return model.SubmitResult{}, err
	}
	return res, nil
}
