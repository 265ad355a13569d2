package api

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/verte-zerg/codeduel/internal/model"
)

// AuthResponse is returned by every auth endpoint.
type AuthResponse struct {
	Token string     `json:"token"`
	User  model.User `json:"user"`
}

// AuthClient calls the unauthenticated auth endpoints.
type AuthClient struct {
	t transport
}

// NewAuthClient builds an auth client rooted at baseURL.
func NewAuthClient(baseURL string, httpClient *http.Client, log *zap.Logger) *AuthClient {
	return &AuthClient{t: newTransport(baseURL, httpClient, log)}
}

// Login exchanges an email (or username) and password for a token.
func (c *AuthClient) Login(ctx context.Context, email, password string) (AuthResponse, error) {
	return c.post(ctx, "/api/auth/login", map[string]string{
		"email":    email,
		"password": password,
	})
}

// Signup registers a new account.
func (c *AuthClient) Signup(ctx context.Context, username, email, password string) (AuthResponse, error) {
	return c.post(ctx, "/api/auth/signup", map[string]string{
		"username": username,
		"email":    email,
		"password": password,
	})
}

// SocialLogin signs in through a named provider.
func (c *AuthClient) SocialLogin(ctx context.Context, provider string) (AuthResponse, error) {
	return c.post(ctx, "/api/auth/social-login", map[string]string{"provider": provider})
}

// GoogleLogin exchanges a Google id token.
func (c *AuthClient) GoogleLogin(ctx context.Context, idToken string) (AuthResponse, error) {
	return c.post(ctx, "/api/auth/google-login", map[string]string{"token": idToken})
}

func (c *AuthClient) post(ctx context.Context, path string, body any) (AuthResponse, error) {
	var resp AuthResponse
	if err := c.t.do(ctx, http.MethodPost, path, "", body, &resp); err != nil {
		return AuthResponse{}, err
	}
	if resp.Token == "" {
		return AuthResponse{}, fmt.Errorf("%s: %w", path, ErrInvalidResponse)
	}
	return resp, nil
}
