package fleetapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Role is a backend user role.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleDispatcher Role = "dispatcher"
	RoleDriver     Role = "driver"
	RoleViewer     Role = "viewer"
)

// User is the authenticated principal as the backend reports it.
type User struct {
	ID        string     `json:"id"`
	Username  string     `json:"username"`
	Email     string     `json:"email"`
	Role      Role       `json:"role"`
	IsActive  bool       `json:"is_active"`
	LastLogin *Timestamp `json:"last_login,omitempty"`
	CreatedAt *Timestamp `json:"created_at,omitempty"`
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// RegisterRequest is the body of POST /auth/register.
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     Role   `json:"role,omitempty"`
}

// AuthResult is returned by login and registration.
type AuthResult struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	User         User   `json:"user"`
}

type refreshResult struct {
	AccessToken string `json:"access_token"`
}

// Login exchanges credentials for a token pair.
func (c *Client) Login(ctx context.Context, req LoginRequest) (*AuthResult, error) {
	var result AuthResult
	if _, err := c.do(ctx, http.MethodPost, "/auth/login", nil, req, &result); err != nil {
		return nil, fmt.Errorf("login request failed: %w", err)
	}
	if result.AccessToken == "" || result.RefreshToken == "" {
		return nil, errors.New("login response is missing tokens")
	}
	return &result, nil
}

// Register creates an account and returns its token pair.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*AuthResult, error) {
	var result AuthResult
	if _, err := c.do(ctx, http.MethodPost, "/auth/register", nil, req, &result); err != nil {
		return nil, fmt.Errorf("register request failed: %w", err)
	}
	if result.AccessToken == "" || result.RefreshToken == "" {
		return nil, errors.New("register response is missing tokens")
	}
	return &result, nil
}

// Me resolves the principal behind the current access token.
func (c *Client) Me(ctx context.Context) (*User, error) {
	var user User
	if _, err := c.do(ctx, http.MethodGet, "/auth/me", nil, nil, &user); err != nil {
		return nil, fmt.Errorf("me request failed: %w", err)
	}
	return &user, nil
}

// Refresh mints a new access token, authenticating with the refresh token rather than the
// access token. The refresh token is not rotated.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (string, error) {
	bearer := func(_ context.Context, req *http.Request) error {
		req.Header.Set("Authorization", "Bearer "+refreshToken)
		return nil
	}

	var result refreshResult
	if _, err := c.do(ctx, http.MethodPost, "/auth/refresh", nil, nil, &result, bearer); err != nil {
		return "", fmt.Errorf("refresh request failed: %w", err)
	}
	if result.AccessToken == "" {
		return "", errors.New("refresh response is missing access token")
	}
	return result.AccessToken, nil
}
