// Package backend is a thin client for the REST backend's auth endpoints.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Error is a non-2xx answer from the backend. Message carries the response
// body text, which the backend uses for human-readable reasons.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend: HTTP error! status: %d", e.Status)
	}
	return "backend: " + e.Message
}

// Credentials is the login request body.
type Credentials struct {
	Mail     string `json:"mail"`
	Password string `json:"password"`
}

// LoginResponse is what the backend returns on successful login.
type LoginResponse struct {
	AccessToken string `json:"accessToken"`
	TokenType   string `json:"tokenType"`
}

// Registration is the account sign-up request body.
type Registration struct {
	Mail     string `json:"mail"`
	FullName string `json:"fullName"`
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// Client talks to the backend under baseURL (e.g. http://localhost:8080/api).
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client with the given request timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, cred Credentials) (LoginResponse, error) {
	body, err := c.post(ctx, "/auth/login", cred)
	if err != nil {
		return LoginResponse{}, err
	}
	var out LoginResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return LoginResponse{}, fmt.Errorf("backend: decode login response: %w", err)
	}
	if out.AccessToken == "" {
		return LoginResponse{}, fmt.Errorf("backend: login response carries no access token")
	}
	return out, nil
}

// Register creates an account and returns the backend's confirmation text.
func (c *Client) Register(ctx context.Context, reg Registration) (string, error) {
	body, err := c.post(ctx, "/auth/register", reg)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

func (c *Client) post(ctx context.Context, path string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("backend: encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("backend: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("backend: %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("backend: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &Error{Status: resp.StatusCode, Message: strings.TrimSpace(string(body))}
	}
	return body, nil
}
