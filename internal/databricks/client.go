// Package databricks is a minimal client for the workspace token API.
// It mints personal access tokens from an Azure AD bearer token; nothing
// else of the REST surface is wrapped.
package databricks

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

const tokenCreatePath = "/api/2.0/token/create"

// Client talks to one Databricks workspace.
type Client struct {
	workspaceURL string
	httpClient   *http.Client
}

// NewClient builds a client for the given workspace host. The host may
// be given with or without a scheme; it is normalized to an https URL
// without a trailing slash.
func NewClient(host string) *Client {
	return &Client{
		workspaceURL: NormalizeWorkspaceURL(host),
		httpClient:   &http.Client{Timeout: 30 * time.Second},
	}
}

// NormalizeWorkspaceURL turns a profiles.yml host into a workspace URL.
func NormalizeWorkspaceURL(host string) string {
	host = strings.TrimRight(strings.TrimSpace(host), "/")
	if host == "" {
		return ""
	}
	if !strings.HasPrefix(host, "https://") && !strings.HasPrefix(host, "http://") {
		host = "https://" + host
	}
	return host
}

// WorkspaceURL returns the normalized workspace URL.
func (c *Client) WorkspaceURL() string {
	return c.workspaceURL
}

// APIError is a non-2xx response from the workspace.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("Databricks API error (%d): %s", e.StatusCode, e.Body)
}

// Token is a freshly minted personal access token. ExpiresAt is computed
// client-side from the requested lifetime; the API does not echo it.
type Token struct {
	Value     string
	ID        string
	ExpiresAt time.Time
}

// DefaultComment labels a token with its creation time so it can be told
// apart in the workspace token list.
func DefaultComment(now time.Time) string {
	return fmt.Sprintf("brix token created on %s UTC", now.UTC().Format("2006-01-02 15:04"))
}

type tokenCreateRequest struct {
	Comment         string `json:"comment"`
	LifetimeSeconds int64  `json:"lifetime_seconds"`
}

type tokenCreateResponse struct {
	TokenValue string `json:"token_value"`
	TokenInfo  struct {
		TokenID string `json:"token_id"`
	} `json:"token_info"`
}

// CreateToken mints a new personal access token using an Azure AD bearer
// token. An empty comment gets the default creation-time label.
func (c *Client) CreateToken(ctx context.Context, accessToken, comment string, lifetime time.Duration) (*Token, error) {
	now := time.Now().UTC().Truncate(time.Second)
	if comment == "" {
		comment = DefaultComment(now)
	}

	body, err := json.Marshal(tokenCreateRequest{
		Comment:         comment,
		LifetimeSeconds: int64(lifetime.Seconds()),
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.workspaceURL+tokenCreatePath, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Databricks: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return nil, fmt.Errorf("reading Databricks response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(respBody))}
	}

	var parsed tokenCreateResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: fmt.Sprintf("invalid JSON response: %v", err)}
	}
	if parsed.TokenValue == "" {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: "response did not include a token value"}
	}

	return &Token{
		Value:     parsed.TokenValue,
		ID:        parsed.TokenInfo.TokenID,
		ExpiresAt: now.Add(lifetime),
	}, nil
}
