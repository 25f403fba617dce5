// Package hub resolves package versions against the public dbt hub
// registry.
package hub

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

// DefaultBaseURL is the public dbt package hub.
const DefaultBaseURL = "https://hub.getdbt.com"

// Client queries the dbt hub registry API.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient returns a client against the public hub.
func NewClient() *Client {
	return &Client{
		BaseURL:    DefaultBaseURL,
		HTTPClient: &http.Client{Timeout: 15 * time.Second},
	}
}

type packageResponse struct {
	Latest string `json:"latest"`
}

// LatestVersion resolves the newest published version of an org/name
// hub package.
func (c *Client) LatestVersion(ctx context.Context, identifier string) (string, error) {
	org, name, ok := strings.Cut(identifier, "/")
	if !ok || org == "" || name == "" {
		return "", fmt.Errorf("invalid hub package identifier %q (expected org/name)", identifier)
	}

	url := fmt.Sprintf("%s/api/v1/packages/%s/%s.json", strings.TrimRight(c.BaseURL, "/"), org, name)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to reach the dbt hub: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", fmt.Errorf("package %q not found on the dbt hub", identifier)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("dbt hub returned status %d for %s", resp.StatusCode, identifier)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("reading dbt hub response: %w", err)
	}

	var parsed packageResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("invalid dbt hub response for %s: %w", identifier, err)
	}
	if parsed.Latest == "" {
		return "", fmt.Errorf("dbt hub lists no versions for %s", identifier)
	}
	return parsed.Latest, nil
}

// Result is the outcome of one version lookup in a batch.
type Result struct {
	Identifier string
	Version    string
	Err        error
}

// LatestVersions resolves several packages concurrently. Results keep
// the input order; a failed lookup fills its entry's Err without
// aborting the others.
func (c *Client) LatestVersions(ctx context.Context, identifiers []string) []Result {
	results := make([]Result, len(identifiers))

	var g errgroup.Group
	for i, identifier := range identifiers {
		g.Go(func() error {
			version, err := c.LatestVersion(ctx, identifier)
			results[i] = Result{Identifier: identifier, Version: version, Err: err}
			return nil
		})
	}
	g.Wait()

	return results
}
