// Package testutil provides fixtures and capture helpers for command
// tests: a throwaway dbt project, a Databricks profiles.yml, and a
// renderer writing to in-memory buffers.
package testutil

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/Spycner/brix/internal/cli/output"
)

// SetupTestProject creates a temporary dbt project and returns its root.
func SetupTestProject(t *testing.T) string {
	t.Helper()

	root := t.TempDir()
	for _, dir := range []string{
		filepath.Join("models", "staging"),
		filepath.Join("models", "marts"),
		"tests",
		"macros",
	} {
		if err := os.MkdirAll(filepath.Join(root, dir), 0o755); err != nil {
			t.Fatalf("failed to create directory %s: %v", dir, err)
		}
	}

	write := func(rel, content string) {
		t.Helper()
		if err := os.WriteFile(filepath.Join(root, rel), []byte(content), 0o644); err != nil {
			t.Fatalf("failed to create %s: %v", rel, err)
		}
	}

	write("dbt_project.yml", `name: analytics
profile: analytics
version: 1.0.0
config-version: 2

model-paths: ["models"]
seed-paths: ["seeds"]
test-paths: ["tests"]
macro-paths: ["macros"]

models:
  analytics:
    +materialized: view
`)
	write("packages.yml", `packages:
  - package: dbt-labs/dbt_utils
    version: 1.3.0
`)
	write(filepath.Join("models", "staging", "stg_customers.sql"), `select
    id as customer_id,
    name as customer_name
from {{ source('raw', 'customers') }}
`)

	return root
}

// SetupTestProfiles writes a profiles.yml with a Databricks profile and
// returns its path.
func SetupTestProfiles(t *testing.T) string {
	t.Helper()

	profiles := `DDBT:
  target: dev
  outputs:
    dev:
      type: databricks
      host: https://adb-123.azuredatabricks.net
      http_path: /sql/1.0/warehouses/dev
      schema: analytics_dev
      token: "{{ env_var('DATABRICKS_TOKEN_DEV') }}"
    prod:
      type: databricks
      host: https://adb-456.azuredatabricks.net
      http_path: /sql/1.0/warehouses/prod
      schema: analytics
      token: "{{ env_var('DATABRICKS_TOKEN_PROD') }}"
`
	path := filepath.Join(t.TempDir(), "profiles.yml")
	if err := os.WriteFile(path, []byte(profiles), 0o600); err != nil {
		t.Fatalf("failed to create profiles.yml: %v", err)
	}
	return path
}

// TestRenderer pairs a Renderer with the buffers it writes to.
type TestRenderer struct {
	*output.Renderer
	Out    *bytes.Buffer
	ErrOut *bytes.Buffer
}

// NewTestRenderer builds a renderer over in-memory buffers with the
// given mode and simulated TTY state.
func NewTestRenderer(mode output.OutputMode, isTTY bool) *TestRenderer {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	return &TestRenderer{
		Renderer: output.NewRendererWithTTY(out, errOut, isTTY, mode),
		Out:      out,
		ErrOut:   errOut,
	}
}

// NewTestRendererText simulates an interactive terminal.
func NewTestRendererText() *TestRenderer {
	return NewTestRenderer(output.ModeText, true)
}

// NewTestRendererMarkdown simulates piped output.
func NewTestRendererMarkdown() *TestRenderer {
	return NewTestRenderer(output.ModeMarkdown, false)
}

// NewTestRendererJSON renders machine-readable output.
func NewTestRendererJSON() *TestRenderer {
	return NewTestRenderer(output.ModeJSON, false)
}

// Output returns everything written to stdout so far.
func (tr *TestRenderer) Output() string {
	return tr.Out.String()
}

// ErrorOutput returns everything written to stderr so far.
func (tr *TestRenderer) ErrorOutput() string {
	return tr.ErrOut.String()
}

var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// AssertNoANSI fails the test when s carries ANSI escape codes.
func AssertNoANSI(t *testing.T, s string) {
	t.Helper()
	if ansiPattern.MatchString(s) {
		t.Errorf("string contains ANSI escape codes: %q", s)
	}
}

// AssertContains fails the test when s lacks the expected substring.
func AssertContains(t *testing.T, s, expected string) {
	t.Helper()
	if !strings.Contains(s, expected) {
		t.Errorf("string %q does not contain expected %q", s, expected)
	}
}
