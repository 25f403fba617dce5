// Package config loads brix settings from config files, environment
// variables, and CLI flags, with flags taking the highest precedence.
package config

// Default configuration values.
const (
	// DefaultTokenProfile is the profiles.yml entry the token commands
	// operate on when none is configured.
	DefaultTokenProfile = "DDBT"
	// DefaultOutput auto-detects: TTY=text, non-TTY=markdown.
	DefaultOutput = "auto"
)

// Config holds all CLI configuration options.
type Config struct {
	// ProfilesPath points at profiles.yml. Empty means dbt's default
	// location (~/.dbt/profiles.yml).
	ProfilesPath string `koanf:"profiles_path"`

	// ProjectDir anchors project file lookups. Empty means the
	// working directory.
	ProjectDir string `koanf:"project_dir"`

	// TokenProfile names the profiles.yml entry used by token commands.
	TokenProfile string `koanf:"token_profile"`

	// UpdateCheck enables the daily background release check.
	UpdateCheck bool `koanf:"update_check"`

	// OutputFormat is one of auto, text, markdown, json.
	OutputFormat string `koanf:"output"`

	// Verbose enables debug logging.
	Verbose bool `koanf:"verbose"`
}
