package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Spycner/brix/internal/cli/config"
	"github.com/Spycner/brix/internal/cli/output"
	"github.com/Spycner/brix/internal/token"
	"github.com/Spycner/brix/pkg/profile"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Renderer *output.Renderer
}

// NewCommandContext creates a CommandContext from the command's
// configuration and streams.
func NewCommandContext(cmd *cobra.Command) *CommandContext {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())
	mode := output.Mode(cfg.OutputFormat)
	r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode)

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Renderer: r,
	}
}

// ProfilesPath resolves where profiles.yml lives: explicit configuration
// first, dbt's default location otherwise.
func (c *CommandContext) ProfilesPath() string {
	if c.Cfg.ProfilesPath != "" {
		return c.Cfg.ProfilesPath
	}
	return profile.DefaultPath()
}

// ProjectDir resolves where project commands look for dbt_project.yml.
func (c *CommandContext) ProjectDir() string {
	if c.Cfg.ProjectDir != "" {
		return c.Cfg.ProjectDir
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "."
	}
	return cwd
}

// NewTokenManager builds the token manager over the user's record store.
func (c *CommandContext) NewTokenManager() (*token.Manager, error) {
	dir, err := token.DefaultStoreDir()
	if err != nil {
		return nil, fmt.Errorf("failed to locate token store: %w", err)
	}
	return token.NewManager(token.NewStore(dir), c.ProfilesPath()), nil
}

// Helper functions shared across commands

// getConfig returns the current configuration.
// It uses config.GetCurrentConfig() if available, otherwise falls back to
// environment variables.
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}

	return &config.Config{
		ProfilesPath: os.Getenv("BRIX_PROFILES_PATH"),
		ProjectDir:   os.Getenv("BRIX_PROJECT_DIR"),
		TokenProfile: getEnvOrDefault("BRIX_TOKEN_PROFILE", config.DefaultTokenProfile),
		UpdateCheck:  os.Getenv("BRIX_UPDATE_CHECK") != "false",
		OutputFormat: getEnvOrDefault("BRIX_OUTPUT", config.DefaultOutput),
		Verbose:      os.Getenv("BRIX_VERBOSE") == "true",
	}
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
