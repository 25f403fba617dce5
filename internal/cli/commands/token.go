package commands

import (
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/Spycner/brix/internal/azure"
	"github.com/Spycner/brix/internal/cli/output"
	"github.com/Spycner/brix/internal/dbt"
	"github.com/Spycner/brix/internal/token"
)

// expiresLayout renders token expiry for humans.
const expiresLayout = "2006-01-02 15:04 UTC"

// tokenManager builds the manager behind the token subcommands. Tests
// replace it to keep Azure and the workspace out of the loop.
var tokenManager = func(cmdCtx *CommandContext) (*token.Manager, error) {
	return cmdCtx.NewTokenManager()
}

// NewTokenCommand creates the token command group.
func NewTokenCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Manage Databricks tokens",
		Long: `Mint and track the Databricks workspace tokens dbt reads through
env_var() expressions. Tokens are created from your Azure AD identity
and recorded locally so expiry can be checked without calling the
workspace.

Environments come from the profile named by the token_profile
configuration key (default DDBT).`,
	}

	cmd.AddCommand(newTokenCheckCommand())
	cmd.AddCommand(newTokenRefreshCommand())
	cmd.AddCommand(newTokenStatusCommand())

	return cmd
}

// TokenCheckOutput is the JSON output for 'token check'.
type TokenCheckOutput struct {
	Profile      string             `json:"profile"`
	Results      []TokenCheckResult `json:"results"`
	NeedsRefresh int                `json:"needs_refresh"`
}

// TokenCheckResult is one environment's check state.
type TokenCheckResult struct {
	Environment    string  `json:"environment"`
	TokenVariable  string  `json:"token_variable,omitempty"`
	NeedsRefresh   bool    `json:"needs_refresh"`
	Message        string  `json:"message"`
	ExpiresAt      string  `json:"expires_at,omitempty"`
	HoursRemaining float64 `json:"hours_remaining,omitempty"`
}

func newTokenCheckCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check [environments...]",
		Short: "Check whether tokens need a refresh",
		Long: `Report the state of each environment's token: missing, expired, or
valid with the hours remaining. Without arguments every environment of
the token profile is checked. Checks never call the workspace; they
read the local token records.`,
		Example: `  # Check all environments
  brix token check

  # Check one environment
  brix token check dev`,
		ValidArgsFunction: completeEnvironmentArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTokenCheck(cmd, args)
		},
	}
}

func runTokenCheck(cmd *cobra.Command, args []string) error {
	cmdCtx := NewCommandContext(cmd)
	r := cmdCtx.Renderer

	mgr, err := tokenManager(cmdCtx)
	if err != nil {
		return err
	}
	results, err := mgr.CheckAll(cmdCtx.Cfg.TokenProfile, args)
	if err != nil {
		return err
	}

	needsRefresh := 0
	for _, res := range results {
		if res.NeedsRefresh {
			needsRefresh++
		}
	}

	if r.EffectiveMode() == output.ModeJSON {
		out := &TokenCheckOutput{Profile: cmdCtx.Cfg.TokenProfile, NeedsRefresh: needsRefresh}
		for _, res := range results {
			out.Results = append(out.Results, TokenCheckResult{
				Environment:    res.Environment,
				TokenVariable:  res.TokenVariable,
				NeedsRefresh:   res.NeedsRefresh,
				Message:        res.Message,
				ExpiresAt:      formatExpiry(res.ExpiresAt),
				HoursRemaining: res.HoursRemaining,
			})
		}
		return r.JSON(out)
	}

	for _, res := range results {
		if res.NeedsRefresh {
			r.Warning(fmt.Sprintf("[%s] %s", res.Environment, res.Message))
			if res.TokenVariable != "" {
				r.Printf("  Token variable: %s\n", res.TokenVariable)
			}
		} else {
			r.Success(fmt.Sprintf("[%s] %s", res.Environment, res.Message))
			if !res.ExpiresAt.IsZero() {
				r.Printf("  Expires: %s\n", res.ExpiresAt.UTC().Format(expiresLayout))
			}
		}
	}
	if needsRefresh > 0 {
		r.Printf("\n%d token(s) need refresh. Run 'brix token refresh' to update.\n", needsRefresh)
	}

	return nil
}

// TokenRefreshOptions holds options for the token refresh command.
type TokenRefreshOptions struct {
	Force      bool
	AuthMethod string
	Lifetime   int
}

// TokenRefreshOutput is the JSON output for 'token refresh'.
type TokenRefreshOutput struct {
	Profile string               `json:"profile"`
	Results []TokenRefreshResult `json:"results"`
	Failed  int                  `json:"failed"`
}

// TokenRefreshResult is one environment's refresh outcome.
type TokenRefreshResult struct {
	Environment   string `json:"environment"`
	TokenVariable string `json:"token_variable,omitempty"`
	Success       bool   `json:"success"`
	Refreshed     bool   `json:"refreshed"`
	Message       string `json:"message"`
	ExpiresAt     string `json:"expires_at,omitempty"`
}

func newTokenRefreshCommand() *cobra.Command {
	opts := &TokenRefreshOptions{}
	cmd := &cobra.Command{
		Use:   "refresh [environments...]",
		Short: "Mint fresh Databricks tokens",
		Long: `Create a new workspace token for each environment and export it into
the process environment under the configured variable. Tokens that are
still valid are skipped unless --force is given. Without arguments
every environment of the token profile is refreshed.

Minting authenticates against Azure AD first; --auth-method picks the
credential (auto, cli, env, device).`,
		Example: `  # Refresh every environment that needs it
  brix token refresh

  # Force a new 8 hour token for dev
  brix token refresh dev --force --lifetime 8

  # Use the Azure CLI credential explicitly
  brix token refresh --auth-method cli`,
		ValidArgsFunction: completeEnvironmentArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTokenRefresh(cmd, args, opts)
		},
	}

	flags := cmd.Flags()
	flags.BoolVarP(&opts.Force, "force", "f", false, "Refresh even when the current token is still valid")
	flags.StringVarP(&opts.AuthMethod, "auth-method", "a", "auto", "Azure authentication method: auto, cli, env, device")
	flags.IntVarP(&opts.Lifetime, "lifetime", "l", token.DefaultLifetimeHours, "Token lifetime in hours (1-24)")

	_ = cmd.RegisterFlagCompletionFunc("auth-method",
		func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
			return azure.Methods(), cobra.ShellCompDirectiveNoFileComp
		})

	return cmd
}

func runTokenRefresh(cmd *cobra.Command, args []string, opts *TokenRefreshOptions) error {
	cmdCtx := NewCommandContext(cmd)
	r := cmdCtx.Renderer

	method, err := azure.ParseMethod(opts.AuthMethod)
	if err != nil {
		return err
	}
	mgr, err := tokenManager(cmdCtx)
	if err != nil {
		return err
	}

	results, err := mgr.RefreshAll(cmd.Context(), cmdCtx.Cfg.TokenProfile, args, token.RefreshOptions{
		AuthMethod:    method,
		Force:         opts.Force,
		LifetimeHours: opts.Lifetime,
	})
	if err != nil {
		return err
	}

	failed := 0
	for _, res := range results {
		if !res.Success {
			failed++
		}
	}

	if r.EffectiveMode() == output.ModeJSON {
		out := &TokenRefreshOutput{Profile: cmdCtx.Cfg.TokenProfile, Failed: failed}
		for _, res := range results {
			out.Results = append(out.Results, TokenRefreshResult{
				Environment:   res.Environment,
				TokenVariable: res.TokenVariable,
				Success:       res.Success,
				Refreshed:     res.Refreshed,
				Message:       res.Message,
				ExpiresAt:     formatExpiry(res.ExpiresAt),
			})
		}
		if err := r.JSON(out); err != nil {
			return err
		}
	} else {
		for _, res := range results {
			if res.Success {
				r.Success(fmt.Sprintf("[%s] %s", res.Environment, res.Message))
			} else {
				r.Error(fmt.Sprintf("[%s] %s", res.Environment, res.Message))
			}
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d token(s) failed to refresh", failed)
	}
	return nil
}

// TokenStatusOutput is the JSON output for 'token status'.
type TokenStatusOutput struct {
	Profile      string           `json:"profile"`
	ProfilePath  string           `json:"profile_path"`
	Environments []TokenEnvStatus `json:"environments"`
}

// TokenEnvStatus is one environment's connection and token state.
type TokenEnvStatus struct {
	Environment   string `json:"environment"`
	Host          string `json:"host,omitempty"`
	TokenVariable string `json:"token_variable,omitempty"`
	Status        string `json:"status"`
	ExpiresAt     string `json:"expires_at,omitempty"`
	NeedsRefresh  bool   `json:"needs_refresh"`
}

func newTokenStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show token details for every environment",
		Long: `Show each environment of the token profile with its host, token
variable, and the expiry of the recorded token.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTokenStatus(cmd)
		},
	}
}

func runTokenStatus(cmd *cobra.Command) error {
	cmdCtx := NewCommandContext(cmd)
	r := cmdCtx.Renderer
	profileName := cmdCtx.Cfg.TokenProfile

	mgr, err := tokenManager(cmdCtx)
	if err != nil {
		return err
	}
	statuses, err := mgr.Status(profileName)
	if err != nil {
		return err
	}
	// Status and CheckAll both walk the environments in name order, so
	// the slices line up index for index.
	checks, err := mgr.CheckAll(profileName, nil)
	if err != nil {
		return err
	}

	rows := make([]TokenEnvStatus, 0, len(statuses))
	for i, s := range statuses {
		row := TokenEnvStatus{
			Environment:   s.Environment,
			Host:          s.Host,
			TokenVariable: s.TokenEnvVar,
		}
		if i < len(checks) {
			row.Status = checks[i].Message
			row.NeedsRefresh = checks[i].NeedsRefresh
			row.ExpiresAt = formatExpiry(checks[i].ExpiresAt)
		}
		rows = append(rows, row)
	}

	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(&TokenStatusOutput{
			Profile:      profileName,
			ProfilePath:  cmdCtx.ProfilesPath(),
			Environments: rows,
		})
	}

	r.Printf("Profile: %s\n", profileName)
	r.Printf("Profile path: %s\n", cmdCtx.ProfilesPath())
	r.Println("")

	t := output.NewTable()
	t.AppendHeader(table.Row{"ENVIRONMENT", "HOST", "TOKEN VARIABLE", "STATUS", "EXPIRES"})
	for i, row := range rows {
		variable := row.TokenVariable
		if variable == "" {
			variable = "(not configured)"
		}
		expires := ""
		if i < len(checks) && !checks[i].ExpiresAt.IsZero() {
			expires = checks[i].ExpiresAt.UTC().Format(expiresLayout)
		}
		t.AppendRow(table.Row{row.Environment, row.Host, variable, row.Status, expires})
	}
	r.RenderTable(t)

	return nil
}

// formatExpiry renders a token expiry for JSON payloads, empty when no
// record exists.
func formatExpiry(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// completeEnvironmentArgs completes environment names from the token
// profile.
func completeEnvironmentArgs(cmd *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	cmdCtx := NewCommandContext(cmd)
	prof, err := dbt.Load(cmdCtx.ProfilesPath(), cmdCtx.Cfg.TokenProfile)
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return prof.EnvironmentNames(), cobra.ShellCompDirectiveNoFileComp
}
