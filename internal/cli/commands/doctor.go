package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Spycner/brix/internal/cli/config"
	"github.com/Spycner/brix/internal/cli/output"
	"github.com/Spycner/brix/internal/dbt"
	"github.com/Spycner/brix/internal/hub"
	"github.com/Spycner/brix/pkg/profile"
	"github.com/Spycner/brix/pkg/project"
)

// DoctorOptions holds options for the doctor command.
type DoctorOptions struct {
	Format string // Output format: text, json
}

// NewDoctorCommand creates the doctor command.
func NewDoctorCommand() *cobra.Command {
	opts := &DoctorOptions{}
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check your brix and dbt setup",
		Long: `Diagnose common setup problems.

The doctor command inspects the pieces brix depends on and reports
their state:
- Configuration file in use
- profiles.yml location and parseability
- The token profile and its Databricks environments
- Recorded workspace tokens and their expiry
- dbt projects discoverable from the project directory
- Connectivity to the dbt package hub

Output adapts to environment:
  - Terminal: Styled output with colors
  - Piped/Scripted: Markdown format
  - JSON: Machine-readable format`,
		Example: `  # Run setup checks
  brix doctor

  # Output as JSON
  brix doctor --format json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDoctor(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Format, "format", "f", "", "Output format: text, json")

	return cmd
}

// DoctorOutput is the JSON output for the doctor command.
type DoctorOutput struct {
	Checks  []DoctorCheck `json:"checks"`
	Passed  int           `json:"passed"`
	Warned  int           `json:"warned"`
	Failed  int           `json:"failed"`
	Healthy bool          `json:"healthy"`
}

// DoctorCheck represents a single setup check result.
type DoctorCheck struct {
	Name   string `json:"name"`
	Status string `json:"status"` // "pass", "warn", "error"
	Detail string `json:"detail,omitempty"`
}

func runDoctor(cmd *cobra.Command, opts *DoctorOptions) error {
	cmdCtx := NewCommandContext(cmd)
	r := cmdCtx.Renderer

	// Override renderer if format flag is set
	if opts.Format != "" {
		r = output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(opts.Format))
	}

	doctorOutput := buildDoctorOutput(cmd, cmdCtx)

	var err error
	switch r.EffectiveMode() {
	case output.ModeJSON:
		err = r.JSON(doctorOutput)
	case output.ModeMarkdown:
		err = renderDoctorMarkdown(r, doctorOutput)
	default:
		err = renderDoctorText(r, doctorOutput)
	}
	if err != nil {
		return err
	}

	if doctorOutput.Failed > 0 {
		return fmt.Errorf("%d check(s) failed", doctorOutput.Failed)
	}
	return nil
}

func buildDoctorOutput(cmd *cobra.Command, cmdCtx *CommandContext) *DoctorOutput {
	return tallyChecks([]DoctorCheck{
		checkConfigFile(),
		checkProfilesFile(cmdCtx),
		checkTokenProfile(cmdCtx),
		checkStoredTokens(cmdCtx),
		checkProjects(cmdCtx),
		checkHub(cmd),
	})
}

func tallyChecks(checks []DoctorCheck) *DoctorOutput {
	out := &DoctorOutput{Checks: checks}
	for _, c := range checks {
		switch c.Status {
		case "pass":
			out.Passed++
		case "warn":
			out.Warned++
		case "error":
			out.Failed++
		}
	}
	out.Healthy = out.Failed == 0

	return out
}

func checkConfigFile() DoctorCheck {
	if used := config.GetConfigFileUsed(); used != "" {
		return DoctorCheck{Name: "configuration", Status: "pass", Detail: used}
	}
	return DoctorCheck{Name: "configuration", Status: "pass", Detail: "built-in defaults"}
}

func checkProfilesFile(cmdCtx *CommandContext) DoctorCheck {
	path := cmdCtx.ProfilesPath()
	ps, err := profile.Load(path)
	if err != nil {
		return DoctorCheck{Name: "profiles.yml", Status: "error", Detail: err.Error()}
	}
	names := ps.ProfileNames()
	return DoctorCheck{
		Name:   "profiles.yml",
		Status: "pass",
		Detail: fmt.Sprintf("%d profile(s) at %s", len(names), path),
	}
}

func checkTokenProfile(cmdCtx *CommandContext) DoctorCheck {
	name := cmdCtx.Cfg.TokenProfile
	p, err := dbt.Load(cmdCtx.ProfilesPath(), name)
	if err != nil {
		return DoctorCheck{
			Name:   "token profile",
			Status: "warn",
			Detail: fmt.Sprintf("%s: %v", name, err),
		}
	}
	envs := p.EnvironmentNames()
	if len(envs) == 0 {
		return DoctorCheck{
			Name:   "token profile",
			Status: "warn",
			Detail: fmt.Sprintf("%s has no Databricks outputs with env_var tokens", name),
		}
	}
	return DoctorCheck{
		Name:   "token profile",
		Status: "pass",
		Detail: fmt.Sprintf("%s (%s)", name, strings.Join(envs, ", ")),
	}
}

func checkStoredTokens(cmdCtx *CommandContext) DoctorCheck {
	mgr, err := cmdCtx.NewTokenManager()
	if err != nil {
		return DoctorCheck{Name: "stored tokens", Status: "warn", Detail: err.Error()}
	}
	statuses, err := mgr.Status(cmdCtx.Cfg.TokenProfile)
	if err != nil {
		return DoctorCheck{Name: "stored tokens", Status: "warn", Detail: err.Error()}
	}

	now := time.Now()
	recorded := 0
	expired := 0
	for _, s := range statuses {
		if s.Info == nil {
			continue
		}
		recorded++
		if s.Info.Expired(now) {
			expired++
		}
	}

	if recorded == 0 {
		return DoctorCheck{
			Name:   "stored tokens",
			Status: "warn",
			Detail: "no token records; run 'brix token refresh'",
		}
	}
	if expired > 0 {
		return DoctorCheck{
			Name:   "stored tokens",
			Status: "warn",
			Detail: fmt.Sprintf("%d of %d expired; run 'brix token refresh'", expired, recorded),
		}
	}
	return DoctorCheck{
		Name:   "stored tokens",
		Status: "pass",
		Detail: fmt.Sprintf("%d recorded, none expired", recorded),
	}
}

func checkProjects(cmdCtx *CommandContext) DoctorCheck {
	root := cmdCtx.ProjectDir()
	paths, err := project.FindProjects(root)
	if err != nil {
		return DoctorCheck{Name: "dbt projects", Status: "warn", Detail: err.Error()}
	}
	if len(paths) == 0 {
		return DoctorCheck{
			Name:   "dbt projects",
			Status: "warn",
			Detail: fmt.Sprintf("none found under %s", root),
		}
	}
	return DoctorCheck{
		Name:   "dbt projects",
		Status: "pass",
		Detail: fmt.Sprintf("%d found under %s", len(paths), root),
	}
}

func checkHub(cmd *cobra.Command) DoctorCheck {
	version, err := hub.NewClient().LatestVersion(cmd.Context(), "dbt-labs/dbt_utils")
	if err != nil {
		return DoctorCheck{
			Name:   "package hub",
			Status: "warn",
			Detail: fmt.Sprintf("hub.getdbt.com unreachable: %v", err),
		}
	}
	return DoctorCheck{
		Name:   "package hub",
		Status: "pass",
		Detail: fmt.Sprintf("reachable (dbt_utils %s)", version),
	}
}

func renderDoctorText(r *output.Renderer, out *DoctorOutput) error {
	styles := r.Styles()

	r.Println("")
	r.Println(styles.Header1.Render("brix doctor"))
	r.Println(styles.Muted.Render(strings.Repeat("=", 55)))
	r.Println("")

	for _, check := range out.Checks {
		status := "success"
		switch check.Status {
		case "warn":
			status = "warning"
		case "error":
			status = "error"
		}
		r.StatusLine(check.Name, status, check.Detail)
	}
	r.Println("")

	summary := fmt.Sprintf("%d passed, %d warnings, %d failed", out.Passed, out.Warned, out.Failed)
	if out.Healthy {
		r.Success(summary)
	} else {
		r.Error(summary)
	}

	return nil
}

func renderDoctorMarkdown(r *output.Renderer, out *DoctorOutput) error {
	r.Println("# brix doctor")
	r.Println("")

	for _, check := range out.Checks {
		status := "PASS"
		switch check.Status {
		case "warn":
			status = "WARN"
		case "error":
			status = "ERROR"
		}
		r.Printf("- **[%s]** %s", status, check.Name)
		if check.Detail != "" {
			r.Printf(": %s", check.Detail)
		}
		r.Println("")
	}
	r.Println("")
	r.Printf("**%d passed, %d warnings, %d failed**\n", out.Passed, out.Warned, out.Failed)

	return nil
}
