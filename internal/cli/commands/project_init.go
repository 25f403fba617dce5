package commands

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Spycner/brix/internal/cli/output"
	"github.com/Spycner/brix/internal/cli/prompt"
	"github.com/Spycner/brix/internal/hub"
	"github.com/Spycner/brix/pkg/profile"
	"github.com/Spycner/brix/pkg/project"
)

// InitOptions holds options for project init.
type InitOptions struct {
	Name            string
	BaseDir         string
	Team            string
	Profile         string
	Packages        []string
	NoPackages      bool
	Materialization string
	PersistDocs     bool
	Example         bool
	Force           bool
}

// fallbackVersions pins known packages for offline init. Used only when
// the hub lookup fails; unknown packages are skipped instead.
var fallbackVersions = map[string]string{
	"dbt-labs/dbt_utils":         "1.3.0",
	"dbt-labs/codegen":           "0.13.1",
	"dbt-labs/audit_helper":      "0.12.1",
	"calogica/dbt_expectations":  "0.10.4",
	"elementary-data/elementary": "0.16.1",
}

// NewProjectInitCommand creates the project init command.
func NewProjectInitCommand() *cobra.Command {
	opts := &InitOptions{}
	cmd := &cobra.Command{
		Use:   "init [dir]",
		Short: "Initialize a new dbt project",
		Long: `Initialize a new dbt project with sensible defaults.

Without --name, launches an interactive wizard. With --name, runs in
CLI mode where --profile is also required. The project lands at
<dir>/<team>/<name> (team optional); dir defaults to the current
directory or BRIX_DBT_PROJECT_BASE_DIR.

packages.yml always includes dbt-labs/dbt_utils; add more hub packages
with repeated --package flags. Versions are resolved from
hub.getdbt.com.`,
		Example: `  # Interactive wizard
  brix project init

  # CLI mode
  brix project init -n my_project -p databricks_dev

  # Under a team directory, with extras
  brix project init ~/work -n my_project -p dev -t analytics --package codegen`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				opts.BaseDir = args[0]
			}
			return runProjectInit(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Name, "name", "n", "", "Project name (omit to run the wizard)")
	cmd.Flags().StringVarP(&opts.BaseDir, "base-dir", "b", "", "Base directory for the project (env: BRIX_DBT_PROJECT_BASE_DIR)")
	cmd.Flags().StringVarP(&opts.Team, "team", "t", "", "Team subdirectory under the base directory")
	cmd.Flags().StringVarP(&opts.Profile, "profile", "p", "", "Profile name to use in dbt_project.yml")
	cmd.Flags().StringArrayVar(&opts.Packages, "package", nil, "Additional hub package (repeatable)")
	cmd.Flags().BoolVar(&opts.NoPackages, "no-packages", false, "Skip packages.yml")
	cmd.Flags().StringVar(&opts.Materialization, "materialization", "", "Default materialization: view, table, ephemeral")
	cmd.Flags().BoolVar(&opts.PersistDocs, "persist-docs", false, "Enable persist_docs for Unity Catalog")
	cmd.Flags().BoolVar(&opts.Example, "example", false, "Create an example model")
	cmd.Flags().BoolVarP(&opts.Force, "force", "f", false, "Overwrite an existing project")

	_ = cmd.RegisterFlagCompletionFunc("materialization",
		func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
			return []string{"view", "table", "ephemeral"}, cobra.ShellCompDirectiveNoFileComp
		})

	return cmd
}

func runProjectInit(cmd *cobra.Command, opts *InitOptions) error {
	cmdCtx := NewCommandContext(cmd)

	if opts.BaseDir == "" {
		opts.BaseDir = os.Getenv("BRIX_DBT_PROJECT_BASE_DIR")
	}

	if opts.Name == "" {
		if !prompt.IsInteractive() {
			return fmt.Errorf("--name is required in non-interactive mode")
		}
		return runInitWizard(cmd, cmdCtx, opts)
	}

	if opts.Profile == "" {
		return fmt.Errorf("--profile is required in CLI mode")
	}

	return createProject(cmd, cmdCtx, opts)
}

// createProject writes the project tree. Shared by CLI mode and the
// wizard; opts are fully populated by the time it runs.
func createProject(cmd *cobra.Command, cmdCtx *CommandContext, opts *InitOptions) error {
	r := cmdCtx.Renderer

	if err := project.ValidateName(opts.Name); err != nil {
		return err
	}
	switch opts.Materialization {
	case "", "view", "table", "ephemeral":
	default:
		return fmt.Errorf("invalid materialization %q (expected view, table, or ephemeral)", opts.Materialization)
	}

	target := projectTargetDir(opts)
	if _, err := os.Stat(filepath.Join(target, project.ProjectFileName)); err == nil && !opts.Force {
		return fmt.Errorf("project already exists at %s (use --force to overwrite)", target)
	}

	var packages *project.PackageFile
	if !opts.NoPackages {
		f, err := buildPackageList(cmd, r, opts.Packages)
		if err != nil {
			return err
		}
		packages = f
	}

	p, err := project.NewProject(opts.Name, opts.Profile)
	if err != nil {
		return err
	}
	applyModelConfig(p, opts)

	if err := os.MkdirAll(target, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", target, err)
	}
	if err := project.SaveProject(p, target); err != nil {
		return err
	}
	created := []string{project.ProjectFileName}

	if packages != nil {
		if err := project.SavePackages(packages, target); err != nil {
			return err
		}
		created = append(created, project.PackagesFileName)
	}

	for _, paths := range [][]string{
		p.ModelPaths, p.SeedPaths, p.TestPaths,
		p.MacroPaths, p.SnapshotPaths, p.AnalysisPaths,
	} {
		for _, dir := range paths {
			if err := os.MkdirAll(filepath.Join(target, dir), 0o755); err != nil {
				return fmt.Errorf("failed to create %s: %w", dir, err)
			}
		}
	}

	if err := copyTemplate("project", target, opts.Force); err != nil {
		return err
	}
	created = append(created, ".gitignore")

	if opts.Example {
		if err := copyTemplate("example", target, opts.Force); err != nil {
			return err
		}
		files, err := listTemplateFiles("example")
		if err != nil {
			return err
		}
		created = append(created, files...)
	}

	r.Println("")
	for _, f := range created {
		r.StatusLine(f, "success", "")
	}
	r.Println("")
	r.Success(fmt.Sprintf("Created dbt project '%s' at %s", opts.Name, target))

	if packages != nil {
		r.Println("")
		r.Printf("Run 'dbt deps' in %s to install packages.\n", target)
	}

	r.Println("")
	r.Println("Next steps:")
	r.Printf("  1. cd %s\n", target)
	r.Println("  2. dbt debug  # Test connection")
	r.Println("  3. dbt run    # Run your models")

	return nil
}

// projectTargetDir resolves <base>/<team?>/<name>.
func projectTargetDir(opts *InitOptions) string {
	base := opts.BaseDir
	if base == "" {
		base = "."
	}
	parts := []string{base}
	if opts.Team != "" {
		parts = append(parts, opts.Team)
	}
	parts = append(parts, opts.Name)
	return filepath.Join(parts...)
}

// buildPackageList resolves the hub packages for a new project:
// dbt_utils always, plus the requested extras, deduplicated.
func buildPackageList(cmd *cobra.Command, r *output.Renderer, extras []string) (*project.PackageFile, error) {
	names := []string{"dbt-labs/dbt_utils"}
	for _, raw := range extras {
		resolved := project.ResolvePackageName(raw)
		if err := project.ValidateHubPackageName(resolved); err != nil {
			return nil, err
		}
		if !slices.Contains(names, resolved) {
			names = append(names, resolved)
		}
	}

	r.Println("Fetching package versions...")
	results := hub.NewClient().LatestVersions(cmd.Context(), names)

	f := &project.PackageFile{}
	for _, res := range results {
		version := res.Version
		if res.Err != nil {
			pinned, ok := fallbackVersions[res.Identifier]
			if !ok {
				r.Warning(fmt.Sprintf("skipping %s: %v", res.Identifier, res.Err))
				continue
			}
			version = pinned
		}
		if err := project.AddHubPackage(f, res.Identifier, version); err != nil {
			return nil, err
		}
		r.Printf("  %s: %s\n", res.Identifier, version)
	}
	return f, nil
}

// applyModelConfig seeds models.<name> from the Databricks options.
func applyModelConfig(p *project.Project, opts *InitOptions) {
	cfg := map[string]any{}
	if opts.Materialization != "" {
		cfg["+materialized"] = opts.Materialization
	}
	if opts.PersistDocs {
		cfg["+persist_docs"] = map[string]any{"relation": true, "columns": true}
	}
	if len(cfg) > 0 {
		p.Models = map[string]any{opts.Name: cfg}
	}
}

func runInitWizard(cmd *cobra.Command, cmdCtx *CommandContext, opts *InitOptions) error {
	r := cmdCtx.Renderer
	p := prompt.NewStdio()

	r.Header(1, "dbt project setup")

	name, err := askProjectName(p, r)
	if err != nil {
		return wizardErr(r, err)
	}
	opts.Name = name

	baseLabel := "Base directory"
	if opts.BaseDir != "" {
		baseLabel += " (from BRIX_DBT_PROJECT_BASE_DIR)"
	}
	base, err := p.Input(baseLabel, "", firstNonEmpty(opts.BaseDir, "."))
	if err != nil {
		return wizardErr(r, err)
	}
	opts.BaseDir = base

	team, err := p.Input("Team subdirectory (optional)", "", "")
	if err != nil {
		return wizardErr(r, err)
	}
	opts.Team = team

	target := projectTargetDir(opts)
	if _, statErr := os.Stat(filepath.Join(target, project.ProjectFileName)); statErr == nil {
		r.Warning("Project already exists at " + target)
		overwrite, err := p.Confirm("Overwrite existing project?", false)
		if err != nil {
			return wizardErr(r, err)
		}
		if !overwrite {
			r.Println("Cancelled.")
			return nil
		}
		opts.Force = true
	}

	profileName, isDatabricks, err := askProfile(p, r, cmdCtx, opts.Name)
	if err != nil {
		return wizardErr(r, err)
	}
	opts.Profile = profileName

	if isDatabricks {
		mat, err := p.Select("Default materialization", []string{"view", "table", "ephemeral"}, 0)
		if err != nil {
			return wizardErr(r, err)
		}
		opts.Materialization = mat

		persist, err := p.Confirm("Enable persist_docs for Unity Catalog?", false)
		if err != nil {
			return wizardErr(r, err)
		}
		opts.PersistDocs = persist
	}

	extras, err := p.Input("Additional packages (comma-separated, dbt_utils is always included)", "", "")
	if err != nil {
		return wizardErr(r, err)
	}
	opts.Packages = splitCommaList(extras)

	example, err := p.Confirm("Create an example model?", true)
	if err != nil {
		return wizardErr(r, err)
	}
	opts.Example = example

	r.Println("")
	r.Header(2, "Summary")
	r.Printf("  Project:  %s\n", opts.Name)
	r.Printf("  Location: %s\n", projectTargetDir(opts))
	r.Printf("  Profile:  %s\n", opts.Profile)
	if opts.Materialization != "" {
		r.Printf("  Materialization: %s\n", opts.Materialization)
	}
	r.Println("")

	ok, err := p.Confirm("Create project?", true)
	if err != nil {
		return wizardErr(r, err)
	}
	if !ok {
		r.Println("Cancelled.")
		return nil
	}

	return createProject(cmd, cmdCtx, opts)
}

// askProjectName loops until the name passes dbt's grammar.
func askProjectName(p *prompt.Prompter, r *output.Renderer) (string, error) {
	for {
		name, err := p.Input("Project name", "my_dbt_project", "")
		if err != nil {
			return "", err
		}
		if err := project.ValidateName(name); err != nil {
			r.Warning(err.Error())
			continue
		}
		return name, nil
	}
}

// askProfile picks a profile from profiles.yml when one exists, falling
// back to free entry. Reports whether the chosen profile has a
// Databricks output so the wizard can offer warehouse options.
func askProfile(p *prompt.Prompter, r *output.Renderer, cmdCtx *CommandContext, projectName string) (string, bool, error) {
	path := cmdCtx.ProfilesPath()
	ps, err := profile.Load(path)
	if err != nil {
		r.Printf("No profiles.yml found at %s; using '%s' as the profile name.\n", path, projectName)
		r.Println("Remember to configure this profile in profiles.yml (brix profile init).")
		name, err := p.Input("Profile name", "", projectName)
		return name, false, err
	}

	names := ps.ProfileNames()
	if len(names) == 0 {
		name, err := p.Input("Profile name", "", projectName)
		return name, false, err
	}

	r.Printf("Found profiles.yml at %s\n", path)
	const other = "other (type a name)"
	choice, err := p.Select("Profile", append(slices.Clone(names), other), 0)
	if err != nil {
		return "", false, err
	}
	if choice == other {
		name, err := p.Input("Profile name", "", projectName)
		return name, false, err
	}

	return choice, profileHasDatabricks(ps, choice), nil
}

func profileHasDatabricks(ps *profile.ProfileSet, name string) bool {
	prof, ok := ps.Profiles[name]
	if !ok {
		return false
	}
	for _, out := range prof.Outputs {
		if out.Type() == "databricks" {
			return true
		}
	}
	return false
}

func wizardErr(r *output.Renderer, err error) error {
	if errors.Is(err, prompt.ErrCanceled) {
		r.Println("Cancelled.")
		return nil
	}
	return err
}

func splitCommaList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
