package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/Spycner/brix/internal/cli/output"
	"github.com/Spycner/brix/internal/hub"
	"github.com/Spycner/brix/pkg/project"
)

// NewProjectCommand creates the project command group.
func NewProjectCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Create and edit dbt projects",
		Long: `Create and edit dbt projects.

Covers the lifecycle of a dbt project's configuration files: scaffolding
a new project, listing projects under a directory, and editing
dbt_project.yml and packages.yml in place.

Edit commands resolve the project from --project-dir (or the current
directory).`,
	}

	cmd.AddCommand(NewProjectInitCommand())
	cmd.AddCommand(newProjectListCommand())
	cmd.AddCommand(newProjectSetCommand())
	cmd.AddCommand(newProjectPathsCommand())
	cmd.AddCommand(newProjectPackagesCommand())

	return cmd
}

// ProjectListEntry is one discovered project in list output.
type ProjectListEntry struct {
	Name    string `json:"name"`
	Profile string `json:"profile"`
	Path    string `json:"path"`
}

// ProjectListOutput is the JSON output for project list.
type ProjectListOutput struct {
	Projects []ProjectListEntry `json:"projects"`
	Count    int                `json:"count"`
}

func newProjectListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list [root]",
		Short: "List dbt projects under a directory",
		Long: `List dbt projects found by walking a directory tree.

Without a root argument the search starts at --project-dir if set,
otherwise at the enclosing git repository (or the current directory).
Common noise directories (dbt_packages, target, .venv, ...) are skipped.`,
		Example: `  # List projects under the current repository
  brix project list

  # List projects under a specific directory
  brix project list ~/work/analytics`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProjectList(cmd, args)
		},
	}
}

func runProjectList(cmd *cobra.Command, args []string) error {
	cmdCtx := NewCommandContext(cmd)
	r := cmdCtx.Renderer

	var root string
	switch {
	case len(args) == 1:
		root = args[0]
	case cmdCtx.Cfg.ProjectDir != "":
		root = cmdCtx.Cfg.ProjectDir
	default:
		root = project.DefaultSearchRoot()
	}

	paths, err := project.FindProjects(root)
	if err != nil {
		return fmt.Errorf("failed to scan %s: %w", root, err)
	}

	entries := make([]ProjectListEntry, 0, len(paths))
	for _, path := range paths {
		entry := ProjectListEntry{Path: filepath.Dir(path)}
		if p, loadErr := project.LoadProject(path); loadErr == nil {
			entry.Name = p.Name
			entry.Profile = p.Profile
		} else {
			r.Warning(fmt.Sprintf("%s: %v", path, loadErr))
		}
		entries = append(entries, entry)
	}

	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(ProjectListOutput{Projects: entries, Count: len(entries)})
	}

	if len(entries) == 0 {
		r.Println("No dbt projects found under " + root)
		return nil
	}

	r.Header(1, fmt.Sprintf("dbt projects (%d)", len(entries)))
	t := output.NewTable()
	t.AppendHeader(table.Row{"NAME", "PROFILE", "PATH"})
	for _, e := range entries {
		t.AppendRow(table.Row{e.Name, e.Profile, e.Path})
	}
	r.RenderTable(t)

	return nil
}

func newProjectSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set <field> <value>",
		Short: "Set a dbt_project.yml field",
		Long: `Set one of the editable dbt_project.yml fields.

Editable fields: name, profile, version, require-dbt-version.
An empty value clears require-dbt-version.`,
		Example: `  brix project set profile databricks_prod
  brix project set require-dbt-version ">=1.5.0,<2.0.0"
  brix project set require-dbt-version ""`,
		Args: cobra.ExactArgs(2),
		ValidArgsFunction: func(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
			if len(args) == 0 {
				return hyphenated(project.EditableFields()), cobra.ShellCompDirectiveNoFileComp
			}
			return nil, cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProjectSet(cmd, args[0], args[1])
		},
	}
}

func runProjectSet(cmd *cobra.Command, field, value string) error {
	cmdCtx := NewCommandContext(cmd)
	r := cmdCtx.Renderer
	dir := cmdCtx.ProjectDir()

	p, err := project.LoadProject(dir)
	if err != nil {
		return err
	}
	if err := project.UpdateField(p, field, value); err != nil {
		return err
	}
	if err := project.SaveProject(p, dir); err != nil {
		return err
	}

	switch strings.ReplaceAll(field, "-", "_") {
	case "name":
		r.Success(fmt.Sprintf("Updated project name to '%s'", value))
	case "profile":
		r.Success(fmt.Sprintf("Updated profile to '%s'", value))
	case "version":
		r.Success(fmt.Sprintf("Updated version to '%s'", value))
	case "require_dbt_version":
		if value == "" {
			r.Success("Cleared require-dbt-version")
		} else {
			r.Success(fmt.Sprintf("Updated require-dbt-version to '%s'", value))
		}
	}

	return nil
}

// PathsOptions holds options for the paths command.
type PathsOptions struct {
	CreateDir bool
}

func newProjectPathsCommand() *cobra.Command {
	opts := &PathsOptions{}
	cmd := &cobra.Command{
		Use:   "paths <add|remove|set> <field> <path>...",
		Short: "Edit dbt_project.yml path lists",
		Long: `Edit one of the dbt_project.yml path-list fields.

Fields: model-paths, seed-paths, test-paths, macro-paths,
snapshot-paths, analysis-paths, asset-paths, clean-targets.

Operations:
  add     append paths (no-op if already present)
  remove  remove paths (error if absent)
  set     replace the list wholesale`,
		Example: `  brix project paths add model-paths models/staging
  brix project paths add model-paths models/marts --create-dir
  brix project paths remove clean-targets dbt_modules
  brix project paths set seed-paths seeds data`,
		Args: cobra.MinimumNArgs(3),
		ValidArgsFunction: func(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
			switch len(args) {
			case 0:
				return []string{"add", "remove", "set"}, cobra.ShellCompDirectiveNoFileComp
			case 1:
				return hyphenated(project.PathFields()), cobra.ShellCompDirectiveNoFileComp
			}
			return nil, cobra.ShellCompDirectiveDefault
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProjectPaths(cmd, args[0], args[1], args[2:], opts)
		},
	}

	cmd.Flags().BoolVar(&opts.CreateDir, "create-dir", false, "Create the directory after adding its path")

	return cmd
}

func runProjectPaths(cmd *cobra.Command, op, field string, values []string, opts *PathsOptions) error {
	cmdCtx := NewCommandContext(cmd)
	r := cmdCtx.Renderer
	dir := cmdCtx.ProjectDir()

	var pathOp project.PathOp
	switch op {
	case "add":
		pathOp = project.PathAdd
	case "remove":
		pathOp = project.PathRemove
	case "set":
		pathOp = project.PathSet
	default:
		return fmt.Errorf("unknown operation %q (expected add, remove, or set)", op)
	}

	p, err := project.LoadProject(dir)
	if err != nil {
		return err
	}

	if pathOp == project.PathSet {
		if err := project.UpdatePathField(p, field, pathOp, values...); err != nil {
			return err
		}
	} else {
		for _, value := range values {
			if err := project.UpdatePathField(p, field, pathOp, value); err != nil {
				return err
			}
		}
	}

	if err := project.SaveProject(p, dir); err != nil {
		return err
	}

	switch pathOp {
	case project.PathAdd:
		for _, value := range values {
			r.Success(fmt.Sprintf("Added '%s' to %s", value, field))
		}
	case project.PathRemove:
		for _, value := range values {
			r.Success(fmt.Sprintf("Removed '%s' from %s", value, field))
		}
	case project.PathSet:
		r.Success(fmt.Sprintf("Set %s to: %s", field, strings.Join(values, ", ")))
	}

	if pathOp == project.PathAdd && opts.CreateDir {
		for _, value := range values {
			full := filepath.Join(dir, value)
			if _, err := os.Stat(full); os.IsNotExist(err) {
				if err := os.MkdirAll(full, 0o755); err != nil {
					return fmt.Errorf("failed to create %s: %w", full, err)
				}
				r.Println("Created directory: " + full)
			}
		}
	}

	return nil
}

func newProjectPackagesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "packages",
		Aliases: []string{"package"},
		Short:   "Edit packages.yml",
		Long: `List and edit the project's packages.yml.

Hub packages resolve short names (dbt_utils, codegen, elementary,
dbt_expectations, audit_helper) to their full hub identifiers. Without
--version the latest version is fetched from hub.getdbt.com.`,
	}

	cmd.AddCommand(newPackagesListCommand())
	cmd.AddCommand(newPackagesAddCommand())
	cmd.AddCommand(newPackagesRemoveCommand())
	cmd.AddCommand(newPackagesUpdateCommand())

	return cmd
}

// PackageEntry is one packages.yml entry in list output.
type PackageEntry struct {
	Type         string `json:"type"`
	Identifier   string `json:"identifier"`
	Version      string `json:"version,omitempty"`
	Revision     string `json:"revision,omitempty"`
	Subdirectory string `json:"subdirectory,omitempty"`
}

// PackagesListOutput is the JSON output for packages list.
type PackagesListOutput struct {
	Packages []PackageEntry `json:"packages"`
	Count    int            `json:"count"`
}

func newPackagesListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the project's packages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPackagesList(cmd)
		},
	}
}

func runPackagesList(cmd *cobra.Command) error {
	cmdCtx := NewCommandContext(cmd)
	r := cmdCtx.Renderer

	f, err := project.LoadPackages(cmdCtx.ProjectDir())
	if err != nil {
		return err
	}

	if r.EffectiveMode() == output.ModeJSON {
		entries := make([]PackageEntry, 0, len(f.Packages))
		for _, pkg := range f.Packages {
			switch p := pkg.(type) {
			case project.HubPackage:
				entries = append(entries, PackageEntry{Type: "hub", Identifier: p.Package, Version: p.Version})
			case project.GitPackage:
				entries = append(entries, PackageEntry{Type: "git", Identifier: p.Git, Revision: p.Revision, Subdirectory: p.Subdirectory})
			case project.LocalPackage:
				entries = append(entries, PackageEntry{Type: "local", Identifier: p.Local})
			}
		}
		return r.JSON(PackagesListOutput{Packages: entries, Count: len(entries)})
	}

	if len(f.Packages) == 0 {
		r.Println("No packages configured.")
		return nil
	}

	t := output.NewTable()
	t.AppendHeader(table.Row{"PACKAGE", "SOURCE"})
	for _, pkg := range f.Packages {
		identifier, detail := project.DisplayInfo(pkg)
		t.AppendRow(table.Row{identifier, detail})
	}
	r.RenderTable(t)

	return nil
}

// AddHubOptions holds options for packages add hub.
type AddHubOptions struct {
	Version string
}

func newPackagesAddCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a package",
	}

	cmd.AddCommand(newPackagesAddHubCommand())
	cmd.AddCommand(newPackagesAddGitCommand())
	cmd.AddCommand(newPackagesAddLocalCommand())

	return cmd
}

func newPackagesAddHubCommand() *cobra.Command {
	opts := &AddHubOptions{}
	cmd := &cobra.Command{
		Use:   "hub <name>",
		Short: "Add a hub package",
		Long: `Add a package from the dbt hub registry.

Short names for well-known packages resolve to their full identifiers.
Without --version the latest version is resolved from hub.getdbt.com.`,
		Example: `  brix project packages add hub dbt_utils
  brix project packages add hub calogica/dbt_date --version 0.10.1`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPackagesAddHub(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.Version, "version", "", "Package version (default: latest from hub)")

	return cmd
}

func runPackagesAddHub(cmd *cobra.Command, name string, opts *AddHubOptions) error {
	cmdCtx := NewCommandContext(cmd)
	r := cmdCtx.Renderer
	dir := cmdCtx.ProjectDir()

	resolved := project.ResolvePackageName(name)
	if err := project.ValidateHubPackageName(resolved); err != nil {
		return err
	}

	version := opts.Version
	if version == "" {
		var spinner *output.Spinner
		if r.EffectiveMode() == output.ModeText {
			spinner = r.NewSpinner(fmt.Sprintf("Fetching latest version for %s...", resolved))
			spinner.Start()
		}
		latest, err := hub.NewClient().LatestVersion(cmd.Context(), resolved)
		if err != nil {
			if spinner != nil {
				spinner.Fail("Could not reach hub.getdbt.com")
			}
			return fmt.Errorf("failed to resolve latest version for %s: %w (pass --version)", resolved, err)
		}
		if spinner != nil {
			spinner.Success(fmt.Sprintf("Latest version: %s", latest))
		}
		version = latest
	}

	f, err := project.LoadPackages(dir)
	if err != nil {
		return err
	}
	if err := project.AddHubPackage(f, resolved, version); err != nil {
		return err
	}
	if err := project.SavePackages(f, dir); err != nil {
		return err
	}

	r.Success(fmt.Sprintf("Added hub package: %s (%s)", resolved, version))
	return nil
}

// AddGitOptions holds options for packages add git.
type AddGitOptions struct {
	Revision     string
	Subdirectory string
}

func newPackagesAddGitCommand() *cobra.Command {
	opts := &AddGitOptions{}
	cmd := &cobra.Command{
		Use:   "git <url>",
		Short: "Add a git package",
		Example: `  brix project packages add git https://github.com/org/dbt-pkg --revision v1.2.0
  brix project packages add git https://github.com/org/monorepo --revision main --subdirectory dbt`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPackagesAddGit(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.Revision, "revision", "", "Git revision (tag, branch, or commit)")
	cmd.Flags().StringVar(&opts.Subdirectory, "subdirectory", "", "Subdirectory within the repository")
	_ = cmd.MarkFlagRequired("revision")

	return cmd
}

func runPackagesAddGit(cmd *cobra.Command, url string, opts *AddGitOptions) error {
	cmdCtx := NewCommandContext(cmd)
	r := cmdCtx.Renderer
	dir := cmdCtx.ProjectDir()

	f, err := project.LoadPackages(dir)
	if err != nil {
		return err
	}
	if err := project.AddGitPackage(f, url, opts.Revision, opts.Subdirectory); err != nil {
		return err
	}
	if err := project.SavePackages(f, dir); err != nil {
		return err
	}

	r.Success(fmt.Sprintf("Added git package: %s (%s)", url, opts.Revision))
	return nil
}

func newPackagesAddLocalCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "local <path>",
		Short:   "Add a local package",
		Example: `  brix project packages add local ../shared_macros`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPackagesAddLocal(cmd, args[0])
		},
	}
}

func runPackagesAddLocal(cmd *cobra.Command, path string) error {
	cmdCtx := NewCommandContext(cmd)
	r := cmdCtx.Renderer
	dir := cmdCtx.ProjectDir()

	f, err := project.LoadPackages(dir)
	if err != nil {
		return err
	}
	if err := project.AddLocalPackage(f, path); err != nil {
		return err
	}
	if err := project.SavePackages(f, dir); err != nil {
		return err
	}

	r.Success(fmt.Sprintf("Added local package: %s", path))
	return nil
}

func newPackagesRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "remove <identifier>",
		Short:   "Remove a package",
		Example: `  brix project packages remove dbt-labs/dbt_utils`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPackagesRemove(cmd, args[0])
		},
	}
}

func runPackagesRemove(cmd *cobra.Command, identifier string) error {
	cmdCtx := NewCommandContext(cmd)
	r := cmdCtx.Renderer
	dir := cmdCtx.ProjectDir()

	f, err := project.LoadPackages(dir)
	if err != nil {
		return err
	}
	if err := project.RemovePackage(f, identifier); err != nil {
		return err
	}
	if err := project.SavePackages(f, dir); err != nil {
		return err
	}

	r.Success(fmt.Sprintf("Removed package: %s", identifier))
	return nil
}

// UpdatePackageOptions holds options for packages update.
type UpdatePackageOptions struct {
	Version string
}

func newPackagesUpdateCommand() *cobra.Command {
	opts := &UpdatePackageOptions{}
	cmd := &cobra.Command{
		Use:     "update <identifier>",
		Short:   "Update a hub package's version",
		Example: `  brix project packages update dbt-labs/dbt_utils --version 1.3.1`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPackagesUpdate(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.Version, "version", "", "New package version")
	_ = cmd.MarkFlagRequired("version")

	return cmd
}

func runPackagesUpdate(cmd *cobra.Command, identifier string, opts *UpdatePackageOptions) error {
	cmdCtx := NewCommandContext(cmd)
	r := cmdCtx.Renderer
	dir := cmdCtx.ProjectDir()

	f, err := project.LoadPackages(dir)
	if err != nil {
		return err
	}
	if err := project.UpdatePackageVersion(f, identifier, opts.Version); err != nil {
		return err
	}
	if err := project.SavePackages(f, dir); err != nil {
		return err
	}

	r.Success(fmt.Sprintf("Updated %s to version %s", identifier, opts.Version))
	return nil
}

// hyphenated converts field names to their on-disk hyphenated spelling
// for shell completion.
func hyphenated(fields []string) []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = strings.ReplaceAll(f, "_", "-")
	}
	return out
}
