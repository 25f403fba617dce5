package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/Spycner/brix/internal/cli/output"
	"github.com/Spycner/brix/internal/cli/prompt"
	"github.com/Spycner/brix/pkg/profile"
)

// NewProfileCommand creates the profile command group.
func NewProfileCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Create and edit dbt profiles",
		Long: `Manage profiles.yml: create profiles, add or remove outputs, and
switch targets. The file location comes from --profiles-path and
defaults to ~/.dbt/profiles.yml.`,
	}

	cmd.AddCommand(newProfileInitCommand())
	cmd.AddCommand(newProfileShowCommand())
	cmd.AddCommand(newProfileAddOutputCommand())
	cmd.AddCommand(newProfileRemoveOutputCommand())
	cmd.AddCommand(newProfileSetTargetCommand())

	return cmd
}

// outputFlags collects the adapter fields shared by 'profile init' and
// 'profile add-output'.
type outputFlags struct {
	Type string

	Schema  string
	Threads int

	Path       string
	Database   string
	Extensions []string

	Host              string
	HTTPPath          string
	Catalog           string
	Token             string
	AuthMethod        string
	ClientID          string
	ClientSecret      string
	AzureClientID     string
	AzureClientSecret string
}

func registerOutputFlags(cmd *cobra.Command, f *outputFlags) {
	flags := cmd.Flags()
	flags.StringVar(&f.Type, "type", "duckdb", "Adapter type: duckdb, databricks")
	flags.StringVar(&f.Schema, "schema", "", "Default schema for models")
	flags.IntVar(&f.Threads, "threads", 1, "Number of dbt threads")
	flags.StringVar(&f.Path, "path", ":memory:", "DuckDB database path")
	flags.StringVar(&f.Database, "database", "", "DuckDB database name")
	flags.StringSliceVar(&f.Extensions, "extension", nil, "DuckDB extension to load (repeatable)")
	flags.StringVar(&f.Host, "host", "", "Databricks workspace host")
	flags.StringVar(&f.HTTPPath, "http-path", "", "Databricks SQL warehouse HTTP path")
	flags.StringVar(&f.Catalog, "catalog", "", "Unity Catalog name")
	flags.StringVar(&f.Token, "token", "", "Personal access token or env_var() expression")
	flags.StringVar(&f.AuthMethod, "auth-method", "", "Databricks auth: token, oauth_u2m, oauth_m2m, oauth_m2m_azure")
	flags.StringVar(&f.ClientID, "client-id", "", "OAuth M2M client ID")
	flags.StringVar(&f.ClientSecret, "client-secret", "", "OAuth M2M client secret")
	flags.StringVar(&f.AzureClientID, "azure-client-id", "", "Azure service principal client ID")
	flags.StringVar(&f.AzureClientSecret, "azure-client-secret", "", "Azure service principal client secret")

	_ = cmd.RegisterFlagCompletionFunc("type",
		func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
			return []string{"duckdb", "databricks"}, cobra.ShellCompDirectiveNoFileComp
		})
	_ = cmd.RegisterFlagCompletionFunc("auth-method",
		func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
			return []string{profile.AuthToken, profile.AuthOAuthU2M, profile.AuthOAuthM2M, profile.AuthOAuthM2MAzure},
				cobra.ShellCompDirectiveNoFileComp
		})
}

// build turns the flag values into a typed output, enforcing the fields
// each adapter and auth method requires.
func (f *outputFlags) build() (profile.Output, error) {
	switch f.Type {
	case "duckdb":
		out := profile.DuckDBOutput{
			Path:       f.Path,
			Schema:     f.Schema,
			Database:   f.Database,
			Threads:    f.Threads,
			Extensions: f.Extensions,
		}
		if out.Schema == "" {
			out.Schema = "main"
		}
		return out, nil
	case "databricks":
		if f.Host == "" || f.HTTPPath == "" || f.Schema == "" {
			return nil, fmt.Errorf("databricks outputs require --host, --http-path, and --schema")
		}
		out := profile.DatabricksOutput{
			Host:     f.Host,
			HTTPPath: f.HTTPPath,
			Schema:   f.Schema,
			Catalog:  f.Catalog,
			Threads:  f.Threads,
		}
		method := f.AuthMethod
		if method == "" {
			method = profile.AuthToken
		}
		switch method {
		case profile.AuthToken:
			out.Token = f.Token
		case profile.AuthOAuthU2M:
			out.AuthType = profile.AuthOAuthU2M
		case profile.AuthOAuthM2M:
			if f.ClientID == "" || f.ClientSecret == "" {
				return nil, fmt.Errorf("oauth_m2m requires --client-id and --client-secret")
			}
			out.AuthType = profile.AuthOAuthM2M
			out.ClientID = f.ClientID
			out.ClientSecret = f.ClientSecret
		case profile.AuthOAuthM2MAzure:
			if f.AzureClientID == "" || f.AzureClientSecret == "" {
				return nil, fmt.Errorf("oauth_m2m_azure requires --azure-client-id and --azure-client-secret")
			}
			out.AuthType = profile.AuthOAuthM2MAzure
			out.AzureClientID = f.AzureClientID
			out.AzureClientSecret = f.AzureClientSecret
		default:
			return nil, fmt.Errorf("unknown auth method %q (expected token, oauth_u2m, oauth_m2m, or oauth_m2m_azure)", method)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unknown adapter type %q (expected duckdb or databricks)", f.Type)
	}
}

// InitProfileOptions holds the flags for the profile init command.
type InitProfileOptions struct {
	Output outputFlags
	Target string
	Force  bool
}

func newProfileInitCommand() *cobra.Command {
	opts := &InitProfileOptions{}

	cmd := &cobra.Command{
		Use:   "init [name]",
		Short: "Create a profile in profiles.yml",
		Long: `Create a named profile with one output.

With a name and adapter flags the profile is written directly. Without
a name on a terminal, an interactive wizard walks through the adapter
fields instead.`,
		Example: `  # Local DuckDB profile
  brix profile init local --type duckdb --path dev.duckdb

  # Databricks profile with an env_var token
  brix profile init prod --type databricks --host adb-123.azuredatabricks.net \
    --http-path /sql/1.0/warehouses/abc123 --schema analytics \
    --token "{{ env_var('DATABRICKS_TOKEN') }}"

  # Interactive wizard
  brix profile init`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			if len(args) > 0 {
				name = args[0]
			}
			return runProfileInit(cmd, name, opts)
		},
	}

	registerOutputFlags(cmd, &opts.Output)
	cmd.Flags().StringVar(&opts.Target, "target", "dev", "Name of the initial output, also used as the target")
	cmd.Flags().BoolVarP(&opts.Force, "force", "f", false, "Replace the profile if it already exists")

	return cmd
}

func runProfileInit(cmd *cobra.Command, name string, opts *InitProfileOptions) error {
	cmdCtx := NewCommandContext(cmd)

	if name == "" {
		if !prompt.IsInteractive() {
			return fmt.Errorf("a profile name is required in non-interactive mode")
		}
		return runProfileWizard(cmdCtx, opts)
	}

	out, err := opts.Output.build()
	if err != nil {
		return err
	}
	return writeProfile(cmdCtx, name, opts.Target, out, opts.Force)
}

func writeProfile(cmdCtx *CommandContext, name, target string, out profile.Output, force bool) error {
	r := cmdCtx.Renderer
	path := cmdCtx.ProfilesPath()

	ps, err := loadProfilesOrEmpty(path)
	if err != nil {
		return err
	}
	if force {
		if _, ok := ps.Profiles[name]; ok {
			_ = profile.DeleteProfile(ps, name)
		}
	}
	prof := &profile.Profile{Target: target, Outputs: map[string]profile.Output{target: out}}
	if err := profile.AddProfile(ps, name, prof); err != nil {
		return err
	}
	if err := profile.Save(ps, path); err != nil {
		return err
	}

	r.Success(fmt.Sprintf("Added profile '%s'", name))
	r.Printf("Wrote %s\n", path)
	return nil
}

// loadProfilesOrEmpty treats a missing profiles.yml as an empty set so
// init can create the file.
func loadProfilesOrEmpty(path string) (*profile.ProfileSet, error) {
	ps, err := profile.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return profile.NewProfileSet(), nil
	}
	return ps, err
}

func runProfileWizard(cmdCtx *CommandContext, opts *InitProfileOptions) error {
	r := cmdCtx.Renderer
	p := prompt.NewStdio()
	path := cmdCtx.ProfilesPath()

	r.Header(1, "dbt profile setup")
	r.Printf("Editing profiles at: %s\n", path)

	ps, err := loadProfilesOrEmpty(path)
	if err != nil {
		return err
	}

	var name string
	for name == "" {
		name, err = p.Input("Profile name", "my_profile", "")
		if err != nil {
			return wizardErr(r, err)
		}
	}

	if _, ok := ps.Profiles[name]; ok {
		r.Warning(fmt.Sprintf("Profile '%s' already exists.", name))
		replace, err := p.Confirm("Replace it?", false)
		if err != nil {
			return wizardErr(r, err)
		}
		if !replace {
			r.Println("Cancelled.")
			return nil
		}
		_ = profile.DeleteProfile(ps, name)
	}

	target, err := p.Input("Default target name", "", "dev")
	if err != nil {
		return wizardErr(r, err)
	}
	outputName, err := p.Input("Initial output name", "", target)
	if err != nil {
		return wizardErr(r, err)
	}

	adapter, err := p.Select("Adapter type", []string{
		"duckdb (local/in-memory database)",
		"databricks (cloud data platform)",
	}, 0)
	if err != nil {
		return wizardErr(r, err)
	}

	var out profile.Output
	if strings.HasPrefix(adapter, "databricks") {
		out, err = askDatabricksOutput(p, r)
	} else {
		out, err = askDuckDBOutput(p, r)
	}
	if err != nil {
		return wizardErr(r, err)
	}

	// With a single output the target can only point at it.
	prof := &profile.Profile{Target: outputName, Outputs: map[string]profile.Output{outputName: out}}
	if err := profile.AddProfile(ps, name, prof); err != nil {
		return err
	}
	if err := profile.Save(ps, path); err != nil {
		return err
	}

	r.Println("")
	r.Success(fmt.Sprintf("Added profile '%s'", name))
	r.Printf("Wrote %s\n", path)
	return nil
}

func askDuckDBOutput(p *prompt.Prompter, r *output.Renderer) (profile.Output, error) {
	r.Println("")
	r.Header(2, "DuckDB configuration")

	path, err := p.Input("Database path (':memory:' or a file path)", "", ":memory:")
	if err != nil {
		return nil, err
	}
	schema, err := p.Input("Schema", "", "main")
	if err != nil {
		return nil, err
	}
	database, err := p.Input("Database", "", "main")
	if err != nil {
		return nil, err
	}
	threads, err := askThreads(p, r)
	if err != nil {
		return nil, err
	}
	extensionsRaw, err := p.Input("Extensions (comma-separated, optional)", "httpfs,parquet", "")
	if err != nil {
		return nil, err
	}

	out := profile.DuckDBOutput{
		Path:       path,
		Schema:     schema,
		Database:   database,
		Threads:    threads,
		Extensions: splitCommaList(extensionsRaw),
	}

	addSettings, err := p.Confirm("Add custom settings?", false)
	if err != nil {
		return nil, err
	}
	if addSettings {
		settings, err := askSettings(p, r)
		if err != nil {
			return nil, err
		}
		out.Settings = settings
	}

	return out, nil
}

// askSettings collects key=value pairs until an empty entry.
func askSettings(p *prompt.Prompter, r *output.Renderer) (map[string]any, error) {
	settings := map[string]any{}
	for {
		entry, err := p.Input("Setting (key=value, empty to finish)", "", "")
		if err != nil {
			return nil, err
		}
		if entry == "" {
			break
		}
		key, value, ok := strings.Cut(entry, "=")
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		if !ok || key == "" {
			r.Warning("Invalid format, use key=value")
			continue
		}
		settings[key] = value
		r.Printf("  Added: %s=%s\n", key, value)
	}
	if len(settings) == 0 {
		return nil, nil
	}
	return settings, nil
}

func askDatabricksOutput(p *prompt.Prompter, r *output.Renderer) (profile.Output, error) {
	r.Println("")
	r.Header(2, "Databricks configuration")

	host, err := requiredInput(p, "Host (e.g. adb-123.azuredatabricks.net)")
	if err != nil {
		return nil, err
	}
	httpPath, err := requiredInput(p, "HTTP path (e.g. /sql/1.0/warehouses/abc123)")
	if err != nil {
		return nil, err
	}
	schema, err := requiredInput(p, "Schema")
	if err != nil {
		return nil, err
	}
	catalog, err := p.Input("Catalog (optional, empty when not using Unity Catalog)", "", "")
	if err != nil {
		return nil, err
	}

	out := profile.DatabricksOutput{
		Host:     host,
		HTTPPath: httpPath,
		Schema:   schema,
		Catalog:  catalog,
	}

	const (
		authPAT      = "Personal access token (PAT)"
		authU2M      = "OAuth U2M (browser login)"
		authM2M      = "OAuth M2M (client credentials)"
		authM2MAzure = "OAuth M2M Azure (client credentials)"
	)
	method, err := p.Select("Authentication method", []string{authPAT, authU2M, authM2M, authM2MAzure}, 0)
	if err != nil {
		return nil, err
	}

	switch method {
	case authPAT:
		token, err := p.Password("Personal access token")
		if err != nil {
			return nil, err
		}
		out.Token = token
	case authU2M:
		out.AuthType = profile.AuthOAuthU2M
		r.Println("OAuth U2M configured; the browser login happens at dbt run time.")
	case authM2M:
		out.AuthType = profile.AuthOAuthM2M
		if out.ClientID, err = requiredInput(p, "Client ID"); err != nil {
			return nil, err
		}
		if out.ClientSecret, err = p.Password("Client secret"); err != nil {
			return nil, err
		}
	case authM2MAzure:
		out.AuthType = profile.AuthOAuthM2MAzure
		if out.AzureClientID, err = requiredInput(p, "Azure client ID"); err != nil {
			return nil, err
		}
		if out.AzureClientSecret, err = p.Password("Azure client secret"); err != nil {
			return nil, err
		}
	}

	if out.Threads, err = askThreads(p, r); err != nil {
		return nil, err
	}
	return out, nil
}

func requiredInput(p *prompt.Prompter, label string) (string, error) {
	for {
		value, err := p.Input(label, "", "")
		if err != nil {
			return "", err
		}
		if value != "" {
			return value, nil
		}
	}
}

func askThreads(p *prompt.Prompter, r *output.Renderer) (int, error) {
	raw, err := p.Input("Thread count", "", "1")
	if err != nil {
		return 0, err
	}
	n, convErr := strconv.Atoi(raw)
	if convErr != nil || n < 1 {
		r.Warning("Invalid thread count, using 1")
		n = 1
	}
	return n, nil
}

// ProfileShowOutput is the JSON document for the profile show command.
type ProfileShowOutput struct {
	Path     string        `json:"path"`
	Exists   bool          `json:"exists"`
	Profiles []ProfileInfo `json:"profiles,omitempty"`
}

// ProfileInfo describes one profile.
type ProfileInfo struct {
	Name    string       `json:"name"`
	Target  string       `json:"target"`
	Outputs []OutputInfo `json:"outputs"`
}

// OutputInfo describes one output with credential fields masked.
type OutputInfo struct {
	Name   string            `json:"name"`
	Type   string            `json:"type"`
	Fields map[string]string `json:"fields"`
}

func newProfileShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show [name]",
		Short: "Show profiles with secrets masked",
		Long: `Show the configured profiles, their outputs, and the selected
targets. Tokens and client secrets are masked; env_var() references are
shown as written.`,
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: completeProfileOutputArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			if len(args) > 0 {
				name = args[0]
			}
			return runProfileShow(cmd, name)
		},
	}
}

func runProfileShow(cmd *cobra.Command, name string) error {
	cmdCtx := NewCommandContext(cmd)
	r := cmdCtx.Renderer
	path := cmdCtx.ProfilesPath()

	ps, err := profile.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		if r.EffectiveMode() == output.ModeJSON {
			return r.JSON(&ProfileShowOutput{Path: path})
		}
		r.Printf("Profile path: %s\n", path)
		r.Println("Exists: false")
		return nil
	}
	if err != nil {
		return err
	}

	names := ps.ProfileNames()
	if name != "" {
		if _, err := ps.Get(name); err != nil {
			return err
		}
		names = []string{name}
	}

	showOut := &ProfileShowOutput{Path: path, Exists: true}
	for _, profileName := range names {
		prof := ps.Profiles[profileName]
		info := ProfileInfo{Name: profileName, Target: prof.Target}
		for _, outputName := range prof.OutputNames() {
			out := prof.Outputs[outputName]
			info.Outputs = append(info.Outputs, OutputInfo{
				Name:   outputName,
				Type:   out.Type(),
				Fields: maskedFields(out),
			})
		}
		showOut.Profiles = append(showOut.Profiles, info)
	}

	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(showOut)
	}

	r.Printf("Profile path: %s\n", path)
	r.Println("Exists: true")
	for _, info := range showOut.Profiles {
		r.Println("")
		r.Header(2, fmt.Sprintf("%s (target: %s)", info.Name, info.Target))
		t := output.NewTable()
		t.AppendHeader(table.Row{"OUTPUT", "TYPE", "SETTINGS"})
		for _, oi := range info.Outputs {
			t.AppendRow(table.Row{oi.Name, oi.Type, fieldSummary(oi.Fields)})
		}
		r.RenderTable(t)
	}
	return nil
}

// maskedFields flattens an output's fields for display, masking
// credential material.
func maskedFields(out profile.Output) map[string]string {
	fields := map[string]string{}
	switch o := out.(type) {
	case profile.DuckDBOutput:
		fields["path"] = o.Path
		fields["schema"] = o.Schema
		if o.Database != "" {
			fields["database"] = o.Database
		}
		fields["threads"] = strconv.Itoa(o.Threads)
		if len(o.Extensions) > 0 {
			fields["extensions"] = strings.Join(o.Extensions, ",")
		}
	case profile.DatabricksOutput:
		fields["host"] = o.Host
		fields["http_path"] = o.HTTPPath
		fields["schema"] = o.Schema
		if o.Catalog != "" {
			fields["catalog"] = o.Catalog
		}
		fields["threads"] = strconv.Itoa(o.Threads)
		if o.Token != "" {
			fields["token"] = maskSecret(o.Token)
		}
		if o.AuthType != "" {
			fields["auth_type"] = o.AuthType
		}
		if o.ClientID != "" {
			fields["client_id"] = o.ClientID
		}
		if o.ClientSecret != "" {
			fields["client_secret"] = maskSecret(o.ClientSecret)
		}
		if o.AzureClientID != "" {
			fields["azure_client_id"] = o.AzureClientID
		}
		if o.AzureClientSecret != "" {
			fields["azure_client_secret"] = maskSecret(o.AzureClientSecret)
		}
	}
	return fields
}

// showFieldOrder fixes the display order of output fields in the
// settings column.
var showFieldOrder = []string{
	"path", "database",
	"host", "http_path", "schema", "catalog",
	"token", "auth_type", "client_id", "client_secret",
	"azure_client_id", "azure_client_secret",
	"threads", "extensions",
}

func fieldSummary(fields map[string]string) string {
	parts := make([]string, 0, len(fields))
	for _, key := range showFieldOrder {
		if v, ok := fields[key]; ok {
			parts = append(parts, key+"="+v)
		}
	}
	return strings.Join(parts, "\n")
}

// maskSecret hides credential material. env_var() expressions are
// references, not secrets, and stay readable.
func maskSecret(s string) string {
	if strings.Contains(s, "env_var(") {
		return s
	}
	if len(s) <= 8 {
		return "********"
	}
	return s[:4] + "****"
}

// AddOutputOptions holds the flags for the profile add-output command.
type AddOutputOptions struct {
	Output outputFlags
}

func newProfileAddOutputCommand() *cobra.Command {
	opts := &AddOutputOptions{}

	cmd := &cobra.Command{
		Use:   "add-output <profile> <output>",
		Short: "Add an output to a profile",
		Example: `  brix profile add-output DDBT staging --type databricks \
    --host adb-123.azuredatabricks.net --http-path /sql/1.0/warehouses/stg \
    --schema analytics_stg --token "{{ env_var('DATABRICKS_TOKEN_STG') }}"`,
		Args:              cobra.ExactArgs(2),
		ValidArgsFunction: completeProfileOutputArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProfileAddOutput(cmd, args[0], args[1], opts)
		},
	}

	registerOutputFlags(cmd, &opts.Output)
	return cmd
}

func runProfileAddOutput(cmd *cobra.Command, profileName, outputName string, opts *AddOutputOptions) error {
	cmdCtx := NewCommandContext(cmd)

	out, err := opts.Output.build()
	if err != nil {
		return err
	}

	path := cmdCtx.ProfilesPath()
	ps, err := profile.Load(path)
	if err != nil {
		return err
	}
	if err := profile.AddOutput(ps, profileName, outputName, out); err != nil {
		return err
	}
	if err := profile.Save(ps, path); err != nil {
		return err
	}

	cmdCtx.Renderer.Success(fmt.Sprintf("Added output '%s' to profile '%s'", outputName, profileName))
	return nil
}

// RemoveOutputOptions holds the flags for the profile remove-output
// command.
type RemoveOutputOptions struct {
	NewTarget string
}

func newProfileRemoveOutputCommand() *cobra.Command {
	opts := &RemoveOutputOptions{}

	cmd := &cobra.Command{
		Use:   "remove-output <profile> <output>",
		Short: "Remove an output from a profile",
		Long: `Remove a named output. Removing the output the target points at is
rejected; pass --new-target to reassign the target in the same step.`,
		Args:              cobra.ExactArgs(2),
		ValidArgsFunction: completeProfileOutputArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProfileRemoveOutput(cmd, args[0], args[1], opts)
		},
	}

	cmd.Flags().StringVar(&opts.NewTarget, "new-target", "", "Output to point the target at before removing")
	return cmd
}

func runProfileRemoveOutput(cmd *cobra.Command, profileName, outputName string, opts *RemoveOutputOptions) error {
	cmdCtx := NewCommandContext(cmd)
	r := cmdCtx.Renderer

	path := cmdCtx.ProfilesPath()
	ps, err := profile.Load(path)
	if err != nil {
		return err
	}

	if opts.NewTarget != "" {
		if err := profile.SetTarget(ps, profileName, opts.NewTarget); err != nil {
			return err
		}
		r.Printf("Changed target to '%s'\n", opts.NewTarget)
	}
	if err := profile.DeleteOutput(ps, profileName, outputName); err != nil {
		return err
	}
	if err := profile.Save(ps, path); err != nil {
		return err
	}

	r.Success(fmt.Sprintf("Deleted output '%s' from profile '%s'", outputName, profileName))
	return nil
}

func newProfileSetTargetCommand() *cobra.Command {
	return &cobra.Command{
		Use:               "set-target <profile> <output>",
		Short:             "Point a profile's target at an output",
		Args:              cobra.ExactArgs(2),
		ValidArgsFunction: completeProfileOutputArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProfileSetTarget(cmd, args[0], args[1])
		},
	}
}

func runProfileSetTarget(cmd *cobra.Command, profileName, outputName string) error {
	cmdCtx := NewCommandContext(cmd)

	path := cmdCtx.ProfilesPath()
	ps, err := profile.Load(path)
	if err != nil {
		return err
	}
	if err := profile.SetTarget(ps, profileName, outputName); err != nil {
		return err
	}
	if err := profile.Save(ps, path); err != nil {
		return err
	}

	cmdCtx.Renderer.Success(fmt.Sprintf("Updated target to '%s'", outputName))
	return nil
}

// completeProfileOutputArgs completes a profile name for the first
// positional argument and that profile's output names for the second.
func completeProfileOutputArgs(cmd *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	cmdCtx := NewCommandContext(cmd)
	ps, err := profile.Load(cmdCtx.ProfilesPath())
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	switch len(args) {
	case 0:
		return ps.ProfileNames(), cobra.ShellCompDirectiveNoFileComp
	case 1:
		prof, err := ps.Get(args[0])
		if err != nil {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		return prof.OutputNames(), cobra.ShellCompDirectiveNoFileComp
	}
	return nil, cobra.ShellCompDirectiveNoFileComp
}
