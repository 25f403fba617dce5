package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdir switches into dir for one test, restoring the old directory
// and config state afterwards. The user config dir is redirected so a
// developer's real ~/.config/brix never leaks into the search.
func chdir(t *testing.T, dir string) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() {
		_ = os.Chdir(old)
		ResetConfig()
	})
}

func TestLoadConfig_Defaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)

	assert.Empty(t, cfg.ProfilesPath)
	assert.Empty(t, cfg.ProjectDir)
	assert.Equal(t, "DDBT", cfg.TokenProfile)
	assert.True(t, cfg.UpdateCheck)
	assert.Equal(t, "auto", cfg.OutputFormat)
	assert.False(t, cfg.Verbose)
	assert.Empty(t, GetConfigFileUsed())
}

func TestLoadConfig_ReadsConfigFile(t *testing.T) {
	dir := t.TempDir()
	content := "token_profile: warehouse\noutput: json\nupdate_check: false\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "brix.yaml"), []byte(content), 0o644))
	chdir(t, dir)

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)

	assert.Equal(t, "warehouse", cfg.TokenProfile)
	assert.Equal(t, "json", cfg.OutputFormat)
	assert.False(t, cfg.UpdateCheck)
	assert.Equal(t, "brix.yaml", filepath.Base(GetConfigFileUsed()))
}

func TestLoadConfig_FindsConfigUpward(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "brix.yml"), []byte("token_profile: upstairs\n"), 0o644))
	nested := filepath.Join(root, "models", "staging")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	chdir(t, nested)

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)

	assert.Equal(t, "upstairs", cfg.TokenProfile)
}

func TestLoadConfig_ExplicitFileWins(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "brix.yaml"), []byte("token_profile: local\n"), 0o644))
	explicit := filepath.Join(dir, "other.yaml")
	require.NoError(t, os.WriteFile(explicit, []byte("token_profile: explicit\n"), 0o644))
	chdir(t, dir)

	cfg, err := LoadConfig(explicit, nil)
	require.NoError(t, err)

	assert.Equal(t, "explicit", cfg.TokenProfile)
	assert.Equal(t, explicit, GetConfigFileUsed())
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "brix.yaml"), []byte("token_profile: from_file\n"), 0o644))
	chdir(t, dir)
	t.Setenv("BRIX_TOKEN_PROFILE", "from_env")

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)

	assert.Equal(t, "from_env", cfg.TokenProfile)
}

func TestLoadConfig_FlagsOverrideEnv(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("BRIX_TOKEN_PROFILE", "from_env")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("token-profile", "", "")
	require.NoError(t, flags.Parse([]string{"--token-profile", "from_flag"}))

	cfg, err := LoadConfig("", flags)
	require.NoError(t, err)

	assert.Equal(t, "from_flag", cfg.TokenProfile)
}

func TestLoadConfig_UnchangedFlagsIgnored(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "brix.yaml"), []byte("output: json\n"), 0o644))
	chdir(t, dir)

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.StringP("output", "o", "auto", "")
	require.NoError(t, flags.Parse(nil))

	cfg, err := LoadConfig("", flags)
	require.NoError(t, err)

	assert.Equal(t, "json", cfg.OutputFormat)
}

func TestLoadConfig_KebabFlagMapsToSnakeKey(t *testing.T) {
	chdir(t, t.TempDir())

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("profiles-path", "", "")
	require.NoError(t, flags.Parse([]string{"--profiles-path", "conf/profiles.yml"}))

	cfg, err := LoadConfig("", flags)
	require.NoError(t, err)

	assert.True(t, filepath.IsAbs(cfg.ProfilesPath))
	assert.Equal(t, "profiles.yml", filepath.Base(cfg.ProfilesPath))
}

func TestLoadConfig_ResolvesProjectDir(t *testing.T) {
	chdir(t, t.TempDir())

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("project-dir", "", "")
	require.NoError(t, flags.Parse([]string{"--project-dir", "analytics"}))

	cfg, err := LoadConfig("", flags)
	require.NoError(t, err)

	assert.True(t, filepath.IsAbs(cfg.ProjectDir))
	assert.Equal(t, "analytics", filepath.Base(cfg.ProjectDir))
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "brix.yaml"), []byte(":\tnot yaml"), 0o644))
	chdir(t, dir)

	_, err := LoadConfig("", nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")
}

func TestGetCurrentConfig(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)

	assert.Same(t, cfg, GetCurrentConfig())
}
