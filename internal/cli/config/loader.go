package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// loggerKey carries the logger through command contexts.
type loggerKey struct{}

// maxUpwardSearchLevels bounds the walk toward the filesystem root when
// looking for a config file.
const maxUpwardSearchLevels = 10

var configFileNames = []string{"brix.yaml", "brix.yml"}

var (
	k              = koanf.New(".")
	configFileUsed string
	currentConfig  *Config
)

// configDefaults is the lowest-precedence layer.
var configDefaults = map[string]any{
	"profiles_path": "",
	"project_dir":   "",
	"token_profile": DefaultTokenProfile,
	"update_check":  true,
	"output":        DefaultOutput,
	"verbose":       false,
}

// configExistsIn returns the brix config file in dir, if any.
func configExistsIn(dir string) string {
	for _, name := range configFileNames {
		candidate := filepath.Join(dir, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}

// findConfigUpward walks from startDir toward the root looking for a
// brix config file, giving up after maxUpwardSearchLevels.
func findConfigUpward(startDir string) string {
	dir := startDir
	for i := 0; i < maxUpwardSearchLevels; i++ {
		if found := configExistsIn(dir); found != "" {
			return found
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

// findConfigFile picks the config file: an explicit path wins, then the
// upward search from the working directory, then the user config dir.
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if cwd, err := os.Getwd(); err == nil {
		if found := findConfigUpward(cwd); found != "" {
			return found
		}
	}
	if base, err := os.UserConfigDir(); err == nil {
		return configExistsIn(filepath.Join(base, "brix"))
	}
	return ""
}

// ResetConfig clears the loaded state between test runs.
func ResetConfig() {
	k = koanf.New(".")
	configFileUsed = ""
	currentConfig = nil
}

// LoadConfig layers configuration, lowest to highest precedence:
// defaults, config file, BRIX_* environment variables, then the flags
// the user actually set.
func LoadConfig(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k = koanf.New(".")

	if err := k.Load(confmap.Provider(configDefaults, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	configFileUsed = findConfigFile(cfgFile)
	if configFileUsed != "" {
		if err := k.Load(file.Provider(configFileUsed), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configFileUsed, err)
		}
	}

	// BRIX_TOKEN_PROFILE becomes token_profile, and so on.
	if err := k.Load(env.Provider("BRIX_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "BRIX_"))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// Flags the user left untouched must not clobber the layers below,
	// so only Changed flags load. Kebab-case names map to snake_case
	// keys.
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			if !f.Changed {
				return "", nil
			}
			return strings.ReplaceAll(f.Name, "-", "_"), posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Paths become absolute so commands can chdir freely.
	for _, slot := range []*string{&cfg.ProjectDir, &cfg.ProfilesPath} {
		if *slot == "" {
			continue
		}
		if abs, err := filepath.Abs(*slot); err == nil {
			*slot = abs
		}
	}

	currentConfig = &cfg
	return &cfg, nil
}

// GetConfigFileUsed returns the path of the loaded config file, if any.
func GetConfigFileUsed() string {
	return configFileUsed
}

// GetCurrentConfig returns the configuration from the last LoadConfig.
func GetCurrentConfig() *Config {
	return currentConfig
}

// LoggerKey returns the context key the root command stores the logger
// under. Shared through a function so the commands package needs no
// import of the cli package.
func LoggerKey() any {
	return loggerKey{}
}

// GetLogger retrieves the logger from the command context, falling back
// to a discard logger.
func GetLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	return slog.New(slog.DiscardHandler)
}
