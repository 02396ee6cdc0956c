// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/viper"

	"github.com/invowk/managerlint/internal/cueutil"
	"github.com/invowk/managerlint/internal/issue"
)

const (
	// AppName is the application name.
	AppName = "managerlint"
	// ConfigFileName is the name of the config file in the config directory
	// (without extension).
	ConfigFileName = "config"
	// LocalConfigFileName is the name of the project-local config file
	// (without extension).
	LocalConfigFileName = AppName
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "cue"
	// EnvPrefix prefixes environment variable overrides.
	EnvPrefix = "MANAGERLINT"
)

//go:embed config_schema.cue
var configSchema []byte

// Schema returns the embedded CUE schema.
func Schema() []byte { return configSchema }

// ConfigDir returns the managerlint configuration directory using
// platform-specific conventions: Windows uses %APPDATA%, macOS uses
// ~/Library/Application Support, and Linux/others use $XDG_CONFIG_HOME
// (defaulting to ~/.config).
//
//nolint:revive // ConfigDir is more descriptive than Dir for external callers
func ConfigDir() (string, error) {
	if configDirOverride != "" {
		return configDirOverride, nil
	}

	var configDir string

	switch runtime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, "Library", "Application Support")
	default: // Linux and others
		configDir = os.Getenv("XDG_CONFIG_HOME")
		if configDir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			configDir = filepath.Join(home, ".config")
		}
	}

	return filepath.Join(configDir, AppName), nil
}

// DefaultPath returns the path of the config file in the config directory.
func DefaultPath() (string, error) {
	cfgDir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cfgDir, ConfigFileName+"."+ConfigFileExt), nil
}

// Resolve returns the config file loadWithOptions would read for opts, or ""
// when none exists and defaults apply.
func Resolve(opts LoadOptions) (string, error) {
	if opts.ConfigFilePath != "" {
		return opts.ConfigFilePath, nil
	}
	cfgDir, err := configDirWithOverride(opts.ConfigDirPath)
	if err != nil {
		return "", err
	}
	if p := filepath.Join(cfgDir, ConfigFileName+"."+ConfigFileExt); fileExists(p) {
		return p, nil
	}
	if p := filepath.Join(opts.WorkDir, LocalConfigFileName+"."+ConfigFileExt); fileExists(p) {
		return p, nil
	}
	return "", nil
}

// newViper returns a viper instance carrying the defaults and environment
// overrides.
func newViper() *viper.Viper {
	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("namespace.root", defaults.Namespace.Root)
	v.SetDefault("namespace.recursive", defaults.Namespace.Recursive)
	v.SetDefault("namespace.suffix", defaults.Namespace.Suffix)
	v.SetDefault("namespace.exclude", defaults.Namespace.Exclude)
	v.SetDefault("object_field", defaults.ObjectField)
	v.SetDefault("optional_type", string(defaults.OptionalType))
	v.SetDefault("baseline", defaults.Baseline)
	v.SetDefault("ui.format", string(defaults.UI.Format))
	v.SetDefault("ui.verbose", defaults.UI.Verbose)
	v.SetDefault("ui.color_scheme", string(defaults.UI.ColorScheme))
	v.SetDefault("jobs", defaults.Jobs)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

// loadWithOptions performs option-driven config loading without mutating
// package-level state.
func loadWithOptions(ctx context.Context, opts LoadOptions) (*Config, string, error) {
	select {
	case <-ctx.Done():
		return nil, "", fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	v := newViper()

	if opts.ConfigFilePath != "" && !fileExists(opts.ConfigFilePath) {
		return nil, "", issue.NewErrorContext().
			WithOperation("load configuration").
			WithResource(opts.ConfigFilePath).
			WithIssue(issue.ConfigLoadFailedId).
			WithSuggestion("Verify the file path is correct").
			WithSuggestion("Use 'managerlint config init' to write a default configuration").
			Wrap(fmt.Errorf("config file not found: %s", opts.ConfigFilePath)).
			BuildError()
	}

	resolvedPath, err := Resolve(opts)
	if err != nil {
		return nil, "", err
	}
	if resolvedPath != "" {
		if err := loadCUEIntoViper(v, resolvedPath); err != nil {
			return nil, "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(resolvedPath).
				WithIssue(issue.ConfigLoadFailedId).
				WithSuggestion("Check that the file contains valid CUE syntax").
				WithSuggestion("Verify the configuration values match the schema shown by 'managerlint config schema'").
				Wrap(err).
				BuildError()
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}
	if len(cfg.Capabilities) == 0 {
		cfg.Capabilities = DefaultCapabilities()
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", issue.NewErrorContext().
			WithOperation("validate configuration").
			WithResource(resolvedPath).
			WithIssue(issue.ConfigLoadFailedId).
			WithSuggestion("Ensure every capability has a unique name").
			WithSuggestion("Type references take the form <package pattern>.<Type>, e.g. **/mixins.GetMixin").
			Wrap(err).
			BuildError()
	}

	return &cfg, resolvedPath, nil
}

// configDirWithOverride resolves the configuration directory, honoring
// explicit provider options before platform defaults.
func configDirWithOverride(configDirPath string) (string, error) {
	if configDirPath != "" {
		return configDirPath, nil
	}

	return ConfigDir()
}

// loadCUEIntoViper validates a CUE file against #Config and merges its
// contents into Viper. Decoding to a map keeps viper's defaults and
// environment overrides in play for omitted fields.
func loadCUEIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	result, err := cueutil.ParseAndDecode[map[string]any](configSchema, data, "#Config",
		cueutil.WithFilename(path),
		cueutil.WithConcrete(false),
	)
	if err != nil {
		return err
	}

	if err := v.MergeConfigMap(*result.Value); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}

	return nil
}

// fileExists checks if a file exists and is not a directory
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false
	}
	return err == nil && !info.IsDir()
}

// ErrConfigExists is returned by CreateDefaultConfig when the target file
// already exists and overwriting was not requested.
var ErrConfigExists = errors.New("config file already exists")

// CreateDefaultConfig writes the default configuration to path, or to the
// config directory when path is empty. It returns the written path.
func CreateDefaultConfig(path string, force bool) (string, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return "", err
		}
		path = p
	}

	if !force && fileExists(path) {
		return path, fmt.Errorf("%w: %s", ErrConfigExists, path)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, []byte(GenerateCUE(DefaultConfig())), 0o644); err != nil {
		return "", fmt.Errorf("failed to write config file: %w", err)
	}

	return path, nil
}

// GenerateCUE generates a CUE representation of the configuration
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder

	sb.WriteString("// managerlint configuration file\n\n")

	sb.WriteString("namespace: {\n")
	if cfg.Namespace.Root != "" {
		fmt.Fprintf(&sb, "\troot: %q\n", cfg.Namespace.Root)
	}
	fmt.Fprintf(&sb, "\trecursive: %v\n", cfg.Namespace.Recursive)
	fmt.Fprintf(&sb, "\tsuffix: %q\n", cfg.Namespace.Suffix)
	sb.WriteString("\texclude: [")
	for i, p := range cfg.Namespace.Exclude {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%q", p)
	}
	sb.WriteString("]\n}\n")

	fmt.Fprintf(&sb, "\nobject_field: %q\n", cfg.ObjectField)
	fmt.Fprintf(&sb, "optional_type: %q\n", cfg.OptionalType)

	if len(cfg.Capabilities) > 0 {
		sb.WriteString("\ncapabilities: [\n")
		for _, c := range cfg.Capabilities {
			sb.WriteString("\t{\n")
			fmt.Fprintf(&sb, "\t\tname: %q\n", c.Name)
			fmt.Fprintf(&sb, "\t\tbase: %q\n", c.Base)
			if c.Method != "" {
				fmt.Fprintf(&sb, "\t\tmethod: %q\n", c.Method)
			}
			if c.AllowsAbsent {
				sb.WriteString("\t\tallows_absent: true\n")
			}
			if c.Template != "" {
				fmt.Fprintf(&sb, "\t\ttemplate: %q\n", c.Template)
			}
			if len(c.Imports) > 0 {
				sb.WriteString("\t\timports: [")
				for i, p := range c.Imports {
					if i > 0 {
						sb.WriteString(", ")
					}
					fmt.Fprintf(&sb, "%q", p)
				}
				sb.WriteString("]\n")
			}
			sb.WriteString("\t},\n")
		}
		sb.WriteString("]\n")
	}

	if cfg.Baseline != "" {
		fmt.Fprintf(&sb, "\nbaseline: %q\n", cfg.Baseline)
	}

	sb.WriteString("\nui: {\n")
	fmt.Fprintf(&sb, "\tformat: %q\n", cfg.UI.Format)
	fmt.Fprintf(&sb, "\tverbose: %v\n", cfg.UI.Verbose)
	fmt.Fprintf(&sb, "\tcolor_scheme: %q\n", cfg.UI.ColorScheme)
	sb.WriteString("}\n")

	fmt.Fprintf(&sb, "\njobs: %d\n", cfg.Jobs)

	return sb.String()
}
