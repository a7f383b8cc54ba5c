// Package config provides configuration loading and management for mtb-deps.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigPath is the default path to the config file relative to the project folder.
	DefaultConfigPath = ".mtbdeps.yaml"

	// EnvPrefix is the prefix for environment variable overrides.
	EnvPrefix = "MTBDEPS"
)

// Loader handles loading configuration from files and environment.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a new configuration loader.
func NewLoader() *Loader {
	v := viper.New()

	v.SetConfigType("yaml")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return &Loader{v: v}
}

// LoadConfig loads configuration from the specified path, applies defaults,
// merges environment variables, and validates the result.
// If path is empty, it uses DefaultConfigPath relative to the working directory.
func (l *Loader) LoadConfig(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigPath
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, &LoadError{
			Path:    path,
			Message: "config file not found",
			Err:     err,
		}
	}

	l.v.SetConfigFile(path)

	if err := l.v.ReadInConfig(); err != nil {
		return nil, &LoadError{
			Path:    path,
			Message: "failed to read config file",
			Err:     err,
		}
	}

	cfg := NewConfig()

	if err := l.v.Unmarshal(cfg, viperDecodeHook); err != nil {
		return nil, &LoadError{
			Path:    path,
			Message: "failed to parse config file",
			Err:     err,
		}
	}

	return l.finish(path, cfg)
}

// LoadConfigFromDir loads .mtbdeps.yaml from the specified directory.
// A missing file is not an error: defaults plus environment overrides are used.
func (l *Loader) LoadConfigFromDir(dir string) (*Config, error) {
	path := filepath.Join(dir, DefaultConfigPath)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return l.finish(path, NewConfig())
	}
	return l.LoadConfig(path)
}

// finish applies env overrides and defaults, then validates.
func (l *Loader) finish(path string, cfg *Config) (*Config, error) {
	l.applyEnvOverrides(cfg)

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, &LoadError{
			Path:    path,
			Message: "configuration validation failed",
			Err:     err,
		}
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the config.
func (l *Loader) applyEnvOverrides(cfg *Config) {
	// Workspace settings
	if v := os.Getenv(EnvPrefix + "_WORKSPACE_DEPS_FOLDER"); v != "" {
		cfg.Workspace.DepsFolder = v
	}
	if v := os.Getenv(EnvPrefix + "_WORKSPACE_ASSET_FOLDER"); v != "" {
		cfg.Workspace.AssetFolder = v
	}
	if v := os.Getenv(EnvPrefix + "_WORKSPACE_EXCLUDE_DIRS"); v != "" {
		cfg.Workspace.ExcludeDirs = splitList(v)
	}
	if v := os.Getenv(EnvPrefix + "_WORKSPACE_PATTERN"); v != "" {
		cfg.Workspace.Pattern = v
	}

	// Descriptor settings
	if v := os.Getenv(EnvPrefix + "_DESCRIPTOR_DELIMITER"); v != "" {
		cfg.Descriptor.Delimiter = v
	}
	if v := os.Getenv(EnvPrefix + "_DESCRIPTOR_MARKER"); v != "" {
		cfg.Descriptor.Marker = v
	}

	// Git settings
	if v := os.Getenv(EnvPrefix + "_GIT_BACKEND"); v != "" {
		cfg.Git.Backend = Backend(v)
	}
	if v := os.Getenv(EnvPrefix + "_GIT_CLEAN_MESSAGE"); v != "" {
		cfg.Git.CleanMessage = v
	}

	// Output settings
	if v := os.Getenv(EnvPrefix + "_OUTPUT_FORMAT"); v != "" {
		cfg.Output.Format = Format(v)
	}
	if v := os.Getenv(EnvPrefix + "_OUTPUT_COLOR"); v != "" {
		cfg.Output.Color = parseBool(v)
	}
	if v := os.Getenv(EnvPrefix + "_OUTPUT_FAIL_ON_DIRTY"); v != "" {
		cfg.Output.FailOnDirty = parseBool(v)
	}
}

// parseBool parses a string as a boolean value.
// Returns true for "true", "1", "yes" (case-insensitive).
// Returns false for anything else.
func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "true" || s == "1" || s == "yes"
}

// splitList splits a comma-separated env value, dropping empty items.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// viperDecodeHook provides custom decoding for viper unmarshaling.
// It composes the standard mapstructure hooks with our custom ones.
func viperDecodeHook(dc *mapstructure.DecoderConfig) {
	dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToSliceHookFunc(","),
		stringToCustomTypeHookFunc(),
	)
}

// stringToCustomTypeHookFunc creates a decode hook for our custom types.
func stringToCustomTypeHookFunc() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if from.Kind() != reflect.String {
			return data, nil
		}

		switch to {
		case reflect.TypeOf(Backend("")):
			return Backend(strings.ToLower(data.(string))), nil
		case reflect.TypeOf(Format("")):
			return Format(strings.ToLower(data.(string))), nil
		}

		return data, nil
	}
}

// LoadError represents an error that occurred while loading configuration.
type LoadError struct {
	Path    string
	Message string
	Err     error
}

func (e *LoadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Path, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Load is a convenience function that creates a new Loader and loads configuration.
// If path is empty, it uses DefaultConfigPath.
func Load(path string) (*Config, error) {
	return NewLoader().LoadConfig(path)
}

// LoadFromDir is a convenience function that loads configuration from a directory.
func LoadFromDir(dir string) (*Config, error) {
	return NewLoader().LoadConfigFromDir(dir)
}

// Marshal renders the configuration as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

// Save writes the configuration as YAML to path.
func (c *Config) Save(path string) error {
	data, err := c.Marshal()
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}
