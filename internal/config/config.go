// Package config provides configuration data structures for mtb-deps.
package config

import (
	"fmt"
	"strings"
)

// Config represents the complete mtb-deps configuration loaded from .mtbdeps.yaml.
type Config struct {
	Workspace  WorkspaceConfig  `yaml:"workspace"  json:"workspace"  mapstructure:"workspace"`
	Descriptor DescriptorConfig `yaml:"descriptor" json:"descriptor" mapstructure:"descriptor"`
	Git        GitConfig        `yaml:"git"        json:"git"        mapstructure:"git"`
	Output     OutputConfig     `yaml:"output"     json:"output"     mapstructure:"output"`
}

// WorkspaceConfig configures how the workspace layout is discovered.
type WorkspaceConfig struct {
	// DepsFolder is the name of the folders holding descriptor files (default: "deps").
	DepsFolder string `yaml:"deps_folder" json:"deps_folder" mapstructure:"deps_folder"`
	// AssetFolder is the name of the shared-asset folder (default: "mtb_shared").
	AssetFolder string `yaml:"asset_folder" json:"asset_folder" mapstructure:"asset_folder"`
	// ExcludeDirs are folder names whose subtrees are not searched for deps (default: ["bsps"]).
	ExcludeDirs []string `yaml:"exclude_dirs" json:"exclude_dirs" mapstructure:"exclude_dirs"`
	// Pattern is the glob matched against descriptor file names (default: "*.mtb").
	Pattern string `yaml:"pattern" json:"pattern" mapstructure:"pattern"`
}

// DescriptorConfig configures the descriptor line format.
type DescriptorConfig struct {
	// Delimiter separates the fields of a descriptor line (default: "#").
	Delimiter string `yaml:"delimiter" json:"delimiter" mapstructure:"delimiter"`
	// Marker prefixes the relative path in the location field (default: "$$ASSET_REPO$$").
	Marker string `yaml:"marker" json:"marker" mapstructure:"marker"`
}

// Backend selects how repository status is queried.
type Backend string

const (
	// BackendExec runs the git executable.
	BackendExec Backend = "exec"
	// BackendGoGit computes status in-process with go-git.
	BackendGoGit Backend = "gogit"
)

// GitConfig configures the version-control query.
type GitConfig struct {
	// Backend is the status backend (default: exec).
	Backend Backend `yaml:"backend" json:"backend" mapstructure:"backend"`
	// CleanMessage is the status text that marks a clean working tree.
	CleanMessage string `yaml:"clean_message" json:"clean_message" mapstructure:"clean_message"`
}

// Format selects the report format.
type Format string

const (
	// FormatText is the human-readable console report.
	FormatText Format = "text"
	// FormatJSON is a JSON document.
	FormatJSON Format = "json"
	// FormatYAML is a YAML document.
	FormatYAML Format = "yaml"
)

// OutputConfig configures the report.
type OutputConfig struct {
	// Format is the report format (default: text).
	Format Format `yaml:"format" json:"format" mapstructure:"format"`
	// Color enables colored text output.
	Color bool `yaml:"color" json:"color" mapstructure:"color"`
	// FailOnDirty makes the command exit non-zero when a dependency is dirty.
	FailOnDirty bool `yaml:"fail_on_dirty" json:"fail_on_dirty" mapstructure:"fail_on_dirty"`
}

// Default values.
const (
	DefaultDepsFolder   = "deps"
	DefaultAssetFolder  = "mtb_shared"
	DefaultExcludeDir   = "bsps"
	DefaultPattern      = "*.mtb"
	DefaultDelimiter    = "#"
	DefaultMarker       = "$$ASSET_REPO$$"
	DefaultCleanMessage = "nothing to commit, working tree clean"
)

// NewConfig returns a new Config with default values applied.
func NewConfig() *Config {
	return &Config{
		Workspace: WorkspaceConfig{
			DepsFolder:  DefaultDepsFolder,
			AssetFolder: DefaultAssetFolder,
			ExcludeDirs: []string{DefaultExcludeDir},
			Pattern:     DefaultPattern,
		},
		Descriptor: DescriptorConfig{
			Delimiter: DefaultDelimiter,
			Marker:    DefaultMarker,
		},
		Git: GitConfig{
			Backend:      BackendExec,
			CleanMessage: DefaultCleanMessage,
		},
		Output: OutputConfig{
			Format:      FormatText,
			Color:       false,
			FailOnDirty: false,
		},
	}
}

// ApplyDefaults applies default values to any unset fields.
// This is used after loading config from file to fill in missing values.
func (c *Config) ApplyDefaults() {
	defaults := NewConfig()

	if c.Workspace.DepsFolder == "" {
		c.Workspace.DepsFolder = defaults.Workspace.DepsFolder
	}
	if c.Workspace.AssetFolder == "" {
		c.Workspace.AssetFolder = defaults.Workspace.AssetFolder
	}
	// An explicit empty list disables exclusion; only nil gets the default.
	if c.Workspace.ExcludeDirs == nil {
		c.Workspace.ExcludeDirs = defaults.Workspace.ExcludeDirs
	}
	if c.Workspace.Pattern == "" {
		c.Workspace.Pattern = defaults.Workspace.Pattern
	}

	if c.Descriptor.Delimiter == "" {
		c.Descriptor.Delimiter = defaults.Descriptor.Delimiter
	}
	if c.Descriptor.Marker == "" {
		c.Descriptor.Marker = defaults.Descriptor.Marker
	}

	if c.Git.Backend == "" {
		c.Git.Backend = defaults.Git.Backend
	}
	if c.Git.CleanMessage == "" {
		c.Git.CleanMessage = defaults.Git.CleanMessage
	}

	if c.Output.Format == "" {
		c.Output.Format = defaults.Output.Format
	}
}

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []*ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}
	msg := "multiple validation errors:"
	for _, err := range e {
		msg += "\n  - " + err.Error()
	}
	return msg
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidationErrors

	for _, f := range []struct{ field, value string }{
		{"workspace.deps_folder", c.Workspace.DepsFolder},
		{"workspace.asset_folder", c.Workspace.AssetFolder},
	} {
		if f.value == "" {
			continue
		}
		if strings.ContainsAny(f.value, `/\`) {
			errs = append(errs, &ValidationError{Field: f.field, Message: "must be a folder name, not a path"})
		}
	}

	for i, dir := range c.Workspace.ExcludeDirs {
		if strings.TrimSpace(dir) == "" {
			errs = append(errs, &ValidationError{
				Field:   fmt.Sprintf("workspace.exclude_dirs[%d]", i),
				Message: "must not be empty",
			})
		}
	}

	if c.Descriptor.Delimiter != "" && c.Descriptor.Marker != "" &&
		strings.Contains(c.Descriptor.Marker, c.Descriptor.Delimiter) {
		errs = append(errs, &ValidationError{
			Field:   "descriptor.marker",
			Message: "must not contain the delimiter",
		})
	}

	if c.Git.Backend != "" {
		switch c.Git.Backend {
		case BackendExec, BackendGoGit:
			// valid
		default:
			errs = append(errs, &ValidationError{
				Field:   "git.backend",
				Message: "must be 'exec' or 'gogit'",
			})
		}
	}

	if c.Output.Format != "" {
		switch c.Output.Format {
		case FormatText, FormatJSON, FormatYAML:
			// valid
		default:
			errs = append(errs, &ValidationError{
				Field:   "output.format",
				Message: "must be 'text', 'json', or 'yaml'",
			})
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
