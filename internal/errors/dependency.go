package errors

import (
	"fmt"
	"strings"
)

// Workspace-related error constructors.

// AssetFolderNotFound creates an error when the shared-asset folder is not
// next to or above the project folder.
func AssetFolderNotFound(folderName string, searched []string) *DepError {
	return &DepError{
		Kind:    ErrWorkspace,
		Message: fmt.Sprintf("cannot find '%s' folder", folderName),
		Details: map[string]string{
			"searched": strings.Join(searched, ", "),
		},
		Suggestion: fmt.Sprintf(`Run mtb-deps from inside a project folder whose workspace holds '%s'.
  The folder is looked up in the parent and grandparent of the project folder.
  Use --dir to point at a different project.`, folderName),
	}
}

// DepsFolderNotFound creates an error when no deps folder exists in the project.
func DepsFolderNotFound(folderName, projectDir string) *DepError {
	return &DepError{
		Kind:    ErrWorkspace,
		Message: fmt.Sprintf("cannot find '%s' folder", folderName),
		Details: map[string]string{
			"directory": projectDir,
		},
		Suggestion: "Run 'make getlibs' in the project, or check that --dir points at a project folder.",
	}
}

// Descriptor-related error constructors.

// DescriptorMalformed creates an error for a descriptor line that does not
// follow the <url>#<version>#<marker><path> layout.
func DescriptorMalformed(path, line, reason string) *DepError {
	err := &DepError{
		Kind:    ErrDescriptor,
		Message: fmt.Sprintf("malformed dependency descriptor: %s", reason),
		Details: map[string]string{
			"line": line,
		},
		Suggestion: `A descriptor line has three '#'-separated fields, e.g.:
  https://github.com/Infineon/mtb-hal-cat1#release-v2.4.0#$$ASSET_REPO$$/mtb-hal-cat1/release-v2`,
	}
	if path != "" {
		err.Details["file"] = path
	}
	return err
}

// DescriptorEmpty creates an error for a descriptor with no dependency line.
func DescriptorEmpty(path string) *DepError {
	err := &DepError{
		Kind:    ErrDescriptor,
		Message: "dependency descriptor has no dependency line",
		Details: map[string]string{},
	}
	if path != "" {
		err.Details["file"] = path
	}
	return err
}

// Git-related error constructors.

// RepoNotFound creates an error when a resolved dependency path is not a
// git working tree.
func RepoNotFound(repoPath string, cause error) *DepError {
	return &DepError{
		Kind:    ErrNotFound,
		Message: fmt.Sprintf("dependency repository not found: %s", repoPath),
		Cause:   cause,
		Details: map[string]string{
			"path": repoPath,
		},
		Suggestion: "Run 'make getlibs' to fetch shared dependencies into the workspace.",
	}
}

// GitStatusFailed creates an error for a failed status query.
func GitStatusFailed(repoPath, output string, cause error) *DepError {
	err := &DepError{
		Kind:    ErrGit,
		Message: "git status failed",
		Cause:   cause,
		Details: map[string]string{
			"path": repoPath,
		},
	}
	if output != "" {
		err.Details["output"] = strings.TrimSpace(output)
	}
	return err
}

// Configuration-related error constructors.

// ConfigParseError creates an error for YAML parsing failures.
func ConfigParseError(configPath string, parseErr error) *DepError {
	return &DepError{
		Kind:    ErrConfig,
		Message: fmt.Sprintf("failed to parse configuration: %s", configPath),
		Cause:   parseErr,
		Details: map[string]string{
			"path": configPath,
		},
		Suggestion: `Check the config file for YAML syntax errors, or regenerate it with:
  mtb-deps config init --force`,
	}
}

// ConfigExists creates an error when config init would overwrite a file.
func ConfigExists(configPath string) *DepError {
	return &DepError{
		Kind:       ErrConfig,
		Message:    fmt.Sprintf("configuration already exists: %s", configPath),
		Suggestion: "Use --force to overwrite it.",
	}
}
