// Package gitstatus queries the working-tree status of dependency
// repositories and classifies it as clean or dirty.
package gitstatus

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mtb04313/mtb-scripts/internal/config"
	"github.com/mtb04313/mtb-scripts/internal/errors"
)

// CleanMessage is the status line git prints for a clean working tree.
const CleanMessage = config.DefaultCleanMessage

// Causes of a RepoNotFound error.
var (
	ErrNoFolder      = stderrors.New("folder does not exist")
	ErrNotDirectory  = stderrors.New("not a directory")
	ErrNotRepository = stderrors.New("not a git repository")
)

// Querier returns the human-readable status text of a repository.
type Querier interface {
	Status(ctx context.Context, repoPath string) (string, error)
}

// New returns the Querier for the configured backend.
func New(cfg config.GitConfig) (Querier, error) {
	switch cfg.Backend {
	case config.BackendExec, "":
		return NewExecQuerier(), nil
	case config.BackendGoGit:
		q := NewGoGitQuerier()
		if cfg.CleanMessage != "" {
			q.CleanMessage = cfg.CleanMessage
		}
		return q, nil
	default:
		return nil, errors.New(errors.ErrConfig, fmt.Sprintf("unknown git backend: %s", cfg.Backend))
	}
}

// IsClean reports whether status contains the clean sentinel.
func IsClean(status, sentinel string) bool {
	if sentinel == "" {
		sentinel = CleanMessage
	}
	return strings.Contains(status, sentinel)
}

// checkRepoRoot verifies repoPath is the top of a git working tree.
// Parent repositories are not searched.
func checkRepoRoot(repoPath string) error {
	info, err := os.Stat(repoPath)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.RepoNotFound(repoPath, ErrNoFolder)
		}
		// The path is already in the error message.
		var pe *os.PathError
		if stderrors.As(err, &pe) {
			err = pe.Err
		}
		return errors.RepoNotFound(repoPath, err)
	}
	if !info.IsDir() {
		return errors.RepoNotFound(repoPath, ErrNotDirectory)
	}
	// .git is a directory for clones and a file for worktrees and submodules.
	if _, err := os.Stat(filepath.Join(repoPath, ".git")); err != nil {
		return errors.RepoNotFound(repoPath, ErrNotRepository)
	}
	return nil
}
