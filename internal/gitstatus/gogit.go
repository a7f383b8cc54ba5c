package gitstatus

import (
	"context"
	stderrors "errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"github.com/mtb04313/mtb-scripts/internal/errors"
)

// GoGitQuerier computes status in-process with go-git and renders it in the
// shape of git's long status output.
type GoGitQuerier struct {
	// CleanMessage is written for a clean worktree (default: CleanMessage).
	CleanMessage string
}

// NewGoGitQuerier creates a new GoGitQuerier.
func NewGoGitQuerier() *GoGitQuerier {
	return &GoGitQuerier{CleanMessage: CleanMessage}
}

// Status opens repoPath and renders its worktree status.
func (q *GoGitQuerier) Status(ctx context.Context, repoPath string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := checkRepoRoot(repoPath); err != nil {
		return "", err
	}

	repo, err := git.PlainOpen(repoPath)
	if err != nil {
		if stderrors.Is(err, git.ErrRepositoryNotExists) {
			return "", errors.RepoNotFound(repoPath, err)
		}
		return "", errors.GitStatusFailed(repoPath, "", err)
	}

	wt, err := repo.Worktree()
	if err != nil {
		return "", errors.GitStatusFailed(repoPath, "", err)
	}

	st, err := wt.Status()
	if err != nil {
		return "", errors.GitStatusFailed(repoPath, "", err)
	}

	return renderStatus(headLine(repo), st, q.CleanMessage), nil
}

// headLine describes HEAD the way "git status" does.
func headLine(repo *git.Repository) string {
	head, err := repo.Head()
	if err != nil {
		if stderrors.Is(err, plumbing.ErrReferenceNotFound) {
			return "No commits yet"
		}
		return "HEAD unknown"
	}
	if head.Name().IsBranch() {
		return "On branch " + head.Name().Short()
	}
	return "HEAD detached at " + head.Hash().String()[:7]
}

// renderStatus builds the status text. A clean tree ends with the clean
// sentinel; a dirty tree lists "XY path" entries sorted by path.
func renderStatus(head string, st git.Status, clean string) string {
	var sb strings.Builder
	sb.WriteString(head)
	sb.WriteString("\n")

	if st.IsClean() {
		if clean == "" {
			clean = CleanMessage
		}
		sb.WriteString(clean)
		return sb.String()
	}

	paths := make([]string, 0, len(st))
	for path, fs := range st {
		if fs.Staging == git.Unmodified && fs.Worktree == git.Unmodified {
			continue
		}
		paths = append(paths, path)
	}
	sort.Strings(paths)

	sb.WriteString("Changes not committed:")
	for _, path := range paths {
		fs := st[path]
		sb.WriteString(fmt.Sprintf("\n  %c%c %s", fs.Staging, fs.Worktree, path))
	}
	return sb.String()
}
