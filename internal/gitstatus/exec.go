package gitstatus

import (
	"bytes"
	"context"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/mtb04313/mtb-scripts/internal/errors"
	"github.com/mtb04313/mtb-scripts/internal/logging"
)

// ExecQuerier runs the git executable.
type ExecQuerier struct {
	// GitPath is the git executable (default: "git" from PATH).
	GitPath string
	// Logger receives git's stderr at debug level.
	Logger *logging.Logger
}

// NewExecQuerier creates a new ExecQuerier.
func NewExecQuerier() *ExecQuerier {
	return &ExecQuerier{
		GitPath: "git",
		Logger:  logging.Global(),
	}
}

func (q *ExecQuerier) command(ctx context.Context, dir string, args ...string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, q.GitPath, args...)
	cmd.Dir = dir
	// Force untranslated messages so the clean sentinel matches, and keep
	// status from taking the index lock.
	cmd.Env = append(os.Environ(), "LC_ALL=C", "GIT_OPTIONAL_LOCKS=0")
	return cmd
}

// IsGitRepo checks if dir is inside a git working tree.
func (q *ExecQuerier) IsGitRepo(ctx context.Context, dir string) bool {
	return q.command(ctx, dir, "rev-parse", "--git-dir").Run() == nil
}

// Status runs "git status" in repoPath and returns its output without the
// trailing newline.
func (q *ExecQuerier) Status(ctx context.Context, repoPath string) (string, error) {
	if err := checkRepoRoot(repoPath); err != nil {
		return "", err
	}

	var stdout, stderr bytes.Buffer
	cmd := q.command(ctx, repoPath, "status")
	cmd.Stdout = &stdout

	logger := q.Logger
	if logger == nil {
		logger = logging.Global()
	}
	errLog := logger.Writer(logging.LevelDebug)
	cmd.Stderr = io.MultiWriter(&stderr, errLog)

	err := cmd.Run()
	if lw, ok := errLog.(interface{ Flush() }); ok {
		lw.Flush()
	}
	if err != nil {
		return "", errors.GitStatusFailed(repoPath, stderr.String(), err)
	}

	return strings.TrimRight(stdout.String(), "\n"), nil
}
