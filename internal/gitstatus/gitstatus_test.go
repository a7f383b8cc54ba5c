package gitstatus

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mtb04313/mtb-scripts/internal/config"
	deperrors "github.com/mtb04313/mtb-scripts/internal/errors"
)

// setupTestRepo creates a temporary git repository with one commit.
func setupTestRepo(t *testing.T) string {
	t.Helper()

	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}

	tmpDir := t.TempDir()

	run := func(args ...string) {
		cmd := exec.Command("git", args...)
		cmd.Dir = tmpDir
		if out, err := cmd.CombinedOutput(); err != nil {
			t.Fatalf("git %v failed: %v: %s", args, err, out)
		}
	}

	run("init", "-q")
	run("config", "user.email", "test@example.com")
	run("config", "user.name", "Test User")
	run("config", "commit.gpgsign", "false")

	readmePath := filepath.Join(tmpDir, "README.md")
	if err := os.WriteFile(readmePath, []byte("# Test"), 0644); err != nil {
		t.Fatalf("failed to create README: %v", err)
	}

	run("add", "-A")
	run("commit", "-q", "-m", "Initial commit")

	return tmpDir
}

func queriers() map[string]Querier {
	return map[string]Querier{
		"exec":  NewExecQuerier(),
		"gogit": NewGoGitQuerier(),
	}
}

func TestIsClean(t *testing.T) {
	tests := []struct {
		name     string
		status   string
		sentinel string
		want     bool
	}{
		{
			name:   "clean tree",
			status: "On branch main\nnothing to commit, working tree clean",
			want:   true,
		},
		{
			name:   "modified file",
			status: "On branch main\nChanges not staged for commit:\n\tmodified:   README.md",
			want:   false,
		},
		{
			name:   "untracked only",
			status: "On branch main\nUntracked files:\n\tnew.txt\n\nnothing added to commit but untracked files present",
			want:   false,
		},
		{
			name:   "empty status",
			status: "",
			want:   false,
		},
		{
			name:     "custom sentinel",
			status:   "all good",
			sentinel: "all good",
			want:     true,
		},
		{
			name:     "default sentinel does not match custom text",
			status:   "nothing to commit, working tree clean",
			sentinel: "all good",
			want:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsClean(tt.status, tt.sentinel); got != tt.want {
				t.Errorf("IsClean() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStatus_Clean(t *testing.T) {
	repoDir := setupTestRepo(t)

	for name, q := range queriers() {
		t.Run(name, func(t *testing.T) {
			status, err := q.Status(context.Background(), repoDir)
			if err != nil {
				t.Fatalf("Status() error = %v", err)
			}
			if !IsClean(status, CleanMessage) {
				t.Errorf("expected clean status, got:\n%s", status)
			}
			if strings.HasSuffix(status, "\n") {
				t.Error("status should not end with a newline")
			}
		})
	}
}

func TestStatus_Untracked(t *testing.T) {
	repoDir := setupTestRepo(t)

	if err := os.WriteFile(filepath.Join(repoDir, "new.txt"), []byte("x"), 0644); err != nil {
		t.Fatalf("failed to create file: %v", err)
	}

	for name, q := range queriers() {
		t.Run(name, func(t *testing.T) {
			status, err := q.Status(context.Background(), repoDir)
			if err != nil {
				t.Fatalf("Status() error = %v", err)
			}
			if IsClean(status, CleanMessage) {
				t.Errorf("expected dirty status, got:\n%s", status)
			}
			if !strings.Contains(status, "new.txt") {
				t.Errorf("status should name the untracked file:\n%s", status)
			}
		})
	}
}

func TestStatus_Modified(t *testing.T) {
	repoDir := setupTestRepo(t)

	if err := os.WriteFile(filepath.Join(repoDir, "README.md"), []byte("# Changed"), 0644); err != nil {
		t.Fatalf("failed to modify file: %v", err)
	}

	for name, q := range queriers() {
		t.Run(name, func(t *testing.T) {
			status, err := q.Status(context.Background(), repoDir)
			if err != nil {
				t.Fatalf("Status() error = %v", err)
			}
			if IsClean(status, CleanMessage) {
				t.Errorf("expected dirty status, got:\n%s", status)
			}
			if !strings.Contains(status, "README.md") {
				t.Errorf("status should name the modified file:\n%s", status)
			}
		})
	}
}

func TestStatus_NotARepo(t *testing.T) {
	plainDir := t.TempDir()
	missingDir := filepath.Join(plainDir, "missing")
	filePath := filepath.Join(plainDir, "file.txt")
	if err := os.WriteFile(filePath, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		dir       string
		wantCause error
	}{
		{plainDir, ErrNotRepository},
		{missingDir, ErrNoFolder},
		{filePath, ErrNotDirectory},
	}

	for name, q := range queriers() {
		for _, tc := range cases {
			t.Run(name, func(t *testing.T) {
				_, err := q.Status(context.Background(), tc.dir)
				if err == nil {
					t.Fatalf("Status(%s) expected error", tc.dir)
				}
				if !errors.Is(err, deperrors.ErrNotFound) {
					t.Errorf("Status(%s) error kind = %v, want ErrNotFound", tc.dir, err)
				}
				if !errors.Is(err, tc.wantCause) {
					t.Errorf("Status(%s) cause = %v, want %v", tc.dir, err, tc.wantCause)
				}
			})
		}
	}
}

func TestStatus_SubfolderOfRepoIsNotARepo(t *testing.T) {
	repoDir := setupTestRepo(t)
	sub := filepath.Join(repoDir, "sub")
	if err := os.Mkdir(sub, 0755); err != nil {
		t.Fatal(err)
	}

	for name, q := range queriers() {
		t.Run(name, func(t *testing.T) {
			if _, err := q.Status(context.Background(), sub); !errors.Is(err, deperrors.ErrNotFound) {
				t.Errorf("Status() error = %v, want ErrNotFound", err)
			}
		})
	}
}

func TestExecQuerier_IsGitRepo(t *testing.T) {
	repoDir := setupTestRepo(t)
	nonRepoDir := t.TempDir()

	q := NewExecQuerier()
	ctx := context.Background()

	if !q.IsGitRepo(ctx, repoDir) {
		t.Error("IsGitRepo() = false for a repository")
	}
	if q.IsGitRepo(ctx, nonRepoDir) {
		t.Error("IsGitRepo() = true for a plain folder")
	}
}

func TestExecQuerier_MissingBinary(t *testing.T) {
	repoDir := setupTestRepo(t)

	q := NewExecQuerier()
	q.GitPath = filepath.Join(t.TempDir(), "no-such-git")

	_, err := q.Status(context.Background(), repoDir)
	if !errors.Is(err, deperrors.ErrGit) {
		t.Errorf("Status() error = %v, want ErrGit", err)
	}
}

func TestGoGitQuerier_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := NewGoGitQuerier().Status(ctx, t.TempDir()); !errors.Is(err, context.Canceled) {
		t.Errorf("Status() error = %v, want context.Canceled", err)
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.GitConfig
		want    string
		wantErr bool
	}{
		{name: "default", cfg: config.GitConfig{}, want: "*gitstatus.ExecQuerier"},
		{name: "exec", cfg: config.GitConfig{Backend: config.BackendExec}, want: "*gitstatus.ExecQuerier"},
		{name: "gogit", cfg: config.GitConfig{Backend: config.BackendGoGit}, want: "*gitstatus.GoGitQuerier"},
		{name: "unknown", cfg: config.GitConfig{Backend: "svn"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := New(tt.cfg)
			if tt.wantErr {
				if !errors.Is(err, deperrors.ErrConfig) {
					t.Errorf("New() error = %v, want ErrConfig", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			if got := fmt.Sprintf("%T", q); got != tt.want {
				t.Errorf("New() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestGoGitQuerier_CustomCleanMessage(t *testing.T) {
	repoDir := setupTestRepo(t)

	q, err := New(config.GitConfig{Backend: config.BackendGoGit, CleanMessage: "working tree clean"})
	if err != nil {
		t.Fatal(err)
	}

	status, err := q.Status(context.Background(), repoDir)
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	if !strings.HasSuffix(status, "\nworking tree clean") {
		t.Errorf("Status() = %q, want custom clean line", status)
	}
}
