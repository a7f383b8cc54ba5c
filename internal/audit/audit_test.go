package audit

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"

	"github.com/mtb04313/mtb-scripts/internal/config"
	deperrors "github.com/mtb04313/mtb-scripts/internal/errors"
	"github.com/mtb04313/mtb-scripts/internal/gitstatus"
)

const (
	cleanStatus = "On branch master\nnothing to commit, working tree clean"
	dirtyStatus = "On branch master\nChanges not staged for commit:\n\tmodified:   hal.c"
)

// fakeQuerier returns canned status text keyed by repository path.
type fakeQuerier struct {
	statuses map[string]string
	errs     map[string]error
	calls    []string
}

func (q *fakeQuerier) Status(ctx context.Context, repoPath string) (string, error) {
	q.calls = append(q.calls, repoPath)
	if err, ok := q.errs[repoPath]; ok {
		return "", err
	}
	if s, ok := q.statuses[repoPath]; ok {
		return s, nil
	}
	return "", deperrors.RepoNotFound(repoPath, os.ErrNotExist)
}

func mtbLine(name, version string) string {
	return fmt.Sprintf("https://github.com/Infineon/%s#%s#$$ASSET_REPO$$/%s/%s\n", name, version, name, version)
}

// newWorkspace lays out /ws/mtb_shared and /ws/app with the given files.
func newWorkspace(t *testing.T, files map[string]string) afero.Fs {
	t.Helper()

	fs := afero.NewMemMapFs()
	for _, dir := range []string{"/ws/mtb_shared", "/ws/app"} {
		if err := fs.MkdirAll(dir, 0755); err != nil {
			t.Fatal(err)
		}
	}
	for path, content := range files {
		if err := afero.WriteFile(fs, path, []byte(content), 0644); err != nil {
			t.Fatalf("failed to write %s: %v", path, err)
		}
	}
	return fs
}

func TestRun(t *testing.T) {
	fs := newWorkspace(t, map[string]string{
		"/ws/app/deps/mtb-hal-cat1.mtb":      mtbLine("mtb-hal-cat1", "release-v2"),
		"/ws/app/deps/core-lib.mtb":          mtbLine("core-lib", "release-v1"),
		"/ws/app/libs/ext/deps/retarget.mtb": mtbLine("retarget-io", "release-v1"),
		"/ws/app/bsps/TARGET_X/deps/bsp.mtb": "not a descriptor",
	})
	q := &fakeQuerier{statuses: map[string]string{
		"/ws/mtb_shared/core-lib/release-v1":     cleanStatus,
		"/ws/mtb_shared/mtb-hal-cat1/release-v2": dirtyStatus,
	}}

	report, err := New(fs, config.NewConfig(), q).Run(context.Background(), "/ws/app")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if report.AssetFolder != "/ws/mtb_shared" {
		t.Errorf("AssetFolder = %q", report.AssetFolder)
	}
	if len(report.Groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(report.Groups))
	}
	if report.Groups[0].Label != "app/deps" || report.Groups[1].Label != "ext/deps" {
		t.Errorf("unexpected labels %q, %q", report.Groups[0].Label, report.Groups[1].Label)
	}

	first := report.Groups[0].Results
	if len(first) != 2 {
		t.Fatalf("expected 2 results in app/deps, got %d", len(first))
	}
	// Descriptors are processed sorted by file name.
	if first[0].RepoPath != "/ws/mtb_shared/core-lib/release-v1" || first[0].State != StateClean {
		t.Errorf("first result = %+v", first[0])
	}
	if first[1].RepoPath != "/ws/mtb_shared/mtb-hal-cat1/release-v2" || first[1].State != StateDirty {
		t.Errorf("second result = %+v", first[1])
	}
	if first[1].Status != dirtyStatus {
		t.Errorf("dirty status not kept: %q", first[1].Status)
	}

	missing := report.Groups[1].Results[0]
	if missing.State != StateMissing || missing.Err == nil || missing.Error == "" {
		t.Errorf("expected missing result, got %+v", missing)
	}
	if missing.Error != os.ErrNotExist.Error() {
		t.Errorf("Error = %q, want only the cause %q", missing.Error, os.ErrNotExist.Error())
	}

	if report.Dirty != 1 {
		t.Errorf("Dirty = %d, want 1", report.Dirty)
	}
	if report.Missing != 1 {
		t.Errorf("Missing = %d, want 1", report.Missing)
	}
	if report.Total() != 3 {
		t.Errorf("Total() = %d, want 3", report.Total())
	}
}

func TestRun_AssetFolderMissing(t *testing.T) {
	fs := afero.NewMemMapFs()
	_ = afero.WriteFile(fs, "/ws/app/deps/core-lib.mtb", []byte(mtbLine("core-lib", "v1")), 0644)
	q := &fakeQuerier{}

	_, err := New(fs, nil, q).Run(context.Background(), "/ws/app")
	if !errors.Is(err, deperrors.ErrWorkspace) {
		t.Fatalf("Run() error = %v, want ErrWorkspace", err)
	}
	if len(q.calls) != 0 {
		t.Error("no status query should run when the asset folder is missing")
	}
}

func TestRun_DepsFolderMissing(t *testing.T) {
	fs := newWorkspace(t, map[string]string{"/ws/app/source/main.c": ""})

	_, err := New(fs, nil, &fakeQuerier{}).Run(context.Background(), "/ws/app")
	if !errors.Is(err, deperrors.ErrWorkspace) {
		t.Fatalf("Run() error = %v, want ErrWorkspace", err)
	}
}

func TestRun_MalformedDescriptorAborts(t *testing.T) {
	fs := newWorkspace(t, map[string]string{
		"/ws/app/deps/a.mtb": mtbLine("core-lib", "v1"),
		"/ws/app/deps/b.mtb": "https://x#v1#$$WRONG$$/x\n",
	})
	q := &fakeQuerier{statuses: map[string]string{"/ws/mtb_shared/core-lib/v1": cleanStatus}}

	_, err := New(fs, nil, q).Run(context.Background(), "/ws/app")
	if !errors.Is(err, deperrors.ErrDescriptor) {
		t.Fatalf("Run() error = %v, want ErrDescriptor", err)
	}
}

func TestRun_QueryFailureAborts(t *testing.T) {
	fs := newWorkspace(t, map[string]string{"/ws/app/deps/a.mtb": mtbLine("core-lib", "v1")})
	q := &fakeQuerier{errs: map[string]error{
		"/ws/mtb_shared/core-lib/v1": deperrors.GitStatusFailed("/ws/mtb_shared/core-lib/v1", "fatal", errors.New("exit status 128")),
	}}

	_, err := New(fs, nil, q).Run(context.Background(), "/ws/app")
	if !errors.Is(err, deperrors.ErrGit) {
		t.Fatalf("Run() error = %v, want ErrGit", err)
	}
}

func TestRun_EmptyDepsFolder(t *testing.T) {
	fs := newWorkspace(t, nil)
	if err := fs.MkdirAll("/ws/app/deps", 0755); err != nil {
		t.Fatal(err)
	}

	report, err := New(fs, nil, &fakeQuerier{}).Run(context.Background(), "/ws/app")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(report.Groups) != 1 || len(report.Groups[0].Results) != 0 {
		t.Errorf("expected one empty group, got %+v", report.Groups)
	}
}

func TestRun_CanceledContext(t *testing.T) {
	fs := newWorkspace(t, map[string]string{"/ws/app/deps/a.mtb": mtbLine("core-lib", "v1")})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(fs, nil, &fakeQuerier{}).Run(ctx, "/ws/app")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		status string
		want   State
	}{
		{cleanStatus, StateClean},
		{dirtyStatus, StateDirty},
		{"", StateDirty},
		{"nothing added to commit but untracked files present", StateDirty},
	}
	for _, tt := range tests {
		if got := Classify(tt.status, config.DefaultCleanMessage); got != tt.want {
			t.Errorf("Classify(%q) = %q, want %q", tt.status, got, tt.want)
		}
	}
}

// TestRun_RealRepositories runs the exec backend against real git clones.
func TestRun_RealRepositories(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}

	root := t.TempDir()
	project := filepath.Join(root, "app")
	shared := filepath.Join(root, "mtb_shared")

	initRepo := func(dir string) {
		t.Helper()
		if err := os.MkdirAll(dir, 0755); err != nil {
			t.Fatal(err)
		}
		for _, args := range [][]string{
			{"init", "-q"},
			{"config", "user.email", "test@example.com"},
			{"config", "user.name", "Test User"},
			{"config", "commit.gpgsign", "false"},
			{"commit", "-q", "--allow-empty", "-m", "init"},
		} {
			cmd := exec.Command("git", args...)
			cmd.Dir = dir
			if out, err := cmd.CombinedOutput(); err != nil {
				t.Fatalf("git %v: %v: %s", args, err, out)
			}
		}
	}

	initRepo(filepath.Join(shared, "core-lib", "release-v1"))
	initRepo(filepath.Join(shared, "mtb-hal-cat1", "release-v2"))
	if err := os.WriteFile(filepath.Join(shared, "mtb-hal-cat1", "release-v2", "local.c"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	depsDir := filepath.Join(project, "deps")
	if err := os.MkdirAll(depsDir, 0755); err != nil {
		t.Fatal(err)
	}
	for name, line := range map[string]string{
		"core-lib.mtb":     mtbLine("core-lib", "release-v1"),
		"mtb-hal-cat1.mtb": mtbLine("mtb-hal-cat1", "release-v2"),
	} {
		if err := os.WriteFile(filepath.Join(depsDir, name), []byte(line), 0644); err != nil {
			t.Fatal(err)
		}
	}

	report, err := New(afero.NewOsFs(), config.NewConfig(), gitstatus.NewExecQuerier()).Run(context.Background(), project)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if report.Dirty != 1 {
		t.Errorf("Dirty = %d, want 1", report.Dirty)
	}
	results := report.Groups[0].Results
	if results[0].State != StateClean || results[1].State != StateDirty {
		t.Errorf("unexpected states %q, %q", results[0].State, results[1].State)
	}
}

// recorder captures observer callbacks.
type recorder struct {
	events []string
}

func (r *recorder) GroupStarted(g *Group) {
	r.events = append(r.events, "group "+g.Label)
}

func (r *recorder) ResultReady(g *Group, res *Result) {
	r.events = append(r.events, string(res.State)+" "+res.RepoPath)
}

func TestRun_Observer(t *testing.T) {
	fs := newWorkspace(t, map[string]string{
		"/ws/app/deps/a.mtb": mtbLine("core-lib", "v1"),
		"/ws/app/deps/b.mtb": mtbLine("mtb-hal-cat1", "v2"),
	})
	q := &fakeQuerier{statuses: map[string]string{
		"/ws/mtb_shared/core-lib/v1":     cleanStatus,
		"/ws/mtb_shared/mtb-hal-cat1/v2": dirtyStatus,
	}}
	rec := &recorder{}

	a := New(fs, nil, q)
	a.Observer = rec
	if _, err := a.Run(context.Background(), "/ws/app"); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	want := []string{
		"group app/deps",
		"clean /ws/mtb_shared/core-lib/v1",
		"dirty /ws/mtb_shared/mtb-hal-cat1/v2",
	}
	if fmt.Sprint(rec.events) != fmt.Sprint(want) {
		t.Errorf("events = %v, want %v", rec.events, want)
	}
}
