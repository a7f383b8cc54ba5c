// Package audit runs the discover, parse, query and classify flow over a
// project's dependency descriptors.
package audit

import (
	"context"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/mtb04313/mtb-scripts/internal/config"
	"github.com/mtb04313/mtb-scripts/internal/descriptor"
	"github.com/mtb04313/mtb-scripts/internal/errors"
	"github.com/mtb04313/mtb-scripts/internal/gitstatus"
	"github.com/mtb04313/mtb-scripts/internal/logging"
	"github.com/mtb04313/mtb-scripts/internal/workspace"
)

// State is the classification of one dependency.
type State string

const (
	// StateClean means the repository has no uncommitted changes.
	StateClean State = "clean"
	// StateDirty means the repository has uncommitted changes.
	StateDirty State = "dirty"
	// StateMissing means the resolved path is not a repository.
	StateMissing State = "missing"
)

// Result is the outcome for one descriptor.
type Result struct {
	Descriptor *descriptor.Descriptor `json:"descriptor" yaml:"descriptor"`
	// RepoPath is the asset folder joined with the descriptor's relative path.
	RepoPath string `json:"repo_path" yaml:"repo_path"`
	State    State  `json:"state" yaml:"state"`
	// Status is the version-control status text (empty when missing).
	Status string `json:"status,omitempty" yaml:"status,omitempty"`
	// Err is set for missing repositories.
	Err error `json:"-" yaml:"-"`
	// Error mirrors Err for serialized reports.
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Group holds the results for one deps folder.
type Group struct {
	// Label is "<parent>/deps".
	Label   string   `json:"label" yaml:"label"`
	Dir     string   `json:"dir" yaml:"dir"`
	Results []Result `json:"results" yaml:"results"`
}

// Report is the outcome of one audit run.
type Report struct {
	ProjectDir  string  `json:"project_dir" yaml:"project_dir"`
	AssetFolder string  `json:"asset_folder" yaml:"asset_folder"`
	Groups      []Group `json:"groups" yaml:"groups"`
	Dirty       int     `json:"dirty" yaml:"dirty"`
	Missing     int     `json:"missing" yaml:"missing"`
}

// Total returns the number of descriptors processed.
func (r *Report) Total() int {
	n := 0
	for _, g := range r.Groups {
		n += len(g.Results)
	}
	return n
}

// Observer receives progress while an audit runs.
type Observer interface {
	GroupStarted(g *Group)
	ResultReady(g *Group, r *Result)
}

// Auditor runs audits.
type Auditor struct {
	Finder  *workspace.Finder
	Parser  *descriptor.Parser
	Querier gitstatus.Querier
	// CleanMessage is the sentinel that marks a clean status.
	CleanMessage string
	// Observer, if set, is notified as groups and results are produced.
	Observer Observer
	Logger   *logging.Logger
}

// New creates an Auditor from configuration. fs backs workspace discovery
// and descriptor reads; status queries always hit the real repositories.
func New(fs afero.Fs, cfg *config.Config, q gitstatus.Querier) *Auditor {
	if cfg == nil {
		cfg = config.NewConfig()
	}
	return &Auditor{
		Finder:       workspace.NewFinder(fs, cfg.Workspace),
		Parser:       descriptor.NewParser(cfg.Descriptor),
		Querier:      q,
		CleanMessage: cfg.Git.CleanMessage,
		Logger:       logging.Global(),
	}
}

// Run audits the project at projectDir. Workspace discovery, descriptor and
// query errors abort the run. A missing dependency repository is recorded in
// the report and the run continues.
func (a *Auditor) Run(ctx context.Context, projectDir string) (*Report, error) {
	abs, err := filepath.Abs(projectDir)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrWorkspace, "failed to resolve project folder")
	}

	ctx = logging.WithProject(ctx, abs)
	log := a.Logger.WithContext(ctx)

	assetFolder, err := a.Finder.FindAssetFolder(abs)
	if err != nil {
		return nil, err
	}

	depsFolders, err := a.Finder.FindDepsFolders(abs)
	if err != nil {
		return nil, err
	}

	report := &Report{
		ProjectDir:  abs,
		AssetFolder: assetFolder,
	}

	for _, dir := range depsFolders {
		group, err := a.auditGroup(ctx, assetFolder, dir)
		if err != nil {
			return nil, err
		}
		for _, r := range group.Results {
			switch r.State {
			case StateDirty:
				report.Dirty++
			case StateMissing:
				report.Missing++
			}
		}
		report.Groups = append(report.Groups, group)
	}

	log.Info("audit finished", "dependencies", report.Total(), "dirty", report.Dirty, "missing", report.Missing)
	return report, nil
}

func (a *Auditor) auditGroup(ctx context.Context, assetFolder, dir string) (Group, error) {
	group := Group{
		Label:   workspace.GroupLabel(dir),
		Dir:     dir,
		Results: []Result{},
	}

	files, err := a.Finder.DescriptorFiles(dir)
	if err != nil {
		return group, err
	}

	if a.Observer != nil {
		a.Observer.GroupStarted(&group)
	}

	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return group, err
		}

		d, err := a.Parser.LoadFs(a.Finder.Fs, file)
		if err != nil {
			return group, err
		}

		result, err := a.check(logging.WithDependency(ctx, file), assetFolder, d)
		if err != nil {
			return group, err
		}
		group.Results = append(group.Results, result)
		if a.Observer != nil {
			a.Observer.ResultReady(&group, &group.Results[len(group.Results)-1])
		}
	}

	return group, nil
}

// check queries and classifies one dependency. Only a missing repository is
// folded into the result; other query failures are returned.
func (a *Auditor) check(ctx context.Context, assetFolder string, d *descriptor.Descriptor) (Result, error) {
	log := a.Logger.WithContext(ctx)

	result := Result{
		Descriptor: d,
		RepoPath:   workspace.ResolveRepoPath(assetFolder, d.Path),
	}

	status, err := a.Querier.Status(ctx, result.RepoPath)
	if err != nil {
		if !errors.Is(err, errors.ErrNotFound) {
			return result, err
		}
		log.Warn("dependency repository missing", "repo", result.RepoPath, "error", err)
		result.State = StateMissing
		result.Err = err
		result.Error = missingReason(err)
		return result, nil
	}

	result.Status = status
	result.State = Classify(status, a.CleanMessage)
	log.Debug("dependency checked", "repo", result.RepoPath, "state", result.State)
	return result, nil
}

// missingReason returns why a repository is missing, without the path the
// result already carries.
func missingReason(err error) string {
	if de, ok := errors.AsDepError(err); ok && de.Cause != nil {
		return de.Cause.Error()
	}
	return err.Error()
}

// Classify maps status text to clean or dirty.
func Classify(status, cleanMessage string) State {
	if gitstatus.IsClean(status, cleanMessage) {
		return StateClean
	}
	return StateDirty
}
