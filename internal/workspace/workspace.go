// Package workspace locates the shared-asset folder, the deps folders and
// the descriptor files of a ModusToolbox-style project.
package workspace

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/afero"

	"github.com/mtb04313/mtb-scripts/internal/config"
	"github.com/mtb04313/mtb-scripts/internal/errors"
	"github.com/mtb04313/mtb-scripts/internal/logging"
)

// assetSearchDepth is how many ancestors of the project folder are checked
// for the shared-asset folder.
const assetSearchDepth = 2

// Finder discovers workspace folders on a filesystem.
type Finder struct {
	// Fs is the filesystem to search.
	Fs afero.Fs
	// Config names the folders and descriptor pattern.
	Config config.WorkspaceConfig
	// Logger receives debug output (default: global logger).
	Logger *logging.Logger
}

// NewFinder creates a Finder. Unset config fields fall back to the defaults.
func NewFinder(fs afero.Fs, cfg config.WorkspaceConfig) *Finder {
	defaults := config.NewConfig().Workspace
	if cfg.DepsFolder == "" {
		cfg.DepsFolder = defaults.DepsFolder
	}
	if cfg.AssetFolder == "" {
		cfg.AssetFolder = defaults.AssetFolder
	}
	if cfg.ExcludeDirs == nil {
		cfg.ExcludeDirs = defaults.ExcludeDirs
	}
	if cfg.Pattern == "" {
		cfg.Pattern = defaults.Pattern
	}
	return &Finder{
		Fs:     fs,
		Config: cfg,
		Logger: logging.Global(),
	}
}

// NewOsFinder creates a Finder on the OS filesystem.
func NewOsFinder(cfg config.WorkspaceConfig) *Finder {
	return NewFinder(afero.NewOsFs(), cfg)
}

// FindAssetFolder returns the shared-asset folder next to the project folder
// or next to its parent, checked in that order.
func (f *Finder) FindAssetFolder(projectDir string) (string, error) {
	dir := filepath.Clean(projectDir)

	var searched []string
	for i := 0; i < assetSearchDepth; i++ {
		dir = filepath.Dir(dir)
		candidate := filepath.Join(dir, f.Config.AssetFolder)
		searched = append(searched, candidate)

		ok, err := afero.DirExists(f.Fs, candidate)
		if err != nil {
			f.Logger.Debug("asset folder check failed", "path", candidate, "error", err)
			continue
		}
		if ok {
			f.Logger.Debug("found asset folder", "path", candidate)
			return candidate, nil
		}
	}

	return "", errors.AssetFolderNotFound(f.Config.AssetFolder, searched)
}

// FindDepsFolders walks projectDir and returns every deps folder in lexical
// walk order. Folders inside an excluded subtree are skipped.
func (f *Finder) FindDepsFolders(projectDir string) ([]string, error) {
	root := filepath.Clean(projectDir)

	var result []string
	err := afero.Walk(f.Fs, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			f.Logger.Warn("skipping unreadable path", "path", path, "error", err)
			if info != nil && info.IsDir() && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		if !info.IsDir() || path == root {
			return nil
		}

		name := info.Name()
		if name == ".git" || f.isExcluded(name) {
			return filepath.SkipDir
		}
		if name == f.Config.DepsFolder {
			f.Logger.Debug("found deps folder", "path", path)
			result = append(result, path)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrWorkspace, "failed to scan project folder")
	}

	if len(result) == 0 {
		return nil, errors.DepsFolderNotFound(f.Config.DepsFolder, root)
	}
	return result, nil
}

func (f *Finder) isExcluded(name string) bool {
	for _, ex := range f.Config.ExcludeDirs {
		if name == ex {
			return true
		}
	}
	return false
}

// DescriptorFiles returns the descriptor files in depsDir sorted by name.
func (f *Finder) DescriptorFiles(depsDir string) ([]string, error) {
	matches, err := afero.Glob(f.Fs, filepath.Join(depsDir, f.Config.Pattern))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrWorkspace, "invalid descriptor pattern")
	}

	files := matches[:0]
	for _, m := range matches {
		info, err := f.Fs.Stat(m)
		if err != nil || info.IsDir() {
			continue
		}
		files = append(files, m)
	}
	sort.Strings(files)
	return files, nil
}

// ResolveRepoPath joins the asset folder and a descriptor's relative path.
func ResolveRepoPath(assetFolder, relPath string) string {
	return filepath.Join(assetFolder, filepath.FromSlash(relPath))
}

// GroupLabel returns "<parent>/<deps>" for a deps folder, e.g. "app/deps".
func GroupLabel(depsDir string) string {
	clean := filepath.Clean(depsDir)
	return filepath.Base(filepath.Dir(clean)) + "/" + filepath.Base(clean)
}
