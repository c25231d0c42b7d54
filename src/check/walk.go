package check

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/format/gitignore"

	"github.com/sofmeright/loq/src/config"
)

// WalkWarning is a recoverable problem found while enumerating files.
type WalkWarning struct {
	Path string
	Err  error
}

// ExpandPaths expands files and directories into a sorted, deduplicated
// list of candidate files. Gitignore and exclude patterns from each file's
// nearest config are applied here, so excluded subtrees are pruned without
// being read. Non-existent paths stay in the list to be reported as missing
// by the checker.
func ExpandPaths(paths []string, loader *config.Loader) ([]string, []WalkWarning, error) {
	w := &walker{loader: loader}

	for _, path := range paths {
		abs, err := filepath.Abs(path)
		if err != nil {
			w.warnings = append(w.warnings, WalkWarning{Path: path, Err: err})
			continue
		}
		info, err := os.Stat(abs)
		switch {
		case err != nil:
			// Reported as missing later; does not abort the run.
			w.files = append(w.files, abs)
		case info.IsDir():
			if err := w.walkTree(abs); err != nil {
				return nil, nil, err
			}
		default:
			keep, err := w.keepExplicitFile(abs)
			if err != nil {
				return nil, nil, err
			}
			if keep {
				w.files = append(w.files, abs)
			}
		}
	}

	sort.Strings(w.files)
	w.files = dedupe(w.files)
	return w.files, w.warnings, nil
}

type walker struct {
	loader   *config.Loader
	files    []string
	warnings []WalkWarning
}

// walkTree walks one directory root. Gitignore patterns accumulate down the
// tree: each directory inherits its parent's patterns plus its own
// .gitignore, mirroring git's nearest-file-wins layering.
func (w *walker) walkTree(root string) error {
	ignores := map[string][]gitignore.Pattern{}

	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return fmt.Errorf("cannot read %s: %w", root, err)
			}
			w.warnings = append(w.warnings, WalkWarning{Path: path, Err: err})
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		cfg, err := w.loader.ResolveDir(dirOf(path, d))
		if err != nil {
			return err
		}

		if d.IsDir() {
			if path != root {
				if filepath.Base(path) == ".git" {
					return fs.SkipDir
				}
				rel := relSlash(cfg.RootDir, path)
				if cfg.Exclude.MatchesDir(rel) {
					return fs.SkipDir
				}
				if cfg.RespectGitignore && ignoreMatch(ignores, root, path, true) {
					return fs.SkipDir
				}
			}
			ignores[path] = appendIgnoreFile(ignores[filepath.Dir(path)], root, path)
			return nil
		}

		if !d.Type().IsRegular() {
			return nil
		}
		if filepath.Base(path) == CacheFileName {
			return nil
		}

		rel := relSlash(cfg.RootDir, path)
		if _, excluded := cfg.Exclude.Matches(rel); excluded {
			return nil
		}
		if cfg.RespectGitignore && ignoreMatch(ignores, root, path, false) {
			return nil
		}

		w.files = append(w.files, path)
		return nil
	})
}

// keepExplicitFile filters a file given directly on the command line
// through the same gitignore + exclude lens as walked files.
func (w *walker) keepExplicitFile(abs string) (bool, error) {
	cfg, err := w.loader.Resolve(abs)
	if err != nil {
		return false, err
	}
	rel := relSlash(cfg.RootDir, abs)
	if _, excluded := cfg.Exclude.Matches(rel); excluded {
		return false, nil
	}
	if cfg.RespectGitignore {
		patterns := collectIgnoreChain(cfg.RootDir, filepath.Dir(abs))
		if len(patterns) > 0 {
			segments := strings.Split(relSlash(cfg.RootDir, abs), "/")
			if gitignore.NewMatcher(patterns).Match(segments, false) {
				return false, nil
			}
		}
	}
	return true, nil
}

// ignoreMatch tests path against the patterns accumulated for its parent.
func ignoreMatch(ignores map[string][]gitignore.Pattern, root, path string, isDir bool) bool {
	patterns := ignores[filepath.Dir(path)]
	if len(patterns) == 0 {
		return false
	}
	segments := strings.Split(relSlash(root, path), "/")
	return gitignore.NewMatcher(patterns).Match(segments, isDir)
}

// appendIgnoreFile parses dir/.gitignore, if present, into patterns
// domained at dir relative to root.
func appendIgnoreFile(inherited []gitignore.Pattern, root, dir string) []gitignore.Pattern {
	data, err := os.ReadFile(filepath.Join(dir, ".gitignore"))
	if err != nil {
		return inherited
	}
	var domain []string
	if rel := relSlash(root, dir); rel != "." {
		domain = strings.Split(rel, "/")
	}
	patterns := inherited
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, gitignore.ParsePattern(line, domain))
	}
	return patterns
}

// collectIgnoreChain reads every .gitignore from base down to dir.
func collectIgnoreChain(base, dir string) []gitignore.Pattern {
	rel, err := filepath.Rel(base, dir)
	if err != nil || strings.HasPrefix(rel, "..") {
		return nil
	}
	var patterns []gitignore.Pattern
	current := base
	patterns = appendIgnoreFile(patterns, base, current)
	if rel != "." {
		for _, segment := range strings.Split(filepath.ToSlash(rel), "/") {
			current = filepath.Join(current, segment)
			patterns = appendIgnoreFile(patterns, base, current)
		}
	}
	return patterns
}

// relSlash returns path relative to base with forward slashes, falling back
// to the slashed absolute path when it does not live under base.
func relSlash(base, path string) string {
	rel, err := filepath.Rel(base, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

// dirOf returns the directory whose config governs the walked entry.
func dirOf(path string, d fs.DirEntry) string {
	if d.IsDir() {
		return path
	}
	return filepath.Dir(path)
}

func dedupe(sorted []string) []string {
	out := sorted[:0]
	for i, s := range sorted {
		if i == 0 || s != sorted[i-1] {
			out = append(out, s)
		}
	}
	return out
}
