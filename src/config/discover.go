package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Loader resolves the configuration that applies to a file by walking
// directory ancestors for the nearest loq.toml. Results are memoized per
// directory with at-most-once population, so concurrent resolution of
// sibling files never loads the same config twice. A Loader is an explicit
// object rather than process state; independent runs get independent caches.
type Loader struct {
	defaultRoot string
	pinned      *Compiled
	builtin     *Compiled

	group singleflight.Group
	dirs  sync.Map // directory -> *Compiled (nil entry value never stored)
}

// NewLoader creates a loader whose built-in defaults are rooted at
// defaultRoot, used for files with no loq.toml in any ancestor directory.
func NewLoader(defaultRoot string) (*Loader, error) {
	builtin, err := Compile(Origin{}, defaultRoot, Default())
	if err != nil {
		return nil, err
	}
	return &Loader{defaultRoot: defaultRoot, builtin: builtin}, nil
}

// NewPinnedLoader creates a loader that resolves every file to one explicit
// config, bypassing discovery. Used for --config and for ratchet scans.
func NewPinnedLoader(cfg *Compiled) *Loader {
	return &Loader{pinned: cfg, builtin: cfg}
}

// LoadFile reads, parses, and compiles a config file. The file's directory
// becomes the root for relative pattern matching.
func LoadFile(path string) (*Compiled, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	cfg, err := Parse(path, data)
	if err != nil {
		return nil, err
	}
	return Compile(Origin{File: path}, filepath.Dir(path), cfg)
}

// Resolve returns the config governing the given file: the one in its
// nearest ancestor directory holding a loq.toml, or built-in defaults.
func (l *Loader) Resolve(file string) (*Compiled, error) {
	return l.ResolveDir(filepath.Dir(file))
}

// ResolveDir resolves the config governing files directly inside dir.
func (l *Loader) ResolveDir(dir string) (*Compiled, error) {
	if l.pinned != nil {
		return l.pinned, nil
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	cfg, err := l.resolve(abs)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return l.builtin, nil
	}
	return cfg, nil
}

// resolve returns the compiled config for dir, or nil when no ancestor has
// one. Memoized per directory; concurrent callers for the same key share a
// single lookup.
func (l *Loader) resolve(dir string) (*Compiled, error) {
	if cached, ok := l.dirs.Load(dir); ok {
		return cached.(*Compiled), nil
	}

	v, err, _ := l.group.Do(dir, func() (any, error) {
		if cached, ok := l.dirs.Load(dir); ok {
			return cached.(*Compiled), nil
		}

		candidate := filepath.Join(dir, FileName)
		if info, statErr := os.Stat(candidate); statErr == nil && info.Mode().IsRegular() {
			cfg, loadErr := LoadFile(candidate)
			if loadErr != nil {
				return nil, loadErr
			}
			l.dirs.Store(dir, cfg)
			return cfg, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			l.dirs.Store(dir, (*Compiled)(nil))
			return (*Compiled)(nil), nil
		}
		cfg, parentErr := l.resolve(parent)
		if parentErr != nil {
			return nil, parentErr
		}
		l.dirs.Store(dir, cfg)
		return cfg, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Compiled), nil
}
