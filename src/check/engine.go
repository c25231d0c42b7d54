package check

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/sofmeright/loq/src/config"
)

// Options configures a run.
type Options struct {
	// Loader resolves each file to its governing config.
	Loader *config.Loader
	// Cwd is the directory display paths are made relative to.
	Cwd string
	// UseCache enables the per-config-root count cache.
	UseCache bool
}

// Run expands paths, resolves each file against its config, counts lines
// concurrently, and returns a deterministic report. Cancelling ctx stops
// new files from being scheduled; files already in flight finish.
func Run(ctx context.Context, paths []string, opts Options) (*Report, error) {
	start := time.Now()

	files, walkWarnings, err := ExpandPaths(paths, opts.Loader)
	if err != nil {
		return nil, err
	}

	var (
		mu       sync.Mutex
		outcomes []Outcome
		guidance []string
		seen     = map[string]bool{}
	)
	for _, w := range walkWarnings {
		outcomes = append(outcomes, Outcome{
			Path:   displayPath(opts.Cwd, w.Path),
			Kind:   OutcomeSkip,
			Skip:   SkipUnreadable,
			Detail: w.Err.Error(),
		})
	}

	caches := newCacheSet(opts.UseCache)

	sem := semaphore.NewWeighted(int64(runtime.NumCPU() * 2))
	var wg sync.WaitGroup
	for _, file := range files {
		if ctx.Err() != nil {
			break
		}
		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}
		wg.Add(1)
		go func(file string) {
			defer sem.Release(1)
			defer wg.Done()

			outcome, cfg, err := checkOne(file, opts, caches)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				outcomes = append(outcomes, Outcome{
					Path:   displayPath(opts.Cwd, file),
					Kind:   OutcomeSkip,
					Skip:   SkipUnreadable,
					Detail: err.Error(),
				})
				return
			}
			if outcome != nil {
				outcomes = append(outcomes, *outcome)
				if outcome.Kind == OutcomeViolation && cfg.FixGuidance != "" && !seen[cfg.FixGuidance] {
					seen[cfg.FixGuidance] = true
					guidance = append(guidance, cfg.FixGuidance)
				}
			}
		}(file)
	}
	wg.Wait()

	caches.saveAll()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return BuildReport(outcomes, guidance, time.Since(start)), nil
}

// checkOne resolves and counts a single file. A nil outcome means the file
// was excluded after expansion (a config race, harmless).
func checkOne(file string, opts Options, caches *cacheSet) (*Outcome, *config.Compiled, error) {
	cfg, err := opts.Loader.Resolve(file)
	if err != nil {
		return nil, nil, err
	}
	rel := relSlash(cfg.RootDir, file)
	display := displayPath(opts.Cwd, file)

	decision := Decide(cfg, rel)
	switch decision.Kind {
	case DecisionExcluded:
		return nil, cfg, nil
	case DecisionExempt:
		return &Outcome{Path: display, Kind: OutcomeSkip, Skip: SkipExempt, Pattern: decision.Pattern}, cfg, nil
	case DecisionNoLimit:
		return &Outcome{Path: display, Kind: OutcomeSkip, Skip: SkipNoLimit}, cfg, nil
	}

	lines, skip, detail := countWithCache(file, rel, cfg, caches)
	if skip != SkipNone {
		return &Outcome{Path: display, Kind: OutcomeSkip, Skip: skip, Detail: detail}, cfg, nil
	}

	outcome := &Outcome{
		Path:     display,
		Kind:     OutcomePass,
		Lines:    lines,
		Limit:    decision.Limit,
		Severity: decision.Severity,
		Pattern:  decision.Pattern,
	}
	if lines > decision.Limit {
		outcome.Kind = OutcomeViolation
	}
	return outcome, cfg, nil
}

// countWithCache counts a file, consulting the config root's cache first.
func countWithCache(file, rel string, cfg *config.Compiled, caches *cacheSet) (int, SkipReason, string) {
	info, err := os.Stat(file)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, SkipMissing, "file does not exist"
		}
		return 0, SkipUnreadable, err.Error()
	}

	cache := caches.forConfig(cfg)
	if lines, ok := cache.Get(rel, info.Size(), info.ModTime()); ok {
		return lines, SkipNone, ""
	}

	inspection, err := InspectFile(file)
	switch {
	case errors.Is(err, ErrMissing):
		return 0, SkipMissing, "file does not exist"
	case err != nil:
		return 0, SkipUnreadable, err.Error()
	case inspection.Binary:
		return 0, SkipBinary, "binary file"
	}

	cache.Put(rel, info.Size(), info.ModTime(), inspection.Lines)
	return inspection.Lines, SkipNone, ""
}

// cacheSet lazily opens one CountCache per config root.
type cacheSet struct {
	enabled bool

	mu     sync.Mutex
	byRoot map[string]*CountCache
}

func newCacheSet(enabled bool) *cacheSet {
	return &cacheSet{enabled: enabled, byRoot: map[string]*CountCache{}}
}

func (s *cacheSet) forConfig(cfg *config.Compiled) *CountCache {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cache, ok := s.byRoot[cfg.RootDir]; ok {
		return cache
	}
	var cache *CountCache
	if s.enabled && !cfg.Origin.IsBuiltIn() {
		cache = LoadCountCache(cfg.RootDir, ConfigHash(cfg))
	} else {
		cache = EmptyCountCache()
	}
	s.byRoot[cfg.RootDir] = cache
	return cache
}

func (s *cacheSet) saveAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for root, cache := range s.byRoot {
		cache.Save(root)
	}
}

// displayPath renders a path relative to the working directory when it
// lives underneath it, otherwise the absolute path.
func displayPath(cwd, path string) string {
	if cwd == "" {
		return filepath.ToSlash(path)
	}
	rel, err := filepath.Rel(cwd, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	rel = filepath.ToSlash(rel)
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return filepath.ToSlash(path)
	}
	return rel
}
