package ratchet

import (
	"context"
	"path/filepath"

	"github.com/sofmeright/loq/src/check"
	"github.com/sofmeright/loq/src/config"
)

// Snapshot is the result of scanning the tree under a ratchet view of the
// config. Paths are forward-slash relative to the config root.
type Snapshot struct {
	// Violations maps path to line count for files over their limit at
	// error severity. Warning-severity rules never enter the ratchet.
	Violations map[string]int
	// Counts maps path to line count for every file that was counted,
	// violating or not.
	Counts map[string]int
}

// ScanWithoutExactRules counts the tree as if the managed rules did not
// exist: glob rules apply, the default limit is replaced by threshold
// when threshold is positive. This is the view baseline and tighten
// decide against.
func ScanWithoutExactRules(ctx context.Context, configPath string, doc *Document, threshold int) (*Snapshot, error) {
	cfg := doc.toConfig(false)
	if threshold > 0 {
		cfg.DefaultMaxLines = threshold
	}
	return scan(ctx, configPath, cfg)
}

// ScanFullConfig counts the tree under the complete config, managed rules
// included. This is the view relax decides against.
func ScanFullConfig(ctx context.Context, configPath string, doc *Document) (*Snapshot, error) {
	return scan(ctx, configPath, doc.toConfig(true))
}

func scan(ctx context.Context, configPath string, cfg *config.Config) (*Snapshot, error) {
	root := filepath.Dir(configPath)
	compiled, err := config.Compile(config.Origin{File: configPath}, root, cfg)
	if err != nil {
		return nil, err
	}
	loader := config.NewPinnedLoader(compiled)

	// The ratchet views use modified configs whose hash would evict the
	// regular check cache, so they always count from scratch.
	report, err := check.Run(ctx, []string{root}, check.Options{
		Loader:   loader,
		Cwd:      root,
		UseCache: false,
	})
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{Violations: map[string]int{}, Counts: map[string]int{}}
	for _, o := range report.Outcomes {
		switch o.Kind {
		case check.OutcomePass:
			snap.Counts[o.Path] = o.Lines
		case check.OutcomeViolation:
			snap.Counts[o.Path] = o.Lines
			if o.Severity == config.SeverityError {
				snap.Violations[o.Path] = o.Lines
			}
		}
	}
	return snap, nil
}
