package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/sofmeright/loq/src/config"
)

var (
	cfgFile string
	verbose bool
	noColor bool
)

var rootCmd = &cobra.Command{
	Use:   "loq",
	Short: "Enforce maximum line counts per file",
	Long: `loq checks that source files stay under configured line limits.

Limits come from the nearest loq.toml above each file. The ratchet
commands (baseline, tighten, relax) keep exact-path limits in sync with
the tree so the ceiling only moves down over time.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "use this config file instead of discovery")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
}

// exitError carries an exit code through cobra without a message; the
// command has already printed its report.
type exitError struct {
	code int
}

func (e *exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

// Execute runs the root command and returns the process exit code:
// 0 on success, 1 on limit violations or any fatal error.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		var ee *exitError
		if errors.As(err, &ee) {
			return ee.code
		}
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}
	return 0
}

// newLoader builds the config loader for a run: pinned to --config when
// given, nearest-ancestor discovery otherwise.
func newLoader(cwd string) (*config.Loader, error) {
	if cfgFile != "" {
		compiled, err := config.LoadFile(cfgFile)
		if err != nil {
			return nil, err
		}
		return config.NewPinnedLoader(compiled), nil
	}
	return config.NewLoader(cwd)
}

// findConfigFile locates the config the ratchet commands edit: --config
// when given, otherwise the nearest loq.toml at or above cwd.
func findConfigFile(cwd string) (string, error) {
	if cfgFile != "" {
		abs, err := filepath.Abs(cfgFile)
		if err != nil {
			return "", err
		}
		return abs, nil
	}
	dir, err := filepath.Abs(cwd)
	if err != nil {
		return "", err
	}
	for {
		candidate := filepath.Join(dir, config.FileName)
		if info, err := os.Stat(candidate); err == nil && info.Mode().IsRegular() {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("no %s found in %s or any parent directory (run 'loq init' first)", config.FileName, cwd)
		}
		dir = parent
	}
}
