package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sofmeright/loq/src/check"
	"github.com/sofmeright/loq/src/ratchet"
)

var relaxBuffer int

var relaxCmd = &cobra.Command{
	Use:     "relax [paths...]",
	Aliases: []string{"accept-defeat"},
	Short:   "Grant headroom to files that exceed their limits",
	Long: `Set each target's exact-path limit to its current line count plus
--buffer. With no paths, relaxes every file currently failing at error
severity. Existing limits are only raised, never lowered.`,
	RunE: runRelax,
}

func init() {
	relaxCmd.Flags().IntVar(&relaxBuffer, "buffer", 0, "extra lines of headroom above the current count")

	rootCmd.AddCommand(relaxCmd)
}

func runRelax(cmd *cobra.Command, args []string) error {
	if relaxBuffer < 0 {
		return fmt.Errorf("--buffer must not be negative")
	}

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting working directory: %w", err)
	}
	path, err := findConfigFile(cwd)
	if err != nil {
		return err
	}

	doc, err := ratchet.LoadDocument(path)
	if err != nil {
		return err
	}

	var targets map[string]int
	if len(args) > 0 {
		targets, err = countTargets(filepath.Dir(path), args)
		if err != nil {
			return err
		}
	} else {
		snap, err := ratchet.ScanFullConfig(cmd.Context(), path, doc)
		if err != nil {
			return err
		}
		targets = snap.Violations
	}

	plan := ratchet.Relax(doc, targets, relaxBuffer)
	if !plan.Empty() {
		ratchet.Apply(doc, plan)
		if err := ratchet.WriteDocument(path, doc); err != nil {
			return err
		}
	}

	newRatchetPrinter().PrintPlan(plan, "relax")
	return nil
}

// countTargets counts each named file and keys it by its forward-slash
// path relative to the config root, the form rules are written in.
func countTargets(root string, args []string) (map[string]int, error) {
	targets := map[string]int{}
	for _, arg := range args {
		abs, err := filepath.Abs(arg)
		if err != nil {
			return nil, err
		}
		rel, err := filepath.Rel(root, abs)
		if err != nil || rel == ".." || strings.HasPrefix(filepath.ToSlash(rel), "../") {
			return nil, fmt.Errorf("%s is outside the config root %s", arg, root)
		}

		inspection, err := check.InspectFile(abs)
		if err != nil {
			return nil, fmt.Errorf("cannot count %s: %w", arg, err)
		}
		if inspection.Binary {
			return nil, fmt.Errorf("cannot relax %s: binary file", arg)
		}
		targets[filepath.ToSlash(rel)] = inspection.Lines
	}
	return targets, nil
}
