package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sofmeright/loq/src/output"
	"github.com/sofmeright/loq/src/ratchet"
)

var (
	baselineThreshold   int
	baselineAllowGrowth bool
)

var baselineCmd = &cobra.Command{
	Use:   "baseline",
	Short: "Sync exact-path limits with the current state of the tree",
	Long: `Rewrite the exact-path rules in loq.toml to match the tree:

  - files over the limit with no rule get one at their current count
  - rules for files that shrank move down to the current count
  - rules for files that are now compliant are removed
  - files that grew past their rule are left violating, so regressions
    stay visible; pass --allow-growth to absorb them

Glob rules are never modified.`,
	Args: cobra.NoArgs,
	RunE: runBaseline,
}

func init() {
	baselineCmd.Flags().IntVar(&baselineThreshold, "threshold", 0, "limit to baseline against (default: the config's default_max_lines)")
	baselineCmd.Flags().BoolVar(&baselineAllowGrowth, "allow-growth", false, "raise existing limits for files that grew")

	rootCmd.AddCommand(baselineCmd)
}

func runBaseline(cmd *cobra.Command, args []string) error {
	if baselineThreshold < 0 {
		return fmt.Errorf("--threshold must be positive")
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
	snap, err := ratchet.ScanWithoutExactRules(cmd.Context(), path, doc, baselineThreshold)
	if err != nil {
		return err
	}

	plan := ratchet.Baseline(doc, snap, baselineAllowGrowth)
	if !plan.Empty() {
		ratchet.Apply(doc, plan)
		if err := ratchet.WriteDocument(path, doc); err != nil {
			return err
		}
	}

	newRatchetPrinter().PrintPlan(plan, "baseline")
	return nil
}

// newRatchetPrinter builds the shared printer for ratchet plan output.
func newRatchetPrinter() *output.Printer {
	printer := output.NewPrinter()
	printer.Verbose = verbose
	if noColor {
		printer.Color = false
	}
	return printer
}
