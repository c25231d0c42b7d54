package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sofmeright/loq/src/ratchet"
)

var tightenCmd = &cobra.Command{
	Use:   "tighten",
	Short: "Lower exact-path limits for files that shrank",
	Long: `Pull exact-path limits down to each file's current line count and
remove rules for files that no longer need one. Never adds rules and
never raises a limit; the ceiling only moves down.`,
	Args: cobra.NoArgs,
	RunE: runTighten,
}

func init() {
	rootCmd.AddCommand(tightenCmd)
}

func runTighten(cmd *cobra.Command, args []string) error {
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
	snap, err := ratchet.ScanWithoutExactRules(cmd.Context(), path, doc, 0)
	if err != nil {
		return err
	}

	plan := ratchet.Tighten(doc, snap)
	if !plan.Empty() {
		ratchet.Apply(doc, plan)
		if err := ratchet.WriteDocument(path, doc); err != nil {
			return err
		}
	}

	newRatchetPrinter().PrintPlan(plan, "tighten")
	return nil
}
