package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/sofmeright/loq/src/config"
	"github.com/sofmeright/loq/src/ratchet"
)

var initBaseline bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a starter loq.toml in the current directory",
	Long: `Create a starter loq.toml. With --baseline, also lock in every file
currently over the default limit so the new config passes immediately.

Refuses to overwrite an existing loq.toml.`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initBaseline, "baseline", false, "lock in current oversized files after creating the config")

	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting working directory: %w", err)
	}
	path := filepath.Join(cwd, config.FileName)

	if err := ratchet.WriteInit(path); err != nil {
		return err
	}
	if err := ratchet.EnsureGitignore(cwd); err != nil {
		return err
	}
	fmt.Printf("Created %s\n", config.FileName)

	if !initBaseline {
		return nil
	}

	doc, err := ratchet.LoadDocument(path)
	if err != nil {
		return err
	}
	snap, err := ratchet.ScanWithoutExactRules(cmd.Context(), path, doc, 0)
	if err != nil {
		return err
	}
	plan := ratchet.Baseline(doc, snap, false)
	ratchet.Apply(doc, plan)
	if err := ratchet.WriteDocument(path, doc); err != nil {
		return err
	}

	newRatchetPrinter().PrintPlan(plan, "baseline")
	return nil
}
