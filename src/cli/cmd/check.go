package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sofmeright/loq/src/check"
	"github.com/sofmeright/loq/src/config"
	"github.com/sofmeright/loq/src/output"
)

var (
	checkNoCache bool
	checkStaged  bool
	checkDiff    string
	checkFormat  string
)

var checkCmd = &cobra.Command{
	Use:   "check [paths...]",
	Short: "Check files against their line limits",
	Long: `Check files and directories against the limits in their nearest
loq.toml. With no paths, checks the current directory. Pass "-" to read
newline-delimited paths from stdin.

Exit status is 1 when any error-severity limit is exceeded.`,
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().BoolVar(&checkNoCache, "no-cache", false, "disable the line count cache")
	checkCmd.Flags().BoolVar(&checkStaged, "staged", false, "check only files staged in git")
	checkCmd.Flags().StringVar(&checkDiff, "diff", "", "check only files changed since the given git revision")
	checkCmd.Flags().StringVar(&checkFormat, "format", "text", "output format: text or json")

	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	if checkFormat != "text" && checkFormat != "json" {
		return fmt.Errorf("unknown format %q (want text or json)", checkFormat)
	}
	if checkStaged && checkDiff != "" {
		return fmt.Errorf("--staged and --diff are mutually exclusive")
	}

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting working directory: %w", err)
	}

	paths, err := resolvePaths(cmd.Context(), cwd, args)
	if err != nil {
		return err
	}

	loader, err := newLoader(cwd)
	if err != nil {
		return err
	}
	if checkNoCache {
		clearCaches(loader, cwd)
	}

	report, err := check.Run(cmd.Context(), paths, check.Options{
		Loader:   loader,
		Cwd:      cwd,
		UseCache: !checkNoCache,
	})
	if err != nil {
		return err
	}

	printer := output.NewPrinter()
	printer.Verbose = verbose
	if noColor {
		printer.Color = false
	}

	if checkFormat == "json" {
		if err := output.WriteJSON(os.Stdout, report); err != nil {
			return err
		}
	} else {
		printer.Print(report)
	}

	if report.Failed() {
		return &exitError{code: 1}
	}
	return nil
}

// clearCaches removes the on-disk count cache for the run's config root.
// Best effort; --no-cache already keeps the run itself from reading it.
func clearCaches(loader *config.Loader, cwd string) {
	cfg, err := loader.ResolveDir(cwd)
	if err != nil || cfg.Origin.IsBuiltIn() {
		return
	}
	if err := check.Clear(cfg.RootDir); err != nil && verbose {
		fmt.Fprintf(os.Stderr, "cache: clear failed: %v\n", err)
	}
}

// resolvePaths turns flags and args into the list of roots to scan.
func resolvePaths(ctx context.Context, cwd string, args []string) ([]string, error) {
	switch {
	case checkStaged:
		sel, err := check.OpenGitSelection(cwd)
		if err != nil {
			return nil, err
		}
		return sel.Staged()
	case checkDiff != "":
		sel, err := check.OpenGitSelection(cwd)
		if err != nil {
			return nil, err
		}
		return sel.ChangedSince(ctx, checkDiff)
	case len(args) == 1 && args[0] == "-":
		return check.ReadPaths(os.Stdin)
	case len(args) == 0:
		return []string{cwd}, nil
	}
	return args, nil
}
