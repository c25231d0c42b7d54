// Package output renders check reports and ratchet plans for terminals
// and machine consumers.
package output

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/sofmeright/loq/src/check"
	"github.com/sofmeright/loq/src/config"
)

// Printer formats and writes check results.
type Printer struct {
	Writer io.Writer
	Color  bool
	// Verbose also prints passing files and quiet skips.
	Verbose bool
}

// NewPrinter creates a printer writing to stdout with color auto-detection.
func NewPrinter() *Printer {
	return &Printer{
		Writer: os.Stdout,
		Color:  isTerminal(os.Stdout),
	}
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

var (
	redBold    = color.New(color.FgRed, color.Bold)
	yellowBold = color.New(color.FgYellow, color.Bold)
	green      = color.New(color.FgGreen)
	gray       = color.New(color.Faint)
)

func (p *Printer) paint(c *color.Color, format string, args ...any) string {
	if !p.Color {
		return fmt.Sprintf(format, args...)
	}
	return c.Sprintf(format, args...)
}

// Print writes one line per reportable outcome, then the summary and any
// fix guidance. Outcomes arrive sorted by path from the engine.
func (p *Printer) Print(report *check.Report) {
	for _, o := range report.Outcomes {
		switch o.Kind {
		case check.OutcomeViolation:
			p.printViolation(o)
		case check.OutcomeSkip:
			if o.Skip.Noisy() {
				p.printSkip(o)
			} else if p.Verbose {
				fmt.Fprintf(p.Writer, "%s %s: %s\n",
					p.paint(gray, "skipped[%s]:", o.Skip.Tag()), o.Path, skipDetail(o))
			}
		case check.OutcomePass:
			if p.Verbose {
				fmt.Fprintf(p.Writer, "%s %s: %d lines (limit: %d)\n",
					p.paint(green, "ok:"), o.Path, o.Lines, o.Limit)
			}
		}
	}

	if report.Failed() || report.Warnings > 0 {
		fmt.Fprintf(p.Writer, "\n%d files checked, %d skipped, %d passed, %d errors, %d warnings (%dms)\n",
			report.Checked, report.Skipped, report.Passed,
			report.Errors, report.Warnings, report.Elapsed.Milliseconds())
	} else {
		fmt.Fprintf(p.Writer, "%s\n", p.paint(green, "All checks passed! (%d files in %dms)",
			report.Checked, report.Elapsed.Milliseconds()))
	}

	if report.Failed() {
		for _, guidance := range report.FixGuidance {
			fmt.Fprintf(p.Writer, "\n%s\n", guidance)
		}
	}
}

func (p *Printer) printViolation(o check.Outcome) {
	label := p.paint(redBold, "error[max-lines]:")
	if o.Severity == config.SeverityWarning {
		label = p.paint(yellowBold, "warning[max-lines]:")
	}
	fmt.Fprintf(p.Writer, "%s %s: %d lines (limit: %d, +%d over)\n",
		label, o.Path, o.Lines, o.Limit, o.Over())
}

func (p *Printer) printSkip(o check.Outcome) {
	fmt.Fprintf(p.Writer, "%s %s: %s\n",
		p.paint(yellowBold, "warning[%s]:", o.Skip.Tag()), o.Path, skipDetail(o))
}

func skipDetail(o check.Outcome) string {
	switch o.Skip {
	case check.SkipBinary:
		return "binary file skipped"
	case check.SkipMissing:
		return "file does not exist"
	case check.SkipUnreadable:
		return o.Detail
	case check.SkipExempt:
		return fmt.Sprintf("exempt (%s)", o.Pattern)
	case check.SkipNoLimit:
		return "no limit configured"
	}
	return o.Detail
}
