package check

import (
	"sort"
	"time"

	"github.com/sofmeright/loq/src/config"
)

// OutcomeKind classifies what happened to one file.
type OutcomeKind int

const (
	// OutcomePass means the file was counted and is within its limit.
	OutcomePass OutcomeKind = iota
	// OutcomeViolation means the file exceeds its limit.
	OutcomeViolation
	// OutcomeSkip means the file was not counted; see SkipReason.
	OutcomeSkip
)

// SkipReason says why a file was not counted.
type SkipReason int

const (
	SkipNone SkipReason = iota
	// SkipBinary: NUL bytes detected, not a text file.
	SkipBinary
	// SkipMissing: the path does not exist.
	SkipMissing
	// SkipUnreadable: open or read failed.
	SkipUnreadable
	// SkipExempt: an exempt pattern matched.
	SkipExempt
	// SkipNoLimit: no rule matched and no default limit is set.
	SkipNoLimit
)

// Tag returns the bracketed reason used in warning lines.
func (r SkipReason) Tag() string {
	switch r {
	case SkipBinary:
		return "skip-binary"
	case SkipMissing:
		return "skip-missing"
	case SkipUnreadable:
		return "skip-unreadable"
	case SkipExempt:
		return "skip-exempt"
	case SkipNoLimit:
		return "skip-no-limit"
	}
	return ""
}

// Noisy reports whether the skip warrants a warning line. Exempt and
// no-limit files are deliberate configuration, not surprises.
func (r SkipReason) Noisy() bool {
	return r == SkipBinary || r == SkipMissing || r == SkipUnreadable
}

// Outcome is the result for a single file.
type Outcome struct {
	// Path is the display path, relative to the working directory.
	Path     string
	Kind     OutcomeKind
	Skip     SkipReason
	Lines    int
	Limit    int
	Severity config.Severity
	// Pattern is the rule pattern that set the limit, empty for the default.
	Pattern string
	// Detail carries the error text for unreadable files.
	Detail string
}

// Over returns how many lines past the limit the file is.
func (o Outcome) Over() int {
	return o.Lines - o.Limit
}

// Report aggregates a whole run.
type Report struct {
	Outcomes []Outcome
	Checked  int
	Skipped  int
	Passed   int
	Errors   int
	Warnings int
	Elapsed  time.Duration
	// FixGuidance holds the distinct fix_guidance messages from configs
	// that produced at least one violation, in first-seen order.
	FixGuidance []string
}

// Failed reports whether the run should exit non-zero. Warning-severity
// violations and skips never fail a run.
func (r *Report) Failed() bool {
	return r.Errors > 0
}

// BuildReport sorts outcomes by path and computes the summary counters.
func BuildReport(outcomes []Outcome, guidance []string, elapsed time.Duration) *Report {
	sort.Slice(outcomes, func(i, j int) bool {
		return outcomes[i].Path < outcomes[j].Path
	})

	r := &Report{Outcomes: outcomes, Elapsed: elapsed, FixGuidance: guidance}
	for _, o := range outcomes {
		switch o.Kind {
		case OutcomePass:
			r.Checked++
			r.Passed++
		case OutcomeViolation:
			r.Checked++
			if o.Severity == config.SeverityError {
				r.Errors++
			} else {
				r.Warnings++
			}
		case OutcomeSkip:
			r.Skipped++
			if o.Skip.Noisy() {
				r.Warnings++
			}
		}
	}
	return r
}
