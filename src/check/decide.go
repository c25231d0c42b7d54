// Package check walks source trees, counts lines, and resolves each file
// against its nearest configuration to produce a deterministic violation
// report.
package check

import "github.com/sofmeright/loq/src/config"

// DecisionKind says what to do with a file.
type DecisionKind int

const (
	// DecisionCheck means the file has a limit and must be counted.
	DecisionCheck DecisionKind = iota
	// DecisionExcluded means an exclude pattern matched; skip entirely.
	DecisionExcluded
	// DecisionExempt means an exempt pattern matched; skip without checking.
	DecisionExempt
	// DecisionNoLimit means no rule matched and no default limit is set.
	DecisionNoLimit
)

// Decision is the resolution for one file: the effective limit, its
// severity, and the pattern responsible.
type Decision struct {
	Kind     DecisionKind
	Limit    int
	Severity config.Severity
	// Pattern is the matching exclude/exempt pattern, or the pattern of
	// the rule that set the limit. Empty when the default limit applied.
	Pattern string
	// ByRule is true when a rule (not the default limit) decided.
	ByRule bool
}

// Decide resolves a forward-slash path relative to the config root.
// Priority: exclude, then exempt, then rules with last match winning, then
// the default limit at error severity.
func Decide(cfg *config.Compiled, relPath string) Decision {
	if pattern, ok := cfg.Exclude.Matches(relPath); ok {
		return Decision{Kind: DecisionExcluded, Pattern: pattern}
	}
	if pattern, ok := cfg.Exempt.Matches(relPath); ok {
		return Decision{Kind: DecisionExempt, Pattern: pattern}
	}

	var matched *config.CompiledRule
	for i := range cfg.Rules {
		if cfg.Rules[i].Matches(relPath) {
			matched = &cfg.Rules[i]
		}
	}
	if matched != nil {
		return Decision{
			Kind:     DecisionCheck,
			Limit:    matched.MaxLines,
			Severity: matched.Severity,
			Pattern:  matched.PatternSources()[0],
			ByRule:   true,
		}
	}

	if cfg.DefaultMaxLines > 0 {
		return Decision{
			Kind:     DecisionCheck,
			Limit:    cfg.DefaultMaxLines,
			Severity: config.SeverityError,
		}
	}
	return Decision{Kind: DecisionNoLimit}
}
