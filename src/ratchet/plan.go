package ratchet

import "sort"

// ChangeKind is the kind of edit a plan makes to a managed rule.
type ChangeKind int

const (
	// ChangeAdd creates a managed rule for a newly oversized file.
	ChangeAdd ChangeKind = iota
	// ChangeUpdate moves an existing managed limit.
	ChangeUpdate
	// ChangeRemove drops a managed rule the file no longer needs.
	ChangeRemove
)

// Change records one edit: the path, the limits before and after, and the
// file's current line count.
type Change struct {
	Kind     ChangeKind
	Path     string
	OldLimit int
	NewLimit int
	Lines    int
}

// Plan is a set of edits, sorted by path within each kind.
type Plan struct {
	Changes []Change
}

// Empty reports whether the plan would change nothing.
func (p *Plan) Empty() bool { return len(p.Changes) == 0 }

// Count returns how many changes of the given kind the plan holds.
func (p *Plan) Count(kind ChangeKind) int {
	n := 0
	for _, c := range p.Changes {
		if c.Kind == kind {
			n++
		}
	}
	return n
}

// Baseline locks in the current state of the tree against the
// without-managed-rules snapshot:
//
//   - files over their limit with no managed rule get one at their
//     current count
//   - managed rules for files that shrank move down to the current count
//   - managed rules for files that are now compliant (or gone) are removed
//   - files that grew past their managed limit are left alone unless
//     allowGrowth is set, so a baseline run never hides new regressions
func Baseline(doc *Document, snap *Snapshot, allowGrowth bool) Plan {
	var plan Plan
	managed := doc.ExactRules()

	for path, lines := range snap.Violations {
		if _, ok := managed[path]; !ok {
			plan.Changes = append(plan.Changes, Change{
				Kind: ChangeAdd, Path: path, NewLimit: lines, Lines: lines,
			})
		}
	}

	for _, path := range doc.ExactPaths() {
		rule := managed[path]
		lines, counted := snap.Counts[path]
		_, violating := snap.Violations[path]
		switch {
		case !counted || !violating:
			plan.Changes = append(plan.Changes, Change{
				Kind: ChangeRemove, Path: path, OldLimit: rule.MaxLines, Lines: lines,
			})
		case lines < rule.MaxLines:
			plan.Changes = append(plan.Changes, Change{
				Kind: ChangeUpdate, Path: path, OldLimit: rule.MaxLines, NewLimit: lines, Lines: lines,
			})
		case lines > rule.MaxLines && allowGrowth:
			plan.Changes = append(plan.Changes, Change{
				Kind: ChangeUpdate, Path: path, OldLimit: rule.MaxLines, NewLimit: lines, Lines: lines,
			})
		}
	}

	sortPlan(&plan)
	return plan
}

// Tighten only ever lowers or removes managed limits. Files that shrank
// get their limit pulled down to the current count; files that are
// compliant without their managed rule lose it. Nothing is added and
// nothing is raised.
func Tighten(doc *Document, snap *Snapshot) Plan {
	var plan Plan
	managed := doc.ExactRules()

	for _, path := range doc.ExactPaths() {
		rule := managed[path]
		lines, counted := snap.Counts[path]
		_, violating := snap.Violations[path]
		switch {
		case !counted || !violating:
			plan.Changes = append(plan.Changes, Change{
				Kind: ChangeRemove, Path: path, OldLimit: rule.MaxLines, Lines: lines,
			})
		case lines < rule.MaxLines:
			plan.Changes = append(plan.Changes, Change{
				Kind: ChangeUpdate, Path: path, OldLimit: rule.MaxLines, NewLimit: lines, Lines: lines,
			})
		}
	}

	sortPlan(&plan)
	return plan
}

// Relax grants headroom: every target gets a managed limit of its current
// count plus buffer. Existing limits only move up, never down, so a relax
// can never make a passing file fail.
func Relax(doc *Document, targets map[string]int, buffer int) Plan {
	var plan Plan
	managed := doc.ExactRules()

	for path, lines := range targets {
		newLimit := lines + buffer
		if rule, ok := managed[path]; ok {
			if newLimit > rule.MaxLines {
				plan.Changes = append(plan.Changes, Change{
					Kind: ChangeUpdate, Path: path, OldLimit: rule.MaxLines, NewLimit: newLimit, Lines: lines,
				})
			}
			continue
		}
		plan.Changes = append(plan.Changes, Change{
			Kind: ChangeAdd, Path: path, NewLimit: newLimit, Lines: lines,
		})
	}

	sortPlan(&plan)
	return plan
}

// Apply executes the plan against the document.
func Apply(doc *Document, plan Plan) {
	var removals []string
	for _, c := range plan.Changes {
		switch c.Kind {
		case ChangeAdd:
			doc.AddExact(c.Path, c.NewLimit)
		case ChangeUpdate:
			doc.SetExactMax(c.Path, c.NewLimit)
		case ChangeRemove:
			removals = append(removals, c.Path)
		}
	}
	if len(removals) > 0 {
		doc.RemoveExact(removals...)
	}
}

func sortPlan(p *Plan) {
	sort.Slice(p.Changes, func(i, j int) bool {
		if p.Changes[i].Kind != p.Changes[j].Kind {
			return p.Changes[i].Kind < p.Changes[j].Kind
		}
		return p.Changes[i].Path < p.Changes[j].Path
	})
}
