package output

import (
	"fmt"

	"github.com/sofmeright/loq/src/ratchet"
)

// PrintPlan writes one line per planned edit and a closing summary.
// Lines use +/~/- markers for added, updated, and removed limits.
func (p *Printer) PrintPlan(plan ratchet.Plan, verb string) {
	for _, c := range plan.Changes {
		switch c.Kind {
		case ratchet.ChangeAdd:
			fmt.Fprintf(p.Writer, "%s %s: limit %d (%d lines)\n",
				p.paint(yellowBold, "+"), c.Path, c.NewLimit, c.Lines)
		case ratchet.ChangeUpdate:
			fmt.Fprintf(p.Writer, "%s %s: limit %d -> %d (%d lines)\n",
				p.paint(green, "~"), c.Path, c.OldLimit, c.NewLimit, c.Lines)
		case ratchet.ChangeRemove:
			fmt.Fprintf(p.Writer, "%s %s: limit %d removed (now compliant)\n",
				p.paint(green, "-"), c.Path, c.OldLimit)
		}
	}

	if plan.Empty() {
		fmt.Fprintf(p.Writer, "%s\n", p.paint(green, "✔ Nothing to %s, config already up to date", verb))
		return
	}

	added := plan.Count(ratchet.ChangeAdd)
	updated := plan.Count(ratchet.ChangeUpdate)
	removed := plan.Count(ratchet.ChangeRemove)
	fmt.Fprintf(p.Writer, "%s\n", p.paint(green,
		"✔ %s: %d added, %d updated, %d removed", verb, added, updated, removed))
}
