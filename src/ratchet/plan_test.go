package ratchet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func managedDoc(limits map[string]int) *Document {
	doc := &Document{}
	for _, path := range sortedKeys(limits) {
		doc.AddExact(path, limits[path])
	}
	return doc
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	for i := range keys {
		for j := i + 1; j < len(keys); j++ {
			if keys[j] < keys[i] {
				keys[i], keys[j] = keys[j], keys[i]
			}
		}
	}
	return keys
}

func changeFor(t *testing.T, plan Plan, path string) Change {
	t.Helper()
	for _, c := range plan.Changes {
		if c.Path == path {
			return c
		}
	}
	t.Fatalf("no change for %q in %+v", path, plan.Changes)
	return Change{}
}

func TestBaselineAddsNewViolations(t *testing.T) {
	doc := &Document{}
	snap := &Snapshot{
		Violations: map[string]int{"big.go": 700},
		Counts:     map[string]int{"big.go": 700, "ok.go": 100},
	}

	plan := Baseline(doc, snap, false)
	require.Len(t, plan.Changes, 1)

	c := changeFor(t, plan, "big.go")
	assert.Equal(t, ChangeAdd, c.Kind)
	assert.Equal(t, 700, c.NewLimit)

	Apply(doc, plan)
	assert.Equal(t, 700, doc.ExactRules()["big.go"].MaxLines)
}

func TestBaselineUpdatesShrunkFiles(t *testing.T) {
	doc := managedDoc(map[string]int{"big.go": 700})
	snap := &Snapshot{
		Violations: map[string]int{"big.go": 640},
		Counts:     map[string]int{"big.go": 640},
	}

	plan := Baseline(doc, snap, false)
	c := changeFor(t, plan, "big.go")
	assert.Equal(t, ChangeUpdate, c.Kind)
	assert.Equal(t, 700, c.OldLimit)
	assert.Equal(t, 640, c.NewLimit)
}

func TestBaselineRemovesCompliantFiles(t *testing.T) {
	doc := managedDoc(map[string]int{"big.go": 700, "gone.go": 600})
	snap := &Snapshot{
		Violations: map[string]int{},
		Counts:     map[string]int{"big.go": 400},
	}

	plan := Baseline(doc, snap, false)
	assert.Equal(t, ChangeRemove, changeFor(t, plan, "big.go").Kind)
	assert.Equal(t, ChangeRemove, changeFor(t, plan, "gone.go").Kind)

	Apply(doc, plan)
	assert.Empty(t, doc.ExactRules())
}

func TestBaselineLeavesGrowthByDefault(t *testing.T) {
	doc := managedDoc(map[string]int{"big.go": 700})
	snap := &Snapshot{
		Violations: map[string]int{"big.go": 850},
		Counts:     map[string]int{"big.go": 850},
	}

	plan := Baseline(doc, snap, false)
	assert.True(t, plan.Empty(), "growth must stay visible as a violation")

	grown := Baseline(doc, snap, true)
	c := changeFor(t, grown, "big.go")
	assert.Equal(t, ChangeUpdate, c.Kind)
	assert.Equal(t, 850, c.NewLimit)
}

func TestBaselineIsIdempotent(t *testing.T) {
	doc := &Document{}
	snap := &Snapshot{
		Violations: map[string]int{"a.go": 700, "b.go": 600},
		Counts:     map[string]int{"a.go": 700, "b.go": 600},
	}

	Apply(doc, Baseline(doc, snap, false))
	again := Baseline(doc, snap, false)
	assert.True(t, again.Empty(), "re-running baseline on an unchanged tree must plan nothing")
}

func TestTightenLowersAndRemovesOnly(t *testing.T) {
	doc := managedDoc(map[string]int{
		"shrunk.go": 700,
		"grown.go":  500,
		"fixed.go":  450,
	})
	snap := &Snapshot{
		Violations: map[string]int{
			"shrunk.go": 620,
			"grown.go":  900,
			"new.go":    800,
		},
		Counts: map[string]int{
			"shrunk.go": 620,
			"grown.go":  900,
			"new.go":    800,
			"fixed.go":  100,
		},
	}

	plan := Tighten(doc, snap)

	assert.Equal(t, 620, changeFor(t, plan, "shrunk.go").NewLimit)
	assert.Equal(t, ChangeRemove, changeFor(t, plan, "fixed.go").Kind)
	// Never raises and never adds.
	assert.Len(t, plan.Changes, 2)

	Apply(doc, plan)
	assert.Equal(t, 500, doc.ExactRules()["grown.go"].MaxLines)
	assert.NotContains(t, doc.ExactRules(), "new.go")
}

func TestRelaxGrantsBufferedHeadroom(t *testing.T) {
	doc := &Document{}
	plan := Relax(doc, map[string]int{"huge.go": 620}, 50)

	c := changeFor(t, plan, "huge.go")
	assert.Equal(t, ChangeAdd, c.Kind)
	assert.Equal(t, 670, c.NewLimit)
}

func TestRelaxNeverLowers(t *testing.T) {
	doc := managedDoc(map[string]int{"big.go": 900})

	plan := Relax(doc, map[string]int{"big.go": 500}, 10)
	assert.True(t, plan.Empty(), "relax must not lower an existing limit")

	raised := Relax(doc, map[string]int{"big.go": 950}, 0)
	c := changeFor(t, raised, "big.go")
	assert.Equal(t, ChangeUpdate, c.Kind)
	assert.Equal(t, 950, c.NewLimit)
}

func TestPlanSortedByKindThenPath(t *testing.T) {
	doc := managedDoc(map[string]int{"z.go": 100, "a.go": 100})
	snap := &Snapshot{
		Violations: map[string]int{"new.go": 300},
		Counts:     map[string]int{},
	}

	plan := Baseline(doc, snap, false)
	require.Len(t, plan.Changes, 3)
	assert.Equal(t, ChangeAdd, plan.Changes[0].Kind)
	assert.Equal(t, "a.go", plan.Changes[1].Path)
	assert.Equal(t, "z.go", plan.Changes[2].Path)
}
