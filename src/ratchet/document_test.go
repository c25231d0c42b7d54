package ratchet

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sofmeright/loq/src/config"
)

func writeDoc(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), config.FileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDocumentPreservesShape(t *testing.T) {
	path := writeDoc(t, `
default_max_lines = 400
exclude = ["vendor/**"]

[[rules]]
path = "**/*_test.go"
max_lines = 1000

[[rules]]
path = "src/legacy/big.go"
max_lines = 912
`)
	doc, err := LoadDocument(path)
	require.NoError(t, err)

	require.NotNil(t, doc.DefaultMaxLines)
	assert.Equal(t, 400, *doc.DefaultMaxLines)
	assert.Nil(t, doc.RespectGitignore)
	require.Len(t, doc.Rules, 2)
	assert.Equal(t, "**/*_test.go", doc.Rules[0].Path)
}

func TestLoadDocumentRejectsInvalidConfig(t *testing.T) {
	path := writeDoc(t, "mystery_key = 1\n")
	_, err := LoadDocument(path)
	require.Error(t, err)
}

func TestExactRulesOnlyCoverLiteralSinglePaths(t *testing.T) {
	path := writeDoc(t, `
[[rules]]
path = "**/*_test.go"
max_lines = 1000

[[rules]]
path = ["a.go", "b.go"]
max_lines = 500

[[rules]]
path = "src/big.go"
max_lines = 700

[[rules]]
path = 'routes/\[id\]/page.svelte'
max_lines = 300
`)
	doc, err := LoadDocument(path)
	require.NoError(t, err)

	exact := doc.ExactRules()
	assert.Len(t, exact, 2)
	assert.Contains(t, exact, "src/big.go")
	assert.Contains(t, exact, "routes/[id]/page.svelte")
	assert.Equal(t, []string{"routes/[id]/page.svelte", "src/big.go"}, doc.ExactPaths())
}

func TestAddExactEscapesAndAppendsAtTail(t *testing.T) {
	doc := &Document{Rules: []Rule{{Path: "**/*.go", MaxLines: 800}}}
	doc.AddExact("routes/[id]/page.svelte", 620)

	require.Len(t, doc.Rules, 2)
	last := doc.Rules[1]
	assert.Equal(t, `routes/\[id\]/page.svelte`, last.Path)
	assert.Equal(t, 620, last.MaxLines)

	// The escaped pattern must compile back to a matcher for exactly the
	// original path.
	p, err := config.CompilePattern(last.Path.(string))
	require.NoError(t, err)
	assert.True(t, p.Match("routes/[id]/page.svelte"))
	assert.False(t, p.Match("routes/x/page.svelte"))
}

func TestSetAndRemoveExact(t *testing.T) {
	doc := &Document{}
	doc.AddExact("a.go", 100)
	doc.AddExact("b.go", 200)

	doc.SetExactMax("a.go", 90)
	assert.Equal(t, 90, doc.ExactRules()["a.go"].MaxLines)

	doc.RemoveExact("b.go")
	assert.NotContains(t, doc.ExactRules(), "b.go")
	assert.Contains(t, doc.ExactRules(), "a.go")
}

func TestRemoveExactKeepsGlobRules(t *testing.T) {
	doc := &Document{Rules: []Rule{{Path: "**/*.go", MaxLines: 800}}}
	doc.AddExact("a.go", 100)
	doc.RemoveExact("a.go")

	require.Len(t, doc.Rules, 1)
	assert.Equal(t, "**/*.go", doc.Rules[0].Path)
}

func TestEncodeRoundTrip(t *testing.T) {
	path := writeDoc(t, `
default_max_lines = 250

[[rules]]
path = "docs/**"
max_lines = 2000
severity = "warning"
`)
	doc, err := LoadDocument(path)
	require.NoError(t, err)
	doc.AddExact("big.go", 999)

	data, err := doc.Encode()
	require.NoError(t, err)

	// The re-encoded document must parse as a valid config with the same
	// semantics plus the new rule.
	cfg, err := config.Parse("loq.toml", data)
	require.NoError(t, err)
	assert.Equal(t, 250, cfg.DefaultMaxLines)
	require.Len(t, cfg.Rules, 2)
	assert.Equal(t, config.SeverityWarning, cfg.Rules[0].Severity)
	assert.Equal(t, []string{"big.go"}, cfg.Rules[1].Paths)
	assert.Equal(t, 999, cfg.Rules[1].MaxLines)
}

func TestToConfigStripsManagedRules(t *testing.T) {
	doc := &Document{Rules: []Rule{{Path: "**/*.go", MaxLines: 800}}}
	doc.AddExact("big.go", 900)

	stripped := doc.toConfig(false)
	require.Len(t, stripped.Rules, 1)
	assert.Equal(t, []string{"**/*.go"}, stripped.Rules[0].Paths)

	full := doc.toConfig(true)
	assert.Len(t, full.Rules, 2)
}
