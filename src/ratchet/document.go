// Package ratchet rewrites loq.toml to track the current state of the
// tree: locking in existing oversized files, tightening limits as files
// shrink, and granting headroom when a limit has to give. Glob rules are
// user policy and are never touched; only exact-path rules are managed.
package ratchet

import (
	"fmt"
	"os"
	"sort"

	"github.com/pelletier/go-toml/v2"

	"github.com/sofmeright/loq/src/config"
)

// Document is the editable form of a loq.toml. Optional fields are
// pointers so settings the user never wrote stay absent on re-encode.
type Document struct {
	DefaultMaxLines  *int     `toml:"default_max_lines,omitempty"`
	RespectGitignore *bool    `toml:"respect_gitignore,omitempty"`
	Exclude          []string `toml:"exclude,omitempty"`
	Exempt           []string `toml:"exempt,omitempty"`
	FixGuidance      *string  `toml:"fix_guidance,omitempty"`
	Rules            []Rule   `toml:"rules,omitempty"`
}

// Rule mirrors a [[rules]] entry. Path holds a string or a list of
// strings, preserved as written.
type Rule struct {
	Path     any     `toml:"path"`
	MaxLines int     `toml:"max_lines"`
	Severity *string `toml:"severity,omitempty"`
}

// LoadDocument reads and decodes a loq.toml for editing. The file is also
// run through the regular config parser first, so a document that would
// not load for checking is rejected before any rewrite.
func LoadDocument(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if _, err := config.Parse(path, data); err != nil {
		return nil, err
	}
	var doc Document
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return &doc, nil
}

// Encode renders the document back to TOML.
func (d *Document) Encode() ([]byte, error) {
	return toml.Marshal(d)
}

// exactPath returns the unescaped path when the rule targets exactly one
// literal file, which marks it as a managed rule.
func exactPath(r Rule) (string, bool) {
	s, ok := r.Path.(string)
	if !ok || !config.IsExactPath(s) {
		return "", false
	}
	return config.UnescapePath(s), true
}

// ExactRules returns the managed rules keyed by unescaped path.
func (d *Document) ExactRules() map[string]*Rule {
	out := map[string]*Rule{}
	for i := range d.Rules {
		if path, ok := exactPath(d.Rules[i]); ok {
			out[path] = &d.Rules[i]
		}
	}
	return out
}

// ExactPaths returns the managed paths in sorted order.
func (d *Document) ExactPaths() []string {
	var paths []string
	for i := range d.Rules {
		if path, ok := exactPath(d.Rules[i]); ok {
			paths = append(paths, path)
		}
	}
	sort.Strings(paths)
	return paths
}

// AddExact appends a managed rule at the tail, after all user rules, so
// last-match-wins keeps it authoritative for its file.
func (d *Document) AddExact(path string, maxLines int) {
	d.Rules = append(d.Rules, Rule{
		Path:     config.EscapePath(path),
		MaxLines: maxLines,
	})
}

// SetExactMax updates the limit of the managed rule for path.
func (d *Document) SetExactMax(path string, maxLines int) {
	for i := range d.Rules {
		if p, ok := exactPath(d.Rules[i]); ok && p == path {
			d.Rules[i].MaxLines = maxLines
		}
	}
}

// RemoveExact deletes the managed rules for the given paths.
func (d *Document) RemoveExact(paths ...string) {
	drop := map[string]bool{}
	for _, p := range paths {
		drop[p] = true
	}
	kept := d.Rules[:0]
	for _, rule := range d.Rules {
		if p, ok := exactPath(rule); ok && drop[p] {
			continue
		}
		kept = append(kept, rule)
	}
	d.Rules = kept
}

// toConfig converts the document into a checkable config. Managed rules
// are stripped when includeExact is false, which is how the ratchet sees
// the tree "as if the lock file entries did not exist".
func (d *Document) toConfig(includeExact bool) *config.Config {
	cfg := config.Default()
	if d.DefaultMaxLines != nil {
		cfg.DefaultMaxLines = *d.DefaultMaxLines
	}
	if d.RespectGitignore != nil {
		cfg.RespectGitignore = *d.RespectGitignore
	}
	if d.FixGuidance != nil {
		cfg.FixGuidance = *d.FixGuidance
	}
	cfg.Exclude = append([]string(nil), d.Exclude...)
	cfg.Exempt = append([]string(nil), d.Exempt...)

	for _, rule := range d.Rules {
		if !includeExact {
			if _, ok := exactPath(rule); ok {
				continue
			}
		}
		severity := config.SeverityError
		if rule.Severity != nil && *rule.Severity == "warning" {
			severity = config.SeverityWarning
		}
		cfg.Rules = append(cfg.Rules, config.Rule{
			Paths:    rulePathList(rule.Path),
			MaxLines: rule.MaxLines,
			Severity: severity,
		})
	}
	return cfg
}

func rulePathList(v any) []string {
	switch p := v.(type) {
	case string:
		return []string{p}
	case []string:
		return append([]string(nil), p...)
	case []any:
		var out []string
		for _, item := range p {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
