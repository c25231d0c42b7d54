package config

import (
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// globMeta is the set of characters that carry glob meaning in patterns.
// Backslash is included because it is the escape character itself.
const globMeta = `*?[]{}\`

// Pattern is a compiled glob expression. The original source text is kept
// so that serializing a compiled pattern reproduces its input byte for byte.
type Pattern struct {
	source string
}

// CompilePattern validates a glob pattern and returns it in compiled form.
// Malformed patterns fail here, at config-load time; they are never treated
// as "matches nothing".
func CompilePattern(source string) (Pattern, error) {
	if !doublestar.ValidatePattern(source) {
		return Pattern{}, &PatternError{Pattern: source, Message: "syntax error in glob"}
	}
	return Pattern{source: source}, nil
}

// Source returns the original pattern text.
func (p Pattern) Source() string { return p.source }

// Match reports whether the pattern matches a forward-slash relative path.
// Matching is case-sensitive on every platform. "**" spans zero or more
// path segments; "*" stays within one segment.
func (p Pattern) Match(path string) bool {
	ok, err := doublestar.Match(p.source, path)
	return err == nil && ok
}

// PatternList is an ordered list of compiled patterns.
type PatternList struct {
	patterns []Pattern
}

// CompilePatterns compiles a list of pattern strings in order.
func CompilePatterns(sources []string) (PatternList, error) {
	patterns := make([]Pattern, 0, len(sources))
	for _, source := range sources {
		p, err := CompilePattern(source)
		if err != nil {
			return PatternList{}, err
		}
		patterns = append(patterns, p)
	}
	return PatternList{patterns: patterns}, nil
}

// Patterns returns the compiled patterns in order.
func (l PatternList) Patterns() []Pattern { return l.patterns }

// Matches returns the first pattern in the list matching path, if any.
func (l PatternList) Matches(path string) (string, bool) {
	for _, p := range l.patterns {
		if p.Match(path) {
			return p.source, true
		}
	}
	return "", false
}

// MatchesDir reports whether a directory can be pruned outright because a
// pattern covers the directory itself or everything beneath it. This keeps
// large excluded trees (vendor, node_modules) from ever being read.
func (l PatternList) MatchesDir(dir string) bool {
	for _, p := range l.patterns {
		if p.Match(dir) {
			return true
		}
		if rest, ok := strings.CutSuffix(p.source, "/**"); ok {
			if sub, err := doublestar.Match(rest, dir); err == nil && sub {
				return true
			}
		}
	}
	return false
}

// EscapePath escapes glob metacharacters in a literal file path so the
// resulting pattern matches exactly that path. Baseline-generated rules for
// files like "routes/[id]/page.svelte" go through this.
func EscapePath(path string) string {
	var b strings.Builder
	b.Grow(len(path))
	for _, r := range path {
		if strings.ContainsRune(globMeta, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// UnescapePath reverses EscapePath, recovering the filesystem path from an
// escaped exact-path pattern.
func UnescapePath(pattern string) string {
	var b strings.Builder
	b.Grow(len(pattern))
	escaped := false
	for _, r := range pattern {
		if escaped {
			b.WriteRune(r)
			escaped = false
			continue
		}
		if r == '\\' {
			escaped = true
			continue
		}
		b.WriteRune(r)
	}
	if escaped {
		b.WriteByte('\\')
	}
	return b.String()
}

// IsExactPath reports whether a pattern names one literal file rather than a
// glob family. Escaped metacharacters count as literals, so a fully escaped
// path like `routes/\[id\]/page.svelte` is exact while `routes/*/page.svelte`
// is not.
func IsExactPath(pattern string) bool {
	escaped := false
	for _, r := range pattern {
		if escaped {
			escaped = false
			continue
		}
		switch r {
		case '\\':
			escaped = true
		case '*', '?', '[', '{':
			return false
		}
	}
	return true
}
