package config

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/pelletier/go-toml/v2"
)

// FileName is the fixed name of the configuration file discovered by
// upward ancestor search.
const FileName = "loq.toml"

// DefaultMaxLines applies to files not matched by any rule when the config
// does not override it.
const DefaultMaxLines = 500

// Severity controls whether an over-limit file fails the run.
type Severity int

const (
	// SeverityError causes a non-zero exit code.
	SeverityError Severity = iota
	// SeverityWarning is reported but does not fail the check.
	SeverityWarning
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("severity(%d)", int(s))
	}
}

// MarshalText implements encoding.TextMarshaler for TOML serialization.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler for TOML parsing.
func (s *Severity) UnmarshalText(text []byte) error {
	switch string(text) {
	case "error":
		*s = SeverityError
	case "warning":
		*s = SeverityWarning
	default:
		return fmt.Errorf("severity must be \"error\" or \"warning\", got %q", text)
	}
	return nil
}

// Rule is a path-specific line limit. A rule may carry several alternative
// patterns; matching any one of them applies the rule.
type Rule struct {
	Paths    []string
	MaxLines int
	Severity Severity
}

// Config is a parsed loq.toml before glob compilation.
type Config struct {
	// DefaultMaxLines is the limit for files not matching any rule.
	// Zero means no default limit: unmatched files are skipped.
	DefaultMaxLines  int
	RespectGitignore bool
	Exclude          []string
	Exempt           []string
	FixGuidance      string
	Rules            []Rule
}

// Default returns the built-in defaults used when no config file is found.
func Default() *Config {
	return &Config{
		DefaultMaxLines:  DefaultMaxLines,
		RespectGitignore: true,
	}
}

// configFile mirrors the on-disk TOML shape. Pointers distinguish absent
// keys from explicit zero values; rule paths may be a string or a list.
type configFile struct {
	DefaultMaxLines  *int       `toml:"default_max_lines"`
	RespectGitignore *bool      `toml:"respect_gitignore"`
	Exclude          []string   `toml:"exclude"`
	Exempt           []string   `toml:"exempt"`
	FixGuidance      string     `toml:"fix_guidance"`
	Rules            []ruleFile `toml:"rules"`
}

type ruleFile struct {
	Path     any      `toml:"path"`
	MaxLines int      `toml:"max_lines"`
	Severity Severity `toml:"severity"`
}

// Parse decodes loq.toml content. Unknown keys and syntax errors are fatal
// and carry the file position; there is no fallback to defaults.
func Parse(path string, data []byte) (*Config, error) {
	var file configFile
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&file); err != nil {
		return nil, parseError(path, err)
	}

	cfg := Default()
	if file.DefaultMaxLines != nil {
		if *file.DefaultMaxLines < 0 {
			return nil, &ParseError{Path: path, Message: "default_max_lines must not be negative"}
		}
		cfg.DefaultMaxLines = *file.DefaultMaxLines
	}
	if file.RespectGitignore != nil {
		cfg.RespectGitignore = *file.RespectGitignore
	}
	cfg.Exclude = file.Exclude
	cfg.Exempt = file.Exempt
	cfg.FixGuidance = file.FixGuidance

	for i, r := range file.Rules {
		paths, err := rulePaths(r.Path)
		if err != nil {
			return nil, &ParseError{Path: path, Message: fmt.Sprintf("rules[%d]: %v", i, err)}
		}
		if r.MaxLines <= 0 {
			return nil, &ParseError{Path: path, Message: fmt.Sprintf("rules[%d]: max_lines must be a positive integer", i)}
		}
		cfg.Rules = append(cfg.Rules, Rule{
			Paths:    paths,
			MaxLines: r.MaxLines,
			Severity: r.Severity,
		})
	}

	return cfg, nil
}

// rulePaths normalizes the string-or-list "path" value of a rule.
func rulePaths(v any) ([]string, error) {
	switch value := v.(type) {
	case string:
		if value == "" {
			return nil, errors.New("path must not be empty")
		}
		return []string{value}, nil
	case []any:
		if len(value) == 0 {
			return nil, errors.New("path list must not be empty")
		}
		paths := make([]string, 0, len(value))
		for _, item := range value {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("path list must contain only strings, got %T", item)
			}
			paths = append(paths, s)
		}
		return paths, nil
	case nil:
		return nil, errors.New("missing required key 'path'")
	default:
		return nil, fmt.Errorf("path must be a string or a list of strings, got %T", v)
	}
}

func parseError(path string, err error) error {
	var strict *toml.StrictMissingError
	if errors.As(err, &strict) && len(strict.Errors) > 0 {
		derr := strict.Errors[0]
		row, col := derr.Position()
		return &ParseError{
			Path:    path,
			Line:    row,
			Column:  col,
			Message: fmt.Sprintf("unknown key %q", keyString(derr.Key())),
		}
	}
	var derr *toml.DecodeError
	if errors.As(err, &derr) {
		row, col := derr.Position()
		return &ParseError{Path: path, Line: row, Column: col, Message: derr.Error()}
	}
	return &ParseError{Path: path, Message: err.Error()}
}

func keyString(key []string) string {
	if len(key) == 0 {
		return ""
	}
	out := key[0]
	for _, part := range key[1:] {
		out += "." + part
	}
	return out
}

// Origin records where a configuration came from.
type Origin struct {
	// File is the path of the loq.toml, empty for built-in defaults.
	File string
}

// IsBuiltIn reports whether the config is the built-in default set.
func (o Origin) IsBuiltIn() bool { return o.File == "" }

func (o Origin) String() string {
	if o.IsBuiltIn() {
		return "<built-in defaults>"
	}
	return o.File
}

// CompiledRule is a Rule with its patterns compiled.
type CompiledRule struct {
	Patterns []Pattern
	MaxLines int
	Severity Severity
}

// Matches reports whether any of the rule's alternative patterns match.
func (r *CompiledRule) Matches(path string) bool {
	for _, p := range r.Patterns {
		if p.Match(path) {
			return true
		}
	}
	return false
}

// PatternSources returns the rule's pattern texts in order.
func (r *CompiledRule) PatternSources() []string {
	sources := make([]string, len(r.Patterns))
	for i, p := range r.Patterns {
		sources[i] = p.Source()
	}
	return sources
}

// Compiled is a configuration with all glob patterns compiled, scoped to the
// directory containing its source file. Relative path matching uses RootDir
// as the base.
type Compiled struct {
	Origin           Origin
	RootDir          string
	DefaultMaxLines  int
	RespectGitignore bool
	FixGuidance      string
	Exclude          PatternList
	Exempt           PatternList
	Rules            []CompiledRule
}

// Compile turns a parsed Config into matchers rooted at rootDir.
func Compile(origin Origin, rootDir string, cfg *Config) (*Compiled, error) {
	exclude, err := CompilePatterns(cfg.Exclude)
	if err != nil {
		return nil, locate(err, origin)
	}
	exempt, err := CompilePatterns(cfg.Exempt)
	if err != nil {
		return nil, locate(err, origin)
	}

	rules := make([]CompiledRule, 0, len(cfg.Rules))
	for _, rule := range cfg.Rules {
		patterns := make([]Pattern, 0, len(rule.Paths))
		for _, source := range rule.Paths {
			p, perr := CompilePattern(source)
			if perr != nil {
				return nil, locate(perr, origin)
			}
			patterns = append(patterns, p)
		}
		rules = append(rules, CompiledRule{
			Patterns: patterns,
			MaxLines: rule.MaxLines,
			Severity: rule.Severity,
		})
	}

	return &Compiled{
		Origin:           origin,
		RootDir:          rootDir,
		DefaultMaxLines:  cfg.DefaultMaxLines,
		RespectGitignore: cfg.RespectGitignore,
		FixGuidance:      cfg.FixGuidance,
		Exclude:          exclude,
		Exempt:           exempt,
		Rules:            rules,
	}, nil
}

// locate stamps a pattern error with the config file it came from.
func locate(err error, origin Origin) error {
	var perr *PatternError
	if errors.As(err, &perr) && perr.Path == "" {
		perr.Path = origin.String()
	}
	return err
}
