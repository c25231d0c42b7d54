package config

import "fmt"

// ParseError is a fatal configuration syntax or schema error. Line and
// Column are 1-based when known, zero otherwise.
type ParseError struct {
	Path    string
	Line    int
	Column  int
	Message string
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d:%d - %s", e.Path, e.Line, e.Column, e.Message)
	}
	return fmt.Sprintf("%s - %s", e.Path, e.Message)
}

// PatternError is a fatal glob compilation error raised at config-load time.
type PatternError struct {
	Path    string
	Pattern string
	Message string
}

func (e *PatternError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s - invalid glob %q: %s", e.Path, e.Pattern, e.Message)
	}
	return fmt.Sprintf("invalid glob %q: %s", e.Pattern, e.Message)
}
