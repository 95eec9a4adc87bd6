// Package diag provides diagnostic (error/warning) types for the interpreter pipeline.
package diag

import (
	"fmt"
	"strings"

	"moba-lang/internal/span"
)

// Severity indicates the severity of a diagnostic.
type Severity int

const (
	Error Severity = iota
	Warning
)

func (s Severity) String() string {
	switch s {
	case Error:
		return "error"
	case Warning:
		return "warning"
	default:
		return "unknown"
	}
}

// Stage identifies which pass produced a diagnostic. It is derived from the
// code prefix: E1/W1 lexical, E2/W2 syntax, E3 runtime.
type Stage int

const (
	Lexical Stage = iota
	Syntax
	Runtime
)

func (s Stage) String() string {
	switch s {
	case Lexical:
		return "lexical"
	case Syntax:
		return "syntax"
	default:
		return "runtime"
	}
}

// Diagnostic represents a single reported problem.
type Diagnostic struct {
	Code     string    `json:"code"`     // stable error code, e.g. "E1001"
	Severity Severity  `json:"severity"` // error or warning
	Message  string    `json:"message"`  // human-readable description
	Span     span.Span `json:"span"`     // source location
	Lexeme   string    `json:"lexeme,omitempty"`
	AtEnd    bool      `json:"atEnd,omitempty"` // offending token was EOF
	Hint     string    `json:"hint,omitempty"`
}

// Stage returns the pass that produced the diagnostic.
func (d Diagnostic) Stage() Stage {
	if len(d.Code) < 2 {
		return Runtime
	}
	switch d.Code[1] {
	case '1':
		return Lexical
	case '2':
		return Syntax
	default:
		return Runtime
	}
}

// String renders the diagnostic in the user-facing format:
//
//	[line N] Error: <message>                 lexical and runtime
//	[line N] Error at '<lexeme>': <message>   syntax
//	[line N] Error at end: <message>          syntax, at EOF
func (d Diagnostic) String() string {
	label := "Error"
	if d.Severity == Warning {
		label = "Warning"
	}
	var where string
	if d.Stage() == Syntax {
		if d.AtEnd {
			where = " at end"
		} else {
			where = fmt.Sprintf(" at '%s'", d.Lexeme)
		}
	}
	msg := fmt.Sprintf("[line %d] %s%s: %s", d.Span.Start.Line, label, where, d.Message)
	if d.Hint != "" {
		msg += " (hint: " + d.Hint + ")"
	}
	return msg
}

// WithLexeme attaches the offending token text.
func (d Diagnostic) WithLexeme(lexeme string, atEnd bool) Diagnostic {
	d.Lexeme = lexeme
	d.AtEnd = atEnd
	return d
}

// WithHint attaches a hint.
func (d Diagnostic) WithHint(hint string) Diagnostic {
	d.Hint = hint
	return d
}

// Errorf creates an error diagnostic at the given span.
func Errorf(code string, s span.Span, format string, args ...interface{}) Diagnostic {
	return Diagnostic{
		Code:     code,
		Severity: Error,
		Message:  fmt.Sprintf(format, args...),
		Span:     s,
	}
}

// Warningf creates a warning diagnostic at the given span.
func Warningf(code string, s span.Span, format string, args ...interface{}) Diagnostic {
	return Diagnostic{
		Code:     code,
		Severity: Warning,
		Message:  fmt.Sprintf(format, args...),
		Span:     s,
	}
}

// HasErrors reports whether any diagnostic has error severity.
func HasErrors(diags []Diagnostic) bool {
	for _, d := range diags {
		if d.Severity == Error {
			return true
		}
	}
	return false
}

// Join renders diagnostics one per line.
func Join(diags []Diagnostic) string {
	lines := make([]string, len(diags))
	for i, d := range diags {
		lines[i] = d.String()
	}
	return strings.Join(lines, "\n")
}
