package runtime

import (
	"fmt"

	"moba-lang/internal/diag"
	"moba-lang/internal/span"
)

// ErrorKind classifies runtime failures.
type ErrorKind int

const (
	UndefinedVariable ErrorKind = iota
	TypeMismatch
	DivisionByZero
	InvalidAssignmentTarget
	UnsupportedOperator
	NotCallable
	Arity
	ConstAssignment
	NotIterable
	NoContext
	UnknownEntity
	UnknownEffect
	LoopLimit
	CallDepth
	Native
)

var kindNames = map[ErrorKind]string{
	UndefinedVariable:       "undefined variable",
	TypeMismatch:            "type mismatch",
	DivisionByZero:          "division by zero",
	InvalidAssignmentTarget: "invalid assignment target",
	UnsupportedOperator:     "unsupported operator",
	NotCallable:             "not callable",
	Arity:                   "arity mismatch",
	ConstAssignment:         "constant assignment",
	NotIterable:             "not iterable",
	NoContext:               "no context",
	UnknownEntity:           "unknown entity",
	UnknownEffect:           "unknown effect",
	LoopLimit:               "loop limit exceeded",
	CallDepth:               "call depth exceeded",
	Native:                  "native failure",
}

func (k ErrorKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// Code returns the stable diagnostic code of the kind (E3001, E3002, ...).
func (k ErrorKind) Code() string {
	return fmt.Sprintf("E3%03d", int(k)+1)
}

// kindError is the sentinel type matched by RuntimeError.Is.
type kindError ErrorKind

func (k kindError) Error() string { return ErrorKind(k).String() }

// Sentinels for errors.Is.
var (
	ErrUndefinedVariable       error = kindError(UndefinedVariable)
	ErrTypeMismatch            error = kindError(TypeMismatch)
	ErrDivisionByZero          error = kindError(DivisionByZero)
	ErrInvalidAssignmentTarget error = kindError(InvalidAssignmentTarget)
	ErrUnsupportedOperator     error = kindError(UnsupportedOperator)
	ErrNotCallable             error = kindError(NotCallable)
	ErrArity                   error = kindError(Arity)
	ErrConstAssignment         error = kindError(ConstAssignment)
	ErrNotIterable             error = kindError(NotIterable)
	ErrNoContext               error = kindError(NoContext)
	ErrUnknownEntity           error = kindError(UnknownEntity)
	ErrUnknownEffect           error = kindError(UnknownEffect)
	ErrLoopLimit               error = kindError(LoopLimit)
	ErrCallDepth               error = kindError(CallDepth)
	ErrNative                  error = kindError(Native)
)

// RuntimeError represents an error during interpretation. It aborts the
// current evaluation pass.
type RuntimeError struct {
	Kind    ErrorKind
	Message string
	Span    span.Span
	Lexeme  string // offending source text, when known
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("[line %d] Error: %s", e.Span.Start.Line, e.Message)
}

// Is matches the sentinel of the error's kind.
func (e *RuntimeError) Is(target error) bool {
	k, ok := target.(kindError)
	return ok && ErrorKind(k) == e.Kind
}

// Diagnostic converts the error for uniform reporting next to lexer and
// parser diagnostics.
func (e *RuntimeError) Diagnostic() diag.Diagnostic {
	return diag.Errorf(e.Kind.Code(), e.Span, "%s", e.Message).WithLexeme(e.Lexeme, false)
}

func runtimeErr(kind ErrorKind, s span.Span, lexeme string, format string, args ...interface{}) *RuntimeError {
	return &RuntimeError{Kind: kind, Message: fmt.Sprintf(format, args...), Span: s, Lexeme: lexeme}
}
