package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/olekukonko/tablewriter"

	"moba-lang/internal/ast"
	"moba-lang/internal/diag"
	"moba-lang/internal/lexer"
	"moba-lang/internal/parser"
	"moba-lang/internal/runtime"
	"moba-lang/internal/token"
)

const sessionHelp = `Commands:
  :tokens   - Show tokenized output
  :parse    - Parse and show AST
  :evaluate - Evaluate an expression
  :run      - Parse and evaluate full program
  :env      - Show globals of the last run
  :clear    - Clear buffer
  :help     - Show this help
  :q/:quit  - Exit
`

// Session buffers source lines and runs the colon commands of the
// interactive loop against them.
type Session struct {
	out    io.Writer
	errOut io.Writer
	opts   []runtime.Option

	buffer []string
	interp *runtime.Interpreter // interpreter of the last :run
}

// NewSession creates a session writing results to out and diagnostics to
// errOut. opts are passed to every interpreter the session creates.
func NewSession(out, errOut io.Writer, opts ...runtime.Option) *Session {
	return &Session{out: out, errOut: errOut, opts: opts}
}

// Pending returns the number of buffered source lines.
func (s *Session) Pending() int {
	return len(s.buffer)
}

// Handle processes one input line. It returns false once the session
// should end.
func (s *Session) Handle(raw string) bool {
	cmd := strings.TrimSpace(raw)
	switch cmd {
	case ":q", ":quit":
		fmt.Fprintln(s.out, "Goodbye!")
		return false
	case ":help":
		fmt.Fprint(s.out, sessionHelp)
	case ":clear":
		s.buffer = nil
		successColor.Fprintln(s.out, "[ok] Buffer cleared.")
	case ":tokens":
		s.tokens()
	case ":parse":
		s.parse()
	case ":evaluate":
		s.evaluate()
	case ":run":
		s.run()
	case ":env":
		s.env()
	default:
		if strings.HasPrefix(cmd, ":") {
			errorColor.Fprintf(s.errOut, "Unknown command '%s'. Type :help for a list.\n", cmd)
			return true
		}
		s.buffer = append(s.buffer, raw)
	}
	return true
}

func (s *Session) empty(name string) bool {
	if len(s.buffer) == 0 {
		fmt.Fprintf(s.out, "[%s] Buffer is empty.\n", name)
		return true
	}
	return false
}

// lex tokenizes the buffer, reporting diagnostics. The flag is false when the
// lexer reported errors.
func (s *Session) lex() ([]token.Token, bool) {
	toks, diags := lexer.New(s.buffer).Tokenize()
	printDiags(s.errOut, diags)
	return toks, !diag.HasErrors(diags)
}

func (s *Session) tokens() {
	if s.empty("tokens") {
		return
	}
	toks, diags := lexer.New(s.buffer).Tokenize()
	printTokensTable(s.out, toks)
	printDiags(s.errOut, diags)
}

func (s *Session) parse() {
	if s.empty("parse") {
		return
	}
	defer s.clear()
	toks, ok := s.lex()
	if !ok {
		return
	}
	prog, diags := parser.New(toks).ParseProgram()
	printDiags(s.errOut, diags)
	if diag.HasErrors(diags) {
		return
	}
	fmt.Fprint(s.out, ast.Tree(prog))
}

func (s *Session) evaluate() {
	if s.empty("evaluate") {
		return
	}
	defer s.clear()
	toks, ok := s.lex()
	if !ok {
		return
	}
	expr, diags := parser.New(toks).ParseExpression()
	printDiags(s.errOut, diags)
	if diag.HasErrors(diags) {
		return
	}

	interp := s.interp
	if interp == nil {
		interp = runtime.NewInterpreter(s.out, s.opts...)
	}
	val, err := interp.Evaluate(expr)
	if err != nil {
		printRuntimeError(s.errOut, err)
		return
	}
	fmt.Fprintf(s.out, "Result: %s\n", val)
}

func (s *Session) run() {
	if s.empty("run") {
		return
	}
	defer s.clear()
	toks, ok := s.lex()
	if !ok {
		return
	}
	prog, diags := parser.New(toks).ParseProgram()
	printDiags(s.errOut, diags)
	if diag.HasErrors(diags) {
		return
	}

	// Every run starts from a fresh world.
	s.interp = runtime.NewInterpreter(s.out, s.opts...)
	if err := s.interp.EvaluateProgram(prog); err != nil {
		printRuntimeError(s.errOut, err)
		return
	}
	successColor.Fprintln(s.out, "Program executed successfully.")
}

func (s *Session) env() {
	if s.interp == nil {
		fmt.Fprintln(s.out, "[env] Nothing has been run yet.")
		return
	}
	globals := s.interp.Globals()
	table := tablewriter.NewWriter(s.out)
	table.SetHeader([]string{"Name", "Type", "Value"})
	table.SetAutoWrapText(false)
	for _, name := range globals.Names() {
		v, _ := globals.Get(name)
		if _, native := v.(*runtime.NativeVal); native {
			continue
		}
		kind := v.TypeName()
		if globals.IsConst(name) {
			kind = "const " + kind
		}
		table.Append([]string{name, kind, v.String()})
	}
	table.Render()
}

func (s *Session) clear() {
	s.buffer = nil
}
