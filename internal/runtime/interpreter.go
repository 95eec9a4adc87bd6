package runtime

import (
	"io"

	"github.com/ethereum/go-ethereum/log"

	"moba-lang/internal/ast"
	"moba-lang/internal/span"
)

// ============================================================
// Control flow signals
// ============================================================

// ExecSignal represents a control flow signal from statement execution.
type ExecSignal int

const (
	SigNone     ExecSignal = iota
	SigReturn              // return from function or behavior
	SigBreak               // break from loop
	SigContinue            // continue in loop
)

// ExecResult carries a control flow signal and an optional value (for return).
type ExecResult struct {
	Signal ExecSignal
	Value  Value
}

var resultNone = ExecResult{Signal: SigNone}

// ============================================================
// Interpreter
// ============================================================

// Default guards.
const (
	DefaultMaxLoopIterations = 1000000
	DefaultMaxCallDepth      = 256
)

// Interpreter walks the AST and executes it. One interpreter owns one
// global scope and one world; it is not safe for concurrent use.
type Interpreter struct {
	global *Environment
	env    *Environment
	ctx    ExecContext
	world  *World
	output io.Writer

	exporter      Exporter
	log           log.Logger
	effects       map[string]*Effect    // native effects usable with apply
	statusEffects map[string]*RecordVal // declared status effects by name
	declared      map[string]bool       // status effect names, known before their declarations run
	imports       []string

	maxLoop  int
	maxDepth int
	depth    int
}

// Option configures an Interpreter.
type Option func(*Interpreter)

// WithMaxLoopIterations bounds the iterations of a single loop statement.
// Zero disables the guard.
func WithMaxLoopIterations(n int) Option {
	return func(i *Interpreter) { i.maxLoop = n }
}

// WithMaxCallDepth bounds nested function and behavior calls. Zero
// disables the guard.
func WithMaxCallDepth(n int) Option {
	return func(i *Interpreter) { i.maxDepth = n }
}

// WithExporter sets the sink used by the export native.
func WithExporter(e Exporter) Option {
	return func(i *Interpreter) { i.exporter = e }
}

// WithLogger replaces the interpreter's logger.
func WithLogger(l log.Logger) Option {
	return func(i *Interpreter) { i.log = l }
}

// NewInterpreter creates a new interpreter with native functions and
// effects registered. Program output is written to output.
func NewInterpreter(output io.Writer, opts ...Option) *Interpreter {
	global := NewEnvironment(nil)
	i := &Interpreter{
		global:        global,
		env:           global,
		world:         NewWorld(),
		output:        output,
		exporter:      &DirExporter{Dir: "."},
		log:           log.New("module", "eval"),
		statusEffects: make(map[string]*RecordVal),
		declared:      make(map[string]bool),
		maxLoop:       DefaultMaxLoopIterations,
		maxDepth:      DefaultMaxCallDepth,
	}
	for _, opt := range opts {
		opt(i)
	}
	i.effects = nativeEffects()
	RegisterBuiltins(i)
	return i
}

// Globals returns the global scope (useful for the REPL and tests).
func (i *Interpreter) Globals() *Environment {
	return i.global
}

// World returns the live game world.
func (i *Interpreter) World() *World {
	return i.world
}

// Imports returns the module names recorded by import declarations.
func (i *Interpreter) Imports() []string {
	return append([]string(nil), i.imports...)
}

// Evaluate evaluates a standalone expression in the global scope.
func (i *Interpreter) Evaluate(expr ast.Expr) (Value, error) {
	i.env = i.global
	i.ctx = ExecContext{}
	i.depth = 0
	return i.evalExpr(expr)
}

// EvaluateProgram executes a whole program. Declarations run in phases:
// imports, variables, heroes, arena, status effects, items, creeps,
// functions, then top-level statements. Within a phase source order is
// kept. The first runtime error aborts the run.
func (i *Interpreter) EvaluateProgram(prog *ast.Program) error {
	i.env = i.global
	i.ctx = ExecContext{}
	i.depth = 0

	for _, imp := range prog.Imports {
		i.imports = append(i.imports, imp.Name)
		i.log.Debug("Recorded import", "module", imp.Name)
	}
	for _, d := range prog.Decls {
		if se, ok := d.(*ast.StatusEffectDecl); ok {
			i.declared[se.Name] = true
		}
	}

	phases := []func(ast.Decl) error{
		i.declareVar,
		i.declareHero,
		i.declareArena,
		i.declareStatusEffect,
		i.declareItem,
		i.declareCreep,
		i.declareFunction,
		i.execTopLevel,
	}
	for _, phase := range phases {
		for _, d := range prog.Decls {
			if err := phase(d); err != nil {
				return err
			}
		}
	}
	return nil
}

// evalIn evaluates expr with env as the current scope.
func (i *Interpreter) evalIn(env *Environment, expr ast.Expr) (Value, error) {
	prev := i.env
	i.env = env
	defer func() { i.env = prev }()
	return i.evalExpr(expr)
}

// enter bumps the call depth; the returned func restores it.
func (i *Interpreter) enter(s span.Span, name string) (func(), error) {
	if i.maxDepth > 0 && i.depth >= i.maxDepth {
		i.log.Warn("Call depth limit reached", "limit", i.maxDepth, "callee", name)
		return nil, runtimeErr(CallDepth, s, name, "Maximum call depth %d exceeded.", i.maxDepth)
	}
	i.depth++
	return func() { i.depth-- }, nil
}
