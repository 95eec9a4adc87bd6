// Package ast defines the abstract syntax tree for the game language.
//
// Every syntactic category is a closed family: the marker methods are
// unexported, so only the node types declared here satisfy Decl, Stmt,
// Expr, HeroMember and ArenaItem. Consumers switch over the concrete types.
package ast

import (
	"moba-lang/internal/span"
	"moba-lang/internal/token"
)

// ============================================================
// Node interfaces
// ============================================================

// Node is the interface implemented by all AST nodes.
type Node interface {
	nodeNode()
	GetSpan() span.Span
}

// Decl is a named top-level construct.
type Decl interface {
	Node
	declNode()
}

// Stmt is an executable unit inside a block.
type Stmt interface {
	Node
	stmtNode()
}

// Expr is a value-producing node.
type Expr interface {
	Node
	exprNode()
}

// HeroMember is one entry of a hero body.
type HeroMember interface {
	Node
	heroMember()
}

// ArenaItem is one entry of an Arena section.
type ArenaItem interface {
	Node
	arenaItem()
}

// ============================================================
// Base types (embedded to provide common fields)
// ============================================================

// NodeBase provides the common Span field for all AST nodes.
type NodeBase struct {
	Span span.Span
}

func (n NodeBase) nodeNode()          {}
func (n NodeBase) GetSpan() span.Span { return n.Span }

// DeclBase is embedded by all declaration nodes.
type DeclBase struct{ NodeBase }

func (DeclBase) declNode() {}

// StmtBase is embedded by all statement nodes.
type StmtBase struct{ NodeBase }

func (StmtBase) stmtNode() {}

// ExprBase is embedded by all expression nodes.
type ExprBase struct{ NodeBase }

func (ExprBase) exprNode() {}

// ============================================================
// Program (AST root)
// ============================================================

// Program is the root of a parsed source file.
type Program struct {
	NodeBase
	Imports []*ImportDecl
	Game    string // name from the GAME wrapper, empty when absent
	Decls   []Decl // declarations in source order
}

// ============================================================
// Declarations
// ============================================================

// ImportDecl records `import Name;`. Imports carry no semantics.
type ImportDecl struct {
	DeclBase
	Name string
}

// VarDecl is a top-level binding: `set x = e;`, `const [T] x = e;`, or the
// rebinding form `x = e;`.
type VarDecl struct {
	DeclBase
	Name     string
	TypeName string // declared type of a const, informational only
	Value    Expr
	Const    bool
	Reassign bool // `x = e;` mutates an existing binding
}

// StmtDecl wraps a statement written directly at top level.
type StmtDecl struct {
	DeclBase
	Stmt Stmt
}

// Param is one function parameter with an optional type annotation.
type Param struct {
	Name     string `json:"name"`
	TypeName string `json:"type,omitempty"`
}

// FuncDecl declares a function in a Functions section.
type FuncDecl struct {
	DeclBase
	Name       string
	Params     []Param
	ReturnType string
	Body       *Block
}

// HeroDecl declares a hero: its variables, stat block and abilities.
type HeroDecl struct {
	DeclBase
	Name    string
	Members []HeroMember
}

// ArenaDecl holds one Arena section.
type ArenaDecl struct {
	DeclBase
	Items []ArenaItem
}

// StatusEffectDecl declares a status effect with its typed fields.
type StatusEffectDecl struct {
	DeclBase
	Name   string
	Fields []*Field
}

// ItemDecl declares an item: flat properties plus an optional passive pipeline.
type ItemDecl struct {
	DeclBase
	Name    string
	Props   []*StatEntry
	Passive Expr
}

// CreepDecl declares a creep with a flat stat list.
type CreepDecl struct {
	DeclBase
	Name  string
	Stats []*StatEntry
}

// ============================================================
// Hero members
// ============================================================

// HeroSet is `set name = value;` inside a hero.
type HeroSet struct {
	NodeBase
	Name  string
	Value Expr
}

// HeroStats is a `heroStat { ... }` block.
type HeroStats struct {
	NodeBase
	Entries []*StatEntry
}

// HeroAbilities is an `abilities { ... }` block.
type HeroAbilities struct {
	NodeBase
	Abilities []*AbilityDecl
}

func (HeroSet) heroMember()       {}
func (HeroStats) heroMember()     {}
func (HeroAbilities) heroMember() {}

// AbilityDecl is one `ability Name { ... }`.
type AbilityDecl struct {
	NodeBase
	Name   string
	Fields []*Field
}

// Field is a typed `key: value` entry of an ability or status effect. Exactly
// one of Word, Value and Body is set: Word for identifier-valued keys
// (type, damage_type), Body for block-valued keys, Value otherwise.
type Field struct {
	NodeBase
	Key   token.Kind
	Word  string
	Value Expr
	Body  *Block
}

// Name returns the field key as written in source.
func (f *Field) Name() string {
	return f.Key.String()
}

// ============================================================
// Arena items
// ============================================================

// TeamDecl is `team Name { core X  turrets { ... } }`.
type TeamDecl struct {
	NodeBase
	Name    string
	Core    string
	Turrets []*TurretDecl
}

// TurretDecl is a named turret with stats.
type TurretDecl struct {
	NodeBase
	Name  string
	Stats []*StatEntry
}

// CoreDecl is a named core with stats.
type CoreDecl struct {
	NodeBase
	Name  string
	Stats []*StatEntry
}

func (TeamDecl) arenaItem()   {}
func (TurretDecl) arenaItem() {}
func (CoreDecl) arenaItem()   {}

// ============================================================
// Statements
// ============================================================

// Block is a braced statement list executed in order.
type Block struct {
	StmtBase
	Stmts []Stmt
}

// ExprStmt evaluates an expression for its side effects.
type ExprStmt struct {
	StmtBase
	Expr Expr
}

// CallStmt is a function call used as a statement.
type CallStmt struct {
	StmtBase
	Call *CallExpr
}

// SetStmt declares a binding in the current scope: `set x = e;` or `const [T] x = e;`.
type SetStmt struct {
	StmtBase
	Name     string
	TypeName string
	Value    Expr
	Const    bool
}

// AssignStmt mutates the nearest existing binding. Op is token.ASSIGN or a
// compound operator; `x++` and `x--` are represented as `x += 1` and `x -= 1`.
type AssignStmt struct {
	StmtBase
	Name  string
	Op    token.Kind
	Value Expr
}

// StatEntry is a `name: value` pair. As a statement it always defines in the
// current scope.
type StatEntry struct {
	StmtBase
	Name  string
	Value Expr
}

// ElseIf is one `else if (cond) { ... }` arm.
type ElseIf struct {
	Span      span.Span
	Condition Expr
	Body      *Block
}

// IfStmt is a conditional with zero or more else-if arms.
type IfStmt struct {
	StmtBase
	Condition Expr
	Then      *Block
	ElseIfs   []ElseIf
	Else      *Block
}

// WhileStmt loops while its condition is truthy.
type WhileStmt struct {
	StmtBase
	Condition Expr
	Body      *Block
}

// ForStmt is `for (x in collection) { ... }`.
type ForStmt struct {
	StmtBase
	Var        string
	Collection Expr
	Body       *Block
}

// ReturnStmt returns from the enclosing function or behavior.
type ReturnStmt struct {
	StmtBase
	Value Expr // nil for a bare return
}

// BreakStmt exits the innermost loop.
type BreakStmt struct{ StmtBase }

// ContinueStmt skips to the next iteration of the innermost loop.
type ContinueStmt struct{ StmtBase }

// ApplyStmt is `apply effect(args) to target;`.
type ApplyStmt struct {
	StmtBase
	Call   *CallExpr
	Target TargetExpr
}

// TargetKind enumerates the recipients of an apply statement.
type TargetKind int

const (
	TargetSelf TargetKind = iota
	TargetTarget
	TargetCaster
	TargetNamed
)

func (k TargetKind) String() string {
	switch k {
	case TargetSelf:
		return "self"
	case TargetTarget:
		return "target"
	case TargetCaster:
		return "caster"
	default:
		return "named"
	}
}

// TargetExpr names the recipient of an effect. Name is set only for TargetNamed.
type TargetExpr struct {
	Span span.Span
	Kind TargetKind
	Name string
}

// ============================================================
// Expressions
// ============================================================

// NumberLit is a numeric literal.
type NumberLit struct {
	ExprBase
	Value float64
}

// PercentLit is `50%`: Raw is the written magnitude, Value the fraction (0.5).
type PercentLit struct {
	ExprBase
	Raw   float64
	Value float64
}

// DurationLit is `5s`, in whole seconds.
type DurationLit struct {
	ExprBase
	Seconds int64
}

// StringLit is a string literal.
type StringLit struct {
	ExprBase
	Value string
}

// BoolLit is true or false.
type BoolLit struct {
	ExprBase
	Value bool
}

// NilLit is nil.
type NilLit struct{ ExprBase }

// Ident is a variable reference.
type Ident struct {
	ExprBase
	Name string
}

// ContextRef is `self`, `target` or `caster` used as a value.
type ContextRef struct {
	ExprBase
	Kind TargetKind
}

// Grouping is a parenthesized expression.
type Grouping struct {
	ExprBase
	Inner Expr
}

// UnaryExpr is `!x` or `-x`.
type UnaryExpr struct {
	ExprBase
	Op      token.Kind
	Operand Expr
}

// BinaryExpr covers arithmetic, comparison, equality and the pipeline operator.
type BinaryExpr struct {
	ExprBase
	Op    token.Kind
	Left  Expr
	Right Expr
}

// LogicalExpr is a short-circuit `and` / `or`.
type LogicalExpr struct {
	ExprBase
	Op    token.Kind
	Left  Expr
	Right Expr
}

// AssignExpr is an assignment used as an expression.
type AssignExpr struct {
	ExprBase
	Name  string
	Value Expr
}

// Arg is a call argument; Name is set for the `name: value` form.
type Arg struct {
	Name  string
	Value Expr
}

// CallExpr calls a function by name.
type CallExpr struct {
	ExprBase
	Callee string
	Args   []Arg
}

// MemberExpr reads a field: `hero.hp`.
type MemberExpr struct {
	ExprBase
	Object Expr
	Field  string
}

// ListLit is `[a, b, c]`.
type ListLit struct {
	ExprBase
	Elements []Expr
}
