package runtime

import (
	"github.com/pkg/errors"

	"moba-lang/internal/ast"
	"moba-lang/internal/token"
)

// ============================================================
// Statement execution
// ============================================================

func (i *Interpreter) execStmt(stmt ast.Stmt) (ExecResult, error) {
	switch s := stmt.(type) {
	case *ast.Block:
		return i.execBlock(s, i.env.Child())

	case *ast.ExprStmt:
		_, err := i.evalExpr(s.Expr)
		return resultNone, err

	case *ast.CallStmt:
		_, err := i.evalCall(s.Call)
		return resultNone, err

	case *ast.SetStmt:
		val, err := i.evalExpr(s.Value)
		if err != nil {
			return resultNone, err
		}
		if err := i.env.Define(s.Name, val, s.Const); err != nil {
			return resultNone, runtimeErr(ConstAssignment, s.Span, s.Name, "Cannot redeclare constant '%s'.", s.Name)
		}
		return resultNone, nil

	case *ast.AssignStmt:
		return resultNone, i.execAssign(s)

	case *ast.StatEntry:
		val, err := i.evalExpr(s.Value)
		if err != nil {
			return resultNone, err
		}
		if err := i.env.Define(s.Name, val, false); err != nil {
			return resultNone, runtimeErr(ConstAssignment, s.Span, s.Name, "Cannot redeclare constant '%s'.", s.Name)
		}
		return resultNone, nil

	case *ast.IfStmt:
		return i.execIf(s)

	case *ast.WhileStmt:
		return i.execWhile(s)

	case *ast.ForStmt:
		return i.execFor(s)

	case *ast.ReturnStmt:
		var val Value = NilVal{}
		if s.Value != nil {
			v, err := i.evalExpr(s.Value)
			if err != nil {
				return resultNone, err
			}
			val = v
		}
		return ExecResult{Signal: SigReturn, Value: val}, nil

	case *ast.BreakStmt:
		return ExecResult{Signal: SigBreak}, nil

	case *ast.ContinueStmt:
		return ExecResult{Signal: SigContinue}, nil

	case *ast.ApplyStmt:
		return resultNone, i.execApply(s)

	default:
		return resultNone, runtimeErr(UnsupportedOperator, stmt.GetSpan(), "", "Unhandled statement type %T.", stmt)
	}
}

func (i *Interpreter) execAssign(s *ast.AssignStmt) error {
	val, err := i.evalExpr(s.Value)
	if err != nil {
		return err
	}
	if s.Op != token.ASSIGN {
		cur, ok := i.env.Get(s.Name)
		if !ok {
			return runtimeErr(UndefinedVariable, s.Span, s.Name, "Undefined variable '%s'.", s.Name)
		}
		val, err = i.arith(compoundOps[s.Op], cur, val, s)
		if err != nil {
			return err
		}
	}
	return i.assign(s.Name, val, s)
}

var compoundOps = map[token.Kind]token.Kind{
	token.PLUS_ASSIGN:  token.PLUS,
	token.MINUS_ASSIGN: token.MINUS,
	token.STAR_ASSIGN:  token.STAR,
	token.SLASH_ASSIGN: token.SLASH,
}

// assign mutates the nearest binding of name.
func (i *Interpreter) assign(name string, val Value, at ast.Node) error {
	err := i.env.Assign(name, val)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrConstAssignment):
		return runtimeErr(ConstAssignment, at.GetSpan(), name, "Cannot assign to constant '%s'.", name)
	default:
		return runtimeErr(UndefinedVariable, at.GetSpan(), name, "Undefined variable '%s'.", name)
	}
}

func (i *Interpreter) execIf(s *ast.IfStmt) (ExecResult, error) {
	cond, err := i.evalExpr(s.Condition)
	if err != nil {
		return resultNone, err
	}
	if IsTruthy(cond) {
		return i.execBlock(s.Then, i.env.Child())
	}

	for _, elseIf := range s.ElseIfs {
		cond, err := i.evalExpr(elseIf.Condition)
		if err != nil {
			return resultNone, err
		}
		if IsTruthy(cond) {
			return i.execBlock(elseIf.Body, i.env.Child())
		}
	}

	if s.Else != nil {
		return i.execBlock(s.Else, i.env.Child())
	}
	return resultNone, nil
}

// loopGuard counts iterations of one loop statement.
type loopGuard struct {
	i     *Interpreter
	at    ast.Node
	count int
}

func (g *loopGuard) step() error {
	g.count++
	if g.i.maxLoop > 0 && g.count > g.i.maxLoop {
		g.i.log.Warn("Loop iteration limit reached", "limit", g.i.maxLoop, "line", g.at.GetSpan().Line())
		return runtimeErr(LoopLimit, g.at.GetSpan(), "", "Loop exceeded %d iterations.", g.i.maxLoop)
	}
	return nil
}

func (i *Interpreter) execWhile(s *ast.WhileStmt) (ExecResult, error) {
	guard := &loopGuard{i: i, at: s}
	for {
		cond, err := i.evalExpr(s.Condition)
		if err != nil {
			return resultNone, err
		}
		if !IsTruthy(cond) {
			break
		}
		if err := guard.step(); err != nil {
			return resultNone, err
		}

		result, err := i.execBlock(s.Body, i.env.Child())
		if err != nil {
			return resultNone, err
		}
		if result.Signal == SigBreak {
			break
		}
		if result.Signal == SigReturn {
			return result, nil // propagate return
		}
		// SigContinue: just continue the loop
	}
	return resultNone, nil
}

func (i *Interpreter) execFor(s *ast.ForStmt) (ExecResult, error) {
	coll, err := i.evalExpr(s.Collection)
	if err != nil {
		return resultNone, err
	}

	var items []Value
	switch c := coll.(type) {
	case *ListVal:
		items = append(items, c.Elements...)
	case *RecordVal:
		for _, k := range c.Keys() {
			items = append(items, StringVal(k))
		}
	case StringVal:
		for _, r := range string(c) {
			items = append(items, StringVal(string(r)))
		}
	default:
		return resultNone, runtimeErr(NotIterable, s.Collection.GetSpan(), "",
			"Can only iterate over lists, records and strings, got %s.", coll.TypeName())
	}

	guard := &loopGuard{i: i, at: s}
	for _, item := range items {
		if err := guard.step(); err != nil {
			return resultNone, err
		}
		loopEnv := i.env.Child()
		loopEnv.Define(s.Var, item, false)

		result, err := i.execBlock(s.Body, loopEnv)
		if err != nil {
			return resultNone, err
		}
		if result.Signal == SigBreak {
			break
		}
		if result.Signal == SigReturn {
			return result, nil
		}
	}
	return resultNone, nil
}

func (i *Interpreter) execBlock(block *ast.Block, blockEnv *Environment) (ExecResult, error) {
	prevEnv := i.env
	i.env = blockEnv
	defer func() { i.env = prevEnv }()

	for _, stmt := range block.Stmts {
		result, err := i.execStmt(stmt)
		if err != nil {
			return resultNone, err
		}
		if result.Signal != SigNone {
			return result, nil // propagate signal
		}
	}
	return resultNone, nil
}

// execApply runs `apply effect(args) to target;`.
func (i *Interpreter) execApply(s *ast.ApplyStmt) error {
	target, err := i.resolveTarget(s.Target)
	if err != nil {
		return err
	}
	args, names, err := i.evalArgs(s.Call.Args)
	if err != nil {
		return err
	}
	caster := i.ctx.Caster
	if caster == nil {
		caster = i.ctx.Self
	}
	i.log.Trace("Apply", "effect", s.Call.Callee, "target", target.Name, "line", s.Span.Line())
	return i.applyEffect(s.Call.Callee, args, names, target, caster, s.Call.Span)
}

func (i *Interpreter) resolveTarget(t ast.TargetExpr) (*Entity, error) {
	if t.Kind == ast.TargetNamed {
		ent, ok := i.world.Lookup(t.Name)
		if !ok {
			return nil, runtimeErr(UnknownEntity, t.Span, t.Name, "Unknown entity '%s'.", t.Name)
		}
		return ent, nil
	}
	ent := i.ctx.resolve(t.Kind)
	if ent == nil {
		return nil, runtimeErr(NoContext, t.Span, t.Kind.String(), "No active '%s' in this context.", t.Kind)
	}
	return ent, nil
}
