package runtime

import (
	"github.com/pkg/errors"

	"moba-lang/internal/ast"
	"moba-lang/internal/span"
	"moba-lang/internal/token"
)

// ============================================================
// Expression evaluation
// ============================================================

func (i *Interpreter) evalExpr(expr ast.Expr) (Value, error) {
	switch e := expr.(type) {
	case *ast.NumberLit:
		return NumberVal(e.Value), nil
	case *ast.PercentLit:
		return NumberVal(e.Value), nil
	case *ast.DurationLit:
		return NumberVal(float64(e.Seconds)), nil
	case *ast.StringLit:
		return StringVal(e.Value), nil
	case *ast.BoolLit:
		return BoolVal(e.Value), nil
	case *ast.NilLit:
		return NilVal{}, nil

	case *ast.Ident:
		val, ok := i.env.Get(e.Name)
		if !ok {
			return nil, runtimeErr(UndefinedVariable, e.Span, e.Name, "Undefined variable '%s'.", e.Name)
		}
		return val, nil

	case *ast.ContextRef:
		ent := i.ctx.resolve(e.Kind)
		if ent == nil {
			return nil, runtimeErr(NoContext, e.Span, e.Kind.String(), "No active '%s' in this context.", e.Kind)
		}
		return ent, nil

	case *ast.Grouping:
		return i.evalExpr(e.Inner)

	case *ast.UnaryExpr:
		return i.evalUnary(e)

	case *ast.BinaryExpr:
		if e.Op == token.PIPE {
			return i.evalPipe(e)
		}
		return i.evalBinary(e)

	case *ast.LogicalExpr:
		left, err := i.evalExpr(e.Left)
		if err != nil {
			return nil, err
		}
		if e.Op == token.OR {
			if IsTruthy(left) {
				return left, nil
			}
		} else if !IsTruthy(left) {
			return left, nil
		}
		return i.evalExpr(e.Right)

	case *ast.AssignExpr:
		val, err := i.evalExpr(e.Value)
		if err != nil {
			return nil, err
		}
		if err := i.assign(e.Name, val, e); err != nil {
			return nil, err
		}
		return val, nil

	case *ast.CallExpr:
		return i.evalCall(e)

	case *ast.MemberExpr:
		obj, err := i.evalExpr(e.Object)
		if err != nil {
			return nil, err
		}
		return i.member(obj, e)

	case *ast.ListLit:
		list := &ListVal{Elements: make([]Value, 0, len(e.Elements))}
		for _, el := range e.Elements {
			v, err := i.evalExpr(el)
			if err != nil {
				return nil, err
			}
			list.Elements = append(list.Elements, v)
		}
		return list, nil

	default:
		return nil, runtimeErr(UnsupportedOperator, expr.GetSpan(), "", "Unhandled expression type %T.", expr)
	}
}

func (i *Interpreter) evalUnary(e *ast.UnaryExpr) (Value, error) {
	operand, err := i.evalExpr(e.Operand)
	if err != nil {
		return nil, err
	}
	switch e.Op {
	case token.BANG:
		return BoolVal(!IsTruthy(operand)), nil
	case token.MINUS:
		n, ok := operand.(NumberVal)
		if !ok {
			return nil, runtimeErr(TypeMismatch, e.Span, "-", "Operand must be a number.")
		}
		return -n, nil
	}
	return nil, runtimeErr(UnsupportedOperator, e.Span, e.Op.String(), "Unknown unary operator '%s'.", e.Op)
}

func (i *Interpreter) evalBinary(e *ast.BinaryExpr) (Value, error) {
	left, err := i.evalExpr(e.Left)
	if err != nil {
		return nil, err
	}
	right, err := i.evalExpr(e.Right)
	if err != nil {
		return nil, err
	}

	switch e.Op {
	case token.EQ:
		return BoolVal(valuesEqual(left, right)), nil
	case token.NEQ:
		return BoolVal(!valuesEqual(left, right)), nil
	case token.LT, token.LTE, token.GT, token.GTE:
		l, lok := left.(NumberVal)
		r, rok := right.(NumberVal)
		if !lok || !rok {
			return nil, runtimeErr(TypeMismatch, e.Span, e.Op.String(), "Operands must be numbers.")
		}
		switch e.Op {
		case token.LT:
			return BoolVal(l < r), nil
		case token.LTE:
			return BoolVal(l <= r), nil
		case token.GT:
			return BoolVal(l > r), nil
		default:
			return BoolVal(l >= r), nil
		}
	}
	return i.arith(e.Op, left, right, e)
}

// arith applies + - * / and is shared by binary expressions and compound
// assignment.
func (i *Interpreter) arith(op token.Kind, left, right Value, at ast.Node) (Value, error) {
	if op == token.PLUS {
		if l, ok := left.(StringVal); ok {
			if r, ok := right.(StringVal); ok {
				return l + r, nil
			}
		}
	}
	l, lok := left.(NumberVal)
	r, rok := right.(NumberVal)
	if !lok || !rok {
		if op == token.PLUS {
			return nil, runtimeErr(TypeMismatch, at.GetSpan(), op.String(), "Operands must be two numbers or two strings.")
		}
		return nil, runtimeErr(TypeMismatch, at.GetSpan(), op.String(), "Operands must be numbers.")
	}

	switch op {
	case token.PLUS:
		return l + r, nil
	case token.MINUS:
		return l - r, nil
	case token.STAR:
		return l * r, nil
	case token.SLASH:
		if r == 0 {
			return nil, runtimeErr(DivisionByZero, at.GetSpan(), "/", "Division by zero.")
		}
		return l / r, nil
	}
	return nil, runtimeErr(UnsupportedOperator, at.GetSpan(), op.String(), "Unknown operator '%s'.", op)
}

// evalPipe evaluates `a |> f(x)` as `f(a, x)`.
func (i *Interpreter) evalPipe(e *ast.BinaryExpr) (Value, error) {
	call, ok := e.Right.(*ast.CallExpr)
	if !ok {
		return nil, runtimeErr(UnsupportedOperator, e.Right.GetSpan(), "|>", "Right side of '|>' must be a function call.")
	}
	left, err := i.evalExpr(e.Left)
	if err != nil {
		return nil, err
	}
	return i.evalCall(call, left)
}

// member reads a field of a record or entity.
func (i *Interpreter) member(obj Value, e *ast.MemberExpr) (Value, error) {
	switch o := obj.(type) {
	case *RecordVal:
		if v, ok := o.Get(e.Field); ok {
			return v, nil
		}
		switch e.Field {
		case "name":
			return StringVal(o.Name), nil
		case "kind":
			return StringVal(o.Kind), nil
		}
		return nil, runtimeErr(UndefinedVariable, e.Span, e.Field, "Undefined field '%s' on %s %s.", e.Field, o.Kind, o.Name)

	case *Entity:
		switch e.Field {
		case "name":
			return StringVal(o.Name), nil
		case "kind":
			return StringVal(o.Kind), nil
		case "team":
			return StringVal(o.Team), nil
		case "effects":
			list := &ListVal{}
			for _, ae := range o.Effects {
				list.Elements = append(list.Elements, StringVal(ae.Name))
			}
			return list, nil
		case "items":
			list := &ListVal{}
			for _, it := range o.Items {
				list.Elements = append(list.Elements, StringVal(it))
			}
			return list, nil
		}
		if n, ok := o.Stat(e.Field); ok {
			return NumberVal(n), nil
		}
		if o.Descriptor != nil {
			if v, ok := o.Descriptor.Get(e.Field); ok {
				return v, nil
			}
		}
		return nil, runtimeErr(UndefinedVariable, e.Span, e.Field, "Undefined field '%s' on entity %s.", e.Field, o.Name)
	}
	return nil, runtimeErr(TypeMismatch, e.Span, e.Field, "Only records and entities have fields, got %s.", obj.TypeName())
}

// ============================================================
// Calls
// ============================================================

// evalArgs evaluates call arguments in order. names runs parallel to the
// values and is empty for positional arguments.
func (i *Interpreter) evalArgs(args []ast.Arg) ([]Value, []string, error) {
	vals := make([]Value, 0, len(args))
	names := make([]string, 0, len(args))
	for _, a := range args {
		v, err := i.evalExpr(a.Value)
		if err != nil {
			return nil, nil, err
		}
		vals = append(vals, v)
		names = append(names, a.Name)
	}
	return vals, names, nil
}

// evalCall evaluates a call; leading values are prepended as positional
// arguments, which is how a pipeline threads its left operand.
func (i *Interpreter) evalCall(e *ast.CallExpr, leading ...Value) (Value, error) {
	args, names, err := i.evalArgs(e.Args)
	if err != nil {
		return nil, err
	}
	if len(leading) > 0 {
		args = append(append([]Value(nil), leading...), args...)
		names = append(make([]string, len(leading)), names...)
	}
	return i.callNamed(e.Callee, args, names, e.Span)
}

// callNamed dispatches a call by name: bound functions and natives first,
// then effect names, which evaluate to an unapplied EffectVal.
func (i *Interpreter) callNamed(name string, args []Value, names []string, at span.Span) (Value, error) {
	if v, ok := i.env.Get(name); ok {
		switch fn := v.(type) {
		case *FunctionVal:
			return i.callFunction(fn, args, names, at)
		case *NativeVal:
			return i.callNative(fn, args, names, at)
		case *RecordVal:
			if fn.Kind == "statusEffect" {
				return newEffect(name, args, names), nil
			}
		}
		return nil, runtimeErr(NotCallable, at, name, "Can only call functions, '%s' is a %s.", name, v.TypeName())
	}
	if _, ok := i.effects[name]; ok || i.declared[name] {
		return newEffect(name, args, names), nil
	}
	return nil, runtimeErr(UndefinedVariable, at, name, "Undefined function '%s'.", name)
}

func (i *Interpreter) callFunction(fn *FunctionVal, args []Value, names []string, at span.Span) (Value, error) {
	decl := fn.Decl
	params := decl.Params
	if len(args) > len(params) {
		return nil, runtimeErr(Arity, at, decl.Name, "Expected %d arguments but got %d.", len(params), len(args))
	}

	slots := make([]Value, len(params))
	next := 0
	for k, arg := range args {
		idx := -1
		if k < len(names) && names[k] != "" {
			for p, param := range params {
				if param.Name == names[k] {
					idx = p
					break
				}
			}
			if idx < 0 {
				return nil, runtimeErr(Arity, at, names[k], "Unknown parameter '%s' for '%s'.", names[k], decl.Name)
			}
		} else {
			for next < len(params) && slots[next] != nil {
				next++
			}
			idx = next
		}
		if slots[idx] != nil {
			return nil, runtimeErr(Arity, at, params[idx].Name, "Parameter '%s' bound twice.", params[idx].Name)
		}
		slots[idx] = arg
	}
	for _, s := range slots {
		if s == nil {
			return nil, runtimeErr(Arity, at, decl.Name, "Expected %d arguments but got %d.", len(params), len(args))
		}
	}

	leave, err := i.enter(at, decl.Name)
	if err != nil {
		return nil, err
	}
	defer leave()

	callEnv := fn.Closure.Child()
	for p, param := range params {
		callEnv.Define(param.Name, slots[p], false)
	}
	result, err := i.execBlock(decl.Body, callEnv)
	if err != nil {
		return nil, err
	}
	switch result.Signal {
	case SigReturn:
		return result.Value, nil
	case SigBreak, SigContinue:
		return nil, i.straySignal(result, decl.Body)
	}
	return NilVal{}, nil
}

func (i *Interpreter) callNative(fn *NativeVal, args []Value, names []string, at span.Span) (Value, error) {
	for _, n := range names {
		if n != "" {
			return nil, runtimeErr(Arity, at, n, "Native '%s' does not take named arguments.", fn.Name)
		}
	}
	if fn.Arity >= 0 && len(args) != fn.Arity {
		return nil, runtimeErr(Arity, at, fn.Name, "Expected %d arguments but got %d.", fn.Arity, len(args))
	}
	i.log.Trace("Native call", "name", fn.Name, "args", len(args), "line", at.Line())

	val, err := fn.Fn(args)
	if err != nil {
		var rerr *RuntimeError
		if errors.As(err, &rerr) {
			if rerr.Span == (span.Span{}) {
				rerr.Span = at
			}
			return nil, rerr
		}
		return nil, runtimeErr(Native, at, fn.Name, "%s: %v", fn.Name, err)
	}
	if val == nil {
		val = NilVal{}
	}
	return val, nil
}
