// Package runtime implements the tree-walking evaluator, its value system,
// the scope chain and the live game world the evaluator acts upon.
package runtime

import (
	"fmt"
	"strings"

	"moba-lang/internal/ast"
)

// Value is the interface for all runtime values.
type Value interface {
	TypeName() string
	String() string
}

// ---- Primitive values ----

// NumberVal is the only numeric type. Percentages evaluate to their
// fraction and durations to whole seconds.
type NumberVal float64

func (v NumberVal) TypeName() string { return "number" }
func (v NumberVal) String() string   { return ast.FormatNumber(float64(v)) }

// StringVal represents a string value.
type StringVal string

func (v StringVal) TypeName() string { return "string" }
func (v StringVal) String() string   { return string(v) }

// BoolVal represents a boolean value.
type BoolVal bool

func (v BoolVal) TypeName() string { return "bool" }
func (v BoolVal) String() string   { return fmt.Sprintf("%t", bool(v)) }

// NilVal represents nil.
type NilVal struct{}

func (v NilVal) TypeName() string { return "nil" }
func (v NilVal) String() string   { return "nil" }

// ---- Collections ----

// ListVal represents a list literal or a list built by a native.
type ListVal struct {
	Elements []Value
}

func (v *ListVal) TypeName() string { return "list" }
func (v *ListVal) String() string {
	return "[" + joinQuoted(v.Elements) + "]"
}

// RecordVal is the descriptor built for a hero, ability, status effect,
// item, creep, team, turret or core. Fields keep declaration order.
type RecordVal struct {
	Kind   string
	Name   string
	keys   []string
	fields map[string]Value
}

// NewRecord creates an empty descriptor.
func NewRecord(kind, name string) *RecordVal {
	return &RecordVal{Kind: kind, Name: name, fields: make(map[string]Value)}
}

func (v *RecordVal) TypeName() string { return v.Kind }
func (v *RecordVal) String() string {
	parts := make([]string, len(v.keys))
	for i, k := range v.keys {
		parts[i] = k + ": " + quoted(v.fields[k])
	}
	return fmt.Sprintf("%s %s {%s}", v.Kind, v.Name, strings.Join(parts, ", "))
}

// Get returns a field value.
func (v *RecordVal) Get(key string) (Value, bool) {
	val, ok := v.fields[key]
	return val, ok
}

// Set adds or replaces a field. A new key goes to the end.
func (v *RecordVal) Set(key string, val Value) {
	if _, exists := v.fields[key]; !exists {
		v.keys = append(v.keys, key)
	}
	v.fields[key] = val
}

// Keys returns field names in declaration order.
func (v *RecordVal) Keys() []string {
	return append([]string(nil), v.keys...)
}

// Number returns a numeric field.
func (v *RecordVal) Number(key string) (float64, bool) {
	n, ok := v.fields[key].(NumberVal)
	return float64(n), ok
}

// ---- Callable values ----

// FunctionVal is a user function declared in a Functions section.
type FunctionVal struct {
	Decl    *ast.FuncDecl
	Closure *Environment
}

func (v *FunctionVal) TypeName() string { return "function" }
func (v *FunctionVal) String() string   { return fmt.Sprintf("<function %s>", v.Decl.Name) }

// BehaviorVal is a stored behavior block. It runs in a fresh child scope of
// Closure each time it is triggered.
type BehaviorVal struct {
	Owner   string
	Body    *ast.Block
	Closure *Environment
}

func (v *BehaviorVal) TypeName() string { return "behavior" }
func (v *BehaviorVal) String() string   { return fmt.Sprintf("<behavior %s>", v.Owner) }

// NativeFn is the Go signature for native functions.
type NativeFn func(args []Value) (Value, error)

// NativeVal represents a native function. Arity -1 accepts any number of
// arguments.
type NativeVal struct {
	Name  string
	Arity int
	Fn    NativeFn
}

func (v *NativeVal) TypeName() string { return "native" }
func (v *NativeVal) String() string   { return fmt.Sprintf("<native %s>", v.Name) }

// EffectVal is an effect call that has not been applied yet: what an
// effect name evaluates to in expression position. Prev links the earlier
// stages of a pipeline such as `damage(40) |> Slow(2s)`. Names runs
// parallel to Args and is empty for positional arguments.
type EffectVal struct {
	Name  string
	Args  []Value
	Names []string
	Prev  *EffectVal
}

func newEffect(name string, args []Value, names []string) *EffectVal {
	if len(names) < len(args) {
		names = append(names, make([]string, len(args)-len(names))...)
	}
	if len(args) > 0 && names[0] == "" {
		if prev, ok := args[0].(*EffectVal); ok {
			return &EffectVal{Name: name, Args: args[1:], Names: names[1:], Prev: prev}
		}
	}
	return &EffectVal{Name: name, Args: args, Names: names}
}

func (v *EffectVal) TypeName() string { return "effect" }
func (v *EffectVal) String() string {
	stages := v.Stages()
	parts := make([]string, len(stages))
	for i, s := range stages {
		args := make([]string, len(s.Args))
		for k, a := range s.Args {
			args[k] = quoted(a)
			if k < len(s.Names) && s.Names[k] != "" {
				args[k] = s.Names[k] + ": " + args[k]
			}
		}
		parts[i] = s.Name + "(" + strings.Join(args, ", ") + ")"
	}
	return "<effect " + strings.Join(parts, " |> ") + ">"
}

// Stages returns the pipeline stages first to last.
func (v *EffectVal) Stages() []*EffectVal {
	var stages []*EffectVal
	for e := v; e != nil; e = e.Prev {
		stages = append([]*EffectVal{e}, stages...)
	}
	return stages
}

// ---- Truthiness ----

// IsTruthy reports whether v counts as true: only nil and false are falsy.
func IsTruthy(v Value) bool {
	switch val := v.(type) {
	case nil, NilVal:
		return false
	case BoolVal:
		return bool(val)
	default:
		return true
	}
}

// ---- Helpers ----

// ValuesString formats a slice of values with a separator.
func ValuesString(vals []Value, sep string) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = v.String()
	}
	return strings.Join(parts, sep)
}

func quoted(v Value) string {
	if s, ok := v.(StringVal); ok {
		return fmt.Sprintf("%q", string(s))
	}
	return v.String()
}

func joinQuoted(vals []Value) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = quoted(v)
	}
	return strings.Join(parts, ", ")
}

// valuesEqual compares by value across any two types. Lists compare
// element-wise, everything else by identity.
func valuesEqual(a, b Value) bool {
	switch av := a.(type) {
	case NumberVal:
		bv, ok := b.(NumberVal)
		return ok && av == bv
	case StringVal:
		bv, ok := b.(StringVal)
		return ok && av == bv
	case BoolVal:
		bv, ok := b.(BoolVal)
		return ok && av == bv
	case NilVal:
		_, ok := b.(NilVal)
		return ok
	case *ListVal:
		bv, ok := b.(*ListVal)
		if !ok || len(av.Elements) != len(bv.Elements) {
			return false
		}
		for i := range av.Elements {
			if !valuesEqual(av.Elements[i], bv.Elements[i]) {
				return false
			}
		}
		return true
	}
	return a == b
}
