package runtime

import (
	"fmt"
	"math"
	"unicode/utf8"

	"github.com/pkg/errors"

	"moba-lang/internal/span"
)

// RegisterBuiltins adds the native functions to the interpreter's global
// scope. Natives are ordinary bindings, so a user function of the same name
// shadows them.
func RegisterBuiltins(i *Interpreter) {
	w := i.output
	define := func(name string, arity int, fn NativeFn) {
		i.global.Define(name, &NativeVal{Name: name, Arity: arity, Fn: fn}, false)
	}

	define("print", -1, func(args []Value) (Value, error) {
		fmt.Fprintln(w, ValuesString(args, " "))
		return NilVal{}, nil
	})

	define("log", -1, func(args []Value) (Value, error) {
		fmt.Fprintln(w, "[log] "+ValuesString(args, " "))
		return NilVal{}, nil
	})

	define("export", 2, func(args []Value) (Value, error) {
		path, ok := args[0].(StringVal)
		if !ok {
			return nil, errors.Errorf("path must be a string, got %s", args[0].TypeName())
		}
		loc, err := i.exporter.Export(string(path), args[1])
		if err != nil {
			return nil, err
		}
		fmt.Fprintf(w, "Exported to %s\n", loc)
		return StringVal(loc), nil
	})

	define("typeOf", 1, func(args []Value) (Value, error) {
		return StringVal(args[0].TypeName()), nil
	})

	define("str", 1, func(args []Value) (Value, error) {
		return StringVal(args[0].String()), nil
	})

	define("len", 1, func(args []Value) (Value, error) {
		switch v := args[0].(type) {
		case StringVal:
			return NumberVal(utf8.RuneCountInString(string(v))), nil
		case *ListVal:
			return NumberVal(len(v.Elements)), nil
		case *RecordVal:
			return NumberVal(len(v.Keys())), nil
		default:
			return nil, errors.Errorf("len() not supported for type '%s'", args[0].TypeName())
		}
	})

	define("seq", 2, func(args []Value) (Value, error) {
		from, ok1 := args[0].(NumberVal)
		to, ok2 := args[1].(NumberVal)
		if !ok1 || !ok2 {
			return nil, errors.New("seq() bounds must be numbers")
		}
		count := math.Floor(float64(to-from)) + 1
		if i.maxLoop > 0 && count > float64(i.maxLoop) {
			return nil, runtimeErr(LoopLimit, span.Span{}, "seq", "seq() would produce more than %d elements.", i.maxLoop)
		}
		list := &ListVal{}
		for n := from; n <= to; n++ {
			list.Elements = append(list.Elements, n)
		}
		return list, nil
	})

	define("append", -1, func(args []Value) (Value, error) {
		if len(args) == 0 {
			return nil, errors.New("append() expects a list")
		}
		list, ok := args[0].(*ListVal)
		if !ok {
			return nil, errors.Errorf("append() first argument must be a list, got '%s'", args[0].TypeName())
		}
		elements := make([]Value, 0, len(list.Elements)+len(args)-1)
		elements = append(elements, list.Elements...)
		elements = append(elements, args[1:]...)
		return &ListVal{Elements: elements}, nil
	})

	define("keys", 1, func(args []Value) (Value, error) {
		rec, ok := args[0].(*RecordVal)
		if !ok {
			return nil, errors.Errorf("keys() expects a record argument, got '%s'", args[0].TypeName())
		}
		keys := rec.Keys()
		elements := make([]Value, len(keys))
		for k, key := range keys {
			elements[k] = StringVal(key)
		}
		return &ListVal{Elements: elements}, nil
	})

	define("entity", 1, func(args []Value) (Value, error) {
		ent, err := i.entityArg(args[0])
		if err != nil {
			return nil, err
		}
		return ent, nil
	})

	define("stat", 2, func(args []Value) (Value, error) {
		ent, err := i.entityArg(args[0])
		if err != nil {
			return nil, err
		}
		name, ok := args[1].(StringVal)
		if !ok {
			return nil, errors.Errorf("stat name must be a string, got %s", args[1].TypeName())
		}
		if v, ok := ent.Stat(string(name)); ok {
			return NumberVal(v), nil
		}
		return NilVal{}, nil
	})

	define("cast", 3, func(args []Value) (Value, error) {
		hero, err := i.entityArg(args[0])
		if err != nil {
			return nil, err
		}
		ability, ok := args[1].(StringVal)
		if !ok {
			return nil, errors.Errorf("ability name must be a string, got %s", args[1].TypeName())
		}
		var target *Entity
		if _, isNil := args[2].(NilVal); !isNil {
			if target, err = i.entityArg(args[2]); err != nil {
				return nil, err
			}
		}
		ok, err = i.cast(hero, string(ability), target, span.Span{})
		if err != nil {
			return nil, err
		}
		return BoolVal(ok), nil
	})

	define("tick", 1, func(args []Value) (Value, error) {
		n, ok := args[0].(NumberVal)
		if !ok || n < 0 || math.IsNaN(float64(n)) {
			return nil, errors.Errorf("tick() expects a non-negative number of seconds, got %s", args[0])
		}
		seconds := math.Floor(float64(n))
		if i.maxLoop > 0 && seconds > float64(i.maxLoop) {
			return nil, runtimeErr(LoopLimit, span.Span{}, "tick", "tick() would advance more than %d seconds.", i.maxLoop)
		}
		if seconds >= math.MaxInt64 {
			return nil, errors.Errorf("tick() seconds out of range: %s", n)
		}
		if err := i.tick(int64(seconds), span.Span{}); err != nil {
			return nil, err
		}
		return NumberVal(i.world.Clock()), nil
	})

	define("equip", 2, func(args []Value) (Value, error) {
		hero, err := i.entityArg(args[0])
		if err != nil {
			return nil, err
		}
		item, ok := args[1].(*RecordVal)
		if !ok || item.Kind != "item" {
			return nil, errors.Errorf("equip() expects an item, got %s", args[1].TypeName())
		}
		return NilVal{}, i.equip(hero, item, span.Span{})
	})

	define("dump", 0, func(args []Value) (Value, error) {
		fmt.Fprintln(w, "=== WORLD STATE ===")
		for _, ent := range i.world.Entities() {
			fmt.Fprintln(w, ent.String())
		}
		return NilVal{}, nil
	})
}
