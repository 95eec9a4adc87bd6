package runtime

import "sort"

// Environment represents a variable scope with a parent chain.
type Environment struct {
	values map[string]Value
	consts map[string]bool // tracks which names are const
	parent *Environment
}

// NewEnvironment creates a new environment with an optional parent scope.
func NewEnvironment(parent *Environment) *Environment {
	return &Environment{
		values: make(map[string]Value),
		consts: make(map[string]bool),
		parent: parent,
	}
}

// Child creates a scope enclosed by e.
func (e *Environment) Child() *Environment {
	return NewEnvironment(e)
}

// Parent returns the enclosing scope, nil for the global one.
func (e *Environment) Parent() *Environment {
	return e.parent
}

// Define binds name in the current scope, replacing an existing binding of
// the same scope. Constants cannot be redefined.
func (e *Environment) Define(name string, value Value, isConst bool) error {
	if e.consts[name] {
		return ErrConstAssignment
	}
	e.values[name] = value
	if isConst {
		e.consts[name] = true
	}
	return nil
}

// Get looks up a variable by walking the scope chain.
func (e *Environment) Get(name string) (Value, bool) {
	for env := e; env != nil; env = env.parent {
		if val, exists := env.values[name]; exists {
			return val, true
		}
	}
	return nil, false
}

// Assign mutates the nearest existing binding. It returns ErrUndefinedVariable
// when no scope defines name and ErrConstAssignment for constants.
func (e *Environment) Assign(name string, value Value) error {
	for env := e; env != nil; env = env.parent {
		if _, exists := env.values[name]; exists {
			if env.consts[name] {
				return ErrConstAssignment
			}
			env.values[name] = value
			return nil
		}
	}
	return ErrUndefinedVariable
}

// IsConst reports whether the binding that Get would find is a constant.
func (e *Environment) IsConst(name string) bool {
	for env := e; env != nil; env = env.parent {
		if _, exists := env.values[name]; exists {
			return env.consts[name]
		}
	}
	return false
}

// Names returns the names bound directly in this scope, sorted.
func (e *Environment) Names() []string {
	names := make([]string, 0, len(e.values))
	for name := range e.values {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
