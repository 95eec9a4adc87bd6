package runtime

import (
	"moba-lang/internal/ast"
	"moba-lang/internal/span"
)

// ============================================================
// Declaration phases
//
// Each phase function ignores declarations of other kinds, so
// EvaluateProgram can run every phase over the same list.
// ============================================================

func (i *Interpreter) declareVar(d ast.Decl) error {
	v, ok := d.(*ast.VarDecl)
	if !ok {
		return nil
	}
	val, err := i.evalExpr(v.Value)
	if err != nil {
		return err
	}
	if v.Reassign {
		return i.assign(v.Name, val, v)
	}
	if err := i.global.Define(v.Name, val, v.Const); err != nil {
		return runtimeErr(ConstAssignment, v.Span, v.Name, "Cannot redeclare constant '%s'.", v.Name)
	}
	i.log.Debug("Defined variable", "name", v.Name, "const", v.Const, "line", v.Span.Line())
	return nil
}

// declareHero builds the hero descriptor in a scope chained to the global
// one, binds it under the hero's name and spawns the hero entity.
func (i *Interpreter) declareHero(d ast.Decl) error {
	h, ok := d.(*ast.HeroDecl)
	if !ok {
		return nil
	}
	rec := NewRecord("hero", h.Name)
	scope := i.global.Child()

	for _, member := range h.Members {
		switch m := member.(type) {
		case *ast.HeroSet:
			val, err := i.evalIn(scope, m.Value)
			if err != nil {
				return err
			}
			scope.Define(m.Name, val, false)
			rec.Set(m.Name, val)
		case *ast.HeroStats:
			if err := i.defineStats(scope, rec, m.Entries); err != nil {
				return err
			}
		case *ast.HeroAbilities:
			list := &ListVal{}
			for _, ab := range m.Abilities {
				abRec, err := i.buildAbility(scope, h.Name, ab)
				if err != nil {
					return err
				}
				list.Elements = append(list.Elements, abRec)
			}
			rec.Set("abilities", list)
		}
	}

	if err := i.bindGlobal(h.Name, rec, h.Span); err != nil {
		return err
	}
	i.world.Spawn(h.Name, "hero", rec)
	i.log.Debug("Registered hero", "name", h.Name, "fields", len(rec.Keys()), "line", h.Span.Line())
	return nil
}

func (i *Interpreter) buildAbility(heroScope *Environment, hero string, ab *ast.AbilityDecl) (*RecordVal, error) {
	rec := NewRecord("ability", ab.Name)
	scope := heroScope.Child()
	owner := hero + "." + ab.Name
	for _, f := range ab.Fields {
		val, err := i.fieldValue(scope, owner, f)
		if err != nil {
			return nil, err
		}
		scope.Define(f.Name(), val, false)
		rec.Set(f.Name(), val)
	}
	return rec, nil
}

// fieldValue evaluates one typed field. Words become strings, blocks become
// behaviors and everything else is evaluated once in scope.
func (i *Interpreter) fieldValue(scope *Environment, owner string, f *ast.Field) (Value, error) {
	switch {
	case f.Body != nil:
		return &BehaviorVal{Owner: owner, Body: f.Body, Closure: scope}, nil
	case f.Value != nil:
		return i.evalIn(scope, f.Value)
	default:
		return StringVal(f.Word), nil
	}
}

// defineStats evaluates stat entries in order; later entries may refer to
// earlier ones.
func (i *Interpreter) defineStats(scope *Environment, rec *RecordVal, entries []*ast.StatEntry) error {
	for _, e := range entries {
		val, err := i.evalIn(scope, e.Value)
		if err != nil {
			return err
		}
		scope.Define(e.Name, val, false)
		rec.Set(e.Name, val)
	}
	return nil
}

// statRecord builds a flat descriptor from a stat list.
func (i *Interpreter) statRecord(kind, name string, entries []*ast.StatEntry) (*RecordVal, error) {
	rec := NewRecord(kind, name)
	if err := i.defineStats(i.global.Child(), rec, entries); err != nil {
		return nil, err
	}
	return rec, nil
}

func (i *Interpreter) declareArena(d ast.Decl) error {
	a, ok := d.(*ast.ArenaDecl)
	if !ok {
		return nil
	}
	var teams []*ast.TeamDecl
	for _, item := range a.Items {
		switch it := item.(type) {
		case *ast.TurretDecl:
			if _, err := i.declareStructure("turret", it.Name, it.Stats, it.Span); err != nil {
				return err
			}
		case *ast.CoreDecl:
			if _, err := i.declareStructure("core", it.Name, it.Stats, it.Span); err != nil {
				return err
			}
		case *ast.TeamDecl:
			teams = append(teams, it)
		}
	}

	// Teams go last so a core declared after its team still gets tagged.
	for _, t := range teams {
		rec := NewRecord("team", t.Name)
		if t.Core != "" {
			rec.Set("core", StringVal(t.Core))
			if core, ok := i.world.Lookup(t.Core); ok {
				core.Team = t.Name
			}
		}
		turrets := &ListVal{}
		for _, tur := range t.Turrets {
			turRec, err := i.declareStructure("turret", tur.Name, tur.Stats, tur.Span)
			if err != nil {
				return err
			}
			if ent, ok := i.world.Lookup(tur.Name); ok {
				ent.Team = t.Name
			}
			turrets.Elements = append(turrets.Elements, turRec)
		}
		rec.Set("turrets", turrets)
		if err := i.bindGlobal(t.Name, rec, t.Span); err != nil {
			return err
		}
		i.log.Debug("Registered team", "name", t.Name, "turrets", len(t.Turrets), "line", t.Span.Line())
	}
	return nil
}

func (i *Interpreter) declareStructure(kind, name string, stats []*ast.StatEntry, at span.Span) (*RecordVal, error) {
	rec, err := i.statRecord(kind, name, stats)
	if err != nil {
		return nil, err
	}
	if err := i.bindGlobal(name, rec, at); err != nil {
		return nil, err
	}
	i.world.Spawn(name, kind, rec)
	i.log.Debug("Registered "+kind, "name", name)
	return rec, nil
}

func (i *Interpreter) declareStatusEffect(d ast.Decl) error {
	s, ok := d.(*ast.StatusEffectDecl)
	if !ok {
		return nil
	}
	rec := NewRecord("statusEffect", s.Name)
	scope := i.global.Child()
	for _, f := range s.Fields {
		val, err := i.fieldValue(scope, s.Name, f)
		if err != nil {
			return err
		}
		scope.Define(f.Name(), val, false)
		rec.Set(f.Name(), val)
	}
	i.statusEffects[s.Name] = rec
	if err := i.bindGlobal(s.Name, rec, s.Span); err != nil {
		return err
	}
	i.log.Debug("Registered status effect", "name", s.Name, "line", s.Span.Line())
	return nil
}

func (i *Interpreter) declareItem(d ast.Decl) error {
	it, ok := d.(*ast.ItemDecl)
	if !ok {
		return nil
	}
	rec, err := i.statRecord("item", it.Name, it.Props)
	if err != nil {
		return err
	}
	if it.Passive != nil {
		passive, err := i.evalExpr(it.Passive)
		if err != nil {
			return err
		}
		rec.Set("passive", passive)
	}
	if err := i.bindGlobal(it.Name, rec, it.Span); err != nil {
		return err
	}
	i.log.Debug("Registered item", "name", it.Name, "line", it.Span.Line())
	return nil
}

func (i *Interpreter) declareCreep(d ast.Decl) error {
	c, ok := d.(*ast.CreepDecl)
	if !ok {
		return nil
	}
	if _, err := i.declareStructure("creep", c.Name, c.Stats, c.Span); err != nil {
		return err
	}
	return nil
}

func (i *Interpreter) declareFunction(d ast.Decl) error {
	f, ok := d.(*ast.FuncDecl)
	if !ok {
		return nil
	}
	if err := i.bindGlobal(f.Name, &FunctionVal{Decl: f, Closure: i.global}, f.Span); err != nil {
		return err
	}
	i.log.Debug("Registered function", "name", f.Name, "params", len(f.Params), "line", f.Span.Line())
	return nil
}

// bindGlobal binds a declared name in the global scope. A constant of the
// same name cannot be shadowed.
func (i *Interpreter) bindGlobal(name string, v Value, at span.Span) error {
	if err := i.global.Define(name, v, false); err != nil {
		return runtimeErr(ConstAssignment, at, name, "Cannot redeclare constant '%s'.", name)
	}
	return nil
}

// execTopLevel runs a statement written directly in the program body.
func (i *Interpreter) execTopLevel(d ast.Decl) error {
	s, ok := d.(*ast.StmtDecl)
	if !ok {
		return nil
	}
	result, err := i.execStmt(s.Stmt)
	if err != nil {
		return err
	}
	return i.straySignal(result, s.Stmt)
}

// straySignal reports a control signal that escaped every enclosing
// construct able to handle it.
func (i *Interpreter) straySignal(result ExecResult, at ast.Node) error {
	switch result.Signal {
	case SigReturn:
		return runtimeErr(UnsupportedOperator, at.GetSpan(), "return", "Cannot return from top-level code.")
	case SigBreak:
		return runtimeErr(UnsupportedOperator, at.GetSpan(), "break", "'break' outside of a loop.")
	case SigContinue:
		return runtimeErr(UnsupportedOperator, at.GetSpan(), "continue", "'continue' outside of a loop.")
	}
	return nil
}
