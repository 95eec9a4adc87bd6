package runtime

import (
	"math"

	"github.com/pkg/errors"

	"moba-lang/internal/span"
)

// ============================================================
// Native effects
// ============================================================

// Effect is a built-in effect usable with apply. Fn mutates the target.
type Effect struct {
	Name  string
	Arity int
	Fn    func(target *Entity, args []Value) error
}

func nativeEffects() map[string]*Effect {
	effects := []*Effect{
		{Name: "damage", Arity: 1, Fn: func(target *Entity, args []Value) error {
			amount, err := numberArg(args, 0, "amount")
			if err != nil {
				return err
			}
			hp, _ := target.Stat("hp")
			target.SetStat("hp", math.Max(0, hp-amount))
			return nil
		}},
		{Name: "heal", Arity: 1, Fn: func(target *Entity, args []Value) error {
			amount, err := numberArg(args, 0, "amount")
			if err != nil {
				return err
			}
			hp, _ := target.Stat("hp")
			healed := hp + amount
			if base, ok := target.BaseStat("hp"); ok {
				healed = math.Min(healed, math.Max(base, hp))
			}
			target.SetStat("hp", healed)
			return nil
		}},
		{Name: "modify", Arity: 2, Fn: func(target *Entity, args []Value) error {
			stat, err := stringArg(args, 0, "stat")
			if err != nil {
				return err
			}
			delta, err := numberArg(args, 1, "delta")
			if err != nil {
				return err
			}
			target.ModifyStat(stat, delta)
			return nil
		}},
		{Name: "set_stat", Arity: 2, Fn: func(target *Entity, args []Value) error {
			stat, err := stringArg(args, 0, "stat")
			if err != nil {
				return err
			}
			v, err := numberArg(args, 1, "value")
			if err != nil {
				return err
			}
			target.SetStat(stat, v)
			return nil
		}},
	}
	m := make(map[string]*Effect, len(effects))
	for _, e := range effects {
		m[e.Name] = e
	}
	return m
}

func numberArg(args []Value, idx int, name string) (float64, error) {
	n, ok := args[idx].(NumberVal)
	if !ok {
		return 0, errors.Errorf("%s must be a number, got %s", name, args[idx].TypeName())
	}
	return float64(n), nil
}

func stringArg(args []Value, idx int, name string) (string, error) {
	s, ok := args[idx].(StringVal)
	if !ok {
		return "", errors.Errorf("%s must be a string, got %s", name, args[idx].TypeName())
	}
	return string(s), nil
}

// ============================================================
// Apply dispatch
// ============================================================

// applyEffect applies the effect called name to target. Native effects win
// over declared status effects, which win over user functions.
func (i *Interpreter) applyEffect(name string, args []Value, names []string, target, caster *Entity, at span.Span) error {
	if eff, ok := i.effects[name]; ok {
		for _, n := range names {
			if n != "" {
				return runtimeErr(Arity, at, n, "Effect '%s' does not take named arguments.", name)
			}
		}
		if eff.Arity >= 0 && len(args) != eff.Arity {
			return runtimeErr(Arity, at, name, "Expected %d arguments but got %d.", eff.Arity, len(args))
		}
		if err := eff.Fn(target, args); err != nil {
			return runtimeErr(Native, at, name, "%s: %v", name, err)
		}
		i.log.Trace("Applied effect", "effect", name, "target", target.Name)
		return nil
	}

	if desc, ok := i.statusEffects[name]; ok {
		return i.attach(desc, args, names, target, caster, at)
	}

	if v, ok := i.env.Get(name); ok {
		if fn, ok := v.(*FunctionVal); ok {
			prev := i.ctx
			i.ctx = ExecContext{Self: prev.Self, Target: target, Caster: caster}
			defer func() { i.ctx = prev }()

			res, err := i.callFunction(fn, args, names, at)
			if err != nil {
				return err
			}
			if eff, ok := res.(*EffectVal); ok {
				return i.applyValue(eff, target, caster, at)
			}
			return nil
		}
	}
	return runtimeErr(UnknownEffect, at, name, "Unknown effect '%s'.", name)
}

// applyValue applies every stage of an unapplied effect in order.
func (i *Interpreter) applyValue(eff *EffectVal, target, caster *Entity, at span.Span) error {
	for _, stage := range eff.Stages() {
		if err := i.applyEffect(stage.Name, stage.Args, stage.Names, target, caster, at); err != nil {
			return err
		}
	}
	return nil
}

// attach puts a declared status effect on target, or refreshes it when
// already present, then runs its on_apply hook.
//
// The duration is taken from a `duration:` argument, then the declared
// duration field, then a leading numeric argument, else one second.
func (i *Interpreter) attach(desc *RecordVal, args []Value, names []string, target, caster *Entity, at span.Span) error {
	var (
		duration   = 1.0
		found      bool
		positional []Value
	)
	for k, a := range args {
		if k < len(names) && names[k] != "" {
			if names[k] != "duration" {
				return runtimeErr(Arity, at, names[k], "Unknown parameter '%s' for '%s'.", names[k], desc.Name)
			}
			n, ok := a.(NumberVal)
			if !ok {
				return runtimeErr(TypeMismatch, at, names[k], "Duration must be a number.")
			}
			duration, found = float64(n), true
			continue
		}
		positional = append(positional, a)
	}
	if !found {
		if n, ok := desc.Number("duration"); ok {
			duration, found = n, true
		}
	}
	if !found && len(positional) > 0 {
		if n, ok := positional[0].(NumberVal); ok {
			duration = float64(n)
		}
	}
	remaining := int64(math.Ceil(duration))

	ae, ok := target.Effect(desc.Name)
	if ok {
		ae.Remaining = remaining
		ae.Args = positional
		ae.Caster = caster
	} else {
		ae = &AppliedEffect{
			Name:       desc.Name,
			Descriptor: desc,
			Remaining:  remaining,
			Caster:     caster,
			Args:       positional,
		}
		target.Effects = append(target.Effects, ae)
	}
	i.log.Debug("Attached status effect", "effect", desc.Name, "target", target.Name, "remaining", remaining, "refreshed", ok)
	return i.runHook(ae, target, "on_apply", at)
}

// runHook triggers one of on_apply, on_tick and on_expire.
func (i *Interpreter) runHook(ae *AppliedEffect, ent *Entity, hook string, at span.Span) error {
	v, ok := ae.Descriptor.Get(hook)
	if !ok {
		return nil
	}
	switch h := v.(type) {
	case *BehaviorVal:
		ctx := ExecContext{Self: ent, Target: ent, Caster: ae.Caster}
		bindings := map[string]Value{"args": &ListVal{Elements: append([]Value(nil), ae.Args...)}}
		res, err := i.runBehavior(h, ctx, bindings, at)
		if err != nil {
			return err
		}
		if eff, ok := res.(*EffectVal); ok {
			return i.applyValue(eff, ent, ae.Caster, at)
		}
	case *EffectVal:
		return i.applyValue(h, ent, ae.Caster, at)
	}
	return nil
}

// runBehavior executes a stored behavior block in a fresh child scope of
// its closure with ctx active.
func (i *Interpreter) runBehavior(b *BehaviorVal, ctx ExecContext, bindings map[string]Value, at span.Span) (Value, error) {
	leave, err := i.enter(at, b.Owner)
	if err != nil {
		return nil, err
	}
	defer leave()

	prev := i.ctx
	i.ctx = ctx
	defer func() { i.ctx = prev }()

	env := b.Closure.Child()
	for name, v := range bindings {
		env.Define(name, v, false)
	}
	result, err := i.execBlock(b.Body, env)
	if err != nil {
		return nil, err
	}
	switch result.Signal {
	case SigReturn:
		return result.Value, nil
	case SigBreak, SigContinue:
		return nil, i.straySignal(result, b.Body)
	}
	return NilVal{}, nil
}

// ============================================================
// World simulation
// ============================================================

// tick advances the world clock by seconds. Every second lowers ability
// cooldowns, runs on_tick of each applied effect and expires effects whose
// remaining duration reaches zero.
func (i *Interpreter) tick(seconds int64, at span.Span) error {
	for s := int64(0); s < seconds; s++ {
		i.world.clock++
		for _, ent := range i.world.Entities() {
			for ability, cd := range ent.Cooldowns {
				if cd > 0 {
					ent.Cooldowns[ability] = cd - 1
				}
			}
			for _, ae := range append([]*AppliedEffect(nil), ent.Effects...) {
				if err := i.runHook(ae, ent, "on_tick", at); err != nil {
					return err
				}
				ae.Remaining--
				if ae.Remaining <= 0 {
					ent.detach(ae)
					i.log.Debug("Status effect expired", "effect", ae.Name, "entity", ent.Name, "clock", i.world.clock)
					if err := i.runHook(ae, ent, "on_expire", at); err != nil {
						return err
					}
				}
			}
		}
	}
	return nil
}

// cast triggers a hero ability against target. It reports false without
// side effects while the ability is cooling down or the hero lacks mana.
func (i *Interpreter) cast(hero *Entity, ability string, target *Entity, at span.Span) (bool, error) {
	desc := findAbility(hero, ability)
	if desc == nil {
		return false, runtimeErr(UndefinedVariable, at, ability, "Hero '%s' has no ability '%s'.", hero.Name, ability)
	}
	if target == nil {
		target = hero
	}
	if hero.Cooldowns[ability] > 0 {
		i.log.Debug("Ability on cooldown", "hero", hero.Name, "ability", ability, "left", hero.Cooldowns[ability])
		return false, nil
	}
	if cost, ok := desc.Number("mana_cost"); ok && cost > 0 {
		mana, _ := hero.Stat("mana")
		if mana < cost {
			i.log.Debug("Not enough mana", "hero", hero.Name, "ability", ability, "mana", mana, "cost", cost)
			return false, nil
		}
		hero.ModifyStat("mana", -cost)
	}

	behavior, _ := desc.Get("behavior")
	switch b := behavior.(type) {
	case *BehaviorVal:
		res, err := i.runBehavior(b, ExecContext{Self: hero, Target: target, Caster: hero}, nil, at)
		if err != nil {
			return false, err
		}
		if eff, ok := res.(*EffectVal); ok {
			if err := i.applyValue(eff, target, hero, at); err != nil {
				return false, err
			}
		}
	case *EffectVal:
		if err := i.applyValue(b, target, hero, at); err != nil {
			return false, err
		}
	}

	if cd, ok := desc.Number("cooldown"); ok && cd > 0 {
		hero.Cooldowns[ability] = int64(math.Ceil(cd))
	}
	return true, nil
}

func findAbility(hero *Entity, name string) *RecordVal {
	if hero.Descriptor == nil {
		return nil
	}
	v, _ := hero.Descriptor.Get("abilities")
	list, ok := v.(*ListVal)
	if !ok {
		return nil
	}
	for _, el := range list.Elements {
		if rec, ok := el.(*RecordVal); ok && rec.Name == name {
			return rec
		}
	}
	return nil
}

// equip adds an item's numeric properties to the hero and applies its
// passive to the hero.
func (i *Interpreter) equip(hero *Entity, item *RecordVal, at span.Span) error {
	for _, key := range item.Keys() {
		if key == "passive" {
			continue
		}
		if n, ok := item.Number(key); ok {
			hero.ModifyStat(key, n)
			if b, ok := hero.base[key]; ok {
				hero.base[key] = b + n
			}
		}
	}
	hero.Items = append(hero.Items, item.Name)
	i.log.Debug("Equipped item", "hero", hero.Name, "item", item.Name)

	if p, ok := item.Get("passive"); ok {
		if eff, ok := p.(*EffectVal); ok {
			return i.applyValue(eff, hero, hero, at)
		}
	}
	return nil
}

// entityArg accepts an entity, a descriptor or an entity name.
func (i *Interpreter) entityArg(v Value) (*Entity, error) {
	var name string
	switch a := v.(type) {
	case *Entity:
		return a, nil
	case *RecordVal:
		name = a.Name
	case StringVal:
		name = string(a)
	default:
		return nil, runtimeErr(TypeMismatch, span.Span{}, "", "Expected an entity, got %s.", v.TypeName())
	}
	ent, ok := i.world.Lookup(name)
	if !ok {
		return nil, runtimeErr(UnknownEntity, span.Span{}, name, "Unknown entity '%s'.", name)
	}
	return ent, nil
}
