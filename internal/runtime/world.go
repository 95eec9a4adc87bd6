package runtime

import (
	"fmt"
	"strings"

	"moba-lang/internal/ast"
)

// World holds the live entities a program acts upon. Heroes, creeps,
// turrets and cores each register one entity seeded from their numeric
// descriptor fields.
type World struct {
	entities map[string]*Entity
	order    []string
	clock    int64 // seconds advanced by tick()
}

// NewWorld creates an empty world.
func NewWorld() *World {
	return &World{entities: make(map[string]*Entity)}
}

// Spawn registers an entity built from a descriptor, replacing any entity
// of the same name.
func (w *World) Spawn(name, kind string, desc *RecordVal) *Entity {
	ent := &Entity{
		Name:       name,
		Kind:       kind,
		Stats:      make(map[string]float64),
		base:       make(map[string]float64),
		Cooldowns:  make(map[string]int64),
		Descriptor: desc,
	}
	if desc != nil {
		for _, key := range desc.Keys() {
			if n, ok := desc.Number(key); ok {
				ent.SetStat(key, n)
				ent.base[key] = n
			}
		}
	}
	if _, exists := w.entities[name]; !exists {
		w.order = append(w.order, name)
	}
	w.entities[name] = ent
	return ent
}

// Lookup finds an entity by name.
func (w *World) Lookup(name string) (*Entity, bool) {
	ent, ok := w.entities[name]
	return ent, ok
}

// Entities returns all entities in registration order.
func (w *World) Entities() []*Entity {
	out := make([]*Entity, len(w.order))
	for i, name := range w.order {
		out[i] = w.entities[name]
	}
	return out
}

// Clock returns the number of seconds advanced so far.
func (w *World) Clock() int64 {
	return w.clock
}

// Entity is a live game object.
type Entity struct {
	Name       string
	Kind       string // hero, creep, turret, core
	Team       string
	Stats      map[string]float64
	Effects    []*AppliedEffect
	Cooldowns  map[string]int64 // ability name -> seconds left
	Items      []string
	Descriptor *RecordVal

	statOrder []string
	base      map[string]float64 // stats at spawn time
}

func (e *Entity) TypeName() string { return "entity" }

// String renders the entity the way the world dump prints it:
//
//	Entity(Axe, hp=100, mana=50) effects=[Burn 2s]
func (e *Entity) String() string {
	var sb strings.Builder
	sb.WriteString("Entity(" + e.Name)
	for _, name := range e.statOrder {
		fmt.Fprintf(&sb, ", %s=%s", name, ast.FormatNumber(e.Stats[name]))
	}
	sb.WriteString(")")
	if len(e.Effects) > 0 {
		parts := make([]string, len(e.Effects))
		for i, ae := range e.Effects {
			parts[i] = fmt.Sprintf("%s %ds", ae.Name, ae.Remaining)
		}
		sb.WriteString(" effects=[" + strings.Join(parts, ", ") + "]")
	}
	return sb.String()
}

// Stat returns the current value of a stat.
func (e *Entity) Stat(name string) (float64, bool) {
	v, ok := e.Stats[name]
	return v, ok
}

// BaseStat returns the value a stat had when the entity spawned.
func (e *Entity) BaseStat(name string) (float64, bool) {
	v, ok := e.base[name]
	return v, ok
}

// SetStat sets a stat, creating it when missing.
func (e *Entity) SetStat(name string, v float64) {
	if _, exists := e.Stats[name]; !exists {
		e.statOrder = append(e.statOrder, name)
	}
	e.Stats[name] = v
}

// ModifyStat adds delta to a stat; a missing stat counts as zero.
func (e *Entity) ModifyStat(name string, delta float64) {
	e.SetStat(name, e.Stats[name]+delta)
}

// StatNames returns stat names in the order they were first set.
func (e *Entity) StatNames() []string {
	return append([]string(nil), e.statOrder...)
}

// Effect returns the applied status effect with the given name.
func (e *Entity) Effect(name string) (*AppliedEffect, bool) {
	for _, ae := range e.Effects {
		if ae.Name == name {
			return ae, true
		}
	}
	return nil, false
}

func (e *Entity) detach(target *AppliedEffect) {
	for i, ae := range e.Effects {
		if ae == target {
			e.Effects = append(e.Effects[:i], e.Effects[i+1:]...)
			return
		}
	}
}

// AppliedEffect is a status effect attached to an entity.
type AppliedEffect struct {
	Name       string
	Descriptor *RecordVal
	Remaining  int64 // whole seconds
	Caster     *Entity
	Args       []Value
}

// ExecContext names the entities behind self, target and caster while a
// behavior runs. Outside behaviors all three are nil.
type ExecContext struct {
	Self   *Entity
	Target *Entity
	Caster *Entity
}

// resolve returns the entity for a context keyword.
func (c ExecContext) resolve(kind ast.TargetKind) *Entity {
	switch kind {
	case ast.TargetSelf:
		return c.Self
	case ast.TargetTarget:
		return c.Target
	case ast.TargetCaster:
		return c.Caster
	default:
		return nil
	}
}
