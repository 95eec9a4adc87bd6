package runtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moba-lang/internal/ast"
)

func goblin() *RecordVal {
	rec := NewRecord("creep", "Goblin")
	rec.Set("hp", NumberVal(100))
	rec.Set("label", StringVal("green"))
	rec.Set("speed", NumberVal(300))
	return rec
}

func TestWorldSpawn(t *testing.T) {
	w := NewWorld()
	w.Spawn("Goblin", "creep", goblin())
	w.Spawn("Axe", "hero", nil)

	ent, ok := w.Lookup("Goblin")
	require.True(t, ok)
	assert.Equal(t, []string{"hp", "speed"}, ent.StatNames())
	base, ok := ent.BaseStat("hp")
	require.True(t, ok)
	assert.Equal(t, 100.0, base)

	// Respawning keeps the registration order.
	w.Spawn("Goblin", "creep", goblin())
	var names []string
	for _, e := range w.Entities() {
		names = append(names, e.Name)
	}
	assert.Equal(t, []string{"Goblin", "Axe"}, names)

	_, ok = w.Lookup("Nobody")
	assert.False(t, ok)
}

func TestEntityString(t *testing.T) {
	ent := NewWorld().Spawn("Goblin", "creep", goblin())
	ent.ModifyStat("hp", -25.5)
	ent.ModifyStat("armor", 2)
	assert.Equal(t, "Entity(Goblin, hp=74.5, speed=300, armor=2)", ent.String())

	burn := &AppliedEffect{Name: "Burn", Remaining: 2}
	ent.Effects = append(ent.Effects, burn, &AppliedEffect{Name: "Slow", Remaining: 1})
	assert.Equal(t, "Entity(Goblin, hp=74.5, speed=300, armor=2) effects=[Burn 2s, Slow 1s]", ent.String())

	ent.detach(burn)
	_, ok := ent.Effect("Burn")
	assert.False(t, ok)
	assert.Len(t, ent.Effects, 1)
}

func TestExecContextResolve(t *testing.T) {
	self, other := &Entity{Name: "a"}, &Entity{Name: "b"}
	ctx := ExecContext{Self: self, Target: other}
	assert.Same(t, self, ctx.resolve(ast.TargetSelf))
	assert.Same(t, other, ctx.resolve(ast.TargetTarget))
	assert.Nil(t, ctx.resolve(ast.TargetCaster))
}
