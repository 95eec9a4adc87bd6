package runtime

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvironmentScopes(t *testing.T) {
	global := NewEnvironment(nil)
	require.NoError(t, global.Define("hp", NumberVal(100), false))
	require.NoError(t, global.Define("MAX", NumberVal(5), true))

	child := global.Child()
	require.NoError(t, child.Define("hp", NumberVal(1), false))
	assert.Same(t, global, child.Parent())

	v, ok := child.Get("hp")
	require.True(t, ok)
	assert.Equal(t, NumberVal(1), v)

	v, ok = global.Get("hp")
	require.True(t, ok)
	assert.Equal(t, NumberVal(100), v)

	v, ok = child.Get("MAX")
	require.True(t, ok)
	assert.Equal(t, NumberVal(5), v)
	assert.True(t, child.IsConst("MAX"))
	assert.False(t, child.IsConst("hp"))

	_, ok = child.Get("missing")
	assert.False(t, ok)
}

func TestEnvironmentAssign(t *testing.T) {
	global := NewEnvironment(nil)
	global.Define("x", NumberVal(1), false)
	global.Define("K", StringVal("k"), true)
	inner := global.Child().Child()

	require.NoError(t, inner.Assign("x", NumberVal(2)))
	v, _ := global.Get("x")
	assert.Equal(t, NumberVal(2), v)

	assert.True(t, errors.Is(inner.Assign("K", NumberVal(3)), ErrConstAssignment))
	assert.True(t, errors.Is(inner.Assign("nope", NumberVal(3)), ErrUndefinedVariable))
}

func TestEnvironmentDefineConst(t *testing.T) {
	env := NewEnvironment(nil)
	require.NoError(t, env.Define("a", NumberVal(1), false))
	require.NoError(t, env.Define("a", NumberVal(2), false))
	require.NoError(t, env.Define("b", NumberVal(1), true))
	assert.Equal(t, ErrConstAssignment, env.Define("b", NumberVal(2), false))

	// A child scope may shadow a constant.
	require.NoError(t, env.Child().Define("b", NumberVal(9), false))

	assert.Equal(t, []string{"a", "b"}, env.Names())
}
