package main

import (
	"bytes"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"

	"moba-lang/internal/runtime"
)

func runCapture(source string) (bool, string, string) {
	color.NoColor = true
	var out, errOut bytes.Buffer
	ok := runProgram(source, &out, &errOut, runtime.WithExporter(&runtime.MemoryExporter{}))
	return ok, out.String(), errOut.String()
}

func TestRunProgram(t *testing.T) {
	ok, out, errOut := runCapture(`set hp = 600; print(hp - 25);`)
	assert.True(t, ok)
	assert.Equal(t, "575\n", out)
	assert.Empty(t, errOut)
}

func TestRunProgramReportsWarnings(t *testing.T) {
	ok, out, errOut := runCapture(`Arena { team Radiant { } } print("ok");`)
	assert.True(t, ok)
	assert.Equal(t, "ok\n", out)
	assert.Contains(t, errOut, "Team Radiant has no core.")
}

func TestRunProgramFailures(t *testing.T) {
	ok, out, errOut := runCapture(`print(1.5s);`)
	assert.False(t, ok)
	assert.Empty(t, out)
	assert.Contains(t, errOut, "[line 1] Error: Duration '1.5s' must be a whole number of seconds.")

	ok, _, errOut = runCapture(`print(1 +);`)
	assert.False(t, ok)
	assert.Contains(t, errOut, "Expect expression.")

	ok, _, errOut = runCapture("\nprint(1 / 0);")
	assert.False(t, ok)
	assert.Equal(t, "[line 2] Error: Division by zero.\n", errOut)
}

func TestEvalExpression(t *testing.T) {
	color.NoColor = true
	var out, errOut bytes.Buffer
	assert.True(t, evalExpression("2 * 50% + 1", &out, &errOut))
	assert.Equal(t, "2\n", out.String())

	out.Reset()
	assert.False(t, evalExpression("1 +", &out, &errOut))
	assert.Empty(t, out.String())
	assert.Contains(t, errOut.String(), "Expect expression.")
}
