package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moba-lang/internal/runtime"
)

func newTestSession(t *testing.T) (*Session, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	color.NoColor = true
	var out, errOut bytes.Buffer
	s := NewSession(&out, &errOut, runtime.WithExporter(&runtime.MemoryExporter{}))
	return s, &out, &errOut
}

// feed sends each line to the session and reports whether it is still open.
func feed(s *Session, lines ...string) bool {
	for _, line := range lines {
		if !s.Handle(line) {
			return false
		}
	}
	return true
}

func TestSessionRun(t *testing.T) {
	s, out, errOut := newTestSession(t)
	require.True(t, feed(s, `set x = 2;`, `print(x * 21);`))
	assert.Equal(t, 2, s.Pending())

	require.True(t, s.Handle(":run"))
	assert.Equal(t, "42\nProgram executed successfully.\n", out.String())
	assert.Empty(t, errOut.String())
	assert.Equal(t, 0, s.Pending())
}

func TestSessionRunStartsFresh(t *testing.T) {
	s, out, errOut := newTestSession(t)
	feed(s, `set x = 1;`, ":run")
	out.Reset()

	feed(s, `print(x);`, ":run")
	assert.Empty(t, out.String())
	assert.Contains(t, errOut.String(), "Undefined variable 'x'.")
}

func TestSessionEvaluate(t *testing.T) {
	s, out, _ := newTestSession(t)
	feed(s, `1 + 2 * 3`, ":evaluate")
	assert.Equal(t, "Result: 7\n", out.String())

	// Globals of the last run are visible to :evaluate.
	out.Reset()
	feed(s, `const LEVEL = 6;`, ":run")
	out.Reset()
	feed(s, `LEVEL * 2`, ":evaluate")
	assert.Equal(t, "Result: 12\n", out.String())
}

func TestSessionEmptyBuffer(t *testing.T) {
	s, out, _ := newTestSession(t)
	feed(s, ":tokens", ":parse", ":evaluate", ":run")
	assert.Equal(t, "[tokens] Buffer is empty.\n"+
		"[parse] Buffer is empty.\n"+
		"[evaluate] Buffer is empty.\n"+
		"[run] Buffer is empty.\n", out.String())
}

func TestSessionTokensKeepsBuffer(t *testing.T) {
	s, out, _ := newTestSession(t)
	feed(s, `set hp = 100;`, ":tokens")
	assert.Contains(t, out.String(), "IDENTIFIER")
	assert.Contains(t, out.String(), "hp")
	assert.Equal(t, 1, s.Pending())
}

func TestSessionParse(t *testing.T) {
	s, out, _ := newTestSession(t)
	feed(s, `set hp = 100;`, ":parse")
	assert.True(t, strings.HasPrefix(out.String(), "Program"))
	assert.Contains(t, out.String(), "VarDecl")
	assert.Equal(t, 0, s.Pending())
}

func TestSessionDiagnostics(t *testing.T) {
	s, out, errOut := newTestSession(t)
	feed(s, `set = ;`, ":run")
	assert.Empty(t, out.String())
	assert.Contains(t, errOut.String(), "[line 1] Error at '='")
	assert.Equal(t, 0, s.Pending())
}

func TestSessionEnv(t *testing.T) {
	s, out, _ := newTestSession(t)
	feed(s, ":env")
	assert.Equal(t, "[env] Nothing has been run yet.\n", out.String())

	out.Reset()
	feed(s, `set gold = 625;`, `const CAP = 99999;`, ":run")
	out.Reset()
	feed(s, ":env")
	table := out.String()
	assert.Contains(t, table, "gold")
	assert.Contains(t, table, "const number")
	assert.NotContains(t, table, "native")
}

func TestSessionCommands(t *testing.T) {
	s, out, errOut := newTestSession(t)
	feed(s, `print(1);`, ":clear")
	assert.Equal(t, "[ok] Buffer cleared.\n", out.String())
	assert.Equal(t, 0, s.Pending())

	feed(s, ":bogus")
	assert.Contains(t, errOut.String(), "Unknown command ':bogus'.")

	out.Reset()
	feed(s, ":help")
	assert.Contains(t, out.String(), ":evaluate")

	out.Reset()
	assert.False(t, s.Handle(" :q "))
	assert.Equal(t, "Goodbye!\n", out.String())
	assert.False(t, s.Handle(":quit"))
}

func TestScanLoop(t *testing.T) {
	s, out, _ := newTestSession(t)
	input := "print(\"gg\");\n:run\n:quit\nprint(\"unreached\");\n"
	require.NoError(t, scanLoop(strings.NewReader(input), s))
	assert.Equal(t, "gg\nProgram executed successfully.\nGoodbye!\n", out.String())
	assert.Equal(t, 0, s.Pending())
}
