package diag

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"moba-lang/internal/span"
)

func TestDiagnosticString(t *testing.T) {
	at := span.At(3, 7)
	assert.Equal(t, "[line 3] Error: Unterminated string.",
		Errorf("E1002", at, "Unterminated string.").String())
	assert.Equal(t, "[line 3] Error at ';': Expect expression.",
		Errorf("E2001", at, "Expect expression.").WithLexeme(";", false).String())
	assert.Equal(t, "[line 3] Error at end: Expect '}' after block.",
		Errorf("E2001", at, "Expect '}' after block.").WithLexeme("", true).String())
	assert.Equal(t, "[line 3] Warning: unused (hint: remove it)",
		Warningf("W1001", at, "unused").WithHint("remove it").String())
}

func TestDiagnosticStage(t *testing.T) {
	assert.Equal(t, Lexical, Diagnostic{Code: "E1001"}.Stage())
	assert.Equal(t, Syntax, Diagnostic{Code: "W2001"}.Stage())
	assert.Equal(t, Runtime, Diagnostic{Code: "E3003"}.Stage())
	assert.Equal(t, Runtime, Diagnostic{}.Stage())
}

func TestHasErrors(t *testing.T) {
	warn := Warningf("W1001", span.At(1, 1), "w")
	assert.False(t, HasErrors(nil))
	assert.False(t, HasErrors([]Diagnostic{warn}))
	assert.True(t, HasErrors([]Diagnostic{warn, Errorf("E1001", span.At(2, 1), "e")}))
}
