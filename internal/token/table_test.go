package token

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	table := NewTable()
	tests := []struct {
		lexeme string
		want   Kind
	}{
		{"|>", PIPE},
		{"+=", PLUS_ASSIGN},
		{"+", PLUS},
		{";", SEMICOLON},
		{"set", KW_SET},
		{"and", AND},
		{"or", OR},
		{`"Axe"`, STRING},
		{"42", NUMBER},
		{".25", NUMBER},
		{"50%", PERCENTAGE},
		{"5s", DURATION},
		{"hp", IDENT},
		{"5x", IDENT},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, table.Classify(tt.lexeme), tt.lexeme)
	}
}

func TestLiteral(t *testing.T) {
	table := NewTable()
	assert.Equal(t, "Axe", table.Literal(STRING, `"Axe"`))
	assert.Equal(t, 42.0, table.Literal(NUMBER, "42"))
	assert.Equal(t, 12.5, table.Literal(PERCENTAGE, "12.5%"))
	assert.Equal(t, 2.0, table.Literal(DURATION, "2.9s"))
	assert.Nil(t, table.Literal(IDENT, "hp"))
}

func TestKeywordTable(t *testing.T) {
	table := NewTable()
	k, ok := table.Keyword("caster")
	assert.True(t, ok)
	assert.Equal(t, KW_CASTER, k)
	assert.True(t, k.IsKeyword())
	assert.True(t, k.IsWord())

	_, ok = table.Keyword("Caster")
	assert.False(t, ok)
	assert.Contains(t, table.Keywords(), "set")
	assert.Equal(t, "Kind(-1)", Kind(-1).String())
}
