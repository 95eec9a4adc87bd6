package lexer

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moba-lang/internal/diag"
	"moba-lang/internal/token"
)

// tokenize lexes source text and returns the tokens (EOF excluded) and rendered diagnostics.
func tokenize(t *testing.T, source string) ([]token.Token, []string) {
	t.Helper()
	tokens, diags := FromText(source).Tokenize()
	require.NotEmpty(t, tokens)
	require.Equal(t, token.EOF, tokens[len(tokens)-1].Kind, "last token must be EOF")
	msgs := make([]string, len(diags))
	for i, d := range diags {
		msgs[i] = d.String()
	}
	return tokens[:len(tokens)-1], msgs
}

func kinds(tokens []token.Token) []token.Kind {
	out := make([]token.Kind, len(tokens))
	for i, tok := range tokens {
		out[i] = tok.Kind
	}
	return out
}

func TestTokenizeSimple(t *testing.T) {
	tokens, diags := tokenize(t, `set x = 1 + 2;`)
	assert.Empty(t, diags)

	want := []token.Kind{
		token.KW_SET, token.IDENT, token.ASSIGN,
		token.NUMBER, token.PLUS, token.NUMBER, token.SEMICOLON,
	}
	if diff := cmp.Diff(want, kinds(tokens)); diff != "" {
		t.Errorf("kinds mismatch (-want +got):\n%s", diff)
	}
}

func TestTokenizeOperators(t *testing.T) {
	tokens, diags := tokenize(t, `= == != < <= > >= + - * / ! && || |> ++ -- += -= *= /= and or`)
	assert.Empty(t, diags)

	want := []token.Kind{
		token.ASSIGN, token.EQ, token.NEQ,
		token.LT, token.LTE, token.GT, token.GTE,
		token.PLUS, token.MINUS, token.STAR, token.SLASH, token.BANG,
		token.AND, token.OR, token.PIPE, token.INCR, token.DECR,
		token.PLUS_ASSIGN, token.MINUS_ASSIGN, token.STAR_ASSIGN, token.SLASH_ASSIGN,
		token.AND, token.OR,
	}
	if diff := cmp.Diff(want, kinds(tokens)); diff != "" {
		t.Errorf("kinds mismatch (-want +got):\n%s", diff)
	}
}

func TestTokenizeKeywords(t *testing.T) {
	source := `GAME Heroes hero heroStat abilities ability cooldown mana_cost behavior Arena team turrets core
StatusEffects statusEffect on_apply on_tick on_expire Items item passive Creeps creep Functions function
apply to self target caster`
	tokens, diags := tokenize(t, source)
	assert.Empty(t, diags)

	want := []token.Kind{
		token.KW_GAME, token.KW_HEROES, token.KW_HERO, token.KW_HERO_STAT, token.KW_ABILITIES,
		token.KW_ABILITY, token.KW_COOLDOWN, token.KW_MANA_COST, token.KW_BEHAVIOR,
		token.KW_ARENA, token.KW_TEAM, token.KW_TURRETS, token.KW_CORE,
		token.KW_STATUS_EFFECTS, token.KW_STATUS_EFFECT, token.KW_ON_APPLY, token.KW_ON_TICK, token.KW_ON_EXPIRE,
		token.KW_ITEMS, token.KW_ITEM, token.KW_PASSIVE, token.KW_CREEPS, token.KW_CREEP,
		token.KW_FUNCTIONS, token.KW_FUNCTION,
		token.KW_APPLY, token.KW_TO, token.KW_SELF, token.KW_TARGET, token.KW_CASTER,
	}
	if diff := cmp.Diff(want, kinds(tokens)); diff != "" {
		t.Errorf("kinds mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 3, tokens[len(tokens)-1].Line())
}

func TestNumericLiterals(t *testing.T) {
	cases := []struct {
		input string
		kind  token.Kind
		value float64
	}{
		{"0", token.NUMBER, 0},
		{"42", token.NUMBER, 42},
		{"3.25", token.NUMBER, 3.25},
		{".5", token.NUMBER, 0.5},
		{"50%", token.PERCENTAGE, 50},
		{"12.5%", token.PERCENTAGE, 12.5},
		{"5s", token.DURATION, 5},
		{"120s", token.DURATION, 120},
	}
	for _, tc := range cases {
		t.Run(tc.input, func(t *testing.T) {
			tokens, diags := tokenize(t, tc.input)
			assert.Empty(t, diags)
			require.Len(t, tokens, 1)
			assert.Equal(t, tc.kind, tokens[0].Kind)
			assert.Equal(t, tc.input, tokens[0].Lexeme)
			assert.Equal(t, tc.value, tokens[0].Literal)
		})
	}
}

func TestNumberLiteralProperty(t *testing.T) {
	for _, n := range []float64{1, 7, 10, 99.5, 1234.75, 0.125} {
		lexeme := fmt.Sprint(n)
		tokens, diags := tokenize(t, lexeme)
		assert.Empty(t, diags, lexeme)
		require.Len(t, tokens, 1, lexeme)
		assert.Equal(t, token.NUMBER, tokens[0].Kind, lexeme)
		assert.Equal(t, n, tokens[0].Literal, lexeme)
	}
}

func TestDurationSuffixNeedsWordBoundary(t *testing.T) {
	tokens, diags := tokenize(t, `5sec`)
	assert.Empty(t, diags)
	require.Len(t, tokens, 2)
	assert.Equal(t, token.NUMBER, tokens[0].Kind)
	assert.Equal(t, token.IDENT, tokens[1].Kind)
	assert.Equal(t, "sec", tokens[1].Lexeme)
}

func TestDecimalDurationIsAnError(t *testing.T) {
	tokens, diags := tokenize(t, `2.5s`)
	require.Len(t, tokens, 1)
	assert.Equal(t, token.DURATION, tokens[0].Kind)
	assert.Equal(t, float64(2), tokens[0].Literal)
	require.Len(t, diags, 1)
	assert.Equal(t, "[line 1] Error: Duration '2.5s' must be a whole number of seconds.", diags[0])

	// The token is still emitted, truncated, so parsing can continue.
	_, raw := FromText(`2.5s`).Tokenize()
	require.Len(t, raw, 1)
	assert.Equal(t, "E1004", raw[0].Code)
	assert.Equal(t, diag.Error, raw[0].Severity)
}

func TestDotWithoutDigitIsPunctuation(t *testing.T) {
	tokens, diags := tokenize(t, `hero.hp`)
	assert.Empty(t, diags)
	assert.Equal(t, []token.Kind{token.IDENT, token.DOT, token.IDENT}, kinds(tokens))
}

func TestStringLiteral(t *testing.T) {
	for _, s := range []string{"", "hello", "two words", `say \"hi\"`, "50% off"} {
		tokens, diags := tokenize(t, `"`+s+`"`)
		assert.Empty(t, diags, s)
		require.Len(t, tokens, 1, s)
		assert.Equal(t, token.STRING, tokens[0].Kind)
		assert.Equal(t, s, tokens[0].Literal)
	}
}

func TestUnterminatedString(t *testing.T) {
	tokens, diags := tokenize(t, "set a = \"oops;\nset b = 2;")
	require.Equal(t, []string{"[line 1] Error: Unterminated string."}, diags)
	// The rest of line 1 is skipped; line 2 lexes normally.
	assert.Equal(t, []token.Kind{
		token.KW_SET, token.IDENT, token.ASSIGN,
		token.KW_SET, token.IDENT, token.ASSIGN, token.NUMBER, token.SEMICOLON,
	}, kinds(tokens))
}

func TestUnexpectedCharacterContinues(t *testing.T) {
	tokens, diags := tokenize(t, "set a = 1 @ 2 # 3;")
	assert.Equal(t, []string{
		"[line 1] Error: Unexpected character '@'.",
		"[line 1] Error: Unexpected character '#'.",
	}, diags)
	assert.Len(t, tokens, 7)
}

func TestLoneAmpersandHint(t *testing.T) {
	_, diags := tokenize(t, "a & b")
	require.Len(t, diags, 1)
	assert.Contains(t, diags[0], "did you mean '&&'?")
}

func TestComments(t *testing.T) {
	source := `set a = 1; // trailing
/* block
   still comment set b = 2;
*/ set c = 3;
set d /* inline */ = 4;`
	tokens, diags := tokenize(t, source)
	assert.Empty(t, diags)

	var names []string
	for _, tok := range tokens {
		if tok.Kind == token.IDENT {
			names = append(names, tok.Lexeme)
		}
	}
	assert.Equal(t, []string{"a", "c", "d"}, names)
	assert.Equal(t, 5, tokens[len(tokens)-1].Line())
}

func TestUnterminatedBlockCommentReportedOnce(t *testing.T) {
	tokens, diags := tokenize(t, "set a = 1;\n/* never\nclosed\nat all")
	assert.Equal(t, []string{"[line 2] Error: Unterminated block comment."}, diags)
	assert.Len(t, tokens, 5)
}

func TestEOFLine(t *testing.T) {
	cases := []struct {
		source string
		line   int
	}{
		{"", 1},
		{"set a = 1;", 1},
		{"set a = 1;\nset b = 2;\n\n", 3},
		{"a\nb\nc\nd", 4},
	}
	for _, tc := range cases {
		tokens, _ := FromText(tc.source).Tokenize()
		eofs := 0
		for _, tok := range tokens {
			if tok.Kind == token.EOF {
				eofs++
			}
		}
		assert.Equal(t, 1, eofs, "source %q", tc.source)
		assert.Equal(t, tc.line, tokens[len(tokens)-1].Line(), "source %q", tc.source)
	}
}

func TestPositions(t *testing.T) {
	tokens, _ := tokenize(t, "set hp = 100;\n  print(hp);")
	require.Len(t, tokens, 10)
	assert.Equal(t, 1, tokens[0].Span.Start.Column)
	assert.Equal(t, 5, tokens[1].Span.Start.Column)
	assert.Equal(t, 2, tokens[5].Line())
	assert.Equal(t, 3, tokens[5].Span.Start.Column)
}

func TestUnicodeIdentifiers(t *testing.T) {
	tokens, diags := tokenize(t, `set héros = 1;`)
	assert.Empty(t, diags)
	assert.Equal(t, token.IDENT, tokens[1].Kind)
	assert.Equal(t, "héros", tokens[1].Lexeme)
}

func TestSharedTable(t *testing.T) {
	table := token.NewTable()
	a, _ := NewWithTable([]string{"hero Axe"}, table).Tokenize()
	b, _ := NewWithTable([]string{"creep Kobold"}, table).Tokenize()
	assert.Equal(t, token.KW_HERO, a[0].Kind)
	assert.Equal(t, token.KW_CREEP, b[0].Kind)
}
