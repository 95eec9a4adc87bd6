package token

import (
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Table classifies raw lexemes into token kinds. It is built once by
// NewTable and never mutated afterwards, so a single Table may be shared
// between any number of lexers.
type Table struct {
	punct     map[string]Kind // single-character punctuation and operators
	operators map[string]Kind // two-character operators
	keywords  map[string]Kind

	stringShape     *regexp.Regexp
	numberShape     *regexp.Regexp
	percentageShape *regexp.Regexp
	durationShape   *regexp.Regexp
}

// NewTable builds the classification table for the game language.
func NewTable() *Table {
	t := &Table{
		punct: map[string]Kind{
			"(": LPAREN, ")": RPAREN,
			"{": LBRACE, "}": RBRACE,
			"[": LBRACKET, "]": RBRACKET,
			",": COMMA, ".": DOT, ";": SEMICOLON, ":": COLON,
			"+": PLUS, "-": MINUS, "*": STAR, "/": SLASH,
			"=": ASSIGN, "<": LT, ">": GT, "!": BANG,
		},
		operators: map[string]Kind{
			"<=": LTE, ">=": GTE, "==": EQ, "!=": NEQ,
			"&&": AND, "||": OR, "|>": PIPE,
			"++": INCR, "--": DECR,
			"+=": PLUS_ASSIGN, "-=": MINUS_ASSIGN, "*=": STAR_ASSIGN, "/=": SLASH_ASSIGN,
		},
		keywords: make(map[string]Kind),

		stringShape:     regexp.MustCompile(`^".*"$`),
		numberShape:     regexp.MustCompile(`^(\d+(\.\d+)?|\.\d+)$`),
		percentageShape: regexp.MustCompile(`^(\d+(\.\d+)?|\.\d+)%$`),
		durationShape:   regexp.MustCompile(`^(\d+(\.\d+)?|\.\d+)s$`),
	}
	for k := KW_GAME; k <= KW_CASTER; k++ {
		t.keywords[kindNames[k]] = k
	}
	t.keywords["and"] = AND
	t.keywords["or"] = OR
	return t
}

// Punct looks up a single-character punctuation or operator.
func (t *Table) Punct(s string) (Kind, bool) {
	k, ok := t.punct[s]
	return k, ok
}

// Operator looks up a two-character operator.
func (t *Table) Operator(s string) (Kind, bool) {
	k, ok := t.operators[s]
	return k, ok
}

// Keyword looks up a reserved word.
func (t *Table) Keyword(word string) (Kind, bool) {
	k, ok := t.keywords[word]
	return k, ok
}

// Keywords returns every reserved word in sorted order.
func (t *Table) Keywords() []string {
	words := make([]string, 0, len(t.keywords))
	for w := range t.keywords {
		words = append(words, w)
	}
	sort.Strings(words)
	return words
}

// Classify maps a lexeme to its kind: fixed maps first, then literal shapes,
// and IDENT for anything else.
func (t *Table) Classify(lexeme string) Kind {
	if k, ok := t.operators[lexeme]; ok {
		return k
	}
	if k, ok := t.punct[lexeme]; ok {
		return k
	}
	if k, ok := t.keywords[lexeme]; ok {
		return k
	}
	switch {
	case t.stringShape.MatchString(lexeme):
		return STRING
	case t.numberShape.MatchString(lexeme):
		return NUMBER
	case t.percentageShape.MatchString(lexeme):
		return PERCENTAGE
	case t.durationShape.MatchString(lexeme):
		return DURATION
	}
	return IDENT
}

// Literal derives the literal value carried by a token of the given kind.
// Numeric kinds yield the parsed magnitude as float64 (durations are
// truncated to whole seconds), STRING yields the text between the quotes,
// and every other kind yields nil.
func (t *Table) Literal(kind Kind, lexeme string) interface{} {
	switch kind {
	case STRING:
		if len(lexeme) >= 2 {
			return lexeme[1 : len(lexeme)-1]
		}
		return ""
	case NUMBER:
		return parseMagnitude(lexeme)
	case PERCENTAGE:
		return parseMagnitude(strings.TrimSuffix(lexeme, "%"))
	case DURATION:
		return math.Trunc(parseMagnitude(strings.TrimSuffix(lexeme, "s")))
	default:
		return nil
	}
}

func parseMagnitude(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
