// Package token defines the token kinds produced by the lexer and consumed by the parser.
package token

import (
	"fmt"

	"moba-lang/internal/span"
)

// Kind represents the type of a token.
type Kind int

const (
	// Special tokens
	ILLEGAL Kind = iota
	EOF

	// Literals
	IDENT      // identifiers: Axe, hp, my_var
	NUMBER     // 42, 3.5, .25
	PERCENTAGE // 50%
	DURATION   // 5s
	STRING     // "hello"

	// Operators
	ASSIGN // =
	PLUS   // +
	MINUS  // -
	STAR   // *
	SLASH  // /
	BANG   // !

	EQ  // ==
	NEQ // !=
	LT  // <
	LTE // <=
	GT  // >
	GTE // >=

	AND  // and, &&
	OR   // or, ||
	PIPE // |>

	INCR // ++
	DECR // --

	// Compound assignment
	PLUS_ASSIGN  // +=
	MINUS_ASSIGN // -=
	STAR_ASSIGN  // *=
	SLASH_ASSIGN // /=

	// Delimiters
	LPAREN    // (
	RPAREN    // )
	LBRACE    // {
	RBRACE    // }
	LBRACKET  // [
	RBRACKET  // ]
	COMMA     // ,
	DOT       // .
	SEMICOLON // ;
	COLON     // :

	// General keywords
	KW_GAME
	KW_IMPORT
	KW_SET
	KW_CONST
	KW_IF
	KW_ELSE
	KW_WHILE
	KW_FOR
	KW_IN
	KW_RETURN
	KW_BREAK
	KW_CONTINUE
	KW_TRUE
	KW_FALSE
	KW_NIL
	KW_FUNCTION
	KW_APPLY
	KW_TO

	// Section headers
	KW_HEROES
	KW_ARENA
	KW_STATUS_EFFECTS
	KW_ITEMS
	KW_CREEPS
	KW_FUNCTIONS

	// Hero and ability vocabulary
	KW_HERO
	KW_HERO_STAT
	KW_ABILITIES
	KW_ABILITY
	KW_TYPE
	KW_COOLDOWN
	KW_MANA_COST
	KW_RANGE
	KW_DAMAGE_TYPE
	KW_BEHAVIOR

	// Arena vocabulary
	KW_TEAM
	KW_TURRET
	KW_TURRETS
	KW_CORE

	// Status effects
	KW_STATUS_EFFECT
	KW_DURATION
	KW_ON_APPLY
	KW_ON_TICK
	KW_ON_EXPIRE

	// Items and creeps
	KW_ITEM
	KW_PASSIVE
	KW_CREEP

	// Apply targets
	KW_SELF
	KW_TARGET
	KW_CASTER
)

var kindNames = map[Kind]string{
	ILLEGAL: "ILLEGAL",
	EOF:     "EOF",

	IDENT:      "IDENTIFIER",
	NUMBER:     "NUMBER",
	PERCENTAGE: "PERCENTAGE",
	DURATION:   "DURATION",
	STRING:     "STRING",

	ASSIGN: "=",
	PLUS:   "+",
	MINUS:  "-",
	STAR:   "*",
	SLASH:  "/",
	BANG:   "!",

	EQ:  "==",
	NEQ: "!=",
	LT:  "<",
	LTE: "<=",
	GT:  ">",
	GTE: ">=",

	AND:  "and",
	OR:   "or",
	PIPE: "|>",
	INCR: "++",
	DECR: "--",

	PLUS_ASSIGN:  "+=",
	MINUS_ASSIGN: "-=",
	STAR_ASSIGN:  "*=",
	SLASH_ASSIGN: "/=",

	LPAREN:    "(",
	RPAREN:    ")",
	LBRACE:    "{",
	RBRACE:    "}",
	LBRACKET:  "[",
	RBRACKET:  "]",
	COMMA:     ",",
	DOT:       ".",
	SEMICOLON: ";",
	COLON:     ":",

	KW_GAME:     "GAME",
	KW_IMPORT:   "import",
	KW_SET:      "set",
	KW_CONST:    "const",
	KW_IF:       "if",
	KW_ELSE:     "else",
	KW_WHILE:    "while",
	KW_FOR:      "for",
	KW_IN:       "in",
	KW_RETURN:   "return",
	KW_BREAK:    "break",
	KW_CONTINUE: "continue",
	KW_TRUE:     "true",
	KW_FALSE:    "false",
	KW_NIL:      "nil",
	KW_FUNCTION: "function",
	KW_APPLY:    "apply",
	KW_TO:       "to",

	KW_HEROES:         "Heroes",
	KW_ARENA:          "Arena",
	KW_STATUS_EFFECTS: "StatusEffects",
	KW_ITEMS:          "Items",
	KW_CREEPS:         "Creeps",
	KW_FUNCTIONS:      "Functions",

	KW_HERO:        "hero",
	KW_HERO_STAT:   "heroStat",
	KW_ABILITIES:   "abilities",
	KW_ABILITY:     "ability",
	KW_TYPE:        "type",
	KW_COOLDOWN:    "cooldown",
	KW_MANA_COST:   "mana_cost",
	KW_RANGE:       "range",
	KW_DAMAGE_TYPE: "damage_type",
	KW_BEHAVIOR:    "behavior",

	KW_TEAM:    "team",
	KW_TURRET:  "turret",
	KW_TURRETS: "turrets",
	KW_CORE:    "core",

	KW_STATUS_EFFECT: "statusEffect",
	KW_DURATION:      "duration",
	KW_ON_APPLY:      "on_apply",
	KW_ON_TICK:       "on_tick",
	KW_ON_EXPIRE:     "on_expire",

	KW_ITEM:    "item",
	KW_PASSIVE: "passive",
	KW_CREEP:   "creep",

	KW_SELF:   "self",
	KW_TARGET: "target",
	KW_CASTER: "caster",
}

// String returns the human-readable name for a token kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// IsKeyword returns true if the kind is a keyword.
func (k Kind) IsKeyword() bool {
	return k >= KW_GAME && k <= KW_CASTER
}

// IsSection reports whether the kind opens a top-level section block.
func (k Kind) IsSection() bool {
	return k >= KW_HEROES && k <= KW_FUNCTIONS
}

// IsLiteral returns true for identifiers and literal values.
func (k Kind) IsLiteral() bool {
	return k >= IDENT && k <= STRING
}

// IsWord reports whether tokens of this kind are spelled like identifiers.
// Field names in stat lists accept any word, keywords included.
func (k Kind) IsWord() bool {
	return k == IDENT || k.IsKeyword() || k == AND || k == OR
}

// Token represents a lexical token with its kind, raw text, literal value and location.
type Token struct {
	Kind    Kind        `json:"kind"`
	Lexeme  string      `json:"lexeme"`
	Literal interface{} `json:"literal,omitempty"` // float64 for numeric kinds, string for STRING
	Span    span.Span   `json:"span"`
}

// Line returns the source line the token starts on.
func (t Token) Line() int {
	return t.Span.Start.Line
}

// String returns a human-readable representation of the token.
func (t Token) String() string {
	if t.Literal != nil {
		return fmt.Sprintf("%s %q %v %s", t.Kind, t.Lexeme, t.Literal, t.Span.Start)
	}
	return fmt.Sprintf("%s %q %s", t.Kind, t.Lexeme, t.Span.Start)
}
