// Package lexer implements the lexical analysis (tokenization) for the game language.
//
// Source is scanned one line at a time. Lexical problems are reported as
// diagnostics and scanning always continues, so a single pass yields every
// error in the input together with a best-effort token stream.
package lexer

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"moba-lang/internal/diag"
	"moba-lang/internal/span"
	"moba-lang/internal/token"
)

// Lexer tokenizes source lines into a sequence of tokens.
type Lexer struct {
	lines []string
	table *token.Table

	src  string // line being scanned
	line int    // current line (1-based)
	pos  int    // byte offset into src

	inComment    bool // inside /* ... */
	commentStart span.Span

	tokens []token.Token
	diags  []diag.Diagnostic
}

// New creates a Lexer over the given lines using the default token table.
func New(lines []string) *Lexer {
	return NewWithTable(lines, token.NewTable())
}

// NewWithTable creates a Lexer that classifies lexemes with table.
func NewWithTable(lines []string, table *token.Table) *Lexer {
	return &Lexer{lines: lines, table: table}
}

// FromText creates a Lexer over a whole source text.
func FromText(text string) *Lexer {
	return New(SplitLines(text))
}

// SplitLines breaks text into lines, dropping the line terminators.
func SplitLines(text string) []string {
	text = strings.TrimSuffix(text, "\n")
	if text == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

// Tokenize scans every line and returns all tokens and diagnostics.
// The token slice always ends with exactly one EOF token.
func (l *Lexer) Tokenize() ([]token.Token, []diag.Diagnostic) {
	l.tokens = nil
	l.diags = nil
	l.inComment = false

	for i, text := range l.lines {
		l.line = i + 1
		l.src = text
		l.pos = 0
		l.scanLine()
	}

	if l.inComment {
		l.addError("E1002", l.commentStart, "Unterminated block comment.")
	}

	eofLine, eofCol := 1, 1
	if len(l.lines) > 0 {
		eofLine = len(l.lines)
		eofCol = len(l.lines[len(l.lines)-1]) + 1
	}
	l.tokens = append(l.tokens, token.Token{Kind: token.EOF, Span: span.At(eofLine, eofCol)})
	return l.tokens, l.diags
}

// ---- internal helpers ----

func (l *Lexer) peek() byte {
	if l.pos >= len(l.src) {
		return 0
	}
	return l.src[l.pos]
}

func (l *Lexer) peekNext() byte {
	if l.pos+1 >= len(l.src) {
		return 0
	}
	return l.src[l.pos+1]
}

func (l *Lexer) spanFrom(start int) span.Span {
	return span.Span{
		Start: span.Position{Line: l.line, Column: start + 1},
		End:   span.Position{Line: l.line, Column: l.pos + 1},
	}
}

func (l *Lexer) addError(code string, s span.Span, msg string) {
	l.diags = append(l.diags, diag.Errorf(code, s, "%s", msg))
}

func (l *Lexer) emit(kind token.Kind, start int) {
	lexeme := l.src[start:l.pos]
	l.tokens = append(l.tokens, token.Token{
		Kind:    kind,
		Lexeme:  lexeme,
		Literal: l.table.Literal(kind, lexeme),
		Span:    l.spanFrom(start),
	})
}

// ---- line scanning ----

// scanLine applies the lexical rules in priority order: whitespace,
// string, two-character operator, single character, number, identifier.
func (l *Lexer) scanLine() {
	for l.pos < len(l.src) {
		if l.inComment {
			end := strings.Index(l.src[l.pos:], "*/")
			if end < 0 {
				return
			}
			l.pos += end + 2
			l.inComment = false
			continue
		}

		ch := l.peek()
		start := l.pos

		switch {
		case ch == ' ' || ch == '\t' || ch == '\r':
			l.pos++
			continue
		case ch == '"':
			if !l.readString() {
				return
			}
			continue
		}

		if l.pos+1 < len(l.src) {
			two := l.src[l.pos : l.pos+2]
			switch two {
			case "//":
				return
			case "/*":
				l.pos += 2
				l.inComment = true
				l.commentStart = l.spanFrom(start)
				continue
			case "*/":
				l.pos += 2
				l.addError("E1003", l.spanFrom(start), "Unexpected '*/' outside of a block comment.")
				continue
			}
			if kind, ok := l.table.Operator(two); ok {
				l.pos += 2
				l.emit(kind, start)
				continue
			}
		}

		if isDigit(ch) || (ch == '.' && isDigit(l.peekNext())) {
			l.readNumber()
			continue
		}

		if kind, ok := l.table.Punct(string(ch)); ok {
			l.pos++
			l.emit(kind, start)
			continue
		}

		r, size := utf8.DecodeRuneInString(l.src[l.pos:])
		if isIdentStart(r) {
			l.readIdentifier()
			continue
		}

		l.pos += size
		d := diag.Errorf("E1003", l.spanFrom(start), "Unexpected character '%c'.", r)
		switch ch {
		case '&':
			d = d.WithHint("did you mean '&&'?")
		case '|':
			d = d.WithHint("did you mean '||' or '|>'?")
		}
		l.diags = append(l.diags, d)
	}
}

// readString scans a double-quoted string. A backslash keeps the following
// character from closing the literal; the literal value is the raw text
// between the quotes. It returns false when the string is unterminated, in
// which case the rest of the line has been skipped.
func (l *Lexer) readString() bool {
	start := l.pos
	l.pos++ // opening "
	for l.pos < len(l.src) {
		switch l.peek() {
		case '\\':
			l.pos += 2
			continue
		case '"':
			l.pos++
			l.emit(token.STRING, start)
			return true
		}
		l.pos++
	}
	l.pos = len(l.src)
	l.addError("E1001", l.spanFrom(start), "Unterminated string.")
	return false
}

// readNumber reads an integer or decimal literal and an optional
// percentage ('%') or duration ('s') suffix.
func (l *Lexer) readNumber() {
	start := l.pos
	for isDigit(l.peek()) {
		l.pos++
	}
	if l.peek() == '.' && isDigit(l.peekNext()) {
		l.pos++
		for isDigit(l.peek()) {
			l.pos++
		}
	}

	switch {
	case l.peek() == '%':
		l.pos++
	case l.peek() == 's' && !l.identContinues(l.pos+1):
		l.pos++
		if strings.Contains(l.src[start:l.pos], ".") {
			l.diags = append(l.diags, diag.Errorf("E1004", l.spanFrom(start),
				"Duration '%s' must be a whole number of seconds.", l.src[start:l.pos]))
		}
	}

	l.emit(l.table.Classify(l.src[start:l.pos]), start)
}

// identContinues reports whether an identifier character sits at offset i.
func (l *Lexer) identContinues(i int) bool {
	if i >= len(l.src) {
		return false
	}
	r, _ := utf8.DecodeRuneInString(l.src[i:])
	return isIdentStart(r) || unicode.IsDigit(r)
}

// readIdentifier reads an identifier or keyword.
func (l *Lexer) readIdentifier() {
	start := l.pos
	for l.pos < len(l.src) {
		r, size := utf8.DecodeRuneInString(l.src[l.pos:])
		if !isIdentStart(r) && !unicode.IsDigit(r) {
			break
		}
		l.pos += size
	}
	l.emit(l.table.Classify(l.src[start:l.pos]), start)
}

// ---- character classification ----

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}
