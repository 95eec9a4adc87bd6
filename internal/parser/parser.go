// Package parser implements the syntax analysis for the game language.
//
// It is a hand-written recursive-descent parser. Declarations are read under
// section headers (Heroes, Arena, StatusEffects, Items, Creeps, Functions),
// statements inside braced blocks, and expressions by precedence climbing
// from assignment down to primary. Errors never stop the parse: each one is
// recorded as a diagnostic and the parser recovers at declaration or
// statement granularity, so callers always receive a (possibly partial) tree.
package parser

import (
	"fmt"

	"moba-lang/internal/ast"
	"moba-lang/internal/diag"
	"moba-lang/internal/span"
	"moba-lang/internal/token"
)

// Parser performs syntax analysis on a stream of tokens.
type Parser struct {
	tokens []token.Token
	pos    int
	diags  []diag.Diagnostic
}

// New creates a new parser from a token slice. A missing trailing EOF is tolerated.
func New(tokens []token.Token) *Parser {
	return &Parser{tokens: tokens, pos: 0}
}

// ParseProgram parses a whole source file:
//
//	program → import* ( "GAME" IDENT "{" body "}" | body ) EOF
func (p *Parser) ParseProgram() (*ast.Program, []diag.Diagnostic) {
	prog := &ast.Program{}
	start := p.peek().Span

	for p.check(token.KW_IMPORT) {
		if imp := p.parseImport(); imp != nil {
			prog.Imports = append(prog.Imports, imp)
		}
	}

	if p.check(token.KW_GAME) {
		p.advance()
		if name, ok := p.expect(token.IDENT, "Expect game name after 'GAME'."); ok {
			prog.Game = name.Lexeme
		}
		if _, ok := p.expect(token.LBRACE, "Expect '{' after game name."); ok {
			prog.Decls = p.parseBody(token.RBRACE)
			p.expect(token.RBRACE, "Expect '}' after game body.")
		}
		for !p.isAtEnd() {
			p.errorAtCurrent("E2002", "Expect end of input after game body.")
			p.advance()
		}
	} else {
		prog.Decls = p.parseBody(token.EOF)
	}

	prog.Span = span.Join(start, p.peek().Span)
	return prog, p.diags
}

// ParseExpression parses a single standalone expression. Trailing tokens
// other than an optional ';' are reported.
func (p *Parser) ParseExpression() (ast.Expr, []diag.Diagnostic) {
	expr := p.parseExpression()
	if p.check(token.SEMICOLON) {
		p.advance()
	}
	if expr != nil && !p.isAtEnd() {
		p.errorAtCurrent("E2002", "Expect end of expression.")
	}
	return expr, p.diags
}

// ---- navigation helpers ----

func (p *Parser) peek() token.Token {
	if p.pos >= len(p.tokens) {
		return p.eof()
	}
	return p.tokens[p.pos]
}

func (p *Parser) peekAt(offset int) token.Token {
	if p.pos+offset >= len(p.tokens) {
		return p.eof()
	}
	return p.tokens[p.pos+offset]
}

func (p *Parser) eof() token.Token {
	if n := len(p.tokens); n > 0 {
		last := p.tokens[n-1]
		return token.Token{Kind: token.EOF, Span: span.At(last.Span.End.Line, last.Span.End.Column)}
	}
	return token.Token{Kind: token.EOF, Span: span.At(1, 1)}
}

func (p *Parser) peekKind() token.Kind {
	return p.peek().Kind
}

func (p *Parser) previous() token.Token {
	if p.pos == 0 {
		return p.peek()
	}
	return p.tokens[p.pos-1]
}

func (p *Parser) advance() token.Token {
	tok := p.peek()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return tok
}

func (p *Parser) check(kind token.Kind) bool {
	return p.peekKind() == kind
}

func (p *Parser) match(kinds ...token.Kind) bool {
	for _, k := range kinds {
		if p.check(k) {
			return true
		}
	}
	return false
}

// accept consumes the current token if it has the given kind.
func (p *Parser) accept(kind token.Kind) bool {
	if p.check(kind) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) expect(kind token.Kind, msg string) (token.Token, bool) {
	if p.check(kind) {
		return p.advance(), true
	}
	p.errorAtCurrent("E2001", msg)
	return p.peek(), false
}

// expectWord consumes an identifier or any keyword spelled as a word.
func (p *Parser) expectWord(msg string) (token.Token, bool) {
	if p.peekKind().IsWord() {
		return p.advance(), true
	}
	p.errorAtCurrent("E2001", msg)
	return p.peek(), false
}

func (p *Parser) isAtEnd() bool {
	return p.peekKind() == token.EOF
}

// mark and reset implement the bounded checkpoint/restore used to
// disambiguate identifier-led statements.
func (p *Parser) mark() int     { return p.pos }
func (p *Parser) reset(pos int) { p.pos = pos }

// ---- diagnostics ----

func (p *Parser) errorAt(tok token.Token, code, msg string) {
	d := diag.Errorf(code, tok.Span, "%s", msg).WithLexeme(tok.Lexeme, tok.Kind == token.EOF)
	p.diags = append(p.diags, d)
}

func (p *Parser) errorAtCurrent(code, msg string) {
	p.errorAt(p.peek(), code, msg)
}

func (p *Parser) warnAt(tok token.Token, code, msg string) {
	d := diag.Warningf(code, tok.Span, "%s", msg).WithLexeme(tok.Lexeme, tok.Kind == token.EOF)
	p.diags = append(p.diags, d)
}

// ============================================================
// Error recovery
// ============================================================

// synchronize skips tokens until a likely statement boundary: just past a
// ';' or a whole '{ ... }' group, or before a '}', a statement keyword or a
// section header. The '}' it stops at always closes the construct recovery
// started in.
func (p *Parser) synchronize() {
	for !p.isAtEnd() {
		switch p.peekKind() {
		case token.SEMICOLON:
			p.advance()
			return
		case token.LBRACE:
			p.skip()
			p.accept(token.SEMICOLON)
			return
		case token.RBRACE:
			return
		case token.KW_IF, token.KW_WHILE, token.KW_FOR, token.KW_RETURN, token.KW_BREAK,
			token.KW_CONTINUE, token.KW_SET, token.KW_CONST, token.KW_APPLY, token.KW_FUNCTION:
			return
		}
		if p.peekKind().IsSection() {
			return
		}
		p.advance()
	}
}

// skip consumes one token, or a whole balanced '{ ... }' group when the
// current token opens one.
func (p *Parser) skip() {
	if !p.check(token.LBRACE) {
		p.advance()
		return
	}
	depth := 0
	for !p.isAtEnd() {
		switch p.advance().Kind {
		case token.LBRACE:
			depth++
		case token.RBRACE:
			depth--
			if depth == 0 {
				return
			}
		}
	}
}

// openBraces counts the '{' consumed since token index start that are
// still unclosed.
func (p *Parser) openBraces(start int) int {
	depth := 0
	for _, tok := range p.tokens[start:p.pos] {
		switch tok.Kind {
		case token.LBRACE:
			depth++
		case token.RBRACE:
			depth--
		}
	}
	if depth < 0 {
		return 0
	}
	return depth
}

// recoverFrom skips the rest of a malformed member or statement that began
// at token index start. Groups it opened are closed first; when it opened
// none, tokens are skipped up to the next boundary.
func (p *Parser) recoverFrom(start int) {
	depth := p.openBraces(start)
	if depth == 0 {
		p.synchronize()
		return
	}
	for depth > 0 && !p.isAtEnd() {
		switch p.advance().Kind {
		case token.LBRACE:
			depth++
		case token.RBRACE:
			depth--
		}
	}
}

// recoverDecl skips the remainder of a malformed declaration that began at
// token index start. It stops before the next declaration keyword kw at the
// declaration's own nesting level, or before the '}' closing the section.
func (p *Parser) recoverDecl(start int, kw token.Kind) {
	depth := p.openBraces(start)
	for !p.isAtEnd() {
		switch p.peekKind() {
		case token.LBRACE:
			depth++
		case token.RBRACE:
			if depth == 0 {
				return
			}
			depth--
			p.advance()
			if depth == 0 {
				return
			}
			continue
		case kw:
			if depth == 0 {
				return
			}
		}
		p.advance()
	}
}

func describe(tok token.Token) string {
	if tok.Kind == token.EOF {
		return "end of input"
	}
	return fmt.Sprintf("'%s'", tok.Lexeme)
}
