package parser

import (
	"moba-lang/internal/ast"
	"moba-lang/internal/span"
	"moba-lang/internal/token"
)

// ============================================================
// Expression parsing
//
//	expression → assignment
//	assignment → pipe ( "=" assignment )?
//	pipe       → or ( "|>" or )*
//	or         → and ( ("or" | "||") and )*
//	and        → equality ( ("and" | "&&") equality )*
//	equality   → comparison ( ("==" | "!=") comparison )*
//	comparison → term ( (">" | ">=" | "<" | "<=") term )*
//	term       → factor ( ("+" | "-") factor )*
//	factor     → unary ( ("*" | "/") unary )*
//	unary      → ("!" | "-") unary | call
//	call       → primary ( "(" args ")" | "." word )*
//
// Every parse function returns nil after reporting an error.
// ============================================================

func (p *Parser) parseExpression() ast.Expr {
	return p.parseAssignment()
}

func (p *Parser) parseAssignment() ast.Expr {
	left := p.parsePipe()
	if left == nil {
		return nil
	}
	if !p.check(token.ASSIGN) {
		return left
	}
	eq := p.advance()
	value := p.parseAssignment()
	if value == nil {
		return nil
	}
	if id, ok := left.(*ast.Ident); ok {
		return &ast.AssignExpr{ExprBase: exprBase(id.Span, value.GetSpan()), Name: id.Name, Value: value}
	}
	// Report and keep going with the right-hand side.
	p.errorAt(eq, "E2003", "Invalid assignment target.")
	return value
}

func (p *Parser) parsePipe() ast.Expr {
	left := p.parseOr()
	for left != nil && p.check(token.PIPE) {
		op := p.advance()
		right := p.parseOr()
		if right == nil {
			return nil
		}
		left = &ast.BinaryExpr{ExprBase: exprBase(left.GetSpan(), right.GetSpan()), Op: op.Kind, Left: left, Right: right}
	}
	return left
}

// parsePipeline reads the strict pipeline used by behavior and passive
// fields: one or more calls joined by '|>'.
func (p *Parser) parsePipeline() ast.Expr {
	first := p.parseCallExpr()
	if first == nil {
		return nil
	}
	var left ast.Expr = first
	for p.check(token.PIPE) {
		op := p.advance()
		right := p.parseCallExpr()
		if right == nil {
			return nil
		}
		left = &ast.BinaryExpr{ExprBase: exprBase(left.GetSpan(), right.GetSpan()), Op: op.Kind, Left: left, Right: right}
	}
	return left
}

// parseCallExpr reads exactly `name(args)`.
func (p *Parser) parseCallExpr() *ast.CallExpr {
	if !p.check(token.IDENT) || p.peekAt(1).Kind != token.LPAREN {
		p.errorAtCurrent("E2006", "Expect a function call.")
		return nil
	}
	name := p.advance()
	return p.finishCall(name)
}

func (p *Parser) parseLogical(next func() ast.Expr, kind token.Kind) ast.Expr {
	left := next()
	for left != nil && p.check(kind) {
		op := p.advance()
		right := next()
		if right == nil {
			return nil
		}
		left = &ast.LogicalExpr{ExprBase: exprBase(left.GetSpan(), right.GetSpan()), Op: op.Kind, Left: left, Right: right}
	}
	return left
}

func (p *Parser) parseOr() ast.Expr {
	return p.parseLogical(p.parseAnd, token.OR)
}

func (p *Parser) parseAnd() ast.Expr {
	return p.parseLogical(p.parseEquality, token.AND)
}

// parseBinary parses a left-associative chain of the given operators.
func (p *Parser) parseBinary(next func() ast.Expr, ops ...token.Kind) ast.Expr {
	left := next()
	for left != nil && p.match(ops...) {
		op := p.advance()
		right := next()
		if right == nil {
			return nil
		}
		left = &ast.BinaryExpr{ExprBase: exprBase(left.GetSpan(), right.GetSpan()), Op: op.Kind, Left: left, Right: right}
	}
	return left
}

func (p *Parser) parseEquality() ast.Expr {
	return p.parseBinary(p.parseComparison, token.EQ, token.NEQ)
}

func (p *Parser) parseComparison() ast.Expr {
	return p.parseBinary(p.parseTerm, token.GT, token.GTE, token.LT, token.LTE)
}

func (p *Parser) parseTerm() ast.Expr {
	return p.parseBinary(p.parseFactor, token.PLUS, token.MINUS)
}

func (p *Parser) parseFactor() ast.Expr {
	return p.parseBinary(p.parseUnary, token.STAR, token.SLASH)
}

func (p *Parser) parseUnary() ast.Expr {
	if p.match(token.BANG, token.MINUS) {
		op := p.advance()
		operand := p.parseUnary()
		if operand == nil {
			return nil
		}
		return &ast.UnaryExpr{ExprBase: exprBase(op.Span, operand.GetSpan()), Op: op.Kind, Operand: operand}
	}
	return p.parseCall()
}

func (p *Parser) parseCall() ast.Expr {
	if p.check(token.IDENT) && p.peekAt(1).Kind == token.LPAREN {
		name := p.advance()
		call := p.finishCall(name)
		if call == nil {
			return nil
		}
		return p.parseMembers(call)
	}
	expr := p.parsePrimary()
	if expr == nil {
		return nil
	}
	return p.parseMembers(expr)
}

// parseMembers applies trailing `.field` accesses.
func (p *Parser) parseMembers(expr ast.Expr) ast.Expr {
	for p.check(token.DOT) {
		p.advance()
		field, ok := p.expectWord("Expect field name after '.'.")
		if !ok {
			return nil
		}
		expr = &ast.MemberExpr{ExprBase: exprBase(expr.GetSpan(), field.Span), Object: expr, Field: field.Lexeme}
	}
	return expr
}

// finishCall reads `( args )` after the callee name. Arguments are either
// positional or named (`name: value`).
func (p *Parser) finishCall(name token.Token) *ast.CallExpr {
	p.advance() // (
	call := &ast.CallExpr{Callee: name.Lexeme}
	if !p.check(token.RPAREN) {
		for {
			arg := ast.Arg{}
			if p.peekKind().IsWord() && p.peekAt(1).Kind == token.COLON {
				arg.Name = p.advance().Lexeme
				p.advance() // :
			}
			arg.Value = p.parseExpression()
			if arg.Value == nil {
				return nil
			}
			call.Args = append(call.Args, arg)
			if !p.accept(token.COMMA) {
				break
			}
		}
	}
	end, ok := p.expect(token.RPAREN, "Expect ')' after arguments.")
	if !ok {
		return nil
	}
	call.ExprBase = exprBase(name.Span, end.Span)
	return call
}

func (p *Parser) parsePrimary() ast.Expr {
	tok := p.peek()
	base := exprBase(tok.Span, tok.Span)

	switch tok.Kind {
	case token.NUMBER:
		p.advance()
		return &ast.NumberLit{ExprBase: base, Value: literal(tok)}
	case token.PERCENTAGE:
		p.advance()
		raw := literal(tok)
		return &ast.PercentLit{ExprBase: base, Raw: raw, Value: raw / 100}
	case token.DURATION:
		p.advance()
		return &ast.DurationLit{ExprBase: base, Seconds: int64(literal(tok))}
	case token.STRING:
		p.advance()
		s, _ := tok.Literal.(string)
		return &ast.StringLit{ExprBase: base, Value: s}
	case token.KW_TRUE, token.KW_FALSE:
		p.advance()
		return &ast.BoolLit{ExprBase: base, Value: tok.Kind == token.KW_TRUE}
	case token.KW_NIL:
		p.advance()
		return &ast.NilLit{ExprBase: base}
	case token.IDENT:
		p.advance()
		return &ast.Ident{ExprBase: base, Name: tok.Lexeme}
	case token.KW_SELF:
		p.advance()
		return &ast.ContextRef{ExprBase: base, Kind: ast.TargetSelf}
	case token.KW_TARGET:
		p.advance()
		return &ast.ContextRef{ExprBase: base, Kind: ast.TargetTarget}
	case token.KW_CASTER:
		p.advance()
		return &ast.ContextRef{ExprBase: base, Kind: ast.TargetCaster}
	case token.LPAREN:
		p.advance()
		inner := p.parseExpression()
		if inner == nil {
			return nil
		}
		end, ok := p.expect(token.RPAREN, "Expect ')' after expression.")
		if !ok {
			return nil
		}
		return &ast.Grouping{ExprBase: exprBase(tok.Span, end.Span), Inner: inner}
	case token.LBRACKET:
		p.advance()
		list := &ast.ListLit{}
		if !p.check(token.RBRACKET) {
			for {
				el := p.parseExpression()
				if el == nil {
					return nil
				}
				list.Elements = append(list.Elements, el)
				if !p.accept(token.COMMA) {
					break
				}
			}
		}
		end, ok := p.expect(token.RBRACKET, "Expect ']' after list elements.")
		if !ok {
			return nil
		}
		list.ExprBase = exprBase(tok.Span, end.Span)
		return list
	default:
		p.errorAtCurrent("E2001", "Expect expression.")
		return nil
	}
}

// literal returns the numeric literal carried by tok.
func literal(tok token.Token) float64 {
	v, _ := tok.Literal.(float64)
	return v
}

func exprBase(start, end span.Span) ast.ExprBase {
	return ast.ExprBase{NodeBase: ast.NodeBase{Span: span.Join(start, end)}}
}
