package parser

import (
	"fmt"

	"moba-lang/internal/ast"
	"moba-lang/internal/span"
	"moba-lang/internal/token"
)

// ============================================================
// Statement parsing
// ============================================================

// parseStmt parses one statement. It returns nil after reporting an error;
// the caller is responsible for resynchronizing.
func (p *Parser) parseStmt() ast.Stmt {
	switch p.peekKind() {
	case token.KW_IF:
		return p.parseIf()
	case token.KW_WHILE:
		return p.parseWhile()
	case token.KW_FOR:
		return p.parseFor()
	case token.KW_RETURN:
		return p.parseReturn()
	case token.KW_BREAK, token.KW_CONTINUE:
		return p.parseJump()
	case token.KW_SET, token.KW_CONST:
		return p.parseSet()
	case token.KW_APPLY:
		return p.parseApply()
	case token.LBRACE:
		if b := p.parseBlock(); b != nil {
			return b
		}
		return nil
	case token.IDENT:
		return p.parseIdentStmt()
	default:
		return p.parseExprStmt()
	}
}

// parseBlock reads `{ stmt* }`. It returns nil only when the opening brace
// is missing; errors inside the block are recovered per statement.
func (p *Parser) parseBlock() *ast.Block {
	open, ok := p.expect(token.LBRACE, "Expect '{' before block.")
	if !ok {
		return nil
	}
	block := &ast.Block{}
	for !p.check(token.RBRACE) && !p.isAtEnd() {
		before := p.pos
		if s := p.parseStmt(); s != nil {
			block.Stmts = append(block.Stmts, s)
		} else {
			p.recoverFrom(before)
		}
		if p.pos == before {
			p.skip()
		}
	}
	end, _ := p.expect(token.RBRACE, "Expect '}' after block.")
	block.Span = span.Join(open.Span, end.Span)
	return block
}

// parseIdentStmt disambiguates statements that begin with an identifier
// using one token of lookahead:
//
//	x = e;        assignment
//	x += e; x++;  compound assignment
//	x: e          stat entry
//	x(...) ...    call statement (or a longer expression such as a pipeline)
//	otherwise     expression statement
func (p *Parser) parseIdentStmt() ast.Stmt {
	checkpoint := p.mark()
	name := p.advance()

	switch p.peekKind() {
	case token.ASSIGN:
		p.advance()
		value := p.parseExpression()
		if value == nil {
			return nil
		}
		end, ok := p.expect(token.SEMICOLON, "Expect ';' after assignment.")
		if !ok {
			return nil
		}
		return &ast.AssignStmt{StmtBase: stmtBase(name.Span, end.Span), Name: name.Lexeme, Op: token.ASSIGN, Value: value}

	case token.PLUS_ASSIGN, token.MINUS_ASSIGN, token.STAR_ASSIGN, token.SLASH_ASSIGN:
		op := p.advance()
		value := p.parseExpression()
		if value == nil {
			return nil
		}
		end, ok := p.expect(token.SEMICOLON, "Expect ';' after assignment.")
		if !ok {
			return nil
		}
		return &ast.AssignStmt{StmtBase: stmtBase(name.Span, end.Span), Name: name.Lexeme, Op: op.Kind, Value: value}

	case token.INCR, token.DECR:
		op := p.advance()
		end, ok := p.expect(token.SEMICOLON, fmt.Sprintf("Expect ';' after '%s'.", op.Lexeme))
		if !ok {
			return nil
		}
		kind := token.PLUS_ASSIGN
		if op.Kind == token.DECR {
			kind = token.MINUS_ASSIGN
		}
		one := &ast.NumberLit{ExprBase: exprBase(op.Span, op.Span), Value: 1}
		return &ast.AssignStmt{StmtBase: stmtBase(name.Span, end.Span), Name: name.Lexeme, Op: kind, Value: one}

	case token.COLON:
		p.advance()
		value := p.parseExpression()
		if value == nil {
			return nil
		}
		if !p.accept(token.SEMICOLON) {
			p.accept(token.COMMA)
		}
		return &ast.StatEntry{StmtBase: stmtBase(name.Span, value.GetSpan()), Name: name.Lexeme, Value: value}

	case token.LPAREN:
		p.reset(checkpoint)
		expr := p.parseExpression()
		if expr == nil {
			return nil
		}
		end, ok := p.expect(token.SEMICOLON, "Expect ';' after expression.")
		if !ok {
			return nil
		}
		if call, isCall := expr.(*ast.CallExpr); isCall {
			return &ast.CallStmt{StmtBase: stmtBase(name.Span, end.Span), Call: call}
		}
		return &ast.ExprStmt{StmtBase: stmtBase(name.Span, end.Span), Expr: expr}

	default:
		p.reset(checkpoint)
		return p.parseExprStmt()
	}
}

func (p *Parser) parseExprStmt() ast.Stmt {
	start := p.peek()
	expr := p.parseExpression()
	if expr == nil {
		return nil
	}
	end, ok := p.expect(token.SEMICOLON, "Expect ';' after expression.")
	if !ok {
		return nil
	}
	return &ast.ExprStmt{StmtBase: stmtBase(start.Span, end.Span), Expr: expr}
}

// parseSet reads `set x = e;` or `const [T] x = e;` inside a block.
func (p *Parser) parseSet() ast.Stmt {
	kw := p.advance()
	stmt := &ast.SetStmt{Const: kw.Kind == token.KW_CONST}
	if stmt.Const && p.check(token.IDENT) && p.peekAt(1).Kind == token.IDENT {
		stmt.TypeName = p.advance().Lexeme
	}
	name, ok := p.expect(token.IDENT, fmt.Sprintf("Expect variable name after '%s'.", kw.Lexeme))
	if !ok {
		return nil
	}
	stmt.Name = name.Lexeme
	if _, ok := p.expect(token.ASSIGN, "Expect '=' after variable name."); !ok {
		return nil
	}
	stmt.Value = p.parseExpression()
	if stmt.Value == nil {
		return nil
	}
	end, ok := p.expect(token.SEMICOLON, "Expect ';' after variable declaration.")
	if !ok {
		return nil
	}
	stmt.StmtBase = stmtBase(kw.Span, end.Span)
	return stmt
}

// parseCondition reads `( expr )` after if/while.
func (p *Parser) parseCondition(kw token.Token) ast.Expr {
	if _, ok := p.expect(token.LPAREN, fmt.Sprintf("Expect '(' after '%s'.", kw.Lexeme)); !ok {
		return nil
	}
	cond := p.parseExpression()
	if cond == nil {
		return nil
	}
	if _, ok := p.expect(token.RPAREN, "Expect ')' after condition."); !ok {
		return nil
	}
	return cond
}

func (p *Parser) parseIf() ast.Stmt {
	kw := p.advance()
	cond := p.parseCondition(kw)
	if cond == nil {
		return nil
	}
	then := p.parseBlock()
	if then == nil {
		return nil
	}
	stmt := &ast.IfStmt{Condition: cond, Then: then}
	end := then.Span

	for p.check(token.KW_ELSE) {
		elseTok := p.advance()
		if p.check(token.KW_IF) {
			ifTok := p.advance()
			c := p.parseCondition(ifTok)
			if c == nil {
				return nil
			}
			body := p.parseBlock()
			if body == nil {
				return nil
			}
			stmt.ElseIfs = append(stmt.ElseIfs, ast.ElseIf{Span: span.Join(elseTok.Span, body.Span), Condition: c, Body: body})
			end = body.Span
			continue
		}
		stmt.Else = p.parseBlock()
		if stmt.Else == nil {
			return nil
		}
		end = stmt.Else.Span
		break
	}
	stmt.StmtBase = stmtBase(kw.Span, end)
	return stmt
}

func (p *Parser) parseWhile() ast.Stmt {
	kw := p.advance()
	cond := p.parseCondition(kw)
	if cond == nil {
		return nil
	}
	body := p.parseBlock()
	if body == nil {
		return nil
	}
	return &ast.WhileStmt{StmtBase: stmtBase(kw.Span, body.Span), Condition: cond, Body: body}
}

// parseFor reads `for (x in collection) { ... }`.
func (p *Parser) parseFor() ast.Stmt {
	kw := p.advance()
	if _, ok := p.expect(token.LPAREN, "Expect '(' after 'for'."); !ok {
		return nil
	}
	name, ok := p.expect(token.IDENT, "Expect loop variable name.")
	if !ok {
		return nil
	}
	if _, ok := p.expect(token.KW_IN, "Expect 'in' after loop variable."); !ok {
		return nil
	}
	coll := p.parseExpression()
	if coll == nil {
		return nil
	}
	if _, ok := p.expect(token.RPAREN, "Expect ')' after for clause."); !ok {
		return nil
	}
	body := p.parseBlock()
	if body == nil {
		return nil
	}
	return &ast.ForStmt{StmtBase: stmtBase(kw.Span, body.Span), Var: name.Lexeme, Collection: coll, Body: body}
}

func (p *Parser) parseReturn() ast.Stmt {
	kw := p.advance()
	stmt := &ast.ReturnStmt{}
	if !p.check(token.SEMICOLON) && !p.check(token.RBRACE) {
		stmt.Value = p.parseExpression()
		if stmt.Value == nil {
			return nil
		}
	}
	end, ok := p.expect(token.SEMICOLON, "Expect ';' after return value.")
	if !ok {
		return nil
	}
	stmt.StmtBase = stmtBase(kw.Span, end.Span)
	return stmt
}

func (p *Parser) parseJump() ast.Stmt {
	kw := p.advance()
	end, ok := p.expect(token.SEMICOLON, fmt.Sprintf("Expect ';' after '%s'.", kw.Lexeme))
	if !ok {
		return nil
	}
	if kw.Kind == token.KW_BREAK {
		return &ast.BreakStmt{StmtBase: stmtBase(kw.Span, end.Span)}
	}
	return &ast.ContinueStmt{StmtBase: stmtBase(kw.Span, end.Span)}
}

// parseApply reads `apply call(...) to self|target|caster|Name;`.
func (p *Parser) parseApply() ast.Stmt {
	kw := p.advance()
	call := p.parseCallExpr()
	if call == nil {
		return nil
	}
	if _, ok := p.expect(token.KW_TO, "Expect 'to' after applied effect."); !ok {
		return nil
	}

	tok := p.peek()
	target := ast.TargetExpr{Span: tok.Span}
	switch tok.Kind {
	case token.KW_SELF:
		target.Kind = ast.TargetSelf
	case token.KW_TARGET:
		target.Kind = ast.TargetTarget
	case token.KW_CASTER:
		target.Kind = ast.TargetCaster
	case token.IDENT:
		target.Kind = ast.TargetNamed
		target.Name = tok.Lexeme
	default:
		p.errorAtCurrent("E2001", "Expect 'self', 'target', 'caster' or an entity name after 'to'.")
		return nil
	}
	p.advance()

	end, ok := p.expect(token.SEMICOLON, "Expect ';' after apply statement.")
	if !ok {
		return nil
	}
	return &ast.ApplyStmt{StmtBase: stmtBase(kw.Span, end.Span), Call: call, Target: target}
}

func stmtBase(start, end span.Span) ast.StmtBase {
	return ast.StmtBase{NodeBase: ast.NodeBase{Span: span.Join(start, end)}}
}
