package parser

import (
	"fmt"

	"moba-lang/internal/ast"
	"moba-lang/internal/span"
	"moba-lang/internal/token"
)

// ============================================================
// Program body
// ============================================================

// parseBody reads variable declarations, sections and top-level statements
// until the stop token (RBRACE inside GAME, EOF otherwise).
func (p *Parser) parseBody(stop token.Kind) []ast.Decl {
	var decls []ast.Decl
	for !p.check(stop) && !p.isAtEnd() {
		before := p.pos
		switch {
		case p.peekKind().IsSection():
			decls = append(decls, p.parseSection()...)
		case p.check(token.KW_IMPORT):
			p.errorAtCurrent("E2002", "Imports must appear before the game body.")
			p.parseImport()
		case p.check(token.KW_SET), p.check(token.KW_CONST),
			p.check(token.IDENT) && p.peekAt(1).Kind == token.ASSIGN:
			if d := p.parseVarDecl(); d != nil {
				decls = append(decls, d)
			} else {
				p.recoverFrom(before)
			}
		default:
			tok := p.peek()
			if s := p.parseStmt(); s != nil {
				decls = append(decls, &ast.StmtDecl{DeclBase: declBase(tok.Span, s.GetSpan()), Stmt: s})
			} else {
				p.recoverFrom(before)
			}
		}
		if p.pos == before {
			p.skip()
		}
	}
	return decls
}

func (p *Parser) parseImport() *ast.ImportDecl {
	kw := p.advance()
	name, ok := p.expectWord("Expect module name after 'import'.")
	if !ok {
		p.synchronize()
		return nil
	}
	p.expect(token.SEMICOLON, "Expect ';' after import.")
	return &ast.ImportDecl{DeclBase: declBase(kw.Span, name.Span), Name: name.Lexeme}
}

// parseVarDecl reads `set x = e;`, `const [T] x = e;` or `x = e;`.
func (p *Parser) parseVarDecl() *ast.VarDecl {
	first := p.peek()
	decl := &ast.VarDecl{}

	switch first.Kind {
	case token.KW_SET:
		p.advance()
	case token.KW_CONST:
		p.advance()
		decl.Const = true
		if p.check(token.IDENT) && p.peekAt(1).Kind == token.IDENT {
			decl.TypeName = p.advance().Lexeme
		}
	default:
		decl.Reassign = true
	}

	name, ok := p.expect(token.IDENT, "Expect variable name.")
	if !ok {
		return nil
	}
	decl.Name = name.Lexeme
	if _, ok := p.expect(token.ASSIGN, "Expect '=' after variable name."); !ok {
		return nil
	}
	decl.Value = p.parseExpression()
	if decl.Value == nil {
		return nil
	}
	end, ok := p.expect(token.SEMICOLON, "Expect ';' after variable declaration.")
	if !ok {
		return nil
	}
	decl.DeclBase = declBase(first.Span, end.Span)
	return decl
}

// ============================================================
// Sections
// ============================================================

// parseSection reads one `Header { ... }` block. Each section accepts only
// its own declaration kind; anything else is reported and skipped one token
// at a time.
func (p *Parser) parseSection() []ast.Decl {
	header := p.advance()
	if _, ok := p.expect(token.LBRACE, fmt.Sprintf("Expect '{' after '%s'.", header.Lexeme)); !ok {
		return nil
	}

	if header.Kind == token.KW_ARENA {
		arena := p.parseArenaItems(header)
		p.expect(token.RBRACE, "Expect '}' after Arena section.")
		return []ast.Decl{arena}
	}

	var want token.Kind
	var parse func() ast.Decl
	switch header.Kind {
	case token.KW_HEROES:
		want, parse = token.KW_HERO, p.parseHero
	case token.KW_STATUS_EFFECTS:
		want, parse = token.KW_STATUS_EFFECT, p.parseStatusEffect
	case token.KW_ITEMS:
		want, parse = token.KW_ITEM, p.parseItem
	case token.KW_CREEPS:
		want, parse = token.KW_CREEP, p.parseCreep
	default:
		want, parse = token.KW_FUNCTION, p.parseFunction
	}

	var decls []ast.Decl
	for !p.check(token.RBRACE) && !p.isAtEnd() {
		if !p.check(want) {
			p.errorAtCurrent("E2005", fmt.Sprintf("Unexpected %s in %s section; expect '%s'.",
				describe(p.peek()), header.Lexeme, want))
			p.skip()
			continue
		}
		start := p.mark()
		if d := parse(); d != nil {
			decls = append(decls, d)
		} else {
			p.recoverDecl(start, want)
		}
	}
	p.expect(token.RBRACE, fmt.Sprintf("Expect '}' after %s section.", header.Lexeme))
	return decls
}

// parseName reads the name following a declaration keyword.
func (p *Parser) parseName(kw token.Token) (token.Token, bool) {
	return p.expect(token.IDENT, fmt.Sprintf("Expect name after '%s'.", kw.Lexeme))
}

// ============================================================
// Heroes
// ============================================================

func (p *Parser) parseHero() ast.Decl {
	kw := p.advance()
	name, ok := p.parseName(kw)
	if !ok {
		return nil
	}
	if _, ok := p.expect(token.LBRACE, "Expect '{' after hero name."); !ok {
		return nil
	}

	hero := &ast.HeroDecl{Name: name.Lexeme}
	seen := make(map[token.Kind]bool)
	for !p.check(token.RBRACE) && !p.isAtEnd() {
		tok := p.peek()
		switch tok.Kind {
		case token.KW_SET:
			start := p.mark()
			if m := p.parseHeroSet(); m != nil {
				hero.Members = append(hero.Members, m)
			} else {
				p.recoverFrom(start)
			}
		case token.KW_HERO_STAT, token.KW_ABILITIES:
			if seen[tok.Kind] {
				p.errorAt(tok, "E2004", fmt.Sprintf("Duplicate '%s' block in hero %s.", tok.Lexeme, hero.Name))
			}
			seen[tok.Kind] = true
			if tok.Kind == token.KW_HERO_STAT {
				if m := p.parseHeroStats(); m != nil {
					hero.Members = append(hero.Members, m)
				}
			} else if m := p.parseHeroAbilities(); m != nil {
				hero.Members = append(hero.Members, m)
			}
		default:
			p.errorAtCurrent("E2005", fmt.Sprintf("Unexpected %s in hero %s.", describe(tok), hero.Name))
			p.skip()
		}
	}
	end, _ := p.expect(token.RBRACE, "Expect '}' after hero body.")
	hero.DeclBase = declBase(kw.Span, end.Span)
	return hero
}

func (p *Parser) parseHeroSet() *ast.HeroSet {
	kw := p.advance()
	name, ok := p.expect(token.IDENT, "Expect variable name after 'set'.")
	if !ok {
		return nil
	}
	if _, ok := p.expect(token.ASSIGN, "Expect '=' after variable name."); !ok {
		return nil
	}
	value := p.parseExpression()
	if value == nil {
		return nil
	}
	end, _ := p.expect(token.SEMICOLON, "Expect ';' after variable declaration.")
	return &ast.HeroSet{NodeBase: ast.NodeBase{Span: span.Join(kw.Span, end.Span)}, Name: name.Lexeme, Value: value}
}

func (p *Parser) parseHeroStats() *ast.HeroStats {
	kw := p.advance()
	p.accept(token.COLON)
	entries, end, ok := p.parseStatBlock()
	if !ok {
		return nil
	}
	return &ast.HeroStats{NodeBase: ast.NodeBase{Span: span.Join(kw.Span, end.Span)}, Entries: entries}
}

func (p *Parser) parseHeroAbilities() *ast.HeroAbilities {
	kw := p.advance()
	p.accept(token.COLON)
	if _, ok := p.expect(token.LBRACE, "Expect '{' after 'abilities'."); !ok {
		return nil
	}
	block := &ast.HeroAbilities{}
	for !p.check(token.RBRACE) && !p.isAtEnd() {
		if !p.check(token.KW_ABILITY) {
			p.errorAtCurrent("E2005", fmt.Sprintf("Unexpected %s in abilities; expect 'ability'.", describe(p.peek())))
			p.skip()
			continue
		}
		start := p.mark()
		if a := p.parseAbility(); a != nil {
			block.Abilities = append(block.Abilities, a)
		} else {
			p.recoverDecl(start, token.KW_ABILITY)
		}
	}
	end, _ := p.expect(token.RBRACE, "Expect '}' after abilities.")
	block.Span = span.Join(kw.Span, end.Span)
	return block
}

// abilityKeys lists the fields an ability accepts.
var abilityKeys = map[token.Kind]fieldShape{
	token.KW_TYPE:        shapeWord,
	token.KW_COOLDOWN:    shapeExpr,
	token.KW_MANA_COST:   shapeExpr,
	token.KW_RANGE:       shapeExpr,
	token.KW_DAMAGE_TYPE: shapeWord,
	token.KW_BEHAVIOR:    shapeBehavior,
}

// statusEffectKeys lists the fields a status effect accepts.
var statusEffectKeys = map[token.Kind]fieldShape{
	token.KW_TYPE:      shapeWord,
	token.KW_DURATION:  shapeExpr,
	token.KW_ON_APPLY:  shapeBehavior,
	token.KW_ON_TICK:   shapeBehavior,
	token.KW_ON_EXPIRE: shapeBehavior,
}

type fieldShape int

const (
	shapeWord     fieldShape = iota // identifier value
	shapeExpr                       // expression value
	shapeBehavior                   // block or pipeline
)

func (p *Parser) parseAbility() *ast.AbilityDecl {
	kw := p.advance()
	name, ok := p.parseName(kw)
	if !ok {
		return nil
	}
	fields, end, ok := p.parseFieldBlock("ability "+name.Lexeme, abilityKeys)
	if !ok {
		return nil
	}
	return &ast.AbilityDecl{NodeBase: ast.NodeBase{Span: span.Join(kw.Span, end.Span)}, Name: name.Lexeme, Fields: fields}
}

// parseFieldBlock reads `{ key: value ... }` where each key must appear in
// keys at most once.
func (p *Parser) parseFieldBlock(owner string, keys map[token.Kind]fieldShape) ([]*ast.Field, token.Token, bool) {
	if _, ok := p.expect(token.LBRACE, fmt.Sprintf("Expect '{' after %s.", owner)); !ok {
		return nil, p.peek(), false
	}
	var fields []*ast.Field
	seen := make(map[token.Kind]bool)
	for !p.check(token.RBRACE) && !p.isAtEnd() {
		key := p.peek()
		start := p.mark()
		shape, known := keys[key.Kind]
		if !known {
			p.errorAtCurrent("E2005", fmt.Sprintf("Unknown field %s in %s.", describe(key), owner))
			if !key.Kind.IsWord() {
				p.skip()
				continue
			}
			p.advance()
			if p.accept(token.COLON) {
				// Skip the whole `key: value` so one bad key yields one error.
				if p.check(token.LBRACE) {
					p.skip()
				} else if p.parseExpression() == nil {
					p.recoverFrom(start)
				}
				p.accept(token.SEMICOLON)
			}
			continue
		}
		p.advance()
		if seen[key.Kind] {
			p.errorAt(key, "E2004", fmt.Sprintf("Duplicate field '%s' in %s.", key.Lexeme, owner))
		}
		seen[key.Kind] = true

		if _, ok := p.expect(token.COLON, fmt.Sprintf("Expect ':' after '%s'.", key.Lexeme)); !ok {
			p.recoverFrom(start)
			continue
		}
		field := p.parseFieldValue(key, shape)
		if field == nil {
			p.recoverFrom(start)
			continue
		}
		fields = append(fields, field)
		p.accept(token.SEMICOLON)
		p.accept(token.COMMA)
	}
	end, ok := p.expect(token.RBRACE, fmt.Sprintf("Expect '}' after %s.", owner))
	return fields, end, ok
}

func (p *Parser) parseFieldValue(key token.Token, shape fieldShape) *ast.Field {
	field := &ast.Field{Key: key.Kind}
	switch shape {
	case shapeWord:
		word, ok := p.expectWord(fmt.Sprintf("Expect a name after '%s:'.", key.Lexeme))
		if !ok {
			return nil
		}
		field.Word = word.Lexeme
		field.Span = span.Join(key.Span, word.Span)
	case shapeBehavior:
		if p.check(token.LBRACE) {
			field.Body = p.parseBlock()
			if field.Body == nil {
				return nil
			}
			field.Span = span.Join(key.Span, field.Body.Span)
		} else {
			field.Value = p.parsePipeline()
			if field.Value == nil {
				return nil
			}
			field.Span = span.Join(key.Span, field.Value.GetSpan())
		}
	default:
		field.Value = p.parseExpression()
		if field.Value == nil {
			return nil
		}
		field.Span = span.Join(key.Span, field.Value.GetSpan())
	}
	return field
}

// parseStatBlock reads `{ name: value ... }` with optional ';' or ','
// separators. A malformed entry is reported and skipped one token (or one
// brace group) at a time.
func (p *Parser) parseStatBlock() ([]*ast.StatEntry, token.Token, bool) {
	if _, ok := p.expect(token.LBRACE, "Expect '{' before stat list."); !ok {
		return nil, p.peek(), false
	}
	var entries []*ast.StatEntry
	for !p.check(token.RBRACE) && !p.isAtEnd() {
		if e := p.parseStatEntry(); e != nil {
			entries = append(entries, e)
		}
	}
	end, ok := p.expect(token.RBRACE, "Expect '}' after stat list.")
	return entries, end, ok
}

func (p *Parser) parseStatEntry() *ast.StatEntry {
	name := p.peek()
	if !name.Kind.IsWord() {
		p.errorAtCurrent("E2001", fmt.Sprintf("Expect stat name, got %s.", describe(name)))
		p.skip()
		return nil
	}
	p.advance()
	if _, ok := p.expect(token.COLON, fmt.Sprintf("Expect ':' after '%s'.", name.Lexeme)); !ok {
		return nil
	}
	value := p.parseExpression()
	if value == nil {
		if !p.check(token.RBRACE) {
			p.skip()
		}
		return nil
	}
	if !p.accept(token.SEMICOLON) {
		p.accept(token.COMMA)
	}
	return &ast.StatEntry{
		StmtBase: ast.StmtBase{NodeBase: ast.NodeBase{Span: span.Join(name.Span, value.GetSpan())}},
		Name:     name.Lexeme,
		Value:    value,
	}
}

// ============================================================
// Arena
// ============================================================

func (p *Parser) parseArenaItems(header token.Token) *ast.ArenaDecl {
	arena := &ast.ArenaDecl{}
	for !p.check(token.RBRACE) && !p.isAtEnd() {
		start := p.mark()
		var item ast.ArenaItem
		var kw token.Kind
		switch p.peekKind() {
		case token.KW_TEAM:
			kw = token.KW_TEAM
			if t := p.parseTeam(); t != nil {
				item = t
			}
		case token.KW_TURRET:
			kw = token.KW_TURRET
			if t := p.parseTurret(); t != nil {
				item = t
			}
		case token.KW_CORE:
			kw = token.KW_CORE
			if c := p.parseCore(); c != nil {
				item = c
			}
		default:
			p.errorAtCurrent("E2005", fmt.Sprintf("Unexpected %s in Arena section; expect 'team', 'turret' or 'core'.",
				describe(p.peek())))
			p.skip()
			continue
		}
		if item != nil {
			arena.Items = append(arena.Items, item)
		} else {
			p.recoverDecl(start, kw)
		}
	}
	arena.DeclBase = declBase(header.Span, p.peek().Span)
	return arena
}

func (p *Parser) parseTeam() *ast.TeamDecl {
	kw := p.advance()
	name, ok := p.parseName(kw)
	if !ok {
		return nil
	}
	if _, ok := p.expect(token.LBRACE, "Expect '{' after team name."); !ok {
		return nil
	}
	team := &ast.TeamDecl{Name: name.Lexeme}
	for !p.check(token.RBRACE) && !p.isAtEnd() {
		tok := p.peek()
		switch tok.Kind {
		case token.KW_CORE:
			p.advance()
			p.accept(token.COLON)
			core, ok := p.expect(token.IDENT, "Expect core name after 'core'.")
			if !ok {
				continue
			}
			if team.Core != "" {
				p.errorAt(core, "E2004", fmt.Sprintf("Duplicate core in team %s.", team.Name))
			}
			team.Core = core.Lexeme
			p.accept(token.SEMICOLON)
		case token.KW_TURRETS:
			p.advance()
			p.accept(token.COLON)
			if _, ok := p.expect(token.LBRACE, "Expect '{' after 'turrets'."); !ok {
				continue
			}
			for !p.check(token.RBRACE) && !p.isAtEnd() {
				p.accept(token.KW_TURRET)
				start := p.mark()
				if t := p.parseTurretBody(); t != nil {
					team.Turrets = append(team.Turrets, t)
				} else {
					p.recoverDecl(start, token.KW_TURRET)
				}
			}
			p.expect(token.RBRACE, "Expect '}' after turrets.")
		default:
			p.errorAtCurrent("E2005", fmt.Sprintf("Unexpected %s in team %s.", describe(tok), team.Name))
			p.skip()
		}
	}
	end, _ := p.expect(token.RBRACE, "Expect '}' after team body.")
	if team.Core == "" {
		p.warnAt(name, "W2007", fmt.Sprintf("Team %s has no core.", team.Name))
	}
	team.Span = span.Join(kw.Span, end.Span)
	return team
}

func (p *Parser) parseTurret() *ast.TurretDecl {
	p.advance()
	return p.parseTurretBody()
}

// parseTurretBody reads `Name { stats }` once the optional 'turret' keyword
// has been consumed.
func (p *Parser) parseTurretBody() *ast.TurretDecl {
	name, ok := p.expect(token.IDENT, "Expect turret name.")
	if !ok {
		return nil
	}
	stats, end, ok := p.parseStatBlock()
	if !ok {
		return nil
	}
	return &ast.TurretDecl{NodeBase: ast.NodeBase{Span: span.Join(name.Span, end.Span)}, Name: name.Lexeme, Stats: stats}
}

func (p *Parser) parseCore() *ast.CoreDecl {
	kw := p.advance()
	name, ok := p.parseName(kw)
	if !ok {
		return nil
	}
	stats, end, ok := p.parseStatBlock()
	if !ok {
		return nil
	}
	return &ast.CoreDecl{NodeBase: ast.NodeBase{Span: span.Join(kw.Span, end.Span)}, Name: name.Lexeme, Stats: stats}
}

// ============================================================
// Status effects, items, creeps, functions
// ============================================================

func (p *Parser) parseStatusEffect() ast.Decl {
	kw := p.advance()
	name, ok := p.parseName(kw)
	if !ok {
		return nil
	}
	fields, end, ok := p.parseFieldBlock("statusEffect "+name.Lexeme, statusEffectKeys)
	if !ok {
		return nil
	}
	return &ast.StatusEffectDecl{DeclBase: declBase(kw.Span, end.Span), Name: name.Lexeme, Fields: fields}
}

func (p *Parser) parseItem() ast.Decl {
	kw := p.advance()
	name, ok := p.parseName(kw)
	if !ok {
		return nil
	}
	if _, ok := p.expect(token.LBRACE, "Expect '{' after item name."); !ok {
		return nil
	}
	item := &ast.ItemDecl{Name: name.Lexeme}
	for !p.check(token.RBRACE) && !p.isAtEnd() {
		if p.check(token.KW_PASSIVE) {
			start := p.mark()
			passive := p.advance()
			if item.Passive != nil {
				p.errorAt(passive, "E2004", fmt.Sprintf("Duplicate 'passive' in item %s.", item.Name))
			}
			if expr := p.parsePassive(); expr != nil {
				item.Passive = expr
			} else {
				p.recoverFrom(start)
			}
			continue
		}
		if e := p.parseStatEntry(); e != nil {
			item.Props = append(item.Props, e)
		}
	}
	end, _ := p.expect(token.RBRACE, "Expect '}' after item body.")
	item.DeclBase = declBase(kw.Span, end.Span)
	return item
}

// parsePassive reads `: { behavior: pipeline [;] }` after 'passive'.
func (p *Parser) parsePassive() ast.Expr {
	if _, ok := p.expect(token.COLON, "Expect ':' after 'passive'."); !ok {
		return nil
	}
	if _, ok := p.expect(token.LBRACE, "Expect '{' after 'passive:'."); !ok {
		return nil
	}
	if _, ok := p.expect(token.KW_BEHAVIOR, "Expect 'behavior' in passive block."); !ok {
		return nil
	}
	if _, ok := p.expect(token.COLON, "Expect ':' after 'behavior'."); !ok {
		return nil
	}
	expr := p.parsePipeline()
	if expr == nil {
		return nil
	}
	p.accept(token.SEMICOLON)
	if _, ok := p.expect(token.RBRACE, "Expect '}' after passive block."); !ok {
		return nil
	}
	return expr
}

func (p *Parser) parseCreep() ast.Decl {
	kw := p.advance()
	name, ok := p.parseName(kw)
	if !ok {
		return nil
	}
	stats, end, ok := p.parseStatBlock()
	if !ok {
		return nil
	}
	return &ast.CreepDecl{DeclBase: declBase(kw.Span, end.Span), Name: name.Lexeme, Stats: stats}
}

// parseFunction reads `function name([Type] p, ...) [: Type] { ... }`.
func (p *Parser) parseFunction() ast.Decl {
	kw := p.advance()
	name, ok := p.parseName(kw)
	if !ok {
		return nil
	}
	if _, ok := p.expect(token.LPAREN, "Expect '(' after function name."); !ok {
		return nil
	}
	fn := &ast.FuncDecl{Name: name.Lexeme}
	if !p.check(token.RPAREN) {
		for {
			param := ast.Param{}
			if p.check(token.IDENT) && p.peekAt(1).Kind == token.IDENT {
				param.TypeName = p.advance().Lexeme
			}
			pname, ok := p.expect(token.IDENT, "Expect parameter name.")
			if !ok {
				return nil
			}
			param.Name = pname.Lexeme
			for _, existing := range fn.Params {
				if existing.Name == param.Name {
					p.errorAt(pname, "E2004", fmt.Sprintf("Duplicate parameter '%s'.", param.Name))
				}
			}
			fn.Params = append(fn.Params, param)
			if !p.accept(token.COMMA) {
				break
			}
		}
	}
	if _, ok := p.expect(token.RPAREN, "Expect ')' after parameters."); !ok {
		return nil
	}
	if p.accept(token.COLON) {
		ret, ok := p.expectWord("Expect return type after ':'.")
		if !ok {
			return nil
		}
		fn.ReturnType = ret.Lexeme
	}
	if !p.check(token.LBRACE) {
		p.errorAtCurrent("E2001", "Expect '{' before function body.")
		return nil
	}
	fn.Body = p.parseBlock()
	if fn.Body == nil {
		return nil
	}
	fn.DeclBase = declBase(kw.Span, fn.Body.Span)
	return fn
}

func declBase(start, end span.Span) ast.DeclBase {
	return ast.DeclBase{NodeBase: ast.NodeBase{Span: span.Join(start, end)}}
}
