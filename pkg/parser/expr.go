package parser

import (
	"slc.dev/slc/pkg/ast"
	"slc.dev/slc/pkg/token"
)

// Expression parsing is precedence climbing written out as one method per
// level, loosest-binding first: assignment, logical-or, logical-and,
// bitwise-or, bitwise-xor, bitwise-and, equality, comparison, cast, shift,
// additive, multiplicative, unary, postfix, primary. Each level calls
// straight down to the next tighter level and only handles its own operator
// set, so precedence falls out of the call structure rather than a table.

func (p *Parser) parseExpression() ast.Node { return p.parseAssignment() }

var assignOps = map[token.Kind]string{
	token.ASSIGN:  "=",
	token.PLUSEQ:  "+=",
	token.MINUSEQ: "-=",
	token.STAREQ:  "*=",
	token.SLASHEQ: "/=",
}

// parseAssignment is right-associative: the right-hand side recurses back
// into parseAssignment, not parseLogicalOr, so `a = b = c` parses as
// `a = (b = c)`.
func (p *Parser) parseAssignment() ast.Node {
	left := p.parseLogicalOr()
	if op, ok := assignOps[p.peek().Kind]; ok {
		opTok := p.advance()
		right := p.parseAssignment()
		return ast.NewAssignment(opTok.Line, opTok.Col, left, op, right)
	}
	return left
}

func (p *Parser) parseLogicalOr() ast.Node {
	left := p.parseLogicalAnd()
	for p.check(token.OROR) {
		opTok := p.advance()
		right := p.parseLogicalAnd()
		left = ast.NewBinaryOp(opTok.Line, opTok.Col, left, "||", right)
	}
	return left
}

func (p *Parser) parseLogicalAnd() ast.Node {
	left := p.parseBitwiseOr()
	for p.check(token.ANDAND) {
		opTok := p.advance()
		right := p.parseBitwiseOr()
		left = ast.NewBinaryOp(opTok.Line, opTok.Col, left, "&&", right)
	}
	return left
}

func (p *Parser) parseBitwiseOr() ast.Node {
	left := p.parseBitwiseXor()
	for p.check(token.PIPE) {
		opTok := p.advance()
		right := p.parseBitwiseXor()
		left = ast.NewBinaryOp(opTok.Line, opTok.Col, left, "|", right)
	}
	return left
}

func (p *Parser) parseBitwiseXor() ast.Node {
	left := p.parseBitwiseAnd()
	for p.check(token.CARET) {
		opTok := p.advance()
		right := p.parseBitwiseAnd()
		left = ast.NewBinaryOp(opTok.Line, opTok.Col, left, "^", right)
	}
	return left
}

func (p *Parser) parseBitwiseAnd() ast.Node {
	left := p.parseEquality()
	for p.check(token.AMP) {
		opTok := p.advance()
		right := p.parseEquality()
		left = ast.NewBinaryOp(opTok.Line, opTok.Col, left, "&", right)
	}
	return left
}

var equalityOps = map[token.Kind]string{token.EQ: "==", token.NEQ: "!="}

func (p *Parser) parseEquality() ast.Node {
	left := p.parseComparison()
	for {
		op, ok := equalityOps[p.peek().Kind]
		if !ok {
			return left
		}
		opTok := p.advance()
		right := p.parseComparison()
		left = ast.NewBinaryOp(opTok.Line, opTok.Col, left, op, right)
	}
}

var comparisonOps = map[token.Kind]string{
	token.LT: "<", token.GT: ">", token.LE: "<=", token.GE: ">=",
}

func (p *Parser) parseComparison() ast.Node {
	left := p.parseCast()
	for {
		op, ok := comparisonOps[p.peek().Kind]
		if !ok {
			return left
		}
		opTok := p.advance()
		right := p.parseCast()
		left = ast.NewBinaryOp(opTok.Line, opTok.Col, left, op, right)
	}
}

// parseCast sits between comparison and shift: `x as i32 < y` parses as
// `(x as i32) < y`, and casts chain left-associatively (`x as i32 as f64`).
func (p *Parser) parseCast() ast.Node {
	left := p.parseShift()
	for p.check(token.AS) {
		asTok := p.advance()
		target := p.parseType()
		left = ast.NewCast(asTok.Line, asTok.Col, left, target)
	}
	return left
}

var shiftOps = map[token.Kind]string{token.SHL: "<<", token.SHR: ">>"}

func (p *Parser) parseShift() ast.Node {
	left := p.parseAdditive()
	for {
		op, ok := shiftOps[p.peek().Kind]
		if !ok {
			return left
		}
		opTok := p.advance()
		right := p.parseAdditive()
		left = ast.NewBinaryOp(opTok.Line, opTok.Col, left, op, right)
	}
}

var additiveOps = map[token.Kind]string{token.PLUS: "+", token.MINUS: "-"}

func (p *Parser) parseAdditive() ast.Node {
	left := p.parseMultiplicative()
	for {
		op, ok := additiveOps[p.peek().Kind]
		if !ok {
			return left
		}
		opTok := p.advance()
		right := p.parseMultiplicative()
		left = ast.NewBinaryOp(opTok.Line, opTok.Col, left, op, right)
	}
}

var multiplicativeOps = map[token.Kind]string{
	token.STAR: "*", token.SLASH: "/", token.PERCENT: "%",
}

func (p *Parser) parseMultiplicative() ast.Node {
	left := p.parseUnary()
	for {
		op, ok := multiplicativeOps[p.peek().Kind]
		if !ok {
			return left
		}
		opTok := p.advance()
		right := p.parseUnary()
		left = ast.NewBinaryOp(opTok.Line, opTok.Col, left, op, right)
	}
}

func (p *Parser) parseUnary() ast.Node {
	switch p.peek().Kind {
	case token.MINUS:
		opTok := p.advance()
		return ast.NewUnaryOp(opTok.Line, opTok.Col, p.parseUnary(), "-", false)
	case token.NOT:
		opTok := p.advance()
		return ast.NewUnaryOp(opTok.Line, opTok.Col, p.parseUnary(), "!", false)
	case token.STAR:
		opTok := p.advance()
		return ast.NewUnaryOp(opTok.Line, opTok.Col, p.parseUnary(), "*", false)
	case token.AMP:
		opTok := p.advance()
		isMut := false
		if p.check(token.MUT) {
			p.advance()
			isMut = true
		}
		return ast.NewUnaryOp(opTok.Line, opTok.Col, p.parseUnary(), "&", isMut)
	default:
		return p.parsePostfix()
	}
}

// parsePostfix handles field access, calls, indexing, `::` path segments
// and struct literals. These all bind at the same tight precedence and
// chain left to right (`a.b(c)[d]`), so this is a flat loop rather than a
// recursive call into a tighter level.
func (p *Parser) parsePostfix() ast.Node {
	expr := p.parsePrimary()
	iterations := 0

	for {
		iterations++
		if iterations > maxLoopIterations {
			p.reportErrorNoPanic(p.peek(), "internal: postfix chain exceeded the iteration cap, aborting")
			return expr
		}

		before := p.pos

		switch {
		case p.check(token.DOT):
			dotTok := p.advance()
			nameTok := p.expect(token.IDENT, "a field name")
			expr = ast.NewField(dotTok.Line, dotTok.Col, expr, nameTok.Lexeme)

		case p.check(token.LPAREN):
			parenTok := p.advance()
			args := p.parseCallArgs()
			p.expect(token.RPAREN, "')'")
			expr = ast.NewCall(parenTok.Line, parenTok.Col, expr, args)

		case p.check(token.LBRACKET):
			brTok := p.advance()
			idx := p.parseExpression()
			p.expect(token.RBRACKET, "']'")
			expr = ast.NewIndex(brTok.Line, brTok.Col, expr, idx)

		case p.check(token.COLONCOLON):
			ident, ok := expr.(*ast.Identifier)
			if !ok {
				return expr
			}
			p.advance()
			nameTok := p.expect(token.IDENT, "an identifier")
			loc := ident.Loc()
			expr = ast.NewIdentifier(loc.Line, loc.Col, ident.Name+"::"+nameTok.Lexeme)

		case p.check(token.LBRACE):
			ident, ok := expr.(*ast.Identifier)
			if !ok || !p.looksLikeStructLiteral() {
				return expr
			}
			expr = p.parseStructLiteralBody(ident)

		default:
			return expr
		}

		if p.pos == before {
			return expr
		}
	}
}

func (p *Parser) parseCallArgs() []ast.Node {
	var args []ast.Node
	p.forEachUntil("call arguments", func() bool { return p.check(token.RPAREN) }, func() {
		args = append(args, p.parseExpression())
		if p.check(token.COMMA) {
			p.advance()
		}
	})
	return args
}

// looksLikeStructLiteral is the one-token-further lookahead that
// disambiguates `Ident {` starting a struct literal from `Ident` merely
// preceding a block — e.g. the loop body in `for i in 0..n { ... }`. It is
// called with the current token sitting on the unconsumed `{`.
func (p *Parser) looksLikeStructLiteral() bool {
	next := p.peekAt(1)
	if next.Kind == token.RBRACE {
		return true
	}
	return next.Kind == token.IDENT && p.peekAt(2).Kind == token.COLON
}

func (p *Parser) parseStructLiteralBody(ident *ast.Identifier) ast.Node {
	start := p.expect(token.LBRACE, "'{'")

	var names []string
	var values []ast.Node

	p.forEachUntil("struct literal fields", func() bool { return p.check(token.RBRACE) }, func() {
		nameTok := p.expect(token.IDENT, "a field name")
		p.expect(token.COLON, "':'")
		values = append(values, p.parseExpression())
		names = append(names, nameTok.Lexeme)
		if p.check(token.COMMA) {
			p.advance()
		}
	})

	p.expect(token.RBRACE, "'}'")
	return ast.NewStructLiteral(start.Line, start.Col, ident.Name, names, values)
}

func (p *Parser) parsePrimary() ast.Node {
	tok := p.peek()

	switch tok.Kind {
	case token.INT, token.FLOAT, token.STRING, token.CHARLIT, token.TRUE, token.FALSE:
		p.advance()
		return ast.NewLiteral(tok.Line, tok.Col, tok.Literal)

	case token.IDENT:
		p.advance()
		return ast.NewIdentifier(tok.Line, tok.Col, tok.Lexeme)

	case token.LPAREN:
		p.advance()
		inner := p.parseExpression()
		p.expect(token.RPAREN, "')'")
		return inner

	case token.LBRACKET:
		p.advance()
		var elems []ast.Node
		p.forEachUntil("array literal", func() bool { return p.check(token.RBRACKET) }, func() {
			elems = append(elems, p.parseExpression())
			if p.check(token.COMMA) {
				p.advance()
			}
		})
		p.expect(token.RBRACKET, "']'")
		return ast.NewArrayLiteral(tok.Line, tok.Col, elems)

	default:
		p.fail(tok, "expected an expression, found %s", describe(tok))
		panic("unreachable")
	}
}
