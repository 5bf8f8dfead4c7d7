// Package parser turns a token sequence into an AST with a hand-written
// recursive descent parser. Binary expressions use precedence climbing
// (see expr.go); malformed input is recovered from in panic mode so a
// single mistake doesn't abort the whole parse (see guards.go).
package parser

import (
	"slc.dev/slc/pkg/ast"
	"slc.dev/slc/pkg/diag"
	"slc.dev/slc/pkg/token"
	"slc.dev/slc/pkg/types"
)

// Parser consumes a fixed token slice produced by pkg/lexer. tokens always
// ends with exactly one EOF token, which peekAt clamps to so lookahead past
// the end of input never panics.
type Parser struct {
	tokens    []token.Token
	pos       int
	diags     *diag.Diagnostics
	panicking bool
}

func New(tokens []token.Token, diags *diag.Diagnostics) *Parser {
	return &Parser{tokens: tokens, diags: diags}
}

// Parse runs the whole program production and returns the resulting tree.
// Diagnostics accumulate in the Diagnostics the Parser was built with; the
// tree is returned regardless of whether any were recorded, possibly with
// malformed subtrees omitted.
func Parse(tokens []token.Token, diags *diag.Diagnostics) *ast.Program {
	return New(tokens, diags).ParseProgram()
}

func (p *Parser) peek() token.Token { return p.peekAt(0) }

func (p *Parser) peekAt(n int) token.Token {
	idx := p.pos + n
	if idx >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[idx]
}

func (p *Parser) advance() token.Token {
	tok := p.tokens[p.pos]
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
	return tok
}

func (p *Parser) check(kind token.Kind) bool { return p.peek().Kind == kind }
func (p *Parser) isAtEnd() bool              { return p.peek().Kind == token.EOF }

// expect consumes and returns the next token if it has the given kind,
// otherwise records a diagnostic and bails out to the nearest guard.
func (p *Parser) expect(kind token.Kind, what string) token.Token {
	if p.check(kind) {
		return p.advance()
	}
	p.fail(p.peek(), "expected %s, found %s", what, describe(p.peek()))
	panic("unreachable")
}

func describe(tok token.Token) string {
	if tok.Kind == token.IDENT || tok.Kind == token.INT || tok.Kind == token.FLOAT {
		return tok.Kind.String() + " " + tok.Lexeme
	}
	return tok.Kind.String()
}

// ----------------------------------------------------------------------------
// Program / declarations

func (p *Parser) ParseProgram() *ast.Program {
	start := p.peek()
	prog := ast.NewProgram(start.Line, start.Col)

	p.forEachUntil("program", p.isAtEnd, func() {
		item := p.parseDeclaration()
		if item != nil {
			prog.Items = append(prog.Items, item)
		}
	})

	return prog
}

func (p *Parser) parseDeclaration() ast.Node {
	switch p.peek().Kind {
	case token.INCLUDE:
		return p.parseInclude()
	case token.EXTERN:
		return p.parseExtern()
	case token.FN:
		return p.parseFunction()
	case token.STRUCT:
		return p.parseStructDecl(false)
	case token.IMPL:
		return p.parseImpl()
	default:
		return p.parseStatement()
	}
}

func (p *Parser) parseInclude() ast.Node {
	start := p.expect(token.INCLUDE, "'include'")
	p.expect(token.LPAREN, "'('")
	pathTok := p.expect(token.STRING, "a string literal")
	p.expect(token.RPAREN, "')'")
	p.expect(token.SEMI, "';'")

	path, _ := pathTok.Literal.(string)
	return ast.NewInclude(start.Line, start.Col, path, true)
}

func (p *Parser) parseExtern() ast.Node {
	p.expect(token.EXTERN, "'extern'")

	if p.check(token.STRUCT) {
		return p.parseStructDecl(true)
	}

	start := p.expect(token.FN, "'fn'")
	nameTok := p.expect(token.IDENT, "a function name")
	p.expect(token.LPAREN, "'('")
	params := p.parseParams()
	p.expect(token.RPAREN, "')'")

	ret := types.TyVoid
	if p.check(token.ARROW) {
		p.advance()
		ret = p.parseType()
	}
	p.expect(token.SEMI, "';'")

	return ast.NewExternFunction(start.Line, start.Col, nameTok.Lexeme, params, ret)
}

func (p *Parser) parseFunction() *ast.Function {
	start := p.expect(token.FN, "'fn'")
	nameTok := p.expect(token.IDENT, "a function name")
	p.expect(token.LPAREN, "'('")
	params := p.parseParams()
	p.expect(token.RPAREN, "')'")

	ret := types.TyVoid
	if p.check(token.ARROW) {
		p.advance()
		ret = p.parseType()
	}

	body := p.parseBlock()
	return ast.NewFunction(start.Line, start.Col, nameTok.Lexeme, params, ret, body)
}

func (p *Parser) parseParams() []ast.Param {
	var params []ast.Param
	p.forEachUntil("parameter list", func() bool { return p.check(token.RPAREN) }, func() {
		nameTok := p.expect(token.IDENT, "a parameter name")
		p.expect(token.COLON, "':'")
		ty := p.parseType()
		params = append(params, ast.Param{Name: nameTok.Lexeme, Type: ty})
		if p.check(token.COMMA) {
			p.advance()
		}
	})
	return params
}

func (p *Parser) parseStructDecl(isExtern bool) *ast.Struct {
	start := p.expect(token.STRUCT, "'struct'")
	nameTok := p.expect(token.IDENT, "a struct name")
	p.expect(token.LBRACE, "'{'")
	fields := p.parseStructFields()
	p.expect(token.RBRACE, "'}'")
	return ast.NewStruct(start.Line, start.Col, nameTok.Lexeme, fields, isExtern)
}

func (p *Parser) parseStructFields() []ast.Param {
	var fields []ast.Param
	p.forEachUntil("struct fields", func() bool { return p.check(token.RBRACE) }, func() {
		nameTok := p.expect(token.IDENT, "a field name")
		p.expect(token.COLON, "':'")
		ty := p.parseType()
		fields = append(fields, ast.Param{Name: nameTok.Lexeme, Type: ty})
		if p.check(token.COMMA) {
			p.advance()
		}
	})
	return fields
}

func (p *Parser) parseImpl() *ast.Impl {
	start := p.expect(token.IMPL, "'impl'")
	nameTok := p.expect(token.IDENT, "a struct name")
	p.expect(token.LBRACE, "'{'")

	var fns []*ast.Function
	p.forEachUntil("impl body", func() bool { return p.check(token.RBRACE) }, func() {
		fns = append(fns, p.parseFunction())
	})

	p.expect(token.RBRACE, "'}'")
	return ast.NewImpl(start.Line, start.Col, nameTok.Lexeme, fns)
}

// ----------------------------------------------------------------------------
// Statements

// tryParseKeywordStatement parses the statement forms that are introduced by
// a distinctive leading keyword or brace. It is shared by parseStatement
// (bare statement context) and parseBlock (block context, which additionally
// allows a final bare expression with no trailing statement-keyword form).
func (p *Parser) tryParseKeywordStatement() (ast.Node, bool) {
	switch p.peek().Kind {
	case token.IF:
		return p.parseIf(), true
	case token.WHILE:
		return p.parseWhile(), true
	case token.FOR:
		return p.parseFor(), true
	case token.LOOP:
		return p.parseLoop(), true
	case token.RETURN:
		return p.parseReturn(), true
	case token.BREAK:
		return p.parseBreakStmt(), true
	case token.CONTINUE:
		return p.parseContinueStmt(), true
	case token.LET:
		return p.parseLetStatement(), true
	case token.LBRACE:
		return p.parseBlock(), true
	}
	return nil, false
}

func (p *Parser) parseStatement() ast.Node {
	if node, ok := p.tryParseKeywordStatement(); ok {
		return node
	}
	expr := p.parseExpression()
	p.expect(token.SEMI, "';'")
	return expr
}

func (p *Parser) parseBlock() *ast.Block {
	start := p.expect(token.LBRACE, "'{'")

	var stmts []ast.Node
	var final ast.Node

	p.forEachUntil("block", func() bool { return p.check(token.RBRACE) }, func() {
		if node, ok := p.tryParseKeywordStatement(); ok {
			stmts = append(stmts, node)
			return
		}

		expr := p.parseExpression()
		switch {
		case p.check(token.SEMI):
			p.advance()
			stmts = append(stmts, expr)
		case p.check(token.RBRACE):
			final = expr
		default:
			p.fail(p.peek(), "expected ';' or '}' after expression")
		}
	})

	p.expect(token.RBRACE, "'}'")
	return ast.NewBlock(start.Line, start.Col, stmts, final)
}

func (p *Parser) parseIf() *ast.If {
	start := p.expect(token.IF, "'if'")
	p.expect(token.LPAREN, "'(' (the condition must be parenthesized)")
	cond := p.parseExpression()
	p.expect(token.RPAREN, "')'")
	then := p.parseBlock()

	var els ast.Node
	if p.check(token.ELSE) {
		p.advance()
		if p.check(token.IF) {
			els = p.parseIf()
		} else {
			els = p.parseBlock()
		}
	}

	return ast.NewIf(start.Line, start.Col, cond, then, els)
}

func (p *Parser) parseWhile() *ast.While {
	start := p.expect(token.WHILE, "'while'")
	p.expect(token.LPAREN, "'(' (the condition must be parenthesized)")
	cond := p.parseExpression()
	p.expect(token.RPAREN, "')'")
	body := p.parseBlock()
	return ast.NewWhile(start.Line, start.Col, cond, body)
}

func (p *Parser) parseFor() *ast.For {
	start := p.expect(token.FOR, "'for'")
	nameTok := p.expect(token.IDENT, "a loop variable name")

	if p.check(token.COLON) {
		p.advance()
		p.parseType() // the iteration variable is always i32; an annotation is accepted and discarded
	}

	p.expect(token.IN, "'in'")
	lo := p.parseExpression()
	p.expect(token.DOTDOT, "'..'")
	hi := p.parseExpression()
	body := p.parseBlock()

	return ast.NewFor(start.Line, start.Col, nameTok.Lexeme, lo, hi, body)
}

func (p *Parser) parseLoop() *ast.Loop {
	start := p.expect(token.LOOP, "'loop'")
	body := p.parseBlock()
	return ast.NewLoop(start.Line, start.Col, body)
}

func (p *Parser) parseReturn() *ast.Return {
	start := p.expect(token.RETURN, "'return'")
	var value ast.Node
	if !p.check(token.SEMI) {
		value = p.parseExpression()
	}
	p.expect(token.SEMI, "';'")
	return ast.NewReturn(start.Line, start.Col, value)
}

func (p *Parser) parseBreakStmt() *ast.Break {
	start := p.expect(token.BREAK, "'break'")
	p.expect(token.SEMI, "';'")
	return ast.NewBreak(start.Line, start.Col)
}

func (p *Parser) parseContinueStmt() *ast.Continue {
	start := p.expect(token.CONTINUE, "'continue'")
	p.expect(token.SEMI, "';'")
	return ast.NewContinue(start.Line, start.Col)
}

func (p *Parser) parseLetStatement() *ast.Let {
	start := p.expect(token.LET, "'let'")

	mutable := false
	if p.check(token.MUT) {
		p.advance()
		mutable = true
	}

	nameTok := p.expect(token.IDENT, "a variable name")

	var annotated *types.Type
	if p.check(token.COLON) {
		p.advance()
		annotated = p.parseType()
	}

	var init ast.Node
	if p.check(token.ASSIGN) {
		p.advance()
		init = p.parseExpression()
	}

	p.expect(token.SEMI, "';'")
	return ast.NewLet(start.Line, start.Col, nameTok.Lexeme, annotated, init, mutable)
}

// ----------------------------------------------------------------------------
// Types

// parseType parses the type grammar: `&[mut] T`, `*T`, `[T; N]`, a primitive
// keyword, or a bare identifier naming a struct.
func (p *Parser) parseType() *types.Type {
	switch {
	case p.check(token.AMP):
		p.advance()
		mutable := false
		if p.check(token.MUT) {
			p.advance()
			mutable = true
		}
		return types.NewReference(p.parseType(), mutable)

	case p.check(token.STAR):
		p.advance()
		return types.NewPointer(p.parseType())

	case p.check(token.LBRACKET):
		p.advance()
		elem := p.parseType()
		p.expect(token.SEMI, "';'")
		sizeTok := p.expect(token.INT, "an array size")
		p.expect(token.RBRACKET, "']'")
		size, _ := sizeTok.Literal.(int64)
		return types.NewArray(elem, uint64(size))

	case p.check(token.IDENT):
		tok := p.advance()
		return types.NewStruct(tok.Lexeme)

	default:
		if ty, ok := types.Primitives[p.peek().Lexeme]; ok && isPrimitiveKeyword(p.peek().Kind) {
			p.advance()
			return ty
		}
		p.fail(p.peek(), "expected a type, found %s", describe(p.peek()))
		panic("unreachable")
	}
}

func isPrimitiveKeyword(k token.Kind) bool {
	switch k {
	case token.I8, token.I16, token.I32, token.I64,
		token.U8, token.U16, token.U32, token.U64,
		token.F32, token.F64, token.BOOL, token.CHAR, token.STR, token.VOID:
		return true
	}
	return false
}
