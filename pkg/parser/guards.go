package parser

import "slc.dev/slc/pkg/token"

// maxLoopIterations is the hard cap every unbounded parsing loop carries, to
// catch a grammar bug that would otherwise spin forever.
const maxLoopIterations = 1 << 16

// bailout is the panic payload used to unwind out of a broken construct back
// to the nearest loop guard, where it is caught and turned into a
// synchronize() call. Go has no cheap way to unwind N stack frames on a
// parse error without either threading a "gave up" bool through every
// return or using panic/recover for control flow; this uses the latter.
type bailout struct{}

// fail records a diagnostic (the first one since the last synchronization
// point; panic mode suppresses the rest) and unwinds to the nearest guard.
func (p *Parser) fail(tok token.Token, format string, args ...any) {
	if !p.panicking {
		p.diags.Add(tok.Line, tok.Col, format, args...)
		p.panicking = true
	}
	panic(bailout{})
}

// reportErrorNoPanic is for the iteration-cap safety net: it records a
// diagnostic without entering panic mode, since a runaway loop is an
// internal/grammar concern, not a recoverable user-facing parse error.
func (p *Parser) reportErrorNoPanic(tok token.Token, format string, args ...any) {
	if !p.panicking {
		p.diags.Add(tok.Line, tok.Col, format, args...)
	}
}

// declStarters is the synchronization set: tokens that plausibly begin a
// fresh top-level declaration or statement.
var declStarters = map[token.Kind]bool{
	token.FN: true, token.LET: true, token.IF: true, token.WHILE: true,
	token.FOR: true, token.LOOP: true, token.RETURN: true, token.BREAK: true,
	token.CONTINUE: true, token.STRUCT: true, token.IMPL: true,
}

// synchronize discards tokens until the parser is past the next ';', or
// sits on a declaration-starter token or a '}', then leaves panic mode. '}'
// is a stop token rather than something to skip past: without it, recovery
// from an error near the end of a block would eat the block's own closing
// brace and desynchronize the enclosing construct too.
func (p *Parser) synchronize() {
	for !p.isAtEnd() {
		if p.pos > 0 && p.tokens[p.pos-1].Kind == token.SEMI {
			break
		}
		if declStarters[p.peek().Kind] || p.peek().Kind == token.RBRACE {
			break
		}
		p.advance()
	}
	p.panicking = false
}

// runGuarded calls body, recovering from a bailout panic by synchronizing;
// any other panic propagates (it signals a genuine implementation bug, not a
// malformed-input condition).
func (p *Parser) runGuarded(body func()) {
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(bailout); ok {
				p.synchronize()
				return
			}
			panic(r)
		}
	}()
	body()
}

// forEachUntil drives a Kleene-star grammar production (block statements,
// struct fields, call arguments, impl items, top-level declarations, array
// literal elements): a hard iteration cap plus a "cursor did not advance"
// check force progress so one malformed element can never spin the loop
// forever, and a bailout inside a single element is recovered without
// aborting the whole surrounding construct.
func (p *Parser) forEachUntil(label string, stop func() bool, body func()) {
	iterations := 0
	for !stop() && !p.isAtEnd() {
		iterations++
		if iterations > maxLoopIterations {
			p.reportErrorNoPanic(p.peek(), "internal: %s exceeded the iteration cap, aborting", label)
			return
		}

		before := p.pos
		p.runGuarded(body)

		if p.pos == before && !stop() && !p.isAtEnd() {
			p.reportErrorNoPanic(p.peek(), "%s: parser made no progress, forcing advance", label)
			p.advance()
		}
	}
}
