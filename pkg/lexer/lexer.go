// Package lexer implements the first compiler stage: a hand-rolled
// byte-cursor scanner that classifies a source buffer into a token sequence
// terminated by exactly one EOF token.
package lexer

import (
	"unicode/utf8"

	"slc.dev/slc/pkg/token"
)

// Lexer scans a single in-memory source buffer. It holds no other shared
// state, so nothing beyond the cursor/line/column needs locking or cleanup.
type Lexer struct {
	src []byte
	pos int // byte offset of the next unconsumed byte
	line int
	col  int
}

func New(src []byte) *Lexer {
	return &Lexer{src: src, pos: 0, line: 1, col: 1}
}

// Tokenize scans the entire buffer and returns the token sequence. On the
// first invalid byte sequence or lexical error it appends a single ERROR
// token and stops scanning, still terminating the sequence with exactly one
// EOF token.
func (l *Lexer) Tokenize() []token.Token {
	var tokens []token.Token

	for {
		tok := l.Next()
		tokens = append(tokens, tok)
		if tok.Kind == token.EOF || tok.Kind == token.ERROR {
			break
		}
	}

	if len(tokens) == 0 || tokens[len(tokens)-1].Kind != token.EOF {
		tokens = append(tokens, token.Token{Kind: token.EOF, Line: l.line, Col: l.col})
	}

	return tokens
}

// Next scans and returns the single next token. Callers that only need a
// full token vector should prefer Tokenize; Next is exposed for tooling that
// wants to stream tokens (e.g. a `--dump-tokens` CLI mode).
func (l *Lexer) Next() token.Token {
	if err := l.skipWhitespaceAndComments(); err != nil {
		return l.errorToken(err.Error())
	}

	if l.isAtEnd() {
		return token.Token{Kind: token.EOF, Line: l.line, Col: l.col}
	}

	startLine, startCol := l.line, l.col
	b := l.peek()

	switch {
	case isIdentStart(b):
		return l.scanIdentifier(startLine, startCol)
	case isDigit(b):
		return l.scanNumber(startLine, startCol)
	case b == '"':
		return l.scanString(startLine, startCol)
	case b == '\'':
		return l.scanChar(startLine, startCol)
	default:
		return l.scanPunct(startLine, startCol)
	}
}

// ----------------------------------------------------------------------------
// Cursor primitives

func (l *Lexer) isAtEnd() bool { return l.pos >= len(l.src) }

func (l *Lexer) peek() byte {
	if l.isAtEnd() {
		return 0
	}
	return l.src[l.pos]
}

func (l *Lexer) peekAt(offset int) byte {
	if l.pos+offset >= len(l.src) {
		return 0
	}
	return l.src[l.pos+offset]
}

// advance consumes and returns one byte, updating line/column tracking.
func (l *Lexer) advance() byte {
	b := l.src[l.pos]
	l.pos++
	if b == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return b
}

func (l *Lexer) errorToken(message string) token.Token {
	return token.Token{Kind: token.ERROR, Lexeme: message, Line: l.line, Col: l.col}
}

// ----------------------------------------------------------------------------
// Whitespace & comments

func (l *Lexer) skipWhitespaceAndComments() error {
	for !l.isAtEnd() {
		b := l.peek()

		switch {
		case b == ' ' || b == '\t' || b == '\r' || b == '\n':
			l.advance()

		case b == '/' && l.peekAt(1) == '/':
			for !l.isAtEnd() && l.peek() != '\n' {
				l.advance()
			}

		case b == '/' && l.peekAt(1) == '*':
			l.advance()
			l.advance()
			terminated := false
			for !l.isAtEnd() {
				if l.peek() == '*' && l.peekAt(1) == '/' {
					l.advance()
					l.advance()
					terminated = true
					break
				}
				l.advance()
			}
			if !terminated {
				return errUnterminatedBlockComment
			}

		default:
			return nil
		}
	}
	return nil
}

// ----------------------------------------------------------------------------
// Identifiers & keywords

func isIdentStart(b byte) bool {
	return b == '_' || (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z')
}

func isIdentCont(b byte) bool { return isIdentStart(b) || isDigit(b) }

func (l *Lexer) scanIdentifier(line, col int) token.Token {
	start := l.pos
	for !l.isAtEnd() && isIdentCont(l.peek()) {
		l.advance()
	}
	lexeme := string(l.src[start:l.pos])

	if kind, isKeyword := token.Keywords[lexeme]; isKeyword {
		tok := token.Token{Kind: kind, Lexeme: lexeme, Line: line, Col: col}
		if kind == token.TRUE {
			tok.Literal = true
		} else if kind == token.FALSE {
			tok.Literal = false
		}
		return tok
	}

	return token.Token{Kind: token.IDENT, Lexeme: lexeme, Line: line, Col: col}
}

// ----------------------------------------------------------------------------
// Numbers

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func (l *Lexer) scanNumber(line, col int) token.Token {
	start := l.pos
	isFloat := false

	for !l.isAtEnd() && isDigit(l.peek()) {
		l.advance()
	}

	if l.peek() == '.' && isDigit(l.peekAt(1)) {
		isFloat = true
		l.advance() // '.'
		for !l.isAtEnd() && isDigit(l.peek()) {
			l.advance()
		}
	}

	if l.peek() == 'e' || l.peek() == 'E' {
		offset := 1
		if l.peekAt(offset) == '+' || l.peekAt(offset) == '-' {
			offset++
		}
		if isDigit(l.peekAt(offset)) {
			isFloat = true
			for i := 0; i < offset; i++ {
				l.advance()
			}
			for !l.isAtEnd() && isDigit(l.peek()) {
				l.advance()
			}
		}
	}

	lexeme := string(l.src[start:l.pos])

	if isFloat {
		value := parseFloat(lexeme)
		return token.Token{Kind: token.FLOAT, Lexeme: lexeme, Line: line, Col: col, Literal: value}
	}

	value := parseInt(lexeme)
	return token.Token{Kind: token.INT, Lexeme: lexeme, Line: line, Col: col, Literal: value}
}

// ----------------------------------------------------------------------------
// Strings

// Escape interpretation is deferred to codegen: the backslash and the byte
// following it are preserved raw in the lexeme.
func (l *Lexer) scanString(line, col int) token.Token {
	start := l.pos
	l.advance() // opening '"'

	for {
		if l.isAtEnd() {
			l.pos = start
			return l.errorToken("unterminated string literal")
		}
		b := l.peek()
		if b == '"' {
			l.advance()
			break
		}
		if b == '\\' {
			l.advance()
			if l.isAtEnd() {
				l.pos = start
				return l.errorToken("unterminated string literal")
			}
			l.advance() // the escaped byte, preserved raw
			continue
		}
		l.advance()
	}

	lexeme := string(l.src[start:l.pos])
	// Literal value is the content between the quotes, escapes left raw
	// (codegen re-emits them through C's own string syntax).
	return token.Token{Kind: token.STRING, Lexeme: lexeme, Line: line, Col: col, Literal: lexeme[1 : len(lexeme)-1]}
}

// ----------------------------------------------------------------------------
// Characters

var charEscapes = map[byte]byte{
	'n': '\n', 't': '\t', 'r': '\r', '\\': '\\', '\'': '\'', '"': '"', '0': 0,
}

func (l *Lexer) scanChar(line, col int) token.Token {
	start := l.pos
	l.advance() // opening '\''

	if l.isAtEnd() {
		l.pos = start
		return l.errorToken("unterminated character literal")
	}

	var decoded byte
	if l.peek() == '\\' {
		l.advance()
		if l.isAtEnd() {
			l.pos = start
			return l.errorToken("unterminated character literal")
		}
		escaped := l.advance()
		if mapped, ok := charEscapes[escaped]; ok {
			decoded = mapped
		} else {
			decoded = escaped
		}
	} else {
		decoded = l.advance()
	}

	if l.isAtEnd() || l.peek() != '\'' {
		l.pos = start
		return l.errorToken("unterminated character literal")
	}
	l.advance() // closing '\''

	lexeme := string(l.src[start:l.pos])
	return token.Token{Kind: token.CHARLIT, Lexeme: lexeme, Line: line, Col: col, Literal: decoded}
}

// ----------------------------------------------------------------------------
// Punctuation & operators — greedy multi-byte match, single-byte fall-through.

type punctRule struct {
	text string
	kind token.Kind
}

// Ordered longest-first so the greedy match never picks a short prefix (e.g.
// "=" before "==") over the longer operator it begins.
var multiByteRules = []punctRule{
	{"::", token.COLONCOLON},
	{"->", token.ARROW},
	{"==", token.EQ},
	{"!=", token.NEQ},
	{"<=", token.LE},
	{">=", token.GE},
	{"&&", token.ANDAND},
	{"||", token.OROR},
	{"<<", token.SHL},
	{">>", token.SHR},
	{"+=", token.PLUSEQ},
	{"-=", token.MINUSEQ},
	{"*=", token.STAREQ},
	{"/=", token.SLASHEQ},
	{"..", token.DOTDOT},
}

var singleByteRules = map[byte]token.Kind{
	'(': token.LPAREN, ')': token.RPAREN,
	'{': token.LBRACE, '}': token.RBRACE,
	'[': token.LBRACKET, ']': token.RBRACKET,
	',': token.COMMA, ';': token.SEMI, ':': token.COLON, '.': token.DOT,
	'=': token.ASSIGN, '+': token.PLUS, '-': token.MINUS, '*': token.STAR,
	'/': token.SLASH, '%': token.PERCENT,
	'<': token.LT, '>': token.GT, '!': token.NOT,
	'&': token.AMP, '|': token.PIPE, '^': token.CARET,
}

func (l *Lexer) scanPunct(line, col int) token.Token {
	for _, rule := range multiByteRules {
		if l.matchesAt(rule.text) {
			for range rule.text {
				l.advance()
			}
			return token.Token{Kind: rule.kind, Lexeme: rule.text, Line: line, Col: col}
		}
	}

	b := l.peek()
	if kind, ok := singleByteRules[b]; ok {
		l.advance()
		return token.Token{Kind: kind, Lexeme: string(b), Line: line, Col: col}
	}

	// Unrecognised byte: report it (decoding as a rune if possible so the
	// message is readable for multi-byte UTF-8 sequences too).
	r, size := utf8.DecodeRune(l.src[l.pos:])
	if r == utf8.RuneError && size <= 1 {
		l.advance()
	} else {
		for i := 0; i < size; i++ {
			l.advance()
		}
	}
	return l.errorToken("unexpected byte in input")
}

func (l *Lexer) matchesAt(text string) bool {
	if l.pos+len(text) > len(l.src) {
		return false
	}
	return string(l.src[l.pos:l.pos+len(text)]) == text
}
