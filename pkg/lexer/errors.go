package lexer

import "errors"

// errUnterminatedBlockComment is the lexical error for a `/*` with no
// matching `*/`, rather than silently treating end-of-file as a closing `*/`.
var errUnterminatedBlockComment = errors.New("unterminated block comment")
