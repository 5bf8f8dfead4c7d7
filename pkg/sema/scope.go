package sema

import "slc.dev/slc/pkg/types"

// ScopeType tags what kind of construct introduced a Scope; BlockScope vs
// LoopScope is what makes break/continue legality a property of the scope
// chain rather than a separate side channel.
type ScopeType int

const (
	GlobalScope ScopeType = iota
	FunctionScope
	BlockScope
	LoopScope
)

// Symbol is an entry in a Scope: a variable, parameter, or loop iterator.
// Struct and function symbols live in the Analyzer's separate flat
// registries instead (see symbols.go), not in the scope chain.
type Symbol struct {
	Name    string
	Type    *types.Type
	Mutable bool
}

// Scope is one entry in the Analyzer's stack of currently-open lexical
// scopes (see Analyzer.scopes); nesting order is recovered from the stack
// itself rather than a parent pointer on Scope.
type Scope struct {
	Kind       ScopeType
	ReturnType *types.Type // set on FunctionScope: the enclosing function's declared return type

	symbols map[string]*Symbol
}

func newScope(kind ScopeType) *Scope {
	return &Scope{Kind: kind, symbols: make(map[string]*Symbol)}
}

func (s *Scope) define(sym *Symbol) { s.symbols[sym.Name] = sym }

func (s *Scope) resolveLocal(name string) (*Symbol, bool) {
	sym, ok := s.symbols[name]
	return sym, ok
}
