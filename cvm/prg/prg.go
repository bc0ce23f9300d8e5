// Copyright 2017 karma.run AG. All rights reserved.
// Use of this source code is governed by an AGPL license that can be found in the LICENSE file.
//
// Package prg holds the compiled form of catch programs. Compilation resolves
// the ambiguities of the parsed tree: every throw is either a construction or
// a rethrow, every variable reference is known to be bound, and every clause
// chain is well formed.
package prg

import (
	"github.com/benderTheCrime/error-type-specific-catch-proposal/cvm/val"
)

type Stmt interface {
	_stmt() // private interface
}

type Sequence []Stmt

type Try struct {
	Body    Sequence
	Clauses []Clause
	Finally Sequence // nil when absent
}

// Clause is one compiled catch arm. An empty type list admits every error.
type Clause struct {
	Types   []string
	Binding string
	Body    Sequence
}

func (c Clause) CatchAll() bool {
	return len(c.Types) == 0
}

// Throw constructs a fresh error value and raises it.
type Throw struct {
	Name    string
	Payload val.Value // never nil, val.Null for payloadless throws
}

// Rethrow raises the error value bound to Binding, unchanged.
type Rethrow struct {
	Binding string
}

// Return completes with a constant value.
type Return struct {
	Value val.Value // never nil, val.Null for bare returns
}

// ReturnBinding completes with the error value bound to Binding.
type ReturnBinding struct {
	Binding string
}

func (Try) _stmt()           {}
func (Throw) _stmt()         {}
func (Rethrow) _stmt()       {}
func (Return) _stmt()        {}
func (ReturnBinding) _stmt() {}

// ThrownTypes returns the type names a program constructs with throw
// statements, in first-occurrence order. Rethrows add nothing: they re-raise
// a value some other throw constructed.
func ThrownTypes(s Sequence) []string {
	seen := make(map[string]struct{}, 8)
	names := make([]string, 0, 8)
	var walk func(s Sequence)
	walk = func(s Sequence) {
		for _, stmt := range s {
			switch stmt := stmt.(type) {
			case Throw:
				if _, ok := seen[stmt.Name]; !ok {
					seen[stmt.Name] = struct{}{}
					names = append(names, stmt.Name)
				}
			case Try:
				walk(stmt.Body)
				for _, clause := range stmt.Clauses {
					walk(clause.Body)
				}
				if stmt.Finally != nil {
					walk(stmt.Finally)
				}
			}
		}
	}
	walk(s)
	return names
}
