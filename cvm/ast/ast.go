// Copyright 2017 karma.run AG. All rights reserved.
// Use of this source code is governed by an AGPL license that can be found in the LICENSE file.
package ast

import (
	"github.com/benderTheCrime/error-type-specific-catch-proposal/cvm/val"
)

// Node is any element of a parsed catch program: statements, blocks and the
// two expression forms (literals and bound-variable references).
type Node interface {
	Transform(f func(Node) Node) Node
}

// TransformIdentity is the identity function for Nodes
func TransformIdentity(n Node) Node {
	return n
}

// Block is an ordered statement sequence.
type Block []Node

func (b Block) Transform(f func(Node) Node) Node {
	c := make(Block, len(b))
	for i, n := range b {
		c[i] = n.Transform(f)
	}
	return f(c)
}

// Clause is one ordered element of a catch chain. An empty Types set is the
// catch-all. Binding names the variable the thrown value is bound to inside
// Body. Clauses are fixed at construction; their order in a Try is the order
// matching scans them in.
type Clause struct {
	Types   []string
	Binding string
	Body    Block
}

func (c Clause) transform(f func(Node) Node) Clause {
	return Clause{
		Types:   c.Types,
		Binding: c.Binding,
		Body:    c.Body.Transform(f).(Block),
	}
}

// CatchAll reports whether the clause declares no types and therefore
// matches every thrown value.
func (c Clause) CatchAll() bool {
	return len(c.Types) == 0
}

// Try owns a body, its catch chain and an optional finally block. A nil
// Finally means no finally block was written; an empty non-nil Finally is a
// present, empty block.
type Try struct {
	Body    Block
	Clauses []Clause
	Finally Block
}

func (x Try) Transform(f func(Node) Node) Node {
	c := Try{
		Body:    x.Body.Transform(f).(Block),
		Clauses: make([]Clause, len(x.Clauses)),
	}
	for i, cl := range x.Clauses {
		c.Clauses[i] = cl.transform(f)
	}
	if x.Finally != nil {
		c.Finally = x.Finally.Transform(f).(Block)
	}
	return f(c)
}

// Throw raises an error value. With a nil Payload, Name may resolve to a
// bound variable in scope, in which case the bound value is rethrown as-is;
// otherwise a fresh error of type Name with a null payload is thrown. A
// parenthesized Payload always constructs a fresh error of type Name.
type Throw struct {
	Name    string
	Payload Node
}

func (x Throw) Transform(f func(Node) Node) Node {
	c := Throw{Name: x.Name}
	if x.Payload != nil {
		c.Payload = x.Payload.Transform(f)
	}
	return f(c)
}

// Return ends the enclosing block with a value. A nil Argument returns null.
type Return struct {
	Argument Node
}

func (x Return) Transform(f func(Node) Node) Node {
	c := Return{}
	if x.Argument != nil {
		c.Argument = x.Argument.Transform(f)
	}
	return f(c)
}

type Literal struct {
	Value val.Value
}

func (x Literal) Transform(f func(Node) Node) Node {
	return f(x)
}

// Var references a variable bound by an enclosing catch clause.
type Var string

func (x Var) Transform(f func(Node) Node) Node {
	return f(x)
}
