// Copyright 2017 karma.run AG. All rights reserved.
// Use of this source code is governed by an AGPL license that can be found in the LICENSE file.
package cvm

import (
	"fmt"
	"github.com/benderTheCrime/error-type-specific-catch-proposal/cvm/ast"
	"github.com/benderTheCrime/error-type-specific-catch-proposal/cvm/err"
	"github.com/benderTheCrime/error-type-specific-catch-proposal/cvm/prg"
	"github.com/benderTheCrime/error-type-specific-catch-proposal/cvm/val"
)

// Compile validates a parsed program and resolves it into executable form.
// It enforces the chain ordering invariants: a catch-all clause may only
// appear in trailing position, at most once per chain. Compilation does not
// consult the type registry, so programs remain valid (and cached) across
// registrations; clauses naming unregistered types simply match by name
// equality alone at evaluation time.
func Compile(block ast.Block) (prg.Sequence, err.Error) {
	return compileBlock(block, nil)
}

// compileScope is the static chain of catch bindings in whose bodies a
// statement appears. The nil *compileScope is the empty scope.
type compileScope struct {
	parent *compileScope
	name   string
}

func (s *compileScope) child(name string) *compileScope {
	return &compileScope{s, name}
}

func (s *compileScope) has(name string) bool {
	for p := s; p != nil; p = p.parent {
		if p.name == name {
			return true
		}
	}
	return false
}

func compileBlock(block ast.Block, scope *compileScope) (prg.Sequence, err.Error) {
	out := make(prg.Sequence, 0, len(block))
	for _, node := range block {
		stmt, e := compileStmt(node, scope)
		if e != nil {
			return nil, e
		}
		out = append(out, stmt)
	}
	return out, nil
}

func compileStmt(node ast.Node, scope *compileScope) (prg.Stmt, err.Error) {
	switch node := node.(type) {
	case ast.Try:
		return compileTry(node, scope)
	case ast.Throw:
		return compileThrow(node, scope)
	case ast.Return:
		return compileReturn(node, scope)
	}
	panic(fmt.Sprintf("compileStmt: unhandled node: %T", node))
}

func compileTry(node ast.Try, scope *compileScope) (prg.Stmt, err.Error) {
	body, e := compileBlock(node.Body, scope)
	if e != nil {
		return nil, e
	}
	try := prg.Try{Body: body}
	for i, clause := range node.Clauses {
		if clause.CatchAll() && i != len(node.Clauses)-1 {
			return nil, err.MalformedChainError{
				Problem: `catch-all clause must be the last clause in the chain`,
				Clause:  i,
			}
		}
		compiled, e := compileBlock(clause.Body, scope.child(clause.Binding))
		if e != nil {
			return nil, e
		}
		try.Clauses = append(try.Clauses, prg.Clause{
			Types:   clause.Types,
			Binding: clause.Binding,
			Body:    compiled,
		})
	}
	if node.Finally != nil {
		finally, e := compileBlock(node.Finally, scope)
		if e != nil {
			return nil, e
		}
		try.Finally = finally
	}
	return try, nil
}

// compileThrow resolves the two meanings of a payloadless throw: naming a
// bound variable rethrows its error value, anything else constructs a fresh
// error of the named type with a null payload.
func compileThrow(node ast.Throw, scope *compileScope) (prg.Stmt, err.Error) {
	if node.Payload != nil {
		lit, ok := node.Payload.(ast.Literal)
		if !ok {
			panic(fmt.Sprintf("compileThrow: unhandled payload node: %T", node.Payload))
		}
		return prg.Throw{node.Name, lit.Value}, nil
	}
	if scope.has(node.Name) {
		return prg.Rethrow{node.Name}, nil
	}
	return prg.Throw{node.Name, val.Null}, nil
}

func compileReturn(node ast.Return, scope *compileScope) (prg.Stmt, err.Error) {
	switch arg := node.Argument.(type) {
	case nil:
		return prg.Return{val.Null}, nil
	case ast.Literal:
		return prg.Return{arg.Value}, nil
	case ast.Var:
		if !scope.has(string(arg)) {
			return nil, err.UnboundVariableError{string(arg)}
		}
		return prg.ReturnBinding{string(arg)}, nil
	}
	panic(fmt.Sprintf("compileReturn: unhandled argument node: %T", node.Argument))
}
