// Copyright 2017 karma.run AG. All rights reserved.
// Use of this source code is governed by an AGPL license that can be found in the LICENSE file.
package cvm

import (
	"fmt"
	"github.com/benderTheCrime/error-type-specific-catch-proposal/cvm/prg"
	"github.com/benderTheCrime/error-type-specific-catch-proposal/cvm/val"
)

// control classifies how a statement sequence finished.
type control int

const (
	controlNormal control = iota // fell through
	controlReturn
	controlThrow
)

type completion struct {
	control control
	value   val.Value // return value or thrown error, nil for controlNormal
}

// bindings is the runtime chain of catch bindings. Compilation guarantees
// that every referenced name is bound, so a failed lookup is a programmer
// error, not a user one.
type bindings struct {
	parent *bindings
	name   string
	value  val.Error
}

func (b *bindings) lookup(name string) val.Error {
	for p := b; p != nil; p = p.parent {
		if p.name == name {
			return p.value
		}
	}
	panic(fmt.Sprintf("lookup: unbound variable slipped through compilation: %s", name))
}

type evaluation struct {
	machine Machine
	stats   Stats
	handled bool // at least one clause matched
}

// Evaluate runs a compiled program against the machine's registry. The
// registry is only read, never written; concurrent evaluations may share it.
// Evaluate does not fail: an uncaught error is the Propagated outcome, not a
// Go error.
func (m Machine) Evaluate(program prg.Sequence) Outcome {
	ev := &evaluation{machine: m}
	c := ev.sequence(program, nil)
	if m.Stats != nil {
		m.Stats.add(ev.stats)
	}
	switch c.control {
	case controlNormal:
		if ev.handled {
			return Handled{val.Null}
		}
		return Completed{val.Null}
	case controlReturn:
		if ev.handled {
			return Handled{c.value}
		}
		return Completed{c.value}
	case controlThrow:
		return Propagated{c.value.(val.Error)}
	}
	panic(fmt.Sprintf("Evaluate: unhandled control: %d", c.control))
}

func (ev *evaluation) sequence(stmts prg.Sequence, scope *bindings) completion {
	for _, stmt := range stmts {
		if c := ev.statement(stmt, scope); c.control != controlNormal {
			return c
		}
	}
	return completion{controlNormal, nil}
}

func (ev *evaluation) statement(stmt prg.Stmt, scope *bindings) completion {
	switch stmt := stmt.(type) {

	case prg.Try:
		return ev.try(stmt, scope)

	case prg.Throw:
		ev.stats.Throws++
		return completion{controlThrow, val.Error{stmt.Name, stmt.Payload.Copy()}}

	case prg.Rethrow:
		ev.stats.Rethrows++
		return completion{controlThrow, scope.lookup(stmt.Binding)}

	case prg.Return:
		return completion{controlReturn, stmt.Value.Copy()}

	case prg.ReturnBinding:
		return completion{controlReturn, scope.lookup(stmt.Binding)}

	}
	panic(fmt.Sprintf("statement: unhandled statement: %T", stmt))
}

// try runs the protected body, dispatches a thrown error over the clause
// chain and finally runs the finalizer. The finalizer runs exactly once
// whatever the body and chain produced, and its own abrupt completion
// supersedes theirs.
func (ev *evaluation) try(stmt prg.Try, scope *bindings) completion {
	c := ev.sequence(stmt.Body, scope)
	if c.control == controlThrow {
		c = ev.dispatch(stmt.Clauses, c.value.(val.Error), scope)
	}
	if stmt.Finally != nil {
		ev.stats.FinallyRuns++
		if f := ev.sequence(stmt.Finally, scope); f.control != controlNormal {
			return f
		}
	}
	return c
}

// dispatch finds the first clause admitting thrown and runs its body with the
// error value bound. Later clauses are not consulted, however specific their
// types. Without any match the error value continues upward unchanged.
func (ev *evaluation) dispatch(clauses []prg.Clause, thrown val.Error, scope *bindings) completion {
	for _, clause := range clauses {
		if !ev.matches(clause, thrown) {
			continue
		}
		ev.handled = true
		ev.stats.ClauseMatches++
		return ev.sequence(clause.Body, &bindings{scope, clause.Binding, thrown})
	}
	return completion{controlThrow, thrown}
}

// matches reports whether clause admits thrown: clauses without declared
// types admit everything, otherwise any declared type equal to or an ancestor
// of the thrown type admits it. Names absent from the registry still match by
// plain equality.
func (ev *evaluation) matches(clause prg.Clause, thrown val.Error) bool {
	if clause.CatchAll() {
		return true
	}
	for _, name := range clause.Types {
		if ev.machine.Registry.IsSubtype(thrown.Name, name) {
			return true
		}
	}
	return false
}
