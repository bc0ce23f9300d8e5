// Copyright 2017 karma.run AG. All rights reserved.
// Use of this source code is governed by an AGPL license that can be found in the LICENSE file.
package cvm

import (
	"github.com/benderTheCrime/error-type-specific-catch-proposal/cvm/err"
	"github.com/benderTheCrime/error-type-specific-catch-proposal/cvm/val"
)

// Outcome is the final result of running a program: it completed without an
// uncaught error, a clause handled what was thrown, or an error escaped.
type Outcome interface {
	Value() val.Union // serializable
	String() string   // human readable string
	_outcome()        // private interface
}

// Completed is a run in which no clause had to handle anything.
type Completed struct {
	Result val.Value
}

// Handled is a run in which at least one clause caught a thrown error and
// nothing escaped afterwards.
type Handled struct {
	Result val.Value
}

// Propagated is a run an error value escaped from, unchanged, after no clause
// admitted it.
type Propagated struct {
	Error val.Error
}

func (o Completed) Value() val.Union {
	return val.Union{"completed", o.Result}
}
func (o Completed) String() string {
	return "completed: " + err.ValueToHuman(o.Result)
}

func (o Handled) Value() val.Union {
	return val.Union{"handled", o.Result}
}
func (o Handled) String() string {
	return "handled: " + err.ValueToHuman(o.Result)
}

func (o Propagated) Value() val.Union {
	return val.Union{"propagated", o.Error}
}
func (o Propagated) String() string {
	return "propagated: " + err.ValueToHuman(o.Error)
}

func (Completed) _outcome()  {}
func (Handled) _outcome()    {}
func (Propagated) _outcome() {}
