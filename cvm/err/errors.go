// Copyright 2017 karma.run AG. All rights reserved.
// Use of this source code is governed by an AGPL license that can be found in the LICENSE file.
package err

import (
	"fmt"
	"github.com/benderTheCrime/error-type-specific-catch-proposal/cvm/val"
)

type ErrorList []Error

func (a ErrorList) OverMap(f func(Error) Error) ErrorList {
	for i, b := range a {
		a[i] = f(b)
	}
	return a
}

func (e ErrorList) Value() val.Union {
	l := make(val.List, len(e), len(e))
	for i, e := range e {
		l[i] = e.Value()
	}
	return val.Union{"errorList", l}
}
func (e ErrorList) Error() string {
	return e.String()
}
func (e ErrorList) String() string {
	out := ""
	for _, e := range e {
		out += e.String() + "\n\n"
	}
	return out
}
func (e ErrorList) Child() Error {
	return nil
}

// MalformedChainError is raised at construction time when a catch chain
// violates its ordering invariants: a clause without declared types anywhere
// but in trailing position, or more than one such clause.
type MalformedChainError struct {
	Problem string
	Clause  int // zero-based index of the offending clause
	Child_  Error
}

func (e MalformedChainError) Value() val.Union {
	return val.Union{"malformedChainError", val.Struct{
		"problem": val.String(e.Problem),
		"clause":  val.Int64(e.Clause),
	}}
}
func (e MalformedChainError) Error() string {
	return e.String()
}
func (e MalformedChainError) String() string {
	out := "Malformed Chain Error\n"
	out += "=====================\n"
	out += "Problem\n"
	out += "-------\n"
	out += fmt.Sprintf("%s (clause %d)\n\n", e.Problem, e.Clause)
	if e.Child_ != nil {
		out += e.Child_.String()
	}
	return out
}
func (e MalformedChainError) Child() Error {
	return e.Child_
}

// DuplicateTypeError is raised by the type registry when a name is registered
// a second time under a different parent.
type DuplicateTypeError struct {
	Name     string
	Parent   string // rejected parent
	Existing string // parent the name is already registered under
}

func (e DuplicateTypeError) Value() val.Union {
	return val.Union{"duplicateTypeError", val.Struct{
		"name":     val.String(e.Name),
		"parent":   val.String(e.Parent),
		"existing": val.String(e.Existing),
	}}
}
func (e DuplicateTypeError) Error() string {
	return e.String()
}
func (e DuplicateTypeError) String() string {
	out := "Duplicate Type Error\n"
	out += "====================\n"
	out += "Problem\n"
	out += "-------\n"
	out += fmt.Sprintf("type %q is already registered with parent %q, cannot re-register with parent %q\n\n", e.Name, e.Existing, e.Parent)
	return out
}
func (e DuplicateTypeError) Child() Error {
	return nil
}

// UnknownParentError is raised by the type registry when a registration names
// a parent that has not been registered before it.
type UnknownParentError struct {
	Name   string
	Parent string
}

func (e UnknownParentError) Value() val.Union {
	return val.Union{"unknownParentError", val.Struct{
		"name":   val.String(e.Name),
		"parent": val.String(e.Parent),
	}}
}
func (e UnknownParentError) Error() string {
	return e.String()
}
func (e UnknownParentError) String() string {
	out := "Unknown Parent Error\n"
	out += "====================\n"
	out += "Problem\n"
	out += "-------\n"
	out += fmt.Sprintf("type %q declares parent %q, which is not registered\n\n", e.Name, e.Parent)
	return out
}
func (e UnknownParentError) Child() Error {
	return nil
}

// TypeNotFoundError is raised when a registry lookup names an unregistered type.
type TypeNotFoundError struct {
	Name   string
	Child_ Error
}

func (e TypeNotFoundError) Value() val.Union {
	return val.Union{"typeNotFoundError", val.String(e.Name)}
}
func (e TypeNotFoundError) Error() string {
	return e.String()
}
func (e TypeNotFoundError) String() string {
	out := "Type Not Found Error\n"
	out += "====================\n"
	out += "Name\n"
	out += "----\n"
	out += e.Name + "\n\n"
	if e.Child_ != nil {
		out += e.Child_.String()
	}
	return out
}
func (e TypeNotFoundError) Child() Error {
	return e.Child_
}

// UnboundVariableError is raised at compile time when a statement references
// a variable that no enclosing catch clause binds.
type UnboundVariableError struct {
	Name string
}

func (e UnboundVariableError) Value() val.Union {
	return val.Union{"unboundVariableError", val.String(e.Name)}
}
func (e UnboundVariableError) Error() string {
	return e.String()
}
func (e UnboundVariableError) String() string {
	out := "Unbound Variable Error\n"
	out += "======================\n"
	out += "Problem\n"
	out += "-------\n"
	out += fmt.Sprintf("variable %q is not bound by any enclosing catch clause\n\n", e.Name)
	return out
}
func (e UnboundVariableError) Child() Error {
	return nil
}

// SyntaxError is raised by the source parser. Input holds the unconsumed
// remainder at the point of failure, Offset the byte position in the source.
type SyntaxError struct {
	Problem string
	Offset  int
	Input   []byte
}

func (e SyntaxError) Value() val.Union {
	return val.Union{"syntaxError", val.Struct{
		"problem": val.String(e.Problem),
		"offset":  val.Int64(e.Offset),
	}}
}
func (e SyntaxError) Error() string {
	return e.String()
}
func (e SyntaxError) String() string {
	out := "Syntax Error\n"
	out += "============\n"
	out += "Problem\n"
	out += "-------\n"
	out += e.Problem + "\n\n"
	out += "Offset\n"
	out += "------\n"
	out += fmt.Sprintf("%d\n\n", e.Offset)
	if len(e.Input) > 0 {
		out += "Near\n"
		out += "----\n"
		out += excerpt(e.Input) + "\n\n"
	}
	return out
}
func (e SyntaxError) Child() Error {
	return nil
}
func (e SyntaxError) ErrorOffset() int {
	return e.Offset
}

const excerptLength = 32

func excerpt(bs []byte) string {
	if len(bs) > excerptLength {
		return string(bs[:excerptLength]) + "..."
	}
	return string(bs)
}

type InputParsingError struct {
	Problem string
	Input   []byte
}

func (e InputParsingError) Value() val.Union {
	return val.Union{"inputParsingError", val.Struct{
		"problem": val.String(e.Problem),
		"input":   val.String(excerpt(e.Input)),
	}}
}
func (e InputParsingError) Error() string {
	return e.String()
}
func (e InputParsingError) String() string {
	out := "Input Parsing Error\n"
	out += "===================\n"
	out += "Problem\n"
	out += "-------\n"
	out += e.Problem + "\n\n"
	out += "Input\n"
	out += "-----\n"
	out += excerpt(e.Input) + "\n\n"
	return out
}
func (e InputParsingError) Child() Error {
	return nil
}

// OffsetError is an Error that can report a byte offset into its input.
type OffsetError interface {
	Error
	ErrorOffset() int
}

type CodecError struct {
	Codec  string
	Offset int
	Child_ Error
}

func (e CodecError) ErrorOffset() int {
	return e.Offset
}
func (e CodecError) Value() val.Union {
	return val.Union{"codecError", val.Struct{
		"codec":  val.String(e.Codec),
		"offset": val.Int64(e.Offset),
	}}
}
func (e CodecError) Error() string {
	return e.String()
}
func (e CodecError) String() string {
	out := "Codec Error\n"
	out += "===========\n"
	out += "Codec\n"
	out += "-----\n"
	out += e.Codec + "\n\n"
	out += "Offset\n"
	out += "------\n"
	out += fmt.Sprintf("%d\n\n", e.Offset)
	if e.Child_ != nil {
		out += e.Child_.String()
	}
	return out
}
func (e CodecError) Child() Error {
	return e.Child_
}

type RequestError struct {
	Problem string
	Child_  Error
}

func (e RequestError) Value() val.Union {
	return val.Union{"requestError", val.String(e.Problem)}
}
func (e RequestError) Error() string {
	return e.String()
}
func (e RequestError) String() string {
	out := "Request Error\n"
	out += "=============\n"
	out += "Problem\n"
	out += "-------\n"
	out += e.Problem + "\n\n"
	if e.Child_ != nil {
		out += e.Child_.String()
	}
	return out
}
func (e RequestError) Child() Error {
	return e.Child_
}

type PermissionDeniedError struct {
	Child_ Error
}

func (e PermissionDeniedError) Value() val.Union {
	return val.Union{"permissionDeniedError", val.Struct{}}
}
func (e PermissionDeniedError) Error() string {
	return e.String()
}
func (e PermissionDeniedError) String() string {
	out := "Permission Denied Error\n"
	out += "=======================\n\n"
	if e.Child_ != nil {
		out += e.Child_.String()
	}
	return out
}
func (e PermissionDeniedError) Child() Error {
	return e.Child_
}

type InternalError struct {
	Problem string
	Child_  Error
}

func (e InternalError) Value() val.Union {
	return val.Union{"internalError", val.String(e.Problem)}
}
func (e InternalError) Error() string {
	return e.String()
}
func (e InternalError) String() string {
	out := "Internal Error\n"
	out += "==============\n"
	out += "Problem\n"
	out += "-------\n"
	out += e.Problem + "\n\n"
	if e.Child_ != nil {
		out += e.Child_.String()
	}
	return out
}
func (e InternalError) Child() Error {
	return e.Child_
}
