// Copyright 2017 karma.run AG. All rights reserved.
// Use of this source code is governed by an AGPL license that can be found in the LICENSE file.
package val

// Value is the runtime representation of data flowing through a catch program:
// literals in throw payloads and return statements, handler results and the
// thrown error values themselves.
type Value interface {
	Copy() Value
	Equals(Value) bool
	Transform(func(Value) Value) Value
	Primitive() bool
	Type() Type
}

// TransformIdentity is the identity function for Values
func TransformIdentity(v Value) Value {
	return v
}

// Error is a thrown value. Name is its most derived error type name, Payload
// travels with it unchanged through matching, handling and propagation.
type Error struct {
	Name    string
	Payload Value
}

func (v Error) Transform(f func(Value) Value) Value {
	return f(Error{v.Name, v.Payload.Transform(f)})
}

func (v Error) Copy() Value {
	return Error{v.Name, v.Payload.Copy()}
}

func (v Error) Equals(w Value) bool {
	q, ok := w.(Error)
	return ok && v.Name == q.Name && v.Payload.Equals(q.Payload)
}

func (v Error) Primitive() bool {
	return false
}

type Union struct {
	Case  string
	Value Value
}

func (v Union) Transform(f func(Value) Value) Value {
	return f(Union{v.Case, v.Value.Transform(f)})
}

func (v Union) Copy() Value {
	return Union{v.Case, v.Value.Copy()}
}

func (u Union) Equals(v Value) bool {
	q, ok := v.(Union)
	return ok && u.Case == q.Case && u.Value.Equals(q.Value)
}

func (v Union) Primitive() bool {
	return false
}

type List []Value

func (v List) Transform(f func(Value) Value) Value {
	c := make(List, len(v))
	for i, w := range v {
		c[i] = w.Transform(f)
	}
	return f(c)
}

func (l List) Equals(v Value) bool {
	q, ok := v.(List)
	if !ok {
		return false
	}
	if len(l) != len(q) {
		return false
	}
	for i := 0; i < len(l); i++ {
		if !l[i].Equals(q[i]) {
			return false
		}
	}
	return true
}

func (v List) Copy() Value {
	c := make(List, len(v), len(v))
	for i, w := range v {
		c[i] = w.Copy()
	}
	return c
}

// Like Map, but overwrites list elements in-place
func (l List) OverMap(f func(int, Value) Value) List {
	for i, v := range l {
		l[i] = f(i, v)
	}
	return l
}

func (v List) Primitive() bool {
	return false
}

type Struct map[string]Value

func (v Struct) Transform(f func(Value) Value) Value {
	c := make(Struct, len(v))
	for k, w := range v {
		c[k] = w.Transform(f)
	}
	return f(c)
}

func (s Struct) Copy() Value {
	return s.Transform(TransformIdentity)
}

func (s Struct) Equals(v Value) bool {
	q, ok := v.(Struct)
	if !ok {
		return false
	}
	if len(q) != len(s) {
		return false
	}
	for k, v := range s {
		w, ok := q[k]
		if !ok {
			return false
		}
		if !v.Equals(w) {
			return false
		}
	}
	return true
}

func (s Struct) Field(k string) Value {
	if v, ok := s[k]; ok {
		return v
	}
	return Null
}

func (v Struct) Primitive() bool {
	return false
}

type String string

func (v String) Transform(f func(Value) Value) Value {
	return f(v)
}

func (x String) Copy() Value {
	return x
}

func (s String) Equals(v Value) bool {
	q, ok := v.(String)
	return ok && s == q
}

func (s String) String() string {
	return string(s)
}

func (v String) Primitive() bool {
	return true
}

type Int64 int64

func (v Int64) Transform(f func(Value) Value) Value {
	return f(v)
}

func (x Int64) Copy() Value {
	return x
}

func (i Int64) Equals(v Value) bool {
	return i == v
}

func (v Int64) Primitive() bool {
	return true
}

type Float float64

func (v Float) Transform(f func(Value) Value) Value {
	return f(v)
}

func (x Float) Copy() Value {
	return x
}

func (f Float) Equals(v Value) bool {
	return f == v
}

func (v Float) Primitive() bool {
	return true
}

type Bool bool

func (v Bool) Transform(f func(Value) Value) Value {
	return f(v)
}

func (x Bool) Copy() Value {
	return x
}

func (b Bool) Equals(v Value) bool {
	return b == v
}

func (v Bool) Primitive() bool {
	return true
}

var Null = null{}

type null struct{}

func (v null) Transform(f func(Value) Value) Value {
	return f(v)
}

func (x null) Copy() Value {
	return x
}

func (s null) Equals(v Value) bool {
	return s == v
}

func (v null) Primitive() bool {
	return true
}
