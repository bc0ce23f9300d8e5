// Copyright 2017 karma.run AG. All rights reserved.
// Use of this source code is governed by an AGPL license that can be found in the LICENSE file.
package definitions

const (
	TypesBucket  = `TypesBucket`
	SystemBucket = `SystemBucket`

	InstanceSecretKey = `InstanceSecret`
)

var (
	TypesBucketBytes  = []byte(TypesBucket)
	SystemBucketBytes = []byte(SystemBucket)

	InstanceSecretKeyBytes = []byte(InstanceSecretKey)
)

// Builtins is the error type forest every fresh instance starts with, ordered
// parents before children.
func Builtins() [][2]string {
	return [][2]string{
		{`Error`, ``},
		{`AggregateError`, `Error`},
		{`EvalError`, `Error`},
		{`RangeError`, `Error`},
		{`ReferenceError`, `Error`},
		{`SyntaxError`, `Error`},
		{`TypeError`, `Error`},
		{`URIError`, `Error`},
	}
}
