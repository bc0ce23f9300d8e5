// Copyright 2017 karma.run AG. All rights reserved.
// Use of this source code is governed by an AGPL license that can be found in the LICENSE file.
package json

import (
	"github.com/benderTheCrime/error-type-specific-catch-proposal/codec"
	"github.com/benderTheCrime/error-type-specific-catch-proposal/cvm/err"
	"github.com/benderTheCrime/error-type-specific-catch-proposal/cvm/val"
	"testing"
)

func TestRegistered(t *testing.T) {
	if codec.Get("json") == nil {
		t.Fatalf("json codec not registered")
	}
	found := false
	for _, k := range codec.Available() {
		found = found || k == "json"
	}
	if !found {
		t.Fatalf("%#v\n", codec.Available())
	}
}

func TestEncode(t *testing.T) {
	{
		out := Encode(val.Union{"completed", val.Null})
		if out.String() != `["completed",null]` {
			t.Fatalf("%s\n", out)
		}
	}
	{
		out := Encode(val.Error{"TypeError", val.String("missing method")})
		if out.String() != `{"name":"TypeError","payload":"missing method"}` {
			t.Fatalf("%s\n", out)
		}
	}
	{
		out := Encode(val.Union{"propagated", val.Error{"RangeError", val.Null}})
		if out.String() != `["propagated",{"name":"RangeError","payload":null}]` {
			t.Fatalf("%s\n", out)
		}
	}
	{ // struct fields encode in lexical order
		out := Encode(val.Struct{
			"b": val.Null,
			"a": val.List{val.Int64(1), val.Float(1.5), val.Bool(true)},
		})
		if out.String() != `{"a":[1,1.5,true],"b":null}` {
			t.Fatalf("%s\n", out)
		}
	}
	{ // nulls nested in composites
		out := Encode(val.List{val.Null, val.Null})
		if out.String() != `[null,null]` {
			t.Fatalf("%s\n", out)
		}
	}
	{
		out := Encode(val.String(`he said "hi"`))
		if out.String() != `"he said \"hi\""` {
			t.Fatalf("%s\n", out)
		}
	}
	{
		out := Encode(val.Int64(-42))
		if out.String() != `-42` {
			t.Fatalf("%s\n", out)
		}
	}
}

func TestDecode(t *testing.T) {
	{
		v, e := Decode(JSON(` {"a": [1, 2.5, true, null,], } `))
		if e != nil {
			t.Fatalf("%#v\n", e)
		}
		expect := val.Struct{"a": val.List{val.Int64(1), val.Float(2.5), val.Bool(true), val.Null}}
		if !v.Equals(expect) {
			t.Fatalf("%#v\n", v)
		}
	}
	{
		v, e := Decode(JSON(`"café"`))
		if e != nil {
			t.Fatalf("%#v\n", e)
		}
		if !v.Equals(val.String("café")) {
			t.Fatalf("%#v\n", v)
		}
	}
	{ // exponents decode as floats, plain digit runs as integers
		v, e := Decode(JSON(`1e3`))
		if e != nil {
			t.Fatalf("%#v\n", e)
		}
		if !v.Equals(val.Float(1000)) {
			t.Fatalf("%#v\n", v)
		}
		v, e = Decode(JSON(`-0`))
		if e != nil {
			t.Fatalf("%#v\n", e)
		}
		if !v.Equals(val.Int64(0)) {
			t.Fatalf("%#v\n", v)
		}
	}
	{
		v, e := Decode(JSON(`{"Error": null, "TypeError": "Error"}`))
		if e != nil {
			t.Fatalf("%#v\n", e)
		}
		expect := val.Struct{"Error": val.Null, "TypeError": val.String("Error")}
		if !v.Equals(expect) {
			t.Fatalf("%#v\n", v)
		}
	}
}

func TestDecodeErrors(t *testing.T) {
	{
		_, e := Decode(JSON(``))
		if e == nil {
			t.Fatalf("expected error on empty input")
		}
	}
	{
		_, e := Decode(JSON(`true false`))
		if e == nil {
			t.Fatalf("expected error on trailing input")
		}
		if e.ErrorOffset() != 5 {
			t.Fatalf("%d\n", e.ErrorOffset())
		}
	}
	{
		_, e := Decode(JSON(`[1 2]`))
		if e == nil {
			t.Fatalf("expected error on missing comma")
		}
		if e.ErrorOffset() != 3 {
			t.Fatalf("%d\n", e.ErrorOffset())
		}
	}
	{
		_, e := Decode(JSON(`{"a" 1}`))
		if e == nil {
			t.Fatalf("expected error on missing colon")
		}
	}
	{
		_, e := Decode(JSON(`9223372036854775808`))
		if e == nil {
			t.Fatalf("expected error on integer overflow")
		}
		child, ok := e.Child().(err.InputParsingError)
		if !ok || child.Problem != `integer too large for type int64` {
			t.Fatalf("%#v\n", e.Child())
		}
	}
	{
		_, e := Decode(JSON(`"unterminated`))
		if e == nil {
			t.Fatalf("expected error on unterminated string")
		}
	}
}
