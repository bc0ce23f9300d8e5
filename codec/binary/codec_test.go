// Copyright 2017 karma.run AG. All rights reserved.
// Use of this source code is governed by an AGPL license that can be found in the LICENSE file.
package binary

import (
	"bytes"
	"github.com/benderTheCrime/error-type-specific-catch-proposal/codec"
	"github.com/benderTheCrime/error-type-specific-catch-proposal/cvm/val"
	"testing"
)

func TestRegistered(t *testing.T) {
	if codec.Get("binary") == nil {
		t.Fatalf("binary codec not registered")
	}
}

func TestEncode(t *testing.T) {
	{
		out := Encode(val.Null)
		if !bytes.Equal(out, []byte{byte(TypeNull)}) {
			t.Fatalf("% x\n", out)
		}
	}
	{
		out := Encode(val.Bool(true))
		if !bytes.Equal(out, []byte{byte(TypeBool), 't'}) {
			t.Fatalf("% x\n", out)
		}
	}
	{ // big-endian, most significant byte first
		out := Encode(val.Int64(7))
		if !bytes.Equal(out, []byte{byte(TypeInt64), 0, 0, 0, 0, 0, 0, 0, 7}) {
			t.Fatalf("% x\n", out)
		}
	}
	{ // negative integers as two's complement
		out := Encode(val.Int64(-1))
		if !bytes.Equal(out, []byte{byte(TypeInt64), 255, 255, 255, 255, 255, 255, 255, 255}) {
			t.Fatalf("% x\n", out)
		}
	}
	{
		out := Encode(val.Float(1.5))
		if !bytes.Equal(out, []byte{byte(TypeFloat), 0x3f, 0xf8, 0, 0, 0, 0, 0, 0}) {
			t.Fatalf("% x\n", out)
		}
	}
	{
		out := Encode(val.String("hi"))
		if !bytes.Equal(out, []byte{byte(TypeString), 0, 0, 0, 2, 'h', 'i'}) {
			t.Fatalf("% x\n", out)
		}
	}
	{ // struct fields encode in lexical order
		out := Encode(val.Struct{"b": val.Null, "a": val.Bool(false)})
		expect := []byte{
			byte(TypeStruct), 0, 0, 0, 2,
			0, 0, 0, 1, 'a', byte(TypeBool), 'f',
			0, 0, 0, 1, 'b', byte(TypeNull),
		}
		if !bytes.Equal(out, expect) {
			t.Fatalf("% x\n", out)
		}
	}
}

func TestRoundtrip(t *testing.T) {
	{ // evaluation outcomes survive the wire intact, unions and errors included
		in := val.Union{"propagated", val.Error{"SocketTimeoutError", val.Struct{
			"detail":  val.String("read timed out"),
			"elapsed": val.Int64(5000),
		}}}
		out, e := Decode(Encode(in))
		if e != nil {
			t.Fatalf("%#v\n", e)
		}
		if !out.Equals(in) {
			t.Fatalf("%#v\n", out)
		}
	}
	{
		in := val.List{val.Null, val.Float(-2.25), val.String("café"), val.Struct{}}
		out, e := Decode(Encode(in))
		if e != nil {
			t.Fatalf("%#v\n", e)
		}
		if !out.Equals(in) {
			t.Fatalf("%#v\n", out)
		}
	}
}

func TestDecodeErrors(t *testing.T) {
	{
		_, e := Decode([]byte{})
		if e == nil {
			t.Fatalf("expected error on empty input")
		}
	}
	{
		_, e := Decode([]byte{200})
		if e == nil {
			t.Fatalf("expected error on unknown type tag")
		}
	}
	{ // int64 payload cut short
		_, e := Decode([]byte{byte(TypeInt64), 0, 0})
		if e == nil {
			t.Fatalf("expected error on truncated input")
		}
		if e.ErrorOffset() != 1 {
			t.Fatalf("%d\n", e.ErrorOffset())
		}
	}
	{ // string length pointing past the end of input
		_, e := Decode([]byte{byte(TypeString), 0, 0, 0, 100})
		if e == nil {
			t.Fatalf("expected error on oversized length")
		}
	}
	{
		_, e := Decode([]byte{byte(TypeBool), 'x'})
		if e == nil {
			t.Fatalf("expected error on invalid bool byte")
		}
	}
	{
		_, e := Decode([]byte{byte(TypeNull), byte(TypeNull)})
		if e == nil {
			t.Fatalf("expected error on trailing input")
		}
		if e.ErrorOffset() != 1 {
			t.Fatalf("%d\n", e.ErrorOffset())
		}
	}
}
