// Copyright 2017 karma.run AG. All rights reserved.
// Use of this source code is governed by an AGPL license that can be found in the LICENSE file.
package cvm

import (
	"github.com/benderTheCrime/error-type-specific-catch-proposal/cvm/err"
	"github.com/benderTheCrime/error-type-specific-catch-proposal/cvm/prg"
	"github.com/benderTheCrime/error-type-specific-catch-proposal/cvm/syn"
	"github.com/benderTheCrime/error-type-specific-catch-proposal/cvm/val"
	"testing"
)

func compileSource(t *testing.T, source string) (prg.Sequence, err.Error) {
	t.Helper()
	block, e := syn.Parse([]byte(source))
	if e != nil {
		t.Fatal(e)
	}
	return Compile(block)
}

func TestCompileMalformedChain(t *testing.T) {
	{ // catch-all before a typed clause
		_, e := compileSource(t, `try { } catch (e) { } catch TypeError (e) { }`)
		mce, ok := e.(err.MalformedChainError)
		if !ok {
			t.Fatalf("%#v\n", e)
		}
		if mce.Clause != 0 {
			t.Fatalf("clause: %d\n", mce.Clause)
		}
	}
	{ // two catch-alls
		_, e := compileSource(t, `try { } catch (e) { } catch (e) { }`)
		if _, ok := e.(err.MalformedChainError); !ok {
			t.Fatalf("%#v\n", e)
		}
	}
	{ // trailing catch-all is fine
		_, e := compileSource(t, `try { } catch TypeError (e) { } catch (e) { }`)
		if e != nil {
			t.Fatal(e)
		}
	}
	{ // nested chains are validated too
		_, e := compileSource(t, `
		try {
			try { } catch (e) { } catch TypeError (e) { }
		} catch (e) { }`)
		if _, ok := e.(err.MalformedChainError); !ok {
			t.Fatalf("%#v\n", e)
		}
	}
}

func TestCompileUnboundVariable(t *testing.T) {
	{
		_, e := compileSource(t, `return x;`)
		uve, ok := e.(err.UnboundVariableError)
		if !ok || uve.Name != "x" {
			t.Fatalf("%#v\n", e)
		}
	}
	{ // clause bindings do not leak past their body
		_, e := compileSource(t, `try { } catch (e) { } return e;`)
		if _, ok := e.(err.UnboundVariableError); !ok {
			t.Fatalf("%#v\n", e)
		}
	}
	{ // finally does not see the clause binding
		_, e := compileSource(t, `try { } catch (e) { } finally { return e; }`)
		if _, ok := e.(err.UnboundVariableError); !ok {
			t.Fatalf("%#v\n", e)
		}
	}
	{
		_, e := compileSource(t, `try { } catch (e) { return e; }`)
		if e != nil {
			t.Fatal(e)
		}
	}
}

// A payloadless throw rethrows when it names a bound variable and constructs
// a fresh error otherwise.
func TestCompileThrowResolution(t *testing.T) {
	program, e := compileSource(t, `
	try {
		throw E;
	} catch E (e) {
		throw e;
	}`)
	if e != nil {
		t.Fatal(e)
	}
	try := program[0].(prg.Try)
	throw, ok := try.Body[0].(prg.Throw)
	if !ok || throw.Name != "E" || !throw.Payload.Equals(val.Null) {
		t.Fatalf("%#v\n", try.Body[0])
	}
	rethrow, ok := try.Clauses[0].Body[0].(prg.Rethrow)
	if !ok || rethrow.Binding != "e" {
		t.Fatalf("%#v\n", try.Clauses[0].Body[0])
	}
}

func TestCompileThrowPayloadAlwaysConstructs(t *testing.T) {
	// parenthesized payloads construct even when the name is bound
	program, e := compileSource(t, `try { } catch (e) { throw e("again"); }`)
	if e != nil {
		t.Fatal(e)
	}
	try := program[0].(prg.Try)
	throw, ok := try.Clauses[0].Body[0].(prg.Throw)
	if !ok || throw.Name != "e" || !throw.Payload.Equals(val.String("again")) {
		t.Fatalf("%#v\n", try.Clauses[0].Body[0])
	}
}

func TestCompileReturnForms(t *testing.T) {
	program, e := compileSource(t, `
	return;
	return 1;
	try { } catch (x) { return x; }`)
	if e != nil {
		t.Fatal(e)
	}
	if ret := program[0].(prg.Return); !ret.Value.Equals(val.Null) {
		t.Fatalf("%#v\n", program[0])
	}
	if ret := program[1].(prg.Return); !ret.Value.Equals(val.Int64(1)) {
		t.Fatalf("%#v\n", program[1])
	}
	try := program[2].(prg.Try)
	if rb := try.Clauses[0].Body[0].(prg.ReturnBinding); rb.Binding != "x" {
		t.Fatalf("%#v\n", try.Clauses[0].Body[0])
	}
}

func TestParseAndCompileMemoizes(t *testing.T) {
	source := []byte(`try { throw MemoError; } catch (e) { return e; }`)
	first, e := ParseAndCompile(source)
	if e != nil {
		t.Fatal(e)
	}
	second, e := ParseAndCompile(source)
	if e != nil {
		t.Fatal(e)
	}
	if &first[0] != &second[0] {
		t.Fatal("expected the memoized program, not a recompilation")
	}
	ClearCompilerCache()
	third, e := ParseAndCompile(source)
	if e != nil {
		t.Fatal(e)
	}
	if &first[0] == &third[0] {
		t.Fatal("expected a recompilation after cache clear")
	}
}

func TestParseAndCompileMemoizesErrors(t *testing.T) {
	source := []byte(`return undefinedVariable;`)
	_, first := ParseAndCompile(source)
	if first == nil {
		t.Fatal("expected error")
	}
	_, second := ParseAndCompile(source)
	if second == nil {
		t.Fatal("expected error")
	}
	if _, ok := second.(err.UnboundVariableError); !ok {
		t.Fatalf("%#v\n", second)
	}
}
