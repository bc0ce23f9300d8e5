// Copyright 2017 karma.run AG. All rights reserved.
// Use of this source code is governed by an AGPL license that can be found in the LICENSE file.
package cache

import (
	"github.com/benderTheCrime/error-type-specific-catch-proposal/cvm/err"
	"github.com/benderTheCrime/error-type-specific-catch-proposal/cvm/prg"
	"github.com/benderTheCrime/error-type-specific-catch-proposal/cvm/val"
	"testing"
)

func TestProgramsRoundtrip(t *testing.T) {
	c := NewPrograms(4)
	program := prg.Sequence{prg.Return{val.Int64(1)}}
	c.Set("a", Entry{program, nil})
	entry, ok := c.Get("a")
	if !ok {
		t.Fatal("expected hit")
	}
	if &entry.Program[0] != &program[0] {
		t.Fatal("expected the memoized program, not a copy")
	}
	if _, ok := c.Get("b"); ok {
		t.Fatal("expected miss")
	}
}

func TestProgramsErrorEntry(t *testing.T) {
	c := NewPrograms(4)
	c.Set("a", Entry{nil, err.UnboundVariableError{"x"}})
	entry, ok := c.Get("a")
	if !ok {
		t.Fatal("expected hit")
	}
	if _, ok := entry.Err.(err.UnboundVariableError); !ok {
		t.Fatalf("%#v\n", entry.Err)
	}
}

func TestProgramsEviction(t *testing.T) {
	c := NewPrograms(2)
	c.Set("a", Entry{})
	c.Set("b", Entry{})
	c.Set("c", Entry{})
	if _, ok := c.Get("a"); ok {
		t.Fatal("expected oldest entry evicted")
	}
	if _, ok := c.Get("b"); !ok {
		t.Fatal("expected entry retained")
	}
	if _, ok := c.Get("c"); !ok {
		t.Fatal("expected entry retained")
	}
	if c.Len() != 2 {
		t.Fatalf("len: %d\n", c.Len())
	}
}

func TestProgramsPromotion(t *testing.T) {
	c := NewPrograms(2)
	c.Set("a", Entry{})
	c.Set("b", Entry{})
	if _, ok := c.Get("a"); !ok { // promotes a over b
		t.Fatal("expected hit")
	}
	c.Set("c", Entry{})
	if _, ok := c.Get("b"); ok {
		t.Fatal("expected least recently used entry evicted")
	}
	if _, ok := c.Get("a"); !ok {
		t.Fatal("expected promoted entry retained")
	}
}

func TestProgramsSetExisting(t *testing.T) {
	c := NewPrograms(2)
	c.Set("a", Entry{})
	c.Set("b", Entry{})
	c.Set("a", Entry{prg.Sequence{prg.Return{val.Null}}, nil})
	if c.Len() != 2 {
		t.Fatalf("len: %d\n", c.Len())
	}
	entry, ok := c.Get("a")
	if !ok || len(entry.Program) != 1 {
		t.Fatalf("%#v\n", entry)
	}
}

func TestProgramsClear(t *testing.T) {
	c := NewPrograms(2)
	c.Set("a", Entry{})
	c.Set("b", Entry{})
	c.Clear()
	if c.Len() != 0 {
		t.Fatalf("len: %d\n", c.Len())
	}
	if _, ok := c.Get("a"); ok {
		t.Fatal("expected miss after clear")
	}
	c.Set("c", Entry{})
	if _, ok := c.Get("c"); !ok {
		t.Fatal("expected hit after reuse")
	}
}
