// Copyright 2017 karma.run AG. All rights reserved.
// Use of this source code is governed by an AGPL license that can be found in the LICENSE file.
package reg

import (
	"github.com/benderTheCrime/error-type-specific-catch-proposal/cvm/err"
	"github.com/benderTheCrime/error-type-specific-catch-proposal/cvm/val"
	"reflect"
	"testing"
)

func TestRegister(t *testing.T) {
	r := New()
	{
		if e := r.Register("Error", ""); e != nil {
			t.Fatalf("%#v\n", e)
		}
		if e := r.Register("TypeError", "Error"); e != nil {
			t.Fatalf("%#v\n", e)
		}
		if r.Len() != 2 {
			t.Fatalf("%d\n", r.Len())
		}
	}
	{ // re-registering with the same parent is a no-op
		before := r.Version()
		if e := r.Register("TypeError", "Error"); e != nil {
			t.Fatalf("%#v\n", e)
		}
		if r.Version() != before {
			t.Fatalf("version moved on no-op registration")
		}
	}
	{ // a different parent for a known name is a conflict
		e := r.Register("TypeError", "")
		if _, ok := e.(err.DuplicateTypeError); !ok {
			t.Fatalf("%#v\n", e)
		}
	}
	{ // parents register before children
		e := r.Register("FileError", "IOError")
		if _, ok := e.(err.UnknownParentError); !ok {
			t.Fatalf("%#v\n", e)
		}
		if r.Has("FileError") {
			t.Fatalf("failed registration mutated the forest")
		}
	}
}

func TestIsSubtype(t *testing.T) {
	r := New()
	for _, pair := range [][2]string{
		{"Error", ""},
		{"TypeError", "Error"},
		{"SpecificError", "TypeError"},
		{"RangeError", "Error"},
		{"Standalone", ""},
	} {
		if e := r.Register(pair[0], pair[1]); e != nil {
			t.Fatalf("%#v\n", e)
		}
	}
	cases := []struct {
		candidate, target string
		expect            bool
	}{
		{"TypeError", "TypeError", true},
		{"TypeError", "Error", true},
		{"SpecificError", "Error", true},
		{"Error", "TypeError", false},
		{"RangeError", "TypeError", false},
		{"Standalone", "Error", false},
		{"Unregistered", "Unregistered", true},
		{"Unregistered", "Error", false},
		{"Error", "Unregistered", false},
	}
	for _, c := range cases {
		if r.IsSubtype(c.candidate, c.target) != c.expect {
			t.Fatalf("IsSubtype(%q, %q) != %v", c.candidate, c.target, c.expect)
		}
	}
}

func TestAncestors(t *testing.T) {
	r := New()
	for _, pair := range [][2]string{
		{"Error", ""},
		{"TypeError", "Error"},
		{"SpecificError", "TypeError"},
	} {
		if e := r.Register(pair[0], pair[1]); e != nil {
			t.Fatalf("%#v\n", e)
		}
	}
	{
		chain := r.Ancestors("SpecificError")
		if !reflect.DeepEqual(chain, []string{"TypeError", "Error"}) {
			t.Fatalf("%#v\n", chain)
		}
	}
	{
		if chain := r.Ancestors("Error"); chain != nil {
			t.Fatalf("%#v\n", chain)
		}
		if chain := r.Ancestors("Unregistered"); chain != nil {
			t.Fatalf("%#v\n", chain)
		}
	}
	{
		if parent, ok := r.Parent("TypeError"); !ok || parent != "Error" {
			t.Fatalf("%q %v\n", parent, ok)
		}
		if parent, ok := r.Parent("Error"); !ok || parent != "" {
			t.Fatalf("%q %v\n", parent, ok)
		}
		if _, ok := r.Parent("Unregistered"); ok {
			t.Fatalf("unregistered name has a parent")
		}
	}
	{
		names := r.Names()
		if !reflect.DeepEqual(names, []string{"Error", "SpecificError", "TypeError"}) {
			t.Fatalf("%#v\n", names)
		}
	}
}

func TestCopy(t *testing.T) {
	r := New()
	if e := r.Register("Error", ""); e != nil {
		t.Fatalf("%#v\n", e)
	}
	c := r.Copy()
	if e := c.Register("TypeError", "Error"); e != nil {
		t.Fatalf("%#v\n", e)
	}
	if r.Has("TypeError") {
		t.Fatalf("registration in copy reached the original")
	}
	if c.Version() != r.Version()+1 {
		t.Fatalf("%d %d\n", c.Version(), r.Version())
	}
}

func TestSnapshotRoundtrip(t *testing.T) {
	r := New()
	for _, pair := range [][2]string{
		{"Error", ""},
		{"TypeError", "Error"},
		{"SpecificError", "TypeError"},
		{"Standalone", ""},
	} {
		if e := r.Register(pair[0], pair[1]); e != nil {
			t.Fatalf("%#v\n", e)
		}
	}
	snapshot := ValueFromRegistry(r)
	expect := val.Struct{
		"Error":         val.Null,
		"TypeError":     val.String("Error"),
		"SpecificError": val.String("TypeError"),
		"Standalone":    val.Null,
	}
	if !snapshot.Equals(expect) {
		t.Fatalf("%#v\n", snapshot)
	}
	rebuilt, e := RegistryFromValue(snapshot)
	if e != nil {
		t.Fatalf("%#v\n", e)
	}
	if !ValueFromRegistry(rebuilt).Equals(expect) {
		t.Fatalf("%#v\n", ValueFromRegistry(rebuilt))
	}
	if !rebuilt.IsSubtype("SpecificError", "Error") {
		t.Fatalf("rebuilt forest lost an ancestor chain")
	}
}

func TestMerge(t *testing.T) {
	r := New()
	for _, pair := range [][2]string{
		{"Error", ""},
		{"TypeError", "Error"},
	} {
		if e := r.Register(pair[0], pair[1]); e != nil {
			t.Fatalf("%#v\n", e)
		}
	}
	{ // new entries may hang off registered and snapshot parents alike
		applied, e := r.Merge(val.Struct{
			"SpecificError":     val.String("TypeError"),
			"VerySpecificError": val.String("SpecificError"),
			"TypeError":         val.String("Error"), // no-op
		})
		if e != nil {
			t.Fatalf("%#v\n", e)
		}
		if len(applied) != 2 {
			t.Fatalf("%#v\n", applied)
		}
		if applied[0] != [2]string{"SpecificError", "TypeError"} {
			t.Fatalf("%#v\n", applied)
		}
		if !r.IsSubtype("VerySpecificError", "Error") {
			t.Fatalf("merged chain not connected")
		}
	}
	{ // re-parenting is a conflict
		_, e := r.Merge(val.Struct{"TypeError": val.Null})
		if _, ok := e.(err.DuplicateTypeError); !ok {
			t.Fatalf("%#v\n", e)
		}
	}
	{
		_, e := r.Merge(val.Struct{"IOError": val.String("Missing")})
		if _, ok := e.(err.UnknownParentError); !ok {
			t.Fatalf("%#v\n", e)
		}
	}
}

func TestRegistryFromValueRejects(t *testing.T) {
	{ // snapshot must be a struct
		_, e := RegistryFromValue(val.String("Error"))
		if _, ok := e.(err.InputParsingError); !ok {
			t.Fatalf("%#v\n", e)
		}
	}
	{ // parent entries are strings or null
		_, e := RegistryFromValue(val.Struct{"Error": val.Int64(1)})
		if _, ok := e.(err.InputParsingError); !ok {
			t.Fatalf("%#v\n", e)
		}
	}
	{ // a named parent must be present in the snapshot
		_, e := RegistryFromValue(val.Struct{"TypeError": val.String("Error")})
		if _, ok := e.(err.UnknownParentError); !ok {
			t.Fatalf("%#v\n", e)
		}
	}
	{ // parent cycles are impossible in a live forest but not in wire input
		_, e := RegistryFromValue(val.Struct{
			"A": val.String("B"),
			"B": val.String("A"),
		})
		if _, ok := e.(err.InputParsingError); !ok {
			t.Fatalf("%#v\n", e)
		}
	}
	{
		_, e := RegistryFromValue(val.Struct{"A": val.String("A")})
		if _, ok := e.(err.InputParsingError); !ok {
			t.Fatalf("%#v\n", e)
		}
	}
}
