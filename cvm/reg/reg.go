// Copyright 2017 karma.run AG. All rights reserved.
// Use of this source code is governed by an AGPL license that can be found in the LICENSE file.
package reg

import (
	"fmt"
	"github.com/benderTheCrime/error-type-specific-catch-proposal/cvm/err"
	"github.com/benderTheCrime/error-type-specific-catch-proposal/cvm/val"
	"sort"
)

// Registry holds the error-type subtype forest: every registered name has at
// most one parent, and a parent must be registered before its children. That
// ordering makes cycles impossible by construction. A Registry is not safe for
// concurrent mutation; all registration belongs to a definition phase that
// precedes evaluation, during which the forest is only read. Consumers receive
// their Registry explicitly, there is no ambient process-wide instance.
type Registry struct {
	parents map[string]string // name -> parent name, "" for roots
	version uint64
}

func New() *Registry {
	return &Registry{parents: make(map[string]string, 16)}
}

// Register adds name to the forest under parent. An empty parent makes name a
// root. Registering a name twice with the same parent is a no-op; with a
// different parent it fails with DuplicateTypeError. A parent that is not yet
// registered fails with UnknownParentError.
func (r *Registry) Register(name, parent string) err.Error {
	if existing, ok := r.parents[name]; ok {
		if existing == parent {
			return nil
		}
		return err.DuplicateTypeError{Name: name, Parent: parent, Existing: existing}
	}
	if parent != "" {
		if _, ok := r.parents[parent]; !ok {
			return err.UnknownParentError{Name: name, Parent: parent}
		}
	}
	r.parents[name] = parent
	r.version++
	return nil
}

// IsSubtype reports whether candidate equals target or target appears in
// candidate's ancestor chain. Unregistered names have an empty ancestor chain,
// so they are subtypes of themselves only. O(depth of candidate).
func (r *Registry) IsSubtype(candidate, target string) bool {
	if candidate == target {
		return true
	}
	for p, ok := r.parents[candidate]; ok && p != ""; p, ok = r.parents[p] {
		if p == target {
			return true
		}
	}
	return false
}

func (r *Registry) Has(name string) bool {
	_, ok := r.parents[name]
	return ok
}

// Parent returns the registered parent of name. The second return is false
// if name is not registered. Roots return "".
func (r *Registry) Parent(name string) (string, bool) {
	p, ok := r.parents[name]
	return p, ok
}

// Ancestors returns the ancestor chain of name from its parent up to its
// root, or nil for roots and unregistered names.
func (r *Registry) Ancestors(name string) []string {
	p, ok := r.parents[name]
	if !ok || p == "" {
		return nil
	}
	chain := make([]string, 0, 4)
	for ; ok && p != ""; p, ok = r.parents[p] {
		chain = append(chain, p)
	}
	return chain
}

// Names returns all registered names in lexical order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.parents))
	for name := range r.parents {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) Len() int {
	return len(r.parents)
}

// Version increases with every effective registration, letting callers
// detect forest changes without diffing snapshots.
func (r *Registry) Version() uint64 {
	return r.version
}

func (r *Registry) Copy() *Registry {
	c := &Registry{parents: make(map[string]string, len(r.parents)), version: r.version}
	for k, v := range r.parents {
		c.parents[k] = v
	}
	return c
}

// ValueFromRegistry returns the serializable snapshot of a Registry: a struct
// keyed by type name whose values are parent names, roots mapping to null.
func ValueFromRegistry(r *Registry) val.Value {
	s := make(val.Struct, len(r.parents))
	for name, parent := range r.parents {
		if parent == "" {
			s[name] = val.Null
		} else {
			s[name] = val.String(parent)
		}
	}
	return s
}

// Merge registers every entry of a snapshot value into r, parents before
// children. Entries already present under the same parent are no-ops, entries
// re-parenting a known name fail with DuplicateTypeError. A snapshot naming a
// parent that is neither registered nor part of the snapshot, or containing a
// parent cycle, is rejected. On error r may already hold a prefix of the
// entries. Merge returns the pairs it added, in registration order.
func (r *Registry) Merge(v val.Value) ([][2]string, err.Error) {
	s, ok := v.(val.Struct)
	if !ok {
		return nil, err.InputParsingError{Problem: "registry snapshot must be a struct"}
	}
	applied := make([][2]string, 0, len(s))
	visiting := make(map[string]struct{}, len(s))
	var insert func(name string) err.Error
	insert = func(name string) err.Error {
		if _, ok := visiting[name]; ok {
			return err.InputParsingError{Problem: fmt.Sprintf(`registry snapshot contains a parent cycle at %q`, name)}
		}
		visiting[name] = struct{}{}
		parent := ""
		switch p := s[name].(type) {
		case val.String:
			parent = string(p)
			if !r.Has(parent) {
				if _, known := s[parent]; !known {
					return err.UnknownParentError{Name: name, Parent: parent}
				}
				if e := insert(parent); e != nil {
					return e
				}
			}
		default:
			if s[name] != val.Null {
				return err.InputParsingError{Problem: fmt.Sprintf(`registry snapshot parent of %q must be a string or null`, name)}
			}
		}
		known := r.Has(name)
		if e := r.Register(name, parent); e != nil {
			return e
		}
		if !known {
			applied = append(applied, [2]string{name, parent})
		}
		return nil
	}
	for name := range s {
		if _, done := visiting[name]; done {
			continue
		}
		if e := insert(name); e != nil {
			return nil, e
		}
	}
	return applied, nil
}

// RegistryFromValue rebuilds a Registry from its snapshot representation.
func RegistryFromValue(v val.Value) (*Registry, err.Error) {
	r := New()
	if _, e := r.Merge(v); e != nil {
		return nil, e
	}
	return r, nil
}
