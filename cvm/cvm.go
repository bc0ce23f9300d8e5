// Copyright 2017 karma.run AG. All rights reserved.
// Use of this source code is governed by an AGPL license that can be found in the LICENSE file.
//
// Package cvm parses, compiles and evaluates catch programs: statement trees
// that dispatch thrown error values over typed clause chains, consulting a
// type registry for subtype relations.
package cvm

import (
	"github.com/benderTheCrime/error-type-specific-catch-proposal/cache"
	"github.com/benderTheCrime/error-type-specific-catch-proposal/cvm/err"
	"github.com/benderTheCrime/error-type-specific-catch-proposal/cvm/prg"
	"github.com/benderTheCrime/error-type-specific-catch-proposal/cvm/reg"
	"github.com/benderTheCrime/error-type-specific-catch-proposal/cvm/syn"
	"hash/fnv" // FNV-1 has a very low collision rate
)

// Machine evaluates programs against a type registry. Registry must be set,
// Stats may be nil when nobody cares about evaluation counters.
type Machine struct {
	Registry *reg.Registry
	Stats    *Stats
}

// Stats counts evaluation events. Increments are plain, so a Stats must not
// be shared between concurrently evaluating machines.
type Stats struct {
	Throws        uint64
	Rethrows      uint64
	ClauseMatches uint64
	FinallyRuns   uint64
}

func (s *Stats) add(t Stats) {
	s.Throws += t.Throws
	s.Rethrows += t.Rethrows
	s.ClauseMatches += t.ClauseMatches
	s.FinallyRuns += t.FinallyRuns
}

func (m Machine) ParseCompileAndEvaluate(source []byte) (Outcome, err.Error) {
	program, e := ParseAndCompile(source)
	if e != nil {
		return nil, e
	}
	return m.Evaluate(program), nil
}

// ParseAndCompile memoizes compilation. Compiled programs do not depend on
// registry contents, so cache entries are keyed on the source hash alone and
// stay valid across type registrations.
func ParseAndCompile(source []byte) (prg.Sequence, err.Error) {
	h := fnv.New64a()
	h.Write(source)
	cacheKey := string(h.Sum(nil))

	if entry, ok := compilerCache.Get(cacheKey); ok {
		return entry.Program, entry.Err
	}

	block, e := syn.Parse(source)
	if e != nil {
		compilerCache.Set(cacheKey, cache.Entry{nil, e})
		return nil, e
	}
	program, e := Compile(block)
	compilerCache.Set(cacheKey, cache.Entry{program, e})
	return program, e
}

var compilerCache = cache.NewPrograms(1024)

// clears compiler cache (for all registries)
func ClearCompilerCache() {
	compilerCache.Clear()
}

// CompilerCacheLen reports the number of memoized programs.
func CompilerCacheLen() int {
	return compilerCache.Len()
}
