// Copyright 2017 karma.run AG. All rights reserved.
// Use of this source code is governed by an AGPL license that can be found in the LICENSE file.
package codec

import (
	"github.com/benderTheCrime/error-type-specific-catch-proposal/cvm/err"
	"github.com/benderTheCrime/error-type-specific-catch-proposal/cvm/val"
	"github.com/rs/zerolog/log"
	"sort"
)

type Instantiator func() Interface

// Interface is a wire codec. Decoding is schemaless: the bytes describe
// themselves, no registry is consulted.
type Interface interface {
	Decode([]byte) (val.Value, err.Error)
	Encode(val.Value) []byte
}

// Not thread-safe
var registry = make(map[string]Instantiator)

func Register(key string, itr Instantiator) {
	if _, ok := registry[key]; ok {
		log.Panic().Msgf(`codec already registered for key: %s`, key)
	}
	registry[key] = itr
}

func Available() []string {
	decs := make([]string, 0, len(registry))
	for k := range registry {
		decs = append(decs, k)
	}
	sort.Strings(decs)
	return decs
}

func Get(key string) Interface {
	i := registry[key]
	if i == nil {
		return nil
	}
	return i()
}
