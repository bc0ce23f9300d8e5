// Copyright 2017 karma.run AG. All rights reserved.
// Use of this source code is governed by an AGPL license that can be found in the LICENSE file.

package api

import (
	"bytes"
	"fmt"
	"github.com/benderTheCrime/error-type-specific-catch-proposal/codec"
	"github.com/benderTheCrime/error-type-specific-catch-proposal/cvm/err"
	"github.com/benderTheCrime/error-type-specific-catch-proposal/cvm/reg"
	"github.com/benderTheCrime/error-type-specific-catch-proposal/cvm/val"
	"github.com/benderTheCrime/error-type-specific-catch-proposal/definitions"
	"github.com/boltdb/bolt"
	"github.com/rs/zerolog/log"
	"net/http"
)

func TypesHttpHandler(rw http.ResponseWriter, rq *http.Request) {
	switch rq.Method {
	case http.MethodGet:
		TypesGetHttpHandler(rw, rq)
	case http.MethodPost:
		TypesPostHttpHandler(rw, rq)
	default:
		cdc := rq.Context().Value(ContextKeyCodec).(codec.Interface)
		writeError(rw, cdc, err.RequestError{Problem: fmt.Sprintf(`invalid HTTP method requested: %s. types supports GET and POST.`, rq.Method)})
	}
}

// TypesGetHttpHandler serves the full forest as a snapshot struct, or a single
// type with its parent and ancestor chain when a name segment follows.
func TypesGetHttpHandler(rw http.ResponseWriter, rq *http.Request) {

	cdc := rq.Context().Value(ContextKeyCodec).(codec.Interface)
	dtbs := rq.Context().Value(ContextKeyDatabase).(*bolt.DB)

	segments := pathSegments(rq.URL.Path)[1:] // "types" stripped

	tx, e := dtbs.Begin(false)
	if e != nil {
		log.Panic().Err(e).Msg("failed opening read transaction")
	}
	defer tx.Rollback()

	registry, ke := registryFromTx(tx)
	if ke != nil {
		rw.WriteHeader(http.StatusInternalServerError)
		rw.Write(cdc.Encode(ke.Value()))
		return
	}

	switch len(segments) {

	case 0:
		rw.Write(cdc.Encode(reg.ValueFromRegistry(registry)))

	case 1:
		name := segments[0]
		parent, ok := registry.Parent(name)
		if !ok {
			rw.WriteHeader(http.StatusNotFound)
			rw.Write(cdc.Encode(err.TypeNotFoundError{Name: name}.Value()))
			return
		}
		parentValue := val.Value(val.Null)
		if parent != "" {
			parentValue = val.String(parent)
		}
		ancestors := registry.Ancestors(name)
		chain := make(val.List, len(ancestors))
		for i, ancestor := range ancestors {
			chain[i] = val.String(ancestor)
		}
		rw.Write(cdc.Encode(val.Struct{
			"name":      val.String(name),
			"parent":    parentValue,
			"ancestors": chain,
		}))

	default:
		rw.WriteHeader(http.StatusNotFound)
	}
}

// TypesPostHttpHandler registers types. It takes either a single
// {"name": ..., "parent": ...} pair or a whole snapshot struct mapping type
// names to parents, merges it into the stored forest and answers with the
// resulting snapshot. Rejections (reparenting, unknown or cyclic parents)
// roll the transaction back, leaving the forest untouched.
func TypesPostHttpHandler(rw http.ResponseWriter, rq *http.Request) {

	cdc := rq.Context().Value(ContextKeyCodec).(codec.Interface)
	dtbs := rq.Context().Value(ContextKeyDatabase).(*bolt.DB)

	payload := payloadFromRequest(rq)
	defer payload.Close()

	v, ke := cdc.Decode(payload)
	if ke != nil {
		writeError(rw, cdc, err.HumanReadableError{ke})
		return
	}

	snapshot, ke := snapshotFromRequestValue(v)
	if ke != nil {
		writeError(rw, cdc, err.HumanReadableError{ke})
		return
	}

	applied, size := 0, 0
	result := val.Value(nil)

	e := dtbs.Update(func(tx *bolt.Tx) error {
		registry, ke := registryFromTx(tx)
		if ke != nil {
			return ke
		}
		pairs, ke := registry.Merge(snapshot)
		if ke != nil {
			return ke
		}
		bk := tx.Bucket([]byte(`root`)).Bucket(definitions.TypesBucketBytes)
		for _, pair := range pairs {
			if e := bk.Put([]byte(pair[0]), []byte(pair[1])); e != nil {
				return e
			}
		}
		applied, size = len(pairs), registry.Len()
		result = reg.ValueFromRegistry(registry)
		return nil
	})

	if e != nil {
		if ke, ok := e.(err.Error); ok {
			writeError(rw, cdc, err.HumanReadableError{ke})
			return
		}
		log.Panic().Err(e).Msg("type registration failed")
	}

	prom.RecordTypeRegistrations(applied)
	prom.RecordRegistrySize(size)

	log.Info().Int("applied", applied).Int("total", size).Msg("types registered")

	rw.Write(cdc.Encode(result))
}

// snapshotFromRequestValue normalizes the two accepted registration shapes
// into a snapshot. A struct whose keys are exactly "name" (a string) and
// optionally "parent" counts as a single pair; anything else is taken as a
// snapshot already.
func snapshotFromRequestValue(v val.Value) (val.Value, err.Error) {
	s, ok := v.(val.Struct)
	if !ok {
		return nil, err.RequestError{Problem: `type registration must be a struct`}
	}
	if name, hasName := s["name"].(val.String); hasName {
		parent, hasParent := s["parent"]
		if len(s) == 1 || (len(s) == 2 && hasParent) {
			if !hasParent {
				parent = val.Null
			}
			return val.Struct{string(name): parent}, nil
		}
	}
	return s, nil
}

// "/types//foo//bar///" -> ["types", "foo", "bar"]
func pathSegments(path string) []string {

	bs := []byte(path)

	temp := bs[:0]
	for slash := true; len(bs) > 0; bs = bs[1:] {
		if slash && bs[0] == '/' {
			continue
		}
		slash = (bs[0] == '/')
		temp = append(temp, bs[0])
	}
	bs = temp

	cut := len(bs) - 1
	for cut >= 0 && bs[cut] == '/' {
		cut--
	}
	bs = bs[:cut+1]

	bss := bytes.Split(bs, []byte{'/'})
	ss := make([]string, len(bss), len(bss))
	for i, bs := range bss {
		ss[i] = string(bs)
	}
	return ss
}
