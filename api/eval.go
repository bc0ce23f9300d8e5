// Copyright 2017 karma.run AG. All rights reserved.
// Use of this source code is governed by an AGPL license that can be found in the LICENSE file.

package api

import (
	"fmt"
	"github.com/benderTheCrime/error-type-specific-catch-proposal/codec"
	"github.com/benderTheCrime/error-type-specific-catch-proposal/cvm"
	"github.com/benderTheCrime/error-type-specific-catch-proposal/cvm/err"
	"github.com/benderTheCrime/error-type-specific-catch-proposal/cvm/prg"
	"github.com/boltdb/bolt"
	"github.com/rs/zerolog/log"
	"net/http"
	"time"
)

// EvalHttpHandler parses, compiles and evaluates the program in the request
// body against the stored type forest. All three outcomes are 200s: a
// propagated error is a result, not a transport failure.
func EvalHttpHandler(rw http.ResponseWriter, rq *http.Request) {

	cdc := rq.Context().Value(ContextKeyCodec).(codec.Interface)
	dtbs := rq.Context().Value(ContextKeyDatabase).(*bolt.DB)

	if rq.Method != http.MethodPost {
		writeError(rw, cdc, err.RequestError{Problem: fmt.Sprintf(`invalid HTTP method requested: %s. eval supports POST only.`, rq.Method)})
		return
	}

	payload := payloadFromRequest(rq)
	defer payload.Close()

	program, ke := cvm.ParseAndCompile(payload)
	if ke != nil {
		writeError(rw, cdc, err.HumanReadableError{ke})
		return
	}

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

	for _, name := range prg.ThrownTypes(program) {
		if !registry.Has(name) {
			log.Warn().Str("type", name).Msg("program throws unregistered type")
		}
	}

	stats := cvm.Stats{}
	machine := cvm.Machine{Registry: registry, Stats: &stats}

	begin := time.Now()
	outcome := machine.Evaluate(program)
	prom.RecordEvaluation(outcome.Value().Case, stats, time.Since(begin))

	rw.Write(cdc.Encode(outcome.Value()))
}
