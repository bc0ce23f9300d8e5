// Copyright 2017 karma.run AG. All rights reserved.
// Use of this source code is governed by an AGPL license that can be found in the LICENSE file.
package api

import (
	"context"
	"fmt"
	"github.com/benderTheCrime/error-type-specific-catch-proposal/codec"
	"github.com/benderTheCrime/error-type-specific-catch-proposal/cvm"
	"github.com/benderTheCrime/error-type-specific-catch-proposal/cvm/err"
	"github.com/benderTheCrime/error-type-specific-catch-proposal/cvm/reg"
	"github.com/benderTheCrime/error-type-specific-catch-proposal/cvm/val"
	"github.com/benderTheCrime/error-type-specific-catch-proposal/db"
	"github.com/benderTheCrime/error-type-specific-catch-proposal/definitions"
	"github.com/benderTheCrime/error-type-specific-catch-proposal/metrics"
	"github.com/boltdb/bolt"
	"github.com/rs/zerolog/log"
	"io"
	"net/http"
	"os"
	"path"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	_ "net/http/pprof"
)

var version = `0.9.2`

type Payload []byte

func (p Payload) Close() {
	copy(p, ZeroPayload)
	PayloadPool.Put(p[:MaxPayloadBytes])
}

const MaxPayloadBytes = 1 * 1024 * 1024 // 1MB

var (
	PayloadPool = &sync.Pool{
		New: func() interface{} {
			return make(Payload, MaxPayloadBytes, MaxPayloadBytes)
		},
	}
	ZeroPayload = make(Payload, MaxPayloadBytes, MaxPayloadBytes)
)

type ContextKey int

const (
	ContextKeyCodec ContextKey = iota
	ContextKeyDatabase
)

const (
	EvalPrefix    = `eval`
	TypesPrefix   = `types`
	MetricsPrefix = `metrics`

	ExportPrefix               = `admin/export`
	ImportPrefix               = `admin/import`
	ResetPrefix                = `admin/reset`
	RotateInstanceSecretPrefix = `admin/rotate_instance_secret`
)

const (
	CodecHeader  = `X-Catch-Codec`
	SecretHeader = `X-Catch-Secret`
)

// DefaultCodec is assumed when the codec header is absent.
const DefaultCodec = `json`

var prom = metrics.New(`catch`)

func HttpHandler(rw http.ResponseWriter, rq *http.Request) {

	begin := time.Now()

	if len(os.Getenv("PPROF")) > 0 && strings.HasPrefix(rq.URL.Path, "/debug/pprof") {
		http.DefaultServeMux.ServeHTTP(rw, rq)
		return
	}

	// CORS headers for browsers
	rw.Header().Set("Access-Control-Allow-Headers", rq.Header.Get("Access-Control-Request-Headers"))
	rw.Header().Set("Access-Control-Allow-Methods", rq.Header.Get("Access-Control-Request-Method"))
	rw.Header().Set("Access-Control-Allow-Origin", "*")

	if rq.Method == http.MethodOptions {
		return // CORS pre-flight
	}

	path := strings.Trim(path.Clean(rq.URL.Path), "/")

	if rq.Method == http.MethodGet && path == "" { // k8s health checks
		rw.WriteHeader(http.StatusOK)
		rw.Write([]byte(`catchd ` + version))
		return
	}

	if rq.Method == http.MethodGet && path == MetricsPrefix {
		refreshGauges()
		prom.Handler().ServeHTTP(rw, rq)
		return
	}

	key := rq.Header.Get(CodecHeader)
	if key == "" {
		key = DefaultCodec
	}

	cdc := codec.Get(key)
	if cdc == nil {
		msg := fmt.Sprintf(`invalid codec requested (%s header). available codecs: %s`, CodecHeader, strings.Join(codec.Available(), ", "))
		rw.WriteHeader(http.StatusBadRequest)
		rw.Write([]byte(msg))
		return
	}

	rq = rq.WithContext(context.WithValue(rq.Context(), ContextKeyCodec, cdc))

	dtbs, e := db.Open()
	if e != nil {
		rw.WriteHeader(http.StatusInternalServerError)
		rw.Write(cdc.Encode(err.InternalError{Problem: "failed opening database"}.Value()))
		log.Error().Err(e).Msg("failed opening database")
		return
	}

	rq = rq.WithContext(context.WithValue(rq.Context(), ContextKeyDatabase, dtbs))

	sw := &statusWriter{ResponseWriter: rw}
	rw = sw

	defer func() {
		prom.RecordRequest(endpointName(path), sw.Status(), time.Since(begin))
	}()

	defer func() {
		if v := recover(); v != nil {
			rw.WriteHeader(http.StatusInternalServerError)
			switch e := v.(type) {
			case err.Error:
				rw.Write(cdc.Encode(err.HumanReadableError{e}.Value()))
			case error:
				log.Error().Err(e).Str("path", rq.URL.Path).Msg("recovered panic in http handler")
			default:
				log.Error().Str("path", rq.URL.Path).Msgf("recovered panic in http handler: %#v", v)
			}
			debug.PrintStack()
		}
	}()

	if len(path) >= len(RotateInstanceSecretPrefix) && path[:len(RotateInstanceSecretPrefix)] == RotateInstanceSecretPrefix {
		RotateInstanceSecretHttpHandler(rw, rq)
		return
	}

	if len(path) >= len(ResetPrefix) && path[:len(ResetPrefix)] == ResetPrefix {
		ResetHttpHandler(rw, rq)
		return
	}

	if len(path) >= len(ExportPrefix) && path[:len(ExportPrefix)] == ExportPrefix {
		ExportHttpHandler(rw, rq)
		return
	}

	if len(path) >= len(ImportPrefix) && path[:len(ImportPrefix)] == ImportPrefix {
		ImportHttpHandler(rw, rq)
		return
	}

	if path == TypesPrefix || strings.HasPrefix(path, TypesPrefix+`/`) {
		TypesHttpHandler(rw, rq)
		return
	}

	if path == EvalPrefix {
		EvalHttpHandler(rw, rq)
		return
	}

	rw.WriteHeader(http.StatusNotFound)
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	if w.status == 0 {
		w.status = status
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *statusWriter) Write(bs []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return w.ResponseWriter.Write(bs)
}

func (w *statusWriter) Status() int {
	if w.status == 0 {
		return http.StatusOK
	}
	return w.status
}

// endpointName maps request paths onto a bounded label set.
func endpointName(path string) string {
	switch {
	case path == EvalPrefix:
		return EvalPrefix
	case path == TypesPrefix || strings.HasPrefix(path, TypesPrefix+`/`):
		return TypesPrefix
	case strings.HasPrefix(path, ExportPrefix):
		return ExportPrefix
	case strings.HasPrefix(path, ImportPrefix):
		return ImportPrefix
	case strings.HasPrefix(path, ResetPrefix):
		return ResetPrefix
	case strings.HasPrefix(path, RotateInstanceSecretPrefix):
		return RotateInstanceSecretPrefix
	}
	return `unknown`
}

// refreshGauges samples sizes that change out-of-band of any single request.
func refreshGauges() {
	prom.RecordCompilerCacheSize(cvm.CompilerCacheLen())
	dtbs, e := db.Open()
	if e != nil {
		return
	}
	dtbs.View(func(tx *bolt.Tx) error {
		root := tx.Bucket([]byte(`root`))
		if root == nil {
			return nil
		}
		if bk := root.Bucket(definitions.TypesBucketBytes); bk != nil {
			prom.RecordRegistrySize(bk.Stats().KeyN)
		}
		return nil
	})
}

func writeError(rw http.ResponseWriter, cdc codec.Interface, e err.Error) {
	rw.WriteHeader(http.StatusBadRequest)
	rw.Write(cdc.Encode(e.Value()))
}

func payloadFromRequest(rq *http.Request) Payload {
	defer rq.Body.Close()
	return payloadFromReader(rq.Body)
}

func payloadFromReader(r io.Reader) Payload {
	payload := PayloadPool.Get().(Payload)
	readLength := 0
	for readLength < MaxPayloadBytes {
		n, e := r.Read(payload[readLength:])
		readLength += n
		if e != nil {
			break // io.EOF or not, we're done
		}
	}
	return payload[:readLength]
}

// registryFromTx rebuilds the type forest from its bucket. Snapshot decoding
// resolves parents before children, so bucket iteration order does not matter.
func registryFromTx(tx *bolt.Tx) (*reg.Registry, err.Error) {

	root := tx.Bucket([]byte(`root`))
	if root == nil {
		return nil, err.InternalError{`database uninitialized`, nil}
	}

	bk := root.Bucket(definitions.TypesBucketBytes)
	if bk == nil {
		return nil, err.InternalError{`database uninitialized`, nil}
	}

	snapshot := make(val.Struct, bk.Stats().KeyN)
	e := bk.ForEach(func(k, v []byte) error {
		if len(v) == 0 {
			snapshot[string(k)] = val.Null
			return nil
		}
		snapshot[string(k)] = val.String(v)
		return nil
	})
	if e != nil {
		return nil, err.InternalError{`failed reading type registry`, nil}
	}

	registry, ke := reg.RegistryFromValue(snapshot)
	if ke != nil {
		return nil, err.InternalError{`stored type registry is corrupt`, ke}
	}

	return registry, nil
}
