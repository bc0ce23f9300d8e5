// Copyright 2017 karma.run AG. All rights reserved.
// Use of this source code is governed by an AGPL license that can be found in the LICENSE file.

package api

import (
	"archive/zip"
	"encoding/base64"
	"fmt"
	"github.com/benderTheCrime/error-type-specific-catch-proposal/codec"
	"github.com/benderTheCrime/error-type-specific-catch-proposal/config"
	"github.com/benderTheCrime/error-type-specific-catch-proposal/cvm/err"
	"github.com/benderTheCrime/error-type-specific-catch-proposal/cvm/val"
	"github.com/benderTheCrime/error-type-specific-catch-proposal/db"
	"github.com/benderTheCrime/error-type-specific-catch-proposal/definitions"
	"github.com/boltdb/bolt"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"io"
	"net/http"
	"os"
	"sync"
)

func ExportHttpHandler(rw http.ResponseWriter, rq *http.Request) {

	cdc := rq.Context().Value(ContextKeyCodec).(codec.Interface)
	dtbs := rq.Context().Value(ContextKeyDatabase).(*bolt.DB)

	if !requireInstanceSecret(rw, rq, cdc, dtbs) {
		return
	}

	e := func() error {
		zw := zip.NewWriter(rw)
		fw, e := zw.Create(config.DataFile)
		if e != nil {
			return e
		}
		tx, e := dtbs.Begin(false)
		if e != nil {
			return e
		}
		defer tx.Rollback()
		rw.Header().Set(`Content-Type`, `application/zip`)
		rw.Header().Set(`Content-Disposition`, `attachment; filename="`+config.DataFile+`.zip"`)
		_, e = tx.WriteTo(fw)
		if e != nil {
			return e
		}
		return zw.Close()
	}()

	if e != nil {
		log.Error().Err(e).Msg("export failed")
		rw.WriteHeader(http.StatusInternalServerError)
		rw.Write(cdc.Encode(err.InternalError{`export failed`, nil}.Value()))
	}
}

const maxImportSize = 1024 * 1024 * 1024 // in bytes

func ImportHttpHandler(rw http.ResponseWriter, rq *http.Request) {

	cdc := rq.Context().Value(ContextKeyCodec).(codec.Interface)
	dtbs := rq.Context().Value(ContextKeyDatabase).(*bolt.DB)

	if !requireInstanceSecret(rw, rq, cdc, dtbs) {
		return
	}

	e := db.WhileClosed(func() error {

		temp, e := os.CreateTemp("", "catch_import_*")
		if e != nil {
			return e
		}

		defer os.Remove(temp.Name())

		l, e := io.Copy(temp, io.LimitReader(rq.Body, maxImportSize))
		if e != nil {
			return e
		}

		rq.Body.Close()

		if l == maxImportSize {
			return fmt.Errorf(`import too big. max size in bytes: %d`, maxImportSize)
		}

		zr, e := zip.NewReader(temp, l)
		if e != nil {
			return e
		}

		if len(zr.File) == 0 {
			return fmt.Errorf(`empty zip file`)
		}

		if len(zr.File) > 1 {
			return fmt.Errorf(`zip file contains %d files, expected 1`, len(zr.File))
		}

		fr, e := zr.File[0].Open()
		if e != nil {
			return e
		}

		defer fr.Close()

		f, e := os.OpenFile(config.DataFile, os.O_RDWR|os.O_TRUNC|os.O_CREATE, db.Perm)
		if e != nil {
			return e
		}
		if _, e = io.Copy(f, fr); e != nil {
			return e
		}
		return f.Close()
	})

	if e != nil {
		log.Error().Err(e).Msg("import failed")
		rw.WriteHeader(http.StatusInternalServerError)
		rw.Write(cdc.Encode(err.InternalError{`import failed`, nil}.Value()))
		return
	}

	// reopen eagerly: a bad upload should fail this request, not the next one
	dtbs, e = db.Reload()
	if e == nil {
		e = dtbs.View(func(tx *bolt.Tx) error {
			if tx.Bucket([]byte(`root`)) == nil {
				return fmt.Errorf(`imported data file has no root bucket`)
			}
			return nil
		})
	}
	if e != nil {
		log.Error().Err(e).Msg("import verification failed")
		rw.WriteHeader(http.StatusInternalServerError)
		rw.Write(cdc.Encode(err.InternalError{`import verification failed`, nil}.Value()))
		return
	}

	log.Info().Msg("database imported")
	rw.Write(cdc.Encode(val.String("import successful")))
}

// MinInstanceSecretLength is the number of random bytes behind a generated
// instance secret. Secrets circulate in their base64 form, which keeps them
// under bcrypt's 72-byte input cap.
const MinInstanceSecretLength = 48

func RotateInstanceSecretHttpHandler(rw http.ResponseWriter, rq *http.Request) {

	cdc := rq.Context().Value(ContextKeyCodec).(codec.Interface)
	dtbs := rq.Context().Value(ContextKeyDatabase).(*bolt.DB)

	if !requireInstanceSecret(rw, rq, cdc, dtbs) {
		return
	}

	newSecret := base64.StdEncoding.EncodeToString(RandIv(MinInstanceSecretLength))

	e := dtbs.Update(func(tx *bolt.Tx) error {
		root := tx.Bucket([]byte(`root`))
		if root == nil {
			return err.InternalError{`database uninitialized`, nil}
		}
		system := root.Bucket(definitions.SystemBucketBytes)
		if system == nil {
			return err.InternalError{`database uninitialized`, nil}
		}
		hash, e := bcrypt.GenerateFromPassword([]byte(newSecret), bcrypt.DefaultCost)
		if e != nil {
			return e
		}
		return system.Put(definitions.InstanceSecretKeyBytes, hash)
	})

	if e != nil {
		log.Error().Err(e).Msg("instance secret rotation failed")
		rw.WriteHeader(http.StatusInternalServerError)
		rw.Write(cdc.Encode(err.InternalError{`instance secret rotation failed`, nil}.Value()))
		return
	}

	config.InstanceSecret = newSecret

	log.Info().Msg("instance secret rotated")
	rw.Write(cdc.Encode(val.String(newSecret)))
}

var resetLock = &sync.Mutex{}

// ResetHttpHandler drops all state and reseeds the builtin forest. The
// instance secret survives: the stored digest is regenerated from the current
// secret, not a fresh one.
func ResetHttpHandler(rw http.ResponseWriter, rq *http.Request) {

	resetLock.Lock()
	defer resetLock.Unlock() // no concurrent reset requests

	cdc := rq.Context().Value(ContextKeyCodec).(codec.Interface)
	dtbs := rq.Context().Value(ContextKeyDatabase).(*bolt.DB)

	if !requireInstanceSecret(rw, rq, cdc, dtbs) {
		return
	}

	e := dtbs.Update(func(tx *bolt.Tx) error {
		_ = tx.DeleteBucket([]byte(`root`))
		return db.Initialize(tx, config.InstanceSecret)
	})

	if e != nil {
		if ke, ok := e.(err.Error); ok {
			writeError(rw, cdc, err.HumanReadableError{ke})
			return
		}
		log.Panic().Err(e).Msg("instance reset failed")
	}

	prom.RecordRegistrySize(len(definitions.Builtins()))

	msg := "instance reset successful"

	log.Info().Msg(msg)
	rw.Write(cdc.Encode(val.String(msg)))
}
