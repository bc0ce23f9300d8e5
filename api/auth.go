// Copyright 2017 karma.run AG. All rights reserved.
// Use of this source code is governed by an AGPL license that can be found in the LICENSE file.

package api

import (
	"crypto/rand"
	"github.com/benderTheCrime/error-type-specific-catch-proposal/codec"
	"github.com/benderTheCrime/error-type-specific-catch-proposal/cvm/err"
	"github.com/benderTheCrime/error-type-specific-catch-proposal/definitions"
	"github.com/boltdb/bolt"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"net/http"
	"sync"
	"time"
)

var authLock = &sync.Mutex{}

// requireInstanceSecret authorizes admin requests: the secret header must
// match the bcrypt digest stored at initialization. It writes the refusal
// itself and reports whether the caller may proceed.
func requireInstanceSecret(rw http.ResponseWriter, rq *http.Request, cdc codec.Interface, dtbs *bolt.DB) bool {

	authLock.Lock()
	defer authLock.Unlock() // no concurrent attempts to brute-force the secret

	hash, ke := instanceSecretHashFromDatabase(dtbs)
	if ke != nil {
		rw.WriteHeader(http.StatusInternalServerError)
		rw.Write(cdc.Encode(err.InternalError{`unable to read database`, ke}.Value()))
		return false
	}

	if e := bcrypt.CompareHashAndPassword(hash, []byte(rq.Header.Get(SecretHeader))); e != nil {
		log.Warn().Str("path", rq.URL.Path).Msg("unauthorized admin request")
		rw.WriteHeader(http.StatusForbidden)
		rw.Write(cdc.Encode(err.PermissionDeniedError{}.Value()))
		return false
	}

	return true
}

func instanceSecretHashFromDatabase(dtbs *bolt.DB) ([]byte, err.Error) {

	tx, e := dtbs.Begin(false)
	if e != nil {
		return nil, err.InternalError{`failed opening database transaction`, nil}
	}
	defer tx.Rollback()

	root := tx.Bucket([]byte(`root`))
	if root == nil {
		return nil, err.InternalError{`database uninitialized`, nil}
	}

	system := root.Bucket(definitions.SystemBucketBytes)
	if system == nil {
		return nil, err.InternalError{`database uninitialized`, nil}
	}

	hash := system.Get(definitions.InstanceSecretKeyBytes)
	if hash == nil {
		return nil, err.InternalError{`instance secret not initialized`, nil}
	}

	out := make([]byte, len(hash), len(hash)) // hash memory belongs to the transaction
	copy(out, hash)
	return out, nil
}

func RandIv(ln int) []byte {
	rd, iv := 0, make([]byte, ln, ln)
	for rd < len(iv) {
		n, e := rand.Read(iv[rd:])
		if e != nil {
			time.Sleep(time.Millisecond) // allow some entropy gathering
		}
		rd += n
	}
	return iv
}
