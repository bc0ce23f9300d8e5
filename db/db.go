// Copyright 2017 karma.run AG. All rights reserved.
// Use of this source code is governed by an AGPL license that can be found in the LICENSE file.
package db

import (
	"github.com/benderTheCrime/error-type-specific-catch-proposal/config"
	"github.com/benderTheCrime/error-type-specific-catch-proposal/definitions"
	"github.com/boltdb/bolt"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

const (
	InitialMmapSize = 1024 * 1024 * 16 // 16MB
	Perm            = 0700
)

func init() {
	go handleSignals()
}

var database *bolt.DB = nil

var mutex = &sync.Mutex{}

func Open() (*bolt.DB, error) {

	mutex.Lock()
	defer mutex.Unlock()

	if database == nil {
		db, e := openDatabase(config.DataFile)
		if e != nil {
			return nil, e
		}
		database = db
		return db, nil
	}

	return database, nil
}

// WhileClosed runs f with the database handle closed. The next Open reopens
// the data file.
func WhileClosed(f func() error) error {

	mutex.Lock()
	defer mutex.Unlock()

	if database == nil {
		return f()
	}

	if e := database.Close(); e != nil {
		return e
	}
	database = nil

	return f()
}

// reloads the underlying database from file
func Reload() (*bolt.DB, error) {

	mutex.Lock()
	defer mutex.Unlock()

	db, e := openDatabase(config.DataFile)
	if e != nil {
		return nil, e
	}
	database = db

	return db, nil

}

func openDatabase(path string) (*bolt.DB, error) {
	return bolt.Open(path, Perm, &bolt.Options{
		InitialMmapSize: InitialMmapSize,
		Timeout:         time.Second * 3,
	})
}

// Initialize creates the bucket layout in a fresh root bucket and seeds it:
// the builtin error types plus the bcrypt digest of the instance secret.
func Initialize(tx *bolt.Tx, secret string) error {

	root, e := tx.CreateBucket([]byte(`root`))
	if e != nil {
		return e
	}

	types, e := root.CreateBucket(definitions.TypesBucketBytes)
	if e != nil {
		return e
	}
	for _, pair := range definitions.Builtins() {
		if e := types.Put([]byte(pair[0]), []byte(pair[1])); e != nil {
			return e
		}
	}

	system, e := root.CreateBucket(definitions.SystemBucketBytes)
	if e != nil {
		return e
	}

	hash, e := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if e != nil {
		return e
	}

	return system.Put(definitions.InstanceSecretKeyBytes, hash)
}

func handleSignals() {
	c := make(chan os.Signal)
	signal.Notify(c, syscall.SIGINT, syscall.SIGKILL, syscall.SIGTERM)
	<-c
	mutex.Lock()
	defer mutex.Unlock() // in case os.Exit panics
	if database != nil {
		log.Info().Msg("closing database...")
		if e := database.Close(); e != nil {
			log.Fatal().Err(e).Msg("closing database failed")
		}
		log.Info().Msg("database closed")
		database = nil
	}
	os.Exit(0)
}
