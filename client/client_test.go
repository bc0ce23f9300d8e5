// Copyright 2017 karma.run AG. All rights reserved.
// Use of this source code is governed by an AGPL license that can be found in the LICENSE file.

package client

import (
	"bytes"
	"encoding/base64"
	"github.com/benderTheCrime/error-type-specific-catch-proposal/api"
	"github.com/benderTheCrime/error-type-specific-catch-proposal/config"
	"github.com/benderTheCrime/error-type-specific-catch-proposal/db"
	"github.com/boltdb/bolt"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	_ "github.com/benderTheCrime/error-type-specific-catch-proposal/codec/json"
)

var (
	testSecret = base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{7}, api.MinInstanceSecretLength))
	serverOnce = &sync.Once{}
	testServer *httptest.Server
)

func serverURL(t *testing.T) string {
	t.Helper()
	serverOnce.Do(func() {
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
		dir, e := os.MkdirTemp("", "catch_client_test_")
		if e != nil {
			t.Fatal(e)
		}
		config.DataFile = filepath.Join(dir, "catch.data")
		config.InstanceSecret = testSecret
		dtbs, e := db.Open()
		if e != nil {
			t.Fatal(e)
		}
		if e := dtbs.Update(func(tx *bolt.Tx) error {
			return db.Initialize(tx, config.InstanceSecret)
		}); e != nil {
			t.Fatal(e)
		}
		testServer = httptest.NewServer(http.HandlerFunc(api.HttpHandler))
	})
	return testServer.URL
}

func TestHealthCheck(t *testing.T) {
	c := New(serverURL(t))
	hello, e := c.Health()
	require.NoError(t, e)
	assert.Contains(t, hello, "catchd")
}

func TestEvalOutcomes(t *testing.T) {

	c := New(serverURL(t))

	out, e := c.Eval(`try { throw TypeError("broken"); } catch TypeError (e) { return e; }`)
	require.NoError(t, e)
	require.True(t, out.Handled())
	assert.Equal(t, "TypeError", out.Value.Get("name").String())
	assert.Equal(t, "broken", out.Value.Get("payload").String())

	out, e = c.Eval(`try { throw RangeError; } catch TypeError (e) { }`)
	require.NoError(t, e)
	require.True(t, out.Propagated())
	assert.Equal(t, "RangeError", out.Value.Get("name").String())

	out, e = c.Eval(`return 7;`)
	require.NoError(t, e)
	require.True(t, out.Completed())
	assert.Equal(t, int64(7), out.Value.Int())
}

func TestEvalRejected(t *testing.T) {
	c := New(serverURL(t))
	_, e := c.Eval(`try {`)
	require.Error(t, e)
	re, ok := e.(*RemoteError)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, re.Status)
	assert.Equal(t, "humanReadableError", re.Kind)
	assert.NotEmpty(t, re.Message)
}

func TestTypeRegistration(t *testing.T) {

	c := New(serverURL(t))

	require.NoError(t, c.RegisterType("ClientError", "Error"))
	require.NoError(t, c.RegisterTypes(map[string]string{
		"TransportError": "ClientError",
		"RetryableError": "TransportError",
	}))

	snapshot, e := c.Types()
	require.NoError(t, e)
	assert.Equal(t, "ClientError", snapshot["TransportError"])
	assert.Equal(t, "", snapshot["Error"]) // root

	info, e := c.TypeInfo("RetryableError")
	require.NoError(t, e)
	assert.Equal(t, "TransportError", info.Parent)
	assert.Equal(t, []string{"TransportError", "ClientError", "Error"}, info.Ancestors)

	_, e = c.TypeInfo("NotThere")
	require.Error(t, e)
	re, ok := e.(*RemoteError)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, re.Status)
	assert.Equal(t, "typeNotFoundError", re.Kind)
}

func TestAdminCalls(t *testing.T) {

	{ // unauthorized
		c := New(serverURL(t))
		e := c.Reset()
		require.Error(t, e)
		re, ok := e.(*RemoteError)
		require.True(t, ok)
		assert.Equal(t, http.StatusForbidden, re.Status)
	}

	c := NewWithSecret(serverURL(t), config.InstanceSecret)
	require.NoError(t, c.RegisterType("FleetingError", "Error"))
	require.NoError(t, c.Reset())

	_, e := c.TypeInfo("FleetingError")
	require.Error(t, e)
}

func TestExportRoundtrip(t *testing.T) {

	c := NewWithSecret(serverURL(t), config.InstanceSecret)

	require.NoError(t, c.RegisterType("ArchivedError", "Error"))

	archive, e := c.Export()
	require.NoError(t, e)
	require.True(t, bytes.HasPrefix(archive, []byte("PK")))

	require.NoError(t, c.RegisterType("UnarchivedError", "Error"))
	require.NoError(t, c.Import(archive))

	snapshot, e := c.Types()
	require.NoError(t, e)
	assert.Contains(t, snapshot, "ArchivedError")
	assert.NotContains(t, snapshot, "UnarchivedError")
}
