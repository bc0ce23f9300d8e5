// Copyright 2017 karma.run AG. All rights reserved.
// Use of this source code is governed by an AGPL license that can be found in the LICENSE file.
package main

import (
	"crypto/tls"
	"encoding/base64"
	"flag"
	"github.com/benderTheCrime/error-type-specific-catch-proposal/api"
	"github.com/benderTheCrime/error-type-specific-catch-proposal/config"
	"github.com/benderTheCrime/error-type-specific-catch-proposal/db"
	"github.com/boltdb/bolt"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/acme/autocert"
	"net/http"
	"strings"

	_ "github.com/benderTheCrime/error-type-specific-catch-proposal/codec/binary"
	_ "github.com/benderTheCrime/error-type-specific-catch-proposal/codec/json"
)

func main() {

	flag.Parse()

	{ // logging
		level, e := zerolog.ParseLevel(config.LogLevel)
		if e != nil {
			log.Fatal().Str("level", config.LogLevel).Msg("unknown log level (see --help)")
		}
		zerolog.SetGlobalLevel(level)
	}

	{ // instance secret sanity
		secret, e := base64.StdEncoding.DecodeString(config.InstanceSecret)
		if e != nil {
			log.Fatal().Msg("instance secret must be base64-encoded (see --help)")
		}
		if len(secret) < api.MinInstanceSecretLength {
			log.Fatal().Int("min", api.MinInstanceSecretLength).Msg("decoded instance secret too short")
		}
	}

	{ // init database if necessary
		dtbs, e := db.Open()
		if e != nil {
			log.Fatal().Err(e).Msg("failed opening data file")
		}
		e = dtbs.Update(func(tx *bolt.Tx) error {
			if tx.Bucket([]byte(`root`)) != nil {
				log.Info().Msg("data file already initialized")
				return nil
			}
			log.Info().Msg("initializing data file...")
			if e := db.Initialize(tx, config.InstanceSecret); e != nil {
				return e
			}
			log.Info().Msg("initialized data file")
			return nil
		})
		if e != nil {
			log.Fatal().Err(e).Msg("failed initializing data file")
		}
	}

	log.Info().Msg("starting catchd...")
	log.Info().Str("port", config.HttpPort).Msg("HTTP port")

	httpServer, httpsServer := (*http.Server)(nil), (*http.Server)(nil)

	httpServer = &http.Server{
		Addr:    ":" + config.HttpPort,
		Handler: http.HandlerFunc(api.HttpHandler),
	}

	httpsRedirectionHandler := http.HandlerFunc(func(rw http.ResponseWriter, rq *http.Request) {
		u := rq.URL
		u.Scheme = "https"
		u.Host = rq.Host
		http.Redirect(rw, rq, u.String(), http.StatusMovedPermanently)
	})

	httpsCertFile, httpsKeyFile := config.HttpsCertFile, config.HttpsKeyFile

	{ // LetsEncrypt support
		if (len(config.LetsencryptDomains) > 0 && len(config.LetsencryptEmail) == 0) || (len(config.LetsencryptDomains) == 0 && len(config.LetsencryptEmail) > 0) {
			log.Fatal().Msg("--letsencrypt-email and --letsencrypt-domains must be set together.")
		}

		if len(config.LetsencryptDomains) > 0 {
			domains := strings.Split(config.LetsencryptDomains, ",")
			log.Info().
				Str("port", config.HttpsPort).
				Strs("domains", domains).
				Str("email", config.LetsencryptEmail).
				Msg("HTTPS with LetsEncrypt")
			m := autocert.Manager{
				Prompt:     autocert.AcceptTOS,
				Cache:      (autocert.DirCache)(config.LetsencryptCacheDir),
				HostPolicy: autocert.HostWhitelist(domains...),
				Email:      config.LetsencryptEmail,
			}
			httpsServer = &http.Server{
				Addr:      ":" + config.HttpsPort,
				Handler:   http.HandlerFunc(api.HttpHandler),
				TLSConfig: &tls.Config{GetCertificate: m.GetCertificate},
			}
			httpServer.Handler = httpsRedirectionHandler
			httpsCertFile, httpsKeyFile = ``, ``
		}
	}

	{ // own TLS config support
		if (len(httpsCertFile) > 0 && len(httpsKeyFile) == 0) || (len(httpsCertFile) == 0 && len(httpsKeyFile) > 0) {
			log.Fatal().Msg("--https-cert-file and --https-key-file must be set together.")
		}

		if len(httpsCertFile) > 0 {
			httpsServer = &http.Server{
				Addr:    ":" + config.HttpsPort,
				Handler: http.HandlerFunc(api.HttpHandler),
			}
			httpServer.Handler = httpsRedirectionHandler
		}
	}

	go func() {
		if e := httpServer.ListenAndServe(); e != http.ErrServerClosed {
			log.Fatal().Err(e).Msg("HTTP server failed")
		}
	}()
	log.Info().Msg("HTTP server started")

	if httpsServer != nil {
		go func() {
			if e := httpsServer.ListenAndServeTLS(httpsCertFile, httpsKeyFile); e != http.ErrServerClosed {
				log.Fatal().Err(e).Msg("HTTPS server failed")
			}
		}()
		log.Info().Msg("HTTPS server started")
	}

	select {}

}
