// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command ts-srv serves compiled timing sequences to emulators.
package main // import "github.com/go-lpc/tsemu/cmd/ts-srv"

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-lpc/tsemu/seqdb"
	"github.com/go-lpc/tsemu/seqsrv"
)

func main() {
	log.SetPrefix("ts-srv: ")
	log.SetFlags(0)

	var (
		addr = flag.String("addr", ":8083", "[ip]:port to listen on")
		seq  = flag.String("seq", "", "payload file of the initial active sequence")
		db   = flag.String("db", "", "name of the sequence store (loads the last sequence, persists uploads)")
	)

	flag.Parse()

	run(*addr, *seq, *db)
}

func run(addr, fname, dbname string) {
	gin.SetMode(gin.ReleaseMode)

	var (
		store seqsrv.Store
		last  *seqdb.Sequence
	)
	if dbname != "" {
		db, err := seqdb.Open(dbname)
		if err != nil {
			log.Fatalf("could not open sequence store: %+v", err)
		}
		defer db.Close()
		store = db

		seq, err := db.LastSequence(context.Background())
		if err != nil {
			log.Printf("could not load last sequence from store: %+v", err)
		} else {
			last = &seq
		}
	}

	srv, err := newServer(fname, store)
	if err != nil {
		log.Fatalf("could not create server: %+v", err)
	}

	if fname == "" && last != nil {
		err = srv.SetActive(last.Name, last.Payload)
		if err != nil {
			log.Fatalf("could not activate sequence %q: %+v", last.Name, err)
		}
	}

	serve(addr, srv)
}

func newServer(fname string, store seqsrv.Store) (*seqsrv.Server, error) {
	srv := seqsrv.New(log.New(os.Stdout, "seqsrv: ", 0), store)
	if fname == "" {
		return srv, nil
	}

	raw, err := os.ReadFile(fname)
	if err != nil {
		return nil, fmt.Errorf("could not read sequence file: %w", err)
	}

	name := strings.TrimSuffix(filepath.Base(fname), filepath.Ext(fname))
	err = srv.SetActive(name, raw)
	if err != nil {
		return nil, fmt.Errorf("could not activate sequence %q: %w", name, err)
	}
	return srv, nil
}

func serve(addr string, srv *seqsrv.Server) {
	log.Printf("serving sequences on %q...", addr)
	err := http.ListenAndServe(addr, srv.Handler())
	if err != nil {
		log.Fatalf("could not serve sequences: %+v", err)
	}
}
