// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command ts-sql manages the timing-sequence store.
//
// Usage: ts-sql [OPTIONS] COMMAND [ARGS...]
//
// Commands:
//
//	init              create the tables of the store
//	store NAME FILE   store the payload FILE under NAME
//	get NAME FILE     write the payload of NAME to FILE
//	list              list the stored sequences
//	runs NAME         list the emulation runs of NAME
package main // import "github.com/go-lpc/tsemu/cmd/ts-sql"

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/go-lpc/tsemu/internal/crc16"
	"github.com/go-lpc/tsemu/seqdb"
	"github.com/go-lpc/tsemu/tsformat"
)

const usage = `ts-sql manages the timing-sequence store.

Usage: ts-sql [OPTIONS] COMMAND [ARGS...]

Commands:

 init              create the tables of the store
 store NAME FILE   store the payload FILE under NAME
 get NAME FILE     write the payload of NAME to FILE
 list              list the stored sequences
 runs NAME         list the emulation runs of NAME

Options:
`

func main() {
	log.SetPrefix("ts-sql: ")
	log.SetFlags(0)

	dbname := flag.String("db", "tsemu", "name of the sequence store")

	flag.Usage = func() {
		fmt.Print(usage)
		flag.PrintDefaults()
	}

	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		log.Fatalf("missing command")
	}

	db, err := seqdb.Open(*dbname)
	if err != nil {
		log.Fatalf("could not open sequence store: %+v", err)
	}
	defer db.Close()

	err = doCmd(context.Background(), db, flag.Args())
	if err != nil {
		log.Fatalf("could not run %q: %+v", flag.Arg(0), err)
	}
}

func doCmd(ctx context.Context, db *seqdb.DB, args []string) error {
	nargs := map[string]int{
		"init":  0,
		"store": 2,
		"get":   2,
		"list":  0,
		"runs":  1,
	}
	n, ok := nargs[args[0]]
	if !ok {
		return fmt.Errorf("unknown command %q", args[0])
	}
	if len(args)-1 != n {
		return fmt.Errorf("invalid number of arguments for %q (got=%d, want=%d)", args[0], len(args)-1, n)
	}

	switch args[0] {
	case "init":
		return db.Init(ctx)

	case "store":
		name, fname := args[1], args[2]
		raw, err := os.ReadFile(fname)
		if err != nil {
			return fmt.Errorf("could not read payload: %w", err)
		}
		grps, err := tsformat.Parse(raw)
		if err != nil {
			return fmt.Errorf("could not decode payload %q: %w", fname, err)
		}
		err = db.Store(ctx, name, raw)
		if err != nil {
			return err
		}
		log.Printf("stored %q: %d groups, %d bytes, crc=0x%04x", name, len(grps), len(raw), crc16.Checksum(raw))

	case "get":
		name, fname := args[1], args[2]
		seq, err := db.Sequence(ctx, name)
		if err != nil {
			return err
		}
		err = os.WriteFile(fname, seq.Payload, 0644)
		if err != nil {
			return fmt.Errorf("could not write payload: %w", err)
		}
		log.Printf("retrieved %q: %d bytes, created %v", name, len(seq.Payload), seq.Created)

	case "list":
		seqs, err := db.Sequences(ctx)
		if err != nil {
			return err
		}
		log.Printf("sequences: %d", len(seqs))
		for _, seq := range seqs {
			log.Printf(">>> %-24q crc=0x%04x created=%v", seq.Name, seq.CRC, seq.Created)
		}

	case "runs":
		runs, err := db.Runs(ctx, args[1])
		if err != nil {
			return err
		}
		log.Printf("runs: %d", len(runs))
		for _, run := range runs {
			log.Printf(">>> run=%04d pulses=%d ticks=%d diagnostics=%d created=%v",
				run.ID, run.Pulses, run.Ticks, run.Diagnostics, run.Created,
			)
		}
	}

	return nil
}
