// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command ts-shell steps through the emulation of a timing sequence,
// pulse by pulse.
//
// Usage: ts-shell [OPTIONS] SOURCE
//
// Example:
//
//	$> ts-shell ./testdata/seq.bin
//	ts> next 2
//	pulse=1 tick=2 time=2.000 ms sync=[1 0 0 0 0 0 0 0]
//	pulse=2 tick=4 time=4.000 ms sync=[1 0 0 0 0 0 0 0]
//	ts> show DO:00
//	DO:00 = 1
//	ts> quit
package main // import "github.com/go-lpc/tsemu/cmd/ts-shell"

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-lpc/tsemu/emu"
	"github.com/go-lpc/tsemu/source"
	"github.com/peterh/liner"
)

const usage = `ts-shell steps through the emulation of a timing sequence, pulse by pulse.

Usage: ts-shell [OPTIONS] SOURCE

SOURCE is a sequence server URL or a payload file.

Options:
`

func main() {
	log.SetPrefix("ts-shell: ")
	log.SetFlags(0)

	var (
		cfg  = flag.String("cfg", "", "path to a YAML emulator configuration")
		tout = flag.Duration("timeout", 10*time.Second, "timeout for fetching the sequence")
		hist = flag.String("history", filepath.Join(os.TempDir(), ".ts-shell.history"), "path to the history file")
	)

	flag.Usage = func() {
		fmt.Print(usage)
		flag.PrintDefaults()
	}

	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		log.Fatalf("missing sequence source")
	}

	sh, err := newShell(context.Background(), flag.Arg(0), *cfg, *tout)
	if err != nil {
		log.Fatalf("could not create shell: %+v", err)
	}

	err = sh.loop(os.Stdout, *hist)
	if err != nil {
		log.Fatalf("%+v", err)
	}
}

type shell struct {
	ctx  context.Context
	emu  *emu.Emulator
	seq  *emu.Sequencer
	cur  emu.Pulse
	n    int
	cmds map[string]command
}

type command struct {
	help string
	run  func(w io.Writer, args []string) error
}

var errQuit = errors.New("quit")

func newShell(ctx context.Context, uri, cfg string, timeout time.Duration) (*shell, error) {
	src, err := source.Open(uri)
	if err != nil {
		return nil, fmt.Errorf("could not open sequence source: %w", err)
	}

	raw, err := source.Fetch(ctx, src, timeout)
	if err != nil {
		return nil, fmt.Errorf("could not fetch sequence: %w", err)
	}

	var opts []emu.Option
	if cfg != "" {
		c, err := emu.LoadConfig(cfg)
		if err != nil {
			return nil, fmt.Errorf("could not load emulator configuration: %w", err)
		}
		opts = c.Options()
	}

	return load(ctx, raw, opts...)
}

func load(ctx context.Context, raw []byte, opts ...emu.Option) (*shell, error) {
	opts = append([]emu.Option{emu.WithLogger(log.New(io.Discard, "", 0))}, opts...)
	dev := emu.New(opts...)
	err := dev.Load(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("could not load sequence: %w", err)
	}

	seq, err := dev.Sequencer()
	if err != nil {
		return nil, fmt.Errorf("could not create sequencer: %w", err)
	}

	sh := &shell{ctx: ctx, emu: dev, seq: seq}
	sh.cmds = map[string]command{
		"next":   {"next [N]          advance by N pulses (default: 1)", sh.next},
		"run":    {"run               advance until the end of the sequence", sh.run},
		"show":   {"show [LABEL...]   display the values of the current pulse", sh.show},
		"groups": {"groups            list the loaded timing groups", sh.groups},
		"diag":   {"diag              list the diagnostics", sh.diag},
		"help":   {"help              display this help message", sh.help},
		"quit":   {"quit              exit the shell", sh.quit},
	}
	return sh, nil
}

func (sh *shell) loop(w io.Writer, hist string) error {
	term := liner.NewLiner()
	defer term.Close()

	term.SetCtrlCAborts(true)
	term.SetCompleter(sh.complete)

	if f, err := os.Open(hist); err == nil {
		_, _ = term.ReadHistory(f)
		f.Close()
	}
	defer func() {
		f, err := os.Create(hist)
		if err != nil {
			log.Printf("could not save history: %+v", err)
			return
		}
		defer f.Close()
		_, _ = term.WriteHistory(f)
	}()

	for {
		line, err := term.Prompt("ts> ")
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("could not read command: %w", err)
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		term.AppendHistory(line)

		err = sh.exec(w, line)
		switch {
		case errors.Is(err, errQuit):
			return nil
		case err != nil:
			fmt.Fprintf(w, "error: %v\n", err)
		}
	}
}

func (sh *shell) complete(line string) []string {
	var o []string
	for name := range sh.cmds {
		if strings.HasPrefix(name, line) {
			o = append(o, name)
		}
	}
	sort.Strings(o)
	return o
}

func (sh *shell) exec(w io.Writer, line string) error {
	toks := strings.Fields(line)
	if len(toks) == 0 {
		return nil
	}
	cmd, ok := sh.cmds[toks[0]]
	if !ok {
		return fmt.Errorf("unknown command %q (try \"help\")", toks[0])
	}
	return cmd.run(w, toks[1:])
}

func (sh *shell) step(w io.Writer) (bool, error) {
	p, ok, err := sh.seq.Next(sh.ctx)
	if err != nil || !ok {
		return false, err
	}
	sh.cur = p
	sh.n++
	fmt.Fprintf(w, "pulse=%d tick=%d time=%.3f ms sync=%v\n", sh.n, p.Tick, p.Time, p.Sync)
	return true, nil
}

func (sh *shell) next(w io.Writer, args []string) error {
	n := 1
	if len(args) > 0 {
		v, err := strconv.Atoi(args[0])
		if err != nil || v < 1 {
			return fmt.Errorf("invalid number of pulses %q", args[0])
		}
		n = v
	}
	for i := 0; i < n; i++ {
		ok, err := sh.step(w)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintf(w, "end of sequence (pulses=%d)\n", sh.n)
			return nil
		}
	}
	return nil
}

func (sh *shell) run(w io.Writer, args []string) error {
	for {
		ok, err := sh.step(w)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintf(w, "end of sequence (pulses=%d)\n", sh.n)
			return nil
		}
	}
}

func (sh *shell) show(w io.Writer, args []string) error {
	if sh.n == 0 {
		return fmt.Errorf("no pulse yet")
	}
	labels := sh.seq.Labels()
	if len(args) == 0 {
		for i, name := range labels {
			if i < len(sh.cur.Values) && sh.cur.Values[i] != 0 {
				fmt.Fprintf(w, "%s = %g\n", name, sh.cur.Values[i])
			}
		}
		return nil
	}
	for _, arg := range args {
		i := index(labels, arg)
		if i < 0 || i >= len(sh.cur.Values) {
			return fmt.Errorf("unknown label %q", arg)
		}
		fmt.Fprintf(w, "%s = %g\n", arg, sh.cur.Values[i])
	}
	return nil
}

func index(labels []string, name string) int {
	for i, v := range labels {
		if v == name {
			return i
		}
	}
	return -1
}

func (sh *shell) groups(w io.Writer, args []string) error {
	for i, grp := range sh.emu.Groups() {
		hdr := grp.Header
		fmt.Fprintf(w, "[%d] %q kind=%v clock=%q freq=%d\n", i, hdr.Name, hdr.Kind, hdr.Clock, hdr.ClockFreq)
	}
	return nil
}

func (sh *shell) diag(w io.Writer, args []string) error {
	for _, err := range sh.emu.Diagnostics() {
		fmt.Fprintf(w, "- %v\n", err)
	}
	return nil
}

func (sh *shell) help(w io.Writer, args []string) error {
	names := make([]string, 0, len(sh.cmds))
	for name := range sh.cmds {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %s\n", sh.cmds[name].help)
	}
	return nil
}

func (sh *shell) quit(w io.Writer, args []string) error {
	return errQuit
}
