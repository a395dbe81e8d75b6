// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-lpc/tsemu"
)

func TestHTTP(t *testing.T) {
	want := []byte{1, 2, 3, 4}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "invalid method", http.StatusMethodNotAllowed)
			return
		}
		_, params, err := mimeType(r)
		if err != nil || params["boundary"] != Boundary {
			http.Error(w, "invalid boundary", http.StatusBadRequest)
			return
		}
		if got := r.FormValue("IDLSocket_ResponseFunction"); got != ResponseFunction {
			http.Error(w, fmt.Sprintf("invalid response function %q", got), http.StatusBadRequest)
			return
		}
		if got := r.FormValue("terminator"); got != "die" {
			http.Error(w, "invalid terminator", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = w.Write(want)
	}))
	defer srv.Close()

	src, err := Open(srv.URL)
	if err != nil {
		t.Fatalf("could not open source: %+v", err)
	}

	got, err := Fetch(context.Background(), src, time.Second)
	if err != nil {
		t.Fatalf("could not fetch payload: %+v", err)
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("invalid payload: got=%v, want=%v", got, want)
	}
}

func TestHTTPErrors(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/slow":
			select {
			case <-block:
			case <-r.Context().Done():
			}
		default:
			http.Error(w, "no active sequence", http.StatusNotFound)
		}
	}))
	defer srv.Close()
	defer close(block)

	dead := httptest.NewServer(http.NotFoundHandler())
	deadURL := dead.URL
	dead.Close()

	for _, tc := range []struct {
		name    string
		url     string
		timeout time.Duration
		kind    error
	}{
		{name: "status", url: srv.URL + "/", kind: tsemu.ErrUnreachable},
		{name: "timeout", url: srv.URL + "/slow", timeout: 50 * time.Millisecond, kind: tsemu.ErrTimeout},
		{name: "refused", url: deadURL, kind: tsemu.ErrUnreachable},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Fetch(context.Background(), NewHTTP(tc.url), tc.timeout)
			if err == nil {
				t.Fatalf("expected an error")
			}
			if !errors.Is(err, tc.kind) {
				t.Fatalf("invalid error kind: got=%+v, want=%v", err, tc.kind)
			}
			var esvc *tsemu.ServiceError
			if !errors.As(err, &esvc) || esvc.Op != "fetch" {
				t.Fatalf("invalid service error: %+v", err)
			}
		})
	}
}

func TestFile(t *testing.T) {
	tmp, err := os.MkdirTemp("", "tsemu-source-")
	if err != nil {
		t.Fatalf("could not create tmp dir: %+v", err)
	}
	defer os.RemoveAll(tmp)

	want := []byte{2, 0, 0, 1}
	fname := filepath.Join(tmp, "seq.bin")
	err = os.WriteFile(fname, want, 0644)
	if err != nil {
		t.Fatalf("could not write payload: %+v", err)
	}

	for _, uri := range []string{fname, "file://" + fname} {
		src, err := Open(uri)
		if err != nil {
			t.Fatalf("could not open %q: %+v", uri, err)
		}
		got, err := Fetch(context.Background(), src, 0)
		if err != nil {
			t.Fatalf("could not fetch %q: %+v", uri, err)
		}
		if !bytes.Equal(got, want) {
			t.Fatalf("invalid payload: got=%v, want=%v", got, want)
		}
	}

	_, err = Fetch(context.Background(), File(filepath.Join(tmp, "missing.bin")), 0)
	if !errors.Is(err, tsemu.ErrUnreachable) {
		t.Fatalf("invalid error: %+v", err)
	}

	_, err = Open("")
	if err == nil {
		t.Fatalf("expected an error opening an empty URI")
	}
}

func TestFetchTimeout(t *testing.T) {
	src := Func(func(ctx context.Context) ([]byte, error) {
		time.Sleep(time.Second)
		return nil, nil
	})

	_, err := Fetch(context.Background(), WithTimeout(src, 10*time.Millisecond), 0)
	if !errors.Is(err, tsemu.ErrTimeout) {
		t.Fatalf("invalid error: %+v", err)
	}

	var esvc *tsemu.ServiceError
	if !errors.As(err, &esvc) {
		t.Fatalf("invalid error type: %T", err)
	}
	if inner := esvc.Err; errors.As(inner, new(*tsemu.ServiceError)) {
		t.Fatalf("service errors should not be wrapped twice: %+v", err)
	}
}

func mimeType(r *http.Request) (string, map[string]string, error) {
	return mime.ParseMediaType(r.Header.Get("Content-Type"))
}
