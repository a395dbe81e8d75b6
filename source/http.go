// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package source

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
)

const (
	DefaultURL = "http://127.0.0.1:8083/"

	// Boundary is the multipart boundary of compile requests.
	Boundary = "--aardvark"

	// ResponseFunction is the server function compiling the active sequence.
	ResponseFunction = "compile_active_xtsm"
)

// HTTP fetches the active sequence from a sequence server.
type HTTP struct {
	URL    string
	Client *http.Client
}

func NewHTTP(url string) *HTTP {
	if url == "" {
		url = DefaultURL
	}
	return &HTTP{URL: url, Client: http.DefaultClient}
}

// Request builds the multipart body of a compile request.
func Request() (body []byte, ctype string, err error) {
	buf := new(bytes.Buffer)
	w := multipart.NewWriter(buf)
	err = w.SetBoundary(Boundary)
	if err != nil {
		return nil, "", fmt.Errorf("source: could not set multipart boundary: %w", err)
	}
	for _, field := range [][2]string{
		{"IDLSocket_ResponseFunction", ResponseFunction},
		{"terminator", "die"},
	} {
		err = w.WriteField(field[0], field[1])
		if err != nil {
			return nil, "", fmt.Errorf("source: could not write field %q: %w", field[0], err)
		}
	}
	err = w.Close()
	if err != nil {
		return nil, "", fmt.Errorf("source: could not close multipart body: %w", err)
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

// Fetch posts a compile request and returns the payload sent back.
func (src *HTTP) Fetch(ctx context.Context) ([]byte, error) {
	body, ctype, err := Request()
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, src.URL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("source: could not create request: %w", err)
	}
	req.Header.Set("Content-Type", ctype)
	req.Header.Set("Accept", "*/*")

	cli := src.Client
	if cli == nil {
		cli = http.DefaultClient
	}

	resp, err := cli.Do(req)
	if err != nil {
		return nil, fmt.Errorf("source: could not send compile request to %q: %w", src.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("source: invalid status %q from %q: %s",
			resp.Status, src.URL, bytes.TrimSpace(msg),
		)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("source: could not read payload from %q: %w", src.URL, err)
	}
	return raw, nil
}
