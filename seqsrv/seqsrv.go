// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package seqsrv serves compiled timing sequences over HTTP, answering
// the compile requests of the emulator like the sequence server of
// the experiment does.
package seqsrv // import "github.com/go-lpc/tsemu/seqsrv"

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/go-lpc/tsemu/internal/crc16"
	"github.com/go-lpc/tsemu/tsformat"
)

// ResponseFunction is the request field value asking for the compiled
// active sequence.
const ResponseFunction = "compile_active_xtsm"

// Store persists sequences.
type Store interface {
	Store(ctx context.Context, name string, payload []byte) error
}

// Server serves the active timing sequence.
type Server struct {
	msg   *log.Logger
	store Store

	mu     sync.RWMutex
	name   string
	active []byte
}

// New creates a sequence server with an optional store where every
// new active sequence is persisted.
func New(msg *log.Logger, store Store) *Server {
	if msg == nil {
		msg = log.New(io.Discard, "seqsrv: ", 0)
	}
	return &Server{msg: msg, store: store}
}

// SetActive replaces the active sequence.
func (srv *Server) SetActive(name string, payload []byte) error {
	_, err := tsformat.Parse(payload)
	if err != nil {
		return fmt.Errorf("seqsrv: invalid sequence %q: %w", name, err)
	}

	srv.mu.Lock()
	srv.name = name
	srv.active = append([]byte(nil), payload...)
	srv.mu.Unlock()

	srv.msg.Printf("active sequence: %q (%d bytes, crc=0x%04x)", name, len(payload), crc16.Checksum(payload))
	return nil
}

// Active returns the active sequence.
func (srv *Server) Active() (string, []byte) {
	srv.mu.RLock()
	defer srv.mu.RUnlock()
	return srv.name, srv.active
}

// Handler returns the HTTP handler of the server.
func (srv *Server) Handler() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery())

	r.POST("/", srv.compile)
	r.GET("/healthz", srv.health)
	r.PUT("/active", srv.upload)

	return r
}

func (srv *Server) compile(c *gin.Context) {
	fct := c.PostForm("IDLSocket_ResponseFunction")
	if fct != ResponseFunction {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf("unknown response function %q", fct),
		})
		return
	}

	name, raw := srv.Active()
	if raw == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no active sequence"})
		return
	}

	srv.msg.Printf("serving sequence %q to %s", name, c.ClientIP())
	c.Data(http.StatusOK, "application/octet-stream", raw)
}

func (srv *Server) health(c *gin.Context) {
	name, raw := srv.Active()
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"active": name,
		"size":   len(raw),
		"crc":    fmt.Sprintf("0x%04x", crc16.Checksum(raw)),
	})
}

func (srv *Server) upload(c *gin.Context) {
	name := c.DefaultQuery("name", "active")
	raw, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read request body"})
		return
	}

	_, err = tsformat.Parse(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if srv.store != nil {
		err = srv.store.Store(c.Request.Context(), name, raw)
		if err != nil {
			srv.msg.Printf("could not persist sequence %q: %+v", name, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
	}

	err = srv.SetActive(name, raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"name": name,
		"size": len(raw),
		"crc":  fmt.Sprintf("0x%04x", crc16.Checksum(raw)),
	})
}
