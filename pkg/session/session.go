// Copyright (c) ItsLJcool
// SPDX-License-Identifier: Apache-2.0

// Package session holds per-connection server state.
package session

import (
	"sync"

	"github.com/ItsLJcool/cne-online/pkg/frame"
)

// Conn is the transport capability a session writes through. Implemented
// by the WebSocket server; tests supply their own.
type Conn interface {
	// Send writes one outbound frame.
	Send(data []byte) error

	// Close tears down the underlying connection.
	Close() error

	// RemoteAddr is the client's network address.
	RemoteAddr() string
}

// Session is the server-side state for one live connection. It is created
// when the transport accepts a connection and destroyed when it closes.
// Endpoints receive a reference, never ownership: the transport layer owns
// the session lifetime.
//
// The transport may run handlers for different connections on different
// goroutines, so the mutable fields are mutex-guarded.
type Session struct {
	// ID is an opaque unique token assigned at accept time.
	ID string

	conn Conn

	mu            sync.RWMutex
	authenticated bool
	metadata      map[string]any
}

// New creates a session bound to the given transport connection.
func New(id string, conn Conn) *Session {
	return &Session{
		ID:       id,
		conn:     conn,
		metadata: make(map[string]any),
	}
}

// Authenticated reports whether the session has logged in.
func (s *Session) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.authenticated
}

// SetAuthenticated updates the authentication flag.
func (s *Session) SetAuthenticated(v bool) {
	s.mu.Lock()
	s.authenticated = v
	s.mu.Unlock()
}

// Meta returns a metadata value.
func (s *Session) Meta(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.metadata[key]
	return v, ok
}

// SetMeta stores a metadata value.
func (s *Session) SetMeta(key string, value any) {
	s.mu.Lock()
	s.metadata[key] = value
	s.mu.Unlock()
}

// DeleteMeta removes a metadata value.
func (s *Session) DeleteMeta(key string) {
	s.mu.Lock()
	delete(s.metadata, key)
	s.mu.Unlock()
}

// Send writes raw bytes to the client.
func (s *Session) Send(data []byte) error {
	return s.conn.Send(data)
}

// Reply serializes a response envelope and sends it to the client.
func (s *Session) Reply(resp *frame.Response) error {
	return s.conn.Send(resp.Bytes())
}

// Close tears down the transport connection.
func (s *Session) Close() error {
	return s.conn.Close()
}

// RemoteAddr is the client's network address.
func (s *Session) RemoteAddr() string {
	return s.conn.RemoteAddr()
}
