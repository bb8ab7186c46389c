// Copyright (c) ItsLJcool
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"sync"

	"github.com/gorilla/websocket"
)

// wsConn adapts a gorilla WebSocket connection to the session.Conn
// capability. Gorilla allows only one concurrent writer, and replies and
// room broadcasts can target the same connection from different
// goroutines, so writes are serialized with a mutex.
type wsConn struct {
	ws     *websocket.Conn
	remote string

	wio sync.Mutex
}

func newWSConn(ws *websocket.Conn) *wsConn {
	return &wsConn{
		ws:     ws,
		remote: ws.RemoteAddr().String(),
	}
}

// Send writes one outbound frame as a binary WebSocket message. The
// response envelope is a length-prefixed byte layout, so text framing
// would corrupt non-UTF-8 bodies.
func (c *wsConn) Send(data []byte) error {
	c.wio.Lock()
	defer c.wio.Unlock()
	return c.ws.WriteMessage(websocket.BinaryMessage, data)
}

// Close tears down the underlying WebSocket connection, unblocking any
// pending read.
func (c *wsConn) Close() error {
	return c.ws.Close()
}

// RemoteAddr is the client's network address, captured at accept time so
// it stays readable after close.
func (c *wsConn) RemoteAddr() string {
	return c.remote
}
