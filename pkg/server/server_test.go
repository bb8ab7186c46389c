// Copyright (c) ItsLJcool
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"context"
	"encoding/binary"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ItsLJcool/cne-online/pkg/dispatch"
	"github.com/ItsLJcool/cne-online/pkg/frame"
	"github.com/ItsLJcool/cne-online/pkg/session"
)

// echoEndpoint claims header frames and answers with a fixed envelope.
type echoEndpoint struct {
	dispatch.NoopEndpoint

	connects atomic.Int32
	closes   atomic.Int32
}

func (e *echoEndpoint) OnClientConnected(ctx context.Context, s *session.Session) error {
	e.connects.Add(1)
	return nil
}

func (e *echoEndpoint) OnMessage(ctx context.Context, s *session.Session, msg frame.Message) (bool, error) {
	hdr, ok := msg.(*frame.Header)
	if !ok {
		return false, nil
	}
	return true, s.Reply(frame.NewResponse(200, "pong").Set("Request", hdr.Request))
}

func (e *echoEndpoint) OnClientClosed(ctx context.Context, s *session.Session) error {
	e.closes.Add(1)
	return nil
}

func newTestServer(t *testing.T, cfg Config) (*Server, *echoEndpoint, *httptest.Server) {
	t.Helper()

	endpoint := &echoEndpoint{}
	d := dispatch.New(nil, nil)
	if err := d.Register(endpoint); err != nil {
		t.Fatal(err)
	}
	d.Seal()

	srv := New(cfg, d, nil)
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)
	return srv, endpoint, ts
}

func dial(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// eventually polls the condition until it holds or the deadline passes.
func eventually(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(msg)
}

func TestServerRoundTrip(t *testing.T) {
	_, endpoint, ts := newTestServer(t, Config{})
	conn := dial(t, ts)

	eventually(t, func() bool { return endpoint.connects.Load() == 1 },
		"connect event not delivered")

	req := frame.NewHeader("GET /user HTTP/1.0", "").Set("email", "a@b.com")
	if err := conn.WriteMessage(websocket.TextMessage, req.Bytes()); err != nil {
		t.Fatalf("write: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	mt, payload, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if mt != websocket.BinaryMessage {
		t.Errorf("message type = %d, want binary", mt)
	}
	if len(payload) < 4 {
		t.Fatalf("reply too short: %d bytes", len(payload))
	}
	if status := binary.LittleEndian.Uint32(payload[0:4]); status != 200 {
		t.Errorf("status = %d, want 200", status)
	}
}

func TestServerCloseEvent(t *testing.T) {
	_, endpoint, ts := newTestServer(t, Config{})
	conn := dial(t, ts)

	eventually(t, func() bool { return endpoint.connects.Load() == 1 },
		"connect event not delivered")

	conn.Close()

	eventually(t, func() bool { return endpoint.closes.Load() == 1 },
		"close event not delivered")
}

func TestServerRateLimitDropsFrames(t *testing.T) {
	_, _, ts := newTestServer(t, Config{RateCapacity: 1, RateRefill: 1})
	conn := dial(t, ts)

	req := frame.NewHeader("GET /user HTTP/1.0", "").Set("email", "a@b.com")
	// First frame passes, second exceeds the bucket.
	for i := 0; i < 2; i++ {
		if err := conn.WriteMessage(websocket.TextMessage, req.Bytes()); err != nil {
			t.Fatalf("write %d: %v", i, err)
		}
	}

	conn.SetReadDeadline(time.Now().Add(time.Second))
	if _, _, err := conn.ReadMessage(); err != nil {
		t.Fatalf("first frame should be answered: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(250 * time.Millisecond))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Error("rate-limited frame should produce no reply")
	}
}

func TestServerConcurrentConnections(t *testing.T) {
	_, endpoint, ts := newTestServer(t, Config{})

	const n = 5
	conns := make([]*websocket.Conn, 0, n)
	for i := 0; i < n; i++ {
		conns = append(conns, dial(t, ts))
	}

	eventually(t, func() bool { return endpoint.connects.Load() == n },
		"not all connect events delivered")

	for _, c := range conns {
		c.Close()
	}
	eventually(t, func() bool { return endpoint.closes.Load() == n },
		"not all close events delivered")
}
