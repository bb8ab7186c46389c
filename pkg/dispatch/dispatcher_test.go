// Copyright (c) ItsLJcool
// SPDX-License-Identifier: Apache-2.0

package dispatch

import (
	"context"
	"errors"
	"testing"

	cneerrors "github.com/ItsLJcool/cne-online/pkg/errors"
	"github.com/ItsLJcool/cne-online/pkg/frame"
	"github.com/ItsLJcool/cne-online/pkg/session"
)

type fakeConn struct{}

func (fakeConn) Send([]byte) error  { return nil }
func (fakeConn) Close() error       { return nil }
func (fakeConn) RemoteAddr() string { return "127.0.0.1:1234" }

// mockEndpoint scripts the Check and OnMessage results and counts calls.
type mockEndpoint struct {
	NoopEndpoint

	check   bool
	handled bool
	err     error

	connects int
	messages int
	closes   int
}

func (m *mockEndpoint) Check(s *session.Session) bool {
	return m.check
}

func (m *mockEndpoint) OnClientConnected(ctx context.Context, s *session.Session) error {
	m.connects++
	return nil
}

func (m *mockEndpoint) OnMessage(ctx context.Context, s *session.Session, msg frame.Message) (bool, error) {
	m.messages++
	return m.handled, m.err
}

func (m *mockEndpoint) OnClientClosed(ctx context.Context, s *session.Session) error {
	m.closes++
	return nil
}

func newTestSession(id string) *session.Session {
	return session.New(id, fakeConn{})
}

func TestRegisterAfterSeal(t *testing.T) {
	d := New(nil, nil)

	if err := d.Register(&mockEndpoint{check: true}); err != nil {
		t.Fatalf("Register() error: %v", err)
	}
	d.Seal()

	err := d.Register(&mockEndpoint{check: true})
	if !errors.Is(err, cneerrors.ErrRegistrySealed) {
		t.Errorf("Register() after Seal = %v, want ErrRegistrySealed", err)
	}
	if d.Endpoints() != 1 {
		t.Errorf("Endpoints() = %d, want 1", d.Endpoints())
	}
}

func TestRegisterNil(t *testing.T) {
	d := New(nil, nil)
	if err := d.Register(nil); err == nil {
		t.Error("Register(nil) = nil, want error")
	}
}

func TestHandleMessageFirstMatchWins(t *testing.T) {
	d := New(nil, nil)
	e1 := &mockEndpoint{check: true, handled: false}
	e2 := &mockEndpoint{check: true, handled: true}
	e3 := &mockEndpoint{check: true, handled: true}
	for _, e := range []*mockEndpoint{e1, e2, e3} {
		if err := d.Register(e); err != nil {
			t.Fatal(err)
		}
	}
	d.Seal()

	d.HandleMessage(context.Background(), newTestSession("s1"), []byte("payload"))

	if e1.messages != 1 {
		t.Errorf("e1 messages = %d, want 1", e1.messages)
	}
	if e2.messages != 1 {
		t.Errorf("e2 messages = %d, want 1", e2.messages)
	}
	if e3.messages != 0 {
		t.Errorf("e3 messages = %d, want 0 (claimed upstream)", e3.messages)
	}
}

func TestHandleMessageSkipsIneligible(t *testing.T) {
	d := New(nil, nil)
	e1 := &mockEndpoint{check: false, handled: true}
	e2 := &mockEndpoint{check: true, handled: true}
	if err := d.Register(e1); err != nil {
		t.Fatal(err)
	}
	if err := d.Register(e2); err != nil {
		t.Fatal(err)
	}
	d.Seal()

	d.HandleMessage(context.Background(), newTestSession("s1"), []byte("payload"))

	if e1.messages != 0 {
		t.Errorf("ineligible endpoint received message")
	}
	if e2.messages != 1 {
		t.Errorf("e2 messages = %d, want 1", e2.messages)
	}
}

func TestHandleMessageErrorStopsDispatch(t *testing.T) {
	d := New(nil, nil)
	e1 := &mockEndpoint{check: true, err: errors.New("boom")}
	e2 := &mockEndpoint{check: true, handled: true}
	if err := d.Register(e1); err != nil {
		t.Fatal(err)
	}
	if err := d.Register(e2); err != nil {
		t.Fatal(err)
	}
	d.Seal()

	d.HandleMessage(context.Background(), newTestSession("s1"), []byte("payload"))

	if e2.messages != 0 {
		t.Errorf("dispatch continued past a failing endpoint")
	}
}

func TestConnectAndCloseFanOut(t *testing.T) {
	d := New(nil, nil)
	e1 := &mockEndpoint{check: true}
	e2 := &mockEndpoint{check: true}
	if err := d.Register(e1); err != nil {
		t.Fatal(err)
	}
	if err := d.Register(e2); err != nil {
		t.Fatal(err)
	}
	d.Seal()

	s := newTestSession("s1")
	ctx := context.Background()

	d.HandleConnect(ctx, s)
	if e1.connects != 1 || e2.connects != 1 {
		t.Errorf("connects = %d, %d, want 1, 1", e1.connects, e2.connects)
	}
	if d.Connections() != 1 {
		t.Errorf("Connections() = %d, want 1", d.Connections())
	}

	d.HandleClose(ctx, s)
	if e1.closes != 1 || e2.closes != 1 {
		t.Errorf("closes = %d, %d, want 1, 1", e1.closes, e2.closes)
	}
	if d.Connections() != 0 {
		t.Errorf("Connections() = %d, want 0", d.Connections())
	}
}

func TestNoopEndpointDefaults(t *testing.T) {
	var e NoopEndpoint
	s := newTestSession("s1")
	ctx := context.Background()

	if !e.Check(s) {
		t.Error("NoopEndpoint.Check = false, want true")
	}
	handled, err := e.OnMessage(ctx, s, frame.Raw("x"))
	if handled || err != nil {
		t.Errorf("OnMessage = %v, %v, want false, nil", handled, err)
	}
	if err := e.OnClientConnected(ctx, s); err != nil {
		t.Errorf("OnClientConnected error: %v", err)
	}
	if err := e.OnClientClosed(ctx, s); err != nil {
		t.Errorf("OnClientClosed error: %v", err)
	}
}
