// Copyright (c) ItsLJcool
// SPDX-License-Identifier: Apache-2.0

package rooms

import (
	"encoding/binary"
	"errors"
	"strings"
	"testing"

	"github.com/ItsLJcool/cne-online/pkg/broker"
	cneerrors "github.com/ItsLJcool/cne-online/pkg/errors"
	"github.com/ItsLJcool/cne-online/pkg/frame"
	"github.com/ItsLJcool/cne-online/pkg/session"
)

type fakeConn struct {
	sent [][]byte
}

func (c *fakeConn) Send(data []byte) error {
	c.sent = append(c.sent, data)
	return nil
}

func (c *fakeConn) Close() error       { return nil }
func (c *fakeConn) RemoteAddr() string { return "127.0.0.1:1234" }

// envelopeStatus reads the status field of a serialized response.
func envelopeStatus(t *testing.T, buf []byte) uint32 {
	t.Helper()
	if len(buf) < 4 {
		t.Fatalf("envelope too short: %d bytes", len(buf))
	}
	return binary.LittleEndian.Uint32(buf[0:4])
}

// envelopeBody extracts the body of a serialized response.
func envelopeBody(t *testing.T, buf []byte) string {
	t.Helper()
	if len(buf) < 8 {
		t.Fatalf("envelope too short: %d bytes", len(buf))
	}
	hlen := binary.LittleEndian.Uint32(buf[4:8])
	rest := buf[8+hlen:]
	blen := binary.LittleEndian.Uint32(rest[1:5])
	return string(rest[5 : 5+blen])
}

func newTestRegistry() *Registry {
	return NewRegistry(broker.New(nil), nil, nil)
}

func newMember(id string) (*session.Session, *fakeConn) {
	c := &fakeConn{}
	return session.New(id, c), c
}

func TestRegistryHasDefaultRoom(t *testing.T) {
	reg := newTestRegistry()

	room, ok := reg.Get(DefaultRoom)
	if !ok {
		t.Fatal("default room missing")
	}
	if room.MemberCount() != 0 {
		t.Errorf("default room members = %d, want 0", room.MemberCount())
	}
	if room.Private {
		t.Error("default room should be public")
	}
}

func TestCreateDuplicateName(t *testing.T) {
	reg := newTestRegistry()

	if _, err := reg.Create("Lobby", nil, false); err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	_, err := reg.Create("Lobby", nil, true)
	if !errors.Is(err, cneerrors.ErrRoomExists) {
		t.Errorf("Create(duplicate) = %v, want ErrRoomExists", err)
	}
	if reg.Len() != 2 { // default + Lobby
		t.Errorf("Len() = %d, want 2", reg.Len())
	}
}

func TestCreateWithOwnerAddsMember(t *testing.T) {
	reg := newTestRegistry()
	owner, _ := newMember("owner")

	room, err := reg.Create("Lobby", owner, false)
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if !room.IsMember(owner) {
		t.Error("owner not a member of the created room")
	}
	if got, ok := reg.FindByOwner(owner); !ok || got != room {
		t.Error("FindByOwner did not return the created room")
	}
}

func TestAddMemberJoinNotification(t *testing.T) {
	reg := newTestRegistry()
	room, _ := reg.Create("Lobby", nil, false)

	first, firstConn := newMember("first")
	second, secondConn := newMember("second")

	reg.AddMember(room, first)
	// The joiner is subscribed after the broadcast, so it never sees its
	// own join notice.
	if len(firstConn.sent) != 0 {
		t.Fatalf("first member received %d frames on its own join", len(firstConn.sent))
	}

	reg.AddMember(room, second)
	if len(firstConn.sent) != 1 {
		t.Fatalf("first member received %d frames, want 1 join notice", len(firstConn.sent))
	}
	if body := envelopeBody(t, firstConn.sent[0]); body != "User Joined Room" {
		t.Errorf("notice body = %q", body)
	}
	if len(secondConn.sent) != 0 {
		t.Error("second member saw its own join notice")
	}
}

func TestAddMemberIdempotent(t *testing.T) {
	reg := newTestRegistry()
	room, _ := reg.Create("Lobby", nil, false)

	a, _ := newMember("a")
	b, bConn := newMember("b")

	reg.AddMember(room, b)
	reg.AddMember(room, a)
	reg.AddMember(room, a)

	if room.MemberCount() != 2 {
		t.Errorf("MemberCount() = %d, want 2", room.MemberCount())
	}
	if len(bConn.sent) != 1 {
		t.Errorf("b received %d notices, want 1 (no duplicate join broadcast)", len(bConn.sent))
	}
}

func TestRemoveMemberNotifiesAndDisbands(t *testing.T) {
	reg := newTestRegistry()
	room, _ := reg.Create("Lobby", nil, false)

	a, _ := newMember("a")
	b, bConn := newMember("b")
	reg.AddMember(room, b)
	reg.AddMember(room, a)

	reg.RemoveMember(room, a)
	// b saw a's join and a's leave.
	if len(bConn.sent) != 2 {
		t.Fatalf("b received %d frames, want 2", len(bConn.sent))
	}
	if body := envelopeBody(t, bConn.sent[1]); body != "User Left Room" {
		t.Errorf("notice body = %q", body)
	}

	reg.RemoveMember(room, b)
	if _, ok := reg.Get("Lobby"); ok {
		t.Error("emptied room should disband")
	}
}

func TestRemoveMemberNotAMember(t *testing.T) {
	reg := newTestRegistry()
	room, _ := reg.Create("Lobby", nil, false)
	stranger, _ := newMember("stranger")

	reg.RemoveMember(room, stranger)
	if _, ok := reg.Get("Lobby"); !ok {
		t.Error("removing a non-member must not disband the room")
	}
}

func TestRemoveSessionSweepsAllRooms(t *testing.T) {
	reg := newTestRegistry()
	r1, _ := reg.Create("One", nil, false)
	r2, _ := reg.Create("Two", nil, false)

	s, _ := newMember("s")
	keep, _ := newMember("keep")
	reg.AddMember(r1, s)
	reg.AddMember(r1, keep)
	reg.AddMember(r2, s)

	reg.RemoveSession(s)

	if r1.IsMember(s) || r2.IsMember(s) {
		t.Error("session still a member after RemoveSession")
	}
	if _, ok := reg.Get("One"); !ok {
		t.Error("room One should survive, it still has a member")
	}
	if _, ok := reg.Get("Two"); ok {
		t.Error("room Two should disband, it was emptied")
	}
}

func TestBroadcastStampsRoomHeaders(t *testing.T) {
	reg := newTestRegistry()
	room, _ := reg.Create("Secret", nil, true)

	member, _ := newMember("m")
	reg.AddMember(room, member)

	listener, listenerConn := newMember("l")
	reg.AddMember(room, listener)

	n := reg.Broadcast(room, frame.NewResponse(200, "ping"))
	if n != 2 {
		t.Errorf("Broadcast() = %d, want 2", n)
	}

	buf := listenerConn.sent[len(listenerConn.sent)-1]
	if status := envelopeStatus(t, buf); status != 200 {
		t.Errorf("status = %d, want 200", status)
	}
	headers := string(buf)
	for _, want := range []string{"Endpoint: /rooms", "Room: Secret", "Is-Private: true"} {
		if !strings.Contains(headers, want) {
			t.Errorf("broadcast missing header %q", want)
		}
	}
}

func TestInviteClearedOnJoin(t *testing.T) {
	reg := newTestRegistry()
	room, _ := reg.Create("Secret", nil, true)

	guest, _ := newMember("guest")
	reg.Invite(room, guest.ID)
	if !room.Invited(guest.ID) {
		t.Fatal("invite not recorded")
	}

	reg.AddMember(room, guest)
	if room.Invited(guest.ID) {
		t.Error("invite should clear once the guest joins")
	}
}
