// Copyright (c) ItsLJcool
// SPDX-License-Identifier: Apache-2.0

// Package rooms implements named broadcast groups of sessions with a
// publish/subscribe membership lifecycle.
package rooms

import (
	"log/slog"
	"strconv"
	"sync"

	"github.com/ItsLJcool/cne-online/pkg/broker"
	"github.com/ItsLJcool/cne-online/pkg/errors"
	"github.com/ItsLJcool/cne-online/pkg/frame"
	"github.com/ItsLJcool/cne-online/pkg/metrics"
	"github.com/ItsLJcool/cne-online/pkg/session"
)

// DefaultRoom is created at registry construction and exists from process
// start with zero members.
const DefaultRoom = "Global Chat Room"

const topicPrefix = "room_"

// Room is a named group of sessions. Membership is a non-owning
// association: the transport owns session lifetime, and a closing session
// is removed from its rooms by the rooms endpoint's close path.
type Room struct {
	Name    string
	Private bool

	owner *session.Session

	mu      sync.Mutex
	members map[*session.Session]struct{}
	invites map[string]struct{}
}

// Topic is the broadcast channel name for this room.
func (r *Room) Topic() string {
	return topicPrefix + r.Name
}

// Owner returns the owning session, if any.
func (r *Room) Owner() *session.Session {
	return r.owner
}

// MemberCount returns the current number of members.
func (r *Room) MemberCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.members)
}

// IsMember reports whether the session is a member.
func (r *Room) IsMember(s *session.Session) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.members[s]
	return ok
}

// Invited reports whether the session ID has a pending invite.
func (r *Room) Invited(sessionID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.invites[sessionID]
	return ok
}

// Info is a read-only summary of a room for listings.
type Info struct {
	Name    string
	Members int
	Private bool
}

// Registry indexes rooms by name and drives the membership lifecycle.
// Room lookups hold the registry lock; membership mutation serializes on
// the room's own lock, so concurrent joins to different rooms do not
// contend.
type Registry struct {
	mu     sync.RWMutex
	byName map[string]*Room

	broker  *broker.Broker
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewRegistry creates a registry holding the default room.
func NewRegistry(b *broker.Broker, logger *slog.Logger, m *metrics.Metrics) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	reg := &Registry{
		byName:  make(map[string]*Room),
		broker:  b,
		logger:  logger,
		metrics: m,
	}
	// The default room starts with zero members and is not subject to the
	// disband-on-empty rule until someone has joined and left it.
	if _, err := reg.Create(DefaultRoom, nil, false); err != nil {
		logger.Error("failed to create default room", slog.String("error", err.Error()))
	}
	return reg
}

// Create registers a new room. The name must be unique: creating over an
// existing name returns ErrRoomExists instead of silently replacing the
// room its members still broadcast through. If an owner is given, it is
// added as the first member.
func (reg *Registry) Create(name string, owner *session.Session, private bool) (*Room, error) {
	room := &Room{
		Name:    name,
		Private: private,
		owner:   owner,
		members: make(map[*session.Session]struct{}),
		invites: make(map[string]struct{}),
	}

	reg.mu.Lock()
	if _, ok := reg.byName[name]; ok {
		reg.mu.Unlock()
		return nil, errors.ErrRoomExists
	}
	reg.byName[name] = room
	reg.mu.Unlock()

	reg.metrics.RoomCreated()
	reg.logger.Info("room created",
		slog.String("room", name),
		slog.Bool("private", private))

	if owner != nil {
		reg.AddMember(room, owner)
	}
	return room, nil
}

// Get returns the room with the given name.
func (reg *Registry) Get(name string) (*Room, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	room, ok := reg.byName[name]
	return room, ok
}

// FindByOwner returns the room owned by the session, if any.
func (reg *Registry) FindByOwner(s *session.Session) (*Room, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	for _, room := range reg.byName {
		if room.owner == s {
			return room, true
		}
	}
	return nil, false
}

// List returns a snapshot of every registered room.
func (reg *Registry) List() []Info {
	reg.mu.RLock()
	rooms := make([]*Room, 0, len(reg.byName))
	for _, room := range reg.byName {
		rooms = append(rooms, room)
	}
	reg.mu.RUnlock()

	infos := make([]Info, 0, len(rooms))
	for _, room := range rooms {
		infos = append(infos, Info{
			Name:    room.Name,
			Members: room.MemberCount(),
			Private: room.Private,
		})
	}
	return infos
}

// Len returns the number of registered rooms.
func (reg *Registry) Len() int {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return len(reg.byName)
}

// AddMember adds the session to the room. Re-adding an existing member is
// a no-op and produces no duplicate notification. A join broadcasts a
// "User Joined Room" notification to the room's current subscribers, then
// subscribes the new member (so a session does not receive its own join
// notice) and clears any pending invite for it.
func (reg *Registry) AddMember(room *Room, s *session.Session) {
	room.mu.Lock()
	if _, ok := room.members[s]; ok {
		room.mu.Unlock()
		return
	}
	room.members[s] = struct{}{}
	delete(room.invites, s.ID)
	room.mu.Unlock()

	reg.Broadcast(room, frame.NewResponse(200, "User Joined Room").Set("User-UUID", s.ID))
	reg.broker.Subscribe(room.Topic(), s)

	reg.logger.Debug("member joined room",
		slog.String("room", room.Name),
		slog.String("session", s.ID))
}

// RemoveMember removes the session from the room, unsubscribes it and
// broadcasts a "User Left Room" notification to the remaining members.
// A room whose membership becomes empty is disbanded.
func (reg *Registry) RemoveMember(room *Room, s *session.Session) {
	room.mu.Lock()
	if _, ok := room.members[s]; !ok {
		room.mu.Unlock()
		return
	}
	delete(room.members, s)
	empty := len(room.members) == 0
	room.mu.Unlock()

	reg.broker.Unsubscribe(room.Topic(), s)
	reg.Broadcast(room, frame.NewResponse(200, "User Left Room").Set("User-UUID", s.ID))

	reg.logger.Debug("member left room",
		slog.String("room", room.Name),
		slog.String("session", s.ID))

	if empty {
		reg.Disband(room.Name)
	}
}

// RemoveSession removes the session from every room it belongs to. Run on
// the connection close path.
func (reg *Registry) RemoveSession(s *session.Session) {
	reg.mu.RLock()
	rooms := make([]*Room, 0, len(reg.byName))
	for _, room := range reg.byName {
		rooms = append(rooms, room)
	}
	reg.mu.RUnlock()

	for _, room := range rooms {
		if room.IsMember(s) {
			reg.RemoveMember(room, s)
		}
	}
}

// Broadcast stamps the envelope with the room's identity and privacy flag,
// then delivers it to every current subscriber of the room's topic.
// Returns the number of deliveries.
func (reg *Registry) Broadcast(room *Room, resp *frame.Response) int {
	resp.Set("Endpoint", "/rooms").
		Set("Room", room.Name).
		Set("Is-Private", strconv.FormatBool(room.Private))

	n := reg.broker.Publish(room.Topic(), resp.Bytes())
	reg.metrics.RoomBroadcast()
	return n
}

// Invite records a pending invite for the given session ID. The invite is
// cleared when that session joins.
func (reg *Registry) Invite(room *Room, sessionID string) {
	room.mu.Lock()
	room.invites[sessionID] = struct{}{}
	room.mu.Unlock()
}

// Disband removes the room from the registry, independent of membership
// count. Reports whether the room existed.
func (reg *Registry) Disband(name string) bool {
	reg.mu.Lock()
	_, ok := reg.byName[name]
	if ok {
		delete(reg.byName, name)
	}
	reg.mu.Unlock()

	if ok {
		reg.metrics.RoomDisbanded()
		reg.logger.Info("room disbanded", slog.String("room", name))
	}
	return ok
}
