// Copyright (c) ItsLJcool
// SPDX-License-Identifier: Apache-2.0

package rooms

import (
	"context"
	"log/slog"
	"strings"

	"github.com/ItsLJcool/cne-online/pkg/dispatch"
	"github.com/ItsLJcool/cne-online/pkg/errors"
	"github.com/ItsLJcool/cne-online/pkg/frame"
	"github.com/ItsLJcool/cne-online/pkg/session"
)

// Version is the protocol version the rooms endpoint speaks. Requests
// carry it as the trailing /<version> segment of the request line's third
// token.
const Version = "1.0"

// Endpoint exposes room operations over the message protocol. Every
// operation requires an authenticated session.
type Endpoint struct {
	dispatch.NoopEndpoint

	registry *Registry
	logger   *slog.Logger
}

var _ dispatch.Endpoint = (*Endpoint)(nil)

// NewEndpoint creates the rooms endpoint.
func NewEndpoint(registry *Registry, logger *slog.Logger) *Endpoint {
	if logger == nil {
		logger = slog.Default()
	}
	return &Endpoint{
		registry: registry,
		logger:   logger,
	}
}

// Name identifies the endpoint in dispatcher logs.
func (e *Endpoint) Name() string {
	return "rooms"
}

// OnMessage handles room requests. Binary frames and unknown paths are
// left for other endpoints.
func (e *Endpoint) OnMessage(ctx context.Context, s *session.Session, msg frame.Message) (bool, error) {
	hdr, ok := msg.(*frame.Header)
	if !ok {
		return false, nil
	}

	fields := strings.Fields(hdr.Request)
	var method, path string
	if len(fields) > 0 {
		method = fields[0]
	}
	if len(fields) > 1 {
		path = fields[1]
	}

	if path == "" {
		return true, s.Reply(frame.NewResponse(400, "Missing Required Fields.\nSend valid Endpoint"))
	}

	switch method {
	case "GET":
		return e.get(ctx, s, path, fields)
	case "POST":
		return e.post(ctx, s, path, fields, hdr)
	default:
		return false, nil
	}
}

// OnClientClosed removes the closing session from every room it belongs
// to; emptied rooms disband.
func (e *Endpoint) OnClientClosed(ctx context.Context, s *session.Session) error {
	e.registry.RemoveSession(s)
	return nil
}

func (e *Endpoint) get(ctx context.Context, s *session.Session, path string, fields []string) (bool, error) {
	if requestVersion(fields) != Version {
		return true, s.Reply(frame.NewResponse(400, "Invalid Version.\nUse "+Version).
			Set("Content-Type", "application/text"))
	}
	if !s.Authenticated() {
		return true, s.Reply(frame.NewResponse(401, "Not Authorized.").
			Set("Content-Type", "application/text"))
	}

	switch path {
	case "/rooms/list":
		infos := e.registry.List()
		names := make([]string, 0, len(infos))
		for _, info := range infos {
			if info.Private {
				continue
			}
			names = append(names, info.Name)
		}
		resp := frame.NewResponse(200, "Rooms Found.").
			Set("Rooms", strings.Join(names, ","))
		return true, s.Reply(resp)
	default:
		return true, s.Reply(frame.NewResponse(501, "Not Implemented"))
	}
}

func (e *Endpoint) post(ctx context.Context, s *session.Session, path string, fields []string, hdr *frame.Header) (bool, error) {
	if requestVersion(fields) != Version {
		return true, s.Reply(frame.NewResponse(400, "Invalid Version.\nUse "+Version).
			Set("Content-Type", "application/text"))
	}
	if !s.Authenticated() {
		return true, s.Reply(frame.NewResponse(401, "Not Authorized.").
			Set("Content-Type", "application/text"))
	}

	name, hasName := hdr.Get("name")

	switch path {
	case "/rooms/create":
		if !hasName {
			return true, s.Reply(frame.NewResponse(400, "Missing Required Fields.\nSend valid name"))
		}
		private, _ := hdr.Get("is-private")
		if _, err := e.registry.Create(name, s, private == "true"); err != nil {
			if err == errors.ErrRoomExists {
				return true, s.Reply(frame.NewResponse(409, "Room Already Exists."))
			}
			return true, err
		}
		return true, nil

	case "/rooms/join":
		if !hasName {
			return true, s.Reply(frame.NewResponse(400, "Missing Required Fields.\nSend valid name"))
		}
		room, ok := e.registry.Get(name)
		if !ok {
			return true, s.Reply(frame.NewResponse(404, "Room Not Found"))
		}
		if room.Private && room.Owner() != s && !room.Invited(s.ID) {
			return true, s.Reply(frame.NewResponse(403, "Room is Private."))
		}
		e.registry.AddMember(room, s)
		return true, nil

	case "/rooms/leave":
		if !hasName {
			return true, s.Reply(frame.NewResponse(400, "Missing Required Fields.\nSend valid name"))
		}
		room, ok := e.registry.Get(name)
		if !ok {
			return true, s.Reply(frame.NewResponse(404, "Room Not Found"))
		}
		e.registry.RemoveMember(room, s)
		return true, nil

	case "/rooms/invite":
		room, ok := e.registry.FindByOwner(s)
		if !ok {
			return true, s.Reply(frame.NewResponse(404, "Room Not Found"))
		}
		target, hasTarget := hdr.Get("user-uuid")
		if !hasTarget {
			return true, s.Reply(frame.NewResponse(400, "Missing Required Fields.\nSend valid user-uuid"))
		}
		e.registry.Invite(room, target)
		return true, s.Reply(frame.NewResponse(200, "User Invited.").Set("Room", room.Name))

	default:
		return false, nil
	}
}

// requestVersion extracts the trailing /<version> segment of the request
// line's third token, e.g. "1.0" from "HTTP/1.0" or "Version/1.0".
func requestVersion(fields []string) string {
	if len(fields) < 3 {
		return ""
	}
	parts := strings.Split(fields[2], "/")
	return parts[len(parts)-1]
}
