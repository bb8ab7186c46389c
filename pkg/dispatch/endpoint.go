// Copyright (c) ItsLJcool
// SPDX-License-Identifier: Apache-2.0

package dispatch

import (
	"context"

	"github.com/ItsLJcool/cne-online/pkg/frame"
	"github.com/ItsLJcool/cne-online/pkg/session"
)

// Endpoint defines eligibility and reaction callbacks for connection
// events. Feature modules (accounts, rooms) implement this interface and
// register with the Dispatcher before the transport starts.
//
// Check gates every event: an endpoint whose Check rejects a session is
// skipped for that session's connect, message and close events. Embed
// NoopEndpoint to get the defaults (always eligible, never claims a
// message) and override what the feature needs.
type Endpoint interface {
	// Check is the eligibility predicate for a session.
	Check(s *session.Session) bool

	// OnMessage reacts to one classified frame. Returning true claims the
	// message and stops dispatch to later endpoints. An error is logged by
	// the dispatcher and also stops dispatch.
	OnMessage(ctx context.Context, s *session.Session, msg frame.Message) (bool, error)

	// OnClientConnected is a notification hook invoked after the transport
	// accepts a connection. Errors are logged but do not prevent delivery
	// to other endpoints.
	OnClientConnected(ctx context.Context, s *session.Session) error

	// OnClientClosed is a notification hook invoked when a connection
	// closes (gracefully or due to error). Errors are logged but do not
	// prevent delivery to other endpoints.
	OnClientClosed(ctx context.Context, s *session.Session) error
}

// NoopEndpoint is an Endpoint implementation that is eligible for every
// session and claims nothing. Useful as an embedding base or for testing.
type NoopEndpoint struct{}

var _ Endpoint = (*NoopEndpoint)(nil)

func (e *NoopEndpoint) Check(s *session.Session) bool {
	return true
}

func (e *NoopEndpoint) OnMessage(ctx context.Context, s *session.Session, msg frame.Message) (bool, error) {
	return false, nil
}

func (e *NoopEndpoint) OnClientConnected(ctx context.Context, s *session.Session) error {
	return nil
}

func (e *NoopEndpoint) OnClientClosed(ctx context.Context, s *session.Session) error {
	return nil
}
