// Copyright (c) ItsLJcool
// SPDX-License-Identifier: Apache-2.0

// Package dispatch routes connection events to an ordered set of
// registered endpoints.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ItsLJcool/cne-online/pkg/errors"
	"github.com/ItsLJcool/cne-online/pkg/frame"
	"github.com/ItsLJcool/cne-online/pkg/metrics"
	"github.com/ItsLJcool/cne-online/pkg/session"
)

// Dispatcher owns the endpoint registry and the live-connection set.
//
// Registration happens once at startup, in order, and is then sealed;
// after Seal the endpoint list is immutable, so event dispatch reads it
// without locking. The connection set stays mutex-guarded since connects
// and closes arrive on different goroutines.
//
// Event semantics:
//   - connect: every eligible endpoint is notified, in registration
//     order, with no short-circuiting.
//   - message: the payload is classified once, then offered to eligible
//     endpoints in registration order until one claims it. Unclaimed
//     messages are silently dropped.
//   - close: fan-out like connect.
type Dispatcher struct {
	endpoints []Endpoint
	sealed    bool

	mu    sync.RWMutex
	conns map[string]*session.Session

	logger  *slog.Logger
	metrics *metrics.Metrics
}

// New creates a dispatcher.
func New(logger *slog.Logger, m *metrics.Metrics) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		conns:   make(map[string]*session.Session),
		logger:  logger,
		metrics: m,
	}
}

// Register appends an endpoint to the dispatch order. It must be called
// before Seal; registering afterwards is rejected so the event path can
// read the list lock-free.
func (d *Dispatcher) Register(e Endpoint) error {
	if e == nil {
		return errors.Wrap(errors.ErrMissingFields, "nil endpoint")
	}
	if d.sealed {
		return errors.ErrRegistrySealed
	}
	d.endpoints = append(d.endpoints, e)
	return nil
}

// Seal freezes the endpoint registry. Call once, before the transport
// begins accepting connections.
func (d *Dispatcher) Seal() {
	d.sealed = true
	d.logger.Info("endpoint registry sealed", slog.Int("endpoints", len(d.endpoints)))
}

// Endpoints returns the number of registered endpoints.
func (d *Dispatcher) Endpoints() int {
	return len(d.endpoints)
}

// Connections returns the number of live connections.
func (d *Dispatcher) Connections() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.conns)
}

// HandleConnect registers the session and notifies every eligible
// endpoint, in registration order. No short-circuiting: all eligible
// endpoints observe every connection.
func (d *Dispatcher) HandleConnect(ctx context.Context, s *session.Session) {
	for _, e := range d.endpoints {
		if !e.Check(s) {
			continue
		}
		if err := e.OnClientConnected(ctx, s); err != nil {
			d.logger.Error("connect handler error",
				slog.String("session", s.ID),
				slog.String("endpoint", endpointName(e)),
				slog.String("error", err.Error()))
		}
	}

	d.mu.Lock()
	d.conns[s.ID] = s
	d.mu.Unlock()
}

// HandleMessage classifies the payload once, then offers it to eligible
// endpoints in registration order. The first endpoint to return true
// claims the message; if none does, it is dropped without a reply — an
// intentional ignore-unknown-requests policy, not a failure path.
func (d *Dispatcher) HandleMessage(ctx context.Context, s *session.Session, payload []byte) {
	msg := frame.Classify(payload)
	if _, ok := msg.(*frame.Header); ok {
		d.metrics.ObserveFrame(metrics.KindHeader)
	} else {
		d.metrics.ObserveFrame(metrics.KindRaw)
	}

	for _, e := range d.endpoints {
		if !e.Check(s) {
			continue
		}
		handled, err := e.OnMessage(ctx, s, msg)
		if err != nil {
			d.logger.Error("message handler error",
				slog.String("session", s.ID),
				slog.String("endpoint", endpointName(e)),
				slog.String("error", err.Error()))
			d.metrics.ObserveMessage(metrics.OutcomeError)
			return
		}
		if handled {
			d.metrics.ObserveMessage(metrics.OutcomeHandled)
			return
		}
	}

	d.logger.Debug("message not claimed by any endpoint",
		slog.String("session", s.ID),
		slog.Int("payload_size", len(payload)))
	d.metrics.ObserveMessage(metrics.OutcomeDropped)
}

// HandleClose notifies every eligible endpoint, in registration order,
// then unregisters the session. Endpoints use this to release any state
// they associated with the session (the rooms endpoint removes it from
// every room it belongs to).
func (d *Dispatcher) HandleClose(ctx context.Context, s *session.Session) {
	for _, e := range d.endpoints {
		if !e.Check(s) {
			continue
		}
		if err := e.OnClientClosed(ctx, s); err != nil {
			d.logger.Error("close handler error",
				slog.String("session", s.ID),
				slog.String("endpoint", endpointName(e)),
				slog.String("error", err.Error()))
		}
	}

	d.mu.Lock()
	delete(d.conns, s.ID)
	d.mu.Unlock()
}

// CloseAll force-closes every live connection. Used by the transport when
// graceful shutdown exceeds its drain timeout; closing each connection
// unblocks its read loop, which then runs the normal close path.
func (d *Dispatcher) CloseAll() {
	d.mu.RLock()
	sessions := make([]*session.Session, 0, len(d.conns))
	for _, s := range d.conns {
		sessions = append(sessions, s)
	}
	d.mu.RUnlock()

	for _, s := range sessions {
		d.logger.Debug("force closing session", slog.String("session", s.ID))
		if err := s.Close(); err != nil {
			d.logger.Debug("session close error",
				slog.String("session", s.ID),
				slog.String("error", err.Error()))
		}
	}
}

func endpointName(e Endpoint) string {
	type named interface{ Name() string }
	if n, ok := e.(named); ok {
		return n.Name()
	}
	return fmt.Sprintf("%T", e)
}
