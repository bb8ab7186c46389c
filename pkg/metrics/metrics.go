// Copyright (c) ItsLJcool
// SPDX-License-Identifier: Apache-2.0

// Package metrics provides Prometheus instrumentation for the gateway.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the gateway. Each instance
// carries its own registry, so constructing one in a test cannot collide
// with another.
type Metrics struct {
	registry *prometheus.Registry

	// Connection metrics
	ActiveConnections prometheus.Gauge
	ConnectionsTotal  prometheus.Counter

	// Frame metrics
	FramesTotal       *prometheus.CounterVec
	RateLimitedFrames prometheus.Counter

	// Dispatch metrics
	MessagesTotal *prometheus.CounterVec

	// Room metrics
	RoomsActive     prometheus.Gauge
	BroadcastsTotal prometheus.Counter

	// Auth metrics
	AuthAttempts *prometheus.CounterVec
}

// New creates a new Metrics instance backed by a fresh registry.
func New(namespace string) *Metrics {
	if namespace == "" {
		namespace = "cne"
	}

	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		ActiveConnections: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_connections",
			Help:      "Number of currently active WebSocket connections",
		}),
		ConnectionsTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connections_total",
			Help:      "Total number of accepted WebSocket connections",
		}),
		FramesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_total",
			Help:      "Total number of classified inbound frames",
		}, []string{"kind"}),
		RateLimitedFrames: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_frames_total",
			Help:      "Total number of frames dropped by rate limiting",
		}),
		MessagesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_total",
			Help:      "Total number of dispatched messages by outcome",
		}, []string{"outcome"}),
		RoomsActive: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "rooms_active",
			Help:      "Number of currently registered rooms",
		}),
		BroadcastsTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "room_broadcasts_total",
			Help:      "Total number of room broadcasts",
		}),
		AuthAttempts: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_attempts_total",
			Help:      "Total number of authentication attempts by result",
		}, []string{"result"}),
	}
}

// Registry returns the underlying registry for scraping via promhttp.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Frame outcome and kind labels.
const (
	KindHeader = "header"
	KindRaw    = "raw"

	OutcomeHandled = "handled"
	OutcomeDropped = "dropped"
	OutcomeError   = "error"

	ResultSuccess = "success"
	ResultFailure = "failure"
)

// ObserveFrame records one classified frame. Safe on a nil receiver.
func (m *Metrics) ObserveFrame(kind string) {
	if m == nil {
		return
	}
	m.FramesTotal.WithLabelValues(kind).Inc()
}

// ObserveMessage records one dispatch outcome. Safe on a nil receiver.
func (m *Metrics) ObserveMessage(outcome string) {
	if m == nil {
		return
	}
	m.MessagesTotal.WithLabelValues(outcome).Inc()
}

// ObserveAuth records one authentication attempt. Safe on a nil receiver.
func (m *Metrics) ObserveAuth(result string) {
	if m == nil {
		return
	}
	m.AuthAttempts.WithLabelValues(result).Inc()
}

// ConnectionOpened records an accepted connection. Safe on a nil receiver.
func (m *Metrics) ConnectionOpened() {
	if m == nil {
		return
	}
	m.ActiveConnections.Inc()
	m.ConnectionsTotal.Inc()
}

// ConnectionClosed records a finished connection. Safe on a nil receiver.
func (m *Metrics) ConnectionClosed() {
	if m == nil {
		return
	}
	m.ActiveConnections.Dec()
}

// RoomCreated records a new room. Safe on a nil receiver.
func (m *Metrics) RoomCreated() {
	if m == nil {
		return
	}
	m.RoomsActive.Inc()
}

// RoomDisbanded records a removed room. Safe on a nil receiver.
func (m *Metrics) RoomDisbanded() {
	if m == nil {
		return
	}
	m.RoomsActive.Dec()
}

// RoomBroadcast records one broadcast. Safe on a nil receiver.
func (m *Metrics) RoomBroadcast() {
	if m == nil {
		return
	}
	m.BroadcastsTotal.Inc()
}

// FrameRateLimited records a dropped frame. Safe on a nil receiver.
func (m *Metrics) FrameRateLimited() {
	if m == nil {
		return
	}
	m.RateLimitedFrames.Inc()
}
