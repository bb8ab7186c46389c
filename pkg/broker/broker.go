// Copyright (c) ItsLJcool
// SPDX-License-Identifier: Apache-2.0

// Package broker provides in-process topic publish/subscribe over
// sessions. Rooms subscribe their members to a per-room topic and publish
// broadcast envelopes through it.
package broker

import (
	"log/slog"
	"sync"

	"github.com/ItsLJcool/cne-online/pkg/session"
)

// Broker maps topics to subscriber sets. Delivery is best-effort: a send
// failure is logged and the remaining subscribers still receive the
// payload.
type Broker struct {
	mu     sync.RWMutex
	topics map[string]map[*session.Session]struct{}
	logger *slog.Logger
}

// New creates a broker.
func New(logger *slog.Logger) *Broker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Broker{
		topics: make(map[string]map[*session.Session]struct{}),
		logger: logger,
	}
}

// Subscribe adds the session to a topic. Re-subscribing is a no-op.
func (b *Broker) Subscribe(topic string, s *session.Session) {
	b.mu.Lock()
	defer b.mu.Unlock()
	subs, ok := b.topics[topic]
	if !ok {
		subs = make(map[*session.Session]struct{})
		b.topics[topic] = subs
	}
	subs[s] = struct{}{}
}

// Unsubscribe removes the session from a topic. Empty topics are deleted.
func (b *Broker) Unsubscribe(topic string, s *session.Session) {
	b.mu.Lock()
	defer b.mu.Unlock()
	subs, ok := b.topics[topic]
	if !ok {
		return
	}
	delete(subs, s)
	if len(subs) == 0 {
		delete(b.topics, topic)
	}
}

// UnsubscribeAll removes the session from every topic.
func (b *Broker) UnsubscribeAll(s *session.Session) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for topic, subs := range b.topics {
		delete(subs, s)
		if len(subs) == 0 {
			delete(b.topics, topic)
		}
	}
}

// Subscribers returns the number of sessions subscribed to a topic.
func (b *Broker) Subscribers(topic string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.topics[topic])
}

// Publish delivers the payload to every current subscriber of the topic
// and returns the number of successful deliveries. The subscriber set is
// snapshotted before sending so a slow write cannot hold the broker lock.
func (b *Broker) Publish(topic string, payload []byte) int {
	b.mu.RLock()
	subs := make([]*session.Session, 0, len(b.topics[topic]))
	for s := range b.topics[topic] {
		subs = append(subs, s)
	}
	b.mu.RUnlock()

	delivered := 0
	for _, s := range subs {
		if err := s.Send(payload); err != nil {
			b.logger.Debug("publish delivery failed",
				slog.String("topic", topic),
				slog.String("session", s.ID),
				slog.String("error", err.Error()))
			continue
		}
		delivered++
	}
	return delivered
}
