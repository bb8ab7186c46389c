// Copyright (c) ItsLJcool
// SPDX-License-Identifier: Apache-2.0

// Package server accepts WebSocket connections and feeds their frames to
// the dispatcher.
package server

import (
	"context"
	"crypto/tls"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/ItsLJcool/cne-online/pkg/dispatch"
	"github.com/ItsLJcool/cne-online/pkg/metrics"
	"github.com/ItsLJcool/cne-online/pkg/ratelimit"
	"github.com/ItsLJcool/cne-online/pkg/session"
)

var (
	// ErrShutdownTimeout is returned when graceful shutdown exceeds the configured timeout.
	ErrShutdownTimeout = errors.New("shutdown timeout exceeded")
)

// Config holds the WebSocket server configuration.
type Config struct {
	// Address is the listen address (host:port)
	Address string

	// Path is the HTTP path upgraded to WebSocket. Defaults to "/".
	Path string

	// TLSConfig is optional TLS configuration for the listener
	TLSConfig *tls.Config

	// ShutdownTimeout is the maximum time to wait for active connections
	// to drain during graceful shutdown. After this timeout, remaining
	// connections are forcefully closed.
	ShutdownTimeout time.Duration

	// CheckOrigin overrides the upgrader's origin policy. When nil every
	// origin is accepted, matching the non-browser game clients this
	// server exists for.
	CheckOrigin func(r *http.Request) bool

	// RateCapacity and RateRefill configure the per-session frame
	// limiter. Zero capacity disables rate limiting.
	RateCapacity int64
	RateRefill   int64

	// Logger for server events
	Logger *slog.Logger
}

// Server accepts WebSocket connections, assigns each a session, and runs
// a read loop that feeds inbound frames to the dispatcher.
type Server struct {
	config     Config
	dispatcher *dispatch.Dispatcher
	limiter    *ratelimit.Limiter
	metrics    *metrics.Metrics
	upgrader   websocket.Upgrader

	wg sync.WaitGroup

	// connCtx outlives the accept loop so draining connections keep a
	// live context until the drain deadline forces them out.
	connCtx    context.Context
	connCancel context.CancelFunc
}

// New creates a WebSocket server routing events to the dispatcher.
func New(cfg Config, d *dispatch.Dispatcher, m *metrics.Metrics) *Server {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Path == "" {
		cfg.Path = "/"
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}

	checkOrigin := cfg.CheckOrigin
	if checkOrigin == nil {
		checkOrigin = func(*http.Request) bool { return true }
	}

	var limiter *ratelimit.Limiter
	if cfg.RateCapacity > 0 {
		limiter = ratelimit.NewLimiter(cfg.RateCapacity, cfg.RateRefill)
	}

	connCtx, connCancel := context.WithCancel(context.Background())

	return &Server{
		config:     cfg,
		dispatcher: d,
		limiter:    limiter,
		metrics:    m,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     checkOrigin,
		},
		connCtx:    connCtx,
		connCancel: connCancel,
	}
}

// Listen starts the WebSocket server and blocks until the context is
// cancelled. It implements graceful shutdown with connection draining.
func (s *Server) Listen(ctx context.Context) error {
	defer s.connCancel()

	mux := http.NewServeMux()
	mux.Handle(s.config.Path, s)

	srv := &http.Server{
		Addr:      s.config.Address,
		Handler:   mux,
		TLSConfig: s.config.TLSConfig,
	}

	errCh := make(chan error, 1)
	go func() {
		if s.config.TLSConfig != nil {
			s.config.Logger.Info("TLS enabled", slog.String("address", s.config.Address))
			errCh <- srv.ListenAndServeTLS("", "")
			return
		}
		errCh <- srv.ListenAndServe()
	}()

	s.config.Logger.Info("WebSocket server started",
		slog.String("address", s.config.Address),
		slog.String("path", s.config.Path))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.config.Logger.Info("shutdown signal received, closing listener")

	// Stop accepting new upgrades. Hijacked WebSocket connections are not
	// tracked by http.Server, so draining them is on us.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.config.Logger.Error("error closing listener", slog.String("error", err.Error()))
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.config.Logger.Info("all connections closed gracefully")
		return nil
	case <-time.After(s.config.ShutdownTimeout):
		s.config.Logger.Warn("shutdown timeout exceeded, forcing connection closure")
		s.connCancel()
		s.dispatcher.CloseAll()
		select {
		case <-done:
			return ErrShutdownTimeout
		case <-time.After(1 * time.Second):
			return ErrShutdownTimeout
		}
	}
}

// ServeHTTP upgrades the request and hands the connection to the read
// loop. Exported so tests can mount the server on an httptest.Server.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.config.Logger.Error("upgrade failed",
			slog.String("remote", r.RemoteAddr),
			slog.String("error", err.Error()))
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.handleConn(s.connCtx, ws)
	}()
}

// handleConn runs one connection: connect fan-out, read loop, close
// fan-out. It returns when the client disconnects or the connection
// context is cancelled.
func (s *Server) handleConn(ctx context.Context, ws *websocket.Conn) {
	conn := newWSConn(ws)
	defer conn.Close()

	sess := session.New(uuid.New().String(), conn)

	s.config.Logger.Debug("connection established",
		slog.String("session", sess.ID),
		slog.String("remote", sess.RemoteAddr()))
	s.metrics.ConnectionOpened()

	s.dispatcher.HandleConnect(ctx, sess)

	defer func() {
		s.dispatcher.HandleClose(ctx, sess)
		if s.limiter != nil {
			s.limiter.Remove(sess.ID)
		}
		s.metrics.ConnectionClosed()
		s.config.Logger.Debug("connection closed", slog.String("session", sess.ID))
	}()

	// Unblock the read loop if the context dies before the client does.
	stop := context.AfterFunc(ctx, func() {
		conn.Close()
	})
	defer stop()

	for {
		_, payload, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseNormalClosure, websocket.CloseGoingAway) && ctx.Err() == nil {
				s.config.Logger.Debug("read error",
					slog.String("session", sess.ID),
					slog.String("error", err.Error()))
			}
			return
		}

		if s.limiter != nil && !s.limiter.Allow(sess.ID) {
			s.metrics.FrameRateLimited()
			s.config.Logger.Warn("frame rate limited", slog.String("session", sess.ID))
			continue
		}

		s.dispatcher.HandleMessage(ctx, sess, payload)

		if ctx.Err() != nil {
			return
		}
	}
}
