// Copyright (c) ItsLJcool
// SPDX-License-Identifier: Apache-2.0

package accounts

import (
	"context"
	stderrors "errors"
	"log/slog"
	"strings"

	"github.com/ItsLJcool/cne-online/pkg/dispatch"
	"github.com/ItsLJcool/cne-online/pkg/errors"
	"github.com/ItsLJcool/cne-online/pkg/frame"
	"github.com/ItsLJcool/cne-online/pkg/metrics"
	"github.com/ItsLJcool/cne-online/pkg/session"
)

// Version is the protocol version the account endpoint speaks.
const Version = "1.0"

// MetaUser is the session metadata key holding the Summary cached at
// login.
const MetaUser = "user"

// Endpoint exposes login, registration and user lookup over the message
// protocol.
type Endpoint struct {
	dispatch.NoopEndpoint

	store   Store
	logger  *slog.Logger
	metrics *metrics.Metrics
}

var _ dispatch.Endpoint = (*Endpoint)(nil)

// NewEndpoint creates the account endpoint.
func NewEndpoint(store Store, logger *slog.Logger, m *metrics.Metrics) *Endpoint {
	if logger == nil {
		logger = slog.Default()
	}
	return &Endpoint{
		store:   store,
		logger:  logger,
		metrics: m,
	}
}

// Name identifies the endpoint in dispatcher logs.
func (e *Endpoint) Name() string {
	return "accounts"
}

// OnMessage handles account requests. Binary frames and unknown paths are
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

	switch method {
	case "GET":
		return e.get(ctx, s, path, fields, hdr)
	case "POST":
		return e.post(ctx, s, path, fields, hdr)
	default:
		return false, nil
	}
}

func (e *Endpoint) get(ctx context.Context, s *session.Session, path string, fields []string, hdr *frame.Header) (bool, error) {
	switch path {
	case "/user":
		if !checkVersion(fields) {
			return true, replyInvalidVersion(s)
		}
		resp := e.userInfo(ctx, hdr).
			Set("Endpoint", "/user").
			Set("Content-Type", "application/text")
		return true, s.Reply(resp)
	default:
		return false, nil
	}
}

func (e *Endpoint) post(ctx context.Context, s *session.Session, path string, fields []string, hdr *frame.Header) (bool, error) {
	switch path {
	case "/login":
		if !checkVersion(fields) {
			return true, replyInvalidVersion(s)
		}
		if s.Authenticated() {
			return true, s.Reply(frame.NewResponse(400, "Already validated."))
		}
		resp := e.login(ctx, hdr, s).
			Set("Endpoint", "/login").
			Set("Content-Type", "application/text")
		return true, s.Reply(resp)

	case "/register":
		if !checkVersion(fields) {
			return true, replyInvalidVersion(s)
		}
		resp := e.register(ctx, hdr).
			Set("Endpoint", "/register").
			Set("Content-Type", "application/text")
		return true, s.Reply(resp)

	default:
		return false, nil
	}
}

// login verifies credentials and, on success, marks the session
// authenticated and caches the account summary in its metadata.
func (e *Endpoint) login(ctx context.Context, hdr *frame.Header, s *session.Session) *frame.Response {
	email, hasEmail := hdr.Get("email")
	password, hasPassword := hdr.Get("password")
	if !hasEmail || !hasPassword {
		return frame.NewResponse(400, "Missing Required Fields.\nUse email and password.")
	}

	user, err := e.store.FindByEmail(ctx, email)
	if err != nil && !stderrors.Is(err, errors.ErrUserNotFound) {
		return e.storeFailure("login", err)
	}
	if user == nil || !e.store.VerifyPassword(password, user.Password) {
		e.metrics.ObserveAuth(metrics.ResultFailure)
		return frame.NewResponse(401, "Invalid Credentials.")
	}

	s.SetAuthenticated(true)
	s.SetMeta(MetaUser, Summary{
		Username:    user.Username,
		Email:       user.Email,
		DiscordID:   user.DiscordID,
		DiscordName: user.DiscordName,
	})

	e.metrics.ObserveAuth(metrics.ResultSuccess)
	e.logger.Info("session authenticated",
		slog.String("session", s.ID),
		slog.String("username", user.Username))

	return frame.NewResponse(200, "Login Successful!").Set("UUID", s.ID)
}

// userInfo looks up an account by email and renders its public fields as
// response headers.
func (e *Endpoint) userInfo(ctx context.Context, hdr *frame.Header) *frame.Response {
	email, ok := hdr.Get("email")
	if !ok {
		return frame.NewResponse(400, "Missing Required Fields.\nUse email.")
	}

	user, err := e.store.FindByEmail(ctx, email)
	if stderrors.Is(err, errors.ErrUserNotFound) {
		return frame.NewResponse(404, "User Not Found.")
	}
	if err != nil {
		return e.storeFailure("user info", err)
	}

	resp := frame.NewResponse(200, "User Found.").
		Set("Username", user.Username).
		Set("Email", user.Email)
	if user.DiscordID != "" {
		resp.Set("Discord ID", user.DiscordID)
	}
	if user.DiscordName != "" {
		resp.Set("Discord Name", user.DiscordName)
	}
	if len(user.Friends) > 0 {
		resp.Set("Friends", strings.Join(user.Friends, ","))
	}
	return resp
}

// register validates the submitted fields and creates the account.
func (e *Endpoint) register(ctx context.Context, hdr *frame.Header) *frame.Response {
	email, hasEmail := hdr.Get("email")
	username, hasUsername := hdr.Get("username")
	password, hasPassword := hdr.Get("password")
	if !hasEmail || !hasUsername || !hasPassword {
		return frame.NewResponse(400, "Missing Required Fields.\nUse email, username, and password.")
	}

	if !ValidEmail(email) {
		return frame.NewResponse(400, "Invalid Email.")
	}
	if !ValidPassword(password) {
		return frame.NewResponse(400, "Invalid Password.\nIt must be 6-32 characters long, contain a number, capital letter, and a symbol.")
	}

	exists, err := e.store.Exists(ctx, email)
	if err != nil {
		return e.storeFailure("register", err)
	}
	if exists {
		return frame.NewResponse(409, "Account Already Exists with this Email.")
	}

	hash, err := HashPassword(password)
	if err != nil {
		return e.storeFailure("register", err)
	}

	user := &User{
		Username: username,
		Email:    email,
		Password: hash,
	}
	if err := e.store.CreateOrUpdate(ctx, user); err != nil {
		e.logger.Error("account creation failed",
			slog.String("email", email),
			slog.String("error", err.Error()))
		return frame.NewResponse(400, "Failed create account.")
	}

	return frame.NewResponse(201, "Account Created Successfully!")
}

// storeFailure logs a collaborator failure and renders the generic server
// error the protocol promises for it.
func (e *Endpoint) storeFailure(op string, err error) *frame.Response {
	e.logger.Error("user store failure",
		slog.String("op", op),
		slog.String("error", err.Error()))
	return frame.NewResponse(500, "Internal Server Error.")
}

func replyInvalidVersion(s *session.Session) error {
	return s.Reply(frame.NewResponse(400, "Invalid Version.\nUse "+Version).
		Set("Content-Type", "application/text"))
}

// checkVersion verifies the trailing /<version> segment of the request
// line's third token.
func checkVersion(fields []string) bool {
	if len(fields) < 3 {
		return false
	}
	parts := strings.Split(fields[2], "/")
	return parts[len(parts)-1] == Version
}
