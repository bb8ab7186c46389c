// Copyright (c) ItsLJcool
// SPDX-License-Identifier: Apache-2.0

// Package errors provides structured error handling for the gateway.
package errors

import (
	"errors"
	"fmt"
)

// Common error types
var (
	// ErrNotAuthorized indicates the session has not authenticated.
	ErrNotAuthorized = errors.New("not authorized")

	// ErrInvalidCredentials indicates a failed login attempt.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidVersion indicates a protocol version mismatch.
	ErrInvalidVersion = errors.New("invalid protocol version")

	// ErrMissingFields indicates a request without its required headers.
	ErrMissingFields = errors.New("missing required fields")

	// ErrRoomNotFound indicates a lookup for an unknown room.
	ErrRoomNotFound = errors.New("room not found")

	// ErrRoomExists indicates a create for an already registered room name.
	ErrRoomExists = errors.New("room already exists")

	// ErrRoomPrivate indicates a join attempt on a private room without an invite.
	ErrRoomPrivate = errors.New("room is private")

	// ErrUserNotFound indicates a lookup for an unknown account.
	ErrUserNotFound = errors.New("user not found")

	// ErrUserExists indicates a registration with an already used email.
	ErrUserExists = errors.New("account already exists")

	// ErrStoreUnavailable indicates the user store cannot be reached.
	ErrStoreUnavailable = errors.New("user store unavailable")

	// ErrRateLimited indicates rate limit exceeded.
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrConnectionClosed indicates the connection was closed.
	ErrConnectionClosed = errors.New("connection closed")

	// ErrRegistrySealed indicates endpoint registration after dispatch started.
	ErrRegistrySealed = errors.New("endpoint registry is sealed")
)

// EventError wraps an error with dispatch context.
type EventError struct {
	Op        string // Event being dispatched (connect, message, close)
	Endpoint  string // Endpoint that produced the error
	SessionID string // Session identifier
	Err       error  // Underlying error
}

// Error implements the error interface.
func (e *EventError) Error() string {
	if e.Endpoint != "" {
		return fmt.Sprintf("%s %s [%s]: %v", e.Op, e.Endpoint, e.SessionID, e.Err)
	}
	return fmt.Sprintf("%s [%s]: %v", e.Op, e.SessionID, e.Err)
}

// Unwrap returns the underlying error.
func (e *EventError) Unwrap() error {
	return e.Err
}

// New creates a new EventError.
func New(op, endpoint, sessionID string, err error) error {
	if err == nil {
		return nil
	}
	return &EventError{
		Op:        op,
		Endpoint:  endpoint,
		SessionID: sessionID,
		Err:       err,
	}
}

// Wrap wraps an error with context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
