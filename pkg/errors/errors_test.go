// Copyright (c) ItsLJcool
// SPDX-License-Identifier: Apache-2.0

package errors

import (
	"errors"
	"testing"
)

func TestEventErrorUnwrap(t *testing.T) {
	err := New("message", "rooms", "s1", ErrRoomNotFound)

	if !errors.Is(err, ErrRoomNotFound) {
		t.Error("errors.Is failed to reach the wrapped sentinel")
	}

	var ev *EventError
	if !errors.As(err, &ev) {
		t.Fatal("errors.As failed to extract EventError")
	}
	if ev.Op != "message" || ev.Endpoint != "rooms" || ev.SessionID != "s1" {
		t.Errorf("EventError = %+v", ev)
	}
}

func TestNewNilError(t *testing.T) {
	if err := New("message", "rooms", "s1", nil); err != nil {
		t.Errorf("New(nil) = %v, want nil", err)
	}
}

func TestEventErrorString(t *testing.T) {
	err := New("connect", "accounts", "s1", ErrNotAuthorized)
	want := "connect accounts [s1]: not authorized"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}

	err = New("close", "", "s2", ErrConnectionClosed)
	want = "close [s2]: connection closed"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestWrap(t *testing.T) {
	err := Wrap(ErrUserNotFound, "redis get")
	if !errors.Is(err, ErrUserNotFound) {
		t.Error("Wrap broke the error chain")
	}
	if err.Error() != "redis get: user not found" {
		t.Errorf("Error() = %q", err.Error())
	}

	if Wrap(nil, "noop") != nil {
		t.Error("Wrap(nil) should be nil")
	}
}
