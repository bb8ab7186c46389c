// Copyright (c) ItsLJcool
// SPDX-License-Identifier: Apache-2.0

package frame

import (
	"bytes"
	"testing"
)

func TestClassifyHTTPRequestLine(t *testing.T) {
	raw := []byte("GET /user HTTP/1.0\r\nemail: a@b.com\r\n\r\n")

	msg := Classify(raw)
	hdr, ok := msg.(*Header)
	if !ok {
		t.Fatalf("Classify() = %T, want *Header", msg)
	}

	if hdr.Request != "GET /user HTTP/1.0" {
		t.Errorf("Request = %q, want %q", hdr.Request, "GET /user HTTP/1.0")
	}
	if v, ok := hdr.Get("email"); !ok || v != "a@b.com" {
		t.Errorf("Get(email) = %q, %v, want %q, true", v, ok, "a@b.com")
	}
	if hdr.Content != "" {
		t.Errorf("Content = %q, want empty", hdr.Content)
	}
}

func TestClassifyCustomRequestLine(t *testing.T) {
	raw := []byte("POST /rooms/create Version/1.0\r\nname: Lobby\r\nis-private: true\r\n\r\n")

	msg := Classify(raw)
	hdr, ok := msg.(*Header)
	if !ok {
		t.Fatalf("Classify() = %T, want *Header", msg)
	}

	if hdr.Request != "POST /rooms/create Version/1.0" {
		t.Errorf("Request = %q", hdr.Request)
	}
	if v, _ := hdr.Get("name"); v != "Lobby" {
		t.Errorf("Get(name) = %q, want %q", v, "Lobby")
	}
	if v, _ := hdr.Get("is-private"); v != "true" {
		t.Errorf("Get(is-private) = %q, want %q", v, "true")
	}
}

func TestClassifyBody(t *testing.T) {
	raw := []byte("POST /chat HTTP/1.0\r\nroom: Lobby\r\n\r\nhello there\nsecond line")

	msg := Classify(raw)
	hdr, ok := msg.(*Header)
	if !ok {
		t.Fatalf("Classify() = %T, want *Header", msg)
	}

	if hdr.Content != "hello there\nsecond line" {
		t.Errorf("Content = %q", hdr.Content)
	}
}

func TestClassifyHeadersOnly(t *testing.T) {
	// No request line at all: header lines from the first line still
	// classify, via the fall-through parse.
	raw := []byte("token: abc123\r\nemail: a@b.com\r\n\r\n")

	msg := Classify(raw)
	hdr, ok := msg.(*Header)
	if !ok {
		t.Fatalf("Classify() = %T, want *Header", msg)
	}
	if hdr.Request != "" {
		t.Errorf("Request = %q, want empty", hdr.Request)
	}
	if v, _ := hdr.Get("token"); v != "abc123" {
		t.Errorf("Get(token) = %q", v)
	}
}

func TestClassifyCaseInsensitiveKeys(t *testing.T) {
	raw := []byte("GET /user HTTP/1.0\r\nEmail: a@b.com\r\n\r\n")

	hdr, ok := Classify(raw).(*Header)
	if !ok {
		t.Fatal("expected *Header")
	}
	if v, ok := hdr.Get("EMAIL"); !ok || v != "a@b.com" {
		t.Errorf("Get(EMAIL) = %q, %v", v, ok)
	}
}

func TestClassifyMalformedLineStopsParsing(t *testing.T) {
	raw := []byte("GET /user HTTP/1.0\r\nemail: a@b.com\r\nnot a header line\r\nlater: ignored\r\n\r\n")

	hdr, ok := Classify(raw).(*Header)
	if !ok {
		t.Fatal("expected *Header")
	}
	if !hdr.Has("email") {
		t.Error("email header should have been parsed before the malformed line")
	}
	if hdr.Has("later") {
		t.Error("headers after a malformed line should be dropped")
	}
}

func TestClassifyRawPassthrough(t *testing.T) {
	tests := []struct {
		name string
		raw  []byte
	}{
		{"binary blob", []byte{0x89, 0x50, 0x4e, 0x47, 0x00, 0x01}},
		{"plain text", []byte("just some chat text")},
		{"empty", []byte{}},
		{"blank lines only", []byte("\r\n\r\n")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := Classify(tt.raw)
			raw, ok := msg.(Raw)
			if !ok {
				t.Fatalf("Classify() = %T, want Raw", msg)
			}
			if !bytes.Equal([]byte(raw), tt.raw) {
				t.Errorf("Raw = %v, want original bytes %v", raw, tt.raw)
			}
		})
	}
}

func TestClassifyLFOnly(t *testing.T) {
	// Clients that never emit \r\n still classify.
	raw := []byte("GET /user HTTP/1.0\nemail: a@b.com\n\n")

	hdr, ok := Classify(raw).(*Header)
	if !ok {
		t.Fatal("expected *Header")
	}
	if v, _ := hdr.Get("email"); v != "a@b.com" {
		t.Errorf("Get(email) = %q", v)
	}
}

func TestClassifyRoundTrip(t *testing.T) {
	orig := NewHeader("POST /login Version/1.0", "").
		Set("email", "a@b.com").
		Set("password", "Secret1!")

	msg := Classify(orig.Bytes())
	hdr, ok := msg.(*Header)
	if !ok {
		t.Fatalf("Classify() = %T, want *Header", msg)
	}

	if hdr.Request != orig.Request {
		t.Errorf("Request = %q, want %q", hdr.Request, orig.Request)
	}
	for _, key := range orig.Keys() {
		want, _ := orig.Get(key)
		got, ok := hdr.Get(key)
		if !ok || got != want {
			t.Errorf("Get(%s) = %q, %v, want %q", key, got, ok, want)
		}
	}
}
