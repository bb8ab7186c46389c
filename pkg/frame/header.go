// Copyright (c) ItsLJcool
// SPDX-License-Identifier: Apache-2.0

package frame

import (
	"strings"
)

// Header is a parsed header block: an optional request line, an ordered
// set of headers and a text body. Keys are lower-cased at insertion, so
// lookups are case-insensitive. No validation is performed on keys or
// values; callers are responsible for well-formed tokens.
type Header struct {
	// Request is the request line, e.g. "GET /user HTTP/1.0". May be empty.
	Request string

	// Content is the text body following the blank line.
	Content string

	h *headers
}

// NewHeader creates a header block with the given request line and body.
func NewHeader(request, content string) *Header {
	return &Header{
		Request: request,
		Content: content,
		h:       newHeaders(true),
	}
}

// Set stores a header, lower-casing the key. Returns the block for chaining.
func (h *Header) Set(key, value string) *Header {
	h.h.set(key, value)
	return h
}

// Get returns the value for the key, case-insensitively.
func (h *Header) Get(key string) (string, bool) {
	return h.h.get(key)
}

// Has reports whether the key is present.
func (h *Header) Has(key string) bool {
	return h.h.has(key)
}

// Delete removes the key and reports whether it was present.
func (h *Header) Delete(key string) bool {
	return h.h.delete(key)
}

// Keys returns the current key set in insertion order.
func (h *Header) Keys() []string {
	return h.h.keysCopy()
}

// Len returns the number of headers.
func (h *Header) Len() int {
	return h.h.len()
}

// String renders the block in its text wire form: the request line when
// present, "key: value\r\n" pairs, a blank line, then the body.
func (h *Header) String() string {
	var b strings.Builder
	if h.Request != "" {
		b.WriteString(h.Request)
		b.WriteString("\r\n")
	}
	b.WriteString(h.h.section())
	b.WriteString("\r\n")
	if len(h.Content) > 0 {
		b.WriteString(h.Content)
	}
	return b.String()
}

// Bytes returns the text serialization as a byte slice.
func (h *Header) Bytes() []byte {
	return []byte(h.String())
}
