// Copyright (c) ItsLJcool
// SPDX-License-Identifier: Apache-2.0

package frame

import (
	"encoding/binary"
)

// Body kind flags in the binary envelope.
const (
	bodyBinary byte = 0
	bodyText   byte = 1
)

// Response is the outbound message envelope: a status code, an ordered
// header bag and a text or binary body. Unlike Header, keys keep their
// caller casing. The envelope is one-way: it is serialized once and the
// peer is responsible for decoding.
type Response struct {
	// Status is conventionally an HTTP-style code.
	Status int

	h    *headers
	body []byte
	text bool
}

// NewResponse creates a response with a text body.
func NewResponse(status int, body string) *Response {
	return &Response{
		Status: status,
		h:      newHeaders(false),
		body:   []byte(body),
		text:   true,
	}
}

// NewBinaryResponse creates a response with a raw binary body.
func NewBinaryResponse(status int, body []byte) *Response {
	return &Response{
		Status: status,
		h:      newHeaders(false),
		body:   body,
	}
}

// Set stores a header. Returns the response for chaining.
func (r *Response) Set(key, value string) *Response {
	r.h.set(key, value)
	return r
}

// Get returns the value for the key.
func (r *Response) Get(key string) (string, bool) {
	return r.h.get(key)
}

// Has reports whether the key is present.
func (r *Response) Has(key string) bool {
	return r.h.has(key)
}

// Delete removes the key and reports whether it was present.
func (r *Response) Delete(key string) bool {
	return r.h.delete(key)
}

// Keys returns the current key set in insertion order.
func (r *Response) Keys() []string {
	return r.h.keysCopy()
}

// Body returns the body bytes.
func (r *Response) Body() []byte {
	return r.body
}

// Text reports whether the body is text.
func (r *Response) Text() bool {
	return r.text
}

// Bytes serializes the envelope to its binary wire layout, little-endian:
//
//	status     u32
//	header_len u32
//	headers    "key: value\r\n" pairs, no trailing blank line
//	body_kind  u8 (1 = text, 0 = binary)
//	body_len   u32
//	body       raw bytes (text bodies are UTF-8)
func (r *Response) Bytes() []byte {
	hdr := []byte(r.h.section())

	buf := make([]byte, 0, 4+4+len(hdr)+1+4+len(r.body))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(r.Status))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(hdr)))
	buf = append(buf, hdr...)
	kind := bodyBinary
	if r.text {
		kind = bodyText
	}
	buf = append(buf, kind)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(r.body)))
	buf = append(buf, r.body...)
	return buf
}
