// Copyright (c) ItsLJcool
// SPDX-License-Identifier: Apache-2.0

package frame

import (
	"strings"
)

// headers is an ordered key/value bag shared by Header and Response.
//
// Insertion order is preserved for re-serialization; updating an existing
// key keeps its position. When fold is set, keys are lower-cased at
// insertion time, which makes every lookup case-insensitive.
type headers struct {
	keys []string
	vals map[string]string
	fold bool
}

func newHeaders(fold bool) *headers {
	return &headers{
		vals: make(map[string]string),
		fold: fold,
	}
}

func (h *headers) canon(key string) string {
	if h.fold {
		return strings.ToLower(key)
	}
	return key
}

func (h *headers) set(key, value string) {
	key = h.canon(key)
	if _, ok := h.vals[key]; !ok {
		h.keys = append(h.keys, key)
	}
	h.vals[key] = value
}

func (h *headers) get(key string) (string, bool) {
	v, ok := h.vals[h.canon(key)]
	return v, ok
}

func (h *headers) has(key string) bool {
	_, ok := h.vals[h.canon(key)]
	return ok
}

func (h *headers) delete(key string) bool {
	key = h.canon(key)
	if _, ok := h.vals[key]; !ok {
		return false
	}
	delete(h.vals, key)
	for i, k := range h.keys {
		if k == key {
			h.keys = append(h.keys[:i], h.keys[i+1:]...)
			break
		}
	}
	return true
}

func (h *headers) len() int {
	return len(h.vals)
}

// keysCopy returns the current key set in insertion order.
func (h *headers) keysCopy() []string {
	out := make([]string, len(h.keys))
	copy(out, h.keys)
	return out
}

// section renders the bag as "key: value\r\n" pairs in insertion order,
// with no trailing blank line.
func (h *headers) section() string {
	var b strings.Builder
	for _, k := range h.keys {
		b.WriteString(k)
		b.WriteString(": ")
		b.WriteString(h.vals[k])
		b.WriteString("\r\n")
	}
	return b.String()
}
