// Copyright (c) ItsLJcool
// SPDX-License-Identifier: Apache-2.0

package frame

import (
	"regexp"
	"strings"
)

// Message is one WebSocket payload after classification: either a parsed
// *Header block or Raw bytes passed through untouched.
type Message interface {
	message()
}

// Raw is an opaque binary payload that did not classify as a header block.
type Raw []byte

func (Raw) message()     {}
func (*Header) message() {}

// Two recognized request-line grammars, attempted in order. The method is
// matched case-insensitively.
var (
	httpRequestLine   = regexp.MustCompile(`(?i)^[A-Z]+\s+/\S*\s+HTTP/\d\.\d$`)
	customRequestLine = regexp.MustCompile(`(?i)^[A-Z]+\s+/\S*\s+Version/\d\.\d$`)

	// Header field names use the restricted HTTP token character class.
	headerLine = regexp.MustCompile("^([!#$%&'*+\\-.^_`|~0-9A-Za-z]+):\\s*(.+)$")
)

// Classify decides whether raw encodes a header block. It attempts the HTTP
// request-line grammar first, then the custom Version grammar; if neither
// yields a block, the original bytes are returned unchanged as Raw. The
// classifier is deliberately conservative: the frame channel also carries
// opaque payloads such as media, so any malformed input degrades to Raw
// rather than erroring.
func Classify(raw []byte) Message {
	input := string(raw)
	if h, ok := parseBlock(input, httpRequestLine); ok {
		return h
	}
	if h, ok := parseBlock(input, customRequestLine); ok {
		return h
	}
	return Raw(raw)
}

// parseBlock parses one header block from input. Line endings are
// normalized to "\n" first. If the first line matches the request-line
// grammar it is consumed as the request line; otherwise parsing continues
// from the first line with an empty request. Header lines follow until a
// blank line, after which the remaining lines (rejoined with "\n") become
// the body. A line that is neither a valid header nor blank stops parsing
// and the remainder is dropped. A block with no request line, no headers
// and no body fails classification.
func parseBlock(input string, requestLine *regexp.Regexp) (*Header, bool) {
	lines := strings.Split(strings.ReplaceAll(input, "\r\n", "\n"), "\n")

	h := NewHeader("", "")
	if requestLine.MatchString(strings.TrimSpace(lines[0])) {
		h.Request = strings.TrimSpace(lines[0])
		lines = lines[1:]
	}

	body := -1
	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			body = i + 1
			break
		}
		m := headerLine.FindStringSubmatch(line)
		if m == nil {
			break
		}
		h.Set(m[1], m[2])
	}
	if body >= 0 && body <= len(lines) {
		h.Content = strings.Join(lines[body:], "\n")
	}

	if h.Request == "" && h.Len() == 0 && strings.TrimSpace(h.Content) == "" {
		return nil, false
	}
	return h, true
}
