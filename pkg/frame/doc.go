// Copyright (c) ItsLJcool
// SPDX-License-Identifier: Apache-2.0

// Package frame implements the application-level message protocol carried
// inside WebSocket frames.
//
// Inbound payloads are arbitrary bytes. Classify decides whether a payload
// encodes a header block (an HTTP-like request line, header pairs and a
// body) or must be passed through untouched as opaque binary. Outbound
// traffic uses the Response envelope, which serializes to a fixed
// little-endian binary layout decoded by the peer.
package frame
