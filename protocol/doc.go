// Copyright 2026 The Sbtlink Authors
// SPDX-License-Identifier: Apache-2.0

// Package protocol implements the wire framing of the sbt server
// protocol: each message is a block of CRLF-terminated header lines
// ending with an empty line, followed by a single JSON value.
//
// The header block carries no Content-Length the bridge can trust, so
// [Reader] discovers the body boundary from the body's own syntax: it
// counts unmatched braces outside of string literals, and when the
// count returns to zero it validates the accumulated bytes as JSON and
// emits the message. Bytes delivered past a message boundary in the
// same physical read stay buffered inside the Reader and begin the next
// message.
//
// Messages are opaque to the bridge. Headers are never split into
// fields and bodies are never decoded beyond the syntactic validation
// needed to find their end — both are relayed verbatim.
package protocol
