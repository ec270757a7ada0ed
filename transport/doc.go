// Copyright 2026 The Sbtlink Authors
// SPDX-License-Identifier: Apache-2.0

// Package transport abstracts the socket connection to the sbt server
// behind a single [Conn] interface, so the framing and relay layers
// never branch on the transport kind.
//
// [Connect] selects the transport from the server URI scheme: "tcp"
// dials a TCP socket, "local" (the scheme sbt writes into active.json
// on Unix) and "unix" dial a Unix domain socket at the URI's path. Any
// other scheme fails with [ErrInvalidAddress] before a connection is
// attempted.
//
// Handles returned by [Conn.Clone] share the underlying socket. Shutdown
// through any handle is an OS-level shutdown(2) on the shared socket, so
// it unblocks reads and writes on every other handle — that is the only
// cancellation mechanism the relay has.
package transport
