// Copyright 2026 The Sbtlink Authors
// SPDX-License-Identifier: Apache-2.0

// Package relay runs the two message pumps that connect the local
// stdio streams to the sbt server connection.
//
// Each pump is a goroutine blocked on byte-stream I/O: one reads framed
// messages from local input and writes them to the server, the other
// reads from the server and writes to local output. There is no
// cooperative cancellation — the only way to stop a pump is to make its
// blocking call fail, which is why every termination path (pump
// failure, peer disconnect, external interrupt) goes through
// shutdown(2) on the shared socket. The first pump to finish shuts the
// socket down in both directions, which unblocks the other pump within
// one syscall; both report to a completion channel sized so that
// neither send can block, and Run consumes only the first report.
//
// A failed connection in either direction is the normal end of a
// session, not a crash: Run returns nil for expected teardown errors
// and the process exits 0.
package relay
