// Copyright 2026 The Sbtlink Authors
// SPDX-License-Identifier: Apache-2.0

// sbtlink connects stdin/stdout to a running sbt server's socket.
//
// Editors and language clients that speak LSP over stdio launch
// sbtlink as the "server" process; sbtlink finds the real server
// through project/target/active.json, opens its TCP or Unix socket,
// and relays framed messages in both directions until either side
// disconnects or the process is interrupted.
//
// Usage:
//
//	sbtlink [flags]
//
// Diagnostics go to stderr only — stdout carries protocol bytes.
package main
