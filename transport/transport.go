// Copyright 2026 The Sbtlink Authors
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"time"
)

// Compile-time interface checks.
var (
	_ Conn = (*tcpConn)(nil)
	_ Conn = (*unixConn)(nil)
)

// ErrInvalidAddress indicates a server URI that is malformed or uses an
// unsupported scheme. Connect returns it before any dial is attempted.
var ErrInvalidAddress = errors.New("invalid server address")

// Direction selects which side(s) of a connection Shutdown closes.
type Direction int

const (
	// Read shuts down the receive side: blocked and future reads on
	// every handle over the socket observe EOF.
	Read Direction = iota

	// Write shuts down the send side: the peer observes EOF, and
	// future writes on every handle fail.
	Write

	// Both shuts down both sides.
	Both
)

// Conn is one handle on the socket connection to the sbt server. Reads
// and writes block the calling goroutine until data moves or the socket
// fails; there are no deadlines.
//
// A Conn must not be read concurrently by more than one goroutine, nor
// written concurrently by more than one goroutine. The relay gives each
// pump its own handle and direction.
type Conn interface {
	io.Reader
	io.Writer

	// Shutdown closes the given direction(s) of the underlying socket.
	// The effect is visible through every handle over the socket. It is
	// idempotent: shutting down an already shut-down socket succeeds.
	Shutdown(Direction) error

	// Clone returns a second handle over the same socket. Both handles
	// remain independently usable for reads and writes; Shutdown issued
	// through either affects both.
	Clone() (Conn, error)
}

// Connect dials the sbt server identified by uri and returns a handle
// on the connection. The transport is selected by scheme:
//
//	tcp://<host>:<port>   TCP socket
//	local://<path>        Unix domain socket (scheme sbt emits on Unix)
//	unix://<path>         Unix domain socket
//
// timeout bounds connection establishment only; zero means no timeout.
func Connect(uri string, timeout time.Duration) (Conn, error) {
	parsed, err := url.Parse(uri)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}

	switch parsed.Scheme {
	case "tcp":
		if parsed.Host == "" {
			return nil, fmt.Errorf("%w: tcp URI %q has no host", ErrInvalidAddress, uri)
		}
		return dialTCP(parsed.Host, timeout)
	case "local", "unix":
		path := parsed.Path
		if path == "" {
			// local:relative/path parses into Opaque rather than Path.
			path = parsed.Opaque
		}
		if path == "" {
			return nil, fmt.Errorf("%w: %q has no socket path", ErrInvalidAddress, uri)
		}
		return dialUnix(path, timeout)
	default:
		return nil, fmt.Errorf("%w: unsupported scheme %q in %q", ErrInvalidAddress, parsed.Scheme, uri)
	}
}

// shutdown maps a Direction onto the CloseRead/CloseWrite pair shared
// by net.TCPConn and net.UnixConn, folding already-shut-down errors
// into success so callers can treat Shutdown as idempotent.
func shutdown(direction Direction, closeRead, closeWrite func() error) error {
	var err error
	switch direction {
	case Read:
		err = closeRead()
	case Write:
		err = closeWrite()
	case Both:
		err = closeRead()
		if writeErr := closeWrite(); err == nil {
			err = writeErr
		}
	default:
		return fmt.Errorf("unknown shutdown direction %d", direction)
	}
	if err == nil || isAlreadyShutdown(err) {
		return nil
	}
	return err
}
