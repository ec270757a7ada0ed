// Copyright 2026 The Sbtlink Authors
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"errors"
	"io"
	"net"
	"syscall"
)

// IsExpectedClose reports whether err is a normal connection
// termination: EOF, closed connection, broken pipe, connection reset,
// or a socket already shut down. These errors occur during normal
// teardown when one pump fails (or the interrupt handler fires) and the
// other pump's in-flight read or write fails as a result.
//
// The relay uses full shutdown(2) rather than half-close for teardown,
// which produces ECONNRESET and EPIPE instead of EOF on the surviving
// pump. All of these are expected and are not session errors.
func IsExpectedClose(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
		return true
	}
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return errno == syscall.EPIPE || errno == syscall.ECONNRESET || errno == syscall.ENOTCONN
	}
	return false
}

// isAlreadyShutdown reports whether err is the benign result of
// shutting down a socket that is already shut down or closed.
func isAlreadyShutdown(err error) bool {
	if errors.Is(err, net.ErrClosed) {
		return true
	}
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return errno == syscall.ENOTCONN
	}
	return false
}
