// Copyright 2026 The Sbtlink Authors
// SPDX-License-Identifier: Apache-2.0

package relay

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/sbtlink/sbtlink/protocol"
	"github.com/sbtlink/sbtlink/transport"
)

// Relay bridges local stdio streams to an sbt server connection.
type Relay struct {
	// Conn is the connection to the sbt server. Run clones it so the
	// two pumps hold separate handles over the same socket.
	Conn transport.Conn

	// Input is the local stream carrying client→server messages
	// (normally os.Stdin).
	Input io.Reader

	// Output is the local stream receiving server→client messages
	// (normally os.Stdout). Nothing but relayed message bytes may be
	// written to it — diagnostics go to the Logger.
	Output io.Writer

	// Logger receives structured log output. If nil, slog.Default()
	// is used. Per-message events are logged at Debug level; pump
	// failures at Error.
	Logger *slog.Logger
}

// pumpResult is the completion report from one pump.
type pumpResult struct {
	name     string
	messages int
	err      error
}

// logger returns the configured logger or the default.
func (r *Relay) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}

// Run starts both pumps and blocks until the first one finishes. By
// then the finishing pump has already shut the shared socket down, so
// the surviving pump is unblocking concurrently; Run does not wait for
// it — the process is about to exit and in-flight data in the other
// direction is not flushed further than it already was.
//
// Returns nil when the session ended through normal connection
// teardown (peer EOF, interrupt-triggered shutdown, reset) and the
// first pump's error otherwise.
func (r *Relay) Run() error {
	if r.Conn == nil {
		return fmt.Errorf("relay: Conn is required")
	}
	if r.Input == nil || r.Output == nil {
		return fmt.Errorf("relay: Input and Output are required")
	}

	serverWrite, err := r.Conn.Clone()
	if err != nil {
		return fmt.Errorf("relay: clone connection: %w", err)
	}

	done := make(chan pumpResult, 2)

	go r.pump("stdin→server", protocol.NewReader(r.Input), serverWrite, serverWrite, done)
	go r.pump("server→stdout", protocol.NewReader(r.Conn), r.Output, r.Conn, done)

	first := <-done
	r.logger().Info("session ended",
		"first_pump", first.name,
		"messages", first.messages,
	)
	if first.err != nil && !transport.IsExpectedClose(first.err) {
		return first.err
	}
	return nil
}

// pump relays messages from source to sink until either side fails,
// then shuts the shared socket down in both directions and reports
// completion. The shutdown is what unblocks the peer pump; the done
// channel has room for both reports so neither send can block even
// though only the first is consumed.
func (r *Relay) pump(name string, source *protocol.Reader, sink io.Writer, conn transport.Conn, done chan<- pumpResult) {
	logger := r.logger().With("pump", name)

	messages := 0
	var failure error
	for {
		message, err := source.ReadMessage()
		if err != nil {
			failure = err
			break
		}
		if err := protocol.WriteMessage(sink, message); err != nil {
			failure = err
			break
		}
		messages++
		logger.Debug("relayed message",
			"bytes", len(message.Headers)+len(message.Body),
		)
	}

	// EOF at a message boundary is the peer ending the session.
	if errors.Is(failure, io.EOF) {
		failure = nil
	}

	if failure != nil && !transport.IsExpectedClose(failure) {
		logger.Error("pump failed", "error", failure, "messages", messages)
	} else {
		logger.Debug("pump finished", "messages", messages)
	}

	if err := conn.Shutdown(transport.Both); err != nil {
		logger.Error("shutdown after pump exit failed", "error", err)
	}

	done <- pumpResult{name: name, messages: messages, err: failure}
}
