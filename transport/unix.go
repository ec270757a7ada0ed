// Copyright 2026 The Sbtlink Authors
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"fmt"
	"net"
	"time"
)

// unixConn is the Unix domain socket transport variant, selected by the
// local:// URIs sbt writes into active.json on Unix.
type unixConn struct {
	conn *net.UnixConn
}

func dialUnix(path string, timeout time.Duration) (Conn, error) {
	raw, err := net.DialTimeout("unix", path, timeout)
	if err != nil {
		return nil, fmt.Errorf("connect unix socket %s: %w", path, err)
	}
	return &unixConn{conn: raw.(*net.UnixConn)}, nil
}

func (c *unixConn) Read(p []byte) (int, error)  { return c.conn.Read(p) }
func (c *unixConn) Write(p []byte) (int, error) { return c.conn.Write(p) }

func (c *unixConn) Shutdown(direction Direction) error {
	return shutdown(direction, c.conn.CloseRead, c.conn.CloseWrite)
}

func (c *unixConn) Clone() (Conn, error) {
	return &unixConn{conn: c.conn}, nil
}
