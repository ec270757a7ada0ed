// Copyright 2026 The Sbtlink Authors
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"fmt"
	"net"
	"time"
)

// tcpConn is the TCP transport variant. sbt writes tcp:// URIs into
// active.json on platforms without Unix domain sockets.
type tcpConn struct {
	conn *net.TCPConn
}

func dialTCP(hostPort string, timeout time.Duration) (Conn, error) {
	raw, err := net.DialTimeout("tcp", hostPort, timeout)
	if err != nil {
		return nil, fmt.Errorf("connect tcp %s: %w", hostPort, err)
	}
	return &tcpConn{conn: raw.(*net.TCPConn)}, nil
}

func (c *tcpConn) Read(p []byte) (int, error)  { return c.conn.Read(p) }
func (c *tcpConn) Write(p []byte) (int, error) { return c.conn.Write(p) }

func (c *tcpConn) Shutdown(direction Direction) error {
	return shutdown(direction, c.conn.CloseRead, c.conn.CloseWrite)
}

func (c *tcpConn) Clone() (Conn, error) {
	return &tcpConn{conn: c.conn}, nil
}
