// Copyright 2026 The Sbtlink Authors
// SPDX-License-Identifier: Apache-2.0

package protocol

import (
	"fmt"
	"io"
	"strings"
)

// Message is one complete framed protocol message, held as raw bytes
// for verbatim relaying.
type Message struct {
	// Headers is the raw header block, including the terminating blank
	// line. Individual header fields are never parsed.
	Headers []byte

	// Body is the raw JSON body, a syntactically complete value.
	Body []byte
}

// WriteMessage writes m to w exactly as it was read: header block
// first, then body, with no transformation.
func WriteMessage(w io.Writer, m Message) error {
	if _, err := w.Write(m.Headers); err != nil {
		return fmt.Errorf("write message headers: %w", err)
	}
	if _, err := w.Write(m.Body); err != nil {
		return fmt.Errorf("write message body: %w", err)
	}
	return nil
}

// String renders the message for debug logging, with header line
// breaks collapsed. Bodies can be large; callers log at debug level.
func (m Message) String() string {
	headers := strings.ReplaceAll(strings.TrimSuffix(string(m.Headers), "\r\n\r\n"), "\r\n", "; ")
	return fmt.Sprintf("Message(%q, %s)", headers, m.Body)
}
