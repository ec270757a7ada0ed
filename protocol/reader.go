// Copyright 2026 The Sbtlink Authors
// SPDX-License-Identifier: Apache-2.0

package protocol

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"syscall"
)

// ErrMalformedBody indicates a body whose braces balanced but whose
// bytes are not a valid JSON value. The brace scan and the validator
// disagreeing means the stream is corrupt; the session cannot be
// resynchronized and the error is terminal for the pump.
var ErrMalformedBody = errors.New("malformed message body")

// headerTerminator is the blank line that ends the header block.
var headerTerminator = []byte("\r\n\r\n")

// Reader turns a byte stream into a sequence of Messages. It tolerates
// arbitrary chunking of the underlying stream: all buffering happens in
// one internal bufio.Reader, so bytes past a message boundary are
// retained for the next call.
//
// A Reader is owned by a single pump goroutine and is not safe for
// concurrent use.
type Reader struct {
	source *bufio.Reader

	// Accumulation buffers, reused across messages.
	headers bytes.Buffer
	body    bytes.Buffer
}

// NewReader returns a Reader consuming from r.
func NewReader(r io.Reader) *Reader {
	return &Reader{source: bufio.NewReader(r)}
}

// ReadMessage blocks until one complete message has been read and
// returns it. The returned slices are copies; the Reader's internal
// buffers are reused by the next call.
//
// A stream that ends cleanly between messages returns io.EOF. A stream
// that ends mid-message returns io.ErrUnexpectedEOF. A body that fails
// validation returns ErrMalformedBody. Any other read failure is
// returned wrapped.
func (r *Reader) ReadMessage() (Message, error) {
	r.headers.Reset()
	r.body.Reset()

	if err := r.readHeaders(); err != nil {
		return Message{}, err
	}
	if err := r.readBody(); err != nil {
		return Message{}, err
	}

	return Message{
		Headers: append([]byte(nil), r.headers.Bytes()...),
		Body:    append([]byte(nil), r.body.Bytes()...),
	}, nil
}

// readByte reads one byte from the source, retrying reads interrupted
// by a signal.
func (r *Reader) readByte() (byte, error) {
	for {
		b, err := r.source.ReadByte()
		if err != nil && errors.Is(err, syscall.EINTR) {
			continue
		}
		return b, err
	}
}

// readHeaders accumulates bytes until the blank-line terminator. EOF
// before the first byte means the stream ended at a message boundary
// and surfaces as io.EOF; EOF anywhere later is truncation.
func (r *Reader) readHeaders() error {
	for {
		b, err := r.readByte()
		if err != nil {
			if errors.Is(err, io.EOF) && r.headers.Len() == 0 {
				return io.EOF
			}
			return readFailure(err, "headers")
		}
		r.headers.WriteByte(b)
		if bytes.HasSuffix(r.headers.Bytes(), headerTerminator) {
			return nil
		}
	}
}

// readBody accumulates bytes until the JSON value is brace-balanced,
// then validates it. Quote and escape state is tracked so that braces
// inside string literals never affect the depth count.
func (r *Reader) readBody() error {
	depth := 0
	seenBrace := false
	inString := false
	escaped := false

	for {
		b, err := r.readByte()
		if err != nil {
			return readFailure(err, "body")
		}
		r.body.WriteByte(b)

		if inString {
			switch {
			case escaped:
				escaped = false
			case b == '\\':
				escaped = true
			case b == '"':
				inString = false
			}
			continue
		}

		switch b {
		case '"':
			inString = true
			continue
		case '{':
			depth++
			seenBrace = true
		case '}':
			depth--
		}

		if seenBrace && depth == 0 {
			break
		}
	}

	if !json.Valid(r.body.Bytes()) {
		return fmt.Errorf("validate %d-byte body: %w", r.body.Len(), ErrMalformedBody)
	}
	return nil
}

// readFailure wraps a read error from the middle of a frame: EOF
// becomes io.ErrUnexpectedEOF, anything else is passed through with
// context.
func readFailure(err error, phase string) error {
	if errors.Is(err, io.EOF) {
		return fmt.Errorf("stream ended mid-%s: %w", phase, io.ErrUnexpectedEOF)
	}
	return fmt.Errorf("read %s: %w", phase, err)
}
