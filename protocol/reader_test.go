// Copyright 2026 The Sbtlink Authors
// SPDX-License-Identifier: Apache-2.0

package protocol

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
)

// chunkReader delivers its data at most size bytes per Read call,
// forcing the Reader to reassemble messages from partial deliveries.
type chunkReader struct {
	data []byte
	size int
}

func (r *chunkReader) Read(p []byte) (int, error) {
	if len(r.data) == 0 {
		return 0, io.EOF
	}
	n := r.size
	if n > len(r.data) {
		n = len(r.data)
	}
	if n > len(p) {
		n = len(p)
	}
	copy(p, r.data[:n])
	r.data = r.data[n:]
	return n, nil
}

// readAll drains every message from input delivered in chunkSize-byte
// reads, stopping at clean EOF.
func readAll(t *testing.T, input string, chunkSize int) []Message {
	t.Helper()
	reader := NewReader(&chunkReader{data: []byte(input), size: chunkSize})
	var messages []Message
	for {
		message, err := reader.ReadMessage()
		if err == io.EOF {
			return messages
		}
		if err != nil {
			t.Fatalf("ReadMessage: %v", err)
		}
		messages = append(messages, message)
	}
}

func TestReadMessage_TwoFrames(t *testing.T) {
	input := "Header: x\r\n\r\n{\"id\":1}" + "Header: y\r\n\r\n{\"id\":2}"

	for _, chunkSize := range []int{1, len(input)} {
		messages := readAll(t, input, chunkSize)
		if len(messages) != 2 {
			t.Fatalf("chunk size %d: got %d messages, want 2", chunkSize, len(messages))
		}
		if got := string(messages[0].Headers); got != "Header: x\r\n\r\n" {
			t.Fatalf("first headers: got %q", got)
		}
		if got := string(messages[0].Body); got != `{"id":1}` {
			t.Fatalf("first body: got %q", got)
		}
		if got := string(messages[1].Headers); got != "Header: y\r\n\r\n" {
			t.Fatalf("second headers: got %q", got)
		}
		if got := string(messages[1].Body); got != `{"id":2}` {
			t.Fatalf("second body: got %q", got)
		}
	}
}

func TestReadMessage_ChunkSizeIndependence(t *testing.T) {
	input := "Content-Type: application/vscode-jsonrpc\r\nX: y\r\n\r\n" +
		`{"jsonrpc":"2.0","method":"compile","params":{"targets":["{a}","b"]}}` +
		"H: 1\r\n\r\n" + `{"a":{"b":{"c":[1,2,3]},"d":"}e{"}}`

	reference := readAll(t, input, len(input))
	if len(reference) != 2 {
		t.Fatalf("got %d messages, want 2", len(reference))
	}

	for chunkSize := 1; chunkSize <= 9; chunkSize++ {
		messages := readAll(t, input, chunkSize)
		if len(messages) != len(reference) {
			t.Fatalf("chunk size %d: got %d messages, want %d", chunkSize, len(messages), len(reference))
		}
		for i := range messages {
			if !bytes.Equal(messages[i].Headers, reference[i].Headers) {
				t.Fatalf("chunk size %d, message %d: headers %q, want %q",
					chunkSize, i, messages[i].Headers, reference[i].Headers)
			}
			if !bytes.Equal(messages[i].Body, reference[i].Body) {
				t.Fatalf("chunk size %d, message %d: body %q, want %q",
					chunkSize, i, messages[i].Body, reference[i].Body)
			}
		}
	}
}

func TestReadMessage_QuotedBrace(t *testing.T) {
	t.Run("close brace in string", func(t *testing.T) {
		messages := readAll(t, "H: x\r\n\r\n"+`{"a":"}"}`, 1)
		if len(messages) != 1 {
			t.Fatalf("got %d messages, want 1", len(messages))
		}
		if got := string(messages[0].Body); got != `{"a":"}"}` {
			t.Fatalf("body: got %q", got)
		}
	})

	t.Run("open braces in string", func(t *testing.T) {
		messages := readAll(t, "H: x\r\n\r\n"+`{"a":"{{{"}`, 1)
		if len(messages) != 1 {
			t.Fatalf("got %d messages, want 1", len(messages))
		}
		if got := string(messages[0].Body); got != `{"a":"{{{"}` {
			t.Fatalf("body: got %q", got)
		}
	})
}

func TestReadMessage_EscapedQuote(t *testing.T) {
	t.Run("escaped quote stays in string", func(t *testing.T) {
		messages := readAll(t, "H: x\r\n\r\n"+`{"a":"\""}`, 1)
		if len(messages) != 1 {
			t.Fatalf("got %d messages, want 1", len(messages))
		}
		if got := string(messages[0].Body); got != `{"a":"\""}` {
			t.Fatalf("body: got %q", got)
		}
	})

	t.Run("escaped backslash before closing quote", func(t *testing.T) {
		messages := readAll(t, "H: x\r\n\r\n"+`{"a":"\\"}`, 1)
		if len(messages) != 1 {
			t.Fatalf("got %d messages, want 1", len(messages))
		}
		if got := string(messages[0].Body); got != `{"a":"\\"}` {
			t.Fatalf("body: got %q", got)
		}
	})

	t.Run("escaped brace-quote sequence", func(t *testing.T) {
		messages := readAll(t, "H: x\r\n\r\n"+`{"a":"\"}\""}`, 1)
		if len(messages) != 1 {
			t.Fatalf("got %d messages, want 1", len(messages))
		}
	})
}

func TestReadMessage_Truncation(t *testing.T) {
	t.Run("mid-headers", func(t *testing.T) {
		reader := NewReader(strings.NewReader("Content-Length: 5\r\n"))
		_, err := reader.ReadMessage()
		if !errors.Is(err, io.ErrUnexpectedEOF) {
			t.Fatalf("got %v, want io.ErrUnexpectedEOF", err)
		}
	})

	t.Run("mid-body unbalanced braces", func(t *testing.T) {
		reader := NewReader(strings.NewReader("H: x\r\n\r\n" + `{"a":`))
		_, err := reader.ReadMessage()
		if !errors.Is(err, io.ErrUnexpectedEOF) {
			t.Fatalf("got %v, want io.ErrUnexpectedEOF", err)
		}
	})

	t.Run("mid-body inside string", func(t *testing.T) {
		reader := NewReader(strings.NewReader("H: x\r\n\r\n" + `{"a":"unterminated`))
		_, err := reader.ReadMessage()
		if !errors.Is(err, io.ErrUnexpectedEOF) {
			t.Fatalf("got %v, want io.ErrUnexpectedEOF", err)
		}
	})

	t.Run("empty stream is clean EOF", func(t *testing.T) {
		reader := NewReader(strings.NewReader(""))
		_, err := reader.ReadMessage()
		if err != io.EOF {
			t.Fatalf("got %v, want io.EOF", err)
		}
	})

	t.Run("EOF after a complete message is clean", func(t *testing.T) {
		reader := NewReader(strings.NewReader("H: x\r\n\r\n{}"))
		if _, err := reader.ReadMessage(); err != nil {
			t.Fatalf("first ReadMessage: %v", err)
		}
		if _, err := reader.ReadMessage(); err != io.EOF {
			t.Fatalf("second ReadMessage: got %v, want io.EOF", err)
		}
	})
}

func TestReadMessage_MalformedBody(t *testing.T) {
	// "}{" balances at the second byte (depth returns to zero with a
	// brace seen) but is not JSON: the scan and the validator disagree
	// and the stream cannot be resynchronized.
	reader := NewReader(strings.NewReader("H: x\r\n\r\n}{"))
	_, err := reader.ReadMessage()
	if !errors.Is(err, ErrMalformedBody) {
		t.Fatalf("got %v, want ErrMalformedBody", err)
	}
}

func TestReadMessage_BodyWithWhitespace(t *testing.T) {
	body := "{\n  \"a\": 1,\r\n  \"b\": [true, null]\n}"
	messages := readAll(t, "H: x\r\n\r\n"+body, 3)
	if len(messages) != 1 {
		t.Fatalf("got %d messages, want 1", len(messages))
	}
	if got := string(messages[0].Body); got != body {
		t.Fatalf("body: got %q, want %q", got, body)
	}
}

func TestReadMessage_BuffersAreCopies(t *testing.T) {
	input := "A: 1\r\n\r\n{\"n\":1}" + "B: 2\r\n\r\n{\"n\":2}"
	reader := NewReader(strings.NewReader(input))

	first, err := reader.ReadMessage()
	if err != nil {
		t.Fatalf("first ReadMessage: %v", err)
	}
	if _, err := reader.ReadMessage(); err != nil {
		t.Fatalf("second ReadMessage: %v", err)
	}

	// The first message must not be clobbered by the Reader reusing
	// its accumulation buffers for the second.
	if got := string(first.Headers); got != "A: 1\r\n\r\n" {
		t.Fatalf("first headers after second read: got %q", got)
	}
	if got := string(first.Body); got != `{"n":1}` {
		t.Fatalf("first body after second read: got %q", got)
	}
}

func TestRoundTrip(t *testing.T) {
	input := "Content-Length: 8\r\n\r\n{\"id\":1}" +
		"X-Session: abc\r\nX-Seq: 2\r\n\r\n" + `{"result":{"ok":true,"warnings":["{\"nested\""]}}`

	var output bytes.Buffer
	for _, message := range readAll(t, input, 1) {
		if err := WriteMessage(&output, message); err != nil {
			t.Fatalf("WriteMessage: %v", err)
		}
	}

	if output.String() != input {
		t.Fatalf("round trip mismatch:\ngot  %q\nwant %q", output.String(), input)
	}
}

// failWriter fails every write after the first n bytes.
type failWriter struct {
	remaining int
}

func (w *failWriter) Write(p []byte) (int, error) {
	if len(p) > w.remaining {
		n := w.remaining
		w.remaining = 0
		return n, errors.New("sink full")
	}
	w.remaining -= len(p)
	return len(p), nil
}

func TestWriteMessage_Errors(t *testing.T) {
	message := Message{Headers: []byte("H: x\r\n\r\n"), Body: []byte("{}")}

	t.Run("header write failure", func(t *testing.T) {
		if err := WriteMessage(&failWriter{remaining: 2}, message); err == nil {
			t.Fatal("expected error writing headers")
		}
	})

	t.Run("body write failure", func(t *testing.T) {
		if err := WriteMessage(&failWriter{remaining: len(message.Headers)}, message); err == nil {
			t.Fatal("expected error writing body")
		}
	})
}
