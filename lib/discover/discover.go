// Copyright 2026 The Sbtlink Authors
// SPDX-License-Identifier: Apache-2.0

// Package discover locates a running sbt server. sbt writes a
// connection file at project/target/active.json inside the build root
// while the server is up; the bridge finds it by walking ancestor
// directories from its working directory, the same way sbt clients do.
package discover

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tidwall/jsonc"
)

// DefaultRelPath is the connection file's location relative to the
// build root.
const DefaultRelPath = "project/target/active.json"

var (
	// ErrNotFound indicates no ancestor directory contains the
	// connection file — usually the server is not running or the
	// working directory is outside the build.
	ErrNotFound = errors.New("no sbt server connection file found")

	// ErrInvalidData indicates the connection file exists but is not
	// one of the shapes sbt writes.
	ErrInvalidData = errors.New("unrecognized connection file contents")
)

// activeFile covers both shapes sbt writes: {"uri": ...} and
// {"uri": ..., "tokenfilePath": ..., "tokenfileUri": ...}. The
// tokenfile fields are validated as a pair but otherwise unused — the
// local transports the bridge supports do not require the token
// handshake.
type activeFile struct {
	URI           string `json:"uri"`
	TokenfilePath string `json:"tokenfilePath"`
	TokenfileURI  string `json:"tokenfileUri"`
}

// ServerURI walks from startDir upward and returns the server URI from
// the first connection file found. relPath is the file's path relative
// to each candidate directory; empty selects DefaultRelPath.
func ServerURI(startDir, relPath string) (string, error) {
	if relPath == "" {
		relPath = DefaultRelPath
	}
	relPath = filepath.FromSlash(relPath)

	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", startDir, err)
	}

	for {
		candidate := filepath.Join(dir, relPath)
		if _, err := os.Stat(candidate); err == nil {
			return parseActive(candidate)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("%w (searched %s upward for %s)", ErrNotFound, startDir, relPath)
		}
		dir = parent
	}
}

// parseActive decodes one connection file and extracts the server URI.
// The file is passed through a comment stripper first so a hand-edited
// file with jsonc annotations still loads.
func parseActive(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}

	var active activeFile
	if err := json.Unmarshal(jsonc.ToJSON(data), &active); err != nil {
		return "", fmt.Errorf("parse %s: %w: %v", path, ErrInvalidData, err)
	}
	if active.URI == "" {
		return "", fmt.Errorf("parse %s: %w: missing uri field", path, ErrInvalidData)
	}
	if (active.TokenfilePath == "") != (active.TokenfileURI == "") {
		return "", fmt.Errorf("parse %s: %w: tokenfilePath and tokenfileUri must appear together", path, ErrInvalidData)
	}
	return active.URI, nil
}
