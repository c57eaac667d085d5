// Copyright 2026 The Tidewire Authors
// SPDX-License-Identifier: Apache-2.0

package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// JSONLRecorder appends one JSON object per line to a file. Lines are
// written atomically under a mutex, so records from interleaved jobs
// never interleave bytes.
type JSONLRecorder struct {
	mu   sync.Mutex
	path string
}

// NewJSONLRecorder creates the parent directory if needed and returns
// a recorder appending to path.
func NewJSONLRecorder(path string) (*JSONLRecorder, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("history: creating directory for %s: %w", path, err)
	}
	return &JSONLRecorder{path: path}, nil
}

// Append implements Recorder. The file is opened per call so an
// external rotation or deletion between runs does not strand a stale
// file handle.
func (r *JSONLRecorder) Append(record Record) error {
	line, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("history: encoding record: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	file, err := os.OpenFile(r.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("history: opening %s: %w", r.path, err)
	}
	defer file.Close()

	if _, err := file.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("history: appending to %s: %w", r.path, err)
	}
	return nil
}
