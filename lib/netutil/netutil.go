// Copyright 2026 The Tidewire Authors
// SPDX-License-Identifier: Apache-2.0

// Package netutil provides HTTP I/O helpers shared by the engine REST
// client.
//
// ReadResponse and DecodeResponse bound all response body reads at
// MaxResponseSize to prevent unbounded memory allocation from a
// misbehaving server. They are for JSON API responses, not for
// streaming bodies, which should be read incrementally.
package netutil

import (
	"encoding/json"
	"fmt"
	"io"
)

// MaxResponseSize bounds JSON API response body reads: 64 MB. Job
// snapshots carry base64 screenshots, so the limit is generous, but it
// still prevents a pathological response from exhausting memory.
const MaxResponseSize int64 = 64 << 20

// ReadResponse reads an HTTP response body in full, bounded at
// MaxResponseSize. Returns an error if the body exceeds the bound.
func ReadResponse(body io.Reader) ([]byte, error) {
	limited := io.LimitReader(body, MaxResponseSize+1)
	data, err := io.ReadAll(limited)
	if err != nil {
		return nil, fmt.Errorf("netutil: reading response body: %w", err)
	}
	if int64(len(data)) > MaxResponseSize {
		return nil, fmt.Errorf("netutil: response body exceeds %d byte limit", MaxResponseSize)
	}
	return data, nil
}

// DecodeResponse reads a bounded response body and unmarshals it as
// JSON into target.
func DecodeResponse(body io.Reader, target any) error {
	data, err := ReadResponse(body)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("netutil: decoding JSON response: %w", err)
	}
	return nil
}
