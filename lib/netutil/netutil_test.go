// Copyright 2026 The Tidewire Authors
// SPDX-License-Identifier: Apache-2.0

package netutil

import (
	"strings"
	"testing"
)

func TestReadResponse(t *testing.T) {
	t.Parallel()
	data, err := ReadResponse(strings.NewReader(`{"ok":true}`))
	if err != nil {
		t.Fatalf("ReadResponse: %v", err)
	}
	if string(data) != `{"ok":true}` {
		t.Errorf("body = %q", data)
	}
}

func TestDecodeResponse(t *testing.T) {
	t.Parallel()
	var decoded struct {
		JobID string `json:"job_id"`
	}
	err := DecodeResponse(strings.NewReader(`{"job_id":"j-1"}`), &decoded)
	if err != nil {
		t.Fatalf("DecodeResponse: %v", err)
	}
	if decoded.JobID != "j-1" {
		t.Errorf("JobID = %q, want j-1", decoded.JobID)
	}
}

func TestDecodeResponseInvalidJSON(t *testing.T) {
	t.Parallel()
	var target map[string]any
	if err := DecodeResponse(strings.NewReader("not json"), &target); err == nil {
		t.Fatal("expected error for invalid JSON")
	}
}
