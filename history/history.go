// Copyright 2026 The Tidewire Authors
// SPDX-License-Identifier: Apache-2.0

// Package history records finished automation runs. The job
// controller calls the Recorder exactly once per job, when a terminal
// status is observed.
package history

import (
	"time"
)

// Outcome classifies how a run ended.
type Outcome string

const (
	// OutcomeCompleted means the agent finished and produced a result.
	OutcomeCompleted Outcome = "completed"
	// OutcomeFailed means the engine reported a failure.
	OutcomeFailed Outcome = "failed"
	// OutcomeCancelled means the operator cancelled the run.
	OutcomeCancelled Outcome = "cancelled"
)

// Record is one finished automation run.
type Record struct {
	// Timestamp is when the terminal status was observed.
	Timestamp time.Time `json:"timestamp"`

	// Outcome is the terminal classification.
	Outcome Outcome `json:"outcome"`

	// Task is the natural-language task the run was started with.
	Task string `json:"task"`

	// Result is the agent's result text. Set only for completed runs.
	Result string `json:"result,omitempty"`

	// Error is the engine-reported failure message. Set only for
	// failed runs.
	Error string `json:"error,omitempty"`

	// URLsVisited is the ordered list of pages the agent visited.
	URLsVisited []string `json:"urls_visited,omitempty"`

	// Duration is wall-clock time from start to terminal status.
	Duration time.Duration `json:"duration_ms"`
}

// Recorder persists finished runs. Implementations must tolerate being
// called from the controller's sync goroutine: Append should not
// block indefinitely.
type Recorder interface {
	Append(record Record) error
}

// Discard is a Recorder that drops every record. Used when history is
// disabled.
type Discard struct{}

// Append implements Recorder.
func (Discard) Append(Record) error { return nil }
