// Copyright 2026 The Tidewire Authors
// SPDX-License-Identifier: Apache-2.0

package agent

import (
	"errors"
	"fmt"
)

// EngineError is a structured error response from the automation
// engine. Extract it with errors.As:
//
//	var engineErr *agent.EngineError
//	if errors.As(err, &engineErr) && engineErr.StatusCode == 404 { ... }
type EngineError struct {
	// StatusCode is the HTTP status of the response.
	StatusCode int `json:"-"`
	// Code is the engine's machine-readable error code, when present.
	Code string `json:"code"`
	// Message is the human-readable description from the engine.
	Message string `json:"error"`
}

func (e *EngineError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("engine: %s (%d): %s", e.Code, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("engine: %d: %s", e.StatusCode, e.Message)
}

// StartError means the initiating call failed and no job was created.
// Surfaced directly to the user; never retried.
type StartError struct {
	Err error
}

func (e *StartError) Error() string { return fmt.Sprintf("agent: start failed: %v", e.Err) }
func (e *StartError) Unwrap() error { return e.Err }

// ChannelError means the push channel failed to connect or dropped.
// Non-fatal: the sync loop falls back to poll-only and the error is
// surfaced only as a connectivity indicator.
type ChannelError struct {
	Err error
}

func (e *ChannelError) Error() string { return fmt.Sprintf("agent: push channel: %v", e.Err) }
func (e *ChannelError) Unwrap() error { return e.Err }

// ActionSubmitError means an intervention action failed to reach the
// engine. The job remains in waiting_human so the operator can retry.
type ActionSubmitError struct {
	Err error
}

func (e *ActionSubmitError) Error() string {
	return fmt.Sprintf("agent: intervention submit failed: %v", e.Err)
}
func (e *ActionSubmitError) Unwrap() error { return e.Err }

// Operation validity errors returned by the controller's state
// machine before any request is sent.
var (
	// ErrNoActiveJob means the operation needs a started job.
	ErrNoActiveJob = errors.New("agent: no active job")

	// ErrJobTerminal means the job already reached a terminal status.
	ErrJobTerminal = errors.New("agent: job already terminal")

	// ErrNotWaitingHuman means an intervention was submitted while the
	// job was not waiting for one — typically a race between the
	// operator clicking submit and the job resuming on its own.
	ErrNotWaitingHuman = errors.New("agent: job is not waiting for intervention")

	// ErrCancelPending means a cancel request is in flight and further
	// cancel or intervention submissions are blocked until a channel
	// confirms the transition.
	ErrCancelPending = errors.New("agent: cancel request already in flight")
)
