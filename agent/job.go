// Copyright 2026 The Tidewire Authors
// SPDX-License-Identifier: Apache-2.0

package agent

// Status is the lifecycle state of an automation job.
type Status string

const (
	// StatusPending means the engine accepted the job but has not
	// begun driving the browser.
	StatusPending Status = "pending"
	// StatusRunning means the agent is actively working.
	StatusRunning Status = "running"
	// StatusWaitingHuman means the agent is blocked on an operator
	// intervention.
	StatusWaitingHuman Status = "waiting_human"
	// StatusCompleted is terminal: the agent produced a result.
	StatusCompleted Status = "completed"
	// StatusFailed is terminal: the engine reported an error.
	StatusFailed Status = "failed"
	// StatusCancelled is terminal: the operator cancelled the run.
	StatusCancelled Status = "cancelled"
)

// Terminal reports whether the status admits no further transitions.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// Known reports whether s is one of the defined lifecycle states.
func (s Status) Known() bool {
	switch s {
	case StatusPending, StatusRunning, StatusWaitingHuman,
		StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// Job is the single source of truth for one automation run. It is
// mutated exclusively by the sync loop applying reconciled channel
// messages; every other component reads snapshots.
type Job struct {
	// ID is the backend-assigned job identifier, immutable once set.
	ID string

	// Status is the current lifecycle state.
	Status Status

	// Progress is in [0,1]. Displayed progress never regresses on
	// stale messages, enforced by reconciliation rather than by the
	// engine.
	Progress float64

	// CurrentStep and MaxSteps count agent steps. CurrentStep may
	// exceed MaxSteps on a misbehaving engine; display code clamps.
	CurrentStep int
	MaxSteps    int

	// URLsVisited is the ordered, append-only list of pages visited,
	// authoritative from the poll channel.
	URLsVisited []string

	// Result is the agent's output, present once Status is
	// StatusCompleted.
	Result string

	// Error is the engine's failure message, present once Status is
	// StatusFailed.
	Error string

	// Intervention context, populated while Status is
	// StatusWaitingHuman. Screenshot is a base64-encoded image.
	InterventionType       string
	InterventionReason     string
	InterventionScreenshot string

	// CurrentURL is the page the browser is on, updated from either
	// channel.
	CurrentURL string
}

// Clone returns a deep copy safe to hand outside the sync loop.
func (j Job) Clone() Job {
	copied := j
	if j.URLsVisited != nil {
		copied.URLsVisited = append([]string(nil), j.URLsVisited...)
	}
	return copied
}
