// Copyright 2026 The Tidewire Authors
// SPDX-License-Identifier: Apache-2.0

package agent

import "context"

// Intervention is the coordinator for the waiting_human state: a thin
// façade over the controller's job snapshot. It holds no state of its
// own — screenshot, reason, and type are read from the Job record —
// and its one responsibility beyond forwarding is rejecting a
// submission that raced with the job resuming on its own.
type Intervention struct {
	controller *Controller
}

// Active reports whether the job is currently waiting for human
// input.
func (i *Intervention) Active() bool {
	return i.controller.Job().Status == StatusWaitingHuman
}

// Context returns the current intervention view: type, reason,
// base64 screenshot, and the page the browser is on. Zero values when
// the job is not waiting.
func (i *Intervention) Context() (interventionType, reason, screenshot, currentURL string) {
	job := i.controller.Job()
	if job.Status != StatusWaitingHuman {
		return "", "", "", ""
	}
	return job.InterventionType, job.InterventionReason, job.InterventionScreenshot, job.CurrentURL
}

// Submit encodes nothing itself — callers build the HumanAction with
// EncodeAction — and forwards it to the engine. Returns
// ErrNotWaitingHuman when the job has already moved on (the operator
// clicked submit after the agent resumed), ErrCancelPending while a
// cancel is in flight.
func (i *Intervention) Submit(ctx context.Context, action HumanAction) error {
	return i.controller.SubmitIntervention(ctx, action)
}
