// Copyright 2026 The Tidewire Authors
// SPDX-License-Identifier: Apache-2.0

package agent

// Reconciliation merges the two transports into one Job record. Both
// functions are pure: (prior, message) -> (next, applied). The sync
// loop is the only caller; everything here is independently testable
// without a network or a timer.
//
// The rules, in priority order:
//
//  1. Terminal is a trap state. Once the job is completed, failed, or
//     cancelled, any message that would change status — from either
//     channel — is discarded as stale.
//  2. The poll channel is authoritative for status, result, error,
//     and urls_visited.
//  3. The push channel updates only the incremental fields it carries
//     (progress, step, screenshot, current URL) and may set status
//     only for the explicitly allowed forward transitions: the three
//     terminal types and intervention_requested.
//  4. Displayed progress never regresses: a stale message with a
//     lower progress value keeps the prior value.

// ApplyPoll merges an authoritative poll snapshot into the job.
// Returns the next job and whether the snapshot was applied; a false
// return means the snapshot was discarded as stale (it would have
// moved a terminal job back to a non-terminal status).
func ApplyPoll(prior Job, snapshot StatusSnapshot) (Job, bool) {
	if prior.Status.Terminal() && snapshot.Status != prior.Status {
		// A late poll response raced with the terminal transition.
		// Terminal is sticky regardless of source.
		return prior, false
	}

	next := prior
	next.Status = snapshot.Status
	next.Result = snapshot.Result
	next.Error = snapshot.Error
	if snapshot.URLsVisited != nil {
		next.URLsVisited = snapshot.URLsVisited
	}
	next.Progress = maxProgress(prior.Progress, snapshot.Progress)
	if snapshot.CurrentStep > 0 {
		next.CurrentStep = snapshot.CurrentStep
	}
	if snapshot.MaxSteps > 0 {
		next.MaxSteps = snapshot.MaxSteps
	}
	if snapshot.CurrentURL != "" {
		next.CurrentURL = snapshot.CurrentURL
	}

	if snapshot.Status == StatusWaitingHuman {
		next.InterventionType = snapshot.InterventionType
		next.InterventionReason = snapshot.InterventionReason
		if snapshot.InterventionScreenshot != "" {
			next.InterventionScreenshot = snapshot.InterventionScreenshot
		}
	} else {
		next.InterventionType = ""
		next.InterventionReason = ""
	}
	return next, true
}

// ApplyPush merges a best-effort push message into the job. Returns
// the next job and whether the message was applied; pushes arriving
// after a terminal status are discarded wholesale.
func ApplyPush(prior Job, message PushMessage) (Job, bool) {
	if prior.Status.Terminal() {
		return prior, false
	}

	next := prior
	switch message.Type {
	case PushStepUpdate:
		if message.Progress != nil {
			next.Progress = maxProgress(prior.Progress, *message.Progress)
		}
		if message.CurrentStep != nil {
			next.CurrentStep = *message.CurrentStep
		}
		if message.Screenshot != "" {
			next.InterventionScreenshot = message.Screenshot
		}
		if message.CurrentURL != "" {
			next.CurrentURL = message.CurrentURL
		}

	case PushInterventionRequested:
		next.Status = StatusWaitingHuman
		next.InterventionReason = message.Reason
		if message.Screenshot != "" {
			next.InterventionScreenshot = message.Screenshot
		}

	case PushCompleted:
		next.Status = StatusCompleted
		next.Progress = 1

	case PushFailed:
		next.Status = StatusFailed
		if message.Error != "" {
			next.Error = message.Error
		}

	case PushCancelled:
		next.Status = StatusCancelled

	case PushScreenshot:
		if message.Data != "" {
			next.InterventionScreenshot = message.Data
		}
		if message.CurrentURL != "" {
			next.CurrentURL = message.CurrentURL
		}

	default:
		// ParsePushMessage rejects unknown types before they get here.
		return prior, false
	}
	return next, true
}

func maxProgress(a, b float64) float64 {
	if b > a {
		return b
	}
	return a
}
