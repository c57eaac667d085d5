// Copyright 2026 The Tidewire Authors
// SPDX-License-Identifier: Apache-2.0

// Package agent is the client-side controller for long-running
// browser-automation jobs.
//
// A job is started over REST, then tracked through two transports at
// once: a WebSocket push channel delivering low-latency best-effort
// updates, and a periodic REST poll fetching the authoritative job
// snapshot. The two feeds can race, duplicate, or silently fail;
// reconciliation (ApplyPoll, ApplyPush) merges them into one
// consistent Job record with two hard rules — the poll channel wins
// on status, and a terminal status is a trap state no later message
// can leave.
//
// When the engine parks a job in StatusWaitingHuman, the Intervention
// coordinator exposes the last screenshot and reason, and forwards an
// operator-built HumanAction (click, type, navigate, scroll, custom
// script, skip, or abort) back to the engine to unblock the run.
//
// Layering, leaves first: wire types and the action encoder are pure;
// reconciliation is a pure function; Sync owns the two transports and
// the Job record; Controller orchestrates start/cancel/intervention
// against the engine and wires the capture, history, and notification
// collaborators.
package agent
