// Copyright 2026 The Tidewire Authors
// SPDX-License-Identifier: Apache-2.0

package agent

import (
	"encoding/json"
	"fmt"
)

// StartRequest is the body of POST /api/v1/agent/start.
type StartRequest struct {
	// Task is the natural-language instruction for the agent.
	Task string `json:"task"`

	// URL optionally pins the starting page.
	URL string `json:"url,omitempty"`

	// MaxSteps bounds the number of agent steps. Zero lets the engine
	// choose its default.
	MaxSteps int `json:"max_steps,omitempty"`

	// AllowIntervention lets the engine park the job in waiting_human
	// instead of failing when it gets stuck.
	AllowIntervention bool `json:"allow_intervention"`
}

// StartResponse is the engine's acknowledgment of a start call.
type StartResponse struct {
	JobID string `json:"job_id"`
}

// StatusSnapshot is the full job state returned by
// GET /api/v1/agent/status/{job_id}. The poll channel is ground
// truth: reconciliation takes status, result, error, and urls_visited
// from here unconditionally (terminal stickiness aside).
type StatusSnapshot struct {
	JobID                  string   `json:"job_id"`
	Status                 Status   `json:"status"`
	Progress               float64  `json:"progress"`
	CurrentStep            int      `json:"current_step"`
	MaxSteps               int      `json:"max_steps"`
	URLsVisited            []string `json:"urls_visited,omitempty"`
	Result                 string   `json:"result,omitempty"`
	Error                  string   `json:"error,omitempty"`
	InterventionType       string   `json:"intervention_type,omitempty"`
	InterventionReason     string   `json:"intervention_reason,omitempty"`
	InterventionScreenshot string   `json:"intervention_screenshot,omitempty"`
	CurrentURL             string   `json:"current_url,omitempty"`
}

// InterventionRequest is the body of POST /api/v1/agent/intervention/{job_id}.
type InterventionRequest struct {
	Action HumanAction `json:"action"`
}

// ManualInterventionResponse acknowledges a manual takeover request
// with enough context to render the intervention view immediately.
type ManualInterventionResponse struct {
	Screenshot string `json:"screenshot,omitempty"`
	CurrentURL string `json:"current_url,omitempty"`
}

// HealthResponse is GET /api/v1/agent/health.
type HealthResponse struct {
	Status              string `json:"status"`
	ActiveJobs          int    `json:"active_jobs"`
	WaitingIntervention int    `json:"waiting_intervention"`
}

// PushType discriminates WebSocket push messages.
type PushType string

const (
	// PushStepUpdate carries incremental progress between polls.
	PushStepUpdate PushType = "step_update"
	// PushInterventionRequested signals the job entered waiting_human.
	PushInterventionRequested PushType = "intervention_requested"
	// PushCompleted signals terminal success. The result text arrives
	// via the poll channel.
	PushCompleted PushType = "completed"
	// PushFailed signals terminal failure.
	PushFailed PushType = "failed"
	// PushCancelled signals terminal cancellation.
	PushCancelled PushType = "cancelled"
	// PushScreenshot carries a fresh screenshot outside a step
	// boundary.
	PushScreenshot PushType = "screenshot"
)

// PushMessage is the closed union of WebSocket messages. One struct
// with a type discriminator rather than per-type structs: every field
// is optional on the wire and the single ingestion point in the sync
// loop does the exhaustive dispatch.
type PushMessage struct {
	Type PushType `json:"type"`

	// step_update and screenshot fields. Progress and CurrentStep use
	// pointers so "absent" and "zero" stay distinguishable.
	Screenshot  string   `json:"screenshot,omitempty"`
	Data        string   `json:"data,omitempty"`
	CurrentURL  string   `json:"current_url,omitempty"`
	Progress    *float64 `json:"progress,omitempty"`
	CurrentStep *int     `json:"current_step,omitempty"`

	// intervention_requested fields.
	Reason string `json:"reason,omitempty"`

	// failed fields.
	Error string `json:"error,omitempty"`
}

// ParsePushMessage decodes one WebSocket frame. Unknown message types
// are an error: the union is closed, and new engine message types must
// be added here before the sync loop can act on them.
func ParsePushMessage(data []byte) (PushMessage, error) {
	var message PushMessage
	if err := json.Unmarshal(data, &message); err != nil {
		return PushMessage{}, fmt.Errorf("agent: decoding push message: %w", err)
	}
	switch message.Type {
	case PushStepUpdate, PushInterventionRequested, PushCompleted,
		PushFailed, PushCancelled, PushScreenshot:
		return message, nil
	case "":
		return PushMessage{}, fmt.Errorf("agent: push message missing type")
	default:
		return PushMessage{}, fmt.Errorf("agent: unknown push message type %q", message.Type)
	}
}
