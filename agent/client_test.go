// Copyright 2026 The Tidewire Authors
// SPDX-License-Identifier: Apache-2.0

package agent

import (
	"context"
	"errors"
	"testing"
)

func TestNewClientValidation(t *testing.T) {
	t.Parallel()
	if _, err := NewClient(ClientConfig{}); err == nil {
		t.Error("empty BaseURL accepted")
	}
	if _, err := NewClient(ClientConfig{BaseURL: "ftp://host"}); err == nil {
		t.Error("non-http scheme accepted")
	}
	if _, err := NewClient(ClientConfig{BaseURL: "http://localhost:8700/"}); err != nil {
		t.Errorf("valid BaseURL rejected: %v", err)
	}
}

func TestStartJob(t *testing.T) {
	t.Parallel()
	engine := newMockEngine(t)
	client := engine.client(t)

	jobID, err := client.StartJob(context.Background(), StartRequest{Task: "summarize homepage"})
	if err != nil {
		t.Fatalf("StartJob: %v", err)
	}
	if jobID != "job-test-1" {
		t.Errorf("jobID = %q", jobID)
	}
}

func TestStartJobEmptyTask(t *testing.T) {
	t.Parallel()
	engine := newMockEngine(t)
	client := engine.client(t)

	_, err := client.StartJob(context.Background(), StartRequest{})
	var startErr *StartError
	if !errors.As(err, &startErr) {
		t.Fatalf("error = %v, want *StartError", err)
	}
}

func TestStartJobEngineRejection(t *testing.T) {
	t.Parallel()
	engine := newMockEngine(t)
	engine.failStart = true
	client := engine.client(t)

	_, err := client.StartJob(context.Background(), StartRequest{Task: "x"})
	var startErr *StartError
	if !errors.As(err, &startErr) {
		t.Fatalf("error = %v, want *StartError", err)
	}
	var engineErr *EngineError
	if !errors.As(err, &engineErr) {
		t.Fatalf("StartError does not wrap *EngineError: %v", err)
	}
	if engineErr.StatusCode != 400 || engineErr.Code != "E_VALIDATION" {
		t.Errorf("engine error = %+v", engineErr)
	}
}

func TestJobStatus(t *testing.T) {
	t.Parallel()
	engine := newMockEngine(t)
	engine.setSnapshot(StatusSnapshot{
		Status:      StatusRunning,
		Progress:    0.4,
		URLsVisited: []string{"https://example.com"},
	})
	client := engine.client(t)

	snapshot, err := client.JobStatus(context.Background(), "job-test-1")
	if err != nil {
		t.Fatalf("JobStatus: %v", err)
	}
	if snapshot.Status != StatusRunning || snapshot.Progress != 0.4 {
		t.Errorf("snapshot = %+v", snapshot)
	}
}

func TestSubmitInterventionCarriesRequestID(t *testing.T) {
	t.Parallel()
	engine := newMockEngine(t)
	client := engine.client(t)

	action := EncodeAction(ActionClick, ActionFields{X: intPtr(960), Y: intPtr(540)})
	if err := client.SubmitIntervention(context.Background(), "job-test-1", action); err != nil {
		t.Fatalf("SubmitIntervention: %v", err)
	}

	engine.mu.Lock()
	defer engine.mu.Unlock()
	if len(engine.interventions) != 1 {
		t.Fatalf("engine received %d interventions", len(engine.interventions))
	}
	received := engine.interventions[0]
	if received.ActionType != ActionClick || received.X == nil || *received.X != 960 {
		t.Errorf("received action = %+v", received)
	}
	if engine.requestIDs[0] == "" {
		t.Error("submission missing X-Request-Id")
	}
}

func TestCancelJob(t *testing.T) {
	t.Parallel()
	engine := newMockEngine(t)
	client := engine.client(t)

	if err := client.CancelJob(context.Background(), "job-test-1"); err != nil {
		t.Fatalf("CancelJob: %v", err)
	}
	engine.mu.Lock()
	defer engine.mu.Unlock()
	if engine.cancelCalls != 1 {
		t.Errorf("cancel calls = %d", engine.cancelCalls)
	}
}

func TestHealth(t *testing.T) {
	t.Parallel()
	engine := newMockEngine(t)
	client := engine.client(t)

	health, err := client.Health(context.Background())
	if err != nil {
		t.Fatalf("Health: %v", err)
	}
	if health.Status != "ok" || health.ActiveJobs != 1 {
		t.Errorf("health = %+v", health)
	}
}

func TestWebSocketURL(t *testing.T) {
	t.Parallel()
	cases := []struct {
		base string
		want string
	}{
		{"http://localhost:8700", "ws://localhost:8700/api/v1/agent/ws/j-1"},
		{"https://engine.example.com", "wss://engine.example.com/api/v1/agent/ws/j-1"},
	}
	for _, c := range cases {
		client, err := NewClient(ClientConfig{BaseURL: c.base})
		if err != nil {
			t.Fatalf("NewClient(%q): %v", c.base, err)
		}
		if got := client.WebSocketURL("j-1"); got != c.want {
			t.Errorf("WebSocketURL(%q) = %q, want %q", c.base, got, c.want)
		}
	}
}
