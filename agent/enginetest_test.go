// Copyright 2026 The Tidewire Authors
// SPDX-License-Identifier: Apache-2.0

package agent

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/coder/websocket"

	"github.com/tidewire/agentpilot/lib/testutil"
)

// mockEngine simulates the automation engine's REST and WebSocket
// surface for one job.
type mockEngine struct {
	t      *testing.T
	server *httptest.Server

	mu            sync.Mutex
	snapshot      StatusSnapshot
	polls         int
	startCalls    int
	failStart     bool
	rejectWS      bool
	cancelCalls   int
	manualCalls   int
	interventions []HumanAction
	requestIDs    []string
	wsConn        *websocket.Conn
	wsDone        chan struct{}

	wsReady chan struct{}
	wsSend  chan PushMessage
}

func newMockEngine(t *testing.T) *mockEngine {
	t.Helper()
	engine := &mockEngine{
		t:       t,
		wsReady: make(chan struct{}, 4),
		wsSend:  make(chan PushMessage),
		snapshot: StatusSnapshot{
			JobID:  "job-test-1",
			Status: StatusPending,
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/agent/start", engine.handleStart)
	mux.HandleFunc("GET /api/v1/agent/status/{id}", engine.handleStatus)
	mux.HandleFunc("POST /api/v1/agent/intervention/{id}", engine.handleIntervention)
	mux.HandleFunc("POST /api/v1/agent/manual-intervention/{id}", engine.handleManual)
	mux.HandleFunc("POST /api/v1/agent/cancel/{id}", engine.handleCancel)
	mux.HandleFunc("GET /api/v1/agent/health", engine.handleHealth)
	mux.HandleFunc("GET /api/v1/agent/ws/{id}", engine.handleWS)

	engine.server = httptest.NewServer(mux)
	t.Cleanup(engine.server.Close)
	return engine
}

func (e *mockEngine) client(t *testing.T) *Client {
	t.Helper()
	client, err := NewClient(ClientConfig{BaseURL: e.server.URL})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client
}

func (e *mockEngine) setSnapshot(snapshot StatusSnapshot) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if snapshot.JobID == "" {
		snapshot.JobID = e.snapshot.JobID
	}
	e.snapshot = snapshot
}

func (e *mockEngine) pollCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.polls
}

// push delivers one message over the active WebSocket, waiting for a
// connection first.
func (e *mockEngine) push(t *testing.T, message PushMessage) {
	t.Helper()
	select {
	case e.wsSend <- message:
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out pushing %s message", message.Type)
	}
}

// waitConnected blocks until a WebSocket client attaches.
func (e *mockEngine) waitConnected(t *testing.T) {
	t.Helper()
	testutil.RequireClosed(t, e.wsReady, 5*time.Second, "waiting for websocket client")
}

// dropPush severs the active WebSocket to simulate a network drop.
func (e *mockEngine) dropPush(t *testing.T) {
	t.Helper()
	e.mu.Lock()
	conn := e.wsConn
	done := e.wsDone
	e.wsConn = nil
	e.wsDone = nil
	e.mu.Unlock()
	if conn == nil {
		t.Fatal("dropPush: no active websocket")
	}
	// Stop the severed handler's send loop so it does not keep
	// competing for wsSend against a later connection.
	close(done)
	conn.Close(websocket.StatusGoingAway, "simulated drop")
}

func (e *mockEngine) handleStart(w http.ResponseWriter, r *http.Request) {
	e.mu.Lock()
	e.startCalls++
	fail := e.failStart
	jobID := e.snapshot.JobID
	e.mu.Unlock()
	if fail {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "task rejected", "code": "E_VALIDATION"})
		return
	}
	var request StartRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil || request.Task == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "task is required"})
		return
	}
	writeJSON(w, http.StatusOK, StartResponse{JobID: jobID})
}

func (e *mockEngine) handleStatus(w http.ResponseWriter, r *http.Request) {
	e.mu.Lock()
	e.polls++
	snapshot := e.snapshot
	e.mu.Unlock()
	writeJSON(w, http.StatusOK, snapshot)
}

func (e *mockEngine) handleIntervention(w http.ResponseWriter, r *http.Request) {
	var request InterventionRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad action"})
		return
	}
	e.mu.Lock()
	e.interventions = append(e.interventions, request.Action)
	e.requestIDs = append(e.requestIDs, r.Header.Get("X-Request-Id"))
	e.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{"status": "accepted"})
}

func (e *mockEngine) handleManual(w http.ResponseWriter, r *http.Request) {
	e.mu.Lock()
	e.manualCalls++
	e.mu.Unlock()
	writeJSON(w, http.StatusOK, ManualInterventionResponse{
		Screenshot: "bW9jaw==",
		CurrentURL: "https://example.com/stuck",
	})
}

func (e *mockEngine) handleCancel(w http.ResponseWriter, r *http.Request) {
	e.mu.Lock()
	e.cancelCalls++
	e.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{"status": "cancelling"})
}

func (e *mockEngine) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", ActiveJobs: 1})
}

func (e *mockEngine) handleWS(w http.ResponseWriter, r *http.Request) {
	e.mu.Lock()
	reject := e.rejectWS
	e.mu.Unlock()
	if reject {
		http.Error(w, "websocket unavailable", http.StatusNotFound)
		return
	}
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		return
	}
	done := make(chan struct{})
	e.mu.Lock()
	e.wsConn = conn
	e.wsDone = done
	e.mu.Unlock()
	select {
	case e.wsReady <- struct{}{}:
	default:
	}

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-done:
			return
		case message := <-e.wsSend:
			data, err := json.Marshal(message)
			if err != nil {
				e.t.Errorf("mock engine: marshalling push: %v", err)
				return
			}
			if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
				return
			}
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
