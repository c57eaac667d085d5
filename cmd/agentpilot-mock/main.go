// Copyright 2026 The Tidewire Authors
// SPDX-License-Identifier: Apache-2.0

// Agentpilot-mock is a drop-in replacement for the browser-automation
// engine, for demos and end-to-end testing of agentpilot without a
// real browser. It serves the engine's full REST and WebSocket surface
// and runs each started job through a scripted lifecycle: a configurable
// number of steps, an optional pause for human intervention partway
// through, then completion.
//
// Usage:
//
//	agentpilot-mock [flags]
//
// Point agentpilot at it with --engine http://localhost:8700.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/spf13/pflag"

	"github.com/tidewire/agentpilot/agent"
	"github.com/tidewire/agentpilot/lib/version"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "agentpilot-mock: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		listen       string
		stepInterval time.Duration
		steps        int
		interveneAt  int
		failAt       int
		showVersion  bool
	)

	flagSet := pflag.NewFlagSet("agentpilot-mock", pflag.ContinueOnError)
	flagSet.StringVar(&listen, "listen", ":8700", "address to serve the engine API on")
	flagSet.DurationVar(&stepInterval, "step-interval", time.Second, "simulated time per agent step")
	flagSet.IntVar(&steps, "steps", 8, "steps per job")
	flagSet.IntVar(&interveneAt, "intervene-at", 0, "pause for intervention at this step (0 = never)")
	flagSet.IntVar(&failAt, "fail-at", 0, "fail the job at this step (0 = never)")
	flagSet.BoolVar(&showVersion, "version", false, "print version information and exit")

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if showVersion {
		version.Print("agentpilot-mock")
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	engine := &mockEngine{
		logger: logger,
		jobs:   make(map[string]*mockJob),
		script: script{
			stepInterval: stepInterval,
			steps:        steps,
			interveneAt:  interveneAt,
			failAt:       failAt,
		},
	}

	router := chi.NewRouter()
	router.Route("/api/v1/agent", func(r chi.Router) {
		r.Post("/start", engine.handleStart)
		r.Get("/status/{id}", engine.handleStatus)
		r.Post("/intervention/{id}", engine.handleIntervention)
		r.Post("/manual-intervention/{id}", engine.handleManual)
		r.Post("/cancel/{id}", engine.handleCancel)
		r.Get("/health", engine.handleHealth)
		r.Get("/ws/{id}", engine.handleWS)
	})

	server := &http.Server{Addr: listen, Handler: router}
	serverDone := make(chan error, 1)
	go func() {
		serverDone <- server.ListenAndServe()
	}()

	logger.Info("mock engine running", "listen", listen, "steps", steps, "intervene_at", interveneAt)

	select {
	case err := <-serverDone:
		return err
	case <-ctx.Done():
	}
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// script is the per-job lifecycle plan.
type script struct {
	stepInterval time.Duration
	steps        int
	interveneAt  int
	failAt       int
}

// mockEngine holds all simulated jobs.
type mockEngine struct {
	logger *slog.Logger
	script script

	mu   sync.Mutex
	jobs map[string]*mockJob
}

// mockJob is one scripted automation run. The snapshot is mutated only
// by the job's own goroutine and the intervention/cancel handlers, all
// under mu.
type mockJob struct {
	mu       sync.Mutex
	snapshot agent.StatusSnapshot

	subscribers map[chan agent.PushMessage]struct{}

	// resume is signalled by an accepted intervention; cancelled by
	// the cancel handler.
	resume    chan agent.HumanAction
	cancelled chan struct{}
	cancelOne sync.Once
}

func (e *mockEngine) handleStart(w http.ResponseWriter, r *http.Request) {
	var request agent.StartRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil || request.Task == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "task is required", "code": "E_VALIDATION"})
		return
	}

	job := &mockJob{
		snapshot: agent.StatusSnapshot{
			JobID:    "job-" + uuid.NewString()[:8],
			Status:   agent.StatusPending,
			MaxSteps: e.script.steps,
		},
		subscribers: make(map[chan agent.PushMessage]struct{}),
		resume:      make(chan agent.HumanAction),
		cancelled:   make(chan struct{}),
	}

	e.mu.Lock()
	e.jobs[job.snapshot.JobID] = job
	e.mu.Unlock()

	e.logger.Info("job started", "job_id", job.snapshot.JobID, "task", request.Task)
	go e.runJob(job, request)

	writeJSON(w, http.StatusOK, agent.StartResponse{JobID: job.snapshot.JobID})
}

// runJob walks the job through the scripted lifecycle.
func (e *mockEngine) runJob(job *mockJob, request agent.StartRequest) {
	ticker := time.NewTicker(e.script.stepInterval)
	defer ticker.Stop()

	startURL := request.URL
	if startURL == "" {
		startURL = "https://example.com/"
	}

	for step := 1; step <= e.script.steps; step++ {
		select {
		case <-job.cancelled:
			e.finish(job, agent.StatusCancelled, "", "")
			return
		case <-ticker.C:
		}

		url := fmt.Sprintf("%sstep-%d", startURL, step)
		progress := float64(step) / float64(e.script.steps)

		job.mu.Lock()
		job.snapshot.Status = agent.StatusRunning
		job.snapshot.CurrentStep = step
		job.snapshot.Progress = progress
		job.snapshot.CurrentURL = url
		job.snapshot.URLsVisited = append(job.snapshot.URLsVisited, url)
		job.mu.Unlock()

		currentStep := step
		job.broadcast(agent.PushMessage{
			Type:        agent.PushStepUpdate,
			Progress:    &progress,
			CurrentStep: &currentStep,
			CurrentURL:  url,
		})

		if e.script.failAt > 0 && step == e.script.failAt {
			e.finish(job, agent.StatusFailed, "", "scripted failure at step "+fmt.Sprint(step))
			return
		}

		if e.script.interveneAt > 0 && step == e.script.interveneAt && request.AllowIntervention {
			if !e.pauseForIntervention(job) {
				e.finish(job, agent.StatusCancelled, "", "")
				return
			}
		}
	}

	e.finish(job, agent.StatusCompleted, "scripted run finished: "+request.Task, "")
}

// pauseForIntervention parks the job in waiting_human until an action
// arrives. Returns false if the job was cancelled while waiting.
func (e *mockEngine) pauseForIntervention(job *mockJob) bool {
	job.mu.Lock()
	job.snapshot.Status = agent.StatusWaitingHuman
	job.snapshot.InterventionType = "captcha"
	job.snapshot.InterventionReason = "scripted intervention: please confirm to continue"
	job.snapshot.InterventionScreenshot = mockScreenshot
	job.mu.Unlock()

	job.broadcast(agent.PushMessage{
		Type:   agent.PushInterventionRequested,
		Reason: "scripted intervention: please confirm to continue",
	})
	e.logger.Info("job waiting for intervention", "job_id", job.id())

	select {
	case action := <-job.resume:
		job.mu.Lock()
		job.snapshot.Status = agent.StatusRunning
		job.snapshot.InterventionType = ""
		job.snapshot.InterventionReason = ""
		job.snapshot.InterventionScreenshot = ""
		job.mu.Unlock()
		e.logger.Info("intervention received", "job_id", job.id(), "action", action.ActionType)
		return action.ActionType != agent.ActionAbort
	case <-job.cancelled:
		return false
	}
}

// finish applies a terminal status and pushes the matching message.
func (e *mockEngine) finish(job *mockJob, status agent.Status, result, errText string) {
	job.mu.Lock()
	job.snapshot.Status = status
	job.snapshot.Result = result
	job.snapshot.Error = errText
	if status == agent.StatusCompleted {
		job.snapshot.Progress = 1
	}
	job.mu.Unlock()

	message := agent.PushMessage{Error: errText}
	switch status {
	case agent.StatusCompleted:
		message.Type = agent.PushCompleted
	case agent.StatusFailed:
		message.Type = agent.PushFailed
	case agent.StatusCancelled:
		message.Type = agent.PushCancelled
	}
	job.broadcast(message)
	e.logger.Info("job finished", "job_id", job.id(), "status", status)
}

func (e *mockEngine) lookup(w http.ResponseWriter, r *http.Request) *mockJob {
	id := chi.URLParam(r, "id")
	e.mu.Lock()
	job := e.jobs[id]
	e.mu.Unlock()
	if job == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no such job", "code": "E_NOT_FOUND"})
	}
	return job
}

func (e *mockEngine) handleStatus(w http.ResponseWriter, r *http.Request) {
	job := e.lookup(w, r)
	if job == nil {
		return
	}
	job.mu.Lock()
	snapshot := job.snapshot
	job.mu.Unlock()
	writeJSON(w, http.StatusOK, snapshot)
}

func (e *mockEngine) handleIntervention(w http.ResponseWriter, r *http.Request) {
	job := e.lookup(w, r)
	if job == nil {
		return
	}
	var request agent.InterventionRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid action", "code": "E_VALIDATION"})
		return
	}

	select {
	case job.resume <- request.Action:
		writeJSON(w, http.StatusOK, map[string]string{"status": "accepted"})
	default:
		writeJSON(w, http.StatusConflict, map[string]string{"error": "job is not waiting for intervention", "code": "E_NOT_WAITING"})
	}
}

func (e *mockEngine) handleManual(w http.ResponseWriter, r *http.Request) {
	job := e.lookup(w, r)
	if job == nil {
		return
	}

	// The real engine pauses the agent at the next step boundary; the
	// script approximates that by marking the job waiting immediately.
	job.mu.Lock()
	job.snapshot.Status = agent.StatusWaitingHuman
	job.snapshot.InterventionType = "custom"
	job.snapshot.InterventionReason = "manual takeover requested"
	job.snapshot.InterventionScreenshot = mockScreenshot
	currentURL := job.snapshot.CurrentURL
	job.mu.Unlock()

	job.broadcast(agent.PushMessage{
		Type:   agent.PushInterventionRequested,
		Reason: "manual takeover requested",
	})

	writeJSON(w, http.StatusOK, agent.ManualInterventionResponse{
		Screenshot: mockScreenshot,
		CurrentURL: currentURL,
	})
}

func (e *mockEngine) handleCancel(w http.ResponseWriter, r *http.Request) {
	job := e.lookup(w, r)
	if job == nil {
		return
	}
	job.cancelOne.Do(func() { close(job.cancelled) })
	writeJSON(w, http.StatusOK, map[string]string{"status": "cancelling"})
}

func (e *mockEngine) handleHealth(w http.ResponseWriter, r *http.Request) {
	e.mu.Lock()
	active := 0
	waiting := 0
	for _, job := range e.jobs {
		job.mu.Lock()
		status := job.snapshot.Status
		job.mu.Unlock()
		if !status.Terminal() {
			active++
		}
		if status == agent.StatusWaitingHuman {
			waiting++
		}
	}
	e.mu.Unlock()
	writeJSON(w, http.StatusOK, agent.HealthResponse{
		Status:              "ok",
		ActiveJobs:          active,
		WaitingIntervention: waiting,
	})
}

func (e *mockEngine) handleWS(w http.ResponseWriter, r *http.Request) {
	job := e.lookup(w, r)
	if job == nil {
		return
	}

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	events := make(chan agent.PushMessage, 64)
	job.subscribe(events)
	defer job.unsubscribe(events)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case message := <-events:
			data, err := json.Marshal(message)
			if err != nil {
				e.logger.Error("marshalling push message", "error", err)
				return
			}
			if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
				return
			}
		}
	}
}

func (j *mockJob) id() string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.snapshot.JobID
}

func (j *mockJob) subscribe(events chan agent.PushMessage) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.subscribers[events] = struct{}{}
}

func (j *mockJob) unsubscribe(events chan agent.PushMessage) {
	j.mu.Lock()
	defer j.mu.Unlock()
	delete(j.subscribers, events)
}

// broadcast fans a message out to all connected WebSocket clients.
// Non-blocking sends: a slow reader misses frames rather than stalling
// the job; polling recovers anything dropped.
func (j *mockJob) broadcast(message agent.PushMessage) {
	j.mu.Lock()
	defer j.mu.Unlock()
	for events := range j.subscribers {
		select {
		case events <- message:
		default:
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// mockScreenshot is a 1x1 transparent PNG, base64-encoded, standing in
// for real browser screenshots.
const mockScreenshot = "iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNkYPhfDwAChwGA60e6kgAAAABJRU5ErkJggg=="
