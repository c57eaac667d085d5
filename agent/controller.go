// Copyright 2026 The Tidewire Authors
// SPDX-License-Identifier: Apache-2.0

package agent

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/tidewire/agentpilot/capture"
	"github.com/tidewire/agentpilot/history"
	"github.com/tidewire/agentpilot/lib/clock"
	"github.com/tidewire/agentpilot/notify"
)

// ControllerConfig configures a Controller.
type ControllerConfig struct {
	// Client is the engine REST client. Required.
	Client *Client
	// PollInterval is the sync poll cadence. Required (> 0).
	PollInterval time.Duration
	// Clock drives timers and duration measurement. If nil, clock.Real().
	Clock clock.Clock
	// Logger is used for structured logging. If nil, slog.Default().
	Logger *slog.Logger

	// Notifier receives user-facing messages. If nil, a slog-backed
	// notifier is used.
	Notifier notify.Notifier
	// History records terminal jobs. If nil, records are discarded.
	History history.Recorder

	// Collection, when set, enables auto-capture of visited URLs into
	// CaptureFolderID. A fresh capture session is created per job.
	Collection      capture.Collection
	CaptureFolderID string
}

// Controller orchestrates the lifecycle of one automation job at a
// time: start, cancel, intervention submission, manual takeover, and
// reset. All transitions it triggers are requests — the authoritative
// state change is only applied when the sync loop observes it on a
// channel.
//
// The controller is safe for concurrent use. It owns at most one Sync
// (and therefore one WebSocket) at a time; Start and Reset always tear
// down the previous job's channels before touching a new one.
type Controller struct {
	config   ControllerConfig
	clk      clock.Clock
	logger   *slog.Logger
	notifier notify.Notifier
	recorder history.Recorder

	mu            sync.Mutex
	sync          *Sync
	task          string
	startedAt     time.Time
	cancelPending bool
	recorded      bool
	captureSess   *capture.Session
	capturedURLs  int
	captureCtx    context.Context
	captureStop   context.CancelFunc
}

// NewController validates config and returns a Controller.
func NewController(config ControllerConfig) (*Controller, error) {
	if config.Client == nil {
		return nil, fmt.Errorf("agent: controller requires a Client")
	}
	if config.PollInterval <= 0 {
		return nil, fmt.Errorf("agent: controller requires a positive poll interval")
	}
	if config.Clock == nil {
		config.Clock = clock.Real()
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.Notifier == nil {
		config.Notifier = notify.NewLogger(config.Logger)
	}
	if config.History == nil {
		config.History = history.Discard{}
	}
	return &Controller{
		config:   config,
		clk:      config.Clock,
		logger:   config.Logger,
		notifier: config.Notifier,
		recorder: config.History,
	}, nil
}

// Start begins a new automation job. Any prior job's channels are
// torn down first. On success the job id is returned and the dual
// channels are live; on failure a *StartError is returned and no job
// exists.
func (c *Controller) Start(ctx context.Context, request StartRequest) (string, error) {
	c.mu.Lock()
	c.resetLocked()
	c.mu.Unlock()

	jobID, err := c.config.Client.StartJob(ctx, request)
	if err != nil {
		c.notifier.Notify(notify.Error, fmt.Sprintf("failed to start task: %v", err))
		return "", err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.task = request.Task
	c.startedAt = c.clk.Now()
	c.recorded = false
	c.cancelPending = false
	c.capturedURLs = 0
	if c.config.Collection != nil {
		c.captureSess = capture.NewSession(c.config.Collection, c.config.CaptureFolderID, c.logger)
		c.captureCtx, c.captureStop = context.WithCancel(context.Background())
	}

	s, err := StartSync(SyncConfig{
		Client:         c.config.Client,
		JobID:          jobID,
		PollInterval:   c.config.PollInterval,
		Clock:          c.clk,
		Logger:         c.logger,
		OnUpdate:       c.handleUpdate,
		OnChannelState: c.handleChannelState,
	})
	if err != nil {
		// Sync construction only fails on bad config; the job is
		// already running server-side, so surface loudly.
		c.notifier.Notify(notify.Error, fmt.Sprintf("job %s started but tracking failed: %v", jobID, err))
		return "", &StartError{Err: err}
	}
	c.sync = s
	return jobID, nil
}

// Cancel requests cooperative cancellation of the active job. The
// status does not change synchronously: the UI keeps showing the
// prior status until a channel confirms cancelled. While the request
// is in flight, further cancel and intervention submissions are
// rejected with ErrCancelPending.
func (c *Controller) Cancel(ctx context.Context) error {
	c.mu.Lock()
	s := c.sync
	if s == nil {
		c.mu.Unlock()
		return ErrNoActiveJob
	}
	if s.Snapshot().Status.Terminal() {
		c.mu.Unlock()
		return ErrJobTerminal
	}
	if c.cancelPending {
		c.mu.Unlock()
		return ErrCancelPending
	}
	c.cancelPending = true
	jobID := s.config.JobID
	c.mu.Unlock()

	if err := c.config.Client.CancelJob(ctx, jobID); err != nil {
		c.mu.Lock()
		c.cancelPending = false
		c.mu.Unlock()
		c.notifier.Notify(notify.Error, fmt.Sprintf("cancel request failed: %v", err))
		return err
	}
	c.notifier.Notify(notify.Info, "cancellation requested")
	return nil
}

// SubmitIntervention sends an operator action for a job waiting on
// human input. Valid only while the job status is waiting_human and
// no cancel is in flight. On failure the job remains in waiting_human
// and the operator can retry.
func (c *Controller) SubmitIntervention(ctx context.Context, action HumanAction) error {
	c.mu.Lock()
	s := c.sync
	if s == nil {
		c.mu.Unlock()
		return ErrNoActiveJob
	}
	if c.cancelPending {
		c.mu.Unlock()
		return ErrCancelPending
	}
	snapshot := s.Snapshot()
	jobID := s.config.JobID
	c.mu.Unlock()

	if snapshot.Status != StatusWaitingHuman {
		return ErrNotWaitingHuman
	}

	if err := c.config.Client.SubmitIntervention(ctx, jobID, action); err != nil {
		c.notifier.Notify(notify.Error, fmt.Sprintf("intervention failed to submit: %v", err))
		return err
	}
	// No optimistic echo: the next channel message reports the
	// engine's view of the resumed job.
	return nil
}

// RequestManualTakeover forces the job into waiting_human with an
// operator-initiated intervention, used when the operator wants
// control without the agent having asked. The ack carries a
// screenshot and current URL for immediate display; the status
// transition itself arrives through the channels.
func (c *Controller) RequestManualTakeover(ctx context.Context) (ManualInterventionResponse, error) {
	c.mu.Lock()
	s := c.sync
	if s == nil {
		c.mu.Unlock()
		return ManualInterventionResponse{}, ErrNoActiveJob
	}
	if c.cancelPending {
		c.mu.Unlock()
		return ManualInterventionResponse{}, ErrCancelPending
	}
	snapshot := s.Snapshot()
	jobID := s.config.JobID
	c.mu.Unlock()

	if snapshot.Status.Terminal() {
		return ManualInterventionResponse{}, ErrJobTerminal
	}
	if snapshot.Status == StatusWaitingHuman {
		return ManualInterventionResponse{}, fmt.Errorf("agent: job is already waiting for intervention")
	}

	response, err := c.config.Client.ManualIntervention(ctx, jobID)
	if err != nil {
		c.notifier.Notify(notify.Error, fmt.Sprintf("manual takeover failed: %v", err))
		return ManualInterventionResponse{}, err
	}
	return response, nil
}

// Reset discards the current job and tears down its channels.
// Idempotent.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetLocked()
}

// resetLocked tears down the active sync. Caller holds c.mu.
func (c *Controller) resetLocked() {
	if c.sync != nil {
		// Close waits for the sync goroutines, which may be inside
		// handleUpdate waiting on c.mu. Release it for the duration.
		s := c.sync
		c.sync = nil
		c.mu.Unlock()
		s.Close()
		c.mu.Lock()
	}
	if c.captureStop != nil {
		c.captureStop()
		c.captureStop = nil
	}
	c.captureSess = nil
	c.capturedURLs = 0
	c.task = ""
	c.cancelPending = false
	c.recorded = false
}

// Job returns a snapshot of the tracked job, or a zero Job when none
// is active.
func (c *Controller) Job() Job {
	c.mu.Lock()
	s := c.sync
	c.mu.Unlock()
	if s == nil {
		return Job{}
	}
	return s.Snapshot()
}

// Active reports whether a job is being tracked.
func (c *Controller) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sync != nil
}

// CancelPending reports whether a cancel request is in flight.
func (c *Controller) CancelPending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cancelPending
}

// SyncState returns the sync-process state, or SyncIdle without a job.
func (c *Controller) SyncState() SyncState {
	c.mu.Lock()
	s := c.sync
	c.mu.Unlock()
	if s == nil {
		return SyncIdle
	}
	return s.State()
}

// ChannelState returns push connectivity, or disconnected without a
// job.
func (c *Controller) ChannelState() ChannelState {
	c.mu.Lock()
	s := c.sync
	c.mu.Unlock()
	if s == nil {
		return ChannelDisconnected
	}
	return s.ChannelState()
}

// Reconnect re-dials the push channel. Valid only with an active,
// unsettled job.
func (c *Controller) Reconnect() error {
	c.mu.Lock()
	s := c.sync
	c.mu.Unlock()
	if s == nil {
		return ErrNoActiveJob
	}
	return s.Reconnect()
}

// Done returns the active sync's settle channel, or nil without a job.
func (c *Controller) Done() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sync == nil {
		return nil
	}
	return c.sync.Done()
}

// Intervention returns the coordinator for the waiting_human state.
func (c *Controller) Intervention() *Intervention {
	return &Intervention{controller: c}
}

// CaptureStats returns the visited-URL capture counts for the current
// job, or zero stats when capture is disabled.
func (c *Controller) CaptureStats() capture.Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.captureSess == nil {
		return capture.Stats{}
	}
	return c.captureSess.Stats()
}

// handleUpdate runs on the sync goroutine after every applied change.
func (c *Controller) handleUpdate(job Job) {
	c.captureVisited(job)

	if !job.Status.Terminal() {
		return
	}

	c.mu.Lock()
	if c.recorded {
		c.mu.Unlock()
		return
	}
	c.recorded = true
	c.cancelPending = false
	task := c.task
	duration := c.clk.Now().Sub(c.startedAt)
	c.mu.Unlock()

	record := history.Record{
		Timestamp:   c.clk.Now(),
		Task:        task,
		URLsVisited: job.URLsVisited,
		Duration:    duration,
	}
	switch job.Status {
	case StatusCompleted:
		record.Outcome = history.OutcomeCompleted
		record.Result = job.Result
		c.notifier.Notify(notify.Success, "task completed")
	case StatusFailed:
		record.Outcome = history.OutcomeFailed
		record.Error = job.Error
		c.notifier.Notify(notify.Error, fmt.Sprintf("task failed: %s", job.Error))
	case StatusCancelled:
		record.Outcome = history.OutcomeCancelled
		c.notifier.Notify(notify.Info, "task cancelled")
	}
	if err := c.recorder.Append(record); err != nil {
		c.logger.Warn("failed to record job history", "job_id", job.ID, "error", err)
	}
}

// handleChannelState surfaces push connectivity changes as
// notifications. Connectivity never gates correctness: polling keeps
// driving state either way.
func (c *Controller) handleChannelState(state ChannelState) {
	switch state {
	case ChannelDisconnected, ChannelErrored:
		c.notifier.Notify(notify.Warning, "live updates disconnected; continuing on polling")
	case ChannelConnected:
		c.notifier.Notify(notify.Info, "live updates connected")
	}
}

// captureVisited registers any newly visited URLs with the capture
// session. URLsVisited is append-only, so a simple high-water mark
// tracks what has been offered already; the session dedups anything a
// stale snapshot replays.
func (c *Controller) captureVisited(job Job) {
	c.mu.Lock()
	session := c.captureSess
	ctx := c.captureCtx
	offset := c.capturedURLs
	if session != nil && len(job.URLsVisited) > offset {
		c.capturedURLs = len(job.URLsVisited)
	}
	c.mu.Unlock()
	if session == nil || offset > len(job.URLsVisited) {
		return
	}

	for _, visited := range job.URLsVisited[offset:] {
		if _, err := session.Capture(ctx, visited, ""); err != nil {
			c.logger.Debug("url capture failed", "url", visited, "error", err)
		}
	}
	if job.CurrentURL != "" {
		if _, err := session.Capture(ctx, job.CurrentURL, ""); err != nil {
			c.logger.Debug("url capture failed", "url", job.CurrentURL, "error", err)
		}
	}
}
