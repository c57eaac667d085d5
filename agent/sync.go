// Copyright 2026 The Tidewire Authors
// SPDX-License-Identifier: Apache-2.0

package agent

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/tidewire/agentpilot/lib/clock"
)

// SyncState is the state of the sync process itself, distinct from
// Job.Status. It exists for connectivity display; correctness never
// depends on it.
type SyncState string

const (
	// SyncIdle means no job is being tracked.
	SyncIdle SyncState = "idle"
	// SyncPollingConnecting means polling has begun and the WebSocket
	// dial is in flight.
	SyncPollingConnecting SyncState = "polling_connecting"
	// SyncPollingStreaming means both channels are live.
	SyncPollingStreaming SyncState = "polling_streaming"
	// SyncPollingDisconnected means the push channel dropped and
	// polling alone drives updates.
	SyncPollingDisconnected SyncState = "polling_disconnected"
	// SyncSettled means a terminal status was observed: polling has
	// stopped and the socket is closed.
	SyncSettled SyncState = "settled"
)

// ChannelState tracks push-channel connectivity independently of the
// job lifecycle. Used only for a connectivity badge, never to gate
// state updates.
type ChannelState string

const (
	ChannelConnecting   ChannelState = "connecting"
	ChannelConnected    ChannelState = "connected"
	ChannelDisconnected ChannelState = "disconnected"
	ChannelErrored      ChannelState = "error"
)

// SyncConfig configures a Sync.
type SyncConfig struct {
	// Client is the engine REST client. Required.
	Client *Client
	// JobID is the job to track. Required.
	JobID string
	// PollInterval is the fixed poll cadence. Required (> 0).
	PollInterval time.Duration
	// Clock drives the poll ticker. If nil, clock.Real().
	Clock clock.Clock
	// Logger is used for structured logging. If nil, slog.Default().
	Logger *slog.Logger

	// OnUpdate is invoked from the sync goroutine with a snapshot
	// after every applied change, in order. Optional. Must not block.
	OnUpdate func(Job)
	// OnChannelState is invoked from the sync goroutine on push
	// connectivity changes. Optional. Must not block.
	OnChannelState func(ChannelState)
}

// syncEvent funnels both transports into the single owner goroutine.
// Exactly one field is set.
type syncEvent struct {
	snapshot *StatusSnapshot
	push     *PushMessage
	channel  *ChannelState
	pollErr  error
}

// Sync reconciles the push and poll transports into one authoritative
// Job record. One goroutine owns the record; poll results and push
// messages are funneled through an event channel and applied
// sequentially, so there is no merge ambiguity regardless of arrival
// order. Polling stops and the socket closes the instant a terminal
// status is observed from either channel.
type Sync struct {
	config SyncConfig
	logger *slog.Logger
	clk    clock.Clock

	events chan syncEvent
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu           sync.Mutex
	job          Job
	state        SyncState
	channelState ChannelState
	pushRunning  bool

	done      chan struct{}
	closeOnce sync.Once
}

// StartSync begins tracking a job: an immediate poll, the fixed-cadence
// poll loop, and the WebSocket dial all start at once. Call Close (or
// wait for Done) when finished.
func StartSync(config SyncConfig) (*Sync, error) {
	if config.Client == nil {
		return nil, fmt.Errorf("agent: sync requires a Client")
	}
	if config.JobID == "" {
		return nil, fmt.Errorf("agent: sync requires a job id")
	}
	if config.PollInterval <= 0 {
		return nil, fmt.Errorf("agent: sync requires a positive poll interval")
	}
	if config.Clock == nil {
		config.Clock = clock.Real()
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Sync{
		config: config,
		logger: config.Logger.With("job_id", config.JobID),
		clk:    config.Clock,
		events: make(chan syncEvent, 32),
		ctx:    ctx,
		cancel: cancel,
		job:    Job{ID: config.JobID, Status: StatusPending},
		state:  SyncPollingConnecting,
		done:   make(chan struct{}),
	}

	s.wg.Add(2)
	go s.run(ctx)
	go s.runPoll(ctx)
	s.startPush(ctx)
	return s, nil
}

// Snapshot returns a copy of the current job record.
func (s *Sync) Snapshot() Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.job.Clone()
}

// State returns the sync-process state.
func (s *Sync) State() SyncState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// ChannelState returns push-channel connectivity.
func (s *Sync) ChannelState() ChannelState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.channelState
}

// Done is closed when the sync settles on a terminal status or is
// closed.
func (s *Sync) Done() <-chan struct{} { return s.done }

// Close tears down both transports and waits for the goroutines to
// exit. Idempotent.
func (s *Sync) Close() {
	s.cancel()
	s.wg.Wait()
	s.closeOnce.Do(func() { close(s.done) })
}

// run is the owner goroutine: the only writer of the job record.
func (s *Sync) run(ctx context.Context) {
	defer s.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case event := <-s.events:
			s.handleEvent(event)
		}
	}
}

func (s *Sync) handleEvent(event syncEvent) {
	switch {
	case event.snapshot != nil:
		s.applyUpdate("poll", func(prior Job) (Job, bool) {
			return ApplyPoll(prior, *event.snapshot)
		})

	case event.push != nil:
		s.applyUpdate("push", func(prior Job) (Job, bool) {
			return ApplyPush(prior, *event.push)
		})

	case event.channel != nil:
		s.applyChannelState(*event.channel)

	case event.pollErr != nil:
		// A failed poll is retried on the next tick; nothing changes.
		s.logger.Debug("status poll failed", "error", event.pollErr)
	}
}

// applyUpdate runs one reconciliation step and delivers the update.
// Discarded (stale) messages are logged at debug and otherwise
// invisible.
func (s *Sync) applyUpdate(source string, merge func(Job) (Job, bool)) {
	s.mu.Lock()
	if s.state == SyncSettled {
		s.mu.Unlock()
		return
	}
	next, applied := merge(s.job)
	if !applied {
		s.mu.Unlock()
		s.logger.Debug("discarded stale channel message", "source", source)
		return
	}
	s.job = next
	settled := next.Status.Terminal()
	if settled {
		s.state = SyncSettled
	}
	snapshot := next.Clone()
	s.mu.Unlock()

	if s.config.OnUpdate != nil {
		s.config.OnUpdate(snapshot)
	}

	if settled {
		s.logger.Info("job settled", "status", snapshot.Status)
		// Stop polling and close the socket immediately: a finished
		// job generates no further updates and must not keep loading
		// the engine.
		s.cancel()
		s.closeOnce.Do(func() { close(s.done) })
	}
}

func (s *Sync) applyChannelState(state ChannelState) {
	s.mu.Lock()
	if s.state == SyncSettled {
		s.mu.Unlock()
		return
	}
	s.channelState = state
	switch state {
	case ChannelConnected:
		s.state = SyncPollingStreaming
	case ChannelDisconnected, ChannelErrored:
		s.state = SyncPollingDisconnected
	case ChannelConnecting:
		if s.state != SyncPollingStreaming {
			s.state = SyncPollingConnecting
		}
	}
	s.mu.Unlock()

	if s.config.OnChannelState != nil {
		s.config.OnChannelState(state)
	}
}

// runPoll fetches the authoritative snapshot immediately and then on
// the fixed interval until the sync settles. Individual poll failures
// are reported as events and retried on the next tick; there is no
// per-request backoff beyond the interval itself.
func (s *Sync) runPoll(ctx context.Context) {
	defer s.wg.Done()

	s.pollOnce(ctx)
	ticker := s.clk.NewTicker(s.config.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.pollOnce(ctx)
		}
	}
}

func (s *Sync) pollOnce(ctx context.Context) {
	snapshot, err := s.config.Client.JobStatus(ctx, s.config.JobID)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		s.send(ctx, syncEvent{pollErr: err})
		return
	}
	s.send(ctx, syncEvent{snapshot: &snapshot})
}

// send delivers an event to the owner goroutine, giving up if the
// sync is torn down first.
func (s *Sync) send(ctx context.Context, event syncEvent) {
	select {
	case s.events <- event:
	case <-ctx.Done():
	}
}

// Reconnect re-dials the push channel after a drop. Reconnection is a
// deliberate operator action, never automatic: a finished job has no
// connection worth retrying, and a flapping network is better
// surfaced than papered over.
func (s *Sync) Reconnect() error {
	s.mu.Lock()
	if s.state == SyncSettled {
		s.mu.Unlock()
		return ErrJobTerminal
	}
	if s.pushRunning {
		s.mu.Unlock()
		return fmt.Errorf("agent: push channel already connected")
	}
	s.mu.Unlock()

	s.startPush(s.ctx)
	return nil
}
