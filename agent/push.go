// Copyright 2026 The Tidewire Authors
// SPDX-License-Identifier: Apache-2.0

package agent

import (
	"context"

	"github.com/coder/websocket"
)

// pushReadLimit bounds a single WebSocket frame. Frames carry base64
// screenshots, so the limit is far above coder/websocket's 32 KB
// default.
const pushReadLimit = 16 << 20

// startPush launches the push-channel goroutine if one is not already
// running. The WebSocket is exclusively owned by this Sync for the
// lifetime of one job id; the dial-read-close cycle lives entirely in
// runPush, so a new connection can only open once the previous one is
// gone.
func (s *Sync) startPush(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	s.mu.Lock()
	if s.pushRunning {
		s.mu.Unlock()
		return
	}
	s.pushRunning = true
	s.mu.Unlock()

	s.wg.Add(1)
	go s.runPush(ctx)
}

// runPush dials the job's WebSocket endpoint and feeds decoded
// messages into the owner goroutine until the connection drops or the
// sync is torn down. Failures never block state updates: the poll
// loop keeps running regardless, so a dead socket degrades latency,
// not correctness.
func (s *Sync) runPush(ctx context.Context) {
	defer s.wg.Done()

	// markStopped runs before the connectivity event is delivered, so
	// an operator acting on a "disconnected" badge can Reconnect
	// without racing the old goroutine's teardown.
	markStopped := func() {
		s.mu.Lock()
		s.pushRunning = false
		s.mu.Unlock()
	}
	defer markStopped()

	s.sendChannelState(ctx, ChannelConnecting)

	wsURL := s.config.Client.WebSocketURL(s.config.JobID)
	conn, _, err := websocket.Dial(ctx, wsURL, &websocket.DialOptions{
		HTTPClient: s.config.Client.HTTPClient(),
	})
	if err != nil {
		if ctx.Err() == nil {
			s.logger.Debug("push channel dial failed", "url", wsURL, "error", err)
			markStopped()
			s.sendChannelState(ctx, ChannelErrored)
		}
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "sync closed")
	conn.SetReadLimit(pushReadLimit)

	s.sendChannelState(ctx, ChannelConnected)
	s.logger.Debug("push channel connected", "url", wsURL)

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			// Teardown (context cancelled) is silent; an unexpected
			// drop is surfaced as a connectivity change and the sync
			// continues on polling alone.
			if ctx.Err() == nil {
				channelErr := &ChannelError{Err: err}
				s.logger.Debug("push channel dropped", "error", channelErr)
				markStopped()
				s.sendChannelState(ctx, ChannelDisconnected)
			}
			return
		}

		message, err := ParsePushMessage(data)
		if err != nil {
			// A malformed or unknown frame is not fatal to the
			// connection; skip it and keep reading.
			s.logger.Debug("ignoring undecodable push frame", "error", err)
			continue
		}
		s.send(ctx, syncEvent{push: &message})
	}
}

func (s *Sync) sendChannelState(ctx context.Context, state ChannelState) {
	s.send(ctx, syncEvent{channel: &state})
}
