// Copyright 2026 The Tidewire Authors
// SPDX-License-Identifier: Apache-2.0

package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/tidewire/agentpilot/lib/netutil"
)

// apiPrefix is the engine's REST namespace.
const apiPrefix = "/api/v1/agent"

// ClientConfig holds configuration for creating a Client.
type ClientConfig struct {
	// BaseURL is the engine's HTTP base URL (e.g., "http://localhost:8700").
	BaseURL string
	// HTTPClient is used for all requests. If nil, http.DefaultClient
	// is used.
	HTTPClient *http.Client
	// Logger is used for structured logging. If nil, slog.Default().
	Logger *slog.Logger
}

// Client talks to the automation engine's REST surface. It is safe
// for concurrent use; the sync loop and the controller share one.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient validates the base URL and returns a Client.
func NewClient(config ClientConfig) (*Client, error) {
	if config.BaseURL == "" {
		return nil, fmt.Errorf("agent: BaseURL is required")
	}
	parsed, err := url.Parse(config.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("agent: invalid BaseURL %q: %w", config.BaseURL, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("agent: BaseURL %q must use http or https", config.BaseURL)
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL:    strings.TrimRight(config.BaseURL, "/"),
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// HTTPClient exposes the underlying transport so the push channel can
// dial the WebSocket through the same client.
func (c *Client) HTTPClient() *http.Client { return c.httpClient }

// StartJob asks the engine to begin a new automation run and returns
// the assigned job id. Failures are wrapped in *StartError: no job
// exists, nothing to retry.
func (c *Client) StartJob(ctx context.Context, request StartRequest) (string, error) {
	if request.Task == "" {
		return "", &StartError{Err: fmt.Errorf("task is required")}
	}
	body, err := c.doRequest(ctx, http.MethodPost, apiPrefix+"/start", request, nil)
	if err != nil {
		return "", &StartError{Err: err}
	}
	var response StartResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return "", &StartError{Err: fmt.Errorf("parsing start response: %w", err)}
	}
	if response.JobID == "" {
		return "", &StartError{Err: fmt.Errorf("engine returned empty job_id")}
	}
	c.logger.Info("started automation job", "job_id", response.JobID, "task", request.Task)
	return response.JobID, nil
}

// JobStatus fetches the authoritative job snapshot (the poll channel).
func (c *Client) JobStatus(ctx context.Context, jobID string) (StatusSnapshot, error) {
	body, err := c.doRequest(ctx, http.MethodGet, apiPrefix+"/status/"+url.PathEscape(jobID), nil, nil)
	if err != nil {
		return StatusSnapshot{}, fmt.Errorf("agent: fetching status for %s: %w", jobID, err)
	}
	var snapshot StatusSnapshot
	if err := json.Unmarshal(body, &snapshot); err != nil {
		return StatusSnapshot{}, fmt.Errorf("agent: parsing status for %s: %w", jobID, err)
	}
	return snapshot, nil
}

// SubmitIntervention sends an operator action to unblock a waiting
// job. Each submission carries a fresh request id so the engine can
// dedup an operator double-click. Failures are wrapped in
// *ActionSubmitError: the job stays in waiting_human and the operator
// can retry.
func (c *Client) SubmitIntervention(ctx context.Context, jobID string, action HumanAction) error {
	headers := http.Header{"X-Request-Id": []string{uuid.NewString()}}
	_, err := c.doRequest(ctx, http.MethodPost,
		apiPrefix+"/intervention/"+url.PathEscape(jobID),
		InterventionRequest{Action: action}, headers)
	if err != nil {
		return &ActionSubmitError{Err: err}
	}
	c.logger.Info("submitted intervention", "job_id", jobID, "action_type", action.ActionType)
	return nil
}

// ManualIntervention forces the job into waiting_human without the
// agent having asked, so the operator can take control. The ack
// carries a screenshot and current URL for immediate display; the
// authoritative status change arrives through the normal channels.
func (c *Client) ManualIntervention(ctx context.Context, jobID string) (ManualInterventionResponse, error) {
	body, err := c.doRequest(ctx, http.MethodPost,
		apiPrefix+"/manual-intervention/"+url.PathEscape(jobID), nil, nil)
	if err != nil {
		return ManualInterventionResponse{}, fmt.Errorf("agent: manual intervention for %s: %w", jobID, err)
	}
	var response ManualInterventionResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return ManualInterventionResponse{}, fmt.Errorf("agent: parsing manual intervention ack for %s: %w", jobID, err)
	}
	return response, nil
}

// CancelJob requests cooperative cancellation. The resulting terminal
// status arrives through the channels, not in this response — the
// poll and push feeds stay the only sources of truth.
func (c *Client) CancelJob(ctx context.Context, jobID string) error {
	if _, err := c.doRequest(ctx, http.MethodPost, apiPrefix+"/cancel/"+url.PathEscape(jobID), nil, nil); err != nil {
		return fmt.Errorf("agent: cancelling %s: %w", jobID, err)
	}
	c.logger.Info("requested job cancellation", "job_id", jobID)
	return nil
}

// Health fetches the engine health summary.
func (c *Client) Health(ctx context.Context) (HealthResponse, error) {
	body, err := c.doRequest(ctx, http.MethodGet, apiPrefix+"/health", nil, nil)
	if err != nil {
		return HealthResponse{}, fmt.Errorf("agent: health check: %w", err)
	}
	var response HealthResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return HealthResponse{}, fmt.Errorf("agent: parsing health response: %w", err)
	}
	return response, nil
}

// WebSocketURL derives the push channel endpoint for a job id from
// the REST base URL.
func (c *Client) WebSocketURL(jobID string) string {
	wsBase := c.baseURL
	switch {
	case strings.HasPrefix(wsBase, "https://"):
		wsBase = "wss://" + strings.TrimPrefix(wsBase, "https://")
	case strings.HasPrefix(wsBase, "http://"):
		wsBase = "ws://" + strings.TrimPrefix(wsBase, "http://")
	}
	return wsBase + apiPrefix + "/ws/" + url.PathEscape(jobID)
}

// doRequest performs an HTTP request and returns the response body.
// On 2xx, returns the body. On 4xx/5xx, returns a *EngineError.
func (c *Client) doRequest(ctx context.Context, method, path string, requestBody any, headers http.Header) ([]byte, error) {
	var bodyReader io.Reader
	if requestBody != nil {
		encoded, err := json.Marshal(requestBody)
		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}
		bodyReader = bytes.NewReader(encoded)
	}

	request, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if requestBody != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	for key, values := range headers {
		for _, value := range values {
			request.Header.Add(key, value)
		}
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("request to %s %s failed: %w", method, path, err)
	}
	defer response.Body.Close()

	responseBody, err := netutil.ReadResponse(response.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response from %s %s: %w", method, path, err)
	}

	if response.StatusCode >= 200 && response.StatusCode < 300 {
		return responseBody, nil
	}

	engineErr := &EngineError{StatusCode: response.StatusCode}
	if jsonErr := json.Unmarshal(responseBody, engineErr); jsonErr != nil || engineErr.Message == "" {
		engineErr.Message = strings.TrimSpace(string(responseBody))
		if engineErr.Message == "" {
			engineErr.Message = http.StatusText(response.StatusCode)
		}
	}
	return nil, engineErr
}
