package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"viralengine/composition"
)

// Render job states reported by the remote compositor.
const (
	RenderStatusPending    = "pending"
	RenderStatusProcessing = "processing"
	RenderStatusCompleted  = "completed"
	RenderStatusFailed     = "failed"
)

// RenderFailedError is a terminal failure reported by the render backend.
type RenderFailedError struct {
	JobID  string
	Reason string
}

func (e *RenderFailedError) Error() string {
	return fmt.Sprintf("render job %s failed: %s", e.JobID, e.Reason)
}

// RenderTimeoutError means the job never reached a terminal state within the
// polling ceiling. It is distinct from RenderFailedError so callers can
// retry the two cases differently.
type RenderTimeoutError struct {
	JobID  string
	Waited time.Duration
}

func (e *RenderTimeoutError) Error() string {
	return fmt.Sprintf("render job %s did not finish within %s", e.JobID, e.Waited)
}

// RenderService submits compiled render plans to the remote FFmpeg
// compositor and polls for completion.
type RenderService struct {
	baseURL      string
	apiKey       string
	httpClient   *http.Client
	pollInterval time.Duration
	pollTimeout  time.Duration
}

// NewRenderService creates a render service client
func NewRenderService(baseURL, apiKey string, pollInterval, pollTimeout time.Duration) *RenderService {
	return &RenderService{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 2 * time.Minute,
		},
		pollInterval: pollInterval,
		pollTimeout:  pollTimeout,
	}
}

type renderSubmission struct {
	JobID       string                  `json:"job_id"`
	Composition *composition.RenderPlan `json:"composition"`
	Args        []string                `json:"args"`
	Resolution  composition.Resolution  `json:"resolution"`
	Format      string                  `json:"output_format"`
}

type renderSubmitResponse struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type renderStatusResponse struct {
	Status   string `json:"status"`
	VideoURL string `json:"video_url,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Submit posts a compiled plan to the render backend and returns the remote
// job identifier.
func (rs *RenderService) Submit(ctx context.Context, jobID string, plan *composition.RenderPlan) (string, error) {
	body := renderSubmission{
		JobID:       jobID,
		Composition: plan,
		Args:        plan.Args(fmt.Sprintf("output.%s", plan.OutputFormat)),
		Resolution:  plan.Resolution,
		Format:      plan.OutputFormat,
	}

	jsonData, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("failed to marshal render submission: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rs.baseURL+"/render", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if rs.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+rs.apiKey)
	}

	resp, err := rs.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("render submission failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp renderSubmitResponse
		if json.Unmarshal(raw, &errResp) == nil && errResp.Error != "" {
			return "", fmt.Errorf("render backend rejected job: %s", errResp.Error)
		}
		return "", fmt.Errorf("render backend returned status %d", resp.StatusCode)
	}

	var submitResp renderSubmitResponse
	if err := json.Unmarshal(raw, &submitResp); err != nil {
		return "", fmt.Errorf("failed to parse submit response: %w", err)
	}
	if submitResp.JobID == "" {
		submitResp.JobID = jobID
	}

	return submitResp.JobID, nil
}

// WaitForCompletion polls the status endpoint at the configured interval
// until the job completes, fails, the ceiling elapses, or ctx is cancelled.
// A timeout is never reinterpreted as success.
func (rs *RenderService) WaitForCompletion(ctx context.Context, remoteJobID string) (string, error) {
	deadline := time.Now().Add(rs.pollTimeout)
	ticker := time.NewTicker(rs.pollInterval)
	defer ticker.Stop()

	for {
		status, err := rs.fetchStatus(ctx, remoteJobID)
		if err != nil {
			return "", err
		}

		switch status.Status {
		case RenderStatusCompleted:
			return status.VideoURL, nil
		case RenderStatusFailed:
			return "", &RenderFailedError{JobID: remoteJobID, Reason: status.Error}
		}

		if time.Now().After(deadline) {
			return "", &RenderTimeoutError{JobID: remoteJobID, Waited: rs.pollTimeout}
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-ticker.C:
		}
	}
}

func (rs *RenderService) fetchStatus(ctx context.Context, remoteJobID string) (*renderStatusResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rs.baseURL+"/render/"+remoteJobID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create status request: %w", err)
	}
	if rs.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+rs.apiKey)
	}

	resp, err := rs.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("status request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status endpoint returned %d", resp.StatusCode)
	}

	var status renderStatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, fmt.Errorf("failed to parse status response: %w", err)
	}
	return &status, nil
}
