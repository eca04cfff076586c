package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"viralengine/composition"
)

func testPlan(t *testing.T) *composition.RenderPlan {
	t.Helper()
	d := 5.0
	cfg, err := composition.BuildTimeline(
		[]composition.SceneTemplate{{ID: "s", Duration: &d}},
		[]string{"hello"},
		[]string{"https://cdn/bg.mp4"},
		[]string{"https://cdn/vo.mp3"},
		composition.Options{},
	)
	require.NoError(t, err)
	plan, err := composition.Compile(cfg, nil)
	require.NoError(t, err)
	return plan
}

func TestRenderServiceSubmit(t *testing.T) {
	plan := testPlan(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/render", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body renderSubmission
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "job-1", body.JobID)
		assert.Equal(t, "mp4", body.Format)
		assert.NotEmpty(t, body.Args)
		require.NotNil(t, body.Composition)
		assert.Equal(t, plan.Inputs, body.Composition.Inputs)

		json.NewEncoder(w).Encode(renderSubmitResponse{JobID: "remote-42", Status: RenderStatusPending})
	}))
	defer server.Close()

	rs := NewRenderService(server.URL, "secret", time.Millisecond, time.Second)
	remoteID, err := rs.Submit(context.Background(), "job-1", plan)
	require.NoError(t, err)
	assert.Equal(t, "remote-42", remoteID)
}

func TestRenderServiceSubmitRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(renderSubmitResponse{Error: "unsupported codec"})
	}))
	defer server.Close()

	rs := NewRenderService(server.URL, "", time.Millisecond, time.Second)
	_, err := rs.Submit(context.Background(), "job-1", testPlan(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported codec")
}

func TestRenderServiceWaitCompletes(t *testing.T) {
	var polls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/render/remote-42", r.URL.Path)
		resp := renderStatusResponse{Status: RenderStatusProcessing}
		if polls.Add(1) >= 3 {
			resp = renderStatusResponse{Status: RenderStatusCompleted, VideoURL: "https://cdn/final.mp4"}
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	rs := NewRenderService(server.URL, "", 5*time.Millisecond, time.Second)
	url, err := rs.WaitForCompletion(context.Background(), "remote-42")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn/final.mp4", url)
	assert.GreaterOrEqual(t, polls.Load(), int32(3))
}

func TestRenderServiceWaitFailed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(renderStatusResponse{Status: RenderStatusFailed, Error: "input fetch failed"})
	}))
	defer server.Close()

	rs := NewRenderService(server.URL, "", 5*time.Millisecond, time.Second)
	_, err := rs.WaitForCompletion(context.Background(), "remote-42")

	var failed *RenderFailedError
	require.ErrorAs(t, err, &failed)
	assert.Equal(t, "remote-42", failed.JobID)
	assert.Equal(t, "input fetch failed", failed.Reason)
}

func TestRenderServiceWaitTimesOut(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(renderStatusResponse{Status: RenderStatusProcessing})
	}))
	defer server.Close()

	rs := NewRenderService(server.URL, "", 5*time.Millisecond, 20*time.Millisecond)
	_, err := rs.WaitForCompletion(context.Background(), "remote-42")

	// A job still processing at the ceiling is a timeout, never a success
	// and never a RenderFailedError.
	var timeout *RenderTimeoutError
	require.ErrorAs(t, err, &timeout)
	var failed *RenderFailedError
	assert.False(t, errors.As(err, &failed))
}

func TestRenderServiceWaitContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(renderStatusResponse{Status: RenderStatusPending})
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rs := NewRenderService(server.URL, "", time.Hour, time.Hour)
	_, err := rs.WaitForCompletion(ctx, "remote-42")
	require.ErrorIs(t, err, context.Canceled)
}
