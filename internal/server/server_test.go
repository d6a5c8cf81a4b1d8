package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/copyleftdev/FIREFLY/internal/config"
	"github.com/copyleftdev/FIREFLY/internal/logging"
)

// testConfig creates a test configuration with default values
func testConfig(t *testing.T) *config.Config {
	t.Helper()

	cfg := &config.Config{Environment: "test"}

	cfg.HTTP.Port = 8080
	cfg.HTTP.ReadTimeout = 30 * time.Second
	cfg.HTTP.WriteTimeout = 30 * time.Second

	cfg.Logging.Level = "error"
	cfg.Logging.Format = "json"
	cfg.Logging.Output = "stderr"

	cfg.Optimizer.PopulationSize = 15
	cfg.Optimizer.Iterations = 30
	cfg.Optimizer.Alpha = 0.5
	cfg.Optimizer.Beta0 = 1.0
	cfg.Optimizer.Gamma = 1.0
	cfg.Optimizer.MaxDimensions = 16
	cfg.Optimizer.MaxPopulation = 100
	cfg.Optimizer.MaxIterations = 1000

	cfg.Render.GridSize = 32
	cfg.Render.Levels = 10
	cfg.Render.FrameDelayMS = 50

	return cfg
}

// testLogger creates a test logger
func testLogger(t *testing.T) *logging.Logger {
	t.Helper()

	logger, err := logging.NewLogger(&logging.Config{
		Level:  "error",
		Format: "json",
		Output: "stderr",
	})
	require.NoError(t, err)
	return logger
}

func testRouter(t *testing.T) (*Server, chi.Router) {
	t.Helper()

	srv := NewServer(testConfig(t), testLogger(t), prometheus.NewRegistry())
	t.Cleanup(func() { _ = srv.Close() })

	r := chi.NewRouter()
	srv.RegisterRoutes(r)
	return srv, r
}

func postJSON(t *testing.T, r chi.Router, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// waitForState polls the status endpoint until the job reaches a terminal
// state or the deadline passes.
func waitForState(t *testing.T, r chi.Router, id string, want JobState) StatusResponse {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/status/"+id, nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)

		var status StatusResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
		if status.State == want {
			return status
		}
		if status.State.terminal() {
			t.Fatalf("job reached %s while waiting for %s: %s", status.State, want, status.Error)
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("job %s did not reach state %s in time", id, want)
	return StatusResponse{}
}

func TestNewServer(t *testing.T) {
	srv := NewServer(testConfig(t), testLogger(t), prometheus.NewRegistry())
	assert.NotNil(t, srv)
}

func TestOptimizeLifecycle(t *testing.T) {
	_, r := testRouter(t)

	w := postJSON(t, r, "/api/v1/optimize", OptimizeRequest{
		Objective:      "sphere",
		Dimensions:     2,
		Seed:           7,
		TrackPositions: true,
	})
	require.Equal(t, http.StatusAccepted, w.Code)

	var accepted struct {
		OptimizationID string `json:"optimization_id"`
		Status         string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &accepted))
	require.NotEmpty(t, accepted.OptimizationID)

	status := waitForState(t, r, accepted.OptimizationID, StateCompleted)
	require.NotNil(t, status.Best)
	assert.Len(t, status.History, 30)
	assert.Equal(t, 1.0, status.Progress)
	assert.Equal(t, 15*31, status.Evaluations)

	// Completed 2-D jobs with tracked positions can be animated.
	req := httptest.NewRequest(http.MethodGet, "/api/v1/result/"+accepted.OptimizationID+"/animation.gif", nil)
	gw := httptest.NewRecorder()
	r.ServeHTTP(gw, req)
	require.Equal(t, http.StatusOK, gw.Code)
	assert.Equal(t, "image/gif", gw.Header().Get("Content-Type"))

	// Terminal jobs cannot be cancelled.
	req = httptest.NewRequest(http.MethodDelete, "/api/v1/optimization/"+accepted.OptimizationID, nil)
	cw := httptest.NewRecorder()
	r.ServeHTTP(cw, req)
	assert.Equal(t, http.StatusBadRequest, cw.Code)
}

func TestOptimizeValidation(t *testing.T) {
	_, r := testRouter(t)

	tests := []struct {
		name string
		req  OptimizeRequest
	}{
		{
			name: "unknown objective",
			req:  OptimizeRequest{Objective: "nope", Dimensions: 2},
		},
		{
			name: "non-positive dimensions",
			req:  OptimizeRequest{Objective: "sphere", Dimensions: 0},
		},
		{
			name: "dimensions over limit",
			req:  OptimizeRequest{Objective: "sphere", Dimensions: 99},
		},
		{
			name: "population over limit",
			req:  OptimizeRequest{Objective: "sphere", Dimensions: 2, PopulationSize: 5000},
		},
		{
			name: "inverted bounds",
			req:  OptimizeRequest{Objective: "sphere", Dimensions: 1, Bounds: [][2]float64{{5, -5}}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postJSON(t, r, "/api/v1/optimize", tt.req)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestAnimationUnavailable(t *testing.T) {
	_, r := testRouter(t)

	// Untracked 3-D job: completes fine but cannot be animated.
	w := postJSON(t, r, "/api/v1/optimize", OptimizeRequest{
		Objective:  "sphere",
		Dimensions: 3,
		Seed:       11,
	})
	require.Equal(t, http.StatusAccepted, w.Code)

	var accepted struct {
		OptimizationID string `json:"optimization_id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &accepted))
	waitForState(t, r, accepted.OptimizationID, StateCompleted)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/result/"+accepted.OptimizationID+"/animation.gif", nil)
	gw := httptest.NewRecorder()
	r.ServeHTTP(gw, req)
	assert.Equal(t, http.StatusConflict, gw.Code)
}

func TestStatusNotFound(t *testing.T) {
	_, r := testRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/status/missing", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestObjectivesEndpoint(t *testing.T) {
	_, r := testRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/objectives", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Objectives []string `json:"objectives"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Contains(t, body.Objectives, "sphere")
	assert.Contains(t, body.Objectives, "rastrigin")
}

func TestJSONRPC(t *testing.T) {
	_, r := testRouter(t)

	t.Run("start and status", func(t *testing.T) {
		w := postJSON(t, r, "/rpc", map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      1,
			"method":  "optimization.start",
			"params": []interface{}{
				map[string]interface{}{"objective": "rastrigin", "dimensions": 2, "seed": 5},
			},
		})
		require.Equal(t, http.StatusOK, w.Code)

		var started struct {
			Result struct {
				OptimizationID string `json:"optimization_id"`
			} `json:"result"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &started))
		require.NotEmpty(t, started.Result.OptimizationID)

		waitForState(t, r, started.Result.OptimizationID, StateCompleted)

		w = postJSON(t, r, "/rpc", map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      2,
			"method":  "optimization.status",
			"params": []interface{}{
				map[string]interface{}{"optimization_id": started.Result.OptimizationID},
			},
		})
		require.Equal(t, http.StatusOK, w.Code)

		var status struct {
			Result StatusResponse `json:"result"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
		assert.Equal(t, StateCompleted, status.Result.State)
	})

	t.Run("invalid version", func(t *testing.T) {
		w := postJSON(t, r, "/rpc", map[string]interface{}{
			"jsonrpc": "1.0",
			"id":      3,
			"method":  "optimization.start",
		})
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "-32600")
	})

	t.Run("method not found", func(t *testing.T) {
		w := postJSON(t, r, "/rpc", map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      4,
			"method":  "optimization.nope",
		})
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "-32601")
	})

	t.Run("cancel unknown job", func(t *testing.T) {
		w := postJSON(t, r, "/rpc", map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      5,
			"method":  "optimization.cancel",
			"params": []interface{}{
				map[string]interface{}{"optimization_id": "missing"},
			},
		})
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "-32000")
	})
}
