package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/copyleftdev/FIREFLY/internal/config"
	"github.com/copyleftdev/FIREFLY/internal/logging"
	"github.com/copyleftdev/FIREFLY/internal/optimization"
	"github.com/copyleftdev/FIREFLY/internal/optimization/firefly"
	"github.com/copyleftdev/FIREFLY/internal/optimization/objectives"
	"github.com/copyleftdev/FIREFLY/internal/render"
)

// Logger defines the logging interface used by the server
// This allows us to be flexible with our logging implementation
type Logger interface {
	Debug(msg string, fields ...map[string]interface{})
	Info(msg string, fields ...map[string]interface{})
	Warn(msg string, fields ...map[string]interface{})
	Error(msg string, fields ...map[string]interface{})
	Fatal(msg string, fields ...map[string]interface{})
	WithFields(fields map[string]interface{}) *logging.Logger
}

// OptimizeRequest is the payload accepted by POST /api/v1/optimize and the
// optimization.start JSON-RPC method. Hyperparameters use pointers so a
// deliberate zero (e.g. alpha=0, iterations=0) stays distinguishable from
// an omitted field, which falls back to the server defaults.
type OptimizeRequest struct {
	Objective      string       `json:"objective"`
	Dimensions     int          `json:"dimensions"`
	Bounds         [][2]float64 `json:"bounds,omitempty"`
	Lower          *float64     `json:"lower,omitempty"`
	Upper          *float64     `json:"upper,omitempty"`
	PopulationSize int          `json:"population_size,omitempty"`
	Iterations     *int         `json:"iterations,omitempty"`
	Alpha          *float64     `json:"alpha,omitempty"`
	Beta0          *float64     `json:"beta0,omitempty"`
	Gamma          *float64     `json:"gamma,omitempty"`
	Maximize       bool         `json:"maximize,omitempty"`
	Seed           int64        `json:"seed,omitempty"`
	TrackPositions bool         `json:"track_positions,omitempty"`
}

// Server exposes the firefly optimizer over HTTP and JSON-RPC 2.0.
// It manages asynchronous optimization jobs and their lifecycle.
type Server struct {
	cfg     *config.Config
	logger  Logger
	metrics *Metrics

	mu   sync.RWMutex
	jobs map[string]*Job
}

// NewServer creates a new server instance with the given config and logger.
// Metrics are registered on reg, usually prometheus.DefaultRegisterer.
func NewServer(cfg *config.Config, logger Logger, reg prometheus.Registerer) *Server {
	return &Server{
		cfg:     cfg,
		logger:  logger,
		metrics: NewMetrics(reg),
		jobs:    make(map[string]*Job),
	}
}

func (s *Server) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/objectives", s.handleObjectives)
		r.Post("/optimize", s.handleOptimize)
		r.Get("/status/{id}", s.handleStatus)
		r.Delete("/optimization/{id}", s.handleCancel)
		r.Get("/result/{id}/animation.gif", s.handleAnimation)
	})

	r.Post("/rpc", s.handleJSONRPC)
}

// buildConfig resolves a request against the server defaults and guard
// rails, returning the optimizer configuration to run.
func (s *Server) buildConfig(req OptimizeRequest) (firefly.Config, optimization.ObjectiveFunction, error) {
	objective, err := objectives.Lookup(req.Objective)
	if err != nil {
		return firefly.Config{}, nil, err
	}

	opt := s.cfg.Optimizer
	if req.Dimensions < 1 || req.Dimensions > opt.MaxDimensions {
		return firefly.Config{}, nil, fmt.Errorf("dimensions must be in [1, %d], got %d", opt.MaxDimensions, req.Dimensions)
	}

	cfg := firefly.DefaultConfig()
	cfg.Dimensions = req.Dimensions
	cfg.PopulationSize = opt.PopulationSize
	cfg.Iterations = opt.Iterations
	cfg.Alpha = opt.Alpha
	cfg.Beta0 = opt.Beta0
	cfg.Gamma = opt.Gamma
	cfg.Maximize = req.Maximize
	cfg.Seed = req.Seed
	cfg.TrackPositions = req.TrackPositions

	if req.PopulationSize != 0 {
		cfg.PopulationSize = req.PopulationSize
	}
	if req.Iterations != nil {
		cfg.Iterations = *req.Iterations
	}
	if req.Alpha != nil {
		cfg.Alpha = *req.Alpha
	}
	if req.Beta0 != nil {
		cfg.Beta0 = *req.Beta0
	}
	if req.Gamma != nil {
		cfg.Gamma = *req.Gamma
	}
	if cfg.PopulationSize > opt.MaxPopulation {
		return firefly.Config{}, nil, fmt.Errorf("population size exceeds limit %d", opt.MaxPopulation)
	}
	if cfg.Iterations > opt.MaxIterations {
		return firefly.Config{}, nil, fmt.Errorf("iterations exceed limit %d", opt.MaxIterations)
	}

	if req.Bounds != nil {
		cfg.Bounds = req.Bounds
	} else {
		if req.Lower != nil {
			cfg.Lower = *req.Lower
		}
		if req.Upper != nil {
			cfg.Upper = *req.Upper
		}
	}

	s.countEvaluations(&cfg, objective)
	return cfg, objective, nil
}

// countEvaluations wraps the objective so every evaluation is visible on
// the metrics endpoint.
func (s *Server) countEvaluations(cfg *firefly.Config, objective optimization.ObjectiveFunction) {
	cfg.Objective = func(x []float64) (float64, error) {
		s.metrics.Evaluations.Inc()
		return objective(x)
	}
}

// startJob validates a request, constructs the optimizer (which evaluates
// the initial population), and launches the run in its own goroutine.
func (s *Server) startJob(req OptimizeRequest) (*Job, error) {
	cfg, rawObjective, err := s.buildConfig(req)
	if err != nil {
		return nil, err
	}

	opt, err := firefly.New(cfg)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	job := &Job{
		ID:         uuid.NewString(),
		State:      StatePending,
		Objective:  req.Objective,
		Dimensions: cfg.Dimensions,
		Iterations: cfg.Iterations,
		StartTime:  time.Now(),
		objective:  rawObjective,
		bounds:     opt.Bounds(),
		cancel:     cancel,
	}

	s.mu.Lock()
	s.jobs[job.ID] = job
	s.mu.Unlock()
	s.metrics.JobsStarted.Inc()

	s.logger.Info("Optimization job accepted", map[string]interface{}{
		"job_id":     job.ID,
		"objective":  job.Objective,
		"dimensions": job.Dimensions,
		"iterations": job.Iterations,
	})

	go s.runJob(ctx, job, opt, cfg)
	return job, nil
}

// runJob executes the optimization and records its terminal state.
func (s *Server) runJob(ctx context.Context, job *Job, opt *firefly.Optimizer, cfg firefly.Config) {
	total := cfg.Iterations
	opt.SetOnIteration(func(iteration int, bestValue float64) {
		s.mu.Lock()
		job.Progress = float64(iteration+1) / float64(total)
		v := bestValue
		job.BestValue = &v
		s.mu.Unlock()
	})

	s.mu.Lock()
	job.State = StateRunning
	s.mu.Unlock()

	result, err := opt.Run(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	job.EndTime = &now

	switch {
	case errors.Is(err, context.Canceled):
		job.State = StateCancelled
	case err != nil:
		job.State = StateFailed
		job.Error = err.Error()
		s.logger.Error("Optimization job failed", map[string]interface{}{
			"job_id": job.ID,
			"error":  err.Error(),
		})
	default:
		job.State = StateCompleted
		job.Progress = 1
		job.Result = result
		s.logger.Info("Optimization job completed", map[string]interface{}{
			"job_id":      job.ID,
			"best_value":  result.Best.Value,
			"evaluations": result.Evaluations,
		})
	}
	s.metrics.JobsFinished.WithLabelValues(string(job.State)).Inc()
}

// jobStatus returns the status snapshot for a job ID.
func (s *Server) jobStatus(id string) (StatusResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[id]
	if !ok {
		return StatusResponse{}, fmt.Errorf("optimization %q not found", id)
	}
	return job.status(), nil
}

// cancelJob cancels a pending or running job.
func (s *Server) cancelJob(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return fmt.Errorf("optimization %q not found", id)
	}
	if job.State.terminal() {
		return fmt.Errorf("cannot cancel optimization in state %s", job.State)
	}
	job.cancel()
	s.logger.Info("Optimization cancellation requested", map[string]interface{}{
		"job_id": id,
	})
	return nil
}

// Close cancels all running optimizations.
func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, job := range s.jobs {
		if !job.State.terminal() {
			job.cancel()
		}
	}
	return nil
}

// handleOptimize handles POST /api/v1/optimize.
func (s *Server) handleOptimize(w http.ResponseWriter, r *http.Request) {
	var req OptimizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	job, err := s.startJob(req)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.respondJSON(w, http.StatusAccepted, map[string]interface{}{
		"optimization_id": job.ID,
		"status":          job.State,
	})
}

// handleStatus handles GET /api/v1/status/{id}.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	status, err := s.jobStatus(id)
	if err != nil {
		s.respondError(w, http.StatusNotFound, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, status)
}

// handleCancel handles DELETE /api/v1/optimization/{id}.
func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.cancelJob(id); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "cancellation requested"})
}

// handleObjectives handles GET /api/v1/objectives.
func (s *Server) handleObjectives(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"objectives": objectives.Names()})
}

// handleAnimation handles GET /api/v1/result/{id}/animation.gif. It is
// only available for completed two-dimensional jobs that tracked
// positions; a render failure never affects the stored result.
func (s *Server) handleAnimation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.mu.RLock()
	job, ok := s.jobs[id]
	var (
		state     JobState
		positions [][][]float64
		objective optimization.ObjectiveFunction
		bounds    [][2]float64
	)
	if ok {
		state = job.State
		objective = job.objective
		bounds = job.bounds
		if job.Result != nil {
			positions = job.Result.Positions
		}
	}
	s.mu.RUnlock()

	if !ok {
		s.respondError(w, http.StatusNotFound, fmt.Sprintf("optimization %q not found", id))
		return
	}
	if state != StateCompleted || positions == nil || len(bounds) != 2 {
		s.respondError(w, http.StatusConflict, "animation requires a completed 2-dimensional job with track_positions")
		return
	}

	renderCfg := render.DefaultConfig()
	renderCfg.GridSize = s.cfg.Render.GridSize
	renderCfg.Levels = s.cfg.Render.Levels
	renderCfg.FrameDelayMS = s.cfg.Render.FrameDelayMS

	var buf bytes.Buffer
	if err := render.Animate(&buf, objective, bounds, positions, renderCfg); err != nil {
		s.logger.Warn("Animation rendering failed", map[string]interface{}{
			"job_id": id,
			"error":  err.Error(),
		})
		s.respondError(w, http.StatusInternalServerError, "rendering failed")
		return
	}

	w.Header().Set("Content-Type", "image/gif")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// handleJSONRPC handles JSON-RPC 2.0 requests
func (s *Server) handleJSONRPC(w http.ResponseWriter, r *http.Request) {
	var request struct {
		JSONRPC string            `json:"jsonrpc"`
		ID      interface{}       `json:"id"`
		Method  string            `json:"method"`
		Params  []json.RawMessage `json:"params,omitempty"`
	}

	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		s.respondRPCError(w, -32700, "Parse error", nil)
		return
	}
	if request.JSONRPC != "2.0" {
		s.respondRPCError(w, -32600, "Invalid Request", request.ID)
		return
	}

	var (
		result interface{}
		err    error
	)

	switch request.Method {
	case "optimization.start":
		result, err = s.rpcStart(request.Params)
	case "optimization.status":
		result, err = s.rpcStatus(request.Params)
	case "optimization.cancel":
		result, err = s.rpcCancel(request.Params)
	default:
		s.respondRPCError(w, -32601, "Method not found", request.ID)
		return
	}

	if err != nil {
		s.respondRPCError(w, -32000, err.Error(), request.ID)
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      request.ID,
		"result":  result,
	})
}

func (s *Server) rpcStart(params []json.RawMessage) (interface{}, error) {
	var req OptimizeRequest
	if err := decodeParam(params, &req); err != nil {
		return nil, err
	}
	job, err := s.startJob(req)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"optimization_id": job.ID,
		"status":          job.State,
	}, nil
}

func (s *Server) rpcStatus(params []json.RawMessage) (interface{}, error) {
	var ref struct {
		OptimizationID string `json:"optimization_id"`
	}
	if err := decodeParam(params, &ref); err != nil {
		return nil, err
	}
	return s.jobStatus(ref.OptimizationID)
}

func (s *Server) rpcCancel(params []json.RawMessage) (interface{}, error) {
	var ref struct {
		OptimizationID string `json:"optimization_id"`
	}
	if err := decodeParam(params, &ref); err != nil {
		return nil, err
	}
	if err := s.cancelJob(ref.OptimizationID); err != nil {
		return nil, err
	}
	return map[string]string{"status": "cancellation requested"}, nil
}

func decodeParam(params []json.RawMessage, dst interface{}) error {
	if len(params) == 0 {
		return fmt.Errorf("missing required parameters")
	}
	if err := json.Unmarshal(params[0], dst); err != nil {
		return fmt.Errorf("invalid parameter format: %v", err)
	}
	return nil
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.logger.Error("Request error", map[string]interface{}{
		"status":  status,
		"message": message,
	})
	s.respondJSON(w, status, map[string]string{"error": message})
}

func (s *Server) respondRPCError(w http.ResponseWriter, code int, message string, id interface{}) {
	s.logger.Error("Request error", map[string]interface{}{
		"status":  code,
		"message": message,
	})
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"jsonrpc": "2.0",
		"error": map[string]interface{}{
			"code":    code,
			"message": message,
		},
		"id": id,
	})
}
