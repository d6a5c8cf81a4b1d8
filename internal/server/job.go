package server

import (
	"context"
	"time"

	"github.com/copyleftdev/FIREFLY/internal/optimization"
)

// JobState represents the current state of an optimization job.
type JobState string

const (
	StatePending   JobState = "pending"
	StateRunning   JobState = "running"
	StateCompleted JobState = "completed"
	StateFailed    JobState = "failed"
	StateCancelled JobState = "cancelled"
)

// terminal reports whether the state can no longer change.
func (s JobState) terminal() bool {
	switch s {
	case StateCompleted, StateFailed, StateCancelled:
		return true
	}
	return false
}

// Job tracks one optimization run from submission to its terminal state.
// All fields are guarded by the server's mutex.
type Job struct {
	ID         string
	State      JobState
	Objective  string
	Dimensions int
	Iterations int
	StartTime  time.Time
	EndTime    *time.Time
	Progress   float64
	BestValue  *float64
	Result     *optimization.Result
	Error      string

	// retained for post-run rendering
	objective optimization.ObjectiveFunction
	bounds    [][2]float64
	cancel    context.CancelFunc
}

// StatusResponse is the wire representation of a job's state.
type StatusResponse struct {
	ID          string                 `json:"id"`
	State       JobState               `json:"state"`
	Objective   string                 `json:"objective"`
	Dimensions  int                    `json:"dimensions"`
	Progress    float64                `json:"progress"`
	StartTime   string                 `json:"start_time"`
	EndTime     string                 `json:"end_time,omitempty"`
	BestValue   *float64               `json:"best_value,omitempty"`
	Best        *optimization.Solution `json:"best,omitempty"`
	History     []float64              `json:"history,omitempty"`
	Evaluations int                    `json:"evaluations,omitempty"`
	Error       string                 `json:"error,omitempty"`
}

func (j *Job) status() StatusResponse {
	resp := StatusResponse{
		ID:         j.ID,
		State:      j.State,
		Objective:  j.Objective,
		Dimensions: j.Dimensions,
		Progress:   j.Progress,
		StartTime:  j.StartTime.Format(time.RFC3339),
		BestValue:  j.BestValue,
		Error:      j.Error,
	}
	if j.EndTime != nil {
		resp.EndTime = j.EndTime.Format(time.RFC3339)
	}
	if j.Result != nil {
		resp.Best = &j.Result.Best
		resp.History = j.Result.History
		resp.Evaluations = j.Result.Evaluations
	}
	return resp
}
