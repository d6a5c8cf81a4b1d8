package optimization

import (
	"context"
)

// Optimizer defines the interface for optimization algorithms
type Optimizer interface {
	// Run executes the optimization to completion
	Run(ctx context.Context) (*Result, error)

	// BestSolution returns the best solution found so far
	BestSolution() *Solution

	// History returns the best objective value recorded after each iteration
	History() []float64

	// Evaluations returns the number of objective evaluations performed
	Evaluations() int
}

// ObjectiveFunction defines the function to be optimized. It receives a
// point inside the configured box bounds and returns its scalar value.
// The value must be finite; implementations must not mutate the input.
type ObjectiveFunction func([]float64) (float64, error)

// Solution represents a solution in the optimization space
type Solution struct {
	Position []float64 `json:"position"`
	Value    float64   `json:"value"`
}

// Result contains the outcome of an optimization run.
//
// History holds the best objective value after each iteration, so its
// length equals the configured iteration count. Positions is only
// populated when position tracking was requested; it then holds one
// snapshot of the full population per iteration plus the initial one.
type Result struct {
	Best           Solution      `json:"best"`
	BestIndex      int           `json:"best_index"`
	BestBrightness float64       `json:"best_brightness"`
	History        []float64     `json:"history"`
	Positions      [][][]float64 `json:"positions,omitempty"`
	Iterations     int           `json:"iterations"`
	Evaluations    int           `json:"evaluations"`
}

// BroadcastBounds builds per-dimension bounds from a single scalar pair.
func BroadcastBounds(lower, upper float64, dims int) [][2]float64 {
	bounds := make([][2]float64, dims)
	for i := range bounds {
		bounds[i] = [2]float64{lower, upper}
	}
	return bounds
}
