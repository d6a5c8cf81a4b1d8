// Package firefly implements the Firefly Algorithm, a population-based
// stochastic metaheuristic for continuous optimization over box bounds.
//
// Each candidate solution ("firefly") carries a brightness derived from its
// objective value so that brighter always means better, regardless of
// whether the run minimizes or maximizes. In every iteration each firefly
// is pulled toward every strictly brighter neighbor with an attractiveness
// that decays exponentially with squared distance, perturbed by a uniform
// random step; when several neighbors are brighter, the last one visited
// determines the proposed move. Proposals are clipped into the bounds and
// accepted per firefly only when they strictly improve brightness. The
// resulting iteration-order dependence is a property of the method as
// implemented and is relied on for seed-for-seed reproducibility.
package firefly

import (
	"context"
	"math"
	"math/rand"
	"time"

	"gonum.org/v1/gonum/floats"

	"github.com/copyleftdev/FIREFLY/internal/optimization"
)

// Defaults applied by DefaultConfig.
const (
	DefaultPopulationSize = 25
	DefaultAlpha          = 0.5
	DefaultBeta0          = 1.0
	DefaultGamma          = 1.0
	DefaultIterations     = 100
	DefaultLower          = -5.0
	DefaultUpper          = 5.0
)

// Config contains the configuration for a firefly optimizer.
type Config struct {
	// Objective is the function to optimize. Required.
	Objective optimization.ObjectiveFunction

	// Dimensions is the dimensionality of the search space. Required.
	Dimensions int

	// PopulationSize is the number of fireflies.
	PopulationSize int

	// Bounds holds one [lower, upper] pair per dimension. When nil,
	// Lower and Upper are broadcast to every dimension.
	Bounds [][2]float64

	// Lower and Upper are the scalar bounds used when Bounds is nil.
	Lower float64
	Upper float64

	// Alpha scales the uniform random step added to every move.
	Alpha float64

	// Beta0 is the attractiveness at zero distance.
	Beta0 float64

	// Gamma is the light absorption coefficient controlling how fast
	// attractiveness decays with squared distance.
	Gamma float64

	// Iterations is the number of optimization steps to run. Zero is
	// valid and returns the initial population's best.
	Iterations int

	// Maximize inverts the brightness mapping; the default minimizes.
	Maximize bool

	// Seed seeds the optimizer's random source. Zero seeds from the
	// current time; pass a non-zero seed for reproducible runs.
	Seed int64

	// TrackPositions records a snapshot of the full population before
	// the first iteration and after every following one. Diagnostics
	// only; it never affects the search trajectory.
	TrackPositions bool

	// OnIteration, when set, is invoked after every completed iteration
	// with the iteration index and the best value so far.
	OnIteration func(iteration int, bestValue float64)
}

// DefaultConfig returns a Config with the standard hyperparameters.
// Objective and Dimensions must still be set by the caller.
func DefaultConfig() Config {
	return Config{
		PopulationSize: DefaultPopulationSize,
		Alpha:          DefaultAlpha,
		Beta0:          DefaultBeta0,
		Gamma:          DefaultGamma,
		Iterations:     DefaultIterations,
		Lower:          DefaultLower,
		Upper:          DefaultUpper,
	}
}

// Optimizer holds the population state of a firefly run. It is not safe
// for concurrent use; it owns its arrays exclusively and hands out copies.
type Optimizer struct {
	cfg    Config
	bounds [][2]float64
	rng    *rand.Rand

	positions  [][]float64
	values     []float64
	brightness []float64
	bestIdx    int

	history []float64
	evals   int
}

// New creates a firefly optimizer and initializes its population with a
// uniform random draw inside the bounds. The objective is evaluated once
// per firefly before New returns.
func New(cfg Config) (*Optimizer, error) {
	bounds, err := validate(cfg)
	if err != nil {
		return nil, err
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	o := &Optimizer{
		cfg:        cfg,
		bounds:     bounds,
		rng:        rand.New(rand.NewSource(seed)),
		positions:  make([][]float64, cfg.PopulationSize),
		values:     make([]float64, cfg.PopulationSize),
		brightness: make([]float64, cfg.PopulationSize),
		history:    make([]float64, 0, cfg.Iterations),
	}

	if err := o.initPopulation(); err != nil {
		return nil, err
	}
	return o, nil
}

// Optimize configures a firefly optimizer and runs it to completion.
func Optimize(ctx context.Context, cfg Config) (*optimization.Result, error) {
	o, err := New(cfg)
	if err != nil {
		return nil, err
	}
	return o.Run(ctx)
}

func validate(cfg Config) ([][2]float64, error) {
	if cfg.Objective == nil {
		return nil, optimization.NewConfigError("objective function is required").WithOperation("firefly.New")
	}
	if cfg.Dimensions < 1 {
		return nil, optimization.NewConfigError("dimensions must be positive, got %d", cfg.Dimensions).WithOperation("firefly.New")
	}
	if cfg.PopulationSize < 1 {
		return nil, optimization.NewConfigError("population size must be positive, got %d", cfg.PopulationSize).WithOperation("firefly.New")
	}
	if cfg.Iterations < 0 {
		return nil, optimization.NewConfigError("iterations must not be negative, got %d", cfg.Iterations).WithOperation("firefly.New")
	}

	bounds := cfg.Bounds
	if bounds == nil {
		bounds = optimization.BroadcastBounds(cfg.Lower, cfg.Upper, cfg.Dimensions)
	}
	if len(bounds) != cfg.Dimensions {
		return nil, optimization.NewConfigError("expected %d bound pairs, got %d", cfg.Dimensions, len(bounds)).WithOperation("firefly.New")
	}
	for k, b := range bounds {
		if b[0] > b[1] {
			return nil, optimization.NewConfigError("dimension %d: lower bound %v exceeds upper bound %v", k, b[0], b[1]).WithOperation("firefly.New")
		}
	}
	return bounds, nil
}

// initPopulation draws positions uniformly inside the bounds, evaluates
// them, and derives brightness and the best index.
func (o *Optimizer) initPopulation() error {
	for i := range o.positions {
		x := make([]float64, o.cfg.Dimensions)
		for k := range x {
			lo, hi := o.bounds[k][0], o.bounds[k][1]
			x[k] = lo + o.rng.Float64()*(hi-lo)
		}
		o.positions[i] = x

		v, err := o.evaluate(x)
		if err != nil {
			return err
		}
		o.values[i] = v
		o.brightness[i] = o.brightnessOf(v)
	}
	o.bestIdx = argmax(o.brightness)
	return nil
}

// brightnessOf maps an objective value to intensity: -v when minimizing,
// v when maximizing, so higher brightness is always better.
func (o *Optimizer) brightnessOf(v float64) float64 {
	if o.cfg.Maximize {
		return v
	}
	return -v
}

// evaluate calls the objective and rejects non-finite results. Continuing
// with a NaN or infinite brightness would corrupt every later acceptance
// comparison, so the run is aborted instead.
func (o *Optimizer) evaluate(x []float64) (float64, error) {
	o.evals++
	v, err := o.cfg.Objective(x)
	if err != nil {
		return 0, optimization.WrapEvaluationError(err, "objective evaluation failed").WithOperation("firefly.evaluate")
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, optimization.NewEvaluationError("objective returned non-finite value %v", v).WithOperation("firefly.evaluate")
	}
	return v, nil
}

// step performs one iteration: propose moves toward brighter neighbors,
// clip into bounds, evaluate, and greedily accept strict improvements.
func (o *Optimizer) step() error {
	n := o.cfg.PopulationSize

	// Candidates start as copies so fireflies without a brighter
	// neighbor propose their current position. When several neighbors
	// are brighter, the last j visited overwrites earlier proposals.
	cand := make([][]float64, n)
	for i := range cand {
		cand[i] = append([]float64(nil), o.positions[i]...)
	}

	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if o.brightness[j] <= o.brightness[i] {
				continue
			}
			r := floats.Distance(o.positions[i], o.positions[j], 2)
			beta := o.cfg.Beta0 * math.Exp(-o.cfg.Gamma*r*r)
			for k := range cand[i] {
				attract := beta * (o.positions[j][k] - o.positions[i][k])
				noise := o.cfg.Alpha * (o.rng.Float64() - 0.5)
				cand[i][k] = o.positions[i][k] + attract + noise
			}
		}
	}

	o.clip(cand)

	// Every candidate is evaluated, including unmoved ones; identical
	// positions yield identical values and are rejected by the strict
	// acceptance below, so unmoved fireflies stay observably unchanged.
	candValues := make([]float64, n)
	for i := range cand {
		v, err := o.evaluate(cand[i])
		if err != nil {
			return err
		}
		candValues[i] = v
	}

	for i := 0; i < n; i++ {
		b := o.brightnessOf(candValues[i])
		if b > o.brightness[i] {
			copy(o.positions[i], cand[i])
			o.values[i] = candValues[i]
			o.brightness[i] = b
		}
	}

	o.bestIdx = argmax(o.brightness)
	return nil
}

// clip truncates every coordinate into its dimension's bound interval.
func (o *Optimizer) clip(points [][]float64) {
	for _, x := range points {
		for k := range x {
			lo, hi := o.bounds[k][0], o.bounds[k][1]
			x[k] = math.Max(lo, math.Min(x[k], hi))
		}
	}
}

// Run executes the configured number of iterations and returns the best
// solution with its diagnostics. The returned positions and history are
// copies; the caller never observes later mutation of optimizer state.
// Run is single-shot: a failed run leaves the population wherever the
// failure occurred and the optimizer should be discarded.
func (o *Optimizer) Run(ctx context.Context) (*optimization.Result, error) {
	var snapshots [][][]float64
	if o.cfg.TrackPositions {
		snapshots = append(snapshots, o.snapshot())
	}

	for it := 0; it < o.cfg.Iterations; it++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if err := o.step(); err != nil {
			return nil, err
		}

		o.history = append(o.history, o.values[o.bestIdx])
		if o.cfg.TrackPositions {
			snapshots = append(snapshots, o.snapshot())
		}
		if o.cfg.OnIteration != nil {
			o.cfg.OnIteration(it, o.values[o.bestIdx])
		}
	}

	return &optimization.Result{
		Best: optimization.Solution{
			Position: append([]float64(nil), o.positions[o.bestIdx]...),
			Value:    o.values[o.bestIdx],
		},
		BestIndex:      o.bestIdx,
		BestBrightness: o.brightness[o.bestIdx],
		History:        append([]float64(nil), o.history...),
		Positions:      snapshots,
		Iterations:     o.cfg.Iterations,
		Evaluations:    o.evals,
	}, nil
}

// SetOnIteration replaces the per-iteration callback. It must be called
// before Run.
func (o *Optimizer) SetOnIteration(fn func(iteration int, bestValue float64)) {
	o.cfg.OnIteration = fn
}

// BestSolution returns a copy of the currently brightest firefly.
func (o *Optimizer) BestSolution() *optimization.Solution {
	return &optimization.Solution{
		Position: append([]float64(nil), o.positions[o.bestIdx]...),
		Value:    o.values[o.bestIdx],
	}
}

// History returns a copy of the best-value-per-iteration sequence
// recorded so far.
func (o *Optimizer) History() []float64 {
	return append([]float64(nil), o.history...)
}

// Evaluations returns the number of objective evaluations performed,
// including the initial population evaluation.
func (o *Optimizer) Evaluations() int {
	return o.evals
}

// Bounds returns a copy of the resolved per-dimension bounds.
func (o *Optimizer) Bounds() [][2]float64 {
	return append([][2]float64(nil), o.bounds...)
}

func (o *Optimizer) snapshot() [][]float64 {
	snap := make([][]float64, len(o.positions))
	for i, x := range o.positions {
		snap[i] = append([]float64(nil), x...)
	}
	return snap
}

// argmax returns the index of the largest element, ties broken by first
// occurrence.
func argmax(xs []float64) int {
	best := 0
	for i, v := range xs {
		if v > xs[best] {
			best = i
		}
	}
	return best
}
