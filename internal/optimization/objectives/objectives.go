// Package objectives provides the benchmark objective functions the CLI
// and server expose by name. All of them are pure, finite over their
// usual boxes, and safe to call from any goroutine.
package objectives

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/floats"

	"github.com/copyleftdev/FIREFLY/internal/optimization"
)

// Sphere is the sum of squares. Global minimum 0 at the origin.
func Sphere(x []float64) (float64, error) {
	return floats.Dot(x, x), nil
}

// Rastrigin is multimodal with many regularly spaced local minima.
// Global minimum 0 at the origin.
func Rastrigin(x []float64) (float64, error) {
	const a = 10.0
	sum := a * float64(len(x))
	for _, v := range x {
		sum += v*v - a*math.Cos(2*math.Pi*v)
	}
	return sum, nil
}

// Rosenbrock is the banana valley. Global minimum 0 at (1, ..., 1).
func Rosenbrock(x []float64) (float64, error) {
	sum := 0.0
	for i := 0; i < len(x)-1; i++ {
		sum += 100*math.Pow(x[i+1]-x[i]*x[i], 2) + math.Pow(1-x[i], 2)
	}
	return sum, nil
}

// Eggholder is a heavily multimodal two-dimensional benchmark, usually
// boxed to [-512, 512]^2. Global minimum about -959.6407 near
// (512, 404.2319).
func Eggholder(x []float64) (float64, error) {
	if len(x) != 2 {
		return 0, optimization.NewEvaluationError("eggholder is defined for 2 dimensions, got %d", len(x))
	}
	a := x[1] + 47
	return -a*math.Sin(math.Sqrt(math.Abs(x[0]/2+a))) -
		x[0]*math.Sin(math.Sqrt(math.Abs(x[0]-a))), nil
}

var registry = map[string]optimization.ObjectiveFunction{
	"sphere":     Sphere,
	"rastrigin":  Rastrigin,
	"rosenbrock": Rosenbrock,
	"eggholder":  Eggholder,
}

// Lookup returns the objective registered under name.
func Lookup(name string) (optimization.ObjectiveFunction, error) {
	fn, ok := registry[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown objective %q (known: %s)", name, strings.Join(Names(), ", "))
	}
	return fn, nil
}

// Names returns the registered objective names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
