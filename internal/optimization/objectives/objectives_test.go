package objectives

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKnownOptima(t *testing.T) {
	tests := []struct {
		name string
		fn   func([]float64) (float64, error)
		x    []float64
		want float64
		tol  float64
	}{
		{name: "sphere origin", fn: Sphere, x: []float64{0, 0, 0}, want: 0, tol: 0},
		{name: "sphere unit", fn: Sphere, x: []float64{1, 2}, want: 5, tol: 1e-12},
		{name: "rastrigin origin", fn: Rastrigin, x: []float64{0, 0}, want: 0, tol: 1e-12},
		{name: "rosenbrock ones", fn: Rosenbrock, x: []float64{1, 1, 1}, want: 0, tol: 1e-12},
		{name: "rosenbrock origin", fn: Rosenbrock, x: []float64{0, 0}, want: 1, tol: 1e-12},
		{name: "eggholder optimum", fn: Eggholder, x: []float64{512, 404.2319}, want: -959.6407, tol: 1e-3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.fn(tt.x)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, tt.tol)
		})
	}
}

func TestEggholderDimensionCheck(t *testing.T) {
	_, err := Eggholder([]float64{1, 2, 3})
	assert.Error(t, err)
}

func TestLookup(t *testing.T) {
	fn, err := Lookup("Sphere")
	require.NoError(t, err)
	v, err := fn([]float64{3})
	require.NoError(t, err)
	assert.Equal(t, 9.0, v)

	_, err = Lookup("nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sphere")
}

func TestNamesSorted(t *testing.T) {
	assert.Equal(t, []string{"eggholder", "rastrigin", "rosenbrock", "sphere"}, Names())
}
