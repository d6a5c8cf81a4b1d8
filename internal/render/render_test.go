package render

import (
	"bytes"
	"context"
	"errors"
	"image/gif"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/copyleftdev/FIREFLY/internal/optimization"
	"github.com/copyleftdev/FIREFLY/internal/optimization/firefly"
	"github.com/copyleftdev/FIREFLY/internal/optimization/objectives"
)

func trackedRun(t *testing.T, iters int) (*optimization.Result, [][2]float64) {
	t.Helper()

	cfg := firefly.DefaultConfig()
	cfg.Objective = objectives.Sphere
	cfg.Dimensions = 2
	cfg.PopulationSize = 10
	cfg.Iterations = iters
	cfg.Seed = 3
	cfg.TrackPositions = true

	result, err := firefly.Optimize(context.Background(), cfg)
	require.NoError(t, err)
	return result, optimization.BroadcastBounds(cfg.Lower, cfg.Upper, 2)
}

func TestContour(t *testing.T) {
	result, bounds := trackedRun(t, 5)

	cfg := DefaultConfig()
	cfg.GridSize = 64

	var buf bytes.Buffer
	require.NoError(t, Contour(&buf, objectives.Sphere, bounds, result.Positions, cfg))

	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, 64, img.Bounds().Dx())
	assert.Equal(t, 64, img.Bounds().Dy())
}

func TestAnimate(t *testing.T) {
	result, bounds := trackedRun(t, 4)

	cfg := DefaultConfig()
	cfg.GridSize = 48

	var buf bytes.Buffer
	require.NoError(t, Animate(&buf, objectives.Sphere, bounds, result.Positions, cfg))

	anim, err := gif.DecodeAll(&buf)
	require.NoError(t, err)
	assert.Len(t, anim.Image, 5, "one frame per snapshot, initial included")
	assert.Equal(t, 12, anim.Delay[0])
}

func TestRenderErrors(t *testing.T) {
	result, bounds := trackedRun(t, 2)
	cfg := DefaultConfig()
	cfg.GridSize = 16

	t.Run("wrong dimensionality", func(t *testing.T) {
		var buf bytes.Buffer
		err := Contour(&buf, objectives.Sphere, [][2]float64{{-5, 5}}, result.Positions, cfg)
		assert.Error(t, err)
	})

	t.Run("no history", func(t *testing.T) {
		var buf bytes.Buffer
		err := Animate(&buf, objectives.Sphere, bounds, nil, cfg)
		assert.Error(t, err)
	})

	t.Run("failing objective", func(t *testing.T) {
		boom := errors.New("sampling failed")
		bad := func(x []float64) (float64, error) { return 0, boom }

		var buf bytes.Buffer
		err := Contour(&buf, bad, bounds, result.Positions, cfg)
		require.Error(t, err)
		assert.ErrorIs(t, err, boom)
	})
}

func TestConstantFieldRenders(t *testing.T) {
	result, bounds := trackedRun(t, 1)
	flat := func(x []float64) (float64, error) { return 1.0, nil }

	cfg := DefaultConfig()
	cfg.GridSize = 16

	var buf bytes.Buffer
	require.NoError(t, Contour(&buf, flat, bounds, result.Positions, cfg))
}
