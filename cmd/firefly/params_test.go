package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/copyleftdev/FIREFLY/internal/optimization/firefly"
)

func writeParams(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "params.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadParamsAppliesOnlyNamedKeys(t *testing.T) {
	path := writeParams(t, "n: 40\nalpha: 0.25\nseed: 99\n")

	params, err := loadParams(path)
	require.NoError(t, err)

	cfg := firefly.DefaultConfig()
	params.apply(&cfg)

	assert.Equal(t, 40, cfg.PopulationSize)
	assert.Equal(t, 0.25, cfg.Alpha)
	assert.Equal(t, int64(99), cfg.Seed)

	// Keys the file does not name keep their defaults.
	assert.Equal(t, firefly.DefaultIterations, cfg.Iterations)
	assert.Equal(t, firefly.DefaultBeta0, cfg.Beta0)
	assert.Equal(t, firefly.DefaultGamma, cfg.Gamma)
}

func TestLoadParamsZeroIsExplicit(t *testing.T) {
	path := writeParams(t, "iters: 0\n")

	params, err := loadParams(path)
	require.NoError(t, err)

	cfg := firefly.DefaultConfig()
	params.apply(&cfg)
	assert.Equal(t, 0, cfg.Iterations)
}

func TestLoadParamsErrors(t *testing.T) {
	_, err := loadParams(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := writeParams(t, "n: [not, an, int]\n")
	_, err = loadParams(path)
	assert.Error(t, err)
}
