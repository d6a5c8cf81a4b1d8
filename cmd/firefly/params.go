package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/copyleftdev/FIREFLY/internal/optimization/firefly"
)

// paramsFile holds hyperparameters read from a YAML file. Pointers keep
// omitted keys distinguishable from deliberate zeros, so the file only
// overrides what it names.
type paramsFile struct {
	N     *int     `yaml:"n"`
	Iters *int     `yaml:"iters"`
	Alpha *float64 `yaml:"alpha"`
	Beta0 *float64 `yaml:"beta0"`
	Gamma *float64 `yaml:"gamma"`
	Lower *float64 `yaml:"lower"`
	Upper *float64 `yaml:"upper"`
	Seed  *int64   `yaml:"seed"`
}

func loadParams(path string) (*paramsFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading params file: %w", err)
	}

	var p paramsFile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parsing params file %s: %w", path, err)
	}
	return &p, nil
}

// apply overlays the file's values onto the config.
func (p *paramsFile) apply(cfg *firefly.Config) {
	if p.N != nil {
		cfg.PopulationSize = *p.N
	}
	if p.Iters != nil {
		cfg.Iterations = *p.Iters
	}
	if p.Alpha != nil {
		cfg.Alpha = *p.Alpha
	}
	if p.Beta0 != nil {
		cfg.Beta0 = *p.Beta0
	}
	if p.Gamma != nil {
		cfg.Gamma = *p.Gamma
	}
	if p.Lower != nil {
		cfg.Lower = *p.Lower
	}
	if p.Upper != nil {
		cfg.Upper = *p.Upper
	}
	if p.Seed != nil {
		cfg.Seed = *p.Seed
	}
}
