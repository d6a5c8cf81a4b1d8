// Package config loads service configuration from the environment.
package config

import (
	"time"

	"github.com/caarlos0/env/v10"
)

type Config struct {
	Environment string `env:"ENV" envDefault:"development"`
	HTTP        struct {
		Port            int           `env:"HTTP_PORT" envDefault:"8080"`
		ReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"30s"`
		WriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"30s"`
		IdleTimeout     time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"120s"`
		ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"30s"`
	}
	Logging struct {
		Level  string `env:"LOG_LEVEL" envDefault:"info"`
		Format string `env:"LOG_FORMAT" envDefault:"json"`
		Output string `env:"LOG_OUTPUT" envDefault:"stderr"`
	}
	Optimizer struct {
		PopulationSize int     `env:"FF_POPULATION" envDefault:"25"`
		Iterations     int     `env:"FF_ITERATIONS" envDefault:"100"`
		Alpha          float64 `env:"FF_ALPHA" envDefault:"0.5"`
		Beta0          float64 `env:"FF_BETA0" envDefault:"1.0"`
		Gamma          float64 `env:"FF_GAMMA" envDefault:"1.0"`
		// Guard rails for requests arriving over HTTP.
		MaxDimensions int `env:"FF_MAX_DIMENSIONS" envDefault:"64"`
		MaxPopulation int `env:"FF_MAX_POPULATION" envDefault:"1000"`
		MaxIterations int `env:"FF_MAX_ITERATIONS" envDefault:"10000"`
	}
	Render struct {
		GridSize     int `env:"RENDER_GRID_SIZE" envDefault:"200"`
		Levels       int `env:"RENDER_LEVELS" envDefault:"30"`
		FrameDelayMS int `env:"RENDER_FRAME_DELAY_MS" envDefault:"120"`
	}
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	if cfg.Environment == "development" && cfg.Logging.Level == "" {
		cfg.Logging.Level = "debug"
	}

	return cfg, nil
}
