package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Env is process configuration read from the environment.
type Env struct {
	DataDir        string `env:"AEROSIM_DATA_DIR"        envDefault:".aerosim"`
	LogLevel       string `env:"AEROSIM_LOG_LEVEL"       envDefault:"info"`
	LogFormat      string `env:"AEROSIM_LOG_FORMAT"      envDefault:"text"`
	MaxEvaluations int    `env:"AEROSIM_MAX_EVALUATIONS"`
	Workers        int    `env:"AEROSIM_WORKERS"         envDefault:"4"`
}

func LoadEnv() (Env, error) {
	var e Env
	if err := env.Parse(&e); err != nil {
		return Env{}, fmt.Errorf("parse env: %w", err)
	}
	return e, nil
}

// Apply overlays environment overrides on a mission config.
func (e Env) Apply(cfg *Config) {
	if e.MaxEvaluations > 0 {
		cfg.Solver.MaxEvaluations = e.MaxEvaluations
	}
}
