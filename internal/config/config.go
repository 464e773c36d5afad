package config

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/satwerk/gravsim/internal/sim"
)

const (
	DefaultAddr    = ":8080"
	DefaultDBPath  = "gravsim.db"
	DefaultOrigin  = "http://localhost:3030"
	DefaultMaxBody = 1 << 20
)

// Caps applied to API-submitted runs so a single request cannot
// monopolize the process.
const (
	DefaultMaxIterations = 10000
	DefaultMaxAgents     = 64
)

// Config is the process configuration: defaults, overlaid by an optional
// YAML file, overlaid by GRAVSIM_* environment variables.
type Config struct {
	Server Server `yaml:"server"`
	Run    Run    `yaml:"run"`
}

// Server configures the HTTP service and its persistence.
type Server struct {
	Addr           string   `yaml:"addr" env:"GRAVSIM_ADDR"`
	DBPath         string   `yaml:"db_path" env:"GRAVSIM_DB_PATH"`
	LogDir         string   `yaml:"log_dir" env:"GRAVSIM_LOG_DIR"`
	AllowedOrigins []string `yaml:"allowed_origins" env:"GRAVSIM_ALLOWED_ORIGINS"`
	MaxBodyBytes   int64    `yaml:"max_body_bytes" env:"GRAVSIM_MAX_BODY_BYTES"`
	MaxIterations  int      `yaml:"max_iterations" env:"GRAVSIM_MAX_ITERATIONS"`
	MaxAgents      int      `yaml:"max_agents" env:"GRAVSIM_MAX_AGENTS"`
}

// Run holds the run parameters applied when a request or command does not
// choose its own.
type Run struct {
	Iterations int     `yaml:"iterations" env:"GRAVSIM_ITERATIONS"`
	MaxTime    float64 `yaml:"max_time" env:"GRAVSIM_MAX_TIME"`
	G          float64 `yaml:"g" env:"GRAVSIM_G"`
	Softening  float64 `yaml:"softening" env:"GRAVSIM_SOFTENING"`
	Workers    int     `yaml:"workers" env:"GRAVSIM_WORKERS"`
}

func Default() *Config {
	return &Config{
		Server: Server{
			Addr:           DefaultAddr,
			DBPath:         DefaultDBPath,
			AllowedOrigins: []string{DefaultOrigin},
			MaxBodyBytes:   DefaultMaxBody,
			MaxIterations:  DefaultMaxIterations,
			MaxAgents:      DefaultMaxAgents,
		},
		Run: Run{
			Iterations: sim.DefaultIterations,
			G:          1.0,
		},
	}
}

// Load reads the YAML file at path over the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// FromEnv overlays GRAVSIM_* environment variables onto cfg.
func FromEnv(cfg *Config) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Save writes cfg as YAML, handy for generating a starter file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// SimConfig converts the run section into the core's run configuration.
func (r Run) SimConfig() sim.Config {
	return sim.Config{
		Iterations: r.Iterations,
		MaxTime:    r.MaxTime,
		G:          r.G,
		Softening:  r.Softening,
		Workers:    r.Workers,
	}
}
