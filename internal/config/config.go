package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const DefaultSource = "xl-1542M-k40"

var ErrInvalid = errors.New("config: invalid configuration")

// Config is threaded through every stage of a run. Fixed policy (the
// candidate strengths, n-gram range and vocabulary cap) is not configurable.
type Config struct {
	DataDir string `yaml:"data_dir"`
	LogDir  string `yaml:"log_dir"`
	Source  string `yaml:"source"`
	// NTrain and NValid cap the records per split; negative means all.
	NTrain  int  `yaml:"n_train"`
	NValid  int  `yaml:"n_valid"`
	Jobs    int  `yaml:"n_jobs"`
	Verbose bool `yaml:"verbose"`

	MinDF   int     `yaml:"min_df"`
	Tol     float64 `yaml:"tol"`
	MaxIter int     `yaml:"max_iter"`

	// HistoryDB, when set, is a SQLite file that records every run.
	HistoryDB string `yaml:"history_db"`
}

func Default() Config {
	return Config{
		DataDir:   getenv("BASELINE_DATA_DIR", ""),
		LogDir:    getenv("BASELINE_LOG_DIR", ""),
		Source:    getenv("BASELINE_SOURCE", DefaultSource),
		NTrain:    getenvInt("BASELINE_N_TRAIN", 500000),
		NValid:    getenvInt("BASELINE_N_VALID", 1000),
		Jobs:      getenvInt("BASELINE_N_JOBS", -1),
		Verbose:   getenvBool("BASELINE_VERBOSE", false),
		MinDF:     getenvInt("BASELINE_MIN_DF", 5),
		Tol:       getenvFloat("BASELINE_TOL", 1e-4),
		MaxIter:   getenvInt("BASELINE_MAX_ITER", 100),
		HistoryDB: getenv("BASELINE_HISTORY_DB", ""),
	}
}

// Load overlays the YAML file at path on Default. Keys absent from the
// file keep their defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var problems []string
	if strings.TrimSpace(c.DataDir) == "" {
		problems = append(problems, "data_dir is required")
	}
	if strings.TrimSpace(c.LogDir) == "" {
		problems = append(problems, "log_dir is required")
	}
	if strings.TrimSpace(c.Source) == "" {
		problems = append(problems, "source is required")
	}
	if strings.ContainsAny(c.Source, `/\`) {
		problems = append(problems, "source must not contain path separators")
	}
	if c.MinDF < 1 {
		problems = append(problems, "min_df must be at least 1")
	}
	if c.Tol <= 0 {
		problems = append(problems, "tol must be positive")
	}
	if c.MaxIter < 1 {
		problems = append(problems, "max_iter must be at least 1")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(problems, "; "))
	}
	return nil
}

func getenv(name, fallback string) string {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	return raw
}

func getenvInt(name string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

func getenvFloat(name string, fallback float64) float64 {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fallback
	}
	return v
}

func getenvBool(name string, fallback bool) bool {
	raw := strings.TrimSpace(strings.ToLower(os.Getenv(name)))
	if raw == "" {
		return fallback
	}
	return raw == "1" || raw == "true" || raw == "yes" || raw == "on"
}
