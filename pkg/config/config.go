package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config carries every threshold and cap the analysis components use. It is
// an explicit value passed at construction; there is no process-wide mutable
// analysis state.
type Config struct {
	// RiskThreshold gates suspicious-cycle scores and the default
	// high-risk ranking cut-off.
	RiskThreshold float64 `yaml:"risk_threshold" validate:"gte=0,lte=1"`
	// TemporalWindowDays bounds filing-burst style temporal heuristics.
	TemporalWindowDays int `yaml:"temporal_window_days" validate:"gt=0"`
	// EigenvectorMaxIter is a hard cap, not a suggestion: power iteration
	// never runs past it and returns the best effort so far.
	EigenvectorMaxIter int `yaml:"eigenvector_max_iter" validate:"gt=0"`
	// CycleLengthMin is the smallest cycle length reported as suspicious.
	CycleLengthMin int `yaml:"cycle_length_min" validate:"gte=3"`

	// CycleLengthMax bounds simple-cycle enumeration depth.
	CycleLengthMax int `yaml:"cycle_length_max" validate:"gte=3"`
	// MaxCycles caps how many cycles enumeration collects before truncating.
	MaxCycles int `yaml:"max_cycles" validate:"gt=0"`
	// ReachRadius is the hop radius for reach centrality.
	ReachRadius int `yaml:"reach_radius" validate:"gt=0"`
	// DivisiveNodeLimit is the node count above which the divisive
	// partition reuses the modularity partition instead.
	DivisiveNodeLimit int `yaml:"divisive_node_limit" validate:"gt=0"`
	// HubMinSpokes is the minimum spoke count for a hub-and-spoke finding.
	HubMinSpokes int `yaml:"hub_min_spokes" validate:"gte=2"`
	// IsolatedMaxSize is the largest component size still reported as an
	// isolated subgroup.
	IsolatedMaxSize int `yaml:"isolated_max_size" validate:"gte=2"`
	// MaxGroupSize caps pairwise edge expansion per shared-attribute group.
	MaxGroupSize int `yaml:"max_group_size" validate:"gt=0"`

	// Workers sizes the analysis worker pool. Zero means GOMAXPROCS.
	Workers int `yaml:"workers" validate:"gte=0"`
	// Strict makes any component failure fail the whole run instead of
	// being recorded as a partial-failure condition.
	Strict bool `yaml:"strict"`
}

// Default returns the configuration matching the documented model constants.
func Default() Config {
	return Config{
		RiskThreshold:      0.75,
		TemporalWindowDays: 90,
		EigenvectorMaxIter: 1000,
		CycleLengthMin:     3,
		CycleLengthMax:     8,
		MaxCycles:          10000,
		ReachRadius:        2,
		DivisiveNodeLimit:  1000,
		HubMinSpokes:       3,
		IsolatedMaxSize:    3,
		MaxGroupSize:       200,
	}
}

var validate = validator.New()

// Validate checks all bounds. Called by Load; construct-by-hand callers
// should call it too.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}
	if c.CycleLengthMax < c.CycleLengthMin {
		return fmt.Errorf("config validation: cycle_length_max %d below cycle_length_min %d", c.CycleLengthMax, c.CycleLengthMin)
	}
	return nil
}

// Load reads a YAML config file. Missing keys keep their defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}
