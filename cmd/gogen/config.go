package main

import (
	"os"

	"github.com/graphgen-systems/graphgen/gogen"
	"github.com/graphgen-systems/graphgen/libgen"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config drives one sampling run.
type Config struct {
	Model    string  `yaml:"model"`    // naive | gnm | gnp
	Vertices int     `yaml:"vertices"` // vertex count of every candidate
	Edges    int     `yaml:"edges"`    // exact count, or -1 (uniform) / -2 (normal)
	EdgeProb float64 `yaml:"edge_prob"`
	Count    int     `yaml:"count"` // distinct classes to collect
	Limit    int64   `yaml:"limit"` // candidate cap, 0 means 100x count
	Mode     string  `yaml:"mode"`  // unique | uniform
	Seed     int64   `yaml:"seed"`
	Workers  int     `yaml:"workers"`

	SearchLimit int64 `yaml:"search_limit"`

	Catalog string `yaml:"catalog"` // db dir to record forms in, empty disables
	Out     string `yaml:"out"`     // output file, empty means stdout

	Assess       bool  `yaml:"assess"`
	AssessGraphs int64 `yaml:"assess_graphs"`
}

func DefaultConfig() *Config {
	return &Config{
		Model:        "gnm",
		Vertices:     6,
		Edges:        libgen.EdgesNormal,
		EdgeProb:     0.5,
		Count:        100,
		Mode:         "unique",
		Workers:      1,
		AssessGraphs: 10000,
	}
}

// LoadConfig reads a yaml config from path, or returns defaults if
// path is empty.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read config")
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(err, "parse config")
	}
	return cfg, nil
}

func (cfg *Config) modelOpts() libgen.ModelOpts {
	return libgen.ModelOpts{
		VtxCount:  cfg.Vertices,
		EdgeCount: cfg.Edges,
		EdgeProb:  cfg.EdgeProb,
		Seed:      cfg.Seed,
	}
}

// Source builds the candidate source the config names.
func (cfg *Config) Source() (gogen.GraphSource, error) {
	switch cfg.Model {
	case "naive":
		return libgen.NewNaiveSource(cfg.modelOpts())
	case "gnm":
		return libgen.NewGnmSource(cfg.modelOpts())
	case "gnp":
		return libgen.NewGnpSource(cfg.modelOpts())
	}
	return nil, errors.Wrapf(gogen.ErrBadModelParam, "unknown model %q", cfg.Model)
}

func (cfg *Config) SampleMode() (libgen.SampleMode, error) {
	switch cfg.Mode {
	case "", "unique":
		return libgen.ModeUnique, nil
	case "uniform":
		return libgen.ModeUniformClasses, nil
	}
	return 0, errors.Wrapf(gogen.ErrBadModelParam, "unknown sample mode %q", cfg.Mode)
}
