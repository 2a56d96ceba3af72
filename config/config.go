// Package config holds pipeline configuration: the generator tag written
// to and checked against assets, the baked-UV attribute's semantic name
// and index, default flatten flags, and chart packing options for the
// atlas engine. A Config is a plain value built by Default or Load and
// handed to pipeline.New; the package keeps no global settings.
package config

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config is the full set of tunables a Pipeline is constructed with.
type Config struct {
	// Generator is written to Asset.Generator by Flatten and Parameterize
	// and is the witness IsFlattened checks (spec §3 invariant 4, §6).
	// Coalesce does not write it: it keeps the source asset's tag.
	Generator string `yaml:"generator"`

	// BakedUVName and BakedUVIndex identify the attribute Parameterize
	// adds (spec default: "TEXCOORD_4", index 4).
	BakedUVName  string `yaml:"baked_uv_name"`
	BakedUVIndex int    `yaml:"baked_uv_index"`

	// DefaultFilterTriangles is read from and written to the YAML file.
	// Pipeline.Flatten does not consult it: its flags come only from the
	// caller.
	DefaultFilterTriangles bool `yaml:"default_filter_triangles"`

	// ChartOptions configures the atlas engine's ComputeAndPack call.
	ChartOptions ChartOptions `yaml:"chart_options"`
}

// ChartOptions mirrors the handful of xatlas::ChartOptions/PackOptions
// knobs the parameterizer forwards to the atlas engine.
type ChartOptions struct {
	MaxChartArea      float64 `yaml:"max_chart_area"`
	MaxBoundaryLength float64 `yaml:"max_boundary_length"`
	Padding           int     `yaml:"padding"`
}

// Default returns the pipeline's out-of-the-box configuration.
func Default() *Config {
	return &Config{
		Generator:    "gltfio",
		BakedUVName:  "TEXCOORD_4",
		BakedUVIndex: 4,
		ChartOptions: ChartOptions{
			MaxChartArea:      0,
			MaxBoundaryLength: 0,
			Padding:           1,
		},
	}
}

// Load reads a YAML config file, filling in any field the file omits
// from Default().
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading config %q", path)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "unmarshaling config %q", path)
	}
	return cfg, nil
}

// Save writes cfg to path as YAML.
func Save(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.Wrap(err, "marshaling config")
	}
	if err := os.WriteFile(path, data, 0666); err != nil {
		return errors.Wrapf(err, "writing config %q", path)
	}
	return nil
}
