// Package config loads the project configuration (smactl.yaml) and the
// DESP credentials (keys.env / process environment).
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// DefaultPath is where the project configuration is looked up.
const DefaultPath = "smactl.yaml"

// Defaults mirroring the original workflow.
const (
	DefaultEnvName    = "sma_env"
	DefaultManifest   = "environment.yml"
	DefaultCollection = "EO.MO.DAT.SST_GLO_SST_L4_REP_OBSERVATIONS_010_024"
)

// Config is the root of smactl.yaml.
type Config struct {
	Manifest    string        `yaml:"manifest"`
	Environment EnvConfig     `yaml:"environment"`
	Dataset     DatasetConfig `yaml:"dataset"`
	Redis       RedisConfig   `yaml:"redis"`
}

// EnvConfig describes the conda environment and its kernel registration.
type EnvConfig struct {
	Name        string   `yaml:"name"`
	KernelName  string   `yaml:"kernel_name"`
	DisplayName string   `yaml:"display_name"`
	Packages    []string `yaml:"packages"`
}

// DatasetConfig describes the retrieval target.
type DatasetConfig struct {
	Name        string         `yaml:"name"`
	Collections []string       `yaml:"collections"`
	StartYear   int            `yaml:"start_year"`
	EndYear     int            `yaml:"end_year"`
	Workers     int            `yaml:"workers"`
	OutputDir   string         `yaml:"output_dir"`
	Query       map[string]any `yaml:"query"`
}

// RedisConfig enables the shared checkpoint ledger when Addr is set.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// QuerySpec is the typed view of the free-form query block.
type QuerySpec struct {
	Variables  []string  `mapstructure:"variable"`
	DataFormat string    `mapstructure:"data_format"`
	Area       []float64 `mapstructure:"area"`
}

// Load reads the configuration at path. A missing file yields the
// defaults; smactl works without any configuration at all.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyDefaults()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Manifest == "" {
		c.Manifest = DefaultManifest
	}
	if c.Environment.Name == "" {
		c.Environment.Name = DefaultEnvName
	}
	if c.Environment.KernelName == "" {
		c.Environment.KernelName = c.Environment.Name
	}
	if c.Environment.DisplayName == "" {
		c.Environment.DisplayName = fmt.Sprintf("Python (%s)", c.Environment.Name)
	}
	if c.Dataset.Name == "" {
		c.Dataset.Name = "SST"
	}
	if len(c.Dataset.Collections) == 0 {
		c.Dataset.Collections = []string{DefaultCollection}
	}
	if c.Dataset.Workers <= 0 {
		c.Dataset.Workers = 2
	}
	if c.Dataset.OutputDir == "" {
		c.Dataset.OutputDir = "data"
	}
	if c.Dataset.Query == nil {
		c.Dataset.Query = map[string]any{
			"variable": []any{
				"analysed_sst",
				"analysed_sst_uncertainty",
				"mask",
				"sea_ice_fraction",
			},
			"data_format": "netcdf",
			"area":        []any{67.8, -44.8, -21.8, 44.8},
		}
	}
}

// Spec decodes the free-form query block into its typed form.
func (d *DatasetConfig) Spec() (QuerySpec, error) {
	var spec QuerySpec
	if err := mapstructure.Decode(d.Query, &spec); err != nil {
		return QuerySpec{}, fmt.Errorf("malformed dataset query: %w", err)
	}
	return spec, nil
}

// Validate rejects query blocks the catalogue would fail on mid-run:
// a bounding box that is not four coordinates, or blank variable names.
func (s QuerySpec) Validate() error {
	if len(s.Area) != 0 && len(s.Area) != 4 {
		return fmt.Errorf("query area must have 4 coordinates, got %d", len(s.Area))
	}
	for _, v := range s.Variables {
		if strings.TrimSpace(v) == "" {
			return errors.New("query variable entries must not be blank")
		}
	}
	return nil
}

// Filters wraps each query value in the STAC "eq" operator, matching the
// shape the catalogue expects.
func (d *DatasetConfig) Filters() map[string]any {
	filters := make(map[string]any, len(d.Query))
	for key, value := range d.Query {
		filters[key] = map[string]any{"eq": value}
	}
	return filters
}
