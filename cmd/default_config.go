package cmd

import (
	"bytes"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/swfsim/swfsim/sim/workload"
)

// Config represents the full defaults.yaml structure.
// All top-level sections must be listed to satisfy KnownFields(true) strict parsing.
type Config struct {
	Version   string                            `yaml:"version"`
	Workloads map[string]workload.GeneratorSpec `yaml:"workloads"`
}

// loadDefaultsConfig parses defaults.yaml into a Config struct.
// Uses strict field checking: typos must cause errors.
func loadDefaultsConfig(path string) (Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading defaults file %s: %w", path, err)
	}
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("parsing defaults YAML: %w", err)
	}
	return cfg, nil
}

// loadPresetWorkload loads a named generator preset from defaults.yaml.
// Returns nil if the preset is not found.
func loadPresetWorkload(defaultsPath, name string) (*workload.GeneratorSpec, error) {
	cfg, err := loadDefaultsConfig(defaultsPath)
	if err != nil {
		return nil, err
	}
	if spec, ok := cfg.Workloads[name]; ok {
		return &spec, nil
	}
	return nil, nil
}

func presetNames(cfg Config) []string {
	names := make([]string, 0, len(cfg.Workloads))
	for name := range cfg.Workloads {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
