package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// buildSettings are the build defaults a --config file may provide.
// Command-line flags override them.
type buildSettings struct {
	PerfectHash     bool   `yaml:"perfect_hash"`
	Serial          uint32 `yaml:"serial"`
	Numeric         bool   `yaml:"numeric"`
	Separator       string `yaml:"separator"`
	FixedCompaction bool   `yaml:"fixed_compaction"`
}

func defaultBuildSettings() buildSettings {
	return buildSettings{Separator: "\t"}
}

// loadBuildSettings reads a YAML settings file over the defaults.
func loadBuildSettings(path string) (buildSettings, error) {
	s := defaultBuildSettings()
	raw, err := os.ReadFile(path)
	if err != nil {
		return s, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &s); err != nil {
		return s, fmt.Errorf("parse config %s: %w", path, err)
	}
	if s.Separator == "" {
		return s, fmt.Errorf("config %s: separator must not be empty", path)
	}
	return s, nil
}
