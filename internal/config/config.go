package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Normalization directions for the structural alias/interface pass.
const (
	NormalizeAliases    = "aliases"
	NormalizeInterfaces = "interfaces"
	NormalizeOff        = "off"
)

// Project is the declbridge.yaml manifest.
type Project struct {
	Libraries    []Library `yaml:"libraries"`
	CachePath    string    `yaml:"cache,omitempty"`
	ExpansionCap int       `yaml:"expansionCap,omitempty"`
	Normalize    string    `yaml:"normalize,omitempty"`
}

// Library describes one library entry: its source files in order, its
// declared dependencies, and optional preferred cycle-break targets.
type Library struct {
	Name                  string   `yaml:"name"`
	Sources               []string `yaml:"sources"`
	Dependencies          []string `yaml:"dependencies,omitempty"`
	PreferredCycleTargets []string `yaml:"preferredCycleTargets,omitempty"`
}

// Load reads and validates a manifest file.
func Load(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates manifest bytes.
func Parse(data []byte) (*Project, error) {
	var p Project
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Validate checks structural manifest invariants: unique library names,
// dependencies that name manifest libraries or are assumed external, and a
// known normalization mode.
func (p *Project) Validate() error {
	if len(p.Libraries) == 0 {
		return fmt.Errorf("manifest declares no libraries")
	}
	seen := make(map[string]bool, len(p.Libraries))
	for _, lib := range p.Libraries {
		if lib.Name == "" {
			return fmt.Errorf("library with empty name")
		}
		if seen[lib.Name] {
			return fmt.Errorf("duplicate library %q", lib.Name)
		}
		seen[lib.Name] = true
		if len(lib.Sources) == 0 {
			return fmt.Errorf("library %q declares no sources", lib.Name)
		}
		for _, dep := range lib.Dependencies {
			if dep == lib.Name {
				return fmt.Errorf("library %q depends on itself", lib.Name)
			}
		}
	}
	switch p.Normalize {
	case "", NormalizeAliases, NormalizeInterfaces, NormalizeOff:
	default:
		return fmt.Errorf("unknown normalize mode %q", p.Normalize)
	}
	if p.ExpansionCap < 0 {
		return fmt.Errorf("expansionCap must not be negative")
	}
	return nil
}

// LibraryByName returns the named library entry.
func (p *Project) LibraryByName(name string) (Library, bool) {
	for _, lib := range p.Libraries {
		if lib.Name == name {
			return lib, true
		}
	}
	return Library{}, false
}
