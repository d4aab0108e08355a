// Package envfile parses conda environment manifests (environment.yml).
//
// The format is owned by conda, not by us; we only model the subset the
// setup procedure needs: the environment name, channels, and the dependency
// list including the nested pip block.
package envfile

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultPath is where conda tooling conventionally looks for the manifest.
const DefaultPath = "environment.yml"

// Manifest models an environment.yml file.
type Manifest struct {
	Name         string   `yaml:"name"`
	Channels     []string `yaml:"channels"`
	Dependencies []any    `yaml:"dependencies"`
}

// pipBlock is the nested "pip:" entry inside dependencies.
type pipBlock struct {
	Pip []string `yaml:"pip"`
}

// Load reads and parses the manifest at path.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	return Parse(data)
}

// Parse decodes manifest bytes.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse environment.yml: %w", err)
	}
	return &m, nil
}

// CondaPackages returns the plain (non-pip) dependency specs.
func (m *Manifest) CondaPackages() []string {
	var pkgs []string
	for _, dep := range m.Dependencies {
		if s, ok := dep.(string); ok {
			pkgs = append(pkgs, s)
		}
	}
	return pkgs
}

// PipPackages returns the specs listed under the nested pip block, if any.
func (m *Manifest) PipPackages() []string {
	var pkgs []string
	for _, dep := range m.Dependencies {
		block, ok := dep.(map[string]any)
		if !ok {
			continue
		}
		// Round-trip through YAML to decode the nested block.
		// The yaml package gives us map[string]any for mappings inside a []any.
		raw, err := yaml.Marshal(block)
		if err != nil {
			continue
		}
		var pb pipBlock
		if err := yaml.Unmarshal(raw, &pb); err != nil {
			continue
		}
		pkgs = append(pkgs, pb.Pip...)
	}
	return pkgs
}

// Validate checks the manifest is usable for environment creation.
func (m *Manifest) Validate() error {
	if m.Name == "" {
		return fmt.Errorf("manifest has no 'name' field")
	}
	if len(m.Dependencies) == 0 {
		return fmt.Errorf("manifest '%s' lists no dependencies", m.Name)
	}
	for _, dep := range m.Dependencies {
		switch dep.(type) {
		case string, map[string]any:
			// ok
		default:
			return fmt.Errorf("manifest '%s' has a malformed dependency entry: %v", m.Name, dep)
		}
	}
	return nil
}
