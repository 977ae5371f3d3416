package module

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Manifest is the optional project configuration file (conventionally
// `project.yaml` at a project root) naming the three search roots and any
// external package roots a Resolver needs (spec §4.6 inputs: "a
// standard-library root, a project root, and an optional set of external
// package roots").
type Manifest struct {
	Name          string   `yaml:"name"`
	StdlibRoot    string   `yaml:"stdlib_root"`
	ProjectRoot   string   `yaml:"project_root"`
	ExternalRoots []string `yaml:"external_roots"`
}

// LoadManifest reads and validates a project manifest from path.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest %s: %w", path, err)
	}
	if m.ProjectRoot == "" {
		return nil, fmt.Errorf("manifest %s missing required field: project_root", path)
	}
	return &m, nil
}
