package archetypes

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed seed.yaml
var seedYAML []byte

type seedFile struct {
	Archetypes []Archetype `yaml:"archetypes"`
}

// DefaultLibrary returns the built-in reader archetypes.
func DefaultLibrary() ([]Archetype, error) {
	return parseLibrary(seedYAML)
}

// LoadLibrary reads an archetype library from a YAML file on disk.
func LoadLibrary(path string) ([]Archetype, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read archetype library: %w", err)
	}
	return parseLibrary(data)
}

func parseLibrary(data []byte) ([]Archetype, error) {
	var file seedFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse archetype library: %w", err)
	}
	if len(file.Archetypes) == 0 {
		return nil, fmt.Errorf("archetype library is empty")
	}
	for i, archetype := range file.Archetypes {
		if archetype.ID == "" || archetype.Name == "" {
			return nil, fmt.Errorf("archetype library entry %d missing id or name", i)
		}
	}
	return file.Archetypes, nil
}
