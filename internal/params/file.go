package params

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadFile reads a YAML query-parameter file.
func LoadFile(path string) (Params, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading query file: %w", err)
	}
	var p Params
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parsing query file %s: %w", path, err)
	}
	if p == nil {
		return nil, fmt.Errorf("query file %s is empty", path)
	}
	return p, nil
}
