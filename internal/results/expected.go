// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package results

import (
	"fmt"
	"os"

	"go.yaml.in/yaml/v3"
)

// LoadExpected reads an expected-founders file: a YAML mapping of company
// name to founder names.
func LoadExpected(path string) (map[string][]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading expected file: %w", err)
	}
	var expected map[string][]string
	if err := yaml.Unmarshal(data, &expected); err != nil {
		return nil, fmt.Errorf("parsing expected file %s: %w", path, err)
	}
	return expected, nil
}
