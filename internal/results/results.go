// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package results reads and writes the founders output file and verifies it
// against an expected-results file.
package results

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pdiddy/founder-finder/pkg/types"
)

// Write marshals the mapping with two-space indentation and writes it to
// path through a temp file in the same directory, so readers never observe
// a partial file. Nil lists are normalized to empty lists first.
func Write(path string, m types.ResultMap) error {
	normalized := make(types.ResultMap, len(m))
	for name, list := range m {
		normalized[name] = list.Normalize()
	}

	data, err := json.MarshalIndent(normalized, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding results: %w", err)
	}
	data = append(data, '\n')

	tmpFile, err := os.CreateTemp(filepath.Dir(path), ".founders-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	_, writeErr := tmpFile.Write(data)
	closeErr := tmpFile.Close()
	if writeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing results: %w", writeErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// Load reads a results mapping back from path.
func Load(path string) (types.ResultMap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading results file: %w", err)
	}
	var m types.ResultMap
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing results file %s: %w", path, err)
	}
	return m, nil
}
