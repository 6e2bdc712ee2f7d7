// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"encoding/json"
	"fmt"
	"io"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/founder-finder/pkg/types"
)

// Export writes the cached mapping of company to founder names to w, in the
// same shape as the expected-founders file. Supported formats: yaml (the
// default) and json.
func (s *Store) Export(w io.Writer, format string) error {
	results, err := s.List()
	if err != nil {
		return err
	}
	mapping := make(types.ResultMap, len(results))
	for _, res := range results {
		mapping[res.Company] = res.Founders
	}

	switch format {
	case "yaml", "":
		data, err := yaml.Marshal(mapping)
		if err != nil {
			return fmt.Errorf("encoding yaml: %w", err)
		}
		_, err = w.Write(data)
		return err
	case "json":
		data, err := json.MarshalIndent(mapping, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding json: %w", err)
		}
		data = append(data, '\n')
		_, err = w.Write(data)
		return err
	default:
		return fmt.Errorf("unknown export format %q (want yaml or json)", format)
	}
}
