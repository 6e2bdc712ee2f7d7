// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package companies parses the company input file.
package companies

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/pdiddy/founder-finder/pkg/types"
)

// lineRe matches "Company Name (https://url.com)". Group 1 is the name,
// group 2 the URL.
var lineRe = regexp.MustCompile(`^(.+?)\s*\((.+?)\)$`)

// ParseFile reads a company list from path. See Parse for the line format.
func ParseFile(path string) ([]types.Company, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening companies file: %w", err)
	}
	defer f.Close()

	list, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("reading companies file %s: %w", path, err)
	}
	return list, nil
}

// Parse reads newline-delimited company entries. Each non-blank line is
// either "Name (URL)" or a bare company name; surrounding whitespace is
// trimmed. URLs are not validated.
func Parse(r io.Reader) ([]types.Company, error) {
	var list []types.Company
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if m := lineRe.FindStringSubmatch(line); m != nil {
			list = append(list, types.Company{
				Name: strings.TrimSpace(m[1]),
				URL:  strings.TrimSpace(m[2]),
			})
			continue
		}
		list = append(list, types.Company{Name: line})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scanning companies: %w", err)
	}
	return list, nil
}
