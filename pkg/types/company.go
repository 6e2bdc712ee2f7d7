// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the founder-finder pipeline.
package types

import "time"

// Company identifies one company to research, parsed from a single input line.
// Immutable once created; lifetime is one run.
type Company struct {
	// Name is the company name as written in the input file.
	Name string `json:"name" yaml:"name"`

	// URL is the company website when the input line carried one. May be empty.
	URL string `json:"url,omitempty" yaml:"url,omitempty"`
}

// FounderList holds the founder names resolved for one company, in the order
// the agent emitted them. Duplicates are kept. An empty list means no reliable
// founder information was found; it is still a successful result.
type FounderList []string

// Normalize returns the list with nil replaced by an empty list, so that the
// output mapping always serializes absent results as [] rather than null.
func (f FounderList) Normalize() FounderList {
	if f == nil {
		return FounderList{}
	}
	return f
}

// ResultMap maps a company name to its resolved FounderList, one entry per
// input company. Built by the aggregation loop after all agent runs complete
// and persisted once at program end.
type ResultMap map[string]FounderList

// CachedResult is one row of the results cache.
type CachedResult struct {
	// Company is the company name the row belongs to.
	Company string `json:"company" yaml:"company"`

	// Founders is the cached founder list. Never empty: empty results are
	// not cached, so unresolved companies are retried on the next run.
	Founders FounderList `json:"founders" yaml:"founders"`

	// Model is the model identifier that produced the result.
	Model string `json:"model" yaml:"model"`

	// RunID identifies the find invocation that stored the row.
	RunID string `json:"run_id" yaml:"run_id"`

	// ResolvedAt records when the result was stored.
	ResolvedAt time.Time `json:"resolved_at" yaml:"resolved_at"`
}
