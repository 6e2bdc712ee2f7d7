// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package founders

import (
	"encoding/json"
	"regexp"

	"github.com/kaptinlin/jsonrepair"

	"github.com/pdiddy/founder-finder/pkg/types"
)

// Source identifies which payload produced an extracted founder list.
type Source string

const (
	// SourceFinal is an authoritative final payload.
	SourceFinal Source = "final"
	// SourceProgress is the latest provisional payload.
	SourceProgress Source = "progress"
	// SourceScan is a bare JSON array recovered from untagged text.
	SourceScan Source = "scan"
	// SourceNone means no payload could be decoded.
	SourceNone Source = "none"
)

var (
	finalRe    = regexp.MustCompile(`(?s)<FOUNDERS_FINAL>(.*?)</FOUNDERS_FINAL>`)
	progressRe = regexp.MustCompile(`(?s)<FOUNDERS_PROGRESS>(.*?)</FOUNDERS_PROGRESS>`)
	fenceRe    = regexp.MustCompile("```json\\s*|\\s*```")
	arrayRe    = regexp.MustCompile(`\[[^\[\]]*\]`)
)

// Extract pulls a founder list out of a session's accumulated output text.
//
// Payloads are tried in precedence order: the last final payload wins over
// everything no matter when it arrived, then the latest progress payload,
// then the last bare JSON array in the fence-stripped text. An undecodable
// payload falls through to the next tier; text with no decodable payload
// yields an empty list.
func Extract(text string) (types.FounderList, Source) {
	if payload, ok := lastSubmatch(finalRe, text); ok {
		if list, ok := decodeList(payload); ok {
			return list, SourceFinal
		}
	}
	if payload, ok := lastSubmatch(progressRe, text); ok {
		if list, ok := decodeList(payload); ok {
			return list, SourceProgress
		}
	}

	stripped := fenceRe.ReplaceAllString(text, "")
	if arrays := arrayRe.FindAllString(stripped, -1); len(arrays) > 0 {
		if list, ok := decodeList(arrays[len(arrays)-1]); ok {
			return list, SourceScan
		}
	}
	return types.FounderList{}, SourceNone
}

// lastSubmatch returns the capture group of the last match of re in text.
func lastSubmatch(re *regexp.Regexp, text string) (string, bool) {
	matches := re.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return "", false
	}
	return matches[len(matches)-1][1], true
}

// decodeList parses a JSON array payload and keeps its non-empty string
// elements, preserving order. Non-string elements are dropped, not coerced.
func decodeList(payload string) (types.FounderList, bool) {
	var raw []any
	if err := unmarshalArray([]byte(payload), &raw); err != nil {
		return nil, false
	}
	list := make(types.FounderList, 0, len(raw))
	for _, el := range raw {
		if s, ok := el.(string); ok && s != "" {
			list = append(list, s)
		}
	}
	return list, true
}

// unmarshalArray decodes JSON, retrying through jsonrepair on a syntax
// error. Models routinely emit near-JSON (single quotes, trailing commas,
// arrays cut off by the token limit).
func unmarshalArray(data []byte, v any) error {
	err := json.Unmarshal(data, v)
	if err == nil {
		return nil
	}
	if _, ok := err.(*json.SyntaxError); ok {
		fixed, rerr := jsonrepair.JSONRepair(string(data))
		if rerr != nil {
			return err
		}
		return json.Unmarshal([]byte(fixed), v)
	}
	return err
}
