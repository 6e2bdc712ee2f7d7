// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package results

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/pdiddy/founder-finder/pkg/types"
)

// Outcome classifies one company's verification.
type Outcome string

const (
	// OutcomeCorrect means the normalized name sets match.
	OutcomeCorrect Outcome = "correct"
	// OutcomeMismatch means the company resolved to different names.
	OutcomeMismatch Outcome = "mismatch"
	// OutcomeNotFound means the company is absent from the results file.
	OutcomeNotFound Outcome = "not found"
)

// Check is the verification of a single company.
type Check struct {
	Company  string
	Outcome  Outcome
	Expected []string
	Actual   []string

	// Missing and Extra hold normalized names on a mismatch.
	Missing []string
	Extra   []string
}

// Report is one verification run, a Check per expected company.
type Report struct {
	Checks []Check
}

// AllCorrect reports whether every check passed.
func (r Report) AllCorrect() bool {
	for _, c := range r.Checks {
		if c.Outcome != OutcomeCorrect {
			return false
		}
	}
	return true
}

// Correct returns the number of passing checks.
func (r Report) Correct() int {
	n := 0
	for _, c := range r.Checks {
		if c.Outcome == OutcomeCorrect {
			n++
		}
	}
	return n
}

// Verify compares the results mapping against the expected founders.
// Comparison is order- and case-insensitive: names are trimmed, lowercased,
// and sorted before matching. Companies are checked in sorted order so the
// report is stable.
func Verify(actual types.ResultMap, expected map[string][]string) Report {
	companies := make([]string, 0, len(expected))
	for name := range expected {
		companies = append(companies, name)
	}
	sort.Strings(companies)

	var report Report
	for _, name := range companies {
		check := Check{Company: name, Expected: expected[name]}

		actualList, ok := actual[name]
		if !ok {
			check.Outcome = OutcomeNotFound
			report.Checks = append(report.Checks, check)
			continue
		}
		check.Actual = []string(actualList)

		wantNorm := normalizeNames(expected[name])
		gotNorm := normalizeNames(actualList)

		if slicesEqual(wantNorm, gotNorm) {
			check.Outcome = OutcomeCorrect
		} else {
			check.Outcome = OutcomeMismatch
			check.Missing = difference(wantNorm, gotNorm)
			check.Extra = difference(gotNorm, wantNorm)
		}
		report.Checks = append(report.Checks, check)
	}
	return report
}

// normalizeNames lowercases trimmed names and sorts them for comparison.
func normalizeNames(names []string) []string {
	norm := make([]string, len(names))
	for i, n := range names {
		norm[i] = strings.ToLower(strings.TrimSpace(n))
	}
	sort.Strings(norm)
	return norm
}

func slicesEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// difference returns the elements of a not present in b.
func difference(a, b []string) []string {
	inB := make(map[string]bool, len(b))
	for _, s := range b {
		inB[s] = true
	}
	var out []string
	for _, s := range a {
		if !inB[s] {
			out = append(out, s)
		}
	}
	return out
}

// Print writes a plain-text verification report to w.
func (r Report) Print(w io.Writer) {
	fmt.Fprintln(w, "verification report")
	fmt.Fprintln(w)
	for _, c := range r.Checks {
		fmt.Fprintf(w, "checking: %s\n", c.Company)
		switch c.Outcome {
		case OutcomeCorrect:
			fmt.Fprintf(w, "  correct (%d founders): %s\n", len(c.Actual), strings.Join(c.Actual, ", "))
		case OutcomeNotFound:
			fmt.Fprintf(w, "  missing from results\n")
		case OutcomeMismatch:
			fmt.Fprintf(w, "  mismatch\n")
			fmt.Fprintf(w, "    expected: %s\n", strings.Join(c.Expected, ", "))
			fmt.Fprintf(w, "    got:      %s\n", strings.Join(c.Actual, ", "))
			if len(c.Missing) > 0 {
				fmt.Fprintf(w, "    missing:  %s\n", strings.Join(c.Missing, ", "))
			}
			if len(c.Extra) > 0 {
				fmt.Fprintf(w, "    extra:    %s\n", strings.Join(c.Extra, ", "))
			}
		}
		fmt.Fprintln(w)
	}
	if r.AllCorrect() {
		fmt.Fprintf(w, "all %d companies correct\n", len(r.Checks))
	} else {
		fmt.Fprintf(w, "%d/%d companies correct\n", r.Correct(), len(r.Checks))
	}
}
