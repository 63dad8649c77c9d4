// Package stats derives the review summary shown before an import is confirmed.
package stats

import "github.com/ginjaninja78/meter-reading-import/internal/types"

// Summary is a read-only digest of a validated row set.
type Summary struct {
	Total    int `json:"total"`
	Valid    int `json:"valid"`
	Warnings int `json:"warnings"`
	Errors   int `json:"errors"`

	// UniqueMeters counts distinct resolved meter IDs.
	UniqueMeters int `json:"unique_meters"`

	// MinDate and MaxDate span the canonical dates of all non-error rows.
	// Both are "" when there is no such row.
	MinDate string `json:"min_date,omitempty"`
	MaxDate string `json:"max_date,omitempty"`
}

// Compute summarises the results. It does not modify its input.
//
// Canonical YYYY-MM-DD strings order lexicographically the same way they
// order chronologically, so plain string comparison is enough for the span.
func Compute(results []types.ValidationResult) Summary {
	s := Summary{Total: len(results)}
	meters := make(map[string]struct{})

	for _, r := range results {
		switch r.Status() {
		case types.StatusValid:
			s.Valid++
		case types.StatusWarning:
			s.Warnings++
		case types.StatusError:
			s.Errors++
		}

		if r.ResolvedMeterID != "" {
			meters[r.ResolvedMeterID] = struct{}{}
		}

		if r.Status() == types.StatusError || r.NormalizedDate == "" {
			continue
		}
		if s.MinDate == "" || r.NormalizedDate < s.MinDate {
			s.MinDate = r.NormalizedDate
		}
		if s.MaxDate == "" || r.NormalizedDate > s.MaxDate {
			s.MaxDate = r.NormalizedDate
		}
	}

	s.UniqueMeters = len(meters)
	return s
}

// Importable reports whether at least one row can be imported.
func (s Summary) Importable() bool {
	return s.Valid > 0
}
