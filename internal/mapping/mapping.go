// =============================================================================
// Meter Reading Import - Column Mapping
// =============================================================================
//
// The mapper proposes which source column feeds which canonical field. The
// proposal is driven by an ordered list of rules, one or more per field.
//
// MATCHING:
//   - Headers are lower-cased before matching
//   - For each field, the rules for that field are tried in list order
//   - A rule is tried against the headers in their original left-to-right
//     order; the first header it accepts becomes the field's column
//   - Fields are evaluated independently, so two fields may propose the same
//     column (the user resolves this with an override)
//
// A header is accepted by a rule when it equals one of Equals, or contains
// one of Contains and none of Excludes.
//
// CUSTOMIZATION:
//   Rules can be replaced from the "mapping.rules" section of config.yaml.
//
// =============================================================================

package mapping

import (
	"strings"

	"github.com/ginjaninja78/meter-reading-import/internal/types"
)

// Rule is one header predicate for a canonical field.
type Rule struct {
	Field    types.Field `yaml:"field" validate:"required,oneof=meter_number date value notes"`
	Contains []string    `yaml:"contains"`
	Equals   []string    `yaml:"equals"`
	Excludes []string    `yaml:"excludes"`
}

// Matches reports whether the lower-cased header satisfies the rule.
func (r Rule) Matches(header string) bool {
	for _, eq := range r.Equals {
		if header == strings.ToLower(eq) {
			return true
		}
	}
	for _, ex := range r.Excludes {
		if ex != "" && strings.Contains(header, strings.ToLower(ex)) {
			return false
		}
	}
	for _, sub := range r.Contains {
		if sub != "" && strings.Contains(header, strings.ToLower(sub)) {
			return true
		}
	}
	return false
}

// DefaultRules returns the built-in rule list for German and English headers.
func DefaultRules() []Rule {
	return []Rule{
		{
			Field:    types.FieldMeterNumber,
			Contains: []string{"zähler", "zaehler", "nummer", "meter number", "meter no", "meter id"},
			Equals:   []string{"meter"},
			Excludes: []string{"stand", "wert"},
		},
		{
			Field:    types.FieldDate,
			Contains: []string{"datum", "date"},
			Equals:   []string{"date"},
		},
		{
			Field:    types.FieldValue,
			Contains: []string{"stand", "wert", "reading", "value", "ablesung"},
			Equals:   []string{"value"},
		},
		{
			Field:    types.FieldNotes,
			Contains: []string{"notiz", "bemerkung", "note", "kommentar", "comment", "remark"},
		},
	}
}

// =============================================================================
// MAPPER
// =============================================================================

// Mapper proposes and edits column mappings.
type Mapper struct {
	rules []Rule
}

// New creates a Mapper. An empty rule list means DefaultRules.
func New(rules []Rule) *Mapper {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	return &Mapper{rules: rules}
}

// Guess proposes a mapping for the given headers. Fields without a matching
// header are left empty.
func (m *Mapper) Guess(headers []string) types.ColumnMapping {
	lowered := make([]string, len(headers))
	for i, h := range headers {
		lowered[i] = strings.ToLower(strings.TrimSpace(h))
	}

	var result types.ColumnMapping
	for _, field := range types.AllFields {
		result.Set(field, m.firstMatch(field, headers, lowered))
	}
	return result
}

func (m *Mapper) firstMatch(field types.Field, headers, lowered []string) string {
	for _, rule := range m.rules {
		if rule.Field != field {
			continue
		}
		for i, h := range lowered {
			if rule.Matches(h) {
				return headers[i]
			}
		}
	}
	return ""
}

// Override assigns header to field, replacing any guessed value.
//
// An empty header clears the field. A header that is not a column of the
// table is rejected with a *types.MappingError.
func Override(table *types.Table, current types.ColumnMapping, field types.Field, header string) (types.ColumnMapping, error) {
	if header != "" && !table.HasHeader(header) {
		return current, &types.MappingError{UnknownHeader: header}
	}
	current.Set(field, header)
	return current, nil
}

// Check returns a *types.MappingError if a required field is unmapped.
func Check(m types.ColumnMapping) error {
	if missing := m.Missing(); len(missing) > 0 {
		return &types.MappingError{Missing: missing}
	}
	return nil
}
