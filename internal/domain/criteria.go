package domain

// CriteriaType discriminates the SuccessCriteria variants.
type CriteriaType string

// Success criteria types.
const (
	CriteriaNumberThreshold     CriteriaType = "NUMBER_THRESHOLD"
	CriteriaNumberRange         CriteriaType = "NUMBER_RANGE"
	CriteriaBooleanFlag         CriteriaType = "BOOLEAN_FLAG"
	CriteriaStringMatch         CriteriaType = "STRING_MATCH"
	CriteriaStringNotNull       CriteriaType = "STRING_NOT_NULL"
	CriteriaTimestampComparison CriteriaType = "TIMESTAMP_COMPARISON"
	CriteriaTimestampNotNull    CriteriaType = "TIMESTAMP_NOT_NULL"
	CriteriaCompositeAnd        CriteriaType = "COMPOSITE_AND"
	CriteriaCompositeOr         CriteriaType = "COMPOSITE_OR"
)

// Operator is a numeric comparison used by NUMBER_THRESHOLD.
type Operator string

// Numeric comparison operators.
const (
	OpGreaterThan        Operator = "GREATER_THAN"
	OpGreaterThanOrEqual Operator = "GREATER_THAN_OR_EQUAL"
	OpLessThan           Operator = "LESS_THAN"
	OpLessThanOrEqual    Operator = "LESS_THAN_OR_EQUAL"
	OpEquals             Operator = "EQUALS"
	OpNotEquals          Operator = "NOT_EQUALS"
)

// MatchMode selects the comparison for STRING_MATCH and TIMESTAMP_COMPARISON.
type MatchMode string

// Match modes.
const (
	MatchExact    MatchMode = "EXACT"
	MatchContains MatchMode = "CONTAINS"
	MatchRegex    MatchMode = "REGEX"
	MatchBefore   MatchMode = "BEFORE"
	MatchAfter    MatchMode = "AFTER"
)

// SuccessCriteria is the success rule attached to a telemetry attribute.
// Only the fields relevant to Type are set. A nil criteria, or one with an
// empty Type, means "no criteria".
//
// Example JSON representation:
//
//	{"type": "NUMBER_THRESHOLD", "operator": "GREATER_THAN_OR_EQUAL", "threshold": 10}
//	{"type": "COMPOSITE_AND", "criteria": [{"type": "STRING_NOT_NULL"}, ...]}
type SuccessCriteria struct {
	Type          CriteriaType      `json:"type" yaml:"type"`
	Operator      Operator          `json:"operator,omitempty" yaml:"operator,omitempty"`
	Threshold     *float64          `json:"threshold,omitempty" yaml:"threshold,omitempty"`
	Min           *float64          `json:"min,omitempty" yaml:"min,omitempty"`
	Max           *float64          `json:"max,omitempty" yaml:"max,omitempty"`
	ExpectedValue *bool             `json:"expected_value,omitempty" yaml:"expected_value,omitempty"`
	Mode          MatchMode         `json:"mode,omitempty" yaml:"mode,omitempty"`
	Pattern       string            `json:"pattern,omitempty" yaml:"pattern,omitempty"`
	CaseSensitive bool              `json:"case_sensitive,omitempty" yaml:"case_sensitive,omitempty"`
	ReferenceTime string            `json:"reference_time,omitempty" yaml:"reference_time,omitempty"`
	Criteria      []SuccessCriteria `json:"criteria,omitempty" yaml:"criteria,omitempty"`
}

// IsEmpty reports whether c represents "no criteria".
func (c *SuccessCriteria) IsEmpty() bool {
	return c == nil || c.Type == ""
}
