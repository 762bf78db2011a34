package criteria

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mrz1836/adopt/internal/domain"
)

// Describe renders c as a short human-readable rule, e.g. ">= 10" or
// "contains \"prod\"". It returns "none" for an empty criteria.
func Describe(c *domain.SuccessCriteria) string {
	if c.IsEmpty() {
		return "none"
	}

	switch c.Type {
	case domain.CriteriaNumberThreshold:
		return fmt.Sprintf("%s %s", operatorSymbol(c.Operator), formatFloat(c.Threshold))
	case domain.CriteriaNumberRange:
		return fmt.Sprintf("between %s and %s", formatFloat(c.Min), formatFloat(c.Max))
	case domain.CriteriaBooleanFlag:
		if c.ExpectedValue == nil {
			return "is ?"
		}
		return "is " + strconv.FormatBool(*c.ExpectedValue)
	case domain.CriteriaStringMatch:
		return fmt.Sprintf("%s %q", strings.ToLower(string(c.Mode)), c.Pattern)
	case domain.CriteriaStringNotNull, domain.CriteriaTimestampNotNull:
		return "is set"
	case domain.CriteriaTimestampComparison:
		return fmt.Sprintf("%s %s", strings.ToLower(string(c.Mode)), c.ReferenceTime)
	case domain.CriteriaCompositeAnd, domain.CriteriaCompositeOr:
		joiner := " and "
		if c.Type == domain.CriteriaCompositeOr {
			joiner = " or "
		}
		parts := make([]string, 0, len(c.Criteria))
		for i := range c.Criteria {
			parts = append(parts, Describe(&c.Criteria[i]))
		}
		return "(" + strings.Join(parts, joiner) + ")"
	default:
		return string(c.Type)
	}
}

func operatorSymbol(op domain.Operator) string {
	switch op {
	case domain.OpGreaterThan:
		return ">"
	case domain.OpGreaterThanOrEqual:
		return ">="
	case domain.OpLessThan:
		return "<"
	case domain.OpLessThanOrEqual:
		return "<="
	case domain.OpEquals:
		return "=="
	case domain.OpNotEquals:
		return "!="
	default:
		return string(op)
	}
}

func formatFloat(f *float64) string {
	if f == nil {
		return "*"
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}
