package criteria

import (
	"fmt"

	"github.com/mrz1836/adopt/internal/constants"
	"github.com/mrz1836/adopt/internal/domain"
	adopterrors "github.com/mrz1836/adopt/internal/errors"
)

// Validate checks that c is well formed. An empty criteria is valid.
func Validate(c *domain.SuccessCriteria) error {
	if c.IsEmpty() {
		return nil
	}
	return validate(c, "")
}

// ValidateFor checks that c is well formed and applicable to values of type dt.
func ValidateFor(dt domain.DataType, c *domain.SuccessCriteria) error {
	if !dt.IsValid() {
		return fmt.Errorf("%w: %q", adopterrors.ErrInvalidDataType, dt)
	}
	if err := Validate(c); err != nil {
		return err
	}
	if c.IsEmpty() {
		return nil
	}
	return checkApplicable(dt, c, "")
}

func validate(c *domain.SuccessCriteria, path string) error {
	invalid := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s%s", adopterrors.ErrInvalidCriteria, path, fmt.Sprintf(format, args...))
	}

	switch c.Type {
	case domain.CriteriaNumberThreshold:
		switch c.Operator {
		case domain.OpGreaterThan, domain.OpGreaterThanOrEqual, domain.OpLessThan,
			domain.OpLessThanOrEqual, domain.OpEquals, domain.OpNotEquals:
		default:
			return invalid("unknown operator %q", c.Operator)
		}
		if c.Threshold == nil {
			return invalid("threshold is required")
		}

	case domain.CriteriaNumberRange:
		if c.Min == nil && c.Max == nil {
			return invalid("range needs min or max")
		}
		if c.Min != nil && c.Max != nil && *c.Min > *c.Max {
			return invalid("min %v is greater than max %v", *c.Min, *c.Max)
		}

	case domain.CriteriaBooleanFlag:
		if c.ExpectedValue == nil {
			return invalid("expected_value is required")
		}

	case domain.CriteriaStringMatch:
		if c.Pattern == "" {
			return invalid("pattern is required")
		}
		switch c.Mode {
		case domain.MatchExact, domain.MatchContains:
		case domain.MatchRegex:
			if _, err := compilePattern(c.Pattern, c.CaseSensitive); err != nil {
				return invalid("bad regex %q: %v", c.Pattern, err)
			}
		default:
			return invalid("unknown string match mode %q", c.Mode)
		}

	case domain.CriteriaTimestampComparison:
		if c.Mode != domain.MatchBefore && c.Mode != domain.MatchAfter {
			return invalid("unknown timestamp mode %q", c.Mode)
		}
		if _, err := ParseTime(c.ReferenceTime); err != nil {
			return invalid("bad reference_time %q", c.ReferenceTime)
		}

	case domain.CriteriaStringNotNull, domain.CriteriaTimestampNotNull:

	case domain.CriteriaCompositeAnd, domain.CriteriaCompositeOr:
		if len(c.Criteria) == 0 {
			return invalid("%s needs at least one criteria", c.Type)
		}
		for i := range c.Criteria {
			if c.Criteria[i].IsEmpty() {
				return invalid("%s[%d] is empty", c.Type, i)
			}
			if err := validate(&c.Criteria[i], fmt.Sprintf("%s%s[%d].", path, c.Type, i)); err != nil {
				return err
			}
		}

	default:
		return invalid("unknown type %q", c.Type)
	}
	return nil
}

func checkApplicable(dt domain.DataType, c *domain.SuccessCriteria, path string) error {
	ok := true
	switch c.Type {
	case domain.CriteriaNumberThreshold, domain.CriteriaNumberRange:
		ok = dt == constants.DataTypeNumber || dt == constants.DataTypePercentage
	case domain.CriteriaBooleanFlag:
		ok = dt == constants.DataTypeBoolean
	case domain.CriteriaTimestampComparison, domain.CriteriaTimestampNotNull:
		ok = dt == constants.DataTypeDate || dt == constants.DataTypeTimestamp
	case domain.CriteriaCompositeAnd, domain.CriteriaCompositeOr:
		for i := range c.Criteria {
			if err := checkApplicable(dt, &c.Criteria[i], fmt.Sprintf("%s%s[%d].", path, c.Type, i)); err != nil {
				return err
			}
		}
	}
	if !ok {
		return fmt.Errorf("%w: %s%s does not apply to %s values", adopterrors.ErrInvalidCriteria, path, c.Type, dt)
	}
	return nil
}
