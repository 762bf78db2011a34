package criteria

import (
	"regexp"
	"strings"
	"sync"

	"github.com/mrz1836/adopt/internal/domain"
)

// regexCache holds compiled STRING_MATCH patterns keyed by their final source.
//
//nolint:gochecknoglobals // Process-wide cache of immutable compiled patterns
var regexCache sync.Map

// Evaluate reports whether a normalized value satisfies c.
// An empty criteria is never met, and neither is an empty value. A value
// that cannot be read as the type a criteria needs (for example a string
// against NUMBER_THRESHOLD) does not satisfy it.
func Evaluate(c *domain.SuccessCriteria, value string) bool {
	if c.IsEmpty() || strings.TrimSpace(value) == "" {
		return false
	}

	switch c.Type {
	case domain.CriteriaNumberThreshold:
		return evalThreshold(c, value)
	case domain.CriteriaNumberRange:
		return evalRange(c, value)
	case domain.CriteriaBooleanFlag:
		b, err := ParseBool(value)
		return err == nil && c.ExpectedValue != nil && b == *c.ExpectedValue
	case domain.CriteriaStringMatch:
		return evalStringMatch(c, value)
	case domain.CriteriaStringNotNull:
		return true
	case domain.CriteriaTimestampComparison:
		return evalTimestamp(c, value)
	case domain.CriteriaTimestampNotNull:
		_, err := ParseTime(value)
		return err == nil
	case domain.CriteriaCompositeAnd:
		if len(c.Criteria) == 0 {
			return false
		}
		for i := range c.Criteria {
			if !Evaluate(&c.Criteria[i], value) {
				return false
			}
		}
		return true
	case domain.CriteriaCompositeOr:
		for i := range c.Criteria {
			if Evaluate(&c.Criteria[i], value) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

func evalThreshold(c *domain.SuccessCriteria, value string) bool {
	if c.Threshold == nil {
		return false
	}
	v, err := ParseNumber(strings.TrimSuffix(value, "%"))
	if err != nil {
		return false
	}
	t := *c.Threshold

	switch c.Operator {
	case domain.OpGreaterThan:
		return v > t
	case domain.OpGreaterThanOrEqual:
		return v >= t
	case domain.OpLessThan:
		return v < t
	case domain.OpLessThanOrEqual:
		return v <= t
	case domain.OpEquals:
		return v == t
	case domain.OpNotEquals:
		return v != t
	default:
		return false
	}
}

func evalRange(c *domain.SuccessCriteria, value string) bool {
	v, err := ParseNumber(strings.TrimSuffix(value, "%"))
	if err != nil {
		return false
	}
	if c.Min != nil && v < *c.Min {
		return false
	}
	if c.Max != nil && v > *c.Max {
		return false
	}
	return c.Min != nil || c.Max != nil
}

func evalStringMatch(c *domain.SuccessCriteria, value string) bool {
	switch c.Mode {
	case domain.MatchExact:
		if c.CaseSensitive {
			return value == c.Pattern
		}
		return strings.EqualFold(value, c.Pattern)
	case domain.MatchContains:
		if c.CaseSensitive {
			return strings.Contains(value, c.Pattern)
		}
		return strings.Contains(strings.ToLower(value), strings.ToLower(c.Pattern))
	case domain.MatchRegex:
		re, err := compilePattern(c.Pattern, c.CaseSensitive)
		if err != nil {
			return false
		}
		return re.MatchString(value)
	default:
		return false
	}
}

func evalTimestamp(c *domain.SuccessCriteria, value string) bool {
	ts, err := ParseTime(value)
	if err != nil {
		return false
	}
	ref, err := ParseTime(c.ReferenceTime)
	if err != nil {
		return false
	}

	switch c.Mode {
	case domain.MatchBefore:
		return ts.Before(ref)
	case domain.MatchAfter:
		return ts.After(ref)
	default:
		return false
	}
}

func compilePattern(pattern string, caseSensitive bool) (*regexp.Regexp, error) {
	src := pattern
	if !caseSensitive {
		src = "(?i)" + pattern
	}
	if cached, ok := regexCache.Load(src); ok {
		return cached.(*regexp.Regexp), nil //nolint:errcheck,forcetypeassert // cache only stores *regexp.Regexp
	}
	re, err := regexp.Compile(src)
	if err != nil {
		return nil, err
	}
	regexCache.Store(src, re)
	return re, nil
}
