// Package criteria implements the telemetry value types and the success
// criteria language evaluated against imported telemetry values.
//
// Raw values are normalized once at import time (Normalize) and stored in
// normalized form; Evaluate then works on normalized values only.
package criteria

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/mrz1836/adopt/internal/constants"
	"github.com/mrz1836/adopt/internal/domain"
	adopterrors "github.com/mrz1836/adopt/internal/errors"
)

// DateLayout is the normalized form of DATE values.
const DateLayout = "2006-01-02"

// timestampLayouts are the accepted input layouts for DATE and TIMESTAMP values.
//
//nolint:gochecknoglobals // Read-only parse table
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	DateLayout,
}

// Normalize parses raw according to dt and returns the canonical string form
// stored on the attribute. It returns errors.ErrInvalidTelemetryValue when
// raw does not parse as dt, and errors.ErrEmptyValue for blank input.
func Normalize(dt domain.DataType, raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", adopterrors.ErrEmptyValue
	}

	switch dt {
	case constants.DataTypeBoolean:
		b, err := ParseBool(raw)
		if err != nil {
			return "", err
		}
		return strconv.FormatBool(b), nil

	case constants.DataTypeNumber:
		f, err := ParseNumber(raw)
		if err != nil {
			return "", err
		}
		return strconv.FormatFloat(f, 'f', -1, 64), nil

	case constants.DataTypePercentage:
		f, err := ParseNumber(strings.TrimSuffix(raw, "%"))
		if err != nil {
			return "", err
		}
		if f < 0 || f > 100 {
			return "", fmt.Errorf("%w: percentage %v outside 0-100", adopterrors.ErrInvalidTelemetryValue, f)
		}
		return strconv.FormatFloat(f, 'f', -1, 64), nil

	case constants.DataTypeDate:
		ts, err := ParseTime(raw)
		if err != nil {
			return "", err
		}
		return ts.Format(DateLayout), nil

	case constants.DataTypeTimestamp:
		ts, err := ParseTime(raw)
		if err != nil {
			return "", err
		}
		return ts.UTC().Format(time.RFC3339), nil

	case constants.DataTypeString:
		return raw, nil

	default:
		return "", fmt.Errorf("%w: %q", adopterrors.ErrInvalidDataType, dt)
	}
}

// ParseBool accepts true/t/yes/y/1 and false/f/no/n/0 in any case.
func ParseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "t", "yes", "y", "1":
		return true, nil
	case "false", "f", "no", "n", "0":
		return false, nil
	default:
		return false, fmt.Errorf("%w: %q is not a boolean", adopterrors.ErrInvalidTelemetryValue, s)
	}
}

// ParseNumber parses a finite decimal number, ignoring thousands separators.
// NaN and the infinities are rejected.
func ParseNumber(s string) (float64, error) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: %q is not a number", adopterrors.ErrInvalidTelemetryValue, s)
	}
	return f, nil
}

// ParseTime parses an RFC3339 timestamp, a local date-time, or a plain date.
// Values without a zone are taken as UTC.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q is not a date or timestamp", adopterrors.ErrInvalidTelemetryValue, s)
}
