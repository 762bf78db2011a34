package domain

import "fmt"

// WarningCode classifies a consistency warning.
type WarningCode string

// Consistency warning codes.
const (
	// WarningWeightSum flags template weights that do not total 100.
	WarningWeightSum WarningCode = "WEIGHT_SUM"

	// WarningOrphanedTask flags a customer task whose template no longer applies.
	WarningOrphanedTask WarningCode = "ORPHANED_TASK"

	// WarningRetiredAttribute flags an attribute whose definition was removed.
	WarningRetiredAttribute WarningCode = "RETIRED_ATTRIBUTE"

	// WarningNeedsSync flags a plan that is stale relative to its sources.
	WarningNeedsSync WarningCode = "NEEDS_SYNC"
)

// Warning is a non-fatal consistency problem surfaced as data.
type Warning struct {
	Code      WarningCode `json:"code"`
	Message   string      `json:"message"`
	SubjectID string      `json:"subject_id,omitempty"`
}

// String implements fmt.Stringer.
func (w Warning) String() string {
	if w.SubjectID == "" {
		return fmt.Sprintf("[%s] %s", w.Code, w.Message)
	}
	return fmt.Sprintf("[%s] %s (%s)", w.Code, w.Message, w.SubjectID)
}
