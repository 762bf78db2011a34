package constants

import "strings"

// TaskStatus represents the state of a customer task in an adoption plan.
// Values are upper-case to stay wire compatible with existing clients.
type TaskStatus string

// Task status constants. All states are mutually exclusive and any state may
// move to any other; see plan.ChangeStatus.
const (
	// TaskStatusNotStarted is the initial state of every instantiated task.
	TaskStatusNotStarted TaskStatus = "NOT_STARTED"

	// TaskStatusInProgress indicates the customer has started the task.
	TaskStatusInProgress TaskStatus = "IN_PROGRESS"

	// TaskStatusDone indicates the task is complete and counts toward progress.
	TaskStatusDone TaskStatus = "DONE"

	// TaskStatusNotApplicable removes the task from every progress total.
	TaskStatusNotApplicable TaskStatus = "NOT_APPLICABLE"

	// TaskStatusNoLongerUsing indicates the customer adopted and then dropped the feature.
	TaskStatusNoLongerUsing TaskStatus = "NO_LONGER_USING"

	// TaskStatusCompleted is a legacy alias of TaskStatusDone found in older data.
	// It is accepted when reading and counted as complete, but never written.
	TaskStatusCompleted TaskStatus = "COMPLETED"
)

// String returns the string representation of the TaskStatus.
func (s TaskStatus) String() string {
	return string(s)
}

// IsComplete reports whether the status counts as completed work.
func (s TaskStatus) IsComplete() bool {
	return s == TaskStatusDone || s == TaskStatusCompleted
}

// TaskStatuses returns the statuses a caller may set.
func TaskStatuses() []TaskStatus {
	return []TaskStatus{
		TaskStatusNotStarted,
		TaskStatusInProgress,
		TaskStatusDone,
		TaskStatusNotApplicable,
		TaskStatusNoLongerUsing,
	}
}

// ParseTaskStatus normalizes user input ("done", "in-progress") into a TaskStatus.
// The legacy COMPLETED value is mapped to DONE. The boolean is false for unknown values.
func ParseTaskStatus(s string) (TaskStatus, bool) {
	normalized := TaskStatus(strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), "-", "_")))
	if normalized == TaskStatusCompleted {
		return TaskStatusDone, true
	}
	for _, status := range TaskStatuses() {
		if status == normalized {
			return status, true
		}
	}
	return "", false
}

// UpdateSource records what caused the latest status change of a task.
type UpdateSource string

// Update source constants.
const (
	// SourceManual is a change made by a person through a client.
	SourceManual UpdateSource = "MANUAL"

	// SourceTelemetry is an automatic change made by the telemetry evaluator.
	SourceTelemetry UpdateSource = "TELEMETRY"

	// SourceImport is a change loaded from an import file.
	SourceImport UpdateSource = "IMPORT"

	// SourceSystem is a change made by the engine itself (instantiation, sync).
	SourceSystem UpdateSource = "SYSTEM"
)

// String returns the string representation of the UpdateSource.
func (s UpdateSource) String() string {
	return string(s)
}

// IsValid reports whether s is a known update source.
func (s UpdateSource) IsValid() bool {
	switch s {
	case SourceManual, SourceTelemetry, SourceImport, SourceSystem:
		return true
	default:
		return false
	}
}

// IsHumanAuthored reports whether the source represents a person's decision.
// Human-authored statuses take precedence over telemetry.
func (s UpdateSource) IsHumanAuthored() bool {
	return s == SourceManual || s == SourceImport
}

// LicenseLevel is the license tier of an assignment or the minimum tier a
// template task requires. Levels form a total order.
type LicenseLevel string

// License level constants, lowest first.
const (
	LicenseEssential LicenseLevel = "ESSENTIAL"
	LicenseAdvantage LicenseLevel = "ADVANTAGE"
	LicenseSignature LicenseLevel = "SIGNATURE"
)

// String returns the string representation of the LicenseLevel.
func (l LicenseLevel) String() string {
	return string(l)
}

// Rank returns the position of the level in the total order, or -1 if unknown.
func (l LicenseLevel) Rank() int {
	switch l {
	case LicenseEssential:
		return 0
	case LicenseAdvantage:
		return 1
	case LicenseSignature:
		return 2
	default:
		return -1
	}
}

// IsValid reports whether l is a known license level.
func (l LicenseLevel) IsValid() bool {
	return l.Rank() >= 0
}

// Satisfies reports whether an assignment at level l may use a task that
// requires level required.
func (l LicenseLevel) Satisfies(required LicenseLevel) bool {
	return l.IsValid() && required.IsValid() && l.Rank() >= required.Rank()
}

// ParseLicenseLevel normalizes user input into a LicenseLevel.
func ParseLicenseLevel(s string) (LicenseLevel, bool) {
	level := LicenseLevel(strings.ToUpper(strings.TrimSpace(s)))
	return level, level.IsValid()
}

// DataType is the value type of a telemetry attribute.
type DataType string

// Telemetry data type constants.
const (
	DataTypeBoolean    DataType = "BOOLEAN"
	DataTypeNumber     DataType = "NUMBER"
	DataTypePercentage DataType = "PERCENTAGE"
	DataTypeString     DataType = "STRING"
	DataTypeDate       DataType = "DATE"
	DataTypeTimestamp  DataType = "TIMESTAMP"
)

// String returns the string representation of the DataType.
func (d DataType) String() string {
	return string(d)
}

// IsValid reports whether d is a known data type.
func (d DataType) IsValid() bool {
	switch d {
	case DataTypeBoolean, DataTypeNumber, DataTypePercentage, DataTypeString, DataTypeDate, DataTypeTimestamp:
		return true
	default:
		return false
	}
}

// SourceKind distinguishes product and solution templates.
type SourceKind string

// Source kind constants.
const (
	SourceKindProduct  SourceKind = "PRODUCT"
	SourceKindSolution SourceKind = "SOLUTION"
)
