// Package errors provides centralized error handling for adopt.
//
// This package defines sentinel errors used for programmatic error categorization
// throughout the application. All error types can be checked using errors.Is().
//
// Errors fall into three groups: precondition violations (a referenced plan,
// template, or task does not exist), validation errors (a single value or
// request is malformed), and infrastructure failures (locks, storage).
// Consistency problems such as template weights that do not total 100 are
// never errors; they are reported as domain.Warning values.
//
// IMPORTANT: This package MUST NOT import any other internal packages.
// Only standard library imports are allowed.
package errors

import "errors"

// Precondition violations. Fatal to the single operation, no partial mutation.
var (
	// ErrPlanNotFound indicates that the referenced adoption plan does not exist.
	ErrPlanNotFound = errors.New("adoption plan not found")

	// ErrSolutionPlanNotFound indicates that the referenced solution plan does not exist.
	ErrSolutionPlanNotFound = errors.New("solution adoption plan not found")

	// ErrAssignmentNotFound indicates that no plan exists for the referenced assignment.
	ErrAssignmentNotFound = errors.New("assignment not found")

	// ErrTemplateNotFound indicates that the referenced product or solution template does not exist.
	ErrTemplateNotFound = errors.New("template not found")

	// ErrTaskNotFound indicates that the referenced customer task does not exist in the plan.
	ErrTaskNotFound = errors.New("task not found")

	// ErrAttributeNotFound indicates that the referenced telemetry attribute does not exist on the task.
	ErrAttributeNotFound = errors.New("telemetry attribute not found")
)

// Validation errors. Rejected at the smallest granularity: one status change or one row.
var (
	// ErrInvalidStatus indicates a status that is not a recognized task status.
	ErrInvalidStatus = errors.New("invalid task status")

	// ErrInvalidSource indicates a status update source that is not recognized.
	ErrInvalidSource = errors.New("invalid update source")

	// ErrInvalidLicenseLevel indicates an unknown license level.
	ErrInvalidLicenseLevel = errors.New("invalid license level")

	// ErrWeightOutOfRange indicates a template task weight outside 0-100.
	ErrWeightOutOfRange = errors.New("weight out of range")

	// ErrInvalidTelemetryValue indicates a raw value that does not parse as the attribute's data type.
	ErrInvalidTelemetryValue = errors.New("invalid telemetry value")

	// ErrInvalidDataType indicates an unknown telemetry data type.
	ErrInvalidDataType = errors.New("invalid data type")

	// ErrInvalidCriteria indicates a malformed success criteria expression.
	ErrInvalidCriteria = errors.New("invalid success criteria")

	// ErrAttributeRetired indicates a telemetry value targeted a retired attribute.
	ErrAttributeRetired = errors.New("telemetry attribute is retired")

	// ErrTaskOrphaned indicates a telemetry value targeted an orphaned task.
	ErrTaskOrphaned = errors.New("task is orphaned")

	// ErrEmptyValue indicates that a required value was empty.
	ErrEmptyValue = errors.New("value cannot be empty")

	// ErrBatchTooLarge indicates a telemetry batch exceeds the configured row limit.
	ErrBatchTooLarge = errors.New("telemetry batch too large")

	// ErrTemplateInvalid indicates a catalog entry failed validation.
	ErrTemplateInvalid = errors.New("invalid template")

	// ErrTemplateDuplicate indicates two catalog entries share an id.
	ErrTemplateDuplicate = errors.New("template already registered")

	// ErrTemplateNil indicates a nil template was passed to the registry.
	ErrTemplateNil = errors.New("template cannot be nil")

	// ErrWrongSourceKind indicates a product operation on a solution or vice versa.
	ErrWrongSourceKind = errors.New("wrong source kind")
)

// Infrastructure failures.
var (
	// ErrLockTimeout indicates that a plan lock could not be acquired in time.
	ErrLockTimeout = errors.New("lock acquisition timeout")

	// ErrLockNotHeld indicates a release of a lock the caller no longer holds.
	ErrLockNotHeld = errors.New("lock not held")

	// ErrPlanExists indicates that a plan with the same id already exists.
	ErrPlanExists = errors.New("adoption plan already exists")

	// ErrStoreCorrupted indicates a persisted plan could not be decoded.
	ErrStoreCorrupted = errors.New("plan store corrupted")

	// ErrPathTraversal indicates an id that would escape the store directory.
	ErrPathTraversal = errors.New("path traversal detected")

	// ErrTemplateLoadFailed indicates that the catalog file could not be loaded.
	ErrTemplateLoadFailed = errors.New("template load failed")

	// ErrTemplateFileMissing indicates that the catalog file does not exist.
	ErrTemplateFileMissing = errors.New("template file not found")

	// ErrTemplateParseError indicates that the catalog file is not valid YAML or JSON.
	ErrTemplateParseError = errors.New("template parse error")
)

// Configuration and CLI errors.
var (
	// ErrConfigNil indicates that a nil config was passed to validation.
	ErrConfigNil = errors.New("config is nil")

	// ErrConfigInvalidStorage indicates an invalid storage configuration value.
	ErrConfigInvalidStorage = errors.New("invalid storage configuration")

	// ErrConfigInvalidLock indicates an invalid lock configuration value.
	ErrConfigInvalidLock = errors.New("invalid lock configuration")

	// ErrConfigInvalidTelemetry indicates an invalid telemetry configuration value.
	ErrConfigInvalidTelemetry = errors.New("invalid telemetry configuration")

	// ErrInvalidOutputFormat indicates an invalid --output flag value.
	ErrInvalidOutputFormat = errors.New("invalid output format")

	// ErrInvalidArgument indicates an invalid command-line argument.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrJSONErrorOutput indicates that an error has already been output as JSON.
	// This ensures a non-zero exit code while preventing duplicate error messages.
	// Commands should silence cobra's error printing when this is returned.
	ErrJSONErrorOutput = errors.New("error output as JSON")
)

// IsValidation reports whether err is a validation error.
func IsValidation(err error) bool {
	for _, target := range []error{
		ErrInvalidStatus, ErrInvalidSource, ErrInvalidLicenseLevel,
		ErrWeightOutOfRange, ErrInvalidTelemetryValue, ErrInvalidDataType,
		ErrInvalidCriteria, ErrEmptyValue, ErrBatchTooLarge, ErrTemplateInvalid,
		ErrWrongSourceKind, ErrInvalidArgument,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// IsPrecondition reports whether err is a precondition violation.
func IsPrecondition(err error) bool {
	for _, target := range []error{
		ErrPlanNotFound, ErrSolutionPlanNotFound, ErrAssignmentNotFound,
		ErrTemplateNotFound, ErrTaskNotFound, ErrAttributeNotFound,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// ExitCode2Error wraps an error to indicate exit code 2 should be used.
// The CLI uses exit code 2 for invalid input.
type ExitCode2Error struct {
	Err error
}

// NewExitCode2Error wraps an error to indicate exit code 2.
func NewExitCode2Error(err error) *ExitCode2Error {
	return &ExitCode2Error{Err: err}
}

// Error implements the error interface.
func (e *ExitCode2Error) Error() string {
	return e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *ExitCode2Error) Unwrap() error {
	return e.Err
}

// IsExitCode2Error checks if an error should result in exit code 2.
func IsExitCode2Error(err error) bool {
	var e *ExitCode2Error
	return errors.As(err, &e)
}
