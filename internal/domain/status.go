// Package domain provides shared domain types for the adoption plan engine.
// These types are used across all internal packages to ensure consistent data structures.
//
// This package follows strict import rules:
//   - CAN import: internal/constants, standard library
//   - MUST NOT import: any other internal packages
//
// All JSON field names use snake_case.
package domain

import "github.com/mrz1836/adopt/internal/constants"

// Re-export the enum types from constants so consumers can work with domain
// objects through a single import.
type (
	// TaskStatus represents the state of a customer task.
	TaskStatus = constants.TaskStatus

	// UpdateSource records what caused the latest status change.
	UpdateSource = constants.UpdateSource

	// LicenseLevel is an assignment's license tier.
	LicenseLevel = constants.LicenseLevel

	// DataType is the value type of a telemetry attribute.
	DataType = constants.DataType

	// SourceKind distinguishes product and solution templates.
	SourceKind = constants.SourceKind
)

// Re-export TaskStatus constants for convenience.
const (
	TaskStatusNotStarted    = constants.TaskStatusNotStarted
	TaskStatusInProgress    = constants.TaskStatusInProgress
	TaskStatusDone          = constants.TaskStatusDone
	TaskStatusNotApplicable = constants.TaskStatusNotApplicable
	TaskStatusNoLongerUsing = constants.TaskStatusNoLongerUsing
	TaskStatusCompleted     = constants.TaskStatusCompleted
)

// Re-export UpdateSource constants for convenience.
const (
	SourceManual    = constants.SourceManual
	SourceTelemetry = constants.SourceTelemetry
	SourceImport    = constants.SourceImport
	SourceSystem    = constants.SourceSystem
)
