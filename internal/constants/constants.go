// Package constants provides centralized constant values used throughout adopt.
// This package is the single source of truth for all shared constants and MUST NOT
// import any other internal packages.
package constants

import "time"

// File names used by adopt for state persistence.
const (
	// PlanFileName is the name of the JSON file that stores an adoption plan.
	PlanFileName = "plan.json"

	// SolutionPlanFileName is the name of the JSON file that stores a solution adoption plan.
	SolutionPlanFileName = "solution.json"

	// SQLiteFileName is the default database file name for the sqlite backend.
	SQLiteFileName = "adopt.db"
)

// Directory names and paths used by adopt for organizing data.
const (
	// AdoptHome is the hidden directory name where adopt stores all its data.
	// This directory is created in the user's home directory.
	AdoptHome = ".adopt"

	// PlansDir is the directory name where product adoption plans are stored.
	PlansDir = "plans"

	// SolutionPlansDir is the directory name where solution adoption plans are stored.
	SolutionPlansDir = "solutions"

	// LogsDir is the directory name where log files are stored.
	LogsDir = "logs"
)

// Lock configuration defaults.
const (
	// DefaultLockTimeout is how long an operation waits for a plan lock.
	DefaultLockTimeout = 5 * time.Second

	// DefaultLockTTL bounds how long a distributed plan lock can be held
	// before it expires on its own.
	DefaultLockTTL = 30 * time.Second

	// DefaultLockRetryInterval is the pause between lock acquisition attempts.
	DefaultLockRetryInterval = 50 * time.Millisecond
)

// Telemetry defaults.
const (
	// AutoCompleteNote is appended to a task's notes when telemetry completes it.
	AutoCompleteNote = "Automatically updated based on telemetry criteria"

	// DefaultMaxBatchRows caps the number of rows accepted in one telemetry batch.
	DefaultMaxBatchRows = 50000

	// SystemActor is recorded as statusUpdatedBy for automatic transitions.
	SystemActor = "system"
)

// Progress constants.
const (
	// FullWeight is the expected sum of task weights within one product or solution.
	FullWeight = 100.0

	// WeightTolerance absorbs float noise when comparing a weight sum to FullWeight.
	WeightTolerance = 0.01
)

// Schema version constants for data migration support.
const (
	// PlanSchemaVersion is the current version of the adoption plan JSON schema.
	PlanSchemaVersion = "1.0"
)
