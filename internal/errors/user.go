package errors

import "errors"

// ErrorInfo holds user-facing message and suggested action for an error.
type ErrorInfo struct {
	// Message is the user-friendly error description.
	Message string
	// Action is a suggested action to resolve the issue (empty if none).
	Action string
}

// errorEntry pairs a sentinel error with its user-facing info.
type errorEntry struct {
	err  error
	info ErrorInfo
}

// errorInfoEntries maps sentinel errors to their user-facing messages.
// A slice (not a map) because errors.Is() requires error chain traversal.
//
//nolint:gochecknoglobals // Pre-built mapping
var errorInfoEntries = []errorEntry{
	// ===================
	// Preconditions
	// ===================
	{
		err: ErrPlanNotFound,
		info: ErrorInfo{
			Message: "The adoption plan was not found.",
			Action:  "Run 'adopt plan list' to see existing plans.",
		},
	},
	{
		err: ErrSolutionPlanNotFound,
		info: ErrorInfo{
			Message: "The solution adoption plan was not found.",
			Action:  "Check the solution plan id and try again.",
		},
	},
	{
		err: ErrAssignmentNotFound,
		info: ErrorInfo{
			Message: "No adoption plan exists for this assignment.",
			Action:  "Create the plan with 'adopt plan create'.",
		},
	},
	{
		err: ErrTemplateNotFound,
		info: ErrorInfo{
			Message: "The product or solution template was not found in the catalog.",
			Action:  "Run 'adopt template check' to list the catalog contents.",
		},
	},
	{
		err: ErrTaskNotFound,
		info: ErrorInfo{
			Message: "The task was not found in the adoption plan.",
			Action:  "Run 'adopt plan show <plan-id>' to list task ids.",
		},
	},
	{
		err: ErrAttributeNotFound,
		info: ErrorInfo{
			Message: "The telemetry attribute was not found on the task.",
		},
	},

	// ===================
	// Validation
	// ===================
	{
		err: ErrInvalidStatus,
		info: ErrorInfo{
			Message: "The task status is not recognized.",
			Action:  "Use one of NOT_STARTED, IN_PROGRESS, DONE, NOT_APPLICABLE, NO_LONGER_USING.",
		},
	},
	{
		err: ErrInvalidSource,
		info: ErrorInfo{
			Message: "The update source is not recognized.",
			Action:  "Use one of MANUAL, TELEMETRY, IMPORT, SYSTEM.",
		},
	},
	{
		err: ErrInvalidLicenseLevel,
		info: ErrorInfo{
			Message: "The license level is not recognized.",
			Action:  "Use one of ESSENTIAL, ADVANTAGE, SIGNATURE.",
		},
	},
	{
		err: ErrWeightOutOfRange,
		info: ErrorInfo{
			Message: "A task weight is outside the range 0-100.",
			Action:  "Fix the weight in the catalog file and publish again.",
		},
	},
	{
		err: ErrInvalidTelemetryValue,
		info: ErrorInfo{
			Message: "A telemetry value does not match the attribute's data type.",
		},
	},
	{
		err: ErrInvalidCriteria,
		info: ErrorInfo{
			Message: "A success criteria expression is malformed.",
			Action:  "Fix the criteria in the catalog file and run 'adopt template check'.",
		},
	},
	{
		err: ErrBatchTooLarge,
		info: ErrorInfo{
			Message: "The telemetry batch has too many rows.",
			Action:  "Split the batch or raise telemetry.max_batch_rows.",
		},
	},
	{
		err: ErrTemplateInvalid,
		info: ErrorInfo{
			Message: "The catalog contains an invalid template.",
			Action:  "Run 'adopt template check' for details.",
		},
	},
	{
		err: ErrWrongSourceKind,
		info: ErrorInfo{
			Message: "The operation does not apply to this kind of template.",
			Action:  "Use the 'solution' commands for solutions and the 'plan' commands for products.",
		},
	},
	{
		err: ErrEmptyValue,
		info: ErrorInfo{
			Message: "A required value was empty.",
		},
	},

	// ===================
	// Infrastructure
	// ===================
	{
		err: ErrLockTimeout,
		info: ErrorInfo{
			Message: "Another operation is updating this plan.",
			Action:  "Wait a moment and retry, or raise lock.timeout.",
		},
	},
	{
		err: ErrPlanExists,
		info: ErrorInfo{
			Message: "An adoption plan with this id already exists.",
		},
	},
	{
		err: ErrStoreCorrupted,
		info: ErrorInfo{
			Message: "A stored plan could not be read.",
			Action:  "Inspect the plan file or database row, or restore it from backup.",
		},
	},
	{
		err: ErrTemplateFileMissing,
		info: ErrorInfo{
			Message: "The template catalog file was not found.",
			Action:  "Set catalog.path in config or pass --catalog.",
		},
	},
	{
		err: ErrTemplateParseError,
		info: ErrorInfo{
			Message: "The template catalog file is not valid YAML or JSON.",
		},
	},

	// ===================
	// Configuration & CLI
	// ===================
	{
		err: ErrConfigInvalidStorage,
		info: ErrorInfo{
			Message: "The storage configuration is invalid.",
			Action:  "Set storage.backend to 'file' or 'sqlite'.",
		},
	},
	{
		err: ErrConfigInvalidLock,
		info: ErrorInfo{
			Message: "The lock configuration is invalid.",
			Action:  "Set lock.backend to 'local' or 'redis' and provide lock.redis_addr for redis.",
		},
	},
	{
		err: ErrInvalidOutputFormat,
		info: ErrorInfo{
			Message: "Invalid output format.",
			Action:  "Use --output text or --output json.",
		},
	},
	{
		err: ErrInvalidArgument,
		info: ErrorInfo{
			Message: "An invalid argument was provided.",
			Action:  "Check the command help for valid arguments.",
		},
	},
}

// errorInfoMap provides O(1) lookup for direct sentinel error matches.
//
//nolint:gochecknoglobals // Pre-built mapping for O(1) lookup performance
var errorInfoMap = buildErrorInfoMap()

func buildErrorInfoMap() map[error]ErrorInfo {
	m := make(map[error]ErrorInfo, len(errorInfoEntries))
	for _, entry := range errorInfoEntries {
		m[entry.err] = entry.info
	}
	return m
}

// getErrorInfo looks up the ErrorInfo for a given error. Direct sentinels hit
// the map; wrapped errors fall back to errors.Is() traversal.
// Returns an ErrorInfo with the original error message if not found.
func getErrorInfo(err error) ErrorInfo {
	if info, ok := errorInfoMap[err]; ok {
		return info
	}

	for _, entry := range errorInfoEntries {
		if errors.Is(err, entry.err) {
			return entry.info
		}
	}

	return ErrorInfo{Message: err.Error()}
}

// UserMessage returns a user-friendly message for common errors.
// For unrecognized errors, it returns the error's original message.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	return getErrorInfo(err).Message
}

// Actionable returns a user-friendly error message along with a suggested
// action. The action is empty when there is no clear remedy.
func Actionable(err error) (message, action string) {
	if err == nil {
		return "", ""
	}
	info := getErrorInfo(err)
	return info.Message, info.Action
}
