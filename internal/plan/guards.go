package plan

import (
	"fmt"

	"github.com/mrz1836/adopt/internal/constants"
	"github.com/mrz1836/adopt/internal/domain"
)

// GuardResult represents the outcome of a guard evaluation.
type GuardResult struct {
	Allowed bool
	Reason  string
}

// Error returns the reason as an error, or nil if allowed.
func (r GuardResult) Error() error {
	if r.Allowed {
		return nil
	}
	return fmt.Errorf("%s", r.Reason) //nolint:err113 // guard reasons are dynamic
}

// CanAutoComplete evaluates whether telemetry may move task to DONE.
// Rules:
//   - the task must not be orphaned
//   - the task must have at least one live criteria-bearing attribute
//   - every such attribute must be met
//   - the task must not already be complete
//   - a human-authored status (MANUAL or IMPORT) other than NOT_STARTED
//     takes precedence over telemetry
func CanAutoComplete(task *domain.CustomerTask) GuardResult {
	if task.Orphaned {
		return GuardResult{Allowed: false, Reason: fmt.Sprintf("task %q is orphaned", task.Name)}
	}

	met, total := task.CriteriaCounts()
	if total == 0 {
		return GuardResult{Allowed: false, Reason: fmt.Sprintf("task %q has no telemetry criteria", task.Name)}
	}
	if met < total {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("task %q has %d of %d criteria met", task.Name, met, total),
		}
	}

	if task.Status.IsComplete() {
		return GuardResult{Allowed: false, Reason: fmt.Sprintf("task %q is already %s", task.Name, task.Status)}
	}

	if task.StatusUpdateSource.IsHumanAuthored() && task.Status != constants.TaskStatusNotStarted {
		return GuardResult{
			Allowed: false,
			Reason: fmt.Sprintf("task %q was set to %s by %s (%s)",
				task.Name, task.Status, task.StatusUpdatedBy, task.StatusUpdateSource),
		}
	}

	return GuardResult{Allowed: true}
}
