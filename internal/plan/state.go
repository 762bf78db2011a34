package plan

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mrz1836/adopt/internal/constants"
	"github.com/mrz1836/adopt/internal/domain"
	adopterrors "github.com/mrz1836/adopt/internal/errors"
)

// StatusChange is a requested status transition for one task.
type StatusChange struct {
	// Status is the target status. The legacy COMPLETED is stored as DONE.
	Status domain.TaskStatus

	// Source is what caused the change. Defaults to MANUAL.
	Source domain.UpdateSource

	// Actor is the acting principal. Defaults to "system".
	Actor string

	// Note is appended to the task's notes when non-empty.
	Note string
}

// ValidateStatus returns the canonical form of status or ErrInvalidStatus.
// Case and dashes are normalized, so "in-progress" is IN_PROGRESS.
func ValidateStatus(status domain.TaskStatus) (domain.TaskStatus, error) {
	canonical, ok := constants.ParseTaskStatus(string(status))
	if !ok {
		return "", fmt.Errorf("%w: %q", adopterrors.ErrInvalidStatus, status)
	}
	return canonical, nil
}

// Transition moves task to change.Status and records provenance: the
// timestamp, actor, source, an optional note, and a transition history
// entry. Any status may move to any status, including itself.
//
// Transition does not touch plan totals; ChangeStatus does.
func Transition(ctx context.Context, task *domain.CustomerTask, change StatusChange, now time.Time) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if task == nil {
		return fmt.Errorf("%w: task is nil", adopterrors.ErrTaskNotFound)
	}

	to, err := ValidateStatus(change.Status)
	if err != nil {
		return err
	}

	source := change.Source
	if source == "" {
		source = constants.SourceManual
	}
	if !source.IsValid() {
		return fmt.Errorf("%w: %q", adopterrors.ErrInvalidSource, change.Source)
	}

	actor := change.Actor
	if actor == "" {
		actor = constants.SystemActor
	}

	task.Transitions = append(task.Transitions, domain.Transition{
		FromStatus: task.Status,
		ToStatus:   to,
		Source:     source,
		By:         actor,
		Timestamp:  now,
		Reason:     change.Note,
	})

	task.Status = to
	task.StatusUpdatedAt = now
	task.StatusUpdatedBy = actor
	task.StatusUpdateSource = source

	if note := strings.TrimSpace(change.Note); note != "" {
		task.StatusNotes = append(task.StatusNotes, domain.StatusNote{
			Text:      note,
			Author:    actor,
			Source:    source,
			Timestamp: now,
		})
	}
	return nil
}

// ChangeStatus applies change to the task identified by taskID and
// recomputes the plan's totals. Nothing is mutated when the task does not
// exist or the change is invalid.
func ChangeStatus(ctx context.Context, p *domain.AdoptionPlan, taskID string, change StatusChange, now time.Time) (*domain.CustomerTask, error) {
	task := p.FindTask(taskID)
	if task == nil {
		return nil, fmt.Errorf("%w: %q in plan %s", adopterrors.ErrTaskNotFound, taskID, p.ID)
	}
	if err := Transition(ctx, task, change, now); err != nil {
		return nil, err
	}
	Recalculate(p, now)
	return task, nil
}
