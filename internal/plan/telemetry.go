package plan

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mrz1836/adopt/internal/constants"
	"github.com/mrz1836/adopt/internal/criteria"
	"github.com/mrz1836/adopt/internal/domain"
	adopterrors "github.com/mrz1836/adopt/internal/errors"
)

// TelemetryRow is one parsed (task, attribute, value) triple.
// TaskRef matches a task id, template task id, or name; AttributeRef matches
// an attribute id, definition id, or name.
type TelemetryRow struct {
	Row          int    `json:"row,omitempty" yaml:"row,omitempty"`
	TaskRef      string `json:"task" yaml:"task"`
	AttributeRef string `json:"attribute" yaml:"attribute"`
	Value        string `json:"value" yaml:"value"`
	Notes        string `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// TelemetryBatch is an already-parsed telemetry import.
type TelemetryBatch struct {
	// ID identifies the batch on every stored value. Generated when empty.
	ID string `json:"batch_id,omitempty" yaml:"batch_id,omitempty"`

	// Source is recorded on stored values. Defaults to TELEMETRY.
	Source domain.UpdateSource `json:"source,omitempty" yaml:"source,omitempty"`

	Rows []TelemetryRow `json:"rows" yaml:"rows"`
}

// TelemetryOptions tunes ApplyTelemetry.
type TelemetryOptions struct {
	// AutoCompleteNote is the note recorded on automatic transitions.
	AutoCompleteNote string

	// MaxRows rejects larger batches up front. Zero means no limit.
	MaxRows int
}

// RowError is a per-row problem collected during an import.
type RowError struct {
	Row          int    `json:"row"`
	TaskRef      string `json:"task"`
	AttributeRef string `json:"attribute"`
	Message      string `json:"message"`
	Err          error  `json:"-"`
}

// Error implements the error interface.
func (e RowError) Error() string {
	return fmt.Sprintf("row %d (%s/%s): %s", e.Row, e.TaskRef, e.AttributeRef, e.Message)
}

// Unwrap returns the underlying error.
func (e RowError) Unwrap() error {
	return e.Err
}

// StatusChangeSummary describes an automatic transition made by an import.
type StatusChangeSummary struct {
	From domain.TaskStatus `json:"from"`
	To   domain.TaskStatus `json:"to"`
}

// TaskImportResult summarizes an import for one touched task.
type TaskImportResult struct {
	TaskID               string               `json:"task_id"`
	TaskName             string               `json:"task_name"`
	AttributesUpdated    int                  `json:"attributes_updated"`
	CriteriaMet          int                  `json:"criteria_met"`
	CriteriaTotal        int                  `json:"criteria_total"`
	CompletionPercentage float64              `json:"completion_percentage"`
	StatusChange         *StatusChangeSummary `json:"status_change,omitempty"`
	Blocked              string               `json:"auto_complete_blocked,omitempty"`
}

// ImportSummary totals an import batch.
type ImportSummary struct {
	TasksProcessed    int `json:"tasks_processed"`
	AttributesUpdated int `json:"attributes_updated"`
	CriteriaEvaluated int `json:"criteria_evaluated"`
	RowsSkipped       int `json:"rows_skipped"`
	Errors            int `json:"errors"`
}

// ImportResult is returned by ApplyTelemetry.
type ImportResult struct {
	BatchID     string             `json:"batch_id"`
	PlanID      string             `json:"plan_id"`
	Summary     ImportSummary      `json:"summary"`
	TaskResults []TaskImportResult `json:"task_results"`
	RowErrors   []RowError         `json:"row_errors,omitempty"`
	Totals      domain.Totals      `json:"totals"`
}

// ApplyTelemetry appends every row's value to its attribute, evaluates the
// attribute's criteria, and then runs the auto-complete rule once per
// touched task. Row-level problems are collected in the result and do not
// stop the batch; rows already applied stay applied.
//
// The only errors returned are for a canceled context and a batch larger
// than opts.MaxRows, in which case nothing is applied.
func ApplyTelemetry(ctx context.Context, p *domain.AdoptionPlan, batch TelemetryBatch, opts TelemetryOptions, now time.Time) (*ImportResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if opts.MaxRows > 0 && len(batch.Rows) > opts.MaxRows {
		return nil, fmt.Errorf("%w: %d rows, limit %d", adopterrors.ErrBatchTooLarge, len(batch.Rows), opts.MaxRows)
	}
	if batch.ID == "" {
		batch.ID = NewID()
	}
	if batch.Source == "" {
		batch.Source = constants.SourceTelemetry
	}
	if opts.AutoCompleteNote == "" {
		opts.AutoCompleteNote = constants.AutoCompleteNote
	}

	result := &ImportResult{BatchID: batch.ID, PlanID: p.ID}
	touched := make([]*domain.CustomerTask, 0)
	updated := make(map[string]int)

	for i, row := range batch.Rows {
		if row.Row == 0 {
			row.Row = i + 1
		}
		if strings.TrimSpace(row.Value) == "" {
			result.Summary.RowsSkipped++
			continue
		}

		task, attr, err := resolveRow(p, row)
		if err == nil {
			err = recordValue(attr, row, batch, now)
		}
		if err != nil {
			result.RowErrors = append(result.RowErrors, RowError{
				Row:          row.Row,
				TaskRef:      row.TaskRef,
				AttributeRef: row.AttributeRef,
				Message:      err.Error(),
				Err:          err,
			})
			continue
		}

		if _, seen := updated[task.ID]; !seen {
			touched = append(touched, task)
		}
		updated[task.ID]++
		result.Summary.AttributesUpdated++
		if attr.HasCriteria() {
			result.Summary.CriteriaEvaluated++
		}
	}

	for _, task := range touched {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		taskResult := TaskImportResult{
			TaskID:            task.ID,
			TaskName:          task.Name,
			AttributesUpdated: updated[task.ID],
		}

		guard := CanAutoComplete(task)
		if guard.Allowed {
			from := task.Status
			change := StatusChange{
				Status: constants.TaskStatusDone,
				Source: constants.SourceTelemetry,
				Actor:  constants.SystemActor,
				Note:   opts.AutoCompleteNote,
			}
			if err := Transition(ctx, task, change, now); err != nil {
				return nil, err
			}
			taskResult.StatusChange = &StatusChangeSummary{From: from, To: task.Status}
		} else {
			taskResult.Blocked = guard.Reason
		}

		taskResult.CriteriaMet, taskResult.CriteriaTotal = task.CriteriaCounts()
		taskResult.CompletionPercentage = Percentage(float64(taskResult.CriteriaMet), float64(taskResult.CriteriaTotal))
		result.TaskResults = append(result.TaskResults, taskResult)
	}

	result.Summary.TasksProcessed = len(touched)
	result.Summary.Errors = len(result.RowErrors)
	if len(touched) > 0 {
		Recalculate(p, now)
	}
	result.Totals = p.Totals
	return result, nil
}

// resolveRow finds the live task and attribute a row refers to.
func resolveRow(p *domain.AdoptionPlan, row TelemetryRow) (*domain.CustomerTask, *domain.TelemetryAttribute, error) {
	task := FindTaskRef(p, row.TaskRef)
	if task == nil {
		return nil, nil, fmt.Errorf("%w: %q", adopterrors.ErrTaskNotFound, row.TaskRef)
	}
	if task.Orphaned {
		return nil, nil, fmt.Errorf("%w: %q", adopterrors.ErrTaskOrphaned, task.Name)
	}

	attr := task.FindAttribute(row.AttributeRef)
	if attr == nil {
		return nil, nil, fmt.Errorf("%w: %q on task %q", adopterrors.ErrAttributeNotFound, row.AttributeRef, task.Name)
	}
	if attr.Retired {
		return nil, nil, fmt.Errorf("%w: %q on task %q", adopterrors.ErrAttributeRetired, attr.Name, task.Name)
	}
	return task, attr, nil
}

// recordValue normalizes, evaluates, and appends a value to attr.
func recordValue(attr *domain.TelemetryAttribute, row TelemetryRow, batch TelemetryBatch, now time.Time) error {
	value, err := criteria.Normalize(attr.DataType, row.Value)
	if err != nil {
		return err
	}

	met := criteria.Evaluate(attr.Criteria, value)
	attr.Values = append(attr.Values, domain.TelemetryValue{
		Value:       value,
		CriteriaMet: met,
		ImportedAt:  now,
		BatchID:     batch.ID,
		Source:      batch.Source,
		Notes:       row.Notes,
	})
	attr.IsMet = met
	checked := now
	attr.LastCheckedAt = &checked
	return nil
}

// FindTaskRef returns the task whose id, template task id, or name matches
// ref, in that order of preference.
func FindTaskRef(p *domain.AdoptionPlan, ref string) *domain.CustomerTask {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil
	}
	if t := p.FindTask(ref); t != nil {
		return t
	}
	for _, t := range p.Tasks {
		if t.TemplateTaskID == ref {
			return t
		}
	}
	for _, t := range p.Tasks {
		if t.Name == ref {
			return t
		}
	}
	return nil
}
