package plan

import (
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/mrz1836/adopt/internal/constants"
	"github.com/mrz1836/adopt/internal/domain"
	"github.com/mrz1836/adopt/internal/entitlement"
	adopterrors "github.com/mrz1836/adopt/internal/errors"
)

// NewID returns a new random identifier for plans, tasks, and attributes.
func NewID() string {
	return uuid.NewString()
}

// Instantiate creates a fresh adoption plan for assignment from product.
// Every entitled template task becomes a NOT_STARTED customer task with empty
// telemetry attribute instances. The returned plan is not persisted.
func Instantiate(product *domain.Product, assignment domain.Assignment, now time.Time) (*domain.AdoptionPlan, error) {
	if product == nil {
		return nil, fmt.Errorf("%w: product %q", adopterrors.ErrTemplateNotFound, assignment.SourceID)
	}
	if err := entitlement.Validate(assignment.Entitlement); err != nil {
		return nil, err
	}

	if assignment.ID == "" {
		assignment.ID = NewID()
	}
	if assignment.SourceID == "" {
		assignment.SourceID = product.ID
	}
	if assignment.SourceKind == "" {
		assignment.SourceKind = constants.SourceKindProduct
	}
	if assignment.CreatedAt.IsZero() {
		assignment.CreatedAt = now
	}

	filtered := entitlement.Filter(product.Tasks, assignment.Entitlement)
	tasks := make([]*domain.CustomerTask, 0, len(filtered))
	for _, tmpl := range filtered {
		tasks = append(tasks, NewTask(tmpl, now))
	}

	p := &domain.AdoptionPlan{
		ID:            NewID(),
		Assignment:    assignment,
		NeedsSync:     false,
		LastSyncedAt:  now,
		Tasks:         tasks,
		CreatedAt:     now,
		SchemaVersion: constants.PlanSchemaVersion,
	}
	Recalculate(p, now)
	return p, nil
}

// NewTask creates a NOT_STARTED customer task copying tmpl.
func NewTask(tmpl domain.TaskTemplate, now time.Time) *domain.CustomerTask {
	task := &domain.CustomerTask{
		ID:                 NewID(),
		TemplateTaskID:     tmpl.ID,
		Status:             constants.TaskStatusNotStarted,
		StatusUpdatedAt:    now,
		StatusUpdatedBy:    constants.SystemActor,
		StatusUpdateSource: constants.SourceSystem,
		Attributes:         make([]*domain.TelemetryAttribute, 0, len(tmpl.Attributes)),
	}
	copyTemplate(task, tmpl)
	for _, def := range tmpl.Attributes {
		task.Attributes = append(task.Attributes, NewAttribute(def))
	}
	return task
}

// NewAttribute creates an empty attribute instance for def.
func NewAttribute(def domain.AttributeDefinition) *domain.TelemetryAttribute {
	attr := &domain.TelemetryAttribute{ID: NewID()}
	copyDefinition(attr, def)
	return attr
}

// copyTemplate copies the display attributes of tmpl onto task and reports
// whether anything changed.
func copyTemplate(task *domain.CustomerTask, tmpl domain.TaskTemplate) bool {
	changed := task.Name != tmpl.Name ||
		task.Description != tmpl.Description ||
		task.Weight != tmpl.Weight ||
		task.SequenceNumber != tmpl.SequenceNumber ||
		task.LicenseLevel != tmpl.LicenseLevel ||
		!slices.Equal(task.OutcomeIDs, tmpl.OutcomeIDs) ||
		!slices.Equal(task.ReleaseIDs, tmpl.ReleaseIDs)
	if !changed {
		return false
	}

	task.Name = tmpl.Name
	task.Description = tmpl.Description
	task.Weight = tmpl.Weight
	task.SequenceNumber = tmpl.SequenceNumber
	task.LicenseLevel = tmpl.LicenseLevel
	task.OutcomeIDs = slices.Clone(tmpl.OutcomeIDs)
	task.ReleaseIDs = slices.Clone(tmpl.ReleaseIDs)
	return true
}

// copyDefinition copies def onto attr and reports whether anything changed.
func copyDefinition(attr *domain.TelemetryAttribute, def domain.AttributeDefinition) bool {
	changed := attr.DefinitionID != def.ID ||
		attr.Name != def.Name ||
		attr.Description != def.Description ||
		attr.DataType != def.DataType ||
		attr.Required != def.Required ||
		attr.Order != def.Order ||
		!criteriaEqual(attr.Criteria, def.Criteria)
	if !changed {
		return false
	}

	attr.DefinitionID = def.ID
	attr.Name = def.Name
	attr.Description = def.Description
	attr.DataType = def.DataType
	attr.Required = def.Required
	attr.Order = def.Order
	attr.Criteria = cloneCriteria(def.Criteria)
	return true
}
