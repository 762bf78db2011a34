package domain

import "time"

// Totals are the denormalized progress figures of a plan.
type Totals struct {
	TotalTasks         int     `json:"total_tasks"`
	CompletedTasks     int     `json:"completed_tasks"`
	TotalWeight        float64 `json:"total_weight"`
	CompletedWeight    float64 `json:"completed_weight"`
	ProgressPercentage float64 `json:"progress_percentage"`
}

// AdoptionPlan is the instance-level tracking object for one customer's
// entitled subset of tasks for one product.
//
// Example JSON representation:
//
//	{
//	    "id": "6f1c...",
//	    "assignment": {...},
//	    "needs_sync": false,
//	    "last_synced_at": "2026-01-10T10:00:00Z",
//	    "totals": {"total_tasks": 2, "progress_percentage": 60},
//	    "tasks": [...],
//	    "schema_version": "1.0"
//	}
type AdoptionPlan struct {
	// ID is the unique identifier of the plan.
	ID string `json:"id"`

	// Assignment is the owning assignment. Deleting the plan deletes it.
	Assignment Assignment `json:"assignment"`

	// SolutionPlanID is set when the plan is a child of a solution plan.
	SolutionPlanID string `json:"solution_plan_id,omitempty"`

	// NeedsSync flags the plan as stale relative to its template or entitlements.
	NeedsSync bool `json:"needs_sync"`

	// LastSyncedAt is when the plan was last instantiated or synced.
	LastSyncedAt time.Time `json:"last_synced_at"`

	// Totals are recomputed after every mutation.
	Totals Totals `json:"totals"`

	// Tasks are ordered by sequence number, orphaned tasks last.
	Tasks []*CustomerTask `json:"tasks"`

	// CreatedAt is when the plan was created.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is when the plan was last modified.
	UpdatedAt time.Time `json:"updated_at"`

	// SchemaVersion is the version of the persisted plan schema.
	SchemaVersion string `json:"schema_version"`
}

// FindTask returns the task with the given id, or nil.
func (p *AdoptionPlan) FindTask(id string) *CustomerTask {
	for _, t := range p.Tasks {
		if t.ID == id {
			return t
		}
	}
	return nil
}

// ActiveTasks returns the tasks that are not orphaned.
func (p *AdoptionPlan) ActiveTasks() []*CustomerTask {
	active := make([]*CustomerTask, 0, len(p.Tasks))
	for _, t := range p.Tasks {
		if !t.Orphaned {
			active = append(active, t)
		}
	}
	return active
}

// CustomerTask is a plan's copy of a template task holding mutable progress state.
type CustomerTask struct {
	// ID is the unique identifier of the customer task.
	ID string `json:"id"`

	// TemplateTaskID references the originating template task.
	TemplateTaskID string `json:"template_task_id"`

	// Copied display attributes.
	Name           string       `json:"name"`
	Description    string       `json:"description,omitempty"`
	Weight         float64      `json:"weight"`
	SequenceNumber int          `json:"sequence_number"`
	LicenseLevel   LicenseLevel `json:"license_level"`
	OutcomeIDs     []string     `json:"outcome_ids,omitempty"`
	ReleaseIDs     []string     `json:"release_ids,omitempty"`

	// Status is the current state.
	Status TaskStatus `json:"status"`

	// StatusUpdatedAt is when the status last changed.
	StatusUpdatedAt time.Time `json:"status_updated_at"`

	// StatusUpdatedBy is the acting principal of the last change.
	StatusUpdatedBy string `json:"status_updated_by"`

	// StatusUpdateSource is what caused the last change.
	StatusUpdateSource UpdateSource `json:"status_update_source"`

	// StatusNotes is an append-only log of notes.
	StatusNotes []StatusNote `json:"status_notes,omitempty"`

	// Transitions is the append-only status history.
	Transitions []Transition `json:"transitions,omitempty"`

	// Attributes are the telemetry attribute instances.
	Attributes []*TelemetryAttribute `json:"attributes,omitempty"`

	// Orphaned is set by sync when the template task is no longer applicable.
	// Orphaned tasks keep their history and are excluded from totals.
	Orphaned   bool       `json:"orphaned,omitempty"`
	OrphanedAt *time.Time `json:"orphaned_at,omitempty"`
}

// StatusNote is one entry of a task's notes log.
type StatusNote struct {
	Text      string       `json:"text"`
	Author    string       `json:"author"`
	Source    UpdateSource `json:"source"`
	Timestamp time.Time    `json:"timestamp"`
}

// Transition records a single status change.
type Transition struct {
	FromStatus TaskStatus   `json:"from_status"`
	ToStatus   TaskStatus   `json:"to_status"`
	Source     UpdateSource `json:"source"`
	By         string       `json:"by"`
	Timestamp  time.Time    `json:"timestamp"`
	Reason     string       `json:"reason,omitempty"`
}

// CriteriaCounts returns how many live criteria-bearing attributes the task has
// and how many of them are met. Retired attributes are not counted.
func (t *CustomerTask) CriteriaCounts() (met, total int) {
	for _, a := range t.Attributes {
		if a.Retired || !a.HasCriteria() {
			continue
		}
		total++
		if a.IsMet {
			met++
		}
	}
	return met, total
}

// FindAttribute returns the attribute whose id, definition id, or name
// matches ref, in that order of preference. It returns nil if none does.
func (t *CustomerTask) FindAttribute(ref string) *TelemetryAttribute {
	for _, a := range t.Attributes {
		if a.ID == ref {
			return a
		}
	}
	for _, a := range t.Attributes {
		if a.DefinitionID == ref {
			return a
		}
	}
	for _, a := range t.Attributes {
		if a.Name == ref {
			return a
		}
	}
	return nil
}

// TelemetryAttribute is a task's instance of an attribute definition.
type TelemetryAttribute struct {
	// ID is the instance id.
	ID string `json:"id"`

	// DefinitionID references the template attribute definition.
	DefinitionID string `json:"definition_id"`

	// Copied definition.
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	DataType    DataType         `json:"data_type"`
	Criteria    *SuccessCriteria `json:"success_criteria,omitempty"`
	Required    bool             `json:"required,omitempty"`
	Order       int              `json:"order,omitempty"`

	// IsMet is the result of the last evaluation.
	IsMet bool `json:"is_met"`

	// LastCheckedAt is when the attribute was last evaluated.
	LastCheckedAt *time.Time `json:"last_checked_at,omitempty"`

	// Retired is set when the definition was removed from the template.
	// Retired attributes keep their values and are never evaluated.
	Retired bool `json:"retired,omitempty"`

	// Values is append-only. The latest value is the last element.
	Values []TelemetryValue `json:"values,omitempty"`
}

// HasCriteria reports whether the attribute carries a non-trivial success criteria.
func (a *TelemetryAttribute) HasCriteria() bool {
	return !a.Criteria.IsEmpty()
}

// LatestValue returns the most recent value, or nil if none was recorded.
func (a *TelemetryAttribute) LatestValue() *TelemetryValue {
	if len(a.Values) == 0 {
		return nil
	}
	return &a.Values[len(a.Values)-1]
}

// Definition returns the copied attribute definition.
func (a *TelemetryAttribute) Definition() AttributeDefinition {
	return AttributeDefinition{
		ID:          a.DefinitionID,
		Name:        a.Name,
		Description: a.Description,
		DataType:    a.DataType,
		Criteria:    a.Criteria,
		Required:    a.Required,
		Order:       a.Order,
	}
}

// TelemetryValue is one imported value of a telemetry attribute.
type TelemetryValue struct {
	Value       string       `json:"value"`
	CriteriaMet bool         `json:"criteria_met"`
	ImportedAt  time.Time    `json:"imported_at"`
	BatchID     string       `json:"batch_id,omitempty"`
	Source      UpdateSource `json:"source,omitempty"`
	Notes       string       `json:"notes,omitempty"`
}
