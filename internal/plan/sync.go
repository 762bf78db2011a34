package plan

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/mrz1836/adopt/internal/criteria"
	"github.com/mrz1836/adopt/internal/domain"
	"github.com/mrz1836/adopt/internal/entitlement"
	adopterrors "github.com/mrz1836/adopt/internal/errors"
)

// SyncReport describes what a sync changed.
type SyncReport struct {
	PlanID            string           `json:"plan_id"`
	Added             []string         `json:"added,omitempty"`
	Updated           []string         `json:"updated,omitempty"`
	Orphaned          []string         `json:"orphaned,omitempty"`
	Restored          []string         `json:"restored,omitempty"`
	Unchanged         int              `json:"unchanged"`
	AttributesAdded   int              `json:"attributes_added"`
	AttributesRetired int              `json:"attributes_retired"`
	Totals            domain.Totals    `json:"totals"`
	Warnings          []domain.Warning `json:"warnings,omitempty"`
}

// Changed reports whether the sync mutated any task.
func (r *SyncReport) Changed() bool {
	return len(r.Added) > 0 || len(r.Updated) > 0 || len(r.Orphaned) > 0 || len(r.Restored) > 0
}

// Sync reconciles p against the current product template using the plan's
// current entitlement. Matching tasks get their copied attributes refreshed
// while status, notes, transitions, and telemetry values are kept. New
// template tasks are instantiated. Tasks that no longer apply are flagged
// orphaned rather than removed, and are restored if their template comes
// back. Attribute definitions removed from a template are flagged retired.
//
// Sync is idempotent: a second run with no template change only advances
// LastSyncedAt.
func Sync(ctx context.Context, p *domain.AdoptionPlan, product *domain.Product, now time.Time) (*SyncReport, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if product == nil {
		return nil, fmt.Errorf("%w: product %q", adopterrors.ErrTemplateNotFound, p.Assignment.SourceID)
	}
	if err := entitlement.Validate(p.Assignment.Entitlement); err != nil {
		return nil, err
	}

	report := &SyncReport{PlanID: p.ID}
	filtered := entitlement.Filter(product.Tasks, p.Assignment.Entitlement)

	byTemplate := make(map[string]*domain.CustomerTask, len(p.Tasks))
	for _, t := range p.Tasks {
		if _, dup := byTemplate[t.TemplateTaskID]; !dup && t.TemplateTaskID != "" {
			byTemplate[t.TemplateTaskID] = t
		}
	}

	applicable := make(map[string]bool, len(filtered))
	for _, tmpl := range filtered {
		applicable[tmpl.ID] = true

		task, ok := byTemplate[tmpl.ID]
		if !ok {
			task = NewTask(tmpl, now)
			p.Tasks = append(p.Tasks, task)
			report.Added = append(report.Added, task.ID)
			continue
		}

		restored := false
		if task.Orphaned {
			task.Orphaned = false
			task.OrphanedAt = nil
			restored = true
			report.Restored = append(report.Restored, task.ID)
		}

		changed := copyTemplate(task, tmpl)
		added, retired, attrsChanged := syncAttributes(task, tmpl.Attributes, now)
		report.AttributesAdded += added
		report.AttributesRetired += retired

		switch {
		case restored:
		case changed || attrsChanged:
			report.Updated = append(report.Updated, task.ID)
		default:
			report.Unchanged++
		}
	}

	for _, t := range p.Tasks {
		if t.Orphaned || applicable[t.TemplateTaskID] {
			continue
		}
		orphanedAt := now
		t.Orphaned = true
		t.OrphanedAt = &orphanedAt
		report.Orphaned = append(report.Orphaned, t.ID)
	}

	slices.SortStableFunc(p.Tasks, func(a, b *domain.CustomerTask) int {
		if a.Orphaned != b.Orphaned {
			if a.Orphaned {
				return 1
			}
			return -1
		}
		return a.SequenceNumber - b.SequenceNumber
	})

	if report.Changed() {
		Recalculate(p, now)
	} else {
		p.Totals = Calculate(p.ActiveTasks())
	}
	p.NeedsSync = false
	p.LastSyncedAt = now

	report.Totals = p.Totals
	report.Warnings = Warnings(p)
	return report, nil
}

// syncAttributes refreshes task's attribute instances from defs. It returns
// the number of attributes added and retired and whether anything changed.
// When an attribute's criteria change, or a retired attribute comes back,
// its latest value is re-evaluated so IsMet reflects the current rule; no
// status transition is made.
func syncAttributes(task *domain.CustomerTask, defs []domain.AttributeDefinition, now time.Time) (added, retired int, changed bool) {
	byDef := make(map[string]*domain.TelemetryAttribute, len(task.Attributes))
	for _, a := range task.Attributes {
		byDef[a.DefinitionID] = a
	}

	live := make(map[string]bool, len(defs))
	for _, def := range defs {
		live[def.ID] = true

		attr, ok := byDef[def.ID]
		if !ok {
			task.Attributes = append(task.Attributes, NewAttribute(def))
			added++
			changed = true
			continue
		}

		reevaluate := attr.Retired || !criteriaEqual(attr.Criteria, def.Criteria)
		if attr.Retired {
			attr.Retired = false
			changed = true
		}
		if copyDefinition(attr, def) {
			changed = true
		}
		if reevaluate {
			latest := attr.LatestValue()
			attr.IsMet = latest != nil && criteria.Evaluate(attr.Criteria, latest.Value)
			checked := now
			attr.LastCheckedAt = &checked
		}
	}

	for _, a := range task.Attributes {
		if a.Retired || live[a.DefinitionID] {
			continue
		}
		a.Retired = true
		a.IsMet = false
		retired++
		changed = true
	}
	return added, retired, changed
}
