package plan

import (
	"math"
	"slices"
	"time"

	"github.com/mrz1836/adopt/internal/constants"
	"github.com/mrz1836/adopt/internal/domain"
)

// Calculate computes progress totals for tasks. Tasks with status
// NOT_APPLICABLE count toward nothing; DONE (and the legacy COMPLETED) count
// as complete. The result depends only on the tasks passed in, so callers can
// compute filtered views by passing a subset.
func Calculate(tasks []*domain.CustomerTask) domain.Totals {
	var totals domain.Totals
	for _, t := range tasks {
		if t.Status == constants.TaskStatusNotApplicable {
			continue
		}
		totals.TotalTasks++
		totals.TotalWeight += t.Weight
		if t.Status.IsComplete() {
			totals.CompletedTasks++
			totals.CompletedWeight += t.Weight
		}
	}
	totals.ProgressPercentage = Percentage(totals.CompletedWeight, totals.TotalWeight)
	return totals
}

// Percentage returns part/whole*100 rounded to one decimal, or 0 when whole
// is not positive.
func Percentage(part, whole float64) float64 {
	if whole <= 0 {
		return 0
	}
	return Round1(part / whole * 100)
}

// Round1 rounds to one decimal place, halves away from zero.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// Recalculate refreshes the plan's denormalized totals from its
// non-orphaned tasks and stamps UpdatedAt.
func Recalculate(p *domain.AdoptionPlan, now time.Time) {
	p.Totals = Calculate(p.ActiveTasks())
	p.UpdatedAt = now
}

// Filter narrows tasks for a display view. Zero-value fields match everything.
type Filter struct {
	ReleaseID string
	OutcomeID string
	Status    domain.TaskStatus
}

// Apply returns the active tasks matching f. Tasks without any release or
// outcome ids are unconditional and match every release or outcome filter.
func (f Filter) Apply(tasks []*domain.CustomerTask) []*domain.CustomerTask {
	out := make([]*domain.CustomerTask, 0, len(tasks))
	for _, t := range tasks {
		if t.Orphaned {
			continue
		}
		if f.ReleaseID != "" && len(t.ReleaseIDs) > 0 && !slices.Contains(t.ReleaseIDs, f.ReleaseID) {
			continue
		}
		if f.OutcomeID != "" && len(t.OutcomeIDs) > 0 && !slices.Contains(t.OutcomeIDs, f.OutcomeID) {
			continue
		}
		if f.Status != "" && t.Status != f.Status {
			continue
		}
		out = append(out, t)
	}
	return out
}

// Warnings returns the consistency warnings of a plan: orphaned tasks,
// retired attributes still holding values, and a pending sync.
func Warnings(p *domain.AdoptionPlan) []domain.Warning {
	var warnings []domain.Warning
	if p.NeedsSync {
		warnings = append(warnings, domain.Warning{
			Code:      domain.WarningNeedsSync,
			Message:   "plan is out of date with its template or entitlements; run sync",
			SubjectID: p.ID,
		})
	}
	for _, t := range p.Tasks {
		if t.Orphaned {
			warnings = append(warnings, domain.Warning{
				Code:      domain.WarningOrphanedTask,
				Message:   "task " + t.Name + " no longer applies and is excluded from progress",
				SubjectID: t.ID,
			})
		}
		for _, a := range t.Attributes {
			if a.Retired {
				warnings = append(warnings, domain.Warning{
					Code:      domain.WarningRetiredAttribute,
					Message:   "attribute " + a.Name + " on task " + t.Name + " was removed from the template",
					SubjectID: a.ID,
				})
			}
		}
	}
	return warnings
}
