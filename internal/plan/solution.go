package plan

import (
	"fmt"
	"time"

	"github.com/mrz1836/adopt/internal/constants"
	"github.com/mrz1836/adopt/internal/domain"
	"github.com/mrz1836/adopt/internal/entitlement"
	adopterrors "github.com/mrz1836/adopt/internal/errors"
)

// ChildProgress is one product plan's contribution to a solution.
type ChildProgress struct {
	Weight float64
	Totals domain.Totals
}

// Aggregate rolls child plan totals up into solution totals. Counts and
// weights are summed. The percentage is the weighted mean of the children's
// percentages using each product's relative weight, or the plain mean when
// no child carries a positive weight.
func Aggregate(children []ChildProgress) domain.Totals {
	var totals domain.Totals
	var weightSum, weighted, plainSum float64

	for _, c := range children {
		totals.TotalTasks += c.Totals.TotalTasks
		totals.CompletedTasks += c.Totals.CompletedTasks
		totals.TotalWeight += c.Totals.TotalWeight
		totals.CompletedWeight += c.Totals.CompletedWeight

		plainSum += c.Totals.ProgressPercentage
		if c.Weight > 0 {
			weightSum += c.Weight
			weighted += c.Weight * c.Totals.ProgressPercentage
		}
	}

	switch {
	case weightSum > 0:
		totals.ProgressPercentage = Round1(weighted / weightSum)
	case len(children) > 0:
		totals.ProgressPercentage = Round1(plainSum / float64(len(children)))
	}
	return totals
}

// InstantiateSolution creates a solution plan and one child product plan per
// constituent product, each using the solution assignment's entitlement.
// products must hold every product the solution references.
func InstantiateSolution(solution *domain.Solution, assignment domain.Assignment, products map[string]*domain.Product, now time.Time) (*domain.SolutionAdoptionPlan, []*domain.AdoptionPlan, error) {
	if solution == nil {
		return nil, nil, fmt.Errorf("%w: solution %q", adopterrors.ErrTemplateNotFound, assignment.SourceID)
	}
	if err := entitlement.Validate(assignment.Entitlement); err != nil {
		return nil, nil, err
	}

	if assignment.ID == "" {
		assignment.ID = NewID()
	}
	assignment.SourceKind = constants.SourceKindSolution
	assignment.SourceID = solution.ID
	if assignment.CreatedAt.IsZero() {
		assignment.CreatedAt = now
	}

	sp := &domain.SolutionAdoptionPlan{
		ID:            NewID(),
		Assignment:    assignment,
		LastSyncedAt:  now,
		CreatedAt:     now,
		SchemaVersion: constants.PlanSchemaVersion,
	}

	children := make([]*domain.AdoptionPlan, 0, len(solution.Products))
	for _, ref := range solution.Products {
		product, ok := products[ref.ProductID]
		if !ok || product == nil {
			return nil, nil, fmt.Errorf("%w: product %q of solution %q", adopterrors.ErrTemplateNotFound, ref.ProductID, solution.ID)
		}

		child, err := Instantiate(product, domain.Assignment{
			ID:          NewID(),
			CustomerID:  assignment.CustomerID,
			SourceKind:  constants.SourceKindProduct,
			SourceID:    product.ID,
			Entitlement: assignment.Entitlement,
			CreatedAt:   now,
		}, now)
		if err != nil {
			return nil, nil, err
		}
		child.SolutionPlanID = sp.ID

		sp.Children = append(sp.Children, domain.SolutionChild{
			ProductID: product.ID,
			PlanID:    child.ID,
			Weight:    ref.Weight,
		})
		children = append(children, child)
	}

	RecalculateSolution(sp, children, now)
	return sp, children, nil
}

// RecalculateSolution refreshes sp's totals from its child plans, matched by
// plan id. Children missing from plans contribute nothing. Detached children
// count toward progress, but their NeedsSync never flags sp since they are
// no longer synced.
func RecalculateSolution(sp *domain.SolutionAdoptionPlan, plans []*domain.AdoptionPlan, now time.Time) {
	byID := make(map[string]*domain.AdoptionPlan, len(plans))
	for _, p := range plans {
		byID[p.ID] = p
	}

	progress := make([]ChildProgress, 0, len(sp.Children))
	needsSync := false
	for _, c := range sp.Children {
		p, ok := byID[c.PlanID]
		if !ok {
			continue
		}
		if !c.Detached {
			needsSync = needsSync || p.NeedsSync
		}
		progress = append(progress, ChildProgress{Weight: c.Weight, Totals: p.Totals})
	}

	sp.Totals = Aggregate(progress)
	sp.NeedsSync = sp.NeedsSync || needsSync
	sp.UpdatedAt = now
}

// ApplySolutionWeights copies the solution's current product weights onto
// sp's children. It reports whether any weight changed.
func ApplySolutionWeights(sp *domain.SolutionAdoptionPlan, solution *domain.Solution) bool {
	weights := make(map[string]float64, len(solution.Products))
	for _, p := range solution.Products {
		weights[p.ProductID] = p.Weight
	}

	changed := false
	for i := range sp.Children {
		if w, ok := weights[sp.Children[i].ProductID]; ok && w != sp.Children[i].Weight {
			sp.Children[i].Weight = w
			changed = true
		}
	}
	return changed
}
