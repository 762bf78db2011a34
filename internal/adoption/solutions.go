package adoption

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mrz1836/adopt/internal/constants"
	"github.com/mrz1836/adopt/internal/domain"
	"github.com/mrz1836/adopt/internal/entitlement"
	adopterrors "github.com/mrz1836/adopt/internal/errors"
	"github.com/mrz1836/adopt/internal/lock"
	"github.com/mrz1836/adopt/internal/plan"
)

// CreateSolutionPlanRequest assigns a solution to a customer.
type CreateSolutionPlanRequest struct {
	AssignmentID string
	CustomerID   string
	SolutionID   string
	Entitlement  domain.Entitlement
}

// SolutionSyncReport describes a solution sync.
type SolutionSyncReport struct {
	SolutionPlanID string `json:"solution_plan_id"`

	// Added lists child plans created for products new to the solution.
	Added []string `json:"added,omitempty"`

	// Detached lists child plans whose product left the solution. They are
	// kept and still count toward totals, but are no longer synced.
	Detached []string `json:"detached,omitempty"`

	WeightsChanged bool               `json:"weights_changed"`
	Children       []*plan.SyncReport `json:"children"`
	Totals         domain.Totals      `json:"totals"`
}

// CreateSolutionPlan creates a solution plan and one child product plan per
// constituent product, all sharing the assignment's entitlement. Child plans
// are stored before the solution plan that references them.
func (s *Service) CreateSolutionPlan(ctx context.Context, req CreateSolutionPlanRequest) (*domain.SolutionAdoptionPlan, []*domain.AdoptionPlan, error) {
	if strings.TrimSpace(req.CustomerID) == "" {
		return nil, nil, fmt.Errorf("%w: customer id", adopterrors.ErrEmptyValue)
	}
	release, err := s.claimAssignment(ctx, req.AssignmentID)
	if err != nil {
		return nil, nil, err
	}
	defer release()

	solution, err := s.templates.Solution(req.SolutionID)
	if err != nil {
		return nil, nil, err
	}
	products := make(map[string]*domain.Product, len(solution.Products))
	for _, id := range solution.ProductIDs() {
		product, err := s.templates.Product(id)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load product '%s' of solution '%s': %w", id, solution.ID, err)
		}
		products[id] = product
	}

	sp, children, err := plan.InstantiateSolution(solution, domain.Assignment{
		ID:          req.AssignmentID,
		CustomerID:  req.CustomerID,
		SourceKind:  constants.SourceKindSolution,
		SourceID:    solution.ID,
		Entitlement: req.Entitlement,
	}, products, s.now())
	if err != nil {
		return nil, nil, err
	}

	for i, child := range children {
		if err := s.store.CreatePlan(ctx, child); err != nil {
			s.discardPlans(ctx, children[:i])
			return nil, nil, fmt.Errorf("failed to store child plan for product '%s': %w", child.Assignment.SourceID, err)
		}
	}
	if err := s.store.CreateSolutionPlan(ctx, sp); err != nil {
		s.discardPlans(ctx, children)
		return nil, nil, fmt.Errorf("failed to store solution plan for '%s': %w", solution.ID, err)
	}

	s.logger.Info().
		Str("solution_plan_id", sp.ID).
		Str("customer_id", sp.Assignment.CustomerID).
		Str("solution_id", solution.ID).
		Int("children", len(children)).
		Msg("solution adoption plan created")
	return sp, children, nil
}

// GetSolutionPlan returns a solution plan and its child plans in child order.
// Children that no longer exist are skipped.
func (s *Service) GetSolutionPlan(ctx context.Context, id string) (*domain.SolutionAdoptionPlan, []*domain.AdoptionPlan, error) {
	sp, err := s.store.GetSolutionPlan(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	children, err := s.loadChildren(ctx, sp)
	if err != nil {
		return nil, nil, err
	}
	return sp, children, nil
}

// ListSolutionPlans returns the solution plans matching filter, newest first.
func (s *Service) ListSolutionPlans(ctx context.Context, filter plan.ListFilter) ([]*domain.SolutionAdoptionPlan, error) {
	return s.store.ListSolutionPlans(ctx, filter)
}

// DeleteSolutionPlan removes a solution plan. With cascade its child plans
// are removed too; otherwise they become standalone product plans.
func (s *Service) DeleteSolutionPlan(ctx context.Context, id string, cascade bool) error {
	unlock, err := s.locker.Lock(ctx, lock.SolutionKey(id))
	if err != nil {
		return err
	}
	defer unlock()

	sp, err := s.store.GetSolutionPlan(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteSolutionPlan(ctx, id); err != nil {
		return err
	}

	for _, childID := range sp.ChildPlanIDs() {
		if cascade {
			err = s.DeletePlan(ctx, childID)
		} else {
			_, err = s.mutatePlan(ctx, childID, func(p *domain.AdoptionPlan, now time.Time) error {
				p.SolutionPlanID = ""
				p.UpdatedAt = now
				return nil
			})
		}
		if err != nil && !adopterrors.IsPrecondition(err) {
			return fmt.Errorf("failed to release child plan '%s': %w", childID, err)
		}
	}

	s.logger.Info().Str("solution_plan_id", id).Bool("cascade", cascade).Msg("solution adoption plan deleted")
	return nil
}

// UpdateSolutionEntitlements replaces the entitlement of a solution plan and
// of every child plan, flagging all of them for sync.
func (s *Service) UpdateSolutionEntitlements(ctx context.Context, id string, ent domain.Entitlement) (*domain.SolutionAdoptionPlan, error) {
	if err := entitlement.Validate(ent); err != nil {
		return nil, err
	}

	unlock, err := s.locker.Lock(ctx, lock.SolutionKey(id))
	if err != nil {
		return nil, err
	}
	defer unlock()

	sp, err := s.store.GetSolutionPlan(ctx, id)
	if err != nil {
		return nil, err
	}

	for _, childID := range sp.ChildPlanIDs() {
		if _, err := s.UpdateEntitlements(ctx, childID, ent); err != nil && !adopterrors.IsPrecondition(err) {
			return nil, err
		}
	}

	if !sp.Assignment.Entitlement.Equal(ent) {
		sp.Assignment.Entitlement = ent
		sp.NeedsSync = true
		sp.UpdatedAt = s.now()
		if err := s.store.UpdateSolutionPlan(ctx, sp); err != nil {
			return nil, fmt.Errorf("failed to save solution plan '%s': %w", id, err)
		}
	}
	return sp, nil
}

// SyncSolutionPlan reconciles a solution plan with its solution template:
// child plans are created for products new to the solution, relative
// weights are refreshed, every remaining child is synced in parallel under
// its own plan lock, and the totals are recomputed.
func (s *Service) SyncSolutionPlan(ctx context.Context, id string) (*SolutionSyncReport, error) {
	unlock, err := s.locker.Lock(ctx, lock.SolutionKey(id))
	if err != nil {
		return nil, err
	}
	defer unlock()

	sp, err := s.store.GetSolutionPlan(ctx, id)
	if err != nil {
		return nil, err
	}
	solution, err := s.templates.Solution(sp.Assignment.SourceID)
	if err != nil {
		return nil, err
	}

	report := &SolutionSyncReport{SolutionPlanID: sp.ID}
	if err := s.addMissingChildren(ctx, sp, solution, report); err != nil {
		return nil, err
	}
	if len(report.Added) > 0 {
		if err := s.store.UpdateSolutionPlan(ctx, sp); err != nil {
			return nil, fmt.Errorf("failed to save solution plan '%s': %w", sp.ID, err)
		}
	}
	report.WeightsChanged = plan.ApplySolutionWeights(sp, solution)

	inSolution := solution.ProductIDs()
	var toSync []string
	for i := range sp.Children {
		c := &sp.Children[i]
		c.Detached = !slices.Contains(inSolution, c.ProductID)
		switch {
		case slices.Contains(report.Added, c.PlanID):
		case c.Detached:
			report.Detached = append(report.Detached, c.PlanID)
		default:
			toSync = append(toSync, c.PlanID)
		}
	}

	reports := make([]*plan.SyncReport, len(toSync))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.parallel)
	for i, childID := range toSync {
		g.Go(func() error {
			r, _, err := s.syncPlan(gctx, childID)
			if err != nil {
				return fmt.Errorf("failed to sync child plan '%s': %w", childID, err)
			}
			reports[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	report.Children = reports

	children, err := s.loadChildren(ctx, sp)
	if err != nil {
		return nil, err
	}
	now := s.now()
	sp.NeedsSync = false
	sp.LastSyncedAt = now
	plan.RecalculateSolution(sp, children, now)

	if err := s.store.UpdateSolutionPlan(ctx, sp); err != nil {
		return nil, fmt.Errorf("failed to save solution plan '%s': %w", sp.ID, err)
	}
	report.Totals = sp.Totals

	s.logger.Info().
		Str("solution_plan_id", sp.ID).
		Int("children_synced", len(toSync)).
		Int("children_added", len(report.Added)).
		Int("children_detached", len(report.Detached)).
		Float64("progress", sp.Totals.ProgressPercentage).
		Msg("solution adoption plan synced")
	return report, nil
}

// addMissingChildren instantiates a child plan for every solution product
// the solution plan does not cover yet.
func (s *Service) addMissingChildren(ctx context.Context, sp *domain.SolutionAdoptionPlan, solution *domain.Solution, report *SolutionSyncReport) error {
	covered := make(map[string]bool, len(sp.Children))
	for _, c := range sp.Children {
		covered[c.ProductID] = true
	}

	for _, ref := range solution.Products {
		if covered[ref.ProductID] {
			continue
		}
		product, err := s.templates.Product(ref.ProductID)
		if err != nil {
			return fmt.Errorf("failed to load product '%s' of solution '%s': %w", ref.ProductID, solution.ID, err)
		}

		child, err := plan.Instantiate(product, domain.Assignment{
			CustomerID:  sp.Assignment.CustomerID,
			SourceKind:  constants.SourceKindProduct,
			SourceID:    product.ID,
			Entitlement: sp.Assignment.Entitlement,
		}, s.now())
		if err != nil {
			return err
		}
		child.SolutionPlanID = sp.ID

		if err := s.store.CreatePlan(ctx, child); err != nil {
			return fmt.Errorf("failed to store child plan for product '%s': %w", product.ID, err)
		}
		sp.Children = append(sp.Children, domain.SolutionChild{
			ProductID: product.ID,
			PlanID:    child.ID,
			Weight:    ref.Weight,
		})
		report.Added = append(report.Added, child.ID)
	}
	return nil
}

// refreshSolution recomputes a solution plan's totals after one of its
// children changed. Failures are logged; the child change already stands.
func (s *Service) refreshSolution(ctx context.Context, solutionPlanID string) {
	if solutionPlanID == "" {
		return
	}
	if err := s.recalculateSolution(ctx, solutionPlanID); err != nil {
		s.logger.Warn().Err(err).Str("solution_plan_id", solutionPlanID).Msg("failed to refresh solution totals")
	}
}

func (s *Service) recalculateSolution(ctx context.Context, id string) error {
	unlock, err := s.locker.Lock(ctx, lock.SolutionKey(id))
	if err != nil {
		return err
	}
	defer unlock()

	sp, err := s.store.GetSolutionPlan(ctx, id)
	if err != nil {
		return err
	}
	children, err := s.loadChildren(ctx, sp)
	if err != nil {
		return err
	}
	plan.RecalculateSolution(sp, children, s.now())
	return s.store.UpdateSolutionPlan(ctx, sp)
}

// loadChildren reads the child plans of sp. Missing children are skipped.
func (s *Service) loadChildren(ctx context.Context, sp *domain.SolutionAdoptionPlan) ([]*domain.AdoptionPlan, error) {
	children := make([]*domain.AdoptionPlan, 0, len(sp.Children))
	for _, id := range sp.ChildPlanIDs() {
		p, err := s.store.GetPlan(ctx, id)
		if err != nil {
			if adopterrors.IsPrecondition(err) {
				s.logger.Warn().Str("solution_plan_id", sp.ID).Str("plan_id", id).Msg("child plan missing")
				continue
			}
			return nil, err
		}
		children = append(children, p)
	}
	return children, nil
}

// discardPlans removes plans stored by a failed create.
func (s *Service) discardPlans(ctx context.Context, plans []*domain.AdoptionPlan) {
	for _, p := range plans {
		if err := s.store.DeletePlan(ctx, p.ID); err != nil {
			s.logger.Warn().Err(err).Str("plan_id", p.ID).Msg("failed to discard plan")
		}
	}
}
