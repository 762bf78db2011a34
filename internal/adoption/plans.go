package adoption

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/mrz1836/adopt/internal/constants"
	"github.com/mrz1836/adopt/internal/ctxutil"
	"github.com/mrz1836/adopt/internal/domain"
	"github.com/mrz1836/adopt/internal/entitlement"
	adopterrors "github.com/mrz1836/adopt/internal/errors"
	"github.com/mrz1836/adopt/internal/lock"
	"github.com/mrz1836/adopt/internal/plan"
)

// CreatePlanRequest assigns a product to a customer.
type CreatePlanRequest struct {
	// AssignmentID is optional; one is generated when empty. At most one
	// plan may exist per assignment.
	AssignmentID string

	CustomerID  string
	ProductID   string
	Entitlement domain.Entitlement
}

// StatusRequest is a manual status change for one task.
type StatusRequest struct {
	Status domain.TaskStatus

	// Source defaults to MANUAL. TELEMETRY is reserved for imports.
	Source domain.UpdateSource

	Note string
}

// CreatePlan instantiates and stores a plan for a product assignment.
func (s *Service) CreatePlan(ctx context.Context, req CreatePlanRequest) (*domain.AdoptionPlan, error) {
	if strings.TrimSpace(req.CustomerID) == "" {
		return nil, fmt.Errorf("%w: customer id", adopterrors.ErrEmptyValue)
	}
	release, err := s.claimAssignment(ctx, req.AssignmentID)
	if err != nil {
		return nil, err
	}
	defer release()

	product, err := s.templates.Product(req.ProductID)
	if err != nil {
		return nil, err
	}

	p, err := plan.Instantiate(product, domain.Assignment{
		ID:          req.AssignmentID,
		CustomerID:  req.CustomerID,
		SourceKind:  constants.SourceKindProduct,
		SourceID:    product.ID,
		Entitlement: req.Entitlement,
	}, s.now())
	if err != nil {
		return nil, err
	}

	if err := s.store.CreatePlan(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to store plan for product '%s': %w", product.ID, err)
	}

	s.logger.Info().
		Str("plan_id", p.ID).
		Str("customer_id", p.Assignment.CustomerID).
		Str("product_id", product.ID).
		Int("tasks", p.Totals.TotalTasks).
		Msg("adoption plan created")
	return p, nil
}

// GetPlan returns the plan with id.
func (s *Service) GetPlan(ctx context.Context, id string) (*domain.AdoptionPlan, error) {
	return s.store.GetPlan(ctx, id)
}

// GetPlanByAssignment returns the plan owned by an assignment.
func (s *Service) GetPlanByAssignment(ctx context.Context, assignmentID string) (*domain.AdoptionPlan, error) {
	plans, err := s.store.ListPlans(ctx, plan.ListFilter{AssignmentID: assignmentID})
	if err != nil {
		return nil, err
	}
	if len(plans) == 0 {
		return nil, fmt.Errorf("%w: %s", adopterrors.ErrAssignmentNotFound, assignmentID)
	}
	return plans[0], nil
}

// ListPlans returns the plans matching filter, newest first.
func (s *Service) ListPlans(ctx context.Context, filter plan.ListFilter) ([]*domain.AdoptionPlan, error) {
	return s.store.ListPlans(ctx, filter)
}

// DeletePlan removes a plan and its assignment.
func (s *Service) DeletePlan(ctx context.Context, id string) error {
	unlock, err := s.locker.Lock(ctx, lock.PlanKey(id))
	if err != nil {
		return err
	}
	defer unlock()

	if err := s.store.DeletePlan(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Str("plan_id", id).Msg("adoption plan deleted")
	return nil
}

// ChangeTaskStatus applies a manual status change. The acting principal is
// taken from ctx (see ctxutil.WithActor).
func (s *Service) ChangeTaskStatus(ctx context.Context, planID, taskID string, req StatusRequest) (*domain.CustomerTask, error) {
	source := req.Source
	if source == "" {
		source = constants.SourceManual
	}
	if source == constants.SourceTelemetry {
		return nil, fmt.Errorf("%w: %s changes come from telemetry imports", adopterrors.ErrInvalidSource, source)
	}

	actor := ctxutil.ActorFromContext(ctx)
	var task *domain.CustomerTask
	var from domain.TaskStatus

	p, err := s.mutatePlan(ctx, planID, func(p *domain.AdoptionPlan, now time.Time) error {
		if existing := p.FindTask(taskID); existing != nil {
			from = existing.Status
		}
		var err error
		task, err = plan.ChangeStatus(ctx, p, taskID, plan.StatusChange{
			Status: req.Status,
			Source: source,
			Actor:  actor,
			Note:   req.Note,
		}, now)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("plan_id", planID).
		Str("task_id", task.ID).
		Str("from", from.String()).
		Str("to", task.Status.String()).
		Str("actor", actor).
		Float64("progress", p.Totals.ProgressPercentage).
		Msg("task status changed")

	s.refreshSolution(ctx, p.SolutionPlanID)
	return task, nil
}

// ImportTelemetry applies a telemetry batch to a plan. Row problems are
// reported in the result; rows already applied stay applied.
func (s *Service) ImportTelemetry(ctx context.Context, planID string, batch plan.TelemetryBatch) (*plan.ImportResult, error) {
	var result *plan.ImportResult

	p, err := s.mutatePlan(ctx, planID, func(p *domain.AdoptionPlan, now time.Time) error {
		var err error
		result, err = plan.ApplyTelemetry(ctx, p, batch, s.telemetry, now)
		return err
	})
	if err != nil {
		return nil, err
	}

	for _, rowErr := range result.RowErrors {
		s.logger.Warn().
			Str("plan_id", planID).
			Str("batch_id", result.BatchID).
			Int("row", rowErr.Row).
			Str("task", rowErr.TaskRef).
			Str("attribute", rowErr.AttributeRef).
			Msg(rowErr.Message)
	}
	s.logger.Info().
		Str("plan_id", planID).
		Str("batch_id", result.BatchID).
		Int("attributes_updated", result.Summary.AttributesUpdated).
		Int("errors", result.Summary.Errors).
		Float64("progress", p.Totals.ProgressPercentage).
		Msg("telemetry imported")

	s.refreshSolution(ctx, p.SolutionPlanID)
	return result, nil
}

// SyncPlan reconciles a plan against its current product template.
func (s *Service) SyncPlan(ctx context.Context, planID string) (*plan.SyncReport, error) {
	report, p, err := s.syncPlan(ctx, planID)
	if err != nil {
		return nil, err
	}
	s.refreshSolution(ctx, p.SolutionPlanID)
	return report, nil
}

// syncPlan is SyncPlan without the solution refresh, for callers that
// already hold the solution lock.
func (s *Service) syncPlan(ctx context.Context, planID string) (*plan.SyncReport, *domain.AdoptionPlan, error) {
	var report *plan.SyncReport

	p, err := s.mutatePlan(ctx, planID, func(p *domain.AdoptionPlan, now time.Time) error {
		product, err := s.templates.Product(p.Assignment.SourceID)
		if err != nil {
			return err
		}
		report, err = plan.Sync(ctx, p, product, now)
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info().
		Str("plan_id", planID).
		Int("added", len(report.Added)).
		Int("updated", len(report.Updated)).
		Int("orphaned", len(report.Orphaned)).
		Int("restored", len(report.Restored)).
		Float64("progress", report.Totals.ProgressPercentage).
		Msg("adoption plan synced")
	return report, p, nil
}

// UpdateEntitlements replaces a plan's entitlement and flags it for sync.
// Tasks are not touched until the next sync.
func (s *Service) UpdateEntitlements(ctx context.Context, planID string, ent domain.Entitlement) (*domain.AdoptionPlan, error) {
	if err := entitlement.Validate(ent); err != nil {
		return nil, err
	}

	p, err := s.mutatePlan(ctx, planID, func(p *domain.AdoptionPlan, now time.Time) error {
		if p.Assignment.Entitlement.Equal(ent) {
			return errUnchanged
		}
		p.Assignment.Entitlement = ent
		p.NeedsSync = true
		p.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("plan_id", planID).
		Str("license_level", ent.LicenseLevel.String()).
		Bool("needs_sync", p.NeedsSync).
		Msg("entitlements updated")
	return p, nil
}

// mutatePlan runs fn on the stored plan under its lock and saves the
// result. fn may return errUnchanged to skip the save.
func (s *Service) mutatePlan(ctx context.Context, planID string, fn func(p *domain.AdoptionPlan, now time.Time) error) (*domain.AdoptionPlan, error) {
	unlock, err := s.locker.Lock(ctx, lock.PlanKey(planID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	p, err := s.store.GetPlan(ctx, planID)
	if err != nil {
		return nil, err
	}

	if err := fn(p, s.now()); err != nil {
		if stderrors.Is(err, errUnchanged) {
			return p, nil
		}
		return nil, err
	}

	if err := s.store.UpdatePlan(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to save plan '%s': %w", planID, err)
	}
	return p, nil
}

// claimAssignment locks assignmentID and rejects it when a plan already
// owns it. The caller holds the returned release until its plan is stored.
// A generated assignment id cannot collide, so an empty id takes no lock.
func (s *Service) claimAssignment(ctx context.Context, assignmentID string) (lock.UnlockFunc, error) {
	if assignmentID == "" {
		return func() {}, nil
	}

	unlock, err := s.locker.Lock(ctx, lock.AssignmentKey(assignmentID))
	if err != nil {
		return nil, err
	}
	if err := s.ensureAssignmentFree(ctx, assignmentID); err != nil {
		unlock()
		return nil, err
	}
	return unlock, nil
}

// ensureAssignmentFree rejects a second plan for the same assignment.
func (s *Service) ensureAssignmentFree(ctx context.Context, assignmentID string) error {
	plans, err := s.store.ListPlans(ctx, plan.ListFilter{AssignmentID: assignmentID})
	if err != nil {
		return err
	}
	if len(plans) > 0 {
		return fmt.Errorf("%w: assignment %s has plan %s", adopterrors.ErrPlanExists, assignmentID, plans[0].ID)
	}
	solutions, err := s.store.ListSolutionPlans(ctx, plan.ListFilter{AssignmentID: assignmentID})
	if err != nil {
		return err
	}
	if len(solutions) > 0 {
		return fmt.Errorf("%w: assignment %s has solution plan %s", adopterrors.ErrPlanExists, assignmentID, solutions[0].ID)
	}
	return nil
}
