package adoption

import (
	"context"
	"fmt"
	"time"

	"github.com/mrz1836/adopt/internal/domain"
	adopterrors "github.com/mrz1836/adopt/internal/errors"
	"github.com/mrz1836/adopt/internal/lock"
	"github.com/mrz1836/adopt/internal/plan"
	"github.com/mrz1836/adopt/internal/template"
)

// Publisher is a template source whose catalog can be replaced.
// template.Registry implements it.
type Publisher interface {
	template.Source
	Publish(c *template.Catalog) (template.Changes, error)
}

// FlagResult lists the plans a template change marked as needing sync.
type FlagResult struct {
	Changes       template.Changes `json:"changes"`
	Plans         []string         `json:"plans,omitempty"`
	SolutionPlans []string         `json:"solution_plans,omitempty"`
}

// PublishCatalog replaces the service's templates with c and flags every
// plan built from a changed product or solution.
func (s *Service) PublishCatalog(ctx context.Context, c *template.Catalog) (*FlagResult, error) {
	publisher, ok := s.templates.(Publisher)
	if !ok {
		return nil, fmt.Errorf("%w: template source %T cannot publish", adopterrors.ErrInvalidArgument, s.templates)
	}
	changes, err := publisher.Publish(c)
	if err != nil {
		return nil, err
	}
	return s.TemplateChanged(ctx, changes)
}

// TemplateChanged sets NeedsSync on every plan and solution plan built from
// a changed template. Plans are not synced; callers decide when.
func (s *Service) TemplateChanged(ctx context.Context, changes template.Changes) (*FlagResult, error) {
	result := &FlagResult{Changes: changes}

	for _, productID := range changes.Products {
		plans, err := s.store.ListPlans(ctx, plan.ListFilter{SourceID: productID})
		if err != nil {
			return nil, err
		}
		for _, p := range plans {
			flagged, err := s.flagPlan(ctx, p.ID)
			if err != nil {
				return nil, err
			}
			if flagged {
				result.Plans = append(result.Plans, p.ID)
			}
		}
	}

	for _, solutionID := range changes.Solutions {
		sps, err := s.store.ListSolutionPlans(ctx, plan.ListFilter{SourceID: solutionID})
		if err != nil {
			return nil, err
		}
		for _, sp := range sps {
			flagged, err := s.flagSolutionPlan(ctx, sp.ID)
			if err != nil {
				return nil, err
			}
			if flagged {
				result.SolutionPlans = append(result.SolutionPlans, sp.ID)
			}
		}
	}

	s.logger.Info().
		Strs("products", changes.Products).
		Strs("solutions", changes.Solutions).
		Int("plans_flagged", len(result.Plans)).
		Int("solution_plans_flagged", len(result.SolutionPlans)).
		Msg("template change recorded")
	return result, nil
}

// flagPlan sets NeedsSync on one plan. It reports false when the plan was
// already flagged or has been deleted meanwhile.
func (s *Service) flagPlan(ctx context.Context, id string) (bool, error) {
	flagged := false
	_, err := s.mutatePlan(ctx, id, func(p *domain.AdoptionPlan, now time.Time) error {
		if p.NeedsSync {
			return errUnchanged
		}
		p.NeedsSync = true
		p.UpdatedAt = now
		flagged = true
		return nil
	})
	if adopterrors.IsPrecondition(err) {
		return false, nil
	}
	return flagged, err
}

func (s *Service) flagSolutionPlan(ctx context.Context, id string) (bool, error) {
	unlock, err := s.locker.Lock(ctx, lock.SolutionKey(id))
	if err != nil {
		return false, err
	}
	defer unlock()

	sp, err := s.store.GetSolutionPlan(ctx, id)
	if err != nil {
		if adopterrors.IsPrecondition(err) {
			return false, nil
		}
		return false, err
	}
	if sp.NeedsSync {
		return false, nil
	}
	sp.NeedsSync = true
	sp.UpdatedAt = s.now()
	if err := s.store.UpdateSolutionPlan(ctx, sp); err != nil {
		return false, fmt.Errorf("failed to save solution plan '%s': %w", id, err)
	}
	return true, nil
}
