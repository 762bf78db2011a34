// Package template loads, validates, and serves the product and solution
// templates adoption plans are instantiated from.
package template

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/mrz1836/adopt/internal/constants"
	"github.com/mrz1836/adopt/internal/criteria"
	"github.com/mrz1836/adopt/internal/domain"
	adopterrors "github.com/mrz1836/adopt/internal/errors"
)

// ValidateCatalog validates every product and solution and checks that
// solutions only reference products in the catalog. All problems are
// reported together.
func ValidateCatalog(c *Catalog) error {
	if c == nil {
		return adopterrors.ErrTemplateNil
	}

	var errs []error
	products := make(map[string]bool, len(c.Products))
	for i := range c.Products {
		p := &c.Products[i]
		if products[p.ID] {
			errs = append(errs, fmt.Errorf("%w: product %q", adopterrors.ErrTemplateDuplicate, p.ID))
			continue
		}
		products[p.ID] = true
		if err := ValidateProduct(p); err != nil {
			errs = append(errs, err)
		}
	}

	solutions := make(map[string]bool, len(c.Solutions))
	for i := range c.Solutions {
		s := &c.Solutions[i]
		if solutions[s.ID] {
			errs = append(errs, fmt.Errorf("%w: solution %q", adopterrors.ErrTemplateDuplicate, s.ID))
			continue
		}
		solutions[s.ID] = true
		if err := ValidateSolution(s); err != nil {
			errs = append(errs, err)
			continue
		}
		for _, ref := range s.Products {
			if !products[ref.ProductID] {
				errs = append(errs, fmt.Errorf("%w: solution %q references unknown product %q",
					adopterrors.ErrTemplateInvalid, s.ID, ref.ProductID))
			}
		}
	}
	return errors.Join(errs...)
}

// ValidateProduct validates a product template: ids are present and unique,
// weights are within 0-100, license levels are known, outcome and release
// references resolve, and attribute criteria fit their data type.
func ValidateProduct(p *domain.Product) error {
	if p == nil {
		return adopterrors.ErrTemplateNil
	}
	if strings.TrimSpace(p.ID) == "" {
		return fmt.Errorf("%w: product id is required", adopterrors.ErrTemplateInvalid)
	}

	outcomes := idSet(len(p.Outcomes))
	for _, o := range p.Outcomes {
		outcomes[o.ID] = true
	}
	releases := idSet(len(p.Releases))
	for _, r := range p.Releases {
		releases[r.ID] = true
	}

	seen := idSet(len(p.Tasks))
	for i := range p.Tasks {
		t := &p.Tasks[i]
		if strings.TrimSpace(t.ID) == "" {
			return fmt.Errorf("%w: product %q task %d: id is required", adopterrors.ErrTemplateInvalid, p.ID, i)
		}
		if seen[t.ID] {
			return fmt.Errorf("%w: product %q task %q", adopterrors.ErrTemplateDuplicate, p.ID, t.ID)
		}
		seen[t.ID] = true

		if err := validateTask(t, outcomes, releases); err != nil {
			return fmt.Errorf("product %q task %q: %w", p.ID, t.ID, err)
		}
	}
	return nil
}

func validateTask(t *domain.TaskTemplate, outcomes, releases map[string]bool) error {
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("%w: name is required", adopterrors.ErrTemplateInvalid)
	}
	if err := ValidateWeight(t.Weight); err != nil {
		return err
	}
	if !t.LicenseLevel.IsValid() {
		return fmt.Errorf("%w: %q", adopterrors.ErrInvalidLicenseLevel, t.LicenseLevel)
	}
	for _, id := range t.OutcomeIDs {
		if !outcomes[id] {
			return fmt.Errorf("%w: unknown outcome %q", adopterrors.ErrTemplateInvalid, id)
		}
	}
	for _, id := range t.ReleaseIDs {
		if !releases[id] {
			return fmt.Errorf("%w: unknown release %q", adopterrors.ErrTemplateInvalid, id)
		}
	}

	attrs := idSet(len(t.Attributes))
	for _, a := range t.Attributes {
		if strings.TrimSpace(a.ID) == "" {
			return fmt.Errorf("%w: attribute id is required", adopterrors.ErrTemplateInvalid)
		}
		if attrs[a.ID] {
			return fmt.Errorf("%w: attribute %q", adopterrors.ErrTemplateDuplicate, a.ID)
		}
		attrs[a.ID] = true

		if !a.DataType.IsValid() {
			return fmt.Errorf("attribute %q: %w: %q", a.ID, adopterrors.ErrInvalidDataType, a.DataType)
		}
		if err := criteria.ValidateFor(a.DataType, a.Criteria); err != nil {
			return fmt.Errorf("attribute %q: %w", a.ID, err)
		}
	}
	return nil
}

// ValidateSolution validates a solution template.
func ValidateSolution(s *domain.Solution) error {
	if s == nil {
		return adopterrors.ErrTemplateNil
	}
	if strings.TrimSpace(s.ID) == "" {
		return fmt.Errorf("%w: solution id is required", adopterrors.ErrTemplateInvalid)
	}
	if len(s.Products) == 0 {
		return fmt.Errorf("%w: solution %q has no products", adopterrors.ErrTemplateInvalid, s.ID)
	}

	seen := idSet(len(s.Products))
	for _, ref := range s.Products {
		if seen[ref.ProductID] {
			return fmt.Errorf("%w: solution %q lists product %q twice", adopterrors.ErrTemplateDuplicate, s.ID, ref.ProductID)
		}
		seen[ref.ProductID] = true
		if err := ValidateWeight(ref.Weight); err != nil {
			return fmt.Errorf("solution %q product %q: %w", s.ID, ref.ProductID, err)
		}
	}
	return nil
}

// ValidateWeight checks that w is a finite value within 0-100.
func ValidateWeight(w float64) error {
	if math.IsNaN(w) || w < 0 || w > constants.FullWeight {
		return fmt.Errorf("%w: %v", adopterrors.ErrWeightOutOfRange, w)
	}
	return nil
}

// Warnings returns the non-fatal problems of a catalog: products whose task
// weights, or solutions whose product weights, do not sum to 100. Solutions
// with no weighted products are not flagged.
func Warnings(c *Catalog) []domain.Warning {
	var warnings []domain.Warning
	for i := range c.Products {
		p := &c.Products[i]
		if sum := p.TotalWeight(); !weightSumOK(sum) {
			warnings = append(warnings, domain.Warning{
				Code:      domain.WarningWeightSum,
				Message:   fmt.Sprintf("task weights of product %s sum to %v, not 100", p.ID, sum),
				SubjectID: p.ID,
			})
		}
	}
	for _, s := range c.Solutions {
		var sum float64
		for _, ref := range s.Products {
			sum += ref.Weight
		}
		if sum > 0 && !weightSumOK(sum) {
			warnings = append(warnings, domain.Warning{
				Code:      domain.WarningWeightSum,
				Message:   fmt.Sprintf("product weights of solution %s sum to %v, not 100", s.ID, sum),
				SubjectID: s.ID,
			})
		}
	}
	return warnings
}

func weightSumOK(sum float64) bool {
	return math.Abs(sum-constants.FullWeight) <= constants.WeightTolerance
}

func idSet(n int) map[string]bool {
	return make(map[string]bool, n)
}
