// Package entitlement selects the template tasks that apply to a customer
// assignment from its license level and outcome and release selections.
package entitlement

import (
	"fmt"
	"slices"

	"github.com/mrz1836/adopt/internal/domain"
	adopterrors "github.com/mrz1836/adopt/internal/errors"
)

// Validate checks that an entitlement can be used to filter templates.
func Validate(ent domain.Entitlement) error {
	if !ent.LicenseLevel.IsValid() {
		return fmt.Errorf("%w: %q", adopterrors.ErrInvalidLicenseLevel, ent.LicenseLevel)
	}
	return nil
}

// Applies reports whether a single template task is included by ent.
// A template with an empty outcome or release set is unconditional on that axis.
func Applies(tmpl domain.TaskTemplate, ent domain.Entitlement) bool {
	if !ent.LicenseLevel.Satisfies(tmpl.LicenseLevel) {
		return false
	}
	if len(tmpl.OutcomeIDs) > 0 && !ent.Outcomes.Intersects(tmpl.OutcomeIDs) {
		return false
	}
	if len(tmpl.ReleaseIDs) > 0 && !ent.Releases.Intersects(tmpl.ReleaseIDs) {
		return false
	}
	return true
}

// Filter returns the templates included by ent, ordered by sequence number
// ascending. Templates with equal sequence numbers keep their input order.
// The input slice is not modified.
func Filter(templates []domain.TaskTemplate, ent domain.Entitlement) []domain.TaskTemplate {
	out := make([]domain.TaskTemplate, 0, len(templates))
	for _, tmpl := range templates {
		if Applies(tmpl, ent) {
			out = append(out, tmpl)
		}
	}
	slices.SortStableFunc(out, func(a, b domain.TaskTemplate) int {
		return a.SequenceNumber - b.SequenceNumber
	})
	return out
}
