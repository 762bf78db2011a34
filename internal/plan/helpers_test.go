package plan

import (
	"time"

	"github.com/mrz1836/adopt/internal/constants"
	"github.com/mrz1836/adopt/internal/domain"
)

//nolint:gochecknoglobals // Fixed test timestamp
var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func ptr[T any](v T) *T {
	return &v
}

// testProduct returns a product with two essential tasks weighted 60/40 and
// one signature task outside the essential entitlement.
func testProduct() *domain.Product {
	return &domain.Product{
		ID:   "prod-1",
		Name: "Secure Access",
		Outcomes: []domain.Outcome{
			{ID: "out-1", Name: "Visibility"},
			{ID: "out-2", Name: "Control"},
		},
		Releases: []domain.Release{
			{ID: "rel-1", Name: "1.0"},
		},
		Tasks: []domain.TaskTemplate{
			{
				ID:             "tt-setup",
				Name:           "Initial setup",
				Weight:         60,
				SequenceNumber: 1,
				LicenseLevel:   constants.LicenseEssential,
				Attributes: []domain.AttributeDefinition{
					{
						ID:       "ad-users",
						Name:     "Active users",
						DataType: constants.DataTypeNumber,
						Criteria: &domain.SuccessCriteria{
							Type:      domain.CriteriaNumberThreshold,
							Operator:  domain.OpGreaterThanOrEqual,
							Threshold: ptr(10.0),
						},
						Required: true,
					},
					{
						ID:       "ad-sso",
						Name:     "SSO enabled",
						DataType: constants.DataTypeBoolean,
						Criteria: &domain.SuccessCriteria{
							Type:          domain.CriteriaBooleanFlag,
							ExpectedValue: ptr(true),
						},
						Order: 1,
					},
				},
			},
			{
				ID:             "tt-policy",
				Name:           "Define policy",
				Weight:         40,
				SequenceNumber: 2,
				LicenseLevel:   constants.LicenseEssential,
				OutcomeIDs:     []string{"out-2"},
				Attributes: []domain.AttributeDefinition{
					{
						ID:       "ad-policy",
						Name:     "Policy name",
						DataType: constants.DataTypeString,
						Criteria: &domain.SuccessCriteria{Type: domain.CriteriaStringNotNull},
					},
				},
			},
			{
				ID:             "tt-advanced",
				Name:           "Advanced analytics",
				Weight:         20,
				SequenceNumber: 3,
				LicenseLevel:   constants.LicenseSignature,
			},
		},
	}
}

func essentialAssignment() domain.Assignment {
	return domain.Assignment{
		CustomerID: "cust-1",
		SourceKind: constants.SourceKindProduct,
		SourceID:   "prod-1",
		Entitlement: domain.Entitlement{
			LicenseLevel: constants.LicenseEssential,
			Outcomes:     domain.All(),
			Releases:     domain.All(),
		},
	}
}

func mustInstantiate(product *domain.Product, a domain.Assignment) *domain.AdoptionPlan {
	p, err := Instantiate(product, a, testNow)
	if err != nil {
		panic(err)
	}
	return p
}

func taskByTemplate(p *domain.AdoptionPlan, templateID string) *domain.CustomerTask {
	for _, t := range p.Tasks {
		if t.TemplateTaskID == templateID {
			return t
		}
	}
	return nil
}
