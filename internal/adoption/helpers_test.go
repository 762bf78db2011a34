package adoption

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mrz1836/adopt/internal/clock"
	"github.com/mrz1836/adopt/internal/constants"
	"github.com/mrz1836/adopt/internal/domain"
	"github.com/mrz1836/adopt/internal/lock"
	"github.com/mrz1836/adopt/internal/plan"
	"github.com/mrz1836/adopt/internal/template"
)

//nolint:gochecknoglobals // Fixed test timestamp
var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func ptr[T any](v T) *T {
	return &v
}

// secureAccess has two essential tasks weighted 60/40 and one signature task.
func secureAccess() domain.Product {
	return domain.Product{
		ID:   "prod-1",
		Name: "Secure Access",
		Outcomes: []domain.Outcome{
			{ID: "out-1", Name: "Visibility"},
			{ID: "out-2", Name: "Control"},
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

func dataGuard() domain.Product {
	return domain.Product{
		ID:   "prod-2",
		Name: "Data Guard",
		Tasks: []domain.TaskTemplate{
			{ID: "tt-classify", Name: "Classify data", Weight: 100, SequenceNumber: 1, LicenseLevel: constants.LicenseEssential},
		},
	}
}

func auditTrail() domain.Product {
	return domain.Product{
		ID:   "prod-3",
		Name: "Audit Trail",
		Tasks: []domain.TaskTemplate{
			{ID: "tt-retention", Name: "Set retention", Weight: 100, SequenceNumber: 1, LicenseLevel: constants.LicenseEssential},
		},
	}
}

func testCatalog() *template.Catalog {
	return &template.Catalog{
		Products: []domain.Product{secureAccess(), dataGuard(), auditTrail()},
		Solutions: []domain.Solution{
			{
				ID:   "sol-1",
				Name: "Zero Trust",
				Products: []domain.SolutionProduct{
					{ProductID: "prod-1", Weight: 75},
					{ProductID: "prod-2", Weight: 25},
				},
			},
		},
	}
}

func essential() domain.Entitlement {
	return domain.Entitlement{
		LicenseLevel: constants.LicenseEssential,
		Outcomes:     domain.All(),
		Releases:     domain.All(),
	}
}

type fixture struct {
	svc      *Service
	store    plan.Store
	registry *template.Registry
	clock    *clock.ManualClock
}

// newFixture builds a service over a file store and a local locker.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	store, err := plan.NewFileStore(t.TempDir())
	require.NoError(t, err)
	return newFixtureWith(t, store, lock.NewLocalLocker(2*time.Second))
}

func newFixtureWith(t *testing.T, store plan.Store, locker lock.Locker) *fixture {
	t.Helper()
	t.Cleanup(func() {
		_ = locker.Close()
		_ = store.Close()
	})

	registry, err := template.NewRegistryFromCatalog(testCatalog())
	require.NoError(t, err)

	clk := clock.NewManual(testNow)
	return &fixture{
		svc:      NewService(store, registry, locker, WithClock(clk)),
		store:    store,
		registry: registry,
		clock:    clk,
	}
}

func taskByTemplate(p *domain.AdoptionPlan, templateID string) *domain.CustomerTask {
	for _, t := range p.Tasks {
		if t.TemplateTaskID == templateID {
			return t
		}
	}
	return nil
}
