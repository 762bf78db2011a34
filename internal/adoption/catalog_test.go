package adoption

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/adopt/internal/constants"
	"github.com/mrz1836/adopt/internal/domain"
	adopterrors "github.com/mrz1836/adopt/internal/errors"
	"github.com/mrz1836/adopt/internal/lock"
	"github.com/mrz1836/adopt/internal/template"
)

// readOnlySource serves templates but cannot publish.
type readOnlySource struct {
	registry *template.Registry
}

func (r readOnlySource) Product(id string) (*domain.Product, error)   { return r.registry.Product(id) }
func (r readOnlySource) Solution(id string) (*domain.Solution, error) { return r.registry.Solution(id) }

func TestService_TemplateChanged_FlagsOnlyAffectedPlans(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p1, err := f.svc.CreatePlan(ctx, CreatePlanRequest{CustomerID: "cust-1", ProductID: "prod-1", Entitlement: essential()})
	require.NoError(t, err)
	p2, err := f.svc.CreatePlan(ctx, CreatePlanRequest{CustomerID: "cust-2", ProductID: "prod-2", Entitlement: essential()})
	require.NoError(t, err)

	result, err := f.svc.TemplateChanged(ctx, template.Changes{Products: []string{"prod-1"}})
	require.NoError(t, err)
	assert.Equal(t, []string{p1.ID}, result.Plans)

	stored, err := f.svc.GetPlan(ctx, p1.ID)
	require.NoError(t, err)
	assert.True(t, stored.NeedsSync)

	untouched, err := f.svc.GetPlan(ctx, p2.ID)
	require.NoError(t, err)
	assert.False(t, untouched.NeedsSync)

	again, err := f.svc.TemplateChanged(ctx, template.Changes{Products: []string{"prod-1"}})
	require.NoError(t, err)
	assert.Empty(t, again.Plans, "already flagged plans are not reported twice")
}

func TestService_PublishCatalog_ThenSyncPreservesProgress(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, err := f.svc.CreatePlan(ctx, CreatePlanRequest{CustomerID: "cust-1", ProductID: "prod-1", Entitlement: essential()})
	require.NoError(t, err)
	setup := taskByTemplate(p, "tt-setup")
	_, err = f.svc.ChangeTaskStatus(ctx, p.ID, setup.ID, StatusRequest{Status: constants.TaskStatusDone, Note: "kickoff done"})
	require.NoError(t, err)

	catalog := testCatalog()
	catalog.Products[0].Tasks[0].Name = "Initial tenant setup"
	catalog.Products[0].Tasks = append(catalog.Products[0].Tasks, domain.TaskTemplate{
		ID: "tt-review", Name: "Quarterly review", Weight: 40, SequenceNumber: 4, LicenseLevel: constants.LicenseEssential,
	})

	result, err := f.svc.PublishCatalog(ctx, catalog)
	require.NoError(t, err)
	assert.Equal(t, []string{"prod-1"}, result.Changes.Products)
	assert.Equal(t, []string{p.ID}, result.Plans)

	report, err := f.svc.SyncPlan(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, report.Added, 1)
	assert.Equal(t, []string{setup.ID}, report.Updated)

	stored, err := f.svc.GetPlan(ctx, p.ID)
	require.NoError(t, err)
	got := stored.FindTask(setup.ID)
	require.NotNil(t, got)
	assert.Equal(t, "Initial tenant setup", got.Name)
	assert.Equal(t, constants.TaskStatusDone, got.Status)
	require.Len(t, got.StatusNotes, 1)
	assert.InDelta(t, 42.9, stored.Totals.ProgressPercentage, 0.001)

	second, err := f.svc.SyncPlan(ctx, p.ID)
	require.NoError(t, err)
	assert.False(t, second.Changed(), "sync is idempotent")
}

func TestService_PublishCatalog_InvalidCatalog(t *testing.T) {
	f := newFixture(t)

	catalog := testCatalog()
	catalog.Products[0].Tasks[0].Weight = 150
	_, err := f.svc.PublishCatalog(context.Background(), catalog)
	require.ErrorIs(t, err, adopterrors.ErrWeightOutOfRange)

	product, err := f.registry.Product("prod-1")
	require.NoError(t, err)
	assert.InDelta(t, 60.0, product.Tasks[0].Weight, 0.001, "a rejected catalog must not replace the current one")
}

func TestService_PublishCatalog_RequiresPublisher(t *testing.T) {
	f := newFixture(t)
	svc := NewService(f.store, readOnlySource{registry: f.registry}, lock.NewLocalLocker(0))

	_, err := svc.PublishCatalog(context.Background(), testCatalog())
	require.ErrorIs(t, err, adopterrors.ErrInvalidArgument)
}
