package adoption

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/adopt/internal/constants"
	"github.com/mrz1836/adopt/internal/domain"
	adopterrors "github.com/mrz1836/adopt/internal/errors"
	"github.com/mrz1836/adopt/internal/plan"
)

func createSolution(t *testing.T, f *fixture) (*domain.SolutionAdoptionPlan, []*domain.AdoptionPlan) {
	t.Helper()
	sp, children, err := f.svc.CreateSolutionPlan(context.Background(), CreateSolutionPlanRequest{
		AssignmentID: "asg-sol",
		CustomerID:   "cust-1",
		SolutionID:   "sol-1",
		Entitlement:  essential(),
	})
	require.NoError(t, err)
	return sp, children
}

func childFor(children []*domain.AdoptionPlan, productID string) *domain.AdoptionPlan {
	for _, c := range children {
		if c.Assignment.SourceID == productID {
			return c
		}
	}
	return nil
}

func completeAll(t *testing.T, f *fixture, p *domain.AdoptionPlan) {
	t.Helper()
	for _, task := range p.Tasks {
		_, err := f.svc.ChangeTaskStatus(context.Background(), p.ID, task.ID, StatusRequest{Status: constants.TaskStatusDone})
		require.NoError(t, err)
	}
}

func TestService_CreateSolutionPlan(t *testing.T) {
	f := newFixture(t)
	sp, children := createSolution(t, f)

	require.Len(t, children, 2)
	require.Len(t, sp.Children, 2)
	assert.Equal(t, constants.SourceKindSolution, sp.Assignment.SourceKind)
	for _, c := range children {
		assert.Equal(t, sp.ID, c.SolutionPlanID)
		assert.Equal(t, "cust-1", c.Assignment.CustomerID)
		assert.True(t, c.Assignment.Entitlement.Equal(essential()))
	}

	stored, storedChildren, err := f.svc.GetSolutionPlan(context.Background(), sp.ID)
	require.NoError(t, err)
	assert.Equal(t, sp.ChildPlanIDs(), stored.ChildPlanIDs())
	require.Len(t, storedChildren, 2)
	assert.Equal(t, sp.Children[0].PlanID, storedChildren[0].ID)
}

func TestService_CreateSolutionPlan_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, _, err := f.svc.CreateSolutionPlan(ctx, CreateSolutionPlanRequest{CustomerID: "cust-1", SolutionID: "missing", Entitlement: essential()})
	require.ErrorIs(t, err, adopterrors.ErrTemplateNotFound)

	_, _, err = f.svc.CreateSolutionPlan(ctx, CreateSolutionPlanRequest{SolutionID: "sol-1", Entitlement: essential()})
	require.ErrorIs(t, err, adopterrors.ErrEmptyValue)

	createSolution(t, f)
	_, err = f.svc.CreatePlan(ctx, CreatePlanRequest{AssignmentID: "asg-sol", CustomerID: "cust-1", ProductID: "prod-1", Entitlement: essential()})
	require.ErrorIs(t, err, adopterrors.ErrPlanExists, "an assignment owns one plan")
}

func TestService_SolutionTotalsFollowChildChanges(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sp, children := createSolution(t, f)

	completeAll(t, f, childFor(children, "prod-1"))

	stored, _, err := f.svc.GetSolutionPlan(ctx, sp.ID)
	require.NoError(t, err)
	assert.InDelta(t, 75.0, stored.Totals.ProgressPercentage, 0.001)
	assert.Equal(t, 3, stored.Totals.TotalTasks)
	assert.Equal(t, 2, stored.Totals.CompletedTasks)
}

func TestService_SyncSolutionPlan_AddsProductsAndReweights(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sp, children := createSolution(t, f)
	completeAll(t, f, childFor(children, "prod-1"))

	catalog := testCatalog()
	catalog.Solutions[0].Products = []domain.SolutionProduct{
		{ProductID: "prod-1", Weight: 50},
		{ProductID: "prod-2", Weight: 25},
		{ProductID: "prod-3", Weight: 25},
	}
	flagged, err := f.svc.PublishCatalog(ctx, catalog)
	require.NoError(t, err)
	assert.Equal(t, []string{"sol-1"}, flagged.Changes.Solutions)
	assert.Equal(t, []string{sp.ID}, flagged.SolutionPlans)

	f.clock.Advance(time.Hour)
	report, err := f.svc.SyncSolutionPlan(ctx, sp.ID)
	require.NoError(t, err)
	require.Len(t, report.Added, 1)
	assert.True(t, report.WeightsChanged)
	assert.Len(t, report.Children, 2)
	assert.Empty(t, report.Detached)
	assert.InDelta(t, 50.0, report.Totals.ProgressPercentage, 0.001)

	stored, storedChildren, err := f.svc.GetSolutionPlan(ctx, sp.ID)
	require.NoError(t, err)
	assert.False(t, stored.NeedsSync)
	assert.Equal(t, testNow.Add(time.Hour), stored.LastSyncedAt)
	require.Len(t, storedChildren, 3)

	added := childFor(storedChildren, "prod-3")
	require.NotNil(t, added)
	assert.Equal(t, sp.ID, added.SolutionPlanID)
	assert.Equal(t, report.Added[0], added.ID)
}

func TestService_SyncSolutionPlan_KeepsRemovedProducts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sp, children := createSolution(t, f)
	completeAll(t, f, childFor(children, "prod-1"))

	catalog := testCatalog()
	catalog.Solutions[0].Products = []domain.SolutionProduct{{ProductID: "prod-1", Weight: 100}}
	_, err := f.svc.PublishCatalog(ctx, catalog)
	require.NoError(t, err)

	report, err := f.svc.SyncSolutionPlan(ctx, sp.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{childFor(children, "prod-2").ID}, report.Detached)
	assert.Len(t, report.Children, 1)
	// prod-1 at 100% weighted 100, detached prod-2 at 0% keeps weight 25.
	assert.InDelta(t, 80.0, report.Totals.ProgressPercentage, 0.001)
}

func TestService_SyncSolutionPlan_DetachedChildDoesNotFlagSolution(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sp, children := createSolution(t, f)
	detached := childFor(children, "prod-2")

	catalog := testCatalog()
	catalog.Solutions[0].Products = []domain.SolutionProduct{{ProductID: "prod-1", Weight: 100}}
	_, err := f.svc.PublishCatalog(ctx, catalog)
	require.NoError(t, err)
	_, err = f.svc.SyncSolutionPlan(ctx, sp.ID)
	require.NoError(t, err)

	stored, _, err := f.svc.GetSolutionPlan(ctx, sp.ID)
	require.NoError(t, err)
	require.Len(t, stored.Children, 2)
	for _, c := range stored.Children {
		assert.Equal(t, c.ProductID == "prod-2", c.Detached, c.ProductID)
	}

	// Editing the removed product flags its plan, which sync no longer reaches.
	catalog.Products[1].Tasks[0].Name = "Classify all data"
	flagged, err := f.svc.PublishCatalog(ctx, catalog)
	require.NoError(t, err)
	assert.Equal(t, []string{detached.ID}, flagged.Plans)

	_, err = f.svc.SyncSolutionPlan(ctx, sp.ID)
	require.NoError(t, err)

	stored, _, err = f.svc.GetSolutionPlan(ctx, sp.ID)
	require.NoError(t, err)
	assert.False(t, stored.NeedsSync)

	child, err := f.svc.GetPlan(ctx, detached.ID)
	require.NoError(t, err)
	assert.True(t, child.NeedsSync)
}

func TestService_SyncSolutionPlan_SyncsChildren(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sp, children := createSolution(t, f)
	child := childFor(children, "prod-1")

	catalog := testCatalog()
	catalog.Products[0].Tasks[1].Name = "Define access policy"
	flagged, err := f.svc.PublishCatalog(ctx, catalog)
	require.NoError(t, err)
	assert.Equal(t, []string{"prod-1"}, flagged.Changes.Products)
	assert.Equal(t, []string{child.ID}, flagged.Plans)

	report, err := f.svc.SyncSolutionPlan(ctx, sp.ID)
	require.NoError(t, err)

	updated := 0
	for _, r := range report.Children {
		updated += len(r.Updated)
	}
	assert.Equal(t, 1, updated)

	stored, err := f.svc.GetPlan(ctx, child.ID)
	require.NoError(t, err)
	assert.False(t, stored.NeedsSync)
	assert.Equal(t, "Define access policy", taskByTemplate(stored, "tt-policy").Name)
}

func TestService_SyncSolutionPlan_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.SyncSolutionPlan(ctx, "missing")
	require.ErrorIs(t, err, adopterrors.ErrSolutionPlanNotFound)

	sp, _ := createSolution(t, f)
	catalog := testCatalog()
	catalog.Solutions = nil
	_, err = f.svc.PublishCatalog(ctx, catalog)
	require.NoError(t, err)

	_, err = f.svc.SyncSolutionPlan(ctx, sp.ID)
	require.ErrorIs(t, err, adopterrors.ErrTemplateNotFound)
}

func TestService_UpdateSolutionEntitlements(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sp, children := createSolution(t, f)

	signature := essential()
	signature.LicenseLevel = constants.LicenseSignature
	updated, err := f.svc.UpdateSolutionEntitlements(ctx, sp.ID, signature)
	require.NoError(t, err)
	assert.True(t, updated.NeedsSync)

	for _, c := range children {
		stored, err := f.svc.GetPlan(ctx, c.ID)
		require.NoError(t, err)
		assert.True(t, stored.NeedsSync)
		assert.Equal(t, constants.LicenseSignature, stored.Assignment.LicenseLevel)
	}

	_, err = f.svc.SyncSolutionPlan(ctx, sp.ID)
	require.NoError(t, err)

	prod1, err := f.svc.GetPlan(ctx, childFor(children, "prod-1").ID)
	require.NoError(t, err)
	assert.Len(t, prod1.Tasks, 3)
	assert.False(t, prod1.NeedsSync)
}

func TestService_DeleteSolutionPlan(t *testing.T) {
	ctx := context.Background()

	t.Run("detaches children", func(t *testing.T) {
		f := newFixture(t)
		sp, children := createSolution(t, f)

		require.NoError(t, f.svc.DeleteSolutionPlan(ctx, sp.ID, false))
		_, _, err := f.svc.GetSolutionPlan(ctx, sp.ID)
		require.ErrorIs(t, err, adopterrors.ErrSolutionPlanNotFound)

		for _, c := range children {
			stored, err := f.svc.GetPlan(ctx, c.ID)
			require.NoError(t, err)
			assert.Empty(t, stored.SolutionPlanID)
		}
	})

	t.Run("cascades", func(t *testing.T) {
		f := newFixture(t)
		sp, children := createSolution(t, f)

		require.NoError(t, f.svc.DeleteSolutionPlan(ctx, sp.ID, true))
		for _, c := range children {
			_, err := f.svc.GetPlan(ctx, c.ID)
			require.ErrorIs(t, err, adopterrors.ErrPlanNotFound)
		}
	})
}

func TestService_ListSolutionPlans(t *testing.T) {
	f := newFixture(t)
	sp, _ := createSolution(t, f)

	plans, err := f.svc.ListSolutionPlans(context.Background(), plan.ListFilter{SourceID: "sol-1"})
	require.NoError(t, err)
	require.Len(t, plans, 1)
	assert.Equal(t, sp.ID, plans[0].ID)
}
