package adoption

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/adopt/internal/constants"
	"github.com/mrz1836/adopt/internal/ctxutil"
	adopterrors "github.com/mrz1836/adopt/internal/errors"
	"github.com/mrz1836/adopt/internal/lock"
	"github.com/mrz1836/adopt/internal/plan"
	"github.com/mrz1836/adopt/internal/testutil"
)

func TestService_WeightedProgressScenario(t *testing.T) {
	backends := map[string]func(t *testing.T) *fixture{
		"file store": newFixture,
		"sqlite store with redis lock": func(t *testing.T) *fixture {
			store, err := plan.OpenSQLite(":memory:")
			require.NoError(t, err)
			mr := miniredis.RunT(t)
			locker, err := lock.NewRedisLocker(context.Background(), lock.RedisOptions{Addr: mr.Addr(), Timeout: 2 * time.Second})
			require.NoError(t, err)
			return newFixtureWith(t, store, locker)
		},
	}

	for name, build := range backends {
		t.Run(name, func(t *testing.T) {
			f := build(t)
			ctx := ctxutil.WithActor(context.Background(), "csm@example.com")

			p, err := f.svc.CreatePlan(ctx, CreatePlanRequest{
				CustomerID:  "cust-1",
				ProductID:   "prod-1",
				Entitlement: essential(),
			})
			require.NoError(t, err)
			require.Len(t, p.Tasks, 2)
			assert.Zero(t, p.Totals.ProgressPercentage)

			setup := taskByTemplate(p, "tt-setup")
			policy := taskByTemplate(p, "tt-policy")

			task, err := f.svc.ChangeTaskStatus(ctx, p.ID, setup.ID, StatusRequest{Status: constants.TaskStatusDone})
			require.NoError(t, err)
			assert.Equal(t, "csm@example.com", task.StatusUpdatedBy)
			assert.Equal(t, constants.SourceManual, task.StatusUpdateSource)

			stored, err := f.svc.GetPlan(ctx, p.ID)
			require.NoError(t, err)
			assert.InDelta(t, 60.0, stored.Totals.ProgressPercentage, 0.001)

			_, err = f.svc.ChangeTaskStatus(ctx, p.ID, policy.ID, StatusRequest{Status: "done", Note: "signed off"})
			require.NoError(t, err)

			stored, err = f.svc.GetPlan(ctx, p.ID)
			require.NoError(t, err)
			assert.InDelta(t, 100.0, stored.Totals.ProgressPercentage, 0.001)
			assert.Equal(t, 2, stored.Totals.CompletedTasks)
			require.Len(t, taskByTemplate(stored, "tt-policy").StatusNotes, 1)
		})
	}
}

func TestService_CreatePlan_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreatePlan(ctx, CreatePlanRequest{CustomerID: "cust-1", ProductID: "missing", Entitlement: essential()})
	require.ErrorIs(t, err, adopterrors.ErrTemplateNotFound)

	_, err = f.svc.CreatePlan(ctx, CreatePlanRequest{ProductID: "prod-1", Entitlement: essential()})
	require.ErrorIs(t, err, adopterrors.ErrEmptyValue)

	bad := essential()
	bad.LicenseLevel = "GOLD"
	_, err = f.svc.CreatePlan(ctx, CreatePlanRequest{CustomerID: "cust-1", ProductID: "prod-1", Entitlement: bad})
	require.ErrorIs(t, err, adopterrors.ErrInvalidLicenseLevel)
}

func TestService_OnePlanPerAssignment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	req := CreatePlanRequest{AssignmentID: "asg-1", CustomerID: "cust-1", ProductID: "prod-1", Entitlement: essential()}
	p, err := f.svc.CreatePlan(ctx, req)
	require.NoError(t, err)

	_, err = f.svc.CreatePlan(ctx, req)
	require.ErrorIs(t, err, adopterrors.ErrPlanExists)

	found, err := f.svc.GetPlanByAssignment(ctx, "asg-1")
	require.NoError(t, err)
	assert.Equal(t, p.ID, found.ID)

	_, err = f.svc.GetPlanByAssignment(ctx, "asg-unknown")
	require.ErrorIs(t, err, adopterrors.ErrAssignmentNotFound)
}

func TestService_ConcurrentCreatesClaimAssignmentOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	const workers = 8
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if i%2 == 0 {
				_, errs[i] = f.svc.CreatePlan(ctx, CreatePlanRequest{
					AssignmentID: "asg-race", CustomerID: "cust-1", ProductID: "prod-1", Entitlement: essential(),
				})
				return
			}
			_, _, errs[i] = f.svc.CreateSolutionPlan(ctx, CreateSolutionPlanRequest{
				AssignmentID: "asg-race", CustomerID: "cust-1", SolutionID: "sol-1", Entitlement: essential(),
			})
		}()
	}
	wg.Wait()

	created := 0
	for _, err := range errs {
		if err == nil {
			created++
			continue
		}
		require.ErrorIs(t, err, adopterrors.ErrPlanExists)
	}
	assert.Equal(t, 1, created)

	plans, err := f.store.ListPlans(ctx, plan.ListFilter{AssignmentID: "asg-race"})
	require.NoError(t, err)
	solutions, err := f.store.ListSolutionPlans(ctx, plan.ListFilter{AssignmentID: "asg-race"})
	require.NoError(t, err)
	assert.Equal(t, 1, len(plans)+len(solutions))
}

func TestService_ListAndDeletePlans(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.svc.CreatePlan(ctx, CreatePlanRequest{CustomerID: "cust-1", ProductID: "prod-1", Entitlement: essential()})
	require.NoError(t, err)
	f.clock.Advance(time.Minute)
	_, err = f.svc.CreatePlan(ctx, CreatePlanRequest{CustomerID: "cust-2", ProductID: "prod-2", Entitlement: essential()})
	require.NoError(t, err)

	all, err := f.svc.ListPlans(ctx, plan.ListFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	mine, err := f.svc.ListPlans(ctx, plan.ListFilter{CustomerID: "cust-1"})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, first.ID, mine[0].ID)

	require.NoError(t, f.svc.DeletePlan(ctx, first.ID))
	_, err = f.svc.GetPlan(ctx, first.ID)
	require.ErrorIs(t, err, adopterrors.ErrPlanNotFound)
	require.ErrorIs(t, f.svc.DeletePlan(ctx, first.ID), adopterrors.ErrPlanNotFound)
}

func TestService_ChangeTaskStatus_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, err := f.svc.CreatePlan(ctx, CreatePlanRequest{CustomerID: "cust-1", ProductID: "prod-1", Entitlement: essential()})
	require.NoError(t, err)
	setup := taskByTemplate(p, "tt-setup")

	_, err = f.svc.ChangeTaskStatus(ctx, "missing", setup.ID, StatusRequest{Status: constants.TaskStatusDone})
	require.ErrorIs(t, err, adopterrors.ErrPlanNotFound)

	_, err = f.svc.ChangeTaskStatus(ctx, p.ID, "missing", StatusRequest{Status: constants.TaskStatusDone})
	require.ErrorIs(t, err, adopterrors.ErrTaskNotFound)

	_, err = f.svc.ChangeTaskStatus(ctx, p.ID, setup.ID, StatusRequest{Status: "FINISHED"})
	require.ErrorIs(t, err, adopterrors.ErrInvalidStatus)

	_, err = f.svc.ChangeTaskStatus(ctx, p.ID, setup.ID, StatusRequest{Status: constants.TaskStatusDone, Source: constants.SourceTelemetry})
	require.ErrorIs(t, err, adopterrors.ErrInvalidSource)

	stored, err := f.svc.GetPlan(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.TaskStatusNotStarted, taskByTemplate(stored, "tt-setup").Status, "failed changes must not be saved")
}

func TestService_ConcurrentWritersOnOnePlan(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, err := f.svc.CreatePlan(ctx, CreatePlanRequest{CustomerID: "cust-1", ProductID: "prod-1", Entitlement: essential()})
	require.NoError(t, err)
	policy := taskByTemplate(p, "tt-policy")

	const writers = 12
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			actorCtx := ctxutil.WithActor(ctx, fmt.Sprintf("user-%d", i))
			status := constants.TaskStatusInProgress
			if i%2 == 0 {
				status = constants.TaskStatusDone
			}
			_, err := f.svc.ChangeTaskStatus(actorCtx, p.ID, policy.ID, StatusRequest{Status: status, Note: "update"})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	stored, err := f.svc.GetPlan(ctx, p.ID)
	require.NoError(t, err)
	task := taskByTemplate(stored, "tt-policy")
	assert.Len(t, task.Transitions, writers, "every serialized write must be kept")
	assert.Len(t, task.StatusNotes, writers)
}

func TestService_ImportTelemetry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, err := f.svc.CreatePlan(ctx, CreatePlanRequest{CustomerID: "cust-1", ProductID: "prod-1", Entitlement: essential()})
	require.NoError(t, err)

	result, err := f.svc.ImportTelemetry(ctx, p.ID, plan.TelemetryBatch{
		ID: "batch-1",
		Rows: []plan.TelemetryRow{
			{TaskRef: "Initial setup", AttributeRef: "Active users", Value: "42"},
			{TaskRef: "Initial setup", AttributeRef: "Unknown", Value: "1"},
			{TaskRef: "Initial setup", AttributeRef: "Active users", Value: ""},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Summary.AttributesUpdated)
	assert.Equal(t, 1, result.Summary.Errors)
	assert.Equal(t, 1, result.Summary.RowsSkipped)
	require.Len(t, result.RowErrors, 1)
	assert.ErrorIs(t, result.RowErrors[0], adopterrors.ErrAttributeNotFound)

	stored, err := f.svc.GetPlan(ctx, p.ID)
	require.NoError(t, err)
	setup := taskByTemplate(stored, "tt-setup")
	assert.Equal(t, constants.TaskStatusDone, setup.Status)
	assert.Equal(t, constants.SourceTelemetry, setup.StatusUpdateSource)
	assert.InDelta(t, 60.0, stored.Totals.ProgressPercentage, 0.001)
}

func TestService_ImportTelemetry_BatchLimit(t *testing.T) {
	f := newFixture(t)
	f.svc = NewService(f.store, f.registry, lock.NewLocalLocker(time.Second),
		WithClock(f.clock),
		WithTelemetryOptions(plan.TelemetryOptions{MaxRows: 1}))
	ctx := context.Background()

	p, err := f.svc.CreatePlan(ctx, CreatePlanRequest{CustomerID: "cust-1", ProductID: "prod-1", Entitlement: essential()})
	require.NoError(t, err)

	_, err = f.svc.ImportTelemetry(ctx, p.ID, plan.TelemetryBatch{Rows: []plan.TelemetryRow{
		{TaskRef: "tt-setup", AttributeRef: "ad-users", Value: "1"},
		{TaskRef: "tt-setup", AttributeRef: "ad-users", Value: "2"},
	}})
	require.ErrorIs(t, err, adopterrors.ErrBatchTooLarge)
}

func TestService_ManualOverrideSurvivesTelemetry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, err := f.svc.CreatePlan(ctx, CreatePlanRequest{CustomerID: "cust-1", ProductID: "prod-1", Entitlement: essential()})
	require.NoError(t, err)
	setup := taskByTemplate(p, "tt-setup")

	_, err = f.svc.ChangeTaskStatus(ctx, p.ID, setup.ID, StatusRequest{Status: constants.TaskStatusNotApplicable})
	require.NoError(t, err)

	_, err = f.svc.ImportTelemetry(ctx, p.ID, plan.TelemetryBatch{Rows: []plan.TelemetryRow{
		{TaskRef: setup.ID, AttributeRef: "ad-users", Value: "500"},
	}})
	require.NoError(t, err)

	stored, err := f.svc.GetPlan(ctx, p.ID)
	require.NoError(t, err)
	got := taskByTemplate(stored, "tt-setup")
	assert.Equal(t, constants.TaskStatusNotApplicable, got.Status)
	assert.Equal(t, constants.SourceManual, got.StatusUpdateSource)
	assert.True(t, got.FindAttribute("ad-users").IsMet)
}

func TestService_UpdateEntitlementsThenSync(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, err := f.svc.CreatePlan(ctx, CreatePlanRequest{CustomerID: "cust-1", ProductID: "prod-1", Entitlement: essential()})
	require.NoError(t, err)
	setup := taskByTemplate(p, "tt-setup")
	_, err = f.svc.ChangeTaskStatus(ctx, p.ID, setup.ID, StatusRequest{Status: constants.TaskStatusDone})
	require.NoError(t, err)

	upgraded := essential()
	upgraded.LicenseLevel = constants.LicenseSignature
	updated, err := f.svc.UpdateEntitlements(ctx, p.ID, upgraded)
	require.NoError(t, err)
	assert.True(t, updated.NeedsSync)
	assert.Len(t, updated.Tasks, 2, "tasks change only on sync")

	f.clock.Advance(time.Hour)
	report, err := f.svc.SyncPlan(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, report.Added, 1)

	stored, err := f.svc.GetPlan(ctx, p.ID)
	require.NoError(t, err)
	assert.False(t, stored.NeedsSync)
	assert.Equal(t, testNow.Add(time.Hour), stored.LastSyncedAt)
	assert.Len(t, stored.Tasks, 3)
	assert.Equal(t, constants.TaskStatusDone, taskByTemplate(stored, "tt-setup").Status, "sync keeps progress")
	assert.InDelta(t, 50.0, stored.Totals.ProgressPercentage, 0.001)
}

func TestService_UpdateEntitlements_SameValueIsNoop(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, err := f.svc.CreatePlan(ctx, CreatePlanRequest{CustomerID: "cust-1", ProductID: "prod-1", Entitlement: essential()})
	require.NoError(t, err)

	updated, err := f.svc.UpdateEntitlements(ctx, p.ID, essential())
	require.NoError(t, err)
	assert.False(t, updated.NeedsSync)

	invalid := essential()
	invalid.LicenseLevel = ""
	_, err = f.svc.UpdateEntitlements(ctx, p.ID, invalid)
	require.ErrorIs(t, err, adopterrors.ErrInvalidLicenseLevel)
}

func TestService_SyncPlan_TemplateRemoved(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, err := f.svc.CreatePlan(ctx, CreatePlanRequest{CustomerID: "cust-1", ProductID: "prod-3", Entitlement: essential()})
	require.NoError(t, err)

	catalog := testCatalog()
	catalog.Products = catalog.Products[:2]
	_, err = f.svc.PublishCatalog(ctx, catalog)
	require.NoError(t, err)

	_, err = f.svc.SyncPlan(ctx, p.ID)
	require.ErrorIs(t, err, adopterrors.ErrTemplateNotFound)
}

func TestService_LockTimeout(t *testing.T) {
	store, err := plan.NewFileStore(t.TempDir())
	require.NoError(t, err)
	locker := lock.NewLocalLocker(50 * time.Millisecond)
	f := newFixtureWith(t, store, locker)
	ctx := context.Background()

	p, err := f.svc.CreatePlan(ctx, CreatePlanRequest{CustomerID: "cust-1", ProductID: "prod-1", Entitlement: essential()})
	require.NoError(t, err)

	unlock, err := locker.Lock(ctx, lock.PlanKey(p.ID))
	require.NoError(t, err)
	defer unlock()

	_, err = f.svc.ChangeTaskStatus(ctx, p.ID, p.Tasks[0].ID, StatusRequest{Status: constants.TaskStatusDone})
	require.ErrorIs(t, err, adopterrors.ErrLockTimeout)
}

func TestService_DefaultsActorToSystem(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, err := f.svc.CreatePlan(ctx, CreatePlanRequest{CustomerID: "cust-1", ProductID: "prod-1", Entitlement: essential()})
	require.NoError(t, err)

	task, err := f.svc.ChangeTaskStatus(ctx, p.ID, p.Tasks[0].ID, StatusRequest{Status: constants.TaskStatusInProgress})
	require.NoError(t, err)
	assert.Equal(t, constants.SystemActor, task.StatusUpdatedBy)
	require.Len(t, task.Transitions, 1)
	assert.Equal(t, constants.TaskStatusNotStarted, task.Transitions[0].FromStatus)
}

func TestService_StoreWriteFailure(t *testing.T) {
	inner, err := plan.NewFileStore(t.TempDir())
	require.NoError(t, err)
	store := testutil.NewFailingStore(inner)
	f := newFixtureWith(t, store, lock.NewLocalLocker(2*time.Second))
	ctx := context.Background()

	p, err := f.svc.CreatePlan(ctx, CreatePlanRequest{CustomerID: "cust-1", ProductID: "prod-1", Entitlement: essential()})
	require.NoError(t, err)
	setup := taskByTemplate(p, "tt-setup")

	store.FailWrites(testutil.ErrMockStoreUnavailable)

	_, err = f.svc.ChangeTaskStatus(ctx, p.ID, setup.ID, StatusRequest{Status: constants.TaskStatusDone})
	require.ErrorIs(t, err, testutil.ErrMockStoreUnavailable)
	assert.Contains(t, err.Error(), "failed to save plan")

	_, err = f.svc.CreatePlan(ctx, CreatePlanRequest{CustomerID: "cust-2", ProductID: "prod-1", Entitlement: essential()})
	require.ErrorIs(t, err, testutil.ErrMockStoreUnavailable)
	assert.Equal(t, 2, store.FailedWrites())

	stored, err := f.svc.GetPlan(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.TaskStatusNotStarted, taskByTemplate(stored, "tt-setup").Status)

	plans, err := f.svc.ListPlans(ctx, plan.ListFilter{})
	require.NoError(t, err)
	assert.Len(t, plans, 1)
}
