package plan

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/adopt/internal/constants"
	"github.com/mrz1836/adopt/internal/domain"
	adopterrors "github.com/mrz1836/adopt/internal/errors"
)

func TestValidateStatus(t *testing.T) {
	tests := []struct {
		in       domain.TaskStatus
		expected domain.TaskStatus
		wantErr  bool
	}{
		{in: "DONE", expected: constants.TaskStatusDone},
		{in: "in-progress", expected: constants.TaskStatusInProgress},
		{in: "COMPLETED", expected: constants.TaskStatusDone},
		{in: "not_applicable", expected: constants.TaskStatusNotApplicable},
		{in: "FINISHED", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(string(tt.in), func(t *testing.T) {
			got, err := ValidateStatus(tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, adopterrors.ErrInvalidStatus)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestTransition_RecordsProvenance(t *testing.T) {
	task := &domain.CustomerTask{Name: "x", Status: constants.TaskStatusNotStarted}

	err := Transition(context.Background(), task, StatusChange{
		Status: constants.TaskStatusInProgress,
		Source: constants.SourceManual,
		Actor:  "alice",
		Note:   "kicked off",
	}, testNow)
	require.NoError(t, err)

	assert.Equal(t, constants.TaskStatusInProgress, task.Status)
	assert.Equal(t, "alice", task.StatusUpdatedBy)
	assert.Equal(t, constants.SourceManual, task.StatusUpdateSource)
	assert.Equal(t, testNow, task.StatusUpdatedAt)

	require.Len(t, task.StatusNotes, 1)
	assert.Equal(t, domain.StatusNote{Text: "kicked off", Author: "alice", Source: constants.SourceManual, Timestamp: testNow}, task.StatusNotes[0])

	require.Len(t, task.Transitions, 1)
	assert.Equal(t, constants.TaskStatusNotStarted, task.Transitions[0].FromStatus)
	assert.Equal(t, constants.TaskStatusInProgress, task.Transitions[0].ToStatus)
}

func TestTransition_Defaults(t *testing.T) {
	task := &domain.CustomerTask{Status: constants.TaskStatusNotStarted}

	require.NoError(t, Transition(context.Background(), task, StatusChange{Status: "done"}, testNow))

	assert.Equal(t, constants.TaskStatusDone, task.Status)
	assert.Equal(t, constants.SourceManual, task.StatusUpdateSource)
	assert.Equal(t, constants.SystemActor, task.StatusUpdatedBy)
	assert.Empty(t, task.StatusNotes, "blank note is not recorded")
	assert.Len(t, task.Transitions, 1)
}

func TestTransition_AnyToAny(t *testing.T) {
	for _, from := range constants.TaskStatuses() {
		for _, to := range constants.TaskStatuses() {
			task := &domain.CustomerTask{Status: from}
			err := Transition(context.Background(), task, StatusChange{Status: to}, testNow)
			require.NoError(t, err, "%s -> %s", from, to)
			assert.Equal(t, to, task.Status)
		}
	}
}

func TestTransition_Errors(t *testing.T) {
	task := &domain.CustomerTask{Status: constants.TaskStatusNotStarted}

	err := Transition(context.Background(), task, StatusChange{Status: "BOGUS"}, testNow)
	require.ErrorIs(t, err, adopterrors.ErrInvalidStatus)

	err = Transition(context.Background(), task, StatusChange{Status: constants.TaskStatusDone, Source: "ROBOT"}, testNow)
	require.ErrorIs(t, err, adopterrors.ErrInvalidSource)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = Transition(ctx, task, StatusChange{Status: constants.TaskStatusDone}, testNow)
	require.ErrorIs(t, err, context.Canceled)

	assert.Equal(t, constants.TaskStatusNotStarted, task.Status)
	assert.Empty(t, task.Transitions)
}

func TestChangeStatus(t *testing.T) {
	p := mustInstantiate(testProduct(), essentialAssignment())
	setup := taskByTemplate(p, "tt-setup")
	later := testNow.Add(time.Hour)

	task, err := ChangeStatus(context.Background(), p, setup.ID, StatusChange{Status: constants.TaskStatusDone, Actor: "bob"}, later)
	require.NoError(t, err)
	assert.Same(t, setup, task)
	assert.InDelta(t, 60.0, p.Totals.ProgressPercentage, 0.001)
	assert.Equal(t, later, p.UpdatedAt)

	_, err = ChangeStatus(context.Background(), p, setup.ID, StatusChange{Status: constants.TaskStatusNotApplicable}, later)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, p.Totals.ProgressPercentage, 0.001)
	assert.Equal(t, 1, p.Totals.TotalTasks)
}

func TestChangeStatus_UnknownTask(t *testing.T) {
	p := mustInstantiate(testProduct(), essentialAssignment())
	before := p.Totals

	_, err := ChangeStatus(context.Background(), p, "missing", StatusChange{Status: constants.TaskStatusDone}, testNow)
	require.ErrorIs(t, err, adopterrors.ErrTaskNotFound)
	assert.Equal(t, before, p.Totals)
}

func TestCanAutoComplete(t *testing.T) {
	metAttr := func() *domain.TelemetryAttribute {
		return &domain.TelemetryAttribute{
			Criteria: &domain.SuccessCriteria{Type: domain.CriteriaStringNotNull},
			IsMet:    true,
		}
	}
	unmetAttr := func() *domain.TelemetryAttribute {
		a := metAttr()
		a.IsMet = false
		return a
	}

	tests := []struct {
		name    string
		task    *domain.CustomerTask
		allowed bool
	}{
		{
			name: "all met from not started",
			task: &domain.CustomerTask{
				Status: constants.TaskStatusNotStarted, StatusUpdateSource: constants.SourceSystem,
				Attributes: []*domain.TelemetryAttribute{metAttr(), metAttr()},
			},
			allowed: true,
		},
		{
			name: "telemetry-set in progress may advance",
			task: &domain.CustomerTask{
				Status: constants.TaskStatusInProgress, StatusUpdateSource: constants.SourceTelemetry,
				Attributes: []*domain.TelemetryAttribute{metAttr()},
			},
			allowed: true,
		},
		{
			name: "manual not started may advance",
			task: &domain.CustomerTask{
				Status: constants.TaskStatusNotStarted, StatusUpdateSource: constants.SourceManual,
				Attributes: []*domain.TelemetryAttribute{metAttr()},
			},
			allowed: true,
		},
		{
			name: "one unmet",
			task: &domain.CustomerTask{
				Status:     constants.TaskStatusNotStarted,
				Attributes: []*domain.TelemetryAttribute{metAttr(), unmetAttr()},
			},
		},
		{
			name: "no criteria",
			task: &domain.CustomerTask{
				Status:     constants.TaskStatusNotStarted,
				Attributes: []*domain.TelemetryAttribute{{IsMet: true}},
			},
		},
		{
			name: "already done",
			task: &domain.CustomerTask{
				Status:     constants.TaskStatusDone,
				Attributes: []*domain.TelemetryAttribute{metAttr()},
			},
		},
		{
			name: "manual no longer using wins",
			task: &domain.CustomerTask{
				Status: constants.TaskStatusNoLongerUsing, StatusUpdateSource: constants.SourceManual,
				Attributes: []*domain.TelemetryAttribute{metAttr()},
			},
		},
		{
			name: "imported in progress wins",
			task: &domain.CustomerTask{
				Status: constants.TaskStatusInProgress, StatusUpdateSource: constants.SourceImport,
				Attributes: []*domain.TelemetryAttribute{metAttr()},
			},
		},
		{
			name: "orphaned",
			task: &domain.CustomerTask{
				Status: constants.TaskStatusNotStarted, Orphaned: true,
				Attributes: []*domain.TelemetryAttribute{metAttr()},
			},
		},
		{
			name: "retired attributes are ignored",
			task: &domain.CustomerTask{
				Status: constants.TaskStatusNotStarted,
				Attributes: []*domain.TelemetryAttribute{
					metAttr(),
					func() *domain.TelemetryAttribute { a := unmetAttr(); a.Retired = true; return a }(),
				},
			},
			allowed: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CanAutoComplete(tt.task)
			assert.Equal(t, tt.allowed, result.Allowed)
			if tt.allowed {
				require.NoError(t, result.Error())
			} else {
				assert.NotEmpty(t, result.Reason)
				require.Error(t, result.Error())
			}
		})
	}
}
