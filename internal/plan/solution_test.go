package plan

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/adopt/internal/constants"
	"github.com/mrz1836/adopt/internal/domain"
	adopterrors "github.com/mrz1836/adopt/internal/errors"
)

func testSolution() (*domain.Solution, map[string]*domain.Product) {
	second := testProduct()
	second.ID = "prod-2"
	second.Name = "Data Guard"

	products := map[string]*domain.Product{
		"prod-1": testProduct(),
		"prod-2": second,
	}
	solution := &domain.Solution{
		ID:   "sol-1",
		Name: "Zero Trust",
		Products: []domain.SolutionProduct{
			{ProductID: "prod-1", Weight: 75},
			{ProductID: "prod-2", Weight: 25},
		},
	}
	return solution, products
}

func TestAggregate(t *testing.T) {
	tests := []struct {
		name     string
		children []ChildProgress
		expected float64
	}{
		{name: "empty", expected: 0},
		{
			name: "weighted",
			children: []ChildProgress{
				{Weight: 75, Totals: domain.Totals{ProgressPercentage: 100}},
				{Weight: 25, Totals: domain.Totals{ProgressPercentage: 0}},
			},
			expected: 75,
		},
		{
			name: "weights need not sum to 100",
			children: []ChildProgress{
				{Weight: 1, Totals: domain.Totals{ProgressPercentage: 50}},
				{Weight: 1, Totals: domain.Totals{ProgressPercentage: 100}},
			},
			expected: 75,
		},
		{
			name: "unweighted falls back to plain mean",
			children: []ChildProgress{
				{Totals: domain.Totals{ProgressPercentage: 10}},
				{Totals: domain.Totals{ProgressPercentage: 20}},
			},
			expected: 15,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, Aggregate(tt.children).ProgressPercentage, 0.001)
		})
	}
}

func TestAggregate_SumsCounts(t *testing.T) {
	totals := Aggregate([]ChildProgress{
		{Weight: 50, Totals: domain.Totals{TotalTasks: 2, CompletedTasks: 1, TotalWeight: 100, CompletedWeight: 60}},
		{Weight: 50, Totals: domain.Totals{TotalTasks: 3, CompletedTasks: 0, TotalWeight: 90}},
	})
	assert.Equal(t, 5, totals.TotalTasks)
	assert.Equal(t, 1, totals.CompletedTasks)
	assert.InDelta(t, 190.0, totals.TotalWeight, 0.001)
	assert.InDelta(t, 60.0, totals.CompletedWeight, 0.001)
}

func TestInstantiateSolution(t *testing.T) {
	solution, products := testSolution()
	a := essentialAssignment()
	a.SourceID = "sol-1"

	sp, children, err := InstantiateSolution(solution, a, products, testNow)
	require.NoError(t, err)

	assert.Equal(t, constants.SourceKindSolution, sp.Assignment.SourceKind)
	require.Len(t, sp.Children, 2)
	require.Len(t, children, 2)
	assert.Equal(t, sp.ChildPlanIDs(), []string{children[0].ID, children[1].ID})

	for i, child := range children {
		assert.Equal(t, sp.ID, child.SolutionPlanID)
		assert.Equal(t, constants.SourceKindProduct, child.Assignment.SourceKind)
		assert.Equal(t, solution.Products[i].ProductID, child.Assignment.SourceID)
		assert.Equal(t, "cust-1", child.Assignment.CustomerID)
		assert.True(t, child.Assignment.Entitlement.Equal(a.Entitlement))
		assert.NotEqual(t, sp.Assignment.ID, child.Assignment.ID)
	}
	assert.Equal(t, 4, sp.Totals.TotalTasks)
	assert.InDelta(t, 0.0, sp.Totals.ProgressPercentage, 0.001)
}

func TestInstantiateSolution_MissingProduct(t *testing.T) {
	solution, products := testSolution()
	delete(products, "prod-2")

	_, _, err := InstantiateSolution(solution, essentialAssignment(), products, testNow)
	require.ErrorIs(t, err, adopterrors.ErrTemplateNotFound)

	_, _, err = InstantiateSolution(nil, essentialAssignment(), products, testNow)
	require.ErrorIs(t, err, adopterrors.ErrTemplateNotFound)
}

func TestRecalculateSolution(t *testing.T) {
	solution, products := testSolution()
	sp, children, err := InstantiateSolution(solution, essentialAssignment(), products, testNow)
	require.NoError(t, err)

	// Finish every task of the first product.
	for _, task := range children[0].Tasks {
		_, err := ChangeStatus(context.Background(), children[0], task.ID, StatusChange{Status: constants.TaskStatusDone}, testNow)
		require.NoError(t, err)
	}

	RecalculateSolution(sp, children, testNow)
	assert.InDelta(t, 75.0, sp.Totals.ProgressPercentage, 0.001)
	assert.False(t, sp.NeedsSync)

	children[1].NeedsSync = true
	RecalculateSolution(sp, children, testNow)
	assert.True(t, sp.NeedsSync)
}

func TestRecalculateSolution_DetachedChildIgnoredForNeedsSync(t *testing.T) {
	solution, products := testSolution()
	sp, children, err := InstantiateSolution(solution, essentialAssignment(), products, testNow)
	require.NoError(t, err)

	sp.Children[1].Detached = true
	children[1].NeedsSync = true
	RecalculateSolution(sp, children, testNow)
	assert.False(t, sp.NeedsSync)
	assert.Len(t, sp.Children, 2)
	assert.Equal(t, children[0].Totals.TotalTasks+children[1].Totals.TotalTasks, sp.Totals.TotalTasks, "detached children still count toward progress")

	children[0].NeedsSync = true
	RecalculateSolution(sp, children, testNow)
	assert.True(t, sp.NeedsSync)
}

func TestApplySolutionWeights(t *testing.T) {
	solution, products := testSolution()
	sp, _, err := InstantiateSolution(solution, essentialAssignment(), products, testNow)
	require.NoError(t, err)

	assert.False(t, ApplySolutionWeights(sp, solution))

	solution.Products[0].Weight = 50
	solution.Products[1].Weight = 50
	assert.True(t, ApplySolutionWeights(sp, solution))
	assert.InDelta(t, 50.0, sp.Children[0].Weight, 0.001)
}
