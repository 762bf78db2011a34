package template

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/adopt/internal/domain"
	adopterrors "github.com/mrz1836/adopt/internal/errors"
)

func TestRegistry_GetReturnsCopies(t *testing.T) {
	r := NewRegistry()
	changed, err := r.RegisterProduct(validProduct())
	require.NoError(t, err)
	assert.True(t, changed)

	p, err := r.Product("p")
	require.NoError(t, err)
	p.Tasks[0].Name = "mutated"

	again, err := r.Product("p")
	require.NoError(t, err)
	assert.Equal(t, "One", again.Tasks[0].Name)
}

func TestRegistry_NotFound(t *testing.T) {
	r := NewRegistry()

	_, err := r.Product("nope")
	require.ErrorIs(t, err, adopterrors.ErrTemplateNotFound)

	_, err = r.Solution("nope")
	require.ErrorIs(t, err, adopterrors.ErrTemplateNotFound)
}

func TestRegistry_RegisterProductReportsChanges(t *testing.T) {
	r := NewRegistry()
	_, err := r.RegisterProduct(validProduct())
	require.NoError(t, err)

	changed, err := r.RegisterProduct(validProduct())
	require.NoError(t, err)
	assert.False(t, changed)

	edited := validProduct()
	edited.Tasks[0].Name = "Renamed"
	changed, err = r.RegisterProduct(edited)
	require.NoError(t, err)
	assert.True(t, changed)

	invalid := validProduct()
	invalid.Tasks[0].Weight = -5
	_, err = r.RegisterProduct(invalid)
	require.ErrorIs(t, err, adopterrors.ErrWeightOutOfRange)
}

func TestRegistry_RegisterSolutionRequiresProducts(t *testing.T) {
	r := NewRegistry()
	s := &domain.Solution{ID: "s", Products: []domain.SolutionProduct{{ProductID: "p", Weight: 100}}}

	_, err := r.RegisterSolution(s)
	require.ErrorIs(t, err, adopterrors.ErrTemplateInvalid)

	_, err = r.RegisterProduct(validProduct())
	require.NoError(t, err)
	changed, err := r.RegisterSolution(s)
	require.NoError(t, err)
	assert.True(t, changed)

	got, err := r.Solution("s")
	require.NoError(t, err)
	assert.Equal(t, []string{"p"}, got.ProductIDs())
}

func TestRegistry_Publish(t *testing.T) {
	catalog, err := Parse([]byte(validYAMLCatalog), "yaml")
	require.NoError(t, err)

	r, err := NewRegistryFromCatalog(catalog)
	require.NoError(t, err)
	assert.Len(t, r.Products(), 2)
	assert.Len(t, r.Solutions(), 1)

	// Republishing the same catalog changes nothing.
	changes, err := r.Publish(catalog)
	require.NoError(t, err)
	assert.True(t, changes.IsEmpty())

	// Edit one product, drop the solution.
	edited, err := Parse([]byte(validYAMLCatalog), "yaml")
	require.NoError(t, err)
	edited.Products[1].Tasks[0].Name = "Second scan"
	edited.Solutions = nil

	changes, err = r.Publish(edited)
	require.NoError(t, err)
	assert.Equal(t, []string{"data-guard"}, changes.Products)
	assert.Equal(t, []string{"zero-trust"}, changes.Solutions)

	_, err = r.Solution("zero-trust")
	require.ErrorIs(t, err, adopterrors.ErrTemplateNotFound)
}

func TestRegistry_PublishInvalidKeepsContents(t *testing.T) {
	catalog, err := Parse([]byte(validYAMLCatalog), "yaml")
	require.NoError(t, err)
	r, err := NewRegistryFromCatalog(catalog)
	require.NoError(t, err)

	catalog.Products[0].Tasks[0].Weight = 1000
	_, err = r.Publish(catalog)
	require.Error(t, err)

	p, err := r.Product("secure-access")
	require.NoError(t, err)
	assert.InDelta(t, 60.0, p.Tasks[0].Weight, 0.001)
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	r := NewRegistry()
	_, err := r.RegisterProduct(validProduct())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if i%2 == 0 {
				_, _ = r.RegisterProduct(validProduct())
				return
			}
			_, err := r.Product("p")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
}
