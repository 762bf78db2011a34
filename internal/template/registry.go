package template

import (
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/mrz1836/adopt/internal/domain"
	adopterrors "github.com/mrz1836/adopt/internal/errors"
)

// Source provides read access to the current product and solution
// templates. Implementations return copies the caller may modify.
type Source interface {
	// Product returns the product with id or ErrTemplateNotFound.
	Product(id string) (*domain.Product, error)

	// Solution returns the solution with id or ErrTemplateNotFound.
	Solution(id string) (*domain.Solution, error)
}

// Changes lists the template ids a Publish added, modified, or removed.
type Changes struct {
	Products  []string `json:"products,omitempty"`
	Solutions []string `json:"solutions,omitempty"`
}

// IsEmpty reports whether nothing changed.
func (c Changes) IsEmpty() bool {
	return len(c.Products) == 0 && len(c.Solutions) == 0
}

// Registry provides thread-safe access to product and solution templates.
// Values are cloned on the way in and out so callers never share state
// with the registry.
type Registry struct {
	mu        sync.RWMutex
	products  map[string]*domain.Product
	solutions map[string]*domain.Solution
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		products:  make(map[string]*domain.Product),
		solutions: make(map[string]*domain.Solution),
	}
}

// NewRegistryFromCatalog validates c and returns a registry holding it.
func NewRegistryFromCatalog(c *Catalog) (*Registry, error) {
	r := NewRegistry()
	if _, err := r.Publish(c); err != nil {
		return nil, err
	}
	return r, nil
}

// Product returns a copy of the product with id.
func (r *Registry) Product(id string) (*domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.products[id]
	if !ok {
		return nil, fmt.Errorf("%w: product %q", adopterrors.ErrTemplateNotFound, id)
	}
	return p.Clone(), nil
}

// Solution returns a copy of the solution with id.
func (r *Registry) Solution(id string) (*domain.Solution, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.solutions[id]
	if !ok {
		return nil, fmt.Errorf("%w: solution %q", adopterrors.ErrTemplateNotFound, id)
	}
	return s.Clone(), nil
}

// Products returns copies of all products sorted by id.
func (r *Registry) Products() []*domain.Product {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*domain.Product, 0, len(r.products))
	for _, p := range r.products {
		result = append(result, p.Clone())
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// Solutions returns copies of all solutions sorted by id.
func (r *Registry) Solutions() []*domain.Solution {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*domain.Solution, 0, len(r.solutions))
	for _, s := range r.solutions {
		result = append(result, s.Clone())
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// RegisterProduct adds or replaces a single product after validating it.
// It reports whether the stored template changed.
func (r *Registry) RegisterProduct(p *domain.Product) (bool, error) {
	if err := ValidateProduct(p); err != nil {
		return false, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored := p.Clone()
	old, exists := r.products[p.ID]
	r.products[p.ID] = stored
	return !exists || !reflect.DeepEqual(old, stored), nil
}

// RegisterSolution adds or replaces a single solution. Every referenced
// product must already be registered.
func (r *Registry) RegisterSolution(s *domain.Solution) (bool, error) {
	if err := ValidateSolution(s); err != nil {
		return false, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, ref := range s.Products {
		if _, ok := r.products[ref.ProductID]; !ok {
			return false, fmt.Errorf("%w: solution %q references unknown product %q",
				adopterrors.ErrTemplateInvalid, s.ID, ref.ProductID)
		}
	}

	stored := s.Clone()
	old, exists := r.solutions[s.ID]
	r.solutions[s.ID] = stored
	return !exists || !reflect.DeepEqual(old, stored), nil
}

// Publish validates c and atomically replaces the registry contents with
// it. The returned Changes lists every template id that was added, edited,
// or removed, which callers use to flag dependent plans for sync.
func (r *Registry) Publish(c *Catalog) (Changes, error) {
	if err := ValidateCatalog(c); err != nil {
		return Changes{}, err
	}

	products := make(map[string]*domain.Product, len(c.Products))
	for i := range c.Products {
		products[c.Products[i].ID] = c.Products[i].Clone()
	}
	solutions := make(map[string]*domain.Solution, len(c.Solutions))
	for i := range c.Solutions {
		solutions[c.Solutions[i].ID] = c.Solutions[i].Clone()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	changes := Changes{
		Products:  diff(r.products, products),
		Solutions: diff(r.solutions, solutions),
	}
	r.products = products
	r.solutions = solutions
	return changes, nil
}

// diff returns the sorted keys that differ between two maps.
func diff[T any](old, updated map[string]T) []string {
	var ids []string
	for id, v := range updated {
		if prev, ok := old[id]; !ok || !reflect.DeepEqual(prev, v) {
			ids = append(ids, id)
		}
	}
	for id := range old {
		if _, ok := updated[id]; !ok {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// Ensure Registry implements Source.
var _ Source = (*Registry)(nil)
