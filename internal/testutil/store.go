package testutil

import (
	"context"
	"sync"

	"github.com/mrz1836/adopt/internal/domain"
	"github.com/mrz1836/adopt/internal/plan"
)

// FailingStore wraps a plan.Store and fails writes once armed. Reads always
// pass through so callers can check that nothing was persisted.
type FailingStore struct {
	plan.Store

	mu    sync.Mutex
	err   error
	calls int
}

// NewFailingStore wraps store. Writes succeed until FailWrites is called.
func NewFailingStore(store plan.Store) *FailingStore {
	return &FailingStore{Store: store}
}

// FailWrites makes every later write return err. A nil err disarms the store.
func (s *FailingStore) FailWrites(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// FailedWrites returns how many writes were rejected.
func (s *FailingStore) FailedWrites() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func (s *FailingStore) check() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		s.calls++
	}
	return s.err
}

// CreatePlan implements plan.Store.
func (s *FailingStore) CreatePlan(ctx context.Context, p *domain.AdoptionPlan) error {
	if err := s.check(); err != nil {
		return err
	}
	return s.Store.CreatePlan(ctx, p)
}

// UpdatePlan implements plan.Store.
func (s *FailingStore) UpdatePlan(ctx context.Context, p *domain.AdoptionPlan) error {
	if err := s.check(); err != nil {
		return err
	}
	return s.Store.UpdatePlan(ctx, p)
}

// DeletePlan implements plan.Store.
func (s *FailingStore) DeletePlan(ctx context.Context, id string) error {
	if err := s.check(); err != nil {
		return err
	}
	return s.Store.DeletePlan(ctx, id)
}

// CreateSolutionPlan implements plan.Store.
func (s *FailingStore) CreateSolutionPlan(ctx context.Context, sp *domain.SolutionAdoptionPlan) error {
	if err := s.check(); err != nil {
		return err
	}
	return s.Store.CreateSolutionPlan(ctx, sp)
}

// UpdateSolutionPlan implements plan.Store.
func (s *FailingStore) UpdateSolutionPlan(ctx context.Context, sp *domain.SolutionAdoptionPlan) error {
	if err := s.check(); err != nil {
		return err
	}
	return s.Store.UpdateSolutionPlan(ctx, sp)
}

// DeleteSolutionPlan implements plan.Store.
func (s *FailingStore) DeleteSolutionPlan(ctx context.Context, id string) error {
	if err := s.check(); err != nil {
		return err
	}
	return s.Store.DeleteSolutionPlan(ctx, id)
}
