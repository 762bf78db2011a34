package plan

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"time"

	"github.com/mrz1836/adopt/internal/constants"
	"github.com/mrz1836/adopt/internal/domain"
	adopterrors "github.com/mrz1836/adopt/internal/errors"
	"github.com/mrz1836/adopt/internal/flock"
)

// Directory and file permission constants.
const (
	dirPerm  = 0o750
	filePerm = 0o600
)

// validIDRegex matches ids that are safe to use as directory names.
var validIDRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,127}$`)

// ListFilter narrows List results. Zero-value fields match everything.
type ListFilter struct {
	CustomerID   string
	SourceID     string
	AssignmentID string
}

// Matches reports whether a plan with the given assignment passes the filter.
func (f ListFilter) Matches(a domain.Assignment) bool {
	return (f.CustomerID == "" || a.CustomerID == f.CustomerID) &&
		(f.SourceID == "" || a.SourceID == f.SourceID) &&
		(f.AssignmentID == "" || a.ID == f.AssignmentID)
}

// Store defines the persistence boundary for adoption plans. Each method is
// an atomic read or write of one aggregate; callers serialize
// read-modify-write cycles per plan with a lock.Locker.
type Store interface {
	// CreatePlan persists a new plan. Returns ErrPlanExists if the id is taken.
	CreatePlan(ctx context.Context, p *domain.AdoptionPlan) error

	// GetPlan returns the plan with id. Returns ErrPlanNotFound if missing.
	GetPlan(ctx context.Context, id string) (*domain.AdoptionPlan, error)

	// UpdatePlan replaces a stored plan. Returns ErrPlanNotFound if missing.
	UpdatePlan(ctx context.Context, p *domain.AdoptionPlan) error

	// ListPlans returns matching plans, newest first.
	ListPlans(ctx context.Context, filter ListFilter) ([]*domain.AdoptionPlan, error)

	// DeletePlan removes a plan and its assignment.
	DeletePlan(ctx context.Context, id string) error

	// CreateSolutionPlan persists a new solution plan.
	CreateSolutionPlan(ctx context.Context, sp *domain.SolutionAdoptionPlan) error

	// GetSolutionPlan returns the solution plan with id. Returns ErrSolutionPlanNotFound if missing.
	GetSolutionPlan(ctx context.Context, id string) (*domain.SolutionAdoptionPlan, error)

	// UpdateSolutionPlan replaces a stored solution plan.
	UpdateSolutionPlan(ctx context.Context, sp *domain.SolutionAdoptionPlan) error

	// ListSolutionPlans returns matching solution plans, newest first.
	ListSolutionPlans(ctx context.Context, filter ListFilter) ([]*domain.SolutionAdoptionPlan, error)

	// DeleteSolutionPlan removes a solution plan. Child plans are not touched.
	DeleteSolutionPlan(ctx context.Context, id string) error

	// Close releases any resources held by the store.
	Close() error
}

// FileStore implements Store as one JSON document per plan:
//
//	<home>/plans/<plan-id>/plan.json
//	<home>/solutions/<solution-plan-id>/solution.json
//
// Every read and write holds an flock on the document's lock file and
// writes go through a temp file and rename.
type FileStore struct {
	home          string
	lockTimeout   time.Duration
	retryInterval time.Duration
}

// FileStoreOption configures a FileStore.
type FileStoreOption func(*FileStore)

// WithLockTimeout sets how long file operations wait for the document lock.
func WithLockTimeout(timeout, retry time.Duration) FileStoreOption {
	return func(s *FileStore) {
		if timeout > 0 {
			s.lockTimeout = timeout
		}
		if retry > 0 {
			s.retryInterval = retry
		}
	}
}

// NewFileStore creates a FileStore rooted at home. If home is empty, the
// default ~/.adopt directory is used.
func NewFileStore(home string, opts ...FileStoreOption) (*FileStore, error) {
	if home == "" {
		userHome, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		home = filepath.Join(userHome, constants.AdoptHome)
	}
	s := &FileStore{
		home:          home,
		lockTimeout:   constants.DefaultLockTimeout,
		retryInterval: constants.DefaultLockRetryInterval,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// docKind describes one of the two document collections.
type docKind struct {
	dir      string
	file     string
	notFound error
}

//nolint:gochecknoglobals // Read-only collection descriptors
var (
	planKind     = docKind{dir: constants.PlansDir, file: constants.PlanFileName, notFound: adopterrors.ErrPlanNotFound}
	solutionKind = docKind{dir: constants.SolutionPlansDir, file: constants.SolutionPlanFileName, notFound: adopterrors.ErrSolutionPlanNotFound}
)

// CreatePlan persists a new plan.
func (s *FileStore) CreatePlan(ctx context.Context, p *domain.AdoptionPlan) error {
	if p == nil {
		return fmt.Errorf("failed to create plan: plan %w", adopterrors.ErrEmptyValue)
	}
	if p.SchemaVersion == "" {
		p.SchemaVersion = constants.PlanSchemaVersion
	}
	return s.create(ctx, planKind, p.ID, p)
}

// GetPlan returns the plan with id.
func (s *FileStore) GetPlan(ctx context.Context, id string) (*domain.AdoptionPlan, error) {
	var p domain.AdoptionPlan
	if err := s.read(ctx, planKind, id, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdatePlan replaces a stored plan.
func (s *FileStore) UpdatePlan(ctx context.Context, p *domain.AdoptionPlan) error {
	if p == nil {
		return fmt.Errorf("failed to update plan: plan %w", adopterrors.ErrEmptyValue)
	}
	return s.update(ctx, planKind, p.ID, p)
}

// ListPlans returns matching plans, newest first. A plan deleted while the
// list runs is skipped; an unreadable document fails the list.
func (s *FileStore) ListPlans(ctx context.Context, filter ListFilter) ([]*domain.AdoptionPlan, error) {
	ids, err := s.ids(ctx, planKind)
	if err != nil {
		return nil, err
	}

	plans := make([]*domain.AdoptionPlan, 0, len(ids))
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p, err := s.GetPlan(ctx, id)
		if errors.Is(err, adopterrors.ErrPlanNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if filter.Matches(p.Assignment) {
			plans = append(plans, p)
		}
	}

	sort.Slice(plans, func(i, j int) bool {
		return plans[i].CreatedAt.After(plans[j].CreatedAt)
	})
	return plans, nil
}

// DeletePlan removes a plan.
func (s *FileStore) DeletePlan(ctx context.Context, id string) error {
	return s.remove(ctx, planKind, id)
}

// CreateSolutionPlan persists a new solution plan.
func (s *FileStore) CreateSolutionPlan(ctx context.Context, sp *domain.SolutionAdoptionPlan) error {
	if sp == nil {
		return fmt.Errorf("failed to create solution plan: plan %w", adopterrors.ErrEmptyValue)
	}
	if sp.SchemaVersion == "" {
		sp.SchemaVersion = constants.PlanSchemaVersion
	}
	return s.create(ctx, solutionKind, sp.ID, sp)
}

// GetSolutionPlan returns the solution plan with id.
func (s *FileStore) GetSolutionPlan(ctx context.Context, id string) (*domain.SolutionAdoptionPlan, error) {
	var sp domain.SolutionAdoptionPlan
	if err := s.read(ctx, solutionKind, id, &sp); err != nil {
		return nil, err
	}
	return &sp, nil
}

// UpdateSolutionPlan replaces a stored solution plan.
func (s *FileStore) UpdateSolutionPlan(ctx context.Context, sp *domain.SolutionAdoptionPlan) error {
	if sp == nil {
		return fmt.Errorf("failed to update solution plan: plan %w", adopterrors.ErrEmptyValue)
	}
	return s.update(ctx, solutionKind, sp.ID, sp)
}

// ListSolutionPlans returns matching solution plans, newest first.
func (s *FileStore) ListSolutionPlans(ctx context.Context, filter ListFilter) ([]*domain.SolutionAdoptionPlan, error) {
	ids, err := s.ids(ctx, solutionKind)
	if err != nil {
		return nil, err
	}

	plans := make([]*domain.SolutionAdoptionPlan, 0, len(ids))
	for _, id := range ids {
		sp, err := s.GetSolutionPlan(ctx, id)
		if errors.Is(err, adopterrors.ErrSolutionPlanNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if filter.Matches(sp.Assignment) {
			plans = append(plans, sp)
		}
	}

	sort.Slice(plans, func(i, j int) bool {
		return plans[i].CreatedAt.After(plans[j].CreatedAt)
	})
	return plans, nil
}

// DeleteSolutionPlan removes a solution plan.
func (s *FileStore) DeleteSolutionPlan(ctx context.Context, id string) error {
	return s.remove(ctx, solutionKind, id)
}

// Close implements Store. FileStore holds no open resources.
func (s *FileStore) Close() error {
	return nil
}

func (s *FileStore) create(ctx context.Context, kind docKind, id string, v any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validateID(id); err != nil {
		return fmt.Errorf("failed to create %s: %w", kind.file, err)
	}

	dir := s.docDir(kind, id)
	if _, err := os.Stat(dir); err == nil {
		return fmt.Errorf("failed to create '%s': %w", id, adopterrors.ErrPlanExists)
	}
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return fmt.Errorf("failed to create plan directory: %w", err)
	}

	lock, err := flock.Acquire(ctx, s.lockPath(kind, id), s.lockTimeout, s.retryInterval)
	if err != nil {
		_ = os.RemoveAll(dir)
		return fmt.Errorf("failed to create '%s': %w", id, err)
	}
	defer func() { _ = lock.Release() }()

	if err := writeJSON(s.docPath(kind, id), v); err != nil {
		_ = os.RemoveAll(dir)
		return fmt.Errorf("failed to create '%s': %w", id, err)
	}
	return nil
}

func (s *FileStore) read(ctx context.Context, kind docKind, id string, v any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validateID(id); err != nil {
		return fmt.Errorf("failed to get '%s': %w", id, err)
	}
	if _, err := os.Stat(s.docDir(kind, id)); os.IsNotExist(err) {
		return fmt.Errorf("failed to get '%s': %w", id, kind.notFound)
	}

	lock, err := flock.Acquire(ctx, s.lockPath(kind, id), s.lockTimeout, s.retryInterval)
	if err != nil {
		return fmt.Errorf("failed to get '%s': %w", id, err)
	}
	defer func() { _ = lock.Release() }()

	data, err := os.ReadFile(s.docPath(kind, id)) //#nosec G304 -- path is built from a validated id
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("failed to get '%s': %w", id, kind.notFound)
		}
		return fmt.Errorf("failed to read '%s': %w", id, err)
	}

	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse '%s': %w: %w", id, adopterrors.ErrStoreCorrupted, err)
	}
	return nil
}

func (s *FileStore) update(ctx context.Context, kind docKind, id string, v any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validateID(id); err != nil {
		return fmt.Errorf("failed to update '%s': %w", id, err)
	}
	if _, err := os.Stat(s.docPath(kind, id)); os.IsNotExist(err) {
		return fmt.Errorf("failed to update '%s': %w", id, kind.notFound)
	}

	lock, err := flock.Acquire(ctx, s.lockPath(kind, id), s.lockTimeout, s.retryInterval)
	if err != nil {
		return fmt.Errorf("failed to update '%s': %w", id, err)
	}
	defer func() { _ = lock.Release() }()

	if err := writeJSON(s.docPath(kind, id), v); err != nil {
		return fmt.Errorf("failed to update '%s': %w", id, err)
	}
	return nil
}

func (s *FileStore) remove(ctx context.Context, kind docKind, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validateID(id); err != nil {
		return fmt.Errorf("failed to delete '%s': %w", id, err)
	}

	dir := s.docDir(kind, id)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return fmt.Errorf("failed to delete '%s': %w", id, kind.notFound)
	}

	// Wait out any in-flight read or write; the lock file lives in dir.
	lock, err := flock.Acquire(ctx, s.lockPath(kind, id), s.lockTimeout, s.retryInterval)
	if err != nil {
		return fmt.Errorf("failed to delete '%s': %w", id, err)
	}
	_ = lock.Release()

	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to delete '%s': %w", id, err)
	}
	return nil
}

// ids returns the document ids present in the collection.
func (s *FileStore) ids(ctx context.Context, kind docKind) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(filepath.Join(s.home, kind.dir))
	if os.IsNotExist(err) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", kind.dir, err)
	}

	ids := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() && validIDRegex.MatchString(entry.Name()) {
			ids = append(ids, entry.Name())
		}
	}
	return ids, nil
}

func (s *FileStore) docDir(kind docKind, id string) string {
	return filepath.Join(s.home, kind.dir, id)
}

func (s *FileStore) docPath(kind docKind, id string) string {
	return filepath.Join(s.docDir(kind, id), kind.file)
}

func (s *FileStore) lockPath(kind docKind, id string) string {
	return s.docPath(kind, id) + ".lock"
}

func validateID(id string) error {
	if id == "" {
		return fmt.Errorf("id %w", adopterrors.ErrEmptyValue)
	}
	if !validIDRegex.MatchString(id) || id == "." || id == ".." {
		return fmt.Errorf("%w: %q", adopterrors.ErrPathTraversal, id)
	}
	return nil
}

// writeJSON marshals v and writes it atomically using write-then-rename.
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}

	tmpPath := path + ".tmp"
	f, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, filePerm) //#nosec G304 -- path is constructed internally
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to write data: %w", err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to sync file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to close file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to rename file: %w", err)
	}
	return nil
}

// Ensure FileStore implements Store.
var _ Store = (*FileStore)(nil)
