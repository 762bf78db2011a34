// Package adoption orchestrates adoption plans over a plan store, a template
// source, and a per-plan locker.
//
// Every write follows the same cycle: lock the plan, load it, apply one of
// the pure operations from internal/plan, save it, unlock. Reads go straight
// to the store. Plans are independent; only writers to the same plan wait on
// each other.
//
// Lock order is solution before child plan. Operations that start from a
// child plan release its lock before refreshing the owning solution.
package adoption

import (
	stderrors "errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/mrz1836/adopt/internal/clock"
	"github.com/mrz1836/adopt/internal/constants"
	"github.com/mrz1836/adopt/internal/lock"
	"github.com/mrz1836/adopt/internal/plan"
	"github.com/mrz1836/adopt/internal/template"
)

// errUnchanged lets a mutation skip the save step.
var errUnchanged = stderrors.New("unchanged") //nolint:gochecknoglobals // internal control-flow sentinel

// Service implements the adoption plan operations.
type Service struct {
	store     plan.Store
	templates template.Source
	locker    lock.Locker
	clock     clock.Clock
	logger    zerolog.Logger
	telemetry plan.TelemetryOptions
	parallel  int
}

// Option configures a Service.
type Option func(*Service)

// WithClock sets the time source. Defaults to the wall clock.
func WithClock(c clock.Clock) Option {
	return func(s *Service) {
		s.clock = c
	}
}

// WithLogger sets the logger. Defaults to a disabled logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithTelemetryOptions sets the auto-complete note and batch size limit
// used by ImportTelemetry.
func WithTelemetryOptions(opts plan.TelemetryOptions) Option {
	return func(s *Service) {
		s.telemetry = opts
	}
}

// WithSyncParallelism bounds how many child plans a solution sync works on
// at once. Values below one are ignored.
func WithSyncParallelism(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.parallel = n
		}
	}
}

// NewService creates a Service. store, templates, and locker are required.
func NewService(store plan.Store, templates template.Source, locker lock.Locker, opts ...Option) *Service {
	s := &Service{
		store:     store,
		templates: templates,
		locker:    locker,
		clock:     clock.RealClock{},
		logger:    zerolog.Nop(),
		telemetry: plan.TelemetryOptions{
			AutoCompleteNote: constants.AutoCompleteNote,
			MaxRows:          constants.DefaultMaxBatchRows,
		},
		parallel: defaultSyncParallelism,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With().Str("component", "adoption").Logger()
	return s
}

const defaultSyncParallelism = 4

func (s *Service) now() time.Time {
	return s.clock.Now().UTC()
}
