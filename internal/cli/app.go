package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os/user"

	"github.com/rs/zerolog"

	"github.com/mrz1836/adopt/internal/adoption"
	"github.com/mrz1836/adopt/internal/config"
	"github.com/mrz1836/adopt/internal/ctxutil"
	"github.com/mrz1836/adopt/internal/errors"
	"github.com/mrz1836/adopt/internal/lock"
	"github.com/mrz1836/adopt/internal/plan"
	"github.com/mrz1836/adopt/internal/template"
	"github.com/mrz1836/adopt/internal/tui"
)

// app holds everything a command needs: config, the plan store, the
// locker, the template registry, and the service built on top of them.
type app struct {
	cfg         *config.Config
	flags       *GlobalFlags
	store       plan.Store
	locker      lock.Locker
	registry    *template.Registry
	catalogPath string
	service     *adoption.Service
	logger      zerolog.Logger
	out         tui.Output
	w           io.Writer
}

// openApp loads configuration and builds the service. Callers must call
// close when done.
func openApp(ctx context.Context, flags *GlobalFlags, w io.Writer) (*app, error) {
	logger := GetLogger()

	cfg, err := config.LoadWithOverrides(logger.WithContext(ctx), flagOverrides(flags))
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:    cfg,
		flags:  flags,
		logger: logger,
		out:    tui.NewOutput(w, flags.Output),
		w:      w,
	}

	if a.store, err = openStore(cfg); err != nil {
		return nil, err
	}
	if a.locker, err = openLocker(ctx, cfg, logger); err != nil {
		_ = a.store.Close()
		return nil, err
	}
	if a.catalogPath, err = cfg.CatalogPath(); err != nil {
		a.close()
		return nil, err
	}
	if a.registry, err = loadRegistry(a.catalogPath, logger); err != nil {
		a.close()
		return nil, err
	}

	a.service = a.newService()
	return a, nil
}

// newService builds a service over the app's store, registry, and locker.
func (a *app) newService(extra ...adoption.Option) *adoption.Service {
	opts := []adoption.Option{
		adoption.WithLogger(a.logger),
		adoption.WithTelemetryOptions(plan.TelemetryOptions{
			AutoCompleteNote: a.cfg.Telemetry.AutoCompleteNote,
			MaxRows:          a.cfg.Telemetry.MaxBatchRows,
		}),
	}
	return adoption.NewService(a.store, a.registry, a.locker, append(opts, extra...)...)
}

func (a *app) close() {
	if a.locker != nil {
		if err := a.locker.Close(); err != nil {
			a.logger.Debug().Err(err).Msg("failed to close locker")
		}
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.logger.Debug().Err(err).Msg("failed to close store")
		}
	}
}

// actorContext attaches the acting principal: --actor, then $USER.
func (a *app) actorContext(ctx context.Context) context.Context {
	actor := a.flags.Actor
	if actor == "" {
		if u, err := user.Current(); err == nil {
			actor = u.Username
		}
	}
	if actor == "" {
		return ctx
	}
	return ctxutil.WithActor(ctx, actor)
}

// jsonOutput reports whether results should be written as JSON.
func (a *app) jsonOutput() bool {
	return a.flags.Output == OutputJSON
}

// fail reports err in the selected format. In JSON mode the error has been
// written already, so the returned error only carries the exit code.
func (a *app) fail(err error) error {
	if !a.jsonOutput() {
		return err
	}
	a.out.Error(err)
	return jsonReported(err)
}

// jsonReported marks err as already written, keeping it inspectable for
// the exit code.
func jsonReported(err error) error {
	return fmt.Errorf("%w: %w", errors.ErrJSONErrorOutput, err)
}

func flagOverrides(flags *GlobalFlags) *config.Config {
	overrides := &config.Config{Home: flags.Home}
	overrides.Storage.Backend = flags.Storage
	overrides.Catalog.Path = flags.Catalog
	return overrides
}

func openStore(cfg *config.Config) (plan.Store, error) {
	switch cfg.Storage.Backend {
	case config.StorageBackendSQLite:
		path, err := cfg.SQLitePath()
		if err != nil {
			return nil, err
		}
		return plan.OpenSQLite(path)
	default:
		dir, err := cfg.StorageDir()
		if err != nil {
			return nil, err
		}
		return plan.NewFileStore(dir, plan.WithLockTimeout(cfg.Lock.Timeout, cfg.Lock.RetryInterval))
	}
}

func openLocker(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (lock.Locker, error) {
	if cfg.Lock.Backend != config.LockBackendRedis {
		return lock.NewLocalLocker(cfg.Lock.Timeout), nil
	}
	return lock.NewRedisLocker(ctx, lock.RedisOptions{
		Addr:          cfg.Lock.RedisAddr,
		Password:      cfg.Lock.RedisPassword,
		DB:            cfg.Lock.RedisDB,
		TTL:           cfg.Lock.TTL,
		Timeout:       cfg.Lock.Timeout,
		RetryInterval: cfg.Lock.RetryInterval,
		Logger:        logger,
	})
}

// loadRegistry loads the catalog file. A missing catalog yields an empty
// registry so read-only commands still work.
func loadRegistry(path string, logger zerolog.Logger) (*template.Registry, error) {
	catalog, err := template.NewLoader("").LoadFromFile(path)
	if stderrors.Is(err, errors.ErrTemplateFileMissing) {
		logger.Debug().Str("catalog", path).Msg("no template catalog, starting empty")
		return template.NewRegistry(), nil
	}
	if err != nil {
		return nil, err
	}
	return template.NewRegistryFromCatalog(catalog)
}
