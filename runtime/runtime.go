package runtime

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/leeforge/plugincatalog/bridge"
	"github.com/leeforge/plugincatalog/catalog"
	apperrors "github.com/leeforge/plugincatalog/errors"
	"github.com/leeforge/plugincatalog/plugin"
	"github.com/leeforge/plugincatalog/source"
	"go.uber.org/zap"
)

// Config holds configuration for creating a new Runtime.
type Config struct {
	Catalog  *catalog.Catalog
	Families *bridge.Families
	Logger   *zap.Logger

	// Strict stops a registration pass at the first failing plugin.
	Strict bool

	EventBuffer int // default 1024
}

// Runtime loads plugins into a catalog and republishes catalog changes on
// an event bus.
type Runtime struct {
	catalog  *catalog.Catalog
	families *bridge.Families
	logger   *zap.Logger
	strict   atomic.Bool

	mu       sync.Mutex
	failures *apperrors.ErrorChain
	watched  map[string]map[string]plugin.Family // dir root -> id -> family
	watchers []*source.Watcher

	eventBus *EventBus
	detach   func()

	shutdownCtx context.Context
	shutdownFn  context.CancelFunc
}

// NewRuntime creates a new runtime instance.
func NewRuntime(cfg Config) *Runtime {
	if cfg.EventBuffer <= 0 {
		cfg.EventBuffer = 1024
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Catalog == nil {
		cfg.Catalog = catalog.NewCatalog(catalog.Config{Logger: cfg.Logger})
	}
	if cfg.Families == nil {
		cfg.Families = bridge.NewFamilies()
	}

	shutdownCtx, shutdownFn := context.WithCancel(context.Background())
	rt := &Runtime{
		catalog:     cfg.Catalog,
		families:    cfg.Families,
		logger:      cfg.Logger,
		failures:    apperrors.NewErrorChain(),
		watched:     make(map[string]map[string]plugin.Family),
		eventBus:    NewEventBus(cfg.EventBuffer, cfg.Logger),
		shutdownCtx: shutdownCtx,
		shutdownFn:  shutdownFn,
	}
	rt.strict.Store(cfg.Strict)
	rt.detach = rt.catalog.SubscribeChanges(rt.publishChange)
	return rt
}

// Catalog returns the catalog the runtime populates.
func (r *Runtime) Catalog() *catalog.Catalog { return r.catalog }

// Families returns the per-family registries.
func (r *Runtime) Families() *bridge.Families { return r.families }

// SetStrict switches between strict and lenient registration for passes
// that start afterwards, including watched directory rescans.
func (r *Runtime) SetStrict(strict bool) {
	if r.strict.Swap(strict) != strict {
		r.logger.Info("registration mode changed", zap.Bool("strict", strict))
	}
}

// Strict reports whether registration stops at the first failure.
func (r *Runtime) Strict() bool { return r.strict.Load() }

// Events returns the bus carrying catalog change events.
func (r *Runtime) Events() *EventBus { return r.eventBus }

// Failures returns every registration or discovery failure recorded so far.
func (r *Runtime) Failures() []*apperrors.AppError {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*apperrors.AppError(nil), r.failures.Errors()...)
}

// RegisterPluginFamily registers items through fam. Failures, including
// panics raised by registries or builders, are logged and recorded. In
// strict mode the first failure stops the pass and is returned.
func RegisterPluginFamily[T plugin.Item](r *Runtime, fam *bridge.Family[T], items []T, opts bridge.RegisterOptions) (int, error) {
	registered := 0
	for _, item := range items {
		err := r.guard(fam.Family, item.ItemID(), func() error {
			return bridge.Register(r.catalog, fam, item, opts)
		})
		if err != nil {
			if r.strict.Load() {
				return registered, err
			}
			continue
		}
		registered++
	}

	r.logger.Info("plugin family registered",
		zap.String("family", fam.Family.String()),
		zap.Int("registered", registered),
		zap.Int("total", len(items)),
	)
	return registered, nil
}

// LoadSources discovers and registers the items of every source in order.
func (r *Runtime) LoadSources(ctx context.Context, sources ...source.Source) (int, error) {
	loaded := 0
	for _, src := range sources {
		found, err := src.Discover(ctx)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return loaded, ctxErr
			}
			if failErr := r.recordDiscovery(err); failErr != nil {
				return loaded, failErr
			}
		}

		n, err := r.registerDiscovered(found)
		loaded += n
		if err != nil {
			return loaded, err
		}
	}
	return loaded, nil
}

// EnsureBackendPlugins adds a catalog entry for every backend plugin not
// yet catalogued and returns how many were created.
func (r *Runtime) EnsureBackendPlugins(entries []bridge.BackendPluginEntry) int {
	created := 0
	for _, e := range entries {
		if err := e.Validate(); err != nil {
			r.logger.Warn("ignoring invalid backend plugin entry",
				zap.String("id", e.PluginID), zap.Error(err))
			continue
		}
		if bridge.EnsureBackendPluginCatalogEntry(r.catalog, e) {
			created++
		}
	}
	return created
}

// BootstrapPlan lists what Bootstrap loads.
type BootstrapPlan struct {
	Sources []source.Source
	Backend []bridge.BackendPluginEntry
}

// Report summarises a bootstrap pass.
type Report struct {
	Synced   int           `json:"synced"`
	Loaded   int           `json:"loaded"`
	Backend  int           `json:"backend"`
	Failed   int           `json:"failed"`
	Duration time.Duration `json:"duration"`
}

// Bootstrap mirrors the family registries into the catalog, loads the
// sources, then adds backend entries for ids still missing.
func (r *Runtime) Bootstrap(ctx context.Context, plan BootstrapPlan) (Report, error) {
	startTime := time.Now()
	if ctx == nil {
		ctx = context.Background()
	}
	var report Report

	report.Synced = bridge.SyncCatalogFromRegistries(r.catalog, r.families.Syncers()...)

	loaded, err := r.LoadSources(ctx, plan.Sources...)
	report.Loaded = loaded
	if err != nil {
		report.Failed = len(r.Failures())
		return report, err
	}

	report.Backend = r.EnsureBackendPlugins(plan.Backend)
	report.Failed = len(r.Failures())
	report.Duration = time.Since(startTime)

	r.logger.Info("bootstrap completed",
		zap.Duration("duration", report.Duration),
		zap.Int("synced", report.Synced),
		zap.Int("loaded", report.Loaded),
		zap.Int("backend", report.Backend),
		zap.Int("failed", report.Failed),
		zap.Int("plugins", r.catalog.Len()),
	)
	return report, nil
}

// Watch keeps the catalog in step with dir: after every change the dir's
// items are re-registered and ids that disappeared are unregistered.
func (r *Runtime) Watch(ctx context.Context, dir *source.Dir, debounce time.Duration) error {
	found, err := dir.Discover(ctx)
	if err != nil {
		if failErr := r.recordDiscovery(err); failErr != nil {
			return failErr
		}
	}
	r.reconcile(dir.Root, found)

	w := source.NewWatcher(dir, debounce, func(_ context.Context, found []Discovered, err error) {
		if err != nil {
			_ = r.recordDiscovery(err)
		}
		r.reconcile(dir.Root, found)
	}, r.logger)
	if err := w.Start(ctx); err != nil {
		return err
	}

	r.mu.Lock()
	r.watchers = append(r.watchers, w)
	r.mu.Unlock()
	return nil
}

// Discovered is re-exported for watcher callbacks.
type Discovered = source.Discovered

// Shutdown stops watchers, detaches from the catalog and drains the bus.
func (r *Runtime) Shutdown(ctx context.Context) error {
	r.shutdownFn()

	r.mu.Lock()
	watchers := r.watchers
	r.watchers = nil
	r.mu.Unlock()

	var errs []error
	for _, w := range watchers {
		if err := w.Stop(); err != nil {
			errs = append(errs, err)
		}
	}

	r.detach()

	closed := make(chan struct{})
	go func() {
		r.eventBus.Close()
		close(closed)
	}()
	select {
	case <-closed:
	case <-ctx.Done():
		errs = append(errs, ctx.Err())
	}

	r.logger.Info("shutdown completed")
	return errors.Join(errs...)
}

// --- Internal ---

func (r *Runtime) reconcile(root string, found []Discovered) {
	current := make(map[string]plugin.Family, len(found))
	for _, d := range found {
		if r.registerOne(d) == nil {
			current[itemID(d.Plugin)] = d.Family
		}
	}

	r.mu.Lock()
	previous := r.watched[root]
	r.watched[root] = current
	r.mu.Unlock()

	for id, family := range previous {
		if _, still := current[id]; still {
			continue
		}
		if r.families.UnregisterAny(r.catalog, family, id) {
			r.logger.Info("plugin removed from watched directory",
				zap.String("id", id), zap.String("root", root))
		}
	}
}

func (r *Runtime) registerDiscovered(found []Discovered) (int, error) {
	registered := 0
	for _, d := range found {
		if err := r.registerOne(d); err != nil {
			if r.strict.Load() {
				return registered, err
			}
			continue
		}
		registered++
	}
	return registered, nil
}

func (r *Runtime) registerOne(d Discovered) error {
	opts := d.Options
	if opts.Origin == "" {
		opts.Origin = d.Origin
	}
	return r.guard(d.Family, itemID(d.Plugin), func() error {
		return r.families.RegisterAny(r.catalog, d.Family, d.Plugin, opts)
	})
}

// guard runs one registration, converting errors and panics into recorded
// registration failures.
func (r *Runtime) guard(family plugin.Family, id string, fn func() error) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = apperrors.FromPanic(rec)
		}
		if err == nil {
			return
		}

		appErr := apperrors.FromError(err)
		if appErr.Type != apperrors.ErrorTypeRegistration {
			appErr = apperrors.NewRegistration(family.String(), id, err)
		}
		r.record(appErr)
		r.logger.Warn("plugin registration failed",
			zap.String("id", id),
			zap.String("family", family.String()),
			zap.Error(appErr),
		)
		err = appErr
	}()
	return fn()
}

// recordDiscovery records source errors and returns the error to stop on in
// strict mode.
func (r *Runtime) recordDiscovery(err error) error {
	var chain *apperrors.ErrorChain
	if errors.As(err, &chain) {
		for _, e := range chain.Errors() {
			r.record(e)
		}
	} else {
		r.record(apperrors.FromError(err))
	}
	r.logger.Warn("plugin source reported errors", zap.Error(err))

	if r.strict.Load() {
		return err
	}
	return nil
}

func (r *Runtime) record(err *apperrors.AppError) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures.Add(err)
}

func (r *Runtime) publishChange(ch catalog.Change) {
	err := r.eventBus.Publish(r.shutdownCtx, Event{
		Topic:          TopicFor(ch.Kind),
		PluginID:       ch.ID,
		Family:         ch.Family,
		PreviousFamily: ch.PreviousFamily,
		Previous:       ch.Previous,
		Current:        ch.Current,
	})
	if err != nil && !errors.Is(err, ErrBusClosed) {
		r.logger.Warn("dropping catalog change event",
			zap.String("id", ch.ID), zap.Error(err))
	}
}

func itemID(raw any) string {
	if item, ok := raw.(plugin.Item); ok {
		return item.ItemID()
	}
	return plugin.UnknownID
}
