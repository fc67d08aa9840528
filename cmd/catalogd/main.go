// Command catalogd loads plugins from the configured directories into a
// catalog and serves the catalog diagnostics API.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/leeforge/plugincatalog/activation"
	"github.com/leeforge/plugincatalog/bridge"
	"github.com/leeforge/plugincatalog/catalog"
	"github.com/leeforge/plugincatalog/config"
	"github.com/leeforge/plugincatalog/http/catalogapi"
	"github.com/leeforge/plugincatalog/logging"
	"github.com/leeforge/plugincatalog/metrics"
	"github.com/leeforge/plugincatalog/plugin"
	"github.com/leeforge/plugincatalog/runtime"
	"github.com/leeforge/plugincatalog/source"
	"go.uber.org/zap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "catalogd: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load(config.DefaultOptions())
	if err != nil {
		return err
	}
	settings := cfg.Settings()

	logger, err := logging.Init(settings.Log)
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
		_ = logging.CloseAllWriters()
	}()
	logger.Info("configuration loaded",
		zap.String("mode", string(config.CurrentMode())),
		zap.Strings("files", cfg.Files()),
	)

	cat := catalog.NewCatalog(catalog.Config{Logger: logger.Named("catalog")})
	rt := runtime.NewRuntime(runtime.Config{
		Catalog: cat,
		Logger:  logger.Named("runtime"),
		Strict:  settings.Catalog.Strict,
	})
	manager := activation.NewManager(cat, activation.Config{Logger: logger.Named("activation")})
	defer manager.Close()

	collector := metrics.NewCollector()
	unbind := metrics.Bind(cat, collector)
	defer unbind()

	sub := rt.Events().Subscribe(runtime.TopicAll, func(_ context.Context, ev runtime.Event) error {
		logger.Debug("catalog event",
			zap.String("topic", ev.Topic),
			zap.String("id", ev.PluginID),
			zap.String("family", ev.Family.String()),
		)
		return nil
	})
	defer sub.Unsubscribe()

	dirs := pluginDirs(settings.Catalog, logger)
	plan := runtime.BootstrapPlan{}
	if !settings.Catalog.Watch {
		for _, d := range dirs {
			plan.Sources = append(plan.Sources, d)
		}
	}
	if path := settings.Catalog.BackendManifest; path != "" {
		entries, err := bridge.LoadBackendEntries(path)
		switch {
		case err == nil:
			plan.Backend = entries
		case settings.Catalog.Strict:
			return err
		default:
			logger.Warn("backend manifest not loaded", zap.String("path", path), zap.Error(err))
		}
	}

	if _, err := rt.Bootstrap(ctx, plan); err != nil {
		return err
	}

	if settings.Catalog.Watch {
		for _, d := range dirs {
			if err := rt.Watch(ctx, d, settings.Catalog.WatchDebounce); err != nil {
				return err
			}
		}
		cfg.SetLogger(logger.Named("config"))
		cfg.OnChange(func(next config.Settings) {
			applySettings(rt, next, logger)
		})
		if err := cfg.Watch(ctx); err != nil {
			logger.Warn("config watch disabled", zap.Error(err))
		}
	}

	var srv *http.Server
	serveErr := make(chan error, 1)
	if settings.HTTP.Enabled {
		srv = &http.Server{
			Addr: settings.HTTP.Addr,
			Handler: catalogapi.NewRouter(catalogapi.Deps{
				Catalog:   cat,
				Manager:   manager,
				Collector: collector,
				Logger:    logger.Named("http"),
			}),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			logger.Info("http server listening", zap.String("addr", settings.HTTP.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serveErr <- err
			}
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-serveErr:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), settings.HTTP.ShutdownTimeout)
	defer cancel()

	var errs []error
	if srv != nil {
		errs = append(errs, srv.Shutdown(shutdownCtx))
	}
	errs = append(errs, rt.Shutdown(shutdownCtx))
	return errors.Join(append(errs, runErr)...)
}

// applySettings carries the reloadable settings into the running process.
// Directories, HTTP and file sinks keep their startup values.
func applySettings(rt *runtime.Runtime, next config.Settings, logger *zap.Logger) {
	rt.SetStrict(next.Catalog.Strict)
	if err := logging.SetLevel(next.Log.Level); err != nil {
		logger.Warn("log level not changed", zap.String("level", next.Log.Level), zap.Error(err))
	}
}

// pluginDirs returns one manifest source per configured directory, tagged
// with the origin its location implies.
func pluginDirs(settings config.CatalogSettings, logger *zap.Logger) []*source.Dir {
	var dirs []*source.Dir
	add := func(roots []string, origin plugin.Origin) {
		for _, root := range roots {
			dirs = append(dirs, source.NewDir(root, origin, logger.Named("source")))
		}
	}
	add(settings.PluginDirs, plugin.OriginPluginDir)
	add(settings.BundleDirs, plugin.OriginUIBundle)
	add(settings.DevProjectDirs, plugin.OriginDevProject)
	return dirs
}
