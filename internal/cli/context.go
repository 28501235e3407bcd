package cli

import (
	"io"

	"go.uber.org/zap"

	"toolvm/internal/config"
	"toolvm/internal/download"
	"toolvm/internal/logx"
	"toolvm/internal/manager"
	"toolvm/internal/plugin"
	"toolvm/internal/plugins"
	"toolvm/internal/relcache"
)

// app bundles the wired-up components every command operates on.
type app struct {
	cfg     config.Config
	manager *manager.Manager
	log     *zap.Logger

	cache     *relcache.Store
	logCloser io.Closer
}

type appOption func(*appOptions)

type appOptions struct {
	progress download.Progress
}

// withProgress routes download progress from every builtin plugin to fn.
func withProgress(fn download.Progress) appOption {
	return func(o *appOptions) { o.progress = fn }
}

// newApp loads configuration, opens the log file and release cache, and
// registers the builtin plugins. Callers must defer close.
func newApp(opts ...appOption) (*app, error) {
	var ao appOptions
	for _, opt := range opts {
		opt(&ao)
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	log, logCloser, err := logx.New(cfg.LogsDir, verbose)
	if err != nil {
		return nil, err
	}

	registry := plugin.NewRegistry()
	if err := plugins.RegisterBuiltins(registry, cfg.CacheDir, plugins.Options{Progress: ao.progress}); err != nil {
		logCloser.Close()
		return nil, err
	}

	mgrOpts := []manager.Option{manager.WithLogger(log)}
	var cache *relcache.Store
	if cfg.Settings.CacheRemoteVersions {
		cache, err = relcache.Open(cfg.CacheDir)
		if err != nil {
			// A broken cache degrades to uncached listings.
			log.Warn("release cache unavailable", zap.Error(err))
		} else {
			mgrOpts = append(mgrOpts, manager.WithReleaseCache(cache))
		}
	}

	return &app{
		cfg:       cfg,
		manager:   manager.New(cfg, registry, mgrOpts...),
		log:       log,
		cache:     cache,
		logCloser: logCloser,
	}, nil
}

func (a *app) close() {
	if a.cache != nil {
		a.cache.Close()
	}
	_ = a.log.Sync()
	if a.logCloser != nil {
		a.logCloser.Close()
	}
}
