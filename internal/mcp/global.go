package mcp

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/jamesprial/mcp-oauth-2.1/internal/mcp/reload"
)

// GlobalConfig configures the process-wide MCP router.
type GlobalConfig struct {
	// Enabled gates MCP entirely; when false, Init publishes a disabled
	// router regardless of Providers.
	Enabled bool

	// Providers is the fleet to connect to at Init and on every Reload.
	Providers []ProviderConfig

	// ServersFilePath, if non-empty, is watched for changes and triggers
	// an automatic Reload. Leave empty to disable file-watching.
	ServersFilePath string

	Logger *slog.Logger
}

// Global owns the process-wide, atomically-swappable router handle plus
// the optional file watcher that triggers reloads. There is normally
// exactly one Global per process, held by the transport layer's wiring.
type Global struct {
	router      atomic.Pointer[Router]
	watcher     *reload.Watcher
	cfg         GlobalConfig
	logger      *slog.Logger
	initialized atomic.Bool
}

// NewGlobal creates a Global with a disabled router published; call
// Init to connect the configured fleet.
func NewGlobal() *Global {
	g := &Global{logger: slog.Default()}
	g.router.Store(DisabledRouter(g.logger))
	return g
}

// Init builds and publishes the router described by cfg, and starts a
// background file watcher if cfg.ServersFilePath is set. Subsequent
// calls are no-ops; call Reload for later changes.
func (g *Global) Init(ctx context.Context, cfg GlobalConfig) {
	if !g.initialized.CompareAndSwap(false, true) {
		return
	}

	g.cfg = cfg
	if cfg.Logger != nil {
		g.logger = cfg.Logger
	}

	router := buildRouter(ctx, cfg, g.logger)
	g.router.Store(router)

	if cfg.ServersFilePath != "" {
		g.watcher = reload.NewWatcher(cfg.ServersFilePath, func() error {
			g.Reload(context.Background())
			return nil
		})
		g.watcher.SetLogger(g.logger)
		go func() {
			if err := g.watcher.Watch(ctx); err != nil {
				g.logger.Debug("mcp config watcher stopped", "error", err)
			}
		}()
	}
}

func buildRouter(ctx context.Context, cfg GlobalConfig, logger *slog.Logger) *Router {
	if !cfg.Enabled || len(cfg.Providers) == 0 {
		if !cfg.Enabled {
			logger.Info("mcp is disabled in configuration")
		} else {
			logger.Info("no mcp providers configured")
		}
		return DisabledRouter(logger)
	}

	logger.Info("initializing mcp providers", "count", len(cfg.Providers))
	builder := NewRouterBuilder(logger).SetEnabled(true)
	for _, p := range cfg.Providers {
		builder.AddProvider(p)
	}
	return builder.Build(ctx)
}

// Router returns the currently published router. It is always usable:
// before Init is called, it is a disabled passthrough router.
func (g *Global) Router() *Router {
	return g.router.Load()
}

// Reload rebuilds the provider fleet, re-reading the servers file when
// ServersFilePath is set and otherwise (or when that file cannot be
// loaded) using the Providers passed to Init, shutting down the old
// router before publishing the new one so no reader ever observes a
// torn state.
func (g *Global) Reload(ctx context.Context) {
	old := g.router.Load()
	if old != nil {
		old.Shutdown()
	}

	cfg := g.cfg
	if cfg.ServersFilePath != "" {
		providers, err := LoadProviders(cfg.ServersFilePath)
		if err != nil {
			g.logger.Error("failed to reload mcp providers file, keeping previous config", "path", cfg.ServersFilePath, "error", err)
		} else {
			cfg.Providers = providers
		}
	}

	g.router.Store(buildRouter(ctx, cfg, g.logger))
}

// HasTools reports whether MCP is enabled and currently offers any tools.
func (g *Global) HasTools() bool {
	router := g.Router()
	return router.IsEnabled() && len(router.Registry().ListToolNames()) > 0
}

// ListTools returns the qualified names of every currently registered tool.
func (g *Global) ListTools() []string {
	router := g.Router()
	if !router.IsEnabled() {
		return nil
	}
	return router.Registry().ListToolNames()
}

// ListProviders returns the names of every currently connected provider.
func (g *Global) ListProviders() []string {
	router := g.Router()
	if !router.IsEnabled() {
		return nil
	}
	return router.Registry().ListProviders()
}

// Shutdown disconnects every provider behind the current router. It does
// not stop the file watcher; the watcher runs until the ctx passed to
// Init is cancelled.
func (g *Global) Shutdown() {
	g.logger.Info("shutting down mcp router")
	g.Router().Shutdown()
}
