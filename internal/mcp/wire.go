package mcp

import (
	"context"
	"log/slog"
)

// Config configures the MCP integration core at process startup.
type Config struct {
	// Enabled gates MCP entirely.
	Enabled bool

	// ServersFilePath points at the JSON document describing the
	// provider fleet (see LoadProviders). If empty, no providers are
	// loaded and no file watcher starts, regardless of Enabled.
	ServersFilePath string

	Logger *slog.Logger
}

// NewMCPServices builds the process-wide Global from cfg. This is a
// convenience function for dependency injection, mirroring the
// teacher's NewMCPServices constructor but returning a single Global
// instead of a (Handler, ToolRegistry, ResourceRegistry) triple, since
// this aggregator's public surface is the Global's four operations
// (status/call/reload/health) rather than a JSON-RPC Handler.
func NewMCPServices(ctx context.Context, cfg *Config) (*Global, error) {
	global := NewGlobal()

	var providers []ProviderConfig
	if cfg.Enabled && cfg.ServersFilePath != "" {
		loaded, err := LoadProviders(cfg.ServersFilePath)
		if err != nil {
			return nil, err
		}
		providers = loaded
	}

	global.Init(ctx, GlobalConfig{
		Enabled:         cfg.Enabled,
		Providers:       providers,
		ServersFilePath: cfg.ServersFilePath,
		Logger:          cfg.Logger,
	})

	return global, nil
}
