package mcp

import (
	"context"
	"log/slog"
)

// ToolRoute is the routing decision for a single tool-use directive.
type ToolRoute struct {
	// IsMCP is true when the tool resolved to a registered MCP provider.
	IsMCP    bool
	Provider string
	Tool     string
}

// PassThroughRoute is the decision returned for any tool this router
// does not own; the caller should handle it as it normally would.
var PassThroughRoute = ToolRoute{}

// ToolUse is one upstream tool-use directive to evaluate and, if it
// resolves to an MCP provider, execute.
type ToolUse struct {
	ID        string
	Name      string
	Arguments any
}

// ToolResult is the outcome of executing one ToolUse.
type ToolResult struct {
	ToolUseID string
	Content   any
}

// Router decides whether a tool-use directive belongs to an MCP
// provider or should pass through untouched, and executes the ones
// that do. A disabled Router passes everything through and its
// registry is empty.
type Router struct {
	registry *Registry
	enabled  bool
	logger   *slog.Logger
}

// NewRouter creates an enabled Router backed by registry.
func NewRouter(registry *Registry, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{registry: registry, enabled: true, logger: logger}
}

// DisabledRouter creates a Router that routes nothing; every tool-use
// passes through. Used as the zero-configuration and reload-failure
// fallback so callers never observe a nil router.
func DisabledRouter(logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{registry: NewRegistry(logger), enabled: false, logger: logger}
}

// Registry exposes the router's backing registry (nil-safe: a disabled
// router still has an empty registry rather than nil).
func (rt *Router) Registry() *Registry {
	return rt.registry
}

// IsEnabled reports whether MCP routing is active.
func (rt *Router) IsEnabled() bool {
	return rt.enabled
}

// Route determines how toolName should be handled.
func (rt *Router) Route(toolName string) ToolRoute {
	if !rt.enabled {
		return PassThroughRoute
	}

	tool, ok := rt.registry.LookupTool(toolName)
	if !ok {
		rt.logger.Debug("tool not found in mcp registry, passing through", "tool", toolName)
		return PassThroughRoute
	}

	rt.logger.Debug("routing tool to mcp provider", "tool", toolName, "provider", tool.ProviderName)
	return ToolRoute{IsMCP: true, Provider: tool.ProviderName, Tool: tool.Tool.Name}
}

// ExecuteIfMCP executes toolName via its owning provider if Route
// resolves it to MCP. The third return value reports whether the tool
// was handled: it is false (with a nil result and error) when the router
// is disabled or the tool does not belong to MCP, and true whenever a
// call was made, whether or not that call returned an error.
func (rt *Router) ExecuteIfMCP(ctx context.Context, toolName string, arguments any) (any, error, bool) {
	if !rt.enabled {
		return nil, nil, false
	}

	route := rt.Route(toolName)
	if !route.IsMCP {
		return nil, nil, false
	}

	result, err := rt.registry.CallTool(ctx, toolName, arguments)
	return result, err, true
}

// ProcessToolUses executes every tool-use directive this router owns
// and returns one ToolResult per directive it handled, always emitting
// a result (an error message as content, never a raw error) for
// directives it attempted, matching the observed behavior of the
// original tool-call loop. Directives this router does not own are
// omitted from the result entirely, leaving the caller free to handle
// them.
func (rt *Router) ProcessToolUses(ctx context.Context, uses []ToolUse) []ToolResult {
	if !rt.enabled {
		return nil
	}

	var results []ToolResult
	for _, use := range uses {
		result, err, handled := rt.ExecuteIfMCP(ctx, use.Name, use.Arguments)
		if !handled {
			continue
		}

		content := result
		if err != nil {
			rt.logger.Warn("mcp tool execution failed", "tool", use.Name, "error", err)
			content = "Error: " + err.Error()
		}

		results = append(results, ToolResult{ToolUseID: use.ID, Content: content})
	}
	return results
}

// HasMCPTools reports whether any of the given tool names resolve to an
// MCP provider.
func (rt *Router) HasMCPTools(toolNames []string) bool {
	if !rt.enabled {
		return false
	}
	for _, name := range toolNames {
		if rt.registry.HasTool(name) {
			return true
		}
	}
	return false
}

// Shutdown disconnects every provider behind this router's registry.
func (rt *Router) Shutdown() {
	rt.registry.Shutdown()
}

// RouterBuilder assembles a Router from a set of provider configs,
// connecting to each one during Build.
type RouterBuilder struct {
	providers []ProviderConfig
	enabled   bool
	logger    *slog.Logger
}

// NewRouterBuilder creates a builder with MCP routing enabled by default.
func NewRouterBuilder(logger *slog.Logger) *RouterBuilder {
	return &RouterBuilder{enabled: true, logger: logger}
}

// AddProvider queues a provider configuration to connect to during Build.
func (b *RouterBuilder) AddProvider(config ProviderConfig) *RouterBuilder {
	b.providers = append(b.providers, config)
	return b
}

// SetEnabled controls whether the built Router routes anything at all.
func (b *RouterBuilder) SetEnabled(enabled bool) *RouterBuilder {
	b.enabled = enabled
	return b
}

// Build connects to every queued provider and returns the resulting
// Router. A provider that fails to connect is logged and skipped; it
// never fails the whole build, matching the original implementation's
// best-effort fleet startup.
func (b *RouterBuilder) Build(ctx context.Context) *Router {
	logger := b.logger
	if logger == nil {
		logger = slog.Default()
	}
	registry := NewRegistry(logger)

	for _, config := range b.providers {
		if err := registry.AddProvider(ctx, config); err != nil {
			logger.Warn("failed to connect to mcp provider", "provider", config.Name, "error", err)
		}
	}

	return &Router{registry: registry, enabled: b.enabled, logger: logger}
}
