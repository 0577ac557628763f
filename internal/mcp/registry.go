package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	internalerrors "github.com/jamesprial/mcp-oauth-2.1/internal/errors"
)

// Registry aggregates tools from many MCP providers under one
// namespace. clients and tools/aliases are guarded by independent
// locks; any operation needing both takes clients first, then tools,
// to keep lock order consistent across the package.
type Registry struct {
	logger *slog.Logger

	clientsMu sync.RWMutex
	clients   map[string]*Client

	toolsMu sync.RWMutex
	tools   map[string]RegisteredTool
	aliases map[string]string
}

// NewRegistry creates an empty Registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		logger:  logger,
		clients: make(map[string]*Client),
		tools:   make(map[string]RegisteredTool),
		aliases: make(map[string]string),
	}
}

// AddProvider connects to the provider described by config and registers
// its tools. A disabled provider is skipped silently (not an error). If
// connecting fails, the error is returned and no client is stored. If
// connecting succeeds but tools/list fails, the client is still stored
// (it may recover on a later RefreshTools) and a warning is logged,
// matching the observed behavior of the original implementation.
func (r *Registry) AddProvider(ctx context.Context, config ProviderConfig) error {
	if !config.Enabled {
		r.logger.Info("mcp provider disabled, skipping", "provider", config.Name)
		return nil
	}

	client := NewClient(config, r.logger)
	if err := client.Connect(ctx); err != nil {
		return internalerrors.New("mcpregistry", "AddProvider", internalerrors.ErrInternal, err).
			WithContext("provider", config.Name)
	}

	if err := client.RefreshTools(ctx); err != nil {
		r.logger.Warn("failed to list tools from provider", "provider", config.Name, "error", err)
	} else {
		r.registerTools(config.Name, client.Tools())
	}

	r.clientsMu.Lock()
	r.clients[config.Name] = client
	r.clientsMu.Unlock()

	return nil
}

// registerTools inserts tool registrations and alias entries for one
// provider. Conflicting short names keep the first registrant's alias
// and log a warning; the qualified name is always reachable regardless.
func (r *Registry) registerTools(providerName string, tools []Tool) {
	r.toolsMu.Lock()
	defer r.toolsMu.Unlock()

	for _, tool := range tools {
		registered := NewRegisteredTool(providerName, tool)

		if _, exists := r.aliases[tool.Name]; !exists {
			r.aliases[tool.Name] = registered.QualifiedName
		} else {
			r.logger.Warn("tool name already registered by another provider, use qualified name",
				"tool", tool.Name, "qualified_name", registered.QualifiedName)
		}

		r.tools[registered.QualifiedName] = registered
	}
}

// RemoveProvider disconnects a provider and purges its tools and aliases.
func (r *Registry) RemoveProvider(name string) {
	r.clientsMu.Lock()
	client, ok := r.clients[name]
	if ok {
		delete(r.clients, name)
	}
	r.clientsMu.Unlock()

	if ok {
		if err := client.Disconnect(); err != nil {
			r.logger.Warn("error disconnecting provider", "provider", name, "error", err)
		}
	}

	prefix := name + QualifiedNameSeparator
	r.toolsMu.Lock()
	for qualified, tool := range r.tools {
		if tool.ProviderName == name {
			delete(r.tools, qualified)
		}
	}
	for alias, qualified := range r.aliases {
		if strings.HasPrefix(qualified, prefix) {
			delete(r.aliases, alias)
		}
	}
	r.toolsMu.Unlock()

	r.logger.Info("removed mcp provider", "provider", name)
}

// LookupTool resolves name as a qualified name first, then as an alias.
func (r *Registry) LookupTool(name string) (RegisteredTool, bool) {
	r.toolsMu.RLock()
	defer r.toolsMu.RUnlock()

	if tool, ok := r.tools[name]; ok {
		return tool, true
	}
	if qualified, ok := r.aliases[name]; ok {
		if tool, ok := r.tools[qualified]; ok {
			return tool, true
		}
	}
	return RegisteredTool{}, false
}

// HasTool reports whether name resolves to a registered tool.
func (r *Registry) HasTool(name string) bool {
	_, ok := r.LookupTool(name)
	return ok
}

// CallTool resolves name, invokes it on its owning provider's client
// using the tool's short name, and flattens the MCP content array into
// a plain JSON-able value: a single content element unwraps to the bare
// value, multiple elements become an array. The clients lock is held
// for the duration of the call, a deliberate simplification that trades
// throughput for never calling into a client concurrently with its own
// removal.
func (r *Registry) CallTool(ctx context.Context, name string, arguments any) (any, error) {
	tool, ok := r.LookupTool(name)
	if !ok {
		return nil, internalerrors.New("mcpregistry", "CallTool", internalerrors.ErrNotFound, ErrToolNotFound).
			WithContext("tool", name)
	}

	r.clientsMu.Lock()
	defer r.clientsMu.Unlock()

	client, ok := r.clients[tool.ProviderName]
	if !ok {
		return nil, internalerrors.New("mcpregistry", "CallTool", internalerrors.ErrNotFound, ErrServerNotConnected).
			WithContext("provider", tool.ProviderName)
	}

	result, err := client.CallTool(ctx, tool.Tool.Name, arguments)
	if err != nil {
		return nil, internalerrors.New("mcpregistry", "CallTool", internalerrors.ErrInternal, err).
			WithContext("tool", name)
	}

	return flattenContent(result.Content), nil
}

// flattenContent converts an MCP content array into plain JSON values:
// text becomes a string, image/resource become small objects. A single
// element unwraps to the bare value rather than a one-element array.
func flattenContent(content []ToolContent) any {
	values := make([]any, 0, len(content))
	for _, c := range content {
		switch v := c.(type) {
		case TextContent:
			values = append(values, v.Text)
		case ImageContent:
			values = append(values, map[string]any{
				"type":     "image",
				"data":     v.Data,
				"mimeType": v.MimeType,
			})
		case ResourceContent:
			values = append(values, map[string]any{
				"type":     "resource",
				"uri":      v.Resource.URI,
				"mimeType": v.Resource.MimeType,
				"text":     v.Resource.Text,
			})
		default:
			values = append(values, fmt.Sprintf("%v", v))
		}
	}

	if len(values) == 1 {
		return values[0]
	}
	return values
}

// ListToolNames returns every registered tool's qualified name.
func (r *Registry) ListToolNames() []string {
	r.toolsMu.RLock()
	defer r.toolsMu.RUnlock()

	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ListProviders returns the names of every connected provider.
func (r *Registry) ListProviders() []string {
	r.clientsMu.RLock()
	defer r.clientsMu.RUnlock()

	names := make([]string, 0, len(r.clients))
	for name := range r.clients {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RefreshTools re-fetches the tool list from every connected provider,
// replacing the entire tools/aliases table. A provider that fails to
// respond is logged and simply contributes no tools this round.
func (r *Registry) RefreshTools(ctx context.Context) {
	r.clientsMu.RLock()
	clients := make([]*Client, 0, len(r.clients))
	for _, c := range r.clients {
		clients = append(clients, c)
	}
	r.clientsMu.RUnlock()

	r.toolsMu.Lock()
	r.tools = make(map[string]RegisteredTool)
	r.aliases = make(map[string]string)
	r.toolsMu.Unlock()

	for _, client := range clients {
		if err := client.RefreshTools(ctx); err != nil {
			r.logger.Warn("failed to refresh tools from provider", "provider", client.Name(), "error", err)
			continue
		}
		r.registerTools(client.Name(), client.Tools())
	}
}

// Shutdown disconnects every provider and clears the registry.
func (r *Registry) Shutdown() {
	r.clientsMu.Lock()
	clients := r.clients
	r.clients = make(map[string]*Client)
	r.clientsMu.Unlock()

	for name, client := range clients {
		r.logger.Info("disconnecting mcp provider", "provider", name)
		if err := client.Disconnect(); err != nil {
			r.logger.Warn("error disconnecting provider", "provider", name, "error", err)
		}
	}

	r.toolsMu.Lock()
	r.tools = make(map[string]RegisteredTool)
	r.aliases = make(map[string]string)
	r.toolsMu.Unlock()
}
