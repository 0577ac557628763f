// Package handlers provides HTTP handlers for the MCP server.
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/jamesprial/mcp-oauth-2.1/internal/mcp"
	"github.com/jamesprial/mcp-oauth-2.1/internal/transport/transportcore"
	pkgoauth "github.com/jamesprial/mcp-oauth-2.1/pkg/oauth"
)

// mcpToolInfo describes one registered tool for the status endpoint.
type mcpToolInfo struct {
	Name        string `json:"name"`
	Server      string `json:"server"`
	Description string `json:"description,omitempty"`
}

// mcpStatusResponse is the body returned by the status and reload endpoints.
type mcpStatusResponse struct {
	Enabled bool          `json:"enabled"`
	Servers []string      `json:"servers"`
	Tools   []mcpToolInfo `json:"tools"`
}

// mcpCallToolRequest is the body expected by the call endpoint.
type mcpCallToolRequest struct {
	Tool      string `json:"tool"`
	Arguments any    `json:"arguments"`
}

// mcpCallToolResponse is the body returned by the call endpoint. Exactly
// one of Result and Error is populated, matching Success.
type mcpCallToolResponse struct {
	Success bool   `json:"success"`
	Result  any    `json:"result,omitempty"`
	Error   string `json:"error,omitempty"`
}

// mcpHealthResponse is the body returned by the health endpoint.
type mcpHealthResponse struct {
	Healthy    bool `json:"healthy"`
	MCPEnabled bool `json:"mcp_enabled"`
}

// mcpHandler exposes the MCP integration core over HTTP. Unlike the rest
// of the transport layer it does not speak JSON-RPC: each endpoint has
// its own small request/response shape, and MCP-level failures (an
// unknown tool, a provider error) are reported as a 200 response with
// success=false rather than an HTTP error status. A request with the
// wrong method gets a bare 405 with an Allow header, and responder is
// only consulted for a call body that cannot be decoded (400).
type mcpHandler struct {
	global    *mcp.Global
	responder transportcore.ErrorResponder
}

// newMCPHandler creates a handler backed by global.
func newMCPHandler(global *mcp.Global, responder transportcore.ErrorResponder) *mcpHandler {
	if global == nil {
		panic("global cannot be nil")
	}
	if responder == nil {
		panic("responder cannot be nil")
	}

	return &mcpHandler{global: global, responder: responder}
}

func (h *mcpHandler) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set(pkgoauth.HeaderContentType, pkgoauth.ContentTypeJSON)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to encode mcp response", "error", err)
	}
}

func (h *mcpHandler) buildStatus() mcpStatusResponse {
	router := h.global.Router()
	enabled := router.IsEnabled()

	servers := h.global.ListProviders()
	var tools []mcpToolInfo
	if enabled {
		for _, name := range h.global.ListTools() {
			tool, ok := router.Registry().LookupTool(name)
			if !ok {
				continue
			}
			tools = append(tools, mcpToolInfo{
				Name:        tool.QualifiedName,
				Server:      tool.ProviderName,
				Description: tool.Tool.Description,
			})
		}
	}

	return mcpStatusResponse{Enabled: enabled, Servers: servers, Tools: tools}
}

// Status serves GET /mcp/status.
func (h *mcpHandler) Status(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	h.writeJSON(w, http.StatusOK, h.buildStatus())
}

// Call serves POST /mcp/call.
func (h *mcpHandler) Call(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req mcpCallToolRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.BadRequest(w, err)
		return
	}

	router := h.global.Router()
	if !router.IsEnabled() {
		h.writeJSON(w, http.StatusOK, mcpCallToolResponse{
			Success: false,
			Error:   "MCP is not enabled",
		})
		return
	}

	result, err, handled := router.ExecuteIfMCP(r.Context(), req.Tool, req.Arguments)
	if !handled {
		h.writeJSON(w, http.StatusOK, mcpCallToolResponse{
			Success: false,
			Error:   "tool '" + req.Tool + "' not found in mcp registry",
		})
		return
	}
	if err != nil {
		h.writeJSON(w, http.StatusOK, mcpCallToolResponse{
			Success: false,
			Error:   err.Error(),
		})
		return
	}

	h.writeJSON(w, http.StatusOK, mcpCallToolResponse{Success: true, Result: result})
}

// Reload serves POST /mcp/reload.
func (h *mcpHandler) Reload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	h.global.Reload(r.Context())
	h.writeJSON(w, http.StatusOK, h.buildStatus())
}

// Health serves GET /mcp/health.
func (h *mcpHandler) Health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	h.writeJSON(w, http.StatusOK, mcpHealthResponse{
		Healthy:    h.global.HasTools(),
		MCPEnabled: h.global.Router().IsEnabled(),
	})
}

// MCPRoutes is the set of independently mountable MCP endpoint handlers,
// sharing one underlying view of global.
type MCPRoutes struct {
	Status http.Handler
	Call   http.Handler
	Reload http.Handler
	Health http.Handler
}

// NewMCPRoutes builds the four MCP endpoint handlers.
func NewMCPRoutes(global *mcp.Global, responder transportcore.ErrorResponder) MCPRoutes {
	h := newMCPHandler(global, responder)
	return MCPRoutes{
		Status: http.HandlerFunc(h.Status),
		Call:   http.HandlerFunc(h.Call),
		Reload: http.HandlerFunc(h.Reload),
		Health: http.HandlerFunc(h.Health),
	}
}
