// Package handlers provides HTTP handlers for the MCP server.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jamesprial/mcp-oauth-2.1/internal/mcp"
	"github.com/jamesprial/mcp-oauth-2.1/internal/transport/internal/mocks"
)

func newDisabledGlobal() *mcp.Global {
	g := mcp.NewGlobal()
	g.Init(context.Background(), mcp.GlobalConfig{Enabled: false})
	return g
}

func TestMCPRoutes_StatusDisabled(t *testing.T) {
	t.Parallel()

	routes := NewMCPRoutes(newDisabledGlobal(), &mocks.ErrorResponder{})

	req := httptest.NewRequest(http.MethodGet, "/mcp/status", nil)
	w := httptest.NewRecorder()
	routes.Status.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status code = %v, want 200", w.Code)
	}

	var body mcpStatusResponse
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Enabled {
		t.Error("Enabled = true, want false for a disabled router")
	}
	if len(body.Tools) != 0 {
		t.Errorf("Tools = %v, want empty", body.Tools)
	}
}

func TestMCPRoutes_StatusWrongMethod(t *testing.T) {
	t.Parallel()

	routes := NewMCPRoutes(newDisabledGlobal(), &mocks.ErrorResponder{})

	req := httptest.NewRequest(http.MethodPost, "/mcp/status", nil)
	w := httptest.NewRecorder()
	routes.Status.ServeHTTP(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("status code = %v, want 405", w.Code)
	}
}

func TestMCPRoutes_CallDisabled(t *testing.T) {
	t.Parallel()

	routes := NewMCPRoutes(newDisabledGlobal(), &mocks.ErrorResponder{})

	body := `{"tool":"anything","arguments":{}}`
	req := httptest.NewRequest(http.MethodPost, "/mcp/call", strings.NewReader(body))
	w := httptest.NewRecorder()
	routes.Call.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status code = %v, want 200", w.Code)
	}

	var resp mcpCallToolResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Success {
		t.Error("Success = true, want false when MCP is disabled")
	}
	if resp.Error == "" {
		t.Error("Error should be set when MCP is disabled")
	}
}

func TestMCPRoutes_CallUnknownTool(t *testing.T) {
	t.Parallel()

	global := mcp.NewGlobal()
	global.Init(context.Background(), mcp.GlobalConfig{Enabled: true})

	routes := NewMCPRoutes(global, &mocks.ErrorResponder{})

	body := `{"tool":"nosuchprovider::nosuchtool","arguments":{}}`
	req := httptest.NewRequest(http.MethodPost, "/mcp/call", strings.NewReader(body))
	w := httptest.NewRecorder()
	routes.Call.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status code = %v, want 200", w.Code)
	}

	var resp mcpCallToolResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Success {
		t.Error("Success = true, want false for an unregistered tool")
	}
}

func TestMCPRoutes_CallInvalidJSON(t *testing.T) {
	t.Parallel()

	responder := &mocks.ErrorResponder{}
	routes := NewMCPRoutes(newDisabledGlobal(), responder)

	req := httptest.NewRequest(http.MethodPost, "/mcp/call", strings.NewReader("not json"))
	w := httptest.NewRecorder()
	routes.Call.ServeHTTP(w, req)

	if !responder.BadRequestCalled {
		t.Error("expected BadRequest to be called for invalid JSON")
	}
}

func TestMCPRoutes_CallWrongMethod(t *testing.T) {
	t.Parallel()

	routes := NewMCPRoutes(newDisabledGlobal(), &mocks.ErrorResponder{})

	req := httptest.NewRequest(http.MethodGet, "/mcp/call", nil)
	w := httptest.NewRecorder()
	routes.Call.ServeHTTP(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("status code = %v, want 405", w.Code)
	}
}

func TestMCPRoutes_Reload(t *testing.T) {
	t.Parallel()

	routes := NewMCPRoutes(newDisabledGlobal(), &mocks.ErrorResponder{})

	req := httptest.NewRequest(http.MethodPost, "/mcp/reload", nil)
	w := httptest.NewRecorder()
	routes.Reload.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status code = %v, want 200", w.Code)
	}

	var body mcpStatusResponse
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
}

func TestMCPRoutes_HealthDisabled(t *testing.T) {
	t.Parallel()

	routes := NewMCPRoutes(newDisabledGlobal(), &mocks.ErrorResponder{})

	req := httptest.NewRequest(http.MethodGet, "/mcp/health", nil)
	w := httptest.NewRecorder()
	routes.Health.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status code = %v, want 200", w.Code)
	}

	var body mcpHealthResponse
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Healthy {
		t.Error("Healthy = true, want false when there are no tools")
	}
	if body.MCPEnabled {
		t.Error("MCPEnabled = true, want false for a disabled router")
	}
}

func TestMCPRoutes_HealthWrongMethod(t *testing.T) {
	t.Parallel()

	routes := NewMCPRoutes(newDisabledGlobal(), &mocks.ErrorResponder{})

	req := httptest.NewRequest(http.MethodPost, "/mcp/health", nil)
	w := httptest.NewRecorder()
	routes.Health.ServeHTTP(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("status code = %v, want 405", w.Code)
	}
}
