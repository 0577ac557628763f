package mcp

import (
	"encoding/json"
	"fmt"
)

// ProviderConfig describes one MCP tool provider to spawn and connect to.
type ProviderConfig struct {
	// Name uniquely identifies this provider within the registry. It is
	// the left-hand side of every tool's qualified name.
	Name string `json:"name"`

	// Command is the executable to run for stdio transport.
	Command string `json:"command,omitempty"`

	// Args are the command's arguments.
	Args []string `json:"args,omitempty"`

	// Env holds additional environment variables merged into the
	// spawned process's environment (which otherwise inherits this
	// process's own).
	Env map[string]string `json:"env,omitempty"`

	// URL is reserved for a future HTTP/SSE transport. It is accepted
	// and preserved but never consumed; only Command-based stdio
	// transport is implemented.
	URL string `json:"url,omitempty"`

	// Enabled controls whether the registry connects to this provider
	// at all. Defaults to true.
	Enabled bool `json:"enabled"`

	// TimeoutMillis bounds how long a single request may wait for a
	// response before the client gives up. Defaults to 30000.
	TimeoutMillis int64 `json:"timeout_ms"`
}

const defaultProviderTimeoutMillis = 30000

// applyDefaults fills in zero-valued optional fields the way
// McpServerConfig's serde defaults do in the original implementation.
func (c *ProviderConfig) applyDefaults() {
	if c.TimeoutMillis <= 0 {
		c.TimeoutMillis = defaultProviderTimeoutMillis
	}
}

// providerConfigWire mirrors ProviderConfig but lets UnmarshalJSON tell
// an absent "enabled" field apart from an explicit `false`, so the
// enabled-by-default behavior of the original McpServerConfig survives
// the port to Go (whose zero value for bool is false, not true).
type providerConfigWire struct {
	Name          string            `json:"name"`
	Command       string            `json:"command,omitempty"`
	Args          []string          `json:"args,omitempty"`
	Env           map[string]string `json:"env,omitempty"`
	URL           string            `json:"url,omitempty"`
	Enabled       *bool             `json:"enabled,omitempty"`
	TimeoutMillis int64             `json:"timeout_ms,omitempty"`
}

// UnmarshalJSON defaults Enabled to true when the field is absent.
func (c *ProviderConfig) UnmarshalJSON(data []byte) error {
	var wire providerConfigWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	*c = ProviderConfig{
		Name:          wire.Name,
		Command:       wire.Command,
		Args:          wire.Args,
		Env:           wire.Env,
		URL:           wire.URL,
		Enabled:       true,
		TimeoutMillis: wire.TimeoutMillis,
	}
	if wire.Enabled != nil {
		c.Enabled = *wire.Enabled
	}
	c.applyDefaults()
	return nil
}

// Request is an MCP JSON-RPC 2.0 request sent to a provider.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      RequestId       `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// Notification is an MCP JSON-RPC 2.0 request with no id; providers must
// not reply to it.
type Notification struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// Response is an MCP JSON-RPC 2.0 response received from a provider.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      RequestId       `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *McpError       `json:"error,omitempty"`
}

// McpError is a JSON-RPC 2.0 error object as returned by a provider.
type McpError struct {
	Code    int64  `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func (e *McpError) Error() string {
	return fmt.Sprintf("mcp error %d: %s", e.Code, e.Message)
}

// Tool describes one tool offered by a provider, as returned from
// tools/list.
type Tool struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	InputSchema json.RawMessage `json:"inputSchema"`
}

// ListToolsResult is the result of a tools/list call.
type ListToolsResult struct {
	Tools      []Tool  `json:"tools"`
	NextCursor *string `json:"nextCursor,omitempty"`
}

// CallToolParams are the parameters of a tools/call request.
type CallToolParams struct {
	Name      string `json:"name"`
	Arguments any    `json:"arguments,omitempty"`
}

// CallToolResult is the result of a tools/call request.
type CallToolResult struct {
	Content []ToolContent `json:"content"`
	IsError *bool         `json:"isError,omitempty"`
}

// ToolContent is one element of a CallToolResult's content array. MCP
// encodes it as a struct tagged by its "type" field; rather than the
// single flat struct with every variant's fields inlined, it is
// represented here as a discriminated union (an interface implemented
// by one concrete type per variant), matching the shape of the
// original Rust `ToolContent` enum rather than a flat struct with
// unused fields per variant.
type ToolContent interface {
	contentType() string
}

// TextContent is a plain-text content block.
type TextContent struct {
	Text string
}

func (TextContent) contentType() string { return "text" }

// MarshalJSON renders the text variant with its discriminant tag.
func (c TextContent) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type string `json:"type"`
		Text string `json:"text"`
	}{Type: "text", Text: c.Text})
}

// ImageContent is a base64-encoded image content block.
type ImageContent struct {
	Data     string
	MimeType string
}

func (ImageContent) contentType() string { return "image" }

// MarshalJSON renders the image variant with its discriminant tag.
func (c ImageContent) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type     string `json:"type"`
		Data     string `json:"data"`
		MimeType string `json:"mimeType"`
	}{Type: "image", Data: c.Data, MimeType: c.MimeType})
}

// ResourceContent embeds a resource reference inside a tool result.
type ResourceContent struct {
	Resource EmbeddedResource
}

func (ResourceContent) contentType() string { return "resource" }

// MarshalJSON renders the resource variant with its discriminant tag.
func (c ResourceContent) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type     string          `json:"type"`
		Resource EmbeddedResource `json:"resource"`
	}{Type: "resource", Resource: c.Resource})
}

// EmbeddedResource is a resource reference carried inside tool content.
type EmbeddedResource struct {
	URI      string `json:"uri"`
	MimeType string `json:"mimeType,omitempty"`
	Text     string `json:"text,omitempty"`
	Blob     string `json:"blob,omitempty"`
}

// rawToolContent is the wire envelope used to sniff a content block's
// "type" tag before decoding it into its concrete variant.
type rawToolContent struct {
	Type     string           `json:"type"`
	Text     string           `json:"text,omitempty"`
	Data     string           `json:"data,omitempty"`
	MimeType string           `json:"mimeType,omitempty"`
	Resource EmbeddedResource `json:"resource,omitempty"`
}

// UnmarshalJSON decodes a heterogeneous content array by sniffing each
// element's "type" field, since encoding/json cannot populate an
// interface-typed slice element on its own.
func (r *CallToolResult) UnmarshalJSON(data []byte) error {
	var envelope struct {
		Content []rawToolContent `json:"content"`
		IsError *bool            `json:"isError,omitempty"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return err
	}

	content := make([]ToolContent, 0, len(envelope.Content))
	for _, raw := range envelope.Content {
		switch raw.Type {
		case "text":
			content = append(content, TextContent{Text: raw.Text})
		case "image":
			content = append(content, ImageContent{Data: raw.Data, MimeType: raw.MimeType})
		case "resource":
			content = append(content, ResourceContent{Resource: raw.Resource})
		default:
			return fmt.Errorf("mcp: unknown tool content type %q", raw.Type)
		}
	}

	r.Content = content
	r.IsError = envelope.IsError
	return nil
}

// RegisteredTool is a Tool attributed to the provider that offers it,
// together with its precomputed qualified name.
type RegisteredTool struct {
	ProviderName  string
	Tool          Tool
	QualifiedName string
}

// NewRegisteredTool builds a RegisteredTool for the given provider.
func NewRegisteredTool(providerName string, tool Tool) RegisteredTool {
	return RegisteredTool{
		ProviderName:  providerName,
		Tool:          tool,
		QualifiedName: QualifiedName(providerName, tool.Name),
	}
}

// ClientInfo describes this aggregator to a provider during initialize.
type ClientInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// ServerInfo describes a provider, as returned from initialize.
type ServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// ClientCapabilities describes what this aggregator supports as an MCP
// client.
type ClientCapabilities struct {
	Roots    *RootsCapability    `json:"roots,omitempty"`
	Sampling *SamplingCapability `json:"sampling,omitempty"`
}

// RootsCapability indicates workspace-roots support.
type RootsCapability struct {
	ListChanged bool `json:"listChanged,omitempty"`
}

// SamplingCapability indicates sampling support.
type SamplingCapability struct{}

// ServerCapabilities describes what a provider supports, as returned
// from initialize.
type ServerCapabilities struct {
	Tools     *ToolsCapability     `json:"tools,omitempty"`
	Resources *ResourcesCapability `json:"resources,omitempty"`
	Prompts   *PromptsCapability   `json:"prompts,omitempty"`
	Logging   *LoggingCapability   `json:"logging,omitempty"`
}

// ToolsCapability indicates tools support.
type ToolsCapability struct {
	ListChanged bool `json:"listChanged,omitempty"`
}

// ResourcesCapability indicates resources support. Unused by this
// aggregator (resources are out of scope) but preserved on the wire
// type since providers advertise it during initialize regardless.
type ResourcesCapability struct {
	Subscribe   bool `json:"subscribe,omitempty"`
	ListChanged bool `json:"listChanged,omitempty"`
}

// PromptsCapability indicates prompts support. Unused, see ResourcesCapability.
type PromptsCapability struct {
	ListChanged bool `json:"listChanged,omitempty"`
}

// LoggingCapability indicates logging support.
type LoggingCapability struct{}

// InitializeParams are the parameters this client sends with the
// initialize request.
type InitializeParams struct {
	ProtocolVersion string             `json:"protocolVersion"`
	Capabilities    ClientCapabilities `json:"capabilities"`
	ClientInfo      ClientInfo         `json:"clientInfo"`
}

// DefaultInitializeParams builds the InitializeParams this client sends
// to every provider it connects to.
func DefaultInitializeParams(clientName, clientVersion string) InitializeParams {
	return InitializeParams{
		ProtocolVersion: ProtocolVersion,
		Capabilities:    ClientCapabilities{},
		ClientInfo:      ClientInfo{Name: clientName, Version: clientVersion},
	}
}

// InitializeResult is the result of the initialize method, as returned
// by a provider.
type InitializeResult struct {
	ProtocolVersion string             `json:"protocolVersion"`
	Capabilities    ServerCapabilities `json:"capabilities"`
	ServerInfo      ServerInfo         `json:"serverInfo"`
	Instructions    string             `json:"instructions,omitempty"`
}
