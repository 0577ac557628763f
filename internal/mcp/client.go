package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/google/uuid"

	internalerrors "github.com/jamesprial/mcp-oauth-2.1/internal/errors"
)

// processKillGrace is how long Disconnect waits after SIGTERM before
// escalating to SIGKILL.
const processKillGrace = 5 * time.Second

// clientName/clientVersion identify this aggregator to every provider
// it initializes with.
const (
	clientName    = "mcp-gateway"
	clientVersion = "1.0.0"
)

// Client drives a single MCP provider over its stdio. One Client exists
// per configured provider for the lifetime of its process.
type Client struct {
	name   string
	config ProviderConfig
	logger *slog.Logger

	requestID atomic.Int64

	mu          sync.RWMutex
	initialized bool
	tools       []Tool
	serverInfo  ServerInfo

	procMu  sync.Mutex
	cmd     *exec.Cmd
	stdin   io.WriteCloser
	started bool
	connID  string

	pendingMu sync.Mutex
	pending   map[string]chan *Response
}

// NewClient creates a Client for the given provider configuration. The
// process is not started until Connect is called.
func NewClient(config ProviderConfig, logger *slog.Logger) *Client {
	config.applyDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		name:    config.Name,
		config:  config,
		logger:  logger,
		pending: make(map[string]chan *Response),
	}
}

// Name returns the provider's configured name.
func (c *Client) Name() string {
	return c.name
}

// IsInitialized reports whether the initialize handshake has completed.
func (c *Client) IsInitialized() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.initialized
}

// ServerInfo returns the provider's self-reported identity. Valid only
// after Connect has completed.
func (c *Client) ServerInfo() ServerInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.serverInfo
}

// Tools returns the most recently fetched tool list for this provider.
func (c *Client) Tools() []Tool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tools
}

// Connect spawns the provider process, starts its response reader, and
// performs the initialize handshake. Calling Connect on an already
// connected client is a no-op.
func (c *Client) Connect(ctx context.Context) error {
	c.procMu.Lock()
	if c.started {
		c.procMu.Unlock()
		return nil
	}

	if c.config.Command == "" {
		c.procMu.Unlock()
		return internalerrors.New("mcpclient", "Connect", internalerrors.ErrBadRequest, ErrInvalidResponse).
			WithContext("provider", c.name)
	}

	cmd := exec.CommandContext(ctx, c.config.Command, c.config.Args...)
	cmd.Env = mergeEnv(os.Environ(), c.config.Env)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		c.procMu.Unlock()
		return internalerrors.New("mcpclient", "Connect", internalerrors.ErrInternal, fmt.Errorf("%w: %v", ErrInvalidResponse, err)).
			WithContext("provider", c.name)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		stdin.Close()
		c.procMu.Unlock()
		return internalerrors.New("mcpclient", "Connect", internalerrors.ErrInternal, fmt.Errorf("%w: %v", ErrInvalidResponse, err)).
			WithContext("provider", c.name)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		cmd.Stderr = nil
	}

	if err := cmd.Start(); err != nil {
		stdin.Close()
		c.procMu.Unlock()
		return internalerrors.New("mcpclient", "Connect", internalerrors.ErrInternal, fmt.Errorf("%w: %v", ErrSpawnFailed, err)).
			WithContext("provider", c.name)
	}

	c.cmd = cmd
	c.stdin = stdin
	c.started = true
	c.connID = uuid.NewString()
	connID := c.connID
	c.procMu.Unlock()

	if stderr != nil {
		go c.readStderr(stderr, connID)
	}
	go c.readResponses(stdout, connID)

	c.logger.Info("mcp provider connected", "provider", c.name, "conn_id", connID, "command", c.config.Command)

	if err := c.initialize(ctx); err != nil {
		return err
	}
	return nil
}

func mergeEnv(base []string, extra map[string]string) []string {
	env := make([]string, len(base), len(base)+len(extra))
	copy(env, base)
	for k, v := range extra {
		env = append(env, fmt.Sprintf("%s=%s", k, v))
	}
	return env
}

// initialize performs the initialize/notifications-initialized
// handshake. It is called once, from Connect.
func (c *Client) initialize(ctx context.Context) error {
	params := DefaultInitializeParams(clientName, clientVersion)

	var result InitializeResult
	if err := c.callAllowingUninitialized(ctx, "initialize", params, &result); err != nil {
		return internalerrors.New("mcpclient", "Initialize", internalerrors.ErrInternal, err).
			WithContext("provider", c.name)
	}

	c.mu.Lock()
	c.initialized = true
	c.serverInfo = result.ServerInfo
	c.mu.Unlock()

	c.logger.Info("mcp provider initialized",
		"provider", c.name,
		"server_name", result.ServerInfo.Name,
		"server_version", result.ServerInfo.Version,
		"protocol_version", result.ProtocolVersion,
	)

	if err := c.notify(ctx, "notifications/initialized", nil); err != nil {
		c.logger.Warn("failed to send initialized notification", "provider", c.name, "error", err)
	}
	return nil
}

// RefreshTools fetches the provider's current tool list via tools/list
// and caches it.
func (c *Client) RefreshTools(ctx context.Context) error {
	var result ListToolsResult
	if err := c.call(ctx, "tools/list", nil, &result); err != nil {
		return internalerrors.New("mcpclient", "RefreshTools", internalerrors.ErrInternal, err).
			WithContext("provider", c.name)
	}
	c.mu.Lock()
	c.tools = result.Tools
	c.mu.Unlock()
	return nil
}

// CallTool invokes a tool by its short (provider-local) name.
func (c *Client) CallTool(ctx context.Context, name string, arguments any) (*CallToolResult, error) {
	var result CallToolResult
	if err := c.call(ctx, "tools/call", CallToolParams{Name: name, Arguments: arguments}, &result); err != nil {
		return nil, internalerrors.New("mcpclient", "CallTool", internalerrors.ErrInternal, err).
			WithContext("provider", c.name).
			WithContext("tool", name)
	}
	return &result, nil
}

// Disconnect terminates the provider process, sending SIGTERM first and
// escalating to SIGKILL if it has not exited within processKillGrace.
// It is safe to call on a client that was never connected.
func (c *Client) Disconnect() error {
	c.procMu.Lock()
	defer c.procMu.Unlock()

	if c.cmd == nil || c.cmd.Process == nil {
		return nil
	}

	if c.stdin != nil {
		c.stdin.Close()
	}

	if err := c.cmd.Process.Signal(syscall.SIGTERM); err != nil {
		c.mu.Lock()
		c.initialized = false
		c.mu.Unlock()
		return nil
	}

	done := make(chan error, 1)
	go func() { done <- c.cmd.Wait() }()

	select {
	case <-done:
	case <-time.After(processKillGrace):
		_ = c.cmd.Process.Kill()
		<-done
	}

	c.mu.Lock()
	c.initialized = false
	c.mu.Unlock()

	c.logger.Info("mcp provider disconnected", "provider", c.name, "conn_id", c.connID)
	return nil
}

// call sends a request and blocks until a matching response arrives, the
// provider's configured timeout elapses, or ctx is cancelled.
func (c *Client) call(ctx context.Context, method string, params any, result any) error {
	c.mu.RLock()
	initialized := c.initialized
	c.mu.RUnlock()
	if !initialized && method != "initialize" {
		return ErrNotInitialized
	}
	return c.callAllowingUninitialized(ctx, method, params, result)
}

func (c *Client) callAllowingUninitialized(ctx context.Context, method string, params any, result any) error {
	id := NewNumberID(c.requestID.Add(1))

	var paramsBytes json.RawMessage
	if params != nil {
		b, err := json.Marshal(params)
		if err != nil {
			return fmt.Errorf("marshaling params: %w", err)
		}
		paramsBytes = b
	}

	req := Request{JSONRPC: JSONRPCVersion, ID: id, Method: method, Params: paramsBytes}

	respCh := make(chan *Response, 1)
	key := id.key()
	c.pendingMu.Lock()
	c.pending[key] = respCh
	c.pendingMu.Unlock()

	c.logger.Debug("sending mcp request", "provider", c.name, "method", method, "id", id.String())

	if err := c.send(req); err != nil {
		c.pendingMu.Lock()
		delete(c.pending, key)
		c.pendingMu.Unlock()
		return fmt.Errorf("%w: %v", ErrConnectionClosed, err)
	}

	timeout := time.NewTimer(time.Duration(c.config.TimeoutMillis) * time.Millisecond)
	defer timeout.Stop()

	select {
	case <-ctx.Done():
		c.pendingMu.Lock()
		delete(c.pending, key)
		c.pendingMu.Unlock()
		return ErrCancelled
	case <-timeout.C:
		c.pendingMu.Lock()
		delete(c.pending, key)
		c.pendingMu.Unlock()
		c.logger.Debug("mcp request timed out", "provider", c.name, "method", method, "id", id.String())
		return ErrTimeout
	case resp, ok := <-respCh:
		if !ok {
			return ErrCancelled
		}
		if resp.Error != nil {
			return fmt.Errorf("%w: %s", ErrServerError, resp.Error.Error())
		}
		if result != nil && len(resp.Result) > 0 {
			if err := json.Unmarshal(resp.Result, result); err != nil {
				return fmt.Errorf("unmarshaling result: %w", err)
			}
		}
		return nil
	}
}

// notify sends a JSON-RPC notification; no response is expected.
func (c *Client) notify(ctx context.Context, method string, params any) error {
	var paramsBytes json.RawMessage
	if params != nil {
		b, err := json.Marshal(params)
		if err != nil {
			return fmt.Errorf("marshaling params: %w", err)
		}
		paramsBytes = b
	}
	return c.send(Notification{JSONRPC: JSONRPCVersion, Method: method, Params: paramsBytes})
}

// send writes one JSON value followed by a newline to the provider's stdin.
func (c *Client) send(v any) error {
	c.procMu.Lock()
	defer c.procMu.Unlock()

	if !c.started || c.stdin == nil {
		return ErrConnectionClosed
	}

	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}
	data = append(data, '\n')
	if _, err := c.stdin.Write(data); err != nil {
		return fmt.Errorf("writing to stdin: %w", err)
	}
	return nil
}

// readResponses scans newline-delimited JSON-RPC traffic from the
// provider's stdout and routes responses to their waiting caller. Lines
// that don't parse as a Response (server logging, notifications) are
// logged at debug and skipped, per the lenient-parser requirement.
// When stdout closes, every still-pending request is drained with a
// closed channel so no caller hangs forever.
func (c *Client) readResponses(stdout io.Reader, connID string) {
	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var resp Response
		if err := json.Unmarshal(line, &resp); err != nil {
			c.logger.Debug("mcp provider output", "provider", c.name, "conn_id", connID, "line", string(line))
			continue
		}

		key := resp.ID.key()
		c.pendingMu.Lock()
		ch, ok := c.pending[key]
		if ok {
			delete(c.pending, key)
		}
		c.pendingMu.Unlock()
		if ok {
			ch <- &resp
		}
	}

	c.pendingMu.Lock()
	for id, ch := range c.pending {
		close(ch)
		delete(c.pending, id)
	}
	c.pendingMu.Unlock()
}

// readStderr logs each line of a provider's stderr at warn level, giving
// operators visibility into misbehaving providers without treating
// diagnostic output as protocol traffic.
func (c *Client) readStderr(stderr io.Reader, connID string) {
	scanner := bufio.NewScanner(stderr)
	for scanner.Scan() {
		c.logger.Warn("mcp provider stderr", "provider", c.name, "conn_id", connID, "output", scanner.Text())
	}
}
