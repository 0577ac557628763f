package mcp

import "errors"

// Sentinel errors for MCP client/registry/router operations.
// These are used for error identification and testing. For creating
// domain errors with context, wrap these with DomainError from
// internal/errors.
var (
	// ErrSpawnFailed indicates the provider process could not be started.
	ErrSpawnFailed = errors.New("failed to spawn provider process")

	// ErrInvalidResponse indicates a provider sent a response this client
	// could not interpret, or a required field (stdin/stdout, command) is
	// missing.
	ErrInvalidResponse = errors.New("invalid response")

	// ErrServerError indicates the provider returned a JSON-RPC error object.
	ErrServerError = errors.New("server returned error")

	// ErrTimeout indicates no response arrived before the request's deadline.
	ErrTimeout = errors.New("timeout waiting for response")

	// ErrConnectionClosed indicates the provider's stdin/stdout is no longer usable.
	ErrConnectionClosed = errors.New("connection closed")

	// ErrCancelled indicates the request's context was cancelled before a
	// response arrived, or the provider's output closed while the request
	// was still pending.
	ErrCancelled = errors.New("request cancelled")

	// ErrNotInitialized indicates a method other than "initialize" was
	// attempted before the initialize handshake completed.
	ErrNotInitialized = errors.New("server not initialized")

	// ErrAlreadyConnected indicates Connect was called on a client that is
	// already connected; it is a no-op, not an error, but the sentinel
	// exists for callers that want to distinguish it in logs.
	ErrAlreadyConnected = errors.New("already connected")

	// ErrToolNotFound indicates the requested tool has no registered owner.
	ErrToolNotFound = errors.New("tool not found")

	// ErrServerNotConnected indicates a tool resolved to a provider that is
	// no longer present in the registry's client table.
	ErrServerNotConnected = errors.New("provider not connected")
)
