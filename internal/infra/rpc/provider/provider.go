// Package provider implements single-endpoint JSON-RPC transports.
//
// This package contains:
//   - Transport interface: one call against one endpoint, no retries
//   - HTTPProvider: JSON-RPC 2.0 over HTTP(S)
//   - ProviderMonitor: latency and throttle tracking per endpoint
//   - Typed errors consumed by the routing classifier
package provider

import (
	"context"
	"encoding/json"
	"time"
)

// Operation represents an RPC operation to execute.
type Operation struct {
	// Name is the JSON-RPC method (e.g., "eth_blockNumber", "eth_getLogs")
	Name string

	// Params are sent positionally. Nil is sent as an empty array.
	Params []any

	// Validate inspects a successful result before it is accepted.
	// A non-nil error makes the attempt count as failed for that endpoint,
	// so bogus payloads go through classification like transport errors.
	Validate func(result json.RawMessage) error
}

// Transport performs a single call against a single endpoint.
// Implementations must not retry or rotate; that is the caller's policy.
type Transport interface {
	// GetName returns a log-safe label for the endpoint
	GetName() string

	// Endpoint returns the full endpoint URL, used as the cooldown key
	Endpoint() string

	// Call makes a single JSON-RPC request and returns the raw result
	Call(ctx context.Context, method string, params []any) (json.RawMessage, error)

	// Close cleans up resources
	Close() error
}

// HealthStatus represents the observed health of an endpoint.
type HealthStatus struct {
	Available     bool          `json:"available"`
	Latency       time.Duration `json:"latency"`
	ErrorRate     float64       `json:"error_rate"`
	LastSuccessAt time.Time     `json:"last_success_at"`
	LastFailureAt time.Time     `json:"last_failure_at"`
	MonitorStats  *MonitorStats `json:"monitor_stats,omitempty"`
}
