// Package rpc provides a resilient JSON-RPC client for EVM chains.
//
// A Client is bound to one chain. It builds one HTTP transport per candidate
// endpoint from the registry and runs every call through a
// routing.ResilientTransport, which classifies failures, rotates endpoints
// and records cooldowns in a shared store.
//
// # Quick Start
//
//	reg := registry.NewDefault()
//	store := cooldown.NewMemoryStore()
//
//	client, err := rpc.NewClient(ctx, domain.ChainIDEthereum, reg, store, rpc.ClientConfig{
//	    Retry: rpc.DefaultRetryConfig,
//	})
//
//	result, err := client.Call(ctx, "eth_blockNumber", nil)
//
// # Package Structure
//
//   - provider/ - single-endpoint HTTP transport, typed errors, monitoring
//   - routing/  - error classification, retry and rotation
//   - registry/ - curated and configured endpoints per chain
//   - cooldown/ - failure cooldown stores (memory, Redis)
//
// Most types are re-exported at the root level for convenience.
package rpc

import (
	"time"

	"github.com/vietddude/chainreader/internal/infra/rpc/provider"
	"github.com/vietddude/chainreader/internal/infra/rpc/routing"
)

// Transport is a single JSON-RPC endpoint.
type Transport = provider.Transport

// HTTPProvider implements Transport for JSON-RPC over HTTP.
type HTTPProvider = provider.HTTPProvider

// HealthStatus represents the health state of an endpoint.
type HealthStatus = provider.HealthStatus

// Operation represents an RPC operation to execute.
type Operation = provider.Operation

// RetryConfig defines retry behavior.
type RetryConfig = routing.RetryConfig

// ExhaustedError is returned when all endpoints failed.
type ExhaustedError = routing.ExhaustedError

// EndpointStatus is a point-in-time view of one endpoint.
type EndpointStatus = routing.EndpointStatus

// DefaultRetryConfig provides sensible retry defaults.
var DefaultRetryConfig = routing.DefaultRetryConfig

// Sentinel errors.
var (
	ErrNoEndpointsConfigured = provider.ErrNoEndpointsConfigured
	ErrAllEndpointsExhausted = provider.ErrAllEndpointsExhausted
	ErrChainIDMismatch       = provider.ErrChainIDMismatch
	ErrEmptyData             = provider.ErrEmptyData
)

// NewHTTPProvider creates a new HTTP-based RPC provider.
func NewHTTPProvider(name, endpoint string, timeout time.Duration) *HTTPProvider {
	return provider.NewHTTPProvider(name, endpoint, timeout)
}

// ClassifyError re-exports routing.ClassifyError.
var ClassifyError = routing.ClassifyError

// OnlyEmptyData re-exports routing.OnlyEmptyData.
var OnlyEmptyData = routing.OnlyEmptyData
