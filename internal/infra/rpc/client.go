package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/vietddude/chainreader/internal/core/domain"
	"github.com/vietddude/chainreader/internal/infra/rpc/cooldown"
	"github.com/vietddude/chainreader/internal/infra/rpc/provider"
	"github.com/vietddude/chainreader/internal/infra/rpc/registry"
	"github.com/vietddude/chainreader/internal/infra/rpc/routing"
)

// Caller is what application layers depend on.
type Caller interface {
	Call(ctx context.Context, method string, params []any) (json.RawMessage, error)
	Execute(ctx context.Context, op Operation) (json.RawMessage, error)
}

// ClientConfig configures a Client.
type ClientConfig struct {
	Retry RetryConfig
	// Override is tried before the registry's endpoints.
	Override string
	Logger   *slog.Logger
}

// Client is the high-level interface for making RPC calls on one chain.
type Client struct {
	chainID   domain.ChainID
	transport *routing.ResilientTransport
}

// NewClient builds a client for chainID from the registry's candidates,
// keeping their priority order. Cooling endpoints are skipped per call.
func NewClient(
	ctx context.Context,
	chainID domain.ChainID,
	reg *registry.Registry,
	store cooldown.Store,
	cfg ClientConfig,
) (*Client, error) {
	urls, err := reg.Candidates(chainID, cfg.Override)
	if err != nil {
		return nil, err
	}

	retry := cfg.Retry.WithDefaults()

	transports := make([]provider.Transport, 0, len(urls))
	for _, u := range urls {
		transports = append(transports, provider.NewHTTPProvider("", u, retry.CallTimeout))
	}

	return NewClientWithTransports(chainID, transports, store, retry, routing.WithLogger(cfg.Logger))
}

// NewClientWithTransports builds a client over explicit transports.
func NewClientWithTransports(
	chainID domain.ChainID,
	transports []Transport,
	store cooldown.Store,
	retry RetryConfig,
	opts ...routing.Option,
) (*Client, error) {
	rt, err := routing.NewResilientTransport(chainID, transports, store, retry, opts...)
	if err != nil {
		return nil, err
	}
	return &Client{chainID: chainID, transport: rt}, nil
}

// ChainID returns the chain this client reads from.
func (c *Client) ChainID() domain.ChainID {
	return c.chainID
}

// Call makes an RPC call with automatic failover and retry.
func (c *Client) Call(ctx context.Context, method string, params []any) (json.RawMessage, error) {
	return c.transport.Call(ctx, method, params)
}

// Execute runs op with automatic failover and retry.
func (c *Client) Execute(ctx context.Context, op Operation) (json.RawMessage, error) {
	return c.transport.Execute(ctx, op)
}

// Endpoints returns endpoint names in priority order.
func (c *Client) Endpoints() []string {
	return c.transport.Endpoints()
}

// Status reports cooldown and health for every endpoint.
func (c *Client) Status(ctx context.Context) []EndpointStatus {
	return c.transport.Status(ctx)
}

// Close releases idle connections.
func (c *Client) Close() error {
	return c.transport.Close()
}

// Dashboard returns a formatted per-endpoint summary.
func (c *Client) Dashboard(ctx context.Context) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("\n=== RPC Endpoints (Chain: %s %s) ===\n\n", c.chainID, c.chainID.Name()))

	for _, st := range c.Status(ctx) {
		state := "ready"
		if st.InCooldown {
			state = "cooling down"
		}
		sb.WriteString(fmt.Sprintf("Endpoint: %s\n", st.Name))
		sb.WriteString(fmt.Sprintf("  State: %s\n", state))

		if st.Health != nil && st.Health.MonitorStats != nil {
			stats := st.Health.MonitorStats
			sb.WriteString(fmt.Sprintf("  Status: %s\n", stats.Status))
			sb.WriteString(fmt.Sprintf("  Avg Latency: %v\n", stats.AverageLatency))
			sb.WriteString(fmt.Sprintf("  429 Errors: %d\n", stats.ThrottleCount429))
			sb.WriteString(fmt.Sprintf("  403 Errors: %d\n", stats.ThrottleCount403))
			sb.WriteString(fmt.Sprintf("  Requests (1h): %d\n", stats.RequestsLastHour))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}
