package health

import (
	"context"
	"sync"
	"time"

	"github.com/vietddude/chainreader/internal/core/domain"
	"github.com/vietddude/chainreader/internal/infra/rpc"
)

// DefaultCheckInterval bounds how often a report is rebuilt.
const DefaultCheckInterval = 10 * time.Second

// HeadSource returns the chain head.
type HeadSource interface {
	LatestBlock(ctx context.Context) (uint64, error)
}

// EndpointSource reports endpoint cooldown and health.
type EndpointSource interface {
	Status(ctx context.Context) []rpc.EndpointStatus
}

// Target is one monitored chain.
type Target struct {
	ChainID   domain.ChainID
	Head      HeadSource
	Endpoints EndpointSource
}

// Monitor aggregates health status from the per-chain read stacks.
type Monitor struct {
	targets    []Target
	interval   time.Duration
	lastCheck  time.Time
	lastReport map[string]ChainHealth
	mu         sync.Mutex
}

// NewMonitor creates a new health monitor. interval 0 uses DefaultCheckInterval.
func NewMonitor(targets []Target, interval time.Duration) *Monitor {
	if interval == 0 {
		interval = DefaultCheckInterval
	}
	return &Monitor{
		targets:    targets,
		interval:   interval,
		lastReport: make(map[string]ChainHealth),
	}
}

// CheckHealth performs a health check for all chains.
func (m *Monitor) CheckHealth(ctx context.Context) map[string]ChainHealth {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Avoid spending RPC quota on frequent probes.
	if time.Since(m.lastCheck) < m.interval && len(m.lastReport) > 0 {
		return m.lastReport
	}

	report := make(map[string]ChainHealth, len(m.targets))
	for _, t := range m.targets {
		report[t.ChainID.String()] = check(ctx, t)
	}

	m.lastCheck = time.Now()
	m.lastReport = report
	return report
}

// Every endpoint cooling is critical. A failed head lookup or a partly
// cooling list is degraded.
func check(ctx context.Context, t Target) ChainHealth {
	h := ChainHealth{
		ChainID:   t.ChainID.String(),
		Name:      string(t.ChainID.Name()),
		Status:    StatusHealthy,
		Endpoints: t.Endpoints.Status(ctx),
	}

	for _, ep := range h.Endpoints {
		if ep.InCooldown {
			h.EndpointsCooling++
		}
	}

	head, err := t.Head.LatestBlock(ctx)
	if err != nil {
		h.HeadError = err.Error()
		h.Status = StatusDegraded
	} else {
		h.Head = head
	}

	switch {
	case len(h.Endpoints) > 0 && h.EndpointsCooling == len(h.Endpoints):
		h.Status = StatusCritical
	case h.EndpointsCooling > 0:
		h.Status = StatusDegraded
	}
	return h
}
