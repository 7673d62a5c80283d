// Package health provides status reporting and the HTTP surface of the
// read layer.
package health

import "github.com/vietddude/chainreader/internal/infra/rpc"

// SystemStatus represents the overall health state of the system or a component.
type SystemStatus string

const (
	StatusHealthy  SystemStatus = "healthy"
	StatusDegraded SystemStatus = "degraded"
	StatusCritical SystemStatus = "critical"
)

// ChainHealth contains health details for a specific chain.
type ChainHealth struct {
	ChainID          string               `json:"chain_id"`
	Name             string               `json:"name"`
	Status           SystemStatus         `json:"status"`
	Head             uint64               `json:"head,omitempty"`
	HeadError        string               `json:"head_error,omitempty"`
	EndpointsCooling int                  `json:"endpoints_cooling"`
	Endpoints        []rpc.EndpointStatus `json:"endpoints"`
}

// HealthReport contains the full system health report.
type HealthReport struct {
	SystemStatus SystemStatus           `json:"system_status"`
	Chains       map[string]ChainHealth `json:"chains"`
}

// Aggregate returns the worst status in report.
func Aggregate(report map[string]ChainHealth) SystemStatus {
	status := StatusHealthy
	for _, chain := range report {
		if chain.Status == StatusCritical {
			return StatusCritical
		}
		if chain.Status == StatusDegraded {
			status = StatusDegraded
		}
	}
	return status
}
