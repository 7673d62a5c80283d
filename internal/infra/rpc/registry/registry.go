// Package registry knows which JSON-RPC endpoints serve each chain and in
// what order they should be tried.
package registry

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/vietddude/chainreader/internal/core/domain"
	"github.com/vietddude/chainreader/internal/infra/rpc/provider"
)

// Endpoints is the curated endpoint set of one chain.
type Endpoints struct {
	Primary   string
	Fallbacks []string
}

// Registry resolves candidate endpoint lists per chain. It is read-only
// after construction.
type Registry struct {
	chains map[domain.ChainID]Endpoints
}

// New builds a registry from chains. The map is copied.
func New(chains map[domain.ChainID]Endpoints) *Registry {
	r := &Registry{chains: make(map[domain.ChainID]Endpoints, len(chains))}
	for id, eps := range chains {
		r.chains[id] = Endpoints{
			Primary:   eps.Primary,
			Fallbacks: append([]string(nil), eps.Fallbacks...),
		}
	}
	return r
}

// NewDefault returns a registry of the curated public endpoints.
func NewDefault() *Registry {
	return New(Curated)
}

// With returns a copy of r where chain id uses eps.
func (r *Registry) With(id domain.ChainID, eps Endpoints) *Registry {
	next := New(r.chains)
	next.chains[id] = Endpoints{Primary: eps.Primary, Fallbacks: append([]string(nil), eps.Fallbacks...)}
	return next
}

// Chains returns the configured chain ids in ascending order.
func (r *Registry) Chains() []domain.ChainID {
	ids := make([]domain.ChainID, 0, len(r.chains))
	for id := range r.chains {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Candidates returns the usable endpoints for chainID in priority order:
// override, then primary, then fallbacks. Invalid and duplicate URLs are
// dropped. An empty result is ErrNoEndpointsConfigured.
func (r *Registry) Candidates(chainID domain.ChainID, override string) ([]string, error) {
	eps := r.chains[chainID]

	raw := make([]string, 0, 2+len(eps.Fallbacks))
	raw = append(raw, override, eps.Primary)
	raw = append(raw, eps.Fallbacks...)

	seen := make(map[string]bool, len(raw))
	out := make([]string, 0, len(raw))
	for _, u := range raw {
		u = strings.TrimSpace(u)
		if !Valid(u) || seen[u] {
			continue
		}
		seen[u] = true
		out = append(out, u)
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("chain %s: %w", chainID, provider.ErrNoEndpointsConfigured)
	}
	return out, nil
}

// templateTokens mark an unfilled template anywhere in the URL.
var templateTokens = []string{"${", "{{", "<", ">"}

// placeholderWords mark a sample key left in the path or query. Hosts are
// not checked, so https://your-node.example is a real endpoint.
var placeholderWords = []string{"your_", "your-", "api_key_here", "placeholder"}

// Valid reports whether u is an https URL with a host and no unfilled
// template placeholder.
func Valid(u string) bool {
	if u == "" || !strings.HasPrefix(strings.ToLower(u), "https://") {
		return false
	}
	for _, tok := range templateTokens {
		if strings.Contains(u, tok) {
			return false
		}
	}
	parsed, err := url.Parse(u)
	if err != nil || parsed.Host == "" {
		return false
	}
	rest := strings.ToLower(parsed.Path + "?" + parsed.RawQuery)
	for _, word := range placeholderWords {
		if strings.Contains(rest, word) {
			return false
		}
	}
	return true
}
