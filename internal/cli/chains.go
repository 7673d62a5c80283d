package cli

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/vietddude/chainreader/internal/core/config"
	"github.com/vietddude/chainreader/internal/core/domain"
)

// chainFlags are the per-invocation settings shared by commands that read
// from specific chains.
type chainFlags struct {
	chains   []string
	contract string
	override string
}

// apply restricts cfg to the selected chains and applies the contract and
// override flags to them. Chains missing from cfg are added. An empty
// selection keeps every configured chain.
func (f chainFlags) apply(cfg *config.AppConfig) ([]domain.ChainID, error) {
	if f.contract != "" && !common.IsHexAddress(f.contract) {
		return nil, fmt.Errorf("invalid contract address %q", f.contract)
	}

	var ids []domain.ChainID
	for _, raw := range f.chains {
		for _, s := range strings.Split(raw, ",") {
			s = strings.TrimSpace(s)
			if s == "" {
				continue
			}
			id, err := domain.ParseChainID(s)
			if err != nil {
				return nil, fmt.Errorf("invalid chain %q", s)
			}
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		for _, ch := range cfg.Chains {
			ids = append(ids, ch.ChainID)
		}
	}
	if f.override != "" && len(ids) != 1 {
		return nil, fmt.Errorf("--override needs exactly one chain, got %d", len(ids))
	}

	selected := make([]config.ChainConfig, 0, len(ids))
	for _, id := range ids {
		ch, ok := cfg.Chain(id)
		if !ok {
			ch = config.ChainConfig{ChainID: id}
		}
		if f.contract != "" {
			ch.Contract = f.contract
		}
		if f.override != "" {
			ch.Override = f.override
		}
		selected = append(selected, ch)
	}
	cfg.Chains = selected

	if err := cfg.Normalize(); err != nil {
		return nil, err
	}
	return ids, nil
}
