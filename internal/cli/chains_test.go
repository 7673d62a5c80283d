package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/vietddude/chainreader/internal/core/config"
	"github.com/vietddude/chainreader/internal/core/domain"
)

const contract = "0x00000000000000000000000000000000000000aa"

func TestChainFlagsSelect(t *testing.T) {
	cfg := config.Default()

	ids, err := chainFlags{chains: []string{"base,1"}, contract: contract}.apply(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 2 || ids[0] != domain.ChainIDBase || ids[1] != domain.ChainIDEthereum {
		t.Fatalf("unexpected ids %v", ids)
	}
	if len(cfg.Chains) != 2 {
		t.Fatalf("config must be restricted to the selection, got %d chains", len(cfg.Chains))
	}
	for _, ch := range cfg.Chains {
		if ch.Contract != contract {
			t.Errorf("chain %s: contract not applied", ch.ChainID)
		}
	}
}

func TestChainFlagsAddsUnknownChain(t *testing.T) {
	cfg := config.Default()

	ids, err := chainFlags{chains: []string{"31337"}, override: "https://localhost.example"}.apply(cfg)
	if err != nil {
		t.Fatal(err)
	}
	ch, ok := cfg.Chain(ids[0])
	if !ok || ch.Override != "https://localhost.example" {
		t.Fatalf("unknown chain not added with override: %+v", ch)
	}
	if ch.CreatedEvent == "" {
		t.Error("defaults not applied to added chain")
	}
}

func TestChainFlagsErrors(t *testing.T) {
	tests := map[string]chainFlags{
		"bad chain":           {chains: []string{"dogechain"}},
		"bad contract":        {contract: "0x12"},
		"override two chains": {chains: []string{"1", "10"}, override: "https://x.example"},
	}
	for name, f := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := f.apply(config.Default()); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoadConfigFallback(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "config.yaml")

	cfg, err := loadConfig(missing, false)
	if err != nil || len(cfg.Chains) == 0 {
		t.Fatalf("missing default config should fall back to curated chains: %v", err)
	}
	if _, err := loadConfig(missing, true); err == nil {
		t.Error("missing explicit config must fail")
	}

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("chains:\n  - id: 137\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err = loadConfig(path, true)
	if err != nil || len(cfg.Chains) != 1 || cfg.Chains[0].ChainID != domain.ChainIDPolygon {
		t.Fatalf("unexpected config %+v %v", cfg, err)
	}
}
