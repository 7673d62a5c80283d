package registry

import "github.com/vietddude/chainreader/internal/core/domain"

// Curated lists the public endpoints used when nothing else is configured.
var Curated = map[domain.ChainID]Endpoints{
	domain.ChainIDEthereum: {
		Primary: "https://ethereum-rpc.publicnode.com",
		Fallbacks: []string{
			"https://eth.llamarpc.com",
			"https://rpc.ankr.com/eth",
			"https://cloudflare-eth.com",
			"https://eth.drpc.org",
		},
	},
	domain.ChainIDOptimism: {
		Primary: "https://mainnet.optimism.io",
		Fallbacks: []string{
			"https://optimism-rpc.publicnode.com",
			"https://optimism.drpc.org",
		},
	},
	domain.ChainIDBSC: {
		Primary: "https://bsc-dataseed.bnbchain.org",
		Fallbacks: []string{
			"https://bsc-rpc.publicnode.com",
			"https://bsc.drpc.org",
		},
	},
	domain.ChainIDPolygon: {
		Primary: "https://polygon-rpc.com",
		Fallbacks: []string{
			"https://polygon-bor-rpc.publicnode.com",
			"https://polygon.drpc.org",
		},
	},
	domain.ChainIDBase: {
		Primary: "https://mainnet.base.org",
		Fallbacks: []string{
			"https://base-rpc.publicnode.com",
			"https://base.drpc.org",
		},
	},
	domain.ChainIDArbitrum: {
		Primary: "https://arb1.arbitrum.io/rpc",
		Fallbacks: []string{
			"https://arbitrum-one-rpc.publicnode.com",
			"https://arbitrum.drpc.org",
		},
	},
	domain.ChainIDSepolia: {
		Primary: "https://ethereum-sepolia-rpc.publicnode.com",
		Fallbacks: []string{
			"https://rpc.sepolia.org",
			"https://sepolia.drpc.org",
		},
	},
}
