package domain

import (
	"strconv"
	"strings"
)

// ChainID is the EIP-155 chain identifier. It keys every per-chain setting.
type ChainID int64

type ChainName string

func (c ChainID) String() string {
	return strconv.FormatInt(int64(c), 10)
}

// Name returns the internal code for a known chain, or the numeric id.
func (c ChainID) Name() ChainName {
	if name, ok := ChainIDToName[c]; ok {
		return name
	}
	return ChainName(c.String())
}

const (
	// Chain IDs
	ChainIDEthereum ChainID = 1
	ChainIDOptimism ChainID = 10
	ChainIDBSC      ChainID = 56
	ChainIDPolygon  ChainID = 137
	ChainIDBase     ChainID = 8453
	ChainIDArbitrum ChainID = 42161
	ChainIDSepolia  ChainID = 11155111

	// Chain Names (Internal Codes)
	ChainNameEthereum ChainName = "ETHEREUM_MAINNET"
	ChainNameOptimism ChainName = "OPTIMISM_MAINNET"
	ChainNameBSC      ChainName = "BSC_MAINNET"
	ChainNamePolygon  ChainName = "POLYGON_MAINNET"
	ChainNameBase     ChainName = "BASE_MAINNET"
	ChainNameArbitrum ChainName = "ARBITRUM_ONE"
	ChainNameSepolia  ChainName = "ETHEREUM_SEPOLIA"
)

// ChainIDToName maps ChainID to its human-readable InternalCode/Name.
var ChainIDToName = map[ChainID]ChainName{
	ChainIDEthereum: ChainNameEthereum,
	ChainIDOptimism: ChainNameOptimism,
	ChainIDBSC:      ChainNameBSC,
	ChainIDPolygon:  ChainNamePolygon,
	ChainIDBase:     ChainNameBase,
	ChainIDArbitrum: ChainNameArbitrum,
	ChainIDSepolia:  ChainNameSepolia,
}

// ChainNameToID maps Chain Name to its ID.
var ChainNameToID = map[ChainName]ChainID{
	ChainNameEthereum: ChainIDEthereum,
	ChainNameOptimism: ChainIDOptimism,
	ChainNameBSC:      ChainIDBSC,
	ChainNamePolygon:  ChainIDPolygon,
	ChainNameBase:     ChainIDBase,
	ChainNameArbitrum: ChainIDArbitrum,
	ChainNameSepolia:  ChainIDSepolia,
}

// chainAliases are the short names accepted on the command line and in config.
var chainAliases = map[string]ChainID{
	"ethereum": ChainIDEthereum,
	"eth":      ChainIDEthereum,
	"optimism": ChainIDOptimism,
	"bsc":      ChainIDBSC,
	"polygon":  ChainIDPolygon,
	"base":     ChainIDBase,
	"arbitrum": ChainIDArbitrum,
	"sepolia":  ChainIDSepolia,
}

// ParseChainID accepts a numeric id, a known internal code or a short alias.
func ParseChainID(s string) (ChainID, error) {
	if id, ok := ChainNameToID[ChainName(s)]; ok {
		return id, nil
	}
	if id, ok := chainAliases[strings.ToLower(s)]; ok {
		return id, nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, err
	}
	return ChainID(n), nil
}
