package chain

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/vietddude/chainreader/internal/core/domain"
)

// Reader is the chain-level read boundary between the scan engine and
// chain-specific RPC logic.
type Reader interface {
	// GetChainID returns the chain identifier
	GetChainID() domain.ChainID

	// GetLatestBlock returns the latest block number on the chain
	GetLatestBlock(ctx context.Context) (uint64, error)

	// VerifyChainID checks that the endpoints serve the expected chain
	VerifyChainID(ctx context.Context) error

	// GetLogs runs a single log query
	GetLogs(ctx context.Context, q LogQuery) ([]types.Log, error)
}

// LogQuery is a log filter over an inclusive block range.
type LogQuery struct {
	FromBlock uint64
	ToBlock   uint64
	// Address limits results to one contract. Zero means any.
	Address common.Address
	// Topics follows eth_getLogs positional semantics: an empty or nil
	// position matches anything, several hashes in one position are OR-ed.
	Topics [][]common.Hash
}
