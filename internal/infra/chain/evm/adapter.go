package evm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/vietddude/chainreader/internal/core/domain"
	"github.com/vietddude/chainreader/internal/infra/chain"
	"github.com/vietddude/chainreader/internal/infra/rpc"
	"github.com/vietddude/chainreader/internal/infra/rpc/provider"
)

const maxLoggedBody = 128

// EVMAdapter reads EVM chain state through a resilient RPC client.
type EVMAdapter struct {
	chainID domain.ChainID
	client  rpc.Caller
	log     *slog.Logger
}

var _ chain.Reader = (*EVMAdapter)(nil)

func NewEVMAdapter(chainID domain.ChainID, client rpc.Caller, log *slog.Logger) *EVMAdapter {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &EVMAdapter{
		chainID: chainID,
		client:  client,
		log:     log.With("chain", chainID.String()),
	}
}

func (a *EVMAdapter) GetChainID() domain.ChainID {
	return a.chainID
}

func (a *EVMAdapter) GetLatestBlock(ctx context.Context) (uint64, error) {
	var height hexutil.Uint64
	op := rpc.NewValidatedOperation("eth_blockNumber", decodeInto(&height))
	if _, err := a.client.Execute(ctx, op); err != nil {
		return 0, fmt.Errorf("eth_blockNumber failed: %w", err)
	}
	return uint64(height), nil
}

// VerifyChainID asks for eth_chainId and falls back to net_version on
// endpoints that do not implement it. A mismatch is fatal and is not
// retried on other endpoints.
func (a *EVMAdapter) VerifyChainID(ctx context.Context) error {
	want := big.NewInt(int64(a.chainID))

	op := rpc.NewValidatedOperation("eth_chainId", func(raw json.RawMessage) error {
		var got hexutil.Big
		if err := json.Unmarshal(raw, &got); err != nil {
			return malformed(raw, err)
		}
		return a.compareChainID((*big.Int)(&got), want)
	})
	_, err := a.client.Execute(ctx, op)
	if err == nil {
		return nil
	}

	var rpcErr *provider.RPCError
	if !errors.As(err, &rpcErr) || rpcErr.Code != -32601 {
		return fmt.Errorf("eth_chainId failed: %w", err)
	}

	a.log.Debug("eth_chainId not supported, trying net_version")
	op = rpc.NewValidatedOperation("net_version", func(raw json.RawMessage) error {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return malformed(raw, err)
		}
		got, ok := new(big.Int).SetString(s, 10)
		if !ok {
			return malformed(raw, fmt.Errorf("invalid net_version %q", s))
		}
		return a.compareChainID(got, want)
	})
	if _, err := a.client.Execute(ctx, op); err != nil {
		return fmt.Errorf("net_version failed: %w", err)
	}
	return nil
}

func (a *EVMAdapter) compareChainID(got, want *big.Int) error {
	if got.Cmp(want) != 0 {
		return fmt.Errorf("%w: endpoint serves %s, expected %s", provider.ErrChainIDMismatch, got, want)
	}
	return nil
}

type logFilter struct {
	FromBlock string          `json:"fromBlock"`
	ToBlock   string          `json:"toBlock"`
	Address   *common.Address `json:"address,omitempty"`
	Topics    [][]common.Hash `json:"topics,omitempty"`
}

// GetLogs runs one eth_getLogs call. A body that does not decode as logs
// counts as empty data so the next endpoint is tried.
func (a *EVMAdapter) GetLogs(ctx context.Context, q chain.LogQuery) ([]types.Log, error) {
	if q.ToBlock < q.FromBlock {
		return nil, fmt.Errorf("invalid log range %d-%d", q.FromBlock, q.ToBlock)
	}

	f := logFilter{
		FromBlock: hexutil.EncodeUint64(q.FromBlock),
		ToBlock:   hexutil.EncodeUint64(q.ToBlock),
		Topics:    q.Topics,
	}
	if q.Address != (common.Address{}) {
		addr := q.Address
		f.Address = &addr
	}

	var logs []types.Log
	op := rpc.NewValidatedOperation("eth_getLogs", decodeInto(&logs), f)
	if _, err := a.client.Execute(ctx, op); err != nil {
		return nil, fmt.Errorf("eth_getLogs %d-%d failed: %w", q.FromBlock, q.ToBlock, err)
	}

	a.log.Debug("fetched logs", "from", q.FromBlock, "to", q.ToBlock, "count", len(logs))
	return logs, nil
}

type callMsg struct {
	To   common.Address `json:"to"`
	Data hexutil.Bytes  `json:"data"`
}

// CallContract runs eth_call against the latest block. An empty or all-zero
// result is ErrEmptyData and is retried on the next endpoint.
func (a *EVMAdapter) CallContract(ctx context.Context, to common.Address, data []byte) ([]byte, error) {
	var out hexutil.Bytes
	op := rpc.NewValidatedOperation("eth_call", func(raw json.RawMessage) error {
		if err := rpc.NonEmptyHex(raw); err != nil {
			return err
		}
		return decodeInto(&out)(raw)
	}, callMsg{To: to, Data: data}, "latest")

	if _, err := a.client.Execute(ctx, op); err != nil {
		return nil, fmt.Errorf("eth_call %s failed: %w", to.Hex(), err)
	}
	return out, nil
}

// decodeInto returns a validator that unmarshals the result into dst.
// Decode failures are reported as malformed responses.
func decodeInto(dst any) func(json.RawMessage) error {
	return func(raw json.RawMessage) error {
		if err := json.Unmarshal(raw, dst); err != nil {
			return malformed(raw, err)
		}
		return nil
	}
}

func malformed(raw json.RawMessage, err error) error {
	body := strings.TrimSpace(string(raw))
	if len(body) > maxLoggedBody {
		body = body[:maxLoggedBody] + "..."
	}
	return &provider.MalformedResponseError{Body: body, Err: err}
}
