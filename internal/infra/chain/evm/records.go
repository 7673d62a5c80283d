package evm

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/vietddude/chainreader/internal/core/domain"
	"github.com/vietddude/chainreader/internal/infra/rpc/routing"
)

// RecordStoreABI describes the record store functions read by RecordReader.
const RecordStoreABI = `[
  {"type":"function","name":"getRecordCount","stateMutability":"view","inputs":[],
   "outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"getRecordsRange","stateMutability":"view",
   "inputs":[
     {"name":"offset","type":"uint256"},
     {"name":"end","type":"uint256"},
     {"name":"includeDeleted","type":"bool"}],
   "outputs":[{"name":"","type":"tuple[]","components":[
     {"name":"id","type":"uint256"},
     {"name":"author","type":"address"},
     {"name":"title","type":"string"},
     {"name":"body","type":"string"},
     {"name":"blockNumber","type":"uint256"},
     {"name":"deleted","type":"bool"}]}]}
]`

// recordTuple mirrors the getRecordsRange tuple. Field names and order must
// match the ABI components.
type recordTuple struct {
	Id          *big.Int
	Author      common.Address
	Title       string
	Body        string
	BlockNumber *big.Int
	Deleted     bool
}

// ContractCaller runs a read-only contract call.
type ContractCaller interface {
	CallContract(ctx context.Context, to common.Address, data []byte) ([]byte, error)
}

// RecordReader reads records from the record store contract.
type RecordReader struct {
	caller   ContractCaller
	contract common.Address
	abi      abi.ABI
}

func NewRecordReader(caller ContractCaller, contract common.Address) (*RecordReader, error) {
	parsed, err := abi.JSON(strings.NewReader(RecordStoreABI))
	if err != nil {
		return nil, fmt.Errorf("parse record store abi: %w", err)
	}
	return &RecordReader{caller: caller, contract: contract, abi: parsed}, nil
}

// Count returns getRecordCount(). A store answering with empty data on
// every endpoint is treated as holding no records.
func (r *RecordReader) Count(ctx context.Context) (uint64, error) {
	data, err := r.abi.Pack("getRecordCount")
	if err != nil {
		return 0, fmt.Errorf("pack getRecordCount: %w", err)
	}

	out, err := r.caller.CallContract(ctx, r.contract, data)
	if err != nil {
		if routing.OnlyEmptyData(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("getRecordCount: %w", err)
	}

	values, err := r.abi.Unpack("getRecordCount", out)
	if err != nil {
		return 0, fmt.Errorf("unpack getRecordCount: %w", err)
	}
	count := abi.ConvertType(values[0], new(big.Int)).(*big.Int)
	if !count.IsUint64() {
		return 0, fmt.Errorf("record count %s overflows uint64", count)
	}
	return count.Uint64(), nil
}

// ReadRange returns records in [offset, end).
func (r *RecordReader) ReadRange(ctx context.Context, offset, end uint64, includeDeleted bool) ([]domain.Record, error) {
	if end <= offset {
		return nil, nil
	}

	data, err := r.abi.Pack("getRecordsRange",
		new(big.Int).SetUint64(offset), new(big.Int).SetUint64(end), includeDeleted)
	if err != nil {
		return nil, fmt.Errorf("pack getRecordsRange: %w", err)
	}

	out, err := r.caller.CallContract(ctx, r.contract, data)
	if err != nil {
		return nil, fmt.Errorf("getRecordsRange(%d, %d): %w", offset, end, err)
	}

	values, err := r.abi.Unpack("getRecordsRange", out)
	if err != nil {
		return nil, fmt.Errorf("unpack getRecordsRange: %w", err)
	}
	tuples := *abi.ConvertType(values[0], new([]recordTuple)).(*[]recordTuple)

	records := make([]domain.Record, 0, len(tuples))
	for _, t := range tuples {
		records = append(records, domain.Record{
			ID:          t.Id.Uint64(),
			Author:      t.Author.Hex(),
			Title:       t.Title,
			Body:        t.Body,
			BlockNumber: t.BlockNumber.Uint64(),
			Deleted:     t.Deleted,
		})
	}
	return records, nil
}
