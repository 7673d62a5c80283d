package control

import (
	"context"
	"errors"
	"fmt"

	"github.com/vietddude/chainreader/internal/core/domain"
)

// ErrNoContract is returned for record queries on a chain without a contract.
var ErrNoContract = errors.New("no record contract configured")

// RecordQuery selects a slice of the contract's records.
type RecordQuery struct {
	Offset uint64
	// Limit 0 reads up to the current count.
	Limit          uint64
	IncludeDeleted bool
}

// ResolvedRecord is a stored record with its originating transaction hash.
// TxHash is "" when the hash could not be found.
type ResolvedRecord struct {
	domain.Record
	TxHash string `json:"tx_hash"`
}

// Records reads a slice of records from the contract and resolves the hash
// of each one. On cancellation the records read so far are returned with
// the context error.
func (a *App) Records(ctx context.Context, chainID domain.ChainID, q RecordQuery) ([]ResolvedRecord, error) {
	ch, err := a.Chain(chainID)
	if err != nil {
		return nil, err
	}
	if ch.Records == nil {
		return nil, fmt.Errorf("%w: chain %s", ErrNoContract, chainID)
	}

	count, err := ch.Records.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("record count: %w", err)
	}

	end := count
	if q.Limit > 0 && q.Offset+q.Limit < count {
		end = q.Offset + q.Limit
	}
	records, err := ch.Records.ReadRange(ctx, q.Offset, end, q.IncludeDeleted)
	if err != nil {
		return nil, fmt.Errorf("read records [%d,%d): %w", q.Offset, end, err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	hints := make([]domain.RecordHint, len(records))
	for i, r := range records {
		hints[i] = r.Hint()
	}
	hashes, err := a.resolver.ResolveBatch(ctx, chainID, hints)

	out := make([]ResolvedRecord, len(records))
	for i, r := range records {
		out[i] = ResolvedRecord{Record: r, TxHash: hashes[r.ID]}
	}
	return out, err
}
