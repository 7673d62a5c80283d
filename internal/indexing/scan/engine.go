// Package scan finds record events in block ranges, splitting wide ranges
// into windows public endpoints will serve.
package scan

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/multierr"
	"golang.org/x/time/rate"

	"github.com/vietddude/chainreader/internal/core/domain"
	"github.com/vietddude/chainreader/internal/indexing/metrics"
	"github.com/vietddude/chainreader/internal/infra/chain"
	"github.com/vietddude/chainreader/internal/infra/chain/evm"
)

// LogSource is the part of a chain reader the engine needs.
type LogSource interface {
	GetChainID() domain.ChainID
	GetLatestBlock(ctx context.Context) (uint64, error)
	GetLogs(ctx context.Context, q chain.LogQuery) ([]types.Log, error)
}

// Filter selects record events.
type Filter struct {
	Contract common.Address
	Events   evm.EventSet
	// RecordID, when set, is sent as the indexed id topic and re-checked
	// on every decoded event.
	RecordID *uint64
}

// ForRecord returns a copy of f restricted to one record id.
func (f Filter) ForRecord(id uint64) Filter {
	f.RecordID = &id
	return f
}

func (f Filter) query(r Range) chain.LogQuery {
	topics := [][]common.Hash{f.Events.Topics()}
	if f.RecordID != nil {
		topics = append(topics, []common.Hash{evm.RecordIDTopic(*f.RecordID)})
	}
	return chain.LogQuery{
		FromBlock: r.Start,
		ToBlock:   r.End,
		Address:   f.Contract,
		Topics:    topics,
	}
}

// Engine runs log queries for one chain. Calls are made one at a time and
// spaced by Config.CallDelay.
type Engine struct {
	source LogSource
	heads  *HeadCache
	pacer  *rate.Limiter
	config Config
	log    *slog.Logger
}

func NewEngine(source LogSource, config Config, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	config = config.WithDefaults()

	limit := rate.Inf
	if config.CallDelay > 0 {
		limit = rate.Every(config.CallDelay)
	}

	e := &Engine{
		source: source,
		pacer:  rate.NewLimiter(limit, 1),
		config: config,
		log:    log.With("chain", source.GetChainID().String()),
	}
	e.heads = NewHeadCache(pacedHead{e}, config.HeadTTL)
	return e
}

type pacedHead struct{ e *Engine }

func (p pacedHead) GetLatestBlock(ctx context.Context) (uint64, error) {
	if err := p.e.pacer.Wait(ctx); err != nil {
		return 0, err
	}
	return p.e.source.GetLatestBlock(ctx)
}

func (e *Engine) ChainID() domain.ChainID {
	return e.source.GetChainID()
}

func (e *Engine) Config() Config {
	return e.config
}

// LatestBlock returns the chain head through the TTL cache.
func (e *Engine) LatestBlock(ctx context.Context) (uint64, error) {
	head, err := e.heads.GetLatestBlock(ctx)
	if err != nil {
		return 0, err
	}
	metrics.ChainHeadBlock.WithLabelValues(e.ChainID().String()).Set(float64(head))
	return head, nil
}

// Window picks the range to search around a block hint. A hint more than
// StaleThreshold blocks behind head is stale and the most recent
// RecentWindow blocks are searched instead. head 0 means unknown.
func (e *Engine) Window(hint, head uint64) (Range, bool) {
	if head > hint && head-hint > e.config.StaleThreshold {
		return Range{Start: saturatingSub(head, e.config.RecentWindow), End: head}, true
	}

	r := Range{
		Start: saturatingSub(hint, e.config.HintRadius),
		End:   hint + e.config.HintRadius,
	}
	if head >= hint && r.End > head {
		r.End = head
	}
	return r, false
}

// ExpandedWindow is the range searched when a stale hint found nothing.
func (e *Engine) ExpandedWindow(head uint64) Range {
	return Range{Start: saturatingSub(head, e.config.ExpandedWindow), End: head}
}

// QueryRange runs one log query over r and returns matching events in
// ascending (block, log index) order.
func (e *Engine) QueryRange(ctx context.Context, r Range, f Filter) ([]domain.CreationEvent, error) {
	if err := e.pacer.Wait(ctx); err != nil {
		return nil, err
	}

	logs, err := e.source.GetLogs(ctx, f.query(r))
	if err != nil {
		return nil, err
	}

	events := make([]domain.CreationEvent, 0, len(logs))
	for _, l := range logs {
		ev, ok := evm.DecodeCreationEvent(l, f.Events)
		if !ok {
			continue
		}
		if f.RecordID != nil && ev.RecordID != *f.RecordID {
			continue
		}
		events = append(events, ev)
	}
	sortEvents(events)
	return events, nil
}

// QueryChunked splits r into windows of at most chunkSize blocks and queries
// them in ascending order. A failed window is logged and skipped; its error
// is joined into the returned error while events from the other windows are
// still returned. chunkSize 0 uses Config.ChunkSize.
func (e *Engine) QueryChunked(ctx context.Context, r Range, chunkSize uint64, f Filter) ([]domain.CreationEvent, error) {
	if chunkSize == 0 {
		chunkSize = e.config.ChunkSize
	}

	var (
		events []domain.CreationEvent
		errs   error
	)
	for _, chunk := range r.Split(chunkSize) {
		found, err := e.QueryRange(ctx, chunk, f)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return events, ctxErr
			}
			metrics.ChunkFailuresTotal.WithLabelValues(e.ChainID().String()).Inc()
			e.log.Warn("log window failed", "range", chunk.String(), "error", err)
			errs = multierr.Append(errs, fmt.Errorf("range %s: %w", chunk, err))
			continue
		}
		events = append(events, found...)
	}

	sortEvents(events)
	return events, errs
}

func sortEvents(events []domain.CreationEvent) {
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].BlockNumber != events[j].BlockNumber {
			return events[i].BlockNumber < events[j].BlockNumber
		}
		return events[i].LogIndex < events[j].LogIndex
	})
}
