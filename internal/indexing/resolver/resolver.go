// Package resolver finds the transaction hash that created a record, given
// the record id and an approximate block number from storage.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vietddude/chainreader/internal/core/domain"
	"github.com/vietddude/chainreader/internal/indexing/metrics"
	"github.com/vietddude/chainreader/internal/indexing/scan"
)

// ErrUnknownChain is returned for a chain with no registered engine.
var ErrUnknownChain = errors.New("unknown chain")

const (
	outcomeFound    = "found"
	outcomeNotFound = "not_found"
	outcomeSkipped  = "skipped"
	outcomeCached   = "cached"
)

// Config holds batch pacing.
type Config struct {
	// RecordDelay separates two records of a batch. Negative disables it.
	RecordDelay time.Duration `yaml:"record_delay"`
}

// DefaultConfig provides sensible defaults.
var DefaultConfig = Config{
	RecordDelay: 400 * time.Millisecond,
}

func (c Config) WithDefaults() Config {
	if c.RecordDelay == 0 {
		c.RecordDelay = DefaultConfig.RecordDelay
	}
	return c
}

type chainEntry struct {
	engine *scan.Engine
	filter scan.Filter
}

// Service resolves record hashes on every registered chain. Resolution
// failures never surface as errors: an unresolvable record maps to "".
type Service struct {
	config Config
	log    *slog.Logger

	mu     sync.RWMutex
	chains map[domain.ChainID]chainEntry
}

func NewService(config Config, log *slog.Logger) *Service {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Service{
		config: config.WithDefaults(),
		log:    log,
		chains: make(map[domain.ChainID]chainEntry),
	}
}

// Register makes chainID resolvable through engine with filter.
func (s *Service) Register(chainID domain.ChainID, engine *scan.Engine, filter scan.Filter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chains[chainID] = chainEntry{engine: engine, filter: filter}
}

// Chains returns the registered chain ids in ascending order.
func (s *Service) Chains() []domain.ChainID {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]domain.ChainID, 0, len(s.chains))
	for id := range s.chains {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (s *Service) entry(chainID domain.ChainID) (chainEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.chains[chainID]
	if !ok {
		return chainEntry{}, fmt.Errorf("%w: %s", ErrUnknownChain, chainID)
	}
	return e, nil
}

// Resolve looks up one record. The only errors are ErrUnknownChain and
// context cancellation.
func (s *Service) Resolve(ctx context.Context, chainID domain.ChainID, hint domain.RecordHint) (domain.ResolvedHash, error) {
	e, err := s.entry(chainID)
	if err != nil {
		return domain.ResolvedHash{}, err
	}

	log := s.log.With("chain", chainID.String(), "record", hint.RecordID)
	hash, _, err := s.resolve(ctx, e, hint, log)
	if err != nil {
		return domain.ResolvedHash{}, err
	}
	return domain.ResolvedHash{RecordID: hint.RecordID, TxHash: hash}, nil
}

// ResolveBatch resolves hints one after another in the given order. The
// returned map holds every requested record id. Repeated ids are looked up
// once. On cancellation the ids not yet resolved map to "" and the context
// error is returned alongside the map.
func (s *Service) ResolveBatch(ctx context.Context, chainID domain.ChainID, hints []domain.RecordHint) (map[uint64]string, error) {
	e, err := s.entry(chainID)
	if err != nil {
		return nil, err
	}

	batchID := uuid.NewString()
	log := s.log.With("chain", chainID.String(), "batch", batchID)
	log.Info("resolving batch", "records", len(hints))

	out := make(map[uint64]string, len(hints))
	cache := make(map[uint64]string, len(hints))
	needsDelay := false

	for i, hint := range hints {
		if err := ctx.Err(); err != nil {
			fillMissing(out, hints[i:])
			return out, err
		}
		if hash, ok := cache[hint.RecordID]; ok {
			metrics.ResolutionsTotal.WithLabelValues(chainID.String(), outcomeCached).Inc()
			out[hint.RecordID] = hash
			continue
		}

		if needsDelay && hint.HasBlock() && s.config.RecordDelay > 0 {
			select {
			case <-ctx.Done():
				fillMissing(out, hints[i:])
				return out, ctx.Err()
			case <-time.After(s.config.RecordDelay):
			}
		}

		hash, called, err := s.resolve(ctx, e, hint, log.With("record", hint.RecordID))
		if err != nil {
			fillMissing(out, hints[i:])
			return out, err
		}
		needsDelay = needsDelay || called

		cache[hint.RecordID] = hash
		out[hint.RecordID] = hash
	}

	resolved := 0
	for _, h := range out {
		if h != "" {
			resolved++
		}
	}
	log.Info("batch resolved", "records", len(out), "resolved", resolved)
	return out, nil
}

func fillMissing(out map[uint64]string, rest []domain.RecordHint) {
	for _, h := range rest {
		if _, ok := out[h.RecordID]; !ok {
			out[h.RecordID] = ""
		}
	}
}

// resolve runs the lookup for one record. called reports whether the
// network was used. err is only ever a context error.
func (s *Service) resolve(ctx context.Context, e chainEntry, hint domain.RecordHint, log *slog.Logger) (hash string, called bool, err error) {
	chain := e.engine.ChainID().String()

	if !hint.HasBlock() {
		metrics.ResolutionsTotal.WithLabelValues(chain, outcomeSkipped).Inc()
		return "", false, nil
	}

	start := time.Now()
	defer func() {
		metrics.ResolutionDuration.WithLabelValues(chain).Observe(time.Since(start).Seconds())
	}()

	head, err := e.engine.LatestBlock(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return "", true, ctx.Err()
		}
		log.Warn("head lookup failed, searching around hint", "error", err)
		head = 0
	}

	window, stale := e.engine.Window(hint.BlockNumber, head)
	log.Debug("searching window", "range", window.String(), "stale", stale, "head", head)

	events, err := e.engine.QueryRange(ctx, window, e.filter)
	if err != nil {
		if ctx.Err() != nil {
			return "", true, ctx.Err()
		}
		log.Warn("log query failed", "range", window.String(), "error", err)
	}

	if ev, ok := pickClosest(events, hint); ok {
		metrics.ResolutionsTotal.WithLabelValues(chain, outcomeFound).Inc()
		log.Debug("resolved", "tx", ev.TxHash, "block", ev.BlockNumber)
		return ev.TxHash, true, nil
	}

	if stale {
		wide := e.engine.ExpandedWindow(head)
		events, err = e.engine.QueryChunked(ctx, wide, 0, e.filter.ForRecord(hint.RecordID))
		if ctx.Err() != nil {
			return "", true, ctx.Err()
		}
		if err != nil {
			log.Warn("expanded scan incomplete", "range", wide.String(), "error", err)
		}
		if ev, ok := pickClosest(events, hint); ok {
			metrics.ResolutionsTotal.WithLabelValues(chain, outcomeFound).Inc()
			log.Debug("resolved in expanded window", "tx", ev.TxHash, "block", ev.BlockNumber)
			return ev.TxHash, true, nil
		}
	}

	metrics.ResolutionsTotal.WithLabelValues(chain, outcomeNotFound).Inc()
	log.Info("record hash not found", "hint", hint.BlockNumber)
	return "", true, nil
}

// pickClosest returns the event for hint.RecordID whose block is nearest
// the hint. Ties go to the lower block. events must be sorted ascending.
func pickClosest(events []domain.CreationEvent, hint domain.RecordHint) (domain.CreationEvent, bool) {
	var (
		best     domain.CreationEvent
		bestDist uint64
		found    bool
	)
	for _, ev := range events {
		if ev.RecordID != hint.RecordID {
			continue
		}
		d := distance(ev.BlockNumber, hint.BlockNumber)
		if !found || d < bestDist || (d == bestDist && ev.BlockNumber < best.BlockNumber) {
			best, bestDist, found = ev, d, true
		}
	}
	return best, found
}

func distance(a, b uint64) uint64 {
	if a > b {
		return a - b
	}
	return b - a
}
