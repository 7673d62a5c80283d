// Package control wires configuration into per-chain read stacks and runs
// the optional HTTP surface.
package control

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/redis/go-redis/v9"
	"go.uber.org/multierr"

	"github.com/vietddude/chainreader/internal/core/config"
	"github.com/vietddude/chainreader/internal/core/domain"
	"github.com/vietddude/chainreader/internal/indexing/health"
	"github.com/vietddude/chainreader/internal/indexing/resolver"
	"github.com/vietddude/chainreader/internal/indexing/scan"
	"github.com/vietddude/chainreader/internal/infra/chain/evm"
	"github.com/vietddude/chainreader/internal/infra/rpc"
	"github.com/vietddude/chainreader/internal/infra/rpc/cooldown"
	"github.com/vietddude/chainreader/internal/infra/rpc/registry"
)

// HeadRefreshInterval is how often Start refreshes the head gauges.
const HeadRefreshInterval = 30 * time.Second

// ClientFactory builds the RPC client of one chain.
type ClientFactory func(
	ctx context.Context,
	chainID domain.ChainID,
	reg *registry.Registry,
	store cooldown.Store,
	cfg rpc.ClientConfig,
) (*rpc.Client, error)

type options struct {
	store     cooldown.Store
	newClient ClientFactory
	log       *slog.Logger
}

// Option customises App construction.
type Option func(*options)

// WithStore replaces the cooldown store chosen from configuration.
func WithStore(s cooldown.Store) Option {
	return func(o *options) { o.store = s }
}

// WithClientFactory replaces rpc.NewClient.
func WithClientFactory(f ClientFactory) Option {
	return func(o *options) { o.newClient = f }
}

func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.log = l }
}

// Chain bundles the read stack of one chain.
type Chain struct {
	Config  config.ChainConfig
	Client  *rpc.Client
	Adapter *evm.EVMAdapter
	Engine  *scan.Engine
	Filter  scan.Filter
	// Records is nil when no contract is configured.
	Records *evm.RecordReader
}

// App owns every chain's read stack and the shared cooldown store.
type App struct {
	cfg         *config.AppConfig
	log         *slog.Logger
	store       cooldown.Store
	redisClient *redis.Client
	chains      map[domain.ChainID]*Chain
	resolver    *resolver.Service
	server      *health.Server
}

// New builds the read stack of every configured chain.
func New(ctx context.Context, cfg *config.AppConfig, opts ...Option) (*App, error) {
	o := options{newClient: rpc.NewClient, log: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	app := &App{
		cfg:    cfg,
		log:    o.log,
		store:  o.store,
		chains: make(map[domain.ChainID]*Chain, len(cfg.Chains)),
	}

	// 1. Cooldown store
	if app.store == nil {
		app.store = app.openStore(ctx)
	}

	// 2. Endpoint registry
	reg := registry.NewDefault()
	for _, ch := range cfg.Chains {
		if ch.HasEndpoints() {
			reg = reg.With(ch.ChainID, registry.Endpoints{Primary: ch.Primary, Fallbacks: ch.Fallbacks})
		}
	}

	// 3. Per-chain read stacks
	app.resolver = resolver.NewService(cfg.Resolver, o.log)
	for _, chCfg := range cfg.Chains {
		ch, err := app.buildChain(ctx, chCfg, reg, o.newClient)
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("chain %s: %w", chCfg.ChainID, err)
		}
		app.chains[chCfg.ChainID] = ch
		if ch.Records != nil {
			app.resolver.Register(chCfg.ChainID, ch.Engine, ch.Filter)
		}
	}

	// 4. HTTP surface
	targets := make([]health.Target, 0, len(app.chains))
	for _, id := range app.Chains() {
		ch := app.chains[id]
		targets = append(targets, health.Target{ChainID: id, Head: ch.Engine, Endpoints: ch.Client})
	}
	app.server = health.NewServer(health.NewMonitor(targets, 0), app.resolver, cfg.Server.Port, o.log)

	return app, nil
}

func (a *App) openStore(ctx context.Context) cooldown.Store {
	window := a.cfg.Retry.CooldownWindow
	if a.cfg.Redis.URL == "" {
		a.log.Info("Using memory cooldown store")
		return cooldown.NewMemoryStore()
	}

	client, err := cooldown.NewRedisClient(ctx, a.cfg.Redis)
	if err != nil {
		a.log.Warn("Failed to connect to Redis, using memory cooldown store", "error", err)
		return cooldown.NewMemoryStore()
	}
	a.redisClient = client
	a.log.Info("Using Redis cooldown store")
	// Entries outlive the window a little so readers near the boundary see them.
	return cooldown.NewRedisStore(client, cooldown.DefaultKeyPrefix, 2*window)
}

func (a *App) buildChain(ctx context.Context, cfg config.ChainConfig, reg *registry.Registry, newClient ClientFactory) (*Chain, error) {
	log := a.log.With("chain", cfg.ChainID.String())

	client, err := newClient(ctx, cfg.ChainID, reg, a.store, rpc.ClientConfig{
		Retry:    a.cfg.Retry,
		Override: cfg.Override,
		Logger:   log,
	})
	if err != nil {
		return nil, err
	}

	adapter := evm.NewEVMAdapter(cfg.ChainID, client, log)
	if cfg.VerifyChainID {
		if err := adapter.VerifyChainID(ctx); err != nil {
			client.Close()
			return nil, err
		}
	}

	ch := &Chain{
		Config:  cfg,
		Client:  client,
		Adapter: adapter,
		Engine:  scan.NewEngine(adapter, a.cfg.Scan, log),
		Filter:  scan.Filter{Events: cfg.Events()},
	}

	if cfg.Contract != "" {
		contract := common.HexToAddress(cfg.Contract)
		ch.Filter.Contract = contract
		ch.Records, err = evm.NewRecordReader(adapter, contract)
		if err != nil {
			client.Close()
			return nil, err
		}
	}

	log.Info("Chain ready", "name", cfg.Name, "endpoints", len(client.Endpoints()), "contract", cfg.Contract)
	return ch, nil
}

// Chains returns the configured chain ids in ascending order.
func (a *App) Chains() []domain.ChainID {
	ids := make([]domain.ChainID, 0, len(a.chains))
	for id := range a.chains {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Chain returns the read stack of id.
func (a *App) Chain(id domain.ChainID) (*Chain, error) {
	ch, ok := a.chains[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", resolver.ErrUnknownChain, id)
	}
	return ch, nil
}

func (a *App) Resolver() *resolver.Service {
	return a.resolver
}

// Server returns the HTTP surface.
func (a *App) Server() *health.Server {
	return a.server
}

// Start runs the HTTP server and the head refresher until ctx ends.
func (a *App) Start(ctx context.Context) error {
	go func() {
		if err := a.server.Start(); err != nil {
			a.log.Error("HTTP server failed", "error", err)
		}
	}()

	go a.runHeadUpdater(ctx)
	return nil
}

// Stop shuts the HTTP server down and releases every client.
func (a *App) Stop(ctx context.Context) error {
	a.log.Info("Stopping chainreader...")
	return multierr.Append(a.server.Stop(ctx), a.Close())
}

// Close releases RPC clients and the Redis connection.
func (a *App) Close() error {
	var err error
	for _, ch := range a.chains {
		err = multierr.Append(err, ch.Client.Close())
	}
	if a.redisClient != nil {
		err = multierr.Append(err, a.redisClient.Close())
	}
	return err
}

func (a *App) runHeadUpdater(ctx context.Context) {
	ticker := time.NewTicker(HeadRefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, id := range a.Chains() {
				if _, err := a.chains[id].Engine.LatestBlock(ctx); err != nil {
					a.log.Debug("Head refresh failed", "chain", id.String(), "error", err)
				}
			}
		}
	}
}
