package routing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.uber.org/multierr"

	"github.com/vietddude/chainreader/internal/core/domain"
	"github.com/vietddude/chainreader/internal/indexing/metrics"
	"github.com/vietddude/chainreader/internal/infra/rpc/cooldown"
	"github.com/vietddude/chainreader/internal/infra/rpc/provider"
)

// ResilientTransport runs each operation against an ordered list of
// endpoints, rotating away from endpoints that fail with retryable errors.
type ResilientTransport struct {
	chainID    domain.ChainID
	transports []provider.Transport
	// names are display names unique per transport.
	names  []string
	store      cooldown.Store
	config     RetryConfig
	logger     *slog.Logger
	now        func() time.Time
}

// Option configures a ResilientTransport.
type Option func(*ResilientTransport)

// WithLogger sets the logger. Nil keeps the discard logger.
func WithLogger(l *slog.Logger) Option {
	return func(t *ResilientTransport) {
		if l != nil {
			t.logger = l
		}
	}
}

// WithClock overrides time.Now for cooldown decisions.
func WithClock(now func() time.Time) Option {
	return func(t *ResilientTransport) {
		if now != nil {
			t.now = now
		}
	}
}

// NewResilientTransport wraps transports in priority order. A nil store gets
// a private in-memory store.
func NewResilientTransport(
	chainID domain.ChainID,
	transports []provider.Transport,
	store cooldown.Store,
	config RetryConfig,
	opts ...Option,
) (*ResilientTransport, error) {
	if len(transports) == 0 {
		return nil, fmt.Errorf("chain %s: %w", chainID, provider.ErrNoEndpointsConfigured)
	}
	if store == nil {
		store = cooldown.NewMemoryStore()
	}

	t := &ResilientTransport{
		chainID:    chainID,
		transports: transports,
		names:      uniqueNames(transports),
		store:      store,
		config:     config.WithDefaults(),
		logger:     slog.New(slog.DiscardHandler),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// uniqueNames labels each transport by its redacted name. Names shared by
// several transports, such as two keyed URLs on one host, get a #<position>
// suffix from the second occurrence on.
func uniqueNames(transports []provider.Transport) []string {
	names := make([]string, len(transports))
	seen := make(map[string]bool, len(transports))
	for i, tr := range transports {
		base := tr.GetName()
		name := base
		for n := i + 1; seen[name]; n++ {
			name = fmt.Sprintf("%s#%d", base, n)
		}
		seen[name] = true
		names[i] = name
	}
	return names
}

// Call executes method without result validation.
func (t *ResilientTransport) Call(ctx context.Context, method string, params []any) (json.RawMessage, error) {
	return t.Execute(ctx, provider.Operation{Name: method, Params: params})
}

// Execute runs op until it succeeds, fails fatally, or runs out of attempts.
// Fatal errors are returned unchanged. Exhaustion returns *ExhaustedError.
func (t *ResilientTransport) Execute(ctx context.Context, op provider.Operation) (json.RawMessage, error) {
	n := len(t.transports)
	maxAttempts := t.config.attempts(n)
	chain := t.chainID.String()

	exhausted := &ExhaustedError{
		ChainID:    t.chainID,
		Method:     op.Name,
		LastErrors: make(map[string]error),
	}

	idx := t.initialIndex(ctx)
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		name := t.names[idx]
		result, err := t.attempt(ctx, idx, op)
		if err == nil {
			return result, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}

		class := ClassifyError(err)
		metrics.RPCErrorsTotal.WithLabelValues(chain, name, class.Kind.String()).Inc()

		if !class.Retryable {
			t.logger.Debug("rpc call failed with fatal error",
				"chain", chain,
				"endpoint", name,
				"method", op.Name,
				"error", err,
			)
			return nil, err
		}

		exhausted.record(name, err)
		t.markFailed(ctx, idx)

		if attempt == maxAttempts-1 {
			break
		}

		next := t.nextIndex(ctx, idx)
		if next != idx {
			metrics.RPCRotationsTotal.WithLabelValues(chain).Inc()
		}
		delay := calculateBackoff(attempt, t.config)

		t.logger.Warn("rpc attempt failed, rotating endpoint",
			"chain", chain,
			"method", op.Name,
			"attempt", attempt+1,
			"max_attempts", maxAttempts,
			"endpoint", name,
			"next", t.names[next],
			"kind", class.Kind.String(),
			"backoff", delay,
			"error", err,
		)

		if delay > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}
		idx = next
	}

	exhausted.Attempts = maxAttempts
	metrics.RPCExhaustedTotal.WithLabelValues(chain, op.Name).Inc()
	t.logger.Error("all rpc endpoints exhausted",
		"chain", chain,
		"method", op.Name,
		"attempts", maxAttempts,
		"endpoints", strings.Join(exhausted.Endpoints, ","),
	)
	return nil, exhausted
}

func (t *ResilientTransport) attempt(ctx context.Context, idx int, op provider.Operation) (json.RawMessage, error) {
	callCtx := ctx
	if t.config.CallTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, t.config.CallTimeout)
		defer cancel()
	}

	chain := t.chainID.String()
	tr, name := t.transports[idx], t.names[idx]
	metrics.RPCCallsTotal.WithLabelValues(chain, name, op.Name).Inc()

	start := time.Now()
	result, err := tr.Call(callCtx, op.Name, op.Params)
	metrics.RPCLatency.WithLabelValues(chain, name, op.Name).Observe(time.Since(start).Seconds())

	if err == nil && op.Validate != nil {
		err = op.Validate(result)
	}

	t.logger.Debug("rpc attempt",
		"chain", chain,
		"endpoint", name,
		"method", op.Name,
		"latency", time.Since(start),
		"ok", err == nil,
	)
	return result, err
}

func (t *ResilientTransport) markFailed(ctx context.Context, idx int) {
	metrics.CooldownMarksTotal.WithLabelValues(t.chainID.String(), t.names[idx]).Inc()
	if err := t.store.MarkFailed(ctx, t.transports[idx].Endpoint(), t.now()); err != nil {
		t.logger.Warn("failed to record cooldown",
			"chain", t.chainID.String(),
			"endpoint", t.names[idx],
			"error", err,
		)
	}
}

func (t *ResilientTransport) cooling(ctx context.Context, i int, now time.Time) bool {
	return cooldown.InCooldown(ctx, t.store, t.transports[i].Endpoint(), now, t.config.CooldownWindow)
}

// initialIndex is the first endpoint not in cooldown, or 0.
func (t *ResilientTransport) initialIndex(ctx context.Context) int {
	now := t.now()
	for i := range t.transports {
		if !t.cooling(ctx, i, now) {
			return i
		}
	}
	return 0
}

// nextIndex is the next endpoint after current not in cooldown, wrapping
// around. When every endpoint is cooling it is simply current+1.
func (t *ResilientTransport) nextIndex(ctx context.Context, current int) int {
	n := len(t.transports)
	now := t.now()
	for step := 1; step <= n; step++ {
		j := (current + step) % n
		if !t.cooling(ctx, j, now) {
			return j
		}
	}
	return (current + 1) % n
}

// EndpointStatus is a point-in-time view of one endpoint.
type EndpointStatus struct {
	Name       string                 `json:"name"`
	InCooldown bool                   `json:"in_cooldown"`
	Health     *provider.HealthStatus `json:"health,omitempty"`
}

// Status reports every endpoint in priority order.
func (t *ResilientTransport) Status(ctx context.Context) []EndpointStatus {
	now := t.now()
	out := make([]EndpointStatus, 0, len(t.transports))
	for i, tr := range t.transports {
		st := EndpointStatus{
			Name:       t.names[i],
			InCooldown: t.cooling(ctx, i, now),
		}
		if hp, ok := tr.(interface{ GetHealth() provider.HealthStatus }); ok {
			h := hp.GetHealth()
			st.Health = &h
		}
		out = append(out, st)
	}
	return out
}

// Endpoints returns the endpoint names in priority order.
func (t *ResilientTransport) Endpoints() []string {
	return append([]string(nil), t.names...)
}

// Close closes every underlying transport.
func (t *ResilientTransport) Close() error {
	var err error
	for _, tr := range t.transports {
		err = multierr.Append(err, tr.Close())
	}
	return err
}

// ExhaustedError is returned when every attempt failed with a retryable error.
type ExhaustedError struct {
	ChainID  domain.ChainID
	Method   string
	Attempts int
	// Endpoints lists attempted endpoints in first-attempt order.
	Endpoints []string
	// LastErrors holds the last error seen per endpoint.
	LastErrors map[string]error
}

func (e *ExhaustedError) record(name string, err error) {
	if _, seen := e.LastErrors[name]; !seen {
		e.Endpoints = append(e.Endpoints, name)
	}
	e.LastErrors[name] = err
}

func (e *ExhaustedError) combined() error {
	var errs error
	for _, name := range e.Endpoints {
		errs = multierr.Append(errs, fmt.Errorf("%s: %w", name, e.LastErrors[name]))
	}
	return errs
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("%s: chain %s %s after %d attempts: %v",
		provider.ErrAllEndpointsExhausted, e.ChainID, e.Method, e.Attempts, e.combined())
}

// Is matches provider.ErrAllEndpointsExhausted.
func (e *ExhaustedError) Is(target error) bool {
	return target == provider.ErrAllEndpointsExhausted
}

// Unwrap exposes the per-endpoint errors.
func (e *ExhaustedError) Unwrap() []error {
	return multierr.Errors(e.combined())
}

// OnlyEmptyData reports whether err is an exhaustion where every endpoint's
// last failure was an empty-data response.
func OnlyEmptyData(err error) bool {
	var exhausted *ExhaustedError
	if !errors.As(err, &exhausted) || len(exhausted.LastErrors) == 0 {
		return false
	}
	for _, e := range exhausted.LastErrors {
		if ClassifyError(e).Kind != KindEmptyData {
			return false
		}
	}
	return true
}
