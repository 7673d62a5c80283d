package routing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"syscall"
	"testing"
	"time"

	"github.com/vietddude/chainreader/internal/infra/rpc/provider"
)

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind Kind
	}{
		{"http 429", &provider.HTTPStatusError{StatusCode: 429}, KindRateLimited},
		{"rpc -32005", &provider.RPCError{Code: -32005, Message: "limit"}, KindRateLimited},
		{"rpc -32090", &provider.RPCError{Code: -32090, Message: "slow down"}, KindRateLimited},
		{"rate limit text", errors.New("project rate limit exceeded"), KindRateLimited},
		{"daily count text", errors.New("daily request count exceeded, request rate limited"), KindRateLimited},
		{"quota text", errors.New("monthly quota exceeded"), KindRateLimited},
		{"http 403", &provider.HTTPStatusError{StatusCode: 403}, KindTransportBlocked},
		{"http 401", &provider.HTTPStatusError{StatusCode: 401}, KindTransportBlocked},
		{"cors text", errors.New("request blocked by CORS policy"), KindTransportBlocked},
		{"connection refused", fmt.Errorf("rpc call: %w", syscall.ECONNREFUSED), KindNetworkFailure},
		{"op error", &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("refused")}, KindNetworkFailure},
		{"dns", &net.DNSError{Err: "no such host", Name: "x.invalid"}, KindNetworkFailure},
		{"eof", fmt.Errorf("read: %w", io.EOF), KindNetworkFailure},
		{"failed to fetch text", errors.New("TypeError: Failed to fetch"), KindNetworkFailure},
		{"http 500", &provider.HTTPStatusError{StatusCode: 500}, KindServerError},
		{"http 502", &provider.HTTPStatusError{StatusCode: 502}, KindServerError},
		{"http 504", &provider.HTTPStatusError{StatusCode: 504}, KindServerError},
		{"http 408", &provider.HTTPStatusError{StatusCode: 408}, KindServerError},
		{"deadline", fmt.Errorf("rpc call: %w", context.DeadlineExceeded), KindServerError},
		{"dns timeout", &net.DNSError{Err: "i/o timeout", IsTimeout: true}, KindServerError},
		{"timeout text", errors.New("request timed out"), KindServerError},
		{"empty data", fmt.Errorf("getRecordCount: %w", provider.ErrEmptyData), KindEmptyData},
		{"malformed", &provider.MalformedResponseError{Body: "<html>"}, KindEmptyData},
		{"parse error", &provider.RPCError{Code: -32700, Message: "parse error"}, KindFatal},
		{"invalid request", &provider.RPCError{Code: -32600, Message: "invalid request"}, KindFatal},
		{"method not found", &provider.RPCError{Code: -32601, Message: "method not found"}, KindFatal},
		{"invalid params", &provider.RPCError{Code: -32602, Message: "invalid argument"}, KindFatal},
		{"chain mismatch", fmt.Errorf("endpoint x: %w", provider.ErrChainIDMismatch), KindFatal},
		{"http 404", &provider.HTTPStatusError{StatusCode: 404}, KindFatal},
		{"unknown", errors.New("something odd"), KindFatal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyError(tt.err)
			if got.Kind != tt.kind {
				t.Errorf("ClassifyError(%v).Kind = %s, want %s", tt.err, got.Kind, tt.kind)
			}
			if got.Retryable != (tt.kind != KindFatal) {
				t.Errorf("ClassifyError(%v).Retryable = %v", tt.err, got.Retryable)
			}
		})
	}
}

func TestClassifyRevertIsFatal(t *testing.T) {
	// A revert whose reason happens to mention a rate limit is still a revert.
	err := fmt.Errorf("eth_call: %w", &provider.RevertError{Reason: "execution reverted: rate limit reached"})
	if got := ClassifyError(err); got.Retryable || got.Kind != KindFatal {
		t.Errorf("revert classified as %+v", got)
	}
}

func TestCalculateBackoff(t *testing.T) {
	cfg := RetryConfig{InitialDelay: 250 * time.Millisecond, MaxDelay: 8 * time.Second, BackoffMultiple: 2}

	want := []time.Duration{
		250 * time.Millisecond,
		500 * time.Millisecond,
		time.Second,
		2 * time.Second,
		4 * time.Second,
		8 * time.Second,
		8 * time.Second,
	}
	for attempt, w := range want {
		if got := calculateBackoff(attempt, cfg); got != w {
			t.Errorf("attempt %d: got %v, want %v", attempt, got, w)
		}
	}

	cfg.InitialDelay = -1
	if got := calculateBackoff(3, cfg); got != 0 {
		t.Errorf("negative initial delay should disable backoff, got %v", got)
	}
}

func TestRetryConfigDefaults(t *testing.T) {
	cfg := RetryConfig{}.WithDefaults()
	if cfg.CooldownWindow != 60*time.Second || cfg.CallTimeout != 8*time.Second {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.attempts(3) != 6 {
		t.Errorf("expected 2x endpoints, got %d", cfg.attempts(3))
	}
	cfg.MaxAttempts = 4
	if cfg.attempts(3) != 4 {
		t.Errorf("explicit max attempts ignored")
	}
}
