package routing

import (
	"context"
	"errors"
	"io"
	"net"
	"strings"
	"syscall"

	"github.com/vietddude/chainreader/internal/infra/rpc/provider"
)

// Kind is the failure category of an RPC error.
type Kind int

const (
	KindFatal Kind = iota
	KindRateLimited
	KindTransportBlocked
	KindNetworkFailure
	KindServerError
	KindEmptyData
)

func (k Kind) String() string {
	switch k {
	case KindRateLimited:
		return "rate_limited"
	case KindTransportBlocked:
		return "transport_blocked"
	case KindNetworkFailure:
		return "network_failure"
	case KindServerError:
		return "server_error"
	case KindEmptyData:
		return "empty_data"
	default:
		return "fatal"
	}
}

// Classification says whether another endpoint may succeed where this one failed.
type Classification struct {
	Retryable bool
	Kind      Kind
}

var (
	rateLimitCodes = map[int]bool{-32005: true, -32029: true, -32090: true, 429: true}

	rateLimitPatterns = []string{
		"rate limit",
		"too many requests",
		"quota exceeded",
		"request count exceeded",
		"limit exceeded",
	}

	blockedPatterns = []string{
		"cors",
		"cross-origin",
		"access-control-allow-origin",
		"blocked by",
	}

	networkPatterns = []string{
		"connection refused",
		"failed to fetch",
		"no such host",
		"network error",
		"connection reset",
	}

	timeoutPatterns = []string{"timeout", "timed out"}
)

// ClassifyError maps an error to a Classification. Rules are checked in a
// fixed order and the first match wins.
func ClassifyError(err error) Classification {
	if err == nil {
		return Classification{Kind: KindFatal}
	}

	var revert *provider.RevertError
	if errors.As(err, &revert) {
		return fatal()
	}

	msg := strings.ToLower(err.Error())
	status := httpStatus(err)

	var rpcErr *provider.RPCError
	hasRPC := errors.As(err, &rpcErr)

	// Rate limited
	if status == 429 || (hasRPC && rateLimitCodes[rpcErr.Code]) || containsAny(msg, rateLimitPatterns) {
		return retryable(KindRateLimited)
	}

	// Rejected by the endpoint for who we are
	if status == 401 || status == 403 || containsAny(msg, blockedPatterns) {
		return retryable(KindTransportBlocked)
	}

	timeout := isTimeout(err) || containsAny(msg, timeoutPatterns)

	if !timeout && isNetworkFailure(err, msg) {
		return retryable(KindNetworkFailure)
	}

	switch status {
	case 500, 502, 503, 504, 408:
		return retryable(KindServerError)
	}
	if timeout {
		return retryable(KindServerError)
	}

	var malformed *provider.MalformedResponseError
	if errors.Is(err, provider.ErrEmptyData) || errors.As(err, &malformed) {
		return retryable(KindEmptyData)
	}

	// -32700, -32600, -32601, -32602, chain id mismatch, anything unknown
	return fatal()
}

func retryable(k Kind) Classification { return Classification{Retryable: true, Kind: k} }

func fatal() Classification { return Classification{Kind: KindFatal} }

func httpStatus(err error) int {
	var statusErr *provider.HTTPStatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode
	}
	return 0
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func isNetworkFailure(err error, msg string) bool {
	var opErr *net.OpError
	var dnsErr *net.DNSError
	switch {
	case errors.As(err, &opErr), errors.As(err, &dnsErr):
		return true
	case errors.Is(err, syscall.ECONNREFUSED), errors.Is(err, syscall.ECONNRESET):
		return true
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return true
	}
	return containsAny(msg, networkPatterns)
}

func containsAny(s string, patterns []string) bool {
	for _, p := range patterns {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}
