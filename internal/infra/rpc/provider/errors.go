package provider

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoEndpointsConfigured means a chain has no usable endpoint at all.
	ErrNoEndpointsConfigured = errors.New("no endpoints configured")

	// ErrAllEndpointsExhausted is matched by the aggregated error returned
	// once every attempt against every endpoint has failed.
	ErrAllEndpointsExhausted = errors.New("all endpoints exhausted")

	// ErrChainIDMismatch means an endpoint answered for a different chain.
	ErrChainIDMismatch = errors.New("chain id mismatch")

	// ErrEmptyData means an endpoint returned the "no data" sentinel where
	// contract data was expected.
	ErrEmptyData = errors.New("empty response data")
)

// HTTPStatusError is returned for non-200 HTTP responses.
type HTTPStatusError struct {
	StatusCode int
	Body       string
	RetryAfter string
}

func (e *HTTPStatusError) Error() string {
	if e.StatusCode == 429 {
		return fmt.Sprintf("rate limited (429), retry after: %s", e.RetryAfter)
	}
	if e.Body == "" {
		return fmt.Sprintf("http %d", e.StatusCode)
	}
	return fmt.Sprintf("http %d: %s", e.StatusCode, e.Body)
}

// RPCError is a JSON-RPC error object.
type RPCError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// RevertError is a contract-level revert. It is always fatal.
type RevertError struct {
	Reason string
	Data   string
}

func (e *RevertError) Error() string {
	if strings.HasPrefix(e.Reason, "execution reverted") {
		return e.Reason
	}
	if e.Reason == "" {
		return "execution reverted"
	}
	return "execution reverted: " + e.Reason
}

// MalformedResponseError means the endpoint answered 200 with a body that
// is not a usable JSON-RPC response.
type MalformedResponseError struct {
	Body string
	Err  error
}

func (e *MalformedResponseError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("malformed response: %s", e.Body)
	}
	return fmt.Sprintf("malformed response: %v", e.Err)
}

func (e *MalformedResponseError) Unwrap() error {
	return e.Err
}

// revertFromRPC turns a JSON-RPC error into a RevertError when it is one.
func revertFromRPC(e *RPCError) (*RevertError, bool) {
	if e.Code != 3 && !strings.Contains(strings.ToLower(e.Message), "execution reverted") {
		return nil, false
	}
	var data string
	if len(e.Data) > 0 {
		if err := json.Unmarshal(e.Data, &data); err != nil {
			data = string(e.Data)
		}
	}
	return &RevertError{Reason: e.Message, Data: data}, true
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
