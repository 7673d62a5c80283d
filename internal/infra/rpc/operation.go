package rpc

import (
	"encoding/json"
	"strings"

	"github.com/vietddude/chainreader/internal/infra/rpc/provider"
)

// NewOperation creates an Operation for a JSON-RPC method.
func NewOperation(method string, params ...any) Operation {
	return provider.Operation{
		Name:   method,
		Params: params,
	}
}

// NewValidatedOperation creates an Operation whose successful result is
// passed through validate before it is accepted. A validation error is
// classified like any other failure, so ErrEmptyData rotates to the next
// endpoint and ErrChainIDMismatch stops.
func NewValidatedOperation(method string, validate func(json.RawMessage) error, params ...any) Operation {
	op := NewOperation(method, params...)
	op.Validate = validate
	return op
}

// NonEmptyHex rejects "0x", null and all-zero hex results.
func NonEmptyHex(raw json.RawMessage) error {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ErrEmptyData
	}
	hex := strings.TrimPrefix(strings.ToLower(s), "0x")
	if strings.Trim(hex, "0") == "" {
		return ErrEmptyData
	}
	return nil
}
