package evm

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/vietddude/chainreader/internal/core/domain"
	"github.com/vietddude/chainreader/internal/infra/chain"
	"github.com/vietddude/chainreader/internal/infra/rpc"
	"github.com/vietddude/chainreader/internal/infra/rpc/provider"
)

// MockTransport implements rpc.Transport for testing
type MockTransport struct {
	Name     string
	CallFunc func(ctx context.Context, method string, params []any) (json.RawMessage, error)

	mu    sync.Mutex
	calls []string
}

func (m *MockTransport) Call(ctx context.Context, method string, params []any) (json.RawMessage, error) {
	m.mu.Lock()
	m.calls = append(m.calls, method)
	m.mu.Unlock()
	if m.CallFunc != nil {
		return m.CallFunc(ctx, method, params)
	}
	return json.RawMessage(`null`), nil
}

func (m *MockTransport) GetName() string  { return m.Name }
func (m *MockTransport) Endpoint() string { return "https://" + m.Name + ".test" }
func (m *MockTransport) Close() error     { return nil }

func (m *MockTransport) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

func newTestAdapter(t *testing.T, chainID domain.ChainID, transports ...*MockTransport) *EVMAdapter {
	t.Helper()
	ts := make([]rpc.Transport, len(transports))
	for i, tr := range transports {
		ts[i] = tr
	}
	client, err := rpc.NewClientWithTransports(chainID, ts, nil, rpc.RetryConfig{InitialDelay: -1})
	if err != nil {
		t.Fatal(err)
	}
	return NewEVMAdapter(chainID, client, nil)
}

func raw(s string) json.RawMessage { return json.RawMessage(s) }

func TestEVMAdapter_GetLatestBlock(t *testing.T) {
	mock := &MockTransport{
		Name: "mock",
		CallFunc: func(ctx context.Context, method string, params []any) (json.RawMessage, error) {
			if method == "eth_blockNumber" {
				return raw(`"0x12d687"`), nil // 1234567 in hex
			}
			return nil, errors.New("unexpected method " + method)
		},
	}

	adapter := newTestAdapter(t, domain.ChainIDEthereum, mock)
	height, err := adapter.GetLatestBlock(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if height != 1234567 {
		t.Errorf("expected height 1234567, got %d", height)
	}
}

func TestEVMAdapter_GetLatestBlockMalformedRotates(t *testing.T) {
	bad := &MockTransport{Name: "bad", CallFunc: func(context.Context, string, []any) (json.RawMessage, error) {
		return raw(`"not-hex"`), nil
	}}
	good := &MockTransport{Name: "good", CallFunc: func(context.Context, string, []any) (json.RawMessage, error) {
		return raw(`"0x10"`), nil
	}}

	adapter := newTestAdapter(t, domain.ChainIDBase, bad, good)
	height, err := adapter.GetLatestBlock(context.Background())
	if err != nil || height != 16 {
		t.Fatalf("expected 16 from second endpoint, got %d %v", height, err)
	}
}

func TestEVMAdapter_VerifyChainID(t *testing.T) {
	ok := &MockTransport{Name: "ok", CallFunc: func(context.Context, string, []any) (json.RawMessage, error) {
		return raw(`"0x2105"`), nil // 8453
	}}
	if err := newTestAdapter(t, domain.ChainIDBase, ok).VerifyChainID(context.Background()); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	wrong := &MockTransport{Name: "wrong", CallFunc: func(context.Context, string, []any) (json.RawMessage, error) {
		return raw(`"0xa"`), nil
	}}
	other := &MockTransport{Name: "other", CallFunc: func(context.Context, string, []any) (json.RawMessage, error) {
		return raw(`"0x1"`), nil
	}}
	err := newTestAdapter(t, domain.ChainIDEthereum, wrong, other).VerifyChainID(context.Background())
	if !errors.Is(err, provider.ErrChainIDMismatch) {
		t.Fatalf("expected chain id mismatch, got %v", err)
	}
	if len(other.Calls()) != 0 {
		t.Error("a chain id mismatch must not rotate to another endpoint")
	}
}

func TestEVMAdapter_VerifyChainIDNetVersionFallback(t *testing.T) {
	mock := &MockTransport{Name: "legacy", CallFunc: func(_ context.Context, method string, _ []any) (json.RawMessage, error) {
		if method == "eth_chainId" {
			return nil, &provider.RPCError{Code: -32601, Message: "method not found"}
		}
		return raw(`"137"`), nil
	}}

	if err := newTestAdapter(t, domain.ChainIDPolygon, mock).VerifyChainID(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls := mock.Calls(); len(calls) != 2 || calls[1] != "net_version" {
		t.Errorf("unexpected calls %v", calls)
	}
}

func testLog(t *testing.T, topics []common.Hash, block uint64, tx string) json.RawMessage {
	t.Helper()
	l := types.Log{
		Address:     common.HexToAddress("0x00000000000000000000000000000000000000aa"),
		Topics:      topics,
		Data:        []byte{},
		BlockNumber: block,
		TxHash:      common.HexToHash(tx),
		BlockHash:   common.HexToHash("0xbb"),
		Index:       1,
	}
	b, err := json.Marshal(&l)
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func TestEVMAdapter_GetLogs(t *testing.T) {
	events := DefaultEventSet()
	contract := common.HexToAddress("0x00000000000000000000000000000000000000aa")
	logJSON := testLog(t, []common.Hash{events.Topics()[0], RecordIDTopic(7)}, 100, "0x01")

	var gotFilter map[string]any
	mock := &MockTransport{Name: "mock", CallFunc: func(_ context.Context, method string, params []any) (json.RawMessage, error) {
		b, _ := json.Marshal(params[0])
		json.Unmarshal(b, &gotFilter)
		return json.RawMessage("[" + string(logJSON) + "]"), nil
	}}

	adapter := newTestAdapter(t, domain.ChainIDEthereum, mock)
	logs, err := adapter.GetLogs(context.Background(), chain.LogQuery{
		FromBlock: 95,
		ToBlock:   105,
		Address:   contract,
		Topics:    [][]common.Hash{events.Topics()},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(logs) != 1 || logs[0].BlockNumber != 100 {
		t.Fatalf("unexpected logs %+v", logs)
	}

	if gotFilter["fromBlock"] != "0x5f" || gotFilter["toBlock"] != "0x69" {
		t.Errorf("unexpected range in filter %v", gotFilter)
	}
	if gotFilter["address"] != contract.Hex() {
		t.Errorf("unexpected address %v", gotFilter["address"])
	}
	topics, _ := gotFilter["topics"].([]any)
	if len(topics) != 1 {
		t.Errorf("unexpected topics %v", gotFilter["topics"])
	}

	ev, ok := DecodeCreationEvent(logs[0], events)
	if !ok || ev.RecordID != 7 || ev.Kind != domain.EventKindCreated {
		t.Errorf("unexpected decoded event %+v (ok=%v)", ev, ok)
	}
	if ev.TxHash != common.HexToHash("0x01").Hex() {
		t.Errorf("unexpected tx hash %s", ev.TxHash)
	}
}

func TestEVMAdapter_GetLogsHTMLBodyRotates(t *testing.T) {
	bad := &MockTransport{Name: "bad", CallFunc: func(context.Context, string, []any) (json.RawMessage, error) {
		return raw(`{"unexpected":"object"}`), nil
	}}
	good := &MockTransport{Name: "good", CallFunc: func(context.Context, string, []any) (json.RawMessage, error) {
		return raw(`[]`), nil
	}}

	logs, err := newTestAdapter(t, domain.ChainIDEthereum, bad, good).
		GetLogs(context.Background(), chain.LogQuery{FromBlock: 1, ToBlock: 2})
	if err != nil || len(logs) != 0 {
		t.Fatalf("expected empty logs from second endpoint, got %v %v", logs, err)
	}
	if len(good.Calls()) != 1 {
		t.Error("expected rotation to the second endpoint")
	}
}

func TestEVMAdapter_GetLogsInvalidRange(t *testing.T) {
	mock := &MockTransport{Name: "mock"}
	_, err := newTestAdapter(t, domain.ChainIDEthereum, mock).
		GetLogs(context.Background(), chain.LogQuery{FromBlock: 10, ToBlock: 9})
	if err == nil || len(mock.Calls()) != 0 {
		t.Errorf("expected local error without network call, got %v", err)
	}
}

func TestEVMAdapter_CallContractEmpty(t *testing.T) {
	mock := &MockTransport{Name: "mock", CallFunc: func(context.Context, string, []any) (json.RawMessage, error) {
		return raw(`"0x"`), nil
	}}
	_, err := newTestAdapter(t, domain.ChainIDEthereum, mock).
		CallContract(context.Background(), common.HexToAddress("0xaa"), []byte{1})
	if !errors.Is(err, provider.ErrAllEndpointsExhausted) || !errors.Is(err, provider.ErrEmptyData) {
		t.Errorf("expected exhausted empty data, got %v", err)
	}
}

func TestDecodeCreationEvent(t *testing.T) {
	events := DefaultEventSet()
	created, edited := events.Topics()[0], events.Topics()[1]

	tests := []struct {
		name string
		log  types.Log
		ok   bool
		kind domain.EventKind
	}{
		{"created", types.Log{Topics: []common.Hash{created, RecordIDTopic(1)}}, true, domain.EventKindCreated},
		{"edited", types.Log{Topics: []common.Hash{edited, RecordIDTopic(1)}}, true, domain.EventKindEdited},
		{"removed", types.Log{Topics: []common.Hash{created, RecordIDTopic(1)}, Removed: true}, false, ""},
		{"unknown topic", types.Log{Topics: []common.Hash{EventTopic("Transfer(address,address,uint256)"), RecordIDTopic(1)}}, false, ""},
		{"no id topic", types.Log{Topics: []common.Hash{created}}, false, ""},
		{"id overflow", types.Log{Topics: []common.Hash{created, common.HexToHash("0x010000000000000000")}}, false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, ok := DecodeCreationEvent(tt.log, events)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if ok && ev.Kind != tt.kind {
				t.Errorf("kind = %s, want %s", ev.Kind, tt.kind)
			}
		})
	}
}

func TestEventTopic(t *testing.T) {
	// Well-known ERC20 Transfer topic.
	want := common.HexToHash("0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef")
	if got := EventTopic("Transfer(address,address,uint256)"); got != want {
		t.Errorf("got %s", got.Hex())
	}

	if len(NewEventSet("", "").Topics()) != 1 {
		t.Error("empty edited signature should disable edit events")
	}
}
