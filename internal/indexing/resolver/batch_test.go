package resolver

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/vietddude/chainreader/internal/core/domain"
	"github.com/vietddude/chainreader/internal/indexing/scan"
	"github.com/vietddude/chainreader/internal/infra/chain/evm"
	"github.com/vietddude/chainreader/internal/infra/rpc"
)

// nodeTransport emulates a JSON-RPC node holding one creation log per record.
type nodeTransport struct {
	name     string
	head     uint64
	logs     []types.Log
	failFrom uint64

	mu       sync.Mutex
	getLogs  int
	failures int
}

func (n *nodeTransport) GetName() string  { return n.name }
func (n *nodeTransport) Endpoint() string { return "https://" + n.name + ".test" }
func (n *nodeTransport) Close() error     { return nil }

func (n *nodeTransport) Call(ctx context.Context, method string, params []any) (json.RawMessage, error) {
	switch method {
	case "eth_blockNumber":
		return json.Marshal(fmt.Sprintf("0x%x", n.head))
	case "eth_getLogs":
		b, _ := json.Marshal(params[0])
		var filter struct {
			FromBlock string `json:"fromBlock"`
			ToBlock   string `json:"toBlock"`
		}
		json.Unmarshal(b, &filter)
		from, _ := strconv.ParseUint(strings.TrimPrefix(filter.FromBlock, "0x"), 16, 64)
		to, _ := strconv.ParseUint(strings.TrimPrefix(filter.ToBlock, "0x"), 16, 64)

		n.mu.Lock()
		n.getLogs++
		if from == n.failFrom {
			n.failures++
			n.mu.Unlock()
			return nil, fmt.Errorf("dial tcp: %w", syscall.ECONNREFUSED)
		}
		n.mu.Unlock()

		var out []types.Log
		for _, l := range n.logs {
			if l.BlockNumber >= from && l.BlockNumber <= to {
				out = append(out, l)
			}
		}
		if out == nil {
			out = []types.Log{}
		}
		return json.Marshal(out)
	}
	return nil, fmt.Errorf("unexpected method %s", method)
}

func TestResolveBatchFullStack(t *testing.T) {
	var logs []types.Log
	var hints []domain.RecordHint
	for id := uint64(1); id <= 5; id++ {
		block := id * 1000
		l := recordLog(id, block, fmt.Sprintf("0x%d", id))
		l.BlockHash = common.HexToHash("0xbb")
		l.Data = []byte{}
		logs = append(logs, l)
		hints = append(hints, domain.RecordHint{RecordID: id, BlockNumber: block})
	}

	// Record 3 is searched in 2995-3005; every endpoint refuses that query.
	a := &nodeTransport{name: "a", head: 6000, logs: logs, failFrom: 2995}
	b := &nodeTransport{name: "b", head: 6000, logs: logs, failFrom: 2995}

	client, err := rpc.NewClientWithTransports(domain.ChainIDEthereum, []rpc.Transport{a, b}, nil,
		rpc.RetryConfig{InitialDelay: -1})
	if err != nil {
		t.Fatal(err)
	}
	adapter := evm.NewEVMAdapter(domain.ChainIDEthereum, client, nil)
	engine := scan.NewEngine(adapter, scan.Config{CallDelay: -1}, nil)

	svc := NewService(Config{RecordDelay: -1}, nil)
	svc.Register(domain.ChainIDEthereum, engine, scan.Filter{Contract: testContract, Events: evm.DefaultEventSet()})

	out, err := svc.ResolveBatch(context.Background(), domain.ChainIDEthereum, hints)
	if err != nil {
		t.Fatalf("batch must not fail on a single record: %v", err)
	}
	if len(out) != 5 {
		t.Fatalf("expected 5 entries, got %d", len(out))
	}

	for id := uint64(1); id <= 5; id++ {
		want := common.HexToHash(fmt.Sprintf("0x%d", id)).Hex()
		if id == 3 {
			want = ""
		}
		if out[id] != want {
			t.Errorf("record %d: got %q, want %q", id, out[id], want)
		}
	}

	if a.failures+b.failures != 4 {
		t.Errorf("record 3 should be tried on both endpoints until exhaustion, got %d failures", a.failures+b.failures)
	}
}
