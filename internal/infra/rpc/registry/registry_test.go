package registry

import (
	"errors"
	"reflect"
	"testing"

	"github.com/vietddude/chainreader/internal/core/domain"
	"github.com/vietddude/chainreader/internal/infra/rpc/provider"
)

func TestCandidatesOverrideFirstNoDuplicates(t *testing.T) {
	r := NewDefault()

	got, err := r.Candidates(domain.ChainIDEthereum, " https://eth.llamarpc.com ")
	if err != nil {
		t.Fatal(err)
	}

	want := []string{
		"https://eth.llamarpc.com",
		"https://ethereum-rpc.publicnode.com",
		"https://rpc.ankr.com/eth",
		"https://cloudflare-eth.com",
		"https://eth.drpc.org",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v\nwant %v", got, want)
	}
}

func TestCandidatesFiltering(t *testing.T) {
	r := New(map[domain.ChainID]Endpoints{
		domain.ChainIDBase: {
			Primary: "http://insecure.example",
			Fallbacks: []string{
				"https://base.g.alchemy.com/v2/${ALCHEMY_KEY}",
				"https://rpc.example/{{key}}",
				"https://rpc.example/<key>",
				"https://rpc.example/YOUR_API_KEY",
				"https://rpc.example/your-key",
				"https://rpc.example/API_KEY_HERE",
				"https://rpc.example/placeholder",
				"https://rpc.example/rpc?key=your_key",
				"https://",
				"https://good.example/rpc",
				"https://good.example/rpc",
				"https://your-node.example.com/rpc",
			},
		},
	})

	got, err := r.Candidates(domain.ChainIDBase, "")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"https://good.example/rpc", "https://your-node.example.com/rpc"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("unexpected candidates %v", got)
	}
}

func TestCandidatesNoEndpoints(t *testing.T) {
	r := New(map[domain.ChainID]Endpoints{
		domain.ChainIDBSC: {Primary: "http://only-http.example"},
	})

	if _, err := r.Candidates(domain.ChainIDBSC, ""); !errors.Is(err, provider.ErrNoEndpointsConfigured) {
		t.Errorf("expected ErrNoEndpointsConfigured, got %v", err)
	}
	if _, err := r.Candidates(domain.ChainID(999), ""); !errors.Is(err, provider.ErrNoEndpointsConfigured) {
		t.Errorf("unknown chain: expected ErrNoEndpointsConfigured, got %v", err)
	}
}

func TestCuratedChainsAreValid(t *testing.T) {
	r := NewDefault()
	if len(r.Chains()) != 7 {
		t.Fatalf("expected 7 curated chains, got %d", len(r.Chains()))
	}
	for _, id := range r.Chains() {
		eps := Curated[id]
		got, err := r.Candidates(id, "")
		if err != nil {
			t.Fatalf("chain %s: %v", id, err)
		}
		if len(got) != 1+len(eps.Fallbacks) {
			t.Errorf("chain %s: curated endpoint filtered out: %v", id, got)
		}
	}
}

func TestWithReplacesChain(t *testing.T) {
	base := NewDefault()
	r := base.With(domain.ChainIDSepolia, Endpoints{Primary: "https://my-node.example"})

	got, _ := r.Candidates(domain.ChainIDSepolia, "")
	if !reflect.DeepEqual(got, []string{"https://my-node.example"}) {
		t.Errorf("unexpected %v", got)
	}
	orig, _ := base.Candidates(domain.ChainIDSepolia, "")
	if orig[0] != Curated[domain.ChainIDSepolia].Primary {
		t.Error("With must not mutate the receiver")
	}
}
