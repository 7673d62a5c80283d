package cooldown

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestRedisStoreKeyHidesURL(t *testing.T) {
	s := NewRedisStore(nil, "", time.Minute)

	key := s.Key("https://mainnet.infura.io/v3/secret-api-key")
	if !strings.HasPrefix(key, DefaultKeyPrefix) {
		t.Errorf("missing prefix: %s", key)
	}
	if strings.Contains(key, "secret") {
		t.Errorf("key leaks url: %s", key)
	}
	if len(key) != len(DefaultKeyPrefix)+64 {
		t.Errorf("unexpected key length %d", len(key))
	}
	if s.Key("https://a.example") == s.Key("https://b.example") {
		t.Error("distinct urls must map to distinct keys")
	}
}

func TestRedisStoreIntegration(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}

	ctx := context.Background()
	rdb, err := NewRedisClient(ctx, RedisConfig{URL: url})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer rdb.Close()

	prefix := "chainreader:test:" + uuid.NewString() + ":"
	s := NewRedisStore(rdb, prefix, time.Minute)
	endpoint := "https://eth.llamarpc.com"

	if _, ok, err := s.LastFailure(ctx, endpoint); err != nil || ok {
		t.Fatalf("expected empty store, ok=%v err=%v", ok, err)
	}

	at := time.UnixMilli(time.Now().UnixMilli())
	if err := s.MarkFailed(ctx, endpoint, at); err != nil {
		t.Fatalf("mark: %v", err)
	}

	got, ok, err := s.LastFailure(ctx, endpoint)
	if err != nil || !ok {
		t.Fatalf("expected entry, ok=%v err=%v", ok, err)
	}
	if !got.Equal(at) {
		t.Errorf("got %v, want %v", got, at)
	}

	ttl, err := rdb.TTL(ctx, s.Key(endpoint)).Result()
	if err != nil || ttl <= 0 || ttl > time.Minute {
		t.Errorf("unexpected ttl %v (err %v)", ttl, err)
	}
	rdb.Del(ctx, s.Key(endpoint))
}
