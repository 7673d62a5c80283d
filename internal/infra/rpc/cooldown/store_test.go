package cooldown

import (
	"context"
	"testing"
	"time"
)

func TestActiveWindowBoundary(t *testing.T) {
	window := 60 * time.Second
	failedAt := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"just failed", failedAt, true},
		{"1ms before expiry", failedAt.Add(window - time.Millisecond), true},
		{"exactly at window", failedAt.Add(window), false},
		{"1ms after expiry", failedAt.Add(window + time.Millisecond), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Active(failedAt, tt.now, window); got != tt.want {
				t.Errorf("Active() = %v, want %v", got, tt.want)
			}
		})
	}

	if Active(time.Time{}, failedAt, window) {
		t.Error("zero failure time must not be active")
	}
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	url := "https://eth.llamarpc.com"

	if _, ok, _ := s.LastFailure(ctx, url); ok {
		t.Fatal("expected no entry")
	}

	t1 := time.Unix(1000, 0)
	t0 := time.Unix(900, 0)
	s.MarkFailed(ctx, url, t1)
	s.MarkFailed(ctx, url, t0)

	got, ok, err := s.LastFailure(ctx, url)
	if err != nil || !ok {
		t.Fatalf("expected entry, err=%v", err)
	}
	if !got.Equal(t1) {
		t.Errorf("older mark overwrote newer one: got %v", got)
	}

	if !InCooldown(ctx, s, url, t1.Add(time.Second), time.Minute) {
		t.Error("expected endpoint in cooldown")
	}
	if InCooldown(ctx, s, url, t1.Add(2*time.Minute), time.Minute) {
		t.Error("expected cooldown to have expired")
	}
}

func TestInCooldownNilStore(t *testing.T) {
	if InCooldown(context.Background(), nil, "https://x", time.Now(), time.Minute) {
		t.Error("nil store must never report cooldown")
	}
}
