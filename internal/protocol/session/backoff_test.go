package session

import (
	"math/rand"
	"testing"
	"time"

	"github.com/danmuck/pandamodel/internal/testutil/testlog"
)

func TestNextBackoffDelayGrowsToCap(t *testing.T) {
	testlog.Start(t)

	cfg := BackoffConfig{InitialDelay: 100 * time.Millisecond, Multiplier: 2, MaxDelay: time.Second}
	want := []time.Duration{
		100 * time.Millisecond,
		200 * time.Millisecond,
		400 * time.Millisecond,
		800 * time.Millisecond,
		time.Second,
		time.Second,
	}
	for i, w := range want {
		if got := NextBackoffDelay(cfg, i+1, nil); got != w {
			t.Fatalf("attempt %d: got %v want %v", i+1, got, w)
		}
	}
	if got := NextBackoffDelay(cfg, 0, nil); got != cfg.InitialDelay {
		t.Fatalf("attempt 0 should clamp to first delay, got %v", got)
	}
}

func TestNextBackoffDelayJitterBounds(t *testing.T) {
	testlog.Start(t)

	cfg := BackoffConfig{InitialDelay: time.Second, Multiplier: 1, Jitter: true}
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 100; i++ {
		got := NextBackoffDelay(cfg, 3, rng)
		if got < 500*time.Millisecond || got >= 1500*time.Millisecond {
			t.Fatalf("jittered delay %v out of range", got)
		}
	}
	if got := NextBackoffDelay(cfg, 3, nil); got != time.Second {
		t.Fatalf("nil rng should not jitter, got %v", got)
	}
}

func TestNextBackoffDelayDisabled(t *testing.T) {
	testlog.Start(t)

	if got := NextBackoffDelay(BackoffConfig{}, 4, nil); got != 0 {
		t.Fatalf("zero config delay=%v", got)
	}
}
