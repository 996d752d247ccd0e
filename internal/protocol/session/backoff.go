package session

import (
	"math"
	"math/rand"
	"time"
)

// NextBackoffDelay returns how long to wait after failed attempt N
// (1-based) before opening a fresh session. The delay grows by Multiplier
// per attempt up to MaxDelay; with Jitter it is scaled by a factor in
// [0.5, 1.5), or exactly 1.0 when rng is nil.
func NextBackoffDelay(cfg BackoffConfig, attempt int, rng *rand.Rand) time.Duration {
	if cfg.InitialDelay <= 0 {
		return 0
	}
	if attempt < 1 {
		attempt = 1
	}
	growth := math.Max(cfg.Multiplier, 1.0)
	delay := float64(cfg.InitialDelay) * math.Pow(growth, float64(attempt-1))
	if cfg.MaxDelay > 0 {
		delay = math.Min(delay, float64(cfg.MaxDelay))
	}
	if cfg.Jitter && rng != nil {
		delay *= 0.5 + rng.Float64()
	}
	return time.Duration(delay)
}
