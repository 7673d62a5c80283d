package scan

import "time"

// Config holds the window and pacing parameters of an Engine.
type Config struct {
	// ChunkSize is the largest block span of one log query.
	ChunkSize uint64 `yaml:"chunk_size"`
	// StaleThreshold is how far behind the head a hint may be before it is
	// no longer trusted.
	StaleThreshold uint64 `yaml:"stale_threshold"`
	// RecentWindow is the span below the head searched for stale hints.
	RecentWindow uint64 `yaml:"recent_window"`
	// HintRadius is searched on both sides of a trusted hint.
	HintRadius uint64 `yaml:"hint_radius"`
	// ExpandedWindow is the span below the head searched by the fallback
	// record-filtered scan.
	ExpandedWindow uint64        `yaml:"expanded_window"`
	HeadTTL        time.Duration `yaml:"head_ttl"`
	// CallDelay is the minimum gap between two calls to the chain.
	// Negative disables pacing.
	CallDelay time.Duration `yaml:"call_delay"`
}

// DefaultConfig matches what public endpoints tolerate.
var DefaultConfig = Config{
	ChunkSize:      10_000,
	StaleThreshold: 100_000,
	RecentWindow:   10_000,
	HintRadius:     5,
	ExpandedWindow: 50_000,
	HeadTTL:        3 * time.Second,
	CallDelay:      150 * time.Millisecond,
}

// WithDefaults fills zero fields from DefaultConfig.
func (c Config) WithDefaults() Config {
	if c.ChunkSize == 0 {
		c.ChunkSize = DefaultConfig.ChunkSize
	}
	if c.StaleThreshold == 0 {
		c.StaleThreshold = DefaultConfig.StaleThreshold
	}
	if c.RecentWindow == 0 {
		c.RecentWindow = DefaultConfig.RecentWindow
	}
	if c.HintRadius == 0 {
		c.HintRadius = DefaultConfig.HintRadius
	}
	if c.ExpandedWindow == 0 {
		c.ExpandedWindow = DefaultConfig.ExpandedWindow
	}
	if c.HeadTTL == 0 {
		c.HeadTTL = DefaultConfig.HeadTTL
	}
	if c.CallDelay == 0 {
		c.CallDelay = DefaultConfig.CallDelay
	}
	return c
}
