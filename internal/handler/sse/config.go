package sse

import "time"

// Config holds configuration for SSE connections
type Config struct {
	// KeepAliveInterval is how often to send keep-alive pings to prevent
	// proxies from closing idle streams
	KeepAliveInterval time.Duration

	// CoalesceWindow groups bursts of change pings into one event
	CoalesceWindow time.Duration
}

// DefaultConfig returns the default SSE configuration
func DefaultConfig() *Config {
	return &Config{
		KeepAliveInterval: 10 * time.Second,
		CoalesceWindow:    50 * time.Millisecond,
	}
}
