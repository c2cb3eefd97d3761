package scorecache

import "time"

// Config holds Redis connection settings for the score cache.
type Config struct {
	// URL is the Redis connection URL (e.g., redis://localhost:6379)
	URL string

	PoolSize     int
	MinIdleConns int

	// TTL of a cached position; zero keeps it forever.
	TTL time.Duration
}

func DefaultConfig() Config {
	return Config{
		URL:          "redis://localhost:6379",
		PoolSize:     10,
		MinIdleConns: 2,
		TTL:          7 * 24 * time.Hour,
	}
}
