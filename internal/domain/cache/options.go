// Package cache defines the interface for decision caching.
package cache

// Option applies a configuration option to the memory cache.
type Option func(*memoryCache)

// WithMaxSize sets the maximum number of decisions to keep in memory.
// If maxSize > 0: bounded mode with LIFO eviction.
// If maxSize <= 0: caching disabled.
func WithMaxSize(maxSize int) Option {
	return func(c *memoryCache) {
		c.maxSize = maxSize
	}
}
