// Package cache defines the interface for decision caching.
package cache

import (
	"context"
	"hash/fnv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/symptomly/triage/internal/domain/types"
	"github.com/symptomly/triage/pkg/metrics"
)

// Cache stores recent decisions keyed by the check text, so identical
// descriptions skip the pipeline. Keys are hashed; no raw text is kept.
type Cache interface {
	// Get returns the cached decision for text, if present.
	Get(ctx context.Context, text string) (types.Decision, bool)

	// Put records the decision for text, evicting the oldest surviving
	// entry when the cache is full.
	Put(ctx context.Context, text string, d types.Decision)

	Size() int64
}

// node represents a single entry in the linked list
type node struct {
	key      uint64
	decision types.Decision
	next     *node
}

// reset clears the node state for reuse
func (n *node) reset() {
	n.key = 0
	n.decision = types.Decision{}
	n.next = nil
}

// memoryCache implements Cache using an in-memory linked list that evicts
// the oldest entry first, with a sync.Pool for nodes. A non-positive
// maxSize disables the cache entirely: Get always misses and Put is a
// no-op.
type memoryCache struct {
	mu       sync.RWMutex
	entries  map[uint64]*node // key -> node pointer
	head     *node            // head of linked list (most recently added)
	maxSize  int
	size     atomic.Int64
	nodePool sync.Pool
}

// New creates a decision cache with configuration options.
func New(opts ...Option) Cache {
	c := &memoryCache{
		maxSize: 1024, // default max size
	}

	for _, opt := range opts {
		opt(c)
	}

	c.entries = make(map[uint64]*node)
	if c.maxSize > 0 {
		c.nodePool = sync.Pool{
			New: func() interface{} {
				return &node{}
			},
		}
	}

	return c
}

// keyFor hashes the lower-cased text with FNV-1a so the cache never holds
// the description itself.
func keyFor(text string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(strings.ToLower(text)))
	return h.Sum64()
}

// Get returns the cached decision for text, if present.
func (c *memoryCache) Get(_ context.Context, text string) (types.Decision, bool) {
	if c.maxSize <= 0 {
		return types.Decision{}, false
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	n, ok := c.entries[keyFor(text)]
	if !ok {
		metrics.RecordCacheMiss()
		return types.Decision{}, false
	}
	metrics.RecordCacheHit()
	return n.decision, true
}

// Put records the decision for text, evicting the oldest entry when full.
func (c *memoryCache) Put(_ context.Context, text string, d types.Decision) {
	if c.maxSize <= 0 {
		return
	}

	key := keyFor(text)

	c.mu.Lock()
	defer c.mu.Unlock()

	// Idempotent inputs give identical decisions, so an existing entry is
	// simply refreshed in place.
	if n, exists := c.entries[key]; exists {
		n.decision = d
		return
	}

	if len(c.entries) >= c.maxSize {
		c.evictOldest()
	}

	n := c.nodePool.Get().(*node)
	n.key = key
	n.decision = d
	n.next = c.head

	c.head = n
	c.entries[key] = n
	c.size.Add(1)
}

// evictOldest removes the oldest entry (tail of list) from the map.
// Must be called with c.mu.Lock() held.
func (c *memoryCache) evictOldest() {
	if len(c.entries) == 0 || c.head == nil {
		return
	}

	current := c.head

	// If there's only one node, remove it
	if current.next == nil {
		delete(c.entries, current.key)
		current.reset()
		c.nodePool.Put(current)
		c.head = nil
		c.size.Add(-1)
		return
	}

	// Find the second-to-last node
	var prev *node
	for current.next != nil {
		prev = current
		current = current.next
	}

	prev.next = nil
	delete(c.entries, current.key)
	current.reset()
	c.nodePool.Put(current)
	c.size.Add(-1)
}

// Size returns the current number of entries in the cache.
func (c *memoryCache) Size() int64 {
	return c.size.Load()
}
