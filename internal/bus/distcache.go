// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// distcache.go implements the process-wide tag cache: each process
// keeps its own map and populates it lazily, while deletes and clears
// broadcast over the bus so every process evicts together.
package bus

import (
	"context"
	"log/slog"
	"strings"
	"sync"
)

const (
	opDelete = "del:"
	opClear  = "clear"
)

// DistributedCache is a named string cache local to the process whose
// evictions propagate across the fleet. Reads and writes never touch
// the bus; only Delete and Clear publish.
type DistributedCache struct {
	name string
	bus  Bus

	mu      sync.RWMutex
	entries map[string]string
}

// NewDistributedCache creates a cache bound to its invalidation topic.
func NewDistributedCache(name string, b Bus) *DistributedCache {
	c := &DistributedCache{
		name:    name,
		bus:     b,
		entries: make(map[string]string),
	}
	b.Subscribe(c.topic(), c.onMessage)
	return c
}

func (c *DistributedCache) topic() string {
	return "distcache/" + c.name
}

// Get returns the locally cached value for key, if any.
func (c *DistributedCache) Get(key string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.entries[key]
	return v, ok
}

// Set stores a value locally. Population is lazy and per process, so no
// broadcast happens here.
func (c *DistributedCache) Set(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = value
}

// Delete evicts a key locally and broadcasts the eviction.
func (c *DistributedCache) Delete(ctx context.Context, key string) {
	c.deleteLocal(key)
	if err := c.bus.Publish(ctx, c.topic(), opDelete+key); err != nil {
		slog.Warn("distcache delete broadcast failed", "cache", c.name, "key", key, "error", err)
	}
}

// DeletePrefix evicts every key with the given prefix locally and
// broadcasts the eviction.
func (c *DistributedCache) DeletePrefix(ctx context.Context, prefix string) {
	c.deletePrefixLocal(prefix)
	if err := c.bus.Publish(ctx, c.topic(), opDelete+prefix+"*"); err != nil {
		slog.Warn("distcache prefix broadcast failed", "cache", c.name, "prefix", prefix, "error", err)
	}
}

// Clear drops every entry locally and broadcasts the clear.
func (c *DistributedCache) Clear(ctx context.Context) {
	c.clearLocal()
	if err := c.bus.Publish(ctx, c.topic(), opClear); err != nil {
		slog.Warn("distcache clear broadcast failed", "cache", c.name, "error", err)
	}
}

// Len reports the number of locally cached entries.
func (c *DistributedCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// onMessage applies a broadcast eviction to the local map. The
// publisher receives its own message too; applying it twice is
// harmless.
func (c *DistributedCache) onMessage(payload string) {
	switch {
	case payload == opClear:
		c.clearLocal()
	case strings.HasPrefix(payload, opDelete):
		key := payload[len(opDelete):]
		if strings.HasSuffix(key, "*") {
			c.deletePrefixLocal(strings.TrimSuffix(key, "*"))
		} else {
			c.deleteLocal(key)
		}
	default:
		slog.Warn("distcache ignoring unknown message", "cache", c.name, "payload", payload)
	}
}

func (c *DistributedCache) deleteLocal(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	slog.Debug("distcache evicted", "cache", c.name, "key", key)
}

func (c *DistributedCache) deletePrefixLocal(prefix string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.entries {
		if strings.HasPrefix(k, prefix) {
			delete(c.entries, k)
		}
	}
}

func (c *DistributedCache) clearLocal() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]string)
	slog.Debug("distcache cleared", "cache", c.name)
}
