// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package bus provides the cross-process invalidation broadcast: a
// narrow publish/subscribe abstraction with a Valkey-backed
// implementation for multi-process deployments and an in-process one
// for tests and single-node development. The distributed tag caches sit
// on top of it.
package bus

import (
	"context"
	"sync"
)

// Handler receives the payload of a message published on a topic.
// Handlers must be safe for concurrent invocation and must not block.
type Handler func(payload string)

// Bus is the narrow message-passing contract the cache layer depends
// on. There is no delivery acknowledgement; convergence is eventual
// within the transport's delivery latency.
type Bus interface {
	Publish(ctx context.Context, topic, payload string) error
	Subscribe(topic string, h Handler)
}

// MemoryBus is an in-process Bus. Delivery is synchronous, which makes
// test assertions deterministic; it also serves single-node setups
// where no Valkey is configured.
type MemoryBus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
}

// NewMemoryBus creates an empty in-process bus.
func NewMemoryBus() *MemoryBus {
	return &MemoryBus{handlers: make(map[string][]Handler)}
}

// Publish delivers the payload to every handler subscribed to topic.
func (b *MemoryBus) Publish(_ context.Context, topic, payload string) error {
	b.mu.RLock()
	hs := make([]Handler, len(b.handlers[topic]))
	copy(hs, b.handlers[topic])
	b.mu.RUnlock()

	for _, h := range hs {
		h(payload)
	}
	return nil
}

// Subscribe registers a handler for a topic.
func (b *MemoryBus) Subscribe(topic string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[topic] = append(b.handlers[topic], h)
}
