// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package bus

import (
	"context"
	"testing"
)

func TestDistributedCacheLocalOps(t *testing.T) {
	c := NewDistributedCache("test", NewMemoryBus())

	if _, ok := c.Get("missing"); ok {
		t.Error("empty cache returned a value")
	}

	c.Set("k", "v")
	if v, ok := c.Get("k"); !ok || v != "v" {
		t.Errorf("Get(k) = (%q, %v), want (v, true)", v, ok)
	}

	c.Delete(context.Background(), "k")
	if _, ok := c.Get("k"); ok {
		t.Error("deleted key still present")
	}
}

func TestDistributedCacheDeletePrefix(t *testing.T) {
	c := NewDistributedCache("test", NewMemoryBus())

	c.Set("theme-a:desktop", "1")
	c.Set("theme-a:mobile", "2")
	c.Set("theme-b:desktop", "3")

	c.DeletePrefix(context.Background(), "theme-a:")

	if _, ok := c.Get("theme-a:desktop"); ok {
		t.Error("prefixed key survived prefix delete")
	}
	if _, ok := c.Get("theme-a:mobile"); ok {
		t.Error("prefixed key survived prefix delete")
	}
	if v, ok := c.Get("theme-b:desktop"); !ok || v != "3" {
		t.Error("unrelated key evicted by prefix delete")
	}
}

// Two caches on one bus stand in for two processes: an eviction issued
// through either must land in both.
func TestDistributedCacheEvictionPropagates(t *testing.T) {
	b := NewMemoryBus()
	one := NewDistributedCache("tags", b)
	two := NewDistributedCache("tags", b)

	one.Set("k", "local-one")
	two.Set("k", "local-two")

	one.Delete(context.Background(), "k")

	if _, ok := one.Get("k"); ok {
		t.Error("publisher kept the deleted key")
	}
	if _, ok := two.Get("k"); ok {
		t.Error("peer kept the deleted key")
	}
}

func TestDistributedCacheClearPropagates(t *testing.T) {
	b := NewMemoryBus()
	one := NewDistributedCache("tags", b)
	two := NewDistributedCache("tags", b)

	one.Set("a", "1")
	two.Set("b", "2")
	two.Set("c", "3")

	one.Clear(context.Background())

	if one.Len() != 0 || two.Len() != 0 {
		t.Errorf("after clear: one=%d two=%d entries", one.Len(), two.Len())
	}
}

// Caches with different names share the bus without sharing evictions.
func TestDistributedCacheNamesIsolate(t *testing.T) {
	b := NewMemoryBus()
	tags := NewDistributedCache("tags", b)
	fields := NewDistributedCache("fields", b)

	tags.Set("k", "1")
	fields.Set("k", "2")

	tags.Clear(context.Background())

	if _, ok := fields.Get("k"); !ok {
		t.Error("clear crossed cache names")
	}
}
