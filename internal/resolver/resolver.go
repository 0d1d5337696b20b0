// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package resolver walks the theme inheritance graph and merges a named
// field across a theme and its descendants into one value. The walk is
// breadth-first with a hard iteration cap, so edge data containing a
// cycle still terminates with a deterministic partial result.
package resolver

import (
	"fmt"
	"strings"
	"sync"

	"themepress/internal/models"
)

// maxDepth caps traversal iterations. The edge table prevents duplicate
// edges but not cycles; the cap is the only termination guarantee.
const maxDepth = 5

// ThemeSource is the slice of the store the resolver reads. ThemeStore
// and ThemeFieldStore satisfy it together via Stores.
type ThemeSource interface {
	ChildrenOf(ids []int64) ([]models.Theme, error)
	Field(themeID int64, target models.Target, name string) (*models.ThemeField, error)
}

// Resolver resolves fields across the theme graph. The per-theme
// descendant list is cached for reuse within and across resolution
// passes; it must be dropped when a theme's child-edge set changes.
type Resolver struct {
	src ThemeSource

	mu          sync.Mutex
	descendants map[int64][]models.Theme
}

// New creates a resolver with an empty descendant cache.
func New(src ThemeSource) *Resolver {
	return &Resolver{
		src:         src,
		descendants: make(map[int64][]models.Theme),
	}
}

// Descendants returns the theme's descendant set in discovery order:
// direct children in database return order, then their children, and so
// on, capped at maxDepth iterations. The root itself is never included,
// and no theme appears twice.
func (r *Resolver) Descendants(themeID int64) ([]models.Theme, error) {
	r.mu.Lock()
	if cached, ok := r.descendants[themeID]; ok {
		r.mu.Unlock()
		return cached, nil
	}
	r.mu.Unlock()

	seen := make(map[int64]bool)
	frontier := []int64{themeID}
	var out []models.Theme

	for iterations := 0; len(frontier) > 0 && iterations < maxDepth; iterations++ {
		children, err := r.src.ChildrenOf(frontier)
		if err != nil {
			return nil, fmt.Errorf("resolve descendants: %w", err)
		}

		frontier = nil
		for _, child := range children {
			if seen[child.ID] || child.ID == themeID {
				continue
			}
			seen[child.ID] = true
			frontier = append(frontier, child.ID)
			out = append(out, child)
		}
	}

	r.mu.Lock()
	r.descendants[themeID] = out
	r.mu.Unlock()
	return out, nil
}

// ResolveField merges the named field across the theme and its
// descendants: for each theme in discovery order, the common-scoped
// value precedes the target-scoped one, blank values are dropped, and
// the remainder is newline-joined. Resolution is a pure read of
// persisted field state.
func (r *Resolver) ResolveField(themeID int64, target models.Target, name string) (string, error) {
	descendants, err := r.Descendants(themeID)
	if err != nil {
		return "", err
	}

	ids := make([]int64, 0, len(descendants)+1)
	ids = append(ids, themeID)
	for _, d := range descendants {
		ids = append(ids, d.ID)
	}

	targets := []models.Target{target}
	if target != models.TargetCommon {
		targets = []models.Target{models.TargetCommon, target}
	}

	var parts []string
	for _, id := range ids {
		for _, tgt := range targets {
			f, err := r.src.Field(id, tgt, name)
			if err != nil {
				return "", fmt.Errorf("resolve field %s/%s: %w", tgt, name, err)
			}
			if f == nil || strings.TrimSpace(f.Value) == "" {
				continue
			}
			parts = append(parts, f.Value)
		}
	}

	return strings.Join(parts, "\n"), nil
}

// DropDescendants forgets the cached descendant list for a theme.
// Called when the theme's child-edge set changes.
func (r *Resolver) DropDescendants(themeID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.descendants, themeID)
}

// Clear forgets every cached descendant list.
func (r *Resolver) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.descendants = make(map[int64][]models.Theme)
}
