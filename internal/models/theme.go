// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package models defines the persisted value types shared by the stores,
// the resolver, and the compilation engine.
package models

import (
	"time"

	"github.com/google/uuid"
)

// AggregateThemeKey is the well-known sentinel key standing for "the
// aggregate of all enabled themes". Cache entries and invalidation
// messages use it alongside real theme keys.
const AggregateThemeKey = "3f6fbbd1-9c0e-4c7a-8e70-5a8e5e7f2b10"

// Theme is a named, user-owned bundle of style and markup fragments.
// A theme may inherit fragments from any number of child themes; the
// parent/child edges live in the child_themes table and are not
// guaranteed to be acyclic.
type Theme struct {
	ID              int64     `json:"id"`
	Key             uuid.UUID `json:"key"` // opaque public key used in URLs
	Name            string    `json:"name"`
	ColorSchemeID   *int64    `json:"color_scheme_id"`
	CompilerVersion int       `json:"compiler_version"`
	Enabled         bool      `json:"enabled"`
	UserSelectable  bool      `json:"user_selectable"`
	Hidden          bool      `json:"hidden"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// ChildTheme is one parent→child inheritance edge. Uniqueness of the
// ordered pair is enforced by the schema; acyclicity is not.
type ChildTheme struct {
	ID            int64 `json:"id"`
	ParentThemeID int64 `json:"parent_theme_id"`
	ChildThemeID  int64 `json:"child_theme_id"`
}
