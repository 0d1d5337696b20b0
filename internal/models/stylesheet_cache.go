// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import "time"

// StylesheetCacheEntry is one durable compiled artifact, keyed by
// (qualified target, digest). Rows are append-only: a new digest gets a
// new row, old rows stay behind for conditional re-serves until pruned.
type StylesheetCacheEntry struct {
	ID        int64     `json:"id"`
	Target    string    `json:"target"` // qualified target, e.g. "desktop_theme_4" or "mobile_2"
	Digest    string    `json:"digest"` // 40-char hex
	Content   string    `json:"content"`
	SourceMap *string   `json:"source_map"`
	CreatedAt time.Time `json:"created_at"`
}
