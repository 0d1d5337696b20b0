// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// stylesheet_cache.go is the durable tier of the artifact cache:
// append-only (qualified target, digest) → compiled CSS rows shared by
// every process in the fleet.
package store

import (
	"database/sql"
	"fmt"

	"themepress/internal/models"
)

// maxEntriesPerTarget bounds how many historical digests are kept per
// qualified target. Older rows only matter for conditional re-serves
// of stale clients.
const maxEntriesPerTarget = 50

// StylesheetCacheStore handles durable compiled-stylesheet rows.
type StylesheetCacheStore struct {
	db *sql.DB
}

// NewStylesheetCacheStore creates a new StylesheetCacheStore.
func NewStylesheetCacheStore(db *sql.DB) *StylesheetCacheStore {
	return &StylesheetCacheStore{db: db}
}

// cacheColumns lists the columns selected in stylesheet cache queries.
const cacheColumns = `id, target, digest, content, source_map, created_at`

// scanCacheEntry scans a stylesheet cache row from the result set.
func scanCacheEntry(scanner interface{ Scan(...any) error }) (*models.StylesheetCacheEntry, error) {
	var e models.StylesheetCacheEntry
	err := scanner.Scan(&e.ID, &e.Target, &e.Digest, &e.Content, &e.SourceMap, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// Add upserts a compiled artifact for (target, digest) and prunes the
// oldest rows beyond the per-target retention bound.
func (s *StylesheetCacheStore) Add(target, digest, content string, sourceMap *string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`
		INSERT INTO stylesheet_cache (target, digest, content, source_map)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (target, digest) DO UPDATE
		SET content = EXCLUDED.content, source_map = EXCLUDED.source_map
	`, target, digest, content, sourceMap); err != nil {
		return fmt.Errorf("add stylesheet cache entry: %w", err)
	}

	if _, err := tx.Exec(`
		DELETE FROM stylesheet_cache
		WHERE target = $1 AND id NOT IN (
			SELECT id FROM stylesheet_cache WHERE target = $1 ORDER BY id DESC LIMIT $2
		)
	`, target, maxEntriesPerTarget); err != nil {
		return fmt.Errorf("prune stylesheet cache: %w", err)
	}

	return tx.Commit()
}

// FindByDigest retrieves the exact (target, digest) entry. Returns nil
// if not found.
func (s *StylesheetCacheStore) FindByDigest(target, digest string) (*models.StylesheetCacheEntry, error) {
	row := s.db.QueryRow(`
		SELECT `+cacheColumns+` FROM stylesheet_cache
		WHERE target = $1 AND digest = $2
	`, target, digest)
	e, err := scanCacheEntry(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find stylesheet cache entry: %w", err)
	}
	return e, nil
}

// Latest retrieves the most recent entry for a qualified target,
// whatever its digest. Used for conditional-freshness checks. Returns
// nil if the target has never been compiled.
func (s *StylesheetCacheStore) Latest(target string) (*models.StylesheetCacheEntry, error) {
	row := s.db.QueryRow(`
		SELECT `+cacheColumns+` FROM stylesheet_cache
		WHERE target = $1
		ORDER BY id DESC
		LIMIT 1
	`, target)
	e, err := scanCacheEntry(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest stylesheet cache entry: %w", err)
	}
	return e, nil
}
