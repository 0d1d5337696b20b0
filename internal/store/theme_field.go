// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// theme_field.go persists the normalized per-field theme content:
// (theme, target, name) → raw value plus the lazily baked value and the
// hash/version stamps that gate rebaking.
package store

import (
	"database/sql"
	"fmt"

	"themepress/internal/models"
)

// ThemeFieldStore handles theme field rows.
type ThemeFieldStore struct {
	db *sql.DB
}

// NewThemeFieldStore creates a new ThemeFieldStore.
func NewThemeFieldStore(db *sql.DB) *ThemeFieldStore {
	return &ThemeFieldStore{db: db}
}

// fieldColumns lists the columns selected in theme field queries.
const fieldColumns = `id, theme_id, target, name, value, value_baked, baked_hash, compiler_version, created_at, updated_at`

// scanField scans a theme field row from the result set.
func scanField(scanner interface{ Scan(...any) error }) (*models.ThemeField, error) {
	var f models.ThemeField
	err := scanner.Scan(&f.ID, &f.ThemeID, &f.Target, &f.Name, &f.Value,
		&f.ValueBaked, &f.BakedHash, &f.CompilerVersion, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// Get retrieves one field by its unique (theme, target, name) triple.
// Returns nil if the theme has no such field.
func (s *ThemeFieldStore) Get(themeID int64, target models.Target, name string) (*models.ThemeField, error) {
	row := s.db.QueryRow(`
		SELECT `+fieldColumns+` FROM theme_fields
		WHERE theme_id = $1 AND target = $2 AND name = $3
	`, themeID, target, name)
	f, err := scanField(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get theme field: %w", err)
	}
	return f, nil
}

// ListForTheme returns all fields of a theme, common targets first so
// save-triggered rebakes process them in resolution order.
func (s *ThemeFieldStore) ListForTheme(themeID int64) ([]models.ThemeField, error) {
	rows, err := s.db.Query(`
		SELECT `+fieldColumns+` FROM theme_fields
		WHERE theme_id = $1
		ORDER BY CASE target WHEN 'common' THEN 0 ELSE 1 END, target, name
	`, themeID)
	if err != nil {
		return nil, fmt.Errorf("list theme fields: %w", err)
	}
	defer rows.Close()

	var items []models.ThemeField
	for rows.Next() {
		f, err := scanField(rows)
		if err != nil {
			return nil, fmt.Errorf("scan theme field: %w", err)
		}
		items = append(items, *f)
	}
	return items, rows.Err()
}

// Set upserts a field's raw value. When the value actually changed the
// baked value and its hash are cleared so the next read rebakes.
// Returns the stored field and whether the raw value changed.
func (s *ThemeFieldStore) Set(themeID int64, target models.Target, name, value string) (*models.ThemeField, bool, error) {
	if !models.ValidTarget(target) {
		return nil, false, fmt.Errorf("unknown field target %q", target)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, false, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRow(`
		SELECT `+fieldColumns+` FROM theme_fields
		WHERE theme_id = $1 AND target = $2 AND name = $3
		FOR UPDATE
	`, themeID, target, name)
	existing, err := scanField(row)
	if err != nil && err != sql.ErrNoRows {
		return nil, false, fmt.Errorf("set theme field select: %w", err)
	}

	var f *models.ThemeField
	changed := true
	if existing == nil {
		f, err = scanField(tx.QueryRow(`
			INSERT INTO theme_fields (theme_id, target, name, value)
			VALUES ($1, $2, $3, $4)
			RETURNING `+fieldColumns,
			themeID, target, name, value))
		if err != nil {
			return nil, false, fmt.Errorf("insert theme field: %w", err)
		}
	} else if existing.Value == value {
		f = existing
		changed = false
	} else {
		f, err = scanField(tx.QueryRow(`
			UPDATE theme_fields
			SET value = $1, value_baked = NULL, baked_hash = NULL, updated_at = NOW()
			WHERE id = $2
			RETURNING `+fieldColumns,
			value, existing.ID))
		if err != nil {
			return nil, false, fmt.Errorf("update theme field: %w", err)
		}
	}

	if changed {
		if _, err := tx.Exec(`UPDATE themes SET updated_at = NOW() WHERE id = $1`, themeID); err != nil {
			return nil, false, fmt.Errorf("touch theme: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("set theme field commit: %w", err)
	}
	return f, changed, nil
}

// SaveBaked stores a freshly baked value with the source hash and
// engine version it was produced under, in one atomic write.
func (s *ThemeFieldStore) SaveBaked(fieldID int64, baked, sourceHash string, compilerVersion int) error {
	_, err := s.db.Exec(`
		UPDATE theme_fields
		SET value_baked = $1, baked_hash = $2, compiler_version = $3, updated_at = NOW()
		WHERE id = $4
	`, baked, sourceHash, compilerVersion, fieldID)
	if err != nil {
		return fmt.Errorf("save baked field: %w", err)
	}
	return nil
}

// ClearBakedForTheme drops every baked value of a theme. Called when
// the compiler-version stamp goes stale after an engine upgrade.
func (s *ThemeFieldStore) ClearBakedForTheme(themeID int64) error {
	_, err := s.db.Exec(`
		UPDATE theme_fields
		SET value_baked = NULL, baked_hash = NULL, updated_at = NOW()
		WHERE theme_id = $1
	`, themeID)
	if err != nil {
		return fmt.Errorf("clear baked fields: %w", err)
	}
	return nil
}
