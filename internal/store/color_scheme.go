// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"database/sql"
	"fmt"

	"themepress/internal/models"
)

// ColorSchemeStore handles color scheme rows and their named colors.
// Every color edit bumps the scheme's version so digests change.
type ColorSchemeStore struct {
	db *sql.DB
}

// NewColorSchemeStore creates a new ColorSchemeStore.
func NewColorSchemeStore(db *sql.DB) *ColorSchemeStore {
	return &ColorSchemeStore{db: db}
}

// Create inserts a scheme and its colors.
func (s *ColorSchemeStore) Create(cs *models.ColorScheme) (*models.ColorScheme, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	err = tx.QueryRow(`
		INSERT INTO color_schemes (name) VALUES ($1)
		RETURNING id, name, version, created_at, updated_at
	`, cs.Name).Scan(&cs.ID, &cs.Name, &cs.Version, &cs.CreatedAt, &cs.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("create color scheme: %w", err)
	}

	for name, hex := range cs.Colors {
		if _, err := tx.Exec(`
			INSERT INTO color_scheme_colors (color_scheme_id, name, hex)
			VALUES ($1, $2, $3)
		`, cs.ID, name, hex); err != nil {
			return nil, fmt.Errorf("create color scheme color: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("create color scheme commit: %w", err)
	}
	return cs, nil
}

// FindByID retrieves a scheme with its colors. Returns nil if not found.
func (s *ColorSchemeStore) FindByID(id int64) (*models.ColorScheme, error) {
	var cs models.ColorScheme
	err := s.db.QueryRow(`
		SELECT id, name, version, created_at, updated_at
		FROM color_schemes WHERE id = $1
	`, id).Scan(&cs.ID, &cs.Name, &cs.Version, &cs.CreatedAt, &cs.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find color scheme: %w", err)
	}

	rows, err := s.db.Query(`
		SELECT name, hex FROM color_scheme_colors WHERE color_scheme_id = $1
	`, id)
	if err != nil {
		return nil, fmt.Errorf("find color scheme colors: %w", err)
	}
	defer rows.Close()

	cs.Colors = make(map[string]string)
	for rows.Next() {
		var name, hex string
		if err := rows.Scan(&name, &hex); err != nil {
			return nil, fmt.Errorf("scan color: %w", err)
		}
		cs.Colors[name] = hex
	}
	return &cs, rows.Err()
}

// SetColor upserts one named color and bumps the scheme version in the
// same transaction, so a palette edit always moves the digest.
func (s *ColorSchemeStore) SetColor(schemeID int64, name, hex string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`
		INSERT INTO color_scheme_colors (color_scheme_id, name, hex)
		VALUES ($1, $2, $3)
		ON CONFLICT (color_scheme_id, name) DO UPDATE SET hex = EXCLUDED.hex
	`, schemeID, name, hex); err != nil {
		return fmt.Errorf("set color: %w", err)
	}

	result, err := tx.Exec(`
		UPDATE color_schemes SET version = version + 1, updated_at = NOW() WHERE id = $1
	`, schemeID)
	if err != nil {
		return fmt.Errorf("bump color scheme version: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("color scheme not found")
	}

	return tx.Commit()
}

// BumpVersion increments the scheme version without touching colors.
// Used by callers that edited scheme metadata affecting output.
func (s *ColorSchemeStore) BumpVersion(id int64) error {
	result, err := s.db.Exec(`
		UPDATE color_schemes SET version = version + 1, updated_at = NOW() WHERE id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("bump color scheme version: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("color scheme not found")
	}
	return nil
}
