// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package store contains the PostgreSQL persistence layer: themes and
// their fields, inheritance edges, color schemes, categories, and the
// durable compiled-stylesheet cache.
package store

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"themepress/internal/models"
)

// ThemeStore handles theme rows and parent→child inheritance edges.
type ThemeStore struct {
	db *sql.DB
}

// NewThemeStore creates a new ThemeStore.
func NewThemeStore(db *sql.DB) *ThemeStore {
	return &ThemeStore{db: db}
}

// themeColumns lists the columns selected in theme queries.
const themeColumns = `id, key, name, color_scheme_id, compiler_version, enabled, user_selectable, hidden, created_at, updated_at`

// scanTheme scans a theme row from the result set.
func scanTheme(scanner interface{ Scan(...any) error }) (*models.Theme, error) {
	var t models.Theme
	err := scanner.Scan(&t.ID, &t.Key, &t.Name, &t.ColorSchemeID, &t.CompilerVersion,
		&t.Enabled, &t.UserSelectable, &t.Hidden, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Create inserts a new theme. A public key is generated when the caller
// left it zero, mirroring the opaque-key-on-create contract.
func (s *ThemeStore) Create(t *models.Theme) (*models.Theme, error) {
	if t.Key == uuid.Nil {
		t.Key = uuid.New()
	}
	err := s.db.QueryRow(`
		INSERT INTO themes (key, name, color_scheme_id, enabled, user_selectable, hidden)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+themeColumns,
		t.Key, t.Name, t.ColorSchemeID, t.Enabled, t.UserSelectable, t.Hidden,
	).Scan(&t.ID, &t.Key, &t.Name, &t.ColorSchemeID, &t.CompilerVersion,
		&t.Enabled, &t.UserSelectable, &t.Hidden, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("create theme: %w", err)
	}
	return t, nil
}

// FindByID retrieves a theme by its numeric identity. Returns nil if not found.
func (s *ThemeStore) FindByID(id int64) (*models.Theme, error) {
	row := s.db.QueryRow(`SELECT `+themeColumns+` FROM themes WHERE id = $1`, id)
	t, err := scanTheme(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find theme by id: %w", err)
	}
	return t, nil
}

// FindByKey retrieves a theme by its opaque public key. Returns nil if not found.
func (s *ThemeStore) FindByKey(key string) (*models.Theme, error) {
	row := s.db.QueryRow(`SELECT `+themeColumns+` FROM themes WHERE key = $1`, key)
	t, err := scanTheme(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find theme by key: %w", err)
	}
	return t, nil
}

// List returns all themes ordered by name.
func (s *ThemeStore) List() ([]models.Theme, error) {
	rows, err := s.db.Query(`SELECT ` + themeColumns + ` FROM themes ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list themes: %w", err)
	}
	defer rows.Close()

	var items []models.Theme
	for rows.Next() {
		t, err := scanTheme(rows)
		if err != nil {
			return nil, fmt.Errorf("scan theme: %w", err)
		}
		items = append(items, *t)
	}
	return items, rows.Err()
}

// ListEnabled returns all enabled themes ordered by name, the order the
// aggregate stylesheet concatenates them in.
func (s *ThemeStore) ListEnabled() ([]models.Theme, error) {
	rows, err := s.db.Query(`SELECT ` + themeColumns + ` FROM themes WHERE enabled = TRUE ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list enabled themes: %w", err)
	}
	defer rows.Close()

	var items []models.Theme
	for rows.Next() {
		t, err := scanTheme(rows)
		if err != nil {
			return nil, fmt.Errorf("scan theme: %w", err)
		}
		items = append(items, *t)
	}
	return items, rows.Err()
}

// ChildrenOf returns the direct children of any of the given themes, in
// edge insertion order. The resolver calls this once per traversal
// iteration.
func (s *ThemeStore) ChildrenOf(ids []int64) ([]models.Theme, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := s.db.Query(`
		SELECT t.id, t.key, t.name, t.color_scheme_id, t.compiler_version,
		       t.enabled, t.user_selectable, t.hidden, t.created_at, t.updated_at
		FROM child_themes ct
		JOIN themes t ON t.id = ct.child_theme_id
		WHERE ct.parent_theme_id = ANY($1)
		ORDER BY ct.id
	`, ids)
	if err != nil {
		return nil, fmt.Errorf("children of themes: %w", err)
	}
	defer rows.Close()

	var items []models.Theme
	for rows.Next() {
		t, err := scanTheme(rows)
		if err != nil {
			return nil, fmt.Errorf("scan child theme: %w", err)
		}
		items = append(items, *t)
	}
	return items, rows.Err()
}

// AddChild records a parent→child inheritance edge. The schema rejects
// duplicate edges in either direction.
func (s *ThemeStore) AddChild(parentID, childID int64) error {
	if parentID == childID {
		return fmt.Errorf("theme cannot be its own child")
	}
	_, err := s.db.Exec(`
		INSERT INTO child_themes (parent_theme_id, child_theme_id)
		VALUES ($1, $2)
	`, parentID, childID)
	if err != nil {
		return fmt.Errorf("add child theme: %w", err)
	}
	return nil
}

// RemoveChild deletes a parent→child edge.
func (s *ThemeStore) RemoveChild(parentID, childID int64) error {
	result, err := s.db.Exec(`
		DELETE FROM child_themes WHERE parent_theme_id = $1 AND child_theme_id = $2
	`, parentID, childID)
	if err != nil {
		return fmt.Errorf("remove child theme: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("child theme edge not found")
	}
	return nil
}

// SetEnabled toggles a theme's enablement.
func (s *ThemeStore) SetEnabled(id int64, enabled bool) error {
	result, err := s.db.Exec(`
		UPDATE themes SET enabled = $1, updated_at = NOW() WHERE id = $2
	`, enabled, id)
	if err != nil {
		return fmt.Errorf("set theme enabled: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("theme not found")
	}
	return nil
}

// SetColorScheme points a theme at a color scheme (nil detaches).
func (s *ThemeStore) SetColorScheme(id int64, schemeID *int64) error {
	_, err := s.db.Exec(`
		UPDATE themes SET color_scheme_id = $1, updated_at = NOW() WHERE id = $2
	`, schemeID, id)
	if err != nil {
		return fmt.Errorf("set theme color scheme: %w", err)
	}
	return nil
}

// SetCompilerVersion stamps a theme with the engine version that last
// baked its fields.
func (s *ThemeStore) SetCompilerVersion(id int64, version int) error {
	_, err := s.db.Exec(`
		UPDATE themes SET compiler_version = $1, updated_at = NOW() WHERE id = $2
	`, version, id)
	if err != nil {
		return fmt.Errorf("set theme compiler version: %w", err)
	}
	return nil
}

// Delete removes a theme. Fields and edges cascade away with it.
func (s *ThemeStore) Delete(id int64) error {
	result, err := s.db.Exec(`DELETE FROM themes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete theme: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("theme not found")
	}
	return nil
}
