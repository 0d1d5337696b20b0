// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"database/sql"
	"fmt"

	"themepress/internal/models"
	"themepress/internal/slug"
)

// CategoryStore exposes the category state the stylesheet pipeline
// depends on: which categories carry a background image, and when that
// set last changed.
type CategoryStore struct {
	db *sql.DB
}

// NewCategoryStore creates a new CategoryStore.
func NewCategoryStore(db *sql.DB) *CategoryStore {
	return &CategoryStore{db: db}
}

// Create inserts a category. The slug is derived from the name; it
// becomes part of generated CSS selectors, so it must stay URL- and
// selector-safe.
func (s *CategoryStore) Create(name string) (*models.Category, error) {
	var c models.Category
	err := s.db.QueryRow(`
		INSERT INTO categories (slug) VALUES ($1)
		RETURNING id, slug, background_url, updated_at
	`, slug.Generate(name)).Scan(&c.ID, &c.Slug, &c.BackgroundURL, &c.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	return &c, nil
}

// SetBackground sets or clears a category's background image URL.
func (s *CategoryStore) SetBackground(id int64, url *string) error {
	result, err := s.db.Exec(`
		UPDATE categories SET background_url = $1, updated_at = NOW() WHERE id = $2
	`, url, id)
	if err != nil {
		return fmt.Errorf("set category background: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("category not found")
	}
	return nil
}

// WithBackgrounds returns all categories that currently have a
// background image, in stable slug order.
func (s *CategoryStore) WithBackgrounds() ([]models.Category, error) {
	rows, err := s.db.Query(`
		SELECT id, slug, background_url, updated_at
		FROM categories
		WHERE background_url IS NOT NULL
		ORDER BY slug
	`)
	if err != nil {
		return nil, fmt.Errorf("categories with backgrounds: %w", err)
	}
	defer rows.Close()

	var items []models.Category
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.Slug, &c.BackgroundURL, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

// LastBackgroundUpdate returns the Unix time of the newest change among
// categories with a background image, or 0 when none have one. It is a
// monotonic input to the base stylesheet digest.
func (s *CategoryStore) LastBackgroundUpdate() (int64, error) {
	var epoch sql.NullFloat64
	err := s.db.QueryRow(`
		SELECT EXTRACT(EPOCH FROM MAX(updated_at))
		FROM categories
		WHERE background_url IS NOT NULL
	`).Scan(&epoch)
	if err != nil {
		return 0, fmt.Errorf("last background update: %w", err)
	}
	if !epoch.Valid {
		return 0, nil
	}
	return int64(epoch.Float64), nil
}
