// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package resolver

import (
	"themepress/internal/models"
	"themepress/internal/store"
)

// StoreSource adapts the theme and field stores to the ThemeSource
// contract the resolver reads from.
type StoreSource struct {
	Themes *store.ThemeStore
	Fields *store.ThemeFieldStore
}

// NewStoreSource bundles the two stores into one source.
func NewStoreSource(themes *store.ThemeStore, fields *store.ThemeFieldStore) *StoreSource {
	return &StoreSource{Themes: themes, Fields: fields}
}

// ChildrenOf implements ThemeSource.
func (s *StoreSource) ChildrenOf(ids []int64) ([]models.Theme, error) {
	return s.Themes.ChildrenOf(ids)
}

// Field implements ThemeSource.
func (s *StoreSource) Field(themeID int64, target models.Target, name string) (*models.ThemeField, error) {
	return s.Fields.Get(themeID, target, name)
}
