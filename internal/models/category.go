// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import "time"

// Category is the slice of the category table the stylesheet pipeline
// cares about: categories with an uploaded background image contribute
// generated CSS to base targets, and the newest such update feeds the
// base digest.
type Category struct {
	ID            int64     `json:"id"`
	Slug          string    `json:"slug"`
	BackgroundURL *string   `json:"background_url"`
	UpdatedAt     time.Time `json:"updated_at"`
}
