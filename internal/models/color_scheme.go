// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import "time"

// ColorScheme is a named palette a theme can reference. Version is a
// monotonic counter bumped on every edit; it feeds the stylesheet
// digest so palette changes invalidate compiled CSS.
type ColorScheme struct {
	ID        int64             `json:"id"`
	Name      string            `json:"name"`
	Version   int               `json:"version"`
	Colors    map[string]string `json:"colors"` // color name -> hex, no leading '#'
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// HexForName returns the scheme's hex for a named color, falling back
// to the built-in base palette when the scheme does not define it.
func (cs *ColorScheme) HexForName(name string) string {
	if cs != nil {
		if hex, ok := cs.Colors[name]; ok && hex != "" {
			return hex
		}
	}
	return BaseColors[name]
}

// BaseColors is the built-in default palette. Variable injection emits
// these with !default so theme-level definitions win.
var BaseColors = map[string]string{
	"primary":           "222222",
	"secondary":         "ffffff",
	"tertiary":          "0088cc",
	"quaternary":        "e45735",
	"header_background": "ffffff",
	"header_primary":    "333333",
	"highlight":         "ffff4d",
	"danger":            "e45735",
	"success":           "009900",
	"love":              "fa6c8d",
}

// BaseColorNames returns the base palette names in a stable order, so
// generated variable preludes are deterministic.
func BaseColorNames() []string {
	return []string{
		"primary", "secondary", "tertiary", "quaternary",
		"header_background", "header_primary",
		"highlight", "danger", "success", "love",
	}
}
