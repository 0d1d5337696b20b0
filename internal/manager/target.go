// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package manager

import (
	"fmt"
	"strings"

	"themepress/internal/models"
)

// Target is a compiled-stylesheet unit. Base targets compile the
// built-in source tree; the _theme variants compile a theme's resolved
// SCSS.
type Target string

const (
	TargetDesktop       Target = "desktop"
	TargetMobile        Target = "mobile"
	TargetEmbedded      Target = "embedded"
	TargetDesktopTheme  Target = "desktop_theme"
	TargetMobileTheme   Target = "mobile_theme"
	TargetEmbeddedTheme Target = "embedded_theme"
)

const themeSuffix = "_theme"

// ParseTarget validates a target string.
func ParseTarget(s string) (Target, bool) {
	switch t := Target(s); t {
	case TargetDesktop, TargetMobile, TargetEmbedded,
		TargetDesktopTheme, TargetMobileTheme, TargetEmbeddedTheme:
		return t, true
	}
	return "", false
}

// IsTheme reports whether the target compiles theme content.
func (t Target) IsTheme() bool {
	return strings.HasSuffix(string(t), themeSuffix)
}

// FieldTarget maps a stylesheet target onto the field target whose
// SCSS it resolves.
func (t Target) FieldTarget() models.Target {
	return models.Target(strings.TrimSuffix(string(t), themeSuffix))
}

// Qualified returns the cache/file naming unit for the target: theme
// targets append the theme identity, base targets append the active
// non-default color scheme identity when one is set.
func (t Target) Qualified(theme *models.Theme) string {
	if t.IsTheme() {
		if theme == nil {
			return string(t)
		}
		return fmt.Sprintf("%s_%d", t, theme.ID)
	}
	if theme != nil && theme.ColorSchemeID != nil {
		return fmt.Sprintf("%s_%d", t, *theme.ColorSchemeID)
	}
	return string(t)
}
