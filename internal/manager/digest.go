// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// digest.go computes the content+environment fingerprint that keys the
// artifact cache. Identical logical inputs always produce the identical
// digest; only derived, monotonic counters enter it, never wall-clock
// time or randomness.
package manager

import (
	"fmt"

	"themepress/internal/compiler"
	"themepress/internal/models"
)

// themeDigest fingerprints a theme target: the fully resolved SCSS of
// the relevant field set. Any change anywhere in the inheritance chain
// changes the resolved text and therefore the digest.
func themeDigest(resolvedSCSS string) string {
	return compiler.SourceHash(resolvedSCSS)
}

// baseDigest fingerprints a base target from its environment: the
// newest built-in source mtime, the active color scheme's identity and
// version, the category-background rollup, and the CDN base URL (CDN
// switches invalidate absolute URLs embedded in output).
func baseDigest(scheme *models.ColorScheme, lastFileUpdated, categoryUpdated int64, cdnURL string) string {
	if scheme != nil || categoryUpdated > 0 {
		var schemeID int64
		var schemeVersion int
		if scheme != nil {
			schemeID = scheme.ID
			schemeVersion = scheme.Version
		}
		return compiler.SourceHash(fmt.Sprintf("%d-%d-%d-%d", schemeID, schemeVersion, lastFileUpdated, categoryUpdated))
	}

	s := fmt.Sprintf("defaults-%d", lastFileUpdated)
	if cdnURL != "" {
		s = fmt.Sprintf("%s-%s", s, cdnURL)
	}
	return compiler.SourceHash(s)
}
