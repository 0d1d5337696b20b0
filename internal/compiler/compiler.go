// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package compiler turns resolved theme fragments into servable output:
// SCSS into CSS (with error-to-output recovery) and markup fragments
// with embedded template/plugin script blocks into precompiled HTML.
package compiler

import (
	"crypto/sha1"
	"encoding/hex"
)

// Version is the engine version stamped onto baked fields. Bumping it
// invalidates every baked value on next read.
const Version = 5

// SourceHash returns the hex SHA-1 of a source string. Baked fields
// store it so an unchanged source is never rebaked.
func SourceHash(source string) string {
	sum := sha1.Sum([]byte(source))
	return hex.EncodeToString(sum[:])
}
