// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import "time"

// Target is the output context a theme field applies to. Common fields
// contribute to every target; the rest scope a field to one device class
// or to embedded (third-party) rendering.
type Target string

const (
	TargetCommon   Target = "common"
	TargetDesktop  Target = "desktop"
	TargetMobile   Target = "mobile"
	TargetEmbedded Target = "embedded"
)

// ValidTarget reports whether t is one of the recognized field targets.
func ValidTarget(t Target) bool {
	switch t {
	case TargetCommon, TargetDesktop, TargetMobile, TargetEmbedded:
		return true
	}
	return false
}

// Recognized field names. The set is closed: lookups take the name as a
// value rather than generating one accessor per field.
const (
	FieldSCSS        = "scss"
	FieldHeader      = "header"
	FieldAfterHeader = "after_header"
	FieldFooter      = "footer"
	FieldHeadTag     = "head_tag"
	FieldBodyTag     = "body_tag"
)

// HTMLFieldNames lists the fields whose raw value is a markup fragment
// and whose baked value is produced by the markup compiler.
func HTMLFieldNames() []string {
	return []string{FieldHeader, FieldAfterHeader, FieldFooter, FieldHeadTag, FieldBodyTag}
}

// IsHTMLField reports whether name is baked by the markup compiler.
// Everything else recognized (currently only scss) is baked by the
// style compiler.
func IsHTMLField(name string) bool {
	switch name {
	case FieldHeader, FieldAfterHeader, FieldFooter, FieldHeadTag, FieldBodyTag:
		return true
	}
	return false
}

// KnownField reports whether name belongs to the closed field-name set.
func KnownField(name string) bool {
	return name == FieldSCSS || IsHTMLField(name)
}

// ThemeField is one named, targeted fragment of raw theme source.
// ValueBaked is the compiled form; it is nil until baked and is cleared
// whenever Value changes. BakedHash records the SHA-1 of the resolved
// inputs at bake time so an unchanged field is never rebaked. The
// compiler-version stamp invalidates every baked value after an engine
// upgrade.
type ThemeField struct {
	ID              int64     `json:"id"`
	ThemeID         int64     `json:"theme_id"`
	Target          Target    `json:"target"`
	Name            string    `json:"name"`
	Value           string    `json:"value"`
	ValueBaked      *string   `json:"value_baked"`
	BakedHash       *string   `json:"baked_hash"`
	CompilerVersion int       `json:"compiler_version"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
