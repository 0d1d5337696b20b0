// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// style.go is the style half of the field compiler. The SCSS language
// itself is a black box behind StyleBackend; this file owns the
// variable-injection prelude and the error-to-output recovery that
// guarantees every compile attempt yields servable CSS.
package compiler

import (
	"fmt"
	"sort"
	"strings"

	"themepress/internal/models"
)

// StyleRequest is one compilation unit handed to the backend.
type StyleRequest struct {
	Source    string
	Filename  string   // logical name, keys the source map
	Imports   *Imports // resolves the special @import names
	SourceMap bool
}

// StyleResult is the backend's output.
type StyleResult struct {
	CSS       string
	SourceMap string
}

// StyleBackend is the black-box SCSS compiler. The production backend
// wraps dart-sass; tests substitute their own.
type StyleBackend interface {
	Compile(req StyleRequest) (StyleResult, error)
}

// StyleCompiler wraps a backend with theme semantics.
type StyleCompiler struct {
	backend StyleBackend
}

// NewStyleCompiler creates a style compiler on the given backend.
func NewStyleCompiler(backend StyleBackend) *StyleCompiler {
	return &StyleCompiler{backend: backend}
}

// Compile runs the backend directly. Callers that need the
// never-fails guarantee use CompileTheme instead.
func (c *StyleCompiler) Compile(req StyleRequest) (StyleResult, error) {
	return c.backend.Compile(req)
}

// CompileTheme compiles concatenated theme SCSS with the color-scheme
// variable prelude injected. It never fails: a syntax error becomes
// fallback CSS that displays the error, so a broken save still leaves
// the site renderable. The source map is empty on the error path.
func (c *StyleCompiler) CompileTheme(scss string, scheme *models.ColorScheme, filename string) (css, sourceMap string) {
	if strings.TrimSpace(scss) == "" {
		return "", ""
	}

	req := StyleRequest{
		Source:    "@import \"theme_variables\";\n" + scss,
		Filename:  filename,
		Imports:   NewImports(scheme, nil, ""),
		SourceMap: true,
	}
	result, err := c.backend.Compile(req)
	if err != nil {
		return ErrorCSS(err, filename), ""
	}
	return result.CSS, result.SourceMap
}

// ErrorCSS renders a compile error as a tiny valid stylesheet that
// displays the sanitized error text in the page footer.
func ErrorCSS(err error, label string) string {
	msg := err.Error()
	msg = strings.ReplaceAll(msg, "\n", `\A `)
	msg = strings.ReplaceAll(msg, "'", `\27 `)

	return fmt.Sprintf("footer { white-space: pre; }\nfooter:after { content: 'Error compiling %s: %s' }", label, msg)
}

// Imports supplies the sources behind the special import names the
// pipeline recognizes: the color-scheme variable prelude and the
// generated per-category background rules.
type Imports struct {
	scheme     *models.ColorScheme
	categories []models.Category
	cdnURL     string
}

// NewImports captures the state a single compile resolves imports
// against. scheme and categories may be nil/empty.
func NewImports(scheme *models.ColorScheme, categories []models.Category, cdnURL string) *Imports {
	return &Imports{scheme: scheme, categories: categories, cdnURL: cdnURL}
}

// Resolve returns the source behind a special import name, or false
// when the name is not one of ours (the backend then falls back to its
// load path).
func (im *Imports) Resolve(name string) (string, bool) {
	switch name {
	case "theme_variables":
		return im.variables(), true
	case "category_backgrounds":
		return im.categoryBackgrounds(), true
	}
	return "", false
}

// variables emits one $name: #hex !default; line per known color. The
// !default keeps theme-level definitions from being overridden. Scheme
// colors outside the base palette are appended in sorted order so the
// prelude stays deterministic.
func (im *Imports) variables() string {
	var b strings.Builder
	for _, name := range models.BaseColorNames() {
		fmt.Fprintf(&b, "$%s: #%s !default;\n", name, im.scheme.HexForName(name))
	}

	if im.scheme != nil {
		var extras []string
		for name := range im.scheme.Colors {
			if _, ok := models.BaseColors[name]; !ok {
				extras = append(extras, name)
			}
		}
		sort.Strings(extras)
		for _, name := range extras {
			fmt.Fprintf(&b, "$%s: #%s !default;\n", name, im.scheme.Colors[name])
		}
	}
	return b.String()
}

// categoryBackgrounds generates one body-scoped rule per category with
// an uploaded background image.
func (im *Imports) categoryBackgrounds() string {
	var b strings.Builder
	for _, c := range im.categories {
		if c.BackgroundURL == nil || *c.BackgroundURL == "" {
			continue
		}
		fmt.Fprintf(&b, "body.category-%s { background-image: url(%s%s) }\n", c.Slug, im.cdnURL, *c.BackgroundURL)
	}
	return b.String()
}
