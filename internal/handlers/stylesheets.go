// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package handlers serves compiled stylesheet artifacts. The surface is
// intentionally small: one GET route covering plain and source-map
// requests, with digest-addressed immutable caching.
package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"regexp"
	"strings"

	"github.com/go-chi/chi/v5"

	"themepress/internal/manager"
)

// stylesheetName matches `{target}` or `{target}_{40-hex-digest}`,
// where target itself may contain underscores (desktop_theme_42).
var stylesheetName = regexp.MustCompile(`^(.+?)(?:_([a-f0-9]{40}))?$`)

// Stylesheets serves compiled CSS and source maps out of the artifact
// cache, rebuilding on demand when the disk copy is gone.
type Stylesheets struct {
	manager    *manager.Manager
	production bool
}

func NewStylesheets(m *manager.Manager, production bool) *Stylesheets {
	return &Stylesheets{manager: m, production: production}
}

// Show handles GET /stylesheets/{name}, where name is
// `{qualifiedTarget}[_{digest}]` plus a `.css` or `.css.map` extension.
func (h *Stylesheets) Show(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	sourceMap := strings.HasSuffix(name, ".css.map")
	name = strings.TrimSuffix(name, ".map")
	if !strings.HasSuffix(name, ".css") {
		http.NotFound(w, r)
		return
	}
	name = strings.TrimSuffix(name, ".css")

	m := stylesheetName.FindStringSubmatch(name)
	if m == nil {
		http.NotFound(w, r)
		return
	}
	qualified, digest := m[1], m[2]

	// A fresh conditional request answers without touching the compiler.
	if digest != "" {
		if since, err := http.ParseTime(r.Header.Get("If-Modified-Since")); err == nil {
			fresh, err := h.manager.FreshSince(qualified, digest, since)
			if err == nil && fresh {
				w.WriteHeader(http.StatusNotModified)
				return
			}
		}
	}

	artifact, err := h.manager.Serve(r.Context(), qualified, digest)
	if errors.Is(err, manager.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		slog.Error("stylesheet serve failed", "name", name, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	body := artifact.CSS
	contentType := "text/css; charset=utf-8"
	if sourceMap {
		if artifact.SourceMap == "" {
			http.NotFound(w, r)
			return
		}
		body = []byte(artifact.SourceMap)
		contentType = "application/json; charset=utf-8"
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Last-Modified", artifact.CreatedAt.UTC().Format(http.TimeFormat))
	if digest != "" && h.production {
		// Digest-addressed content never changes under its URL.
		w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	} else {
		w.Header().Set("Cache-Control", "no-cache")
	}
	w.Write(body)
}
